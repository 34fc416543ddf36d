// Package frontmatter splits YAML front matter from Markdown sources.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Header is the decoded front matter of one source.
type Header struct {
	// Raw is the YAML between the delimiters, without them.
	Raw    string
	Title  string
	Only   []string
	Fields map[string]any
}

// Split separates YAML front matter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input. The body offset lets callers map body positions back to
// source lines.
func Split(content []byte) (fm []byte, body []byte, offset int, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, 0, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		bodyStart := start + len(open)
		return []byte{}, content[bodyStart:], bodyStart, true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return nil, nil, 0, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	bodyStart := start + idx + len(closeSeq)
	return content[start:end], content[bodyStart:], bodyStart, true, nil
}

// Parse splits content and decodes the front matter into a Header.
func Parse(content []byte) (Header, []byte, int, error) {
	raw, body, offset, had, err := Split(content)
	if err != nil {
		return Header{}, nil, 0, err
	}
	h := Header{Fields: map[string]any{}}
	if !had || len(raw) == 0 {
		return h, body, offset, nil
	}

	h.Raw = string(raw)
	if err := yaml.Unmarshal(raw, &h.Fields); err != nil {
		return Header{}, nil, 0, fmt.Errorf("parse front matter: %w", err)
	}
	if h.Fields == nil {
		h.Fields = map[string]any{}
	}
	if title, ok := h.Fields["title"].(string); ok {
		h.Title = title
	}
	h.Only = stringList(h.Fields["only"])
	return h, body, offset, nil
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
