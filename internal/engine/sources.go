package engine

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/frontmatter"
)

const sourceSuffix = ".md"

// source is one Markdown document found under the source directory.
type source struct {
	name        string
	path        string
	content     []byte
	body        []byte
	bodyOffset  int
	header      frontmatter.Header
	fingerprint string
}

// line maps a byte offset inside body to a 1-based source line.
func (s *source) line(bodyPos int) int {
	pos := s.bodyOffset + bodyPos
	if pos > len(s.content) {
		pos = len(s.content)
	}
	return bytes.Count(s.content[:pos], []byte("\n")) + 1
}

// discoverSources finds every *.md file under srcDir, skipping the build
// directory, hidden entries and documents excluded by `only:` tags.
func discoverSources(srcDir, buildDir string, tags []string) ([]*source, error) {
	var out []*source
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != srcDir && (name == buildDir || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, sourceSuffix) {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		src, err := readSource(path, strings.TrimSuffix(filepath.ToSlash(rel), sourceSuffix))
		if err != nil {
			return err
		}
		if !included(src.header.Only, tags) {
			return nil
		}
		out = append(out, src)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *source) int { return strings.Compare(a.name, b.name) })
	return out, nil
}

func readSource(path, name string) (*source, error) {
	// #nosec G304 -- path comes from walking the configured source directory
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read source").WithContext("path", path).Build()
	}
	header, body, offset, err := frontmatter.Parse(content)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryEngine, "invalid front matter").WithContext("path", path).Build()
	}
	return &source{
		name:        name,
		path:        path,
		content:     content,
		body:        body,
		bodyOffset:  offset,
		header:      header,
		fingerprint: mdfp.CalculateFingerprintFromParts(header.Raw, string(body)),
	}, nil
}

func included(only, tags []string) bool {
	if len(only) == 0 {
		return true
	}
	for _, o := range only {
		if slices.Contains(tags, o) {
			return true
		}
	}
	return false
}
