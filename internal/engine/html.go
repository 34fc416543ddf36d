package engine

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

func newMarkdown(highlight bool) goldmark.Markdown {
	opts := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	}
	if highlight {
		opts = append(opts, goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(&codeRenderer{}, 100)),
		))
	}
	return goldmark.New(opts...)
}

// codeRenderer renders code blocks with highlighter-style markup: each
// whitespace run inside <pre> becomes a <span class="w"> marker.
type codeRenderer struct{}

func (r *codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(gmast.KindFencedCodeBlock, r.renderCode)
	reg.Register(gmast.KindCodeBlock, r.renderCode)
}

func (r *codeRenderer) renderCode(w util.BufWriter, source []byte, n gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	lang := "default"
	if fb, ok := n.(*gmast.FencedCodeBlock); ok {
		if l := fb.Language(source); len(l) > 0 {
			lang = string(l)
		}
	}
	_, _ = fmt.Fprintf(w, `<div class="highlight-%s notranslate"><div class="highlight"><pre><span></span>`, util.EscapeHTML([]byte(lang)))
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		writeTokens(w, seg.Value(source))
	}
	_, _ = w.WriteString("</pre></div>\n</div>\n")
	return gmast.WalkSkipChildren, nil
}

func writeTokens(w util.BufWriter, line []byte) {
	isSpace := func(c byte) bool { return c == ' ' || c == '\t' }
	for i := 0; i < len(line); {
		j := i + 1
		switch {
		case line[i] == '\n':
			_ = w.WriteByte('\n')
			i = j
			continue
		case isSpace(line[i]):
			for j < len(line) && isSpace(line[j]) {
				j++
			}
			_, _ = fmt.Fprintf(w, `<span class="w">%s</span>`, line[i:j])
		default:
			for j < len(line) && !isSpace(line[j]) && line[j] != '\n' {
				j++
			}
			_, _ = fmt.Fprintf(w, `<span class="n">%s</span>`, util.EscapeHTML(line[i:j]))
		}
		i = j
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="{{.Charset}}">
<meta name="generator" content="docsnap-engine">
<title>{{.Title}} &#8212; {{.Project}}</title>
</head>
<body>
<div class="related" role="navigation"><a href="{{.RootURI}}">{{.Project}}</a></div>
<div class="document">
<div class="documentwrapper">
<div class="bodywrapper">
<div class="body" role="main">
{{.Body}}
</div>
</div>
</div>
<div class="sidebar" role="navigation"><p class="source">{{.Source}}</p></div>
</div>
<div class="footer">{{with .Copyright}}&#169; {{.}}. {{end}}Last updated on {{.BuiltAt}}.</div>
</body>
</html>
`))

type pageData struct {
	Charset   string
	Title     string
	Project   string
	RootURI   string
	Body      template.HTML
	Source    string
	Copyright string
	BuiltAt   string
}

// renderPage executes the page template and encodes it with the named charset.
// Characters the charset cannot represent are written as HTML references.
func renderPage(data pageData, charset string, builtAt time.Time) ([]byte, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "unsupported output encoding").
			WithContext("encoding", charset).
			Build()
	}
	if name, err := htmlindex.Name(enc); err == nil {
		data.Charset = name
	} else {
		data.Charset = charset
	}
	data.BuiltAt = builtAt.Format(time.RFC1123)

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "render page template").Build()
	}
	out, err := encoding.HTMLEscapeUnsupported(enc.NewEncoder()).Bytes(buf.Bytes())
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryEngine, "encode page").
			WithContext("encoding", charset).
			Build()
	}
	return out, nil
}
