package engine

import (
	"path"
	"strings"
)

// pagePath is the output file of doc for builder, relative to the builder directory.
func pagePath(builder, doc string) string {
	switch builder {
	case BuilderDirHTML:
		if doc == "index" || strings.HasSuffix(doc, "/index") {
			return doc + ".html"
		}
		return doc + "/index.html"
	case BuilderPseudoXML:
		return doc + ".pseudoxml"
	default:
		return doc + ".html"
	}
}

// relativeURI returns the link from page `from` to page `to`, both relative
// to the builder directory. Directory-style targets drop index.html.
func relativeURI(builder, from, to string) string {
	fromParts := splitDir(path.Dir(from))
	toDir, toFile := path.Split(to)
	toParts := splitDir(path.Clean(toDir))

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	var b strings.Builder
	for range fromParts[common:] {
		b.WriteString("../")
	}
	for _, p := range toParts[common:] {
		b.WriteString(p)
		b.WriteByte('/')
	}
	if builder == BuilderDirHTML && toFile == "index.html" {
		if b.Len() == 0 {
			return "./"
		}
		return b.String()
	}
	b.WriteString(toFile)
	return b.String()
}

func splitDir(dir string) []string {
	if dir == "." || dir == "" {
		return nil
	}
	return strings.Split(dir, "/")
}
