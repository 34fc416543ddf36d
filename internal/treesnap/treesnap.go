// Package treesnap turns engine document trees into stable snapshot text.
package treesnap

import (
	"log/slog"
	"path"
	"strings"

	"git.home.luguber.info/inful/docsnap/internal/doctree"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
	"git.home.luguber.info/inful/docsnap/internal/output"
)

// DefaultExtension is the snapshot extension of unresolved trees.
const DefaultExtension = ".xml"

// TreeSource is the part of a build environment the snapshotter reads from.
type TreeSource interface {
	DocTree(doc string) (*doctree.Document, error)
	ResolvedDocTree(doc string) (*doctree.Document, error)
}

// Variant selects which tree of a document is snapshotted. The set of
// variants is closed: Unresolved and Resolved.
type Variant interface {
	Name() string
	fetch(src TreeSource, doc string) (*doctree.Document, error)
	extension(base string) string
}

// Unresolved is the tree as read from the source.
type Unresolved struct{}

func (Unresolved) Name() string { return "unresolved" }

func (Unresolved) fetch(src TreeSource, doc string) (*doctree.Document, error) {
	return src.DocTree(doc)
}

func (Unresolved) extension(base string) string { return base }

// Resolved is the tree after cross-reference resolution. Fetching it may
// record warnings on the environment.
type Resolved struct{}

func (Resolved) Name() string { return "resolved" }

func (Resolved) fetch(src TreeSource, doc string) (*doctree.Document, error) {
	return src.ResolvedDocTree(doc)
}

func (Resolved) extension(base string) string { return ".resolved" + base }

// VariantOf maps the resolve flag onto a Variant.
func VariantOf(resolve bool) Variant {
	if resolve {
		return Resolved{}
	}
	return Unresolved{}
}

// Options tune one snapshot.
type Options struct {
	// Extension is the base extension, ".xml" when empty.
	Extension    string
	Replacements output.Replacements
}

// Snapshot is a normalized tree and its serialized form.
type Snapshot struct {
	// Tree is the normalized copy; the engine's tree is left untouched.
	Tree      *doctree.Document
	Text      string
	Extension string
}

// Snapshotter produces Snapshots from a TreeSource.
type Snapshotter struct {
	logger *slog.Logger
}

// New creates a Snapshotter. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Snapshotter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshotter{logger: logger}
}

// Snapshot fetches doc's tree for variant, strips machine-specific source
// paths on a copy and serializes it. A nil variant means Unresolved.
func (s *Snapshotter) Snapshot(src TreeSource, doc string, variant Variant, opts Options) (Snapshot, error) {
	if variant == nil {
		variant = Unresolved{}
	}
	base := opts.Extension
	if base == "" {
		base = DefaultExtension
	}

	tree, err := variant.fetch(src, doc)
	if err != nil {
		return Snapshot{}, err
	}
	tree = tree.CloneDocument()
	n := NormalizeSources(tree)

	snap := Snapshot{
		Tree:      tree,
		Text:      opts.Replacements.Apply(doctree.PFormat(tree)),
		Extension: variant.extension(base),
	}
	s.logger.Debug("Snapshotted document tree",
		logfields.Doc(doc),
		logfields.Variant(variant.Name()),
		logfields.Extension(snap.Extension),
		logfields.Count(n))
	return snap, nil
}

// NormalizeSources reduces the source of every source-bearing node under root
// to its base name, in place, and returns how many nodes were visited.
func NormalizeSources(root doctree.Node) int {
	nodes := doctree.Collect[doctree.HasSourceLocation](root)
	for _, n := range nodes {
		n.SetSource(BaseName(n.Source()))
	}
	return len(nodes)
}

// BaseName returns the last element of a path written with either separator.
func BaseName(p string) string {
	if p == "" {
		return ""
	}
	return path.Base(strings.ReplaceAll(p, `\`, "/"))
}
