// Package output locates build artifacts, decodes them and reduces HTML pages
// to a comparison-stable fragment.
package output

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
)

// Defaults used when ReadOptions leaves a field empty.
const (
	DefaultBuilder     = "html"
	DefaultFilename    = "index.html"
	DefaultEncoding    = "utf-8"
	DefaultRegionClass = "documentwrapper"
)

// ReadOptions selects one artifact and how to normalize it.
type ReadOptions struct {
	Builder  string
	Filename string
	Encoding string
	Mode     Mode
	// RegionClass is the class of the single element kept by ModeHTML.
	RegionClass  string
	Replacements Replacements
}

func (o ReadOptions) withDefaults() ReadOptions {
	if o.Builder == "" {
		o.Builder = DefaultBuilder
	}
	if o.Filename == "" {
		o.Filename = DefaultFilename
	}
	if o.Encoding == "" {
		o.Encoding = DefaultEncoding
	}
	if o.Mode == "" {
		o.Mode = ModeRaw
	}
	if o.RegionClass == "" {
		o.RegionClass = DefaultRegionClass
	}
	return o
}

// Result is the decoded artifact. Fragment is only set in ModeHTML.
type Result struct {
	Path     string
	Content  string
	Fragment string
}

// Reader reads build artifacts from an output root (`<srcdir>/_build`).
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a Reader. A nil logger uses slog.Default().
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Read is a convenience wrapper around a Reader using the default logger.
func Read(root string, opts ReadOptions) (Result, error) {
	return NewReader(nil).Read(root, opts)
}

// Read loads `root/<builder>/<filename>`, decodes it and, in ModeHTML,
// normalizes it. A missing artifact is a not_found error, never retried.
func (r *Reader) Read(root string, opts ReadOptions) (Result, error) {
	opts = opts.withDefaults()
	path := filepath.Join(root, opts.Builder, filepath.FromSlash(opts.Filename))

	// #nosec G304 -- artifact path is built from the build output root
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, errors.NotFoundError("no output file exists").
				WithCause(err).
				WithContext("path", path).
				WithContext("builder", opts.Builder).
				Build()
		}
		return Result{}, errors.WrapError(err, errors.CategoryFileSystem, "read output file").
			WithContext("path", path).
			Build()
	}

	content, err := Decode(data, opts.Encoding)
	if err != nil {
		return Result{}, err
	}
	res := Result{Path: path, Content: content}

	switch opts.Mode {
	case ModeRaw:
	case ModeHTML:
		frag, err := NormalizeHTML(content, opts.RegionClass, opts.Replacements)
		if err != nil {
			if ce, ok := errors.AsClassified(err); ok {
				return Result{}, ce.WithContext("path", path)
			}
			return Result{}, err
		}
		res.Fragment = frag
	default:
		return Result{}, errors.ValidationError("unknown read mode").WithContext("mode", string(opts.Mode)).Build()
	}

	r.logger.Debug("Read build output",
		logfields.Builder(opts.Builder),
		logfields.Path(path),
		logfields.Encoding(opts.Encoding),
		slog.String("mode", string(opts.Mode)))
	return res, nil
}
