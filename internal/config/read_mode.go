package config

import "git.home.luguber.info/inful/docsnap/internal/foundation/normalization"

// ReadMode selects how the Output Reader reduces artifacts by default.
type ReadMode string

const (
	ReadModeRaw  ReadMode = "raw"
	ReadModeHTML ReadMode = "html"
)

var readModeNormalizer = normalization.NewNormalizer(map[string]ReadMode{
	"raw":     ReadModeRaw,
	"none":    ReadModeRaw,
	"html":    ReadModeHTML,
	"regress": ReadModeHTML,
}, ReadModeRaw)

// NormalizeReadMode returns the canonical mode, or an error for unknown input.
func NormalizeReadMode(raw string) (ReadMode, error) {
	return readModeNormalizer.NormalizeWithError(raw)
}
