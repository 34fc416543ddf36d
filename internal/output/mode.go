package output

import (
	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/foundation/normalization"
)

// Mode selects how an artifact is reduced before comparison.
type Mode string

const (
	// ModeRaw returns the decoded text untouched.
	ModeRaw Mode = "raw"
	// ModeHTML extracts and canonicalizes the stable region of an HTML page.
	ModeHTML Mode = "html"
)

var modeNormalizer = normalization.NewNormalizer(map[string]Mode{
	"raw":     ModeRaw,
	"none":    ModeRaw,
	"html":    ModeHTML,
	"regress": ModeHTML,
}, ModeRaw)

// ParseMode accepts a mode name or alias, case-insensitively. Empty input
// yields ModeRaw.
func ParseMode(s string) (Mode, error) {
	m, err := modeNormalizer.NormalizeWithError(s)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "unknown read mode").WithContext("mode", s).Build()
	}
	return m, nil
}
