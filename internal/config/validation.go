package config

import (
	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// Validate canonicalizes enum fields and rejects unknown values.
func (c *Config) Validate() error {
	level, err := logLevelNormalizer.NormalizeWithError(string(c.Logging.Level))
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid logging.level").Build()
	}
	c.Logging.Level = level

	format, err := logFormatNormalizer.NormalizeWithError(string(c.Logging.Format))
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid logging.format").Build()
	}
	c.Logging.Format = format

	mode, err := NormalizeReadMode(string(c.Output.Mode))
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid output.mode").Build()
	}
	c.Output.Mode = mode

	for i, r := range c.Output.Replacements {
		if r.Find == "" {
			return errors.ConfigError("replacement with empty find").
				WithContext("index", i).
				Build()
		}
	}
	return nil
}
