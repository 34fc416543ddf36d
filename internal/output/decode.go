package output

import (
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// Decode converts data from the named encoding (WHATWG label) to a string.
// UTF-8 input is validated strictly.
func Decode(data []byte, name string) (string, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", errors.DecodeError("unknown encoding").
			WithCause(err).
			WithContext("encoding", name).
			Build()
	}

	canonical, _ := htmlindex.Name(enc)
	if canonical == "utf-8" {
		if _, _, err := transform.Bytes(encoding.UTF8Validator, data); err != nil {
			return "", errors.DecodeError("invalid utf-8 content").
				WithCause(err).
				WithContext("encoding", name).
				Build()
		}
		return string(data), nil
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.DecodeError("decode content").
			WithCause(err).
			WithContext("encoding", name).
			Build()
	}
	return string(out), nil
}
