package snapshot

import (
	stderrors "errors"
	"testing"
)

// Checker binds a Store to a test; the record identity is the test name.
type Checker struct {
	t     testing.TB
	store *Store
}

// NewChecker creates a Checker for t.
func NewChecker(t testing.TB, store *Store) *Checker {
	return &Checker{t: t, store: store}
}

// Check compares text with the test's record. A mismatch is reported with
// t.Errorf and the test continues.
func (c *Checker) Check(text, ext string) Outcome {
	c.t.Helper()
	outcome, err := c.store.Check(c.t.Name(), text, ext)
	if err != nil {
		c.t.Errorf("%s", describe(err))
		return outcome
	}
	c.logOutcome(outcome, ext)
	return outcome
}

// Require is Check but stops the test on failure.
func (c *Checker) Require(text, ext string) Outcome {
	c.t.Helper()
	outcome, err := c.store.Check(c.t.Name(), text, ext)
	if err != nil {
		c.t.Fatalf("%s", describe(err))
		return outcome
	}
	c.logOutcome(outcome, ext)
	return outcome
}

func (c *Checker) logOutcome(outcome Outcome, ext string) {
	c.t.Helper()
	if outcome != Matched {
		c.t.Logf("snapshot %s: %s", outcome, c.store.Path(c.t.Name(), ext))
	}
}

func describe(err error) string {
	var m *MismatchError
	if stderrors.As(err, &m) {
		return "snapshot mismatch: " + m.Error()
	}
	return err.Error()
}
