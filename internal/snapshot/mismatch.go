package snapshot

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// MismatchError describes how new output differs from a stored record.
type MismatchError struct {
	Path string
	// Line is the first differing 1-based line.
	Line int
	// Diff is a unified diff from the record to the new output.
	Diff string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("output differs from %s starting at line %d\n%s", e.Path, e.Line, e.Diff)
}

func newMismatch(path, want, got string) *MismatchError {
	wantLines := difflib.SplitLines(want)
	gotLines := difflib.SplitLines(got)
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        wantLines,
		B:        gotLines,
		FromFile: path,
		ToFile:   "output",
		Context:  3,
	})
	if err != nil {
		diff = err.Error()
	}
	return &MismatchError{Path: path, Line: firstDifference(want, got), Diff: diff}
}

// firstDifference returns the 1-based line of the first difference between a
// and b. A difference in trailing newlines counts on the last line.
func firstDifference(a, b string) int {
	al := strings.SplitAfter(a, "\n")
	bl := strings.SplitAfter(b, "\n")
	n := min(len(al), len(bl))
	for i := 0; i < n; i++ {
		if al[i] != bl[i] {
			return i + 1
		}
	}
	return n + 1
}
