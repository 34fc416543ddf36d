package snapshot

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
)

type countingRecorder struct {
	metrics.NoopRecorder
	outcomes []metrics.ComparisonLabel
}

func (r *countingRecorder) IncComparison(_ string, o metrics.ComparisonLabel) {
	r.outcomes = append(r.outcomes, o)
}

func TestStore_CreatesBaseline(t *testing.T) {
	dir := t.TempDir()
	rec := &countingRecorder{}
	s := NewStore(dir, WithRecorder(rec))

	outcome, err := s.Check("TestBasic", "<p>hi</p>\n", ".html")
	require.NoError(t, err)
	require.Equal(t, Created, outcome)

	data, err := os.ReadFile(filepath.Join(dir, "TestBasic.html"))
	require.NoError(t, err)
	require.Equal(t, "<p>hi</p>\n", string(data))

	outcome, err = s.Check("TestBasic", "<p>hi</p>\n", ".html")
	require.NoError(t, err)
	require.Equal(t, Matched, outcome)
	require.Equal(t, []metrics.ComparisonLabel{metrics.ComparisonCreated, metrics.ComparisonMatched}, rec.outcomes)
}

func TestStore_MismatchNamesFirstDifferingLine(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	_, err := s.Check("TestDiff", "A\nB\n", ".txt")
	require.NoError(t, err)

	_, err = s.Check("TestDiff", "A\nC\n", ".txt")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategorySnapshot))
	require.Contains(t, err.Error(), "line 2")

	var m *MismatchError
	require.True(t, stderrors.As(err, &m))
	require.Equal(t, 2, m.Line)
	require.Equal(t, filepath.Join(dir, "TestDiff.txt"), m.Path)
	require.Contains(t, m.Diff, "-B\n")
	require.Contains(t, m.Diff, "+C\n")

	// The record is never auto-corrected.
	data, err := os.ReadFile(filepath.Join(dir, "TestDiff.txt"))
	require.NoError(t, err)
	require.Equal(t, "A\nB\n", string(data))
}

func TestStore_ExactComparison(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Check("TestExact", "A\n", ".txt")
	require.NoError(t, err)

	_, err = s.Check("TestExact", "A", ".txt")
	require.True(t, errors.HasCategory(err, errors.CategorySnapshot))

	_, err = s.Check("TestExact", "A\n ", ".txt")
	require.True(t, errors.HasCategory(err, errors.CategorySnapshot))
}

func TestStore_UpdateMode(t *testing.T) {
	dir := t.TempDir()
	_, err := NewStore(dir).Check("TestUpdate", "old\n", ".xml")
	require.NoError(t, err)

	s := NewStore(dir, WithUpdate(true))
	require.True(t, s.Updating())
	outcome, err := s.Check("TestUpdate", "new\n", ".xml")
	require.NoError(t, err)
	require.Equal(t, Updated, outcome)

	outcome, err = s.Check("TestUpdate", "new\n", ".xml")
	require.NoError(t, err)
	require.Equal(t, Matched, outcome)
}

func TestStore_ExtensionsKeepSeparateRecords(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	_, err := s.Check("TestTree", "a\n", ".xml")
	require.NoError(t, err)
	outcome, err := s.Check("TestTree", "b\n", ".resolved.xml")
	require.NoError(t, err)
	require.Equal(t, Created, outcome)
	require.FileExists(t, filepath.Join(dir, "TestTree.resolved.xml"))
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"TestBasic":              "TestBasic",
		"TestBuild/dirhtml":      "TestBuild_dirhtml",
		"TestX/case_#01":         "TestX_case__01",
		"TestY/with space:colon": "TestY_with_space_colon",
		"TestZ/../escape":        "TestZ_.._escape",
		"TestUnicode/café":       "TestUnicode_caf_",
	}
	for in, want := range cases {
		require.Equal(t, want, Sanitize(in), in)
	}
	require.Equal(t, Sanitize("TestA/b_c"), Sanitize("TestA_b/c"))
}

func TestFirstDifference(t *testing.T) {
	require.Equal(t, 2, firstDifference("A\nB\n", "A\nC\n"))
	require.Equal(t, 1, firstDifference("A\n", "B\n"))
	require.Equal(t, 2, firstDifference("A\nB\n", "A\nB"))
	require.Equal(t, 2, firstDifference("A\n", "A\nB\n"))
}

// fakeTB records failures instead of failing the running test.
type fakeTB struct {
	testing.TB
	name   string
	errors []string
	fatals []string
	logs   []string
}

func (f *fakeTB) Name() string { return f.name }
func (f *fakeTB) Helper()      {}
func (f *fakeTB) Errorf(format string, args ...any) {
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}
func (f *fakeTB) Fatalf(format string, args ...any) {
	f.fatals = append(f.fatals, fmt.Sprintf(format, args...))
}
func (f *fakeTB) Logf(format string, args ...any) {
	f.logs = append(f.logs, fmt.Sprintf(format, args...))
}

func TestChecker(t *testing.T) {
	store := NewStore(t.TempDir())
	tb := &fakeTB{TB: t, name: "TestSuite/case"}
	c := NewChecker(tb, store)

	require.Equal(t, Created, c.Check("A\nB\n", ".txt"))
	require.Empty(t, tb.errors)
	require.Len(t, tb.logs, 1)
	require.FileExists(t, filepath.Join(store.Dir(), "TestSuite_case.txt"))

	require.Equal(t, Matched, c.Check("A\nB\n", ".txt"))
	require.Len(t, tb.logs, 1)

	c.Check("A\nC\n", ".txt")
	require.Len(t, tb.errors, 1)
	require.Contains(t, tb.errors[0], "line 2")
	require.Empty(t, tb.fatals)

	c.Require("A\nD\n", ".txt")
	require.Len(t, tb.fatals, 1)
	require.Contains(t, tb.fatals[0], "+D")
}
