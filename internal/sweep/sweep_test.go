package sweep

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o750))
	}
}

func TestSweep_RemovesOnlyBuildDirs(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "d1/_build/html", "d2/sub")
	require.NoError(t, os.WriteFile(filepath.Join(root, "d1", "index.md"), []byte("# x\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "d1", "_build", "html", "index.html"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "_build"), []byte("not a dir entry to sweep"), 0o600))

	report, err := Sweep(root, "", WithSessionID("s-1"))
	require.NoError(t, err)
	require.Equal(t, "s-1", report.SessionID)
	require.Equal(t, []string{filepath.Join(root, "d1", "_build")}, report.Removed)
	require.Empty(t, report.Failed)

	require.NoDirExists(t, filepath.Join(root, "d1", "_build"))
	require.FileExists(t, filepath.Join(root, "d1", "index.md"))
	require.DirExists(t, filepath.Join(root, "d2", "sub"))
	require.FileExists(t, filepath.Join(root, "_build"))
}

func TestSweep_SkipsBuildPathThatIsNotADirectory(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "d1/_build", "d3")
	buildFile := filepath.Join(root, "d3", "_build")
	require.NoError(t, os.WriteFile(buildFile, []byte("keep"), 0o600))

	report, err := Sweep(root, "")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(root, "d1", "_build")}, report.Removed)
	require.FileExists(t, buildFile)
}

func TestSweep_NothingToDo(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "d2")

	report, err := Sweep(root, DefaultBuildDir)
	require.NoError(t, err)
	require.Empty(t, report.Removed)
	require.NotEmpty(t, report.SessionID)
}

func TestSweep_CustomBuildDir(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a/out", "a/_build")

	report, err := Sweep(root, "out")
	require.NoError(t, err)
	require.Len(t, report.Removed, 1)
	require.NoDirExists(t, filepath.Join(root, "a", "out"))
	require.DirExists(t, filepath.Join(root, "a", "_build"))
}

func TestSweep_BestEffort(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a/_build", "b/_build", "c/_build")

	boom := errors.New("device busy")
	remove := func(p string) error {
		if filepath.Base(filepath.Dir(p)) == "b" {
			return boom
		}
		return os.RemoveAll(p)
	}

	report, err := Sweep(root, "", func(o *options) { o.remove = remove })
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
	require.Equal(t, []string{filepath.Join(root, "b", "_build")}, report.Failed)
	require.Len(t, report.Removed, 2)
	require.NoDirExists(t, filepath.Join(root, "a", "_build"))
	require.NoDirExists(t, filepath.Join(root, "c", "_build"))
}

func TestSweep_MissingRoot(t *testing.T) {
	_, err := Sweep(filepath.Join(t.TempDir(), "absent"), "")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}
