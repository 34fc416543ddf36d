package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/output"
	"git.home.luguber.info/inful/docsnap/internal/version"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("docsnap"), kong.Exit(func(code int) {
		t.Fatalf("unexpected exit %d", code)
	}))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	var out, errOut bytes.Buffer
	err = kctx.Run(&Global{Ctx: t.Context(), Out: &out, ErrOut: &errOut}, &cli)
	return out.String(), err
}

func writeSources(t *testing.T, index string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conf.yaml"), []byte("project: Demo\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.md"), []byte(index), 0o600))
	return dir
}

func TestBuildCommand(t *testing.T) {
	src := writeSources(t, "# Demo\n\nHello.\n")
	out, err := run(t, "build", src)
	require.NoError(t, err)
	require.Contains(t, out, "build succeeded.")
	require.FileExists(t, filepath.Join(src, "_build", "html", "index.html"))
}

func TestBuildCommandWarningsAsErrors(t *testing.T) {
	src := writeSources(t, "# Demo\n\nSee [gone](missing.md).\n")

	_, err := run(t, "build", src)
	require.NoError(t, err)

	_, err = run(t, "build", "-E", "-W", src)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryBuild))
}

func TestBuildCommandUnknownBuilder(t *testing.T) {
	src := writeSources(t, "# Demo\n")
	_, err := run(t, "build", "-b", "latex", src)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryEngine))
}

func TestReadCommand(t *testing.T) {
	src := writeSources(t, "# Demo\n\nHello.\n")

	_, err := run(t, "read", src)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	raw, err := run(t, "read", "--build", src)
	require.NoError(t, err)
	require.Contains(t, raw, "<!DOCTYPE html>")

	frag, err := run(t, "read", "-m", "html", "-r", "Hello=Bye", src)
	require.NoError(t, err)
	require.Contains(t, frag, `<div class="documentwrapper">`)
	require.Contains(t, frag, "Bye.")
	require.NotContains(t, frag, "<html")

	_, err = run(t, "read", "-m", "xml", src)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestTreeCommand(t *testing.T) {
	src := writeSources(t, "# Demo\n\nSee [self](index.md).\n")

	out, err := run(t, "tree", src)
	require.NoError(t, err)
	require.Contains(t, out, `<document source="index.md">`)
	require.Contains(t, out, "pending_xref")

	out, err = run(t, "tree", "--resolve", src)
	require.NoError(t, err)
	require.NotContains(t, out, "pending_xref")

	_, err = run(t, "tree", "-d", "nope", src)
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestCheckCommand(t *testing.T) {
	src := writeSources(t, "# Demo\n\nHello.\n")
	snaps := t.TempDir()

	out, err := run(t, "check", "--dir", snaps, "--resolved", src)
	require.NoError(t, err)
	require.Contains(t, out, "CREATED  "+filepath.Join(snaps, "demo.html"))
	require.Contains(t, out, "CREATED  "+filepath.Join(snaps, "demo.xml"))
	require.Contains(t, out, "CREATED  "+filepath.Join(snaps, "demo.resolved.xml"))

	out, err = run(t, "check", "--dir", snaps, "--resolved", src)
	require.NoError(t, err)
	require.NotContains(t, out, "CREATED")
	require.Contains(t, out, "MATCHED  "+filepath.Join(snaps, "demo.html"))

	require.NoError(t, os.WriteFile(filepath.Join(src, "index.md"), []byte("# Demo\n\nChanged.\n"), 0o600))
	out, err = run(t, "check", "--dir", snaps, src)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategorySnapshot))
	require.Contains(t, out, "FAIL     "+filepath.Join(snaps, "demo.html"))

	out, err = run(t, "check", "--dir", snaps, "-u", src)
	require.NoError(t, err)
	require.Contains(t, out, "UPDATED  "+filepath.Join(snaps, "demo.html"))
}

func TestCheckCommandConfiguredReplacements(t *testing.T) {
	src := writeSources(t, "# Demo\n\nHello.\n")
	snaps := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "docsnap.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  replacements:\n    - find: Hello\n      replace: Bye\n"), 0o600))

	_, err := run(t, "-c", cfgPath, "check", "--dir", snaps, src)
	require.NoError(t, err)
	for _, name := range []string{"demo.html", "demo.xml"} {
		record, err := os.ReadFile(filepath.Join(snaps, name))
		require.NoError(t, err)
		require.Contains(t, string(record), "Bye.", name)
		require.NotContains(t, string(record), "Hello", name)
	}
}

func TestCheckCommandName(t *testing.T) {
	src := writeSources(t, "# Demo\n")
	snaps := t.TempDir()
	_, err := run(t, "check", "--dir", snaps, "-n", "suite/case one", "--file=", src)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(snaps, "suite_case_one.xml"))
	require.NoFileExists(t, filepath.Join(snaps, "suite_case_one.html"))
}

func TestSweepCommand(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "_build", "html"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o750))

	out, err := run(t, "sweep", root)
	require.NoError(t, err)
	require.Equal(t, "removed "+filepath.Join(root, "a", "_build")+"\n", out)
	require.NoDirExists(t, filepath.Join(root, "a", "_build"))
	require.DirExists(t, filepath.Join(root, "b"))
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.Equal(t, version.String()+"\n", out)
}

func TestParseReplacements(t *testing.T) {
	reps, err := parseReplacements([]string{"a=b", "x==y", "gone="})
	require.NoError(t, err)
	require.Equal(t, output.Replacements{
		{Find: "a", Replace: "b"},
		{Find: "x", Replace: "=y"},
		{Find: "gone", Replace: ""},
	}, reps)

	for _, bad := range []string{"novalue", "=x"} {
		_, err := parseReplacements([]string{bad})
		require.True(t, errors.HasCategory(err, errors.CategoryValidation), bad)
	}
}
