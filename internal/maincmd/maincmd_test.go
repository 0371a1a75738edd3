package maincmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestRunFilesPrintsOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "hello.nen", `print "hello" + " " + "world";`)

	var out, errOut bytes.Buffer
	err := RunFiles(mainer.Stdio{Stdout: &out, Stderr: &errOut}, path)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRunFilesReportsCompileErrorExitCode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.nen", `print ;`)

	var out, errOut bytes.Buffer
	err := RunFiles(mainer.Stdio{Stdout: &out, Stderr: &errOut}, path)
	require.Error(t, err)
	var ec interface{ ExitCode() int }
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, exCompileError, ec.ExitCode())
}

func TestRunFilesReportsRuntimeErrorExitCode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.nen", `print 1 + "x";`)

	var out, errOut bytes.Buffer
	err := RunFiles(mainer.Stdio{Stdout: &out, Stderr: &errOut}, path)
	require.Error(t, err)
	var ec interface{ ExitCode() int }
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, exRuntimeError, ec.ExitCode())
	assert.Contains(t, errOut.String(), "Operands must be two numbers or two strings.")
}

func TestTokenizeFilesListsEveryTokenInOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "basic.nen", "print 1;\n")

	var out bytes.Buffer
	err := TokenizeFiles(mainer.Stdio{Stdout: &out}, path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4) // print, 1, ;, EOF
	assert.Contains(t, lines[0], "print")
	assert.Contains(t, lines[1], "number")
	assert.Contains(t, lines[1], "1")
	assert.Contains(t, lines[2], ";")
	assert.Contains(t, lines[3], "end of file")
}

func TestDisasmFilesShowsOpcodesAndNestedFunctions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "closures.nen", `
		fun outer() {
			var n = 1;
			fun inner() { return n; }
			return inner;
		}
	`)

	var out bytes.Buffer
	err := DisasmFiles(mainer.Stdio{Stdout: &out}, path)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "<script>")
	assert.Contains(t, text, "outer")
	assert.Contains(t, text, "inner")
	assert.Contains(t, text, "OP_CLOSURE")
	assert.Contains(t, text, "OP_RETURN")
}

func TestDisasmFilesReportsCompileErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.nen", `fun (`)

	var out, errOut bytes.Buffer
	err := DisasmFiles(mainer.Stdio{Stdout: &out, Stderr: &errOut}, path)
	require.Error(t, err)
	assert.NotEmpty(t, errOut.String())
}

func TestReplPersistsGlobalsAcrossLines(t *testing.T) {
	in := strings.NewReader("var x = 1;\nprint x + 1;\n")
	var out bytes.Buffer
	err := Repl(mainer.Stdio{Stdin: in, Stdout: &out})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "2\n")
}
