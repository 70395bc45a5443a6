package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookpublish/internal/printspec"
	"bookpublish/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func setCLIEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ISBN_STORE", "memory")
	t.Setenv("RENDER_DPI", "72")
	t.Setenv("LOG_LEVEL", "error")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeBundle lays the sample book out as a YAML file next to its images.
func writeBundle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for ref, data := range testutil.SampleImages() {
		path := filepath.Join(dir, ref)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	data, err := yaml.Marshal(testutil.SampleBook())
	require.NoError(t, err)
	input := filepath.Join(dir, "book.yaml")
	require.NoError(t, os.WriteFile(input, data, 0o644))
	return input
}

func TestSpineCommand(t *testing.T) {
	setCLIEnv(t)

	out, err := runCLI(t, "spine", "--pages", "32", "--trim", "6x9", "-o", "json")
	require.NoError(t, err)

	var specs printspec.CoverSpecs
	require.NoError(t, json.Unmarshal([]byte(out), &specs))
	assert.Equal(t, printspec.VendorKDP, specs.Vendor)
	assert.Equal(t, 2775, specs.HeightPixels)
	assert.False(t, specs.SpineTextAllowed)

	out, err = runCLI(t, "spine", "--pages", "32", "--trim", "6x9")
	require.NoError(t, err)
	assert.Contains(t, out, "spine_width_inches:")
	assert.NotContains(t, out, "{", "yaml output must use block style")

	_, err = runCLI(t, "spine", "--pages", "100", "--trim", "7.5x7.5")
	assert.Error(t, err)

	out, err = runCLI(t, "spine", "--pages", "100", "--trim", "7.5x7.5", "--vendor", "lulu", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"vendor": "lulu"`)
}

func TestISBNCommands(t *testing.T) {
	setCLIEnv(t)

	out, err := runCLI(t, "isbn", "convert", "0-306-40615-2")
	require.NoError(t, err)
	assert.Equal(t, "9780306406157\n", out)

	out, err = runCLI(t, "isbn", "convert", "978-0-306-40615-7")
	require.NoError(t, err)
	assert.Equal(t, "0306406152\n", out)

	out, err = runCLI(t, "isbn", "format", "9780306406157")
	require.NoError(t, err)
	assert.Equal(t, "978-0-306-40615-7\n", out)

	out, err = runCLI(t, "isbn", "validate", "9780306406157", "9780306406158")
	assert.Error(t, err)
	assert.Contains(t, out, "9780306406157\tvalid")
	assert.Contains(t, out, "9780306406158\tinvalid")

	out, err = runCLI(t, "isbn", "assign", "--book", "book-1", "--edition", "print", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"isbn13": "9781736100011"`)

	out, err = runCLI(t, "isbn", "list", "--book", "book-1", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out, "each invocation opens a fresh memory store")
}

func TestCheckCommand(t *testing.T) {
	setCLIEnv(t)
	input := writeBundle(t)

	out, err := runCLI(t, "check", "--input", input, "--format", "epub,kdp_pdf", "--assign-isbn")
	require.NoError(t, err)
	assert.Contains(t, out, "ready: true")

	out, err = runCLI(t, "check", "--input", input, "--format", "kdp_pdf", "--print-isbn", "978-0-306-40615-8")
	assert.Error(t, err)
	assert.Contains(t, out, "ready: false")

	_, err = runCLI(t, "check", "--input", input, "--format", "pdf")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	setCLIEnv(t)
	input := writeBundle(t)
	outDir := filepath.Join(t.TempDir(), "dist")

	out, err := runCLI(t, "export", "--input", input, "--out", outDir, "--assign-isbn", "-o", "json")
	require.NoError(t, err)

	var report exportReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "book-lantern", report.BookID)
	assert.Equal(t, "done", string(report.State))
	require.Len(t, report.Formats, 3)

	var files []string
	for _, f := range report.Formats {
		assert.True(t, f.Success, "%s: %s", f.Format, f.Error)
		assert.NotEmpty(t, f.ISBN)
		files = append(files, f.Files...)
	}
	assert.Len(t, files, 5)
	for _, path := range files {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.True(t, strings.HasSuffix(files[0], ".epub"), files[0])
}

func TestExportCommand_PartialFailure(t *testing.T) {
	setCLIEnv(t)
	input := writeBundle(t)

	out, err := runCLI(t, "export", "--input", input, "--out", t.TempDir(),
		"--format", "epub,kdp_pdf", "--print-isbn", "978-0-306-40615-8", "-o", "json")
	require.Error(t, err)

	var report exportReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "partial_failure", string(report.State))
	require.Len(t, report.Formats, 2)
	assert.True(t, report.Formats[0].Success)
	assert.False(t, report.Formats[1].Success)
	assert.Equal(t, "INVALID_ISBN", report.Formats[1].ErrorCode)
}

func TestLoadBook_JSON(t *testing.T) {
	dir := t.TempDir()
	data, err := json.Marshal(testutil.SampleBook())
	require.NoError(t, err)
	path := filepath.Join(dir, "book.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	book, err := loadBook(path)
	require.NoError(t, err)
	assert.Equal(t, "The Little Lantern", book.Metadata.Title)
	assert.Equal(t, 32, book.PageCount())

	require.NoError(t, os.WriteFile(path, []byte(`{"metadata":`), 0o644))
	_, err = loadBook(path)
	assert.Error(t, err)
}
