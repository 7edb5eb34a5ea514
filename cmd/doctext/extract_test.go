package main_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/doctext/docpipe"
)

func TestExtractCmd_PrintsText(t *testing.T) {
	t.Parallel()

	cfg := writeFile(t, "doctext.yaml", noOCRConfig)
	file := writeFile(t, "hello.txt", "Hello world\n")

	stdout, _, err := runMain(t, newTestMain(), "-c", cfg, "extract", file)

	require.NoError(t, err)
	assert.Equal(t, "Hello world\n", stdout)
}

func TestExtractCmd_MultipleFilesKeepOrder(t *testing.T) {
	t.Parallel()

	cfg := writeFile(t, "doctext.yaml", noOCRConfig)
	var files []string
	for i := 0; i < 6; i++ {
		files = append(files, writeFile(t, fmt.Sprintf("doc%d.txt", i), fmt.Sprintf("document %d", i)))
	}

	args := append([]string{"-c", cfg, "extract", "--jobs", "3", "--json"}, files...)
	stdout, _, err := runMain(t, newTestMain(), args...)
	require.NoError(t, err)

	var results []struct {
		File   string         `json:"file"`
		Result docpipe.Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 6)
	for i, r := range results {
		assert.Equal(t, files[i], r.File)
		assert.Equal(t, fmt.Sprintf("document %d", i), r.Result.Text)
	}
}

func TestExtractCmd_UnsupportedExtension(t *testing.T) {
	// WHAT: an unknown extension is reported as unsupported and the command fails.
	t.Parallel()

	cfg := writeFile(t, "doctext.yaml", noOCRConfig)
	good := writeFile(t, "a.txt", "fine")
	bad := writeFile(t, "b.zip", "PK")

	stdout, stderr, err := runMain(t, newTestMain(), "-c", cfg, "extract", good, bad)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 documents")
	assert.Contains(t, stdout, "fine")
	assert.Contains(t, stderr, "unsupported media type")
}

func TestExtractCmd_MediaTypeOverride(t *testing.T) {
	t.Parallel()

	cfg := writeFile(t, "doctext.yaml", noOCRConfig)
	file := writeFile(t, "notes.dat", "raw notes")

	stdout, _, err := runMain(t, newTestMain(), "-c", cfg, "extract", "-t", "text/plain", file)

	require.NoError(t, err)
	assert.Equal(t, "raw notes\n", stdout)
}

func TestExtractCmd_ImageWithoutOCR(t *testing.T) {
	t.Parallel()

	cfg := writeFile(t, "doctext.yaml", noOCRConfig)
	file := writeFile(t, "scan.png", "not really a png")

	_, stderr, err := runMain(t, newTestMain(), "-c", cfg, "extract", file)

	require.Error(t, err)
	assert.Contains(t, stderr, "scan.png: warning:")
}

func TestExtractCmd_MissingFile(t *testing.T) {
	t.Parallel()

	cfg := writeFile(t, "doctext.yaml", noOCRConfig)

	_, stderr, err := runMain(t, newTestMain(), "-c", cfg, "extract", "/nonexistent/file.txt")

	require.Error(t, err)
	assert.Contains(t, stderr, "read /nonexistent/file.txt")
}
