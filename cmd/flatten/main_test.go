package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return root
}

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	err := app.Run(append([]string{"flatten"}, args...))

	return stdout.String(), stderr.String(), err
}

func TestFlattenPrintsBlob(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.cs":       "X",
		"notes.txt":  "skip",
		"sub/b.csx":  "Y",
		"sub/c.json": "{}",
	})

	out, logs, err := runApp(t, "--pattern", "*.cs*", root)
	require.NoError(t, err)

	assert.Equal(t, "<filename>a.cs</filename>\n<code>X</code><filename>sub/b.csx</filename>\n<code>Y</code>", out)
	assert.Contains(t, logs, `"msg":"Dir is flattened"`)
	assert.Contains(t, logs, `"fileCount":2`)
}

func TestFlattenPrintsStats(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": "package a",
		"b.go": "package b",
	})

	out, _, err := runApp(t, "--stats", "-q", root)
	require.NoError(t, err)

	assert.Equal(t, "Files: 2\nTotal Characters: 18\nAverage Characters Per File: 9\nEstimated Tokens: 5\n", out)
}

func TestFlattenMissingDir(t *testing.T) {
	_, logs, err := runApp(t, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, logs, "Failed to flatten dir")
}
