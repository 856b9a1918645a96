package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42", "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-1", "x", ""} {
		_, err := parseID(bad, "id")
		assert.Error(t, err, bad)
	}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, false, map[string]int{"checked": 2}))
	assert.JSONEq(t, `{"checked":2}`, buf.String())

	buf.Reset()
	require.NoError(t, printResult(&buf, true, map[string]int{"checked": 2}))
	assert.Contains(t, buf.String(), "checked")
}

func TestWriteDefaultConfig(t *testing.T) {
	configDefault = "revision:\n  max-revision-number: 4\n"
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, writeDefaultConfig(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, configDefault, string(data))
}
