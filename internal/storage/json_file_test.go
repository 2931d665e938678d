package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFile_WriteRead(t *testing.T) {
	dir := t.TempDir()
	f, err := OpenJSONFile[map[string]int](dir, "data.json")
	require.NoError(t, err)

	_, found, err := f.Read()
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, f.Write(map[string]int{"a": 1, "b": 2}))

	got, found, err := f.Read()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, filepath.Join(dir, "data.json"), f.Path())
}

func TestJSONFile_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0644))

	f, err := OpenJSONFile[[]string](dir, "bad.json")
	require.NoError(t, err)
	_, found, err := f.Read()
	assert.True(t, found)
	assert.Error(t, err)
}
