package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ER0000.sl2")

	require.NoError(t, WriteFileAtomic(path, []byte("hello"), 0))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm())
}

func TestWriteFileAtomic_ReplacesAndKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ER0000.sl2")
	require.NoError(t, os.WriteFile(path, []byte("old contents"), 0644))

	require.NoError(t, WriteFileAtomic(path, []byte("new"), 0))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), st.Mode().Perm())
}

func TestWriteFileAtomic_LeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ER0000.sl2")
	require.NoError(t, WriteFileAtomic(path, make([]byte, 3<<20), 0))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ER0000.sl2", entries[0].Name())
}

func TestFileWriter_AbortKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ER0000.sl2")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0600))

	w, err := NewFileWriter(FileWriterConfig{FilePath: path})
	require.NoError(t, err)
	_, err = w.Write([]byte("half a save"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), w.Size())
	assert.FileExists(t, w.TempPath())

	require.NoError(t, w.Abort())
	assert.NoFileExists(t, w.TempPath())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	_, err = w.Write([]byte("more"))
	assert.ErrorIs(t, err, ErrWriterState)
	assert.ErrorIs(t, w.Commit(), ErrWriterState)
}

func TestFileWriter_EmptyPath(t *testing.T) {
	_, err := NewFileWriter(FileWriterConfig{})
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0600))

	got, err := ReadFile(FileReaderConfig{FilePath: path})
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), got)

	_, err = ReadFile(FileReaderConfig{FilePath: path, MaxSize: 4})
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = ReadFile(FileReaderConfig{FilePath: path + ".missing"})
	assert.True(t, os.IsNotExist(err))
}
