package store

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileWriter writes a replacement for a file into a temporary sibling and
// swaps it in on Commit. Readers see either the old file or the complete new
// one, never a partial write.
type FileWriter struct {
	file   *os.File
	writer *bufio.Writer
	config FileWriterConfig
	mutex  sync.Mutex
	size   int64
	done   bool
}

// NewFileWriter creates the temporary file next to config.FilePath
func NewFileWriter(config FileWriterConfig) (*FileWriter, error) {
	if config.FilePath == "" {
		return nil, ErrEmptyPath
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1 << 20
	}
	if config.Perm == 0 {
		config.Perm = 0600
		if st, err := os.Stat(config.FilePath); err == nil {
			config.Perm = st.Mode().Perm()
		}
	}

	dir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(config.FilePath)+".tmp-*")
	if err != nil {
		return nil, err
	}
	if err := file.Chmod(config.Perm); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, err
	}

	return &FileWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, config.BufferSize),
		config: config,
	}, nil
}

// Write appends p to the pending file
func (w *FileWriter) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.done {
		return 0, ErrWriterState
	}

	n, err := w.writer.Write(p)
	w.size += int64(n)
	return n, err
}

// Commit flushes, fsyncs and renames the temporary file over the target.
// The directory is synced afterwards on a best-effort basis.
func (w *FileWriter) Commit() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.done {
		return ErrWriterState
	}
	w.done = true

	if err := w.writer.Flush(); err != nil {
		w.discard()
		return errors.Wrap(err, "flush temporary file")
	}
	if err := w.file.Sync(); err != nil {
		w.discard()
		return errors.Wrap(err, "fsync temporary file")
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.file.Name())
		return errors.Wrap(err, "close temporary file")
	}
	if err := os.Rename(w.file.Name(), w.config.FilePath); err != nil {
		os.Remove(w.file.Name())
		return errors.Wrapf(err, "replace %s", w.config.FilePath)
	}

	if dir, err := os.Open(filepath.Dir(w.config.FilePath)); err == nil {
		_ = dir.Sync()
		dir.Close()
	}
	return nil
}

// Abort drops the temporary file and leaves the target untouched
func (w *FileWriter) Abort() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.done {
		return nil
	}
	w.done = true
	return w.discard()
}

func (w *FileWriter) discard() error {
	w.file.Close()
	return os.Remove(w.file.Name())
}

// Size returns the number of bytes written so far
func (w *FileWriter) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.size
}

// Path returns the target path
func (w *FileWriter) Path() string {
	return w.config.FilePath
}

// TempPath returns the temporary file path
func (w *FileWriter) TempPath() string {
	return w.file.Name()
}

// WriteFileAtomic replaces path with data in one step.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	w, err := NewFileWriter(FileWriterConfig{FilePath: path, Perm: perm})
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Abort()
		return errors.Wrap(err, "write temporary file")
	}
	return w.Commit()
}
