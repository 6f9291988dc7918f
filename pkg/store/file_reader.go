package store

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
)

// ReadFile loads a whole save file into memory.
func ReadFile(config FileReaderConfig) ([]byte, error) {
	if config.FilePath == "" {
		return nil, ErrEmptyPath
	}
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if config.MaxSize > 0 && stat.Size() > config.MaxSize {
		return nil, errors.Wrapf(ErrTooLarge, "%s is %d bytes", config.FilePath, stat.Size())
	}

	var buf bytes.Buffer
	buf.Grow(int(stat.Size()))
	if _, err := io.Copy(&buf, file); err != nil {
		return nil, errors.Wrapf(err, "read %s", config.FilePath)
	}
	return buf.Bytes(), nil
}
