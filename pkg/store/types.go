// Package store owns every write the tool makes to a save file: atomic
// replacement, backups and restores.
package store

import (
	"os"
)

// DefaultBackupSuffix is appended to a save path to name its backup.
const DefaultBackupSuffix = ".backup"

// FileWriterConfig holds configuration for an atomic file writer
type FileWriterConfig struct {
	FilePath   string      // Final path of the file
	Perm       os.FileMode // Mode of a newly created file (0 keeps the existing mode or uses 0600)
	BufferSize int         // Write buffer size
}

// FileReaderConfig holds configuration for reading a save file
type FileReaderConfig struct {
	FilePath string // Path to the file
	MaxSize  int64  // Reject larger files (0 = no limit)
}

// Errors
var (
	ErrNoBackup    = &StoreError{"backup file not found"}
	ErrEmptyPath   = &StoreError{"empty file path"}
	ErrTooLarge    = &StoreError{"file exceeds size limit"}
	ErrWriterState = &StoreError{"writer already committed or aborted"}
)

// StoreError represents a save file storage error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
