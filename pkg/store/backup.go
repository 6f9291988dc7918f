package store

import (
	"os"

	"github.com/pkg/errors"
)

// BackupPath names the backup sibling of path
func BackupPath(path, suffix string) string {
	if suffix == "" {
		suffix = DefaultBackupSuffix
	}
	return path + suffix
}

// CreateBackup copies path to its backup sibling, replacing an older backup.
func CreateBackup(path, suffix string) (string, error) {
	data, err := ReadFile(FileReaderConfig{FilePath: path})
	if err != nil {
		return "", errors.Wrap(err, "read save for backup")
	}
	backup := BackupPath(path, suffix)
	if err := WriteFileAtomic(backup, data, 0); err != nil {
		return "", errors.Wrap(err, "write backup")
	}
	return backup, nil
}

// RestoreBackup copies the backup sibling back over path.
func RestoreBackup(path, suffix string) (string, error) {
	backup := BackupPath(path, suffix)
	data, err := ReadFile(FileReaderConfig{FilePath: backup})
	if os.IsNotExist(errors.Cause(err)) {
		return "", errors.Wrap(ErrNoBackup, backup)
	}
	if err != nil {
		return "", err
	}
	if err := WriteFileAtomic(path, data, 0); err != nil {
		return "", errors.Wrap(err, "restore backup")
	}
	return backup, nil
}
