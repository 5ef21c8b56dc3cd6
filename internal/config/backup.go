package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// MaxBackups is the number of config backups kept next to a config file.
const MaxBackups = 3

// BackupFile copies path to <path>.backup.<timestamp> before it is
// overwritten and prunes older backups. It returns "" when path does not exist.
func BackupFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config for backup: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405.000000000"))
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write config backup: %w", err)
	}

	if err := cleanupOldBackups(path); err != nil {
		return backupPath, err
	}
	return backupPath, nil
}

// ListBackups returns the backups of path, newest first.
func ListBackups(path string) ([]string, error) {
	matches, err := filepath.Glob(path + ".backup.*")
	if err != nil {
		return nil, fmt.Errorf("failed to list config backups: %w", err)
	}
	// The timestamp suffix sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

func cleanupOldBackups(path string) error {
	backups, err := ListBackups(path)
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i]); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove old backup: %w", err)
		}
	}
	return nil
}
