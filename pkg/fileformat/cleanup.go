package fileformat

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// backupFilePattern matches the timestamped backup copies GnuCash leaves
// next to a book, e.g. "accounts.gnucash.20240305183000.gnucash".
var backupFilePattern = regexp.MustCompile(`.*[0-9]{14}\.gnucash$`)

// DeleteLogFiles removes the log and timestamped backup files GnuCash writes
// alongside a book in dir. Files it cannot remove for lack of permission are
// skipped. It returns the paths it removed.
func DeleteLogFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		isLog := strings.Contains(name, ".gnucash") && strings.HasSuffix(name, ".log")
		if !isLog && !backupFilePattern.MatchString(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			if os.IsPermission(err) {
				slog.Warn("skipping log file without delete permission", "path", path)
				continue
			}
			return removed, fmt.Errorf("removing %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
