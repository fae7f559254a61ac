package filesys

import (
	"io/fs"
	"path/filepath"
	"sort"
)

const (
	BackupDirEnvironVar = "RESEDIT_BACKUP_DIR"
)

// WalkDir returns files under root accepted by match, sorted. Hidden directories are skipped.
func WalkDir(root string, match func(string) bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if file != root && len(d.Name()) > 1 && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if match(file) {
			files = append(files, file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
