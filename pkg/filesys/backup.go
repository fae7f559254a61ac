package filesys

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/otiai10/copy"
)

// Snapshot is a backup directory and the dirhash of its content.
type Snapshot struct {
	Dir  string
	Hash string
}

// Backup copies files into a new time-stamped directory under dir.
// Files which do not exist yet are skipped.
func Backup(dir string, files []string) (Snapshot, error) {
	dst := filepath.Join(dir, time.Now().UTC().Format("20060102T150405.000000000"))
	if err := os.MkdirAll(dst, os.ModePerm); err != nil {
		return Snapshot{}, fmt.Errorf("create backup directory: %w", err)
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Snapshot{}, fmt.Errorf("stat %s: %w", f, err)
		}
		if err := copy.Copy(f, filepath.Join(dst, filepath.Base(f))); err != nil {
			return Snapshot{}, fmt.Errorf("copy %s -> %s: %w", f, dst, err)
		}
	}

	hash, err := ComputeDirectoryHash(dst)
	if err != nil {
		return Snapshot{}, fmt.Errorf("hash backup: %w", err)
	}
	return Snapshot{Dir: dst, Hash: hash}, nil
}
