package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/acronis/go-resedit/pkg/filesys"
)

type saveConfig struct {
	backupDir string
	force     bool
	all       bool
}

type SaveOption func(*saveConfig)

// WithBackup copies the current on-disk versions into dir before writing.
func WithBackup(dir string) SaveOption {
	return func(cfg *saveConfig) {
		cfg.backupDir = dir
	}
}

// WithForce overwrites files even if they were changed on disk after loading.
func WithForce(force bool) SaveOption {
	return func(cfg *saveConfig) {
		cfg.force = force
	}
}

// WithAll writes every open file, not only the modified ones.
func WithAll(all bool) SaveOption {
	return func(cfg *saveConfig) {
		cfg.all = all
	}
}

// Save writes modified files back to disk and returns the names of the written files.
func (w *Workspace) Save(ctx context.Context, options ...SaveOption) ([]string, error) {
	cfg := &saveConfig{}
	for _, opt := range options {
		opt(cfg)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var targets []*openFile
	for _, name := range w.order {
		of := w.files[name]
		if of.dirty || cfg.all {
			targets = append(targets, of)
		}
	}
	if len(targets) == 0 {
		slog.Info("Nothing to save")
		return nil, nil
	}

	if !cfg.force {
		var conflicts []string
		for _, of := range targets {
			changed, err := diskChanged(of.file.Path, of.checksum)
			if err != nil {
				return nil, fmt.Errorf("check %s: %w", of.file.Name, err)
			}
			if changed {
				conflicts = append(conflicts, of.file.Name)
			}
		}
		if len(conflicts) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrModifiedOnDisk, strings.Join(conflicts, ", "))
		}
	}

	// nothing is written unless every target can be encoded
	encoded := make([][]byte, len(targets))
	for i, of := range targets {
		data, err := of.file.Bytes()
		if err != nil {
			return nil, err
		}
		encoded[i] = data
	}

	if cfg.backupDir != "" {
		paths := make([]string, 0, len(targets))
		for _, of := range targets {
			paths = append(paths, of.file.Path)
		}
		snapshot, err := filesys.Backup(cfg.backupDir, paths)
		if err != nil {
			return nil, fmt.Errorf("backup: %w", err)
		}
		w.lastBackup = snapshot
		slog.Info("Backup created", slog.String("path", snapshot.Dir), slog.String("hash", snapshot.Hash))
	}

	var saved []string
	for i, of := range targets {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		if err := os.WriteFile(of.file.Path, encoded[i], 0644); err != nil {
			return saved, fmt.Errorf("write %s: %w", of.file.Name, err)
		}
		of.checksum = filesys.Checksum(encoded[i])
		of.dirty = false
		saved = append(saved, of.file.Name)
		slog.Debug("Resource file saved", slog.String("path", of.file.Path))
	}
	return saved, nil
}

// LastBackup returns the backup made by the latest Save, if any.
func (w *Workspace) LastBackup() (filesys.Snapshot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastBackup, w.lastBackup.Dir != ""
}
