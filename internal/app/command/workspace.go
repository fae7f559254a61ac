package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/acronis/go-resedit/pkg/filesys"
	"github.com/acronis/go-resedit/pkg/index"
	"github.com/acronis/go-resedit/pkg/workspace"
)

const (
	filesFlag  = "file"
	backupFlag = "backup"
	forceFlag  = "force"
)

func AddFilesFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringSliceP(filesFlag, "f", nil,
		"resource files to open, defaults to the files listed in "+index.IndexFileName)
}

// AddSaveFlags adds the flags of commands that write resource files.
func AddSaveFlags(cmd *cobra.Command) {
	cmd.Flags().String(backupFlag, os.Getenv(filesys.BackupDirEnvironVar),
		"copy files into a timestamped subdirectory of this directory before writing ($"+filesys.BackupDirEnvironVar+")")
	cmd.Flags().Bool(forceFlag, false, "overwrite files changed on disk since they were read")
}

func GetSaveOptions(cmd *cobra.Command) ([]workspace.SaveOption, error) {
	backup, err := cmd.Flags().GetString(backupFlag)
	if err != nil {
		return nil, fmt.Errorf("get backup flag: %w", err)
	}
	force, err := cmd.Flags().GetBool(forceFlag)
	if err != nil {
		return nil, fmt.Errorf("get force flag: %w", err)
	}
	opts := []workspace.SaveOption{workspace.WithForce(force)}
	if backup != "" {
		opts = append(opts, workspace.WithBackup(backup))
	}
	return opts, nil
}

// ResolveFiles returns absolute paths of the given files, or of the files
// listed in the index of baseDir when none are given.
func ResolveFiles(baseDir string, files []string) ([]string, error) {
	if len(files) == 0 {
		idx, err := index.ReadIndex(baseDir)
		if err != nil {
			if errors.Is(err, index.ErrNotFound) {
				return nil, fmt.Errorf("no resource files given and %s not found in %s", index.IndexFileName, baseDir)
			}
			return nil, fmt.Errorf("read index: %w", err)
		}
		return idx.Paths(baseDir), nil
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(baseDir, f)
		}
		paths = append(paths, filepath.Clean(f))
	}
	return paths, nil
}

// OpenWorkspace opens the files given by args, the --file flag or the index, in that order.
func OpenWorkspace(ctx context.Context, cmd *cobra.Command, args []string) (*workspace.Workspace, error) {
	baseDir, err := GetWorkingDir(cmd)
	if err != nil {
		return nil, err
	}
	files := args
	if len(files) == 0 {
		if files, err = cmd.Flags().GetStringSlice(filesFlag); err != nil {
			return nil, fmt.Errorf("get file flag: %w", err)
		}
	}
	paths, err := ResolveFiles(baseDir, files)
	if err != nil {
		return nil, err
	}
	ws, err := workspace.Open(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("open resource files: %w", err)
	}
	return ws, nil
}

// DefaultFile returns the name of the default file of the index when the files
// were taken from the index, or an empty string.
func DefaultFile(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return ""
	}
	if files, err := cmd.Flags().GetStringSlice(filesFlag); err != nil || len(files) > 0 {
		return ""
	}
	baseDir, err := GetWorkingDir(cmd)
	if err != nil {
		return ""
	}
	idx, err := index.ReadIndex(baseDir)
	if err != nil || idx.DefaultFile == "" {
		return ""
	}
	return filepath.Base(idx.DefaultFile)
}

// SaveWorkspace writes the modified files using the save flags of cmd.
func SaveWorkspace(ctx context.Context, cmd *cobra.Command, ws *workspace.Workspace, extra ...workspace.SaveOption) ([]string, error) {
	opts, err := GetSaveOptions(cmd)
	if err != nil {
		return nil, err
	}
	saved, err := ws.Save(ctx, append(opts, extra...)...)
	if err != nil {
		return saved, fmt.Errorf("save resource files: %w", err)
	}
	return saved, nil
}
