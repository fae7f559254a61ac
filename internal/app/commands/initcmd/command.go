package initcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/acronis/go-resedit/internal/app/command"
	"github.com/acronis/go-resedit/pkg/filesys"
	"github.com/acronis/go-resedit/pkg/index"
	"github.com/acronis/go-resedit/pkg/resource"
	"github.com/acronis/go-resedit/pkg/workspace"
)

const forceFlag = "force"

func New(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [files...]",
		Short: "write " + index.IndexFileName + " listing the resource files of the project",
		Long: "Lists the given resource files in " + index.IndexFileName + ". Without arguments " +
			"every .resx, .json and .yaml file under the working directory is listed. " +
			"Files given for an existing index are added to it.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir, err := command.GetWorkingDir(cmd)
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			force, err := cmd.Flags().GetBool(forceFlag)
			if err != nil {
				return fmt.Errorf("get force flag: %w", err)
			}

			return command.WrapError(execute(ctx, baseDir, args, force))
		},
	}
	cmd.Flags().Bool(forceFlag, false, "overwrite an existing index")
	return cmd
}

func execute(ctx context.Context, baseDir string, files []string, force bool) error {
	slog.Info("Initialize project", slog.String("path", baseDir))

	existing, err := index.ReadIndex(baseDir)
	switch {
	case err == nil && !force:
		if len(files) == 0 {
			slog.Info("Project already initialized")
			return nil
		}
		return extend(ctx, baseDir, existing, files)
	case err != nil && !errors.Is(err, index.ErrNotFound) && !force:
		return fmt.Errorf("read existing index: %w", err)
	}

	paths, err := discover(baseDir, files)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no resource files found in %s", baseDir)
	}

	// every file must parse and names must not clash
	if _, err := workspace.Open(ctx, paths...); err != nil {
		return fmt.Errorf("open resource files: %w", err)
	}

	rel, err := relativePaths(baseDir, paths)
	if err != nil {
		return err
	}
	idx := index.New(rel...)
	if err := idx.Save(baseDir); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	slog.Info("Project was initialized", slog.Any("files", idx.Files))
	return nil
}

func extend(ctx context.Context, baseDir string, idx *index.Index, files []string) error {
	paths, err := command.ResolveFiles(baseDir, files)
	if err != nil {
		return err
	}
	rel, err := relativePaths(baseDir, paths)
	if err != nil {
		return err
	}

	var added []string
	for _, r := range rel {
		if idx.Add(r) {
			added = append(added, r)
		}
	}
	if len(added) == 0 {
		slog.Info("Files are already listed", slog.Any("files", rel))
		return nil
	}

	if _, err := workspace.Open(ctx, idx.Paths(baseDir)...); err != nil {
		return fmt.Errorf("open resource files: %w", err)
	}
	if err := idx.Save(baseDir); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	slog.Info("Files were added to project", slog.Any("files", added))
	return nil
}

func relativePaths(baseDir string, paths []string) ([]string, error) {
	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(baseDir, p)
		if err != nil {
			return nil, fmt.Errorf("relative path of %s: %w", p, err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	return rel, nil
}

func discover(baseDir string, files []string) ([]string, error) {
	if len(files) > 0 {
		return command.ResolveFiles(baseDir, files)
	}
	indexPath := filepath.Join(baseDir, index.IndexFileName)
	paths, err := filesys.WalkDir(baseDir, func(p string) bool {
		return p != indexPath && resource.IsSupported(p)
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", baseDir, err)
	}
	return paths, nil
}
