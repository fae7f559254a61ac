package command

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-resedit/pkg/index"
	"github.com/acronis/go-resedit/pkg/testsupp"
)

func Test_GetValues(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "several files",
			args: []string{"--value", "en.json=Hello", "--value", "de.yaml=a=b"},
			want: map[string]string{"en.json": "Hello", "de.yaml": "a=b"},
		},
		{
			name: "empty value",
			args: []string{"--value", "en.json="},
			want: map[string]string{"en.json": ""},
		},
		{name: "none", args: nil, wantErr: true},
		{name: "no separator", args: []string{"--value", "en.json"}, wantErr: true},
		{name: "no file", args: []string{"--value", "=x"}, wantErr: true},
		{name: "twice", args: []string{"--value", "en.json=a", "--value", "en.json=b"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			AddValueFlag(cmd)
			require.NoError(t, cmd.ParseFlags(tt.args))

			got, err := GetValues(cmd)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func Test_ResolveFiles(t *testing.T) {
	dir := testsupp.InitFiles(t, map[string]string{
		index.IndexFileName: `{"version": "v1.0.0", "files": ["en.json", "sub/de.yaml"]}`,
	})

	got, err := ResolveFiles(dir, nil)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "en.json"), filepath.Join(dir, "sub", "de.yaml")}, got)

	abs := filepath.Join(t.TempDir(), "fr.resx")
	got, err = ResolveFiles(dir, []string{"x/../it.json", abs})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "it.json"), abs}, got)

	_, err = ResolveFiles(t.TempDir(), nil)
	require.ErrorContains(t, err, "resedit.json not found")
}

func Test_DefaultFile(t *testing.T) {
	dir := testsupp.InitFiles(t, map[string]string{
		index.IndexFileName: `{"version": "v1.0.0", "files": ["en.json", "sub/de.yaml"], "default_file": "sub/de.yaml"}`,
	})
	newCmd := func(flags ...string) *cobra.Command {
		cmd := &cobra.Command{Use: "test"}
		AddWorkDirFlag(cmd)
		AddFilesFlag(cmd)
		require.NoError(t, cmd.ParseFlags(append([]string{"-w", dir}, flags...)))
		return cmd
	}

	require.Equal(t, "de.yaml", DefaultFile(newCmd(), nil))
	require.Empty(t, DefaultFile(newCmd(), []string{"en.json"}))
	require.Empty(t, DefaultFile(newCmd("-f", "en.json"), nil))

	cmd := &cobra.Command{Use: "test"}
	AddWorkDirFlag(cmd)
	AddFilesFlag(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"-w", t.TempDir()}))
	require.Empty(t, DefaultFile(cmd, nil), "no index")
}

func Test_GetSaveOptions(t *testing.T) {
	t.Setenv("RESEDIT_BACKUP_DIR", "/tmp/backups")
	cmd := &cobra.Command{Use: "test"}
	AddSaveFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--force"}))

	backup, err := cmd.Flags().GetString(backupFlag)
	require.NoError(t, err)
	require.Equal(t, "/tmp/backups", backup)

	opts, err := GetSaveOptions(cmd)
	require.NoError(t, err)
	require.Len(t, opts, 2)
}

func Test_FormatValue(t *testing.T) {
	require.Equal(t, `a\nb\tc\\d`, FormatValue("a\nb\tc\\d"))
}

func Test_WrapError(t *testing.T) {
	require.NoError(t, WrapError(nil))

	inner := errors.New("boom")
	err := WrapError(inner)
	var cmdErr *Error
	require.ErrorAs(t, err, &cmdErr)
	require.ErrorIs(t, err, inner)
	require.Equal(t, "command failed: boom", err.Error())
}
