package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func initIndexFixture(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFileName), []byte(content), 0644))
	return dir
}

func Test_ReadIndex(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectError bool
	}{
		{"ValidIndexFile", `{"version": "v1.0.0", "files": ["en.json", "locales/de.yaml"], "default_file": "en.json"}`, false},
		{"NoDefaultFile", `{"version": "v1.2.0", "files": ["Strings.resx"]}`, false},
		{"InvalidVersion", `{"version": "1.0", "files": ["en.json"]}`, true},
		{"UnknownField", `{"version": "v1.0.0", "files": ["en.json"], "package_id": "x"}`, true},
		{"NotAnObject", `["en.json"]`, true},
		{"Null", `null`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := initIndexFixture(t, tt.content)
			idx, err := ReadIndex(dir)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, idx.Files)
		})
	}

	_, err := ReadIndex(t.TempDir())
	require.ErrorIs(t, err, ErrNotFound)
}

func Test_IndexCheck(t *testing.T) {
	tests := []struct {
		name      string
		index     Index
		wantError string
	}{
		{
			name:  "ValidIndex",
			index: Index{Version: "v1.0.0", Files: []string{"en.json", "de.yml", "Strings.resx"}, DefaultFile: "en.json"},
		},
		{
			name:      "MajorVersion",
			index:     Index{Version: "v2.0.0", Files: []string{"en.json"}},
			wantError: "$.version: unsupported major version v2",
		},
		{
			name:      "NoFiles",
			index:     Index{Version: "v1.0.0"},
			wantError: "$.files: at least one file is required",
		},
		{
			name:      "EmptyPath",
			index:     Index{Version: "v1.0.0", Files: []string{"en.json", ""}},
			wantError: "$.files[1]: file path cannot be empty",
		},
		{
			name:      "UnknownExtension",
			index:     Index{Version: "v1.0.0", Files: []string{"en.txt"}},
			wantError: "$.files[0]: invalid resource file extension: .txt",
		},
		{
			name:      "DuplicateName",
			index:     Index{Version: "v1.0.0", Files: []string{"a/en.json", "b/en.json"}},
			wantError: "$.files[1]: file name en.json is already used by $.files[0]",
		},
		{
			name:      "DefaultNotListed",
			index:     Index{Version: "v1.0.0", Files: []string{"en.json"}, DefaultFile: "de.json"},
			wantError: "$.default_file: de.json is not listed in files",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.index.Check()
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func Test_SaveAndPaths(t *testing.T) {
	dir := t.TempDir()
	idx := New("en.json", "locales/de.yaml")
	require.Equal(t, "en.json", idx.DefaultFile)
	require.True(t, idx.Add("fr.resx"))
	require.False(t, idx.Add("other/en.json"))
	require.NoError(t, idx.Save(dir))

	data, err := os.ReadFile(filepath.Join(dir, IndexFileName))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "{\n  \"version\": \"v1.0.0\""))

	read, err := ReadIndex(dir)
	require.NoError(t, err)
	require.Equal(t, idx, read)
	require.Equal(t, []string{
		filepath.Join(dir, "en.json"),
		filepath.Join(dir, "locales", "de.yaml"),
		filepath.Join(dir, "fr.resx"),
	}, read.Paths(dir))

	require.Error(t, (&Index{Version: "v1.0.0"}).Save(dir))
}
