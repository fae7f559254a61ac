package filesys

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Checksum(t *testing.T) {
	a := Checksum([]byte("hello"))
	require.Len(t, a, 32)
	require.Equal(t, a, Checksum([]byte("hello")))
	require.NotEqual(t, a, Checksum([]byte("hello!")))

	path := filepath.Join(t.TempDir(), "f.json")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))
	got, err := ComputeFileChecksum(path)
	require.NoError(t, err)
	require.Equal(t, a, got)

	_, err = ComputeFileChecksum(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func Test_ComputeFilesHash(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(a, []byte(`{"k":"a"}`), 0644))
	require.NoError(t, os.WriteFile(b, []byte(`{"k":"b"}`), 0644))

	h1, err := ComputeFilesHash([]string{a, b})
	require.NoError(t, err)
	h2, err := ComputeFilesHash([]string{b, a})
	require.NoError(t, err)
	require.Equal(t, h1, h2, "order of files does not matter")

	require.NoError(t, os.WriteFile(b, []byte(`{"k":"c"}`), 0644))
	h3, err := ComputeFilesHash([]string{a, b})
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

func Test_Backup(t *testing.T) {
	src := t.TempDir()
	a := filepath.Join(src, "en.json")
	require.NoError(t, os.WriteFile(a, []byte(`{"k":"v"}`), 0644))

	snapshot, err := Backup(filepath.Join(t.TempDir(), "backups"), []string{a, filepath.Join(src, "missing.json")})
	require.NoError(t, err)
	dst := snapshot.Dir

	hash, err := ComputeDirectoryHash(dst)
	require.NoError(t, err)
	require.Equal(t, hash, snapshot.Hash)
	require.True(t, strings.HasPrefix(snapshot.Hash, "xxh3:"))

	data, err := os.ReadFile(filepath.Join(dst, "en.json"))
	require.NoError(t, err)
	require.Equal(t, `{"k":"v"}`, string(data))
	_, err = os.Stat(filepath.Join(dst, "missing.json"))
	require.True(t, os.IsNotExist(err))
}

func Test_WalkDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))
	for _, f := range []string{"b.resx", "a.json", "sub/c.yaml", ".git/d.json", "readme.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, f), nil, 0644))
	}

	files, err := WalkDir(root, func(p string) bool {
		ext := filepath.Ext(p)
		return ext == ".resx" || ext == ".json" || ext == ".yaml"
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "a.json"),
		filepath.Join(root, "b.resx"),
		filepath.Join(root, "sub", "c.yaml"),
	}, files)
}
