package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/acronis/go-resedit/pkg/filesys"
	"github.com/acronis/go-resedit/pkg/resource"
	"github.com/acronis/go-resedit/pkg/testsupp"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func initFiles(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"en.json", "de.yaml", "Strings.fr.resx"} {
		content, ok := files[name]
		if !ok {
			continue
		}
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
		paths = append(paths, p)
	}
	return dir, paths
}

const (
	enJSON = `{
    "login.title": "Sign in",
    "login.user": "User name",
    "logout": "Sign out"
}`
	deYAML = `login.title: Anmelden
login.user: Benutzername
extra: Nur Deutsch
`
	frResx = `<?xml version="1.0" encoding="utf-8"?>
<root>
  <data name="login.title" xml:space="preserve">
    <value>Connexion</value>
  </data>
</root>
`
)

func openDefault(t *testing.T) (*Workspace, string) {
	t.Helper()
	testsupp.InitLog(t)
	dir, paths := initFiles(t, map[string]string{"en.json": enJSON, "de.yaml": deYAML, "Strings.fr.resx": frResx})
	w, err := Open(context.Background(), paths...)
	require.NoError(t, err)
	return w, dir
}

func Test_Open(t *testing.T) {
	w, _ := openDefault(t)
	require.Equal(t, []string{"en.json", "de.yaml", "Strings.fr.resx"}, w.Names())
	require.Equal(t, []string{"login.title", "login.user", "logout", "extra"}, w.Keys())
	require.Empty(t, w.Dirty())

	v, ok := w.Value("Strings.fr.resx", "login.title")
	require.True(t, ok)
	require.Equal(t, "Connexion", v)
}

func Test_OpenErrors(t *testing.T) {
	dir1, paths1 := initFiles(t, map[string]string{"en.json": enJSON})
	_, paths2 := initFiles(t, map[string]string{"en.json": `{"a": "b"}`})

	_, err := Open(context.Background(), paths1[0], paths2[0])
	require.ErrorIs(t, err, ErrDuplicateFile)

	_, err = Open(context.Background(), filepath.Join(dir1, "missing.json"))
	require.Error(t, err)

	w, err := Open(context.Background(), paths1...)
	require.NoError(t, err)
	require.ErrorIs(t, w.Load(context.Background(), paths2...), ErrDuplicateFile)

	// same path again is a reload
	require.NoError(t, w.Load(context.Background(), paths1...))
	require.Equal(t, []string{"en.json"}, w.Names())
}

func Test_Add(t *testing.T) {
	w, _ := openDefault(t)

	err := w.Add(PendingEdit{Key: "login.password", Values: map[string]string{
		"en.json": "Password",
		"de.yaml": "Passwort",
	}})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"en.json": "Password", "de.yaml": "Passwort"}, w.Values("login.password"))
	require.ElementsMatch(t, []string{"en.json", "de.yaml"}, w.Dirty())

	// last write wins
	require.NoError(t, w.AddTo("en.json", "login.password", "Passphrase"))
	v, _ := w.Value("en.json", "login.password")
	require.Equal(t, "Passphrase", v)

	require.ErrorIs(t, w.Add(PendingEdit{Key: " ", Values: map[string]string{"en.json": "x"}}), ErrEmptyKey)
	require.Error(t, w.Add(PendingEdit{Key: "k"}))
	err = w.Add(PendingEdit{Key: "k", Values: map[string]string{"en.json": "x", "it.json": "y"}})
	require.ErrorIs(t, err, ErrFileNotFound)
	require.Empty(t, w.Values("k"), "failed add must not change any file")
}

func Test_Edit(t *testing.T) {
	w, _ := openDefault(t)

	require.NoError(t, w.Edit("logout", map[string]string{"en.json": "Log out", "de.yaml": "Abmelden"}))
	require.Equal(t, map[string]string{"en.json": "Log out", "de.yaml": "Abmelden"}, w.Values("logout"))

	require.ErrorIs(t, w.Edit("nope", map[string]string{"en.json": "x"}), ErrKeyNotFound)
	require.ErrorIs(t, w.Edit("logout", map[string]string{"xx.json": "x"}), ErrFileNotFound)
}

func Test_Delete(t *testing.T) {
	w, _ := openDefault(t)

	affected := w.Delete("login.title")
	require.Equal(t, []string{"en.json", "de.yaml", "Strings.fr.resx"}, affected)
	require.Empty(t, w.Values("login.title"))

	require.Empty(t, w.Delete("login.title"))
	require.Equal(t, []string{"de.yaml"}, w.Delete("extra"))
}

func Test_Rename(t *testing.T) {
	w, _ := openDefault(t)

	affected, err := w.Rename("login.user", "login.username")
	require.NoError(t, err)
	require.Equal(t, []string{"en.json", "de.yaml"}, affected)
	require.Equal(t, []string{"login.title", "login.username", "logout", "extra"}, w.Keys())

	_, err = w.Rename("login.username", "extra")
	require.ErrorIs(t, err, ErrKeyExists)
	_, err = w.Rename("missing", "other")
	require.ErrorIs(t, err, ErrKeyNotFound)
	_, err = w.Rename("logout", "")
	require.ErrorIs(t, err, ErrEmptyKey)
}

func Test_Search(t *testing.T) {
	w, _ := openDefault(t)

	tests := []struct {
		name  string
		query string
		want  []Match
	}{
		{
			name:  "key substring ignores case",
			query: "LOGIN.T",
			want: []Match{
				{File: "Strings.fr.resx", Key: "login.title", Value: "Connexion"},
				{File: "de.yaml", Key: "login.title", Value: "Anmelden"},
				{File: "en.json", Key: "login.title", Value: "Sign in"},
			},
		},
		{
			name:  "sorted by file then key",
			query: "login",
			want: []Match{
				{File: "Strings.fr.resx", Key: "login.title", Value: "Connexion"},
				{File: "de.yaml", Key: "login.title", Value: "Anmelden"},
				{File: "de.yaml", Key: "login.user", Value: "Benutzername"},
				{File: "en.json", Key: "login.title", Value: "Sign in"},
				{File: "en.json", Key: "login.user", Value: "User name"},
			},
		},
		{
			name:  "falls back to values and expands keys across files",
			query: "benutzer",
			want: []Match{
				{File: "de.yaml", Key: "login.user", Value: "Benutzername"},
				{File: "en.json", Key: "login.user", Value: "User name"},
			},
		},
		{
			name:  "no match",
			query: "zzz",
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, w.Search(tt.query))
		})
	}

	require.Len(t, w.Search("  "), 7)
	require.Equal(t, w.Entries(), w.Search(""), "empty query keeps open-file order")
}

func Test_Missing(t *testing.T) {
	w, _ := openDefault(t)
	require.Equal(t, []MissingKey{
		{Key: "login.user", Files: []string{"Strings.fr.resx"}},
		{Key: "logout", Files: []string{"de.yaml", "Strings.fr.resx"}},
		{Key: "extra", Files: []string{"en.json", "Strings.fr.resx"}},
	}, w.Missing())
}

func Test_SaveRoundTrip(t *testing.T) {
	w, _ := openDefault(t)
	before := w.Entries()

	saved, err := w.Save(context.Background(), WithAll(true))
	require.NoError(t, err)
	require.Equal(t, []string{"en.json", "de.yaml", "Strings.fr.resx"}, saved)

	reopened, err := Open(context.Background(), w.Paths()...)
	require.NoError(t, err)
	require.Equal(t, before, reopened.Entries())
}

func Test_SaveOnlyDirty(t *testing.T) {
	w, _ := openDefault(t)

	saved, err := w.Save(context.Background())
	require.NoError(t, err)
	require.Empty(t, saved)

	w.Delete("extra")
	saved, err = w.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"de.yaml"}, saved)
	require.Empty(t, w.Dirty())

	f, err := resource.Load(w.Paths()[1])
	require.NoError(t, err)
	require.False(t, f.Has("extra"))
}

func Test_SaveDetectsExternalChanges(t *testing.T) {
	w, dir := openDefault(t)
	enPath := filepath.Join(dir, "en.json")

	require.NoError(t, w.AddTo("en.json", "new", "value"))
	require.NoError(t, os.WriteFile(enPath, []byte(`{"changed": "outside"}`), 0644))

	changed, err := w.Changed("en.json")
	require.NoError(t, err)
	require.True(t, changed)

	_, err = w.Save(context.Background())
	require.ErrorIs(t, err, ErrModifiedOnDisk)

	backups := filepath.Join(t.TempDir(), "backups")
	saved, err := w.Save(context.Background(), WithForce(true), WithBackup(backups))
	require.NoError(t, err)
	require.Equal(t, []string{"en.json"}, saved)

	entries, err := os.ReadDir(backups)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	snapshot, ok := w.LastBackup()
	require.True(t, ok)
	require.Equal(t, filepath.Join(backups, entries[0].Name()), snapshot.Dir)
	hash, err := filesys.ComputeDirectoryHash(snapshot.Dir)
	require.NoError(t, err)
	require.Equal(t, hash, snapshot.Hash)
	backup, err := os.ReadFile(filepath.Join(backups, entries[0].Name(), "en.json"))
	require.NoError(t, err)
	require.Equal(t, `{"changed": "outside"}`, string(backup))

	changed, err = w.Changed("en.json")
	require.NoError(t, err)
	require.False(t, changed)
}

func Test_SaveRefusesUnencodableValues(t *testing.T) {
	w, dir := openDefault(t)

	require.NoError(t, w.AddTo("en.json", "new", "value"))
	require.NoError(t, w.AddTo("Strings.fr.resx", "bell", "ding\x07"))

	_, err := w.Save(context.Background())
	require.ErrorContains(t, err, `value of "bell" contains character U+0007`)
	require.ElementsMatch(t, []string{"en.json", "Strings.fr.resx"}, w.Dirty())

	data, err := os.ReadFile(filepath.Join(dir, "en.json"))
	require.NoError(t, err)
	require.Equal(t, enJSON, string(data), "no file is written when one cannot be encoded")

	w.Delete("bell")
	saved, err := w.Save(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"en.json", "Strings.fr.resx"}, saved)
}

func Test_CreateAndReload(t *testing.T) {
	w, dir := openDefault(t)

	itPath := filepath.Join(dir, "it.json")
	require.NoError(t, w.Create(itPath))
	require.Error(t, w.Create(itPath), "name is already open")
	require.NoError(t, w.AddTo("it.json", "logout", "Esci"))
	saved, err := w.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"it.json"}, saved)

	require.NoError(t, os.WriteFile(itPath, []byte(`{"logout": "Disconnetti"}`), 0644))
	require.NoError(t, w.Reload("it.json"))
	v, _ := w.Value("it.json", "logout")
	require.Equal(t, "Disconnetti", v)
	require.ErrorIs(t, w.Reload("nope.json"), ErrFileNotFound)
}

func Test_Watch(t *testing.T) {
	w, dir := openDefault(t)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(name string) { changes <- name })
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "de.yaml"), []byte("extra: geändert\n"), 0644))

	select {
	case name := <-changes:
		require.Equal(t, "de.yaml", name)
	case <-time.After(5 * time.Second):
		t.Fatal("change was not reported")
	}

	cancel()
	require.NoError(t, <-done)
}
