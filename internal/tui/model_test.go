package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-resedit/pkg/testsupp"
	"github.com/acronis/go-resedit/pkg/workspace"
)

func newModel(t *testing.T, opts ...Option) (Model, *workspace.Workspace, string) {
	t.Helper()
	testsupp.InitLog(t)
	dir := testsupp.InitFiles(t, map[string]string{
		"en.json": `{"login.title": "Sign in", "logout": "Sign out"}`,
		"de.yaml": "login.title: Anmelden\n",
	})
	ws, err := workspace.Open(context.Background(), filepath.Join(dir, "en.json"), filepath.Join(dir, "de.yaml"))
	require.NoError(t, err)
	return New(context.Background(), ws, opts...), ws, dir
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = press(t, m, string(r))
	}
	return m
}

func Test_View(t *testing.T) {
	m, _, _ := newModel(t)
	require.Equal(t, []string{"login.title", "logout"}, m.keys)

	view := m.View()
	require.Contains(t, view, "2 files, 2 keys")
	require.Contains(t, view, "en.json")
	require.Contains(t, view, "Anmelden")
}

func Test_Search(t *testing.T) {
	m, _, _ := newModel(t)

	m, _ = press(t, m, "/")
	require.Equal(t, modeSearch, m.mode)
	m = typeText(t, m, "OUT")
	require.Equal(t, []string{"logout"}, m.keys)

	// value matches are used when no key matches
	m, _ = press(t, m, "esc", "/")
	m = typeText(t, m, "anmel")
	require.Equal(t, []string{"login.title"}, m.keys)

	m, _ = press(t, m, "enter")
	require.Equal(t, modeBrowse, m.mode)
	require.Equal(t, []string{"login.title"}, m.keys)

	m, _ = press(t, m, "/", "esc")
	require.Equal(t, []string{"login.title", "logout"}, m.keys)
}

func Test_AddDialog(t *testing.T) {
	m, ws, _ := newModel(t)

	m, _ = press(t, m, "a")
	require.Equal(t, modeDialog, m.mode)
	m = typeText(t, m, "login.user")
	m, _ = press(t, m, "tab")
	m = typeText(t, m, "User")
	m, _ = press(t, m, "enter")

	require.Equal(t, modeBrowse, m.mode)
	require.Equal(t, map[string]string{"en.json": "User"}, ws.Values("login.user"))
	require.Contains(t, m.keys, "login.user")
	require.Equal(t, []string{"en.json"}, ws.Dirty())

	// an empty key keeps the dialog open and reports the error
	m, _ = press(t, m, "a", "tab")
	m = typeText(t, m, "x")
	m, _ = press(t, m, "enter")
	require.Equal(t, modeDialog, m.mode)
	require.True(t, m.statusErr)

	m, _ = press(t, m, "esc")
	require.Equal(t, modeBrowse, m.mode)
}

func Test_EditDialog(t *testing.T) {
	m, ws, _ := newModel(t)

	m, _ = press(t, m, "down", "enter")
	require.Equal(t, modeDialog, m.mode)
	require.Equal(t, "logout", m.dialog.key)
	require.Equal(t, "Sign out", m.dialog.inputs[0].Value())

	m = typeText(t, m, "!")
	m, _ = press(t, m, "enter")
	require.Equal(t, map[string]string{"en.json": "Sign out!"}, ws.Values("logout"),
		"files without the key get no empty value")
}

func Test_DeleteConfirmation(t *testing.T) {
	m, ws, _ := newModel(t)

	m, _ = press(t, m, "d")
	require.Equal(t, modeConfirmDelete, m.mode)
	require.Contains(t, m.View(), `Delete "login.title" across all files? [y/n]`)
	m, _ = press(t, m, "n")
	require.Len(t, ws.Values("login.title"), 2)

	m, _ = press(t, m, "d", "y")
	require.Empty(t, ws.Values("login.title"))
	require.Equal(t, []string{"logout"}, m.keys)
}

func Test_Save(t *testing.T) {
	m, ws, dir := newModel(t)
	require.NoError(t, ws.AddTo("de.yaml", "logout", "Abmelden"))

	m, cmd := press(t, m, "s")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)
	require.Equal(t, SavedMessage, m.status)
	require.False(t, m.statusErr)

	data, err := os.ReadFile(filepath.Join(dir, "de.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "logout: Abmelden")
}

func Test_Copy(t *testing.T) {
	var copied []string
	m, _, _ := newModel(t, WithClipboard(func(s string) error {
		copied = append(copied, s)
		return nil
	}))

	m, _ = press(t, m, "y", "tab", "y")
	require.Equal(t, []string{"Sign in", "Anmelden"}, copied)

	m, _ = press(t, m, "down", "y")
	require.True(t, m.statusErr, "de.yaml has no logout key")
	require.Len(t, copied, 2)
}

func Test_InitialColumn(t *testing.T) {
	var copied []string
	clip := WithClipboard(func(s string) error {
		copied = append(copied, s)
		return nil
	})

	m, _, _ := newModel(t, clip, WithColumn("de.yaml"))
	press(t, m, "y")
	require.Equal(t, []string{"Anmelden"}, copied)

	m, _, _ = newModel(t, clip, WithColumn("it.json"))
	press(t, m, "y")
	require.Equal(t, []string{"Anmelden", "Sign in"}, copied)
}

func Test_FileChanged(t *testing.T) {
	m, ws, dir := newModel(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "de.yaml"), []byte("login.title: Einloggen\nlogout: Abmelden\n"), 0644))
	next, _ := m.Update(fileChangedMsg{name: "de.yaml"})
	m = next.(Model)
	v, _ := ws.Value("de.yaml", "logout")
	require.Equal(t, "Abmelden", v)
	require.Equal(t, "Reloaded de.yaml", m.status)

	require.NoError(t, ws.AddTo("en.json", "extra", "x"))
	next, _ = m.Update(fileChangedMsg{name: "en.json"})
	m = next.(Model)
	require.True(t, m.statusErr)
	_, ok := ws.Value("en.json", "extra")
	require.True(t, ok, "unsaved edits are kept")
}

func Test_Quit(t *testing.T) {
	m, _, _ := newModel(t)
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}
