package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/acronis/go-resedit/pkg/workspace"
)

const SavedMessage = "All files have been saved successfully."

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeDialog
	modeConfirmDelete
)

// fileChangedMsg reports that an open file was changed by another program.
type fileChangedMsg struct {
	name string
}

type savedMsg struct {
	files []string
	err   error
}

type Option func(*Model)

// WithSaveOptions sets the options used when saving from the editor.
func WithSaveOptions(opts ...workspace.SaveOption) Option {
	return func(m *Model) {
		m.saveOpts = opts
	}
}

// WithColumn selects the file column used by copy. Unknown names are ignored.
func WithColumn(name string) Option {
	return func(m *Model) {
		for i, n := range m.ws.Names() {
			if n == name {
				m.column = i
				return
			}
		}
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		m.copy = write
	}
}

// Model is the terminal editor: one row per key and one column per open file.
type Model struct {
	ctx      context.Context
	ws       *workspace.Workspace
	saveOpts []workspace.SaveOption
	copy     func(string) error

	table  table.Model
	search textinput.Model
	dialog *dialog
	mode   mode

	keys       []string
	column     int
	confirmKey string
	status     string
	statusErr  bool

	width  int
	height int
	styles Styles
}

func New(ctx context.Context, ws *workspace.Workspace, opts ...Option) Model {
	search := textinput.New()
	search.Placeholder = "Search keys or values..."
	search.Prompt = "/ "
	search.Width = 40

	m := Model{
		ctx:    ctx,
		ws:     ws,
		copy:   clipboard.WriteAll,
		search: search,
		table: table.New(
			table.WithFocused(true),
			table.WithHeight(20),
		),
		width:  120,
		height: 30,
		styles: DefaultStyles(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.resize()
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case fileChangedMsg:
		m.onFileChanged(msg.name)
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("save: %w", msg.err))
			return m, nil
		}
		m.setStatus(SavedMessage)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeDialog:
			return m.updateDialog(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	if m.mode == modeBrowse {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		m.search.Focus()
		return m, textinput.Blink
	case "a":
		m.dialog = newAddDialog(m.ws.Names())
		m.mode = modeDialog
		return m, textinput.Blink
	case "enter":
		key, ok := m.selectedKey()
		if !ok {
			return m, nil
		}
		m.dialog = newEditDialog(key, m.ws.Names(), m.ws.Values(key))
		m.mode = modeDialog
		return m, textinput.Blink
	case "d":
		key, ok := m.selectedKey()
		if !ok {
			return m, nil
		}
		m.confirmKey = key
		m.mode = modeConfirmDelete
		return m, nil
	case "s":
		return m, m.save()
	case "y":
		m.copySelected()
		return m, nil
	case "tab":
		if n := len(m.ws.Names()); n > 0 {
			m.column = (m.column + 1) % n
			m.resize()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.SetValue("")
		m.search.Blur()
		m.mode = modeBrowse
		m.refresh()
		return m, nil
	case tea.KeyEnter:
		m.search.Blur()
		m.mode = modeBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refresh()
	return m, cmd
}

func (m Model) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.dialog = nil
		m.mode = modeBrowse
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		m.dialog.move(1)
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.dialog.move(-1)
		return m, nil
	case tea.KeyEnter:
		if err := m.applyDialog(); err != nil {
			m.setError(err)
			return m, nil
		}
		m.dialog = nil
		m.mode = modeBrowse
		m.refresh()
		return m, nil
	}
	return m, m.dialog.update(msg)
}

func (m *Model) applyDialog() error {
	d := m.dialog
	key := d.resultKey()
	entered := d.values()

	if d.add {
		values := make(map[string]string, len(entered))
		for f, v := range entered {
			if v != "" {
				values[f] = v
			}
		}
		if err := m.ws.Add(workspace.PendingEdit{Key: key, Values: values}); err != nil {
			return fmt.Errorf("add key: %w", err)
		}
		m.setStatus(fmt.Sprintf("Key %q added to %d file(s)", key, len(values)))
		return nil
	}

	// files that never had the key only receive non-empty values
	current := m.ws.Values(key)
	values := make(map[string]string, len(entered))
	for f, v := range entered {
		if _, ok := current[f]; ok || v != "" {
			values[f] = v
		}
	}
	if err := m.ws.Edit(key, values); err != nil {
		return fmt.Errorf("edit key: %w", err)
	}
	m.setStatus(fmt.Sprintf("Key %q updated", key))
	return nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := m.confirmKey
	m.confirmKey = ""
	m.mode = modeBrowse
	if msg.String() != "y" {
		m.setStatus("Delete cancelled")
		return m, nil
	}
	affected := m.ws.Delete(key)
	m.refresh()
	m.setStatus(fmt.Sprintf("Key %q deleted from %d file(s)", key, len(affected)))
	return m, nil
}

func (m Model) save() tea.Cmd {
	ctx, ws, opts := m.ctx, m.ws, m.saveOpts
	return func() tea.Msg {
		files, err := ws.Save(ctx, opts...)
		return savedMsg{files: files, err: err}
	}
}

func (m *Model) copySelected() {
	key, ok := m.selectedKey()
	if !ok {
		return
	}
	names := m.ws.Names()
	if m.column >= len(names) {
		return
	}
	value, ok := m.ws.Value(names[m.column], key)
	if !ok {
		m.setError(fmt.Errorf("key %q is missing in %s", key, names[m.column]))
		return
	}
	if err := m.copy(value); err != nil {
		m.setError(fmt.Errorf("copy to clipboard: %w", err))
		return
	}
	m.setStatus(fmt.Sprintf("Copied %s value of %q", names[m.column], key))
}

func (m *Model) onFileChanged(name string) {
	if m.ws.IsDirty(name) {
		m.setError(fmt.Errorf("%s changed on disk and has unsaved edits: %w", name, workspace.ErrModifiedOnDisk))
		return
	}
	if err := m.ws.Reload(name); err != nil {
		if errors.Is(err, workspace.ErrFileNotFound) {
			return
		}
		m.setError(fmt.Errorf("reload %s: %w", name, err))
		return
	}
	m.refresh()
	m.setStatus(fmt.Sprintf("Reloaded %s", name))
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m Model) selectedKey() (string, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.keys) {
		return "", false
	}
	return m.keys[i], true
}

// visibleKeys returns the keys matching the search query in workspace order.
func (m Model) visibleKeys() []string {
	query := strings.TrimSpace(m.search.Value())
	if query == "" {
		return m.ws.Keys()
	}
	matched := make(map[string]struct{})
	for _, match := range m.ws.Search(query) {
		matched[match.Key] = struct{}{}
	}
	var keys []string
	for _, k := range m.ws.Keys() {
		if _, ok := matched[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func (m *Model) refresh() {
	m.keys = m.visibleKeys()
	names := m.ws.Names()
	rows := make([]table.Row, 0, len(m.keys))
	for _, k := range m.keys {
		row := table.Row{k}
		for _, name := range names {
			v, _ := m.ws.Value(name, k)
			row = append(row, strings.ReplaceAll(v, "\n", "⏎"))
		}
		rows = append(rows, row)
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m *Model) resize() {
	names := m.ws.Names()
	avail := m.width - 4
	keyWidth := max(12, avail/4)
	colWidth := 12
	if len(names) > 0 {
		colWidth = max(colWidth, (avail-keyWidth)/len(names)-2)
	}

	columns := []table.Column{{Title: "Key", Width: keyWidth}}
	for i, name := range names {
		title := name
		if i == m.column {
			title = "▸ " + name
		}
		columns = append(columns, table.Column{Title: title, Width: colWidth})
	}
	m.table.SetColumns(columns)
	m.table.SetWidth(avail)
	m.table.SetHeight(max(3, m.height-8))
}

func (m Model) View() string {
	var sb strings.Builder

	dirty := ""
	if n := len(m.ws.Dirty()); n > 0 {
		dirty = fmt.Sprintf("  (%d unsaved)", n)
	}
	sb.WriteString(m.styles.Header.Render(fmt.Sprintf("resedit: %d files, %d keys%s", m.ws.Len(), len(m.ws.Keys()), dirty)))
	sb.WriteString("\n")

	if m.mode == modeSearch || m.search.Value() != "" {
		sb.WriteString(m.search.View())
		sb.WriteString("\n")
	}

	if m.mode == modeDialog && m.dialog != nil {
		sb.WriteString(m.dialog.view(m.styles))
	} else {
		sb.WriteString(m.table.View())
	}
	sb.WriteString("\n")

	switch {
	case m.mode == modeConfirmDelete:
		sb.WriteString(m.styles.Error.Render(fmt.Sprintf("Delete %q across all files? [y/n]", m.confirmKey)))
	case m.status != "" && m.statusErr:
		sb.WriteString(m.styles.Error.Render(m.status))
	case m.status != "":
		sb.WriteString(m.styles.Status.Render(m.status))
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render("[/] search  [a] add  [enter] edit  [d] delete  [s] save  [y] copy  [tab] column  [q] quit"))
	return sb.String()
}
