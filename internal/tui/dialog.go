package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// dialog edits one key across all open files. In add mode the first input
// holds the key itself.
type dialog struct {
	add    bool
	key    string
	labels []string
	inputs []textinput.Model
	focus  int
}

func newInput(value string) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 0
	in.Width = 48
	in.SetValue(value)
	return in
}

func newAddDialog(files []string) *dialog {
	d := &dialog{add: true, labels: append([]string{"key"}, files...)}
	for range d.labels {
		d.inputs = append(d.inputs, newInput(""))
	}
	d.inputs[0].Focus()
	return d
}

func newEditDialog(key string, files []string, values map[string]string) *dialog {
	d := &dialog{key: key, labels: files}
	for _, f := range files {
		d.inputs = append(d.inputs, newInput(values[f]))
	}
	if len(d.inputs) > 0 {
		d.inputs[0].Focus()
	}
	return d
}

func (d *dialog) title() string {
	if d.add {
		return "Add key"
	}
	return "Edit values for key: " + d.key
}

// files returns the labels that are file names.
func (d *dialog) files() []string {
	if d.add {
		return d.labels[1:]
	}
	return d.labels
}

func (d *dialog) resultKey() string {
	if d.add {
		return strings.TrimSpace(d.inputs[0].Value())
	}
	return d.key
}

// values maps file names to the entered values.
func (d *dialog) values() map[string]string {
	offset := 0
	if d.add {
		offset = 1
	}
	values := make(map[string]string, len(d.inputs)-offset)
	for i, f := range d.files() {
		values[f] = d.inputs[i+offset].Value()
	}
	return values
}

func (d *dialog) move(delta int) {
	if len(d.inputs) == 0 {
		return
	}
	d.inputs[d.focus].Blur()
	d.focus = (d.focus + delta + len(d.inputs)) % len(d.inputs)
	d.inputs[d.focus].Focus()
}

func (d *dialog) update(msg tea.Msg) tea.Cmd {
	if len(d.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	d.inputs[d.focus], cmd = d.inputs[d.focus].Update(msg)
	return cmd
}

func (d *dialog) view(s Styles) string {
	var sb strings.Builder
	sb.WriteString(s.Header.Render(d.title()))
	sb.WriteString("\n\n")
	for i, label := range d.labels {
		l := s.Label.Render(label)
		if i == d.focus {
			l = s.Label.Inherit(s.Active).Render(label)
		}
		sb.WriteString(l + " " + d.inputs[i].View() + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(s.Muted.Render("[tab] next  [enter] apply  [esc] cancel"))
	return s.Dialog.Render(sb.String())
}
