package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrNothingToPick is returned by PickItem for an empty list.
var ErrNothingToPick = errors.New("no items to pick from")

// PickerItem is one entry shown in a list.
type PickerItem struct {
	Label    string // primary text (e.g. wallet name)
	SubLabel string // secondary text shown dimmed (e.g. address)
	Value    string // value returned on selection
}

// listView is a cursor over items, shared by the picker and the wizard.
type listView struct {
	items  []PickerItem
	cursor int
}

func (l *listView) move(delta int) {
	l.cursor = max(0, min(len(l.items)-1, l.cursor+delta))
}

func (l *listView) selected() (PickerItem, bool) {
	if len(l.items) == 0 {
		return PickerItem{}, false
	}
	return l.items[l.cursor], true
}

// selectValue moves the cursor to the item with value v, if present.
func (l *listView) selectValue(v string) {
	for i, it := range l.items {
		if strings.EqualFold(it.Value, v) {
			l.cursor = i
			return
		}
	}
}

func (l listView) render() string {
	var sb strings.Builder
	for i, item := range l.items {
		prefix := "    "
		if i == l.cursor {
			prefix = "  ▸ "
		}
		line := prefix + StyleValue.Render(item.Label)
		if item.SubLabel != "" {
			line += "  " + StyleMeta.Render(item.SubLabel)
		}
		if i == l.cursor {
			line = StyleSelected.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

type pickerModel struct {
	title    string
	list     listView
	selected *PickerItem
	quitting bool
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		m.list.move(-1)
	case "down", "j":
		m.list.move(1)
	case "enter", " ":
		if item, ok := m.list.selected(); ok {
			m.selected = &item
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}
	return "\n" + StyleTitle.Render("  "+m.title) + "\n\n" +
		m.list.render() + "\n" +
		StyleMeta.Render("  [ ↑↓ / jk ] navigate   [ Enter ] select   [ q ] cancel") + "\n"
}

// PickItem runs an interactive list picker and returns the selected Value.
// It returns ("", nil) when the user cancels.
func PickItem(title string, items []PickerItem) (string, error) {
	if len(items) == 0 {
		return "", ErrNothingToPick
	}
	p := tea.NewProgram(pickerModel{title: title, list: listView{items: items}}, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	fm := final.(pickerModel)
	if fm.quitting || fm.selected == nil {
		return "", nil
	}
	return fm.selected.Value, nil
}
