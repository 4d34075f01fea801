package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrNothingToSelect is returned when a selector is given no items
var ErrNothingToSelect = errors.New("nothing to select from")

// Item is one selectable row: a label plus optional dimmed detail lines
type Item struct {
	Label  string
	Detail []string
}

func (i Item) Title() string { return i.Label }

func (i Item) Description() string { return strings.Join(i.Detail, " | ") }

func (i Item) FilterValue() string { return i.Label }

// itemDelegate renders numbered rows with their detail lines underneath
type itemDelegate struct {
	height int
}

func (d itemDelegate) Height() int                             { return d.height }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(Item)
	if !ok {
		return
	}

	label := Truncate(item.Label, 70)

	var str string
	if index == m.Index() {
		str = SelectedStyle.Render(fmt.Sprintf("  ➤ %d. %s", index+1, label))
	} else {
		str = NormalStyle.Render(fmt.Sprintf("    %d. %s", index+1, label))
	}
	for i := 0; i < d.height-1; i++ {
		line := ""
		if i < len(item.Detail) {
			line = item.Detail[i]
		}
		str += "\n" + DimStyle.Render("      "+line)
	}

	fmt.Fprint(w, str)
}

// SelectorModel is the Bubble Tea model for picking one item from a list
type SelectorModel struct {
	list     list.Model
	selected int
	quitting bool
}

// NewSelector creates a selector over items
func NewSelector(items []Item, title string) SelectorModel {
	height := 1
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
		if n := 1 + len(item.Detail); n > height {
			height = n
		}
	}

	l := list.New(listItems, itemDelegate{height: height}, 80, 4+len(items)*height)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = TitleStyle

	return SelectorModel{list: l, selected: -1}
}

func (m SelectorModel) Init() tea.Cmd {
	return nil
}

func (m SelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if len(m.list.Items()) > 0 {
				m.selected = m.list.Index()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m SelectorModel) View() string {
	if m.selected >= 0 {
		item := m.list.Items()[m.selected].(Item)
		return SuccessStyle.Render(fmt.Sprintf("\n  ✓ Selected: %s\n", Truncate(item.Label, 70)))
	}

	if m.quitting {
		return DimStyle.Render("\n  Cancelled.\n")
	}

	help := HelpStyle.Render("  ↑/↓: navigate • enter: select • q/esc: cancel")
	return "\n" + m.list.View() + "\n" + help
}

// Selected returns the index of the chosen item, or -1
func (m SelectorModel) Selected() int {
	return m.selected
}

// RunSelector displays the selector and returns the chosen index, or -1
// if the user cancelled
func RunSelector(title string, items []Item) (int, error) {
	if len(items) == 0 {
		return -1, ErrNothingToSelect
	}

	p := tea.NewProgram(NewSelector(items, title))

	finalModel, err := p.Run()
	if err != nil {
		return -1, err
	}

	return finalModel.(SelectorModel).Selected(), nil
}
