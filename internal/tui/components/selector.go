package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Option is one selectable entry.
type Option struct {
	Label       string
	Description string
	Value       string
}

// Selector picks one option from a list that can be narrowed by typing.
// Typed text filters options by case-insensitive substring of label or value.
type Selector struct {
	title   string
	options []Option
	filter  string
	visible []int
	cursor  int
	offset  int
	height  int

	chosen    int
	cancelled bool

	keys   selectorKeyMap
	styles selectorStyles
}

type selectorKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Quit      key.Binding
	Backspace key.Binding
}

type selectorStyles struct {
	Title       lipgloss.Style
	Filter      lipgloss.Style
	Selected    lipgloss.Style
	Unselected  lipgloss.Style
	Description lipgloss.Style
	Help        lipgloss.Style
}

func defaultSelectorStyles() selectorStyles {
	return selectorStyles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Filter:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Selected:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		Unselected:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Description: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginLeft(4),
		Help:        lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Letters are filter input, so only arrows and ctrl chords navigate.
func defaultSelectorKeyMap() selectorKeyMap {
	return selectorKeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "ctrl+p")),
		Down:      key.NewBinding(key.WithKeys("down", "ctrl+n")),
		Select:    key.NewBinding(key.WithKeys("enter")),
		Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c")),
		Backspace: key.NewBinding(key.WithKeys("backspace")),
	}
}

// NewSelector creates a selector showing at most 10 options at a time.
func NewSelector(title string, options []Option) Selector {
	s := Selector{
		title:   title,
		options: options,
		height:  10,
		chosen:  -1,
		keys:    defaultSelectorKeyMap(),
		styles:  defaultSelectorStyles(),
	}
	s.applyFilter()
	return s
}

// WithHeight sets how many options are visible at once.
func (s Selector) WithHeight(h int) Selector {
	if h > 0 {
		s.height = h
	}
	return s
}

func (s Selector) Init() tea.Cmd {
	return nil
}

func (s Selector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch {
	case key.Matches(keyMsg, s.keys.Quit):
		s.cancelled = true
		return s, tea.Quit
	case key.Matches(keyMsg, s.keys.Select):
		if len(s.visible) > 0 {
			s.chosen = s.visible[s.cursor]
			return s, tea.Quit
		}
	case key.Matches(keyMsg, s.keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(keyMsg, s.keys.Down):
		if s.cursor < len(s.visible)-1 {
			s.cursor++
		}
	case key.Matches(keyMsg, s.keys.Backspace):
		if s.filter != "" {
			r := []rune(s.filter)
			s.filter = string(r[:len(r)-1])
			s.applyFilter()
		}
	case keyMsg.Type == tea.KeyRunes:
		s.filter += string(keyMsg.Runes)
		s.applyFilter()
	}
	s.scroll()
	return s, nil
}

func (s *Selector) applyFilter() {
	needle := strings.ToLower(s.filter)
	s.visible = make([]int, 0, len(s.options))
	for i, opt := range s.options {
		if needle == "" ||
			strings.Contains(strings.ToLower(opt.Label), needle) ||
			strings.Contains(strings.ToLower(opt.Value), needle) {
			s.visible = append(s.visible, i)
		}
	}
	s.cursor = 0
	s.offset = 0
}

// scroll keeps the cursor inside the visible window.
func (s *Selector) scroll() {
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+s.height {
		s.offset = s.cursor - s.height + 1
	}
}

func (s Selector) View() string {
	var b strings.Builder

	b.WriteString(s.styles.Title.Render(s.title))
	b.WriteString("\n")
	b.WriteString(s.styles.Filter.Render("> " + s.filter))
	b.WriteString("\n\n")

	if len(s.visible) == 0 {
		b.WriteString(s.styles.Unselected.Render("  no match"))
		b.WriteString("\n")
	}

	end := min(s.offset+s.height, len(s.visible))
	for i := s.offset; i < end; i++ {
		opt := s.options[s.visible[i]]
		if i == s.cursor {
			b.WriteString(s.styles.Selected.Render("● " + opt.Label))
		} else {
			b.WriteString(s.styles.Unselected.Render("  " + opt.Label))
		}
		b.WriteString("\n")
		if opt.Description != "" && i == s.cursor {
			b.WriteString(s.styles.Description.Render(opt.Description))
			b.WriteString("\n")
		}
	}

	help := "type to filter • ↑/↓ navigate • enter select • esc quit"
	if len(s.visible) > s.height {
		help = fmt.Sprintf("%d/%d • %s", s.cursor+1, len(s.visible), help)
	}
	b.WriteString("\n")
	b.WriteString(s.styles.Help.Render(help))

	return b.String()
}

// Filter returns the text typed so far.
func (s Selector) Filter() string {
	return s.filter
}

// SelectedOption returns the chosen option, or nil.
func (s Selector) SelectedOption() *Option {
	if s.chosen >= 0 && s.chosen < len(s.options) {
		return &s.options[s.chosen]
	}
	return nil
}

// Cancelled reports whether the user quit without choosing.
func (s Selector) Cancelled() bool {
	return s.cancelled
}

// Value returns the value of the chosen option, or "".
func (s Selector) Value() string {
	if opt := s.SelectedOption(); opt != nil {
		return opt.Value
	}
	return ""
}
