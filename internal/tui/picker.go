package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/csvasset/internal/schema"
	"github.com/vvka-141/csvasset/internal/tui/components"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// ErrCancelled is returned when the user quits a prompt.
var ErrCancelled = errors.New("cancelled")

// TypeOptions builds selector options for the given record types.
func TypeOptions(types []*schema.RecordType) []components.Option {
	opts := make([]components.Option, 0, len(types))
	for _, rt := range types {
		opts = append(opts, components.Option{
			Label:       rt.Name(),
			Description: fmt.Sprintf("%s, %d field(s)", rt.ID(), len(rt.Fields())),
			Value:       string(rt.ID()),
		})
	}
	return opts
}

// PickType asks the user to choose one of types.
func PickType(types []*schema.RecordType) (csvasset.TypeID, error) {
	if len(types) == 0 {
		return "", fmt.Errorf("no record types registered: %w", csvasset.ErrUnknownType)
	}

	selector := components.NewSelector("Select the record type to import", TypeOptions(types))
	final, err := tea.NewProgram(selector).Run()
	if err != nil {
		return "", fmt.Errorf("type picker: %w", err)
	}

	result := final.(components.Selector)
	if result.Cancelled() || result.SelectedOption() == nil {
		return "", ErrCancelled
	}
	return csvasset.TypeID(result.Value()), nil
}
