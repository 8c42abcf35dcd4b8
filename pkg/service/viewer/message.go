package viewer

import (
	"errors"
	"fmt"

	"github.com/ohler55/ojg/oj"
)

var (
	ErrUnknownMessage = errors.New("unknown message")
	ErrInvalidMessage = errors.New("invalid message")
)

// Message is a user interaction dispatched through Session.Update
type Message interface {
	messageType() string
}

type (
	// SelectionToggled adds the runner to the selection or removes it
	SelectionToggled struct {
		Bib int
	}
	// RunnerRemoved removes the runner from the selection (badge close)
	RunnerRemoved struct {
		Bib int
	}
	SortRequested struct {
		Column Column
	}
	// PanelResized carries the width of the table panel in percent
	PanelResized struct {
		Percent float64
	}
)

const (
	TypeSelectionToggled = "selectionToggled"
	TypeRunnerRemoved    = "runnerRemoved"
	TypeSortRequested    = "sortRequested"
	TypePanelResized     = "panelResized"
)

func (SelectionToggled) messageType() string { return TypeSelectionToggled }
func (RunnerRemoved) messageType() string    { return TypeRunnerRemoved }
func (SortRequested) messageType() string    { return TypeSortRequested }
func (PanelResized) messageType() string     { return TypePanelResized }

// DecodeMessage parses a message in its wire form, e.g.
// {"type": "selectionToggled", "bib": 7}
func DecodeMessage(data []byte) (Message, error) {
	obj, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	m, ok := obj.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: object expected", ErrInvalidMessage)
	}
	msgType, _ := m["type"].(string)
	switch msgType {
	case TypeSelectionToggled, TypeRunnerRemoved:
		bib, ok := m["bib"].(int64)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires bib", ErrInvalidMessage, msgType)
		}
		if msgType == TypeSelectionToggled {
			return SelectionToggled{Bib: int(bib)}, nil
		}
		return RunnerRemoved{Bib: int(bib)}, nil
	case TypeSortRequested:
		name, _ := m["column"].(string)
		col, err := ParseColumn(name)
		if err != nil {
			return nil, err
		}
		return SortRequested{Column: col}, nil
	case TypePanelResized:
		var percent float64
		switch v := m["percent"].(type) {
		case int64:
			percent = float64(v)
		case float64:
			percent = v
		default:
			return nil, fmt.Errorf("%w: %s requires percent", ErrInvalidMessage, msgType)
		}
		return PanelResized{Percent: percent}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, msgType)
	}
}
