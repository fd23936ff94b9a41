// Package history keeps the stack of reference lists produced by searches,
// listings and deletions, with back, forward and jump navigation.
package history

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// StartCommand labels the initial state holding every collection id.
const StartCommand = "<start>"

// ErrOutOfRange is returned when navigation would leave the history.
var ErrOutOfRange = errors.New("history index out of range")

// State is one reference list and the command that produced it.
type State struct {
	IDs     []string `json:"ids"`
	Command string   `json:"command"`
}

// History is an append-only list of states plus a cursor.
//
// Pushing always appends after the last state, even when the cursor has
// been moved back: earlier branches stay reachable by index.
type History struct {
	states []State
	index  int
	logger *slog.Logger

	// OnChange, when set, is called with the new current list each time
	// the cursor moves or a state is pushed.
	OnChange func(ids []string)
}

// New starts a history whose only state is the given id list.
func New(ids []string, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &History{logger: logger}
	h.states = []State{{IDs: slices.Clone(ids), Command: StartCommand}}
	return h
}

// Push appends ids as the new current list. It does nothing and returns
// false when ids is empty or equal to the current list, unless force is set.
func (h *History) Push(ids []string, command string, force bool) bool {
	if !force && (len(ids) == 0 || slices.Equal(ids, h.Current())) {
		return false
	}
	h.states = append(h.states, State{IDs: slices.Clone(ids), Command: command})
	h.index = len(h.states) - 1
	h.logger.Info("switched reference list", "command", command, "size", len(ids))
	h.notify()
	return true
}

// Step moves the cursor by n states.
func (h *History) Step(n int) error {
	target := h.index + n
	if target < 0 || target > len(h.states)-1 {
		h.logger.Error("history step out of range", "length", len(h.states), "index", h.index, "step", n)
		return fmt.Errorf("%w: length %d, current %d, step %d", ErrOutOfRange, len(h.states), h.index, n)
	}
	h.index = target
	h.logger.Info("switched reference list", "command", h.states[target].Command, "size", len(h.states[target].IDs))
	h.notify()
	return nil
}

// Jump moves the cursor to an absolute zero-based index.
// Jumping to the current index is a no-op.
func (h *History) Jump(index int) error {
	if index == h.index {
		return nil
	}
	if index < 0 || index >= len(h.states) {
		return fmt.Errorf("%w: need an index in [1, %d]", ErrOutOfRange, len(h.states))
	}
	return h.Step(index - h.index)
}

// Reset collapses the history to a single initial state.
func (h *History) Reset(ids []string) {
	h.states = []State{{IDs: slices.Clone(ids), Command: StartCommand}}
	h.index = 0
	h.notify()
}

// Current returns the current reference list.
func (h *History) Current() []string {
	return h.states[h.index].IDs
}

// CurrentValid returns the current list without ids that no longer exist.
func (h *History) CurrentValid(exists func(id string) bool) []string {
	cur := h.Current()
	out := make([]string, 0, len(cur))
	for _, id := range cur {
		if exists(id) {
			out = append(out, id)
		}
	}
	return out
}

// Index returns the zero-based cursor position.
func (h *History) Index() int { return h.index }

// Len returns the number of states.
func (h *History) Len() int { return len(h.states) }

// States returns a copy of all states.
func (h *History) States() []State { return slices.Clone(h.states) }

// Show renders one line per state, marking the current one with '*'.
func (h *History) Show() []string {
	lines := make([]string, len(h.states))
	for i, s := range h.states {
		mark := " "
		if i == h.index {
			mark = "*"
		}
		lines[i] = fmt.Sprintf("%s %3d. %s (%d)", mark, i+1, s.Command, len(s.IDs))
	}
	return lines
}

func (h *History) notify() {
	if h.OnChange != nil {
		h.OnChange(h.Current())
	}
}
