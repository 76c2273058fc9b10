package editor

// DefaultHistoryLimit bounds the undo stack when no limit is configured.
const DefaultHistoryLimit = 1000

// History keeps the undo and redo stacks of one document.
type History struct {
	undoStack []Command
	redoStack []Command
	limit     int
}

// NewHistory creates a history holding at most limit undo entries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Execute applies cmd and records it. The redo stack is cleared.
func (h *History) Execute(cmd Command) error {
	if err := cmd.Apply(); err != nil {
		return err
	}
	h.undoStack = append(h.undoStack, cmd)
	h.redoStack = nil
	if len(h.undoStack) > h.limit {
		excess := len(h.undoStack) - h.limit
		h.undoStack = h.undoStack[excess:]
	}
	return nil
}

// Undo reverts the most recent command and moves it to the redo stack.
func (h *History) Undo() (Command, error) {
	if len(h.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}
	last := h.undoStack[len(h.undoStack)-1]
	if err := last.Revert(); err != nil {
		return nil, err
	}
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, last)
	return last, nil
}

// Redo reapplies the most recently undone command.
func (h *History) Redo() (Command, error) {
	if len(h.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	last := h.redoStack[len(h.redoStack)-1]
	if err := last.Reapply(); err != nil {
		return nil, err
	}
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, last)
	return last, nil
}

// UndoCount returns the number of undoable commands.
func (h *History) UndoCount() int {
	return len(h.undoStack)
}

// RedoCount returns the number of redoable commands.
func (h *History) RedoCount() int {
	return len(h.redoStack)
}

// Labels lists undo entries, oldest first.
func (h *History) Labels() []string {
	labels := make([]string, len(h.undoStack))
	for i, cmd := range h.undoStack {
		labels[i] = cmd.Label()
	}
	return labels
}

// Clear drops both stacks.
func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}
