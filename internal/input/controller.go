// Package input implements the shell's input controller: the line buffer, command
// history browsing and prefix autocompletion.
package input

// Outcome says what a key did, so the caller can pick feedback.
type Outcome int

const (
	// Ignored means the key changed nothing.
	Ignored Outcome = iota
	// Edited means the buffer changed by typing or deleting.
	Edited
	// Completed means a candidate was written into the buffer.
	Completed
	// Listed means the candidate list was shown.
	Listed
	// Highlighted means the highlighted candidate moved.
	Highlighted
	// Browsed means the buffer was replaced from history.
	Browsed
	// Dismissed means the candidate list was hidden.
	Dismissed
	// Submitted means a line was submitted.
	Submitted
)

// Controller owns the buffer, the history and the completion list.
type Controller struct {
	editor  Editor
	history *History
	comp    Completion
	names   func() []string
}

// NewController returns a controller completing against names.
func NewController(names func() []string, historyMax int) *Controller {
	if names == nil {
		names = func() []string { return nil }
	}
	return &Controller{history: NewHistory(historyMax), names: names}
}

// Buffer returns the current input.
func (c *Controller) Buffer() string {
	return c.editor.String()
}

// Cursor returns the cursor position in runes.
func (c *Controller) Cursor() int {
	return c.editor.Cursor()
}

// History returns the input history.
func (c *Controller) History() *History {
	return c.history
}

// Completion returns a copy of the completion state.
func (c *Controller) Completion() Completion {
	out := c.comp
	out.Candidates = append([]string(nil), c.comp.Candidates...)
	return out
}

// SetBuffer replaces the buffer.
func (c *Controller) SetBuffer(value string) {
	c.editor.SetString(value)
	c.recompute()
}

// Edit applies an editing operation to the buffer.
func (c *Controller) Edit(op func(*Editor)) Outcome {
	before, cursor := c.editor.String(), c.editor.Cursor()
	op(&c.editor)
	if c.editor.String() == before {
		if c.editor.Cursor() != cursor {
			return Edited
		}
		return Ignored
	}
	c.recompute()
	return Edited
}

// Insert types r at the cursor.
func (c *Controller) Insert(r rune) Outcome {
	return c.Edit(func(e *Editor) { e.InsertRune(r) })
}

// Tab completes a single candidate or shows the list.
func (c *Controller) Tab() Outcome {
	candidates := Candidates(c.editor.String(), c.names())
	switch len(candidates) {
	case 0:
		return Ignored
	case 1:
		c.accept(candidates[0])
		return Completed
	default:
		c.comp = Completion{Candidates: candidates, Visible: true}
		return Listed
	}
}

// Up moves the highlight up when the list is visible, else walks back in history.
func (c *Controller) Up() Outcome {
	if c.comp.Visible {
		if c.comp.Highlighted > 0 {
			c.comp.Highlighted--
			return Highlighted
		}
		return Ignored
	}
	entry, ok := c.history.Prev()
	if !ok {
		return Ignored
	}
	c.editor.SetString(entry)
	c.comp = Completion{}
	return Browsed
}

// Down moves the highlight down when the list is visible, else walks forward in
// history.
func (c *Controller) Down() Outcome {
	if c.comp.Visible {
		if c.comp.Highlighted < len(c.comp.Candidates)-1 {
			c.comp.Highlighted++
			return Highlighted
		}
		return Ignored
	}
	entry, ok := c.history.Next()
	if !ok {
		return Ignored
	}
	c.editor.SetString(entry)
	c.comp = Completion{}
	return Browsed
}

// Escape hides the list and keeps the buffer.
func (c *Controller) Escape() Outcome {
	if !c.comp.Visible && len(c.comp.Candidates) == 0 {
		return Ignored
	}
	c.comp = Completion{}
	return Dismissed
}

// Select writes candidate i into the buffer.
func (c *Controller) Select(i int) Outcome {
	if i < 0 || i >= len(c.comp.Candidates) {
		return Ignored
	}
	c.accept(c.comp.Candidates[i])
	return Completed
}

// Enter selects the highlighted candidate when the list is visible. Otherwise it
// submits the buffer, records it in history and clears the input.
func (c *Controller) Enter() (string, Outcome) {
	if c.comp.Visible && len(c.comp.Candidates) > 0 {
		return "", c.Select(c.comp.Highlighted)
	}
	line := c.editor.String()
	c.history.Append(line)
	c.editor.Clear()
	c.comp = Completion{}
	return line, Submitted
}

// Reset clears the buffer, stops history browsing and hides the list.
func (c *Controller) Reset() {
	c.editor.Clear()
	c.history.Reset()
	c.comp = Completion{}
}

func (c *Controller) accept(candidate string) {
	c.editor.SetString(candidate + " ")
	c.comp = Completion{}
}

func (c *Controller) recompute() {
	candidates := Candidates(c.editor.String(), c.names())
	visible := c.comp.Visible && len(candidates) > 1
	highlighted := c.comp.Highlighted
	if highlighted >= len(candidates) {
		highlighted = 0
	}
	c.comp = Completion{Candidates: candidates, Highlighted: highlighted, Visible: visible}
}
