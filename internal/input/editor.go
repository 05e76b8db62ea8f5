package input

// Editor is a single-line rune buffer with a cursor.
type Editor struct {
	buf    []rune
	cursor int
}

func (e *Editor) String() string {
	return string(e.buf)
}

func (e *Editor) Len() int {
	return len(e.buf)
}

// Cursor returns the cursor position in runes.
func (e *Editor) Cursor() int {
	return e.cursor
}

func (e *Editor) Clear() {
	e.buf = nil
	e.cursor = 0
}

// SetString replaces the buffer and moves the cursor to the end.
func (e *Editor) SetString(value string) {
	if value == "" {
		e.Clear()
		return
	}
	e.buf = []rune(value)
	e.cursor = len(e.buf)
}

func (e *Editor) InsertRune(r rune) {
	if e.cursor < 0 {
		e.cursor = 0
	}
	if e.cursor > len(e.buf) {
		e.cursor = len(e.buf)
	}
	e.buf = append(e.buf[:e.cursor], append([]rune{r}, e.buf[e.cursor:]...)...)
	e.cursor++
}

func (e *Editor) Backspace() {
	if e.cursor <= 0 {
		return
	}
	e.buf = append(e.buf[:e.cursor-1], e.buf[e.cursor:]...)
	e.cursor--
}

func (e *Editor) Delete() {
	if e.cursor < 0 || e.cursor >= len(e.buf) {
		return
	}
	e.buf = append(e.buf[:e.cursor], e.buf[e.cursor+1:]...)
}

func (e *Editor) MoveLeft() {
	if e.cursor > 0 {
		e.cursor--
	}
}

func (e *Editor) MoveRight() {
	if e.cursor < len(e.buf) {
		e.cursor++
	}
}

func (e *Editor) MoveStart() {
	e.cursor = 0
}

func (e *Editor) MoveEnd() {
	e.cursor = len(e.buf)
}

func (e *Editor) MoveWordLeft() {
	i := e.cursor
	for i > 0 && isSpace(e.buf[i-1]) {
		i--
	}
	for i > 0 && !isSpace(e.buf[i-1]) {
		i--
	}
	e.cursor = i
}

func (e *Editor) MoveWordRight() {
	i := e.cursor
	for i < len(e.buf) && isSpace(e.buf[i]) {
		i++
	}
	for i < len(e.buf) && !isSpace(e.buf[i]) {
		i++
	}
	e.cursor = i
}

func (e *Editor) DeleteWordBackward() {
	if e.cursor <= 0 {
		return
	}
	start := e.cursor
	for start > 0 && isSpace(e.buf[start-1]) {
		start--
	}
	for start > 0 && !isSpace(e.buf[start-1]) {
		start--
	}
	e.buf = append(e.buf[:start], e.buf[e.cursor:]...)
	e.cursor = start
}

func (e *Editor) KillLineStart() {
	if e.cursor <= 0 {
		return
	}
	e.buf = append([]rune(nil), e.buf[e.cursor:]...)
	e.cursor = 0
}

func (e *Editor) KillLineEnd() {
	if e.cursor >= len(e.buf) {
		return
	}
	e.buf = e.buf[:e.cursor]
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
