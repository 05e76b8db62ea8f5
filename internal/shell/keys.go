package shell

// KeyKind is an abstract input action. Hosts decode their own input into keys.
type KeyKind int

const (
	KeyNone KeyKind = iota
	KeyRune
	KeyEnter
	KeyTab
	KeyUp
	KeyDown
	KeyEscape
	KeyBackspace
	KeyDelete
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyWordLeft
	KeyWordRight
	KeyDeleteWord
	KeyKillStart
	KeyKillEnd
	// KeySelect picks the completion candidate at Index.
	KeySelect
	// KeyInterrupt stops the running command and clears the buffer.
	KeyInterrupt
	// KeyClearScreen behaves like the clear command.
	KeyClearScreen
)

// Key is one input action.
type Key struct {
	Kind  KeyKind
	Rune  rune
	Index int
}
