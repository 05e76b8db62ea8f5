package schema

import "errors"

var (
	// ErrUnknownCommand indicates no handler is registered for a command name.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrDuplicateCommand indicates a command name was registered twice.
	ErrDuplicateCommand = errors.New("command already registered")
	// ErrInvalidCommandName indicates a command name is empty or not lower-case.
	ErrInvalidCommandName = errors.New("invalid command name")
	// ErrUnsupportedLanguage indicates a language has no translation bundle.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrUnknownTheme indicates a theme name is not supported.
	ErrUnknownTheme = errors.New("unknown theme")
	// ErrContentUnavailable indicates the portfolio content source could not be read.
	ErrContentUnavailable = errors.New("content unavailable")
	// ErrInvalidSession indicates a malformed or expired session.
	ErrInvalidSession = errors.New("invalid session")
	// ErrInvalidRequest indicates a malformed host request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrClosed indicates the shell was closed.
	ErrClosed = errors.New("shell closed")
)
