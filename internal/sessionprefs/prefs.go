package sessionprefs

import (
	"context"

	"pkt.systems/termfolio/schema"
)

// Session is the per-shell state command handlers may read and change. Handlers run
// off the shell's lock, so implementations synchronize internally.
type Session interface {
	Language() schema.Language
	SetLanguage(lang schema.Language)
	Theme() schema.ThemeName
	SetTheme(name schema.ThemeName)
	InputHistory() []string
}

type sessionKey struct{}

// WithContext stores the session in the context.
func WithContext(ctx context.Context, session Session) context.Context {
	if ctx == nil || session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// FromContext returns the session stored in the context, if any.
func FromContext(ctx context.Context) Session {
	if ctx == nil {
		return nil
	}
	if value := ctx.Value(sessionKey{}); value != nil {
		if session, ok := value.(Session); ok {
			return session
		}
	}
	return nil
}
