package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/termfolio/schema"
)

type contextKey int

const (
	ownerKey contextKey = iota
	sessionKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithOwner annotates the logger with the preference owner if present.
func WithOwner(ctx context.Context, owner schema.OwnerID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if owner != "" {
		if current, ok := ctx.Value(ownerKey).(schema.OwnerID); ok && current == owner {
			return log
		}
		log = log.With("owner", owner)
	}
	return log
}

// WithOwnerSession annotates the logger with owner and session identifiers.
func WithOwnerSession(ctx context.Context, owner schema.OwnerID, sessionID schema.SessionID) pslog.Logger {
	log := WithOwner(ctx, owner)
	if sessionID != "" {
		if current, ok := ctx.Value(sessionKey).(schema.SessionID); ok && current == sessionID {
			return log
		}
		log = log.With("session", sessionID)
	}
	return log
}

// WithSession annotates the logger with a session id when available.
func WithSession(log pslog.Logger, sessionID schema.SessionID) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}

// WithCommand annotates the logger with the command name and argument count.
func WithCommand(log pslog.Logger, name string, args int) pslog.Logger {
	if name != "" {
		log = log.With("command", name)
	}
	if args > 0 {
		log = log.With("args", args)
	}
	return log
}

// ContextWithOwner stores the owner marker on the context for log de-duplication.
func ContextWithOwner(ctx context.Context, owner schema.OwnerID) context.Context {
	if ctx == nil || owner == "" {
		return ctx
	}
	return context.WithValue(ctx, ownerKey, owner)
}

// ContextWithSession stores the session marker on the context for log de-duplication.
func ContextWithSession(ctx context.Context, sessionID schema.SessionID) context.Context {
	if ctx == nil || sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, sessionID)
}

// ContextWithOwnerSessionLogger attaches the logger annotated with owner/session fields
// and the matching markers to the context.
func ContextWithOwnerSessionLogger(ctx context.Context, log pslog.Logger, owner schema.OwnerID, sessionID schema.SessionID) context.Context {
	if owner != "" {
		log = log.With("owner", owner)
	}
	log = WithSession(log, sessionID)
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithSession(ContextWithOwner(ctx, owner), sessionID)
}

// CopyContextFields copies owner/session markers from src to dst.
func CopyContextFields(dst context.Context, src context.Context) context.Context {
	if src == nil {
		return dst
	}
	if owner, ok := src.Value(ownerKey).(schema.OwnerID); ok && owner != "" {
		dst = ContextWithOwner(dst, owner)
	}
	if session, ok := src.Value(sessionKey).(schema.SessionID); ok && session != "" {
		dst = ContextWithSession(dst, session)
	}
	return dst
}
