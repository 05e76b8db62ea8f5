package command

import (
	"context"
	"strings"
	"time"

	"pkt.systems/termfolio/internal/cache"
	"pkt.systems/termfolio/internal/i18n"
	"pkt.systems/termfolio/internal/markup"
	"pkt.systems/termfolio/internal/sessionprefs"
	"pkt.systems/termfolio/schema"
)

// Deps are the collaborators the built-in handlers read from.
type Deps struct {
	Cache   *cache.Cache
	Catalog *i18n.Catalog
	Now     func() time.Time
}

// NewDefaultRegistry returns a registry holding the full built-in command table.
func NewDefaultRegistry(deps Deps) *Registry {
	reg := NewRegistry()
	RegisterBuiltins(reg, deps)
	return reg
}

// RegisterBuiltins registers every built-in and hidden command. It panics when a name
// is already taken.
func RegisterBuiltins(reg *Registry, deps Deps) {
	if deps.Catalog == nil {
		deps.Catalog = i18n.MustDefault()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	c := content{cache: deps.Cache}

	reg.MustRegister("help", helpHandler(reg), Info{})
	reg.MustRegister("about", c.about, Info{})
	reg.MustRegister("whoami", c.whoami, Info{})
	reg.MustRegister("skills", c.skills, Info{})
	reg.MustRegister("projects", c.projects, Info{})
	reg.MustRegister("experience", c.experience, Info{})
	reg.MustRegister("education", c.education, Info{})
	reg.MustRegister("contact", c.contact, Info{})
	reg.MustRegister("ls", listHandler, Info{})
	reg.MustRegister("cat", catHandler, Info{})
	reg.MustRegister("clear", clearHandler, Info{})
	reg.MustRegister("refresh", c.refresh, Info{})
	reg.MustRegister("lang", langHandler(deps.Catalog), Info{})
	reg.MustRegister("theme", themeHandler, Info{})
	reg.MustRegister("history", historyHandler, Info{})
	reg.MustRegister("date", dateHandler(deps.Now), Info{})
	reg.MustRegister("echo", echoHandler, Info{})
	registerEggs(reg)
}

func lines(out ...string) schema.CommandResult {
	return schema.CommandResult{Output: out}
}

func helpHandler(reg *Registry) Handler {
	return func(_ context.Context, req Request) (schema.CommandResult, error) {
		out := []string{schema.HelpMarker + req.T.T("help.title")}
		for _, name := range reg.Visible() {
			out = append(out, schema.HelpMarker+req.T.T("help.entry", name, req.T.T("help.commands."+name)))
		}
		out = append(out, "", req.T.T("help.footer"), req.T.T("help.eggs"))
		return lines(out...), nil
	}
}

func clearHandler(context.Context, Request) (schema.CommandResult, error) {
	return schema.CommandResult{Output: []string{}, ClearScreen: true}, nil
}

func echoHandler(_ context.Context, req Request) (schema.CommandResult, error) {
	text := Command{Raw: req.Raw}.Remainder()
	return lines(markup.Escape(text)), nil
}

func dateHandler(now func() time.Time) Handler {
	return func(context.Context, Request) (schema.CommandResult, error) {
		return lines(now().Format("Mon, 02 Jan 2006 15:04:05 MST")), nil
	}
}

func langHandler(catalog *i18n.Catalog) Handler {
	return func(ctx context.Context, req Request) (schema.CommandResult, error) {
		session := sessionprefs.FromContext(ctx)
		if session == nil {
			return schema.CommandResult{}, schema.ErrInvalidSession
		}
		if len(req.Args) == 0 {
			names := make([]string, 0, len(catalog.Languages()))
			for _, lang := range catalog.Languages() {
				names = append(names, string(lang)+" ("+req.T.T("languages."+string(lang))+")")
			}
			return lines(
				req.T.T("lang.current", req.T.T("languages."+string(session.Language()))),
				req.T.T("lang.available", strings.Join(names, ", ")),
			), nil
		}
		lang, ok := schema.NormalizeLanguage(req.Args[0])
		if !ok || !catalog.Supports(lang) {
			return lines(schema.ErrorMarker + req.T.T("lang.unsupported", markup.Escape(req.Args[0]))), nil
		}
		session.SetLanguage(lang)
		next := catalog.Bundle(lang)
		return lines(next.T("lang.changed", next.T("languages."+string(lang)))), nil
	}
}

func themeHandler(ctx context.Context, req Request) (schema.CommandResult, error) {
	session := sessionprefs.FromContext(ctx)
	if session == nil {
		return schema.CommandResult{}, schema.ErrInvalidSession
	}
	available := schema.AvailableThemes()
	if len(req.Args) == 0 {
		names := make([]string, len(available))
		for i, name := range available {
			names[i] = string(name)
		}
		return lines(
			req.T.T("theme.current", session.Theme()),
			req.T.T("theme.available", strings.Join(names, ", ")),
		), nil
	}
	name, ok := schema.NormalizeThemeName(req.Args[0])
	if !ok {
		return lines(schema.ErrorMarker + req.T.T("theme.unknown", markup.Escape(req.Args[0]))), nil
	}
	session.SetTheme(name)
	return lines(req.T.T("theme.changed", name)), nil
}

func historyHandler(ctx context.Context, req Request) (schema.CommandResult, error) {
	session := sessionprefs.FromContext(ctx)
	if session == nil {
		return schema.CommandResult{}, schema.ErrInvalidSession
	}
	entries := session.InputHistory()
	if len(entries) == 0 {
		return lines(req.T.T("history.empty")), nil
	}
	out := make([]string, len(entries))
	for i, entry := range entries {
		out[i] = req.T.T("history.entry", i+1, markup.Escape(entry))
	}
	return lines(out...), nil
}
