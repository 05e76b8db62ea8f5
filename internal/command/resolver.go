package command

import (
	"context"
	"fmt"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/termfolio/internal/i18n"
	"pkt.systems/termfolio/internal/logx"
	"pkt.systems/termfolio/internal/markup"
	"pkt.systems/termfolio/schema"
)

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	Registry            *Registry
	Catalog             *i18n.Catalog
	DisableAuditLogging bool
}

// Resolver turns a raw input line into a command result. It never returns an error:
// every failure becomes a localized output line.
type Resolver struct {
	registry *Registry
	catalog  *i18n.Catalog
	cfg      ResolverConfig
}

// NewResolver constructs a resolver. A nil catalog uses the embedded default.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = i18n.MustDefault()
	}
	return &Resolver{registry: cfg.Registry, catalog: cfg.Catalog, cfg: cfg}
}

// Registry returns the registry the resolver dispatches to.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve parses raw and runs the matching handler.
func (r *Resolver) Resolve(ctx context.Context, raw string, lang schema.Language) schema.CommandResult {
	cmd := Parse(raw)
	if cmd.Name == "" {
		return schema.CommandResult{Output: []string{""}}
	}
	bundle := r.catalog.Bundle(lang)
	log := logx.WithCommand(pslog.Ctx(ctx), cmd.Name, len(cmd.Args))
	if !r.cfg.DisableAuditLogging {
		log.Debug("audit command", "input", cmd.Raw, "lang", bundle.Language())
	}

	handler, ok := r.registry.Lookup(cmd.Name)
	if !ok {
		log.Info("command resolve rejected", "reason", "not found")
		typed := strings.Fields(cmd.Raw)[0]
		return schema.CommandResult{Output: []string{
			schema.ErrorMarker + bundle.T("errors.not_found", markup.Escape(typed)),
			bundle.T("errors.try_help"),
		}}
	}

	result, err := invoke(ctx, handler, Request{
		Name: cmd.Name,
		Args: cmd.Args,
		Raw:  cmd.Raw,
		Lang: bundle.Language(),
		T:    bundle,
	})
	if err != nil {
		log.Warn("command resolve failed", "err", err)
		return schema.CommandResult{Output: []string{schema.ErrorMarker + bundle.T("errors.generic")}}
	}
	if result.Output == nil {
		result.Output = []string{}
	}
	log.Info("command resolve completed", "lines", len(result.Output), "clear", result.ClearScreen)
	return result
}

func invoke(ctx context.Context, handler Handler, req Request) (result schema.CommandResult, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("handler panic: %v", recovered)
		}
	}()
	return handler(ctx, req)
}
