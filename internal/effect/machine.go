// Package effect selects the presentation mode for a command and drives the mode's
// theme and sound side effects, including the delayed theme restore after hack.
package effect

import (
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/termfolio/internal/audio"
	"pkt.systems/termfolio/internal/persist"
	"pkt.systems/termfolio/internal/scope"
	"pkt.systems/termfolio/schema"
)

// Themer shows themes on the host surface.
type Themer interface {
	ActiveTheme() schema.ThemeName
	ShowTheme(name schema.ThemeName)
}

// Config wires a Machine.
type Config struct {
	Profiles Profiles
	Store    persist.KV
	Themes   Themer
	Audio    *audio.Engine
	// Root owns the restore timer. Cancelling it drops a pending restore.
	Root   *scope.Scope
	Logger pslog.Logger
}

// Machine is the effect state machine. It is not safe for concurrent use; the
// shell calls it with its lock held.
type Machine struct {
	profiles Profiles
	store    persist.KV
	themes   Themer
	audio    *audio.Engine
	root     *scope.Scope
	log      pslog.Logger

	mode       schema.EffectMode
	overridden bool
	saved      schema.ThemeName
	restore    *scope.Scope
}

// NewMachine returns a machine in normal mode.
func NewMachine(cfg Config) *Machine {
	profiles := cfg.Profiles
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	store := cfg.Store
	if store == nil {
		store = persist.NewMemory()
	}
	return &Machine{
		profiles: profiles,
		store:    store,
		themes:   cfg.Themes,
		audio:    cfg.Audio,
		root:     cfg.Root,
		log:      cfg.Logger,
		mode:     schema.ModeNormal,
	}
}

// Select picks the mode for a resolved command.
func Select(name, raw string) schema.EffectMode {
	switch {
	case name == "hack":
		return schema.ModeHack
	case name == "undertale", strings.Contains(strings.ToLower(raw), "matrix"):
		return schema.ModeUndertale
	default:
		return schema.ModeNormal
	}
}

// Mode returns the active mode.
func (m *Machine) Mode() schema.EffectMode {
	return m.mode
}

// Profile returns the active mode's profile.
func (m *Machine) Profile() Profile {
	return m.profiles.For(m.mode)
}

// Profiles returns the strategy table.
func (m *Machine) Profiles() Profiles {
	return m.profiles
}

// RestorePending reports whether a hack theme restore is scheduled.
func (m *Machine) RestorePending() bool {
	return m.restore != nil && !m.restore.Cancelled()
}

// Overridden reports whether a temporary theme is showing.
func (m *Machine) Overridden() bool {
	return m.overridden
}

// Enter switches to mode and fires its entry side effects in sc.
func (m *Machine) Enter(mode schema.EffectMode, sc *scope.Scope) {
	m.mode = mode
	prof := m.profiles.For(mode)
	if prof.Theme != "" && m.themes != nil {
		m.cancelRestore()
		if !m.overridden {
			m.saved = m.themes.ActiveTheme()
			m.store.Set(persist.KeyHackPreviousTheme, string(m.saved))
		}
		m.themes.ShowTheme(prof.Theme)
		m.overridden = true
	}
	for _, tone := range prof.EnterTones {
		m.audio.Play(sc, tone)
	}
	if m.log != nil {
		m.log.Debug("effect enter", "mode", mode.String(), "overridden", m.overridden)
	}
}

// Complete returns to normal mode. A theme override is restored after the
// profile's restore delay.
func (m *Machine) Complete() {
	prev := m.profiles.For(m.mode)
	m.mode = schema.ModeNormal
	if !m.overridden {
		return
	}
	m.cancelRestore()
	delay := prev.RestoreDelay
	if delay <= 0 {
		delay = DefaultRestoreDelay
	}
	if m.root == nil {
		m.restoreNow()
		return
	}
	m.restore = m.root.Child()
	if !m.restore.AfterFunc(delay, m.restoreNow) {
		m.restore = nil
	}
}

// Clear drops any pending restore, reverts an override immediately and always
// removes the persisted marker.
func (m *Machine) Clear() {
	m.cancelRestore()
	m.mode = schema.ModeNormal
	if m.overridden {
		m.revert()
	}
	m.store.Delete(persist.KeyHackPreviousTheme)
}

// Recover restores a theme saved by a session that ended mid-hack. It reports
// whether a marker was found.
func (m *Machine) Recover() bool {
	value, ok := m.store.Get(persist.KeyHackPreviousTheme)
	if !ok {
		return false
	}
	m.store.Delete(persist.KeyHackPreviousTheme)
	name, valid := schema.NormalizeThemeName(value)
	if !valid {
		name = schema.DefaultTheme
	}
	if m.themes != nil {
		m.themes.ShowTheme(name)
	}
	if m.log != nil {
		m.log.Info("effect theme recovered", "theme", name)
	}
	return true
}

func (m *Machine) restoreNow() {
	m.cancelRestore()
	m.revert()
	m.store.Delete(persist.KeyHackPreviousTheme)
}

func (m *Machine) revert() {
	m.overridden = false
	name := m.saved
	if value, ok := m.store.Get(persist.KeyHackPreviousTheme); ok {
		if normalized, valid := schema.NormalizeThemeName(value); valid {
			name = normalized
		}
	}
	if name == "" {
		name = schema.DefaultTheme
	}
	if m.themes != nil {
		m.themes.ShowTheme(name)
	}
	if m.log != nil {
		m.log.Debug("effect theme restored", "theme", name)
	}
}

func (m *Machine) cancelRestore() {
	if m.restore != nil {
		m.restore.Cancel()
		m.restore = nil
	}
}
