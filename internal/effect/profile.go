package effect

import (
	"time"

	"pkt.systems/termfolio/internal/audio"
	"pkt.systems/termfolio/schema"
)

// Profile is the timing, sound and theme behaviour of one effect mode.
type Profile struct {
	CharDelayMin time.Duration
	CharDelayMax time.Duration
	LinePause    time.Duration
	Timbre       audio.Timbre

	// BurstChance is the per-character probability of an environmental burst.
	BurstChance float64
	// AlarmShare is the fraction of bursts that are alarms; the rest are rumbles.
	AlarmShare     float64
	BurstIntensity int

	// Lines containing any milestone marker start with a strong rumble.
	MilestoneMarkers   []string
	MilestoneIntensity int

	Theme        schema.ThemeName
	EnterTones   []audio.Tone
	RestoreDelay time.Duration
}

// Profiles is the strategy table keyed by mode.
type Profiles map[schema.EffectMode]Profile

// DefaultLinePause is the pause between completed lines in every mode.
const DefaultLinePause = 200 * time.Millisecond

// DefaultRestoreDelay is how long the hack theme lingers after playback completes.
const DefaultRestoreDelay = 2 * time.Second

// MilestoneMarker tags hack output lines that get a strong rumble.
const MilestoneMarker = "[!]"

// DefaultProfiles returns the built-in table.
func DefaultProfiles() Profiles {
	return Profiles{
		schema.ModeNormal: {
			CharDelayMin: 15 * time.Millisecond,
			CharDelayMax: 30 * time.Millisecond,
			LinePause:    DefaultLinePause,
			Timbre:       audio.TimbreNormal,
		},
		schema.ModeUndertale: {
			CharDelayMin: 60 * time.Millisecond,
			CharDelayMax: 100 * time.Millisecond,
			LinePause:    DefaultLinePause,
			Timbre:       audio.TimbreUndertale,
		},
		schema.ModeHack: {
			CharDelayMin:       30 * time.Millisecond,
			CharDelayMax:       50 * time.Millisecond,
			LinePause:          DefaultLinePause,
			Timbre:             audio.TimbreHack,
			BurstChance:        0.04,
			AlarmShare:         0.3,
			BurstIntensity:     1,
			MilestoneMarkers:   []string{MilestoneMarker},
			MilestoneIntensity: audio.MaxIntensity,
			Theme:              schema.HackTheme,
			EnterTones: []audio.Tone{
				{Kind: audio.Alarm},
				{Kind: audio.Rumble, Intensity: 2},
				{Kind: audio.Rising},
			},
			RestoreDelay: DefaultRestoreDelay,
		},
	}
}

// For returns the profile for mode, falling back to normal.
func (p Profiles) For(mode schema.EffectMode) Profile {
	if prof, ok := p[mode]; ok {
		return prof
	}
	if prof, ok := p[schema.ModeNormal]; ok {
		return prof
	}
	return DefaultProfiles()[schema.ModeNormal]
}

// Tuning overrides profile parameters. Zero fields keep the base value.
type Tuning struct {
	CharDelayMin time.Duration
	CharDelayMax time.Duration
	LinePause    time.Duration
	BurstChance  float64
	AlarmShare   float64
	RestoreDelay time.Duration
}

// Tune returns base with t's non-zero fields applied. Delays are kept ordered.
func Tune(base Profile, t Tuning) Profile {
	out := base
	if t.CharDelayMin > 0 {
		out.CharDelayMin = t.CharDelayMin
	}
	if t.CharDelayMax > 0 {
		out.CharDelayMax = t.CharDelayMax
	}
	if out.CharDelayMax < out.CharDelayMin {
		out.CharDelayMax = out.CharDelayMin
	}
	if t.LinePause > 0 {
		out.LinePause = t.LinePause
	}
	if t.BurstChance > 0 {
		out.BurstChance = clamp01(t.BurstChance)
	}
	if t.AlarmShare > 0 {
		out.AlarmShare = clamp01(t.AlarmShare)
	}
	if t.RestoreDelay > 0 {
		out.RestoreDelay = t.RestoreDelay
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
