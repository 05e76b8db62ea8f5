package audio

import "time"

// Waveform is an oscillator shape.
type Waveform string

const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Sawtooth Waveform = "sawtooth"
	Triangle Waveform = "triangle"
	Noise    Waveform = "noise"
)

// Class groups voices by purpose so sinks can filter them.
type Class int

const (
	ClassUI Class = iota
	ClassTick
	ClassAlarm
	ClassMusic
)

// Timbre selects the typewriter tick sound.
type Timbre int

const (
	TimbreNormal Timbre = iota
	TimbreHack
	TimbreUndertale
)

// Kind is a tone recipe.
type Kind int

const (
	Key Kind = iota
	Enter
	Tab
	History
	Tick
	Alarm
	Rumble
	Note
	Rising
)

// Tone describes one fire-and-forget sound request.
type Tone struct {
	Kind      Kind
	Timbre    Timbre
	Intensity int
	Note      int
}

// Voice is a single oscillator with a frequency sweep and a fixed lifetime.
type Voice struct {
	ID        uint64        `json:"id"`
	Class     Class         `json:"-"`
	Wave      Waveform      `json:"wave"`
	FreqStart float64       `json:"freq_start"`
	FreqEnd   float64       `json:"freq_end"`
	Gain      float64       `json:"gain"`
	Delay     time.Duration `json:"delay_ms"`
	Duration  time.Duration `json:"duration_ms"`
}

// Lifetime is the time from start until the voice goes silent.
func (v Voice) Lifetime() time.Duration {
	return v.Delay + v.Duration
}

// Pentatonic is the fixed note set used by Note tones (C major pentatonic, C4 to C5).
var Pentatonic = []float64{261.63, 293.66, 329.63, 392.00, 440.00, 523.25}

// MaxIntensity is the strongest rumble.
const MaxIntensity = 3

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Voices returns the voices that make up t.
func Voices(t Tone) []Voice {
	switch t.Kind {
	case Key:
		return []Voice{{Class: ClassUI, Wave: Square, FreqStart: 800, FreqEnd: 600, Gain: 0.03, Duration: ms(30)}}
	case Enter:
		return []Voice{{Class: ClassUI, Wave: Sine, FreqStart: 520, FreqEnd: 780, Gain: 0.05, Duration: ms(80)}}
	case Tab:
		return []Voice{{Class: ClassUI, Wave: Triangle, FreqStart: 660, FreqEnd: 880, Gain: 0.04, Duration: ms(50)}}
	case History:
		return []Voice{{Class: ClassUI, Wave: Sine, FreqStart: 440, FreqEnd: 520, Gain: 0.03, Duration: ms(40)}}
	case Tick:
		return tickVoices(t.Timbre)
	case Alarm:
		return []Voice{
			{Class: ClassAlarm, Wave: Square, FreqStart: 880, FreqEnd: 440, Gain: 0.08, Duration: ms(150)},
			{Class: ClassAlarm, Wave: Sawtooth, FreqStart: 440, FreqEnd: 880, Gain: 0.08, Delay: ms(150), Duration: ms(150)},
		}
	case Rumble:
		return rumbleVoices(t.Intensity)
	case Note:
		idx := t.Note % len(Pentatonic)
		if idx < 0 {
			idx += len(Pentatonic)
		}
		f := Pentatonic[idx]
		return []Voice{{Class: ClassMusic, Wave: Sine, FreqStart: f, FreqEnd: f, Gain: 0.06, Duration: ms(150)}}
	case Rising:
		return []Voice{{Class: ClassAlarm, Wave: Sawtooth, FreqStart: 200, FreqEnd: 1200, Gain: 0.05, Duration: ms(600)}}
	default:
		return nil
	}
}

func tickVoices(timbre Timbre) []Voice {
	switch timbre {
	case TimbreHack:
		return []Voice{{Class: ClassTick, Wave: Sawtooth, FreqStart: 180, FreqEnd: 140, Gain: 0.02, Duration: ms(20)}}
	case TimbreUndertale:
		return []Voice{{Class: ClassTick, Wave: Square, FreqStart: 600, FreqEnd: 600, Gain: 0.025, Duration: ms(40)}}
	default:
		return []Voice{{Class: ClassTick, Wave: Square, FreqStart: 1200, FreqEnd: 1100, Gain: 0.015, Duration: ms(15)}}
	}
}

// rumbleVoices layers a low sine and a noise bed, an impact at intensity 2 and a
// glitch train at intensity 3.
func rumbleVoices(intensity int) []Voice {
	if intensity < 0 {
		intensity = 0
	}
	if intensity > MaxIntensity {
		intensity = MaxIntensity
	}
	gain := 0.1 + 0.03*float64(intensity)
	length := ms(400 + 100*intensity)
	voices := []Voice{
		{Class: ClassAlarm, Wave: Sine, FreqStart: 55, FreqEnd: 40, Gain: gain, Duration: length},
		{Class: ClassAlarm, Wave: Noise, FreqStart: 0, FreqEnd: 0, Gain: gain / 3, Duration: length},
	}
	if intensity >= 2 {
		voices = append(voices, Voice{Class: ClassAlarm, Wave: Sine, FreqStart: 120, FreqEnd: 30, Gain: gain * 1.5, Duration: ms(150)})
	}
	if intensity >= 3 {
		for i, f := range []float64{1800, 950, 2400} {
			voices = append(voices, Voice{
				Class:     ClassAlarm,
				Wave:      Square,
				FreqStart: f,
				FreqEnd:   f / 2,
				Gain:      0.04,
				Delay:     ms(60 * (i + 1)),
				Duration:  ms(30),
			})
		}
	}
	return voices
}
