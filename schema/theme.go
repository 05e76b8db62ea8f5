package schema

import "strings"

// DefaultTheme is the default UI theme name.
const DefaultTheme ThemeName = "outrun"

// HackTheme is the temporary theme applied while the hack effect plays.
const HackTheme ThemeName = "hack"

var themeNames = []ThemeName{
	"outrun",
	"gruvbox",
	"tokyo-midnight",
}

// AvailableThemes returns the user-selectable theme names. The hack theme is not
// selectable; it is only applied by the hack effect.
func AvailableThemes() []ThemeName {
	out := make([]ThemeName, len(themeNames))
	copy(out, themeNames)
	return out
}

// NormalizeThemeName returns a canonical theme name if supported.
func NormalizeThemeName(name string) (ThemeName, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	switch normalized {
	case "outrun", "outrun-electric":
		return "outrun", true
	case "gruvbox":
		return "gruvbox", true
	case "tokyo-midnight", "tokyo":
		return "tokyo-midnight", true
	default:
		return "", false
	}
}
