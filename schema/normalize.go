package schema

import (
	"strings"
	"unicode"
)

// DefaultLanguage is used when no preference is stored or negotiated.
const DefaultLanguage Language = "en"

// NormalizeLanguage lower-cases a language code and strips any region or script
// subtags ("es-AR" becomes "es").
func NormalizeLanguage(value string) (Language, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if idx := strings.IndexAny(trimmed, "-_"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if len(trimmed) < 2 || len(trimmed) > 3 {
		return "", false
	}
	for _, r := range trimmed {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return "", false
		}
	}
	return Language(trimmed), true
}

// ValidateOwnerID ensures an owner id matches [a-z0-9._-] with no normalization.
func ValidateOwnerID(owner OwnerID) error {
	raw := string(owner)
	if raw == "" {
		return ErrInvalidSession
	}
	if strings.TrimSpace(raw) != raw {
		return ErrInvalidSession
	}
	for _, r := range raw {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || r == '_' || r == '-' {
			continue
		}
		return ErrInvalidSession
	}
	return nil
}
