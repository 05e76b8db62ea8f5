package schema

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Localized maps a language code to text.
type Localized map[Language]string

// Text returns the text for lang, falling back to English and then to any value.
func (l Localized) Text(lang Language) string {
	if len(l) == 0 {
		return ""
	}
	if v, ok := l[lang]; ok && v != "" {
		return v
	}
	if v, ok := l[DefaultLanguage]; ok && v != "" {
		return v
	}
	best := ""
	var bestKey Language
	for k, v := range l {
		if v == "" {
			continue
		}
		if best == "" || k < bestKey {
			best, bestKey = v, k
		}
	}
	return best
}

// UnmarshalYAML accepts either a language map or a plain string, which is taken as
// English.
func (l *Localized) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var text string
		if err := value.Decode(&text); err != nil {
			return err
		}
		*l = Localized{DefaultLanguage: text}
		return nil
	}
	var m map[Language]string
	if err := value.Decode(&m); err != nil {
		return err
	}
	*l = m
	return nil
}

// UnmarshalJSON accepts either a language object or a plain string.
func (l *Localized) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*l = Localized{DefaultLanguage: text}
		return nil
	}
	var m map[Language]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*l = m
	return nil
}

// Profile is the portfolio owner's public profile.
type Profile struct {
	Name     string    `json:"name" yaml:"name"`
	Handle   string    `json:"handle" yaml:"handle"`
	Title    Localized `json:"title" yaml:"title"`
	Bio      Localized `json:"bio" yaml:"bio"`
	Location string    `json:"location" yaml:"location"`
	Email    string    `json:"email" yaml:"email"`
	Website  string    `json:"website" yaml:"website"`
	GitHub   string    `json:"github" yaml:"github"`
	LinkedIn string    `json:"linkedin" yaml:"linkedin"`
}

// Skill is a named skill grouped by category.
type Skill struct {
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	Level    int    `json:"level" yaml:"level"`
}

// Project is a showcased project.
type Project struct {
	Name        string    `json:"name" yaml:"name"`
	Description Localized `json:"description" yaml:"description"`
	Tech        []string  `json:"tech" yaml:"tech"`
	URL         string    `json:"url" yaml:"url"`
	Featured    bool      `json:"featured" yaml:"featured"`
}

// Experience is a work history entry.
type Experience struct {
	Company     string    `json:"company" yaml:"company"`
	Role        Localized `json:"role" yaml:"role"`
	Start       string    `json:"start" yaml:"start"`
	End         string    `json:"end" yaml:"end"`
	Description Localized `json:"description" yaml:"description"`
}

// Education is an education history entry.
type Education struct {
	Institution string    `json:"institution" yaml:"institution"`
	Degree      Localized `json:"degree" yaml:"degree"`
	Start       string    `json:"start" yaml:"start"`
	End         string    `json:"end" yaml:"end"`
}
