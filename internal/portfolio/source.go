// Package portfolio reads portfolio content (profile, skills, projects, experience,
// education) from a YAML file or a JSON HTTP endpoint and watches the file for edits.
package portfolio

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"pkt.systems/termfolio/schema"
)

// Source fetches portfolio records. Every call reads fresh data.
type Source interface {
	Profile(ctx context.Context) (schema.Profile, error)
	Skills(ctx context.Context) ([]schema.Skill, error)
	Projects(ctx context.Context) ([]schema.Project, error)
	Experiences(ctx context.Context) ([]schema.Experience, error)
	Education(ctx context.Context) ([]schema.Education, error)
}

// Content is a whole portfolio document.
type Content struct {
	Profile    *schema.Profile     `json:"profile,omitempty" yaml:"profile,omitempty"`
	Skills     []schema.Skill      `json:"skills" yaml:"skills"`
	Projects   []schema.Project    `json:"projects" yaml:"projects"`
	Experience []schema.Experience `json:"experience" yaml:"experience"`
	Education  []schema.Education  `json:"education" yaml:"education"`
}

//go:embed sample.yaml
var sampleYAML []byte

// SampleYAML returns an example content file.
func SampleYAML() []byte {
	out := make([]byte, len(sampleYAML))
	copy(out, sampleYAML)
	return out
}

// Validate reports structural problems a content file should not have.
func (c Content) Validate() []string {
	var problems []string
	if c.Profile == nil {
		problems = append(problems, "profile is missing")
	} else if strings.TrimSpace(c.Profile.Name) == "" {
		problems = append(problems, "profile.name is empty")
	}
	for i, s := range c.Skills {
		if strings.TrimSpace(s.Name) == "" {
			problems = append(problems, fmt.Sprintf("skills[%d].name is empty", i))
		}
	}
	for i, p := range c.Projects {
		if strings.TrimSpace(p.Name) == "" {
			problems = append(problems, fmt.Sprintf("projects[%d].name is empty", i))
		}
	}
	for i, e := range c.Experience {
		if strings.TrimSpace(e.Company) == "" {
			problems = append(problems, fmt.Sprintf("experience[%d].company is empty", i))
		}
	}
	for i, e := range c.Education {
		if strings.TrimSpace(e.Institution) == "" {
			problems = append(problems, fmt.Sprintf("education[%d].institution is empty", i))
		}
	}
	return problems
}

// Static serves a fixed document.
type Static struct {
	Content Content
}

func (s Static) Profile(context.Context) (schema.Profile, error) {
	if s.Content.Profile == nil {
		return schema.Profile{}, fmt.Errorf("profile: %w", schema.ErrContentUnavailable)
	}
	return *s.Content.Profile, nil
}

func (s Static) Skills(context.Context) ([]schema.Skill, error) {
	return nonNil(s.Content.Skills), nil
}

func (s Static) Projects(context.Context) ([]schema.Project, error) {
	return nonNil(s.Content.Projects), nil
}

func (s Static) Experiences(context.Context) ([]schema.Experience, error) {
	return nonNil(s.Content.Experience), nil
}

func (s Static) Education(context.Context) ([]schema.Education, error) {
	return nonNil(s.Content.Education), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return append([]T(nil), items...)
}
