package portfolio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/termfolio/schema"
)

func writeContent(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "content.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write content: %v", err)
	}
	return path
}

func TestSampleIsValid(t *testing.T) {
	content, err := ParseYAML(SampleYAML())
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	if problems := content.Validate(); len(problems) != 0 {
		t.Fatalf("sample has problems: %v", problems)
	}
	if content.Profile.Title.Text("es") != "Ingeniera de software" {
		t.Fatalf("unexpected localized title %q", content.Profile.Title.Text("es"))
	}
}

func TestFileSourceReadsEveryCall(t *testing.T) {
	path := writeContent(t, SampleYAML())
	src := NewFileSource(path)
	ctx := context.Background()
	skills, err := src.Skills(ctx)
	if err != nil {
		t.Fatalf("skills: %v", err)
	}
	if len(skills) != 4 {
		t.Fatalf("expected 4 skills, got %d", len(skills))
	}
	if err := os.WriteFile(path, []byte("skills:\n  - {name: Rust, category: Languages}\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	skills, err = src.Skills(ctx)
	if err != nil {
		t.Fatalf("skills: %v", err)
	}
	if len(skills) != 1 || skills[0].Name != "Rust" {
		t.Fatalf("expected fresh read, got %+v", skills)
	}
	if _, err := src.Profile(ctx); !errors.Is(err, schema.ErrContentUnavailable) {
		t.Fatalf("expected missing profile error, got %v", err)
	}
	projects, err := src.Projects(ctx)
	if err != nil || projects == nil || len(projects) != 0 {
		t.Fatalf("expected empty non-nil projects, got %v err=%v", projects, err)
	}
}

func TestFileSourceErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "missing.yaml")).Skills(ctx); err == nil {
		t.Fatalf("expected missing file error")
	}
	bad := writeContent(t, []byte("skills: [unclosed"))
	if _, err := NewFileSource(bad).Skills(ctx); err == nil {
		t.Fatalf("expected parse error")
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := NewFileSource(bad).Skills(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestValidateReportsProblems(t *testing.T) {
	content := Content{
		Profile:  &schema.Profile{},
		Skills:   []schema.Skill{{Name: ""}},
		Projects: []schema.Project{{Name: "ok"}, {}},
	}
	problems := content.Validate()
	joined := strings.Join(problems, "; ")
	for _, want := range []string{"profile.name", "skills[0]", "projects[1]"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}
	if got := (Content{}).Validate(); len(got) != 1 || got[0] != "profile is missing" {
		t.Fatalf("unexpected problems %v", got)
	}
}
