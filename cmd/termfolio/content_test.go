package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestContentInitThenCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content", "portfolio.yaml")
	if _, err := runRoot(t, "content", "init", path); err != nil {
		t.Fatalf("content init: %v", err)
	}
	if _, err := runRoot(t, "content", "init", path); err == nil {
		t.Fatalf("expected init to refuse overwriting")
	}
	out, err := runRoot(t, "content", "check", path)
	if err != nil {
		t.Fatalf("content check: %v (%s)", err, out)
	}
	if !strings.Contains(out, ": ok (") {
		t.Fatalf("expected ok report, got %q", out)
	}
}

func TestContentCheckReportsProblems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	body := "profile:\n  name: \"\"\nskills:\n  - {name: Go}\n  - {category: Tools}\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	err := checkContentFile(&out, path)
	if err == nil || !strings.Contains(err.Error(), "2 problem") {
		t.Fatalf("expected two problems, got %v", err)
	}
	for _, want := range []string{"profile.name is empty", "skills[1].name is empty"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in report %q", want, out.String())
		}
	}
}

func TestContentCheckRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("profile: [unclosed\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := checkContentFile(&bytes.Buffer{}, path); err == nil || !strings.Contains(err.Error(), "parse content") {
		t.Fatalf("expected parse error, got %v", err)
	}
}
