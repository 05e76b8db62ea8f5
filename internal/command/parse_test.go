package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSplitsOnWhitespaceRuns(t *testing.T) {
	cmd := Parse("  LS \t secrets   extra ")
	if cmd.Name != "ls" {
		t.Fatalf("expected lower-cased name, got %q", cmd.Name)
	}
	if diff := cmp.Diff([]string{"secrets", "extra"}, cmd.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if cmd.Raw != "LS \t secrets   extra" {
		t.Fatalf("unexpected raw %q", cmd.Raw)
	}
}

func TestParseNoQuoting(t *testing.T) {
	cmd := Parse(`echo "a b"`)
	if diff := cmp.Diff([]string{`"a`, `b"`}, cmd.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		cmd := Parse(input)
		if cmd.Name != "" || len(cmd.Args) != 0 {
			t.Fatalf("expected empty command for %q, got %+v", input, cmd)
		}
	}
}

func TestRemainderKeepsInnerSpacing(t *testing.T) {
	cmd := Parse("echo  hello   world ")
	if got := cmd.Remainder(); got != "hello   world" {
		t.Fatalf("unexpected remainder %q", got)
	}
	if got := Parse("echo").Remainder(); got != "" {
		t.Fatalf("expected empty remainder, got %q", got)
	}
}
