package input

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var commandNames = []string{
	"help", "about", "whoami", "skills", "projects", "experience", "education", "contact",
	"ls", "cat", "clear", "refresh", "lang", "theme", "history", "date", "echo",
	"matrix", "undertale", "coffee", "sudo", "hack", "konami", "pokemon", "pizza", "vim",
	"42", "debug", "emoji", "rm",
}

func newController() *Controller {
	return NewController(func() []string { return commandNames }, 0)
}

func typeString(c *Controller, s string) {
	for _, r := range s {
		c.Insert(r)
	}
}

func TestTabSingleCandidateCompletes(t *testing.T) {
	c := newController()
	typeString(c, "he")
	if got := c.Tab(); got != Completed {
		t.Fatalf("expected completion, got %v", got)
	}
	if c.Buffer() != "help " {
		t.Fatalf("expected %q, got %q", "help ", c.Buffer())
	}
	if c.Completion().Visible {
		t.Fatalf("expected no list after single completion")
	}
}

func TestTabManyCandidatesLists(t *testing.T) {
	c := newController()
	typeString(c, "h")
	if got := c.Tab(); got != Listed {
		t.Fatalf("expected list, got %v", got)
	}
	comp := c.Completion()
	if !comp.Visible {
		t.Fatalf("expected visible list")
	}
	if diff := cmp.Diff([]string{"help", "history", "hack"}, comp.Candidates); diff != "" {
		t.Fatalf("candidates (-want +got):\n%s", diff)
	}
	if c.Buffer() != "h" {
		t.Fatalf("expected buffer unchanged, got %q", c.Buffer())
	}
}

func TestTabNoCandidatesIsNoop(t *testing.T) {
	c := newController()
	typeString(c, "zz")
	if got := c.Tab(); got != Ignored {
		t.Fatalf("expected ignored, got %v", got)
	}
	c = newController()
	if got := c.Tab(); got != Ignored {
		t.Fatalf("expected empty buffer to be ignored, got %v", got)
	}
	typeString(c, "cat ")
	if got := c.Tab(); got != Ignored {
		t.Fatalf("expected no completion of arguments, got %v", got)
	}
}

func TestListNavigationClampsAndEnterSelects(t *testing.T) {
	c := newController()
	typeString(c, "h")
	c.Tab()
	if got := c.Up(); got != Ignored {
		t.Fatalf("expected clamp at top, got %v", got)
	}
	c.Down()
	c.Down()
	if got := c.Down(); got != Ignored {
		t.Fatalf("expected clamp at bottom, got %v", got)
	}
	if c.Completion().Highlighted != 2 {
		t.Fatalf("expected highlight 2, got %d", c.Completion().Highlighted)
	}
	line, outcome := c.Enter()
	if outcome != Completed || line != "" {
		t.Fatalf("expected selection, got %v %q", outcome, line)
	}
	if c.Buffer() != "hack " {
		t.Fatalf("expected hack selected, got %q", c.Buffer())
	}
	if len(c.History().Entries()) != 0 {
		t.Fatalf("selection must not submit")
	}
}

func TestSelectByIndex(t *testing.T) {
	c := newController()
	typeString(c, "e")
	c.Tab()
	if got := c.Select(1); got != Completed {
		t.Fatalf("expected completion, got %v", got)
	}
	if c.Buffer() != "education " {
		t.Fatalf("unexpected buffer %q", c.Buffer())
	}
	if got := c.Select(5); got != Ignored {
		t.Fatalf("expected out of range ignored, got %v", got)
	}
}

func TestEscapeKeepsBuffer(t *testing.T) {
	c := newController()
	typeString(c, "p")
	c.Tab()
	if got := c.Escape(); got != Dismissed {
		t.Fatalf("expected dismissed, got %v", got)
	}
	comp := c.Completion()
	if comp.Visible || len(comp.Candidates) != 0 {
		t.Fatalf("expected list discarded, got %+v", comp)
	}
	if c.Buffer() != "p" {
		t.Fatalf("expected buffer kept, got %q", c.Buffer())
	}
}

func TestTypingRecomputesCandidates(t *testing.T) {
	c := newController()
	typeString(c, "h")
	c.Tab()
	c.Insert('e')
	comp := c.Completion()
	if comp.Visible {
		t.Fatalf("expected list hidden with a single candidate")
	}
	if diff := cmp.Diff([]string{"help"}, comp.Candidates); diff != "" {
		t.Fatalf("candidates (-want +got):\n%s", diff)
	}
	c.Edit((*Editor).Backspace)
	if !c.Completion().Visible && len(c.Completion().Candidates) != 3 {
		t.Fatalf("expected candidates recomputed after backspace, got %+v", c.Completion())
	}
}

func TestHistoryNavigation(t *testing.T) {
	c := newController()
	for _, cmd := range []string{"about", "skills"} {
		typeString(c, cmd)
		if line, outcome := c.Enter(); outcome != Submitted || line != cmd {
			t.Fatalf("expected submit of %q, got %v %q", cmd, outcome, line)
		}
	}
	c.Up()
	if c.Buffer() != "skills" {
		t.Fatalf("expected skills, got %q", c.Buffer())
	}
	c.Up()
	if c.Buffer() != "about" {
		t.Fatalf("expected about, got %q", c.Buffer())
	}
	c.Up()
	if c.Buffer() != "about" {
		t.Fatalf("expected clamp at oldest, got %q", c.Buffer())
	}
	c.Down()
	if c.Buffer() != "skills" {
		t.Fatalf("expected skills, got %q", c.Buffer())
	}
	c.Down()
	if c.Buffer() != "" || c.History().Cursor() != -1 {
		t.Fatalf("expected empty buffer and not browsing, got %q cursor=%d", c.Buffer(), c.History().Cursor())
	}
	if got := c.Down(); got != Ignored {
		t.Fatalf("expected down while not browsing to be ignored, got %v", got)
	}
}

func TestHistorySkipsBlankAndRepeats(t *testing.T) {
	c := newController()
	for _, cmd := range []string{"", "  ", "about", "about", "skills", "about"} {
		c.SetBuffer(cmd)
		c.Enter()
	}
	if diff := cmp.Diff([]string{"about", "skills", "about"}, c.History().Entries()); diff != "" {
		t.Fatalf("history (-want +got):\n%s", diff)
	}
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(2)
	h.Append("a")
	h.Append("b")
	h.Append("c")
	if diff := cmp.Diff([]string{"b", "c"}, h.Entries()); diff != "" {
		t.Fatalf("history (-want +got):\n%s", diff)
	}
}

func TestResetStopsBrowsing(t *testing.T) {
	c := newController()
	c.SetBuffer("about")
	c.Enter()
	c.Up()
	c.Reset()
	if c.Buffer() != "" || c.History().Cursor() != -1 {
		t.Fatalf("expected reset state")
	}
}
