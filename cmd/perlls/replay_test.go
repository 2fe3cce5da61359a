package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunReplay(t *testing.T) {
	oldText := "my $x = 42;\nprint $x;\n"
	newText := "my $x = 43;\nprint $x + 1;\nprint 'done';\n"

	for _, batch := range []bool{false, true} {
		var out bytes.Buffer
		if err := runReplay(&out, oldText, newText, batch, 100); err != nil {
			t.Fatalf("runReplay(batch=%v) error = %v", batch, err)
		}
		if !strings.Contains(out.String(), "version ") {
			t.Errorf("runReplay(batch=%v) output missing summary:\n%s", batch, out.String())
		}
	}
}

func TestRunReplayInvalid(t *testing.T) {
	var out bytes.Buffer
	if err := runReplay(&out, "my $x = ;\n", "1;\n", false, 100); err == nil {
		t.Error("replaying from unparsable text succeeded")
	}
	if err := runReplay(&out, "1;\n", "1 +;\n", true, 100); err == nil {
		t.Error("replaying to unparsable text succeeded")
	}
}
