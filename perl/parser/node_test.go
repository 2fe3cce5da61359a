package parser

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNodeKindString(t *testing.T) {
	tests := []struct {
		kind NodeKind
		want string
	}{
		{KindProgram, "Program"},
		{KindBlock, "Block"},
		{KindBinary, "Binary"},
		{KindNumber, "Number"},
		{KindString, "String"},
		{KindIdentifier, "Identifier"},
		{KindVariableDeclaration, "VariableDeclaration"},
		{KindStatementModifier, "StatementModifier"},
		{KindDataSection, "DataSection"},
		{NodeKind(9999), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("NodeKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
			}
		})
	}
}

func TestNodeKindNamesComplete(t *testing.T) {
	for k := KindProgram; k <= KindDataSection; k++ {
		if k.String() == "Unknown" {
			t.Errorf("NodeKind(%d) has no name", k)
		}
	}
}

func TestNodeAddChild(t *testing.T) {
	parent := &Node{Kind: KindBlock}
	parent.AddChild(&Node{Kind: KindNumber})
	parent.AddChild(&Node{Kind: KindString})
	parent.AddChild(nil)

	if len(parent.Children) != 2 {
		t.Errorf("got %d children, want 2", len(parent.Children))
	}
	if got := parent.FirstChildOfKind(KindString); got == nil || got.Kind != KindString {
		t.Errorf("FirstChildOfKind(String) = %v", got)
	}
	if got := parent.FirstChildOfKind(KindBinary); got != nil {
		t.Errorf("FirstChildOfKind(Binary) = %v, want nil", got)
	}
}

func TestNodeShifted(t *testing.T) {
	root := mustParse(t, "my $x = 42;")
	stmt := root.Children[0]
	shifted := stmt.Shifted(5)

	if shifted == stmt {
		t.Fatal("Shifted returned the receiver")
	}
	if shifted.Location != (Location{Start: 5, End: 15}) {
		t.Errorf("shifted location = %v, want 5..15", shifted.Location)
	}
	if got := shifted.Right().Location; got != (Location{Start: 13, End: 15}) {
		t.Errorf("shifted number location = %v, want 13..15", got)
	}
	if stmt.Location != (Location{Start: 0, End: 10}) {
		t.Errorf("original location changed to %v", stmt.Location)
	}

	clone := stmt.Clone()
	if diff := cmp.Diff(stmt.StringWithPositions(), clone.StringWithPositions()); diff != "" {
		t.Errorf("clone differs (-orig +clone):\n%s", diff)
	}
	clone.Right().Value = "43"
	if stmt.Right().Value != "42" {
		t.Error("mutating the clone changed the original")
	}
}

func TestNodeWalk(t *testing.T) {
	root := mustParse(t, "my $x = 1;\nif ($x) { print 2; }\n")

	var numbers []string
	root.Walk(func(n *Node) bool {
		if n.Kind == KindNumber {
			numbers = append(numbers, n.Value)
		}
		return true
	})
	if diff := cmp.Diff([]string{"1", "2"}, numbers); diff != "" {
		t.Errorf("numbers mismatch (-want +got):\n%s", diff)
	}

	visited := 0
	root.Walk(func(n *Node) bool {
		visited++
		return n.Kind == KindProgram
	})
	if visited != 3 {
		t.Errorf("visited %d nodes with pruning, want 3", visited)
	}
}

func TestLocation(t *testing.T) {
	loc := Location{Start: 4, End: 8}
	if loc.Len() != 4 {
		t.Errorf("Len() = %d, want 4", loc.Len())
	}
	if !loc.Contains(4) || loc.Contains(8) {
		t.Error("Contains should be half-open")
	}
	if !loc.Overlaps(7, 10) || loc.Overlaps(8, 10) || loc.Overlaps(0, 4) {
		t.Error("Overlaps mismatch")
	}
	if loc.String() != "4..8" {
		t.Errorf("String() = %q", loc.String())
	}
}

func TestNodeMarshalJSON(t *testing.T) {
	root := mustParse(t, "1;")
	data, err := json.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"kind":"Program","start":0,"end":2,"children":[{"kind":"Number","start":0,"end":1,"value":"1"}]}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
