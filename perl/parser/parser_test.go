package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	root, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return root
}

func TestParseProgram(t *testing.T) {
	src := "my $x = 42;\nmy $y = 100;\nprint $x + $y;"
	root := mustParse(t, src)

	want := strings.Join([]string{
		`Program`,
		`  Binary "="`,
		`    VariableDeclaration "my"`,
		`      Variable "$x"`,
		`    Number "42"`,
		`  Binary "="`,
		`    VariableDeclaration "my"`,
		`      Variable "$y"`,
		`    Number "100"`,
		`  FunctionCall "print"`,
		`    Binary "+"`,
		`      Variable "$x"`,
		`      Variable "$y"`,
		``,
	}, "\n")
	if diff := cmp.Diff(want, root.String()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	if root.Location != (Location{Start: 0, End: len(src)}) {
		t.Errorf("program location = %v, want 0..%d", root.Location, len(src))
	}
	first := root.Children[0]
	if first.Location != (Location{Start: 0, End: 10}) {
		t.Errorf("first statement location = %v, want 0..10", first.Location)
	}
	if num := first.Right(); num.Location != (Location{Start: 8, End: 10}) {
		t.Errorf("number location = %v, want 8..10", num.Location)
	}
	if got := root.Count(); got != 13 {
		t.Errorf("Count() = %d, want 13", got)
	}
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		input    string
		kind     NodeKind
		value    string
		children int
	}{
		{"package Foo;", KindPackage, "Foo", 0},
		{"package Foo { 1 }", KindPackage, "Foo", 1},
		{"use strict;", KindUse, "strict", 0},
		{"use v5.36;", KindUse, "v5.36", 0},
		{"use 5.010;", KindUse, "5.010", 0},
		{"use POSIX qw(floor ceil);", KindUse, "POSIX", 1},
		{"no warnings 'once';", KindNo, "warnings", 1},
		{"sub foo { return 1; }", KindSubroutine, "foo", 1},
		{"BEGIN { 1 }", KindSubroutine, "BEGIN", 1},
		{"if ($x) { 1 } elsif ($y) { 2 } else { 3 }", KindIf, "if", 4},
		{"unless ($x) { 1 }", KindIf, "unless", 2},
		{"while ($x) { last; }", KindWhile, "while", 2},
		{"until ($done) { }", KindWhile, "until", 2},
		{"for (my $i = 0; $i < 10; $i++) { }", KindFor, "for", 4},
		{"for (;;) { last; }", KindFor, "for", 4},
		{"foreach my $x (@list) { print $x; }", KindForeach, "foreach", 3},
		{"for (@list) { }", KindForeach, "for", 2},
		{"print 'hi' if $x;", KindStatementModifier, "if", 2},
		{"$i++ while $i < 10;", KindStatementModifier, "while", 2},
		{"{ 1; }", KindBlock, "", 1},
		{"__END__\nfree text", KindDataSection, "__END__", 0},
		{"return;", KindReturn, "", 0},
		{"return 1, 2;", KindReturn, "", 1},
		{"LINE: while (1) { next LINE; }", KindWhile, "while", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			root := mustParse(t, tt.input)
			if len(root.Children) != 1 {
				t.Fatalf("got %d statements, want 1:\n%s", len(root.Children), root)
			}
			stmt := root.Children[0]
			if stmt.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", stmt.Kind, tt.kind)
			}
			if stmt.Value != tt.value {
				t.Errorf("value = %q, want %q", stmt.Value, tt.value)
			}
			if len(stmt.Children) != tt.children {
				t.Errorf("got %d children, want %d:\n%s", len(stmt.Children), tt.children, stmt)
			}
		})
	}
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"1 + 2 * 3;", []string{
			`Binary "+"`,
			`  Number "1"`,
			`  Binary "*"`,
			`    Number "2"`,
			`    Number "3"`,
		}},
		{"$a || $b && $c;", []string{
			`Binary "||"`,
			`  Variable "$a"`,
			`  Binary "&&"`,
			`    Variable "$b"`,
			`    Variable "$c"`,
		}},
		{"-2 ** 2;", []string{
			`Unary "-"`,
			`  Binary "**"`,
			`    Number "2"`,
			`    Number "2"`,
		}},
		{"$x = $y = 1;", []string{
			`Binary "="`,
			`  Variable "$x"`,
			`  Binary "="`,
			`    Variable "$y"`,
			`    Number "1"`,
		}},
		{"ref $x eq 'HASH';", []string{
			`Binary "eq"`,
			`  FunctionCall "ref"`,
			`    Variable "$x"`,
			`  String "'HASH'"`,
		}},
		{"$x ? 1 : 0;", []string{
			`Ternary`,
			`  Variable "$x"`,
			`  Number "1"`,
			`  Number "0"`,
		}},
		{"$h{key};", []string{
			`Index "{"`,
			`  Variable "$h"`,
			`  Identifier "key"`,
		}},
		{"$$ref[0];", []string{
			`Index "["`,
			`  Variable "$$ref"`,
			`  Number "0"`,
		}},
		{"$obj->method(1);", []string{
			`MethodCall "method"`,
			`  Variable "$obj"`,
			`  List`,
			`    Number "1"`,
		}},
		{"Foo::Bar->new;", []string{
			`MethodCall "new"`,
			`  Identifier "Foo::Bar"`,
		}},
		{"$r->{a}[0];", []string{
			`Index "["`,
			`  Index "{"`,
			`    Variable "$r"`,
			`    Identifier "a"`,
			`  Number "0"`,
		}},
		{"open my $fh, '<', $f or die;", []string{
			`Binary "or"`,
			`  FunctionCall "open"`,
			`    VariableDeclaration "my"`,
			`      Variable "$fh"`,
			`    String "'<'"`,
			`    Variable "$f"`,
			`  FunctionCall "die"`,
		}},
		{"map { $_ * 2 } @list;", []string{
			`FunctionCall "map"`,
			`  Block`,
			`    Binary "*"`,
			`      Variable "$_"`,
			`      Number "2"`,
			`  Variable "@list"`,
		}},
		{"my %h = (a => 1, b => 2);", []string{
			`Binary "="`,
			`  VariableDeclaration "my"`,
			`    Variable "%h"`,
			`  List`,
			`    Identifier "a"`,
			`    Number "1"`,
			`    Identifier "b"`,
			`    Number "2"`,
		}},
		{"print STDERR 'x';", []string{
			`FunctionCall "print"`,
			`  Identifier "STDERR"`,
			`  String "'x'"`,
		}},
		{"$x =~ s/a/b/g;", []string{
			`Binary "=~"`,
			`  Variable "$x"`,
			`  Substitution "s/a/b/g"`,
		}},
		{"@{$ref};", []string{
			`Deref "@"`,
			`  Variable "$ref"`,
		}},
		{"$x++;", []string{
			`Postfix "++"`,
			`  Variable "$x"`,
		}},
		{"!$x;", []string{
			`Unary "!"`,
			`  Variable "$x"`,
		}},
		{"-e $file;", []string{
			`Unary "-e"`,
			`  Variable "$file"`,
		}},
		{"'a' x 3;", []string{
			`Binary "x"`,
			`  String "'a'"`,
			`  Number "3"`,
		}},
		{"$s x= 2;", []string{
			`Binary "x="`,
			`  Variable "$s"`,
			`  Number "2"`,
		}},
		{"[1, 2];", []string{
			`ArrayLiteral`,
			`  Number "1"`,
			`  Number "2"`,
		}},
		{"my $f = sub { 1 };", []string{
			`Binary "="`,
			`  VariableDeclaration "my"`,
			`    Variable "$f"`,
			`  AnonSub`,
			`    Block`,
			`      Number "1"`,
		}},
		{"not $x and $y;", []string{
			`Binary "and"`,
			`  Unary "not"`,
			`    Variable "$x"`,
			`  Variable "$y"`,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			root := mustParse(t, tt.input)
			if len(root.Children) != 1 {
				t.Fatalf("got %d statements, want 1:\n%s", len(root.Children), root)
			}
			want := strings.Join(tt.want, "\n") + "\n"
			if diff := cmp.Diff(want, root.Children[0].String()); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

const counterModule = `package My::Counter;
use strict;
use warnings;

# A simple counter.
sub new {
    my ($class, %args) = @_;
    my $self = bless { count => $args{start} // 0 }, $class;
    return $self;
}

sub increment {
    my $self = shift;
    $self->{count}++;
    return $self->{count};
}

sub report {
    my ($self, @names) = @_;
    foreach my $name (sort @names) {
        printf "%s: %d\n", $name, $self->{count};
    }
    print "done\n" if @names > 0;
}

1;
`

func checkContainment(t *testing.T, n *Node) {
	t.Helper()
	if n.Location.Start > n.Location.End {
		t.Errorf("%v has inverted range %v", n.Kind, n.Location)
	}
	for _, child := range n.Children {
		if child.Location.Start < n.Location.Start || child.Location.End > n.Location.End {
			t.Errorf("%v %v escapes parent %v %v", child.Kind, child.Location, n.Kind, n.Location)
		}
		checkContainment(t, child)
	}
}

func TestParseModule(t *testing.T) {
	root := mustParse(t, counterModule)

	var kinds []NodeKind
	for _, stmt := range root.Children {
		kinds = append(kinds, stmt.Kind)
	}
	want := []NodeKind{KindPackage, KindUse, KindUse, KindSubroutine, KindSubroutine, KindSubroutine, KindNumber}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("statement kinds mismatch (-want +got):\n%s", diff)
	}
	checkContainment(t, root)

	subs := root.ChildrenOfKind(KindSubroutine)
	var names []string
	for _, sub := range subs {
		names = append(names, sub.Value)
	}
	if diff := cmp.Diff([]string{"new", "increment", "report"}, names); diff != "" {
		t.Errorf("sub names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTrivia(t *testing.T) {
	src := "print <<\"EOT\";\nHello\nEOT\n=pod\n\ndoc\n\n=cut\nmy $z = 1;\n"
	root := mustParse(t, src)
	if len(root.Children) != 2 {
		t.Fatalf("got %d statements, want 2:\n%s", len(root.Children), root)
	}
	heredoc := root.Children[0].FirstChildOfKind(KindHeredoc)
	if heredoc == nil || heredoc.Value != `<<"EOT"` {
		t.Errorf("heredoc = %v, want <<\"EOT\"", heredoc)
	}
	if root.Children[1].Kind != KindBinary {
		t.Errorf("second statement kind = %v, want Binary", root.Children[1].Kind)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input  string
		offset int
	}{
		{"my $x = ;", 8},
		{"if ($x) { 1", 11},
		{`"unterminated`, 0},
		{"1 2;", 2},
		{"$x->;", 4},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			root, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded:\n%s", tt.input, root)
			}
			if root != nil {
				t.Errorf("Parse(%q) returned a tree alongside the error", tt.input)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error %T is not a *ParseError", err)
			}
			if perr.Offset != tt.offset {
				t.Errorf("offset = %d, want %d (%v)", perr.Offset, tt.offset, err)
			}
		})
	}
}

func TestParseMaxDepth(t *testing.T) {
	src := strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50) + ";"
	if _, err := New(WithMaxDepth(20)).Parse(src); err == nil {
		t.Error("expected nesting error with a small depth limit")
	}
	if _, err := New().Parse(src); err != nil {
		t.Errorf("default parser: %v", err)
	}
}

func TestParserReuse(t *testing.T) {
	p := New()
	if _, err := p.Parse("my $x = ;"); err == nil {
		t.Fatal("expected error")
	}
	root, err := p.Parse("my $x = 1;")
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if len(root.Children) != 1 {
		t.Errorf("got %d statements, want 1", len(root.Children))
	}
}
