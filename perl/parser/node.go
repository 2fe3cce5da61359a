package parser

import (
	"strconv"
	"strings"
)

type NodeKind int

const (
	KindProgram NodeKind = iota
	KindBlock
	KindBinary

	// Leaf literals
	KindNumber
	KindString
	KindIdentifier

	// Variables and declarations
	KindVariable
	KindArrayLength
	KindVariableDeclaration
	KindDeref

	// Expressions
	KindUnary
	KindPostfix
	KindTernary
	KindList
	KindArrayLiteral
	KindHashLiteral
	KindIndex
	KindFunctionCall
	KindMethodCall
	KindCodeCall
	KindAnonSub
	KindQuoteWords
	KindRegex
	KindSubstitution
	KindTransliteration
	KindReadline
	KindHeredoc

	// Statements
	KindPackage
	KindUse
	KindNo
	KindSubroutine
	KindIf
	KindElsif
	KindElse
	KindWhile
	KindFor
	KindForeach
	KindReturn
	KindLoopControl
	KindStatementModifier
	KindEmpty
	KindDataSection
)

var nodeKindNames = map[NodeKind]string{
	KindProgram:             "Program",
	KindBlock:               "Block",
	KindBinary:              "Binary",
	KindNumber:              "Number",
	KindString:              "String",
	KindIdentifier:          "Identifier",
	KindVariable:            "Variable",
	KindArrayLength:         "ArrayLength",
	KindVariableDeclaration: "VariableDeclaration",
	KindDeref:               "Deref",
	KindUnary:               "Unary",
	KindPostfix:             "Postfix",
	KindTernary:             "Ternary",
	KindList:                "List",
	KindArrayLiteral:        "ArrayLiteral",
	KindHashLiteral:         "HashLiteral",
	KindIndex:               "Index",
	KindFunctionCall:        "FunctionCall",
	KindMethodCall:          "MethodCall",
	KindCodeCall:            "CodeCall",
	KindAnonSub:             "AnonSub",
	KindQuoteWords:          "QuoteWords",
	KindRegex:               "Regex",
	KindSubstitution:        "Substitution",
	KindTransliteration:     "Transliteration",
	KindReadline:            "Readline",
	KindHeredoc:             "Heredoc",
	KindPackage:             "Package",
	KindUse:                 "Use",
	KindNo:                  "No",
	KindSubroutine:          "Subroutine",
	KindIf:                  "If",
	KindElsif:               "Elsif",
	KindElse:                "Else",
	KindWhile:               "While",
	KindFor:                 "For",
	KindForeach:             "Foreach",
	KindReturn:              "Return",
	KindLoopControl:         "LoopControl",
	KindStatementModifier:   "StatementModifier",
	KindEmpty:               "Empty",
	KindDataSection:         "DataSection",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsContainer reports whether nodes of this kind hold an ordered sequence of
// statements.
func (k NodeKind) IsContainer() bool {
	return k == KindProgram || k == KindBlock
}

// IsToken reports whether nodes of this kind are single tokens whose Value
// is their verbatim source text.
func (k NodeKind) IsToken() bool {
	return k == KindNumber || k == KindString || k == KindIdentifier
}

// Location is a half-open byte range [Start, End) in the source.
type Location struct {
	Start int
	End   int
}

func (l Location) Len() int {
	return l.End - l.Start
}

// Contains reports whether offset lies inside the range.
func (l Location) Contains(offset int) bool {
	return l.Start <= offset && offset < l.End
}

// Overlaps reports whether l and [start, end) share at least one byte.
func (l Location) Overlaps(start, end int) bool {
	return l.Start < end && l.End > start
}

func (l Location) String() string {
	return strconv.Itoa(l.Start) + ".." + strconv.Itoa(l.End)
}

// Node is a node of the Perl syntax tree.
//
// Program and Block hold their statements in Children. Binary holds exactly
// two children, left and right, with the operator in Value; assignment is a
// Binary node too. Number, String and Identifier hold their verbatim source
// text in Value. Other kinds use Value for a name or operator, and Children
// for their operands in source order.
//
// Trees handed out by the parser or by an incremental document are shared
// and must be treated as immutable.
type Node struct {
	Kind     NodeKind
	Location Location
	Value    string
	Children []*Node
}

func (n *Node) AddChild(child *Node) {
	if child != nil {
		n.Children = append(n.Children, child)
	}
}

// Left returns the left operand of a Binary node.
func (n *Node) Left() *Node {
	if n.Kind != KindBinary || len(n.Children) != 2 {
		return nil
	}
	return n.Children[0]
}

// Right returns the right operand of a Binary node.
func (n *Node) Right() *Node {
	if n.Kind != KindBinary || len(n.Children) != 2 {
		return nil
	}
	return n.Children[1]
}

func (n *Node) FirstChildOfKind(kind NodeKind) *Node {
	for _, child := range n.Children {
		if child.Kind == kind {
			return child
		}
	}
	return nil
}

func (n *Node) ChildrenOfKind(kind NodeKind) []*Node {
	var result []*Node
	for _, child := range n.Children {
		if child.Kind == kind {
			result = append(result, child)
		}
	}
	return result
}

// Walk calls fn for n and every descendant in pre-order. Returning false
// from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	count := 1
	for _, child := range n.Children {
		count += child.Count()
	}
	return count
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	return n.Shifted(0)
}

// Shifted returns a deep copy of n with every location in the subtree
// moved by delta bytes.
func (n *Node) Shifted(delta int) *Node {
	c := &Node{
		Kind:     n.Kind,
		Location: Location{Start: n.Location.Start + delta, End: n.Location.End + delta},
		Value:    n.Value,
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Shifted(delta)
		}
	}
	return c
}

func (n *Node) String() string {
	var b strings.Builder
	n.writeIndent(&b, 0, false)
	return b.String()
}

func (n *Node) StringWithPositions() string {
	var b strings.Builder
	n.writeIndent(&b, 0, true)
	return b.String()
}

func (n *Node) writeIndent(b *strings.Builder, indent int, showPositions bool) {
	for i := 0; i < indent; i++ {
		b.WriteString("  ")
	}
	b.WriteString(n.Kind.String())
	if showPositions {
		b.WriteString(" [")
		b.WriteString(n.Location.String())
		b.WriteString("]")
	}
	if n.Value != "" {
		b.WriteString(" ")
		b.WriteString(strconv.Quote(n.Value))
	}
	b.WriteString("\n")
	for _, child := range n.Children {
		child.writeIndent(b, indent+1, showPositions)
	}
}
