// Package parser provides a fail-fast parser for a practical subset of Perl 5.
//
// # Overview
//
// Parse turns a complete source text into a tree of Nodes, or returns a
// *ParseError describing the first syntax error:
//
//	root, err := parser.Parse("my $x = 42;\nprint $x + 1;\n")
//	if err != nil {
//	    var perr *parser.ParseError
//	    errors.As(err, &perr) // perr.Offset is a byte offset
//	}
//
// # Architecture
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Source    │────▶│   Lexer     │────▶│   Parser    │
//	│  (string)   │     │  (tokens)   │     │   (Nodes)   │
//	└─────────────┘     └─────────────┘     └─────────────┘
//
// The lexer tracks the previous significant token to decide whether a term
// or an operator comes next, which is how it tells "/" (divide) from
// "/regex/" and "%" (modulo) from "%hash". Heredoc bodies and POD are
// skipped as trivia.
//
// # Tree Shape
//
// Every Node carries a half-open byte range [Start, End). A parent's range
// contains the ranges of all its children.
//
//   - Program spans the whole source; Program and Block children are the
//     statements, in order. A statement's range excludes its trailing ";".
//   - Binary holds exactly [left, right] with the operator in Value. All
//     assignment operators are Binary, so "my $x = 42" is
//     Binary("=", VariableDeclaration, Number).
//   - Number, String and Identifier hold their verbatim source text in
//     Value; a String keeps its quotes.
//   - Other kinds use Value for a name, operator or keyword and hold their
//     operands as Children in source order.
//
// # Supported Syntax
//
// package/use/no, named and anonymous subs, if/elsif/else/unless,
// while/until, C-style for, foreach, statement modifiers, my/our/local,
// function and method calls with and without parens, element access and
// slices, anonymous arrays and hashes, quote-like operators, regex match,
// substitution and transliteration, heredocs, POD and __END__/__DATA__.
package parser
