package parser

import (
	"fmt"
	"strings"
)

// ParseError describes the first syntax error found in a source text.
type ParseError struct {
	Message  string
	Expected []TokenKind
	Found    string
	Offset   int
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "syntax error at offset %d: %s", e.Offset, e.Message)
	if len(e.Expected) > 0 {
		names := make([]string, len(e.Expected))
		for i, k := range e.Expected {
			names[i] = k.String()
		}
		fmt.Fprintf(&b, " (expected %s", strings.Join(names, " or "))
		if e.Found != "" {
			fmt.Fprintf(&b, ", found %q", e.Found)
		}
		b.WriteString(")")
	} else if e.Found != "" {
		fmt.Fprintf(&b, " (found %q)", e.Found)
	}
	return b.String()
}
