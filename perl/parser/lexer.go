package parser

import "strings"

// Lexer splits Perl source into tokens. Perl's grammar is not context free
// at the lexical level ("/" may start a regex or divide, "%" may be a hash
// sigil or modulo), so the lexer tracks the previous significant token to
// decide whether a term or an operator is expected.
type Lexer struct {
	input []byte
	pos   int

	prev     TokenKind
	prevPrev TokenKind
	// a newline has been skipped since prev
	newline bool

	// heredoc terminators waiting for the end of the current line
	pendingHeredocs []heredocMarker
}

type heredocMarker struct {
	terminator string
	indented   bool
}

func NewLexer(input []byte) *Lexer {
	return &Lexer{
		input:    input,
		prev:     TokenSemicolon,
		prevPrev: TokenSemicolon,
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

// NextToken returns the next token including trivia.
func (l *Lexer) NextToken() Token {
	tok := l.next()
	switch tok.Kind {
	case TokenWhitespace, TokenComment, TokenPod:
		if strings.IndexByte(tok.Literal, '\n') >= 0 {
			l.newline = true
		}
	default:
		l.prevPrev = l.prev
		l.prev = tok.Kind
		l.newline = false
	}
	return tok
}

func (l *Lexer) next() Token {
	start := l.pos
	if l.pos >= len(l.input) {
		return Token{Kind: TokenEOF, Start: start, End: start}
	}

	ch := l.peek()

	if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' {
		return l.scanWhitespace(start)
	}
	if ch == '#' {
		for l.peek() != 0 && l.peek() != '\n' {
			l.pos++
		}
		return l.token(TokenComment, start)
	}
	if ch == '=' && l.atLineStart() && isIdentStart(l.peekN(1)) {
		return l.scanPod(start)
	}
	if isIdentStart(ch) {
		return l.scanWord(start)
	}
	if isDigit(ch) {
		return l.scanNumber(start)
	}

	if l.prev == TokenArrow && (ch == '$' || ch == '@' || ch == '%') {
		// postfix dereference: ->@*, ->%*, ->$*, ->$#*
		if l.peekN(1) == '*' {
			l.pos += 2
			return l.token(TokenVariable, start)
		}
		if ch == '$' && l.peekN(1) == '#' && l.peekN(2) == '*' {
			l.pos += 3
			return l.token(TokenVariable, start)
		}
	}

	switch ch {
	case '"', '`':
		return l.scanQuoted(start, TokenInterpString, ch)
	case '\'':
		return l.scanQuoted(start, TokenString, ch)
	case '$':
		return l.scanScalar(start)
	case '@':
		if tok, ok := l.scanSigiled(start); ok {
			return tok
		}
	case '%', '&', '*':
		if l.termExpected() {
			if tok, ok := l.scanSigiled(start); ok {
				return tok
			}
		}
	case '/':
		if l.termExpected() {
			return l.scanDelimitedOp(start, TokenRegex, '/', 1)
		}
	case '<':
		if l.termExpected() {
			if tok, ok := l.scanAngle(start); ok {
				return tok
			}
		}
	}

	return l.scanOperator(start)
}

func (l *Lexer) token(kind TokenKind, start int) Token {
	return Token{
		Kind:    kind,
		Start:   start,
		End:     l.pos,
		Literal: string(l.input[start:l.pos]),
	}
}

func (l *Lexer) errorToken(start int, msg string) Token {
	return Token{Kind: TokenError, Start: start, End: l.pos, Literal: msg}
}

func (l *Lexer) atLineStart() bool {
	return l.pos == 0 || l.input[l.pos-1] == '\n'
}

// termExpected reports whether the next token starts a term rather than
// continuing an expression with an infix operator.
func (l *Lexer) termExpected() bool {
	switch l.prev {
	case TokenNumber, TokenString, TokenInterpString, TokenQuoteWords,
		TokenRegex, TokenSubstitution, TokenTransliteration, TokenVariable,
		TokenArrayLength, TokenRParen, TokenRBracket,
		TokenIncrement, TokenDecrement:
		return false
	case TokenRBrace:
		// a block closed at the end of a line is followed by a statement
		return l.newline
	case TokenIdent:
		// method names behave like terms that just ended
		return l.prevPrev != TokenArrow
	}
	return true
}

func (l *Lexer) scanWhitespace(start int) Token {
	for {
		ch := l.peek()
		if ch == '\n' {
			l.pos++
			if len(l.pendingHeredocs) > 0 {
				l.skipHeredocBodies()
			}
			continue
		}
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' {
			l.pos++
			continue
		}
		break
	}
	return l.token(TokenWhitespace, start)
}

func (l *Lexer) skipHeredocBodies() {
	markers := l.pendingHeredocs
	l.pendingHeredocs = nil
	for _, m := range markers {
		for l.pos < len(l.input) {
			lineEnd := l.pos
			for lineEnd < len(l.input) && l.input[lineEnd] != '\n' {
				lineEnd++
			}
			line := strings.TrimSuffix(string(l.input[l.pos:lineEnd]), "\r")
			if m.indented {
				line = strings.TrimLeft(line, " \t")
			}
			l.pos = lineEnd
			if l.pos < len(l.input) {
				l.pos++
			}
			if line == m.terminator {
				break
			}
		}
	}
}

func (l *Lexer) scanPod(start int) Token {
	for l.pos < len(l.input) {
		lineStart := l.pos
		for l.pos < len(l.input) && l.input[l.pos] != '\n' {
			l.pos++
		}
		line := string(l.input[lineStart:l.pos])
		if l.pos < len(l.input) {
			l.pos++
		}
		if strings.HasPrefix(line, "=cut") {
			break
		}
	}
	return l.token(TokenPod, start)
}

func (l *Lexer) scanIdentChars() {
	for {
		ch := l.peek()
		if isIdentChar(ch) {
			l.pos++
			continue
		}
		if ch == ':' && l.peekN(1) == ':' && isIdentStart(l.peekN(2)) {
			l.pos += 2
			continue
		}
		return
	}
}

func (l *Lexer) scanWord(start int) Token {
	l.scanIdentChars()
	// trailing "::" names a package, as in Foo::->new
	if l.peek() == ':' && l.peekN(1) == ':' {
		l.pos += 2
	}
	word := string(l.input[start:l.pos])

	if word == "__END__" || word == "__DATA__" {
		l.pos = len(l.input)
		return l.token(TokenData, start)
	}

	if l.prev != TokenArrow && !l.fatCommaFollows() {
		switch word {
		case "q":
			if d, ok := l.quoteDelimiter(); ok {
				return l.scanDelimitedOp(start, TokenString, d, 1)
			}
		case "qq":
			if d, ok := l.quoteDelimiter(); ok {
				return l.scanDelimitedOp(start, TokenInterpString, d, 1)
			}
		case "qw":
			if d, ok := l.quoteDelimiter(); ok {
				return l.scanDelimitedOp(start, TokenQuoteWords, d, 1)
			}
		case "m", "qr":
			if d, ok := l.quoteDelimiter(); ok {
				return l.scanDelimitedOp(start, TokenRegex, d, 1)
			}
		case "s":
			if d, ok := l.quoteDelimiter(); ok {
				return l.scanDelimitedOp(start, TokenSubstitution, d, 2)
			}
		case "tr", "y":
			if d, ok := l.quoteDelimiter(); ok {
				return l.scanDelimitedOp(start, TokenTransliteration, d, 2)
			}
		}
		if kind, ok := keywords[word]; ok {
			return l.token(kind, start)
		}
	}
	return l.token(TokenIdent, start)
}

func (l *Lexer) fatCommaFollows() bool {
	i := l.pos
	for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
		i++
	}
	return i+1 < len(l.input) && l.input[i] == '=' && l.input[i+1] == '>'
}

// quoteDelimiter checks whether a quote-like operator is followed by a
// delimiter and positions the lexer on it.
func (l *Lexer) quoteDelimiter() (byte, bool) {
	i := l.pos
	for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
		i++
	}
	if i >= len(l.input) {
		return 0, false
	}
	d := l.input[i]
	if i > l.pos {
		// after whitespace only bracketing delimiters are unambiguous
		if d != '(' && d != '[' && d != '{' && d != '<' {
			return 0, false
		}
	} else {
		switch {
		case isIdentChar(d), d == ' ', d == '\n',
			d == '=', d == ',', d == ';', d == ')', d == ']', d == '}', d == '>', d == '-':
			return 0, false
		}
	}
	l.pos = i
	return d, true
}

func closingDelimiter(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	case '<':
		return '>'
	}
	return open
}

// scanDelimitedOp scans the delimited bodies of a quote-like operator whose
// opening delimiter is at the current position, followed by trailing
// modifier letters for regex-like operators.
func (l *Lexer) scanDelimitedOp(start int, kind TokenKind, open byte, parts int) Token {
	l.pos++ // opening delimiter
	for part := 0; part < parts; part++ {
		if part > 0 {
			if open != closingDelimiter(open) {
				// bracketed: s{...}{...}, possibly separated by whitespace
				for l.peek() == ' ' || l.peek() == '\t' || l.peek() == '\n' {
					l.pos++
				}
				next := l.peek()
				if next == 0 {
					return l.errorToken(start, "unterminated quote-like operator")
				}
				open = next
				l.pos++
			}
		}
		if !l.skipDelimited(open) {
			return l.errorToken(start, "unterminated quote-like operator")
		}
	}
	switch kind {
	case TokenRegex, TokenSubstitution, TokenTransliteration:
		for isIdentChar(l.peek()) && !isDigit(l.peek()) {
			l.pos++
		}
	}
	return l.token(kind, start)
}

// skipDelimited consumes up to and including the delimiter closing open.
func (l *Lexer) skipDelimited(open byte) bool {
	closer := closingDelimiter(open)
	depth := 1
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		l.pos++
		switch {
		case ch == '\\':
			if l.pos < len(l.input) {
				l.pos++
			}
		case ch == closer && open != closer:
			depth--
			if depth == 0 {
				return true
			}
		case ch == open && open != closer:
			depth++
		case ch == closer:
			return true
		}
	}
	return false
}

func (l *Lexer) scanQuoted(start int, kind TokenKind, quote byte) Token {
	l.pos++
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		l.pos++
		if ch == '\\' {
			if l.pos < len(l.input) {
				l.pos++
			}
			continue
		}
		if ch == quote {
			return l.token(kind, start)
		}
	}
	return l.errorToken(start, "unterminated string literal")
}

func (l *Lexer) scanNumber(start int) Token {
	if l.peek() == '0' && (l.peekN(1) == 'x' || l.peekN(1) == 'X') {
		l.pos += 2
		for isHexDigit(l.peek()) || l.peek() == '_' {
			l.pos++
		}
		return l.token(TokenNumber, start)
	}
	if l.peek() == '0' && (l.peekN(1) == 'b' || l.peekN(1) == 'B') {
		l.pos += 2
		for l.peek() == '0' || l.peek() == '1' || l.peek() == '_' {
			l.pos++
		}
		return l.token(TokenNumber, start)
	}
	l.scanDigits()
	if l.peek() == '.' && isDigit(l.peekN(1)) {
		l.pos++
		l.scanDigits()
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekN(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekN(2))) {
			l.pos += 2
			l.scanDigits()
		}
	}
	return l.token(TokenNumber, start)
}

func (l *Lexer) scanDigits() {
	for isDigit(l.peek()) || (l.peek() == '_' && isDigit(l.peekN(1))) {
		l.pos++
	}
}

// scanScalar handles everything starting with '$': scalars, $#array,
// derefs such as $$ref, and punctuation variables.
func (l *Lexer) scanScalar(start int) Token {
	l.pos++
	ch := l.peek()
	switch {
	case ch == '#':
		next := l.peekN(1)
		if isIdentStart(next) {
			l.pos++
			l.scanIdentChars()
			return l.token(TokenArrayLength, start)
		}
		if next == '$' || next == '{' {
			l.pos++
			return l.token(TokenArrayLength, start)
		}
		l.pos++
		return l.token(TokenVariable, start)
	case isIdentStart(ch):
		l.scanIdentChars()
		return l.token(TokenVariable, start)
	case ch == ':' && l.peekN(1) == ':' && isIdentStart(l.peekN(2)):
		l.pos += 2
		l.scanIdentChars()
		return l.token(TokenVariable, start)
	case isDigit(ch):
		for isDigit(l.peek()) {
			l.pos++
		}
		return l.token(TokenVariable, start)
	case ch == '$':
		for l.peek() == '$' {
			l.pos++
		}
		if isIdentStart(l.peek()) {
			l.scanIdentChars()
		}
		return l.token(TokenVariable, start)
	case ch == '{':
		// ${ ... } deref or ${name}; the parser handles the block
		return l.token(TokenVariable, start)
	case ch == '^' && isIdentStart(l.peekN(1)):
		l.pos += 2
		return l.token(TokenVariable, start)
	case strings.IndexByte("!@/\\,;.&0_<>[]|\"'+-`", ch) >= 0 && ch != 0:
		l.pos++
		return l.token(TokenVariable, start)
	}
	return l.errorToken(start, "invalid variable name")
}

// scanSigiled handles @, %, & and * sigils when a term is expected.
func (l *Lexer) scanSigiled(start int) (Token, bool) {
	ch := l.peekN(1)
	switch {
	case isIdentStart(ch):
		l.pos++
		l.scanIdentChars()
	case ch == ':' && l.peekN(2) == ':' && isIdentStart(l.peekN(3)):
		l.pos += 3
		l.scanIdentChars()
	case ch == '$':
		l.pos++
		for l.peek() == '$' {
			l.pos++
		}
		if isIdentStart(l.peek()) {
			l.scanIdentChars()
		}
	case ch == '{':
		l.pos++
	case ch == '_' || (l.input[start] == '@' && (ch == '-' || ch == '+')):
		l.pos += 2
	default:
		return Token{}, false
	}
	return l.token(TokenVariable, start), true
}

// scanAngle recognizes <STDIN>, <$fh> and <> in term position.
func (l *Lexer) scanAngle(start int) (Token, bool) {
	i := l.pos + 1
	if i < len(l.input) && l.input[i] == '$' {
		i++
	}
	for i < len(l.input) && (isIdentChar(l.input[i]) || l.input[i] == ':') {
		i++
	}
	if i < len(l.input) && l.input[i] == '>' {
		l.pos = i + 1
		return l.token(TokenReadline, start), true
	}
	if l.peekN(1) == '<' {
		return l.scanHeredoc(start)
	}
	return Token{}, false
}

func (l *Lexer) scanHeredoc(start int) (Token, bool) {
	i := l.pos + 2
	indented := false
	if i < len(l.input) && l.input[i] == '~' {
		indented = true
		i++
	}
	if i >= len(l.input) {
		return Token{}, false
	}
	var terminator string
	switch q := l.input[i]; {
	case q == '"' || q == '\'':
		j := i + 1
		for j < len(l.input) && l.input[j] != q && l.input[j] != '\n' {
			j++
		}
		if j >= len(l.input) || l.input[j] != q {
			return Token{}, false
		}
		terminator = string(l.input[i+1 : j])
		i = j + 1
	case isIdentStart(q):
		j := i
		for j < len(l.input) && isIdentChar(l.input[j]) {
			j++
		}
		terminator = string(l.input[i:j])
		i = j
	default:
		return Token{}, false
	}
	l.pos = i
	l.pendingHeredocs = append(l.pendingHeredocs, heredocMarker{terminator: terminator, indented: indented})
	return l.token(TokenHeredoc, start), true
}

type operator struct {
	text string
	kind TokenKind
}

// operators is ordered longest first within each leading byte.
var operators = []operator{
	{"<=>", TokenSpaceship},
	{"**=", TokenAssignOp},
	{"||=", TokenAssignOp},
	{"&&=", TokenAssignOp},
	{"//=", TokenAssignOp},
	{"<<=", TokenAssignOp},
	{">>=", TokenAssignOp},
	{"...", TokenEllipsis},
	{"+=", TokenAssignOp},
	{"-=", TokenAssignOp},
	{"*=", TokenAssignOp},
	{"/=", TokenAssignOp},
	{".=", TokenAssignOp},
	{"%=", TokenAssignOp},
	{"|=", TokenAssignOp},
	{"&=", TokenAssignOp},
	{"^=", TokenAssignOp},
	{"=>", TokenFatComma},
	{"->", TokenArrow},
	{"||", TokenOrOr},
	{"&&", TokenAndAnd},
	{"//", TokenDefinedOr},
	{"=~", TokenMatch},
	{"!~", TokenNotMatch},
	{"~~", TokenSmartMatch},
	{"==", TokenEQ},
	{"!=", TokenNE},
	{"<=", TokenLE},
	{">=", TokenGE},
	{"**", TokenPower},
	{"..", TokenRange},
	{"++", TokenIncrement},
	{"--", TokenDecrement},
	{"<<", TokenShl},
	{">>", TokenShr},
	{"(", TokenLParen},
	{")", TokenRParen},
	{"{", TokenLBrace},
	{"}", TokenRBrace},
	{"[", TokenLBracket},
	{"]", TokenRBracket},
	{";", TokenSemicolon},
	{",", TokenComma},
	{"?", TokenQuestion},
	{":", TokenColon},
	{"=", TokenAssign},
	{"!", TokenNot},
	{"~", TokenTilde},
	{"\\", TokenBackslash},
	{"<", TokenLT},
	{">", TokenGT},
	{"+", TokenPlus},
	{"-", TokenMinus},
	{"*", TokenStar},
	{"/", TokenSlash},
	{"%", TokenPercent},
	{".", TokenDot},
	{"&", TokenBitAnd},
	{"|", TokenBitOr},
	{"^", TokenBitXor},
}

func (l *Lexer) scanOperator(start int) Token {
	rest := l.input[l.pos:]
	for _, op := range operators {
		if len(rest) >= len(op.text) && string(rest[:len(op.text)]) == op.text {
			l.pos += len(op.text)
			return l.token(op.kind, start)
		}
	}
	l.pos++
	return l.errorToken(start, "unexpected character "+string(rest[:1]))
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
