package parser

import "strings"

type Option func(*Parser)

// WithMaxDepth limits how deeply statements and expressions may nest
// before parsing fails. Zero disables the limit.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

const defaultMaxDepth = 1000

// Parser turns Perl source into a tree of Nodes. It stops at the first
// syntax error. A Parser may be reused but is not safe for concurrent use.
type Parser struct {
	maxDepth int

	src    string
	tokens []Token
	pos    int
	depth  int
}

func New(opts ...Option) *Parser {
	p := &Parser{maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses a complete source text with default options.
func Parse(src string) (*Node, error) {
	return New().Parse(src)
}

// bailout carries the first syntax error up to Parse.
type bailout struct {
	err *ParseError
}

func (p *Parser) Parse(src string) (root *Node, err error) {
	p.src = src
	p.tokens = p.tokens[:0]
	p.pos = 0
	p.depth = 0
	if perr := p.tokenize(); perr != nil {
		return nil, perr
	}

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			root, err = nil, b.err
		}
	}()
	return p.parseProgram(), nil
}

func (p *Parser) tokenize() *ParseError {
	lexer := NewLexer([]byte(p.src))
	for {
		tok := lexer.NextToken()
		switch tok.Kind {
		case TokenWhitespace, TokenComment, TokenPod:
			continue
		case TokenError:
			return &ParseError{
				Message: tok.Literal,
				Found:   p.src[tok.Start:tok.End],
				Offset:  tok.Start,
			}
		}
		p.tokens = append(p.tokens, tok)
		if tok.Kind == TokenEOF {
			return nil
		}
	}
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekN(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kinds ...TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind TokenKind) Token {
	if !p.check(kind) {
		p.fail("expected "+kind.String(), kind)
	}
	return p.advance()
}

// lastEnd is the end offset of the most recently consumed token.
func (p *Parser) lastEnd() int {
	if p.pos == 0 {
		return 0
	}
	return p.tokens[p.pos-1].End
}

func (p *Parser) fail(msg string, expected ...TokenKind) {
	tok := p.peek()
	found := tok.Literal
	if tok.Kind == TokenEOF {
		found = "end of input"
	}
	panic(bailout{&ParseError{
		Message:  msg,
		Expected: expected,
		Found:    found,
		Offset:   tok.Start,
	}})
}

func (p *Parser) enter() {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		p.fail("nesting too deep")
	}
}

func (p *Parser) leave() {
	p.depth--
}

func leaf(kind NodeKind, tok Token) *Node {
	return &Node{
		Kind:     kind,
		Location: Location{Start: tok.Start, End: tok.End},
		Value:    tok.Literal,
	}
}

func binary(op string, left, right *Node) *Node {
	return &Node{
		Kind:     KindBinary,
		Location: Location{Start: left.Location.Start, End: right.Location.End},
		Value:    op,
		Children: []*Node{left, right},
	}
}

func unary(op Token, operand *Node) *Node {
	return &Node{
		Kind:     KindUnary,
		Location: Location{Start: op.Start, End: operand.Location.End},
		Value:    op.Literal,
		Children: []*Node{operand},
	}
}

func flatten(n *Node) []*Node {
	if n.Kind == KindList {
		return n.Children
	}
	return []*Node{n}
}

// Statements

func (p *Parser) parseProgram() *Node {
	node := &Node{Kind: KindProgram, Location: Location{Start: 0, End: len(p.src)}}
	for !p.check(TokenEOF) {
		node.AddChild(p.parseStatement())
	}
	return node
}

func (p *Parser) parseBlock() *Node {
	open := p.expect(TokenLBrace)
	node := &Node{Kind: KindBlock, Location: Location{Start: open.Start}}
	for !p.check(TokenRBrace) {
		if p.check(TokenEOF) {
			p.fail("unterminated block", TokenRBrace)
		}
		node.AddChild(p.parseStatement())
	}
	node.Location.End = p.advance().End
	return node
}

var specialBlocks = map[string]bool{
	"BEGIN":     true,
	"END":       true,
	"INIT":      true,
	"CHECK":     true,
	"UNITCHECK": true,
}

// parseStatement returns nil for an empty statement.
func (p *Parser) parseStatement() *Node {
	p.enter()
	defer p.leave()

	tok := p.peek()
	switch tok.Kind {
	case TokenSemicolon:
		p.advance()
		return nil
	case TokenLBrace:
		return p.parseBlock()
	case TokenData:
		p.advance()
		marker := "__END__"
		if strings.HasPrefix(tok.Literal, "__DATA__") {
			marker = "__DATA__"
		}
		return &Node{Kind: KindDataSection, Location: Location{Start: tok.Start, End: tok.End}, Value: marker}
	case TokenPackage:
		return p.parsePackage()
	case TokenUse, TokenNo:
		return p.parseUse()
	case TokenSub:
		if p.peekN(1).Kind == TokenIdent {
			return p.parseSubroutine()
		}
	case TokenIf, TokenUnless:
		return p.parseIf()
	case TokenWhile, TokenUntil:
		return p.parseWhile()
	case TokenFor, TokenForeach:
		return p.parseFor()
	case TokenIdent:
		if specialBlocks[tok.Literal] && p.peekN(1).Kind == TokenLBrace {
			p.advance()
			body := p.parseBlock()
			return &Node{
				Kind:     KindSubroutine,
				Location: Location{Start: tok.Start, End: body.Location.End},
				Value:    tok.Literal,
				Children: []*Node{body},
			}
		}
		if p.isLabel() {
			p.advance()
			p.advance()
			return p.parseStatement()
		}
	}
	return p.parseSimpleStatement()
}

// isLabel reports whether the statement starts with "LABEL:" in front of a
// loop or block.
func (p *Parser) isLabel() bool {
	if p.peekN(1).Kind != TokenColon {
		return false
	}
	switch p.peekN(2).Kind {
	case TokenWhile, TokenUntil, TokenFor, TokenForeach, TokenLBrace:
		return true
	}
	return false
}

func isModifier(kind TokenKind) bool {
	switch kind {
	case TokenIf, TokenUnless, TokenWhile, TokenUntil, TokenFor, TokenForeach:
		return true
	}
	return false
}

func (p *Parser) parseSimpleStatement() *Node {
	expr := p.parseExpression()
	if mod := p.peek(); isModifier(mod.Kind) {
		p.advance()
		cond := p.parseExpression()
		expr = &Node{
			Kind:     KindStatementModifier,
			Location: Location{Start: expr.Location.Start, End: cond.Location.End},
			Value:    mod.Literal,
			Children: []*Node{expr, cond},
		}
	}
	p.endStatement()
	return expr
}

func (p *Parser) endStatement() {
	switch p.peek().Kind {
	case TokenSemicolon:
		p.advance()
	case TokenRBrace, TokenEOF, TokenData:
	default:
		p.fail("expected ; after statement", TokenSemicolon)
	}
}

func (p *Parser) parsePackage() *Node {
	kw := p.advance()
	name := p.expect(TokenIdent)
	node := &Node{
		Kind:     KindPackage,
		Location: Location{Start: kw.Start, End: name.End},
		Value:    strings.TrimSuffix(name.Literal, "::"),
	}
	if p.check(TokenNumber) {
		version := p.advance()
		node.AddChild(leaf(KindNumber, version))
		node.Location.End = version.End
	}
	if p.check(TokenLBrace) {
		body := p.parseBlock()
		node.AddChild(body)
		node.Location.End = body.Location.End
		return node
	}
	p.endStatement()
	return node
}

func isVersionWord(word string) bool {
	if len(word) < 2 || word[0] != 'v' {
		return false
	}
	for i := 1; i < len(word); i++ {
		if !isDigit(word[i]) {
			return false
		}
	}
	return true
}

// versionString consumes a version such as 5.010, v5.36 or v5.36.0 and
// returns its source text.
func (p *Parser) versionString() string {
	first := p.advance()
	for p.match(TokenDot, TokenNumber) && p.peek().Start == p.lastEnd() {
		p.advance()
	}
	return p.src[first.Start:p.lastEnd()]
}

func (p *Parser) parseUse() *Node {
	kw := p.advance()
	kind := KindUse
	if kw.Kind == TokenNo {
		kind = KindNo
	}
	node := &Node{Kind: kind, Location: Location{Start: kw.Start}}

	module := true
	switch tok := p.peek(); {
	case tok.Kind == TokenNumber:
		node.Value = p.versionString()
		module = false
	case tok.Kind == TokenIdent && isVersionWord(tok.Literal):
		node.Value = p.versionString()
		module = false
	case tok.Kind == TokenIdent:
		p.advance()
		node.Value = tok.Literal
	default:
		p.fail("expected module name or version", TokenIdent, TokenNumber)
	}
	node.Location.End = p.lastEnd()

	if module && p.check(TokenNumber) && !p.peekN(1).isListSeparator() {
		version := p.advance()
		node.AddChild(leaf(KindNumber, version))
		node.Location.End = version.End
	}
	if !p.match(TokenSemicolon, TokenRBrace, TokenEOF) {
		args := p.parseExpression()
		node.AddChild(args)
		node.Location.End = args.Location.End
	}
	p.endStatement()
	return node
}

func (t Token) isListSeparator() bool {
	return t.Kind == TokenComma || t.Kind == TokenFatComma
}

func (p *Parser) parseSubroutine() *Node {
	kw := p.advance()
	name := p.advance()
	node := &Node{Kind: KindSubroutine, Location: Location{Start: kw.Start}, Value: name.Literal}
	if p.check(TokenLParen) {
		node.AddChild(p.parseParenList())
	}
	body := p.parseBlock()
	node.AddChild(body)
	node.Location.End = body.Location.End
	return node
}

// parseCondition parses the parenthesized condition of a compound
// statement. An empty condition yields an Empty node.
func (p *Parser) parseCondition() *Node {
	p.expect(TokenLParen)
	if p.check(TokenRParen) {
		end := p.advance()
		return &Node{Kind: KindEmpty, Location: Location{Start: end.Start, End: end.Start}}
	}
	cond := p.parseExpression()
	p.expect(TokenRParen)
	return cond
}

func (p *Parser) parseIf() *Node {
	kw := p.advance()
	node := &Node{Kind: KindIf, Location: Location{Start: kw.Start}, Value: kw.Literal}
	node.AddChild(p.parseCondition())
	node.AddChild(p.parseBlock())

	for p.check(TokenElsif) {
		clauseKw := p.advance()
		clause := &Node{Kind: KindElsif, Location: Location{Start: clauseKw.Start}}
		clause.AddChild(p.parseCondition())
		body := p.parseBlock()
		clause.AddChild(body)
		clause.Location.End = body.Location.End
		node.AddChild(clause)
	}
	if p.check(TokenElse) {
		clauseKw := p.advance()
		body := p.parseBlock()
		node.AddChild(&Node{
			Kind:     KindElse,
			Location: Location{Start: clauseKw.Start, End: body.Location.End},
			Children: []*Node{body},
		})
	}
	node.Location.End = p.lastEnd()
	return node
}

func (p *Parser) parseWhile() *Node {
	kw := p.advance()
	node := &Node{Kind: KindWhile, Location: Location{Start: kw.Start}, Value: kw.Literal}
	node.AddChild(p.parseCondition())
	node.AddChild(p.parseBlock())
	if tok := p.peek(); tok.Kind == TokenIdent && tok.Literal == "continue" && p.peekN(1).Kind == TokenLBrace {
		p.advance()
		node.AddChild(p.parseBlock())
	}
	node.Location.End = p.lastEnd()
	return node
}

func (p *Parser) parseFor() *Node {
	kw := p.advance()

	var iter *Node
	switch tok := p.peek(); tok.Kind {
	case TokenMy, TokenOur, TokenLocal:
		p.advance()
		v := p.expect(TokenVariable)
		iter = &Node{
			Kind:     KindVariableDeclaration,
			Location: Location{Start: tok.Start, End: v.End},
			Value:    tok.Literal,
			Children: []*Node{leaf(KindVariable, v)},
		}
	case TokenVariable:
		p.advance()
		iter = leaf(KindVariable, tok)
	}

	open := p.expect(TokenLParen)
	var first *Node
	switch {
	case p.check(TokenRParen):
		end := p.advance()
		first = &Node{Kind: KindList, Location: Location{Start: open.Start, End: end.End}}
	case iter == nil && p.check(TokenSemicolon):
		return p.parseCStyleFor(kw, p.empty())
	default:
		first = p.parseExpression()
		if iter == nil && p.check(TokenSemicolon) {
			return p.parseCStyleFor(kw, first)
		}
		p.expect(TokenRParen)
	}

	node := &Node{Kind: KindForeach, Location: Location{Start: kw.Start}, Value: kw.Literal}
	node.AddChild(iter)
	node.AddChild(first)
	body := p.parseBlock()
	node.AddChild(body)
	node.Location.End = body.Location.End
	return node
}

// empty returns a zero-width Empty node at the current token.
func (p *Parser) empty() *Node {
	at := p.peek().Start
	return &Node{Kind: KindEmpty, Location: Location{Start: at, End: at}}
}

func (p *Parser) parseCStyleFor(kw Token, init *Node) *Node {
	p.expect(TokenSemicolon)
	cond := p.empty()
	if !p.check(TokenSemicolon) {
		cond = p.parseExpression()
	}
	p.expect(TokenSemicolon)
	step := p.empty()
	if !p.check(TokenRParen) {
		step = p.parseExpression()
	}
	p.expect(TokenRParen)
	body := p.parseBlock()
	return &Node{
		Kind:     KindFor,
		Location: Location{Start: kw.Start, End: body.Location.End},
		Value:    kw.Literal,
		Children: []*Node{init, cond, step, body},
	}
}

// Expressions, lowest precedence first

func (p *Parser) parseExpression() *Node {
	return p.parseLowOr()
}

func (p *Parser) parseLowOr() *Node {
	left := p.parseLowAnd()
	for p.match(TokenOrWord, TokenXorWord) {
		op := p.advance()
		left = binary(op.Literal, left, p.parseLowAnd())
	}
	return left
}

func (p *Parser) parseLowAnd() *Node {
	left := p.parseLowNot()
	for p.check(TokenAndWord) {
		op := p.advance()
		left = binary(op.Literal, left, p.parseLowNot())
	}
	return left
}

func (p *Parser) parseLowNot() *Node {
	if p.check(TokenNotWord) {
		p.enter()
		defer p.leave()
		op := p.advance()
		return unary(op, p.parseLowNot())
	}
	return p.parseCommaList()
}

// endsList reports whether the current token cannot continue a comma
// separated list.
func (p *Parser) endsList() bool {
	switch p.peek().Kind {
	case TokenEOF, TokenData, TokenSemicolon, TokenRParen, TokenRBracket, TokenRBrace, TokenColon,
		TokenIf, TokenUnless, TokenWhile, TokenUntil, TokenFor, TokenForeach,
		TokenAndWord, TokenOrWord, TokenXorWord:
		return true
	}
	return false
}

func (p *Parser) parseCommaList() *Node {
	first := p.parseAssign()
	if !p.peek().isListSeparator() {
		return first
	}
	list := &Node{Kind: KindList, Location: first.Location, Children: []*Node{first}}
	for p.peek().isListSeparator() {
		for p.peek().isListSeparator() {
			p.advance()
		}
		if p.endsList() {
			break
		}
		item := p.parseAssign()
		list.AddChild(item)
		list.Location.End = item.Location.End
	}
	return list
}

// parseListItems parses comma separated items up to, but not including,
// the closing token.
func (p *Parser) parseListItems(closer TokenKind) []*Node {
	var items []*Node
	for !p.check(closer) {
		if p.peek().isListSeparator() {
			p.advance()
			continue
		}
		items = append(items, p.parseAssign())
		if !p.peek().isListSeparator() && !p.check(closer) {
			p.fail("expected , or "+closer.String(), TokenComma, closer)
		}
	}
	return items
}

// parseParenList parses "( items )" into a List spanning the parens.
func (p *Parser) parseParenList() *Node {
	open := p.expect(TokenLParen)
	items := p.parseListItems(TokenRParen)
	end := p.advance()
	return &Node{
		Kind:     KindList,
		Location: Location{Start: open.Start, End: end.End},
		Children: items,
	}
}

func (p *Parser) assignOp() (string, bool) {
	tok := p.peek()
	switch tok.Kind {
	case TokenAssign, TokenAssignOp:
		p.advance()
		return tok.Literal, true
	case TokenIdent:
		if next := p.peekN(1); tok.Literal == "x" && next.Kind == TokenAssign && next.Start == tok.End {
			p.advance()
			p.advance()
			return "x=", true
		}
	}
	return "", false
}

func (p *Parser) parseAssign() *Node {
	left := p.parseTernary()
	if op, ok := p.assignOp(); ok {
		p.enter()
		defer p.leave()
		return binary(op, left, p.parseAssign())
	}
	return left
}

func (p *Parser) parseTernary() *Node {
	cond := p.parseRange()
	if !p.check(TokenQuestion) {
		return cond
	}
	p.enter()
	defer p.leave()
	p.advance()
	then := p.parseAssign()
	p.expect(TokenColon)
	otherwise := p.parseTernary()
	return &Node{
		Kind:     KindTernary,
		Location: Location{Start: cond.Location.Start, End: otherwise.Location.End},
		Children: []*Node{cond, then, otherwise},
	}
}

func (p *Parser) parseRange() *Node {
	left := p.parseBinary(precOr)
	if p.match(TokenRange, TokenEllipsis) {
		op := p.advance()
		return binary(op.Literal, left, p.parseBinary(precOr))
	}
	return left
}

const (
	precOr = iota + 1
	precAnd
	precBitOr
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precBind
)

func (p *Parser) binaryPrec(tok Token) int {
	switch tok.Kind {
	case TokenOrOr, TokenDefinedOr:
		return precOr
	case TokenAndAnd:
		return precAnd
	case TokenBitOr, TokenBitXor:
		return precBitOr
	case TokenBitAnd:
		return precBitAnd
	case TokenEQ, TokenNE, TokenSpaceship, TokenStrEQ, TokenStrNE, TokenStrCmp, TokenSmartMatch:
		return precEquality
	case TokenLT, TokenGT, TokenLE, TokenGE, TokenStrLT, TokenStrGT, TokenStrLE, TokenStrGE:
		return precRelational
	case TokenShl, TokenShr:
		return precShift
	case TokenPlus, TokenMinus, TokenDot:
		return precAdditive
	case TokenStar, TokenSlash, TokenPercent:
		return precMultiplicative
	case TokenMatch, TokenNotMatch:
		return precBind
	case TokenIdent:
		// the repetition operator, unless it is the start of "x="
		if next := p.peekN(1); tok.Literal == "x" && !(next.Kind == TokenAssign && next.Start == tok.End) {
			return precMultiplicative
		}
	}
	return 0
}

func (p *Parser) parseBinary(minPrec int) *Node {
	left := p.parseUnary()
	for {
		tok := p.peek()
		prec := p.binaryPrec(tok)
		if prec == 0 || prec < minPrec {
			return left
		}
		p.advance()
		left = binary(tok.Literal, left, p.parseBinary(prec+1))
	}
}

func (p *Parser) parseUnary() *Node {
	p.enter()
	defer p.leave()

	tok := p.peek()
	switch tok.Kind {
	case TokenMinus:
		if n := p.parseFileTest(); n != nil {
			return n
		}
		fallthrough
	case TokenNot, TokenTilde, TokenBackslash, TokenPlus, TokenIncrement, TokenDecrement:
		p.advance()
		return unary(tok, p.parseUnary())
	}
	return p.parsePower()
}

const fileTestLetters = "erwxoRWXOezsfdlpSbcugktTBAMC"

// parseFileTest parses file test operators such as -e $path and -d _.
func (p *Parser) parseFileTest() *Node {
	minus, letter := p.peek(), p.peekN(1)
	if letter.Kind != TokenIdent || len(letter.Literal) != 1 || letter.Start != minus.End ||
		!strings.Contains(fileTestLetters, letter.Literal) {
		return nil
	}
	if after := p.peekN(2); after.isListSeparator() || after.Kind == TokenLParen {
		return nil
	}
	p.advance()
	p.advance()
	node := &Node{
		Kind:     KindUnary,
		Location: Location{Start: minus.Start, End: letter.End},
		Value:    "-" + letter.Literal,
	}
	if p.startsTerm() {
		operand := p.parseBinary(precShift)
		node.AddChild(operand)
		node.Location.End = operand.Location.End
	}
	return node
}

func (p *Parser) parsePower() *Node {
	base := p.parsePostfix()
	if p.check(TokenPower) {
		op := p.advance()
		return binary(op.Literal, base, p.parseUnary())
	}
	return base
}

func subscriptable(n *Node) bool {
	switch n.Kind {
	case KindIndex, KindDeref, KindCodeCall:
		return true
	case KindVariable:
		return len(n.Value) > 1 && (n.Value[0] == '$' || n.Value[0] == '@')
	}
	return false
}

func (p *Parser) parsePostfix() *Node {
	node := p.parsePrimary()
	for {
		tok := p.peek()
		switch {
		case tok.Kind == TokenArrow:
			node = p.parseArrow(node)
		case (tok.Kind == TokenLBracket || tok.Kind == TokenLBrace) && subscriptable(node):
			node = p.parseSubscript(node)
		case tok.Kind == TokenIncrement || tok.Kind == TokenDecrement:
			p.advance()
			node = &Node{
				Kind:     KindPostfix,
				Location: Location{Start: node.Location.Start, End: tok.End},
				Value:    tok.Literal,
				Children: []*Node{node},
			}
		default:
			return node
		}
	}
}

// bareKey parses a bareword hash key such as the foo in $h{foo} or
// $h{-foo}. It returns nil when the subscript is an expression.
func (p *Parser) bareKey() *Node {
	tok := p.peek()
	if (tok.Kind == TokenIdent || tok.IsKeyword()) && p.peekN(1).Kind == TokenRBrace {
		p.advance()
		return &Node{Kind: KindIdentifier, Location: Location{Start: tok.Start, End: tok.End}, Value: tok.Literal}
	}
	if next := p.peekN(1); tok.Kind == TokenMinus && next.Kind == TokenIdent && next.Start == tok.End &&
		p.peekN(2).Kind == TokenRBrace {
		p.advance()
		p.advance()
		return &Node{Kind: KindIdentifier, Location: Location{Start: tok.Start, End: next.End}, Value: "-" + next.Literal}
	}
	return nil
}

func (p *Parser) parseSubscript(base *Node) *Node {
	open := p.advance()
	closer := TokenRBracket
	var key *Node
	if open.Kind == TokenLBrace {
		closer = TokenRBrace
		key = p.bareKey()
	}
	if key == nil {
		key = p.parseExpression()
	}
	end := p.expect(closer)
	return &Node{
		Kind:     KindIndex,
		Location: Location{Start: base.Location.Start, End: end.End},
		Value:    open.Literal,
		Children: []*Node{base, key},
	}
}

func (p *Parser) parseArrow(base *Node) *Node {
	p.advance()
	tok := p.peek()
	switch tok.Kind {
	case TokenLBracket, TokenLBrace:
		return p.parseSubscript(base)
	case TokenLParen:
		args := p.parseParenList()
		return &Node{
			Kind:     KindCodeCall,
			Location: Location{Start: base.Location.Start, End: args.Location.End},
			Children: []*Node{base, args},
		}
	case TokenVariable:
		if strings.HasSuffix(tok.Literal, "*") {
			p.advance()
			return &Node{
				Kind:     KindDeref,
				Location: Location{Start: base.Location.Start, End: tok.End},
				Value:    strings.TrimSuffix(tok.Literal, "*"),
				Children: []*Node{base},
			}
		}
		fallthrough
	case TokenIdent:
		p.advance()
		call := &Node{
			Kind:     KindMethodCall,
			Location: Location{Start: base.Location.Start, End: tok.End},
			Value:    tok.Literal,
			Children: []*Node{base},
		}
		if p.check(TokenLParen) {
			args := p.parseParenList()
			call.AddChild(args)
			call.Location.End = args.Location.End
		}
		return call
	}
	p.fail("expected method name or subscript after ->", TokenIdent, TokenLBracket, TokenLBrace, TokenLParen)
	return nil
}

// startsTerm reports whether the current token can begin an operand.
func (p *Parser) startsTerm() bool {
	tok := p.peek()
	switch tok.Kind {
	case TokenNumber, TokenString, TokenInterpString, TokenQuoteWords, TokenRegex,
		TokenSubstitution, TokenTransliteration, TokenVariable, TokenArrayLength,
		TokenReadline, TokenHeredoc, TokenMy, TokenOur, TokenLocal, TokenSub,
		TokenLParen, TokenLBracket, TokenLBrace, TokenBackslash, TokenNot, TokenTilde,
		TokenIncrement, TokenDecrement:
		return true
	case TokenIdent:
		return tok.Literal != "x" || p.peekN(1).Kind == TokenFatComma
	case TokenMinus, TokenPlus:
		// "foo -1" passes a negative argument, "foo - 1" subtracts
		return p.peekN(1).Start == tok.End && p.lastEnd() < tok.Start
	}
	return false
}

func (p *Parser) parsePrimary() *Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenNumber:
		p.advance()
		return leaf(KindNumber, tok)
	case TokenString, TokenInterpString:
		p.advance()
		return leaf(KindString, tok)
	case TokenQuoteWords:
		p.advance()
		return leaf(KindQuoteWords, tok)
	case TokenRegex:
		p.advance()
		return leaf(KindRegex, tok)
	case TokenSubstitution:
		p.advance()
		return leaf(KindSubstitution, tok)
	case TokenTransliteration:
		p.advance()
		return leaf(KindTransliteration, tok)
	case TokenReadline:
		p.advance()
		return leaf(KindReadline, tok)
	case TokenHeredoc:
		p.advance()
		return leaf(KindHeredoc, tok)
	case TokenVariable:
		return p.parseVariable()
	case TokenArrayLength:
		p.advance()
		if tok.Literal == "$#" {
			return p.parseDeref(tok)
		}
		return leaf(KindArrayLength, tok)
	case TokenLParen:
		return p.parseParens()
	case TokenLBracket:
		open := p.advance()
		items := p.parseListItems(TokenRBracket)
		end := p.advance()
		return &Node{Kind: KindArrayLiteral, Location: Location{Start: open.Start, End: end.End}, Children: items}
	case TokenLBrace:
		open := p.advance()
		items := p.parseListItems(TokenRBrace)
		end := p.advance()
		return &Node{Kind: KindHashLiteral, Location: Location{Start: open.Start, End: end.End}, Children: items}
	case TokenMy, TokenOur, TokenLocal:
		return p.parseDeclaration()
	case TokenSub:
		return p.parseAnonSub()
	case TokenReturn:
		p.advance()
		node := &Node{Kind: KindReturn, Location: Location{Start: tok.Start, End: tok.End}}
		if p.startsTerm() {
			value := p.parseCommaList()
			node.AddChild(value)
			node.Location.End = value.Location.End
		}
		return node
	case TokenLast, TokenNext, TokenRedo:
		p.advance()
		node := &Node{Kind: KindLoopControl, Location: Location{Start: tok.Start, End: tok.End}, Value: tok.Literal}
		if label := p.peek(); label.Kind == TokenIdent {
			p.advance()
			node.AddChild(leaf(KindIdentifier, label))
			node.Location.End = label.End
		}
		return node
	case TokenIdent:
		return p.parseBareword()
	}
	p.fail("expected expression")
	return nil
}

func (p *Parser) parseVariable() *Node {
	tok := p.advance()
	switch tok.Literal {
	case "$", "@", "%", "&", "*":
		return p.parseDeref(tok)
	}
	if tok.Literal[0] == '&' && p.check(TokenLParen) {
		args := p.parseParenList()
		return &Node{
			Kind:     KindFunctionCall,
			Location: Location{Start: tok.Start, End: args.Location.End},
			Value:    tok.Literal,
			Children: args.Children,
		}
	}
	return leaf(KindVariable, tok)
}

// parseDeref parses ${ expr }, @{ expr }, $#{ expr }, $#$ref and friends
// after the bare sigil has been consumed.
func (p *Parser) parseDeref(sigil Token) *Node {
	node := &Node{Kind: KindDeref, Location: Location{Start: sigil.Start}, Value: sigil.Literal}
	if p.check(TokenLBrace) {
		p.advance()
		inner := p.bareKey()
		if inner == nil {
			inner = p.parseExpression()
		}
		end := p.expect(TokenRBrace)
		node.AddChild(inner)
		node.Location.End = end.End
	} else {
		v := p.expect(TokenVariable)
		node.AddChild(leaf(KindVariable, v))
		node.Location.End = v.End
	}
	if sigil.Literal == "&" && p.check(TokenLParen) {
		args := p.parseParenList()
		return &Node{
			Kind:     KindCodeCall,
			Location: Location{Start: node.Location.Start, End: args.Location.End},
			Children: []*Node{node, args},
		}
	}
	return node
}

func (p *Parser) parseParens() *Node {
	open := p.advance()
	var node *Node
	if p.check(TokenRParen) {
		end := p.advance()
		node = &Node{Kind: KindList, Location: Location{Start: open.Start, End: end.End}}
	} else {
		node = p.parseExpression()
		end := p.expect(TokenRParen)
		// single tokens keep their own range so their Value matches it
		if !node.Kind.IsToken() && node.Kind != KindVariable {
			node.Location = Location{Start: open.Start, End: end.End}
		}
	}
	if p.check(TokenLBracket) {
		return p.parseSubscript(node)
	}
	return node
}

func (p *Parser) parseDeclaration() *Node {
	kw := p.advance()
	var target *Node
	switch {
	case kw.Kind == TokenLocal:
		target = p.parsePostfix()
	case p.check(TokenLParen):
		target = p.parseParenList()
	default:
		target = leaf(KindVariable, p.expect(TokenVariable))
	}
	return &Node{
		Kind:     KindVariableDeclaration,
		Location: Location{Start: kw.Start, End: target.Location.End},
		Value:    kw.Literal,
		Children: []*Node{target},
	}
}

func (p *Parser) parseAnonSub() *Node {
	kw := p.advance()
	node := &Node{Kind: KindAnonSub, Location: Location{Start: kw.Start}}
	if p.check(TokenLParen) {
		node.AddChild(p.parseParenList())
	}
	body := p.parseBlock()
	node.AddChild(body)
	node.Location.End = body.Location.End
	return node
}

// blockFunctions take a leading block argument: map { ... } @list.
var blockFunctions = map[string]bool{
	"do": true, "eval": true, "map": true, "grep": true, "sort": true,
	"try": true, "catch": true, "finally": true,
	"first": true, "any": true, "all": true, "none": true, "reduce": true,
}

// namedUnary builtins take at most one argument and bind tighter than
// comparison operators: ref $x eq 'HASH'.
var namedUnary = map[string]bool{
	"defined": true, "ref": true, "scalar": true, "lc": true, "uc": true,
	"lcfirst": true, "ucfirst": true, "length": true, "chr": true, "ord": true,
	"int": true, "abs": true, "sqrt": true, "hex": true, "oct": true, "log": true,
	"exp": true, "sin": true, "cos": true, "quotemeta": true, "fc": true,
	"exists": true, "delete": true, "each": true, "keys": true, "values": true,
	"shift": true, "pop": true, "undef": true, "rand": true, "srand": true,
	"exit": true, "chdir": true, "rmdir": true, "readline": true, "close": true,
	"caller": true, "sleep": true, "require": true, "lock": true, "umask": true,
	"localtime": true, "gmtime": true, "alarm": true, "chroot": true,
}

// listOperators are builtins that are calls even without arguments.
var listOperators = map[string]bool{
	"print": true, "printf": true, "say": true, "die": true, "warn": true,
	"join": true, "split": true, "push": true, "unshift": true, "splice": true,
	"sprintf": true, "open": true, "binmode": true, "reverse": true, "unlink": true,
	"wantarray": true, "time": true, "bless": true, "chomp": true, "chop": true,
	"chmod": true, "chown": true, "mkdir": true, "system": true, "exec": true,
	"sort": true, "map": true, "grep": true, "wait": true, "croak": true, "confess": true,
}

var printFunctions = map[string]bool{
	"print": true, "printf": true, "say": true,
}

func (p *Parser) parseBareword() *Node {
	tok := p.advance()
	name := tok.Literal
	builtin := namedUnary[name] || listOperators[name]
	call := &Node{Kind: KindFunctionCall, Location: Location{Start: tok.Start, End: tok.End}, Value: name}

	next := p.peek()
	switch {
	case next.Kind == TokenFatComma || strings.HasSuffix(name, "::"):
		return leaf(KindIdentifier, tok)
	case next.Kind == TokenLParen:
		args := p.parseParenList()
		call.Children = args.Children
		call.Location.End = args.Location.End
		return call
	case next.Kind == TokenLBrace && blockFunctions[name]:
		block := p.parseBlock()
		call.AddChild(block)
		call.Location.End = block.Location.End
		if name == "do" || name == "eval" {
			return call
		}
		if p.check(TokenComma) {
			p.advance()
		}
		if p.startsTerm() {
			p.appendArgs(call, p.parseCommaList())
		}
		return call
	case next.Kind == TokenArrow:
		if builtin {
			return call
		}
		return leaf(KindIdentifier, tok)
	}

	if printFunctions[name] {
		if fh := p.parseFilehandle(); fh != nil {
			call.AddChild(fh)
			call.Location.End = fh.Location.End
		}
	}
	switch {
	case !p.startsTerm():
		if builtin || len(call.Children) > 0 {
			return call
		}
		return leaf(KindIdentifier, tok)
	case namedUnary[name]:
		p.appendArgs(call, p.parseBinary(precShift))
	default:
		p.appendArgs(call, p.parseCommaList())
	}
	return call
}

func (p *Parser) appendArgs(call, args *Node) {
	for _, arg := range flatten(args) {
		call.AddChild(arg)
	}
	call.Location.End = args.Location.End
}

func isHandleName(name string) bool {
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if !(ch >= 'A' && ch <= 'Z') && ch != '_' && !(i > 0 && isDigit(ch)) {
			return false
		}
	}
	return name != ""
}

// parseFilehandle parses the optional handle of print STDERR "x",
// print $fh "x" and print {$fh} "x".
func (p *Parser) parseFilehandle() *Node {
	tok := p.peek()
	if tok.Kind == TokenLBrace {
		return p.parseBlock()
	}
	switch p.peekN(1).Kind {
	case TokenString, TokenInterpString, TokenVariable, TokenNumber, TokenHeredoc, TokenQuoteWords, TokenArrayLength:
	default:
		return nil
	}
	switch {
	case tok.Kind == TokenIdent && isHandleName(tok.Literal):
		p.advance()
		return leaf(KindIdentifier, tok)
	case tok.Kind == TokenVariable && len(tok.Literal) > 1 && tok.Literal[0] == '$':
		p.advance()
		return leaf(KindVariable, tok)
	}
	return nil
}
