package parser

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenError
	TokenWhitespace
	TokenComment
	TokenPod
	TokenData

	// Literals
	TokenNumber
	TokenString
	TokenInterpString
	TokenQuoteWords
	TokenRegex
	TokenSubstitution
	TokenTransliteration
	TokenVariable
	TokenArrayLength
	TokenReadline
	TokenHeredoc
	TokenIdent

	// Keywords
	TokenMy
	TokenOur
	TokenLocal
	TokenSub
	TokenPackage
	TokenUse
	TokenNo
	TokenIf
	TokenElsif
	TokenElse
	TokenUnless
	TokenWhile
	TokenUntil
	TokenFor
	TokenForeach
	TokenReturn
	TokenLast
	TokenNext
	TokenRedo

	// Word operators
	TokenAndWord
	TokenOrWord
	TokenNotWord
	TokenXorWord
	TokenStrEQ
	TokenStrNE
	TokenStrLT
	TokenStrGT
	TokenStrLE
	TokenStrGE
	TokenStrCmp

	// Separators
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenSemicolon
	TokenComma
	TokenFatComma
	TokenArrow
	TokenQuestion
	TokenColon

	// Operators
	TokenAssign
	TokenAssignOp
	TokenOrOr
	TokenAndAnd
	TokenDefinedOr
	TokenNot
	TokenTilde
	TokenBackslash
	TokenMatch
	TokenNotMatch
	TokenSmartMatch
	TokenEQ
	TokenNE
	TokenSpaceship
	TokenLT
	TokenGT
	TokenLE
	TokenGE
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenPower
	TokenDot
	TokenRange
	TokenEllipsis
	TokenIncrement
	TokenDecrement
	TokenShl
	TokenShr
	TokenBitAnd
	TokenBitOr
	TokenBitXor
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:             "EOF",
	TokenError:           "Error",
	TokenWhitespace:      "Whitespace",
	TokenComment:         "Comment",
	TokenPod:             "Pod",
	TokenData:            "Data",
	TokenNumber:          "Number",
	TokenString:          "String",
	TokenInterpString:    "InterpString",
	TokenQuoteWords:      "QuoteWords",
	TokenRegex:           "Regex",
	TokenSubstitution:    "Substitution",
	TokenTransliteration: "Transliteration",
	TokenVariable:        "Variable",
	TokenArrayLength:     "ArrayLength",
	TokenReadline:        "Readline",
	TokenHeredoc:         "Heredoc",
	TokenIdent:           "Ident",
	TokenMy:              "my",
	TokenOur:             "our",
	TokenLocal:           "local",
	TokenSub:             "sub",
	TokenPackage:         "package",
	TokenUse:             "use",
	TokenNo:              "no",
	TokenIf:              "if",
	TokenElsif:           "elsif",
	TokenElse:            "else",
	TokenUnless:          "unless",
	TokenWhile:           "while",
	TokenUntil:           "until",
	TokenFor:             "for",
	TokenForeach:         "foreach",
	TokenReturn:          "return",
	TokenLast:            "last",
	TokenNext:            "next",
	TokenRedo:            "redo",
	TokenAndWord:         "and",
	TokenOrWord:          "or",
	TokenNotWord:         "not",
	TokenXorWord:         "xor",
	TokenStrEQ:           "eq",
	TokenStrNE:           "ne",
	TokenStrLT:           "lt",
	TokenStrGT:           "gt",
	TokenStrLE:           "le",
	TokenStrGE:           "ge",
	TokenStrCmp:          "cmp",
	TokenLParen:          "(",
	TokenRParen:          ")",
	TokenLBrace:          "{",
	TokenRBrace:          "}",
	TokenLBracket:        "[",
	TokenRBracket:        "]",
	TokenSemicolon:       ";",
	TokenComma:           ",",
	TokenFatComma:        "=>",
	TokenArrow:           "->",
	TokenQuestion:        "?",
	TokenColon:           ":",
	TokenAssign:          "=",
	TokenAssignOp:        "AssignOp",
	TokenOrOr:            "||",
	TokenAndAnd:          "&&",
	TokenDefinedOr:       "//",
	TokenNot:             "!",
	TokenTilde:           "~",
	TokenBackslash:       "\\",
	TokenMatch:           "=~",
	TokenNotMatch:        "!~",
	TokenSmartMatch:      "~~",
	TokenEQ:              "==",
	TokenNE:              "!=",
	TokenSpaceship:       "<=>",
	TokenLT:              "<",
	TokenGT:              ">",
	TokenLE:              "<=",
	TokenGE:              ">=",
	TokenPlus:            "+",
	TokenMinus:           "-",
	TokenStar:            "*",
	TokenSlash:           "/",
	TokenPercent:         "%",
	TokenPower:           "**",
	TokenDot:             ".",
	TokenRange:           "..",
	TokenEllipsis:        "...",
	TokenIncrement:       "++",
	TokenDecrement:       "--",
	TokenShl:             "<<",
	TokenShr:             ">>",
	TokenBitAnd:          "&",
	TokenBitOr:           "|",
	TokenBitXor:          "^",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

var keywords = map[string]TokenKind{
	"my":      TokenMy,
	"our":     TokenOur,
	"local":   TokenLocal,
	"sub":     TokenSub,
	"package": TokenPackage,
	"use":     TokenUse,
	"no":      TokenNo,
	"if":      TokenIf,
	"elsif":   TokenElsif,
	"else":    TokenElse,
	"unless":  TokenUnless,
	"while":   TokenWhile,
	"until":   TokenUntil,
	"for":     TokenFor,
	"foreach": TokenForeach,
	"return":  TokenReturn,
	"last":    TokenLast,
	"next":    TokenNext,
	"redo":    TokenRedo,
	"and":     TokenAndWord,
	"or":      TokenOrWord,
	"not":     TokenNotWord,
	"xor":     TokenXorWord,
	"eq":      TokenStrEQ,
	"ne":      TokenStrNE,
	"lt":      TokenStrLT,
	"gt":      TokenStrGT,
	"le":      TokenStrLE,
	"ge":      TokenStrGE,
	"cmp":     TokenStrCmp,
}

// Token is a lexical token. Start and End are byte offsets into the
// source, End exclusive.
type Token struct {
	Kind    TokenKind
	Start   int
	End     int
	Literal string
}

// IsKeyword reports whether the token is a reserved word. Reserved words
// still auto-quote before "=>" and inside hash subscripts.
func (t Token) IsKeyword() bool {
	return t.Kind >= TokenMy && t.Kind <= TokenStrCmp
}
