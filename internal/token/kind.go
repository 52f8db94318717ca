// Package token defines lexical token kinds for the Vesper front end.
// Invariants:
//   - Token.Text is a slice of the original source (no copies).
//   - Token.Span matches Text exactly (Start..End).
//   - Built-in type names (int, int8, uint64, float32, ...) are identifiers;
//     they are recognized by the catalog, not the lexer.
package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	// IntLit represents an integer literal.
	IntLit

	// KwType represents the 'type' keyword.
	KwType // type
	// KwAlias represents the 'alias' keyword.
	KwAlias // alias
	// KwConcept represents the 'concept' keyword.
	KwConcept // concept
	// KwFn represents the 'fn' keyword.
	KwFn // fn
	// KwConst represents the 'const' keyword.
	KwConst // const
	// KwMut represents the 'mut' keyword.
	KwMut // mut
	// KwVolatile represents the 'volatile' keyword.
	KwVolatile // volatile
	// KwLet represents the 'let' keyword.
	KwLet // let
	// KwReturn represents the 'return' keyword.
	KwReturn // return
	// KwIf represents the 'if' keyword.
	KwIf // if
	// KwElse represents the 'else' keyword.
	KwElse // else
	// KwWhere represents the 'where' keyword.
	KwWhere // where
	// KwRequires represents the 'requires' keyword.
	KwRequires // requires
	// KwSizeof represents the 'sizeof' keyword.
	KwSizeof // sizeof
	// KwCast represents the 'cast' keyword.
	KwCast // cast
	// KwTrue represents the 'true' keyword.
	KwTrue // true
	// KwFalse represents the 'false' keyword.
	KwFalse // false

	// Operators and punctuation.
	Plus      // +
	Minus     // -
	Star      // *
	Slash     // /
	Percent   // %
	Bang      // !
	Amp       // &
	Pipe      // |
	Caret     // ^
	AndAnd    // &&
	OrOr      // ||
	EqEq      // ==
	BangEq    // !=
	Lt        // <
	LtEq      // <=
	Gt        // >
	GtEq      // >=
	Assign    // =
	Arrow     // ->
	Colon     // :
	ColonColon // ::
	Semicolon // ;
	Comma     // ,
	Dot       // .
	Ellipsis  // ...
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	LBracket  // [
	RBracket  // ]
)

var kindNames = map[Kind]string{
	Invalid:    "Invalid",
	EOF:        "EOF",
	Ident:      "Ident",
	IntLit:     "IntLit",
	KwType:     "type",
	KwAlias:    "alias",
	KwConcept:  "concept",
	KwFn:       "fn",
	KwConst:    "const",
	KwMut:      "mut",
	KwVolatile: "volatile",
	KwLet:      "let",
	KwReturn:   "return",
	KwIf:       "if",
	KwElse:     "else",
	KwWhere:    "where",
	KwRequires: "requires",
	KwSizeof:   "sizeof",
	KwCast:     "cast",
	KwTrue:     "true",
	KwFalse:    "false",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	Slash:      "/",
	Percent:    "%",
	Bang:       "!",
	Amp:        "&",
	Pipe:       "|",
	Caret:      "^",
	AndAnd:     "&&",
	OrOr:       "||",
	EqEq:       "==",
	BangEq:     "!=",
	Lt:         "<",
	LtEq:       "<=",
	Gt:         ">",
	GtEq:       ">=",
	Assign:     "=",
	Arrow:      "->",
	Colon:      ":",
	ColonColon: "::",
	Semicolon:  ";",
	Comma:      ",",
	Dot:        ".",
	Ellipsis:   "...",
	LParen:     "(",
	RParen:     ")",
	LBrace:     "{",
	RBrace:     "}",
	LBracket:   "[",
	RBracket:   "]",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Kind(?)"
}
