package token

import (
	"vesper/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsLiteral reports whether the token is a numeric or boolean literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	switch t.Kind {
	case KwType, KwAlias, KwConcept, KwFn, KwConst, KwMut, KwVolatile, KwLet,
		KwReturn, KwIf, KwElse, KwWhere, KwRequires, KwSizeof, KwCast,
		KwTrue, KwFalse:
		return true
	default:
		return false
	}
}
