package token

var keywords = map[string]Kind{
	"type":     KwType,
	"alias":    KwAlias,
	"concept":  KwConcept,
	"fn":       KwFn,
	"const":    KwConst,
	"mut":      KwMut,
	"volatile": KwVolatile,
	"let":      KwLet,
	"return":   KwReturn,
	"if":       KwIf,
	"else":     KwElse,
	"where":    KwWhere,
	"requires": KwRequires,
	"sizeof":   KwSizeof,
	"cast":     KwCast,
	"true":     KwTrue,
	"false":    KwFalse,
}

// LookupKeyword maps a lexeme to its keyword kind. Matching is case-sensitive;
// lowering is the lexer's job, not this table's.
func LookupKeyword(lexeme string) (Kind, bool) {
	k, ok := keywords[lexeme]
	return k, ok
}
