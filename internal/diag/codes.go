package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexUnknownChar  Code = 1001
	LexBadNumber    Code = 1002
	LexUnterminated Code = 1003

	// Syntactic
	SynUnexpectedToken  Code = 2001
	SynExpectIdentifier Code = 2002
	SynExpectSemicolon  Code = 2003
	SynUnclosedDelim    Code = 2004
	SynBadFold          Code = 2005
	SynBadTypeParam     Code = 2006

	// Template engine
	TplUnknownName       Code = 3001
	TplArityMismatch     Code = 3002
	TplArgKindMismatch   Code = 3003
	TplConstraintFailed  Code = 3004
	TplSubstFailed       Code = 3005
	TplCycleDetected     Code = 3006
	TplDepthExceeded     Code = 3007
	TplEmptyFold         Code = 3008
	TplPackSizeUnknown   Code = 3009
	TplIncompleteType    Code = 3010
	TplNoViableCandidate Code = 3011
)

func (c Code) String() string {
	switch {
	case c == UnknownCode:
		return "VSP0000"
	case c >= 1000 && c < 2000:
		return fmt.Sprintf("LEX%04d", uint16(c)-1000)
	case c >= 2000 && c < 3000:
		return fmt.Sprintf("SYN%04d", uint16(c)-2000)
	case c >= 3000 && c < 4000:
		return fmt.Sprintf("TPL%04d", uint16(c)-3000)
	}
	return fmt.Sprintf("VSP%04d", uint16(c))
}
