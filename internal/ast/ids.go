package ast

// The typed index families below all follow the same rule: 0 is the invalid
// sentinel, valid indices are 1-based into the owning arena.
type (
	ExprID    uint32
	StmtID    uint32
	TypeID    uint32
	DeclID    uint32
	ParamID   uint32
	FieldID   uint32
	PayloadID uint32
)

const (
	NoExprID    ExprID    = 0
	NoStmtID    StmtID    = 0
	NoTypeID    TypeID    = 0
	NoDeclID    DeclID    = 0
	NoParamID   ParamID   = 0
	NoFieldID   FieldID   = 0
	NoPayloadID PayloadID = 0
)

func (id ExprID) IsValid() bool  { return id != NoExprID }
func (id StmtID) IsValid() bool  { return id != NoStmtID }
func (id TypeID) IsValid() bool  { return id != NoTypeID }
func (id DeclID) IsValid() bool  { return id != NoDeclID }
func (id ParamID) IsValid() bool { return id != NoParamID }
func (id FieldID) IsValid() bool { return id != NoFieldID }
