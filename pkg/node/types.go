package node

// Type represents the kind label of a node.
type Type string

// Node type constants. The vocabulary follows ruby_parser s-expressions.
const (
	TypeBlock  Type = "block"
	TypeLit    Type = "lit"
	TypeStr    Type = "str"
	TypeSym    Type = "sym"
	TypeTrue   Type = "true"
	TypeFalse  Type = "false"
	TypeNil    Type = "nil"
	TypeSelf   Type = "self"
	TypeLVar   Type = "lvar"
	TypeLAsgn  Type = "lasgn"
	TypeConst  Type = "const"
	TypeCall   Type = "call"
	TypeIter   Type = "iter"
	TypeArgs   Type = "args"
	TypeArray  Type = "array"
	TypeIf     Type = "if"
	TypeWhile  Type = "while"
	TypeUntil  Type = "until"
	TypeCase   Type = "case"
	TypeWhen   Type = "when"
	TypeAnd    Type = "and"
	TypeOr     Type = "or"
	TypeNot    Type = "not"
	TypeBreak  Type = "break"
	TypeNext   Type = "next"
	TypeReturn Type = "return"

	// TypeHook wraps an expression with a coverage hook invocation.
	// Token holds the hook id, the single child is the wrapped expression.
	TypeHook Type = "hook"
)

// Positions holds the source position of a node.
// Line, Col and EndLine are 1-based.
type Positions struct {
	File    string `json:"file,omitempty"`
	Line    uint   `json:"line,omitempty"`
	Col     uint   `json:"col,omitempty"`
	EndLine uint   `json:"end_line,omitempty"`
}

// NewPositions creates a Positions value.
func NewPositions(file string, line, col, endLine uint) *Positions {
	return &Positions{File: file, Line: line, Col: col, EndLine: endLine}
}

// Copy returns an independent copy of pos, or nil.
func (pos *Positions) Copy() *Positions {
	if pos == nil {
		return nil
	}

	dup := *pos

	return &dup
}

// IsSideEffectFree reports whether evaluating n can neither mutate state nor
// observe anything beyond its own value.
func IsSideEffectFree(n *Node) bool {
	if n == nil {
		return true
	}

	switch n.Type {
	case TypeLit, TypeStr, TypeSym, TypeTrue, TypeFalse, TypeNil, TypeSelf, TypeLVar, TypeConst:
		return true
	default:
		return false
	}
}
