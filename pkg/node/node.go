// Package node provides the positioned, mutable syntax tree used by the
// instrumentation pass, together with copy and replace operations.
package node

import (
	"strconv"
	"strings"
)

// DefaultFile is the file tag used when no file name is known.
const DefaultFile = "-"

// Node is a syntax tree node.
//
// Fields:
//
//	Type: node kind (e.g., "if", "call").
//	Token: terminal value for the node (literal text, variable or method name, hook id).
//	Pos: source position, attached at parse time.
//	Children: ordered child nodes. A nil entry marks an absent child.
type Node struct {
	Type     Type       `json:"type"`
	Token    string     `json:"token,omitempty"`
	Pos      *Positions `json:"pos,omitempty"`
	Children []*Node    `json:"children,omitempty"`
}

// New creates a Node with the given type, token, position and children.
func New(nodeType Type, token string, pos *Positions, children ...*Node) *Node {
	return &Node{
		Type:     nodeType,
		Token:    token,
		Pos:      pos,
		Children: children,
	}
}

// NewNil creates a nil literal positioned at pos.
func NewNil(pos *Positions) *Node {
	return New(TypeNil, "", pos.Copy())
}

// Child returns the child at idx, or nil when idx is out of range.
func (targetNode *Node) Child(idx int) *Node {
	if targetNode == nil || idx < 0 || idx >= len(targetNode.Children) {
		return nil
	}

	return targetNode.Children[idx]
}

// SetChild replaces the child at idx. It is a no-op when idx is out of range.
func (targetNode *Node) SetChild(idx int, child *Node) {
	if targetNode == nil || idx < 0 || idx >= len(targetNode.Children) {
		return
	}

	targetNode.Children[idx] = child
}

// AddChild appends a child node.
func (targetNode *Node) AddChild(child *Node) {
	targetNode.Children = append(targetNode.Children, child)
}

// ReplaceChild replaces the first occurrence of old in Children with replacement.
// Returns true if replaced.
func (targetNode *Node) ReplaceChild(old, replacement *Node) bool {
	for idx, candidate := range targetNode.Children {
		if candidate == old {
			targetNode.Children[idx] = replacement

			return true
		}
	}

	return false
}

// Replace overwrites the content of targetNode with the content of other.
// References held to targetNode now observe other's type, token, position and
// children. Children are shared with other, not copied.
func (targetNode *Node) Replace(other *Node) {
	if targetNode == nil || other == nil || targetNode == other {
		return
	}

	targetNode.Type = other.Type
	targetNode.Token = other.Token
	targetNode.Pos = other.Pos
	targetNode.Children = other.Children
}

// DeepCopy returns a structurally identical tree that shares nothing with
// targetNode. Returns nil if targetNode is nil.
func (targetNode *Node) DeepCopy() *Node {
	if targetNode == nil {
		return nil
	}

	dup := &Node{
		Type:  targetNode.Type,
		Token: targetNode.Token,
		Pos:   targetNode.Pos.Copy(),
	}

	if targetNode.Children != nil {
		dup.Children = make([]*Node, len(targetNode.Children))

		for idx, child := range targetNode.Children {
			dup.Children[idx] = child.DeepCopy()
		}
	}

	return dup
}

// Line returns the 1-based source line, or 0 when unknown.
func (targetNode *Node) Line() uint {
	if targetNode == nil || targetNode.Pos == nil {
		return 0
	}

	return targetNode.Pos.Line
}

// File returns the file tag of the node, or DefaultFile when unknown.
func (targetNode *Node) File() string {
	if targetNode == nil || targetNode.Pos == nil || targetNode.Pos.File == "" {
		return DefaultFile
	}

	return targetNode.Pos.File
}

// Is reports whether the node has one of the given types.
func (targetNode *Node) Is(nodeTypes ...Type) bool {
	if targetNode == nil {
		return false
	}

	for _, nodeType := range nodeTypes {
		if targetNode.Type == nodeType {
			return true
		}
	}

	return false
}

// Find returns all nodes in the tree (including root) for which predicate(node) is true.
// Traversal is pre-order. Returns nil if targetNode is nil.
func (targetNode *Node) Find(predicate func(*Node) bool) []*Node {
	var found []*Node

	targetNode.VisitPreOrder(func(candidate *Node) {
		if predicate(candidate) {
			found = append(found, candidate)
		}
	})

	return found
}

// VisitPreOrder visits all non-nil nodes in pre-order (root, then children left-to-right).
func (targetNode *Node) VisitPreOrder(fn func(*Node)) {
	if targetNode == nil {
		return
	}

	stack := []*Node{targetNode}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fn(current)

		for idx := len(current.Children) - 1; idx >= 0; idx-- {
			if child := current.Children[idx]; child != nil {
				stack = append(stack, child)
			}
		}
	}
}

// String returns the s-expression form of the tree, e.g. "(if (lvar x) (lit 1) nil)".
// Absent children print as "nil".
func (targetNode *Node) String() string {
	var buf strings.Builder

	writeSexp(&buf, targetNode)

	return buf.String()
}

func writeSexp(buf *strings.Builder, targetNode *Node) {
	if targetNode == nil {
		buf.WriteString("nil")

		return
	}

	buf.WriteByte('(')
	buf.WriteString(string(targetNode.Type))

	if targetNode.Token != "" {
		buf.WriteByte(' ')
		buf.WriteString(formatToken(targetNode))
	}

	for _, child := range targetNode.Children {
		buf.WriteByte(' ')
		writeSexp(buf, child)
	}

	buf.WriteByte(')')
}

func formatToken(targetNode *Node) string {
	if targetNode.Type == TypeStr {
		return strconv.Quote(targetNode.Token)
	}

	return targetNode.Token
}
