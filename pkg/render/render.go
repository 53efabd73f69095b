// Package render turns syntax trees back into Ruby source text.
//
// Output follows Ruby2Ruby conventions: binary operator calls and boolean
// connectives are parenthesized, literals print as written, and compound
// statements print on multiple lines.
package render

import (
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/foliage/pkg/node"
)

// HookFunction is the callee name used when a hook node is rendered.
const HookFunction = "__branch_hook"

const indentUnit = "  "

// binaryOperators are method names rendered infix.
var binaryOperators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"<=>": true, "===": true, "=~": true, "<<": true, ">>": true,
	"&": true, "|": true, "^": true,
}

// IsBinaryOperator reports whether a call with this method name prints infix.
func IsBinaryOperator(name string) bool {
	return binaryOperators[name]
}

// Source renders n as Ruby source. A nil node renders as the empty string.
func Source(n *node.Node) string {
	if n == nil {
		return ""
	}

	switch n.Type {
	case node.TypeBlock:
		return joinStatements(n.Children, "\n")
	case node.TypeLit, node.TypeSym, node.TypeLVar, node.TypeConst:
		return n.Token
	case node.TypeStr:
		return strconv.Quote(n.Token)
	case node.TypeTrue, node.TypeFalse, node.TypeNil, node.TypeSelf:
		return string(n.Type)
	case node.TypeLAsgn:
		return n.Token + " = " + Source(n.Child(0))
	case node.TypeCall:
		return renderCall(n)
	case node.TypeIter:
		return renderIter(n)
	case node.TypeArgs:
		return joinTokens(n.Children)
	case node.TypeArray:
		return "[" + joinExpressions(n.Children) + "]"
	case node.TypeAnd:
		return "(" + Source(n.Child(0)) + " and " + Source(n.Child(1)) + ")"
	case node.TypeOr:
		return "(" + Source(n.Child(0)) + " or " + Source(n.Child(1)) + ")"
	case node.TypeNot:
		return "(not " + Source(n.Child(0)) + ")"
	case node.TypeIf:
		return renderIf(n)
	case node.TypeWhile, node.TypeUntil:
		return string(n.Type) + " " + Source(n.Child(0)) + " do\n" + indent(Source(n.Child(1))) + "end"
	case node.TypeCase:
		return renderCase(n)
	case node.TypeWhen:
		return renderWhen(n)
	case node.TypeBreak, node.TypeNext, node.TypeReturn:
		return renderJump(n)
	case node.TypeHook:
		return HookFunction + "(" + n.Token + ", " + Source(n.Child(0)) + ")"
	default:
		return n.String()
	}
}

func renderCall(n *node.Node) string {
	receiver := n.Child(0)

	var args []*node.Node
	if len(n.Children) > 1 {
		args = n.Children[1:]
	}

	switch {
	case receiver != nil && len(args) == 1 && binaryOperators[n.Token]:
		return "(" + Source(receiver) + " " + n.Token + " " + Source(args[0]) + ")"
	case receiver != nil && len(args) == 0 && n.Token == "-@":
		return "-" + Source(receiver)
	case receiver != nil && n.Token == "[]":
		return Source(receiver) + "[" + joinExpressions(args) + "]"
	}

	var buf strings.Builder

	if receiver != nil {
		buf.WriteString(Source(receiver))
		buf.WriteByte('.')
	}

	buf.WriteString(n.Token)

	if len(args) > 0 {
		buf.WriteByte('(')
		buf.WriteString(joinExpressions(args))
		buf.WriteByte(')')
	}

	return buf.String()
}

func renderIter(n *node.Node) string {
	var buf strings.Builder

	buf.WriteString(Source(n.Child(0)))
	buf.WriteString(" {")

	if params := n.Child(1); params != nil && len(params.Children) > 0 {
		buf.WriteString(" |")
		buf.WriteString(joinTokens(params.Children))
		buf.WriteByte('|')
	}

	if body := n.Child(2); body != nil {
		buf.WriteByte(' ')
		buf.WriteString(strings.ReplaceAll(Source(body), "\n", "; "))
	}

	buf.WriteString(" }")

	return buf.String()
}

func renderIf(n *node.Node) string {
	cond := Source(n.Child(0))
	thenBranch := n.Child(1)
	elseBranch := n.Child(2)

	switch {
	case thenBranch == nil && elseBranch != nil:
		return "unless " + cond + " then\n" + indent(Source(elseBranch)) + "end"
	case elseBranch == nil:
		return "if " + cond + " then\n" + indent(Source(thenBranch)) + "end"
	default:
		return "if " + cond + " then\n" + indent(Source(thenBranch)) +
			"else\n" + indent(Source(elseBranch)) + "end"
	}
}

func renderCase(n *node.Node) string {
	var buf strings.Builder

	buf.WriteString("case " + Source(n.Child(0)) + "\n")

	last := len(n.Children) - 1

	for idx := 1; idx < last; idx++ {
		buf.WriteString(renderWhen(n.Children[idx]))
	}

	if last >= 1 && n.Children[last] != nil {
		buf.WriteString("else\n")
		buf.WriteString(indent(Source(n.Children[last])))
	}

	buf.WriteString("end")

	return buf.String()
}

func renderWhen(n *node.Node) string {
	var values []*node.Node

	if candidates := n.Child(0); candidates != nil {
		values = candidates.Children
	}

	return "when " + joinExpressions(values) + " then\n" + indent(Source(n.Child(1)))
}

func renderJump(n *node.Node) string {
	if value := n.Child(0); value != nil {
		return string(n.Type) + " " + Source(value)
	}

	return string(n.Type)
}

func joinStatements(nodes []*node.Node, sep string) string {
	parts := make([]string, 0, len(nodes))

	for _, child := range nodes {
		if child != nil {
			parts = append(parts, Source(child))
		}
	}

	return strings.Join(parts, sep)
}

func joinExpressions(nodes []*node.Node) string {
	parts := make([]string, 0, len(nodes))

	for _, child := range nodes {
		parts = append(parts, Source(child))
	}

	return strings.Join(parts, ", ")
}

func joinTokens(nodes []*node.Node) string {
	parts := make([]string, 0, len(nodes))

	for _, child := range nodes {
		if child != nil {
			parts = append(parts, child.Token)
		}
	}

	return strings.Join(parts, ", ")
}

// indent prefixes every line of text and terminates it with a newline.
// Empty text yields the empty string.
func indent(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")

	var buf strings.Builder

	for _, line := range lines {
		buf.WriteString(indentUnit)
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	return buf.String()
}
