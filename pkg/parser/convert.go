package parser

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/foliage/pkg/node"
)

// Tree-sitter field names used by the Ruby grammar.
const (
	fieldLeft        = "left"
	fieldRight       = "right"
	fieldOperator    = "operator"
	fieldOperand     = "operand"
	fieldCondition   = "condition"
	fieldConsequence = "consequence"
	fieldAlternative = "alternative"
	fieldBody        = "body"
	fieldValue       = "value"
	fieldReceiver    = "receiver"
	fieldMethod      = "method"
	fieldArguments   = "arguments"
	fieldBlock       = "block"
)

// compoundAssignments maps op-assign operators to the binary method they desugar to.
var compoundAssignments = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%", "**=": "**",
}

// converter maps tree-sitter Ruby nodes onto the node vocabulary.
type converter struct {
	source []byte
	file   string
}

func (conv *converter) program(root sitter.Node) (*node.Node, error) {
	stmts, err := conv.statements(root)
	if err != nil {
		return nil, err
	}

	if len(stmts) == 0 {
		return nil, nil //nolint:nilnil // an empty program is not an error.
	}

	return node.New(node.TypeBlock, "", conv.positions(root), stmts...), nil
}

// statements converts every named child of container that is a statement.
func (conv *converter) statements(container sitter.Node) ([]*node.Node, error) {
	var stmts []*node.Node

	for idx := range container.NamedChildCount() {
		child := container.NamedChild(idx)

		switch child.Type() {
		case "comment", "empty_statement", "heredoc_body", "uninterpreted":
			continue
		case "block_body", "body_statement":
			nested, err := conv.statements(child)
			if err != nil {
				return nil, err
			}

			stmts = append(stmts, nested...)

			continue
		}

		converted, err := conv.convert(child)
		if err != nil {
			return nil, err
		}

		stmts = append(stmts, converted)
	}

	return stmts, nil
}

// body converts a statement container into a single node: nil when empty,
// the statement itself when alone, a block otherwise.
func (conv *converter) body(container sitter.Node) (*node.Node, error) {
	if container.IsNull() {
		return nil, nil //nolint:nilnil // absent body.
	}

	stmts, err := conv.statements(container)
	if err != nil {
		return nil, err
	}

	return sequence(stmts, conv.positions(container)), nil
}

func sequence(stmts []*node.Node, pos *node.Positions) *node.Node {
	switch len(stmts) {
	case 0:
		return nil
	case 1:
		return stmts[0]
	default:
		return node.New(node.TypeBlock, "", pos, stmts...)
	}
}

//nolint:gocyclo,cyclop // one case per grammar node kind.
func (conv *converter) convert(tsNode sitter.Node) (*node.Node, error) {
	pos := conv.positions(tsNode)

	switch tsNode.Type() {
	case "integer":
		return node.New(node.TypeLit, strings.ReplaceAll(conv.text(tsNode), "_", ""), pos), nil
	case "float":
		return node.New(node.TypeLit, strings.ReplaceAll(conv.text(tsNode), "_", ""), pos), nil
	case "string":
		return conv.str(tsNode, pos)
	case "simple_symbol":
		return node.New(node.TypeSym, conv.text(tsNode), pos), nil
	case "true":
		return node.New(node.TypeTrue, "", pos), nil
	case "false":
		return node.New(node.TypeFalse, "", pos), nil
	case "nil":
		return node.New(node.TypeNil, "", pos), nil
	case "self":
		return node.New(node.TypeSelf, "", pos), nil
	case "identifier":
		return node.New(node.TypeLVar, conv.text(tsNode), pos), nil
	case "constant":
		return node.New(node.TypeConst, conv.text(tsNode), pos), nil
	case "assignment":
		return conv.assignment(tsNode, pos)
	case "operator_assignment":
		return conv.operatorAssignment(tsNode, pos)
	case "binary":
		return conv.binary(tsNode, pos)
	case "unary":
		return conv.unary(tsNode, pos)
	case "parenthesized_statements":
		return conv.parenthesized(tsNode, pos)
	case "if", "elsif", "conditional":
		return conv.conditional(tsNode, pos, false)
	case "unless":
		return conv.conditional(tsNode, pos, true)
	case "if_modifier":
		return conv.modifier(tsNode, pos, node.TypeIf, false)
	case "unless_modifier":
		return conv.modifier(tsNode, pos, node.TypeIf, true)
	case "while_modifier":
		return conv.modifier(tsNode, pos, node.TypeWhile, false)
	case "until_modifier":
		return conv.modifier(tsNode, pos, node.TypeUntil, false)
	case "while":
		return conv.loop(tsNode, pos, node.TypeWhile)
	case "until":
		return conv.loop(tsNode, pos, node.TypeUntil)
	case "case":
		return conv.caseStatement(tsNode, pos)
	case "array":
		return conv.array(tsNode, pos)
	case "call", "method_call":
		return conv.call(tsNode, pos)
	case "element_reference":
		return conv.elementReference(tsNode, pos)
	case "break", "next", "return":
		return conv.jump(tsNode, pos)
	default:
		return nil, conv.unsupported(tsNode)
	}
}

func (conv *converter) str(tsNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	var buf strings.Builder

	for idx := range tsNode.NamedChildCount() {
		part := tsNode.NamedChild(idx)

		switch part.Type() {
		case "string_content":
			buf.WriteString(conv.text(part))
		case "escape_sequence":
			buf.WriteString(unescape(conv.text(part)))
		default:
			return nil, conv.unsupported(part)
		}
	}

	return node.New(node.TypeStr, buf.String(), pos), nil
}

func unescape(seq string) string {
	switch seq {
	case `\n`:
		return "\n"
	case `\t`:
		return "\t"
	case `\\`:
		return `\`
	case `\"`:
		return `"`
	case `\'`:
		return `'`
	default:
		return strings.TrimPrefix(seq, `\`)
	}
}

func (conv *converter) assignment(tsNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	left := tsNode.ChildByFieldName(fieldLeft)
	if left.Type() != "identifier" {
		return nil, conv.unsupported(left)
	}

	right, err := conv.convert(tsNode.ChildByFieldName(fieldRight))
	if err != nil {
		return nil, err
	}

	return node.New(node.TypeLAsgn, conv.text(left), pos, right), nil
}

// operatorAssignment desugars "x op= y" the way ruby_parser does:
// arithmetic operators become "x = x op y", "||=" and "&&=" become
// "x = (x or y)" and "x = (x and y)".
func (conv *converter) operatorAssignment(tsNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	left := tsNode.ChildByFieldName(fieldLeft)
	if left.Type() != "identifier" {
		return nil, conv.unsupported(left)
	}

	right, err := conv.convert(tsNode.ChildByFieldName(fieldRight))
	if err != nil {
		return nil, err
	}

	name := conv.text(left)
	current := node.New(node.TypeLVar, name, conv.positions(left))
	operator := tsNode.ChildByFieldName(fieldOperator).Type()

	var value *node.Node

	switch operator {
	case "||=":
		value = node.New(node.TypeOr, "", pos.Copy(), current, right)
	case "&&=":
		value = node.New(node.TypeAnd, "", pos.Copy(), current, right)
	default:
		method, ok := compoundAssignments[operator]
		if !ok {
			return nil, conv.unsupported(tsNode)
		}

		value = node.New(node.TypeCall, method, pos.Copy(), current, right)
	}

	return node.New(node.TypeLAsgn, name, pos, value), nil
}

func (conv *converter) binary(tsNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	left, err := conv.convert(tsNode.ChildByFieldName(fieldLeft))
	if err != nil {
		return nil, err
	}

	right, err := conv.convert(tsNode.ChildByFieldName(fieldRight))
	if err != nil {
		return nil, err
	}

	operator := tsNode.ChildByFieldName(fieldOperator).Type()

	switch operator {
	case "and", "&&":
		return node.New(node.TypeAnd, "", pos, left, right), nil
	case "or", "||":
		return node.New(node.TypeOr, "", pos, left, right), nil
	default:
		return node.New(node.TypeCall, operator, pos, left, right), nil
	}
}

func (conv *converter) unary(tsNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	operandNode := tsNode.ChildByFieldName(fieldOperand)

	operand, err := conv.convert(operandNode)
	if err != nil {
		return nil, err
	}

	switch tsNode.ChildByFieldName(fieldOperator).Type() {
	case "!", "not":
		return node.New(node.TypeNot, "", pos, operand), nil
	case "-":
		if operand.Type == node.TypeLit && !strings.HasPrefix(operand.Token, "-") {
			operand.Token = "-" + operand.Token
			operand.Pos = pos

			return operand, nil
		}

		return node.New(node.TypeCall, "-@", pos, operand), nil
	case "+":
		return operand, nil
	default:
		return nil, conv.unsupported(tsNode)
	}
}

func (conv *converter) parenthesized(tsNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	stmts, err := conv.statements(tsNode)
	if err != nil {
		return nil, err
	}

	if len(stmts) == 0 {
		return node.New(node.TypeNil, "", pos), nil
	}

	return sequence(stmts, pos), nil
}

// conditional converts if/elsif/unless/ternary nodes to (if cond then else).
// unless swaps the branches, as ruby_parser does.
func (conv *converter) conditional(tsNode sitter.Node, pos *node.Positions, negate bool) (*node.Node, error) {
	cond, err := conv.convert(tsNode.ChildByFieldName(fieldCondition))
	if err != nil {
		return nil, err
	}

	thenBranch, err := conv.branch(tsNode.ChildByFieldName(fieldConsequence))
	if err != nil {
		return nil, err
	}

	elseBranch, err := conv.branch(tsNode.ChildByFieldName(fieldAlternative))
	if err != nil {
		return nil, err
	}

	if negate {
		thenBranch, elseBranch = elseBranch, thenBranch
	}

	return node.New(node.TypeIf, "", pos, cond, thenBranch, elseBranch), nil
}

// branch converts a consequence/alternative slot. Statement containers
// (then, else) collapse into a sequence, nested elsif or ternary arms
// convert as expressions.
func (conv *converter) branch(tsNode sitter.Node) (*node.Node, error) {
	if tsNode.IsNull() {
		return nil, nil //nolint:nilnil // absent branch.
	}

	switch tsNode.Type() {
	case "then", "else", "do", "block_body", "body_statement":
		return conv.body(tsNode)
	default:
		return conv.convert(tsNode)
	}
}

func (conv *converter) modifier(tsNode sitter.Node, pos *node.Positions, nodeType node.Type, negate bool) (*node.Node, error) {
	cond, err := conv.convert(tsNode.ChildByFieldName(fieldCondition))
	if err != nil {
		return nil, err
	}

	body, err := conv.convert(tsNode.ChildByFieldName(fieldBody))
	if err != nil {
		return nil, err
	}

	if nodeType != node.TypeIf {
		return node.New(nodeType, "", pos, cond, body), nil
	}

	if negate {
		return node.New(node.TypeIf, "", pos, cond, nil, body), nil
	}

	return node.New(node.TypeIf, "", pos, cond, body, nil), nil
}

func (conv *converter) loop(tsNode sitter.Node, pos *node.Positions, nodeType node.Type) (*node.Node, error) {
	cond, err := conv.convert(tsNode.ChildByFieldName(fieldCondition))
	if err != nil {
		return nil, err
	}

	body, err := conv.body(tsNode.ChildByFieldName(fieldBody))
	if err != nil {
		return nil, err
	}

	return node.New(nodeType, "", pos, cond, body), nil
}

// caseStatement converts to (case operand (when (array v...) body)... else).
// The else slot is always present and nil when there is no else clause.
func (conv *converter) caseStatement(tsNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	valueNode := tsNode.ChildByFieldName(fieldValue)
	if valueNode.IsNull() {
		return nil, fmt.Errorf("%w: case without operand at %s:%d", ErrUnsupported, conv.file, pos.Line)
	}

	operand, err := conv.convert(valueNode)
	if err != nil {
		return nil, err
	}

	caseNode := node.New(node.TypeCase, "", pos, operand)

	var elseBranch *node.Node

	for idx := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(idx)

		switch child.Type() {
		case "when":
			whenNode, whenErr := conv.when(child)
			if whenErr != nil {
				return nil, whenErr
			}

			caseNode.AddChild(whenNode)
		case "else":
			elseBranch, err = conv.body(child)
			if err != nil {
				return nil, err
			}
		}
	}

	caseNode.AddChild(elseBranch)

	return caseNode, nil
}

func (conv *converter) when(tsNode sitter.Node) (*node.Node, error) {
	pos := conv.positions(tsNode)
	values := node.New(node.TypeArray, "", pos.Copy())

	var body *node.Node

	for idx := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(idx)

		switch child.Type() {
		case "pattern":
			if child.NamedChildCount() != 1 {
				return nil, conv.unsupported(child)
			}

			value, err := conv.convert(child.NamedChild(0))
			if err != nil {
				return nil, err
			}

			values.AddChild(value)
		case "then":
			converted, err := conv.body(child)
			if err != nil {
				return nil, err
			}

			body = converted
		case "comment":
			continue
		default:
			return nil, conv.unsupported(child)
		}
	}

	return node.New(node.TypeWhen, "", pos, values, body), nil
}

func (conv *converter) array(tsNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	arrayNode := node.New(node.TypeArray, "", pos)

	for idx := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(idx)
		if child.Type() == "comment" {
			continue
		}

		element, err := conv.convert(child)
		if err != nil {
			return nil, err
		}

		arrayNode.AddChild(element)
	}

	return arrayNode, nil
}

// call converts method calls: (call name receiver args...), wrapped in
// (iter call (args params...) body) when a block is attached.
func (conv *converter) call(tsNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	methodNode := tsNode.ChildByFieldName(fieldMethod)

	var (
		callNode *node.Node
		err      error
	)

	// Older grammars wrap a receiver call in method_call(method: call, arguments, block).
	if methodNode.Type() == "call" {
		callNode, err = conv.convert(methodNode)
		if err != nil {
			return nil, err
		}

		callNode.Pos = pos
	} else {
		callNode, err = conv.plainCall(tsNode, methodNode, pos)
		if err != nil {
			return nil, err
		}
	}

	if argsNode := tsNode.ChildByFieldName(fieldArguments); !argsNode.IsNull() {
		args, argsErr := conv.arguments(argsNode)
		if argsErr != nil {
			return nil, argsErr
		}

		callNode.Children = append(callNode.Children, args...)
	}

	blockNode := tsNode.ChildByFieldName(fieldBlock)
	if blockNode.IsNull() {
		return callNode, nil
	}

	return conv.iter(callNode, blockNode, pos)
}

func (conv *converter) plainCall(tsNode, methodNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	if methodNode.IsNull() {
		return nil, conv.unsupported(tsNode)
	}

	var receiver *node.Node

	if receiverNode := tsNode.ChildByFieldName(fieldReceiver); !receiverNode.IsNull() {
		converted, err := conv.convert(receiverNode)
		if err != nil {
			return nil, err
		}

		receiver = converted
	}

	return node.New(node.TypeCall, conv.text(methodNode), pos, receiver), nil
}

func (conv *converter) arguments(argsNode sitter.Node) ([]*node.Node, error) {
	var args []*node.Node

	for idx := range argsNode.NamedChildCount() {
		child := argsNode.NamedChild(idx)
		if child.Type() == "comment" {
			continue
		}

		arg, err := conv.convert(child)
		if err != nil {
			return nil, err
		}

		args = append(args, arg)
	}

	return args, nil
}

func (conv *converter) iter(callNode *node.Node, blockNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	params := node.New(node.TypeArgs, "", conv.positions(blockNode))

	var stmts []*node.Node

	for idx := range blockNode.NamedChildCount() {
		child := blockNode.NamedChild(idx)

		switch child.Type() {
		case "block_parameters":
			for paramIdx := range child.NamedChildCount() {
				param := child.NamedChild(paramIdx)
				if param.Type() != "identifier" {
					return nil, conv.unsupported(param)
				}

				params.AddChild(node.New(node.TypeLVar, conv.text(param), conv.positions(param)))
			}
		case "block_body", "body_statement":
			nested, err := conv.statements(child)
			if err != nil {
				return nil, err
			}

			stmts = append(stmts, nested...)
		case "comment":
			continue
		default:
			converted, err := conv.convert(child)
			if err != nil {
				return nil, err
			}

			stmts = append(stmts, converted)
		}
	}

	return node.New(node.TypeIter, "", pos, callNode, params, sequence(stmts, conv.positions(blockNode))), nil
}

func (conv *converter) elementReference(tsNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	receiver, err := conv.convert(tsNode.ChildByFieldName("object"))
	if err != nil {
		return nil, err
	}

	callNode := node.New(node.TypeCall, "[]", pos, receiver)

	for idx := range tsNode.NamedChildCount() {
		if idx == 0 {
			continue
		}

		arg, argErr := conv.convert(tsNode.NamedChild(idx))
		if argErr != nil {
			return nil, argErr
		}

		callNode.AddChild(arg)
	}

	return callNode, nil
}

func (conv *converter) jump(tsNode sitter.Node, pos *node.Positions) (*node.Node, error) {
	jumpNode := node.New(node.Type(tsNode.Type()), "", pos)

	if tsNode.NamedChildCount() == 0 {
		return jumpNode, nil
	}

	args, err := conv.arguments(tsNode.NamedChild(0))
	if err != nil {
		return nil, err
	}

	switch len(args) {
	case 0:
	case 1:
		jumpNode.AddChild(args[0])
	default:
		jumpNode.AddChild(node.New(node.TypeArray, "", pos.Copy(), args...))
	}

	return jumpNode, nil
}

func (conv *converter) positions(tsNode sitter.Node) *node.Positions {
	start := tsNode.StartPoint()
	end := tsNode.EndPoint()

	return node.NewPositions(conv.file, start.Row+1, start.Column+1, end.Row+1)
}

func (conv *converter) text(tsNode sitter.Node) string {
	start := tsNode.StartByte()
	end := tsNode.EndByte()

	if end > uint(len(conv.source)) || start > end {
		return ""
	}

	return string(conv.source[start:end])
}

func (conv *converter) unsupported(tsNode sitter.Node) error {
	if tsNode.IsNull() {
		return fmt.Errorf("%w: missing node in %s", ErrUnsupported, conv.file)
	}

	return fmt.Errorf("%w: %s at %s:%s", ErrUnsupported, tsNode.Type(), conv.file,
		strconv.FormatUint(uint64(tsNode.StartPoint().Row+1), 10))
}
