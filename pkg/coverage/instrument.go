package coverage

import (
	"fmt"
	"strconv"

	"github.com/Sumatoshi-tech/foliage/pkg/node"
)

// Instrumenter rewrites trees so every branch point reports its outcome to a
// hook registered in the registry's innermost session.
type Instrumenter struct {
	registry *Registry
}

// NewInstrumenter creates an Instrumenter that registers hooks into registry.
func NewInstrumenter(registry *Registry) *Instrumenter {
	return &Instrumenter{registry: registry}
}

// Instrument rewrites tree in place and returns the tree to use at the call
// site. inCondition tells whether the value of tree itself decides a branch.
// Hook nodes are left alone, so instrumenting twice adds nothing.
func (ins *Instrumenter) Instrument(tree *node.Node, inCondition bool) (*node.Node, error) {
	if tree == nil {
		return nil, nil
	}

	switch tree.Type {
	case node.TypeIf, node.TypeWhile, node.TypeUntil:
		return ins.instrumentBranch(tree, inCondition)
	case node.TypeAnd, node.TypeOr:
		return ins.instrumentShortCircuit(tree, inCondition)
	case node.TypeCase:
		replacement, err := ins.instrumentCase(tree, inCondition)
		if err != nil {
			return nil, err
		}

		tree.Replace(replacement)

		return tree, nil
	case node.TypeHook:
		return tree, nil
	default:
		if err := ins.instrumentChildren(tree, 0, inCondition); err != nil {
			return nil, err
		}

		return tree, nil
	}
}

func (ins *Instrumenter) instrumentChildren(tree *node.Node, from int, inCondition bool) error {
	for idx := from; idx < len(tree.Children); idx++ {
		child, err := ins.Instrument(tree.Children[idx], inCondition)
		if err != nil {
			return err
		}

		tree.SetChild(idx, child)
	}

	return nil
}

func (ins *Instrumenter) instrumentBranch(tree *node.Node, inCondition bool) (*node.Node, error) {
	cond, err := ins.instrumentCondition(tree.Child(0), true)
	if err != nil {
		return nil, err
	}

	tree.SetChild(0, cond)

	if err := ins.instrumentChildren(tree, 1, inCondition); err != nil {
		return nil, err
	}

	return tree, nil
}

// instrumentShortCircuit hooks the left operand always and the right operand
// only when the whole expression is itself a branch condition.
func (ins *Instrumenter) instrumentShortCircuit(tree *node.Node, inCondition bool) (*node.Node, error) {
	left, err := ins.instrumentCondition(tree.Child(0), true)
	if err != nil {
		return nil, err
	}

	tree.SetChild(0, left)

	var right *node.Node
	if inCondition {
		right, err = ins.instrumentCondition(tree.Child(1), true)
	} else {
		right, err = ins.Instrument(tree.Child(1), false)
	}

	if err != nil {
		return nil, err
	}

	tree.SetChild(1, right)

	return tree, nil
}

func (ins *Instrumenter) instrumentCondition(subtree *node.Node, inCondition bool) (*node.Node, error) {
	if subtree == nil || subtree.Type == node.TypeHook {
		return subtree, nil
	}

	ref := subtree.DeepCopy()

	inner, err := ins.Instrument(subtree, inCondition)
	if err != nil {
		return nil, err
	}

	return ins.wrap(NewConditionHook(ref), inner)
}

// wrap registers h and returns the hook node evaluating inner through it,
// positioned at the branch point.
func (ins *Instrumenter) wrap(h *Hook, inner *node.Node) (*node.Node, error) {
	id, err := ins.registry.Register(h)
	if err != nil {
		return nil, err
	}

	return node.New(node.TypeHook, strconv.Itoa(id), h.Ref().Pos.Copy(), inner), nil
}

// instrumentCase desugars a case statement into a chain of ifs whose tests
// are hooked === calls. The no-match branch is hooked as the innermost else.
//
//nolint:funlen // one pass over the when clauses.
func (ins *Instrumenter) instrumentCase(caseNode *node.Node, inCondition bool) (*node.Node, error) {
	operand := caseNode.Child(0)
	if operand == nil || len(caseNode.Children) < 2 {
		return nil, fmt.Errorf("%w at %s:%d", ErrUnsupportedCase, caseNode.File(), caseNode.Line())
	}

	var prologue *node.Node

	subject := operand

	if !node.IsSideEffectFree(operand) {
		value, err := ins.Instrument(operand, false)
		if err != nil {
			return nil, err
		}

		tmp := ins.registry.tempName()
		prologue = node.New(node.TypeLAsgn, tmp, operand.Pos.Copy(), value)
		subject = node.New(node.TypeLVar, tmp, operand.Pos.Copy())
	}

	last := len(caseNode.Children) - 1

	elseBody := caseNode.Children[last]
	if elseBody == nil {
		elseBody = node.NewNil(caseNode.Pos.Copy())
	}

	elseRef := elseBody.DeepCopy()

	elseBody, err := ins.Instrument(elseBody, inCondition)
	if err != nil {
		return nil, err
	}

	next, err := ins.wrap(NewCaseElseHook(elseRef), elseBody)
	if err != nil {
		return nil, err
	}

	whens := caseNode.Children[1:last]

	for idx := len(whens) - 1; idx >= 0; idx-- {
		when := whens[idx]
		if when == nil {
			continue
		}

		var candidates []*node.Node
		if list := when.Child(0); list != nil {
			candidates = list.Children
		}

		var test *node.Node

		for cand := len(candidates) - 1; cand >= 0; cand-- {
			candidate := candidates[cand]
			ref := candidate.DeepCopy()

			value, candErr := ins.Instrument(candidate, false)
			if candErr != nil {
				return nil, candErr
			}

			match := node.New(node.TypeCall, "===", ref.Pos.Copy(), value, subject.DeepCopy())

			hooked, wrapErr := ins.wrap(NewCaseHook(ref), match)
			if wrapErr != nil {
				return nil, wrapErr
			}

			if test == nil {
				test = hooked
			} else {
				test = node.New(node.TypeOr, "", hooked.Pos.Copy(), hooked, test)
			}
		}

		if test == nil {
			test = node.New(node.TypeFalse, "", when.Pos.Copy())
		}

		body, bodyErr := ins.Instrument(when.Child(1), inCondition)
		if bodyErr != nil {
			return nil, bodyErr
		}

		next = node.New(node.TypeIf, "", when.Pos.Copy(), test, body, next)
	}

	if prologue != nil {
		return node.New(node.TypeBlock, "", caseNode.Pos.Copy(), prologue, next), nil
	}

	return next, nil
}
