package interp

import (
	"errors"

	"github.com/Sumatoshi-tech/foliage/pkg/node"
)

// block is a closure passed to a method call with do...end or braces.
type block struct {
	params []string
	body   evalFunc
	outer  *frame
}

func (blk *block) call(args ...Value) (Value, error) {
	if err := blk.outer.ctx.Err(); err != nil {
		return Nil, err
	}

	scope := NewScope(blk.outer.scope)

	if len(blk.params) > 1 && len(args) == 1 && args[0].Tag == VTArray {
		args = args[0].elems()
	}

	for idx, name := range blk.params {
		v := Nil
		if idx < len(args) {
			v = args[idx]
		}

		scope.Define(name, v)
	}

	v, err := blk.body(blk.outer.child(scope))
	if err == nil {
		return v, nil
	}

	var nxt nextSignal
	if errors.As(err, &nxt) {
		return nxt.value, nil
	}

	return Nil, err
}

type blockTemplate struct {
	params []string
	body   evalFunc
}

func compileIter(n *node.Node) (evalFunc, error) {
	callNode := n.Child(0)
	if callNode == nil || callNode.Type != node.TypeCall {
		return nil, compileError(n, "block without method call")
	}

	var params []string

	if args := n.Child(1); args != nil {
		for _, param := range args.Children {
			if param != nil {
				params = append(params, param.Token)
			}
		}
	}

	body, err := compileNode(n.Child(2))
	if err != nil {
		return nil, err
	}

	call, err := compileCall(callNode, &blockTemplate{params: params, body: body})
	if err != nil {
		return nil, err
	}

	return func(fr *frame) (Value, error) {
		v, callErr := call(fr)
		if callErr == nil {
			return v, nil
		}

		var brk breakSignal
		if errors.As(callErr, &brk) {
			return brk.value, nil
		}

		return Nil, callErr
	}, nil
}

func compileCall(n *node.Node, tmpl *blockTemplate) (evalFunc, error) {
	name := n.Token
	receiverNode := n.Child(0)

	var argNodes []*node.Node
	if len(n.Children) > 1 {
		argNodes = n.Children[1:]
	}

	var receiver evalFunc

	if receiverNode != nil {
		var err error

		receiver, err = compileNode(receiverNode)
		if err != nil {
			return nil, err
		}
	}

	args, err := compileChildren(argNodes)
	if err != nil {
		return nil, err
	}

	return func(fr *frame) (Value, error) {
		var recv Value

		if receiver != nil {
			var recvErr error

			recv, recvErr = receiver(fr)
			if recvErr != nil {
				return Nil, recvErr
			}
		}

		argValues := make([]Value, 0, len(args))

		for _, arg := range args {
			v, argErr := arg(fr)
			if argErr != nil {
				return Nil, argErr
			}

			argValues = append(argValues, v)
		}

		var blk *block
		if tmpl != nil {
			blk = &block{params: tmpl.params, body: tmpl.body, outer: fr}
		}

		if receiver == nil {
			return callFunction(fr, n, name, argValues, blk)
		}

		return callMethod(n, recv, name, argValues, blk)
	}, nil
}
