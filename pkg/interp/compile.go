package interp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/foliage/pkg/node"
)

type evalFunc func(fr *frame) (Value, error)

// TempPrefix marks locals introduced by instrumentation. They live for one
// Run call and never reach Env.Globals or any other Scope.
const TempPrefix = "__case_"

type frame struct {
	ctx   context.Context //nolint:containedctx // frames live for one Run call.
	env   *Env
	scope *Scope
	temps map[string]Value
}

func (fr *frame) child(scope *Scope) *frame {
	return &frame{ctx: fr.ctx, env: fr.env, scope: scope, temps: fr.temps}
}

// Program is a compiled tree ready to run.
type Program struct {
	root evalFunc
}

// Compile translates a tree into an executable Program. A nil tree compiles
// to a program that returns nil.
func Compile(tree *node.Node) (*Program, error) {
	root, err := compileNode(tree)
	if err != nil {
		return nil, err
	}

	return &Program{root: root}, nil
}

// Run executes the program. Faults are returned as *RuntimeError; a hook
// failure or context cancellation is returned as is.
func (prog *Program) Run(ctx context.Context, env Env) (Value, error) {
	if env.Globals == nil {
		env.Globals = NewScope(nil)
	}

	fr := &frame{ctx: ctx, env: &env, scope: env.Globals, temps: make(map[string]Value)}

	v, err := prog.root(fr)
	if err == nil {
		return v, nil
	}

	var ret returnSignal
	if errors.As(err, &ret) {
		return ret.value, nil
	}

	var brk breakSignal
	if errors.As(err, &brk) {
		return Nil, &RuntimeError{Class: "LocalJumpError", Msg: brk.Error(), File: node.DefaultFile}
	}

	var nxt nextSignal
	if errors.As(err, &nxt) {
		return Nil, &RuntimeError{Class: "LocalJumpError", Msg: nxt.Error(), File: node.DefaultFile}
	}

	return Nil, err
}

func compileError(n *node.Node, format string, args ...any) error {
	return fmt.Errorf("%w: %s at %s:%d", ErrCompile, fmt.Sprintf(format, args...), n.File(), n.Line())
}

func fault(n *node.Node, class, format string, args ...any) *RuntimeError {
	file, line := node.DefaultFile, uint(0)
	if n != nil {
		file, line = n.File(), n.Line()
	}

	return &RuntimeError{Class: class, Msg: fmt.Sprintf(format, args...), File: file, Line: line}
}

func constant(v Value) evalFunc {
	return func(*frame) (Value, error) { return v, nil }
}

//nolint:gocyclo,cyclop // one case per node type.
func compileNode(n *node.Node) (evalFunc, error) {
	if n == nil {
		return constant(Nil), nil
	}

	switch n.Type {
	case node.TypeBlock:
		return compileSequence(n)
	case node.TypeLit:
		return compileLiteral(n)
	case node.TypeStr:
		return func(*frame) (Value, error) { return Str(n.Token), nil }, nil
	case node.TypeSym:
		return constant(Sym(strings.TrimPrefix(n.Token, ":"))), nil
	case node.TypeTrue:
		return constant(Bool(true)), nil
	case node.TypeFalse:
		return constant(Bool(false)), nil
	case node.TypeNil:
		return constant(Nil), nil
	case node.TypeSelf:
		return constant(Class("main")), nil
	case node.TypeLVar:
		return compileLocal(n), nil
	case node.TypeLAsgn:
		return compileAssign(n)
	case node.TypeConst:
		return compileConst(n)
	case node.TypeCall:
		return compileCall(n, nil)
	case node.TypeIter:
		return compileIter(n)
	case node.TypeArray:
		return compileArray(n)
	case node.TypeIf:
		return compileIf(n)
	case node.TypeWhile, node.TypeUntil:
		return compileLoop(n)
	case node.TypeCase:
		return compileCase(n)
	case node.TypeAnd, node.TypeOr:
		return compileLogical(n)
	case node.TypeNot:
		return compileNot(n)
	case node.TypeBreak, node.TypeNext, node.TypeReturn:
		return compileJump(n)
	case node.TypeHook:
		return compileHook(n)
	default:
		return nil, compileError(n, "unexpected %s", n.Type)
	}
}

func compileChildren(children []*node.Node) ([]evalFunc, error) {
	out := make([]evalFunc, 0, len(children))

	for _, child := range children {
		fn, err := compileNode(child)
		if err != nil {
			return nil, err
		}

		out = append(out, fn)
	}

	return out, nil
}

func compileSequence(n *node.Node) (evalFunc, error) {
	stmts, err := compileChildren(n.Children)
	if err != nil {
		return nil, err
	}

	return func(fr *frame) (Value, error) {
		result := Nil

		for _, stmt := range stmts {
			v, stmtErr := stmt(fr)
			if stmtErr != nil {
				return Nil, stmtErr
			}

			result = v
		}

		return result, nil
	}, nil
}

func compileLiteral(n *node.Node) (evalFunc, error) {
	token := strings.ReplaceAll(n.Token, "_", "")

	i, err := strconv.ParseInt(token, 0, 64)
	if err == nil {
		return constant(Int(i)), nil
	}

	if errors.Is(err, strconv.ErrRange) {
		return func(*frame) (Value, error) {
			return Nil, fault(n, "RangeError", "integer literal %s out of range", n.Token)
		}, nil
	}

	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return constant(Float(f)), nil
	}

	return nil, compileError(n, "bad numeric literal %q", n.Token)
}

func compileLocal(n *node.Node) evalFunc {
	name := n.Token

	if strings.HasPrefix(name, TempPrefix) {
		return func(fr *frame) (Value, error) {
			if v, ok := fr.temps[name]; ok {
				return v, nil
			}

			return Nil, nil
		}
	}

	return func(fr *frame) (Value, error) {
		if v, ok := fr.scope.Lookup(name); ok {
			return v, nil
		}

		return callFunction(fr, n, name, nil, nil)
	}
}

func compileAssign(n *node.Node) (evalFunc, error) {
	name := n.Token

	value, err := compileNode(n.Child(0))
	if err != nil {
		return nil, err
	}

	return func(fr *frame) (Value, error) {
		v, valueErr := value(fr)
		if valueErr != nil {
			return Nil, valueErr
		}

		if strings.HasPrefix(name, TempPrefix) {
			fr.temps[name] = v
		} else {
			fr.scope.Set(name, v)
		}

		return v, nil
	}, nil
}

var knownClasses = map[string]bool{
	"Object": true, "BasicObject": true, "Numeric": true, "Integer": true, "Float": true,
	"String": true, "Symbol": true, "Array": true, "NilClass": true, "TrueClass": true,
	"FalseClass": true, "Class": true,
}

func compileConst(n *node.Node) (evalFunc, error) {
	name := n.Token

	return func(fr *frame) (Value, error) {
		if v, ok := fr.env.Globals.Lookup(name); ok {
			return v, nil
		}

		if knownClasses[name] {
			return Class(name), nil
		}

		return Nil, fault(n, "NameError", "uninitialized constant %s", name)
	}, nil
}

func compileArray(n *node.Node) (evalFunc, error) {
	elems, err := compileChildren(n.Children)
	if err != nil {
		return nil, err
	}

	return func(fr *frame) (Value, error) {
		out := make([]Value, 0, len(elems))

		for _, elem := range elems {
			v, elemErr := elem(fr)
			if elemErr != nil {
				return Nil, elemErr
			}

			out = append(out, v)
		}

		return Array(out), nil
	}, nil
}

func compileIf(n *node.Node) (evalFunc, error) {
	parts, err := compileChildren([]*node.Node{n.Child(0), n.Child(1), n.Child(2)})
	if err != nil {
		return nil, err
	}

	cond, thenBranch, elseBranch := parts[0], parts[1], parts[2]

	return func(fr *frame) (Value, error) {
		c, condErr := cond(fr)
		if condErr != nil {
			return Nil, condErr
		}

		if c.Truthy() {
			return thenBranch(fr)
		}

		return elseBranch(fr)
	}, nil
}

func compileLoop(n *node.Node) (evalFunc, error) {
	parts, err := compileChildren([]*node.Node{n.Child(0), n.Child(1)})
	if err != nil {
		return nil, err
	}

	cond, body := parts[0], parts[1]
	want := n.Type == node.TypeWhile

	return func(fr *frame) (Value, error) {
		for {
			if ctxErr := fr.ctx.Err(); ctxErr != nil {
				return Nil, ctxErr
			}

			c, condErr := cond(fr)
			if condErr != nil {
				return Nil, condErr
			}

			if c.Truthy() != want {
				return Nil, nil
			}

			_, bodyErr := body(fr)
			if bodyErr == nil {
				continue
			}

			var brk breakSignal
			if errors.As(bodyErr, &brk) {
				return brk.value, nil
			}

			var nxt nextSignal
			if errors.As(bodyErr, &nxt) {
				continue
			}

			return Nil, bodyErr
		}
	}, nil
}

type compiledWhen struct {
	patterns []evalFunc
	body     evalFunc
}

func compileCase(n *node.Node) (evalFunc, error) {
	if len(n.Children) < 2 {
		return nil, compileError(n, "case without else slot")
	}

	subject, err := compileNode(n.Child(0))
	if err != nil {
		return nil, err
	}

	whenNodes := n.Children[1 : len(n.Children)-1]
	whens := make([]compiledWhen, 0, len(whenNodes))

	for _, whenNode := range whenNodes {
		if whenNode == nil || whenNode.Type != node.TypeWhen {
			return nil, compileError(n, "case arm is not a when clause")
		}

		var patternNodes []*node.Node
		if list := whenNode.Child(0); list != nil {
			patternNodes = list.Children
		}

		patterns, patternErr := compileChildren(patternNodes)
		if patternErr != nil {
			return nil, patternErr
		}

		body, bodyErr := compileNode(whenNode.Child(1))
		if bodyErr != nil {
			return nil, bodyErr
		}

		whens = append(whens, compiledWhen{patterns: patterns, body: body})
	}

	elseBranch, err := compileNode(n.Children[len(n.Children)-1])
	if err != nil {
		return nil, err
	}

	return func(fr *frame) (Value, error) {
		v, subjectErr := subject(fr)
		if subjectErr != nil {
			return Nil, subjectErr
		}

		for _, when := range whens {
			for _, pattern := range when.patterns {
				p, patternErr := pattern(fr)
				if patternErr != nil {
					return Nil, patternErr
				}

				if CaseEqual(p, v) {
					return when.body(fr)
				}
			}
		}

		return elseBranch(fr)
	}, nil
}

func compileLogical(n *node.Node) (evalFunc, error) {
	parts, err := compileChildren([]*node.Node{n.Child(0), n.Child(1)})
	if err != nil {
		return nil, err
	}

	left, right := parts[0], parts[1]
	isAnd := n.Type == node.TypeAnd

	return func(fr *frame) (Value, error) {
		l, leftErr := left(fr)
		if leftErr != nil {
			return Nil, leftErr
		}

		if l.Truthy() != isAnd {
			return l, nil
		}

		return right(fr)
	}, nil
}

func compileNot(n *node.Node) (evalFunc, error) {
	operand, err := compileNode(n.Child(0))
	if err != nil {
		return nil, err
	}

	return func(fr *frame) (Value, error) {
		v, operandErr := operand(fr)
		if operandErr != nil {
			return Nil, operandErr
		}

		return Bool(!v.Truthy()), nil
	}, nil
}

func compileJump(n *node.Node) (evalFunc, error) {
	value, err := compileNode(n.Child(0))
	if err != nil {
		return nil, err
	}

	kind := n.Type

	return func(fr *frame) (Value, error) {
		v, valueErr := value(fr)
		if valueErr != nil {
			return Nil, valueErr
		}

		switch kind {
		case node.TypeBreak:
			return Nil, breakSignal{value: v}
		case node.TypeNext:
			return Nil, nextSignal{value: v}
		default:
			return Nil, returnSignal{value: v}
		}
	}, nil
}

func compileHook(n *node.Node) (evalFunc, error) {
	id, err := strconv.Atoi(n.Token)
	if err != nil {
		return nil, compileError(n, "bad hook id %q", n.Token)
	}

	inner, err := compileNode(n.Child(0))
	if err != nil {
		return nil, err
	}

	return func(fr *frame) (Value, error) {
		v, innerErr := inner(fr)
		if innerErr != nil {
			return Nil, innerErr
		}

		if fr.env.Hooks == nil {
			return Nil, fmt.Errorf("%w: %d at %s:%d", ErrUnknownHook, id, n.File(), n.Line())
		}

		hook, ok := fr.env.Hooks(id)
		if !ok {
			return Nil, fmt.Errorf("%w: %d at %s:%d", ErrUnknownHook, id, n.File(), n.Line())
		}

		return hook(v)
	}, nil
}
