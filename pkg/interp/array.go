package interp

import (
	"strings"

	"github.com/Sumatoshi-tech/foliage/pkg/node"
)

//nolint:gocyclo,cyclop,funlen // method table.
func arrayMethod(n *node.Node, recv Value, name string, args []Value, blk *block) (Value, error) {
	obj, _ := recv.Data.(*ArrayObject)

	switch name {
	case "each", "each_with_index", "map", "collect", "select", "filter", "reject":
		if blk == nil {
			return Nil, fault(n, "ArgumentError", "no block given (%s)", name)
		}

		return iterate(obj, name, blk, recv)
	case "size", "length":
		return Int(int64(len(obj.Elems))), nil
	case "count":
		if blk == nil {
			return Int(int64(len(obj.Elems))), nil
		}

		matched, err := iterate(obj, "select", blk, recv)
		if err != nil {
			return Nil, err
		}

		return Int(int64(len(matched.elems()))), nil
	case "any?", "all?", "none?":
		return predicate(obj, name, blk)
	case "empty?":
		return Bool(len(obj.Elems) == 0), nil
	case "first":
		if len(obj.Elems) == 0 {
			return Nil, nil
		}

		return obj.Elems[0], nil
	case "last":
		if len(obj.Elems) == 0 {
			return Nil, nil
		}

		return obj.Elems[len(obj.Elems)-1], nil
	case "reverse":
		out := make([]Value, len(obj.Elems))
		for idx, elem := range obj.Elems {
			out[len(out)-1-idx] = elem
		}

		return Array(out), nil
	case "sum":
		total := Int(0)

		for _, elem := range obj.Elems {
			if !isNumeric(elem) {
				return Nil, fault(n, "TypeError", "%s can't be coerced into Integer", elem.ClassName())
			}

			var err error

			total, err = arith(n, total, "+", elem)
			if err != nil {
				return Nil, err
			}
		}

		return total, nil
	case "min", "max":
		return extreme(n, obj, name == "max")
	case "push", "<<":
		obj.Elems = append(obj.Elems, args...)

		return recv, nil
	case "join":
		sep := ""
		if len(args) > 0 {
			sep = args[0].String()
		}

		parts := make([]string, 0, len(obj.Elems))
		for _, elem := range obj.Elems {
			parts = append(parts, elem.String())
		}

		return Str(strings.Join(parts, sep)), nil
	case "include?":
		if err := arity(n, name, args, 1); err != nil {
			return Nil, err
		}

		for _, elem := range obj.Elems {
			if Equal(elem, args[0]) {
				return Bool(true), nil
			}
		}

		return Bool(false), nil
	case "[]":
		if err := arity(n, name, args, 1); err != nil {
			return Nil, err
		}

		if args[0].Tag != VTInt {
			return Nil, fault(n, "TypeError", "no implicit conversion of %s into Integer", args[0].ClassName())
		}

		idx := args[0].asInt()
		if idx < 0 {
			idx += int64(len(obj.Elems))
		}

		if idx < 0 || idx >= int64(len(obj.Elems)) {
			return Nil, nil
		}

		return obj.Elems[idx], nil
	case "+":
		if err := arity(n, name, args, 1); err != nil {
			return Nil, err
		}

		if args[0].Tag != VTArray {
			return Nil, fault(n, "TypeError", "no implicit conversion of %s into Array", args[0].ClassName())
		}

		out := append(append([]Value{}, obj.Elems...), args[0].elems()...)

		return Array(out), nil
	default:
		return noMethod(n, recv, name)
	}
}

// iterate runs blk over the live element list, so elements pushed by the
// block are visited too.
func iterate(obj *ArrayObject, name string, blk *block, recv Value) (Value, error) {
	var out []Value

	for idx := 0; idx < len(obj.Elems); idx++ {
		elem := obj.Elems[idx]

		var (
			v   Value
			err error
		)

		if name == "each_with_index" {
			v, err = blk.call(elem, Int(int64(idx)))
		} else {
			v, err = blk.call(elem)
		}

		if err != nil {
			return Nil, err
		}

		switch name {
		case "map", "collect":
			out = append(out, v)
		case "select", "filter":
			if v.Truthy() {
				out = append(out, elem)
			}
		case "reject":
			if !v.Truthy() {
				out = append(out, elem)
			}
		}
	}

	switch name {
	case "each", "each_with_index":
		return recv, nil
	default:
		if out == nil {
			out = []Value{}
		}

		return Array(out), nil
	}
}

func predicate(obj *ArrayObject, name string, blk *block) (Value, error) {
	for _, elem := range obj.Elems {
		v := elem

		if blk != nil {
			var err error

			v, err = blk.call(elem)
			if err != nil {
				return Nil, err
			}
		}

		switch {
		case name == "any?" && v.Truthy():
			return Bool(true), nil
		case name == "all?" && !v.Truthy():
			return Bool(false), nil
		case name == "none?" && v.Truthy():
			return Bool(false), nil
		}
	}

	return Bool(name != "any?"), nil
}

func extreme(n *node.Node, obj *ArrayObject, wantMax bool) (Value, error) {
	if len(obj.Elems) == 0 {
		return Nil, nil
	}

	best := obj.Elems[0]

	for _, elem := range obj.Elems[1:] {
		cmp, err := compare(n, elem, best)
		if err != nil {
			return Nil, err
		}

		if (wantMax && cmp > 0) || (!wantMax && cmp < 0) {
			best = elem
		}
	}

	return best, nil
}
