package interp

import (
	"io"
	"math"
	"strings"

	"github.com/Sumatoshi-tech/foliage/pkg/node"
	"github.com/Sumatoshi-tech/foliage/pkg/safeconv"
	"github.com/Sumatoshi-tech/foliage/pkg/suggest"
)

// Builtins lists the receiverless functions a program may call.
var Builtins = []string{"loop", "p", "print", "puts", "raise"}

func callFunction(fr *frame, n *node.Node, name string, args []Value, blk *block) (Value, error) {
	switch name {
	case "puts":
		writeOut(fr, putsText(args))

		return Nil, nil
	case "print":
		var sb strings.Builder
		for _, arg := range args {
			sb.WriteString(arg.String())
		}

		writeOut(fr, sb.String())

		return Nil, nil
	case "p":
		for _, arg := range args {
			writeOut(fr, arg.Inspect()+"\n")
		}

		switch len(args) {
		case 0:
			return Nil, nil
		case 1:
			return args[0], nil
		default:
			return Array(args), nil
		}
	case "raise":
		msg := "unhandled exception"
		if len(args) > 0 {
			msg = args[0].String()
		}

		return Nil, fault(n, "RuntimeError", "%s", msg)
	case "loop":
		if blk == nil {
			return Nil, fault(n, "ArgumentError", "no block given (loop)")
		}

		for {
			if _, err := blk.call(); err != nil {
				return Nil, err
			}
		}
	}

	var rerr *RuntimeError
	if len(args) == 0 && blk == nil {
		rerr = fault(n, "NameError", "undefined local variable or method '%s' for main", name)
	} else {
		rerr = fault(n, "NoMethodError", "undefined method '%s' for main", name)
	}

	rerr.Suggestion, _ = suggest.Closest(name, append(fr.scope.Names(), Builtins...))

	return Nil, rerr
}

func writeOut(fr *frame, s string) {
	if fr.env.Stdout == nil {
		return
	}

	_, _ = io.WriteString(fr.env.Stdout, s)
}

func putsText(args []Value) string {
	if len(args) == 0 {
		return "\n"
	}

	var sb strings.Builder

	for _, arg := range args {
		if arg.Tag == VTArray {
			sb.WriteString(putsText(arg.elems()))

			continue
		}

		sb.WriteString(arg.String())
		sb.WriteString("\n")
	}

	return sb.String()
}

func noMethod(n *node.Node, recv Value, name string) (Value, error) {
	return Nil, fault(n, "NoMethodError", "undefined method '%s' for an instance of %s", name, recv.ClassName())
}

func arity(n *node.Node, name string, args []Value, want int) error {
	if len(args) != want {
		return fault(n, "ArgumentError", "wrong number of arguments calling '%s' (given %d, expected %d)", name, len(args), want)
	}

	return nil
}

func callMethod(n *node.Node, recv Value, name string, args []Value, blk *block) (Value, error) {
	if v, handled, err := objectMethod(n, recv, name, args); handled {
		return v, err
	}

	switch recv.Tag {
	case VTInt, VTFloat:
		return numericMethod(n, recv, name, args, blk)
	case VTStr:
		return stringMethod(n, recv, name, args)
	case VTArray:
		return arrayMethod(n, recv, name, args, blk)
	case VTSym:
		if name == "to_sym" {
			return recv, nil
		}
	}

	return noMethod(n, recv, name)
}

func objectMethod(n *node.Node, recv Value, name string, args []Value) (Value, bool, error) {
	switch name {
	case "==", "!=", "===", "is_a?":
		if err := arity(n, name, args, 1); err != nil {
			return Nil, true, err
		}

		switch name {
		case "==":
			return Bool(Equal(recv, args[0])), true, nil
		case "!=":
			return Bool(!Equal(recv, args[0])), true, nil
		case "===":
			return Bool(CaseEqual(recv, args[0])), true, nil
		default:
			return Bool(CaseEqual(args[0], recv)), true, nil
		}
	case "!":
		return Bool(!recv.Truthy()), true, nil
	case "nil?":
		return Bool(recv.Tag == VTNil), true, nil
	case "to_s":
		return Str(recv.String()), true, nil
	case "inspect":
		return Str(recv.Inspect()), true, nil
	case "class":
		return Class(recv.ClassName()), true, nil
	default:
		return Nil, false, nil
	}
}

//nolint:gocyclo,cyclop,funlen // method table.
func numericMethod(n *node.Node, recv Value, name string, args []Value, blk *block) (Value, error) {
	switch name {
	case "+", "-", "*", "/", "%", "**", "<", ">", "<=", ">=", "<=>":
		if err := arity(n, name, args, 1); err != nil {
			return Nil, err
		}

		if !isNumeric(args[0]) {
			return Nil, fault(n, "TypeError", "%s can't be coerced into %s", args[0].ClassName(), recv.ClassName())
		}

		return arith(n, recv, name, args[0])
	case "-@":
		if recv.Tag == VTInt {
			return Int(-recv.asInt()), nil
		}

		return Float(-recv.asFloat()), nil
	case "+@":
		return recv, nil
	case "abs":
		if recv.Tag == VTInt {
			if recv.asInt() < 0 {
				return Int(-recv.asInt()), nil
			}

			return recv, nil
		}

		return Float(math.Abs(recv.asFloat())), nil
	case "zero?":
		return Bool(recv.asFloat() == 0), nil
	case "positive?":
		return Bool(recv.asFloat() > 0), nil
	case "negative?":
		return Bool(recv.asFloat() < 0), nil
	case "to_i":
		if recv.Tag == VTFloat {
			return Int(int64(recv.asFloat())), nil
		}

		return recv, nil
	case "to_f":
		return Float(recv.asFloat()), nil
	}

	if recv.Tag != VTInt {
		return noMethod(n, recv, name)
	}

	value := recv.asInt()

	switch name {
	case "even?":
		return Bool(value%2 == 0), nil
	case "odd?":
		return Bool(value%2 != 0), nil
	case "succ", "next":
		return Int(value + 1), nil
	case "pred":
		return Int(value - 1), nil
	case "times":
		if blk == nil {
			return Nil, fault(n, "ArgumentError", "no block given (times)")
		}

		for idx := range value {
			if _, err := blk.call(Int(idx)); err != nil {
				return Nil, err
			}
		}

		return recv, nil
	default:
		return noMethod(n, recv, name)
	}
}

func checkedInt(n *node.Node, v int64, ok bool) (Value, error) {
	if !ok {
		return Nil, fault(n, "RangeError", "integer overflow")
	}

	return Int(v), nil
}

//nolint:gocyclo,cyclop // operator table.
func arith(n *node.Node, left Value, op string, right Value) (Value, error) {
	if left.Tag == VTInt && right.Tag == VTInt {
		l, r := left.asInt(), right.asInt()

		switch op {
		case "+":
			sum, ok := safeconv.AddInt64(l, r)

			return checkedInt(n, sum, ok)
		case "-":
			diff, ok := safeconv.SubInt64(l, r)

			return checkedInt(n, diff, ok)
		case "*":
			product, ok := safeconv.MulInt64(l, r)

			return checkedInt(n, product, ok)
		case "/", "%":
			if r == 0 {
				return Nil, fault(n, "ZeroDivisionError", "divided by 0")
			}

			if l == math.MinInt64 && r == -1 {
				if op == "%" {
					return Int(0), nil
				}

				return Nil, fault(n, "RangeError", "integer overflow")
			}

			quo, rem := floorDivMod(l, r)
			if op == "/" {
				return Int(quo), nil
			}

			return Int(rem), nil
		case "**":
			if r < 0 {
				return Float(math.Pow(float64(l), float64(r))), nil
			}

			power, ok := safeconv.PowInt64(l, r)

			return checkedInt(n, power, ok)
		}
	}

	l, r := left.asFloat(), right.asFloat()

	switch op {
	case "+":
		return Float(l + r), nil
	case "-":
		return Float(l - r), nil
	case "*":
		return Float(l * r), nil
	case "/":
		return Float(l / r), nil
	case "%":
		return Float(l - r*math.Floor(l/r)), nil
	case "**":
		return Float(math.Pow(l, r)), nil
	case "<":
		return Bool(l < r), nil
	case ">":
		return Bool(l > r), nil
	case "<=":
		return Bool(l <= r), nil
	case ">=":
		return Bool(l >= r), nil
	default:
		return Int(int64(compareFloat(l, r))), nil
	}
}

func floorDivMod(l, r int64) (int64, int64) {
	quo, rem := l/r, l%r
	if rem != 0 && (rem < 0) != (r < 0) {
		quo--
		rem += r
	}

	return quo, rem
}

func compareFloat(l, r float64) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func compare(n *node.Node, left, right Value) (int, error) {
	if isNumeric(left) && isNumeric(right) {
		return compareFloat(left.asFloat(), right.asFloat()), nil
	}

	if left.Tag == VTStr && right.Tag == VTStr {
		return strings.Compare(left.asString(), right.asString()), nil
	}

	return 0, fault(n, "ArgumentError", "comparison of %s with %s failed", left.ClassName(), right.ClassName())
}

//nolint:gocyclo,cyclop // method table.
func stringMethod(n *node.Node, recv Value, name string, args []Value) (Value, error) {
	s := recv.asString()

	switch name {
	case "size", "length":
		return Int(int64(len([]rune(s)))), nil
	case "upcase":
		return Str(strings.ToUpper(s)), nil
	case "downcase":
		return Str(strings.ToLower(s)), nil
	case "strip":
		return Str(strings.TrimSpace(s)), nil
	case "reverse":
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}

		return Str(string(runes)), nil
	case "empty?":
		return Bool(s == ""), nil
	case "to_sym":
		return Sym(s), nil
	}

	if err := arity(n, name, args, 1); err != nil {
		return noMethodOr(n, recv, name, err)
	}

	arg := args[0]

	switch name {
	case "+":
		if arg.Tag != VTStr {
			return Nil, fault(n, "TypeError", "no implicit conversion of %s into String", arg.ClassName())
		}

		return Str(s + arg.asString()), nil
	case "*":
		if arg.Tag != VTInt || arg.asInt() < 0 {
			return Nil, fault(n, "ArgumentError", "invalid repeat count")
		}

		count, ok := safeconv.Int64ToInt(arg.asInt())
		if ok {
			_, ok = safeconv.MulInt(len(s), count)
		}

		if !ok {
			return Nil, fault(n, "ArgumentError", "argument too big")
		}

		return Str(strings.Repeat(s, count)), nil
	case "include?", "start_with?", "end_with?":
		if arg.Tag != VTStr {
			return Nil, fault(n, "TypeError", "no implicit conversion of %s into String", arg.ClassName())
		}

		switch name {
		case "include?":
			return Bool(strings.Contains(s, arg.asString())), nil
		case "start_with?":
			return Bool(strings.HasPrefix(s, arg.asString())), nil
		default:
			return Bool(strings.HasSuffix(s, arg.asString())), nil
		}
	case "<", ">", "<=", ">=":
		cmp, err := compare(n, recv, arg)
		if err != nil {
			return Nil, err
		}

		return Bool(compareResult(name, cmp)), nil
	default:
		return noMethod(n, recv, name)
	}
}

func compareResult(op string, cmp int) bool {
	switch op {
	case "<":
		return cmp < 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	default:
		return cmp >= 0
	}
}

// noMethodOr reports a missing method for names the receiver does not know,
// and the arity error for names it does.
func noMethodOr(n *node.Node, recv Value, name string, arityErr error) (Value, error) {
	switch name {
	case "+", "*", "include?", "start_with?", "end_with?", "<", ">", "<=", ">=":
		return Nil, arityErr
	default:
		return noMethod(n, recv, name)
	}
}
