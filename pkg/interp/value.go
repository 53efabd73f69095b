package interp

import (
	"strconv"
	"strings"
)

// ValueTag identifies the runtime type of a Value.
type ValueTag int

// Value tags.
const (
	VTNil ValueTag = iota
	VTBool
	VTInt
	VTFloat
	VTStr
	VTSym
	VTArray
	VTClass
)

// Value is a runtime value. Data holds the Go representation for the tag:
// bool, int64, float64, string (Str, Sym and Class names) or *ArrayObject.
type Value struct {
	Tag  ValueTag
	Data any
}

// ArrayObject is the mutable backing store of an array value.
type ArrayObject struct {
	Elems []Value
}

// Nil is the nil value.
var Nil = Value{Tag: VTNil}

// Constructors.
func Bool(b bool) Value       { return Value{Tag: VTBool, Data: b} }
func Int(n int64) Value       { return Value{Tag: VTInt, Data: n} }
func Float(f float64) Value   { return Value{Tag: VTFloat, Data: f} }
func Str(s string) Value      { return Value{Tag: VTStr, Data: s} }
func Sym(name string) Value   { return Value{Tag: VTSym, Data: name} }
func Class(name string) Value { return Value{Tag: VTClass, Data: name} }

// Array creates an array value owning elems.
func Array(elems []Value) Value {
	return Value{Tag: VTArray, Data: &ArrayObject{Elems: elems}}
}

// Truthy reports Ruby truthiness: only nil and false are falsy.
func (v Value) Truthy() bool {
	switch v.Tag {
	case VTNil:
		return false
	case VTBool:
		b, _ := v.Data.(bool)

		return b
	default:
		return true
	}
}

func (v Value) asInt() int64 {
	n, _ := v.Data.(int64)

	return n
}

func (v Value) asFloat() float64 {
	switch v.Tag {
	case VTInt:
		return float64(v.asInt())
	case VTFloat:
		f, _ := v.Data.(float64)

		return f
	default:
		return 0
	}
}

func (v Value) asString() string {
	s, _ := v.Data.(string)

	return s
}

func (v Value) elems() []Value {
	arr, ok := v.Data.(*ArrayObject)
	if !ok {
		return nil
	}

	return arr.Elems
}

// ClassName returns the Ruby class name of the value.
func (v Value) ClassName() string {
	switch v.Tag {
	case VTNil:
		return "NilClass"
	case VTBool:
		if v.Truthy() {
			return "TrueClass"
		}

		return "FalseClass"
	case VTInt:
		return "Integer"
	case VTFloat:
		return "Float"
	case VTStr:
		return "String"
	case VTSym:
		return "Symbol"
	case VTArray:
		return "Array"
	case VTClass:
		return "Class"
	default:
		return "Object"
	}
}

// String returns the to_s form of the value.
func (v Value) String() string {
	switch v.Tag {
	case VTNil:
		return ""
	case VTStr, VTSym, VTClass:
		return v.asString()
	case VTArray:
		return v.Inspect()
	default:
		return v.Inspect()
	}
}

// Inspect returns the inspect form of the value, as printed by p.
func (v Value) Inspect() string {
	switch v.Tag {
	case VTNil:
		return "nil"
	case VTBool:
		return strconv.FormatBool(v.Truthy())
	case VTInt:
		return strconv.FormatInt(v.asInt(), 10)
	case VTFloat:
		return formatFloat(v.asFloat())
	case VTStr:
		return strconv.Quote(v.asString())
	case VTSym:
		return ":" + v.asString()
	case VTClass:
		return v.asString()
	case VTArray:
		parts := make([]string, 0, len(v.elems()))

		for _, elem := range v.elems() {
			parts = append(parts, elem.Inspect())
		}

		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "#<Object>"
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}

	return s
}

// Equal implements Ruby == for the supported value types.
func Equal(left, right Value) bool {
	if isNumeric(left) && isNumeric(right) {
		if left.Tag == VTInt && right.Tag == VTInt {
			return left.asInt() == right.asInt()
		}

		return left.asFloat() == right.asFloat()
	}

	if left.Tag != right.Tag {
		return false
	}

	switch left.Tag {
	case VTNil:
		return true
	case VTBool:
		return left.Truthy() == right.Truthy()
	case VTStr, VTSym, VTClass:
		return left.asString() == right.asString()
	case VTArray:
		leftElems, rightElems := left.elems(), right.elems()
		if len(leftElems) != len(rightElems) {
			return false
		}

		for idx := range leftElems {
			if !Equal(leftElems[idx], rightElems[idx]) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// CaseEqual implements Ruby ===: class membership for class receivers,
// equality otherwise.
func CaseEqual(pattern, value Value) bool {
	if pattern.Tag != VTClass {
		return Equal(pattern, value)
	}

	name := pattern.asString()

	switch name {
	case "Object", "BasicObject":
		return true
	case "Numeric":
		return isNumeric(value)
	default:
		return value.ClassName() == name
	}
}

func isNumeric(v Value) bool {
	return v.Tag == VTInt || v.Tag == VTFloat
}
