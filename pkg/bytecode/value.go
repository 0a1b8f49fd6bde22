package bytecode

import "fmt"

// ValueType discriminates the four variants a Value can hold.
type ValueType int

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Value is the tagged scalar every smog expression evaluates to: nil, a
// bool, a float64, or a reference to a heap Obj. Ownership of the
// referenced object lives on the heap (the VM's all-objects list), never in
// the Value itself - copying a Value never copies the object it points at.
type Value struct {
	Type   ValueType
	Bool   bool
	Number float64
	Obj    Obj
}

// Nil is the singleton nil value.
var Nil = Value{Type: ValNil}

// Bool wraps a boolean into a Value.
func Bool(b bool) Value { return Value{Type: ValBool, Bool: b} }

// Number wraps a float64 into a Value.
func Number(n float64) Value { return Value{Type: ValNumber, Number: n} }

// FromObj wraps a heap object reference into a Value.
func FromObj(o Obj) Value { return Value{Type: ValObj, Obj: o} }

func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsObj() bool    { return v.Type == ValObj }

// IsObjType reports whether v holds a heap object of the given kind.
func (v Value) IsObjType(kind ObjType) bool {
	return v.Type == ValObj && v.Obj != nil && v.Obj.Type() == kind
}

// IsFalsy implements smog truthiness: only nil and false are falsy.
func (v Value) IsFalsy() bool {
	return v.Type == ValNil || (v.Type == ValBool && !v.Bool)
}

// Equal implements structural equality across variants per spec: numbers
// and bools compare by value, nil always equals nil, and heap references
// compare by identity (which is value equality for interned strings).
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ValNil:
		return true
	case ValBool:
		return a.Bool == b.Bool
	case ValNumber:
		return a.Number == b.Number
	case ValObj:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// String renders a Value the way OP_PRINT and the REPL do.
func (v Value) String() string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValNumber:
		return formatNumber(v.Number)
	case ValObj:
		if v.Obj == nil {
			return "nil"
		}
		return v.Obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
