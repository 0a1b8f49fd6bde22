package bytecode

import "strings"

// ObjType discriminates the heap object variants.
type ObjType int

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeClosure
	ObjTypeUpvalue
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

func (t ObjType) String() string {
	switch t {
	case ObjTypeString:
		return "string"
	case ObjTypeFunction:
		return "function"
	case ObjTypeNative:
		return "native"
	case ObjTypeClosure:
		return "closure"
	case ObjTypeUpvalue:
		return "upvalue"
	case ObjTypeClass:
		return "class"
	case ObjTypeInstance:
		return "instance"
	case ObjTypeBoundMethod:
		return "bound method"
	default:
		return "unknown"
	}
}

// Obj is the common interface every heap-allocated value implements. Every
// Obj carries a Header (GC mark bit + intrusive link into the VM's
// all-objects list); the collector never needs a type switch to find it.
type Obj interface {
	Type() ObjType
	Hdr() *Header
	String() string
}

// Header is the common object header: a GC mark
// bit and an intrusive link into the global allocated-objects list. It is
// embedded (not pointed to) by every concrete Obj so allocation is a single
// struct literal.
type Header struct {
	Marked bool
	Next   Obj
}

func (h *Header) Hdr() *Header { return h }

// ObjString is an interned, immutable byte sequence. At most one ObjString
// exists in the heap for any given byte sequence (see vm.VM.InternString); that
// invariant is what lets Value equality use pointer identity for strings.
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

func (s *ObjString) Type() ObjType { return ObjTypeString }
func (s *ObjString) String() string { return s.Chars }

// HashString computes the FNV-1a hash used to key interned strings and the
// hash table.
func HashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// ObjFunction is a compiled function body: its arity, how many upvalues its
// closures must capture, and the Chunk holding its code. Immutable once the
// compiler that produced it finishes.
type ObjFunction struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString // nil for the top-level script
}

func (f *ObjFunction) Type() ObjType { return ObjTypeFunction }

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}

// NativeFn is a host callable registered via vm.DefineNative.
type NativeFn func(argCount int, args []Value) (Value, error)

// ObjNative wraps a host function exposed to smog code with a fixed arity.
type ObjNative struct {
	Header
	Name     string
	Arity    int
	Function NativeFn
}

func (n *ObjNative) Type() ObjType    { return ObjTypeNative }
func (n *ObjNative) String() string { return "<native fn " + n.Name + ">" }

// ObjUpvalue is a captured variable reference. While open, Location aliases
// a live stack slot; once closed, Location points at Closed instead and the
// upvalue is unlinked from the VM's open-upvalue list. Next chains open
// upvalues in descending stack-slot order (see vm's captureUpvalue).
type ObjUpvalue struct {
	Header
	Location *Value
	Closed   Value
	Next     *ObjUpvalue
}

func (u *ObjUpvalue) Type() ObjType  { return ObjTypeUpvalue }
func (u *ObjUpvalue) String() string { return "<upvalue>" }

// IsOpen reports whether this upvalue still aliases a live stack slot.
func (u *ObjUpvalue) IsOpen() bool { return u.Location != &u.Closed }

// ObjClosure pairs a compiled function with the upvalues it captured at
// creation time. Len(Upvalues) always equals Function.UpvalueCount.
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) Type() ObjType  { return ObjTypeClosure }
func (c *ObjClosure) String() string { return c.Function.String() }

// ObjClass is a class value: its name and its method table (name ->
// *ObjClosure). Method values are always closures.
type ObjClass struct {
	Header
	Name    *ObjString
	Methods *Table
}

func (c *ObjClass) Type() ObjType    { return ObjTypeClass }
func (c *ObjClass) String() string { return c.Name.Chars }

// ObjInstance is an instance of a class: a fixed class reference and a
// mutable field table (name -> Value).
type ObjInstance struct {
	Header
	Class  *ObjClass
	Fields *Table
}

func (i *ObjInstance) Type() ObjType { return ObjTypeInstance }
func (i *ObjInstance) String() string {
	var b strings.Builder
	b.WriteString(i.Class.Name.Chars)
	b.WriteString(" instance")
	return b.String()
}

// ObjBoundMethod is a method value that has captured its receiver at bind
// time (produced when OP_GET_PROPERTY resolves to a method, or by
// OP_GET_SUPER).
type ObjBoundMethod struct {
	Header
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) Type() ObjType    { return ObjTypeBoundMethod }
func (b *ObjBoundMethod) String() string { return b.Method.String() }
