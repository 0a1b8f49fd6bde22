package vm

import (
	"unsafe"

	"github.com/kristofer/smog/pkg/bytecode"
)

// slotAddr gives a comparable ordering key for a stack-slot pointer. Go
// does not allow ordering comparisons between pointers directly, but the
// open-upvalue list's invariant (descending stack-slot address) needs one;
// this is the one place that invariant is expressed.
func slotAddr(p *bytecode.Value) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// callValue dispatches OP_CALL's callee, which may be a closure, a native,
// a class (construction), or a bound method. argCount does not include the
// callee itself; the callee sits at stack position top-argCount-1.
func (v *VM) callValue(callee bytecode.Value, argCount int) error {
	if callee.IsObj() {
		switch obj := callee.Obj.(type) {
		case *bytecode.ObjClosure:
			return v.callClosure(obj, argCount)
		case *bytecode.ObjNative:
			return v.callNative(obj, argCount)
		case *bytecode.ObjClass:
			return v.callClass(obj, argCount)
		case *bytecode.ObjBoundMethod:
			v.stack[v.stackTop-argCount-1] = obj.Receiver
			return v.callClosure(obj.Method, argCount)
		}
	}
	return v.runtimeError("Can only call functions and classes.")
}

func (v *VM) callClosure(closure *bytecode.ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return v.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if v.frameCount == v.framesMax {
		return v.runtimeError("Stack overflow.")
	}

	fr := &v.frames[v.frameCount]
	v.frameCount++
	fr.closure = closure
	fr.ip = 0
	fr.base = v.stackTop - argCount - 1
	return nil
}

func (v *VM) callNative(native *bytecode.ObjNative, argCount int) error {
	if argCount != native.Arity {
		return v.runtimeError("Expected %d arguments but got %d.", native.Arity, argCount)
	}

	args := v.stack[v.stackTop-argCount : v.stackTop]
	result, err := native.Function(argCount, args)
	if err != nil {
		return v.runtimeError("%s", err.Error())
	}

	v.stackTop -= argCount + 1
	v.push(result)
	return nil
}

func (v *VM) callClass(class *bytecode.ObjClass, argCount int) error {
	instance := v.newInstance(class)
	v.stack[v.stackTop-argCount-1] = bytecode.FromObj(instance)

	if initializer, ok := class.Methods.Get(v.initStr); ok {
		return v.callClosure(initializer.Obj.(*bytecode.ObjClosure), argCount)
	}
	if argCount != 0 {
		return v.runtimeError("Expected 0 arguments but got %d.", argCount)
	}
	return nil
}

// invoke fuses a GET_PROPERTY + CALL into one dispatch: it only falls back
// to treating the property as a plain field-then-call when the instance
// actually has a field with that name shadowing a method.
func (v *VM) invoke(name *bytecode.ObjString, argCount int) error {
	receiver := v.peek(argCount)
	if !receiver.IsObjType(bytecode.ObjTypeInstance) {
		return v.runtimeError("Only instances have methods.")
	}
	instance := receiver.Obj.(*bytecode.ObjInstance)

	if field, ok := instance.Fields.Get(name); ok {
		v.stack[v.stackTop-argCount-1] = field
		return v.callValue(field, argCount)
	}

	return v.invokeFromClass(instance.Class, name, argCount)
}

func (v *VM) invokeFromClass(class *bytecode.ObjClass, name *bytecode.ObjString, argCount int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return v.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return v.callClosure(method.Obj.(*bytecode.ObjClosure), argCount)
}

// bindMethod resolves name on class's method table, pops the receiver that
// was on top, and pushes a bound method in its place.
func (v *VM) bindMethod(class *bytecode.ObjClass, name *bytecode.ObjString) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return v.runtimeError("Undefined property '%s'.", name.Chars)
	}

	bound := v.newBoundMethod(v.peek(0), method.Obj.(*bytecode.ObjClosure))
	v.pop()
	v.push(bytecode.FromObj(bound))
	return nil
}

// captureUpvalue returns the open upvalue for slot, creating it if
// necessary, and keeps the open-upvalue list sorted by descending
// stack-slot address as §4.6.3 requires.
func (v *VM) captureUpvalue(slot *bytecode.Value) *bytecode.ObjUpvalue {
	var prev *bytecode.ObjUpvalue
	up := v.openUps
	for up != nil && slotAddr(up.Location) > slotAddr(slot) {
		prev = up
		up = up.Next
	}
	if up != nil && up.Location == slot {
		return up
	}

	created := v.newUpvalue(slot)
	created.Next = up
	if prev == nil {
		v.openUps = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvaluesAbove closes every open upvalue whose slot is at or past
// threshold: it copies the slot's current value into the upvalue's own
// storage and retargets Location there, then unlinks it from the open
// list.
func (v *VM) closeUpvaluesAbove(threshold *bytecode.Value) {
	for v.openUps != nil && slotAddr(v.openUps.Location) >= slotAddr(threshold) {
		up := v.openUps
		up.Closed = *up.Location
		up.Location = &up.Closed
		v.openUps = up.Next
	}
}
