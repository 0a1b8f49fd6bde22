package vm

import "github.com/kristofer/smog/pkg/bytecode"

// DefineNative registers a host callable under name with a fixed arity,
// Programs call it exactly like a user-defined function. The set of
// built-ins is deliberately not part of the core; this is the hook a front
// end uses to install whatever it wants.
func (v *VM) DefineNative(name string, arity int, fn bytecode.NativeFn) {
	native := v.newNative(name, arity, fn)
	nameObj := v.InternString(name)
	v.push(bytecode.FromObj(nameObj))
	v.push(bytecode.FromObj(native))
	v.globals.Set(nameObj, v.peek(0))
	v.pop()
	v.pop()
}
