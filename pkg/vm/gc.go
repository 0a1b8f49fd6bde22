package vm

import (
	"fmt"
	"reflect"

	"github.com/dustin/go-humanize"
	"github.com/kristofer/smog/pkg/bytecode"
)

// track links a freshly allocated object into the all-objects list and
// charges its approximate size against bytesAllocated, possibly triggering
// a collection first. Every allocation in this package goes through here -
// it is the Go equivalent of the single reallocate(ptr, old, new) entry
// point this VM is grounded on.
func (v *VM) track(obj bytecode.Obj, size int64) {
	v.bytesAllocated += size
	if v.stressGC || v.bytesAllocated > v.nextGC {
		v.collectGarbage()
	}

	obj.Hdr().Next = v.objects
	v.objects = obj
}

// InternString returns the unique ObjString for s, allocating and
// interning it if this is the first time these bytes have been seen.
// Satisfies compiler.Allocator.
func (v *VM) InternString(s string) *bytecode.ObjString {
	hash := bytecode.HashString(s)
	if existing := v.strings.FindString(s, hash); existing != nil {
		return existing
	}

	obj := &bytecode.ObjString{Chars: s, Hash: hash}
	// Stack-parked so the string stays a root through the collection that
	// track below may run.
	v.push(bytecode.FromObj(obj))
	v.track(obj, int64(len(s))+32)
	v.strings.Set(obj, bytecode.Nil)
	v.pop()
	return obj
}

// NewFunction returns a fresh, empty ObjFunction with its chunk allocated.
// Satisfies compiler.Allocator.
func (v *VM) NewFunction() *bytecode.ObjFunction {
	fn := &bytecode.ObjFunction{Chunk: bytecode.NewChunk()}
	v.track(fn, 64)
	return fn
}

// PushCompilerRoot registers fn - the function a nested compiler.Compiler
// has just started building - as a GC root until the matching
// PopCompilerRoot. Compilation runs to completion before Interpret ever
// pushes anything onto the value stack, so without this an in-progress
// function (and the identifiers it has interned as constants so far) has
// no root and would be swept by a collection triggered later in the same
// compile. Satisfies compiler.Allocator.
func (v *VM) PushCompilerRoot(fn *bytecode.ObjFunction) {
	v.compilerRoots = append(v.compilerRoots, fn)
}

// PopCompilerRoot unregisters the innermost compiler root, called when its
// Compiler finishes. Satisfies compiler.Allocator.
func (v *VM) PopCompilerRoot() {
	v.compilerRoots = v.compilerRoots[:len(v.compilerRoots)-1]
}

func (v *VM) newClosure(fn *bytecode.ObjFunction) *bytecode.ObjClosure {
	cl := &bytecode.ObjClosure{Function: fn, Upvalues: make([]*bytecode.ObjUpvalue, fn.UpvalueCount)}
	v.track(cl, 32)
	return cl
}

func (v *VM) newUpvalue(slot *bytecode.Value) *bytecode.ObjUpvalue {
	up := &bytecode.ObjUpvalue{Location: slot}
	v.track(up, 32)
	return up
}

func (v *VM) newClass(name *bytecode.ObjString) *bytecode.ObjClass {
	cls := &bytecode.ObjClass{Name: name, Methods: bytecode.NewTable()}
	v.track(cls, 32)
	return cls
}

func (v *VM) newInstance(class *bytecode.ObjClass) *bytecode.ObjInstance {
	inst := &bytecode.ObjInstance{Class: class, Fields: bytecode.NewTable()}
	v.track(inst, 32)
	return inst
}

func (v *VM) newBoundMethod(receiver bytecode.Value, method *bytecode.ObjClosure) *bytecode.ObjBoundMethod {
	bm := &bytecode.ObjBoundMethod{Receiver: receiver, Method: method}
	v.track(bm, 32)
	return bm
}

func (v *VM) newNative(name string, arity int, fn bytecode.NativeFn) *bytecode.ObjNative {
	n := &bytecode.ObjNative{Name: name, Arity: arity, Function: fn}
	v.track(n, 32)
	return n
}

// Free tears the VM down: every object on the all-objects list is released
// unconditionally, reachable or not, along with the interning and globals
// tables. The VM must not be used after Free.
func (v *VM) Free() {
	obj := v.objects
	for obj != nil {
		next := obj.Hdr().Next
		obj.Hdr().Next = nil
		v.bytesAllocated -= objectSize(obj)
		obj = next
	}
	v.objects = nil
	v.strings = bytecode.NewTable()
	v.globals = bytecode.NewTable()
	v.initStr = nil
	v.resetStack()
}

// collectGarbage runs one full tri-color mark-sweep cycle: mark every root,
// darken the gray worklist to completion, purge the weak interning table of
// anything left unmarked, then sweep the all-objects list.
func (v *VM) collectGarbage() {
	before := v.bytesAllocated

	v.markRoots()
	v.traceReferences()
	v.removeWhiteStrings()
	v.sweep()

	v.nextGC = int64(float64(v.bytesAllocated) * v.heapGrowthFactor)

	if v.logGC {
		fmt.Fprintf(v.stderr, "gc: collected %s, %s -> %s, next at %s\n",
			humanize.Bytes(uint64(before-v.bytesAllocated)),
			humanize.Bytes(uint64(before)),
			humanize.Bytes(uint64(v.bytesAllocated)),
			humanize.Bytes(uint64(v.nextGC)))
	}
}

func (v *VM) markRoots() {
	for i := 0; i < v.stackTop; i++ {
		v.markValue(v.stack[i])
	}

	for i := 0; i < v.frameCount; i++ {
		v.markObject(v.frames[i].closure)
	}

	for up := v.openUps; up != nil; up = up.Next {
		v.markObject(up)
	}

	v.globals.Each(func(key *bytecode.ObjString, value bytecode.Value) {
		v.markObject(key)
		v.markValue(value)
	})

	v.markObject(v.initStr)

	// The chain of enclosing compilers' in-progress functions, per
	// spec.md §4.7.1/§4.7.3 - only live while compiler.Compile is on the
	// call stack above Interpret (see PushCompilerRoot).
	for _, fn := range v.compilerRoots {
		v.markObject(fn)
	}
}

func (v *VM) markValue(value bytecode.Value) {
	if value.IsObj() {
		v.markObject(value.Obj)
	}
}

func (v *VM) markObject(obj bytecode.Obj) {
	// A nil pointer (initStr before New sets it, a script function's Name,
	// a closure upvalue slot not yet filled) arrives as a non-nil interface.
	if obj == nil || reflect.ValueOf(obj).IsNil() {
		return
	}
	header := obj.Hdr()
	if header.Marked {
		return
	}
	header.Marked = true
	v.grayWorklist = append(v.grayWorklist, obj)
}

// traceReferences pops objects off the gray worklist and marks whatever
// they reference, until the worklist is empty (every reachable object is
// black: marked and already processed).
func (v *VM) traceReferences() {
	for len(v.grayWorklist) > 0 {
		n := len(v.grayWorklist) - 1
		obj := v.grayWorklist[n]
		v.grayWorklist = v.grayWorklist[:n]
		v.blackenObject(obj)
	}
}

func (v *VM) blackenObject(obj bytecode.Obj) {
	switch o := obj.(type) {
	case *bytecode.ObjString, *bytecode.ObjNative:
		// no outgoing references
	case *bytecode.ObjFunction:
		v.markObject(o.Name)
		for _, c := range o.Chunk.Constants {
			v.markValue(c)
		}
	case *bytecode.ObjClosure:
		v.markObject(o.Function)
		for _, up := range o.Upvalues {
			v.markObject(up)
		}
	case *bytecode.ObjUpvalue:
		v.markValue(o.Closed)
	case *bytecode.ObjClass:
		v.markObject(o.Name)
		o.Methods.Each(func(key *bytecode.ObjString, value bytecode.Value) {
			v.markObject(key)
			v.markValue(value)
		})
	case *bytecode.ObjInstance:
		v.markObject(o.Class)
		o.Fields.Each(func(key *bytecode.ObjString, value bytecode.Value) {
			v.markObject(key)
			v.markValue(value)
		})
	case *bytecode.ObjBoundMethod:
		v.markValue(o.Receiver)
		v.markObject(o.Method)
	}
}

// removeWhiteStrings purges the interning table of any string that went
// unmarked this cycle: the table holds weak references, so it must not be
// the thing keeping an otherwise-unreachable string alive.
func (v *VM) removeWhiteStrings() {
	var dead []*bytecode.ObjString
	v.strings.Each(func(key *bytecode.ObjString, _ bytecode.Value) {
		if !key.Hdr().Marked {
			dead = append(dead, key)
		}
	})
	for _, k := range dead {
		v.strings.Delete(k)
	}
}

// sweep walks the all-objects list, keeping and unmarking every marked
// object and unlinking everything else.
func (v *VM) sweep() {
	var previous bytecode.Obj
	obj := v.objects

	for obj != nil {
		header := obj.Hdr()
		if header.Marked {
			header.Marked = false
			previous = obj
			obj = header.Next
			continue
		}

		unreached := obj
		obj = header.Next
		if previous != nil {
			previous.Hdr().Next = obj
		} else {
			v.objects = obj
		}
		v.bytesAllocated -= objectSize(unreached)
	}
}

// objectSize is a coarse per-object accounting size; exact byte counts
// don't matter, only that the heap-growth trigger tracks real allocation
// pressure proportionally.
func objectSize(obj bytecode.Obj) int64 {
	switch o := obj.(type) {
	case *bytecode.ObjString:
		return int64(len(o.Chars)) + 32
	case *bytecode.ObjFunction:
		return 64
	default:
		return 32
	}
}
