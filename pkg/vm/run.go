package vm

import (
	"fmt"

	"github.com/kristofer/smog/pkg/bytecode"
)

func (v *VM) readByte(fr *frame) byte {
	b := fr.closure.Function.Chunk.ByteAt(fr.ip)
	fr.ip++
	return b
}

func (v *VM) readShort(fr *frame) int {
	hi := v.readByte(fr)
	lo := v.readByte(fr)
	return int(hi)<<8 | int(lo)
}

func (v *VM) readConstant(fr *frame) bytecode.Value {
	return fr.closure.Function.Chunk.ConstantAt(int(v.readByte(fr)))
}

func (v *VM) readString(fr *frame) *bytecode.ObjString {
	return v.readConstant(fr).Obj.(*bytecode.ObjString)
}

// run is the fetch-decode-execute loop. It always operates on the
// innermost active frame, re-fetched at the top of the loop since a CALL or
// RETURN changes which frame is current.
func (v *VM) run() error {
	for {
		fr := &v.frames[v.frameCount-1]
		op := bytecode.OpCode(v.readByte(fr))

		switch op {
		case bytecode.OpConstant:
			v.push(v.readConstant(fr))

		case bytecode.OpNil:
			v.push(bytecode.Nil)
		case bytecode.OpTrue:
			v.push(bytecode.Bool(true))
		case bytecode.OpFalse:
			v.push(bytecode.Bool(false))
		case bytecode.OpPop:
			v.pop()

		case bytecode.OpGetLocal:
			slot := int(v.readByte(fr))
			v.push(v.stack[fr.base+slot])
		case bytecode.OpSetLocal:
			slot := int(v.readByte(fr))
			v.stack[fr.base+slot] = v.peek(0)

		case bytecode.OpGetGlobal:
			name := v.readString(fr)
			value, ok := v.globals.Get(name)
			if !ok {
				return v.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			v.push(value)
		case bytecode.OpDefineGlobal:
			name := v.readString(fr)
			v.globals.Set(name, v.peek(0))
			v.pop()
		case bytecode.OpSetGlobal:
			name := v.readString(fr)
			if v.globals.Set(name, v.peek(0)) {
				v.globals.Delete(name)
				return v.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case bytecode.OpGetUpvalue:
			slot := int(v.readByte(fr))
			v.push(*fr.closure.Upvalues[slot].Location)
		case bytecode.OpSetUpvalue:
			slot := int(v.readByte(fr))
			*fr.closure.Upvalues[slot].Location = v.peek(0)

		case bytecode.OpGetProperty:
			if !v.peek(0).IsObjType(bytecode.ObjTypeInstance) {
				return v.runtimeError("Only instances have properties.")
			}
			instance := v.peek(0).Obj.(*bytecode.ObjInstance)
			name := v.readString(fr)

			if value, ok := instance.Fields.Get(name); ok {
				v.pop()
				v.push(value)
				break
			}
			if err := v.bindMethod(instance.Class, name); err != nil {
				return err
			}

		case bytecode.OpSetProperty:
			if !v.peek(1).IsObjType(bytecode.ObjTypeInstance) {
				return v.runtimeError("Only instances have fields.")
			}
			instance := v.peek(1).Obj.(*bytecode.ObjInstance)
			name := v.readString(fr)
			instance.Fields.Set(name, v.peek(0))

			value := v.pop()
			v.pop()
			v.push(value)

		case bytecode.OpGetSuper:
			name := v.readString(fr)
			superclass := v.pop().Obj.(*bytecode.ObjClass)
			if err := v.bindMethod(superclass, name); err != nil {
				return err
			}

		case bytecode.OpEqual:
			b := v.pop()
			a := v.pop()
			v.push(bytecode.Bool(bytecode.Equal(a, b)))
		case bytecode.OpGreater:
			if err := v.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Bool(a > b) }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := v.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Bool(a < b) }); err != nil {
				return err
			}

		case bytecode.OpAdd:
			if err := v.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := v.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Number(a - b) }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := v.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Number(a * b) }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := v.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Number(a / b) }); err != nil {
				return err
			}

		case bytecode.OpNot:
			v.push(bytecode.Bool(v.pop().IsFalsy()))
		case bytecode.OpNegate:
			if !v.peek(0).IsNumber() {
				return v.runtimeError("Operand must be a number.")
			}
			v.push(bytecode.Number(-v.pop().Number))

		case bytecode.OpPrint:
			fmt.Fprintln(v.stdout, v.pop().String())

		case bytecode.OpJump:
			offset := v.readShort(fr)
			fr.ip += offset
		case bytecode.OpJumpIfFalse:
			offset := v.readShort(fr)
			if v.peek(0).IsFalsy() {
				fr.ip += offset
			}
		case bytecode.OpLoop:
			offset := v.readShort(fr)
			fr.ip -= offset

		case bytecode.OpCall:
			argCount := int(v.readByte(fr))
			if err := v.callValue(v.peek(argCount), argCount); err != nil {
				return err
			}
		case bytecode.OpInvoke:
			method := v.readString(fr)
			argCount := int(v.readByte(fr))
			if err := v.invoke(method, argCount); err != nil {
				return err
			}
		case bytecode.OpSuperInvoke:
			method := v.readString(fr)
			argCount := int(v.readByte(fr))
			superclass := v.pop().Obj.(*bytecode.ObjClass)
			if err := v.invokeFromClass(superclass, method, argCount); err != nil {
				return err
			}

		case bytecode.OpClosure:
			fn := v.readConstant(fr).Obj.(*bytecode.ObjFunction)
			closure := v.newClosure(fn)
			v.push(bytecode.FromObj(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := v.readByte(fr)
				index := v.readByte(fr)
				if isLocal != 0 {
					closure.Upvalues[i] = v.captureUpvalue(&v.stack[fr.base+int(index)])
				} else {
					closure.Upvalues[i] = fr.closure.Upvalues[index]
				}
			}

		case bytecode.OpCloseUpvalue:
			v.closeUpvaluesAbove(&v.stack[v.stackTop-1])
			v.pop()

		case bytecode.OpReturn:
			result := v.pop()
			v.closeUpvaluesAbove(&v.stack[fr.base])
			v.frameCount--
			if v.frameCount == 0 {
				v.pop()
				return nil
			}
			v.stackTop = fr.base
			v.push(result)

		case bytecode.OpClass:
			name := v.readString(fr)
			v.push(bytecode.FromObj(v.newClass(name)))

		case bytecode.OpInherit:
			superclassVal := v.peek(1)
			if !superclassVal.IsObjType(bytecode.ObjTypeClass) {
				return v.runtimeError("Superclass must be a class.")
			}
			superclass := superclassVal.Obj.(*bytecode.ObjClass)
			subclass := v.peek(0).Obj.(*bytecode.ObjClass)
			subclass.Methods.AddAll(superclass.Methods)
			v.pop()

		case bytecode.OpMethod:
			name := v.readString(fr)
			method := v.peek(0)
			class := v.peek(1).Obj.(*bytecode.ObjClass)
			class.Methods.Set(name, method)
			v.pop()

		default:
			return v.runtimeError("Unknown opcode %d.", op)
		}
	}
}

func (v *VM) binaryNumberOp(op func(a, b float64) bytecode.Value) error {
	if !v.peek(0).IsNumber() || !v.peek(1).IsNumber() {
		return v.runtimeError("Operands must be numbers.")
	}
	b := v.pop()
	a := v.pop()
	v.push(op(a.Number, b.Number))
	return nil
}

func (v *VM) add() error {
	switch {
	case v.peek(0).IsObjType(bytecode.ObjTypeString) && v.peek(1).IsObjType(bytecode.ObjTypeString):
		b := v.pop().Obj.(*bytecode.ObjString)
		a := v.pop().Obj.(*bytecode.ObjString)
		// InternString itself stack-parks the new object before it can
		// trigger a collection, so nothing further is needed here.
		concatenated := v.InternString(a.Chars + b.Chars)
		v.push(bytecode.FromObj(concatenated))
		return nil
	case v.peek(0).IsNumber() && v.peek(1).IsNumber():
		b := v.pop()
		a := v.pop()
		v.push(bytecode.Number(a.Number + b.Number))
		return nil
	default:
		return v.runtimeError("Operands must be two numbers or two strings.")
	}
}
