package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders every instruction in c as human-readable text, one
// line per instruction, prefixed by name. It exists for debugging and
// tests; the VM's execution loop never calls it.
func Disassemble(c *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		var line string
		line, offset = DisassembleInstruction(c, offset)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// DisassembleInstruction formats the single instruction at offset and
// returns the offset of the next instruction.
func DisassembleInstruction(c *Chunk, offset int) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)
	if offset > 0 && c.LineAt(offset) == c.LineAt(offset-1) {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", c.LineAt(offset))
	}

	op := OpCode(c.ByteAt(offset))
	switch op {
	case OpConstant, OpDefineGlobal, OpGetGlobal, OpSetGlobal,
		OpClass, OpMethod, OpGetProperty, OpSetProperty, OpGetSuper:
		return b.String() + constantInstruction(op, c, offset), offset + 2
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		return b.String() + byteInstruction(op, c, offset), offset + 2
	case OpInvoke, OpSuperInvoke:
		return b.String() + invokeInstruction(op, c, offset), offset + 3
	case OpJump, OpJumpIfFalse:
		return b.String() + jumpInstruction(op, 1, c, offset), offset + 3
	case OpLoop:
		return b.String() + jumpInstruction(op, -1, c, offset), offset + 3
	case OpClosure:
		return closureInstruction(b.String(), c, offset)
	default:
		return b.String() + op.String(), offset + 1
	}
}

func constantInstruction(op OpCode, c *Chunk, offset int) string {
	constant := c.ByteAt(offset + 1)
	return fmt.Sprintf("%-16s %4d '%s'", op, constant, c.ConstantAt(int(constant)))
}

func byteInstruction(op OpCode, c *Chunk, offset int) string {
	slot := c.ByteAt(offset + 1)
	return fmt.Sprintf("%-16s %4d", op, slot)
}

func invokeInstruction(op OpCode, c *Chunk, offset int) string {
	constant := c.ByteAt(offset + 1)
	argCount := c.ByteAt(offset + 2)
	return fmt.Sprintf("%-16s (%d args) %4d '%s'", op, argCount, constant, c.ConstantAt(int(constant)))
}

func jumpInstruction(op OpCode, sign int, c *Chunk, offset int) string {
	jump := int(c.ByteAt(offset+1))<<8 | int(c.ByteAt(offset+2))
	target := offset + 3 + sign*jump
	return fmt.Sprintf("%-16s %4d -> %d", op, offset, target)
}

func closureInstruction(prefix string, c *Chunk, offset int) (string, int) {
	var b strings.Builder
	b.WriteString(prefix)
	offset++
	constant := c.ByteAt(offset)
	offset++
	fmt.Fprintf(&b, "%-16s %4d '%s'", OpClosure, constant, c.ConstantAt(int(constant)))

	fn, ok := c.ConstantAt(int(constant)).Obj.(*ObjFunction)
	if ok {
		for i := 0; i < fn.UpvalueCount; i++ {
			isLocal := c.ByteAt(offset)
			offset++
			index := c.ByteAt(offset)
			offset++
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			fmt.Fprintf(&b, "\n%04d      |                     %s %d", offset-2, kind, index)
		}
	}
	return b.String(), offset
}
