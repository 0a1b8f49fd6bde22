package bytecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisassemble_WalksEveryInstructionToTheEnd(t *testing.T) {
	c := NewChunk()
	idx, err := c.AddConstant(Number(1))
	require.NoError(t, err)
	c.Write(byte(OpConstant), 1)
	c.Write(byte(idx), 1)
	c.Write(byte(OpReturn), 1)

	out := Disassemble(c, "test")
	assert.Contains(t, out, "== test ==")
	assert.Contains(t, out, "OP_CONSTANT")
	assert.Contains(t, out, "OP_RETURN")
}

func TestDisassembleInstruction_JumpShowsTarget(t *testing.T) {
	c := NewChunk()
	c.Write(byte(OpJumpIfFalse), 1)
	c.Write(0, 1)
	c.Write(3, 1)
	c.Write(byte(OpPop), 1)

	line, next := DisassembleInstruction(c, 0)
	assert.Contains(t, line, "OP_JUMP_IF_FALSE")
	assert.Contains(t, line, "-> 6")
	assert.Equal(t, 3, next)
}

func TestDisassembleInstruction_ClosureListsUpvaluePairs(t *testing.T) {
	c := NewChunk()
	inner := &ObjFunction{Chunk: NewChunk(), UpvalueCount: 1}
	idx, err := c.AddConstant(FromObj(inner))
	require.NoError(t, err)

	c.Write(byte(OpClosure), 1)
	c.Write(byte(idx), 1)
	c.Write(1, 1) // is_local
	c.Write(0, 1) // index

	line, next := DisassembleInstruction(c, 0)
	assert.True(t, strings.Contains(line, "local 0"))
	assert.Equal(t, 4, next)
}

func TestDisassemble_LineRepeatCollapsesToPipe(t *testing.T) {
	c := NewChunk()
	c.Write(byte(OpNil), 5)
	c.Write(byte(OpPop), 5)

	out := Disassemble(c, "lines")
	assert.Contains(t, out, "   | ")
}
