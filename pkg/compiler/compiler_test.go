package compiler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAllocator is a minimal Allocator good enough for compiler tests: it
// interns strings in a plain map (no GC bookkeeping) and hands back a fresh
// ObjFunction with its Chunk pre-allocated.
type testAllocator struct {
	strings map[string]*bytecode.ObjString
}

func newTestAllocator() *testAllocator {
	return &testAllocator{strings: make(map[string]*bytecode.ObjString)}
}

func (a *testAllocator) InternString(s string) *bytecode.ObjString {
	if existing, ok := a.strings[s]; ok {
		return existing
	}
	obj := &bytecode.ObjString{Chars: s, Hash: bytecode.HashString(s)}
	a.strings[s] = obj
	return obj
}

func (a *testAllocator) NewFunction() *bytecode.ObjFunction {
	return &bytecode.ObjFunction{Chunk: bytecode.NewChunk()}
}

func (a *testAllocator) PushCompilerRoot(fn *bytecode.ObjFunction) {}
func (a *testAllocator) PopCompilerRoot()                          {}

func compileOK(t *testing.T, source string) *bytecode.ObjFunction {
	t.Helper()
	fn, errs := Compile(source, newTestAllocator())
	require.Empty(t, errs, "expected no compile errors, got %v", errs)
	require.NotNil(t, fn)
	return fn
}

// opcodes dry-run decodes fn's chunk, returning one OpCode per
// instruction. It fails the test if the stream does not decode to exactly
// its end - an instruction with a truncated operand would walk past it.
func opcodes(t *testing.T, fn *bytecode.ObjFunction) []bytecode.OpCode {
	t.Helper()
	var ops []bytecode.OpCode
	code := fn.Chunk.Code
	i := 0
	for i < len(code) {
		op := bytecode.OpCode(code[i])
		ops = append(ops, op)
		i += instructionWidth(fn.Chunk, i)
	}
	require.Equal(t, len(code), i, "instruction stream must decode to exactly its end")
	return ops
}

// instructionWidth mirrors the operand widths the disassembler uses,
// including the opcode byte itself. OP_CLOSURE's width depends on the
// upvalue count of the function constant it loads.
func instructionWidth(c *bytecode.Chunk, offset int) int {
	op := bytecode.OpCode(c.ByteAt(offset))
	switch op {
	case bytecode.OpConstant, bytecode.OpGetLocal, bytecode.OpSetLocal,
		bytecode.OpGetGlobal, bytecode.OpDefineGlobal, bytecode.OpSetGlobal,
		bytecode.OpGetUpvalue, bytecode.OpSetUpvalue, bytecode.OpGetProperty,
		bytecode.OpSetProperty, bytecode.OpGetSuper, bytecode.OpCall, bytecode.OpClass,
		bytecode.OpMethod:
		return 2
	case bytecode.OpInvoke, bytecode.OpSuperInvoke:
		return 3
	case bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpLoop:
		return 3
	case bytecode.OpClosure:
		fn := c.ConstantAt(int(c.ByteAt(offset + 1))).Obj.(*bytecode.ObjFunction)
		return 2 + 2*fn.UpvalueCount
	default:
		return 1
	}
}

func TestCompile_ArithmeticPrecedence(t *testing.T) {
	fn := compileOK(t, "1 + 2 * 3;")
	ops := opcodes(t, fn)
	assert.Contains(t, ops, bytecode.OpMultiply)
	assert.Contains(t, ops, bytecode.OpAdd)

	// multiply must appear before add: "2 * 3" is folded before "1 + _".
	var mulIdx, addIdx int
	for i, op := range ops {
		if op == bytecode.OpMultiply {
			mulIdx = i
		}
		if op == bytecode.OpAdd {
			addIdx = i
		}
	}
	assert.Less(t, mulIdx, addIdx)
}

func TestCompile_GlobalVariable(t *testing.T) {
	fn := compileOK(t, "var x = 1; print x;")
	ops := opcodes(t, fn)
	assert.Contains(t, ops, bytecode.OpDefineGlobal)
	assert.Contains(t, ops, bytecode.OpGetGlobal)
	assert.Contains(t, ops, bytecode.OpPrint)
}

func TestCompile_LocalsUseSlotsNotGlobals(t *testing.T) {
	fn := compileOK(t, "{ var x = 1; print x; }")
	ops := opcodes(t, fn)
	assert.NotContains(t, ops, bytecode.OpDefineGlobal)
	assert.Contains(t, ops, bytecode.OpGetLocal)
}

func TestCompile_ClosureCapturesUpvalue(t *testing.T) {
	fn := compileOK(t, `
		fun outer() {
			var x = "captured";
			fun inner() {
				print x;
			}
			return inner;
		}
	`)
	ops := opcodes(t, fn)
	assert.Contains(t, ops, bytecode.OpClosure)
}

func TestCompile_IfElseEmitsJumps(t *testing.T) {
	fn := compileOK(t, `if (true) { print 1; } else { print 2; }`)
	ops := opcodes(t, fn)
	assert.Contains(t, ops, bytecode.OpJumpIfFalse)
	assert.Contains(t, ops, bytecode.OpJump)
}

func TestCompile_WhileEmitsLoop(t *testing.T) {
	fn := compileOK(t, `while (true) { print 1; }`)
	assert.Contains(t, opcodes(t, fn), bytecode.OpLoop)
}

func TestCompile_ForDesugarsToLoop(t *testing.T) {
	fn := compileOK(t, `for (var i = 0; i < 3; i = i + 1) { print i; }`)
	ops := opcodes(t, fn)
	assert.Contains(t, ops, bytecode.OpLoop)
	assert.Contains(t, ops, bytecode.OpJumpIfFalse)
}

func TestCompile_ClassWithInheritanceAndSuper(t *testing.T) {
	fn := compileOK(t, `
		class Animal {
			speak() { print "..."; }
		}
		class Dog < Animal {
			speak() {
				super.speak();
				print "Woof";
			}
		}
	`)
	ops := opcodes(t, fn)
	assert.Contains(t, ops, bytecode.OpClass)
	assert.Contains(t, ops, bytecode.OpInherit)
	assert.Contains(t, ops, bytecode.OpMethod)
	assert.Contains(t, ops, bytecode.OpSuperInvoke)
}

func TestCompile_MethodCallUsesInvoke(t *testing.T) {
	fn := compileOK(t, `
		class Greeter {
			hello() { print "hi"; }
		}
		var g = Greeter();
		g.hello();
	`)
	assert.Contains(t, opcodes(t, fn), bytecode.OpInvoke)
}

func TestCompile_ErrorSelfInheritance(t *testing.T) {
	_, errs := Compile(`class Oops < Oops {}`, newTestAllocator())
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "can't inherit from itself")
}

func TestCompile_ErrorReturnAtTopLevel(t *testing.T) {
	_, errs := Compile(`return 1;`, newTestAllocator())
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "Can't return from top-level code")
}

func TestCompile_ErrorThisOutsideClass(t *testing.T) {
	_, errs := Compile(`print this;`, newTestAllocator())
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "Can't use 'this' outside of a class")
}

func TestCompile_ConstantOverflowCarriesChunkSentinel(t *testing.T) {
	var src strings.Builder
	src.WriteString("print 0")
	for i := 1; i < 300; i++ {
		fmt.Fprintf(&src, " + %d", i)
	}
	src.WriteString(";")

	_, errs := Compile(src.String(), newTestAllocator())
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], bytecode.ErrTooManyConstants)

	var ce *CompileError
	require.ErrorAs(t, errs[0], &ce)
	assert.Equal(t, "Too many constants in one chunk.", ce.Message)
}

func TestCompile_AccumulatesMultipleErrors(t *testing.T) {
	_, errs := Compile(`
		print ;
		var = 1;
	`, newTestAllocator())
	assert.GreaterOrEqual(t, len(errs), 2)
}

func TestCompile_LogicalOperatorsShortCircuit(t *testing.T) {
	fn := compileOK(t, `print true and false or true;`)
	ops := opcodes(t, fn)
	assert.Contains(t, ops, bytecode.OpJumpIfFalse)
	assert.Contains(t, ops, bytecode.OpJump)
}
