// Package compiler turns Lox source straight into bytecode in a single
// pass: there is no intermediate AST. Each Compiler value corresponds to
// one function body (the top-level script counts as one); nested function
// declarations push a new Compiler chained to its enclosing one through the
// enclosing field, which is how local/upvalue resolution walks outward.
package compiler

import (
	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/lexer"
)

// FunctionType tells a Compiler what kind of function body it is compiling,
// since that changes how slot 0 is reserved and what a bare "return" emits.
type FunctionType int

const (
	typeFunction FunctionType = iota
	typeScript
	typeMethod
	typeInitializer
)

type local struct {
	name       lexer.Token
	depth      int
	isCaptured bool
}

type upvalueRef struct {
	index   byte
	isLocal bool
}

type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

const maxLocals = 256
const maxUpvalues = 256

// Compiler compiles one function body. *compilerCore is embedded so the
// shared parser/error state (current/previous tokens, advance/consume/
// match/error/synchronize) is reachable directly on any Compiler value via
// method promotion, without a package-level singleton.
type Compiler struct {
	*compilerCore

	enclosing *Compiler
	function  *bytecode.ObjFunction
	fnType    FunctionType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

// Compile compiles a complete program into a top-level <script> function.
// It never stops at the first error: every syntax error found is collected
// and returned, synchronizing at statement boundaries in between. A nil
// function return means compilation failed outright (e.g. no errors were
// recoverable into a usable chunk); check len(errs) > 0 either way before
// trusting the function for execution.
func Compile(source string, alloc Allocator) (*bytecode.ObjFunction, []error) {
	core := &compilerCore{lex: lexer.New(source), alloc: alloc}
	c := newCompiler(core, nil, typeScript)

	core.advance()
	for !c.match(lexer.TokenEOF) {
		c.declaration()
	}

	fn := c.endCompiler()
	if core.hadError {
		return nil, core.errors
	}
	return fn, nil
}

func newCompiler(core *compilerCore, enclosing *Compiler, fnType FunctionType) *Compiler {
	fn := core.alloc.NewFunction()
	// Rooted before anything else can allocate (and so trigger a GC cycle)
	// on this function's behalf - see Allocator's doc comment.
	core.alloc.PushCompilerRoot(fn)

	c := &Compiler{
		compilerCore: core,
		enclosing:    enclosing,
		function:     fn,
		fnType:       fnType,
	}

	if fnType != typeScript {
		c.function.Name = core.alloc.InternString(core.previous.Lexeme)
	}

	// Slot 0 is reserved. Methods and initializers bind it to "this";
	// plain functions and the top-level script leave it unnamed so user
	// code can never resolve it as a local.
	slotName := lexer.Token{Lexeme: ""}
	if fnType == typeMethod || fnType == typeInitializer {
		slotName = lexer.Token{Type: lexer.TokenThis, Lexeme: "this"}
	}
	c.locals = append(c.locals, local{name: slotName, depth: 0})

	return c
}

func (c *Compiler) currentChunk() *bytecode.Chunk {
	return c.function.Chunk
}

func (c *Compiler) emitByte(b byte) {
	c.currentChunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op bytecode.OpCode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitBytes(op bytecode.OpCode, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)

	offset := c.currentChunk().Len() - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte((offset >> 8) & 0xff))
	c.emitByte(byte(offset & 0xff))
}

// emitJump emits a jump instruction with a placeholder 16-bit operand and
// returns the offset of its first operand byte, to be patched later once
// the jump target is known.
func (c *Compiler) emitJump(op bytecode.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.currentChunk().Len() - 2
}

func (c *Compiler) patchJump(offset int) {
	if err := c.currentChunk().PatchJump(offset); err != nil {
		c.errorWithCause(err, "Too much code to jump over.")
	}
}

func (c *Compiler) emitReturn() {
	if c.fnType == typeInitializer {
		c.emitBytes(bytecode.OpGetLocal, 0)
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) makeConstant(v bytecode.Value) byte {
	idx, err := c.currentChunk().AddConstant(v)
	if err != nil {
		c.errorWithCause(err, "Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v bytecode.Value) {
	c.emitBytes(bytecode.OpConstant, c.makeConstant(v))
}

func (c *Compiler) endCompiler() *bytecode.ObjFunction {
	c.emitReturn()
	c.alloc.PopCompilerRoot()
	return c.function
}

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		if c.locals[len(c.locals)-1].isCaptured {
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			c.emitOp(bytecode.OpPop)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func identifiersEqual(a, b lexer.Token) bool {
	return a.Lexeme == b.Lexeme
}

func syntheticToken(text string) lexer.Token {
	return lexer.Token{Type: lexer.TokenIdentifier, Lexeme: text}
}
