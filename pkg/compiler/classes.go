package compiler

import (
	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/lexer"
)

// compileFunction compiles one function's parameter list and body in a fresh,
// nested Compiler, then emits OP_CLOSURE into the *enclosing* chunk along
// with the (is_local, index) pair for each upvalue it captured.
func (c *Compiler) compileFunction(fnType FunctionType) {
	inner := newCompiler(c.compilerCore, c, fnType)
	inner.beginScope()

	inner.consume(lexer.TokenLeftParen, "Expect '(' after function name.")
	if !inner.check(lexer.TokenRightParen) {
		for {
			inner.function.Arity++
			if inner.function.Arity > 255 {
				inner.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := inner.parseVariable("Expect parameter name.")
			inner.defineVariable(constant)
			if !inner.match(lexer.TokenComma) {
				break
			}
		}
	}
	inner.consume(lexer.TokenRightParen, "Expect ')' after parameters.")
	inner.consume(lexer.TokenLeftBrace, "Expect '{' before function body.")
	inner.block()

	fn := inner.endCompiler()

	idx := c.makeConstant(bytecode.FromObj(fn))
	c.emitBytes(bytecode.OpClosure, idx)
	for _, uv := range inner.upvalues {
		if uv.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.index)
	}
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.compileFunction(typeFunction)
	c.defineVariable(global)
}

func (c *Compiler) method() {
	c.consume(lexer.TokenIdentifier, "Expect method name.")
	name := c.previous
	constant := c.identifierConstant(name)

	fnType := typeMethod
	if name.Lexeme == "init" {
		fnType = typeInitializer
	}
	c.compileFunction(fnType)
	c.emitBytes(bytecode.OpMethod, constant)
}

// classDeclaration compiles a class the way OP_INHERIT expects: the
// superclass's method table is bulk-copied into the subclass's at runtime,
// not chain-walked on every lookup, so "super" needs its own captured local
// the way a closed-over variable would.
func (c *Compiler) classDeclaration() {
	c.consume(lexer.TokenIdentifier, "Expect class name.")
	className := c.previous
	nameConstant := c.identifierConstant(className)
	c.declareVariable()

	c.emitBytes(bytecode.OpClass, nameConstant)
	c.defineVariable(nameConstant)

	classCompilerState := &classCompiler{enclosing: c.currentClass}
	c.currentClass = classCompilerState

	if c.match(lexer.TokenLess) {
		c.consume(lexer.TokenIdentifier, "Expect superclass name.")
		c.variable(false)

		if identifiersEqual(className, c.previous) {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal(syntheticToken("super"))
		c.defineVariable(0)

		c.namedVariable(className, false)
		c.emitOp(bytecode.OpInherit)
		classCompilerState.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(lexer.TokenLeftBrace, "Expect '{' before class body.")
	for !c.check(lexer.TokenRightBrace) && !c.check(lexer.TokenEOF) {
		c.method()
	}
	c.consume(lexer.TokenRightBrace, "Expect '}' after class body.")
	c.emitOp(bytecode.OpPop)

	if classCompilerState.hasSuperclass {
		c.endScope()
	}

	c.currentClass = classCompilerState.enclosing
}
