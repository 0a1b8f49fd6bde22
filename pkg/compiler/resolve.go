package compiler

import (
	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/lexer"
)

// resolveLocal searches this function's locals, innermost scope first, for
// name. depth == -1 marks a local whose initializer is still being
// compiled (declared but not yet defined), which is an error to read: it
// is what catches `var a = a;`.
func (c *Compiler) resolveLocal(name lexer.Token) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if identifiersEqual(c.locals[i].name, name) {
			if c.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue walks the chain of enclosing Compilers looking for name as
// a local there, capturing it as an upvalue at every level in between.
// Reusing an existing upvalue slot when the same variable is captured
// twice in one function keeps OP_CLOSURE's operand list minimal.
func (c *Compiler) resolveUpvalue(name lexer.Token) int {
	if c.enclosing == nil {
		return -1
	}

	if local := c.enclosing.resolveLocal(name); local != -1 {
		c.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(byte(local), true)
	}

	if upvalue := c.enclosing.resolveUpvalue(name); upvalue != -1 {
		return c.addUpvalue(byte(upvalue), false)
	}

	return -1
}

func (c *Compiler) addUpvalue(index byte, isLocal bool) int {
	for i, u := range c.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}

	if len(c.upvalues) >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}

	c.upvalues = append(c.upvalues, upvalueRef{index: index, isLocal: isLocal})
	c.function.UpvalueCount = len(c.upvalues)
	return len(c.upvalues) - 1
}

func (c *Compiler) addLocal(name lexer.Token) {
	if len(c.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable() {
	if c.scopeDepth == 0 {
		return
	}

	name := c.previous
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].depth != -1 && c.locals[i].depth < c.scopeDepth {
			break
		}
		if identifiersEqual(name, c.locals[i].name) {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) identifierConstant(name lexer.Token) byte {
	str := c.alloc.InternString(name.Lexeme)
	return c.makeConstant(bytecode.FromObj(str))
}

func (c *Compiler) parseVariable(errMessage string) byte {
	c.consume(lexer.TokenIdentifier, errMessage)

	c.declareVariable()
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(bytecode.OpDefineGlobal, global)
}
