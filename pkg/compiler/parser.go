package compiler

import (
	"fmt"

	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/lexer"
)

// Allocator is the explicit compilation context the compiler needs to
// create heap objects: interned strings for identifiers/literals and a
// fresh ObjFunction per nested function being compiled. The VM implements
// it, so every allocation is linked into the VM's all-objects list and the
// interning table the moment it exists - there is no process-global
// compiler state the way the source this is grounded on uses.
//
// PushCompilerRoot/PopCompilerRoot let the VM's collector see the chain of
// enclosing compilers' in-progress functions as roots: compilation can
// trigger a GC cycle (interning an identifier, adding a constant) long
// before the function it belongs to is reachable from the value stack.
type Allocator interface {
	InternString(s string) *bytecode.ObjString
	NewFunction() *bytecode.ObjFunction
	PushCompilerRoot(fn *bytecode.ObjFunction)
	PopCompilerRoot()
}

// compilerCore is the state shared by every nested *Compiler in one
// compilation: the token stream, panic-mode bookkeeping, the accumulated
// error list, and the innermost active class. Compiler embeds it so
// parsing helpers (advance, consume, match, ...) are available on every
// nested Compiler via Go's method promotion, without a package-level
// singleton.
type compilerCore struct {
	lex   *lexer.Lexer
	alloc Allocator

	current  lexer.Token
	previous lexer.Token

	hadError  bool
	panicMode bool
	errors    []error

	currentClass *classCompiler
}

func (p *compilerCore) advance() {
	p.previous = p.current
	for {
		p.current = p.lex.NextToken()
		if p.current.Type != lexer.TokenError {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *compilerCore) check(t lexer.TokenType) bool {
	return p.current.Type == t
}

func (p *compilerCore) match(t lexer.TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *compilerCore) consume(t lexer.TokenType, message string) {
	if p.current.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *compilerCore) errorAtCurrent(message string) { p.errorAt(p.current, message) }
func (p *compilerCore) error(message string)          { p.errorAt(p.previous, message) }

func (p *compilerCore) errorAt(tok lexer.Token, message string) {
	p.errorAtCause(tok, message, nil)
}

// errorWithCause reports a diagnostic raised by a lower layer (a chunk
// limit), keeping cause attached so the host can errors.Is against the
// bytecode package's sentinels.
func (p *compilerCore) errorWithCause(cause error, message string) {
	p.errorAtCause(p.previous, message, cause)
}

func (p *compilerCore) errorAtCause(tok lexer.Token, message string, cause error) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	var where string
	switch tok.Type {
	case lexer.TokenEOF:
		where = "end"
	case lexer.TokenError:
		where = ""
	default:
		where = fmt.Sprintf("'%s'", tok.Lexeme)
	}
	p.errors = append(p.errors, newCompileError(tok.Line, where, message, cause))
}

// synchronize recovers from a parse error by advancing to the start of the
// next statement: past a semicolon, or up to a token that begins a
// declaration or statement. This lets one Compile call surface multiple
// independent errors instead of aborting at the first one.
func (p *compilerCore) synchronize() {
	p.panicMode = false

	for p.current.Type != lexer.TokenEOF {
		if p.previous.Type == lexer.TokenSemicolon {
			return
		}
		switch p.current.Type {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn:
			return
		}
		p.advance()
	}
}
