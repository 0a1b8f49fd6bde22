package vm

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// StackFrame is one entry in a RuntimeError's trace: the function a call
// frame was executing and the source line its instruction pointer had
// reached when the error fired.
type StackFrame struct {
	Name       string // "script" for the top-level frame, else the function name
	SourceLine int
}

// RuntimeError reports a runtime failure together with the call stack at
// the moment it happened. StackTrace lists frames outermost (the script)
// first; Error renders them deepest frame first, the order the host API's
// textual trace uses.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for i := len(e.StackTrace) - 1; i >= 0; i-- {
		frame := e.StackTrace[i]
		fmt.Fprintf(&b, "\n[line %d] in %s", frame.SourceLine, frame.Name)
	}
	return b.String()
}

// newRuntimeError attaches the Go-level stack of the failing opcode handler
// to the language-level trace: err.Error() renders the [line N] trace, %+v
// additionally renders where inside the VM the error was raised (printed by
// cmd/smog's --debug flag). errors.As still reaches the *RuntimeError.
func newRuntimeError(message string, stack []StackFrame) error {
	return errors.WithStack(&RuntimeError{Message: message, StackTrace: stack})
}

// CompileError is returned from Interpret when the compiler accumulated one
// or more diagnostics; it joins them with newlines for display while still
// letting a caller unwrap the first one.
type CompileError struct {
	Errors []error
}

func (e *CompileError) Error() string {
	var b strings.Builder
	for i, err := range e.Errors {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the first diagnostic, whose own cause chain reaches the
// bytecode package's chunk-limit sentinels when one of those is what failed
// the compile - so errors.Is(err, bytecode.ErrTooManyConstants) works from
// the host without touching compiler internals.
func (e *CompileError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0]
}

func newCompileErrors(errs []error) error {
	return errors.WithStack(&CompileError{Errors: errs})
}
