// Package vm implements the bytecode virtual machine for smog.
//
// The VM is a stack-based interpreter that executes the bytecode the
// compiler package emits. It owns every heap object a program allocates
// (through its tri-color mark-sweep collector, see gc.go), the value and
// call-frame stacks, the globals table, and the interning table that gives
// strings identity equality.
//
// Execution pipeline:
//
//	source -> lexer -> compiler (emits a Chunk) -> vm.Interpret -> output
//
// There is no separate disassemble-and-trace stage in the core loop; that
// lives in pkg/bytecode's disassembler and is wired in only by the CLI's
// disasm subcommand.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/compiler"
)

const (
	defaultFramesMax        = 64
	defaultHeapGrowthFactor = 2.0
)

// InterpretResult classifies how Interpret finished, mirroring the host
// API's three-way result.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// frame is one call-frame stack entry. base indexes the window of the
// VM's value stack the frame's slots alias (slot 0 is the callee or
// receiver); a frame owns nothing collectable itself.
type frame struct {
	closure *bytecode.ObjClosure
	ip      int
	base    int
}

// VM executes compiled chunks. Zero value is not usable; use New.
type VM struct {
	stack      []bytecode.Value
	stackTop   int
	frames     []frame
	frameCount int
	framesMax  int // FRAMES_MAX per spec.md §4.6.1; value stack is framesMax*256 slots

	globals  *bytecode.Table
	strings  *bytecode.Table // interning table; weak, purged each GC cycle
	initStr  *bytecode.ObjString
	openUps  *bytecode.ObjUpvalue // intrusive list, descending stack-slot order

	// compilerRoots mirrors the chain of enclosing compiler.Compiler values
	// currently building a function, innermost last. It exists only while
	// compiler.Compile is running on the call stack above Interpret; see
	// PushCompilerRoot/PopCompilerRoot in gc.go.
	compilerRoots []*bytecode.ObjFunction

	// GC bookkeeping
	objects          bytecode.Obj // all-objects list head
	bytesAllocated   int64
	nextGC           int64
	heapGrowthFactor float64 // nextGC = bytesAllocated * heapGrowthFactor after each cycle
	grayWorklist     []bytecode.Obj
	stressGC         bool
	logGC            bool

	stdout io.Writer
	stderr io.Writer
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithStdout overrides the stream PRINT writes to (default os.Stdout).
func WithStdout(w io.Writer) Option { return func(v *VM) { v.stdout = w } }

// WithStderr overrides the stream the GC log (WithGCLogging) is written to
// (default os.Stderr). Compile and runtime errors are never written here;
// the VM only returns them.
func WithStderr(w io.Writer) Option { return func(v *VM) { v.stderr = w } }

// WithStressGC forces a collection before every single allocation, to
// surface missing-root bugs in development and tests.
func WithStressGC() Option { return func(v *VM) { v.stressGC = true } }

// WithGCLogging prints a one-line summary after every collection.
func WithGCLogging() Option { return func(v *VM) { v.logGC = true } }

// WithInitialGCThreshold overrides the byte count that must be allocated
// before the first collection fires (default 1 MiB).
func WithInitialGCThreshold(bytes int64) Option {
	return func(v *VM) { v.nextGC = bytes }
}

// WithHeapGrowthFactor overrides the multiplier applied to bytesAllocated
// to compute nextGC after each collection (default 2, per spec.md §4.7).
func WithHeapGrowthFactor(factor float64) Option {
	return func(v *VM) { v.heapGrowthFactor = factor }
}

// WithFramesMax overrides FRAMES_MAX, the call-frame stack depth (default
// 64 per spec.md §4.6.1); the value stack is sized framesMax*256 slots to
// match.
func WithFramesMax(n int) Option {
	return func(v *VM) { v.framesMax = n }
}

// New constructs a VM ready to Interpret programs.
func New(opts ...Option) *VM {
	v := &VM{
		globals:          bytecode.NewTable(),
		strings:          bytecode.NewTable(),
		nextGC:           1024 * 1024,
		heapGrowthFactor: defaultHeapGrowthFactor,
		framesMax:        defaultFramesMax,
		stdout:           os.Stdout,
		stderr:           os.Stderr,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.stack = make([]bytecode.Value, v.framesMax*256)
	v.frames = make([]frame, v.framesMax)
	v.initStr = v.InternString("init")
	return v
}

// Interpret compiles and runs a complete program. A non-nil error unwraps
// (errors.As) to *CompileError or *RuntimeError, and carries the Go-level
// stack of the failure point for %+v formatting.
func (v *VM) Interpret(source string) (InterpretResult, error) {
	fn, errs := compiler.Compile(source, v)
	if len(errs) > 0 {
		return InterpretCompileError, newCompileErrors(errs)
	}

	v.push(bytecode.FromObj(fn))
	closure := v.newClosure(fn)
	v.pop()
	v.push(bytecode.FromObj(closure))
	v.callClosure(closure, 0)

	if err := v.run(); err != nil {
		return InterpretRuntimeError, err
	}
	return InterpretOK, nil
}

func (v *VM) push(value bytecode.Value) {
	v.stack[v.stackTop] = value
	v.stackTop++
}

func (v *VM) pop() bytecode.Value {
	v.stackTop--
	return v.stack[v.stackTop]
}

func (v *VM) peek(distance int) bytecode.Value {
	return v.stack[v.stackTop-1-distance]
}

func (v *VM) resetStack() {
	v.stackTop = 0
	v.frameCount = 0
	v.openUps = nil
}

// Push and Pop let an embedder seed or collect values around a native
// call. Native functions themselves
// receive their arguments as a slice instead (see bytecode.NativeFn), so
// these are for host code that calls back into natives it registered.
func (v *VM) Push(value bytecode.Value) { v.push(value) }
func (v *VM) Pop() bytecode.Value       { return v.pop() }

// runtimeError builds a *RuntimeError carrying a trace of every active
// frame, outermost first (RuntimeError.Error prints it deepest first), and
// resets the stack so the VM is reusable after
// the error propagates to the host.
func (v *VM) runtimeError(format string, args ...interface{}) error {
	message := fmt.Sprintf(format, args...)

	trace := make([]StackFrame, 0, v.frameCount)
	for i := 0; i < v.frameCount; i++ {
		fr := &v.frames[i]
		fn := fr.closure.Function
		line := 0
		if fr.ip-1 >= 0 && fr.ip-1 < len(fn.Chunk.Lines) {
			line = fn.Chunk.LineAt(fr.ip - 1)
		}
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		trace = append(trace, StackFrame{Name: name, SourceLine: line})
	}

	v.resetStack()
	return newRuntimeError(message, trace)
}
