// Command smog runs the bytecode compiler and VM from the command line:
// "smog run file.smog" executes a script, bare "smog" (or "smog repl")
// starts an interactive prompt. Everything here is CLI glue: the language
// core (pkg/lexer, pkg/compiler, pkg/bytecode, pkg/vm) doesn't know this
// package exists.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/vm"
)

const version = "0.1.0"

// Exit codes, matching the CLI convention documented for this front end.
const (
	exitOK           = 0
	exitUsageError   = 64
	exitCompileError = 65
	exitRuntimeError = 70
)

func vmOptions(cfg vmConfig) []vm.Option {
	opts := []vm.Option{
		vm.WithInitialGCThreshold(cfg.InitialGCThreshold),
		vm.WithHeapGrowthFactor(cfg.HeapGrowthFactor),
		vm.WithFramesMax(cfg.FramesMax),
	}
	if cfg.StressGC {
		opts = append(opts, vm.WithStressGC())
	}
	if cfg.LogGC {
		opts = append(opts, vm.WithGCLogging())
	}
	return opts
}

func main() {
	os.Exit(run())
}

// debugTraces switches printDiagnostic to %+v formatting, which renders
// the pkg/errors cause chain and the Go-level stack recorded where the
// compiler or VM raised the error.
var debugTraces bool

func run() int {
	var configPath string

	root := &cobra.Command{
		Use:           "smog",
		Short:         "smog is a bytecode compiler and VM for a small dynamic language",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		// Bare `smog` with no subcommand starts the REPL.
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return exitError(runREPL(cfg))
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a VM tunables YAML file")
	root.PersistentFlags().BoolVar(&debugTraces, "debug", false, "include Go-level stack traces in diagnostics")

	root.AddCommand(
		newRunCmd(&configPath),
		newReplCmd(&configPath),
		newDisasmCmd(),
	)

	if err := root.Execute(); err != nil {
		if ee, ok := err.(exitError); ok {
			return int(ee)
		}
		fmt.Fprintln(os.Stderr, err)
		return exitUsageError
	}
	return exitOK
}

// exitError lets a cobra RunE carry a precise process exit code back to
// main without cobra printing its own generic error wrapper for it.
type exitError int

func (e exitError) Error() string { return "" }

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run [file]",
		Short: "compile and execute a .smog source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return exitError(runFile(args[0], cfg))
		},
	}
}

func newReplCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "start an interactive read-eval-print loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return exitError(runREPL(cfg))
		},
	}
}

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm [file]",
		Short: "compile a .smog file and print its disassembly, without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitError(disassembleFile(args[0]))
		},
	}
}

func runFile(path string, cfg vmConfig) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsageError
	}

	machine := vm.New(vmOptions(cfg)...)
	registerNatives(machine)
	result, runErr := machine.Interpret(string(source))
	if runErr != nil {
		printDiagnostic(runErr)
		switch result {
		case vm.InterpretCompileError:
			return exitCompileError
		case vm.InterpretRuntimeError:
			return exitRuntimeError
		}
	}
	return exitOK
}

func disassembleFile(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsageError
	}

	alloc := &disasmAllocator{}
	fn, errs := compiler.Compile(string(source), alloc)
	if len(errs) > 0 {
		for _, e := range errs {
			printDiagnostic(e)
		}
		return exitCompileError
	}

	fmt.Print(bytecode.Disassemble(fn.Chunk, path))
	return exitOK
}

func printDiagnostic(err error) {
	message := err.Error()
	if debugTraces {
		message = fmt.Sprintf("%+v", err)
	}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		color.New(color.FgRed).Fprintln(os.Stderr, message)
		return
	}
	fmt.Fprintln(os.Stderr, message)
}

// disasmAllocator is a throwaway compiler.Allocator for the disasm
// subcommand: it never runs the program, so it needs no GC bookkeeping or
// interning, only unique objects for the compiler to attach to the chunk.
type disasmAllocator struct {
	strings map[string]*bytecode.ObjString
}

func (a *disasmAllocator) InternString(s string) *bytecode.ObjString {
	if a.strings == nil {
		a.strings = make(map[string]*bytecode.ObjString)
	}
	if existing, ok := a.strings[s]; ok {
		return existing
	}
	obj := &bytecode.ObjString{Chars: s, Hash: bytecode.HashString(s)}
	a.strings[s] = obj
	return obj
}

func (a *disasmAllocator) NewFunction() *bytecode.ObjFunction {
	return &bytecode.ObjFunction{Chunk: bytecode.NewChunk()}
}

// PushCompilerRoot/PopCompilerRoot are no-ops: this allocator never
// collects, so it has no roots to track.
func (a *disasmAllocator) PushCompilerRoot(fn *bytecode.ObjFunction) {}
func (a *disasmAllocator) PopCompilerRoot()                          {}
