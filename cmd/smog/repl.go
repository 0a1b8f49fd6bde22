package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/kristofer/smog/pkg/vm"
)

const historyFile = ".smog_history"

// runREPL drives an interactive read-eval-print loop. Each line is
// compiled and run against the same *vm.VM, so top-level var/fun/class
// declarations from earlier lines remain visible to later ones.
func runREPL(cfg vmConfig) int {
	interactive := isatty.IsTerminal(os.Stdout.Fd())

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	machine := vm.New(vmOptions(cfg)...)
	registerNatives(machine)

	if interactive {
		fmt.Println("smog REPL - Ctrl-D to exit")
	}

	for {
		text, err := line.Prompt("smog> ")
		if err != nil {
			break
		}
		if text == "" {
			continue
		}
		line.AppendHistory(text)

		_, runErr := machine.Interpret(text)
		if runErr != nil {
			printDiagnostic(runErr)
		}
	}

	if f, err := os.Create(historyFile); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
	return 0
}
