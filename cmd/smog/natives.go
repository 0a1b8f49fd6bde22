package main

import (
	"time"

	"github.com/kristofer/smog/pkg/bytecode"
	"github.com/kristofer/smog/pkg/vm"
)

// registerNatives installs the front end's built-in library. The core VM
// ships with none; clock() is the one built-in this CLI provides.
func registerNatives(machine *vm.VM) {
	machine.DefineNative("clock", 0, func(argCount int, args []bytecode.Value) (bytecode.Value, error) {
		return bytecode.Number(float64(time.Now().UnixNano()) / 1e9), nil
	})
}
