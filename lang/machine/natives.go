package machine

import (
	"time"

	"github.com/mna/nenuphar-lite/lang/value"
)

// defineNatives binds the runtime's native functions into globals before
// the program starts running. clock reports elapsed process time in
// seconds, giving scripts a way to benchmark themselves without any host
// I/O.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", func(h *value.Heap, args []value.Value) (value.Value, error) {
		return value.Number(time.Since(processStart).Seconds()), nil
	})
}

func (vm *VM) defineNative(name string, fn value.NativeFn) {
	native := vm.heap.NewNative(name, fn)
	nameStr := vm.heap.InternString([]byte(name))
	vm.globals.Set(nameStr, value.FromObj(native))
}

var processStart = time.Now()
