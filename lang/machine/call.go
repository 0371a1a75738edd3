package machine

import (
	"unsafe"

	"github.com/mna/nenuphar-lite/lang/value"
)

// closureOp implements the CLOSURE opcode: allocate a closure over the
// function constant named by the next byte, then consume one (isLocal,
// index) operand pair per upvalue the function's compiler recorded,
// either capturing a slot in the enclosing frame or reusing one already
// captured by that frame's own closure.
func (vm *VM) closureOp() error {
	fnVal := vm.readConstant()
	fnObj, ok := fnVal.AsObj().(*value.ObjFunction)
	if !ok {
		return vm.runtimeError("CLOSURE operand is not a function constant")
	}

	closure := vm.heap.NewClosure(fnObj)
	for i := range closure.Upvalues {
		isLocal := vm.readByte()
		index := vm.readByte()
		if isLocal == 1 {
			closure.Upvalues[i] = vm.captureUpvalue(vm.frame().slots + int(index))
		} else {
			closure.Upvalues[i] = vm.frame().closure.Upvalues[index]
		}
	}
	vm.push(value.FromObj(closure))
	return nil
}

// callValue dispatches a CALL to whatever callee is being invoked: an
// interpreted closure pushes a new call frame, a native calls straight
// through and leaves its result on the stack in place of the callee and
// its arguments.
func (vm *VM) callValue(callee value.Value, argCount int) error {
	if callee.IsObj() {
		switch obj := callee.AsObj().(type) {
		case *value.ObjClosure:
			return vm.call(obj, argCount)
		case *value.ObjNative:
			args := vm.stack[len(vm.stack)-argCount:]
			result, err := obj.Fn(vm.heap, args)
			if err != nil {
				return vm.runtimeError("%s", err.Error())
			}
			vm.stack = vm.stack[:len(vm.stack)-argCount-1]
			vm.push(result)
			return nil
		}
	}
	return vm.runtimeError("Can only call functions and classes.")
}

func (vm *VM) call(closure *value.ObjClosure, argCount int) error {
	if argCount != int(closure.Function.Arity) {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if len(vm.frames) >= framesMax {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames = append(vm.frames, callFrame{
		closure: closure,
		ip:      0,
		slots:   len(vm.stack) - argCount - 1,
	})
	return nil
}

// stackAddr exposes a stack slot's address for ordering comparisons.
// ObjUpvalue.Location always points somewhere inside vm.stack's backing
// array, which Interpret preallocates at full capacity and never
// reallocates, so these addresses stay stable for the VM's lifetime; Go
// gives pointers no ordered comparison operators, so the open-upvalue
// list (which must stay sorted by stack address, descending, for
// closeUpvalues's early-exit scan to be correct) compares via uintptr.
func stackAddr(v *value.Value) uintptr { return uintptr(unsafe.Pointer(v)) }

// captureUpvalue returns the open upvalue for the stack slot at
// stackIndex, creating and linking one into the sorted open-upvalue list
// if none exists yet.
func (vm *VM) captureUpvalue(stackIndex int) *value.ObjUpvalue {
	target := &vm.stack[stackIndex]
	targetAddr := stackAddr(target)

	var prev *value.ObjUpvalue
	uv := vm.openUV
	for uv != nil && stackAddr(uv.Location) > targetAddr {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && stackAddr(uv.Location) == targetAddr {
		return uv
	}

	created := vm.heap.NewUpvalue(target)
	created.Next = uv
	if prev == nil {
		vm.openUV = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue whose stack slot is at or above
// limitIndex, moving its value off the stack into the upvalue's own
// storage before that slot is discarded by a block exit or a return.
func (vm *VM) closeUpvalues(limitIndex int) {
	if len(vm.stack) == 0 {
		return
	}
	limit := stackAddr(&vm.stack[limitIndex])
	for vm.openUV != nil && stackAddr(vm.openUV.Location) >= limit {
		uv := vm.openUV
		uv.Close()
		vm.openUV = uv.Next
	}
}
