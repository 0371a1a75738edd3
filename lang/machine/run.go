package machine

import (
	"fmt"

	"github.com/mna/nenuphar-lite/lang/compiler"
	"github.com/mna/nenuphar-lite/lang/value"
)

func (vm *VM) readByte() byte {
	f := vm.frame()
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readShort() int {
	f := vm.frame()
	code := f.closure.Function.Chunk.Code
	hi, lo := code[f.ip], code[f.ip+1]
	f.ip += 2
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readConstant() value.Value {
	idx := vm.readByte()
	return vm.frame().closure.Function.Chunk.Constants[idx]
}

func (vm *VM) readStringConstant() *value.ObjString {
	s, _ := vm.readConstant().AsString()
	return s
}

// run drives the fetch-decode-execute loop until the outermost call frame
// returns or a runtime error occurs. Each case implements exactly one
// opcode's documented semantics.
func (vm *VM) run() error {
	for {
		switch op := compiler.OpCode(vm.readByte()); op {
		case compiler.OpConstant:
			vm.push(vm.readConstant())

		case compiler.OpNil:
			vm.push(value.Nil)

		case compiler.OpTrue:
			vm.push(value.Bool(true))

		case compiler.OpFalse:
			vm.push(value.Bool(false))

		case compiler.OpPop:
			vm.pop()

		case compiler.OpGetLocal:
			slot := vm.readByte()
			vm.push(vm.stack[vm.frame().slots+int(slot)])

		case compiler.OpSetLocal:
			slot := vm.readByte()
			vm.stack[vm.frame().slots+int(slot)] = vm.peek(0)

		case compiler.OpGetGlobal:
			name := vm.readStringConstant()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.push(v)

		case compiler.OpDefineGlobal:
			name := vm.readStringConstant()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case compiler.OpSetGlobal:
			name := vm.readStringConstant()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name)
			}

		case compiler.OpGetUpvalue:
			slot := vm.readByte()
			vm.push(*vm.frame().closure.Upvalues[slot].Location)

		case compiler.OpSetUpvalue:
			slot := vm.readByte()
			*vm.frame().closure.Upvalues[slot].Location = vm.peek(0)

		case compiler.OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case compiler.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))

		case compiler.OpGreater:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Bool(a > b) }); err != nil {
				return err
			}

		case compiler.OpLess:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Bool(a < b) }); err != nil {
				return err
			}

		case compiler.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}

		case compiler.OpSubtract:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a - b) }); err != nil {
				return err
			}

		case compiler.OpMultiply:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a * b) }); err != nil {
				return err
			}

		case compiler.OpDivide:
			if err := vm.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a / b) }); err != nil {
				return err
			}

		case compiler.OpNot:
			vm.push(value.Bool(vm.pop().Falsey()))

		case compiler.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(value.Number(-vm.pop().AsNumber()))

		case compiler.OpPrint:
			fmt.Fprintln(vm.stdout(), vm.pop().String())

		case compiler.OpJump:
			offset := vm.readShort()
			vm.frame().ip += offset

		case compiler.OpJumpIfFalse:
			offset := vm.readShort()
			if vm.peek(0).Falsey() {
				vm.frame().ip += offset
			}

		case compiler.OpLoop:
			offset := vm.readShort()
			vm.frame().ip -= offset

		case compiler.OpClosure:
			if err := vm.closureOp(); err != nil {
				return err
			}

		case compiler.OpCall:
			argCount := int(vm.readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}

		case compiler.OpReturn:
			result := vm.pop()
			finished := vm.frames[len(vm.frames)-1]
			vm.closeUpvalues(finished.slots)
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.stack = vm.stack[:finished.slots]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.push(result)

		default:
			return vm.runtimeError("unknown opcode %d", op)
		}

		if len(vm.stack) > stackMax {
			return vm.runtimeError("Stack overflow.")
		}
	}
}

func (vm *VM) binaryNumberOp(op func(a, b float64) value.Value) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(op(a, b))
	return nil
}

// add implements ADD's two overloads: numeric sum, or string concatenation
// when both operands are strings. Any other combination is a runtime error.
func (vm *VM) add() error {
	a, b := vm.peek(1), vm.peek(0)

	if aStr, ok := a.AsString(); ok {
		if bStr, ok := b.AsString(); ok {
			vm.pop()
			vm.pop()
			buf := make([]byte, 0, len(aStr.Chars)+len(bStr.Chars))
			buf = append(buf, aStr.Chars...)
			buf = append(buf, bStr.Chars...)
			vm.push(value.FromObj(vm.heap.InternString(buf)))
			return nil
		}
	}

	if a.IsNumber() && b.IsNumber() {
		vm.pop()
		vm.pop()
		vm.push(value.Number(a.AsNumber() + b.AsNumber()))
		return nil
	}

	return vm.runtimeError("Operands must be two numbers or two strings.")
}
