package compiler

// OpCode is a single bytecode instruction. Operands, when present, follow
// the opcode byte inline in the chunk's code array; their width is fixed by
// which opcode they belong to (mostly one byte, two for jump offsets).
type OpCode byte

//nolint:revive
const (
	OpConstant     OpCode = iota // CONSTANT idx8
	OpNil                        // NIL
	OpTrue                       // TRUE
	OpFalse                      // FALSE
	OpPop                        // POP
	OpGetLocal                   // GET_LOCAL slot8
	OpSetLocal                   // SET_LOCAL slot8
	OpGetGlobal                  // GET_GLOBAL idx8 (constant index of the name)
	OpDefineGlobal               // DEFINE_GLOBAL idx8
	OpSetGlobal                  // SET_GLOBAL idx8
	OpGetUpvalue                 // GET_UPVALUE idx8
	OpSetUpvalue                 // SET_UPVALUE idx8
	OpCloseUpvalue               // CLOSE_UPVALUE
	OpEqual                      // EQUAL
	OpGreater                    // GREATER
	OpLess                       // LESS
	OpAdd                        // ADD
	OpSubtract                   // SUBTRACT
	OpMultiply                   // MULTIPLY
	OpDivide                     // DIVIDE
	OpNot                        // NOT
	OpNegate                     // NEGATE
	OpPrint                      // PRINT
	OpJump                       // JUMP offset16
	OpJumpIfFalse                // JUMP_IF_FALSE offset16
	OpLoop                       // LOOP offset16
	OpCall                       // CALL argCount8
	OpClosure                    // CLOSURE idx8 [isLocal8 index8]*upvalueCount
	OpReturn                     // RETURN
)

var opCodeNames = [...]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpClosure:      "OP_CLOSURE",
	OpReturn:       "OP_RETURN",
}

func (op OpCode) String() string {
	if int(op) < len(opCodeNames) && opCodeNames[op] != "" {
		return opCodeNames[op]
	}
	return "OP_UNKNOWN"
}
