// Package bytecode defines the wire format the smog compiler emits and the
// VM executes: opcodes, the per-function Chunk (code + constants + line
// table), and the tagged Value / heap-object model shared by the compiler
// and the VM.
//
// Unlike a message-send bytecode design (one Instruction struct per
// element, addressed by array index), this is a byte-addressed instruction
// stream: each opcode is a single byte, operands are fixed-width byte
// sequences immediately following it, and jumps patch raw bytes in place.
// That layout is what makes CONSTANT/JUMP/CLOSURE operands bounded (a
// single byte, or two for jump offsets) and is load-bearing for the
// disassembler and for the compiler's jump-patching.
package bytecode

// OpCode identifies a single bytecode instruction. Opcodes are single bytes
// so instruction streams stay compact and cheap to decode.
type OpCode byte

const (
	// Stack
	OpConstant OpCode = iota // CONSTANT k(1)
	OpNil
	OpTrue
	OpFalse
	OpPop

	// Variables
	OpGetLocal    // GET_LOCAL slot(1)
	OpSetLocal    // SET_LOCAL slot(1)
	OpGetGlobal   // GET_GLOBAL k(1)
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue // GET_UPVALUE idx(1)
	OpSetUpvalue
	OpGetProperty // GET_PROPERTY k(1)
	OpSetProperty
	OpGetSuper // GET_SUPER k(1)

	// Comparisons and arithmetic
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate

	// Side effects
	OpPrint

	// Control flow
	OpJump         // JUMP off(2)
	OpJumpIfFalse  // JUMP_IF_FALSE off(2), peeks
	OpLoop         // LOOP off(2), subtracted from ip
	OpCall         // CALL argc(1)
	OpInvoke       // INVOKE k(1) argc(1)
	OpSuperInvoke  // SUPER_INVOKE k(1) argc(1)
	OpClosure      // CLOSURE k(1) [is_local(1) index(1)]*upvalueCount
	OpCloseUpvalue
	OpReturn

	// Classes
	OpClass
	OpInherit
	OpMethod
)

// String returns the mnemonic used by the disassembler and by trace output.
func (op OpCode) String() string {
	switch op {
	case OpConstant:
		return "OP_CONSTANT"
	case OpNil:
		return "OP_NIL"
	case OpTrue:
		return "OP_TRUE"
	case OpFalse:
		return "OP_FALSE"
	case OpPop:
		return "OP_POP"
	case OpGetLocal:
		return "OP_GET_LOCAL"
	case OpSetLocal:
		return "OP_SET_LOCAL"
	case OpGetGlobal:
		return "OP_GET_GLOBAL"
	case OpDefineGlobal:
		return "OP_DEFINE_GLOBAL"
	case OpSetGlobal:
		return "OP_SET_GLOBAL"
	case OpGetUpvalue:
		return "OP_GET_UPVALUE"
	case OpSetUpvalue:
		return "OP_SET_UPVALUE"
	case OpGetProperty:
		return "OP_GET_PROPERTY"
	case OpSetProperty:
		return "OP_SET_PROPERTY"
	case OpGetSuper:
		return "OP_GET_SUPER"
	case OpEqual:
		return "OP_EQUAL"
	case OpGreater:
		return "OP_GREATER"
	case OpLess:
		return "OP_LESS"
	case OpAdd:
		return "OP_ADD"
	case OpSubtract:
		return "OP_SUBTRACT"
	case OpMultiply:
		return "OP_MULTIPLY"
	case OpDivide:
		return "OP_DIVIDE"
	case OpNot:
		return "OP_NOT"
	case OpNegate:
		return "OP_NEGATE"
	case OpPrint:
		return "OP_PRINT"
	case OpJump:
		return "OP_JUMP"
	case OpJumpIfFalse:
		return "OP_JUMP_IF_FALSE"
	case OpLoop:
		return "OP_LOOP"
	case OpCall:
		return "OP_CALL"
	case OpInvoke:
		return "OP_INVOKE"
	case OpSuperInvoke:
		return "OP_SUPER_INVOKE"
	case OpClosure:
		return "OP_CLOSURE"
	case OpCloseUpvalue:
		return "OP_CLOSE_UPVALUE"
	case OpReturn:
		return "OP_RETURN"
	case OpClass:
		return "OP_CLASS"
	case OpInherit:
		return "OP_INHERIT"
	case OpMethod:
		return "OP_METHOD"
	default:
		return "OP_UNKNOWN"
	}
}
