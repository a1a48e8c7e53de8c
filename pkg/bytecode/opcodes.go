package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpConstant Opcode = 0x10 // Push constant from pool: OpConstant <index:u16>

	// ========================================================================
	// Arithmetic (0x50-0x5F)
	// ========================================================================

	OpAdd      Opcode = 0x50 // Pop two, push sum
	OpSubtract Opcode = 0x51 // Pop two, push difference (a - b where b is TOS)
	OpMultiply Opcode = 0x52 // Pop two, push product
	OpDivide   Opcode = 0x53 // Pop two, push quotient (a / b where b is TOS)
	OpNegate   Opcode = 0x55 // Negate top of stack

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpReturn Opcode = 0xF0 // Pop top of stack and halt
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Human-readable name
	StackPop   int    // How many values popped from stack
	StackPush  int    // How many values pushed to stack
	OperandLen int    // Number of operand bytes following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpConstant: {"CONSTANT", 0, 1, 2},

	OpAdd:      {"ADD", 2, 1, 0},
	OpSubtract: {"SUBTRACT", 2, 1, 0},
	OpMultiply: {"MULTIPLY", 2, 1, 0},
	OpDivide:   {"DIVIDE", 2, 1, 0},
	OpNegate:   {"NEGATE", 1, 1, 0},

	OpReturn: {"RETURN", 1, 0, 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// IsKnown reports whether op is part of the instruction set.
func (op Opcode) IsKnown() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the encoded length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsBinary returns true if this opcode is one of the four arithmetic operators.
func (op Opcode) IsBinary() bool {
	return op >= OpAdd && op <= OpDivide
}

// IsReturn returns true if this opcode terminates execution.
func (op Opcode) IsReturn() bool {
	return op == OpReturn
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}

// BinaryOperator selects one of the arithmetic opcodes.
type BinaryOperator uint8

const (
	Add BinaryOperator = iota
	Subtract
	Multiply
	Divide
)

// String returns the operator symbol.
func (b BinaryOperator) String() string {
	switch b {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	default:
		return fmt.Sprintf("BinaryOperator(%d)", b)
	}
}

// Opcode returns the opcode implementing b.
func (b BinaryOperator) Opcode() Opcode {
	return OpAdd + Opcode(b)
}

// BinaryOperator returns the operator of a binary opcode.
// The second result is false when op is not binary.
func (op Opcode) BinaryOperator() (BinaryOperator, bool) {
	if !op.IsBinary() {
		return 0, false
	}
	return BinaryOperator(op - OpAdd), true
}

// Instruction is one decoded unit of the instruction stream.
// Operand is only meaningful for opcodes with OperandLen > 0.
type Instruction struct {
	Op      Opcode
	Operand int
}

// LoadConstant returns an instruction that pushes constant index.
func LoadConstant(index int) Instruction {
	return Instruction{Op: OpConstant, Operand: index}
}

// Negate returns an instruction that negates the top of stack.
func Negate() Instruction {
	return Instruction{Op: OpNegate}
}

// Binary returns the instruction for a binary operator.
func Binary(op BinaryOperator) Instruction {
	return Instruction{Op: op.Opcode()}
}

// Return returns an instruction that pops the result and halts.
func Return() Instruction {
	return Instruction{Op: OpReturn}
}

// String renders the instruction without resolving constants.
func (in Instruction) String() string {
	if in.Op.OperandLen() > 0 {
		return fmt.Sprintf("%s %d", in.Op, in.Operand)
	}
	return in.Op.String()
}
