package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BytecodeVersion is the current bytecode format version.
// Increment when making incompatible changes to the format.
const BytecodeVersion uint16 = 1

// Magic bytes for bytecode files: "CAYO"
var BytecodeMagic = []byte{'C', 'A', 'Y', 'O'}

// MaxConstants is the largest pool an OpConstant operand can address.
const MaxConstants = 1 << 16

// Chunk is one compilation unit: instructions, a constant pool, and one
// source line per instruction. Code and Lines always have the same length.
type Chunk struct {
	Version uint16

	Code      []Instruction
	Constants []Value
	Lines     []int
}

// NewChunk creates a new empty chunk with the current version.
func NewChunk() *Chunk {
	return &Chunk{
		Version:   BytecodeVersion,
		Code:      make([]Instruction, 0, 16),
		Constants: make([]Value, 0, 8),
		Lines:     make([]int, 0, 16),
	}
}

// Write appends an instruction and its source line, returning the
// instruction's index.
func (c *Chunk) Write(in Instruction, line int) int {
	idx := len(c.Code)
	c.Code = append(c.Code, in)
	c.Lines = append(c.Lines, line)
	return idx
}

// Emit appends an operand-less instruction.
func (c *Chunk) Emit(op Opcode, line int) int {
	return c.Write(Instruction{Op: op}, line)
}

// EmitConstant adds value to the pool and emits an OpConstant for it.
func (c *Chunk) EmitConstant(value Value, line int) int {
	return c.Write(LoadConstant(c.AddConstant(value)), line)
}

// AddConstant appends a constant to the pool and returns its index.
// Equal values get distinct indices.
func (c *Chunk) AddConstant(value Value) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// GetConstant returns the constant at the given index.
func (c *Chunk) GetConstant(index int) (Value, error) {
	if index < 0 || index >= len(c.Constants) {
		return Value{}, fmt.Errorf("%w: %d (pool size %d)", ErrUnknownConstantIndex, index, len(c.Constants))
	}
	return c.Constants[index], nil
}

// GetLine returns the source line of the instruction at pc.
func (c *Chunk) GetLine(pc int) (int, error) {
	if pc < 0 || pc >= len(c.Lines) {
		return 0, fmt.Errorf("%w: %d (code length %d)", ErrProgramCounterOutOfBounds, pc, len(c.Lines))
	}
	return c.Lines[pc], nil
}

// Len returns the number of instructions.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return len(c.Constants)
}

// Validate checks the invariants a producer must guarantee before handing
// a chunk to the VM.
func (c *Chunk) Validate() error {
	if len(c.Lines) != len(c.Code) {
		return fmt.Errorf("line table has %d entries for %d instructions", len(c.Lines), len(c.Code))
	}
	for pc, in := range c.Code {
		if !in.Op.IsKnown() {
			return fmt.Errorf("instruction %d: %w 0x%02X", pc, ErrInvalidOpcode, byte(in.Op))
		}
		if in.Op == OpConstant {
			if _, err := c.GetConstant(in.Operand); err != nil {
				return fmt.Errorf("instruction %d: %w", pc, err)
			}
		}
	}
	return nil
}

// Serialize encodes the chunk to bytes for storage/transport.
// Format:
//
//	[magic:4] [version:2]
//	[code_count:4] { [opcode:1] [operand:OperandLen] [line:4] }...
//	[const_count:2] { [kind:1] [payload:...] }...
//
// Number payloads are 8 bytes of IEEE-754 bits, big-endian.
func (c *Chunk) Serialize() ([]byte, error) {
	if len(c.Lines) != len(c.Code) {
		return nil, fmt.Errorf("line table has %d entries for %d instructions", len(c.Lines), len(c.Code))
	}
	if len(c.Constants) > MaxConstants-1 {
		return nil, fmt.Errorf("constant pool too large: %d entries", len(c.Constants))
	}

	buf := make([]byte, 0, 12+len(c.Code)*7+len(c.Constants)*9)
	buf = append(buf, BytecodeMagic...)
	buf = binary.BigEndian.AppendUint16(buf, c.Version)

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Code)))
	for pc, in := range c.Code {
		if !in.Op.IsKnown() {
			return nil, fmt.Errorf("instruction %d: %w 0x%02X", pc, ErrInvalidOpcode, byte(in.Op))
		}
		buf = append(buf, byte(in.Op))
		switch in.Op.OperandLen() {
		case 0:
		case 2:
			if in.Operand < 0 || in.Operand > math.MaxUint16 {
				return nil, fmt.Errorf("instruction %d: operand %d does not fit in 16 bits", pc, in.Operand)
			}
			buf = binary.BigEndian.AppendUint16(buf, uint16(in.Operand))
		default:
			return nil, fmt.Errorf("instruction %d: unsupported operand width %d", pc, in.Op.OperandLen())
		}
		line := c.Lines[pc]
		if line < 0 || uint64(line) > math.MaxUint32 {
			return nil, fmt.Errorf("instruction %d: line %d out of range", pc, line)
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(line))
	}

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(c.Constants)))
	for i, v := range c.Constants {
		switch v.Kind() {
		case KindNumber:
			buf = append(buf, byte(KindNumber))
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v.AsNumber()))
		default:
			return nil, fmt.Errorf("constant %d: cannot encode %s value", i, v.Kind())
		}
	}

	return buf, nil
}

// Deserialize decodes a chunk from bytes and validates it.
func Deserialize(data []byte) (*Chunk, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("bytecode too short: need at least 6 bytes, got %d", len(data))
	}

	if string(data[0:4]) != string(BytecodeMagic) {
		return nil, fmt.Errorf("invalid bytecode magic: expected %q, got %q", BytecodeMagic, data[0:4])
	}

	c := &Chunk{Version: binary.BigEndian.Uint16(data[4:6])}
	pos := 6

	if c.Version > BytecodeVersion {
		return nil, fmt.Errorf("bytecode version %d is newer than supported version %d", c.Version, BytecodeVersion)
	}

	// Code section
	if pos+4 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading code count at pos %d", pos)
	}
	codeCount := int(binary.BigEndian.Uint32(data[pos:]))
	pos += 4

	// Each instruction takes at least 5 bytes; reject counts the data cannot hold.
	if codeCount > (len(data)-pos)/5 {
		return nil, fmt.Errorf("unexpected end of bytecode: %d instructions declared at pos %d", codeCount, pos)
	}
	c.Code = make([]Instruction, codeCount)
	c.Lines = make([]int, codeCount)
	for i := 0; i < codeCount; i++ {
		if pos >= len(data) {
			return nil, fmt.Errorf("unexpected end of bytecode reading instruction %d", i)
		}
		op := Opcode(data[pos])
		pos++
		if !op.IsKnown() {
			return nil, fmt.Errorf("instruction %d: %w 0x%02X", i, ErrInvalidOpcode, byte(op))
		}

		operand := 0
		if n := op.OperandLen(); n > 0 {
			if pos+n > len(data) {
				return nil, fmt.Errorf("unexpected end of bytecode reading instruction %d operand", i)
			}
			operand = int(binary.BigEndian.Uint16(data[pos:]))
			pos += n
		}

		if pos+4 > len(data) {
			return nil, fmt.Errorf("unexpected end of bytecode reading instruction %d line", i)
		}
		c.Code[i] = Instruction{Op: op, Operand: operand}
		c.Lines[i] = int(binary.BigEndian.Uint32(data[pos:]))
		pos += 4
	}

	// Constants
	if pos+2 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading constant count")
	}
	constCount := int(binary.BigEndian.Uint16(data[pos:]))
	pos += 2

	c.Constants = make([]Value, constCount)
	for i := range c.Constants {
		if pos >= len(data) {
			return nil, fmt.Errorf("unexpected end of bytecode reading constant %d kind", i)
		}
		kind := ValueKind(data[pos])
		pos++

		switch kind {
		case KindNumber:
			if pos+8 > len(data) {
				return nil, fmt.Errorf("unexpected end of bytecode reading constant %d", i)
			}
			c.Constants[i] = Number(math.Float64frombits(binary.BigEndian.Uint64(data[pos:])))
			pos += 8
		default:
			return nil, fmt.Errorf("constant %d: unknown value kind %d", i, kind)
		}
	}

	if pos != len(data) {
		return nil, fmt.Errorf("trailing data after bytecode: %d bytes", len(data)-pos)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
