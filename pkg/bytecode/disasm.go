package bytecode

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LinePlaceholder is printed instead of the line number when an instruction
// shares its line with the previous one.
const LinePlaceholder = "|  "

// DisassembleChunk writes a header containing label followed by every
// instruction of the chunk.
func DisassembleChunk(w io.Writer, c *Chunk, label string) error {
	if _, err := fmt.Fprintf(w, "=== %s ===\n", label); err != nil {
		return err
	}
	for pc := range c.Code {
		if err := DisassembleInstruction(w, c, pc); err != nil {
			return err
		}
	}
	return nil
}

// DisassembleInstruction writes one line for the instruction at pc:
//
//	<index> <line-or-placeholder> <MNEMONIC> [<operand>]
func DisassembleInstruction(w io.Writer, c *Chunk, pc int) error {
	_, err := io.WriteString(w, c.formatInstruction(pc)+"\n")
	return err
}

// formatInstruction renders the instruction at pc without a trailing newline.
func (c *Chunk) formatInstruction(pc int) string {
	if pc < 0 || pc >= len(c.Code) {
		return fmt.Sprintf("%d <end of code>", pc)
	}

	var sb strings.Builder
	sb.WriteString(strconv.Itoa(pc))
	sb.WriteByte(' ')

	line, _ := c.GetLine(pc)
	if pc > 0 && pc-1 < len(c.Lines) && c.Lines[pc-1] == line {
		sb.WriteString(LinePlaceholder)
	} else {
		sb.WriteString(strconv.Itoa(line))
	}
	sb.WriteByte(' ')

	in := c.Code[pc]
	sb.WriteString(in.Op.String())

	switch in.Op {
	case OpConstant:
		sb.WriteByte(' ')
		if v, err := c.GetConstant(in.Operand); err == nil {
			sb.WriteString(v.String())
		} else {
			fmt.Fprintf(&sb, "<bad constant %d>", in.Operand)
		}
	default:
		if in.Op.OperandLen() > 0 {
			fmt.Fprintf(&sb, " %d", in.Operand)
		}
	}

	return sb.String()
}

// Disassemble returns the full listing for the chunk as a string.
func (c *Chunk) Disassemble(label string) string {
	var sb strings.Builder
	// strings.Builder never fails on write.
	_ = DisassembleChunk(&sb, c, label)
	return sb.String()
}

// DisassembleInstruction returns a human-readable representation of a single instruction.
func (c *Chunk) DisassembleInstruction(pc int) string {
	return c.formatInstruction(pc)
}

// DisassembleToLines returns the disassembly as a slice of lines, without header.
func (c *Chunk) DisassembleToLines() []string {
	lines := make([]string, 0, len(c.Code))
	for pc := range c.Code {
		lines = append(lines, c.formatInstruction(pc))
	}
	return lines
}

// FormatStack renders stack values bottom to top, as printed by the VM
// trace before each instruction.
func FormatStack(stack []Value) string {
	var sb strings.Builder
	sb.WriteString("          ")
	for _, v := range stack {
		sb.WriteByte('[')
		sb.WriteString(v.String())
		sb.WriteByte(']')
	}
	return sb.String()
}
