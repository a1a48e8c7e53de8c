package bytecode

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDisassembleHeader(t *testing.T) {
	output := NewChunk().Disassemble("empty")

	if output != "=== empty ===\n" {
		t.Errorf("Disassemble of empty chunk = %q", output)
	}
}

func TestDisassembleLinePlaceholder(t *testing.T) {
	c := NewChunk()
	c.EmitConstant(Number(1.2), 123)
	c.Emit(OpNegate, 123)
	c.Emit(OpReturn, 124)

	want := "=== test chunk ===\n" +
		"0 123 CONSTANT 1.2\n" +
		"1 |   NEGATE\n" +
		"2 124 RETURN\n"

	if got := c.Disassemble("test chunk"); got != want {
		t.Errorf("Disassemble =\n%s\nwant:\n%s", got, want)
	}
}

func TestDisassemblePlaceholderIsStable(t *testing.T) {
	c := NewChunk()
	c.EmitConstant(Number(1), 5)
	for i := 0; i < 6; i++ {
		c.Emit(OpNegate, 5)
	}
	c.Emit(OpReturn, 5)

	lines := c.DisassembleToLines()
	if !strings.HasPrefix(lines[0], "0 5 ") {
		t.Errorf("first line = %q, want the line number", lines[0])
	}
	for i, line := range lines[1:] {
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 || !strings.HasPrefix(parts[1], LinePlaceholder+" ") {
			t.Errorf("line %d = %q, want placeholder %q after the index", i+1, line, LinePlaceholder)
		}
	}
}

func TestDisassembleLineChangesBack(t *testing.T) {
	c := NewChunk()
	c.Emit(OpNegate, 1)
	c.Emit(OpNegate, 2)
	c.Emit(OpNegate, 1)

	want := []string{"0 1 NEGATE", "1 2 NEGATE", "2 1 NEGATE"}
	got := c.DisassembleToLines()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDisassembleAllMnemonics(t *testing.T) {
	c := NewChunk()
	c.EmitConstant(Number(-0.5), 1)
	for _, op := range []BinaryOperator{Add, Subtract, Multiply, Divide} {
		c.Write(Binary(op), 1)
	}
	c.Write(Negate(), 1)
	c.Write(Return(), 1)

	output := c.Disassemble("all")
	for _, name := range []string{"CONSTANT -0.5", "ADD", "SUBTRACT", "MULTIPLY", "DIVIDE", "NEGATE", "RETURN"} {
		if !strings.Contains(output, name) {
			t.Errorf("Missing %s in:\n%s", name, output)
		}
	}
}

func TestDisassembleBadConstant(t *testing.T) {
	c := NewChunk()
	c.Write(LoadConstant(4), 1)

	got := c.DisassembleInstruction(0)
	if got != "0 1 CONSTANT <bad constant 4>" {
		t.Errorf("DisassembleInstruction = %q", got)
	}
}

func TestDisassembleDoesNotMutate(t *testing.T) {
	c := sampleChunk()
	before, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var buf bytes.Buffer
	if err := DisassembleChunk(&buf, c, "x"); err != nil {
		t.Fatalf("DisassembleChunk: %v", err)
	}
	for pc := range c.Code {
		if err := DisassembleInstruction(&buf, c, pc); err != nil {
			t.Fatalf("DisassembleInstruction: %v", err)
		}
	}

	after, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("disassembly changed the chunk")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestDisassembleWriteError(t *testing.T) {
	if err := DisassembleChunk(failingWriter{}, sampleChunk(), "x"); err == nil {
		t.Error("expected write error")
	}
	if err := DisassembleInstruction(failingWriter{}, sampleChunk(), 0); err == nil {
		t.Error("expected write error")
	}
}

func TestDisassembleOutOfRange(t *testing.T) {
	c := NewChunk()
	if got := c.DisassembleInstruction(3); got != "3 <end of code>" {
		t.Errorf("DisassembleInstruction(3) = %q", got)
	}
}

func TestFormatStack(t *testing.T) {
	tests := []struct {
		stack []Value
		want  string
	}{
		{nil, "          "},
		{[]Value{Number(1)}, "          [1]"},
		{[]Value{Number(1.5), Number(-2), Value{}}, "          [1.5][-2][<invalid>]"},
	}
	for _, tt := range tests {
		if got := FormatStack(tt.stack); got != tt.want {
			t.Errorf("FormatStack(%v) = %q, want %q", tt.stack, got, tt.want)
		}
	}
}
