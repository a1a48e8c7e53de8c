package bytecode

import (
	"errors"
	"fmt"
)

// Fault kinds. Every fault returned by the VM wraps exactly one of these.
var (
	ErrStackUnderflow            = errors.New("stack underflow")
	ErrTypeMismatch              = errors.New("type mismatch")
	ErrProgramCounterOutOfBounds = errors.New("program counter out of bounds")
	ErrUnknownConstantIndex      = errors.New("unknown constant index")
	ErrInvalidOpcode             = errors.New("invalid opcode")
)

// ErrNoCompiler is returned by InterpretSource when no CompileFunc is set.
var ErrNoCompiler = errors.New("no compiler configured")

// RuntimeError is a fault raised while executing a chunk.
type RuntimeError struct {
	Err  error  // One of the fault sentinels, possibly wrapped
	PC   int    // Index of the faulting instruction, or the fetch index
	Line int    // Source line, 0 when PC is past the end
	Op   Opcode // Faulting opcode, 0 when the fetch itself failed
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("runtime error at %d (line %d): %v", e.PC, e.Line, e.Err)
	}
	return fmt.Sprintf("runtime error at %d: %v", e.PC, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// CompileError carries a failure from the translator. The VM never looks
// inside it.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error: %v", e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// InterpretResult classifies the outcome of an interpretation.
type InterpretResult int

const (
	ResultOK InterpretResult = iota
	ResultCompileError
	ResultRuntimeError
)

// String returns the result name.
func (r InterpretResult) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultCompileError:
		return "compile error"
	case ResultRuntimeError:
		return "runtime error"
	default:
		return fmt.Sprintf("InterpretResult(%d)", int(r))
	}
}

// Status maps an error returned by Interpret or InterpretSource to its
// result class. Errors that are neither compile nor runtime errors are
// treated as runtime errors.
func Status(err error) InterpretResult {
	if err == nil {
		return ResultOK
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		return ResultCompileError
	}
	return ResultRuntimeError
}
