package bytecode

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// State is the lifecycle state of one interpretation.
type State int

const (
	StateReady State = iota
	StateRunning
	StateHalted
	StateFaulted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config holds construction-time VM options.
type Config struct {
	// Trace prints the stack and the next instruction before each step.
	Trace bool

	// KeepStack leaves residual stack values in place between
	// interpretations. By default every interpretation starts empty.
	KeepStack bool

	// TraceOutput receives trace lines. Defaults to os.Stdout.
	TraceOutput io.Writer
}

// CompileFunc translates source text into a chunk.
type CompileFunc func(source string) (*Chunk, error)

// VM executes bytecode chunks.
type VM struct {
	// Current execution state
	chunk *Chunk  // Chunk being interpreted, replaced on each Interpret
	pc    int     // Index of the next instruction to fetch
	stack []Value // Operand stack, bottom first
	state State

	cfg     Config
	out     io.Writer
	compile CompileFunc

	runID string
	log   commonlog.Logger
}

// NewVM creates a new VM instance.
func NewVM(cfg Config) *VM {
	out := cfg.TraceOutput
	if out == nil {
		out = os.Stdout
	}
	return &VM{
		stack: make([]Value, 0, 256),
		cfg:   cfg,
		out:   out,
		log:   commonlog.GetLogger("cayo.vm"),
	}
}

// UseCompiler sets the translator used by InterpretSource.
func (vm *VM) UseCompiler(fn CompileFunc) {
	vm.compile = fn
}

// SetTrace turns execution tracing on or off.
func (vm *VM) SetTrace(on bool) {
	vm.cfg.Trace = on
}

// Tracing reports whether execution tracing is on.
func (vm *VM) Tracing() bool {
	return vm.cfg.Trace
}

// State returns the current lifecycle state.
func (vm *VM) State() State {
	return vm.state
}

// PC returns the index of the next instruction to fetch.
func (vm *VM) PC() int {
	return vm.pc
}

// RunID identifies the current or most recent interpretation in log output.
func (vm *VM) RunID() string {
	return vm.runID
}

// Stack returns a copy of the operand stack, bottom first.
func (vm *VM) Stack() []Value {
	out := make([]Value, len(vm.stack))
	copy(out, vm.stack)
	return out
}

// Reset discards the chunk and the stack and returns to StateReady.
func (vm *VM) Reset() {
	vm.chunk = nil
	vm.pc = 0
	vm.stack = vm.stack[:0]
	vm.state = StateReady
}

// Interpret takes ownership of chunk and runs it until OpReturn or a fault.
// The returned error, if any, is a *RuntimeError.
func (vm *VM) Interpret(chunk *Chunk) (Value, error) {
	if chunk == nil {
		chunk = NewChunk()
	}
	vm.chunk = chunk
	vm.pc = 0
	if !vm.cfg.KeepStack {
		vm.stack = vm.stack[:0]
	}
	vm.state = StateReady
	vm.runID = uuid.NewString()

	return vm.run()
}

// InterpretSource compiles source with the configured compiler and runs the
// result. Compiler failures are returned as *CompileError and leave the VM
// state untouched.
func (vm *VM) InterpretSource(source string) (Value, error) {
	if vm.compile == nil {
		return Value{}, &CompileError{Err: ErrNoCompiler}
	}
	chunk, err := vm.compile(source)
	if err != nil {
		return Value{}, &CompileError{Err: err}
	}
	return vm.Interpret(chunk)
}

// run is the main execution loop.
func (vm *VM) run() (Value, error) {
	vm.state = StateRunning
	vm.log.Debugf("run %s: start, %d instructions, %d constants",
		vm.runID, vm.chunk.Len(), vm.chunk.ConstantCount())

	for {
		if vm.pc >= len(vm.chunk.Code) {
			return vm.fault(vm.pc, 0, fmt.Errorf("%w: fetch at %d, code length %d",
				ErrProgramCounterOutOfBounds, vm.pc, len(vm.chunk.Code)))
		}

		if vm.cfg.Trace {
			vm.traceInstruction()
		}

		pc := vm.pc
		in := vm.chunk.Code[pc]
		vm.pc++

		switch in.Op {
		case OpConstant:
			v, err := vm.chunk.GetConstant(in.Operand)
			if err != nil {
				return vm.fault(pc, in.Op, err)
			}
			vm.push(v)

		case OpNegate:
			v, err := vm.pop()
			if err != nil {
				return vm.fault(pc, in.Op, err)
			}
			if !v.IsNumber() {
				return vm.fault(pc, in.Op, mismatch(in.Op, v))
			}
			vm.push(Number(-v.AsNumber()))

		case OpAdd, OpSubtract, OpMultiply, OpDivide:
			// Top of stack is the right-hand operand.
			right, err := vm.pop()
			if err != nil {
				return vm.fault(pc, in.Op, err)
			}
			left, err := vm.pop()
			if err != nil {
				return vm.fault(pc, in.Op, err)
			}
			if !left.IsNumber() {
				return vm.fault(pc, in.Op, mismatch(in.Op, left))
			}
			if !right.IsNumber() {
				return vm.fault(pc, in.Op, mismatch(in.Op, right))
			}
			vm.push(Number(arith(in.Op, left.AsNumber(), right.AsNumber())))

		case OpReturn:
			v, err := vm.pop()
			if err != nil {
				return vm.fault(pc, in.Op, err)
			}
			vm.state = StateHalted
			vm.log.Debugf("run %s: halted at %d with %s", vm.runID, pc, v)
			return v, nil

		default:
			return vm.fault(pc, in.Op, fmt.Errorf("%w 0x%02X", ErrInvalidOpcode, byte(in.Op)))
		}
	}
}

// arith applies a binary opcode with plain IEEE-754 semantics.
func arith(op Opcode, a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSubtract:
		return a - b
	case OpMultiply:
		return a * b
	default:
		return a / b
	}
}

func mismatch(op Opcode, v Value) error {
	return fmt.Errorf("%w: %s needs a number, got %s", ErrTypeMismatch, op, v.Kind())
}

// fault moves the VM to StateFaulted and wraps err with its location.
func (vm *VM) fault(pc int, op Opcode, err error) (Value, error) {
	vm.state = StateFaulted
	line, _ := vm.chunk.GetLine(pc)
	rerr := &RuntimeError{Err: err, PC: pc, Line: line, Op: op}
	vm.log.Errorf("run %s: %v", vm.runID, rerr)
	return Value{}, rerr
}

// traceInstruction prints the stack and the instruction about to execute.
// Write errors are ignored; tracing never changes execution.
func (vm *VM) traceInstruction() {
	fmt.Fprintln(vm.out, FormatStack(vm.stack))
	_ = DisassembleInstruction(vm.out, vm.chunk, vm.pc)
}

func (vm *VM) push(v Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() (Value, error) {
	n := len(vm.stack)
	if n == 0 {
		return Value{}, ErrStackUnderflow
	}
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v, nil
}
