package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chazu/cayo/compiler"
	"github.com/chazu/cayo/pkg/bytecode"
	"github.com/chazu/cayo/store"
)

const replPrompt = "=> "

type repl struct {
	vm    *bytecode.VM
	store *store.Store // nil when no chunk database is configured

	// last is the most recent chunk run or loaded, for :save and :dis.
	last *bytecode.Chunk
}

func newREPL(vm *bytecode.VM, st *store.Store) *repl {
	return &repl{vm: vm, store: st}
}

func (r *repl) run(in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "Cayo REPL (type 'exit' to quit, ':help' for commands)")
	fmt.Fprintf(out, "Compiler: %s\n", compiler.Name)
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, replPrompt)
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return
		case strings.HasPrefix(line, ":"):
			r.command(line, out)
		default:
			result, err := r.vm.InterpretSource(line)
			printResult(out, result, err)
		}
	}

	fmt.Fprintln(out)
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(out, "Error: reading input: %v\n", err)
	}
}

// command handles REPL meta-commands
func (r *repl) command(line string, out io.Writer) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?     Show this help")
		fmt.Fprintln(out, "  :trace            Toggle execution tracing")
		fmt.Fprintln(out, "  :stack            Show the operand stack")
		fmt.Fprintln(out, "  :reset            Clear the stack and the loaded chunk")
		fmt.Fprintln(out, "  :demo             Run the built-in (1.2 + 3.6) / 5.8 chunk")
		fmt.Fprintln(out, "  :load <path>      Run a chunk file")
		fmt.Fprintln(out, "  :dis [path]       Disassemble a chunk file or the last chunk")
		fmt.Fprintln(out, "  :save <name>      Save the last chunk to the database")
		fmt.Fprintln(out, "  :run <name>       Run a chunk from the database")
		fmt.Fprintln(out, "  :drop <name>      Delete a chunk from the database")
		fmt.Fprintln(out, "  :chunks           List the chunks in the database")
		fmt.Fprintln(out, "  exit, quit        Exit REPL")
	case ":trace":
		r.vm.SetTrace(!r.vm.Tracing())
		if r.vm.Tracing() {
			fmt.Fprintln(out, "Tracing on")
		} else {
			fmt.Fprintln(out, "Tracing off")
		}
	case ":stack":
		stack := r.vm.Stack()
		if len(stack) == 0 {
			fmt.Fprintln(out, "(empty)")
			return
		}
		fmt.Fprintln(out, strings.TrimSpace(bytecode.FormatStack(stack)))
	case ":reset":
		r.vm.Reset()
		r.last = nil
		fmt.Fprintln(out, "VM reset")
	case ":demo":
		r.interpret(out, demoChunk())
	case ":load":
		if arg == "" {
			fmt.Fprintln(out, "Usage: :load <path>")
			return
		}
		chunk, err := bytecode.ReadChunkFile(arg)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		r.interpret(out, chunk)
	case ":dis":
		chunk, label := r.last, "last"
		if arg != "" {
			var err error
			if chunk, err = bytecode.ReadChunkFile(arg); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				return
			}
			label = arg
		}
		if chunk == nil {
			fmt.Fprintln(out, "No chunk loaded")
			return
		}
		fmt.Fprint(out, chunk.Disassemble(label))
	case ":save", ":run", ":drop", ":chunks":
		r.storeCommand(cmd, arg, out)
	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

func (r *repl) storeCommand(cmd, name string, out io.Writer) {
	if r.store == nil {
		fmt.Fprintln(out, "No chunk database (start with -store or set [store] path)")
		return
	}

	if cmd == ":chunks" {
		entries, err := r.store.List()
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		printEntries(out, entries)
		return
	}

	if name == "" {
		fmt.Fprintf(out, "Usage: %s <name>\n", cmd)
		return
	}
	switch cmd {
	case ":save":
		if r.last == nil {
			fmt.Fprintln(out, "No chunk loaded")
			return
		}
		if err := r.store.Put(name, r.last); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(out, "Saved %s\n", name)
	case ":run":
		chunk, err := r.store.Get(name)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		r.interpret(out, chunk)
	case ":drop":
		if err := r.store.Delete(name); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(out, "Dropped %s\n", name)
	}
}

func (r *repl) interpret(out io.Writer, chunk *bytecode.Chunk) {
	r.last = chunk
	result, err := r.vm.Interpret(chunk)
	printResult(out, result, err)
}

// printResult prints the returned value, or the compile or runtime error.
func printResult(out io.Writer, result bytecode.Value, err error) {
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	fmt.Fprintln(out, result)
}
