// Package bytecode provides the cayo instruction set, the chunk container that
// holds compiled code, a disassembler, and the stack-based virtual machine
// that executes chunks.
//
// # Architecture Overview
//
// The package consists of four pieces, in dependency order:
//
//   - Opcodes: a closed set of seven instructions covering constant loading,
//     unary negation, the four binary arithmetic operators, and return.
//
//   - Chunk: one compilation unit. It holds the instruction sequence, the
//     constant pool, and a line table with one source line per instruction.
//     Chunks can be serialized to bytes using the "CAYO" binary format, or to
//     CBOR for interchange.
//
//   - Disassembler: renders a chunk, or a single instruction, as text. The VM
//     trace mode calls the same per-instruction routine.
//
//   - VM: fetch-decode-execute loop over a chunk with an operand stack. There
//     are no jumps; the program counter advances by one per fetch and the
//     only way to halt normally is OpReturn.
//
// # Operand Order
//
// Binary operators pop the right-hand operand first. A chunk that loads 10,
// then 3, then executes OpSubtract leaves 7 on the stack.
//
// # Faults
//
// Stack underflow, type mismatch, an out-of-range constant index, and a fetch
// past the end of the code all abort the current interpretation with a
// *RuntimeError. Use errors.Is with the sentinel errors to tell them apart.
package bytecode
