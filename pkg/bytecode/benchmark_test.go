// Package bytecode benchmarks
//
// These benchmarks measure the performance of:
// - VM execution
// - Serialization/deserialization
// - Disassembly
//
// Run: go test -bench=. ./pkg/bytecode/...
// Run with memory stats: go test -bench=. -benchmem ./pkg/bytecode/...
package bytecode

import (
	"io"
	"testing"
)

// arithmeticChain builds ((((1 + 1) * 2) - 1) / 3)... repeated n times.
func arithmeticChain(n int) *Chunk {
	c := NewChunk()
	c.EmitConstant(Number(1), 1)
	ops := []BinaryOperator{Add, Multiply, Subtract, Divide}
	for i := 0; i < n; i++ {
		c.EmitConstant(Number(float64(i%7+1)), i+1)
		c.Write(Binary(ops[i%len(ops)]), i+1)
		if i%5 == 0 {
			c.Write(Negate(), i+1)
		}
	}
	c.Write(Return(), n+1)
	return c
}

// ============================================================
// VM Execution Benchmarks
// ============================================================

// BenchmarkVMInterpretSmall measures the end-to-end demo expression
func BenchmarkVMInterpretSmall(b *testing.B) {
	chunk := NewChunk()
	chunk.EmitConstant(Number(1.2), 1)
	chunk.EmitConstant(Number(3.6), 1)
	chunk.Write(Binary(Add), 1)
	chunk.EmitConstant(Number(5.8), 1)
	chunk.Write(Binary(Divide), 1)
	chunk.Write(Return(), 1)

	vm := NewVM(Config{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = vm.Interpret(chunk)
	}
}

// BenchmarkVMInterpretChain measures a long straight-line chunk
func BenchmarkVMInterpretChain(b *testing.B) {
	chunk := arithmeticChain(1000)
	vm := NewVM(Config{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = vm.Interpret(chunk)
	}
}

// BenchmarkVMInterpretTraced measures the cost of trace mode
func BenchmarkVMInterpretTraced(b *testing.B) {
	chunk := arithmeticChain(100)
	vm := NewVM(Config{Trace: true, TraceOutput: io.Discard})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = vm.Interpret(chunk)
	}
}

// ============================================================
// Serialization Benchmarks
// ============================================================

// BenchmarkSerialize measures binary encoding
func BenchmarkSerialize(b *testing.B) {
	chunk := arithmeticChain(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = chunk.Serialize()
	}
}

// BenchmarkDeserialize measures binary decoding
func BenchmarkDeserialize(b *testing.B) {
	data, err := arithmeticChain(1000).Serialize()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Deserialize(data)
	}
}

// BenchmarkMarshalCBOR measures CBOR encoding
func BenchmarkMarshalCBOR(b *testing.B) {
	chunk := arithmeticChain(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MarshalChunk(chunk)
	}
}

// ============================================================
// Disassembly Benchmarks
// ============================================================

// BenchmarkDisassemble measures full chunk listing
func BenchmarkDisassemble(b *testing.B) {
	chunk := arithmeticChain(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = DisassembleChunk(io.Discard, chunk, "bench")
	}
}
