// Package bytecode integration tests
//
// These tests verify the full pipeline from chunk construction through
// encoding, decoding, disassembly and VM execution.
package bytecode

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// evalChain computes the same value as arithmeticChain(n) directly in Go.
func evalChain(n int) float64 {
	acc := 1.0
	for i := 0; i < n; i++ {
		x := float64(i%7 + 1)
		switch i % 4 {
		case 0:
			acc = acc + x
		case 1:
			acc = acc * x
		case 2:
			acc = acc - x
		case 3:
			acc = acc / x
		}
		if i%5 == 0 {
			acc = -acc
		}
	}
	return acc
}

func TestIntegrationChainMatchesGo(t *testing.T) {
	for _, n := range []int{0, 1, 4, 17, 250} {
		got := mustInterpret(t, NewVM(Config{}), arithmeticChain(n))
		if want := evalChain(n); got.AsNumber() != want {
			t.Errorf("chain(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestIntegrationEncodedChunksRunIdentically(t *testing.T) {
	dir := t.TempDir()
	original := arithmeticChain(40)
	want := mustInterpret(t, NewVM(Config{}), original)

	for _, format := range []Format{FormatBinary, FormatCBOR} {
		path := filepath.Join(dir, "chain."+string(format))
		if err := WriteChunkFile(path, original, format); err != nil {
			t.Fatalf("WriteChunkFile(%s): %v", format, err)
		}
		loaded, err := ReadChunkFile(path)
		if err != nil {
			t.Fatalf("ReadChunkFile(%s): %v", format, err)
		}

		got := mustInterpret(t, NewVM(Config{}), loaded)
		if !Equal(got, want) {
			t.Errorf("%s: result %v, want %v", format, got, want)
		}
		if loaded.Disassemble("chain") != original.Disassemble("chain") {
			t.Errorf("%s: disassembly differs after round trip", format)
		}
	}
}

func TestIntegrationTraceContainsListing(t *testing.T) {
	c := arithmeticChain(12)

	var trace bytes.Buffer
	vm := NewVM(Config{Trace: true, TraceOutput: &trace})
	mustInterpret(t, vm, c)

	for _, line := range c.DisassembleToLines() {
		if !strings.Contains(trace.String(), line+"\n") {
			t.Errorf("trace is missing %q", line)
		}
	}
}

func TestIntegrationREPLSession(t *testing.T) {
	// A long-lived VM handles a fault and keeps serving later inputs.
	vm := NewVM(Config{})
	inputs := []struct {
		chunk  *Chunk
		result InterpretResult
	}{
		{chunkOf([]float64{10, 3}, OpSubtract, OpReturn), ResultOK},
		{chunkOf(nil, OpReturn), ResultRuntimeError},
		{chunkOf([]float64{2}, OpNegate), ResultRuntimeError},
		{chunkOf([]float64{6, 3}, OpDivide, OpReturn), ResultOK},
	}

	for i, in := range inputs {
		_, err := vm.Interpret(in.chunk)
		if got := Status(err); got != in.result {
			t.Errorf("input %d: %s (%v), want %s", i, got, err, in.result)
		}
	}
}
