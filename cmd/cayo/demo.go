package main

import "github.com/chazu/cayo/pkg/bytecode"

// demoChunk computes (1.2 + 3.6) / 5.8.
func demoChunk() *bytecode.Chunk {
	c := bytecode.NewChunk()
	c.EmitConstant(bytecode.Number(1.2), 1)
	c.EmitConstant(bytecode.Number(3.6), 1)
	c.Write(bytecode.Binary(bytecode.Add), 1)
	c.EmitConstant(bytecode.Number(5.8), 1)
	c.Write(bytecode.Binary(bytecode.Divide), 1)
	c.Write(bytecode.Return(), 2)
	return c
}
