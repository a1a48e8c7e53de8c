// Package compiler is the source-to-bytecode front end for the cayo VM.
//
// Expression compilation has not been written yet. Compile accepts source
// text, reports why it could not be translated, and never emits instructions.
// It has the shape of bytecode.CompileFunc so that callers can wire it into a
// VM today and pick up a real translator without changes.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/cayo/pkg/bytecode"
)

// Name identifies this compiler backend in CLI output.
const Name = "cayo-stub"

var (
	// ErrEmptySource is returned for input containing only whitespace.
	ErrEmptySource = errors.New("empty source")

	// ErrNotImplemented is returned for every non-empty input.
	ErrNotImplemented = errors.New("expression compilation is not implemented")
)

// Compile translates source into a chunk. It currently always fails.
func Compile(source string) (*bytecode.Chunk, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}
	line := 1 + strings.Count(strings.TrimRight(source, "\n"), "\n")
	return nil, fmt.Errorf("%w (%d line(s) of input)", ErrNotImplemented, line)
}

var _ bytecode.CompileFunc = Compile
