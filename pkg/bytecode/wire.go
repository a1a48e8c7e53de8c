package bytecode

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Format selects a chunk file encoding.
type Format string

const (
	FormatBinary Format = "binary"
	FormatCBOR   Format = "cbor"
)

// ParseFormat accepts "binary" or "cbor".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatBinary, FormatCBOR:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown chunk format %q (want binary or cbor)", s)
	}
}

// cborEncMode uses canonical mode for deterministic encoding. NaN constants
// keep their payload bits, as they do in the binary format.
var cborEncMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.NaNConvert = cbor.NaNConvertNone
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// wireChunk is the CBOR shape of a Chunk.
type wireChunk struct {
	Version   uint16      `cbor:"1,keyasint"`
	Code      []wireInstr `cbor:"2,keyasint"`
	Constants []wireValue `cbor:"3,keyasint,omitempty"`
}

type wireInstr struct {
	Op      uint8 `cbor:"1,keyasint"`
	Operand int   `cbor:"2,keyasint,omitempty"`
	Line    int   `cbor:"3,keyasint"`
}

type wireValue struct {
	Kind   uint8   `cbor:"1,keyasint"`
	Number float64 `cbor:"2,keyasint"`
}

// MarshalChunk serializes a Chunk to CBOR bytes.
func MarshalChunk(c *Chunk) ([]byte, error) {
	if len(c.Lines) != len(c.Code) {
		return nil, fmt.Errorf("bytecode: line table has %d entries for %d instructions", len(c.Lines), len(c.Code))
	}
	w := wireChunk{
		Version: c.Version,
		Code:    make([]wireInstr, len(c.Code)),
	}
	for i, in := range c.Code {
		w.Code[i] = wireInstr{Op: uint8(in.Op), Operand: in.Operand, Line: c.Lines[i]}
	}
	for i, v := range c.Constants {
		if !v.IsNumber() {
			return nil, fmt.Errorf("bytecode: constant %d: cannot encode %s value", i, v.Kind())
		}
		w.Constants = append(w.Constants, wireValue{Kind: uint8(v.Kind()), Number: v.AsNumber()})
	}
	return cborEncMode.Marshal(&w)
}

// UnmarshalChunk deserializes and validates a Chunk from CBOR bytes.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var w wireChunk
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal chunk: %w", err)
	}
	if w.Version > BytecodeVersion {
		return nil, fmt.Errorf("bytecode: version %d is newer than supported version %d", w.Version, BytecodeVersion)
	}

	c := &Chunk{
		Version:   w.Version,
		Code:      make([]Instruction, len(w.Code)),
		Lines:     make([]int, len(w.Code)),
		Constants: make([]Value, len(w.Constants)),
	}
	for i, in := range w.Code {
		c.Code[i] = Instruction{Op: Opcode(in.Op), Operand: in.Operand}
		c.Lines[i] = in.Line
	}
	for i, v := range w.Constants {
		if ValueKind(v.Kind) != KindNumber {
			return nil, fmt.Errorf("bytecode: constant %d: unknown value kind %d", i, v.Kind)
		}
		c.Constants[i] = Number(v.Number)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("bytecode: %w", err)
	}
	return c, nil
}

// LoadChunk decodes data in either encoding, detected by the magic prefix.
func LoadChunk(data []byte) (*Chunk, error) {
	if bytes.HasPrefix(data, BytecodeMagic) {
		return Deserialize(data)
	}
	return UnmarshalChunk(data)
}

// EncodeChunk encodes c in the given format.
func EncodeChunk(c *Chunk, format Format) ([]byte, error) {
	switch format {
	case FormatBinary, "":
		return c.Serialize()
	case FormatCBOR:
		return MarshalChunk(c)
	default:
		return nil, fmt.Errorf("unknown chunk format %q", format)
	}
}

// ReadChunkFile loads a chunk file in either encoding.
func ReadChunkFile(path string) (*Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c, err := LoadChunk(data)
	if err != nil {
		return nil, fmt.Errorf("cannot load %s: %w", path, err)
	}
	return c, nil
}

// WriteChunkFile encodes c and writes it to path.
func WriteChunkFile(path string, c *Chunk, format Format) error {
	data, err := EncodeChunk(c, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}
