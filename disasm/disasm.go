package disasm

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"golang.org/x/arch/x86/x86asm"
)

// Line is one decoded instruction.
type Line struct {
	Offset int
	Len    int
	Bytes  []byte
	Text   string // Intel syntax; relative targets are printed as offsets from the next instruction
	Inst   x86asm.Inst
}

func (l Line) String() string {
	return fmt.Sprintf("%04x  %-24s %s", l.Offset, fmt.Sprintf("% x", l.Bytes), l.Text)
}

// ErrTrailingBytes is returned by One when the code holds more than one instruction.
var ErrTrailingBytes = errors.New("disasm: trailing bytes after instruction")

// Decode every instruction in code for a 16, 32 or 64-bit processor mode. If decoding fails, the
// lines decoded before the failure are returned along with the error.
//
// Some instructions supported by the encoder in the x86enc package are not supported by the
// decoder in the x86asm package.
func Decode(code []byte, bits int) ([]Line, error) {
	switch bits {
	case 16, 32, 64:
	default:
		return nil, fmt.Errorf("disasm: invalid mode %d (must be 16, 32 or 64)", bits)
	}
	var lines []Line
	for n := 0; n < len(code); {
		inst, err := x86asm.Decode(code[n:], bits)
		if err != nil {
			return lines, fmt.Errorf("disasm: offset %#x: %w", n, err)
		}
		lines = append(lines, line(code, n, inst))
		n += inst.Len
	}
	return lines, nil
}

// Decode exactly one instruction which must span all of code.
func One(code []byte, bits int) (Line, error) {
	lines, err := Decode(code, bits)
	if err != nil {
		return Line{}, err
	}
	switch len(lines) {
	case 0:
		return Line{}, fmt.Errorf("disasm: no instruction: %w", x86asm.ErrTruncated)
	case 1:
		return lines[0], nil
	}
	return lines[0], ErrTrailingBytes
}

func line(code []byte, n int, inst x86asm.Inst) Line {
	return Line{
		Offset: n,
		Len:    inst.Len,
		Bytes:  code[n : n+inst.Len],
		Text:   x86asm.IntelSyntax(inst, 0, nil),
		Inst:   inst,
	}
}

// Disassemble 64-bit instructions from funcValue until while returns false. A maximum of 4096 bytes
// may be decoded. This function is entirely unsafe.
//
// funcValue must be a non-nil Go function-value.
func Func(funcValue interface{}, while func(Line) bool) error {
	// See "Go 1.1 Function Calls":
	// https://docs.google.com/document/d/1bMwCey-gmqZVTpRax-ESeVuZGmjwbocYs1iHplK-cjo/pub
	type interfaceHeader struct {
		typ  uintptr
		addr **[]byte
	}
	v := reflect.ValueOf(funcValue)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("disasm: argument for Func must be a non-nil function-value")
	}
	header := *(*interfaceHeader)(unsafe.Pointer(&funcValue))
	code := (*[4096]byte)(unsafe.Pointer(*header.addr))
	n := 0
	for n < 4096-16 {
		inst, err := x86asm.Decode(code[n:n+16], 64)
		if err != nil {
			return fmt.Errorf("disasm: offset %#x: %w", n, err)
		}
		if !while(line(code[:], n, inst)) {
			return nil
		}
		if code[n] == 0xc3 { // find RET + padding (end of function)
			end := n + 1
			if end&15 == 0 {
				return nil
			}
			pad := 16 - (end & 15) // functions are typically aligned to a 16-byte boundary
			if bytes.Equal(code[end:end+pad], pad00[:pad]) || bytes.Equal(code[end:end+pad], padcc[:pad]) {
				return nil
			}
		}
		n += inst.Len
	}
	return nil
}

// Manually allocated memory is typically zeroed
var pad00 = [16]byte{}

// The Go compiler pads functions with 0xCC bytes to a 16-byte alignment boundary
var padcc = [...]byte{0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc}
