package x86enc

import (
	"fmt"
	"strings"
)

// Arg represents an instruction argument.
//
// Any Reg, Mem, FarPtr, immediate (Imm, Imm8, Imm16, Imm32, Imm64) or relative offset
// (Rel, Rel8, Rel16, Rel32) value implements Arg.
type Arg interface {
	isArg()
	width() Size
	shape() string
}

// Mem is a memory-reference argument. Base may be RIP/EIP for RIP-relative addressing in long mode.
// Seg is an optional segment override; Width is the addressed width, or 0 when the width should be
// implied by the other arguments of the instruction.
//
// Mem implements Arg.
type Mem struct {
	Seg   Reg
	Base  Reg
	Index Reg
	Scale uint8
	Disp  int32
	Width Size
}

func (m Mem) isArg()      {}
func (m Mem) width() Size { return m.Width }

func (m Mem) shape() string {
	if m.Width == 0 {
		return "m"
	}
	return fmt.Sprintf("m%d", m.Width.Bits())
}

func (m Mem) String() string {
	var sb strings.Builder
	if p := m.Width.ptrName(); p != "" {
		sb.WriteString(p)
		sb.WriteString(" ptr ")
	}
	if m.Seg != 0 {
		sb.WriteString(m.Seg.String())
		sb.WriteByte(':')
	}
	sb.WriteByte('[')
	sep := ""
	if m.Base != 0 {
		sb.WriteString(m.Base.String())
		sep = "+"
	}
	if m.Index != 0 {
		sb.WriteString(sep)
		sb.WriteString(m.Index.String())
		if m.Scale > 1 {
			fmt.Fprintf(&sb, "*%d", m.Scale)
		}
		sep = "+"
	}
	switch {
	case m.Disp < 0:
		fmt.Fprintf(&sb, "-%#x", -int64(m.Disp))
	case m.Disp > 0 || sep == "":
		fmt.Fprintf(&sb, "%s%#x", sep, m.Disp)
	}
	sb.WriteByte(']')
	return sb.String()
}

// ImmArg represents an immediate argument.
//
// Any Imm, Imm8, Imm16, Imm32, or Imm64 value implements ImmArg.
type ImmArg interface {
	Arg
	isImm()
	Int64() int64
}

// Imm is an immediate argument with no declared width. It matches any immediate operand its
// value fits into.
//
// Imm implements ImmArg.
type Imm int64

// Imm8 is an 8-bit immediate argument. Sized immediates may be widened to match an operand,
// but never narrowed.
//
// Imm8 implements ImmArg.
type Imm8 int8

// Imm16 is a 16-bit immediate argument.
//
// Imm16 implements ImmArg.
type Imm16 int16

// Imm32 is a 32-bit immediate argument.
//
// Imm32 implements ImmArg.
type Imm32 int32

// Imm64 is a 64-bit immediate argument.
//
// Imm64 implements ImmArg.
type Imm64 int64

func (i Imm) isArg()   {}
func (i Imm8) isArg()  {}
func (i Imm16) isArg() {}
func (i Imm32) isArg() {}
func (i Imm64) isArg() {}

func (i Imm) isImm()   {}
func (i Imm8) isImm()  {}
func (i Imm16) isImm() {}
func (i Imm32) isImm() {}
func (i Imm64) isImm() {}

func (i Imm) width() Size   { return 0 }
func (i Imm8) width() Size  { return Size8 }
func (i Imm16) width() Size { return Size16 }
func (i Imm32) width() Size { return Size32 }
func (i Imm64) width() Size { return Size64 }

func (i Imm) shape() string   { return "imm" }
func (i Imm8) shape() string  { return "imm8" }
func (i Imm16) shape() string { return "imm16" }
func (i Imm32) shape() string { return "imm32" }
func (i Imm64) shape() string { return "imm64" }

func (i Imm) Int64() int64   { return int64(i) }
func (i Imm8) Int64() int64  { return int64(i) }
func (i Imm16) Int64() int64 { return int64(i) }
func (i Imm32) Int64() int64 { return int64(i) }
func (i Imm64) Int64() int64 { return int64(i) }

// RelArg represents a displacement relative to the end of the encoded instruction.
//
// Any Rel, Rel8, Rel16, or Rel32 value implements RelArg.
type RelArg interface {
	Arg
	isRel()
	Int32() int32
}

// Rel is a relative displacement with no declared width.
//
// Rel implements RelArg.
type Rel int32

// Rel8 is an 8-bit displacement argument.
//
// Rel8 implements RelArg.
type Rel8 int8

// Rel16 is a 16-bit displacement argument.
//
// Rel16 implements RelArg.
type Rel16 int16

// Rel32 is a 32-bit displacement argument.
//
// Rel32 implements RelArg.
type Rel32 int32

func (r Rel) isArg()   {}
func (r Rel8) isArg()  {}
func (r Rel16) isArg() {}
func (r Rel32) isArg() {}

func (r Rel) isRel()   {}
func (r Rel8) isRel()  {}
func (r Rel16) isRel() {}
func (r Rel32) isRel() {}

func (r Rel) width() Size   { return 0 }
func (r Rel8) width() Size  { return Size8 }
func (r Rel16) width() Size { return Size16 }
func (r Rel32) width() Size { return Size32 }

func (r Rel) shape() string   { return "rel" }
func (r Rel8) shape() string  { return "rel8" }
func (r Rel16) shape() string { return "rel16" }
func (r Rel32) shape() string { return "rel32" }

func (r Rel) Int32() int32   { return int32(r) }
func (r Rel8) Int32() int32  { return int32(r) }
func (r Rel16) Int32() int32 { return int32(r) }
func (r Rel32) Int32() int32 { return int32(r) }

// FarPtr is an absolute far pointer argument (segment selector and offset) for far jumps and calls.
// Width may be Size32 (16:16) or Size48 (16:32); 0 selects whichever form the offset fits.
//
// FarPtr implements Arg.
type FarPtr struct {
	Selector uint16
	Offset   uint32
	Width    Size
}

func (p FarPtr) isArg()      {}
func (p FarPtr) width() Size { return p.Width }

func (p FarPtr) shape() string {
	switch p.Width {
	case Size32:
		return "ptr16:16"
	case Size48:
		return "ptr16:32"
	}
	return "ptr"
}

func argShapes(args []Arg) string {
	if len(args) == 0 {
		return "(none)"
	}
	shapes := make([]string, len(args))
	for i, arg := range args {
		if arg == nil {
			shapes[i] = "nil"
			continue
		}
		shapes[i] = arg.shape()
	}
	return strings.Join(shapes, ", ")
}
