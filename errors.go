package x86enc

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownMnemonic is returned when no variant table exists for a mnemonic, or for a
	// (mnemonic, condition code) pair.
	ErrUnknownMnemonic = errors.New("unknown mnemonic")

	// ErrNoMatch is returned when no variant of a known mnemonic accepts the supplied operands in
	// the requested processor mode with the requested prefixes.
	ErrNoMatch = errors.New("no matching variant")

	// ErrOperandOutOfRange is returned when an immediate, relative offset, far pointer or
	// displacement does not fit the width of the matched operand.
	ErrOperandOutOfRange = errors.New("operand out of range")

	// ErrUnsupportedAddressing is returned when a memory operand or register combination cannot be
	// represented with ModRM/SIB/REX in the requested processor mode.
	ErrUnsupportedAddressing = errors.New("unsupported addressing form")
)

// EncodingError describes a failure to select or encode a variant. Err is one of the package
// sentinel errors and can be matched with errors.Is.
type EncodingError struct {
	Err      error
	Mnemonic string
	Cond     Cond
	Operands string // operand shapes, e.g. "r32, imm"
	Mode     Mode
	Detail   string
}

func (e *EncodingError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	sb.WriteString(": ")
	sb.WriteString(e.Mnemonic)
	if e.Cond != CondNone {
		sb.WriteString("(")
		sb.WriteString(e.Cond.String())
		sb.WriteString(")")
	}
	sb.WriteString(" ")
	sb.WriteString(e.Operands)
	sb.WriteString(" in ")
	sb.WriteString(e.Mode.String())
	sb.WriteString(" mode")
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *EncodingError) Unwrap() error { return e.Err }

func newError(err error, inst *Instruction, mode Mode, detail string) *EncodingError {
	return &EncodingError{
		Err:      err,
		Mnemonic: inst.Mnemonic,
		Cond:     inst.Cond,
		Operands: argShapes(inst.Args),
		Mode:     mode,
		Detail:   detail,
	}
}
