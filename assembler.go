package x86enc

import "github.com/wdamron/x86enc/feats"

// An assembler encodes a sequence of instructions (e.g. a procedure body) into a byte slice.
//
// The first error is retained: once an instruction fails to encode, later instructions are ignored
// and the error is returned by Err until the assembler is reset. A failed instruction writes no bytes.
type Assembler struct {
	b   buffer
	enc *Encoder
	err error
}

// Create a new Assembler for the processor mode. Output will be appended to buf[:0]; if the encoded
// output exceeds the capacity of buf, a new slice will be allocated.
//
// All CPU features will be enabled by default, for variant selection.
func NewAssembler(buf []byte, mode Mode) *Assembler {
	return &Assembler{b: buffer{b: buf[:0]}, enc: NewEncoder(mode)}
}

// Get the encoder used by the assembler, to change its table, features or logger.
func (a *Assembler) Encoder() *Encoder { return a.enc }

// Restrict the allowable CPU feature-set for variant selection. This will not affect instructions
// which have already been encoded.
func (a *Assembler) SetFeatures(enabledFeatures feats.Feature) { a.enc.SetFeatures(enabledFeatures) }

// Reset an assembler before encoding a new set of instructions. The error will be cleared if one
// exists, and the PC will be reset to 0. The processor mode and enabled CPU features are retained.
//
// If buf is not nil, the assembler's buffer will be replaced with buf[:0]; otherwise, the assembler's
// buffer will be reused.
func (a *Assembler) Reset(buf []byte) {
	if buf != nil {
		a.b = buffer{b: buf[:0]}
	} else {
		a.b.Reset()
	}
	a.err = nil
}

// Get the first error which occurred while encoding instructions, since the assembler was last reset
// (or initialized, if the assembler has not been reset).
func (a *Assembler) Err() error { return a.err }

// Get the current encoded instructions. This method may be called multiple times and does not affect
// the underlying code buffer.
func (a *Assembler) Code() []byte { return a.b.Get() }

// Get the current program counter (i.e. number of bytes written to the encoding buffer).
func (a *Assembler) PC() int { return a.b.Len() }

// Encode an instruction to the encoding buffer.
func (a *Assembler) Encode(inst Instruction) error {
	if a.err != nil {
		return a.err
	}
	a.b.b, a.err = a.enc.Append(a.b.b, inst)
	return a.err
}

// Encode mnemonic with args to the encoding buffer.
func (a *Assembler) Inst(mnemonic string, args ...Arg) error {
	return a.Encode(Instruction{Mnemonic: mnemonic, Args: args})
}

// Encode a conditional-family instruction (Jcc, Setcc, Cmovcc) with args to the encoding buffer.
func (a *Assembler) Cond(family string, cc Cond, args ...Arg) error {
	return a.Encode(Instruction{Mnemonic: family, Cond: cc, Args: args})
}

// Encode mnemonic with args to the encoding buffer, prefixed with LOCK.
func (a *Assembler) Lock(mnemonic string, args ...Arg) error {
	return a.Encode(Instruction{Mnemonic: mnemonic, Args: args, Lock: true})
}

// Encode a string instruction to the encoding buffer, prefixed with REP/REPE/REPZ.
func (a *Assembler) Rep(mnemonic string, args ...Arg) error {
	return a.Encode(Instruction{Mnemonic: mnemonic, Args: args, Rep: RepE})
}

// Encode a string instruction to the encoding buffer, prefixed with REPNE/REPNZ.
func (a *Assembler) Repne(mnemonic string, args ...Arg) error {
	return a.Encode(Instruction{Mnemonic: mnemonic, Args: args, Rep: RepNE})
}

// Encode length bytes of NOP instructions to the encoding buffer.
func (a *Assembler) Nop(length int) {
	if a.err == nil {
		a.b.Nop(length, a.enc.mode)
	}
}

// Align the program counter to a power-of-2 offset. Intermediate space will be filled with NOPs.
func (a *Assembler) AlignPC(pow2 int) {
	if pow2 <= 1 {
		return
	}
	a.Nop((pow2 - a.PC()&(pow2-1)) & (pow2 - 1))
}
