package x86enc

import (
	"fmt"
	"strings"
)

// RepPrefix is a repeat prefix requested for a string instruction.
type RepPrefix uint8

const (
	RepNone RepPrefix = iota
	RepE              // F3: REP, REPE, REPZ
	RepNE             // F2: REPNE, REPNZ
)

// Instruction is a mnemonic bound to concrete arguments, plus instruction-level prefixes.
//
// Cond selects the variant table of a conditional family (Jcc, Setcc, Cmovcc) and must be CondNone
// for every other mnemonic. OperandSize, when non-zero, is an explicit operand-size override which
// must agree with the operand size of the selected variant; it also sizes memory arguments with
// no Width, and selects between the byte/word/dword/qword forms of string instructions.
type Instruction struct {
	Mnemonic    string
	Cond        Cond
	Args        []Arg
	Lock        bool
	Rep         RepPrefix
	OperandSize Size
}

// Build an instruction with no prefixes.
func Inst(mnemonic string, args ...Arg) Instruction {
	return Instruction{Mnemonic: mnemonic, Args: args}
}

// Get a copy of the instruction with the LOCK prefix requested.
func (inst Instruction) WithLock() Instruction {
	inst.Lock = true
	return inst
}

// Get a copy of the instruction with a repeat prefix requested.
func (inst Instruction) WithRep(rep RepPrefix) Instruction {
	inst.Rep = rep
	return inst
}

// Get a copy of the instruction with an explicit operand size.
func (inst Instruction) WithSize(size Size) Instruction {
	inst.OperandSize = size
	return inst
}

// Get the mnemonic as written, e.g. "jne" for (Jcc, CondNE).
func (inst Instruction) Name() string {
	if inst.Cond == CondNone {
		return inst.Mnemonic
	}
	return strings.TrimSuffix(inst.Mnemonic, "cc") + inst.Cond.String()
}

// Format the instruction in Intel syntax.
func (inst Instruction) String() string {
	var sb strings.Builder
	if inst.Lock {
		sb.WriteString("lock ")
	}
	switch inst.Rep {
	case RepE:
		sb.WriteString("rep ")
	case RepNE:
		sb.WriteString("repne ")
	}
	sb.WriteString(inst.Name())
	for i, arg := range inst.Args {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(formatArg(arg, inst.OperandSize))
	}
	return sb.String()
}

func formatArg(arg Arg, size Size) string {
	switch a := arg.(type) {
	case Reg:
		return a.String()
	case Mem:
		if a.Width == 0 {
			a.Width = size
		}
		return a.String()
	case ImmArg:
		v := a.Int64()
		if v < 0 {
			return fmt.Sprintf("-%#x", -v)
		}
		return fmt.Sprintf("%#x", v)
	case RelArg:
		return fmt.Sprintf(".%+d", a.Int32())
	case FarPtr:
		return fmt.Sprintf("%#x:%#x", a.Selector, a.Offset)
	case nil:
		return "<nil>"
	}
	return arg.shape()
}
