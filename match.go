package x86enc

import (
	"fmt"
	"strings"

	"github.com/wdamron/x86enc/feats"
	"github.com/wdamron/x86enc/flags"
)

// Selection stages, in the order variants are filtered. When no variant matches, the furthest stage
// reached by any variant explains the failure.
const (
	stageArity = iota
	stageMode
	stageFeats
	stageLock
	stageRep
	stageSize
	stageOperands
)

type argMatch uint8

const (
	argOK argMatch = iota
	argMismatch
	argOutOfRange // the argument has the right shape but its value does not fit
)

// Select the first variant, in table order, which accepts the instruction's arguments and prefixes
// in the given processor mode with the enabled CPU features.
//
// If no variant accepts the arguments but at least one variant failed only because an immediate,
// relative offset or far pointer value was too wide, ErrOperandOutOfRange is returned; otherwise
// ErrNoMatch is returned.
func matchInst(t *Table, inst *Instruction, mode Mode, enabled feats.Feature) (*OpcodeVariant, error) {
	name := strings.ToLower(inst.Mnemonic)
	if !t.Has(name) {
		return nil, newError(ErrUnknownMnemonic, inst, mode, "")
	}
	isCond := t.IsCond(name)
	switch {
	case isCond && !inst.Cond.Valid():
		return nil, newError(ErrUnknownMnemonic, inst, mode, "a condition code is required")
	case !isCond && inst.Cond != CondNone:
		return nil, newError(ErrUnknownMnemonic, inst, mode, "the mnemonic does not take a condition code")
	}

	for i, arg := range inst.Args {
		switch a := arg.(type) {
		case nil:
			return nil, newError(ErrNoMatch, inst, mode, fmt.Sprintf("operand %d is nil", i))
		case Mem:
			if _, err := sanitizeMem(a, mode); err != nil {
				return nil, newError(ErrUnsupportedAddressing, inst, mode, err.Error())
			}
		}
	}

	furthest := stageArity
	outOfRange := false
	argc := len(inst.Args)
	variants := t.Variants(name, inst.Cond)

SEARCH:
	for _, v := range variants {
		if len(v.Operands) != argc {
			continue
		}
		if !v.Modes.Has(mode) {
			furthest = max(furthest, stageMode)
			continue
		}
		if !enabled.Has(v.Feats) {
			furthest = max(furthest, stageFeats)
			continue
		}
		if inst.Lock && !v.Lockable {
			furthest = max(furthest, stageLock)
			continue
		}
		switch inst.Rep {
		case RepE:
			if !v.allowsRep() {
				furthest = max(furthest, stageRep)
				continue SEARCH
			}
		case RepNE:
			if v.Flags&flags.REPE == 0 {
				furthest = max(furthest, stageRep)
				continue SEARCH
			}
		}
		if inst.OperandSize != 0 && v.SizeClass != 0 && inst.OperandSize != v.SizeClass {
			furthest = max(furthest, stageSize)
			continue
		}
		furthest = max(furthest, stageOperands)

		result := argOK
		for i, d := range v.Operands {
			switch matchArg(variants, v, d, i, inst, mode) {
			case argMismatch:
				continue SEARCH
			case argOutOfRange:
				result = argOutOfRange
			}
		}
		if result == argOutOfRange {
			outOfRange = true
			continue
		}
		if isNopAlias(v, inst, mode) {
			continue
		}
		return v, nil
	}

	if outOfRange {
		return nil, newError(ErrOperandOutOfRange, inst, mode, "the value does not fit any matching operand width")
	}
	var detail string
	switch furthest {
	case stageArity:
		detail = fmt.Sprintf("no variant takes %d operands", argc)
	case stageMode:
		detail = fmt.Sprintf("not available in %s mode", mode)
	case stageFeats:
		detail = "requires CPU features which are not enabled"
	case stageLock:
		detail = "LOCK prefix is not allowed"
	case stageRep:
		detail = "repeat prefix is not allowed"
	case stageSize:
		detail = fmt.Sprintf("operand size %s is not supported", inst.OperandSize)
	default:
		detail = "operand types do not match any variant"
	}
	return nil, newError(ErrNoMatch, inst, mode, detail)
}

// Match one argument against an operand descriptor of variant v, one of the mnemonic's variants.
func matchArg(variants []*OpcodeVariant, v *OpcodeVariant, d OperandDescriptor, i int, inst *Instruction, mode Mode) argMatch {
	arg := inst.Args[i]
	switch d.Kind {
	case KindFixedReg:
		if r, ok := arg.(Reg); ok && r == d.Fixed {
			return argOK
		}
	case KindReg:
		if r, ok := arg.(Reg); ok && regMatches(r, d, mode) {
			return argOK
		}
	case KindRegMem:
		switch a := arg.(type) {
		case Reg:
			if regMatches(a, d, mode) {
				return argOK
			}
		case Mem:
			if memWidthMatches(a, variants, v, d, i, inst) {
				return argOK
			}
		}
	case KindMem:
		if m, ok := arg.(Mem); ok && (d.Size == 0 || memWidthMatches(m, variants, v, d, i, inst)) {
			return argOK
		}
	case KindImm:
		imm, ok := arg.(ImmArg)
		if !ok || imm.width() > d.Size {
			return argMismatch
		}
		if !immFits(imm.Int64(), d.Size, d.SignExtend) {
			return argOutOfRange
		}
		return argOK
	case KindRel:
		rel, ok := arg.(RelArg)
		if !ok || rel.width() > d.Size {
			return argMismatch
		}
		if !relFits(rel.Int32(), d.Size) {
			return argOutOfRange
		}
		return argOK
	case KindFarPtr:
		p, ok := arg.(FarPtr)
		if !ok || (p.Width != 0 && p.Width != d.Size) {
			return argMismatch
		}
		if !farFits(p, d.Size) {
			return argOutOfRange
		}
		return argOK
	}
	return argMismatch
}

// Registers which require a REX prefix only exist in long mode.
func regMatches(r Reg, d OperandDescriptor, mode Mode) bool {
	return r.Class() == d.Class && (mode == Long || !r.NeedsREX())
}

// A memory argument with a width matches descriptors of the same width. A memory argument with no
// width matches when the instruction's explicit operand size agrees, or when another register
// argument of the variant implies the width. Beside an xmm register, a general-purpose memory slot
// takes its width only when no other variant of the same shape has a different width there.
func memWidthMatches(m Mem, variants []*OpcodeVariant, v *OpcodeVariant, d OperandDescriptor, i int, inst *Instruction) bool {
	if m.Width != 0 {
		return m.Width == d.Size
	}
	if inst.OperandSize != 0 {
		return inst.OperandSize == d.Size
	}
	for j, other := range v.Operands {
		if j == i || (other.Kind != KindReg && other.Kind != KindRegMem) {
			continue
		}
		if _, ok := inst.Args[j].(Reg); !ok {
			continue
		}
		switch {
		case d.Class == ClassSIMD128 || other.Size == d.Size:
			return true
		case other.Class == ClassSIMD128:
			return uniqueMemWidth(variants, v, i)
		}
	}
	return false
}

func uniqueMemWidth(variants []*OpcodeVariant, v *OpcodeVariant, i int) bool {
NEXT:
	for _, o := range variants {
		if o == v || len(o.Operands) != len(v.Operands) || o.Operands[i].Size == v.Operands[i].Size {
			continue
		}
		for j, d := range o.Operands {
			od := v.Operands[j]
			if d.Kind != od.Kind || (j != i && d.Class != od.Class) {
				continue NEXT
			}
		}
		return false
	}
	return true
}

// In long mode 90 is NOP and leaves the upper half of rax alone, so xchg eax, eax needs 87 /r.
func isNopAlias(v *OpcodeVariant, inst *Instruction, mode Mode) bool {
	if mode != Long || v.Prefix != 0 || len(v.Opcode) != 1 || v.Opcode[0] != 0x90 {
		return false
	}
	for i, d := range v.Operands {
		if d.Encoding == EncOpcodeAdd {
			return inst.Args[i] == Arg(EAX)
		}
	}
	return false
}
