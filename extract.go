package x86enc

import (
	"fmt"

	. "github.com/wdamron/x86enc/flags"
)

// patternArg is one operand of a variant pattern: a type letter and a size letter.
//
// Type letters:
//
// 	A..P  fixed general-purpose register, numbered from A (0) to P (15)
// 	r     general-purpose register
// 	v     general-purpose register or memory
// 	m     memory
// 	y     xmm register
// 	w     xmm register or memory
// 	i     immediate
// 	o     relative offset
// 	p     far pointer
//
// Size letters: b (8), w (16), d (32), f (48), q (64), o (128), * (expanded operation size),
// ! (no size).
type patternArg struct {
	typ, size byte
}

func parsePattern(pattern string) ([]patternArg, error) {
	if len(pattern)%2 != 0 {
		return nil, fmt.Errorf("odd-length pattern %q", pattern)
	}
	args := make([]patternArg, 0, len(pattern)/2)
	for i := 0; i < len(pattern); i += 2 {
		t, s := pattern[i], pattern[i+1]
		switch {
		case t >= 'A' && t <= 'P':
		case t == 'r', t == 'v', t == 'm', t == 'y', t == 'w', t == 'i', t == 'o', t == 'p':
		default:
			return nil, fmt.Errorf("unknown operand type %q in pattern %q", t, pattern)
		}
		switch s {
		case 'b', 'w', 'd', 'f', 'q', 'o', '*', '!':
		default:
			return nil, fmt.Errorf("unknown operand size %q in pattern %q", s, pattern)
		}
		args = append(args, patternArg{t, s})
	}
	return args, nil
}

func (p patternArg) hasWildcard() bool { return p.size == '*' }
func (p patternArg) isModRM() bool {
	switch p.typ {
	case 'r', 'v', 'm', 'y', 'w':
		return true
	}
	return false
}
func (p patternArg) isMemory() bool { return p.typ == 'v' || p.typ == 'm' || p.typ == 'w' }
func (p patternArg) isSIMD() bool   { return p.typ == 'y' || p.typ == 'w' }

// Resolve the size letter, given the expanded operation size for wildcards.
func (p patternArg) resolveSize(opSize Size) Size {
	switch p.size {
	case 'b':
		return Size8
	case 'w':
		return Size16
	case 'd':
		return Size32
	case 'f':
		return Size48
	case 'q':
		return Size64
	case 'o':
		return Size128
	case '*':
		if p.typ == 'i' && opSize > Size32 {
			// immediates are at most 32 bits, sign-extended to 64-bit operations
			return Size32
		}
		return opSize
	}
	return 0
}

// Build operand descriptors for one expansion of a pattern and place each operand.
//
// Fixed registers are implicit; immediates, relative offsets and far pointers trail the
// instruction. With SHORT_ARG the register operand is added to the last opcode byte. Otherwise
// a lone register/memory operand goes into ModRM.rm. Two operands are ordered reg, rm unless
// ENC_MR is set or the first operand may be memory, which gives rm, reg.
func extractOperands(args []patternArg, opSize Size, flags uint32, ext int8) ([]OperandDescriptor, error) {
	ds := make([]OperandDescriptor, len(args))
	var modrm []int

	for i, a := range args {
		size := a.resolveSize(opSize)
		d := &ds[i]
		d.Size = size

		switch a.typ {
		case 'r', 'v':
			if class := gpClass(size); class != ClassNone {
				d.Class = class
			} else {
				return nil, fmt.Errorf("invalid register size %s in operand %d", size, i)
			}
			d.Kind = KindReg
			if a.typ == 'v' {
				d.Kind = KindRegMem
			}
		case 'y':
			d.Kind, d.Class, d.Size = KindReg, ClassSIMD128, Size128
		case 'w':
			d.Kind, d.Class = KindRegMem, ClassSIMD128
		case 'm':
			d.Kind = KindMem
		case 'i':
			d.Kind, d.Encoding = KindImm, EncImmediate
			if size == 0 || size == Size48 || size == Size128 {
				return nil, fmt.Errorf("invalid immediate size %s in operand %d", size, i)
			}
		case 'o':
			d.Kind, d.Encoding = KindRel, EncImmediate
			if size != Size8 && size != Size16 && size != Size32 {
				return nil, fmt.Errorf("invalid relative offset size %s in operand %d", size, i)
			}
		case 'p':
			d.Kind, d.Encoding = KindFarPtr, EncImmediate
			if size != Size32 && size != Size48 {
				return nil, fmt.Errorf("invalid far pointer size %s in operand %d", size, i)
			}
		default: // A..P
			if gpClass(size) == ClassNone {
				return nil, fmt.Errorf("invalid fixed register size %s in operand %d", size, i)
			}
			d.Kind, d.Encoding = KindFixedReg, EncImplicit
			d.Fixed = gpReg(a.typ-'A', size)
		}

		if a.isModRM() {
			modrm = append(modrm, i)
		}
	}

	if flags&SHORT_ARG != 0 {
		if len(modrm) != 1 || args[modrm[0]].typ != 'r' {
			return nil, fmt.Errorf("SHORT_ARG requires exactly one register operand")
		}
		ds[modrm[0]].Encoding = EncOpcodeAdd
		return ds, nil
	}

	switch len(modrm) {
	case 0:
		if ext >= 0 {
			return nil, fmt.Errorf("an opcode extension requires a ModRM operand")
		}
	case 1:
		if ext < 0 {
			return nil, fmt.Errorf("a single ModRM operand requires an opcode extension")
		}
		ds[modrm[0]].Encoding = EncModRMRM
	case 2:
		if ext >= 0 {
			return nil, fmt.Errorf("two ModRM operands leave no room for an opcode extension")
		}
		first, second := modrm[0], modrm[1]
		if flags&ENC_MR != 0 || args[first].isMemory() {
			ds[first].Encoding, ds[second].Encoding = EncModRMRM, EncModRMReg
		} else {
			ds[first].Encoding, ds[second].Encoding = EncModRMReg, EncModRMRM
		}
		if ds[first].Kind == KindMem && ds[second].Kind == KindMem {
			return nil, fmt.Errorf("multiple memory operands")
		}
	default:
		return nil, fmt.Errorf("too many ModRM operands (%d)", len(modrm))
	}
	return ds, nil
}
