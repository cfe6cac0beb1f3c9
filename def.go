package x86enc

import (
	"fmt"

	"github.com/wdamron/x86enc/feats"
	. "github.com/wdamron/x86enc/flags"
)

// Def is a compact variant definition: an operand pattern, literal opcode bytes, an optional
// opcode extension (or NoExt), variant flags and required CPU features. A single Def expands into
// one variant per operation size when its pattern contains "*" sizes or its flags contain
// AUTO_SIZE, AUTO_NO32 or AUTO_REXW.
//
// See patternArg for the pattern syntax.
type Def struct {
	Pattern string
	Opcode  []byte
	Ext     int8
	Flags   uint32
	Feats   feats.Feature
}

type op = []byte

type expansion struct {
	size      Size
	modes     ModeSet
	default64 bool
}

func expansions(f uint32, wildcard bool) []expansion {
	switch {
	case f&AUTO_NO32 != 0:
		return []expansion{{Size16, AllModes, false}, {Size32, ModeLegacy, false}, {Size64, ModeLong, true}}
	case f&AUTO_REXW != 0:
		return []expansion{{Size32, AllModes, false}, {Size64, ModeLong, false}}
	case f&AUTO_SIZE != 0, wildcard:
		return []expansion{{Size16, AllModes, false}, {Size32, AllModes, false}, {Size64, ModeLong, false}}
	}
	return []expansion{{0, AllModes, false}}
}

func baseModes(f uint32) ModeSet {
	modes := AllModes
	if f&X86_ONLY != 0 {
		modes &= ModeLegacy
	}
	if f&X64_ONLY != 0 {
		modes &= ModeLong
	}
	if f&REAL_ONLY != 0 {
		modes &= ModeReal
	}
	if f&NO_REAL != 0 {
		modes &= ModeProtected | ModeLong
	}
	return modes
}

// Operation size of a variant which is not expanded: explicit size flags, else the first sized
// general-purpose register/memory operand, else the first fixed register.
func fixedSizeClass(args []patternArg, f uint32) Size {
	switch {
	case f&BYTE_SIZE != 0:
		return Size8
	case f&WORD_SIZE != 0:
		return Size16
	case f&DWORD_SIZE != 0:
		return Size32
	case f&WITH_REXW != 0:
		return Size64
	}
	for _, a := range args {
		if a.isSIMD() {
			return 0
		}
	}
	for _, a := range args {
		if a.typ == 'r' || a.typ == 'v' || a.typ == 'm' {
			if s := a.resolveSize(0); gpClass(s) != ClassNone {
				return s
			}
		}
	}
	for _, a := range args {
		if a.typ >= 'A' && a.typ <= 'P' {
			return a.resolveSize(0)
		}
	}
	return 0
}

func mandatoryPrefix(f uint32) byte {
	switch {
	case f&PREF_66 != 0:
		return 0x66
	case f&PREF_F2 != 0:
		return 0xf2
	case f&PREF_F3 != 0:
		return 0xf3
	}
	return 0
}

// Compile a definition into variants, in expansion order. Expansions which are not legal in any
// processor mode are dropped.
func compileDef(mnemonic string, cond Cond, def Def) ([]*OpcodeVariant, error) {
	if len(def.Opcode) == 0 || len(def.Opcode) > 3 {
		return nil, fmt.Errorf("x86enc: %s %q: opcode must be 1-3 bytes", mnemonic, def.Pattern)
	}
	if def.Ext > 7 {
		return nil, fmt.Errorf("x86enc: %s %q: opcode extension %d out of range", mnemonic, def.Pattern, def.Ext)
	}
	args, err := parsePattern(def.Pattern)
	if err != nil {
		return nil, fmt.Errorf("x86enc: %s: %w", mnemonic, err)
	}
	wildcard := false
	for _, a := range args {
		if a.hasWildcard() {
			wildcard = true
		}
	}

	opcode := append([]byte(nil), def.Opcode...)
	if cond != CondNone {
		opcode[len(opcode)-1] += cond.Code()
	}

	var variants []*OpcodeVariant
	for _, exp := range expansions(def.Flags, wildcard) {
		size := exp.size
		if size == 0 {
			size = fixedSizeClass(args, def.Flags)
		}
		modes := baseModes(def.Flags) & exp.modes
		if size == Size64 && !exp.default64 {
			modes &= ModeLong
		}
		if modes == 0 {
			continue
		}
		ds, err := extractOperands(args, exp.size, def.Flags, def.Ext)
		if err != nil {
			return nil, fmt.Errorf("x86enc: %s %q: %w", mnemonic, def.Pattern, err)
		}
		for i := range ds {
			if ds[i].Kind != KindImm {
				continue
			}
			if def.Flags&IMM_SX != 0 || (args[i].hasWildcard() && ds[i].Size < exp.size) {
				ds[i].SignExtend = true
			}
		}
		variants = append(variants, &OpcodeVariant{
			Mnemonic:  mnemonic,
			Cond:      cond,
			Opcode:    opcode,
			Prefix:    mandatoryPrefix(def.Flags),
			Extension: def.Ext,
			Operands:  ds,
			Modes:     modes,
			SizeClass: size,
			Default64: exp.default64,
			Lockable:  def.Flags&LOCK != 0,
			Flags:     def.Flags,
			Feats:     def.Feats,
			Pattern:   def.Pattern,
		})
	}
	return variants, nil
}
