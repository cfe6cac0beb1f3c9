package x86enc

import (
	"fmt"
	"strings"
)

// Mode is a processor operating mode.
type Mode uint8

const (
	Real      Mode = iota // 16-bit real mode
	Protected             // 32-bit protected mode
	Long                  // 64-bit long mode
)

// Get the default operand and address width of the mode, in bits.
func (m Mode) Bits() int {
	switch m {
	case Real:
		return 16
	case Protected:
		return 32
	}
	return 64
}

func (m Mode) defaultSize() Size {
	if m == Real {
		return Size16
	}
	return Size32
}

func (m Mode) addrSize() Size {
	switch m {
	case Real:
		return Size16
	case Protected:
		return Size32
	}
	return Size64
}

func (m Mode) String() string {
	switch m {
	case Real:
		return "real"
	case Protected:
		return "protected"
	case Long:
		return "long"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Parse a mode name ("real", "protected", "long") or bit width ("16", "32", "64").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "real", "16":
		return Real, nil
	case "protected", "32":
		return Protected, nil
	case "long", "64":
		return Long, nil
	}
	return 0, fmt.Errorf("unknown processor mode %q", s)
}

// ModeSet is a set of processor modes.
type ModeSet uint8

const (
	ModeReal      ModeSet = 1 << Real
	ModeProtected ModeSet = 1 << Protected
	ModeLong      ModeSet = 1 << Long

	ModeLegacy ModeSet = ModeReal | ModeProtected
	AllModes   ModeSet = ModeReal | ModeProtected | ModeLong
)

// Check if the set contains the mode.
func (s ModeSet) Has(m Mode) bool { return s&(1<<m) != 0 }

func (s ModeSet) String() string {
	var names []string
	for m := Real; m <= Long; m++ {
		if s.Has(m) {
			names = append(names, m.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Size is an operand width in bytes.
type Size uint8

const (
	Size8   Size = 1
	Size16  Size = 2
	Size32  Size = 4
	Size48  Size = 6
	Size64  Size = 8
	Size128 Size = 16
)

// Get the width in bits.
func (s Size) Bits() int { return int(s) * 8 }

func (s Size) String() string {
	if s == 0 {
		return "none"
	}
	return fmt.Sprintf("%d", s.Bits())
}

func (s Size) ptrName() string {
	switch s {
	case Size8:
		return "byte"
	case Size16:
		return "word"
	case Size32:
		return "dword"
	case Size48:
		return "fword"
	case Size64:
		return "qword"
	case Size128:
		return "xmmword"
	}
	return ""
}

// RegClass is the register class accepted by a register operand.
type RegClass uint8

const (
	ClassNone RegClass = iota
	ClassGP8
	ClassGP16
	ClassGP32
	ClassGP64
	ClassSIMD128
	ClassSegment
)

func gpClass(size Size) RegClass {
	switch size {
	case Size8:
		return ClassGP8
	case Size16:
		return ClassGP16
	case Size32:
		return ClassGP32
	case Size64:
		return ClassGP64
	}
	return ClassNone
}

func (c RegClass) String() string {
	switch c {
	case ClassGP8:
		return "r8"
	case ClassGP16:
		return "r16"
	case ClassGP32:
		return "r32"
	case ClassGP64:
		return "r64"
	case ClassSIMD128:
		return "xmm"
	case ClassSegment:
		return "sreg"
	}
	return "none"
}
