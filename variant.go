package x86enc

import (
	"fmt"
	"strings"

	"github.com/wdamron/x86enc/feats"
	"github.com/wdamron/x86enc/flags"
)

// OperandKind is the shape of argument accepted by an operand slot.
type OperandKind uint8

const (
	KindNone OperandKind = iota
	KindReg
	KindRegMem
	KindMem
	KindImm
	KindRel
	KindFarPtr
	KindFixedReg
)

var kindNames = [...]string{"none", "reg", "reg/mem", "mem", "imm", "rel", "farptr", "fixed"}

func (k OperandKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// OperandEncoding is where an operand is placed in the encoded instruction.
type OperandEncoding uint8

const (
	EncNone      OperandEncoding = iota
	EncModRMReg                  // ModRM.reg, extended by REX.R
	EncModRMRM                   // ModRM.rm (and SIB), extended by REX.B/REX.X
	EncOpcodeAdd                 // low 3 bits added to the last opcode byte, extended by REX.B
	EncImplicit                  // fixed register; not encoded
	EncImmediate                 // trailing immediate bytes
)

var encodingNames = [...]string{"none", "modrm.reg", "modrm.rm", "opcode+r", "implicit", "imm"}

func (e OperandEncoding) String() string {
	if int(e) < len(encodingNames) {
		return encodingNames[e]
	}
	return fmt.Sprintf("encoding(%d)", uint8(e))
}

// OperandDescriptor describes the arguments accepted by one operand slot of a variant.
//
// Class is set for KindReg and KindRegMem. Size is the register, memory, immediate, relative-offset
// or far-pointer width; a KindMem descriptor with Size 0 accepts memory of any width. Fixed is set
// for KindFixedReg. SignExtend is set for immediates which are narrower than the operation and
// sign-extended by the processor, which restricts their range to signed values.
type OperandDescriptor struct {
	Kind       OperandKind
	Class      RegClass
	Size       Size
	Fixed      Reg
	Encoding   OperandEncoding
	SignExtend bool
}

func (d OperandDescriptor) String() string {
	switch d.Kind {
	case KindReg:
		return d.Class.String()
	case KindRegMem:
		if d.Class == ClassSIMD128 {
			return fmt.Sprintf("xmm/m%d", d.Size.Bits())
		}
		return fmt.Sprintf("%s/m%d", d.Class, d.Size.Bits())
	case KindMem:
		if d.Size == 0 {
			return "m"
		}
		return fmt.Sprintf("m%d", d.Size.Bits())
	case KindImm:
		if d.SignExtend {
			return fmt.Sprintf("simm%d", d.Size.Bits())
		}
		return fmt.Sprintf("imm%d", d.Size.Bits())
	case KindRel:
		return fmt.Sprintf("rel%d", d.Size.Bits())
	case KindFarPtr:
		if d.Size == Size32 {
			return "ptr16:16"
		}
		return "ptr16:32"
	case KindFixedReg:
		return d.Fixed.String()
	}
	return "none"
}

// NoExt marks a variant with no opcode extension in ModRM.reg.
const NoExt int8 = -1

// OpcodeVariant is one candidate encoding of a mnemonic.
//
// Opcode holds 1-3 literal opcode bytes, including any 0x0F escape. Prefix is a mandatory
// 0x66/0xF2/0xF3 prefix, or 0. Extension is the ModRM.reg value for instruction-group members, or
// NoExt. SizeClass is the operation size, used for the operand-size override and REX.W; it is 0
// when the variant's operands do not imply an operation size. Default64 variants operate on 64 bits
// in long mode without REX.W.
//
// Variants are immutable once added to a Table.
type OpcodeVariant struct {
	Mnemonic  string
	Cond      Cond
	Opcode    []byte
	Prefix    byte
	Extension int8
	Operands  []OperandDescriptor
	Modes     ModeSet
	SizeClass Size
	Default64 bool
	Lockable  bool
	Flags     uint32
	Feats     feats.Feature
	Pattern   string // source pattern, for diagnostics
}

// Check if the variant emits a ModRM byte.
func (v *OpcodeVariant) HasModRM() bool {
	if v.Extension >= 0 {
		return true
	}
	for _, d := range v.Operands {
		if d.Encoding == EncModRMReg || d.Encoding == EncModRMRM {
			return true
		}
	}
	return false
}

// Check if REX.W is required for the variant.
func (v *OpcodeVariant) RexW() bool { return v.SizeClass == Size64 && !v.Default64 }

func (v *OpcodeVariant) allowsRep() bool { return v.Flags&(flags.REP|flags.REPE) != 0 }

// Format the operand descriptors, e.g. "r/m32, imm8".
func (v *OpcodeVariant) OperandString() string {
	if len(v.Operands) == 0 {
		return ""
	}
	ds := make([]string, len(v.Operands))
	for i, d := range v.Operands {
		ds[i] = d.String()
	}
	return strings.Join(ds, ", ")
}

// Format the opcode in manual notation, e.g. "66 0F 58 /r" or "REX.W 81 /4 id".
func (v *OpcodeVariant) OpcodeString() string {
	var parts []string
	if v.Prefix != 0 {
		parts = append(parts, fmt.Sprintf("%02X", v.Prefix))
	}
	if v.RexW() {
		parts = append(parts, "REX.W")
	}
	for i, b := range v.Opcode {
		s := fmt.Sprintf("%02X", b)
		if i == len(v.Opcode)-1 && v.Flags&flags.SHORT_ARG != 0 {
			s += "+r"
		}
		parts = append(parts, s)
	}
	switch {
	case v.Extension >= 0:
		parts = append(parts, fmt.Sprintf("/%d", v.Extension))
	case v.HasModRM():
		parts = append(parts, "/r")
	}
	for _, d := range v.Operands {
		if d.Encoding != EncImmediate {
			continue
		}
		switch d.Kind {
		case KindImm:
			parts = append(parts, immNotation[d.Size])
		case KindRel:
			parts = append(parts, relNotation[d.Size])
		case KindFarPtr:
			parts = append(parts, relNotation[d.Size-Size16], "iw")
		}
	}
	return strings.Join(parts, " ")
}

var immNotation = map[Size]string{Size8: "ib", Size16: "iw", Size32: "id", Size64: "io"}
var relNotation = map[Size]string{Size16: "cw", Size32: "cd", Size8: "cb"}

func (v *OpcodeVariant) String() string {
	name := v.Mnemonic
	if v.Cond != CondNone {
		name = strings.TrimSuffix(name, "cc") + v.Cond.String()
	}
	if ops := v.OperandString(); ops != "" {
		name += " " + ops
	}
	return fmt.Sprintf("%s [%s] (%s)", name, v.OpcodeString(), v.Modes)
}
