package x86enc

import "strings"

// Cond is a condition code discriminator for the conditional instruction families (jcc, setcc, cmovcc).
// The zero value CondNone is used by every other mnemonic.
type Cond uint8

const (
	CondNone Cond = iota
	CondO         // overflow
	CondNO        // not overflow
	CondB         // unsigned <
	CondAE        // unsigned >=
	CondE         // ==
	CondNE        // !=
	CondBE        // unsigned <=
	CondA         // unsigned >
	CondS         // sign
	CondNS        // not sign
	CondP         // parity even
	CondNP        // parity odd
	CondL         // signed <
	CondGE        // signed >=
	CondLE        // signed <=
	CondG         // signed >
)

// Aliases for condition codes.
const (
	CondUnsignedLT  = CondB
	CondUnsignedGTE = CondAE
	CondEq          = CondE
	CondNeq         = CondNE
	CondUnsignedLTE = CondBE
	CondUnsignedGT  = CondA
	CondSignedLT    = CondL
	CondSignedGTE   = CondGE
	CondSignedLTE   = CondLE
	CondSignedGT    = CondG
)

// Get the 4-bit condition code added to the base opcode of a conditional instruction.
func (cc Cond) Code() uint8 { return uint8(cc-1) & 0xf }

// Check if the condition code is one of CondO through CondG.
func (cc Cond) Valid() bool { return cc >= CondO && cc <= CondG }

// Get the inverse of the condition code. Conditions are paired, so flipping the low bit of the
// 4-bit code inverts the condition.
func (cc Cond) Invert() Cond {
	if !cc.Valid() {
		return cc
	}
	return Cond(cc.Code()^1) + 1
}

func (cc Cond) String() string {
	if !cc.Valid() {
		return ""
	}
	return condNames[cc-1]
}

var condNames = [...]string{"o", "no", "b", "ae", "e", "ne", "be", "a", "s", "ns", "p", "np", "l", "ge", "le", "g"}

var condsByName = map[string]Cond{
	"o": CondO, "no": CondNO,
	"b": CondB, "c": CondB, "nae": CondB,
	"ae": CondAE, "nb": CondAE, "nc": CondAE,
	"e": CondE, "z": CondE,
	"ne": CondNE, "nz": CondNE,
	"be": CondBE, "na": CondBE,
	"a": CondA, "nbe": CondA,
	"s": CondS, "ns": CondNS,
	"p": CondP, "pe": CondP,
	"np": CondNP, "po": CondNP,
	"l": CondL, "nge": CondL,
	"ge": CondGE, "nl": CondGE,
	"le": CondLE, "ng": CondLE,
	"g": CondG, "nle": CondG,
}

// Lookup a condition code by its suffix, including aliases (e.g. "z" for CondE, "nae" for CondB).
func CondByName(name string) (Cond, bool) {
	cc, ok := condsByName[strings.ToLower(name)]
	return cc, ok
}

// Get every condition-code suffix, including aliases.
func CondNames() []string {
	names := make([]string, 0, len(condsByName))
	for name := range condsByName {
		names = append(names, name)
	}
	return names
}

// Conditional instruction families. Each selects its variant table by (mnemonic, condition code).
const (
	Jcc    = "jcc"
	Setcc  = "setcc"
	Cmovcc = "cmovcc"
)

// Get the conditional-jump instruction for a condition code.
func JccInst(cc Cond, args ...Arg) Instruction {
	return Instruction{Mnemonic: Jcc, Cond: cc, Args: args}
}

// Get the conditional-set instruction for a condition code.
func SetccInst(cc Cond, args ...Arg) Instruction {
	return Instruction{Mnemonic: Setcc, Cond: cc, Args: args}
}

// Get the conditional-move instruction for a condition code.
func CmovccInst(cc Cond, args ...Arg) Instruction {
	return Instruction{Mnemonic: Cmovcc, Cond: cc, Args: args}
}
