// Package flags defines the flag bits attached to variant table definitions.
package flags

import (
	"fmt"
	"sort"
	"strings"
)

// Flags
const (
	DEFAULT uint32 = 0 // this variant has default encoding

	// note: the first 3 in this block are mutually exclusive
	AUTO_SIZE  uint32 = 1 << iota // 16 bit -> OPSIZE , 32-bit -> None     , 64-bit -> REX.W (long mode)
	AUTO_NO32                     // 16 bit -> OPSIZE , 32-bit -> None(x86), 64-bit -> None(x64)
	AUTO_REXW                     // 16 bit -> illegal, 32-bit -> None     , 64-bit -> REX.W (long mode)
	BYTE_SIZE                     // byte operation with no sized operand
	WORD_SIZE                     // 16-bit operation; implies opsize prefix outside real mode
	DWORD_SIZE                    // 32-bit operation; implies opsize prefix in real mode
	WITH_REXW                     // 64-bit operation; implies REX.W
	IMM_SX                        // immediates are sign-extended by the processor

	PREF_66 // mandatory prefix
	PREF_F2 // mandatory prefix (REPNE)
	PREF_F3 // mandatory prefix (REP)

	LOCK // user lock prefix is valid with this variant
	REP  // user rep prefix is valid with this variant
	REPE // user repe/repne prefixes are valid with this variant

	SHORT_ARG // a register argument is encoded in the last byte of the opcode
	ENC_MR    // the first argument is encoded in ModRM.rm and the second in ModRM.reg

	X86_ONLY  // real and protected mode only
	X64_ONLY  // long mode only
	REAL_ONLY // real mode only
	NO_REAL   // protected and long mode only
)

// Get the name of a single flag bit.
func FlagName(f uint32) string { return flagNames[f] }

// Format a flag set as names joined by "|".
func Format(f uint32) string {
	if f == DEFAULT {
		return "DEFAULT"
	}
	var names []string
	for bit := uint32(1); bit != 0; bit <<= 1 {
		if f&bit == 0 {
			continue
		}
		if name, ok := flagNames[bit]; ok {
			names = append(names, name)
		} else {
			names = append(names, fmt.Sprintf("%#x", bit))
		}
	}
	return strings.Join(names, "|")
}

// Parse a flag set from names joined by "|", as produced by Format.
func Parse(s string) (uint32, error) {
	var f uint32
	for _, name := range strings.Split(s, "|") {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		bit, ok := flagsByName[name]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", name)
		}
		f |= bit
	}
	return f, nil
}

// Get the names of all known flags, sorted.
func Names() []string {
	names := make([]string, 0, len(flagsByName))
	for name := range flagsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var flagNames = map[uint32]string{
	DEFAULT:    "DEFAULT",
	AUTO_SIZE:  "AUTO_SIZE",
	AUTO_NO32:  "AUTO_NO32",
	AUTO_REXW:  "AUTO_REXW",
	BYTE_SIZE:  "BYTE_SIZE",
	WORD_SIZE:  "WORD_SIZE",
	DWORD_SIZE: "DWORD_SIZE",
	WITH_REXW:  "WITH_REXW",
	IMM_SX:     "IMM_SX",
	PREF_66:    "PREF_66",
	PREF_F2:    "PREF_F2",
	PREF_F3:    "PREF_F3",
	LOCK:       "LOCK",
	REP:        "REP",
	REPE:       "REPE",
	SHORT_ARG:  "SHORT_ARG",
	ENC_MR:     "ENC_MR",
	X86_ONLY:   "X86_ONLY",
	X64_ONLY:   "X64_ONLY",
	REAL_ONLY:  "REAL_ONLY",
	NO_REAL:    "NO_REAL",
}

var flagsByName = func() map[string]uint32 {
	m := make(map[string]uint32, len(flagNames))
	for f, name := range flagNames {
		m[name] = f
	}
	return m
}()
