package x86enc

import (
	"github.com/wdamron/x86enc/feats"
	. "github.com/wdamron/x86enc/flags"
)

// Variant definitions for the built-in table. Within each mnemonic, specialized encodings come
// before general ones: fixed-register short forms precede every reg/mem form of the same operation
// size, and sign-extended imm8 forms precede full-width immediates.

// Arithmetic/logic group: base opcode b for the r/m,reg form, ModRM.reg extension e for the
// immediate forms.
func aluDefs(b byte, e int8, lock uint32) []Def {
	return []Def{
		{"Abib", op{b + 4}, NoExt, DEFAULT, 0},
		{"A*i*", op{b + 5}, NoExt, AUTO_SIZE, 0},
		{"mbib", op{0x80}, e, lock, 0},
		{"rbib", op{0x80}, e, DEFAULT, 0},
		{"m*ib", op{0x83}, e, AUTO_SIZE | IMM_SX | lock, 0},
		{"r*ib", op{0x83}, e, AUTO_SIZE | IMM_SX, 0},
		{"m*i*", op{0x81}, e, AUTO_SIZE | lock, 0},
		{"r*i*", op{0x81}, e, AUTO_SIZE, 0},
		{"mbrb", op{b}, NoExt, ENC_MR | lock, 0},
		{"rbrb", op{b}, NoExt, ENC_MR, 0},
		{"rbvb", op{b + 2}, NoExt, DEFAULT, 0},
		{"m*r*", op{b + 1}, NoExt, AUTO_SIZE | ENC_MR | lock, 0},
		{"r*r*", op{b + 1}, NoExt, AUTO_SIZE | ENC_MR, 0},
		{"r*v*", op{b + 3}, NoExt, AUTO_SIZE, 0},
	}
}

// Single r/m operand group with byte form op8 and sized form op8+1.
func unaryDefs(op8 byte, e int8, lock uint32) []Def {
	return []Def{
		{"mb", op{op8}, e, lock, 0},
		{"rb", op{op8}, e, DEFAULT, 0},
		{"m*", op{op8 + 1}, e, AUTO_SIZE | lock, 0},
		{"r*", op{op8 + 1}, e, AUTO_SIZE, 0},
	}
}

func shiftDefs(e int8) []Def {
	return []Def{
		{"vbBb", op{0xd2}, e, DEFAULT, 0},
		{"vbib", op{0xc0}, e, DEFAULT, 0},
		{"v*Bb", op{0xd3}, e, AUTO_SIZE, 0},
		{"v*ib", op{0xc1}, e, AUTO_SIZE, 0},
	}
}

func bitTestDefs(opReg byte, e int8, lock uint32) []Def {
	return []Def{
		{"m*r*", op{0x0f, opReg}, NoExt, AUTO_SIZE | ENC_MR | lock, 0},
		{"r*r*", op{0x0f, opReg}, NoExt, AUTO_SIZE | ENC_MR, 0},
		{"m*ib", op{0x0f, 0xba}, e, AUTO_SIZE | lock, 0},
		{"r*ib", op{0x0f, 0xba}, e, AUTO_SIZE, 0},
	}
}

// Exchange-and-operate group (xadd, cmpxchg): byte form op8, sized form op8+1.
func xchgOpDefs(op8 byte) []Def {
	return []Def{
		{"mbrb", op{0x0f, op8}, NoExt, ENC_MR | LOCK, 0},
		{"rbrb", op{0x0f, op8}, NoExt, ENC_MR, 0},
		{"m*r*", op{0x0f, op8 + 1}, NoExt, AUTO_SIZE | ENC_MR | LOCK, 0},
		{"r*r*", op{0x0f, op8 + 1}, NoExt, AUTO_SIZE | ENC_MR, 0},
	}
}

// String instruction with byte form op8 and sized form op8+1. The generic mnemonic selects its
// size with an explicit operand size and defaults to the byte form.
func stringDefs(op8 byte, rep uint32) []Def {
	return []Def{
		{"", op{op8}, NoExt, BYTE_SIZE | rep, 0},
		{"", op{op8 + 1}, NoExt, WORD_SIZE | rep, 0},
		{"", op{op8 + 1}, NoExt, DWORD_SIZE | rep, 0},
		{"", op{op8 + 1}, NoExt, WITH_REXW | rep, 0},
	}
}

func one(pattern string, opcode []byte, ext int8, f uint32, feat feats.Feature) []Def {
	return []Def{{pattern, opcode, ext, f, feat}}
}

// SSE arithmetic on packed singles (0F xx), packed doubles (66 0F xx), scalar singles (F3 0F xx)
// and scalar doubles (F2 0F xx).
func sseArith(t *Table, name string, opc byte) {
	t.mustAdd(name+"ps", Def{"yowo", op{0x0f, opc}, NoExt, DEFAULT, feats.SSE})
	t.mustAdd(name+"pd", Def{"yowo", op{0x0f, opc}, NoExt, PREF_66, feats.SSE2})
	t.mustAdd(name+"ss", Def{"yowd", op{0x0f, opc}, NoExt, PREF_F3, feats.SSE})
	t.mustAdd(name+"sd", Def{"yowq", op{0x0f, opc}, NoExt, PREF_F2, feats.SSE2})
}

func buildX86Table(t *Table) {
	for _, alu := range []struct {
		name string
		base byte
		ext  int8
		lock uint32
	}{
		{"add", 0x00, 0, LOCK},
		{"or", 0x08, 1, LOCK},
		{"adc", 0x10, 2, LOCK},
		{"sbb", 0x18, 3, LOCK},
		{"and", 0x20, 4, LOCK},
		{"sub", 0x28, 5, LOCK},
		{"xor", 0x30, 6, LOCK},
		{"cmp", 0x38, 7, DEFAULT},
	} {
		t.mustAdd(alu.name, aluDefs(alu.base, alu.ext, alu.lock)...)
	}

	t.mustAdd("test",
		Def{"Abib", op{0xa8}, NoExt, DEFAULT, 0},
		Def{"vbib", op{0xf6}, 0, DEFAULT, 0},
		Def{"A*i*", op{0xa9}, NoExt, AUTO_SIZE, 0},
		Def{"v*i*", op{0xf7}, 0, AUTO_SIZE, 0},
		Def{"vbrb", op{0x84}, NoExt, ENC_MR, 0},
		Def{"v*r*", op{0x85}, NoExt, AUTO_SIZE | ENC_MR, 0},
	)

	t.mustAdd("mov",
		Def{"v*r*", op{0x89}, NoExt, AUTO_SIZE | ENC_MR, 0},
		Def{"vbrb", op{0x88}, NoExt, ENC_MR, 0},
		Def{"r*v*", op{0x8b}, NoExt, AUTO_SIZE, 0},
		Def{"rbvb", op{0x8a}, NoExt, DEFAULT, 0},
		Def{"rbib", op{0xb0}, NoExt, SHORT_ARG, 0},
		Def{"rwiw", op{0xb8}, NoExt, WORD_SIZE | SHORT_ARG, 0},
		Def{"rdid", op{0xb8}, NoExt, SHORT_ARG, 0},
		Def{"v*i*", op{0xc7}, 0, AUTO_SIZE, 0},
		Def{"vbib", op{0xc6}, 0, DEFAULT, 0},
		Def{"rqiq", op{0xb8}, NoExt, WITH_REXW | SHORT_ARG, 0},
	)
	t.mustAdd("movzx",
		Def{"r*vb", op{0x0f, 0xb6}, NoExt, AUTO_SIZE, 0},
		Def{"r*vw", op{0x0f, 0xb7}, NoExt, AUTO_REXW, 0},
	)
	t.mustAdd("movsx",
		Def{"r*vb", op{0x0f, 0xbe}, NoExt, AUTO_SIZE, 0},
		Def{"r*vw", op{0x0f, 0xbf}, NoExt, AUTO_REXW, 0},
	)
	t.mustAdd("movsxd", one("rqvd", op{0x63}, NoExt, WITH_REXW, 0)...)
	t.mustAdd("lea", one("r*m!", op{0x8d}, NoExt, AUTO_SIZE, 0)...)

	t.mustAdd("xchg",
		Def{"A*r*", op{0x90}, NoExt, AUTO_SIZE | SHORT_ARG, 0},
		Def{"r*A*", op{0x90}, NoExt, AUTO_SIZE | SHORT_ARG, 0},
		Def{"mbrb", op{0x86}, NoExt, ENC_MR | LOCK, 0},
		Def{"rbrb", op{0x86}, NoExt, ENC_MR, 0},
		Def{"rbmb", op{0x86}, NoExt, LOCK, 0},
		Def{"m*r*", op{0x87}, NoExt, AUTO_SIZE | ENC_MR | LOCK, 0},
		Def{"r*r*", op{0x87}, NoExt, AUTO_SIZE | ENC_MR, 0},
		Def{"r*m*", op{0x87}, NoExt, AUTO_SIZE | LOCK, 0},
	)

	// 40+r and 48+r are REX prefixes in long mode
	t.mustAdd("inc", append(one("r*", op{0x40}, NoExt, AUTO_SIZE|SHORT_ARG|X86_ONLY, 0), unaryDefs(0xfe, 0, LOCK)...)...)
	t.mustAdd("dec", append(one("r*", op{0x48}, NoExt, AUTO_SIZE|SHORT_ARG|X86_ONLY, 0), unaryDefs(0xfe, 1, LOCK)...)...)
	t.mustAdd("not", unaryDefs(0xf6, 2, LOCK)...)
	t.mustAdd("neg", unaryDefs(0xf6, 3, LOCK)...)
	t.mustAdd("mul", unaryDefs(0xf6, 4, DEFAULT)...)
	t.mustAdd("div", unaryDefs(0xf6, 6, DEFAULT)...)
	t.mustAdd("idiv", unaryDefs(0xf6, 7, DEFAULT)...)
	t.mustAdd("imul", append(unaryDefs(0xf6, 5, DEFAULT),
		Def{"r*v*", op{0x0f, 0xaf}, NoExt, AUTO_SIZE, 0},
		Def{"r*v*ib", op{0x6b}, NoExt, AUTO_SIZE | IMM_SX, 0},
		Def{"r*v*i*", op{0x69}, NoExt, AUTO_SIZE, 0},
	)...)

	for _, sh := range []struct {
		name string
		ext  int8
	}{
		{"rol", 0}, {"ror", 1}, {"rcl", 2}, {"rcr", 3}, {"shl", 4}, {"sal", 4}, {"shr", 5}, {"sar", 7},
	} {
		t.mustAdd(sh.name, shiftDefs(sh.ext)...)
	}

	t.mustAdd("bt", bitTestDefs(0xa3, 4, DEFAULT)...)
	t.mustAdd("bts", bitTestDefs(0xab, 5, LOCK)...)
	t.mustAdd("btr", bitTestDefs(0xb3, 6, LOCK)...)
	t.mustAdd("btc", bitTestDefs(0xbb, 7, LOCK)...)
	t.mustAdd("xadd", xchgOpDefs(0xc0)...)
	t.mustAdd("cmpxchg", xchgOpDefs(0xb0)...)
	t.mustAdd("bswap", one("r*", op{0x0f, 0xc8}, NoExt, AUTO_REXW|SHORT_ARG, 0)...)

	t.mustAdd("push",
		Def{"ib", op{0x6a}, NoExt, IMM_SX, 0},
		Def{"id", op{0x68}, NoExt, IMM_SX | NO_REAL, 0},
		Def{"iw", op{0x68}, NoExt, WORD_SIZE, 0},
		Def{"r*", op{0x50}, NoExt, AUTO_NO32 | SHORT_ARG, 0},
		Def{"v*", op{0xff}, 6, AUTO_NO32, 0},
	)
	t.mustAdd("pop",
		Def{"r*", op{0x58}, NoExt, AUTO_NO32 | SHORT_ARG, 0},
		Def{"v*", op{0x8f}, 0, AUTO_NO32, 0},
	)
	t.mustAdd("pushf", one("", op{0x9c}, NoExt, DEFAULT, 0)...)
	t.mustAdd("popf", one("", op{0x9d}, NoExt, DEFAULT, 0)...)

	farDefs := func(opc byte) []Def {
		return []Def{
			{"pd", op{opc}, NoExt, WORD_SIZE | REAL_ONLY, 0},
			{"pf", op{opc}, NoExt, DWORD_SIZE | X86_ONLY, 0},
			{"pd", op{opc}, NoExt, WORD_SIZE | X86_ONLY, 0},
		}
	}
	t.mustAdd("jmp", append([]Def{
		{"ob", op{0xeb}, NoExt, DEFAULT, 0},
		{"ow", op{0xe9}, NoExt, REAL_ONLY, 0},
		{"od", op{0xe9}, NoExt, NO_REAL, 0},
		{"v*", op{0xff}, 4, AUTO_NO32, 0},
	}, farDefs(0xea)...)...)
	t.mustAdd("call", append([]Def{
		{"ow", op{0xe8}, NoExt, REAL_ONLY, 0},
		{"od", op{0xe8}, NoExt, NO_REAL, 0},
		{"v*", op{0xff}, 2, AUTO_NO32, 0},
	}, farDefs(0x9a)...)...)
	t.mustAdd("ret",
		Def{"", op{0xc3}, NoExt, DEFAULT, 0},
		Def{"iw", op{0xc2}, NoExt, DEFAULT, 0},
	)
	t.mustAdd("retf",
		Def{"", op{0xcb}, NoExt, DEFAULT, 0},
		Def{"iw", op{0xca}, NoExt, DEFAULT, 0},
	)
	t.mustAdd("enter", one("iwib", op{0xc8}, NoExt, DEFAULT, 0)...)
	t.mustAdd("leave", one("", op{0xc9}, NoExt, DEFAULT, 0)...)
	t.mustAdd("int", one("ib", op{0xcd}, NoExt, DEFAULT, 0)...)
	t.mustAdd("int3", one("", op{0xcc}, NoExt, DEFAULT, 0)...)
	t.mustAdd("into", one("", op{0xce}, NoExt, X86_ONLY, 0)...)
	t.mustAdd("loop", one("ob", op{0xe2}, NoExt, DEFAULT, 0)...)
	t.mustAdd("loope", one("ob", op{0xe1}, NoExt, DEFAULT, 0)...)
	t.mustAdd("loopne", one("ob", op{0xe0}, NoExt, DEFAULT, 0)...)

	t.mustAddCond(Jcc,
		Def{"ob", op{0x70}, NoExt, DEFAULT, 0},
		Def{"ow", op{0x0f, 0x80}, NoExt, REAL_ONLY, 0},
		Def{"od", op{0x0f, 0x80}, NoExt, NO_REAL, 0},
	)
	t.mustAddCond(Setcc, Def{"vb", op{0x0f, 0x90}, 0, DEFAULT, 0})
	t.mustAddCond(Cmovcc, Def{"r*v*", op{0x0f, 0x40}, NoExt, AUTO_SIZE, feats.CMOV})

	t.mustAdd("in",
		Def{"Abib", op{0xe4}, NoExt, DEFAULT, 0},
		Def{"Awib", op{0xe5}, NoExt, WORD_SIZE, 0},
		Def{"Adib", op{0xe5}, NoExt, DEFAULT, 0},
		Def{"AbCw", op{0xec}, NoExt, BYTE_SIZE, 0},
		Def{"AwCw", op{0xed}, NoExt, WORD_SIZE, 0},
		Def{"AdCw", op{0xed}, NoExt, DWORD_SIZE, 0},
	)
	t.mustAdd("out",
		Def{"ibAb", op{0xe6}, NoExt, DEFAULT, 0},
		Def{"ibAw", op{0xe7}, NoExt, WORD_SIZE, 0},
		Def{"ibAd", op{0xe7}, NoExt, DEFAULT, 0},
		Def{"CwAb", op{0xee}, NoExt, BYTE_SIZE, 0},
		Def{"CwAw", op{0xef}, NoExt, WORD_SIZE, 0},
		Def{"CwAd", op{0xef}, NoExt, DWORD_SIZE, 0},
	)

	for _, s := range []struct {
		name string
		op8  byte
		rep  uint32
	}{
		{"movs", 0xa4, REP},
		{"cmps", 0xa6, REPE},
		{"stos", 0xaa, REP},
		{"lods", 0xac, REP},
		{"scas", 0xae, REPE},
	} {
		defs := stringDefs(s.op8, s.rep)
		t.mustAdd(s.name, defs...)
		t.mustAdd(s.name+"b", defs[0])
		t.mustAdd(s.name+"w", defs[1])
		if s.name != "movs" && s.name != "cmps" {
			// movsd and cmpsd are the SSE2 scalar-double mnemonics
			t.mustAdd(s.name+"d", defs[2])
		}
		t.mustAdd(s.name+"q", defs[3])
	}

	t.mustAdd("cbw", one("", op{0x98}, NoExt, WORD_SIZE, 0)...)
	t.mustAdd("cwde", one("", op{0x98}, NoExt, DWORD_SIZE, 0)...)
	t.mustAdd("cdqe", one("", op{0x98}, NoExt, WITH_REXW, 0)...)
	t.mustAdd("cwd", one("", op{0x99}, NoExt, WORD_SIZE, 0)...)
	t.mustAdd("cdq", one("", op{0x99}, NoExt, DWORD_SIZE, 0)...)
	t.mustAdd("cqo", one("", op{0x99}, NoExt, WITH_REXW, 0)...)

	for _, simple := range []struct {
		name   string
		opcode []byte
		flags  uint32
		feats  feats.Feature
	}{
		{"clc", op{0xf8}, DEFAULT, 0},
		{"stc", op{0xf9}, DEFAULT, 0},
		{"cli", op{0xfa}, DEFAULT, 0},
		{"sti", op{0xfb}, DEFAULT, 0},
		{"cld", op{0xfc}, DEFAULT, 0},
		{"std", op{0xfd}, DEFAULT, 0},
		{"cmc", op{0xf5}, DEFAULT, 0},
		{"lahf", op{0x9f}, DEFAULT, 0},
		{"sahf", op{0x9e}, DEFAULT, 0},
		{"xlatb", op{0xd7}, DEFAULT, 0},
		{"hlt", op{0xf4}, DEFAULT, 0},
		{"ud2", op{0x0f, 0x0b}, DEFAULT, 0},
		{"cpuid", op{0x0f, 0xa2}, DEFAULT, 0},
		{"rdtsc", op{0x0f, 0x31}, DEFAULT, 0},
		{"rdtscp", op{0x0f, 0x01, 0xf9}, DEFAULT, feats.RDTSCP},
		{"syscall", op{0x0f, 0x05}, X64_ONLY, feats.SYSCALL},
		{"pause", op{0x90}, PREF_F3, 0},
		{"lfence", op{0x0f, 0xae, 0xe8}, DEFAULT, feats.SSE2},
		{"mfence", op{0x0f, 0xae, 0xf0}, DEFAULT, feats.SSE2},
		{"sfence", op{0x0f, 0xae, 0xf8}, DEFAULT, feats.SSE},
		{"aaa", op{0x37}, X86_ONLY, 0},
		{"aas", op{0x3f}, X86_ONLY, 0},
		{"daa", op{0x27}, X86_ONLY, 0},
		{"das", op{0x2f}, X86_ONLY, 0},
	} {
		t.mustAdd(simple.name, Def{"", simple.opcode, NoExt, simple.flags, simple.feats})
	}
	t.mustAdd("nop",
		Def{"", op{0x90}, NoExt, DEFAULT, 0},
		Def{"v*", op{0x0f, 0x1f}, 0, AUTO_SIZE, 0},
	)
	t.mustAdd("aad",
		Def{"", op{0xd5, 0x0a}, NoExt, X86_ONLY, 0},
		Def{"ib", op{0xd5}, NoExt, X86_ONLY, 0},
	)
	t.mustAdd("aam",
		Def{"", op{0xd4, 0x0a}, NoExt, X86_ONLY, 0},
		Def{"ib", op{0xd4}, NoExt, X86_ONLY, 0},
	)

	sseArith(t, "add", 0x58)
	sseArith(t, "mul", 0x59)
	sseArith(t, "sub", 0x5c)
	sseArith(t, "min", 0x5d)
	sseArith(t, "div", 0x5e)
	sseArith(t, "max", 0x5f)
	sseArith(t, "sqrt", 0x51)
	t.mustAdd("andps", Def{"yowo", op{0x0f, 0x54}, NoExt, DEFAULT, feats.SSE})
	t.mustAdd("andpd", Def{"yowo", op{0x0f, 0x54}, NoExt, PREF_66, feats.SSE2})
	t.mustAdd("orps", Def{"yowo", op{0x0f, 0x56}, NoExt, DEFAULT, feats.SSE})
	t.mustAdd("xorps", Def{"yowo", op{0x0f, 0x57}, NoExt, DEFAULT, feats.SSE})
	t.mustAdd("xorpd", Def{"yowo", op{0x0f, 0x57}, NoExt, PREF_66, feats.SSE2})
	t.mustAdd("pxor", Def{"yowo", op{0x0f, 0xef}, NoExt, PREF_66, feats.SSE2})
	t.mustAdd("pand", Def{"yowo", op{0x0f, 0xdb}, NoExt, PREF_66, feats.SSE2})
	t.mustAdd("por", Def{"yowo", op{0x0f, 0xeb}, NoExt, PREF_66, feats.SSE2})
	t.mustAdd("paddd", Def{"yowo", op{0x0f, 0xfe}, NoExt, PREF_66, feats.SSE2})
	t.mustAdd("paddq", Def{"yowo", op{0x0f, 0xd4}, NoExt, PREF_66, feats.SSE2})
	t.mustAdd("psubd", Def{"yowo", op{0x0f, 0xfa}, NoExt, PREF_66, feats.SSE2})
	t.mustAdd("ucomiss", Def{"yowd", op{0x0f, 0x2e}, NoExt, DEFAULT, feats.SSE})
	t.mustAdd("ucomisd", Def{"yowq", op{0x0f, 0x2e}, NoExt, PREF_66, feats.SSE2})

	movePair := func(name string, load, store byte, f uint32, feat feats.Feature) {
		t.mustAdd(name,
			Def{"yowo", op{0x0f, load}, NoExt, f, feat},
			Def{"woyo", op{0x0f, store}, NoExt, f, feat},
		)
	}
	movePair("movaps", 0x28, 0x29, DEFAULT, feats.SSE)
	movePair("movups", 0x10, 0x11, DEFAULT, feats.SSE)
	movePair("movapd", 0x28, 0x29, PREF_66, feats.SSE2)
	movePair("movdqa", 0x6f, 0x7f, PREF_66, feats.SSE2)
	movePair("movdqu", 0x6f, 0x7f, PREF_F3, feats.SSE2)
	t.mustAdd("movss",
		Def{"yowd", op{0x0f, 0x10}, NoExt, PREF_F3, feats.SSE},
		Def{"wdyo", op{0x0f, 0x11}, NoExt, PREF_F3, feats.SSE},
	)
	t.mustAdd("movsd",
		Def{"yowq", op{0x0f, 0x10}, NoExt, PREF_F2, feats.SSE2},
		Def{"wqyo", op{0x0f, 0x11}, NoExt, PREF_F2, feats.SSE2},
	)
	t.mustAdd("movd",
		Def{"yovd", op{0x0f, 0x6e}, NoExt, PREF_66, feats.SSE2},
		Def{"vdyo", op{0x0f, 0x7e}, NoExt, PREF_66, feats.SSE2},
	)
	t.mustAdd("movq",
		Def{"yovq", op{0x0f, 0x6e}, NoExt, PREF_66 | WITH_REXW, feats.SSE2},
		Def{"vqyo", op{0x0f, 0x7e}, NoExt, PREF_66 | WITH_REXW, feats.SSE2},
	)
	t.mustAdd("cvtsi2sd",
		Def{"yovd", op{0x0f, 0x2a}, NoExt, PREF_F2, feats.SSE2},
		Def{"yovq", op{0x0f, 0x2a}, NoExt, PREF_F2 | WITH_REXW, feats.SSE2},
	)
	t.mustAdd("cvttsd2si",
		Def{"rdwq", op{0x0f, 0x2c}, NoExt, PREF_F2, feats.SSE2},
		Def{"rqwq", op{0x0f, 0x2c}, NoExt, PREF_F2 | WITH_REXW, feats.SSE2},
	)
}
