package x86enc

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wdamron/x86enc/feats"
	. "github.com/wdamron/x86enc/flags"
)

// Check if every argument list accepted by operand a is also accepted by operand b, and whether b
// accepts strictly more.
func operandSubset(a, b OperandDescriptor) (subset, strict bool) {
	if a.Kind == b.Kind && a.Class == b.Class && a.Size == b.Size && a.Fixed == b.Fixed && a.SignExtend == b.SignExtend {
		return true, false
	}
	switch {
	case a.Kind == KindFixedReg && (b.Kind == KindReg || b.Kind == KindRegMem):
		return a.Fixed.Class() == b.Class, true
	case a.Kind == KindReg && b.Kind == KindRegMem:
		return a.Class == b.Class && a.Size == b.Size, true
	case a.Kind == KindMem && b.Kind == KindRegMem:
		return a.Size != 0 && a.Size == b.Size, true
	case a.Kind == KindImm && b.Kind == KindImm:
		if a.Size < b.Size || (a.Size == b.Size && a.SignExtend && !b.SignExtend) {
			return true, true
		}
	case a.Kind == KindRel && b.Kind == KindRel:
		return a.Size < b.Size, true
	}
	return false, false
}

// Check if variant s only accepts a strict subset of what g accepts.
func shadows(s, g *OpcodeVariant) bool {
	if len(s.Operands) != len(g.Operands) || s.SizeClass != g.SizeClass || s.Modes&g.Modes == 0 || s.Feats != g.Feats {
		return false
	}
	anyStrict := false
	for i := range s.Operands {
		subset, strict := operandSubset(s.Operands[i], g.Operands[i])
		if !subset {
			return false
		}
		anyStrict = anyStrict || strict
	}
	return anyStrict
}

// Check if variant g takes a register or register/memory operand, of the same width, where the
// short form f takes a fixed register.
func replacesFixedReg(g, f *OpcodeVariant) bool {
	if len(g.Operands) != len(f.Operands) || g.Modes&f.Modes == 0 {
		return false
	}
	for _, d := range g.Operands {
		if d.Kind == KindFixedReg {
			return false
		}
	}
	for i, d := range f.Operands {
		if d.Kind != KindFixedReg {
			continue
		}
		gd := g.Operands[i]
		if (gd.Kind == KindReg || gd.Kind == KindRegMem) && gd.Size == d.Size {
			return true
		}
	}
	return false
}

// A specialized variant listed after a more general one could never be selected, and a
// fixed-register short form must be preferred over the reg/mem forms of the same width.
func TestDefaultTableOrdering(t *testing.T) {
	tab := DefaultTable()
	for key, variants := range tab.variants {
		for i, g := range variants {
			for _, s := range variants[i+1:] {
				if shadows(s, g) {
					t.Errorf("%s(%s): %s is listed after the more general %s", key.mnemonic, key.cond, s, g)
				}
				if replacesFixedReg(g, s) {
					t.Errorf("%s(%s): short form %s is listed after %s", key.mnemonic, key.cond, s.OpcodeString(), g.OpcodeString())
				}
			}
		}
	}
}

func TestDefaultTable(t *testing.T) {
	tab := DefaultTable()
	if tab != DefaultTable() {
		t.Fatal("DefaultTable should be built once")
	}
	for _, name := range []string{"add", "mov", "lea", "push", "ret", "cpuid", "pxor", "movsb", "jcc", "setcc", "cmovcc"} {
		if !tab.Has(name) {
			t.Errorf("missing %s", name)
		}
	}
	for _, name := range []string{Jcc, Setcc, Cmovcc} {
		if !tab.IsCond(name) {
			t.Errorf("%s should be a conditional family", name)
		}
		for cc := CondO; cc <= CondG; cc++ {
			if len(tab.Variants(name, cc)) == 0 {
				t.Errorf("missing %s variants for %s", name, cc)
			}
		}
		if len(tab.Variants(name, CondNone)) != 0 {
			t.Errorf("%s should have no variants without a condition code", name)
		}
	}
	if tab.IsCond("add") || tab.Has("jne") {
		t.Fatal("unexpected conditional family")
	}
	names := tab.Mnemonics()
	if !sort.StringsAreSorted(names) {
		t.Fatal("mnemonics are not sorted")
	}
	if tab.Len() < len(names) {
		t.Fatalf("Len() = %d with %d mnemonics", tab.Len(), len(names))
	}
}

func TestJccOpcodes(t *testing.T) {
	tab := DefaultTable()
	for cc := CondO; cc <= CondG; cc++ {
		short := tab.Variants(Jcc, cc)[0]
		if want := 0x70 + cc.Code(); short.Opcode[0] != want {
			t.Errorf("j%s: opcode %#x != %#x", cc, short.Opcode[0], want)
		}
	}
}

func TestTableAdd(t *testing.T) {
	tab := NewTable()
	if err := tab.Add("CPUID", Def{"", []byte{0x0f, 0xa2}, NoExt, DEFAULT, 0}); err != nil {
		t.Fatal(err)
	}
	if !tab.Has("cpuid") || tab.Len() != 1 {
		t.Fatal("expected one cpuid variant")
	}
	if err := tab.AddCond("cpuid", Def{"ob", []byte{0x70}, NoExt, DEFAULT, 0}); err == nil {
		t.Fatal("expected an error adding a conditional family over a mnemonic")
	}
	if err := tab.AddCond("jx", Def{"ob", []byte{0x70}, NoExt, DEFAULT, 0}); err != nil {
		t.Fatal(err)
	}
	if err := tab.Add("jx", Def{"ob", []byte{0xeb}, NoExt, DEFAULT, 0}); err == nil {
		t.Fatal("expected an error adding a mnemonic over a conditional family")
	}
	if tab.Len() != 17 {
		t.Fatalf("Len() = %d", tab.Len())
	}

	// AUTO_SIZE expands to 16, 32 and 64 bits; 64 bits only in long mode
	if err := tab.Add("ud1", Def{"r*v*", []byte{0x0f, 0xb9}, NoExt, AUTO_SIZE, 0}); err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, v := range tab.Variants("ud1", CondNone) {
		got = append(got, v.String())
	}
	want := []string{
		"ud1 r16, r16/m16 [0F B9 /r] (real|protected|long)",
		"ud1 r32, r32/m32 [0F B9 /r] (real|protected|long)",
		"ud1 r64, r64/m64 [REX.W 0F B9 /r] (long)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected variants (-want +got):\n%s", diff)
	}
}

func TestTableAddInvalid(t *testing.T) {
	for _, def := range []Def{
		{"r", []byte{0x90}, NoExt, DEFAULT, 0},
		{"xb", []byte{0x90}, NoExt, DEFAULT, 0},
		{"rz", []byte{0x90}, NoExt, DEFAULT, 0},
		{"", nil, NoExt, DEFAULT, 0},
		{"", []byte{1, 2, 3, 4}, NoExt, DEFAULT, 0},
		{"vb", []byte{0xfe}, 8, DEFAULT, 0},
		{"vb", []byte{0xfe}, NoExt, DEFAULT, 0},
		{"rbrb", []byte{0x88}, 0, DEFAULT, 0},
		{"rbrbrb", []byte{0x88}, NoExt, DEFAULT, 0},
		{"ib", []byte{0x6a}, 0, DEFAULT, 0},
		{"if", []byte{0x6a}, NoExt, DEFAULT, 0},
		{"oq", []byte{0xe9}, NoExt, DEFAULT, 0},
		{"pb", []byte{0xea}, NoExt, DEFAULT, 0},
		{"Ao", []byte{0x90}, NoExt, DEFAULT, 0},
		{"vbrb", []byte{0x88}, NoExt, SHORT_ARG, 0},
		{"mbmb", []byte{0x88}, NoExt, DEFAULT, 0},
	} {
		if err := NewTable().Add("bad", def); err == nil {
			t.Errorf("expected an error for %+v", def)
		}
	}
}

func TestTableMerge(t *testing.T) {
	tab := NewTable()
	tab.Merge(DefaultTable())
	if tab.Len() != DefaultTable().Len() {
		t.Fatalf("Len() = %d != %d", tab.Len(), DefaultTable().Len())
	}

	extra := NewTable()
	if err := extra.Add("cpuid", Def{"", []byte{0x0f, 0x0b}, NoExt, DEFAULT, 0}); err != nil {
		t.Fatal(err)
	}
	if err := extra.AddCond(Cmovcc, Def{"r*v*", []byte{0x0f, 0x40}, NoExt, AUTO_SIZE, feats.CMOV | feats.SSE}); err != nil {
		t.Fatal(err)
	}
	if err := extra.AddCond("add", Def{"ob", []byte{0x70}, NoExt, DEFAULT, 0}); err != nil {
		t.Fatal(err)
	}
	tab.Merge(extra)

	if got := tab.Variants("cpuid", CondNone); len(got) != 1 || got[0].Opcode[1] != 0x0b {
		t.Fatalf("cpuid was not replaced: %v", got)
	}
	if got := tab.Variants(Cmovcc, CondE); len(got) != 3 || got[0].Feats != feats.CMOV|feats.SSE {
		t.Fatalf("cmovcc was not replaced: %v", got)
	}
	if !tab.IsCond("add") || len(tab.Variants("add", CondNone)) != 0 || len(tab.Variants("add", CondE)) != 1 {
		t.Fatal("add was not replaced by a conditional family")
	}
	// the default table is unchanged
	if DefaultTable().Variants("cpuid", CondNone)[0].Opcode[1] != 0xa2 || DefaultTable().IsCond("add") {
		t.Fatal("merging modified the source table")
	}

	enc := NewEncoder(Long)
	enc.SetTable(tab)
	code, err := enc.Encode(Inst("cpuid"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{0x0f, 0x0b}, code); diff != "" {
		t.Fatalf("unexpected encoding (-want +got):\n%s", diff)
	}
	if _, err := enc.Encode(Inst("add", RAX, RBX)); !errors.Is(err, ErrUnknownMnemonic) {
		t.Fatalf("expected ErrUnknownMnemonic, got %v", err)
	}
}
