package x86enc

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeBatch(t *testing.T) {
	enc := NewEncoder(Long)
	insts := []Instruction{
		Inst("mov", RAX, RBX),
		Inst("add", RCX, Imm(1)),
		Inst("cpuid"),
		JccInst(CondNE, Rel8(-9)),
		Inst("ret"),
	}
	got, err := enc.EncodeBatch(insts)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]byte{
		{0x48, 0x89, 0xd8},
		{0x48, 0x83, 0xc1, 0x01},
		{0x0f, 0xa2},
		{0x75, 0xf7},
		{0xc3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected encodings (-want +got):\n%s", diff)
	}

	// each result matches encoding the instruction alone
	for i, inst := range insts {
		one, err := enc.Encode(inst)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(one, got[i]); diff != "" {
			t.Fatalf("%s: batch encoding differs (-single +batch):\n%s", inst, diff)
		}
	}

	all, err := enc.EncodeAll(insts)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{0x48, 0x89, 0xd8, 0x48, 0x83, 0xc1, 0x01, 0x0f, 0xa2, 0x75, 0xf7, 0xc3}, all); diff != "" {
		t.Fatalf("unexpected code (-want +got):\n%s", diff)
	}
}

func TestEncodeBatchError(t *testing.T) {
	enc := NewEncoder(Long)
	var insts []Instruction
	for i := 0; i < 64; i++ {
		insts = append(insts, Inst("add", RAX, Imm(i)))
	}
	insts[40] = Inst("and", BL, Imm(256))
	insts[17] = Inst("add", RAX)

	got, err := enc.EncodeBatch(insts)
	if got != nil {
		t.Fatal("expected no output on error")
	}
	if !errors.Is(err, ErrNoMatch) || !strings.HasPrefix(err.Error(), "instruction 17 (add rax): ") {
		t.Fatalf("expected the error for instruction 17, got %v", err)
	}

	if _, err := enc.EncodeAll(insts); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestEncodeBatchEmpty(t *testing.T) {
	got, err := NewEncoder(Long).EncodeBatch(nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}
