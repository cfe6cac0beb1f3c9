package disasm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	. "github.com/wdamron/x86enc"
)

func TestDecode(t *testing.T) {
	code := []byte{
		0x48, 0x8b, 0x44, 0x24, 0x08, // mov rax, qword ptr [rsp+0x8]
		0x48, 0x01, 0xd8, // add rax, rbx
		0x75, 0xf7, // jnz .-0x9
		0xc3, // ret
	}
	lines, err := Decode(code, 64)
	if err != nil {
		t.Fatal(err)
	}
	expect := []Line{
		{Offset: 0, Len: 5, Bytes: code[0:5], Text: "mov rax, qword ptr [rsp+0x8]"},
		{Offset: 5, Len: 3, Bytes: code[5:8], Text: "add rax, rbx"},
		{Offset: 8, Len: 2, Bytes: code[8:10], Text: "jnz .-0x9"},
		{Offset: 10, Len: 1, Bytes: code[10:11], Text: "ret"},
	}
	if diff := cmp.Diff(expect, lines, cmpopts.IgnoreFields(Line{}, "Inst")); diff != "" {
		t.Fatalf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeModes(t *testing.T) {
	for _, tc := range []struct {
		bits   int
		code   []byte
		expect string
	}{
		{16, []byte{0x89, 0xd8}, "mov ax, bx"},
		{32, []byte{0x89, 0xd8}, "mov eax, ebx"},
		{64, []byte{0x89, 0xd8}, "mov eax, ebx"},
		{32, []byte{0x40}, "inc eax"},
	} {
		line, err := One(tc.code, tc.bits)
		if err != nil {
			t.Fatalf("%d-bit %#x: %v", tc.bits, tc.code, err)
		}
		if line.Text != tc.expect {
			t.Fatalf("%d-bit %#x = %s, expected %s", tc.bits, tc.code, line.Text, tc.expect)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte{0x90}, 8); err == nil {
		t.Fatal("expected an error for an invalid mode")
	}

	lines, err := Decode(nil, 64)
	if err != nil || len(lines) != 0 {
		t.Fatalf("Decode(nil) = %v, %v", lines, err)
	}

	if _, err := One([]byte{0x90, 0x90}, 64); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes, found %v", err)
	}
	if _, err := One(nil, 64); err == nil {
		t.Fatal("expected an error for empty code")
	}
}

func TestDecodeAssembled(t *testing.T) {
	asm := NewAssembler(nil, Long)
	asm.Inst("mov", RAX, Mem{Base: RSP, Disp: 8})
	asm.Inst("add", RAX, RBX)
	asm.Cond(Jcc, CondNE, Rel8(-9))
	asm.Inst("ret")
	if asm.Err() != nil {
		t.Fatal(asm.Err())
	}
	lines, err := Decode(asm.Code(), 64)
	if err != nil {
		t.Fatal(err)
	}
	var texts []string
	for _, line := range lines {
		texts = append(texts, line.Text)
	}
	expect := []string{"mov rax, qword ptr [rsp+0x8]", "add rax, rbx", "jnz .-0x9", "ret"}
	if diff := cmp.Diff(expect, texts); diff != "" {
		t.Fatalf("decoded instructions mismatch (-want +got):\n%s", diff)
	}
}

func TestLineString(t *testing.T) {
	line := Line{Offset: 5, Len: 3, Bytes: []byte{0x48, 0x01, 0xd8}, Text: "add rax, rbx"}
	expect := "0005  48 01 d8                 add rax, rbx"
	if line.String() != expect {
		t.Fatalf("Line.String() = %q, expected %q", line.String(), expect)
	}
}
