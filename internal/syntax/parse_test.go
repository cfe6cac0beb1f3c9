package syntax

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	. "github.com/wdamron/x86enc"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		line   string
		expect Instruction
	}{
		{"ret", Instruction{Mnemonic: "ret"}},
		{"  CPUID ; identify", Instruction{Mnemonic: "cpuid"}},
		{"mov eax, ebx", Inst("mov", EAX, EBX)},
		{"add al, 5", Inst("add", AL, Imm(5))},
		{"add rax, -1", Inst("add", RAX, Imm(-1))},
		{"mov rax, 0xffffffffffffffff", Inst("mov", RAX, Imm(-1))},
		{"mov rax, qword ptr [rsp+0x8]", Inst("mov", RAX, Mem{Base: RSP, Disp: 8, Width: Size64})},
		{"mov [rbx+rsi*4-8], ecx", Inst("mov", Mem{Base: RBX, Index: RSI, Scale: 4, Disp: -8}, ECX)},
		{"lea rax, [8*rcx+rdx]", Inst("lea", RAX, Mem{Base: RDX, Index: RCX, Scale: 8})},
		{"lea rax, [rcx + rdx + 0x10]", Inst("lea", RAX, Mem{Base: RCX, Index: RDX, Scale: 1, Disp: 0x10})},
		{"mov rax, fs:[0x28]", Inst("mov", RAX, Mem{Seg: FS, Disp: 0x28})},
		{"mov eax, dword ptr [0x80000000]", Inst("mov", EAX, Mem{Disp: -0x80000000, Width: Size32})},
		{"jz .+5", JccInst(CondE, Rel(5))},
		{"jnz .-0x9", JccInst(CondNE, Rel(-9))},
		{"setnae cl", SetccInst(CondB, CL)},
		{"cmovge eax, [rdi]", CmovccInst(CondGE, EAX, Mem{Base: RDI})},
		{"jmp 0x08:0x1000", Inst("jmp", FarPtr{Selector: 8, Offset: 0x1000})},
		{"call fword ptr [eax]", Inst("call", Mem{Base: EAX, Width: Size48})},
		{"lock add dword ptr [rax], 1", Inst("add", Mem{Base: RAX, Width: Size32}, Imm(1)).WithLock()},
		{"rep stosb", Inst("stosb").WithRep(RepE)},
		{"repnz scasb", Inst("scasb").WithRep(RepNE)},
		{"movaps xmm1, xmmword ptr [rax]", Inst("movaps", X1, Mem{Base: RAX, Width: Size128})},
		{"loopz .-2", Inst("loope", Rel(-2))},
	} {
		inst, err := Parse(tc.line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.line, err)
		}
		if diff := cmp.Diff(tc.expect, inst); diff != "" {
			t.Fatalf("Parse(%q) mismatch (-want +got):\n%s", tc.line, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"; only a comment",
		"lock",
		"mov eax,",
		"mov eax, [rax+rbx+rcx]",
		"mov eax, [rax*2+rbx*4]",
		"mov eax, [-rax]",
		"mov eax, xs:[rax]",
		"mov eax, foo",
		"jmp .+0x100000000",
	} {
		if _, err := Parse(line); err == nil {
			t.Fatalf("Parse(%q) should fail", line)
		}
	}

	_, err := Parse("moc eax, ebx")
	if !errors.Is(err, ErrUnknownMnemonic) {
		t.Fatalf("expected ErrUnknownMnemonic, found %v", err)
	}
	if !strings.Contains(err.Error(), "did you mean") || !strings.Contains(err.Error(), "mov") {
		t.Fatalf("expected a suggestion in %q", err)
	}
}

func TestParseAll(t *testing.T) {
	src := `
		; sum
		mov rax, rdi
		add rax, rsi   # second argument

		ret
	`
	insts, err := ParseAll(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	expect := []Instruction{Inst("mov", RAX, RDI), Inst("add", RAX, RSI), {Mnemonic: "ret"}}
	if diff := cmp.Diff(expect, insts); diff != "" {
		t.Fatalf("ParseAll mismatch (-want +got):\n%s", diff)
	}

	_, err = ParseAll(strings.NewReader("nop\nnop\nbogus eax\n"))
	if err == nil || !strings.HasPrefix(err.Error(), "line 3:") {
		t.Fatalf("expected an error on line 3, found %v", err)
	}
}

func TestParseEncode(t *testing.T) {
	for _, tc := range []struct {
		line   string
		expect []byte
	}{
		{"cpuid", []byte{0x0f, 0xa2}},
		{"and al, 5", []byte{0x24, 0x05}},
		{"add rax, rbx", []byte{0x48, 0x01, 0xd8}},
		{"mov rax, qword ptr [rsp+0x8]", []byte{0x48, 0x8b, 0x44, 0x24, 0x08}},
		{"jnz .-0x9", []byte{0x75, 0xf7}},
	} {
		inst, err := Parse(tc.line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.line, err)
		}
		code, err := Encode(inst, Long)
		if err != nil {
			t.Fatalf("Encode(%q): %v", tc.line, err)
		}
		if diff := cmp.Diff(tc.expect, code); diff != "" {
			t.Fatalf("Encode(%q) mismatch (-want +got):\n%s", tc.line, diff)
		}
	}
}
