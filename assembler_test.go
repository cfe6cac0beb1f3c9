package x86enc

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/arch/x86/x86asm"

	"github.com/wdamron/x86enc/feats"
)

// Encoded instructions are checked by decoding them again with x86asm and comparing the Intel syntax.

func TestEncode(t *testing.T) {
	asm := NewAssembler(make([]byte, 256), Long)
	_expect := func(s string) {
		t.Helper()
		decoded, err := x86asm.Decode(asm.Code(), 64)
		if err != nil {
			t.Fatal(err)
		}
		if decoded.Len != len(asm.Code()) {
			t.Fatalf("decoded %d of %d bytes for %s: %#x", decoded.Len, len(asm.Code()), s, asm.Code())
		}
		intel := x86asm.IntelSyntax(decoded, 0, nil)
		if intel != s {
			t.Logf("encoded inst = %#x\n", asm.Code())
			t.Fatalf("decoded inst = %s != %s", intel, s)
		}
	}
	check := func(expect string, mnemonic string, args ...Arg) {
		t.Helper()
		asm.Reset(nil)
		if err := asm.Inst(mnemonic, args...); err != nil {
			t.Fatal(err)
		}
		_expect(expect)
	}
	checkcond := func(expect string, family string, cc Cond, args ...Arg) {
		t.Helper()
		asm.Reset(nil)
		if err := asm.Cond(family, cc, args...); err != nil {
			t.Fatal(err)
		}
		_expect(expect)
	}

	check("mov al, 0x1", "mov", AL, Imm8(1))
	check("mov ah, 0x1", "mov", AH, Imm8(1))
	check("mov ax, 0x1", "mov", AX, Imm8(1)) // Imm8 will be widened to Imm16
	check("mov ax, 0x1", "mov", AX, Imm16(1))
	check("mov rax, 0x7fffffffffffffff", "mov", RAX, Imm64(0x7fffffffffffffff))
	check("mov rax, r13", "mov", RAX, R13)
	check("mov r8d, r9d", "mov", R8D, R9D)
	check("mov sil, dil", "mov", SIL, DIL)
	check("add rax, rbx", "add", RAX, RBX)
	check("add rax, 0x1", "add", RAX, Imm8(1))
	check("add al, 0x7f", "add", AL, Imm(0x7f))
	check("add eax, 0x1000", "add", EAX, Imm(0x1000))
	check("add ecx, 0x1000", "add", ECX, Imm(0x1000))
	check("add qword ptr [rax], 0x1", "add", Mem{Base: RAX, Width: Size64}, Imm8(1))
	check("xor rax, rbx", "xor", RAX, RBX)
	check("test eax, 0x10", "test", EAX, Imm(0x10))
	check("pxor xmm1, xmm2", "pxor", X1, X2)
	check("pxor xmm8, xmm1", "pxor", X8, X1)
	check("addsd xmm0, qword ptr [rax]", "addsd", X0, Mem{Base: RAX, Width: Size64})
	check("movq rax, xmm0", "movq", RAX, X0)
	check("mov rax, qword ptr [rbx]", "mov", RAX, Mem{Base: RBX})
	check("mov qword ptr [rax], rbx", "mov", Mem{Base: RAX}, RBX)
	check("mov qword ptr [r13], rbx", "mov", Mem{Base: R13}, RBX)
	check("mov qword ptr [rbp], rbx", "mov", Mem{Base: RBP}, RBX)
	check("mov qword ptr [rsp], rbx", "mov", Mem{Base: RSP}, RBX)
	check("mov qword ptr [r12], rbx", "mov", Mem{Base: R12}, RBX)
	check("mov rax, qword ptr [rbx+r15*1]", "mov", RAX, Mem{Base: RBX, Index: R15})
	check("mov rax, qword ptr [rbx+r15*2]", "mov", RAX, Mem{Base: RBX, Index: R15, Scale: 2})
	check("mov rax, qword ptr [rbx+r15*2+0x8]", "mov", RAX, Mem{Base: RBX, Index: R15, Scale: 2, Disp: 8})
	check("mov rax, qword ptr [rbx+r15*2+0x1000]", "mov", RAX, Mem{Base: RBX, Index: R15, Scale: 2, Disp: 0x1000})
	check("mov rax, qword ptr [rbx-0x8]", "mov", RAX, Mem{Base: RBX, Disp: -8})
	check("mov rax, qword ptr [rsp+rbx*1]", "mov", RAX, Mem{Base: RBX, Index: RSP})
	check("mov eax, dword ptr [r8*4+0x10]", "mov", EAX, Mem{Index: R8, Scale: 4, Disp: 0x10})
	check("mov eax, dword ptr fs:[rax]", "mov", EAX, Mem{Seg: FS, Base: RAX})
	check("movzx eax, byte ptr [rbx]", "movzx", EAX, Mem{Base: RBX, Width: Size8})
	check("movsxd rax, ecx", "movsxd", RAX, ECX)
	check("lea rax, ptr [rbx+r15*2+0x8]", "lea", RAX, Mem{Base: RBX, Index: R15, Scale: 2, Disp: 8})
	check("lea rax, ptr [rip+0x10]", "lea", RAX, Mem{Base: RIP, Disp: 16})
	check("imul eax, ebx, 0xa", "imul", EAX, EBX, Imm(10))
	check("shl rax, cl", "shl", RAX, CL)
	check("shl rax, 0x3", "shl", RAX, Imm(3))
	check("push rax", "push", RAX)
	check("push r12", "push", R12)
	check("pop rbp", "pop", RBP)
	check("push 0x1", "push", Imm(1))
	check("jmp qword ptr [rax]", "jmp", Mem{Base: RAX, Width: Size64})
	check("jmp .+0x4", "jmp", Rel8(4))
	check("call .+0x100", "call", Rel(0x100))
	check("ret", "ret")
	check("ret 0x8", "ret", Imm(8))
	check("cpuid", "cpuid")
	check("syscall", "syscall")
	checkcond("jz .+0x4", Jcc, CondE, Rel8(4))
	checkcond("jz .-0x4", Jcc, CondE, Rel8(-4))
	checkcond("jz .+0x8000", Jcc, CondE, Rel32(32768))
	checkcond("jz .-0x8000", Jcc, CondE, Rel(-32768))
	checkcond("jl .+0x10", Jcc, CondL, Rel(0x10))
	checkcond("setnbe al", Setcc, CondA, AL)
	checkcond("cmovl eax, ebx", Cmovcc, CondL, EAX, EBX)

	// With CPU features disabled:

	asm.Reset(nil)
	if err := asm.Cond(Cmovcc, CondL, EAX, EBX); err != nil {
		t.Fatal(err)
	}
	asm.Reset(nil)
	asm.Encoder().DisableFeature(feats.CMOV)
	if err := asm.Cond(Cmovcc, CondL, EAX, EBX); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("Expected no matching instruction for CMOVL with CMOV disabled, got %v", err)
	}
}

func TestEncodeProtected(t *testing.T) {
	asm := NewAssembler(nil, Protected)
	check := func(expect string, inst Instruction) {
		t.Helper()
		asm.Reset(nil)
		if err := asm.Encode(inst); err != nil {
			t.Fatal(err)
		}
		decoded, err := x86asm.Decode(asm.Code(), 32)
		if err != nil {
			t.Fatal(err)
		}
		if intel := x86asm.IntelSyntax(decoded, 0, nil); intel != expect || decoded.Len != len(asm.Code()) {
			t.Fatalf("decoded inst = %s (%d of %d bytes) != %s", intel, decoded.Len, len(asm.Code()), expect)
		}
	}

	check("inc eax", Inst("inc", EAX))
	check("dec ecx", Inst("dec", ECX))
	check("inc ax", Inst("inc", AX))
	check("push eax", Inst("push", EAX))
	check("mov eax, dword ptr [ebx+ecx*4+0x8]", Inst("mov", EAX, Mem{Base: EBX, Index: ECX, Scale: 4, Disp: 8}))
	check("mov eax, dword ptr [0x1000]", Inst("mov", EAX, Mem{Disp: 0x1000}))
	check("lock add dword ptr [eax], 0x1", Inst("add", Mem{Base: EAX, Width: Size32}, Imm(1)).WithLock())
	check("rep movsd dword ptr [edi], dword ptr [esi]", Inst("movs").WithRep(RepE).WithSize(Size32))
}

func TestAssemblerErr(t *testing.T) {
	asm := NewAssembler(make([]byte, 0, 16), Long)
	if err := asm.Inst("mov", RAX, RBX); err != nil {
		t.Fatal(err)
	}
	err := asm.Inst("and", BL, Imm(256))
	if !errors.Is(err, ErrOperandOutOfRange) {
		t.Fatalf("expected ErrOperandOutOfRange, got %v", err)
	}
	// later instructions are ignored until reset
	if err2 := asm.Inst("ret"); err2 != err {
		t.Fatalf("expected the first error to be retained, got %v", err2)
	}
	asm.Nop(4)
	if asm.Err() != err || asm.PC() != 3 {
		t.Fatalf("err = %v, pc = %d", asm.Err(), asm.PC())
	}

	asm.Reset(nil)
	if asm.Err() != nil || asm.PC() != 0 {
		t.Fatalf("reset: err = %v, pc = %d", asm.Err(), asm.PC())
	}
	if err := asm.Lock("mov", Mem{Base: RAX}, RBX); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for lock mov, got %v", err)
	}
	if len(asm.Code()) != 0 {
		t.Fatalf("failed instruction wrote %#x", asm.Code())
	}
}

func TestAssemblerPrefixes(t *testing.T) {
	asm := NewAssembler(nil, Long)
	asm.Lock("xadd", Mem{Base: RDI}, RAX)
	asm.Rep("stosq")
	asm.Repne("scasb")
	if err := asm.Err(); err != nil {
		t.Fatal(err)
	}
	want := []byte{0xf0, 0x48, 0x0f, 0xc1, 0x07, 0xf3, 0x48, 0xab, 0xf2, 0xae}
	if string(asm.Code()) != string(want) {
		t.Fatalf("encoded = %#x != %#x", asm.Code(), want)
	}

	asm.Reset(nil)
	if err := asm.Rep("add", RAX, RBX); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for rep add, got %v", err)
	}
	asm.Reset(nil)
	if err := asm.Repne("movsb"); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for repne movsb, got %v", err)
	}
}

func TestAlignPC(t *testing.T) {
	asm := NewAssembler(make([]byte, 256), Long)
	asm.Inst("mov", RAX, RBX)
	asm.AlignPC(16)
	if len(asm.Code()) != 16 {
		t.Fatalf("len(code) = %d", len(asm.Code()))
	}
	// decode mov
	decoded, err := x86asm.Decode(asm.Code(), 64)
	if err != nil {
		t.Fatal(err)
	}
	intel := x86asm.IntelSyntax(decoded, 0, nil)
	if intel != "mov rax, rbx" {
		t.Logf("encoded inst = %#x\n", asm.Code())
		t.Fatalf("decoded inst = %s != mov rax, rbx", intel)
	}
	// decode nops
	for pc := decoded.Len; pc < len(asm.Code()); pc += decoded.Len {
		decoded, err = x86asm.Decode(asm.Code()[pc:], 64)
		if err != nil {
			t.Fatal(err)
		}
		intel = x86asm.IntelSyntax(decoded, 0, nil)
		if !strings.HasPrefix(intel, "nop") {
			t.Logf("encoded inst = %#x\n", asm.Code())
			t.Fatalf("decoded inst = %s != nop ...", intel)
		}
	}

	// already aligned
	asm.AlignPC(16)
	if len(asm.Code()) != 16 {
		t.Fatalf("len(code) = %d after aligning an aligned pc", len(asm.Code()))
	}
}

func TestNopLengths(t *testing.T) {
	for _, mode := range []Mode{Real, Protected, Long} {
		for n := 0; n <= 20; n++ {
			asm := NewAssembler(nil, mode)
			asm.Nop(n)
			if asm.PC() != n {
				t.Fatalf("%s: Nop(%d) wrote %d bytes", mode, n, asm.PC())
			}
			for pc := 0; pc < n; {
				decoded, err := x86asm.Decode(asm.Code()[pc:], mode.Bits())
				if err != nil {
					t.Fatalf("%s: Nop(%d) at %d: %v", mode, n, pc, err)
				}
				if decoded.Op != x86asm.NOP {
					t.Fatalf("%s: Nop(%d) at %d decoded as %v", mode, n, pc, decoded)
				}
				pc += decoded.Len
			}
		}
	}
}
