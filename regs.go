package x86enc

import "strings"

// Reg is a register argument with a specific width and family. All registers have a number
// which distinguishes them within their family, with the exception of the IP/EIP/RIP registers.
//
// 	[0..3] bits are the register number
// 	[8..15] bits are the register family
// 	[16..20] bits are the register width in bytes
//
// The zero value is "no register", which is used for absent Mem.Base/Mem.Index/Mem.Seg fields.
//
// Reg implements Arg.
type Reg uint32

func (r Reg) isArg()        {}
func (r Reg) width() Size   { return Size(r>>16) & 0x1f }
func (r Reg) shape() string { return r.String() }

// Get the family for the register.
//
// If the register is valid, the return value will be REG_LEGACY, REG_RIP, REG_HIGHBYTE, REG_XMM,
// or REG_SEGMENT.
func (r Reg) Family() uint8 { return uint8(r >> 8) }

// Get the number which distinguishes the register within its family. The IP/EIP/RIP registers
// have no meaningful number, so they will return 0.
func (r Reg) Num() uint8 { return uint8(r) & 0xf }

// Get the width of the register.
func (r Reg) Width() Size { return r.width() }

// Check if the register is numbered 8 or higher.
func (r Reg) IsExtended() bool { return r.Num() > 7 }

// Check if the register can only be encoded with a REX prefix: registers numbered 8 or higher,
// and the SPL/BPL/SIL/DIL byte registers.
func (r Reg) NeedsREX() bool {
	if r == 0 {
		return false
	}
	switch r.Family() {
	case REG_LEGACY:
		return r.IsExtended() || (r.width() == Size8 && r.Num() >= 4)
	case REG_XMM:
		return r.IsExtended()
	}
	return false
}

// Get the register class, used for matching against operand descriptors.
func (r Reg) Class() RegClass {
	switch r.Family() {
	case REG_LEGACY, REG_HIGHBYTE:
		switch r.width() {
		case Size8:
			return ClassGP8
		case Size16:
			return ClassGP16
		case Size32:
			return ClassGP32
		case Size64:
			return ClassGP64
		}
	case REG_XMM:
		return ClassSIMD128
	case REG_SEGMENT:
		return ClassSegment
	}
	return ClassNone
}

func (r Reg) String() string {
	if name, ok := regNames[r]; ok {
		return name
	}
	if r == 0 {
		return "none"
	}
	return "reg?"
}

// Register families
const (
	REG_LEGACY   = iota
	REG_RIP      // IP, EIP, RIP
	REG_HIGHBYTE // AH, CH, DH, BH
	REG_XMM
	REG_SEGMENT
)

// Registers
const (
	// 8-bit
	AL   Reg = Reg(1<<16 | REG_LEGACY<<8 | 0)
	CL   Reg = Reg(1<<16 | REG_LEGACY<<8 | 1)
	DL   Reg = Reg(1<<16 | REG_LEGACY<<8 | 2)
	BL   Reg = Reg(1<<16 | REG_LEGACY<<8 | 3)
	SPL  Reg = Reg(1<<16 | REG_LEGACY<<8 | 4)
	BPL  Reg = Reg(1<<16 | REG_LEGACY<<8 | 5)
	SIL  Reg = Reg(1<<16 | REG_LEGACY<<8 | 6)
	DIL  Reg = Reg(1<<16 | REG_LEGACY<<8 | 7)
	R8B  Reg = Reg(1<<16 | REG_LEGACY<<8 | 8)
	R9B  Reg = Reg(1<<16 | REG_LEGACY<<8 | 9)
	R10B Reg = Reg(1<<16 | REG_LEGACY<<8 | 10)
	R11B Reg = Reg(1<<16 | REG_LEGACY<<8 | 11)
	R12B Reg = Reg(1<<16 | REG_LEGACY<<8 | 12)
	R13B Reg = Reg(1<<16 | REG_LEGACY<<8 | 13)
	R14B Reg = Reg(1<<16 | REG_LEGACY<<8 | 14)
	R15B Reg = Reg(1<<16 | REG_LEGACY<<8 | 15)

	// High-byte registers share numbers 4-7 with SPL-DIL; they cannot be encoded with a REX prefix.
	AH Reg = Reg(1<<16 | REG_HIGHBYTE<<8 | 4)
	CH Reg = Reg(1<<16 | REG_HIGHBYTE<<8 | 5)
	DH Reg = Reg(1<<16 | REG_HIGHBYTE<<8 | 6)
	BH Reg = Reg(1<<16 | REG_HIGHBYTE<<8 | 7)

	// 16-bit
	AX   Reg = Reg(2<<16 | REG_LEGACY<<8 | 0)
	CX   Reg = Reg(2<<16 | REG_LEGACY<<8 | 1)
	DX   Reg = Reg(2<<16 | REG_LEGACY<<8 | 2)
	BX   Reg = Reg(2<<16 | REG_LEGACY<<8 | 3)
	SP   Reg = Reg(2<<16 | REG_LEGACY<<8 | 4)
	BP   Reg = Reg(2<<16 | REG_LEGACY<<8 | 5)
	SI   Reg = Reg(2<<16 | REG_LEGACY<<8 | 6)
	DI   Reg = Reg(2<<16 | REG_LEGACY<<8 | 7)
	R8W  Reg = Reg(2<<16 | REG_LEGACY<<8 | 8)
	R9W  Reg = Reg(2<<16 | REG_LEGACY<<8 | 9)
	R10W Reg = Reg(2<<16 | REG_LEGACY<<8 | 10)
	R11W Reg = Reg(2<<16 | REG_LEGACY<<8 | 11)
	R12W Reg = Reg(2<<16 | REG_LEGACY<<8 | 12)
	R13W Reg = Reg(2<<16 | REG_LEGACY<<8 | 13)
	R14W Reg = Reg(2<<16 | REG_LEGACY<<8 | 14)
	R15W Reg = Reg(2<<16 | REG_LEGACY<<8 | 15)

	// 32-bit
	EAX  Reg = Reg(4<<16 | REG_LEGACY<<8 | 0)
	ECX  Reg = Reg(4<<16 | REG_LEGACY<<8 | 1)
	EDX  Reg = Reg(4<<16 | REG_LEGACY<<8 | 2)
	EBX  Reg = Reg(4<<16 | REG_LEGACY<<8 | 3)
	ESP  Reg = Reg(4<<16 | REG_LEGACY<<8 | 4)
	EBP  Reg = Reg(4<<16 | REG_LEGACY<<8 | 5)
	ESI  Reg = Reg(4<<16 | REG_LEGACY<<8 | 6)
	EDI  Reg = Reg(4<<16 | REG_LEGACY<<8 | 7)
	R8D  Reg = Reg(4<<16 | REG_LEGACY<<8 | 8)
	R9D  Reg = Reg(4<<16 | REG_LEGACY<<8 | 9)
	R10D Reg = Reg(4<<16 | REG_LEGACY<<8 | 10)
	R11D Reg = Reg(4<<16 | REG_LEGACY<<8 | 11)
	R12D Reg = Reg(4<<16 | REG_LEGACY<<8 | 12)
	R13D Reg = Reg(4<<16 | REG_LEGACY<<8 | 13)
	R14D Reg = Reg(4<<16 | REG_LEGACY<<8 | 14)
	R15D Reg = Reg(4<<16 | REG_LEGACY<<8 | 15)

	// 64-bit
	RAX Reg = Reg(8<<16 | REG_LEGACY<<8 | 0)
	RCX Reg = Reg(8<<16 | REG_LEGACY<<8 | 1)
	RDX Reg = Reg(8<<16 | REG_LEGACY<<8 | 2)
	RBX Reg = Reg(8<<16 | REG_LEGACY<<8 | 3)
	RSP Reg = Reg(8<<16 | REG_LEGACY<<8 | 4)
	RBP Reg = Reg(8<<16 | REG_LEGACY<<8 | 5)
	RSI Reg = Reg(8<<16 | REG_LEGACY<<8 | 6)
	RDI Reg = Reg(8<<16 | REG_LEGACY<<8 | 7)
	R8  Reg = Reg(8<<16 | REG_LEGACY<<8 | 8)
	R9  Reg = Reg(8<<16 | REG_LEGACY<<8 | 9)
	R10 Reg = Reg(8<<16 | REG_LEGACY<<8 | 10)
	R11 Reg = Reg(8<<16 | REG_LEGACY<<8 | 11)
	R12 Reg = Reg(8<<16 | REG_LEGACY<<8 | 12)
	R13 Reg = Reg(8<<16 | REG_LEGACY<<8 | 13)
	R14 Reg = Reg(8<<16 | REG_LEGACY<<8 | 14)
	R15 Reg = Reg(8<<16 | REG_LEGACY<<8 | 15)

	// Instruction pointer.
	EIP Reg = Reg(4<<16 | REG_RIP<<8 | 0) // 32-bit
	RIP Reg = Reg(8<<16 | REG_RIP<<8 | 0) // 64-bit

	// XMM registers.
	X0  Reg = Reg(16<<16 | REG_XMM<<8 | 0)
	X1  Reg = Reg(16<<16 | REG_XMM<<8 | 1)
	X2  Reg = Reg(16<<16 | REG_XMM<<8 | 2)
	X3  Reg = Reg(16<<16 | REG_XMM<<8 | 3)
	X4  Reg = Reg(16<<16 | REG_XMM<<8 | 4)
	X5  Reg = Reg(16<<16 | REG_XMM<<8 | 5)
	X6  Reg = Reg(16<<16 | REG_XMM<<8 | 6)
	X7  Reg = Reg(16<<16 | REG_XMM<<8 | 7)
	X8  Reg = Reg(16<<16 | REG_XMM<<8 | 8)
	X9  Reg = Reg(16<<16 | REG_XMM<<8 | 9)
	X10 Reg = Reg(16<<16 | REG_XMM<<8 | 10)
	X11 Reg = Reg(16<<16 | REG_XMM<<8 | 11)
	X12 Reg = Reg(16<<16 | REG_XMM<<8 | 12)
	X13 Reg = Reg(16<<16 | REG_XMM<<8 | 13)
	X14 Reg = Reg(16<<16 | REG_XMM<<8 | 14)
	X15 Reg = Reg(16<<16 | REG_XMM<<8 | 15)

	// Segment registers.
	ES Reg = Reg(2<<16 | REG_SEGMENT<<8 | 0)
	CS Reg = Reg(2<<16 | REG_SEGMENT<<8 | 1)
	SS Reg = Reg(2<<16 | REG_SEGMENT<<8 | 2)
	DS Reg = Reg(2<<16 | REG_SEGMENT<<8 | 3)
	FS Reg = Reg(2<<16 | REG_SEGMENT<<8 | 4)
	GS Reg = Reg(2<<16 | REG_SEGMENT<<8 | 5)
)

// Build a general-purpose register from its number and width. Used for fixed-register
// descriptors, whose width is only known once the operand size is expanded.
func gpReg(num uint8, size Size) Reg {
	return Reg(Reg(size)<<16 | REG_LEGACY<<8 | Reg(num&0xf))
}

var regNames = map[Reg]string{
	AL: "al", CL: "cl", DL: "dl", BL: "bl", SPL: "spl", BPL: "bpl", SIL: "sil", DIL: "dil",
	R8B: "r8b", R9B: "r9b", R10B: "r10b", R11B: "r11b", R12B: "r12b", R13B: "r13b", R14B: "r14b", R15B: "r15b",
	AH: "ah", CH: "ch", DH: "dh", BH: "bh",
	AX: "ax", CX: "cx", DX: "dx", BX: "bx", SP: "sp", BP: "bp", SI: "si", DI: "di",
	R8W: "r8w", R9W: "r9w", R10W: "r10w", R11W: "r11w", R12W: "r12w", R13W: "r13w", R14W: "r14w", R15W: "r15w",
	EAX: "eax", ECX: "ecx", EDX: "edx", EBX: "ebx", ESP: "esp", EBP: "ebp", ESI: "esi", EDI: "edi",
	R8D: "r8d", R9D: "r9d", R10D: "r10d", R11D: "r11d", R12D: "r12d", R13D: "r13d", R14D: "r14d", R15D: "r15d",
	RAX: "rax", RCX: "rcx", RDX: "rdx", RBX: "rbx", RSP: "rsp", RBP: "rbp", RSI: "rsi", RDI: "rdi",
	R8: "r8", R9: "r9", R10: "r10", R11: "r11", R12: "r12", R13: "r13", R14: "r14", R15: "r15",
	EIP: "eip", RIP: "rip",
	X0: "xmm0", X1: "xmm1", X2: "xmm2", X3: "xmm3", X4: "xmm4", X5: "xmm5", X6: "xmm6", X7: "xmm7",
	X8: "xmm8", X9: "xmm9", X10: "xmm10", X11: "xmm11", X12: "xmm12", X13: "xmm13", X14: "xmm14", X15: "xmm15",
	ES: "es", CS: "cs", SS: "ss", DS: "ds", FS: "fs", GS: "gs",
}

var regsByName map[string]Reg

func init() {
	regsByName = make(map[string]Reg, len(regNames))
	for r, name := range regNames {
		regsByName[name] = r
	}
}

// Lookup a register by its lower- or upper-case name (e.g. "eax", "R8D", "xmm3").
func RegByName(name string) (Reg, bool) {
	r, ok := regsByName[strings.ToLower(name)]
	return r, ok
}
