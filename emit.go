package x86enc

import "fmt"

const (
	modNoDisp uint8 = 0 // normal addressing
	modDisp8  uint8 = 1
	modDisp32 uint8 = 2 // disp16 with 16-bit addressing
	modDirect uint8 = 3
)

const (
	rmSIB    uint8 = 4 // ModRM.rm escape to a SIB byte
	rmDisp32 uint8 = 5 // ModRM.rm for disp32/RIP-relative with mod 0; SIB.base for no base
	sibNoIdx uint8 = 4 // SIB.index for no index
	rmDisp16 uint8 = 6 // ModRM.rm for disp16 with mod 0 in 16-bit addressing
)

var segPrefixes = map[Reg]byte{ES: 0x26, CS: 0x2e, SS: 0x36, DS: 0x3e, FS: 0x64, GS: 0x65}

func emitMSIB(buf *buffer, mode, r, rm uint8) {
	buf.Byte(mode<<6 | (r&7)<<3 | rm&7)
}

func scaleBits(scale uint8) uint8 {
	switch scale {
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	}
	return 0
}

// Emit the REX prefix. Only the low bit of each field is used.
func emitRex(buf *buffer, w, r, x, b bool) {
	rex := byte(0x40)
	if w {
		rex |= 8
	}
	if r {
		rex |= 4
	}
	if x {
		rex |= 2
	}
	if b {
		rex |= 1
	}
	buf.Byte(rex)
}

// Emit ModRM, SIB and displacement for a memory argument, with reg in ModRM.reg.
func emitMem(buf *buffer, reg uint8, a memAddr, mode Mode) error {
	if a.size == Size16 {
		return emitMem16(buf, reg, a)
	}

	switch {
	case a.rip:
		emitMSIB(buf, modNoDisp, reg, rmDisp32)
		buf.Int32(a.disp)
		return nil
	case a.base == 0 && a.index == 0:
		if mode == Long {
			// mod 0 with rm 5 is RIP-relative in long mode; absolute addresses escape into SIB
			emitMSIB(buf, modNoDisp, reg, rmSIB)
			emitMSIB(buf, 0, sibNoIdx, rmDisp32)
		} else {
			emitMSIB(buf, modNoDisp, reg, rmDisp32)
		}
		buf.Int32(a.disp)
		return nil
	case a.base == 0:
		emitMSIB(buf, modNoDisp, reg, rmSIB)
		emitMSIB(buf, scaleBits(a.scale), a.index.Num(), rmDisp32)
		buf.Int32(a.disp)
		return nil
	}

	base := a.base.Num()
	mod := modDisp32
	switch {
	case a.disp == 0 && base&7 != rmDisp32:
		// RBP/R13 as base always take a displacement
		mod = modNoDisp
	case isInt8(a.disp):
		mod = modDisp8
	}

	// RSP/R12 as base escape into SIB
	if a.index != 0 || base&7 == rmSIB {
		index := sibNoIdx
		if a.index != 0 {
			index = a.index.Num()
		}
		emitMSIB(buf, mod, reg, rmSIB)
		emitMSIB(buf, scaleBits(a.scale), index, base)
	} else {
		emitMSIB(buf, mod, reg, base)
	}

	switch mod {
	case modDisp8:
		buf.Int8(int8(a.disp))
	case modDisp32:
		buf.Int32(a.disp)
	}
	return nil
}

var rm16 = map[[2]Reg]uint8{
	{BX, SI}: 0,
	{BX, DI}: 1,
	{BP, SI}: 2,
	{BP, DI}: 3,
	{SI, 0}:  4,
	{DI, 0}:  5,
	{BP, 0}:  6,
	{BX, 0}:  7,
}

func emitMem16(buf *buffer, reg uint8, a memAddr) error {
	if a.base == 0 {
		emitMSIB(buf, modNoDisp, reg, rmDisp16)
		buf.Int16(int16(a.disp))
		return nil
	}
	rm, ok := rm16[[2]Reg{a.base, a.index}]
	if !ok {
		return fmt.Errorf("16-bit addressing does not support [%s+%s]", a.base, a.index)
	}
	mod := modDisp32
	switch {
	case a.disp == 0 && rm != rmDisp16:
		mod = modNoDisp
	case isInt8(a.disp):
		mod = modDisp8
	}
	emitMSIB(buf, mod, reg, rm)
	switch mod {
	case modDisp8:
		buf.Int8(int8(a.disp))
	case modDisp32:
		buf.Int16(int16(a.disp))
	}
	return nil
}
