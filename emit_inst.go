package x86enc

import "fmt"

const (
	lockPrefix     byte = 0xf0
	repPrefix      byte = 0xf3
	repnePrefix    byte = 0xf2
	opSizePrefix   byte = 0x66
	addrSizePrefix byte = 0x67
)

// Bound operands of a variant, grouped by their placement.
type placedArgs struct {
	reg    Reg // ModRM.reg
	rm     Arg // ModRM.rm: Reg or Mem
	add    Reg // opcode-add register
	mem    memAddr
	hasMem bool
}

// Emit the selected variant for the instruction. On error, bytes may have been appended to buf and
// the caller must discard them.
//
// Emission order: segment override, address-size override, operand-size override, mandatory prefix,
// LOCK, REP/REPNE, REX, opcode, ModRM, SIB, displacement, immediates.
func emitInst(buf *buffer, v *OpcodeVariant, inst *Instruction, mode Mode) error {
	var p placedArgs
	for i, d := range v.Operands {
		arg := inst.Args[i]
		switch d.Encoding {
		case EncModRMReg:
			p.reg, _ = arg.(Reg)
		case EncModRMRM:
			p.rm = arg
			if m, ok := arg.(Mem); ok {
				addr, err := sanitizeMem(m, mode)
				if err != nil {
					return newError(ErrUnsupportedAddressing, inst, mode, err.Error())
				}
				if !dispFits(addr.disp, addr.size) {
					return newError(ErrOperandOutOfRange, inst, mode,
						fmt.Sprintf("displacement %#x does not fit %d-bit addressing", addr.disp, addr.size.Bits()))
				}
				p.mem, p.hasMem = addr, true
			}
		case EncOpcodeAdd:
			p.add, _ = arg.(Reg)
		}
	}

	// determine if a REX prefix is necessary
	rexW := v.RexW()
	var rexR, rexX, rexB bool
	needRex, noRex := rexW, false
	for _, arg := range inst.Args {
		if r, ok := arg.(Reg); ok {
			if r.Family() == REG_HIGHBYTE {
				noRex = true
			}
			needRex = needRex || r.NeedsREX()
		}
	}
	rexR = p.reg.IsExtended()
	switch rm := p.rm.(type) {
	case Reg:
		rexB = rm.IsExtended()
	case Mem:
		rexB = p.mem.base != 0 && p.mem.base.IsExtended()
		rexX = p.mem.index != 0 && p.mem.index.IsExtended()
	}
	if p.add != 0 {
		rexB = p.add.IsExtended()
	}
	needRex = needRex || rexR || rexX || rexB
	if needRex && noRex {
		return newError(ErrUnsupportedAddressing, inst, mode, "high-byte registers cannot be encoded with a REX prefix")
	}
	if needRex && mode != Long {
		return newError(ErrUnsupportedAddressing, inst, mode, "REX prefix requires long mode")
	}

	// legacy prefixes
	if p.hasMem {
		if p.mem.seg != 0 {
			buf.Byte(segPrefixes[p.mem.seg])
		}
		if p.mem.size != mode.addrSize() {
			buf.Byte(addrSizePrefix)
		}
	}
	if needsOpSizePrefix(v.SizeClass, mode) {
		buf.Byte(opSizePrefix)
	}
	if v.Prefix != 0 {
		buf.Byte(v.Prefix)
	}
	if inst.Lock {
		buf.Byte(lockPrefix)
	}
	switch inst.Rep {
	case RepE:
		buf.Byte(repPrefix)
	case RepNE:
		buf.Byte(repnePrefix)
	}
	if needRex {
		emitRex(buf, rexW, rexR, rexX, rexB)
	}

	// opcode
	opcode := v.Opcode
	if p.add != 0 {
		buf.Bytes(opcode[:len(opcode)-1])
		buf.Byte(opcode[len(opcode)-1] | p.add.Num()&7)
	} else {
		buf.Bytes(opcode)
	}

	// ModRM, SIB, displacement
	if v.HasModRM() {
		regField := p.reg.Num()
		if v.Extension >= 0 {
			regField = uint8(v.Extension)
		}
		switch rm := p.rm.(type) {
		case Reg:
			emitMSIB(buf, modDirect, regField, rm.Num())
		case Mem:
			if err := emitMem(buf, regField, p.mem, mode); err != nil {
				return newError(ErrUnsupportedAddressing, inst, mode, err.Error())
			}
		}
	}

	// immediates, relative offsets and far pointers, in operand order
	for i, d := range v.Operands {
		if d.Encoding != EncImmediate {
			continue
		}
		switch arg := inst.Args[i].(type) {
		case ImmArg:
			val := arg.Int64()
			if !immFits(val, d.Size, d.SignExtend) {
				return newError(ErrOperandOutOfRange, inst, mode,
					fmt.Sprintf("immediate %#x does not fit %s", val, d))
			}
			buf.Sized(val, d.Size)
		case RelArg:
			val := arg.Int32()
			if !relFits(val, d.Size) {
				return newError(ErrOperandOutOfRange, inst, mode,
					fmt.Sprintf("relative offset %d does not fit %s", val, d))
			}
			buf.Sized(int64(val), d.Size)
		case FarPtr:
			if !farFits(arg, d.Size) {
				return newError(ErrOperandOutOfRange, inst, mode,
					fmt.Sprintf("offset %#x does not fit %s", arg.Offset, d))
			}
			buf.Sized(int64(arg.Offset), d.Size-Size16)
			buf.Int16(int16(arg.Selector))
		}
	}
	return nil
}

// The operand-size override selects the non-default of 16 and 32 bits for the mode.
func needsOpSizePrefix(size Size, mode Mode) bool {
	return (size == Size16 || size == Size32) && size != mode.defaultSize()
}
