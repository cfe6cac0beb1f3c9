package x86enc

import "fmt"

// memAddr is a memory argument validated and normalized for encoding.
type memAddr struct {
	seg   Reg
	base  Reg
	index Reg
	scale uint8
	disp  int32
	size  Size // address size
	rip   bool
}

// Validate that the base/index/scale combination of a memory argument can be encoded in the given
// processor mode, and normalize it:
//
// 	- the address size is taken from the base/index registers, or the mode's default
// 	- a zero scale is treated as 1
// 	- RSP as index is swapped with the base when possible
// 	- 16-bit forms are reordered so that BX/BP is the base and SI/DI the index
//
// Errors describe why the address cannot be encoded.
func sanitizeMem(m Mem, mode Mode) (memAddr, error) {
	a := memAddr{seg: m.Seg, base: m.Base, index: m.Index, scale: m.Scale, disp: m.Disp}
	b, i := m.Base, m.Index

	if a.seg != 0 && a.seg.Family() != REG_SEGMENT {
		return a, fmt.Errorf("%s is not a segment register", a.seg)
	}
	switch a.scale {
	case 0:
		a.scale = 1
	case 1, 2, 4, 8:
	default:
		return a, fmt.Errorf("scale %d is not 1, 2, 4 or 8", a.scale)
	}
	if i == 0 && a.scale != 1 {
		return a, fmt.Errorf("scale %d without an index register", a.scale)
	}

	if b != 0 && b.Family() == REG_RIP {
		if i != 0 {
			return a, fmt.Errorf("%s-relative addressing does not take an index register", b)
		}
		if mode != Long {
			return a, fmt.Errorf("%s-relative addressing requires long mode", b)
		}
		a.rip, a.size = true, b.width()
		return a, nil
	}
	for _, r := range [...]Reg{b, i} {
		if r == 0 {
			continue
		}
		if r.Family() != REG_LEGACY || r.width() < Size16 {
			return a, fmt.Errorf("%s cannot be used for addressing", r)
		}
		if r.IsExtended() && mode != Long {
			return a, fmt.Errorf("%s requires long mode", r)
		}
	}

	// figure out the address size
	switch {
	case b == 0 && i == 0:
		a.size = mode.addrSize()
	case b != 0 && i != 0 && b.width() != i.width():
		return a, fmt.Errorf("registers of differing sizes for base/index: %s/%s", b, i)
	case b != 0:
		a.size = b.width()
	default:
		a.size = i.width()
	}
	switch {
	case a.size == Size64 && mode != Long:
		return a, fmt.Errorf("64-bit addressing requires long mode")
	case a.size == Size16 && mode == Long:
		return a, fmt.Errorf("16-bit addressing is not available in long mode")
	}

	if a.size == Size16 {
		return sanitizeMem16(a)
	}

	// RSP as index field can not be represented. Check if we can swap it with base
	if i != 0 && i.Num() == RSP.Num() {
		if (b != 0 && b.Num() == RSP.Num()) || a.scale != 1 {
			return a, fmt.Errorf("%s cannot be used as index", i)
		}
		a.base, a.index = i, b
	}
	return a, nil
}

// 16-bit addressing has no scaled index, and only the BX/BP base and SI/DI index registers.
func sanitizeMem16(a memAddr) (memAddr, error) {
	if a.index != 0 && a.scale != 1 {
		return a, fmt.Errorf("16-bit addressing does not support a scaled index")
	}
	if a.base == 0 {
		a.base, a.index = a.index, 0
	}
	isBase := func(r Reg) bool { return r == BX || r == BP }
	isIndex := func(r Reg) bool { return r == SI || r == DI }
	if a.index != 0 && isIndex(a.base) && isBase(a.index) {
		a.base, a.index = a.index, a.base
	}
	switch {
	case a.base == 0:
	case a.index == 0 && (isBase(a.base) || isIndex(a.base)):
	case isBase(a.base) && isIndex(a.index):
	default:
		return a, fmt.Errorf("16-bit addressing does not support [%s+%s]", a.base, a.index)
	}
	return a, nil
}
