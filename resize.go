package x86enc

import "math"

// Check if an immediate value can be encoded in size bytes. Without sign-extension a value fits when
// it is representable either as a signed or as an unsigned integer of that width; sign-extended
// immediates must be representable as signed integers.
func immFits(v int64, size Size, signExtend bool) bool {
	switch size {
	case Size8:
		if signExtend {
			return v >= math.MinInt8 && v <= math.MaxInt8
		}
		return v >= math.MinInt8 && v <= math.MaxUint8
	case Size16:
		if signExtend {
			return v >= math.MinInt16 && v <= math.MaxInt16
		}
		return v >= math.MinInt16 && v <= math.MaxUint16
	case Size32:
		if signExtend {
			return v >= math.MinInt32 && v <= math.MaxInt32
		}
		return v >= math.MinInt32 && v <= math.MaxUint32
	case Size64:
		return true
	}
	return false
}

// Check if a relative offset can be encoded in size bytes. Offsets are always signed.
func relFits(v int32, size Size) bool {
	switch size {
	case Size8:
		return v >= math.MinInt8 && v <= math.MaxInt8
	case Size16:
		return v >= math.MinInt16 && v <= math.MaxInt16
	case Size32:
		return true
	}
	return false
}

// Check if a far pointer offset fits a 16:16 (Size32) or 16:32 (Size48) pointer.
func farFits(p FarPtr, size Size) bool {
	if size == Size32 {
		return p.Offset <= math.MaxUint16
	}
	return size == Size48
}

// Check if a memory displacement fits the displacement field for the address size.
func dispFits(disp int32, addrSize Size) bool {
	if addrSize == Size16 {
		return disp >= math.MinInt16 && disp <= math.MaxUint16
	}
	return true
}

func isInt8(v int32) bool { return v >= math.MinInt8 && v <= math.MaxInt8 }
