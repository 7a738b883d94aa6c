package chericap

// PreciseIsRepresentableNewAddr implements the precise, round-trip
// representability check (spec §4.5): decode cap's bounds bits, re-run
// base/top reconstruction with newCursor in place of cap's own cursor,
// and report whether the result matches cap's cached base/top exactly.
func PreciseIsRepresentableNewAddr(f *Format, cap Capability, newCursor uint64) bool {
	bb := extractBoundsBits(f, cap.PESBT)
	bt := computeBaseTop(f, bb, newCursor)
	if !bt.valid {
		return false
	}
	return bt.base == cap.Base && bt.top.Compare(cap.Top) == 0
}

// FastIsRepresentableNewAddr implements the constant-time approximate
// representability check used by the hardware-equivalent code path (spec
// §4.5). RISC-V formats MUST NOT use this check; callers should route
// through PreciseIsRepresentableNewAddr instead (see SetAddress).
func FastIsRepresentableNewAddr(f *Format, cap Capability, newCursor uint64) bool {
	if newCursor >= cap.Base && cap.Top.Compare(Top{Bits: newCursor}) > 0 {
		return true
	}

	bb := extractBoundsBits(f, cap.PESBT)
	e := bb.e
	if e < 0 {
		return false
	}
	if e >= int(f.MaxExponent)-2 {
		return true
	}

	mw := f.MantissaWidth
	delta := f.boundsAddress(newCursor - cap.Cursor)
	deltaSigned := int64(signExtend(delta, f.AddrWidth))

	shift := uint(e) + uint(mw)
	var iTop int64
	if shift >= uint(f.AddrWidth) {
		if deltaSigned < 0 {
			iTop = -1
		}
	} else {
		iTop = deltaSigned >> shift
	}

	iMid := (delta >> uint(e)) & maskBits(mw)
	aMid := (f.boundsAddress(cap.Cursor) >> uint(e)) & maskBits(mw)

	r3 := ((bb.b>>(mw-3))&7 - 1) & 7
	r := r3 << (mw - 3)

	diff := (r - aMid) & maskBits(mw)
	diff1 := (diff - 1) & maskBits(mw)

	switch {
	case iTop == 0 && iMid < diff1:
		return true
	case iTop == -1 && iMid >= diff && r != aMid:
		return true
	default:
		return false
	}
}
