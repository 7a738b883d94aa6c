package chericap

// wideMaskBits returns a wide128 with the low n bits set (n may be 0..128).
func wideMaskBits(n uint) wide128 {
	switch {
	case n == 0:
		return wide128{}
	case n >= 128:
		return wide128{hi: ^uint64(0), lo: ^uint64(0)}
	case n >= 64:
		return wide128{hi: maskBits(uint8(n - 64)), lo: ^uint64(0)}
	default:
		return wide128{lo: maskBits(uint8(n))}
	}
}

func (w wide128) and(v wide128) wide128 {
	return wide128{hi: w.hi & v.hi, lo: w.lo & v.lo}
}

func (w wide128) isZero() bool { return w.hi == 0 && w.lo == 0 }

func (w wide128) less(v wide128) bool {
	if w.hi != v.hi {
		return w.hi < v.hi
	}
	return w.lo < v.lo
}

func topToWide(t Top) wide128 {
	var hi uint64
	if t.Ext {
		hi = 1
	}
	return wide128{hi: hi, lo: t.Bits}
}

func idxMSNZWide(w wide128) int {
	if w.hi != 0 {
		return 64 + idxMSNZ(w.hi)
	}
	return idxMSNZ(w.lo)
}

// internalFlagValue returns the IEBit value that selects the given path
// (internal-exponent vs zero-exponent) for format f: RISC-V's EF bit is
// the inverse sense of v9/Morello's IE bit.
func internalFlagValue(f *Format, internal bool) uint64 {
	if internal {
		if f.UsesEF {
			return 0
		}
		return 1
	}
	if f.UsesEF {
		return 1
	}
	return 0
}

// computeEBT implements the bounds encoder (compute-EBT, spec §4.4):
// given a requested [reqBase, reqTop) interval, it returns the bit
// pattern to splice into the PESBT word's EBT subfield, whether the
// encoding is exact, and the CRAM alignment mask for this request's
// length.
func computeEBT(f *Format, reqBase uint64, reqTop Top) (ebt uint64, exact bool, alignMask uint64) {
	mw := f.MantissaWidth
	lengthWide := topToWide(reqTop).sub(wide128FromU64(reqBase))

	threshold := wideMaskBits(uint(mw) - 1).add(wide128FromU64(1)) // 2^(mw-1)
	var e int
	if !lengthWide.less(threshold) {
		e = idxMSNZWide(lengthWide) - (int(mw) - 2)
		if e < 0 {
			e = 0
		}
	}

	if e == 0 && lengthWide.bit(uint(mw)-2) == 0 {
		bVal := reqBase & maskBits(mw)
		tVal := topToWide(reqTop).low64(mw - 2)
		var l8 uint64
		if f.UsesL8 {
			l8 = lengthWide.bit(8)
		}
		word := f.IEBit.encode(internalFlagValue(f, false))
		if f.UsesL8 {
			word |= f.L8Bit.encode(l8)
		}
		word |= f.Bottom.encode(bVal)
		word |= f.Top.encode(tVal)

		// Every base encodes exactly here, so no alignment is required.
		alignMask = ^uint64(0)
		return word, true, alignMask
	}

	botIEWidth := uint(mw) - uint(f.ExpLowWidth)
	topIEWidth := uint(mw) - 2 - uint(f.ExpHighWidth)

	tryE := e
	var bIE, tIE uint64
	var lost bool
	for attempt := 0; attempt < 2; attempt++ {
		shiftB := uint(tryE) + uint(f.ExpLowWidth)
		shiftT := uint(tryE) + uint(f.ExpHighWidth)

		baseWide := wide128FromU64(reqBase)
		topWide := topToWide(reqTop)

		bIE = baseWide.shr(shiftB).low64(uint8(botIEWidth))
		lostBase := !baseWide.and(wideMaskBits(shiftB)).isZero()

		tIEFullWidth := mw - f.ExpHighWidth
		tIEFull := topWide.shr(shiftT).low64(tIEFullWidth)
		lostTop := !topWide.and(wideMaskBits(shiftT)).isZero()
		if lostTop {
			tIEFull = (tIEFull + 1) & maskBits(tIEFullWidth)
		}

		// Rounding B down and T up can push the mantissa length T-B to
		// 2^(mw-1); retry once with the exponent one larger.
		lenMant := ((tIEFull << f.ExpHighWidth) - (bIE << f.ExpLowWidth)) & maskBits(mw)
		overflow := (lenMant>>(mw-1))&1 != 0
		if overflow && attempt == 0 {
			tryE++
			continue
		}

		tIE = tIEFull & maskBits(uint8(topIEWidth))
		lost = lostBase || lostTop
		break
	}
	e = tryE

	var encExp uint64
	if e > int(f.MaxExponent) {
		e = int(f.MaxExponent)
	}
	if f.UsesEF {
		encExp = uint64(int(f.MaxExponent) - e)
	} else {
		encExp = uint64(e)
	}

	expLow := encExp & maskBits(f.ExpLowWidth)
	expHigh := (encExp >> f.ExpLowWidth) & maskBits(f.ExpHighWidth)
	var l8 uint64
	if f.UsesL8 {
		l8 = (encExp >> (f.ExpLowWidth + f.ExpHighWidth)) & 1
	}

	bottomVal := (bIE << f.ExpLowWidth) | expLow
	topVal := (tIE << f.ExpHighWidth) | expHigh

	word := f.IEBit.encode(internalFlagValue(f, true))
	if f.UsesL8 {
		word |= f.L8Bit.encode(l8)
	}
	word |= f.Bottom.encode(bottomVal)
	word |= f.Top.encode(topVal)

	alignMask = alignMaskForShift(uint8(e) + f.ExpLowWidth)
	return word, !lost, alignMask
}

func alignMaskForShift(shift uint8) uint64 {
	switch {
	case shift >= 64:
		return 0
	case shift == 0:
		return ^uint64(0)
	default:
		return ^uint64(0) << shift
	}
}

// ComputeEBT is the exported form of the bounds encoder, returning the
// spliced EBT bits and the exactness flag.
func ComputeEBT(f *Format, reqBase uint64, reqTop Top) (ebt uint64, exact bool) {
	ebt, exact, _ = computeEBT(f, reqBase, reqTop)
	return ebt, exact
}

// GetAlignmentMask returns the CRAM mask: AND-ing it with any address
// gives an address that is precisely representable as the base of a
// region of the given length (spec §4.8, derived via the original's
// approach of reusing the bounds encoder rather than a separate
// closed-form routine; see SPEC_FULL.md §13).
func GetAlignmentMask(f *Format, length Top) uint64 {
	_, _, mask := computeEBT(f, 0, length)
	return mask
}

// GetRequiredAlignment returns the smallest power-of-two alignment a base
// address must have for a region of the given length to be precisely
// representable.
func GetRequiredAlignment(f *Format, length Top) uint64 {
	mask := GetAlignmentMask(f, length)
	return ^mask + 1
}

// GetRepresentableLength rounds length up to the nearest value for which
// bounds [0, length) can be encoded exactly.
func GetRepresentableLength(f *Format, length Top) Top {
	ebt, _, _ := computeEBT(f, 0, length)
	bb := extractBoundsBits(f, ebt)
	bt := computeBaseTop(f, bb, 0)
	return bt.top
}
