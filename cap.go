package chericap

import "encoding/binary"

// Capability is the decompressed form of a CHERI-style hardware
// capability: an address bound to bounds, permissions, and sealing state.
// It is a plain value type — copying a Capability is always safe, and no
// method on it performs I/O or touches shared state.
type Capability struct {
	Cursor      uint64 // current pointer value
	PESBT       uint64 // packed perms/exponent/seal/bounds/type word
	Base        uint64 // decoded lower bound, inclusive
	Top         Top    // decoded upper bound, exclusive
	Tag         bool   // validity/authority marker
	BoundsValid bool   // false iff the extracted bit pattern was malformed
	Exp         int    // decoded exponent, -1 for a malformed RISC-V encoding
	ArchPerm    uint64 // decoded architectural permission mask
	MBit        bool   // decoded mutability bit
	LVBits      uint8  // number of capability-level bits this format supports
	Extra       byte   // caller-owned scratch byte, ignored by the codec
}

// isSealed reports whether pesbt's otype field differs from the format's
// unsealed sentinel. Formats with no otype field are never sealed.
func isSealed(f *Format, pesbt uint64) bool {
	if !f.UsesOType {
		return false
	}
	return f.OType.extract(pesbt) != f.OTypeUnsealed
}

func decomposePerms(f *Format, pesbt uint64) (archPerm uint64, m bool) {
	switch f.PermVariant {
	case PermQuadrant:
		raw := f.AP.extract(pesbt)
		archPerm, m, _ = DecompressPerms(f, raw, f.LevelBits)
	case PermIdent:
		raw := f.HWPerms.extract(pesbt)
		archPerm, _, _ = DecompressPerms(f, raw, f.LevelBits)
		if f.UsesM {
			m = f.M.extract(pesbt) == 1
		}
	}
	return archPerm, m
}

// decompressRawUnchecked is the bare decode primitive: it never panics,
// even on a bit pattern that is malformed or carries a sealed/unsealed
// mismatch, because hardware can legitimately produce such patterns (see
// SPEC_FULL.md §13's note on unsafe_decompress_raw). It must never be
// exposed directly; DecompressRaw, in this file, is its only caller,
// and the representability checks in representable.go reach the same
// extraction/reconstruction primitives without going through a
// Capability at all.
func decompressRawUnchecked(f *Format, pesbt uint64, cursor uint64, tag bool) Capability {
	bb := extractBoundsBits(f, pesbt)
	bt := computeBaseTop(f, bb, cursor)
	archPerm, m := decomposePerms(f, pesbt)

	return Capability{
		Cursor:      cursor,
		PESBT:       pesbt,
		Base:        bt.base,
		Top:         bt.top,
		Tag:         tag,
		BoundsValid: bt.valid,
		Exp:         bb.e,
		ArchPerm:    archPerm,
		MBit:        m,
		LVBits:      f.LevelBits,
	}
}

// DecompressRaw decodes a (pesbt, cursor, tag) triple into a Capability.
// It decodes consistently even when the bit pattern is malformed (tag may
// still be true on hardware-generated garbage); callers that need to
// reject malformed input should check the returned BoundsValid.
func DecompressRaw(f *Format, pesbt uint64, cursor uint64, tag bool) Capability {
	return decompressRawUnchecked(f, pesbt, cursor, tag)
}

// DecompressMem decodes a capability from its in-memory wire
// representation, applying the format's NULL_XOR_MASK first so that a
// freshly zeroed memory region decodes to the canonical null capability.
func DecompressMem(f *Format, pesbtRaw uint64, cursor uint64, tag bool) Capability {
	return DecompressRaw(f, pesbtRaw^f.NullXORMask, cursor, tag)
}

// CompressRaw returns cap's packed PESBT word. It panics if cap's cached
// Base/Top/BoundsValid no longer match what PESBT and Cursor decode to —
// a programmer error, since nothing in this package's exported API lets
// bounds drift from PESBT without re-running the encoder (see SetBounds).
func CompressRaw(f *Format, cap Capability) uint64 {
	bb := extractBoundsBits(f, cap.PESBT)
	bt := computeBaseTop(f, bb, cap.Cursor)
	if bt.base != cap.Base || bt.top.Compare(cap.Top) != 0 || bt.valid != cap.BoundsValid {
		panic("chericap: capability bounds were mutated without updating PESBT")
	}
	return cap.PESBT
}

// CompressMem returns cap's in-memory wire representation (CompressRaw's
// result XORed with the format's NULL_XOR_MASK).
func CompressMem(f *Format, cap Capability) uint64 {
	return CompressRaw(f, cap) ^ f.NullXORMask
}

// ExactlyEqual reports whether a and b carry the same tag, cursor, and
// PESBT word — the bit-exact equality used when comparing capabilities
// as opaque hardware state.
func ExactlyEqual(a, b Capability) bool {
	return a.Tag == b.Tag && a.Cursor == b.Cursor && a.PESBT == b.PESBT
}

// RawEqual reports whether every decoded field of a and b is equal,
// excluding the caller-owned Extra byte.
func RawEqual(a, b Capability) bool {
	return a.Cursor == b.Cursor &&
		a.PESBT == b.PESBT &&
		a.Base == b.Base &&
		a.Top.Compare(b.Top) == 0 &&
		a.Tag == b.Tag &&
		a.BoundsValid == b.BoundsValid &&
		a.Exp == b.Exp &&
		a.ArchPerm == b.ArchPerm &&
		a.MBit == b.MBit &&
		a.LVBits == b.LVBits
}

// IsRepresentableCapExact round-trips cap through CompressRaw and
// DecompressRaw and reports whether the decoded base and top survive
// unchanged.
func IsRepresentableCapExact(f *Format, cap Capability) bool {
	pesbt := CompressRaw(f, cap)
	round := DecompressRaw(f, pesbt, cap.Cursor, cap.Tag)
	return round.Base == cap.Base && round.Top.Compare(cap.Top) == 0
}

// MakeMaxPermsCap builds a tagged, unsealed capability with every
// permission bit set and bounds covering [base, top), with the cursor
// positioned at cursor.
func MakeMaxPermsCap(f *Format, base uint64, cursor uint64, top Top) Capability {
	ebt, _ := ComputeEBT(f, base, top)
	word := ebt
	perm := CompressPerms(f, f.PermsAll, false, f.LevelBits)
	switch f.PermVariant {
	case PermQuadrant:
		word |= f.AP.encode(perm)
	case PermIdent:
		word |= f.HWPerms.encode(perm)
	}
	if f.UsesOType {
		word |= f.OType.encode(f.OTypeUnsealed)
	}
	return DecompressRaw(f, word, cursor, true)
}

// MakeNullDerivedCap builds a tagged capability with zero permissions and
// bounds covering the whole address space, positioned at addr. Unlike
// DecompressMem(0, addr, false), the result is tagged — it carries no
// authority but is not the untagged null capability.
func MakeNullDerivedCap(f *Format, addr uint64) Capability {
	ebt, _ := ComputeEBT(f, 0, MaxTop(f))
	word := ebt
	if f.UsesOType {
		word |= f.OType.encode(f.OTypeUnsealed)
	}
	return DecompressRaw(f, word, addr, true)
}

// SetBounds narrows cap to [cursor, cursor+reqLen), rounding outward to
// the nearest representable interval. The tag is cleared (but bounds are
// still updated to the rounded interval) if cap was sealed, if the
// rounded interval would enlarge the capability's authority, or — on
// Morello — if narrowing from a cursor-independent region to a
// cursor-dependent one with provenance flag bits still set on the
// cursor.
func SetBounds(f *Format, cap Capability, reqLen Top) Capability {
	out := cap
	if isSealed(f, cap.PESBT) {
		out.Tag = false
	}

	var fromLarge bool
	if f.IsMorello {
		if !cap.BoundsValid {
			out.Tag = false
		}
		oldBB := extractBoundsBits(f, cap.PESBT)
		fromLarge = oldBB.e >= int(f.MaxExponent)-2
	}

	reqBase := f.boundsAddress(cap.Cursor)
	reqTopWide := wide128FromU64(reqBase).add(topToWide(reqLen))
	reqTop := Top{Bits: reqTopWide.low64(f.AddrWidth), Ext: reqTopWide.bit(uint(f.AddrWidth)) == 1}

	if reqBase < cap.Base || reqTop.Compare(cap.Top) > 0 {
		out.Tag = false
	}

	newEBT, _ := ComputeEBT(f, reqBase, reqTop)
	ebtMask := f.EBT.mask() << f.EBT.offset
	newPESBT := (cap.PESBT &^ ebtMask) | newEBT

	bb := extractBoundsBits(f, newPESBT)
	bt := computeBaseTop(f, bb, cap.Cursor)

	out.PESBT = newPESBT
	out.Base = bt.base
	out.Top = bt.top
	out.BoundsValid = bt.valid
	out.Exp = bb.e

	if f.IsMorello {
		isSmallNow := bb.e < int(f.MaxExponent)-2
		if fromLarge && isSmallNow {
			flagBits := cap.Cursor >> (f.AddrWidth - f.CursorFlagBits)
			if flagBits != 0 {
				out.Tag = false
			}
		}
	}

	return out
}

// SetBoundsChecked behaves like SetBounds but panics instead of
// detagging when the requested interval would enlarge cap's authority.
// Intended for callers who have already proven the request is
// monotonically narrowing and want a hard failure on a logic bug rather
// than a silently detagged capability.
func SetBoundsChecked(f *Format, cap Capability, reqLen Top) Capability {
	reqBase := f.boundsAddress(cap.Cursor)
	reqTopWide := wide128FromU64(reqBase).add(topToWide(reqLen))
	reqTop := Top{Bits: reqTopWide.low64(f.AddrWidth), Ext: reqTopWide.bit(uint(f.AddrWidth)) == 1}
	if reqBase < cap.Base || reqTop.Compare(cap.Top) > 0 {
		panic("chericap: SetBoundsChecked called with non-monotonic bounds")
	}
	return SetBounds(f, cap, reqLen)
}

// SetAddress moves cap's cursor to newAddr. If newAddr falls outside the
// capability's representable region, the tag is cleared and the
// decoded bounds are refreshed against the new cursor; otherwise only
// the cursor changes.
func SetAddress(f *Format, cap Capability, newAddr uint64) Capability {
	out := cap
	if isSealed(f, cap.PESBT) && cap.Tag {
		out.Tag = false
	}

	var representable bool
	if f.UsesEF {
		representable = PreciseIsRepresentableNewAddr(f, cap, newAddr)
	} else {
		representable = FastIsRepresentableNewAddr(f, cap, newAddr)
	}

	out.Cursor = newAddr
	if !representable {
		out.Tag = false
		bb := extractBoundsBits(f, cap.PESBT)
		bt := computeBaseTop(f, bb, newAddr)
		out.Base = bt.base
		out.Top = bt.top
		out.BoundsValid = bt.valid
	}
	return out
}

// wireWord reads or writes one address-width word from a byte slice in
// native byte order (binary.NativeEndian).
func wireWord(f *Format, b []byte) uint64 {
	if f.AddrWidth == 32 {
		return uint64(binary.NativeEndian.Uint32(b))
	}
	return binary.NativeEndian.Uint64(b)
}

func putWireWord(f *Format, b []byte, v uint64) {
	if f.AddrWidth == 32 {
		binary.NativeEndian.PutUint32(b, uint32(v))
		return
	}
	binary.NativeEndian.PutUint64(b, v)
}

// WireSize returns the number of bytes the two address-width words
// (cursor + PESBT) occupy in memory for format f. The tag bit is held
// out-of-band and is not part of this size.
func WireSize(f *Format) int {
	return 2 * int(f.AddrWidth/8)
}

// ReadCapability decodes a capability from its wire representation: two
// consecutive address-width words (cursor, then PESBT) in native byte
// order, plus an out-of-band tag bit.
func ReadCapability(f *Format, b []byte, tag bool) Capability {
	wordSize := int(f.AddrWidth / 8)
	cursor := wireWord(f, b[:wordSize])
	pesbtRaw := wireWord(f, b[wordSize:2*wordSize])
	return DecompressMem(f, pesbtRaw, cursor, tag)
}

// WriteCapability serialises cap into its wire representation (see
// ReadCapability), returning the tag bit separately.
func WriteCapability(f *Format, cap Capability, b []byte) (tag bool) {
	wordSize := int(f.AddrWidth / 8)
	putWireWord(f, b[:wordSize], cap.Cursor)
	putWireWord(f, b[wordSize:2*wordSize], CompressMem(f, cap))
	return cap.Tag
}
