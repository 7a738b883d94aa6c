package chericap

// quadrantEntry is one row of the quadrant-compressed permission table
// (spec §4.7): a (quadrant, sub-encoding) pair maps to an architectural
// permission set, an optional mutability bit, and whether the row is
// only meaningful on formats that support a capability-level bit.
type quadrantEntry struct {
	quadrant uint8
	sub      uint8
	perms    uint64
	m        bool
	needsLV  bool
}

var quadrantTable = [...]quadrantEntry{
	// Q0: data, no X/C/ASR.
	{0, 0b000, 0, false, false},
	{0, 0b001, PermR, false, false},
	{0, 0b100, PermW, false, false},
	{0, 0b101, PermR | PermW, false, false},

	// Q1: executable.
	{1, 0b000, PermR | PermW | PermC | PermLM | PermX | PermASR | PermEL | PermSL, false, false},
	{1, 0b001, PermR | PermW | PermC | PermLM | PermX | PermASR | PermEL | PermSL, true, false},
	{1, 0b010, PermR | PermC | PermLM | PermX | PermEL | PermSL, false, false},
	{1, 0b100, PermR | PermW | PermC | PermLM | PermX | PermEL | PermSL, false, false},
	{1, 0b110, PermR | PermW | PermX, false, false},

	// Q2: capability, no EL.
	{2, 0b011, PermR | PermC, false, false},
	{2, 0b110, PermR | PermW | PermC | PermLM | PermSL, false, true},
	{2, 0b111, PermR | PermW | PermC | PermLM, false, true},

	// Q3: capability with EL.
	{3, 0b011, PermR | PermC | PermLM | PermEL, false, false},
	{3, 0b110, PermR | PermW | PermC | PermLM | PermEL | PermSL, false, true},
	{3, 0b111, PermR | PermW | PermC | PermLM | PermEL, false, false},
}

// apInvalid is the reserved sentinel AP value used when a permission set
// has no encodable quadrant row: Q0's 010 sub-encoding is never used by
// the table above.
const apInvalid = uint64(0b00_010)

// CompressPerms packs an architectural permission set into the Format's
// AP/HWPerms representation, returning the bits to splice into the
// capability's permission field. A permission set with no matching row
// (or an M bit set outside Q1) yields the reserved sentinel for the
// quadrant variant; ident passes the set through (EL/SL dropped when
// lvbits is 0), and none always returns 0.
func CompressPerms(f *Format, archPerm uint64, m bool, lvbits uint8) uint64 {
	switch f.PermVariant {
	case PermNone:
		return 0
	case PermIdent:
		perm := archPerm & permAll
		if lvbits == 0 {
			perm &^= PermEL | PermSL
		}
		return perm
	case PermQuadrant:
		for _, e := range quadrantTable {
			if e.perms != archPerm || e.m != m {
				continue
			}
			if e.needsLV && lvbits == 0 {
				continue
			}
			return uint64(e.quadrant)<<3 | uint64(e.sub)
		}
		return apInvalid
	default:
		return apInvalid
	}
}

// DecompressPerms unpacks a stored AP/HWPerms value back into an
// architectural permission set, the mutability bit, and reports whether
// the encoding was a recognised row. EL/SL are zeroed when the format has
// no capability-level bit.
func DecompressPerms(f *Format, raw uint64, lvbits uint8) (archPerm uint64, m bool, ok bool) {
	switch f.PermVariant {
	case PermNone:
		return 0, false, true
	case PermIdent:
		perm := raw & permAll
		if lvbits == 0 {
			perm &^= PermEL | PermSL
		}
		return perm, false, true
	case PermQuadrant:
		quadrant := uint8((raw >> 3) & 3)
		sub := uint8(raw & 7)
		for _, e := range quadrantTable {
			if e.quadrant != quadrant || e.sub != sub {
				continue
			}
			if e.needsLV && lvbits == 0 {
				continue
			}
			perm := e.perms
			if lvbits == 0 {
				perm &^= PermEL | PermSL
			}
			return perm, e.m, true
		}
		return 0, false, false
	default:
		return 0, false, false
	}
}
