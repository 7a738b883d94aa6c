package chericap

// PermVariant selects which permission codec a Format uses for its AP
// subfield (see perms.go).
type PermVariant uint8

const (
	// PermNone means permission compression is a no-op: the format has
	// no compact AP field at all (used by the narrowest 64-bit layouts).
	PermNone PermVariant = iota
	// PermIdent stores the architectural permission bits verbatim, only
	// stripping EL/SL when the format has no level bits.
	PermIdent
	// PermQuadrant packs permissions into the four-quadrant compact
	// encoding described in the permission codec component.
	PermQuadrant
)

func (v PermVariant) String() string {
	switch v {
	case PermNone:
		return "none"
	case PermIdent:
		return "ident"
	case PermQuadrant:
		return "quadrant"
	default:
		return "unknown"
	}
}

// Format is the external parameter block a caller supplies to select one
// capability encoding (CHERI RISC-V, CHERI v9, or Morello, at a given
// address width). It is a plain value: constructing one never performs
// I/O or touches global state, and the same value can be shared across
// goroutines without synchronization since every field is read-only once
// built.
type Format struct {
	Name string

	AddrWidth     uint8 // W: 32 or 64
	MantissaWidth uint8 // MW: width of the bottom mantissa field B

	// MaxExponent is the largest exponent compute_ebt will ever pick for
	// a non-degenerate request; derived as AddrWidth-MantissaWidth+2.
	MaxExponent uint8

	IsMorello bool
	// MaxEncodableExponent equals MaxExponent except on Morello, where it
	// is the largest raw encoded exponent value the EBT's exponent
	// fragments can hold, a magic sentinel meaning "bounds are the whole
	// address space" (see computeBaseTop).
	MaxEncodableExponent uint8
	// CursorFlagBits is the count of high cursor bits Morello reserves
	// for pointer-provenance flags; zero for every other format.
	CursorFlagBits uint8

	UsesEF bool // RISC-V: EF bit + exponent stored inverted (MaxExponent-E)
	UsesL8 bool // format uses the extra L8 mantissa precision bit

	ExpHighWidth uint8
	ExpLowWidth  uint8

	PermVariant PermVariant
	// LevelBits is the fixed number of capability-level bits this format
	// supports: 0 (disabled) or 1. Never varies per capability.
	LevelBits uint8

	UsesOType   bool
	UsesCT      bool
	UsesCL      bool
	UsesFlags   bool
	UsesSDP     bool
	UsesM       bool
	UsesHWPerms bool
	UsesUPerms  bool

	// PESBT subfield layout, computed by newFormat.
	IEBit    field
	L8Bit    field // zero-width when !UsesL8
	Bottom   field // MW bits
	Top      field // MW-2 bits
	EBT      field // union of IEBit, L8Bit, Bottom, Top
	OType    field
	CT       field
	CL       field
	Flags    field
	Reserved field
	SDP      field
	M        field
	AP       field
	HWPerms  field
	UPerms   field

	NullPESBT   uint64
	NullXORMask uint64

	OTypeUnsealed         uint64
	MinReservedOType      uint64
	MaxReservedOType      uint64
	MaxRepresentableOType uint64

	PermsAll  uint64
	UPermsAll uint64
}

// fieldWidths names the non-EBT subfields in the order newFormat lays
// them out, LSB first (right after the EBT region).
type fieldWidths struct {
	OType, CT, CL, Flags, Reserved, SDP, M, AP, HWPerms, UPerms uint8
}

// newFormat lays out one PESBT word from a set of widths and returns a
// Format with every offset computed, rather than hand-maintaining offsets
// per format (the error-prone part of the original's per-format macro
// expansion). Panics if the supplied widths don't exactly tile AddrWidth
// bits; this only happens for a programming mistake in this file's
// format table, never from caller input.
func newFormat(name string, addrWidth, mantissaWidth uint8, usesL8 bool, expHigh, expLow uint8, w fieldWidths) *Format {
	f := &Format{
		Name:          name,
		AddrWidth:     addrWidth,
		MantissaWidth: mantissaWidth,
		MaxExponent:   addrWidth - mantissaWidth + 2,
		UsesL8:        usesL8,
		ExpHighWidth:  expHigh,
		ExpLowWidth:   expLow,
		UsesOType:     w.OType > 0,
		UsesCT:        w.CT > 0,
		UsesCL:        w.CL > 0,
		UsesFlags:     w.Flags > 0,
		UsesSDP:       w.SDP > 0,
		UsesM:         w.M > 0,
		UsesHWPerms:   w.HWPerms > 0,
		UsesUPerms:    w.UPerms > 0,
	}
	f.MaxEncodableExponent = f.MaxExponent

	off := uint8(0)
	next := func(width uint8) field {
		fl := field{offset: off, width: width}
		off += width
		return fl
	}

	f.IEBit = next(1)
	l8Width := uint8(0)
	if usesL8 {
		l8Width = 1
	}
	f.L8Bit = next(l8Width)
	f.Bottom = next(mantissaWidth)
	f.Top = next(mantissaWidth - 2)
	f.EBT = field{offset: f.IEBit.offset, width: off - f.IEBit.offset}

	f.OType = next(w.OType)
	f.CT = next(w.CT)
	f.CL = next(w.CL)
	f.Flags = next(w.Flags)
	f.Reserved = next(w.Reserved)
	f.SDP = next(w.SDP)
	f.M = next(w.M)
	f.AP = next(w.AP)
	f.HWPerms = next(w.HWPerms)
	f.UPerms = next(w.UPerms)

	if off != addrWidth {
		panic("chericap: format " + name + " subfields do not tile AddrWidth bits")
	}

	f.OTypeUnsealed = f.OType.mask()
	f.MaxRepresentableOType = f.OType.mask()
	f.MaxReservedOType = f.MaxRepresentableOType
	f.MinReservedOType = f.MaxRepresentableOType - 3

	f.PermsAll = permAll
	f.UPermsAll = f.UPerms.mask()

	f.NullPESBT = 0
	f.NullXORMask = 0

	return f
}

// Validate reports whether f is an internally consistent format
// descriptor: field widths tiling AddrWidth exactly (checked at
// construction by newFormat, which panics rather than returning a
// Format at all), a supported address width, a mantissa width that
// leaves a usable exponent range, valid level bits, and a known
// permission variant. Callers building their own Format values (rather
// than using the five supplied instances) should call Validate before
// using the format for compression or decompression.
func (f *Format) Validate() error {
	if f.AddrWidth != 32 && f.AddrWidth != 64 {
		return ErrBadAddrWidth
	}
	if f.MantissaWidth < 3 || f.MantissaWidth+2 > f.AddrWidth {
		return ErrBadMantissaWidth
	}
	if f.LevelBits > 1 {
		return ErrBadLevelBits
	}
	switch f.PermVariant {
	case PermNone, PermIdent, PermQuadrant:
	default:
		return ErrBadPermVariant
	}
	total := f.EBT.width + f.OType.width + f.CT.width + f.CL.width +
		f.Flags.width + f.Reserved.width + f.SDP.width + f.M.width +
		f.AP.width + f.HWPerms.width + f.UPerms.width
	if total != f.AddrWidth {
		return ErrFieldOverlap
	}
	return nil
}

// Permission bit values, normative across every format (spec §6.3).
const (
	PermC   uint64 = 1 << 0 // capability load/store permitted through this capability
	PermW   uint64 = 1 << 1 // write permitted
	PermR   uint64 = 1 << 2 // read permitted
	PermX   uint64 = 1 << 3 // execute permitted
	PermASR uint64 = 1 << 4 // access system registers
	PermLM  uint64 = 1 << 5 // load mutable (load a capability that keeps its mutability)
	PermEL  uint64 = 1 << 6 // exception level / elevated privilege capability
	PermSL  uint64 = 1 << 7 // store local capability

	permAll = PermC | PermW | PermR | PermX | PermASR | PermLM | PermEL | PermSL
)

// The five concrete formats this package ships. Field widths and offsets
// are derived, not transcribed from a hardware specification header (the
// retrieval pack excludes those as pure constant tables); see
// SPEC_FULL.md §14.2 for the derivation and DESIGN.md for the ledger.
var (
	// RISCV32 is the CHERI RISC-V 32-bit-address compressed capability
	// format (64-bit total capability: one 32-bit cursor, one 32-bit
	// PESBT word).
	RISCV32 = newFormat("riscv32", 32, 8, true, 2, 2, fieldWidths{
		OType: 4, M: 1, HWPerms: 8, Reserved: 3,
	})

	// RISCV64 is the CHERI RISC-V 64-bit-address compressed capability
	// format (128-bit total capability). Matches the worked example in
	// the testable-properties section: MantissaWidth=14, MaxExponent=52.
	RISCV64 = newFormat("riscv64", 64, 14, false, 3, 3, fieldWidths{
		OType: 18, Flags: 1, M: 1, HWPerms: 8, UPerms: 4, Reserved: 5,
	})

	// CheriV9_64 is a CHERI ISAv9-style 32-bit-address format using
	// internal-exponent encoding and quadrant-compressed permissions.
	CheriV9_64 = newFormat("cheriv9-64", 32, 8, true, 2, 2, fieldWidths{
		OType: 4, CT: 1, AP: 5, Reserved: 6,
	})

	// CheriV9_128 is a CHERI ISAv9-style 64-bit-address format.
	CheriV9_128 = newFormat("cheriv9-128", 64, 14, false, 3, 3, fieldWidths{
		OType: 18, CT: 1, CL: 1, Flags: 1, SDP: 1, AP: 5, UPerms: 4, Reserved: 6,
	})

	// Morello128 is the Arm Morello 64-bit-address format: it reserves
	// two high cursor bits as pointer-provenance flags and supports a
	// magic maximum exponent meaning "bounds cover the whole address
	// space" (see computeBaseTop).
	Morello128 = newFormat("morello128", 64, 14, false, 3, 3, fieldWidths{
		OType: 15, CT: 1, CL: 1, Flags: 8, SDP: 1, AP: 5, UPerms: 4, Reserved: 2,
	})
)

func init() {
	RISCV32.UsesEF = true
	RISCV32.PermVariant = PermIdent
	RISCV32.LevelBits = 0

	RISCV64.UsesEF = true
	RISCV64.PermVariant = PermIdent
	RISCV64.LevelBits = 0

	CheriV9_64.UsesEF = false
	CheriV9_64.PermVariant = PermQuadrant
	CheriV9_64.LevelBits = 1

	CheriV9_128.UsesEF = false
	CheriV9_128.PermVariant = PermQuadrant
	CheriV9_128.LevelBits = 1

	Morello128.UsesEF = false
	Morello128.PermVariant = PermQuadrant
	Morello128.LevelBits = 1
	Morello128.IsMorello = true
	Morello128.CursorFlagBits = 2
	// The exponent fragments (ExpHighWidth+ExpLowWidth, no L8 on this
	// format) are 6 bits wide, so the largest raw encoded value is 63;
	// that top value is reserved as the "whole address space" sentinel,
	// above the largest normal exponent (52).
	Morello128.MaxEncodableExponent = 63
}
