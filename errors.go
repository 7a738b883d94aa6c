package chericap

import "errors"

// Errors returned by Format.Validate. The compression/decompression
// algorithms themselves have no error channel (see doc.go): a malformed
// capability is reported as a field on the returned Capability, never an
// error. These sentinels exist only for the one class of failure the
// core algorithm cannot express as capability state: a caller-supplied
// Format that is internally inconsistent.
var (
	// ErrBadAddrWidth is returned when a Format's AddrWidth is not 32 or 64.
	ErrBadAddrWidth = errors.New("chericap: address width must be 32 or 64")

	// ErrBadMantissaWidth is returned when MantissaWidth leaves no usable
	// exponent range for the given address width.
	ErrBadMantissaWidth = errors.New("chericap: mantissa width incompatible with address width")

	// ErrFieldOverlap is returned when a Format's PESBT subfields don't
	// tile the word exactly (widths either overlap or leave a gap).
	ErrFieldOverlap = errors.New("chericap: PESBT subfields do not tile the word")

	// ErrBadLevelBits is returned for an lvbits value outside {0, 1}; the
	// codec does not support more than one capability-level bit.
	ErrBadLevelBits = errors.New("chericap: lvbits must be 0 or 1")

	// ErrBadPermVariant is returned for a PermVariant outside the known set.
	ErrBadPermVariant = errors.New("chericap: unknown permission codec variant")
)
