// Package chericap implements the CHERI Concentrate capability compression
// scheme: packing an address's bounds, permissions, and seal state into a
// fixed-width word alongside a cursor, and decoding that word back out.
//
// # Overview
//
// A hardware capability is an address (the cursor) plus authority: a lower
// and upper bound it may be used within, a set of permissions, and an
// optional seal marking it as an opaque reference rather than a usable
// pointer. CHERI Concentrate packs that authority into a single
// architecture-width word (PESBT: Permissions, Exponent, Sealed, Bounds,
// Type) by storing the bounds as a floating-point-like (base mantissa, top
// mantissa, exponent) triple instead of two full-width addresses. Decoding
// reconstructs the full bounds from the compressed triple and the cursor's
// high bits.
//
// This package implements the codec only: bit-exact extraction, bounds
// encoding (setbounds), representability checks, and permission packing. It
// does not model a processor, a memory system, or any particular ABI; it is
// a pure, allocation-free library meant to sit underneath an emulator, a
// test harness, or hardware-validation tooling.
//
// # Formats
//
// A [Format] describes one concrete layout: field widths and offsets
// within the PESBT word, the exponent encoding convention, and the
// permission codec in use. Five are provided:
//
//   - [RISCV32], [RISCV64]: CHERI RISC-V, with an inverted (EF) exponent
//     encoding and identity-mapped permission bits.
//   - [CheriV9_64], [CheriV9_128]: CHERI ISAv9-style formats using
//     quadrant-compressed permissions.
//   - [Morello128]: Arm Morello, which additionally reserves high cursor
//     bits for pointer-provenance flags and has a sentinel exponent value
//     meaning "bounds cover the whole address space".
//
// Callers are not limited to these five; any self-consistent [Format] built
// by hand or by a future format constructor works with every function in
// this package, provided [Format.Validate] passes.
//
// # Basic usage
//
//	f := chericap.RISCV64
//	cap := chericap.MakeMaxPermsCap(f, 0, 0x1000, chericap.MaxTop(f))
//	cap = chericap.SetBounds(f, cap, chericap.Top{Bits: 0x100})
//	cap = chericap.SetAddress(f, cap, 0x1050)
//	pesbt := chericap.CompressRaw(f, cap)
//	round := chericap.DecompressRaw(f, pesbt, cap.Cursor, cap.Tag)
//
// # Error handling
//
// Core codec operations never return an error: a malformed or
// out-of-bounds request is expressed as capability state (a cleared tag, or
// BoundsValid=false) rather than an error value, matching how the hardware
// itself reports these conditions. The sentinel errors in this package
// (ErrBadAddrWidth and friends) are returned only by [Format.Validate],
// for catching a mis-built format descriptor before it is ever used to
// compress or decompress a capability.
package chericap
