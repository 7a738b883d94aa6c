package chericap

import "testing"

// FuzzDecompressCompress feeds arbitrary (pesbt, cursor) pairs through
// DecompressRaw/CompressRaw and checks the invariants that must hold for
// any bit pattern, tagged or not: the codec never panics on untagged
// input, and CompressRaw's consistency check never trips on a value this
// package itself produced.
func FuzzDecompressCompress(f *testing.F) {
	f.Add(uint64(0), uint64(0))
	f.Add(^uint64(0), uint64(0))
	f.Add(uint64(0x1234), uint64(0xdeadbeef))

	f.Fuzz(func(t *testing.T, pesbt, cursor uint64) {
		for _, format := range []*Format{RISCV32, RISCV64, CheriV9_64, CheriV9_128, Morello128} {
			cap := DecompressRaw(format, pesbt, cursor, false)
			_ = CompressRaw(format, cap)

			if cap.BoundsValid {
				if cap.Exp < -1 {
					t.Fatalf("%s: valid bounds with exponent below -1: %d", format.Name, cap.Exp)
				}
			}
		}
	})
}

// FuzzSetBoundsMonotonic checks that SetBounds never enlarges a tagged
// capability's authority: the returned bounds are always within the
// source's bounds whenever the tag survives.
func FuzzSetBoundsMonotonic(f *testing.F) {
	f.Add(uint64(0x1000), uint64(0x2000), uint64(0x100))
	f.Add(uint64(0), uint64(0), uint64(0))

	format := RISCV64
	f.Fuzz(func(t *testing.T, base, cursor uint64, reqLen uint64) {
		if cursor < base {
			cursor = base
		}
		top := Top{Bits: base + 0x10000}
		if top.Bits < base {
			top = MaxTop(format)
		}
		cap := MakeMaxPermsCap(format, base, cursor, top)

		out := SetBounds(format, cap, Top{Bits: reqLen})
		if out.Tag {
			if out.Base < cap.Base {
				t.Fatalf("SetBounds enlarged base while keeping tag: %#x < %#x", out.Base, cap.Base)
			}
			if out.Top.Compare(cap.Top) > 0 {
				t.Fatalf("SetBounds enlarged top while keeping tag: %+v > %+v", out.Top, cap.Top)
			}
		}
	})
}
