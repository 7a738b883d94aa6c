package chericap

import "testing"

func TestDecompressCompressRoundtrip(t *testing.T) {
	for _, f := range []*Format{RISCV32, RISCV64, CheriV9_64, CheriV9_128, Morello128} {
		cap := MakeMaxPermsCap(f, 0x1000, 0x1800, Top{Bits: 0x2000})
		pesbt := CompressRaw(f, cap)
		round := DecompressRaw(f, pesbt, cap.Cursor, cap.Tag)
		if !RawEqual(cap, round) {
			t.Fatalf("%s: roundtrip mismatch: %+v vs %+v", f.Name, cap, round)
		}
	}
}

func TestMemRoundtripAppliesXORMask(t *testing.T) {
	f := Morello128
	cap := MakeMaxPermsCap(f, 0, 0x10, MaxTop(f))
	mem := CompressMem(f, cap)
	if mem^f.NullXORMask != CompressRaw(f, cap) {
		t.Fatalf("CompressMem should XOR CompressRaw with NullXORMask")
	}
	round := DecompressMem(f, mem, cap.Cursor, cap.Tag)
	if !RawEqual(cap, round) {
		t.Fatalf("mem roundtrip mismatch: %+v vs %+v", cap, round)
	}
}

func TestMakeMaxPermsCapHasFullAuthority(t *testing.T) {
	f := RISCV64
	cap := MakeMaxPermsCap(f, 0, 0, MaxTop(f))
	if !cap.Tag {
		t.Fatalf("a freshly built max-perms capability must be tagged")
	}
	if cap.Base != 0 || cap.Top.Compare(MaxTop(f)) != 0 {
		t.Fatalf("max-perms capability should span the whole address space, got [%#x, %+v)", cap.Base, cap.Top)
	}
	if cap.ArchPerm&permAll&^(PermEL|PermSL) == 0 {
		t.Fatalf("max-perms capability should carry permissions")
	}
}

func TestMakeNullDerivedCapHasNoPermissions(t *testing.T) {
	f := CheriV9_128
	cap := MakeNullDerivedCap(f, 0x4000)
	if !cap.Tag {
		t.Fatalf("a null-derived capability is still tagged")
	}
	if cap.ArchPerm != 0 {
		t.Fatalf("null-derived capability should carry no permissions, got %#x", cap.ArchPerm)
	}
	if cap.Cursor != 0x4000 {
		t.Fatalf("cursor = %#x, want 0x4000", cap.Cursor)
	}
}

func TestSetBoundsNarrowsAndMovesCursor(t *testing.T) {
	f := RISCV64
	cap := MakeMaxPermsCap(f, 0, 0x2000, MaxTop(f))
	narrowed := SetBounds(f, cap, Top{Bits: 0x1000})
	if !narrowed.Tag {
		t.Fatalf("narrowing bounds within authority must keep the tag set")
	}
	if narrowed.Base != 0x2000 {
		t.Fatalf("base = %#x, want 0x2000", narrowed.Base)
	}
	if narrowed.Top.Compare(Top{Bits: 0x3000}) != 0 {
		t.Fatalf("top = %+v, want 0x3000", narrowed.Top)
	}
}

func TestSetBoundsEnlargingClearsTag(t *testing.T) {
	f := RISCV64
	cap := MakeMaxPermsCap(f, 0x1000, 0x1000, Top{Bits: 0x1100})
	enlarged := SetBounds(f, cap, Top{Bits: 0x10000})
	if enlarged.Tag {
		t.Fatalf("requesting bounds beyond the source capability's authority must clear the tag")
	}
}

func TestSetBoundsCheckedPanicsOnEnlargement(t *testing.T) {
	f := RISCV64
	cap := MakeMaxPermsCap(f, 0x1000, 0x1000, Top{Bits: 0x1100})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for a non-monotonic SetBoundsChecked call")
		}
	}()
	SetBoundsChecked(f, cap, Top{Bits: 0x10000})
}

func TestSetAddressWithinBoundsKeepsTag(t *testing.T) {
	f := RISCV64
	cap := MakeMaxPermsCap(f, 0x1000, 0x1000, Top{Bits: 0x2000})
	moved := SetAddress(f, cap, 0x1500)
	if !moved.Tag {
		t.Fatalf("moving the cursor within bounds must keep the tag set")
	}
	if moved.Cursor != 0x1500 {
		t.Fatalf("cursor = %#x, want 0x1500", moved.Cursor)
	}
	if moved.Base != cap.Base || moved.Top.Compare(cap.Top) != 0 {
		t.Fatalf("SetAddress within bounds must not change Base/Top")
	}
}

func TestSetAddressFarOutsideClearsTag(t *testing.T) {
	f := RISCV64
	cap := MakeMaxPermsCap(f, 0x1000, 0x1000, Top{Bits: 0x1100})
	moved := SetAddress(f, cap, 0x1000+(1<<40))
	if moved.Tag {
		t.Fatalf("moving far outside the representable region must clear the tag")
	}
}

func TestExactlyEqualVsRawEqual(t *testing.T) {
	f := RISCV64
	a := MakeMaxPermsCap(f, 0, 0x10, MaxTop(f))
	b := a
	b.Extra = 7
	if !ExactlyEqual(a, b) {
		t.Fatalf("Extra must not affect ExactlyEqual")
	}
	if !RawEqual(a, b) {
		t.Fatalf("Extra must not affect RawEqual")
	}
	c := SetAddress(f, a, 0x20)
	if ExactlyEqual(a, c) {
		t.Fatalf("capabilities with different cursors must not be ExactlyEqual")
	}
}

func TestIsRepresentableCapExact(t *testing.T) {
	f := RISCV64
	cap := MakeMaxPermsCap(f, 0x1000, 0x1000, Top{Bits: 0x2000})
	narrowed := SetBounds(f, cap, Top{Bits: 0x100})
	if !IsRepresentableCapExact(f, narrowed) {
		t.Fatalf("a capability produced by SetBounds must round-trip exactly")
	}
}

func TestCompressRawPanicsOnMutatedBounds(t *testing.T) {
	f := RISCV64
	cap := MakeMaxPermsCap(f, 0x1000, 0x1000, Top{Bits: 0x2000})
	cap.Base = cap.Base + 1
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic when Base/Top drift from PESBT")
		}
	}()
	CompressRaw(f, cap)
}

func TestWireRoundtrip(t *testing.T) {
	f := RISCV64
	cap := MakeMaxPermsCap(f, 0x1000, 0x1800, Top{Bits: 0x2000})
	buf := make([]byte, WireSize(f))
	WriteCapability(f, cap, buf)
	round := ReadCapability(f, buf, cap.Tag)
	if !RawEqual(cap, round) {
		t.Fatalf("wire roundtrip mismatch: %+v vs %+v", cap, round)
	}
}

// Scenario from the bounds-encoding worked example: a RISC-V 64-bit
// capability with bounds [0x1000, 0x3000) narrowed by SetBounds to
// [0x2000, 0x3000) from a cursor positioned at 0x2000.
func TestSetBoundsWorkedExample(t *testing.T) {
	f := RISCV64
	cap := MakeMaxPermsCap(f, 0x1000, 0x2000, Top{Bits: 0x3000})
	narrowed := SetBounds(f, cap, Top{Bits: 0x1000})
	if narrowed.Base != 0x2000 {
		t.Fatalf("base = %#x, want 0x2000", narrowed.Base)
	}
	if narrowed.Top.Compare(Top{Bits: 0x3000}) != 0 {
		t.Fatalf("top = %+v, want 0x3000", narrowed.Top)
	}
	if !narrowed.Tag {
		t.Fatalf("narrowing within the source's own bounds must not clear the tag")
	}
}
