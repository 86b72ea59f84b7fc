package bigint

import "testing"

func TestBigInt512MultiplyBeforeDivide(t *testing.T) {
	// The ASERT/WTEMA retargets rely on this not losing precision: a
	// 256-bit value multiplied by a factor that would overflow 256 bits
	// must survive in the 512-bit intermediate before the division.
	big256 := NewBigInt256FromUint64(1).Lsh(255) // 2^255
	factor := NewBigInt512FromUint64(1 << 2)     // *4, would overflow 256 bits

	product := big256.ToBigInt512().Mul(factor)
	result := product.Div(NewBigInt512FromUint64(4)).Trim256()

	// 2^255 * 4 = 2^257 only fits in the 512-bit intermediate; dividing by 4
	// brings it back to 2^255.
	want := NewBigInt256FromUint64(1).Lsh(255)
	if result.Cmp(want) != 0 {
		t.Fatalf("product lost precision: got %v want %v", result.Bytes32(), want.Bytes32())
	}
}

func TestBigInt512NoOverflowForModeratevalues(t *testing.T) {
	a := NewBigInt256FromUint64(0xffffffff).ToBigInt512()
	b := NewBigInt512FromUint64(0xffffffff)
	product := a.Mul(b)
	divided := product.Div(NewBigInt512FromUint64(0xffffffff))
	if divided.Trim256().Cmp(NewBigInt256FromUint64(0xffffffff)) != 0 {
		t.Fatalf("expected exact round trip, got %v", divided.Trim256().Bytes32())
	}
}

func TestBigInt512DivByZero(t *testing.T) {
	a := NewBigInt512FromUint64(10)
	if got := a.Div(BigInt512{}); !got.IsZero() {
		t.Fatalf("expected zero, got non-zero")
	}
}

func TestBigInt512Lsh(t *testing.T) {
	a := NewBigInt512FromUint64(1)
	got := a.Lsh(8)
	want := NewBigInt512FromUint64(256)
	if got.Cmp(want) != 0 {
		t.Fatal("Lsh(8) of 1 should equal 256")
	}
}

func TestBigInt512MulUint64(t *testing.T) {
	a := NewBigInt512FromUint64(7)
	got := a.MulUint64(6)
	if got.Cmp(NewBigInt512FromUint64(42)) != 0 {
		t.Fatal("MulUint64 mismatch")
	}
}

func TestTrim256MasksHighBits(t *testing.T) {
	// A 512-bit value with bits set above 256 must be discarded by Trim256.
	high := NewBigInt512FromUint64(1).Lsh(300)
	low := NewBigInt512FromUint64(42)
	combined := high.Add(low)
	if got := combined.Trim256(); got.Cmp(NewBigInt256FromUint64(42)) != 0 {
		t.Fatalf("Trim256 did not discard high bits: got %v", got.Bytes32())
	}
}

func TestBigInt512WrapsModulo512(t *testing.T) {
	// Shifting a value left past bit 511 must wrap, never panic or silently
	// grow unbounded, matching a true fixed-width type.
	one := NewBigInt512FromUint64(1)
	shifted := one.Lsh(512) // shifts entirely out of range
	if !shifted.IsZero() {
		t.Fatalf("expected wraparound to zero, got non-zero")
	}
}
