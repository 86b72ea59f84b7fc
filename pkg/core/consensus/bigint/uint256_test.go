package bigint

import "testing"

func TestSetCompactBasic(t *testing.T) {
	// 0x1d00ffff: Bitcoin's genesis difficulty-1 target, a well-known vector.
	v, negative, overflow := SetCompact(0x1d00ffff)
	if negative || overflow {
		t.Fatalf("unexpected flags: negative=%v overflow=%v", negative, overflow)
	}
	if v.Compact() != 0x1d00ffff {
		t.Fatalf("round-trip mismatch: got %#x", v.Compact())
	}
}

func TestSetCompactSmallExponent(t *testing.T) {
	// size <= 3 shifts the mantissa right instead of left.
	v, negative, overflow := SetCompact(0x01123456)
	if negative || overflow {
		t.Fatalf("unexpected flags: negative=%v overflow=%v", negative, overflow)
	}
	want := NewBigInt256FromUint64(0x12)
	if v.Cmp(want) != 0 {
		t.Fatalf("got %v want %v", v.Bytes32(), want.Bytes32())
	}
}

func TestSetCompactNegativeSignBit(t *testing.T) {
	// 0x04923456: non-zero magnitude 0x123456 with the sign bit set. A word
	// whose magnitude bits are all zero is not flagged (see the zero-mantissa
	// test below).
	_, negative, _ := SetCompact(0x04923456)
	if !negative {
		t.Fatal("expected negative flag set")
	}
}

func TestSetCompactZeroMantissaNeverNegativeOrOverflow(t *testing.T) {
	// A zero mantissa can never be negative or overflowing, regardless of
	// what the sign bit or exponent byte say.
	_, negative, overflow := SetCompact(0xff800000)
	if negative || overflow {
		t.Fatalf("zero-mantissa word incorrectly flagged: negative=%v overflow=%v", negative, overflow)
	}
}

func TestSetCompactOverflow(t *testing.T) {
	_, _, overflow := SetCompact(0x21010000)
	if !overflow {
		t.Fatal("expected overflow flag for size=0x21")
	}
}

func TestCompactRoundTrip(t *testing.T) {
	cases := []uint32{0x1d00ffff, 0x1b0404cb, 0x207fffff, 0x03010000}
	for _, word := range cases {
		v, negative, overflow := SetCompact(word)
		if negative || overflow {
			t.Fatalf("%#x: unexpected flags", word)
		}
		got := v.Compact()
		if got != word {
			t.Errorf("%#x: round-trip got %#x", word, got)
		}
	}
}

func TestCompactNeverSetsSignBit(t *testing.T) {
	// A mantissa whose top bit would collide with the sign bit must be
	// shifted right a byte with the exponent bumped, per get_compact.
	v := NewBigInt256FromUint64(0xff).Lsh(248) // top byte 0xff, rest zero
	word := v.Compact()
	if word&0x00800000 != 0 {
		t.Fatalf("sign bit set in encoding: %#x", word)
	}
	decoded, negative, overflow := SetCompact(word)
	if negative || overflow {
		t.Fatalf("unexpected flags decoding %#x", word)
	}
	if decoded.Cmp(v) != 0 {
		t.Fatalf("decoded value does not match: got %v want %v", decoded.Bytes32(), v.Bytes32())
	}
}

func TestCompactRoundedHalfToEven(t *testing.T) {
	// A value whose dropped bytes sit exactly at the midpoint (0x80 followed
	// by zeros) and whose kept mantissa is even should round down (stay even).
	v := NewBigInt256FromUint64(0x10008080).Lsh(8 * 4) // kept mantissa 0x100080, dropped 0x8000000000
	rounded := v.CompactRounded()
	truncated := v.Compact()
	if rounded != truncated {
		t.Fatalf("midpoint with even mantissa should round down: rounded %#x, truncated %#x", rounded, truncated)
	}
	// Rounding only ever moves the encoded value up or leaves it put,
	// never down past truncation.
	rv, _, _ := SetCompact(rounded)
	tv, _, _ := SetCompact(truncated)
	if rv.Cmp(tv) < 0 {
		t.Fatalf("rounded value %v is less than truncated value %v", rv.Bytes32(), tv.Bytes32())
	}
}

func TestBigInt256FromBytesAndBack(t *testing.T) {
	b := make([]byte, 32)
	b[31] = 0xab
	b[30] = 0xcd
	v := BigInt256FromBytes(b)
	out := v.Bytes32()
	if out != [32]byte(v.Bytes32()) {
		t.Fatal("Bytes32 not stable")
	}
	if out[30] != 0xcd || out[31] != 0xab {
		t.Fatalf("unexpected bytes: %x", out)
	}
}

func TestArithmetic(t *testing.T) {
	a := NewBigInt256FromUint64(10)
	b := NewBigInt256FromUint64(3)

	if got := a.Add(b); got.Cmp(NewBigInt256FromUint64(13)) != 0 {
		t.Fatalf("Add: got %v", got.Bytes32())
	}
	if got := a.Sub(b); got.Cmp(NewBigInt256FromUint64(7)) != 0 {
		t.Fatalf("Sub: got %v", got.Bytes32())
	}
	if got := a.Mul(b); got.Cmp(NewBigInt256FromUint64(30)) != 0 {
		t.Fatalf("Mul: got %v", got.Bytes32())
	}
	if got := a.Div(b); got.Cmp(NewBigInt256FromUint64(3)) != 0 {
		t.Fatalf("Div: got %v", got.Bytes32())
	}
}

func TestDivByZeroIsZero(t *testing.T) {
	a := NewBigInt256FromUint64(10)
	if got := a.Div(Zero256); !got.IsZero() {
		t.Fatalf("expected zero, got %v", got.Bytes32())
	}
}

func TestShifts(t *testing.T) {
	a := NewBigInt256FromUint64(1)
	if got := a.Lsh(8); got.Cmp(NewBigInt256FromUint64(256)) != 0 {
		t.Fatalf("Lsh: got %v", got.Bytes32())
	}
	b := NewBigInt256FromUint64(256)
	if got := b.Rsh(8); got.Cmp(NewBigInt256FromUint64(1)) != 0 {
		t.Fatalf("Rsh: got %v", got.Bytes32())
	}
}

func TestToBigInt512Widens(t *testing.T) {
	a := NewBigInt256FromUint64(42)
	w := a.ToBigInt512()
	if w.Trim256().Cmp(a) != 0 {
		t.Fatalf("widen/trim round trip failed: got %v", w.Trim256().Bytes32())
	}
}
