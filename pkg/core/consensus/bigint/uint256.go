// Package bigint provides the fixed-width unsigned integer types the
// retargeting engine needs: a 256-bit type for targets and a 512-bit type
// for the intermediate products the ASERT and WTEMA retargets require to
// stay overflow-safe.
package bigint

import (
	"github.com/holiman/uint256"
)

// mantissaMask isolates the 23 magnitude bits of a compact word's mantissa;
// bit 23 (0x00800000) is the sign bit, and the top byte is the exponent.
const (
	mantissaMask = 0x007fffff
	signBit      = 0x00800000
)

// BigInt256 is a fixed-width unsigned 256-bit integer, backed by
// github.com/holiman/uint256.Int (the fixed-width uint256 type used by
// go-ethereum and already reachable through this module's dependency
// graph). Arithmetic wraps modulo 2^256, matching a true fixed-width type.
type BigInt256 struct {
	v uint256.Int
}

// Zero256 is the additive identity.
var Zero256 = BigInt256{}

// NewBigInt256FromUint64 constructs a BigInt256 from a small integer.
func NewBigInt256FromUint64(n uint64) BigInt256 {
	var b BigInt256
	b.v.SetUint64(n)
	return b
}

// BigInt256FromBytes decodes a big-endian byte slice (at most 32 bytes) into
// a BigInt256.
func BigInt256FromBytes(b []byte) BigInt256 {
	var out BigInt256
	out.v.SetBytes(b)
	return out
}

// Bytes32 returns the big-endian 32-byte encoding.
func (b BigInt256) Bytes32() [32]byte {
	return b.v.Bytes32()
}

// IsZero reports whether the value is zero.
func (b BigInt256) IsZero() bool {
	return b.v.IsZero()
}

// Cmp returns -1, 0, or 1 as b is less than, equal to, or greater than o.
func (b BigInt256) Cmp(o BigInt256) int {
	return b.v.Cmp(&o.v)
}

// Add returns b + o, wrapping modulo 2^256.
func (b BigInt256) Add(o BigInt256) BigInt256 {
	var out BigInt256
	out.v.Add(&b.v, &o.v)
	return out
}

// Sub returns b - o, wrapping modulo 2^256.
func (b BigInt256) Sub(o BigInt256) BigInt256 {
	var out BigInt256
	out.v.Sub(&b.v, &o.v)
	return out
}

// Mul returns b * o, wrapping modulo 2^256. Callers computing a product that
// may legitimately exceed 256 bits (e.g. the WTEMA/ASERT retargets) must
// widen to BigInt512 first; this method is for callers who have already
// bounded the product.
func (b BigInt256) Mul(o BigInt256) BigInt256 {
	var out BigInt256
	out.v.Mul(&b.v, &o.v)
	return out
}

// Div returns b / o, or zero if o is zero (matching the fixed-width
// convention used throughout this package).
func (b BigInt256) Div(o BigInt256) BigInt256 {
	var out BigInt256
	out.v.Div(&b.v, &o.v)
	return out
}

// Lsh returns b << n.
func (b BigInt256) Lsh(n uint) BigInt256 {
	var out BigInt256
	out.v.Lsh(&b.v, n)
	return out
}

// Rsh returns b >> n.
func (b BigInt256) Rsh(n uint) BigInt256 {
	var out BigInt256
	out.v.Rsh(&b.v, n)
	return out
}

// ToBigInt512 widens a 256-bit value to 512 bits with no loss.
func (b BigInt256) ToBigInt512() BigInt512 {
	return bigInt512FromBytes(b.v.Bytes32())
}

// SetCompact decodes a compact base-256 word (nBits) into a value plus the
// negative and overflow flags described in the spec's compact encoding.
// This mirrors Bitcoin Core's arith_uint256::SetCompact bit for bit,
// because the overflow rule is consensus-critical and not derivable from
// first principles.
func SetCompact(word uint32) (value BigInt256, negative bool, overflow bool) {
	size := word >> 24
	mantissa := word & mantissaMask

	var v uint256.Int
	if size <= 3 {
		mantissa >>= 8 * (3 - size)
		v.SetUint64(uint64(mantissa))
	} else {
		v.SetUint64(uint64(mantissa))
		v.Lsh(&v, uint(8*(size-3)))
	}

	negative = mantissa != 0 && word&signBit != 0
	overflow = mantissa != 0 &&
		(size > 34 ||
			(mantissa > 0xff && size > 33) ||
			(mantissa > 0xffff && size > 32))

	return BigInt256{v: v}, negative, overflow
}

// Compact encodes the value using the smallest exponent that fits the
// mantissa, per the spec's compact encoding. It never sets the sign bit on
// a valid (non-negative) target: if the natural mantissa would collide with
// the sign bit, it is shifted right by a byte and the exponent bumped, as
// the spec's get_compact describes.
func (b BigInt256) Compact() uint32 {
	return encodeCompact(mantissaAndSize(b))
}

// CompactRounded is like Compact, but rounds the bytes dropped below the
// 24-bit mantissa window using round-half-to-even, rather than truncating.
func (b BigInt256) CompactRounded() uint32 {
	return encodeCompact(mantissaAndSizeRounded(b))
}

// bitLen returns the number of bits needed to represent b (0 for zero).
func bitLen(b BigInt256) int {
	words := b.v.Bytes32()
	for i, byt := range words {
		if byt == 0 {
			continue
		}
		// Found the most significant nonzero byte.
		bits := 0
		for byt != 0 {
			bits++
			byt >>= 1
		}
		return (32-i-1)*8 + bits
	}
	return 0
}

// mantissaAndSize extracts the unrounded 24-bit mantissa window and its
// byte-size exponent, truncating any lower bytes.
func mantissaAndSize(b BigInt256) (mantissa uint64, size uint32) {
	bits := bitLen(b)
	if bits == 0 {
		return 0, 0
	}
	nSize := uint32((bits + 7) / 8)

	if nSize <= 3 {
		low := b.v.Uint64()
		return low << (8 * (3 - nSize)), nSize
	}

	shift := uint(8 * (nSize - 3))
	shifted := b.Rsh(shift)
	return shifted.v.Uint64() & 0xffffff, nSize
}

// mantissaAndSizeRounded extracts the 24-bit mantissa window, rounding the
// dropped low bytes with round-half-to-even instead of truncating.
func mantissaAndSizeRounded(b BigInt256) (mantissa uint64, size uint32) {
	bits := bitLen(b)
	if bits == 0 {
		return 0, 0
	}
	nSize := uint32((bits + 7) / 8)
	if nSize <= 3 {
		low := b.v.Uint64()
		return low << (8 * (3 - nSize)), nSize
	}

	dropBits := uint(8 * (nSize - 3))
	top := b.Rsh(dropBits)
	mant := top.v.Uint64() & 0xffffff

	// Isolate the dropped low bits to decide rounding direction.
	dropMask := BigInt256{}
	dropMask.v.SetUint64(1)
	dropMask = dropMask.Lsh(dropBits).Sub(NewBigInt256FromUint64(1))
	remainder := b.v
	var rem BigInt256
	rem.v.And(&remainder, &dropMask.v)

	half := NewBigInt256FromUint64(1).Lsh(dropBits - 1)
	cmp := rem.Cmp(half)
	switch {
	case cmp > 0:
		mant++
	case cmp == 0:
		if mant&1 == 1 {
			mant++
		}
	}

	return mant, nSize
}

// encodeCompact applies the final "avoid colliding with the sign bit" fixup
// shared by Compact and CompactRounded, then packs the exponent byte in.
func encodeCompact(mantissa uint64, size uint32) uint32 {
	for mantissa > mantissaMask {
		mantissa >>= 8
		size++
	}
	word := uint32(mantissa) | (size << 24)
	return word
}
