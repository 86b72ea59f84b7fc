package bigint

import "math/big"

// bitLen512 is the fixed width BigInt512 wraps around.
const bitLen512 = 512

// mask512 is (1<<512)-1, used to truncate every mutating operation down to
// 512 bits so BigInt512 behaves like a true fixed-width type (wrapping on
// overflow) even though it is implemented on top of math/big.Int.
//
// No library in this module's dependency graph exposes a dedicated
// fixed-width 512-bit integer (github.com/holiman/uint256 stops at 256
// bits), so BigInt512 is this engine's own type, built on the standard
// library's arbitrary-precision math/big.Int and masked after every
// mutation. See DESIGN.md for the full justification.
var mask512 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bitLen512), big.NewInt(1))

// BigInt512 is a fixed-width unsigned 512-bit integer used as the
// overflow-safe intermediate for the ASERT and WTEMA multiply-then-divide
// sequences.
type BigInt512 struct {
	v big.Int
}

// NewBigInt512FromUint64 constructs a BigInt512 from a small integer.
func NewBigInt512FromUint64(n uint64) BigInt512 {
	var out BigInt512
	out.v.SetUint64(n)
	return out
}

// bigInt512FromBytes widens a big-endian 32-byte value to 512 bits.
func bigInt512FromBytes(b [32]byte) BigInt512 {
	var out BigInt512
	out.v.SetBytes(b[:])
	return out
}

// Trim256 truncates to the low 256 bits and returns them as a BigInt256,
// matching the spec's trim256 operation.
func (b BigInt512) Trim256() BigInt256 {
	var masked big.Int
	mask256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	masked.And(&b.v, mask256)
	buf := masked.Bytes()
	padded := make([]byte, 32)
	copy(padded[32-len(buf):], buf)
	return BigInt256FromBytes(padded)
}

// IsZero reports whether the value is zero.
func (b BigInt512) IsZero() bool {
	return b.v.Sign() == 0
}

// Cmp returns -1, 0, or 1 as b is less than, equal to, or greater than o.
func (b BigInt512) Cmp(o BigInt512) int {
	return b.v.Cmp(&o.v)
}

func (b BigInt512) trim(z *big.Int) BigInt512 {
	var out BigInt512
	out.v.And(z, mask512)
	return out
}

// Add returns b + o, wrapping modulo 2^512.
func (b BigInt512) Add(o BigInt512) BigInt512 {
	var z big.Int
	z.Add(&b.v, &o.v)
	return b.trim(&z)
}

// Mul returns b * o, wrapping modulo 2^512. This is the operation the
// ASERT/WTEMA retargets rely on to multiply before dividing without
// truncating the intermediate product.
func (b BigInt512) Mul(o BigInt512) BigInt512 {
	var z big.Int
	z.Mul(&b.v, &o.v)
	return b.trim(&z)
}

// Div returns b / o, or zero if o is zero.
func (b BigInt512) Div(o BigInt512) BigInt512 {
	if o.v.Sign() == 0 {
		return BigInt512{}
	}
	var z big.Int
	z.Div(&b.v, &o.v)
	return b.trim(&z)
}

// Lsh returns b << n.
func (b BigInt512) Lsh(n uint) BigInt512 {
	var z big.Int
	z.Lsh(&b.v, n)
	return b.trim(&z)
}

// MulUint64 returns b * n, wrapping modulo 2^512. A small convenience for
// the cubic approximation's integer-literal coefficients (4, 11, 35, 50).
func (b BigInt512) MulUint64(n uint64) BigInt512 {
	return b.Mul(NewBigInt512FromUint64(n))
}
