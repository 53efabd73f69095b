// Package safeconv provides integer conversions and arithmetic that report
// overflow instead of wrapping.
package safeconv

import "math"

// MaxInt is the maximum value for int type (platform-dependent).
const MaxInt = int(^uint(0) >> 1)

// Int64ToInt converts v to int. It reports false when v does not fit.
func Int64ToInt(v int64) (int, bool) {
	if v > int64(MaxInt) || v < int64(-MaxInt-1) {
		return 0, false
	}

	return int(v), true
}

// MulInt multiplies two non-negative ints. It reports false on overflow or
// a negative operand.
func MulInt(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}

	if a != 0 && b > MaxInt/a {
		return 0, false
	}

	return a * b, true
}

// AddInt64 adds two int64 values. It reports false on overflow.
func AddInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}

	return a + b, true
}

// SubInt64 subtracts b from a. It reports false on overflow.
func SubInt64(a, b int64) (int64, bool) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, false
	}

	return a - b, true
}

// MulInt64 multiplies two int64 values. It reports false on overflow.
func MulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}

	product := a * b
	if product/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}

	return product, true
}

// PowInt64 raises base to a non-negative exp by squaring. It reports false on
// overflow or a negative exponent.
func PowInt64(base, exp int64) (int64, bool) {
	if exp < 0 {
		return 0, false
	}

	result := int64(1)

	for exp > 0 {
		if exp&1 == 1 {
			var ok bool

			result, ok = MulInt64(result, base)
			if !ok {
				return 0, false
			}
		}

		exp >>= 1
		if exp == 0 {
			break
		}

		var ok bool

		base, ok = MulInt64(base, base)
		if !ok {
			return 0, false
		}
	}

	return result, true
}
