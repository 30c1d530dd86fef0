// Package wrap32 implements the 32-bit wrapping sequence number used on the
// wire, and its bijection with 64-bit absolute sequence numbers.
package wrap32

import "strconv"

// Wrap32 is a 32-bit sequence number that wraps modulo 2^32.
type Wrap32 struct {
	raw uint32
}

// New constructs a Wrap32 from a raw wire value.
func New(raw uint32) Wrap32 {
	return Wrap32{raw: raw}
}

// Wrap converts an absolute 64-bit sequence number into a wrapping 32-bit one,
// relative to zeroPoint.
func Wrap(n uint64, zeroPoint Wrap32) Wrap32 {
	return Wrap32{raw: zeroPoint.raw + uint32(n)}
}

// Add returns the sequence number n positions further along the wire.
func (w Wrap32) Add(n uint32) Wrap32 {
	return Wrap32{raw: w.raw + n}
}

// Raw returns the underlying 32-bit wire value.
func (w Wrap32) Raw() uint32 {
	return w.raw
}

// Equal reports whether two wrapping sequence numbers carry the same raw
// value.
func (w Wrap32) Equal(other Wrap32) bool {
	return w.raw == other.raw
}

// Unwrap returns the absolute sequence number closest to checkpoint that
// wraps to w relative to zeroPoint.
func (w Wrap32) Unwrap(zeroPoint Wrap32, checkpoint uint64) uint64 {
	offset := uint64(w.raw - zeroPoint.raw)

	const wrapSize = uint64(1) << 32
	const halfWrap = uint64(1) << 31

	candidate := (checkpoint &^ (wrapSize - 1)) | offset

	if candidate < checkpoint && checkpoint-candidate > halfWrap {
		candidate += wrapSize
	} else if candidate > checkpoint && candidate-checkpoint > halfWrap && candidate >= wrapSize {
		candidate -= wrapSize
	}

	return candidate
}

// String renders the wrapping sequence number for debugging.
func (w Wrap32) String() string {
	return strconv.FormatUint(uint64(w.raw), 10)
}
