// Package conv formats integers without fmt or strconv, appending to a
// caller-owned buffer so the hot path does not allocate.
package conv

// AppendInt appends the base-10 representation of n to dst.
func AppendInt(dst []byte, n int64) []byte {
	if n < 0 {
		dst = append(dst, '-')
		// Exact for every int64, MinInt64 included.
		u := uint64(-(n + 1)) + 1
		return AppendUint(dst, u)
	}
	return AppendUint(dst, uint64(n))
}

// AppendUint appends the base-10 representation of n to dst.
func AppendUint(dst []byte, n uint64) []byte {
	var buf [20]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, buf[i:]...)
}

// AppendPadded appends n zero-padded to at least width digits.
func AppendPadded(dst []byte, n uint64, width int) []byte {
	var buf [20]byte
	d := AppendUint(buf[:0], n)
	for i := len(d); i < width; i++ {
		dst = append(dst, '0')
	}
	return append(dst, d...)
}
