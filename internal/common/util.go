package common

// WipeByteArray zeroes b in place. Use it to scrub passwords once they
// have been handed off.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
