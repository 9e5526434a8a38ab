package wire

// fletcher16 computes the Fletcher-16-mod-255 checksum over b, returning
// (s1, s2) as described in spec.md §4.1: s1 = sum(b) mod 255, s2 =
// running sum of s1 mod 255.
func fletcher16(b []byte) (s1, s2 uint8) {
	var a, c uint32
	for _, x := range b {
		a = (a + uint32(x)) % 255
		c = (c + a) % 255
	}
	return uint8(a), uint8(c)
}

// checksumBytes returns the two wire checksum bytes (low byte first) for
// the unescaped id||size||body region.
func checksumBytes(id, size uint8, body []byte) (c1, c2 uint8) {
	buf := make([]byte, 0, 2+len(body))
	buf = append(buf, id, size)
	buf = append(buf, body...)
	s1, s2 := fletcher16(buf)
	return s1, s2
}
