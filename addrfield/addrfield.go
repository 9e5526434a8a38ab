// Package addrfield implements a fixed 256-bit set over PicoLAN node
// addresses (0..255), used to report which addresses are known to an
// Interface and to carry that set across the wire in an AddrField packet.
package addrfield

// Size is the number of bytes backing the set: one bit per address.
const Size = 32

// Field is a set of node addresses 0..255, stored as 32 bytes of bit flags.
// The zero value is an empty set.
type Field struct {
	bits [Size]byte
}

// Set marks addr as present.
func (f *Field) Set(addr uint8) {
	f.bits[addr/8] |= 1 << (addr % 8)
}

// Clear marks addr as absent.
func (f *Field) Clear(addr uint8) {
	f.bits[addr/8] &^= 1 << (addr % 8)
}

// Test reports whether addr is present.
func (f *Field) Test(addr uint8) bool {
	return f.bits[addr/8]&(1<<(addr%8)) != 0
}

// Each calls fn once for every address present, in ascending order.
func (f *Field) Each(fn func(addr uint8)) {
	for i := 0; i < Size; i++ {
		b := f.bits[i]
		if b == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if b&(1<<bit) != 0 {
				fn(uint8(i*8 + bit))
			}
		}
	}
}

// Addrs returns every present address as a slice, in ascending order.
func (f *Field) Addrs() []uint8 {
	out := make([]uint8, 0)
	f.Each(func(addr uint8) { out = append(out, addr) })
	return out
}

// Replace overwrites the set wholesale with the given raw 32-byte bitmap.
func (f *Field) Replace(bits [Size]byte) {
	f.bits = bits
}

// Bytes returns the raw 32-byte bitmap backing the set.
func (f *Field) Bytes() [Size]byte {
	return f.bits
}

// FromBytes builds a Field from a raw 32-byte bitmap.
func FromBytes(b [Size]byte) Field {
	return Field{bits: b}
}
