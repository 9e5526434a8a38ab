package addrfield_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/supercamel/picolan/addrfield"
)

func TestField_SetClearTest(t *testing.T) {
	var f addrfield.Field
	require.False(t, f.Test(7))

	f.Set(7)
	require.True(t, f.Test(7))
	require.False(t, f.Test(8))

	f.Clear(7)
	require.False(t, f.Test(7))
}

func TestField_Boundaries(t *testing.T) {
	var f addrfield.Field
	f.Set(0)
	f.Set(255)
	require.True(t, f.Test(0))
	require.True(t, f.Test(255))
	require.ElementsMatch(t, []uint8{0, 255}, f.Addrs())
}

func TestField_EachIsExactlyInserted(t *testing.T) {
	var f addrfield.Field
	want := []uint8{1, 2, 64, 130, 254}
	for _, a := range want {
		f.Set(a)
	}
	require.ElementsMatch(t, want, f.Addrs())
}

func TestField_ReplaceWholesale(t *testing.T) {
	var f addrfield.Field
	f.Set(1)
	var raw [addrfield.Size]byte
	raw[10] = 0xFF
	f.Replace(raw)
	require.False(t, f.Test(1))
	for i := 80; i < 88; i++ {
		require.True(t, f.Test(uint8(i)))
	}
}

func TestFromBytesRoundTrip(t *testing.T) {
	var f addrfield.Field
	f.Set(5)
	f.Set(200)
	f2 := addrfield.FromBytes(f.Bytes())
	require.Equal(t, f.Addrs(), f2.Addrs())
}
