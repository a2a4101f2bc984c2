package mappers

import (
	"strings"
	"testing"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dp(dpt string) *types.Datapoint {
	addr, _ := types.NewGroupAddress(1, 0, 1)
	return types.NewDatapoint("Item1", addr, types.DatapointState, dpt, true)
}

func TestSwitchMapper(t *testing.T) {
	m := Switch{}

	t.Run("decode", func(t *testing.T) {
		assert.Equal(t, types.Switch(true), m.ToValue(dp("1.001"), []byte{0x01}))
		assert.Equal(t, types.Switch(false), m.ToValue(dp("1.001"), []byte{0x00}))
	})

	t.Run("encode", func(t *testing.T) {
		assert.Equal(t, []byte{0x01}, m.ToRaw(types.Switch(true)))
		assert.Equal(t, []byte{0x00}, m.ToRaw(types.Switch(false)))
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Nil(t, m.ToValue(dp("5.001"), []byte{0x01}))
		assert.Nil(t, m.ToValue(dp("1.001"), []byte{0x01, 0x02}))
		assert.Nil(t, m.ToRaw(types.Percent(50)))
	})
}

func TestPercentMapper(t *testing.T) {
	m := Percent{}

	t.Run("decode scales 0..255 to 0..100", func(t *testing.T) {
		assert.Equal(t, types.Percent(0), m.ToValue(dp("5.001"), []byte{0x00}))
		assert.Equal(t, types.Percent(50), m.ToValue(dp("5.001"), []byte{0x80}))
		assert.Equal(t, types.Percent(100), m.ToValue(dp("5.001"), []byte{0xFF}))
	})

	t.Run("encode scales 0..100 to 0..255", func(t *testing.T) {
		assert.Equal(t, []byte{0x00}, m.ToRaw(types.Percent(0)))
		assert.Equal(t, []byte{0x80}, m.ToRaw(types.Percent(50)))
		assert.Equal(t, []byte{0xFF}, m.ToRaw(types.Percent(100)))
	})

	t.Run("roundtrip is stable", func(t *testing.T) {
		for percent := 0; percent <= 100; percent++ {
			raw := m.ToRaw(types.Percent(percent))
			require.NotNil(t, raw)
			assert.Equal(t, types.Percent(percent), m.ToValue(dp("5.001"), raw))
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Nil(t, m.ToValue(dp("1.001"), []byte{0x80}))
		assert.Nil(t, m.ToRaw(types.Percent(101)))
		assert.Nil(t, m.ToRaw(types.Switch(true)))
	})
}

func TestFloatMapper(t *testing.T) {
	m := Float{}

	t.Run("known encodings", func(t *testing.T) {
		// 21.0 = 0.01 * 1050 * 2^1
		assert.Equal(t, []byte{0x0C, 0x1A}, m.ToRaw(types.Float(21.0)))
		// -30.0 = 0.01 * -1500 * 2^1
		assert.Equal(t, []byte{0x8A, 0x24}, m.ToRaw(types.Float(-30.0)))
		assert.Equal(t, []byte{0x00, 0x00}, m.ToRaw(types.Float(0)))
	})

	t.Run("known decodings", func(t *testing.T) {
		assert.Equal(t, types.Float(21.0), m.ToValue(dp("9.001"), []byte{0x0C, 0x1A}))
		assert.Equal(t, types.Float(-30.0), m.ToValue(dp("9.001"), []byte{0x8A, 0x24}))
		assert.Equal(t, types.Float(0), m.ToValue(dp("9.001"), []byte{0x00, 0x00}))
	})

	t.Run("roundtrip", func(t *testing.T) {
		// decode and re-encode must reproduce the wire bytes, including
		// the extremes of the representable range
		raws := [][]byte{
			{0x00, 0x01}, // 0.01
			{0x0C, 0x1A}, // 21.0
			{0x8A, 0x24}, // -30.0
			{0x87, 0xFF}, // -0.01
			{0x80, 0x00}, // -20.48
			{0x7F, 0xFF}, // 670760.96, largest value
			{0xF8, 0x00}, // -671088.64, smallest value
		}
		for _, raw := range raws {
			v := m.ToValue(dp("9.001"), raw)
			require.NotNil(t, v, "raw % X", raw)
			assert.Equal(t, raw, m.ToRaw(v), "raw % X", raw)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		assert.Nil(t, m.ToRaw(types.Float(1e9)))
		assert.Nil(t, m.ToRaw(types.Float(-1e9)))
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Nil(t, m.ToValue(dp("5.001"), []byte{0x0C, 0x1A}))
		assert.Nil(t, m.ToValue(dp("9.001"), []byte{0x0C}))
		assert.Nil(t, m.ToRaw(types.Switch(true)))
	})
}

func TestStringMapper(t *testing.T) {
	m := String{}

	t.Run("encode pads to 14 bytes", func(t *testing.T) {
		raw := m.ToRaw(types.String("Hello"))
		require.Len(t, raw, 14)
		assert.Equal(t, "Hello", string(raw[:5]))
		assert.Equal(t, strings.Repeat("\x00", 9), string(raw[5:]))
	})

	t.Run("decode trims padding", func(t *testing.T) {
		raw := append([]byte("Hello"), make([]byte, 9)...)
		assert.Equal(t, types.String("Hello"), m.ToValue(dp("16.000"), raw))
	})

	t.Run("full-length roundtrip", func(t *testing.T) {
		s := types.String("ABCDEFGHIJKLMN")
		raw := m.ToRaw(s)
		require.NotNil(t, raw)
		assert.Equal(t, s, m.ToValue(dp("16.000"), raw))
	})

	t.Run("too long", func(t *testing.T) {
		assert.Nil(t, m.ToRaw(types.String("this string is too long for dpt 16")))
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Nil(t, m.ToValue(dp("1.001"), make([]byte, 14)))
		assert.Nil(t, m.ToValue(dp("16.000"), []byte("short")))
		assert.Nil(t, m.ToRaw(types.Float(1)))
	})
}

func TestAllCoversEveryKind(t *testing.T) {
	all := All()
	require.Len(t, all, 4)

	cases := []struct {
		dpt  string
		data []byte
		want types.Value
	}{
		{"1.001", []byte{0x01}, types.Switch(true)},
		{"5.001", []byte{0xFF}, types.Percent(100)},
		{"9.001", []byte{0x0C, 0x1A}, types.Float(21.0)},
		{"16.000", append([]byte("Hi"), make([]byte, 12)...), types.String("Hi")},
	}

	for _, tc := range cases {
		var got types.Value
		for _, m := range all {
			if got = m.ToValue(dp(tc.dpt), tc.data); got != nil {
				break
			}
		}
		assert.Equal(t, tc.want, got, "dpt %s", tc.dpt)
	}
}
