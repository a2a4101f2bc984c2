package mappers

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
)

// Float maps DPT 9.xxx (KNX 16 bit float) to float values.
//
// Wire format: MEEEEMMM MMMMMMMM (sign bit, 4 bit exponent, 11 bit
// two's-complement mantissa); value = 0.01 * mantissa * 2^exponent.
type Float struct{}

func (Float) ToValue(dp *types.Datapoint, data []byte) types.Value {
	if !strings.HasPrefix(dp.DPT, "9.") || len(data) != 2 {
		return nil
	}

	raw := binary.BigEndian.Uint16(data)
	exponent := int((raw >> 11) & 0x0F)
	mantissa := int(raw & 0x07FF)
	if raw&0x8000 != 0 {
		mantissa -= 0x0800
	}

	return types.Float(0.01 * float64(mantissa) * math.Pow(2, float64(exponent)))
}

func (Float) ToRaw(value types.Value) []byte {
	f, ok := value.(types.Float)
	if !ok {
		return nil
	}

	mantissa := math.Round(float64(f) / 0.01)
	exponent := 0
	for (mantissa > 2047 || mantissa < -2048) && exponent < 15 {
		mantissa /= 2
		exponent++
	}
	if mantissa > 2047 || mantissa < -2048 {
		// außerhalb des darstellbaren Bereichs von DPT 9
		return nil
	}

	m := int(mantissa)
	raw := uint16(exponent) << 11
	if m < 0 {
		raw |= 0x8000
		m += 0x0800
	}
	raw |= uint16(m) & 0x07FF

	data := make([]byte, 2)
	binary.BigEndian.PutUint16(data, raw)
	return data
}
