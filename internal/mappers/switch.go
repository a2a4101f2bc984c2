package mappers

import (
	"strings"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
)

// Switch maps DPT 1.xxx (1 bit) to switch values.
type Switch struct{}

func (Switch) ToValue(dp *types.Datapoint, data []byte) types.Value {
	if !strings.HasPrefix(dp.DPT, "1.") || len(data) != 1 {
		return nil
	}
	return types.Switch(data[0]&0x01 == 0x01)
}

func (Switch) ToRaw(value types.Value) []byte {
	sw, ok := value.(types.Switch)
	if !ok {
		return nil
	}
	if sw {
		return []byte{0x01}
	}
	return []byte{0x00}
}
