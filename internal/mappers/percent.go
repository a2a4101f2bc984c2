package mappers

import (
	"strings"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
)

// Percent maps DPT 5.001 (8 bit scaled 0..255) to percentage values.
type Percent struct{}

func (Percent) ToValue(dp *types.Datapoint, data []byte) types.Value {
	if !strings.HasPrefix(dp.DPT, "5.") || len(data) != 1 {
		return nil
	}
	// 0..255 auf 0..100 skalieren, kaufmännisch gerundet
	return types.Percent((int(data[0])*100 + 127) / 255)
}

func (Percent) ToRaw(value types.Value) []byte {
	p, ok := value.(types.Percent)
	if !ok || p > 100 {
		return nil
	}
	return []byte{uint8((int(p)*255 + 50) / 100)}
}
