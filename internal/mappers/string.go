package mappers

import (
	"bytes"
	"strings"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
)

const stringLength = 14

// String maps DPT 16.xxx (14 byte character string) to string values.
type String struct{}

func (String) ToValue(dp *types.Datapoint, data []byte) types.Value {
	if !strings.HasPrefix(dp.DPT, "16.") || len(data) != stringLength {
		return nil
	}
	return types.String(bytes.TrimRight(data, "\x00"))
}

func (String) ToRaw(value types.Value) []byte {
	s, ok := value.(types.String)
	if !ok || len(s) > stringLength {
		return nil
	}

	data := make([]byte, stringLength)
	copy(data, s)
	return data
}
