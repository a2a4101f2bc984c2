// Package mappers provides the built-in type mappers between domain
// values and raw KNX group values. Each mapper handles one family of
// datapoint types and returns nil for everything else, so they compose
// in the bridge's first-match registry.
package mappers

import "github.com/KevinKickass/OpenBusBridge/internal/bridge"

// All returns the built-in mappers in registration order.
func All() []bridge.TypeMapper {
	return []bridge.TypeMapper{
		Switch{},
		Percent{},
		Float{},
		String{},
	}
}
