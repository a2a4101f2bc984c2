package bridge

import (
	"sync"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
)

// TypeMapper converts between domain values and raw KNX group values.
// Both directions return nil when the mapper does not handle the
// value or datapoint type; nil means "unsupported", never an error.
type TypeMapper interface {
	// ToValue decodes raw bus data for the datapoint into a domain
	// value, or nil if this mapper cannot decode it.
	ToValue(dp *types.Datapoint, data []byte) types.Value

	// ToRaw encodes a domain value into raw bus data, or nil if this
	// mapper cannot encode it.
	ToRaw(value types.Value) []byte
}

// MapperRegistry aggregates all registered type mappers. Conversions
// try every mapper in registration order and return the first non-nil
// result. Callers must not rely on a specific winner when mappers
// handle overlapping types.
type MapperRegistry struct {
	mu      sync.RWMutex
	mappers []TypeMapper
}

func NewMapperRegistry() *MapperRegistry {
	return &MapperRegistry{}
}

func (r *MapperRegistry) Add(m TypeMapper) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.mappers {
		if existing == m {
			return
		}
	}
	r.mappers = append(r.mappers, m)
}

func (r *MapperRegistry) Remove(m TypeMapper) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.mappers {
		if existing == m {
			r.mappers = append(r.mappers[:i], r.mappers[i+1:]...)
			return
		}
	}
}

func (r *MapperRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mappers)
}

func (r *MapperRegistry) all() []TypeMapper {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]TypeMapper(nil), r.mappers...)
}

// ToValue decodes raw bus data via the first mapper that handles it,
// or returns nil if no mapper does.
func (r *MapperRegistry) ToValue(dp *types.Datapoint, data []byte) types.Value {
	for _, m := range r.all() {
		if value := m.ToValue(dp, data); value != nil {
			return value
		}
	}
	return nil
}

// ToRaw encodes a domain value via the first mapper that handles it,
// or returns nil if no mapper does.
func (r *MapperRegistry) ToRaw(value types.Value) []byte {
	for _, m := range r.all() {
		if data := m.ToRaw(value); data != nil {
			return data
		}
	}
	return nil
}
