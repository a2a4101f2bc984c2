package bridge

import (
	"sync"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
)

// Provider is a source of datapoints for a subset of items. Multiple
// providers may be registered concurrently; the bridge aggregates over
// all of them.
type Provider interface {
	// ReadableDatapoints returns the datapoints that support a
	// discovery read.
	ReadableDatapoints() []*types.Datapoint

	// DatapointByAddress returns the datapoint binding item and group
	// address, or nil if the provider does not know the combination.
	DatapointByAddress(item string, address types.GroupAddress) *types.Datapoint

	// DatapointByKind returns the datapoint of the item that carries
	// values of the given kind, or nil.
	DatapointByKind(item string, kind types.ValueKind) *types.Datapoint

	// ListeningItemNames returns all items listening on the address.
	ListeningItemNames(address types.GroupAddress) []string

	AddChangeListener(l ChangeListener)
	RemoveChangeListener(l ChangeListener)
}

// ChangeListener is notified when a provider's bindings change.
type ChangeListener interface {
	BindingChanged(p Provider, item string)
	AllBindingsChanged(p Provider)
}

// ProviderRegistry aggregates all registered providers. Point lookups
// iterate in registration order and the first non-nil result wins;
// listening-name lookups return the union over all providers. The
// ordering contract is deliberate: callers must not rely on a specific
// winner when providers overlap.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers []Provider
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{}
}

func (r *ProviderRegistry) Add(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.providers {
		if existing == p {
			return
		}
	}
	r.providers = append(r.providers, p)
}

func (r *ProviderRegistry) Remove(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.providers {
		if existing == p {
			r.providers = append(r.providers[:i], r.providers[i+1:]...)
			return
		}
	}
}

func (r *ProviderRegistry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Provider(nil), r.providers...)
}

func (r *ProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// DatapointByAddress returns the first datapoint any provider binds to
// the given item and group address.
func (r *ProviderRegistry) DatapointByAddress(item string, address types.GroupAddress) *types.Datapoint {
	for _, p := range r.All() {
		if dp := p.DatapointByAddress(item, address); dp != nil {
			return dp
		}
	}
	return nil
}

// DatapointByKind returns the first datapoint any provider binds to the
// given item and value kind.
func (r *ProviderRegistry) DatapointByKind(item string, kind types.ValueKind) *types.Datapoint {
	for _, p := range r.All() {
		if dp := p.DatapointByKind(item, kind); dp != nil {
			return dp
		}
	}
	return nil
}

// ListeningItemNames returns the names of all items listening on the
// given group address, aggregated over all providers.
func (r *ProviderRegistry) ListeningItemNames(address types.GroupAddress) []string {
	var items []string
	for _, p := range r.All() {
		items = append(items, p.ListeningItemNames(address)...)
	}
	return items
}

// ReadableDatapoints returns the readable datapoints of all providers.
func (r *ProviderRegistry) ReadableDatapoints() []*types.Datapoint {
	var datapoints []*types.Datapoint
	for _, p := range r.All() {
		datapoints = append(datapoints, p.ReadableDatapoints()...)
	}
	return datapoints
}
