package bindings

import (
	"fmt"
	"sync"

	"github.com/KevinKickass/OpenBusBridge/internal/bridge"
	"github.com/KevinKickass/OpenBusBridge/internal/types"
	"go.uber.org/zap"
)

// FileProvider is a binding provider backed by JSON/YAML files on
// disk. It owns the datapoints it creates; a reload replaces them and
// notifies all attached change listeners.
type FileProvider struct {
	loader *Loader
	logger *zap.Logger

	mu         sync.RWMutex
	datapoints []*types.Datapoint

	listenersMu sync.Mutex
	listeners   []bridge.ChangeListener
}

func NewFileProvider(searchPaths []string, logger *zap.Logger) (*FileProvider, error) {
	loader, err := NewLoader(searchPaths)
	if err != nil {
		return nil, err
	}

	p := &FileProvider{
		loader: loader,
		logger: logger,
	}

	if err := p.Reload(); err != nil {
		return nil, err
	}

	return p, nil
}

// Reload re-reads all binding files, replaces the owned datapoints and
// notifies the attached change listeners.
func (p *FileProvider) Reload() error {
	entries, err := p.loader.LoadAll()
	if err != nil {
		return err
	}

	datapoints := make([]*types.Datapoint, 0, len(entries))
	for _, entry := range entries {
		dp, err := buildDatapoint(entry)
		if err != nil {
			return err
		}
		datapoints = append(datapoints, dp)
	}

	p.mu.Lock()
	p.datapoints = datapoints
	p.mu.Unlock()

	p.logger.Info("Bindings loaded", zap.Int("datapoints", len(datapoints)))

	p.listenersMu.Lock()
	listeners := append([]bridge.ChangeListener(nil), p.listeners...)
	p.listenersMu.Unlock()

	for _, l := range listeners {
		l.AllBindingsChanged(p)
	}

	return nil
}

func buildDatapoint(entry BindingEntry) (*types.Datapoint, error) {
	address, err := types.ParseGroupAddress(entry.Address)
	if err != nil {
		return nil, fmt.Errorf("binding for item %q: %w", entry.Item, err)
	}

	kind := types.DatapointState
	if entry.Direction == "command" {
		kind = types.DatapointCommand
	}

	return types.NewDatapoint(entry.Item, address, kind, entry.DPT, entry.Readable), nil
}

func (p *FileProvider) ReadableDatapoints() []*types.Datapoint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var readable []*types.Datapoint
	for _, dp := range p.datapoints {
		if dp.Readable {
			readable = append(readable, dp)
		}
	}
	return readable
}

func (p *FileProvider) DatapointByAddress(item string, address types.GroupAddress) *types.Datapoint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, dp := range p.datapoints {
		if dp.Item == item && dp.Address == address {
			return dp
		}
	}
	return nil
}

func (p *FileProvider) DatapointByKind(item string, kind types.ValueKind) *types.Datapoint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, dp := range p.datapoints {
		if dp.Item != item {
			continue
		}
		if dpKind, ok := types.KindForDPT(dp.DPT); ok && dpKind == kind {
			return dp
		}
	}
	return nil
}

func (p *FileProvider) ListeningItemNames(address types.GroupAddress) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var items []string
	seen := make(map[string]bool)
	for _, dp := range p.datapoints {
		if dp.Address == address && !seen[dp.Item] {
			seen[dp.Item] = true
			items = append(items, dp.Item)
		}
	}
	return items
}

func (p *FileProvider) AddChangeListener(l bridge.ChangeListener) {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()

	for _, existing := range p.listeners {
		if existing == l {
			return
		}
	}
	p.listeners = append(p.listeners, l)
}

func (p *FileProvider) RemoveChangeListener(l bridge.ChangeListener) {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()

	for i, existing := range p.listeners {
		if existing == l {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return
		}
	}
}
