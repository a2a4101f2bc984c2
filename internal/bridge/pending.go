package bridge

import (
	"sync"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
)

// pendingSet holds the datapoints awaiting a discovery read. Provider
// change notifications insert concurrently while the initializer
// drains; membership is by datapoint identity and duplicate inserts
// are no-ops.
type pendingSet struct {
	mu  sync.Mutex
	set map[*types.Datapoint]struct{}
}

func newPendingSet() *pendingSet {
	return &pendingSet{set: make(map[*types.Datapoint]struct{})}
}

func (p *pendingSet) Add(dp *types.Datapoint) {
	p.mu.Lock()
	p.set[dp] = struct{}{}
	p.mu.Unlock()
}

func (p *pendingSet) Remove(dp *types.Datapoint) {
	p.mu.Lock()
	delete(p.set, dp)
	p.mu.Unlock()
}

// Snapshot returns the current members as an independent slice, so the
// caller can iterate while the set keeps changing underneath.
func (p *pendingSet) Snapshot() []*types.Datapoint {
	p.mu.Lock()
	defer p.mu.Unlock()

	datapoints := make([]*types.Datapoint, 0, len(p.set))
	for dp := range p.set {
		datapoints = append(datapoints, dp)
	}
	return datapoints
}

func (p *pendingSet) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.set)
}
