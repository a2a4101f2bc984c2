package bridge

import (
	"sync"
	"time"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
	"go.uber.org/zap"
)

// Initializer runs in its own goroutine and sends discovery reads for
// newly bound datapoints, so an item has a defined state before the
// first telegram arrives for it. Hundreds of datapoints may show up at
// once when a provider registers; a configurable pause between two
// reads keeps the burst from flooding the KNX bus.
//
// Each iteration works on an immutable snapshot of the pending set;
// datapoints added while a batch runs are picked up on the next
// iteration. Every datapoint gets exactly one attempt, successful or
// not.
type Initializer struct {
	pending      *pendingSet
	transport    Transport
	mappers      *MapperRegistry
	echo         *echoStore
	publisher    Publisher
	pollInterval time.Duration
	readingPause time.Duration
	logger       *zap.Logger
	stopChan     chan struct{}
	wg           sync.WaitGroup
	running      bool
	mu           sync.Mutex
}

func newInitializer(
	pending *pendingSet,
	transport Transport,
	mappers *MapperRegistry,
	echo *echoStore,
	publisher Publisher,
	pollInterval time.Duration,
	readingPause time.Duration,
	logger *zap.Logger,
) *Initializer {
	return &Initializer{
		pending:      pending,
		transport:    transport,
		mappers:      mappers,
		echo:         echo,
		publisher:    publisher,
		pollInterval: pollInterval,
		readingPause: readingPause,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start startet den Worker
func (i *Initializer) Start() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.running {
		return nil
	}

	i.running = true
	i.wg.Add(1)

	go i.run()

	i.logger.Info("Datapoint initializer started",
		zap.Duration("poll_interval", i.pollInterval),
		zap.Duration("reading_pause", i.readingPause))

	return nil
}

// Stop stoppt den Worker und wartet bis der Loop beendet ist
func (i *Initializer) Stop() {
	i.mu.Lock()
	if !i.running {
		i.mu.Unlock()
		return
	}
	i.mu.Unlock()

	close(i.stopChan)
	i.wg.Wait()

	i.mu.Lock()
	i.running = false
	i.mu.Unlock()

	i.logger.Info("Datapoint initializer stopped")
}

// IsRunning gibt an ob der Worker läuft
func (i *Initializer) IsRunning() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.running
}

func (i *Initializer) run() {
	defer i.wg.Done()

	for {
		if snapshot := i.pending.Snapshot(); len(snapshot) > 0 {
			i.initializeDatapoints(snapshot)
		}
		// just wait before looping again
		select {
		case <-i.stopChan:
			return
		case <-time.After(i.pollInterval):
		}
	}
}

func (i *Initializer) initializeDatapoints(datapoints []*types.Datapoint) {
	for _, dp := range datapoints {
		select {
		case <-i.stopChan:
			return
		default:
		}

		// Command datapoints are write-only and never discovered
		if dp.Kind == types.DatapointState {
			i.readDatapoint(dp)
		}

		// one attempt per datapoint, whatever the outcome
		i.pending.Remove(dp)

		if i.readingPause > 0 {
			select {
			case <-i.stopChan:
				return
			case <-time.After(i.readingPause):
			}
		}
	}
}

func (i *Initializer) readDatapoint(dp *types.Datapoint) {
	if !i.transport.Available() {
		i.logger.Debug("KNX connection not available, skipping read",
			zap.String("item", dp.Item))
		return
	}

	i.logger.Debug("Sending read request to KNX",
		zap.String("item", dp.Item),
		zap.Stringer("address", dp.Address))

	data, err := i.transport.GroupRead(dp)
	if err != nil {
		i.logger.Warn("Cannot read value for item from KNX bus",
			zap.String("item", dp.Item),
			zap.Error(err))
		return
	}

	value := i.mappers.ToValue(dp, data)
	if value == nil {
		i.logger.Warn("Could not decode initial value for item",
			zap.String("item", dp.Item),
			zap.String("dpt", dp.DPT))
		return
	}

	// the bus delivers our own publication back to the bridge; the
	// record keeps it from being written back to KNX
	i.echo.Add(dp.Item, value.String())
	i.publisher.PublishStateUpdate(dp.Item, value)
}
