package bridge

import (
	"time"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
	"go.uber.org/zap"
)

// Transport is the field-bus side of the bridge: write access to the
// KNX bus, discovery reads and reconnect requests.
type Transport interface {
	GroupWrite(dp *types.Datapoint, data []byte) error
	GroupRead(dp *types.Datapoint) ([]byte, error)
	Available() bool
	RequestReconnect()
}

// Publisher is the application-bus side of the bridge.
type Publisher interface {
	PublishCommand(item string, value types.Value)
	PublishStateUpdate(item string, value types.Value)
}

// Bridge is the central dispatcher between the application bus and the
// KNX bus. It is fully connected to both sides: commands and state
// updates from the application bus are written to KNX, incoming KNX
// telegrams are published to the application bus, each converted into
// the right format for the other side.
//
// All entry points are safe for concurrent use from both buses.
type Bridge struct {
	transport Transport
	publisher Publisher
	providers *ProviderRegistry
	mappers   *MapperRegistry
	echo      *echoStore
	pending   *pendingSet
	init      *Initializer
	logger    *zap.Logger
}

func New(transport Transport, publisher Publisher, pollInterval, readingPause time.Duration, logger *zap.Logger) *Bridge {
	b := &Bridge{
		transport: transport,
		publisher: publisher,
		providers: NewProviderRegistry(),
		mappers:   NewMapperRegistry(),
		echo:      newEchoStore(),
		pending:   newPendingSet(),
		logger:    logger,
	}
	b.init = newInitializer(b.pending, transport, b.mappers, b.echo, publisher, pollInterval, readingPause, logger)
	return b
}

// Start startet den Initializer Worker
func (b *Bridge) Start() error {
	return b.init.Start()
}

// Stop detaches all providers and stops the initializer worker.
func (b *Bridge) Stop() {
	for _, p := range b.providers.All() {
		p.RemoveChangeListener(b)
		b.providers.Remove(p)
	}
	b.init.Stop()
}

// AddProvider registers the provider, attaches the bridge to its
// change notifications and treats all of its readable datapoints as
// newly relevant.
func (b *Bridge) AddProvider(p Provider) {
	b.providers.Add(p)
	p.AddChangeListener(b)
	b.AllBindingsChanged(p)
}

// RemoveProvider detaches the provider from change notifications.
// Datapoints already queued for initialization keep their one attempt.
func (b *Bridge) RemoveProvider(p Provider) {
	b.providers.Remove(p)
	p.RemoveChangeListener(b)
}

func (b *Bridge) AddTypeMapper(m TypeMapper) {
	b.mappers.Add(m)
}

func (b *Bridge) RemoveTypeMapper(m TypeMapper) {
	b.mappers.Remove(m)
}

// OnCommand handles a command arriving from the application bus.
func (b *Bridge) OnCommand(item string, command types.Value) {
	if b.echo.Consume(item, command.String()) {
		// received from KNX ourselves, don't send it back to the bus
		return
	}
	b.writeToKNX(item, command, false)
}

// OnUpdate handles a state update arriving from the application bus.
// Unlike commands, a failed update write requests a reconnect.
func (b *Bridge) OnUpdate(item string, state types.Value) {
	if b.echo.Consume(item, state.String()) {
		// received from KNX ourselves, don't send it back to the bus
		return
	}
	b.writeToKNX(item, state, true)
}

func (b *Bridge) writeToKNX(item string, value types.Value, isUpdate bool) {
	dp := b.providers.DatapointByKind(item, value.Kind())
	if dp == nil {
		// item is not bound to KNX
		return
	}

	data := b.mappers.ToRaw(value)
	if data == nil {
		b.logger.Debug("No type mapper for value",
			zap.String("item", item),
			zap.String("kind", string(value.Kind())))
		return
	}

	if !b.transport.Available() {
		return
	}

	if err := b.transport.GroupWrite(dp, data); err != nil {
		if isUpdate {
			b.logger.Error("Update could not be sent to the KNX bus",
				zap.String("item", item),
				zap.Error(err))
			b.transport.RequestReconnect()
		} else {
			b.logger.Error("Command could not be sent to the KNX bus",
				zap.String("item", item),
				zap.Error(err))
		}
	}
}

// OnTelegram handles a group write arriving from the KNX bus and
// publishes it to every listening item. A panic from a provider or
// mapper implementation aborts the fan-out for this address and is
// logged; remaining addresses are unaffected.
func (b *Bridge) OnTelegram(address types.GroupAddress, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Error while receiving event from KNX bus",
				zap.Stringer("address", address),
				zap.Any("panic", r))
		}
	}()

	if len(data) == 0 {
		// zero-length application data means "no data", not "empty state"
		return
	}

	for _, item := range b.providers.ListeningItemNames(address) {
		dp := b.providers.DatapointByAddress(item, address)
		if dp == nil {
			continue
		}

		value := b.mappers.ToValue(dp, data)
		if value == nil {
			continue
		}

		// remember the event so we won't send it back to KNX when it
		// arrives on the application bus
		b.echo.Add(item, value.String())

		switch dp.Kind {
		case types.DatapointCommand:
			b.publisher.PublishCommand(item, value)
		case types.DatapointState:
			b.publisher.PublishStateUpdate(item, value)
		}
	}
}

// BindingChanged queues the item's readable datapoints for discovery.
func (b *Bridge) BindingChanged(p Provider, item string) {
	for _, dp := range p.ReadableDatapoints() {
		if dp.Item == item {
			b.pending.Add(dp)
		}
	}
}

// AllBindingsChanged queues all readable datapoints of the provider.
func (b *Bridge) AllBindingsChanged(p Provider) {
	for _, dp := range p.ReadableDatapoints() {
		b.pending.Add(dp)
	}
}

// ReadableDatapoints returns all readable datapoints, aggregated over
// all registered providers.
func (b *Bridge) ReadableDatapoints() []*types.Datapoint {
	return b.providers.ReadableDatapoints()
}

// Mappers returns the type mapper registry.
func (b *Bridge) Mappers() *MapperRegistry { return b.mappers }

// PendingCount returns the number of datapoints awaiting discovery.
func (b *Bridge) PendingCount() int { return b.pending.Len() }

// SuppressedCount returns the number of outstanding echo records.
func (b *Bridge) SuppressedCount() int { return b.echo.Len() }

// ProviderCount returns the number of registered providers.
func (b *Bridge) ProviderCount() int { return b.providers.Len() }

// MapperCount returns the number of registered type mappers.
func (b *Bridge) MapperCount() int { return b.mappers.Len() }
