package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializerDrainsReadableDatapoints(t *testing.T) {
	b, transport, publisher := newTestBridge(t)
	transport.readData = []byte{0x01}
	b.AddTypeMapper(switchMapper{})
	b.AddProvider(&fakeProvider{datapoints: []*types.Datapoint{
		stateDatapoint(t, "Light1", "1/0/1"),
		stateDatapoint(t, "Light2", "1/0/2"),
	}})

	require.NoError(t, b.Start())
	defer b.Stop()

	require.Eventually(t, func() bool {
		return b.PendingCount() == 0 && publisher.updateCount() == 2
	}, time.Second, time.Millisecond)

	assert.Equal(t, 2, transport.readCount())

	t.Run("exactly one attempt per datapoint", func(t *testing.T) {
		// let a few more poll cycles pass
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, 2, transport.readCount())
		assert.Equal(t, 2, publisher.updateCount())
	})
}

func TestInitializerNeverReadsCommandDatapoints(t *testing.T) {
	b, transport, publisher := newTestBridge(t)
	transport.readData = []byte{0x01}
	b.AddTypeMapper(switchMapper{})

	// a command datapoint marked readable must still never be read
	commandDp := types.NewDatapoint("Scene1", mustAddress(t, "3/0/1"), types.DatapointCommand, "1.001", true)
	b.AddProvider(&fakeProvider{datapoints: []*types.Datapoint{commandDp}})
	require.Equal(t, 1, b.PendingCount())

	require.NoError(t, b.Start())
	defer b.Stop()

	require.Eventually(t, func() bool {
		return b.PendingCount() == 0
	}, time.Second, time.Millisecond)

	assert.Equal(t, 0, transport.readCount())
	assert.Equal(t, 0, publisher.updateCount())
}

func TestInitializerReadFailureConsumesAttempt(t *testing.T) {
	b, transport, publisher := newTestBridge(t)
	transport.readErr = errors.New("read timeout")
	b.AddTypeMapper(switchMapper{})
	b.AddProvider(&fakeProvider{datapoints: []*types.Datapoint{
		stateDatapoint(t, "Light1", "1/0/1"),
	}})

	require.NoError(t, b.Start())
	defer b.Stop()

	require.Eventually(t, func() bool {
		return b.PendingCount() == 0
	}, time.Second, time.Millisecond)

	assert.Equal(t, 1, transport.readCount())
	assert.Equal(t, 0, publisher.updateCount())

	t.Run("failed datapoint is not retried", func(t *testing.T) {
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, 1, transport.readCount())
	})
}

func TestInitializerSkipsReadWhenTransportUnavailable(t *testing.T) {
	b, transport, publisher := newTestBridge(t)
	transport.available = false
	b.AddTypeMapper(switchMapper{})
	b.AddProvider(&fakeProvider{datapoints: []*types.Datapoint{
		stateDatapoint(t, "Light1", "1/0/1"),
	}})

	require.NoError(t, b.Start())
	defer b.Stop()

	require.Eventually(t, func() bool {
		return b.PendingCount() == 0
	}, time.Second, time.Millisecond)

	assert.Equal(t, 0, transport.readCount())
	assert.Equal(t, 0, publisher.updateCount())
}

func TestInitializerUndecodableReadIsDropped(t *testing.T) {
	b, transport, publisher := newTestBridge(t)
	transport.readData = []byte{0x01}
	// no mapper registered: the read succeeds but cannot be decoded
	b.AddProvider(&fakeProvider{datapoints: []*types.Datapoint{
		stateDatapoint(t, "Light1", "1/0/1"),
	}})

	require.NoError(t, b.Start())
	defer b.Stop()

	require.Eventually(t, func() bool {
		return b.PendingCount() == 0
	}, time.Second, time.Millisecond)

	assert.Equal(t, 1, transport.readCount())
	assert.Equal(t, 0, publisher.updateCount())
}

func TestInitializerPicksUpLateBindings(t *testing.T) {
	b, transport, publisher := newTestBridge(t)
	transport.readData = []byte{0x01}
	b.AddTypeMapper(switchMapper{})
	provider := &fakeProvider{datapoints: []*types.Datapoint{
		stateDatapoint(t, "Light1", "1/0/1"),
	}}
	b.AddProvider(provider)

	require.NoError(t, b.Start())
	defer b.Stop()

	require.Eventually(t, func() bool {
		return publisher.updateCount() == 1
	}, time.Second, time.Millisecond)

	// a binding change after startup is discovered on a later iteration
	provider.mu.Lock()
	provider.datapoints = append(provider.datapoints, stateDatapoint(t, "Light2", "1/0/2"))
	provider.mu.Unlock()
	provider.notifyItemChanged("Light2")

	require.Eventually(t, func() bool {
		return publisher.updateCount() == 2
	}, time.Second, time.Millisecond)

	assert.Equal(t, 0, b.PendingCount())
}

func TestInitializerDiscoveryRedeliveryIsSuppressed(t *testing.T) {
	b, transport, publisher := newTestBridge(t)
	transport.readData = []byte{0x01}
	b.AddTypeMapper(switchMapper{})
	b.AddProvider(&fakeProvider{datapoints: []*types.Datapoint{
		stateDatapoint(t, "Light1", "1/0/1"),
	}})

	// the application bus delivers the bridge's own publications back
	publisher.onPublish = func(item string, value types.Value) {
		b.OnUpdate(item, value)
	}

	require.NoError(t, b.Start())
	defer b.Stop()

	require.Eventually(t, func() bool {
		return publisher.updateCount() == 1 && b.PendingCount() == 0
	}, time.Second, time.Millisecond)

	// the discovered value must not bounce back onto the KNX bus
	assert.Equal(t, 0, transport.writeCount())
	assert.Equal(t, 0, b.SuppressedCount())
}

func TestInitializerStartStop(t *testing.T) {
	b, _, _ := newTestBridge(t)

	require.NoError(t, b.Start())
	assert.True(t, b.init.IsRunning())

	// Start is idempotent
	require.NoError(t, b.Start())

	b.Stop()
	assert.False(t, b.init.IsRunning())
}
