package interfaces

import (
	"context"

	"github.com/KevinKickass/OpenBusBridge/internal/bridge"
	"github.com/KevinKickass/OpenBusBridge/internal/bus"
	"github.com/KevinKickass/OpenBusBridge/internal/config"
	"github.com/KevinKickass/OpenBusBridge/internal/storage"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State             string `json:"state"`
	Providers         int    `json:"providers"`
	TypeMappers       int    `json:"type_mappers"`
	PendingDatapoints int    `json:"pending_datapoints"`
	SuppressedEchoes  int    `json:"suppressed_echoes"`
	KNXConnected      bool   `json:"knx_connected"`
	BusClients        int    `json:"bus_clients"`
}

type LifecycleManager interface {
	Config() *config.Config
	Bridge() *bridge.Bridge
	Transport() bridge.Transport
	Hub() *bus.Hub
	Journal() *storage.Journal // nil when journaling is disabled
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
