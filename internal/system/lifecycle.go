package system

import (
	"context"
	"sync"

	"github.com/KevinKickass/OpenBusBridge/internal/api/rest"
	"github.com/KevinKickass/OpenBusBridge/internal/auth"
	"github.com/KevinKickass/OpenBusBridge/internal/bindings"
	"github.com/KevinKickass/OpenBusBridge/internal/bridge"
	"github.com/KevinKickass/OpenBusBridge/internal/bus"
	"github.com/KevinKickass/OpenBusBridge/internal/config"
	"github.com/KevinKickass/OpenBusBridge/internal/interfaces"
	"github.com/KevinKickass/OpenBusBridge/internal/knx"
	"github.com/KevinKickass/OpenBusBridge/internal/mappers"
	"github.com/KevinKickass/OpenBusBridge/internal/storage"
	"go.uber.org/zap"
)

type LifecycleManager struct {
	config    *config.Config
	logger    *zap.Logger
	journal   *storage.Journal
	transport *knx.Client
	hub       *bus.Hub
	bridge    *bridge.Bridge
	provider  *bindings.FileProvider

	restServer *rest.Server

	stateMu      sync.RWMutex
	currentState SystemState

	shutdownOnce sync.Once
}

func NewLifecycleManager(db *storage.PostgresClient, cfg *config.Config, logger *zap.Logger) *LifecycleManager {
	transport := knx.NewClient(cfg.KNX.Gateway, cfg.KNX.Timeout, cfg.KNX.ResponseTimeout, logger)
	hub := bus.NewHub(logger)

	var journal *storage.Journal
	var publisher bridge.Publisher = hub
	if db != nil {
		journal = storage.NewJournal(db)
		publisher = newJournalingPublisher(hub, journal, logger)
	}

	br := bridge.New(transport, publisher, cfg.Bridge.PollInterval, cfg.Bridge.ReadingPause, logger)

	// both external event sources deliver into the bridge
	hub.SetEventSink(br)
	transport.SetTelegramHandler(br.OnTelegram)

	return &LifecycleManager{
		config:       cfg,
		logger:       logger,
		journal:      journal,
		transport:    transport,
		hub:          hub,
		bridge:       br,
		currentState: StateInitializing,
	}
}

// Start starts the entire system
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting OpenBusBridge")

	lm.setState(StateInitializing)

	if lm.journal != nil {
		if err := lm.journal.EnsureSchema(context.Background()); err != nil {
			lm.logger.Warn("Failed to prepare journal schema", zap.Error(err))
			// Continue anyway, not critical
		}
	}

	// the bridge keeps working without a gateway: writes are skipped
	// and queued discovery reads consume their single attempt unread
	if err := lm.transport.Connect(); err != nil {
		lm.logger.Warn("KNX gateway not reachable, continuing without connection",
			zap.String("gateway", lm.config.KNX.Gateway),
			zap.Error(err))
	}

	go lm.hub.Run()

	for _, m := range mappers.All() {
		lm.bridge.AddTypeMapper(m)
	}

	provider, err := bindings.NewFileProvider(lm.config.Bindings.SearchPaths, lm.logger)
	if err != nil {
		lm.setState(StateError)
		return err
	}
	lm.provider = provider
	lm.bridge.AddProvider(provider)

	if err := lm.bridge.Start(); err != nil {
		lm.setState(StateError)
		return err
	}

	if err := lm.startRESTServer(); err != nil {
		lm.setState(StateError)
		return err
	}

	lm.setState(StateRunning)

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.String("knx_gateway", lm.config.KNX.Gateway),
		zap.Int("datapoints", len(lm.bridge.ReadableDatapoints())))

	return nil
}

func (lm *LifecycleManager) startRESTServer() error {
	tokenHandler := auth.NewTokenHandler(lm.config.Auth.GetJWTSecret(), lm.config.Auth.TokenTTL)
	lm.restServer = rest.NewServer(lm.config, lm, lm.logger, tokenHandler)
	return lm.restServer.Start()
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		lm.setState(StateStopping)

		if lm.restServer != nil {
			if err := lm.restServer.Shutdown(ctx); err != nil {
				lm.logger.Error("REST API shutdown failed", zap.Error(err))
				shutdownErr = err
			}
		}

		// stops the initializer worker and detaches all providers
		lm.bridge.Stop()

		if err := lm.transport.Close(); err != nil {
			lm.logger.Error("Failed to close KNX connection", zap.Error(err))
		}

		lm.setState(StateStopped)

		lm.logger.Info("Graceful shutdown completed")
	})

	return shutdownErr
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	lm.currentState = state
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()

	return interfaces.SystemStatus{
		State:             lm.currentState.String(),
		Providers:         lm.bridge.ProviderCount(),
		TypeMappers:       lm.bridge.MapperCount(),
		PendingDatapoints: lm.bridge.PendingCount(),
		SuppressedEchoes:  lm.bridge.SuppressedCount(),
		KNXConnected:      lm.transport.Available(),
		BusClients:        lm.hub.GetClientCount(),
	}
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

// Bridge returns the bridge core
func (lm *LifecycleManager) Bridge() *bridge.Bridge {
	return lm.bridge
}

// Transport returns the KNX transport
func (lm *LifecycleManager) Transport() bridge.Transport {
	return lm.transport
}

// Hub returns the application bus hub
func (lm *LifecycleManager) Hub() *bus.Hub {
	return lm.hub
}

// Journal returns the event journal, or nil when disabled
func (lm *LifecycleManager) Journal() *storage.Journal {
	return lm.journal
}

// Provider returns the file-backed binding provider
func (lm *LifecycleManager) Provider() *bindings.FileProvider {
	return lm.provider
}
