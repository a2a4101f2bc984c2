package system

import (
	"context"
	"time"

	"github.com/KevinKickass/OpenBusBridge/internal/bridge"
	"github.com/KevinKickass/OpenBusBridge/internal/storage"
	"github.com/KevinKickass/OpenBusBridge/internal/types"
	"go.uber.org/zap"
)

const journalTimeout = 2 * time.Second

// journalingPublisher decorates the bus publisher with a journal
// insert per published event. Journal failures are logged and never
// block or fail the publication itself.
type journalingPublisher struct {
	next    bridge.Publisher
	journal *storage.Journal
	logger  *zap.Logger
}

func newJournalingPublisher(next bridge.Publisher, journal *storage.Journal, logger *zap.Logger) *journalingPublisher {
	return &journalingPublisher{
		next:    next,
		journal: journal,
		logger:  logger,
	}
}

func (p *journalingPublisher) PublishCommand(item string, value types.Value) {
	p.record(storage.DirectionCommand, item, value)
	p.next.PublishCommand(item, value)
}

func (p *journalingPublisher) PublishStateUpdate(item string, value types.Value) {
	p.record(storage.DirectionState, item, value)
	p.next.PublishStateUpdate(item, value)
}

func (p *journalingPublisher) record(direction, item string, value types.Value) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	if err := p.journal.Record(ctx, direction, item, value.String()); err != nil {
		p.logger.Warn("Failed to journal bridge event",
			zap.String("item", item),
			zap.Error(err))
	}
}
