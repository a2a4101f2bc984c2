package bus

import (
	"encoding/json"
	"sync"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
	"go.uber.org/zap"
)

// EventSink receives commands and updates sent by connected clients.
// The bridge core implements it.
type EventSink interface {
	OnCommand(item string, value types.Value)
	OnUpdate(item string, value types.Value)
}

// Hub is the application bus: it maintains the active WebSocket
// clients, broadcasts bridged events to them and feeds their commands
// and updates into the event sink. It implements the bridge publisher.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex

	logger *zap.Logger

	sinkMu sync.RWMutex
	sink   EventSink
}

// NewHub creates a new Hub instance
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// SetEventSink attaches the receiver for inbound client events.
func (h *Hub) SetEventSink(sink EventSink) {
	h.sinkMu.Lock()
	h.sink = sink
	h.sinkMu.Unlock()
}

// PublishCommand broadcasts a bridged command to all clients. The
// publisher is a bus participant like any other: its publication is
// also delivered back into the sink, so the bridge sees its own
// events return and can consume the matching echo record.
func (h *Hub) PublishCommand(item string, value types.Value) {
	h.Broadcast(NewItemEventMessage(MessageTypeItemCommand, item, value))
	if sink := h.eventSink(); sink != nil {
		sink.OnCommand(item, value)
	}
}

// PublishStateUpdate broadcasts a bridged state update to all clients
// and delivers it back into the sink, see PublishCommand.
func (h *Hub) PublishStateUpdate(item string, value types.Value) {
	h.Broadcast(NewItemEventMessage(MessageTypeItemState, item, value))
	if sink := h.eventSink(); sink != nil {
		sink.OnUpdate(item, value)
	}
}

func (h *Hub) eventSink() EventSink {
	h.sinkMu.RLock()
	defer h.sinkMu.RUnlock()
	return h.sink
}

// Run starts the hub's main event loop
func (h *Hub) Run() {
	h.logger.Info("Application bus hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Bus client registered",
				zap.String("remote_addr", client.conn.RemoteAddr().String()),
				zap.Int("total_clients", len(h.clients)))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("Bus client unregistered",
					zap.String("remote_addr", client.conn.RemoteAddr().String()),
					zap.Int("total_clients", len(h.clients)))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			// full lock: slow clients get removed while iterating
			h.mu.Lock()
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error("Failed to marshal broadcast message",
					zap.Error(err))
				h.mu.Unlock()
				continue
			}

			for client := range h.clients {
				select {
				case client.send <- data:
					// Message sent successfully
				default:
					// Client send channel full - unregister slow/dead client
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("Client send buffer full, unregistering",
						zap.String("remote_addr", client.conn.RemoteAddr().String()))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
		// Message queued for broadcast
	default:
		h.logger.Warn("Hub broadcast channel full, message dropped",
			zap.String("message_type", string(msg.Type)))
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleInbound decodes a client event and feeds it into the sink.
func (h *Hub) handleInbound(event InboundEvent) {
	sink := h.eventSink()
	if sink == nil {
		return
	}

	value, err := types.ParseValue(types.ValueKind(event.Kind), event.Value)
	if err != nil {
		h.logger.Warn("Dropping undecodable client event",
			zap.String("item", event.Item),
			zap.String("kind", event.Kind),
			zap.Error(err))
		return
	}

	switch event.Type {
	case "command":
		sink.OnCommand(event.Item, value)
	case "update":
		sink.OnUpdate(event.Item, value)
	default:
		h.logger.Warn("Dropping client event with unknown type",
			zap.String("type", event.Type))
	}
}
