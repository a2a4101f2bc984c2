package bus

import (
	"time"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Bridged events
	MessageTypeItemCommand MessageType = "item_command"
	MessageTypeItemState   MessageType = "item_state"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// ItemEventData represents one bridged item event
type ItemEventData struct {
	Item  string `json:"item"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// InboundEvent is a command or update sent by a connected client
type InboundEvent struct {
	Type  string `json:"type"` // "command" or "update"
	Item  string `json:"item"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewItemEventMessage(msgType MessageType, item string, value types.Value) Message {
	return NewMessage(msgType, ItemEventData{
		Item:  item,
		Kind:  string(value.Kind()),
		Value: value.String(),
	})
}
