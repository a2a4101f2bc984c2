package knx

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
	"go.uber.org/zap"
)

// TelegramHandler receives unsolicited group writes from the bus.
type TelegramHandler func(destination types.GroupAddress, data []byte)

// Client is a KNXnet/IP tunneling client. It implements the bridge
// transport: group writes, blocking group reads and reconnect requests.
type Client struct {
	address         string
	timeout         time.Duration
	responseTimeout time.Duration
	logger          *zap.Logger

	mu        sync.Mutex
	conn      net.Conn
	seq       uint8
	channel   uint8
	connected bool

	reconnectMu  sync.Mutex
	reconnecting bool

	handlerMu sync.RWMutex
	handler   TelegramHandler

	waitersMu sync.Mutex
	waiters   map[types.GroupAddress]chan []byte
}

func NewClient(address string, timeout, responseTimeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		address:         address,
		timeout:         timeout,
		responseTimeout: responseTimeout,
		logger:          logger,
		channel:         0x01,
		waiters:         make(map[types.GroupAddress]chan []byte),
	}
}

// Connect stellt die TCP-Verbindung zum Gateway her und startet den Read-Loop
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	conn, err := net.DialTimeout("tcp", c.address, c.timeout)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	c.conn = conn
	c.connected = true
	c.seq = 0

	go c.readLoop(conn)

	c.logger.Info("Connected to KNX gateway", zap.String("gateway", c.address))

	return nil
}

// Close schließt die Verbindung
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}

	err := c.conn.Close()
	c.connected = false
	c.conn = nil

	return err
}

// Available reports whether the gateway connection is up.
func (c *Client) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SetTelegramHandler registers the receiver for incoming group writes.
func (c *Client) SetTelegramHandler(handler TelegramHandler) {
	c.handlerMu.Lock()
	c.handler = handler
	c.handlerMu.Unlock()
}

// GroupWrite sends a GroupValueWrite for the datapoint's address.
func (c *Client) GroupWrite(dp *types.Datapoint, data []byte) error {
	return c.send(GroupWriteTelegram(dp.Address, data))
}

// GroupRead sends a GroupValueRead and blocks until the matching
// GroupValueResponse arrives or the response timeout elapses.
func (c *Client) GroupRead(dp *types.Datapoint) ([]byte, error) {
	ch := make(chan []byte, 1)

	c.waitersMu.Lock()
	if _, exists := c.waiters[dp.Address]; exists {
		c.waitersMu.Unlock()
		return nil, fmt.Errorf("read already pending for %s", dp.Address)
	}
	c.waiters[dp.Address] = ch
	c.waitersMu.Unlock()

	defer func() {
		c.waitersMu.Lock()
		delete(c.waiters, dp.Address)
		c.waitersMu.Unlock()
	}()

	if err := c.send(GroupReadTelegram(dp.Address)); err != nil {
		return nil, err
	}

	select {
	case data := <-ch:
		return data, nil
	case <-time.After(c.responseTimeout):
		return nil, fmt.Errorf("read timeout for %s", dp.Address)
	}
}

// RequestReconnect schedules an asynchronous redial of the gateway.
// Concurrent requests collapse into a single attempt.
func (c *Client) RequestReconnect() {
	c.reconnectMu.Lock()
	if c.reconnecting {
		c.reconnectMu.Unlock()
		return
	}
	c.reconnecting = true
	c.reconnectMu.Unlock()

	go func() {
		defer func() {
			c.reconnectMu.Lock()
			c.reconnecting = false
			c.reconnectMu.Unlock()
		}()

		c.logger.Info("Reconnecting to KNX gateway", zap.String("gateway", c.address))

		if err := c.Close(); err != nil {
			c.logger.Warn("Close before reconnect failed", zap.Error(err))
		}
		if err := c.Connect(); err != nil {
			c.logger.Error("Reconnect to KNX gateway failed",
				zap.String("gateway", c.address),
				zap.Error(err))
		}
	}()
}

func (c *Client) send(t *Telegram) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	frame := &TunnelFrame{
		Channel:   c.channel,
		SeqNumber: c.seq,
		Telegram:  t,
	}
	c.seq++

	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))

	if _, err := c.conn.Write(frame.Encode()); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	return nil
}

// readLoop empfängt Frames bis die Verbindung geschlossen wird
func (c *Client) readLoop(conn net.Conn) {
	buffer := make([]byte, 512)

	for {
		n, err := conn.Read(buffer)
		if err != nil {
			c.mu.Lock()
			// nur als Verbindungsabbruch werten wenn dies noch die aktive Verbindung ist
			if c.conn == conn {
				c.connected = false
				c.conn = nil
			}
			c.mu.Unlock()
			c.logger.Warn("KNX gateway connection lost", zap.Error(err))
			return
		}

		frame, err := DecodeTunnelFrame(buffer[:n])
		if err != nil {
			c.logger.Debug("Ignoring undecodable frame", zap.Error(err))
			continue
		}

		c.acknowledge(conn, frame)
		c.dispatch(frame.Telegram)
	}
}

func (c *Client) acknowledge(conn net.Conn, frame *TunnelFrame) {
	conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := conn.Write(AckFrame(frame.Channel, frame.SeqNumber)); err != nil {
		c.logger.Debug("Failed to send tunneling ack", zap.Error(err))
	}
}

func (c *Client) dispatch(t *Telegram) {
	if t.MessageCode != MsgDataIndication {
		return
	}

	switch t.APCI {
	case APCIGroupResponse:
		c.waitersMu.Lock()
		ch, ok := c.waiters[t.Destination]
		c.waitersMu.Unlock()
		if ok {
			select {
			case ch <- t.Data:
			default:
			}
		}

	case APCIGroupWrite:
		c.handlerMu.RLock()
		handler := c.handler
		c.handlerMu.RUnlock()
		if handler != nil {
			handler(t.Destination, t.Data)
		}
	}
}
