package knx

import (
	"testing"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress(t *testing.T) types.GroupAddress {
	t.Helper()
	addr, err := types.ParseGroupAddress("1/0/1")
	require.NoError(t, err)
	return addr
}

func TestTunnelFrameEncodeLayout(t *testing.T) {
	frame := &TunnelFrame{
		Channel:   0x01,
		SeqNumber: 0x05,
		Telegram:  GroupWriteTelegram(testAddress(t), []byte{0x01}),
	}

	want := []byte{
		0x06, 0x10, // Header Length, Protocol Version
		0x04, 0x20, // Tunneling Request
		0x00, 0x15, // Total Length (21)
		0x04, 0x01, 0x05, 0x00, // Connection Header
		0x11,       // L_Data.req
		0x00,       // keine Additional Info
		0xBC, 0xE0, // Control Fields
		0x00, 0x00, // Source
		0x08, 0x01, // Destination 1/0/1
		0x01,       // APDU Length
		0x00, 0x81, // TPCI, APCI GroupValueWrite mit 6-Bit Wert 0x01
	}

	assert.Equal(t, want, frame.Encode())
}

func TestTunnelFrameRoundtrip(t *testing.T) {
	cases := []struct {
		name     string
		telegram *Telegram
	}{
		{
			name:     "small value embedded in the APCI octet",
			telegram: GroupWriteTelegram(testAddress(t), []byte{0x01}),
		},
		{
			name:     "one byte above the 6 bit limit",
			telegram: GroupWriteTelegram(testAddress(t), []byte{0x80}),
		},
		{
			name:     "two byte float payload",
			telegram: GroupWriteTelegram(testAddress(t), []byte{0x0C, 0x1A}),
		},
		{
			name:     "fourteen byte string payload",
			telegram: GroupWriteTelegram(testAddress(t), append([]byte("Hello"), make([]byte, 9)...)),
		},
		{
			name: "indication with source address",
			telegram: &Telegram{
				MessageCode: MsgDataIndication,
				Source:      0x110A,
				Destination: testAddress(t),
				APCI:        APCIGroupWrite,
				Data:        []byte{0x3F},
			},
		},
		{
			name: "group response",
			telegram: &Telegram{
				MessageCode: MsgDataIndication,
				Destination: testAddress(t),
				APCI:        APCIGroupResponse,
				Data:        []byte{0x00},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame := &TunnelFrame{Channel: 0x02, SeqNumber: 0x07, Telegram: tc.telegram}

			decoded, err := DecodeTunnelFrame(frame.Encode())
			require.NoError(t, err)

			assert.Equal(t, uint8(0x02), decoded.Channel)
			assert.Equal(t, uint8(0x07), decoded.SeqNumber)
			assert.Equal(t, tc.telegram.MessageCode, decoded.Telegram.MessageCode)
			assert.Equal(t, tc.telegram.Source, decoded.Telegram.Source)
			assert.Equal(t, tc.telegram.Destination, decoded.Telegram.Destination)
			assert.Equal(t, tc.telegram.APCI, decoded.Telegram.APCI)
			assert.Equal(t, tc.telegram.Data, decoded.Telegram.Data)
		})
	}
}

func TestGroupReadTelegramRoundtrip(t *testing.T) {
	frame := &TunnelFrame{Channel: 0x01, SeqNumber: 0x00, Telegram: GroupReadTelegram(testAddress(t))}

	decoded, err := DecodeTunnelFrame(frame.Encode())
	require.NoError(t, err)

	assert.Equal(t, uint8(APCIGroupRead), decoded.Telegram.APCI)
	assert.Empty(t, decoded.Telegram.Data)
}

func TestDecodeTunnelFrameErrors(t *testing.T) {
	valid := (&TunnelFrame{Channel: 1, Telegram: GroupWriteTelegram(testAddress(t), []byte{0x01})}).Encode()

	t.Run("too short", func(t *testing.T) {
		_, err := DecodeTunnelFrame(valid[:5])
		assert.Error(t, err)
	})

	t.Run("bad header", func(t *testing.T) {
		bad := append([]byte(nil), valid...)
		bad[0] = 0x05
		_, err := DecodeTunnelFrame(bad)
		assert.Error(t, err)
	})

	t.Run("wrong protocol version", func(t *testing.T) {
		bad := append([]byte(nil), valid...)
		bad[1] = 0x20
		_, err := DecodeTunnelFrame(bad)
		assert.Error(t, err)
	})

	t.Run("unexpected service type", func(t *testing.T) {
		_, err := DecodeTunnelFrame(AckFrame(1, 0))
		assert.Error(t, err)
	})

	t.Run("truncated cEMI", func(t *testing.T) {
		_, err := DecodeTunnelFrame(valid[:12])
		assert.Error(t, err)
	})
}

func TestAckFrameLayout(t *testing.T) {
	want := []byte{
		0x06, 0x10,
		0x04, 0x21, // Tunneling Ack
		0x00, 0x0A,
		0x04, 0x03, 0x09, 0x00,
	}
	assert.Equal(t, want, AckFrame(0x03, 0x09))
}
