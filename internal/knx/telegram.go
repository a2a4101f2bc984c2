package knx

import (
	"encoding/binary"
	"fmt"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
)

// KNXnet/IP Header (6 Bytes) + Connection Header (4 Bytes) + cEMI Frame
const (
	headerLength    = 0x06
	protocolVersion = 0x10
	connHeaderLen   = 0x04
)

// KNXnet/IP Service Types
const (
	ServiceTunnelingRequest = 0x0420
	ServiceTunnelingAck     = 0x0421
)

// cEMI Message Codes
const (
	MsgDataRequest    = 0x11 // L_Data.req
	MsgDataIndication = 0x29 // L_Data.ind
	MsgDataConfirm    = 0x2E // L_Data.con
)

// APCI Services (4 bit, in den TPCI/APCI Octets kodiert)
const (
	APCIGroupRead     = 0x0
	APCIGroupResponse = 0x1
	APCIGroupWrite    = 0x2
)

// Control fields für Standard-Frames: Gruppentelegramm, normale Priorität
const (
	ctrl1Standard = 0xBC
	ctrl2Group    = 0xE0
)

// Telegram ist ein cEMI L_Data Frame für Gruppenkommunikation
type Telegram struct {
	MessageCode uint8
	Source      uint16 // Individual Address des Senders
	Destination types.GroupAddress
	APCI        uint8
	Data        []byte // Application Data (leer bei GroupValueRead)
}

// TunnelFrame ist ein komplettes KNXnet/IP Tunneling Request Frame
type TunnelFrame struct {
	Channel   uint8
	SeqNumber uint8
	Telegram  *Telegram
}

// Encode erstellt das komplette Frame (Header + Connection Header + cEMI)
func (f *TunnelFrame) Encode() []byte {
	cemi := f.Telegram.encodeCEMI()
	total := headerLength + connHeaderLen + len(cemi)

	frame := make([]byte, headerLength+connHeaderLen, total)

	// KNXnet/IP Header
	frame[0] = headerLength
	frame[1] = protocolVersion
	binary.BigEndian.PutUint16(frame[2:4], ServiceTunnelingRequest)
	binary.BigEndian.PutUint16(frame[4:6], uint16(total))

	// Connection Header
	frame[6] = connHeaderLen
	frame[7] = f.Channel
	frame[8] = f.SeqNumber
	frame[9] = 0x00 // reserved

	return append(frame, cemi...)
}

func (t *Telegram) encodeCEMI() []byte {
	// Werte bis 6 Bit werden direkt im zweiten APCI Octet transportiert
	small := len(t.Data) == 1 && t.Data[0] < 0x40

	apduLen := 1 + len(t.Data)
	if small || len(t.Data) == 0 {
		apduLen = 1
	}

	cemi := make([]byte, 9, 9+apduLen+1)
	cemi[0] = t.MessageCode
	cemi[1] = 0x00 // keine Additional Info
	cemi[2] = ctrl1Standard
	cemi[3] = ctrl2Group
	binary.BigEndian.PutUint16(cemi[4:6], t.Source)
	binary.BigEndian.PutUint16(cemi[6:8], uint16(t.Destination))
	cemi[8] = uint8(apduLen)

	apci2 := t.APCI << 6 // untere 2 Bit des APCI sitzen im oberen Teil des Octets
	switch {
	case small:
		cemi = append(cemi, 0x00, apci2|t.Data[0])
	case len(t.Data) == 0:
		cemi = append(cemi, 0x00, apci2)
	default:
		cemi = append(cemi, 0x00, apci2)
		cemi = append(cemi, t.Data...)
	}

	return cemi
}

// DecodeTunnelFrame parst ein empfangenes Tunneling Request Frame
func DecodeTunnelFrame(data []byte) (*TunnelFrame, error) {
	if len(data) < headerLength+connHeaderLen {
		return nil, fmt.Errorf("frame too short: %d bytes", len(data))
	}

	if data[0] != headerLength || data[1] != protocolVersion {
		return nil, fmt.Errorf("invalid header: 0x%02X 0x%02X", data[0], data[1])
	}

	service := binary.BigEndian.Uint16(data[2:4])
	if service != ServiceTunnelingRequest {
		return nil, fmt.Errorf("unexpected service type: 0x%04X", service)
	}

	total := binary.BigEndian.Uint16(data[4:6])
	if int(total) > len(data) {
		return nil, fmt.Errorf("incomplete frame: expected %d bytes, got %d", total, len(data))
	}

	telegram, err := decodeCEMI(data[headerLength+connHeaderLen : total])
	if err != nil {
		return nil, err
	}

	return &TunnelFrame{
		Channel:   data[7],
		SeqNumber: data[8],
		Telegram:  telegram,
	}, nil
}

func decodeCEMI(data []byte) (*Telegram, error) {
	if len(data) < 11 {
		return nil, fmt.Errorf("cEMI frame too short: %d bytes", len(data))
	}

	addInfoLen := int(data[1])
	if len(data) < 11+addInfoLen {
		return nil, fmt.Errorf("incomplete cEMI frame")
	}
	body := data[2+addInfoLen:]

	t := &Telegram{
		MessageCode: data[0],
		Source:      binary.BigEndian.Uint16(body[2:4]),
		Destination: types.GroupAddress(binary.BigEndian.Uint16(body[4:6])),
	}

	apduLen := int(body[6])
	apdu := body[7:]
	if len(apdu) < apduLen+1 {
		return nil, fmt.Errorf("incomplete APDU: expected %d bytes", apduLen+1)
	}

	t.APCI = (apdu[1] >> 6) & 0x03

	switch {
	case apduLen == 1 && t.APCI != APCIGroupRead:
		// 6-Bit Wert im APCI Octet
		t.Data = []byte{apdu[1] & 0x3F}
	case apduLen > 1:
		t.Data = apdu[2 : 1+apduLen]
	}

	return t, nil
}

// AckFrame erstellt das Tunneling Ack für eine empfangene Sequenznummer
func AckFrame(channel, seq uint8) []byte {
	frame := make([]byte, 10)
	frame[0] = headerLength
	frame[1] = protocolVersion
	binary.BigEndian.PutUint16(frame[2:4], ServiceTunnelingAck)
	binary.BigEndian.PutUint16(frame[4:6], 10)
	frame[6] = connHeaderLen
	frame[7] = channel
	frame[8] = seq
	frame[9] = 0x00 // status: no error
	return frame
}

// GroupWriteTelegram erstellt ein L_Data.req für GroupValueWrite
func GroupWriteTelegram(destination types.GroupAddress, data []byte) *Telegram {
	return &Telegram{
		MessageCode: MsgDataRequest,
		Destination: destination,
		APCI:        APCIGroupWrite,
		Data:        data,
	}
}

// GroupReadTelegram erstellt ein L_Data.req für GroupValueRead
func GroupReadTelegram(destination types.GroupAddress) *Telegram {
	return &Telegram{
		MessageCode: MsgDataRequest,
		Destination: destination,
		APCI:        APCIGroupRead,
	}
}
