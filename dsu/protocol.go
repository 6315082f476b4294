// Package dsu implements the DSU (cemuhook) UDP wire format: packet framing,
// request decoding and response encoding.
//
// All multi-byte fields are little endian.
//
//	 0  4 byte magic "DSUC" (client) / "DSUS" (server)
//	 4  2 byte protocol version
//	 6  2 byte length of the packet after the header
//	 8  4 byte crc32 (IEEE) of the whole packet with this field zeroed
//	12  4 byte sender id
//	16  4 byte message type
//	20  message body
package dsu

import (
	"encoding/binary"
	"hash/crc32"
)

const (
	MagicClient = "DSUC"
	MagicServer = "DSUS"

	// ProtocolVersion is the highest protocol version understood.
	ProtocolVersion uint16 = 1001

	// HeaderSize is the size of the framing header; Length counts every byte after it.
	HeaderSize = 16
	// MessageHeaderSize is HeaderSize plus the message type.
	MessageHeaderSize = HeaderSize + 4

	DefaultPort = 26760
)

// MessageType identifies the body of a packet.
type MessageType uint32

const (
	MessageVersion MessageType = 0x100000
	MessagePorts   MessageType = 0x100001
	MessagePadData MessageType = 0x100002
)

func (t MessageType) String() string {
	switch t {
	case MessageVersion:
		return "version"
	case MessagePorts:
		return "ports"
	case MessagePadData:
		return "pad-data"
	}
	return "unknown"
}

// RegisterFlags selects the scope of a pad data request. Zero means all pads;
// the id and mac bits may be combined.
type RegisterFlags uint8

const (
	RegisterAll RegisterFlags = 0x00
	RegisterID  RegisterFlags = 0x01
	RegisterMAC RegisterFlags = 0x02
)

const (
	offMagic    = 0
	offVersion  = 4
	offLength   = 6
	offCRC      = 8
	offSenderID = 12
	offType     = 16
)

var le = binary.LittleEndian

// Packet is a decoded, validated packet.
type Packet struct {
	Magic    string
	Version  uint16
	SenderID uint32
	Type     MessageType
	Body     []byte
}

// Decode validates a client packet and returns it. The body aliases buf.
func Decode(buf []byte) (*Packet, error) {
	return decode(buf, MagicClient)
}

// DecodeResponse validates a server packet, for use by DSU clients.
func DecodeResponse(buf []byte) (*Packet, error) {
	return decode(buf, MagicServer)
}

func decode(buf []byte, magic string) (*Packet, error) {
	n := len(buf)
	if n < MessageHeaderSize {
		return nil, &DecodeError{Reason: ReasonLength, Detail: "packet too short"}
	}
	if string(buf[offMagic:offMagic+4]) != magic {
		return nil, &DecodeError{Reason: ReasonMagic}
	}
	version := le.Uint16(buf[offVersion:])
	if version > ProtocolVersion {
		return nil, &DecodeError{Reason: ReasonVersion, Detail: itoa(int(version))}
	}
	if int(le.Uint16(buf[offLength:]))+HeaderSize != n {
		return nil, &DecodeError{Reason: ReasonLength, Detail: itoa(int(le.Uint16(buf[offLength:])))}
	}
	if want := le.Uint32(buf[offCRC:]); checksum(buf) != want {
		return nil, &DecodeError{Reason: ReasonCRC}
	}

	p := &Packet{
		Magic:    magic,
		Version:  version,
		SenderID: le.Uint32(buf[offSenderID:]),
		Type:     MessageType(le.Uint32(buf[offType:])),
		Body:     buf[MessageHeaderSize:],
	}
	switch p.Type {
	case MessageVersion, MessagePorts, MessagePadData:
	default:
		return nil, &DecodeError{Reason: ReasonType, Detail: itoa(int(p.Type))}
	}
	return p, nil
}

// checksum computes the packet CRC as if the CRC field were zero, without
// modifying buf.
func checksum(buf []byte) uint32 {
	var zero [4]byte
	h := crc32.NewIEEE()
	_, _ = h.Write(buf[:offCRC])
	_, _ = h.Write(zero[:])
	_, _ = h.Write(buf[offCRC+4:])
	return h.Sum32()
}

// Encode frames body as a packet of type t.
func Encode(magic string, senderID uint32, t MessageType, body []byte) []byte {
	buf := make([]byte, MessageHeaderSize+len(body))
	copy(buf[offMagic:], magic)
	le.PutUint16(buf[offVersion:], ProtocolVersion)
	le.PutUint16(buf[offLength:], uint16(len(buf)-HeaderSize))
	le.PutUint32(buf[offSenderID:], senderID)
	le.PutUint32(buf[offType:], uint32(t))
	copy(buf[MessageHeaderSize:], body)
	le.PutUint32(buf[offCRC:], checksum(buf))
	return buf
}
