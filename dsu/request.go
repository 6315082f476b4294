package dsu

import (
	"net"

	"github.com/padlink/dsubridge/controller"
)

const (
	padDataRequestSize = 8
	macSize            = 6
)

// PortsRequest asks for the port info of up to four slots.
type PortsRequest struct {
	IDs []uint8
}

// DecodePortsRequest parses an i32 count followed by count slot ids. Ids are
// returned as sent; the caller skips the ones it has no slot for.
func DecodePortsRequest(body []byte) (PortsRequest, error) {
	if len(body) < 4 {
		return PortsRequest{}, &DecodeError{Reason: ReasonBody, Detail: "ports request too short"}
	}
	count := int32(le.Uint32(body))
	if count < 0 || count > controller.MaxPads {
		return PortsRequest{}, &DecodeError{Reason: ReasonBody, Detail: "invalid port count " + itoa(int(count))}
	}
	if len(body) < 4+int(count) {
		return PortsRequest{}, &DecodeError{Reason: ReasonBody, Detail: "missing port ids"}
	}
	ids := make([]uint8, count)
	copy(ids, body[4:4+count])
	return PortsRequest{IDs: ids}, nil
}

// EncodePortsRequest builds a client ports request.
func EncodePortsRequest(clientID uint32, ids ...uint8) []byte {
	body := make([]byte, 4+len(ids))
	le.PutUint32(body, uint32(len(ids)))
	copy(body[4:], ids)
	return Encode(MagicClient, clientID, MessagePorts, body)
}

// PadDataRequest subscribes the sender to pad data.
type PadDataRequest struct {
	Flags RegisterFlags
	PadID uint8
	// MAC in colon notation.
	MAC string
}

func DecodePadDataRequest(body []byte) (PadDataRequest, error) {
	if len(body) < padDataRequestSize {
		return PadDataRequest{}, &DecodeError{Reason: ReasonBody, Detail: "pad data request too short"}
	}
	return PadDataRequest{
		Flags: RegisterFlags(body[0]),
		PadID: body[1],
		MAC:   net.HardwareAddr(body[2 : 2+macSize]).String(),
	}, nil
}

// EncodePadDataRequest builds a client pad data request. An unparsable mac is
// sent as zeros.
func EncodePadDataRequest(clientID uint32, flags RegisterFlags, padID uint8, mac string) []byte {
	body := make([]byte, padDataRequestSize)
	body[0] = byte(flags)
	body[1] = padID
	putMAC(body[2:], mac)
	return Encode(MagicClient, clientID, MessagePadData, body)
}

// EncodeVersionRequest builds a client version request.
func EncodeVersionRequest(clientID uint32) []byte {
	return Encode(MagicClient, clientID, MessageVersion, nil)
}

func putMAC(b []byte, mac string) {
	hw, err := net.ParseMAC(mac)
	if err != nil || len(hw) != macSize {
		return
	}
	copy(b, hw)
}
