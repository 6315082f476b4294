package apitypes

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ApiError represents an RFC 7807 (problem+json) error response.
type ApiError struct {
	// Status is the HTTP-style status code (e.g., 400, 404, 500)
	Status int `json:"status"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Detail is a human-readable explanation specific to this occurrence
	Detail string `json:"detail"`
}

func (e ApiError) Error() string {
	if e.Status == 0 && e.Title == "" {
		return "unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// --

type PingResponse struct {
	Server   string `json:"server"`
	Version  string `json:"version"`
	ServerID uint32 `json:"serverId"`
	DSUAddr  string `json:"dsuAddr,omitempty"`
}

// FilterConfig selects the motion filter of a pad. Type is one of
// "disabled" or "low-high-pass".
type FilterConfig struct {
	Type   string    `json:"type"`
	Params []float64 `json:"params"`
}

type Pad struct {
	Slot           uint8        `json:"slot"`
	State          string       `json:"state"`
	Model          uint8        `json:"model"`
	ConnectionType uint8        `json:"connectionType"`
	MAC            string       `json:"mac"`
	Battery        uint8        `json:"battery"`
	Active         bool         `json:"active"`
	Info           string       `json:"info,omitempty"`
	Filter         FilterConfig `json:"filter"`
	PacketCounter  uint32       `json:"packetCounter"`
}

type PadListResponse struct {
	Pads []Pad `json:"pads"`
}

type PadCloseResponse struct {
	Slot uint8 `json:"slot"`
}

type PadFilterResponse struct {
	Slot   uint8        `json:"slot"`
	Filter FilterConfig `json:"filter"`
}

type Client struct {
	Addr     string    `json:"addr"`
	ClientID uint32    `json:"clientId"`
	All      bool      `json:"all"`
	Slots    []int     `json:"slots"`
	MACs     []string  `json:"macs"`
	LastSeen time.Time `json:"lastSeen"`
	Sent     uint64    `json:"sent"`
}

type ClientListResponse struct {
	Clients []Client `json:"clients"`
}

type Adapter struct {
	Name      string `json:"name"`
	FrameSize int    `json:"frameSize"`
}

type AdapterListResponse struct {
	Adapters []Adapter `json:"adapters"`
}

// PadStreamResponse is the single line the server writes when a stream is
// accepted. Raw adapter frames follow from the client afterwards.
type PadStreamResponse struct {
	Slot    uint8  `json:"slot"`
	Adapter string `json:"adapter"`
}

// PadStreamRequest is the optional payload of a pad stream request.
type PadStreamRequest struct {
	MAC            string `json:"mac,omitempty"`
	ConnectionType *uint8 `json:"connectionType,omitempty"`
}

// UnmarshalJSON accepts connectionType as a number or as one of
// "none", "usb" and "bluetooth".
func (p *PadStreamRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		MAC            string `json:"mac,omitempty"`
		ConnectionType any    `json:"connectionType,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.MAC = raw.MAC
	p.ConnectionType = nil
	if raw.ConnectionType != nil {
		val, err := parseConnectionType(raw.ConnectionType)
		if err != nil {
			return fmt.Errorf("connectionType: %w", err)
		}
		p.ConnectionType = &val
	}
	return nil
}

func parseConnectionType(v any) (uint8, error) {
	switch val := v.(type) {
	case float64:
		if val < 0 || val > 2 || val != float64(uint8(val)) {
			return 0, fmt.Errorf("value %v out of range", val)
		}
		return uint8(val), nil
	case string:
		switch s := strings.ToLower(strings.TrimSpace(val)); s {
		case "none":
			return 0, nil
		case "usb":
			return 1, nil
		case "bluetooth", "bt":
			return 2, nil
		default:
			n, err := strconv.ParseUint(s, 10, 8)
			if err != nil || n > 2 {
				return 0, fmt.Errorf("unknown connection type %q", val)
			}
			return uint8(n), nil
		}
	default:
		return 0, fmt.Errorf("expected number or string, got %T", v)
	}
}
