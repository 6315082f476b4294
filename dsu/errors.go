package dsu

import (
	"fmt"
	"strconv"
)

// Reason classifies why a packet was rejected.
type Reason string

const (
	ReasonMagic   Reason = "bad magic"
	ReasonVersion Reason = "unsupported version"
	ReasonLength  Reason = "bad length"
	ReasonCRC     Reason = "bad crc"
	ReasonType    Reason = "unknown message type"
	ReasonBody    Reason = "malformed body"
)

// DecodeError is returned for packets that must be dropped.
type DecodeError struct {
	Reason Reason
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("dsu: %s", e.Reason)
	}
	return fmt.Sprintf("dsu: %s (%s)", e.Reason, e.Detail)
}

func itoa(v int) string { return strconv.Itoa(v) }
