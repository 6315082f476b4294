package testing

import (
	"errors"
	"net"
	"os"
	"testing"
	"time"
)

// DSUClient is a raw UDP peer for talking to a DSU server in tests.
type DSUClient struct {
	t    *testing.T
	conn *net.UDPConn
}

// DialDSU connects a UDP socket to addr; it is closed when the test ends.
func DialDSU(t *testing.T, addr *net.UDPAddr) *DSUClient {
	t.Helper()
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		t.Fatalf("dial dsu: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &DSUClient{t: t, conn: conn}
}

func (c *DSUClient) Send(pkt []byte) {
	c.t.Helper()
	if _, err := c.conn.Write(pkt); err != nil {
		c.t.Fatalf("send: %v", err)
	}
}

// Recv waits up to timeout for one datagram; it returns nil on timeout.
func (c *DSUClient) Recv(timeout time.Duration) []byte {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, 2048)
	n, err := c.conn.Read(buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil
		}
		c.t.Fatalf("recv: %v", err)
	}
	return buf[:n]
}

// LocalAddr is the address the server sees the client as.
func (c *DSUClient) LocalAddr() *net.UDPAddr {
	return c.conn.LocalAddr().(*net.UDPAddr)
}
