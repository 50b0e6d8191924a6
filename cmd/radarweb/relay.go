package main

import (
	"fmt"
	"io"
	"net"
	"time"
)

// Relay forwards one command per TCP connection to the radar server and
// collects the reply. The radar closes the connection after its reply; the
// deadline covers a radar that never does.
type Relay struct {
	addr    string
	timeout time.Duration
}

// NewRelay creates a relay for the radar server at addr.
func NewRelay(addr string, timeout time.Duration) *Relay {
	return &Relay{addr: addr, timeout: timeout}
}

// SendCommand dials the radar server, sends the command bytes, and reads
// until the peer closes or the deadline passes. Failures are surfaced as a
// synthesized error string, never as an error value; the caller always has
// text to show the user.
func (r *Relay) SendCommand(cmd string) string {
	conn, err := net.DialTimeout("tcp", r.addr, r.timeout)
	if err != nil {
		return fmt.Sprintf("ERROR: Unable to contact radar server. (%v)", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(r.timeout))

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return fmt.Sprintf("ERROR: Unable to contact radar server. (%v)", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.CloseWrite()
	}

	// A deadline mid-read still yields whatever arrived before it.
	data, _ := io.ReadAll(conn)
	if len(data) == 0 {
		return "No response from radar server."
	}
	return string(data)
}
