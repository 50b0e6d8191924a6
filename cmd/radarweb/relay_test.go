package main

import (
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRadar serves one connection: read the command, reply with the given
// body, close. An empty reply closes without writing.
func fakeRadar(t *testing.T, reply string) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				buf := make([]byte, 4096)
				if n, _ := conn.Read(buf); n == 0 {
					return
				}
				if reply != "" {
					conn.Write([]byte(reply))
				}
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func TestSendCommandRoundTrip(t *testing.T) {
	t.Parallel()

	addr := fakeRadar(t, "All tracks cleared.")
	relay := NewRelay(addr, 2*time.Second)
	assert.Equal(t, "All tracks cleared.", relay.SendCommand("clear"))
}

func TestSendCommandNoReply(t *testing.T) {
	t.Parallel()

	addr := fakeRadar(t, "")
	relay := NewRelay(addr, 2*time.Second)
	assert.Equal(t, "No response from radar server.", relay.SendCommand("scan"))
}

func TestSendCommandUnreachable(t *testing.T) {
	t.Parallel()

	// Grab a port and close it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	relay := NewRelay(addr, time.Second)
	reply := relay.SendCommand("report")
	assert.True(t, strings.HasPrefix(reply, "ERROR: Unable to contact radar server."), "got %q", reply)
}

func TestSendCommandDeadlineKeepsPartialReply(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	// Write part of a reply, then stall past the relay deadline.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.ReadAll(conn)
		conn.Write([]byte("partial"))
		time.Sleep(2 * time.Second)
	}()

	relay := NewRelay(ln.Addr().String(), 500*time.Millisecond)
	assert.Equal(t, "partial", relay.SendCommand("report"))
}
