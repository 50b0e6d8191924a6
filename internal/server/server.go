// Package server accepts TCP connections and serves one command per
// connection: read, process, reply, close.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/skywatch/internal/command"
	"github.com/banshee-data/skywatch/internal/db"
	"github.com/banshee-data/skywatch/internal/monitoring"
)

// MaxCommandBytes bounds the single read that carries the whole command.
// A command spanning more bytes than one read of this size is undefined by
// design; clients send short command lines.
const MaxCommandBytes = 4096

// Server owns the accept loop and per-connection handlers.
type Server struct {
	proc  *command.Processor
	audit *db.DB // optional command log, nil disables
}

// New creates a server around the given processor. audit may be nil.
func New(proc *command.Processor, audit *db.DB) *Server {
	return &Server{proc: proc, audit: audit}
}

// Serve accepts connections on ln until ctx is cancelled. Accept errors on a
// live listener are logged and the loop retried; each accepted connection is
// handled on its own goroutine so the acceptor never waits on a handler.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Closing the listener is the only way to unblock Accept.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	monitoring.Logf("radar server listening on %s", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			monitoring.Logf("accept failed, retrying: %v", err)
			continue
		}
		go s.handle(conn)
	}
}

// handle serves exactly one command on conn and closes it on every exit
// path. An empty read (immediate peer close) ends the connection silently.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	reqID := uuid.NewString()
	buf := make([]byte, MaxCommandBytes)
	n, _ := conn.Read(buf)
	if n == 0 {
		return
	}

	cmd := strings.TrimSpace(string(buf[:n]))
	monitoring.Logf("[req %s] %s -> %q", reqID, conn.RemoteAddr(), cmd)

	start := time.Now()
	reply := s.process(cmd)
	if _, err := conn.Write([]byte(reply)); err != nil {
		monitoring.Logf("[err %s] write to %s failed: %v", reqID, conn.RemoteAddr(), err)
		return
	}
	monitoring.Logf("[resp %s] %s <- reply (len %d)", reqID, conn.RemoteAddr(), len(reply))

	if s.audit != nil {
		if err := s.audit.RecordCommand(reqID, conn.RemoteAddr().String(), cmd, len(reply), time.Since(start)); err != nil {
			monitoring.Logf("[err %s] audit log failed: %v", reqID, err)
		}
	}
}

// process runs the command through the processor, converting any panic into
// a textual error reply at this single boundary.
func (s *Server) process(cmd string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			reply = fmt.Sprintf("ERROR: %v", r)
		}
	}()
	return s.proc.Handle(cmd)
}
