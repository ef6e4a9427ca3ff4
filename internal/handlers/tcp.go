// internal/handlers/tcp.go
package handlers

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"sync"

	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/sirupsen/logrus"
)

// maxFrameSize bounds a single request line.
const maxFrameSize = 64 * 1024

var newline = []byte{'\n'}

// TCPServer accepts game clients speaking newline-delimited JSON.
type TCPServer struct {
	Router *Router
	Hub    *Hub
	Logger *logrus.Logger

	wg sync.WaitGroup
}

func NewTCPServer(router *Router, hub *Hub, logger *logrus.Logger) *TCPServer {
	return &TCPServer{Router: router, Hub: hub, Logger: logger}
}

// Serve accepts connections on ln until ctx is cancelled, then closes ln and waits for
// the open connections to finish.
func (s *TCPServer) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.Logger.Infof("Accepting game clients on %s", ln.Addr())
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.Logger.Warnf("accept error: %v", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(ctx, nc)
		}()
	}
}

// ServeConn runs the read loop for one client until it disconnects or ctx is cancelled.
func (s *TCPServer) ServeConn(ctx context.Context, nc net.Conn) {
	conn := NewConn("tcp", nc.RemoteAddr().String())
	s.Hub.Register(conn)
	middleware.LogConnect(s.Logger, conn.Transport, conn.Remote)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		err := conn.WriteLoop(func(frame []byte) error {
			bufs := net.Buffers{frame, newline}
			_, err := bufs.WriteTo(nc)
			return err
		})
		if err != nil {
			s.Logger.WithField("conn", conn.ID).Debugf("write failed: %v", err)
		}
		nc.Close()
	}()

	stop := context.AfterFunc(ctx, conn.Close)
	defer stop()

	scanner := bufio.NewScanner(nc)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		frame := make([]byte, len(line))
		copy(frame, line)
		s.Router.Handle(conn, frame)
	}

	s.Hub.Unregister(conn)
	<-writerDone
	middleware.LogDisconnect(s.Logger, conn.Transport, conn.Remote, scanner.Err())
}
