// internal/handlers/hub.go
package handlers

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// outboundBuffer is how many frames may queue up for one connection before it is
// considered too slow and dropped.
const outboundBuffer = 256

// Conn is one client connection as seen by the hub. Frames queued with Send are written
// in order by the transport's write loop.
type Conn struct {
	ID        uuid.UUID
	Transport string
	Remote    string

	out  chan []byte
	done chan struct{}
	once sync.Once
}

// NewConn creates a connection with an empty outbound queue.
func NewConn(transport, remote string) *Conn {
	return &Conn{
		ID:        uuid.New(),
		Transport: transport,
		Remote:    remote,
		out:       make(chan []byte, outboundBuffer),
		done:      make(chan struct{}),
	}
}

// Send queues a frame without blocking. It returns false if the connection is closed or
// its queue is full.
func (c *Conn) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- frame:
		return true
	default:
		return false
	}
}

// WriteLoop hands queued frames to write until the connection is closed or write fails.
func (c *Conn) WriteLoop(write func(frame []byte) error) error {
	for {
		select {
		case <-c.done:
			return nil
		case frame := <-c.out:
			if err := write(frame); err != nil {
				return err
			}
		}
	}
}

// Close stops the write loop. Safe to call more than once.
func (c *Conn) Close() {
	c.once.Do(func() { close(c.done) })
}

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Hub holds every open connection and fans broadcasts out to them.
type Hub struct {
	mu     sync.RWMutex
	conns  map[uuid.UUID]*Conn
	logger logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		conns:  make(map[uuid.UUID]*Conn),
		logger: logger,
	}
}

func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

// Unregister removes and closes the connection.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c.ID)
	h.mu.Unlock()
	c.Close()
}

// Len is the number of open connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast queues frame on every connection. Connections that cannot keep up are dropped.
func (h *Hub) Broadcast(frame []byte) {
	var slow []*Conn
	h.mu.RLock()
	for _, c := range h.conns {
		if !c.Send(frame) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.WithFields(logrus.Fields{"conn": c.ID, "remote": c.Remote}).Warn("dropping slow connection")
		h.Unregister(c)
	}
}
