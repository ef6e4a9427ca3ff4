// internal/handlers/ws.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the WebSocket subprotocol game clients must request.
const Subprotocol = "uno"

const wsWriteTimeout = 5 * time.Second

// GameWSHandler upgrades the HTTP connection to WebSocket and runs the same request loop
// as the TCP transport, one JSON object per text message.
func GameWSHandler(logger *logrus.Logger, router *Router, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("WebSocket accept error from %s: %v", r.RemoteAddr, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != Subprotocol {
			logger.Warnf("Client %s connected with invalid subprotocol: %q", r.RemoteAddr, c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the '"+Subprotocol+"' subprotocol.")
			return
		}

		conn := NewConn("ws", r.RemoteAddr)
		hub.Register(conn)
		middleware.LogConnect(logger, conn.Transport, conn.Remote)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go func() {
			err := conn.WriteLoop(func(frame []byte) error {
				writeCtx, cancelWrite := context.WithTimeout(ctx, wsWriteTimeout)
				defer cancelWrite()
				return c.Write(writeCtx, websocket.MessageText, frame)
			})
			if err != nil {
				logger.WithField("conn", conn.ID).Debugf("write failed: %v", err)
			}
			// Dropped by the hub or failed to write: unblock the read loop.
			cancel()
		}()

		err = readGameMessages(ctx, c, router, conn, logger)

		hub.Unregister(conn)
		middleware.LogDisconnect(logger, conn.Transport, conn.Remote, err)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readGameMessages feeds every text message from c to the router until the connection
// closes or ctx is cancelled.
func readGameMessages(ctx context.Context, c *websocket.Conn, router *Router, conn *Conn, logger *logrus.Logger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from %s. Ignoring.", msgType, conn.Remote)
			continue
		}
		router.Handle(conn, data)
	}
}
