package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
)

// writeWait bounds how long a single client write may block the fan-out.
var writeWait = 5 * time.Second

// Broadcaster is the live tail of the ledger: every appended measurement is
// pushed to all connected websocket clients. Clients that cannot keep up are
// closed rather than allowed to slow the fan-out.
type Broadcaster struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: zap.L(),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client goes away.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()
	b.logger.Info("stream client connected", zap.String("remote", conn.RemoteAddr().String()))

	// drain the connection; the read loop returning means the client closed
	go func() {
		defer b.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish sends the measurement to every connected client. Implements the
// publisher sink interface.
func (b *Broadcaster) Publish(_ context.Context, m *model.Measurement) {
	payload, err := json.Marshal(m)
	if err != nil {
		b.logger.Error("failed to marshal measurement for stream", zap.Error(err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(b.clients, conn)
		}
	}
}

func (b *Broadcaster) remove(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	conn.Close()
	delete(b.clients, conn)
}

// Close disconnects all clients.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		conn.Close()
		delete(b.clients, conn)
	}
	return nil
}
