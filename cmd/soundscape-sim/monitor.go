package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// calloutRecord is what the monitor streams for every callout that starts.
type calloutRecord struct {
	GroupID   string    `json:"groupId"`
	Category  string    `json:"category"`
	Text      string    `json:"text,omitempty"`
	Latitude  float64   `json:"lat,omitempty"`
	Longitude float64   `json:"lon,omitempty"`
	Time      time.Time `json:"time"`
}

// monitor broadcasts callout records to websocket clients.
type monitor struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func newMonitor(logger *slog.Logger) *monitor {
	return &monitor{
		logger:  logger,
		clients: map[*websocket.Conn]chan []byte{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (m *monitor) publish(record calloutRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		m.logger.Error("failed to encode callout record", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn, send := range m.clients {
		select {
		case send <- data:
		default:
			m.logger.Warn("dropping slow monitor client", "remote", conn.RemoteAddr().String())
			close(send)
			delete(m.clients, conn)
		}
	}
}

func (m *monitor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("monitor upgrade failed", "error", err)
		return
	}

	send := make(chan []byte, 64)
	m.mu.Lock()
	m.clients[conn] = send
	m.mu.Unlock()
	m.logger.Info("monitor client connected", "remote", conn.RemoteAddr().String())

	go m.discardReads(conn)
	for data := range send {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			m.remove(conn)
			break
		}
	}
	_ = conn.Close()
}

// discardReads keeps the connection's control frames flowing and notices
// when the client goes away.
func (m *monitor) discardReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.NextReader(); err != nil {
			m.remove(conn)
			return
		}
	}
}

func (m *monitor) remove(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if send, ok := m.clients[conn]; ok {
		close(send)
		delete(m.clients, conn)
	}
}

func (m *monitor) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn, send := range m.clients {
		close(send)
		delete(m.clients, conn)
	}
}

// serve runs the monitor on address until ctx is done.
func (m *monitor) serve(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/callouts", m)

	server := &http.Server{
		Addr: address,
		Handler: otelhttp.NewHandler(mux, "monitor",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return operation + " " + r.URL.Path
			}),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	m.logger.Info("monitor listening", "address", address)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	m.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
