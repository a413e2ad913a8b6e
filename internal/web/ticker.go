// Package web serves a live price ticker over WebSocket.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/sbswap/swappool/internal/logger"
)

const writeTimeout = 5 * time.Second

// PriceUpdate is one broadcast frame.
type PriceUpdate struct {
	Asset   string `json:"asset"`
	Price   string `json:"price"`
	Balance string `json:"balance"`
	Time    int64  `json:"time"`
}

// Ticker fans out price updates to every connected WebSocket client.
// Slow clients drop frames rather than block the publisher.
type Ticker struct {
	port   int
	log    logger.LoggerInterface
	server *http.Server

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

// NewTicker creates a Ticker listening on the given port.
func NewTicker(port int, log logger.LoggerInterface) *Ticker {
	return &Ticker{
		port: port,
		log:  log,
		subs: make(map[chan []byte]struct{}),
	}
}

// Publish broadcasts an update to all subscribers.
func (t *Ticker) Publish(update PriceUpdate) {
	frame, err := json.Marshal(update)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for sub := range t.subs {
		select {
		case sub <- frame:
		default:
			// Subscriber is behind; skip this frame for it.
		}
	}
}

// Start begins serving /ws in the background.
func (t *Ticker) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", t.handleWS)

	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.log.Error(context.Background(), "price ticker server stopped", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server.
func (t *Ticker) Stop(ctx context.Context) error {
	if t.server != nil {
		return t.server.Shutdown(ctx)
	}
	return nil
}

func (t *Ticker) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		t.log.Warn(r.Context(), "websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sub := make(chan []byte, 16)
	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.subs, sub)
		t.mu.Unlock()
	}()

	// Clients only listen; reads are drained for control frames.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-sub:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
