// relay.go

// Copyright (C) 2018  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package relay serves a drone's latest telemetry over HTTP and websockets.
package relay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/SMerrony/tello/v2"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	defaultInterval = 200 * time.Millisecond
	shutdownTimeout = 2 * time.Second
	writeTimeout    = time.Second
)

// Source supplies telemetry, *tello.DroneMeta satisfies it.
type Source interface {
	Snapshot() tello.MetaSnapshot
}

// Relay publishes snapshots from a Source.
type Relay struct {
	src      Source
	interval time.Duration
	logger   *slog.Logger
	upgrader websocket.Upgrader
	router   *mux.Router
}

// WithLogger sets the logger for the relay
func WithLogger(logger *slog.Logger) func(r *Relay) {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithInterval sets how often websocket clients are sent a snapshot.
func WithInterval(d time.Duration) func(r *Relay) {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// New creates a Relay reading from src.
func New(src Source, options ...func(r *Relay)) *Relay {
	r := &Relay{
		src:      src,
		interval: defaultInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, option := range options {
		option(r)
	}
	r.router = mux.NewRouter()
	r.router.HandleFunc("/meta", r.metaHandle).Methods(http.MethodGet)
	r.router.HandleFunc("/meta/ws", r.websocketHandle).Methods(http.MethodGet)
	return r
}

// Handler returns the routes, for mounting in another server.
func (r *Relay) Handler() http.Handler {
	return r.router
}

// Serve listens on addr until ctx is done.
func (r *Relay) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     r.router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			r.logger.Warn("relay shutdown", slog.Any("error", err))
		}
	}()

	r.logger.Info("relay listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "relay")
	}
	return nil
}

func (r *Relay) metaHandle(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(r.src.Snapshot()); err != nil {
		r.logger.Warn("failed to write snapshot", slog.Any("error", err))
	}
}

func (r *Relay) websocketHandle(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()
	logger := r.logger.With(slog.String("client", conn.RemoteAddr().String()))
	logger.Debug("websocket connected")

	// the reader only notices the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err = conn.WriteJSON(r.src.Snapshot()); err != nil {
			logger.Debug("websocket write failed, disconnecting", slog.Any("error", err))
			return
		}
		select {
		case <-ticker.C:
		case <-gone:
			logger.Debug("websocket disconnected")
			return
		case <-req.Context().Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeTimeout))
			return
		}
	}
}
