// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// stubHTTPServer blocks in ListenAndServe until Shutdown is called.
type stubHTTPServer struct {
	listenErr   error
	shutdownErr error
	listens     atomic.Int32
	shutdowns   atomic.Int32
	started     chan struct{}
	stop        chan struct{}
}

func newStubHTTPServer() *stubHTTPServer {
	return &stubHTTPServer{started: make(chan struct{}, 1), stop: make(chan struct{})}
}

func (s *stubHTTPServer) ListenAndServe() error {
	s.listens.Add(1)
	select {
	case s.started <- struct{}{}:
	default:
	}
	if s.listenErr != nil {
		return s.listenErr
	}
	<-s.stop
	return http.ErrServerClosed
}

func (s *stubHTTPServer) Shutdown(context.Context) error {
	s.shutdowns.Add(1)
	close(s.stop)
	return s.shutdownErr
}

func TestHTTPServerService_Interface(t *testing.T) {
	var _ suture.Service = (*HTTPServerService)(nil)
	var _ HTTPServer = (*http.Server)(nil)
}

func TestNewHTTPServerService_DefaultTimeout(t *testing.T) {
	for _, timeout := range []time.Duration{0, -5 * time.Second} {
		if svc := NewHTTPServerService(newStubHTTPServer(), timeout); svc.shutdownTimeout != 10*time.Second {
			t.Errorf("timeout %v: got %v, want 10s", timeout, svc.shutdownTimeout)
		}
	}
	if svc := NewHTTPServerService(newStubHTTPServer(), time.Second); svc.String() != "metrics-server" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	shutdownErr := errors.New("shutdown timeout")
	listenErr := errors.New("bind: address already in use")

	tests := []struct {
		name      string
		listenErr error
		shutdown  error
		cancel    bool
		want      error
	}{
		{"graceful shutdown", nil, nil, true, context.Canceled},
		{"shutdown failure", nil, shutdownErr, true, shutdownErr},
		{"listen failure", listenErr, nil, false, listenErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newStubHTTPServer()
			server.listenErr = tt.listenErr
			server.shutdownErr = tt.shutdown
			svc := NewHTTPServerService(server, time.Second)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			errCh := make(chan error, 1)
			go func() { errCh <- svc.Serve(ctx) }()

			select {
			case <-server.started:
			case <-time.After(time.Second):
				t.Fatal("server did not start")
			}
			if tt.cancel {
				cancel()
			}

			select {
			case err := <-errCh:
				if !errors.Is(err, tt.want) {
					t.Errorf("Serve() = %v, want %v", err, tt.want)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Serve did not return")
			}
			if tt.cancel && server.shutdowns.Load() != 1 {
				t.Errorf("expected 1 Shutdown call, got %d", server.shutdowns.Load())
			}
		})
	}
}
