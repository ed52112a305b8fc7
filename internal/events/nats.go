// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/tomtom215/reelcast/internal/logging"
)

// MsgIDHeader carries the deduplication ID understood by JetStream streams
// that capture the subject.
const MsgIDHeader = "Nats-Msg-Id"

// flushTimeout bounds the server acknowledgement when the caller's context
// carries no deadline of its own.
const flushTimeout = 5 * time.Second

// NATSPublisher publishes artifact events on <subject>.<dataset>.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	mu      sync.RWMutex
	closed  bool
}

// NewNATSPublisher connects to url. The connection retries in the
// background, so a broker that starts after the pipeline is tolerated.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("reelcast"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Subject returns the subject events of dataset are published on.
func (p *NATSPublisher) Subject(dataset string) string {
	return p.subject + "." + dataset
}

// PublishArtifacts publishes event and waits until the server has
// acknowledged it or ctx ends. Without a deadline on ctx the wait is
// bounded by flushTimeout.
func (p *NATSPublisher) PublishArtifacts(ctx context.Context, event *ArtifactEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode artifact event: %w", err)
	}

	msg := nats.NewMsg(p.Subject(event.Dataset))
	msg.Data = data
	msg.Header.Set(MsgIDHeader, event.RunID+"."+event.Dataset)

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish artifact event: %w", err)
	}
	flushCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		flushCtx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("flush artifact event: %w", err)
	}

	logging.Ctx(ctx).Debug().Str("subject", msg.Subject).Msg("Artifact event published")
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.conn.Drain()
}
