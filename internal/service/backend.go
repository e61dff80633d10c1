package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/stepguard/internal/logger"
	snats "github.com/mark3labs/stepguard/internal/nats"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Options configures an embedded backend.
type Options struct {
	// DataDir persists submission history. Empty keeps it in memory.
	DataDir    string
	RejectCode string
	FailFlows  map[string]string
	Timeout    time.Duration
}

// Backend bundles the embedded server, its receipts stream and the
// responder.
type Backend struct {
	embedded  *snats.Embedded
	responder *Responder
	client    *Client
}

// Start boots an in-process backend.
func Start(ctx context.Context, opts Options) (*Backend, error) {
	e, err := snats.Start(ctx, opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("starting embedded backend: %w", err)
	}

	b := &Backend{embedded: e}
	b.responder = NewResponder(e.Conn, ResponderOptions{
		RejectCode: opts.RejectCode,
		FailFlows:  opts.FailFlows,
		JetStream:  e.JS,
	})
	if err := b.responder.Start(); err != nil {
		_ = b.Close()
		return nil, err
	}
	b.client = NewClient(e.Conn, opts.Timeout)
	logger.Debug("backend started (persist=%t)", e.Persistent())
	return b, nil
}

// Client returns the client bound to this backend.
func (b *Backend) Client() *Client { return b.client }

// Responder returns the mock responder.
func (b *Backend) Responder() *Responder { return b.responder }

// History replays accepted submissions for flow, or every flow when flow is
// empty, oldest first.
func (b *Backend) History(ctx context.Context, flow string) ([]Record, error) {
	cons, err := snats.CreateConsumer(ctx, b.embedded.Stream, flow)
	if err != nil {
		return nil, fmt.Errorf("creating receipts consumer: %w", err)
	}

	var out []Record
	for {
		batch, err := cons.Fetch(100, jetstream.FetchMaxWait(200*time.Millisecond))
		if err != nil {
			return nil, fmt.Errorf("fetching receipts: %w", err)
		}
		n := 0
		for msg := range batch.Messages() {
			n++
			var rec Record
			if err := json.Unmarshal(msg.Data(), &rec); err != nil {
				logger.Warn("skipping malformed receipt on %s: %v", msg.Subject(), err)
				continue
			}
			out = append(out, rec)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("reading receipts: %w", err)
		}
		if n == 0 {
			return out, nil
		}
	}
}

// Close stops the responder and shuts the server down.
func (b *Backend) Close() error {
	if b.responder != nil {
		b.responder.Stop()
	}
	return b.embedded.Close()
}
