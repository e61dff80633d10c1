// Package nats runs the in-process NATS server that stands in for the
// remote backend: request/reply for submissions and verification codes,
// and a JetStream stream recording accepted submissions.
package nats

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	serverName   = "stepguard-backend"
	readyTimeout = 4 * time.Second
	drainTimeout = 2 * time.Second
	stopTimeout  = 5 * time.Second

	// Memory-only backends keep at most this much receipt history.
	memoryLimit = 64 << 20
)

// Embedded is the in-process backend server together with the connection,
// JetStream context and receipts stream opened on it.
type Embedded struct {
	Conn   *nats.Conn
	JS     jetstream.JetStream
	Stream jetstream.Stream

	ns      *server.Server
	scratch string
	persist bool
}

// Start boots the embedded server and opens the receipts stream. A non-empty
// dataDir keeps receipts on disk across runs. With an empty dataDir receipts
// live in memory and the server's scratch directory is removed on Close.
func Start(ctx context.Context, dataDir string) (*Embedded, error) {
	e := &Embedded{persist: dataDir != ""}

	storeDir := dataDir
	if !e.persist {
		dir, err := os.MkdirTemp("", "stepguard-nats-*")
		if err != nil {
			return nil, fmt.Errorf("creating scratch dir: %w", err)
		}
		storeDir, e.scratch = dir, dir
	}

	ns, err := newServer(storeDir, e.persist)
	if err != nil {
		e.removeScratch()
		return nil, err
	}
	e.ns = ns

	e.Conn, err = nats.Connect("", nats.InProcessServer(ns), nats.Name("stepguard"))
	if err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("connecting in-process: %w", err)
	}
	if e.JS, err = jetstream.New(e.Conn); err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}
	if e.Stream, err = SetupStream(ctx, e.JS, e.persist); err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("setting up receipts stream: %w", err)
	}

	logger.Debug("embedded backend ready (persist=%t, store=%s)", e.persist, storeDir)
	return e, nil
}

// Persistent reports whether receipts survive a restart.
func (e *Embedded) Persistent() bool { return e.persist }

func newServer(storeDir string, persist bool) (*server.Server, error) {
	opts := &server.Options{
		ServerName: serverName,
		JetStream:  true,
		StoreDir:   storeDir,
		DontListen: true,
		NoSigs:     true,
		NoLog:      true,
	}
	if !persist {
		opts.JetStreamMaxMemory = memoryLimit
		opts.JetStreamMaxStore = memoryLimit
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	go ns.Start()

	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("nats server not ready after %s", readyTimeout)
	}
	return ns, nil
}

// Close drains the connection, stops the server and removes any scratch
// directory. Each step is bounded so a stuck drain cannot hang the caller.
func (e *Embedded) Close() error {
	defer e.removeScratch()

	if e.Conn != nil {
		done := make(chan error, 1)
		go func() { done <- e.Conn.Drain() }()
		select {
		case err := <-done:
			if err != nil {
				logger.Warn("backend drain failed, forcing close: %v", err)
				e.Conn.Close()
			}
		case <-time.After(drainTimeout):
			logger.Warn("backend drain timed out after %s, forcing close", drainTimeout)
			e.Conn.Close()
		}
	}

	if e.ns == nil {
		return nil
	}
	e.ns.Shutdown()
	stopped := make(chan struct{})
	go func() {
		e.ns.WaitForShutdown()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-time.After(stopTimeout):
		return errors.New("backend server shutdown timed out")
	}
}

func (e *Embedded) removeScratch() {
	if e.scratch == "" {
		return
	}
	if err := os.RemoveAll(e.scratch); err != nil {
		logger.Warn("removing scratch dir %s: %v", e.scratch, err)
	}
	e.scratch = ""
}
