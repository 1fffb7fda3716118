// Package proxy implements a TCP load balancer that forwards whole client
// connections to game backends, picked round-robin.
package proxy

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/openarcade/tugofwar/internal/config"
)

const dialTimeout = 5 * time.Second

// Balancer accepts client connections and splices each one onto a backend.
// Backends are rotated round-robin; a rotation is deterministic, not
// load-aware, since the lobby tier already does placement by load.
type Balancer struct {
	cfg    config.BalancerConfig
	logger *zap.Logger
	next   atomic.Uint64

	listener net.Listener
	wg       sync.WaitGroup
	quit     chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewBalancer creates a balancer over the backends named in cfg.
//
// Precondition: cfg must be validated; logger must be non-nil.
func NewBalancer(cfg config.BalancerConfig, logger *zap.Logger) *Balancer {
	return &Balancer{
		cfg:    cfg,
		logger: logger,
		quit:   make(chan struct{}),
	}
}

// Start runs the TCP listener and forwards connections until Stop is
// called. It blocks until the balancer is stopped.
func (b *Balancer) Start() error {
	listener, err := net.Listen("tcp", b.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", b.cfg.Addr(), err)
	}

	b.mu.Lock()
	b.listener = listener
	b.running = true
	b.mu.Unlock()

	b.logger.Info("balancer listening",
		zap.String("addr", listener.Addr().String()),
		zap.Int("backends", len(b.cfg.Backends)),
	)

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-b.quit:
				return nil
			default:
				b.logger.Error("accepting connection", zap.Error(err))
				continue
			}
		}

		b.wg.Add(1)
		go b.forward(conn)
	}
}

// pick returns the next backend in rotation.
func (b *Balancer) pick() string {
	n := b.next.Add(1) - 1
	return b.cfg.Backends[n%uint64(len(b.cfg.Backends))]
}

// forward splices one client connection onto a freshly dialed backend and
// copies bytes both ways until either side closes.
func (b *Balancer) forward(client net.Conn) {
	defer b.wg.Done()
	defer client.Close()

	backend := b.pick()
	upstream, err := net.DialTimeout("tcp", backend, dialTimeout)
	if err != nil {
		b.logger.Error("dialing backend",
			zap.String("backend", backend),
			zap.Error(err),
		)
		return
	}
	defer upstream.Close()

	b.logger.Info("forwarding connection",
		zap.String("client", client.RemoteAddr().String()),
		zap.String("backend", backend),
	)

	done := make(chan struct{}, 2)
	go func() {
		_, _ = io.Copy(upstream, client)
		// Half-close toward the backend so it sees EOF.
		if tc, ok := upstream.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
		done <- struct{}{}
	}()
	go func() {
		_, _ = io.Copy(client, upstream)
		if tc, ok := client.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
		done <- struct{}{}
	}()

	select {
	case <-done:
	case <-b.quit:
		return
	}
	// Wait for the second direction to drain.
	select {
	case <-done:
	case <-b.quit:
	}
}

// Stop closes the listener and waits for forwarded connections to finish.
func (b *Balancer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return
	}
	b.running = false

	close(b.quit)
	if b.listener != nil {
		b.listener.Close()
	}
	b.wg.Wait()

	b.logger.Info("balancer stopped")
}

// Addr returns the actual listening address, or empty string if not yet
// listening.
func (b *Balancer) Addr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listener != nil {
		return b.listener.Addr().String()
	}
	return ""
}
