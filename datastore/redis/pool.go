/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package redis

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	kverrors "github.com/suparena/kvobject/errors"
)

// Config configures the connection pool.
type Config struct {
	// Addr is the TCP address used when SocketPath does not exist.
	// Default: "localhost:6379"
	Addr string

	// SocketPath is preferred over Addr when the file exists.
	// Default: "/tmp/redis.sock"
	SocketPath string

	Password string
	DB       int

	// PoolSize is the number of rotating connection slots.
	// Default: 1
	PoolSize int

	// FallbackAddr is dialed when a pool slot cannot be established.
	// Default: "localhost:6379"
	FallbackAddr string

	// DialTimeout bounds each dial and liveness probe.
	// Default: 5s
	DialTimeout time.Duration

	// MaxRetries is passed to each client. -1 disables client retries.
	MaxRetries int
}

// DefaultConfig returns a single-slot pool against a local server.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		SocketPath:   "/tmp/redis.sock",
		PoolSize:     1,
		FallbackAddr: "localhost:6379",
		DialTimeout:  5 * time.Second,
	}
}

func (c *Config) validate() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.FallbackAddr == "" {
		c.FallbackAddr = "localhost:6379"
	}
	if c.PoolSize < 1 {
		c.PoolSize = 1
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
}

// Pool hands out connections round-robin across a fixed number of slots.
// Slots are dialed lazily. When dialing a slot fails, the slot is filled with a
// shared unpooled client on FallbackAddr. A slot that fails with a connection
// error is discarded and redialed on its next use.
type Pool struct {
	cfg    Config
	logger zerolog.Logger

	mu       sync.Mutex
	next     int
	slots    []*goredis.Client
	fallback *goredis.Client
}

// NewPool creates a pool. No connection is made until the first command.
func NewPool(cfg Config, logger zerolog.Logger) *Pool {
	cfg.validate()
	return &Pool{
		cfg:    cfg,
		logger: logger,
		slots:  make([]*goredis.Client, cfg.PoolSize),
	}
}

// Conn returns a live client for the next slot.
func (p *Pool) Conn(ctx context.Context) (*goredis.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.next
	p.next = (p.next + 1) % len(p.slots)

	if c := p.slots[idx]; c != nil {
		return c, nil
	}

	c, err := p.dial(ctx, p.primaryOptions())
	if err != nil {
		p.logger.Warn().Err(err).Int("slot", idx).Str("fallback", p.cfg.FallbackAddr).Msg("redis dial failed, using fallback connection")
		if c, err = p.fallbackConn(ctx, err); err != nil {
			return nil, err
		}
	}
	p.slots[idx] = c
	return c, nil
}

// fallbackConn returns the shared fallback client, dialing it on first use.
// Callers hold p.mu.
func (p *Pool) fallbackConn(ctx context.Context, cause error) (*goredis.Client, error) {
	if p.fallback != nil {
		return p.fallback, nil
	}
	fb, err := p.dial(ctx, p.fallbackOptions())
	if err != nil {
		return nil, kverrors.NewConnectionError(p.cfg.FallbackAddr, errors.Join(cause, err))
	}
	p.fallback = fb
	return fb, nil
}

// Discard drops c from every slot holding it so those slots are redialed.
func (p *Pool) Discard(c *goredis.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	found := false
	for i, slot := range p.slots {
		if slot == c {
			p.slots[i] = nil
			found = true
			p.logger.Warn().Int("slot", i).Msg("discarding dead redis connection")
		}
	}
	if p.fallback == c {
		p.fallback = nil
		found = true
	}
	if found {
		_ = c.Close()
	}
}

// Do runs fn on a pooled connection. If fn fails with a connection error the
// connection is discarded and fn is retried once on a fresh one.
func (p *Pool) Do(ctx context.Context, fn func(c *goredis.Client) error) error {
	c, err := p.Conn(ctx)
	if err != nil {
		return err
	}
	err = fn(c)
	if !isConnError(err) {
		return err
	}

	p.Discard(c)
	c, err = p.Conn(ctx)
	if err != nil {
		return err
	}
	return fn(c)
}

// Close closes every open connection.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	open := make(map[*goredis.Client]bool, len(p.slots)+1)
	for i, c := range p.slots {
		if c != nil {
			open[c] = true
			p.slots[i] = nil
		}
	}
	if p.fallback != nil {
		open[p.fallback] = true
		p.fallback = nil
	}

	var errs []error
	for c := range open {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (p *Pool) dial(ctx context.Context, opts *goredis.Options) (*goredis.Client, error) {
	c := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, p.cfg.DialTimeout)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (p *Pool) primaryOptions() *goredis.Options {
	opts := &goredis.Options{
		Network:     "tcp",
		Addr:        p.cfg.Addr,
		Password:    p.cfg.Password,
		DB:          p.cfg.DB,
		DialTimeout: p.cfg.DialTimeout,
		// Reads and writes share the dial bound so a server that accepts
		// but never answers fails over instead of stalling.
		ReadTimeout:           p.cfg.DialTimeout,
		WriteTimeout:          p.cfg.DialTimeout,
		ContextTimeoutEnabled: true,
		MaxRetries:            p.cfg.MaxRetries,
	}
	if p.cfg.SocketPath != "" {
		if _, err := os.Stat(p.cfg.SocketPath); err == nil {
			opts.Network = "unix"
			opts.Addr = p.cfg.SocketPath
		}
	}
	return opts
}

func (p *Pool) fallbackOptions() *goredis.Options {
	return &goredis.Options{
		Addr:                  p.cfg.FallbackAddr,
		Password:              p.cfg.Password,
		DB:                    p.cfg.DB,
		DialTimeout:           p.cfg.DialTimeout,
		ReadTimeout:           p.cfg.DialTimeout,
		WriteTimeout:          p.cfg.DialTimeout,
		ContextTimeoutEnabled: true,
		MaxRetries:            p.cfg.MaxRetries,
		PoolSize:              1,
	}
}

func isConnError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, goredis.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
