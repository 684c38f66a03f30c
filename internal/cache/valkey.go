package cache

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// ValkeyConfig holds connection parameters for a Valkey/Redis-compatible
// server.
type ValkeyConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
	TLS          bool
}

// ValkeyProvider implements Provider over a minimal RESP client. Connections
// are per-command; the dedupe workload is a handful of SETNX calls per alert,
// not a hot path worth pooling.
type ValkeyProvider struct {
	cfg ValkeyConfig
}

// NewValkeyProvider validates connectivity with a ping so misconfiguration
// fails at boot, not on the first alert.
func NewValkeyProvider(cfg ValkeyConfig) (*ValkeyProvider, error) {
	if cfg.Addr == "" {
		return nil, errors.New("valkey addr is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 500 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 500 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}

	p := &ValkeyProvider{cfg: cfg}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if _, err := p.do(ctx, expectSimple("PONG"), "PING"); err != nil {
		return nil, fmt.Errorf("valkey ping: %w", err)
	}
	return p, nil
}

func (p *ValkeyProvider) Get(ctx context.Context, key string) ([]byte, error) {
	reply, err := p.do(ctx, nil, "GET", key)
	if err != nil {
		return nil, err
	}
	if reply.nil_ {
		return nil, ErrCacheMiss
	}
	return reply.data, nil
}

func (p *ValkeyProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := []string{"SET", key, string(value)}
	if ttl > 0 {
		args = append(args, "PX", strconv.FormatInt(ttl.Milliseconds(), 10))
	}
	_, err := p.do(ctx, expectSimple("OK"), args...)
	return err
}

// SetNX stores only when the key is absent. A nil reply means the key already
// existed.
func (p *ValkeyProvider) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	args := []string{"SET", key, string(value)}
	if ttl > 0 {
		args = append(args, "PX", strconv.FormatInt(ttl.Milliseconds(), 10))
	}
	args = append(args, "NX")
	reply, err := p.do(ctx, nil, args...)
	if err != nil {
		return false, err
	}
	return !reply.nil_, nil
}

func (p *ValkeyProvider) Del(ctx context.Context, key string) error {
	_, err := p.do(ctx, nil, "DEL", key)
	return err
}

func (p *ValkeyProvider) Close() error { return nil }

type reply struct {
	data []byte
	nil_ bool
}

// checkFn validates a reply in place; nil accepts anything.
type checkFn func(reply) error

func expectSimple(want string) checkFn {
	return func(r reply) error {
		if string(r.data) != want {
			return fmt.Errorf("unexpected reply %q, want %q", r.data, want)
		}
		return nil
	}
}

// do dials, authenticates, sends one command, and reads one reply, retrying
// on transient network errors with exponential backoff.
func (p *ValkeyProvider) do(ctx context.Context, check checkFn, args ...string) (reply, error) {
	var lastErr error
	for attempt := 0; attempt < p.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return reply{}, err
		}
		r, err := p.doOnce(ctx, check, args)
		if err == nil {
			return r, nil
		}
		lastErr = err
		if !retryable(err) || attempt == p.cfg.MaxRetries-1 {
			break
		}
		time.Sleep(time.Duration(1<<attempt) * 25 * time.Millisecond)
	}
	return reply{}, lastErr
}

func (p *ValkeyProvider) doOnce(ctx context.Context, check checkFn, args []string) (reply, error) {
	conn, err := p.dial(ctx)
	if err != nil {
		return reply{}, err
	}
	defer conn.Close()

	rw := &respConn{
		conn:         conn,
		r:            bufio.NewReader(conn),
		w:            bufio.NewWriter(conn),
		readTimeout:  p.cfg.ReadTimeout,
		writeTimeout: p.cfg.WriteTimeout,
	}
	if err := p.handshake(rw); err != nil {
		return reply{}, err
	}
	if err := rw.send(args...); err != nil {
		return reply{}, err
	}
	r, err := rw.recv()
	if err != nil {
		return reply{}, err
	}
	if check != nil {
		if err := check(r); err != nil {
			return reply{}, err
		}
	}
	return r, nil
}

func (p *ValkeyProvider) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: p.cfg.DialTimeout}
	if p.cfg.TLS {
		host := p.cfg.Addr
		if h, _, err := net.SplitHostPort(p.cfg.Addr); err == nil {
			host = h
		}
		return tls.DialWithDialer(&dialer, "tcp", p.cfg.Addr, &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: host,
		})
	}
	return dialer.DialContext(ctx, "tcp", p.cfg.Addr)
}

func (p *ValkeyProvider) handshake(rw *respConn) error {
	if p.cfg.Password != "" {
		cmd := []string{"AUTH"}
		if p.cfg.Username != "" {
			cmd = append(cmd, p.cfg.Username)
		}
		cmd = append(cmd, p.cfg.Password)
		if err := rw.send(cmd...); err != nil {
			return err
		}
		r, err := rw.recv()
		if err != nil {
			return err
		}
		if !strings.EqualFold(string(r.data), "OK") {
			return fmt.Errorf("auth failed: %s", r.data)
		}
	}
	if p.cfg.DB > 0 {
		if err := rw.send("SELECT", strconv.Itoa(p.cfg.DB)); err != nil {
			return err
		}
		r, err := rw.recv()
		if err != nil {
			return err
		}
		if !strings.EqualFold(string(r.data), "OK") {
			return fmt.Errorf("select failed: %s", r.data)
		}
	}
	return nil
}

// respConn frames commands and replies in the RESP wire format.
type respConn struct {
	conn         net.Conn
	r            *bufio.Reader
	w            *bufio.Writer
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (c *respConn) send(args ...string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	fmt.Fprintf(c.w, "*%d\r\n", len(args))
	for _, a := range args {
		fmt.Fprintf(c.w, "$%d\r\n%s\r\n", len(a), a)
	}
	return c.w.Flush()
}

func (c *respConn) recv() (reply, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return reply{}, err
	}
	prefix, err := c.r.ReadByte()
	if err != nil {
		return reply{}, err
	}
	line, err := c.readLine()
	if err != nil {
		return reply{}, err
	}
	switch prefix {
	case '+', ':':
		return reply{data: line}, nil
	case '-':
		return reply{}, errors.New(string(line))
	case '$':
		size, err := strconv.Atoi(string(line))
		if err != nil {
			return reply{}, err
		}
		if size < 0 {
			return reply{nil_: true}, nil
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(c.r, buf); err != nil {
			return reply{}, err
		}
		return reply{data: buf[:size]}, nil
	default:
		return reply{}, fmt.Errorf("unexpected RESP prefix %q", prefix)
	}
}

func (c *respConn) readLine() ([]byte, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

func retryable(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
