package authserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/udisondev/aethermoor/internal/config"
	"github.com/udisondev/aethermoor/internal/db"
	"github.com/udisondev/aethermoor/internal/protocol"
)

const (
	defaultSendBufSize = 256
	defaultReadBufSize = 256
)

// Server is the auth server that accepts client connections and runs the
// SRP-6 login handshake (§3, §4.2).
type Server struct {
	cfg config.AuthServer

	sendPool *BytePool
	readPool *BytePool
	handler  *Handler

	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates a new auth server. Unlike the world server, no
// per-connection secret material is generated up front: the SRP server
// ephemeral is derived fresh inside the challenge handler once the
// account name is known.
func NewServer(cfg config.AuthServer, store *db.Store) *Server {
	return &Server{
		cfg:      cfg,
		sendPool: NewBytePool(defaultSendBufSize),
		readPool: NewBytePool(defaultReadBufSize),
		handler:  NewHandler(store, cfg.Realms),
	}
}

// Addr returns the address the server is listening on, nil if not started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close closes the listener, stopping the accept loop.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run starts listening on cfg.BindAddress:cfg.Port and serves until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve runs the accept loop against an already-open listener, useful for
// tests that bind an ephemeral port.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		slog.Info("auth server started", "address", ln.Addr())
		acceptLoop(ctx, &wg, s, ln)
	})

	wg.Wait()
	return nil
}

func acceptLoop(ctx context.Context, wg *sync.WaitGroup, srv *Server, ln net.Listener) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("accept failed", "err", err)
				continue
			}
			wg.Go(func() {
				handleConnection(ctx, srv, conn)
			})
		}
	}
}

func handleConnection(ctx context.Context, srv *Server, conn net.Conn) {
	done := make(chan struct{})
	defer close(done)
	defer conn.Close()

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	client, err := NewClient(conn)
	if err != nil {
		slog.Error("creating client", "err", err, "remote", conn.RemoteAddr())
		return
	}

	slog.Info("new connection", "remote", client.IP())

	r := bufio.NewReader(conn)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			ok, err := handlePacket(ctx, client, r, srv)
			if err != nil {
				slog.Error("handling packet", "err", err, "remote", client.IP())
			}
			if !ok {
				return
			}
		}
	}
}

func handlePacket(ctx context.Context, client *Client, r *bufio.Reader, srv *Server) (bool, error) {
	readBuf := srv.readPool.Get(defaultReadBufSize)
	defer srv.readPool.Put(readBuf)

	opcode, body, err := protocol.ReadAuthPacket(r, readBuf)
	if err != nil {
		return false, fmt.Errorf("read packet: %w", err)
	}

	sendBuf := srv.sendPool.Get(defaultSendBufSize)
	defer srv.sendPool.Put(sendBuf)

	n, ok, err := srv.handler.HandlePacket(ctx, client, opcode, body, sendBuf)
	if err != nil {
		return false, fmt.Errorf("handle packet: %w", err)
	}

	if n > 0 {
		if _, err := client.conn.Write(sendBuf[:n]); err != nil {
			return false, fmt.Errorf("write packet: %w", err)
		}
	}

	return ok, nil
}
