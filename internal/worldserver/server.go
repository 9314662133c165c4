package worldserver

import (
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

const defaultWriteBufSize = 512

// Server is the world server: it accepts gameplay connections, runs them
// through the session state machine, and hosts the shared object registry,
// chat manager, and update engine every connection's handlers operate on
// (§4.4-4.7).
type Server struct {
	cfg config.WorldServer

	registry *Registry
	clients  *ClientDirectory
	chat     *ChatManager
	engine   *UpdateEngine
	handler  *Handler

	writePool *BytePool
	readPool  *BytePool

	listener net.Listener
	mu       sync.Mutex
}

// NewServer wires a world server against its persistence store.
func NewServer(cfg config.WorldServer, store *db.Store) *Server {
	registry := NewRegistry()
	clients := NewClientDirectory()
	chat := NewChatManager()
	engine := NewUpdateEngine(registry)

	return &Server{
		cfg:       cfg,
		registry:  registry,
		clients:   clients,
		chat:      chat,
		engine:    engine,
		handler:   NewHandler(store, registry, clients, chat, engine),
		writePool: NewBytePool(defaultWriteBufSize),
		readPool:  NewBytePool(defaultWriteBufSize),
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

// Registry exposes the object manager, mainly for tests and the
// background tick worker.
func (s *Server) Registry() *Registry { return s.registry }

// Engine exposes the update engine, mainly for the background tick worker.
func (s *Server) Engine() *UpdateEngine { return s.engine }

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
		slog.Info("world server started", "address", ln.Addr())
		s.acceptLoop(ctx, &wg, ln)
	})

	wg.Wait()
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, wg *sync.WaitGroup, ln net.Listener) {
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
			if tc, ok := conn.(*net.TCPConn); ok {
				_ = tc.SetKeepAlive(true)
			}
			wg.Go(func() {
				s.handleConnection(ctx, conn)
			})
		}
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	client, err := NewClient(conn, s.writePool, s.cfg.SendQueueSize, s.cfg.WriteTimeout)
	if err != nil {
		slog.Error("creating client", "err", err, "remote", conn.RemoteAddr())
		return
	}
	slog.Info("new world connection", "remote", client.IP())

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			client.Close()
		case <-client.closeCh:
		case <-done:
		}
	}()

	go client.writePump()

	if err := s.handler.SendAuthChallenge(client); err != nil {
		slog.Error("sending auth challenge", "err", err, "remote", client.IP())
		return
	}

	for {
		if client.State() == StateClosed {
			return
		}
		pkt, err := protocol.ReadClientPacket(conn, client.Cipher())
		if err != nil {
			slog.Debug("world connection read ended", "remote", client.IP(), "err", err)
			s.onDisconnect(client)
			return
		}
		if err := s.handler.Dispatch(ctx, client, pkt.Opcode, pkt.Body); err != nil {
			slog.Warn("dispatch error", "remote", client.IP(), "err", err)
		}
		if client.IsMarkedForDisconnection() {
			s.onDisconnect(client)
			return
		}
	}
}

// onDisconnect unwinds everything a connection's IN_WORLD state touched:
// the object registry entry, the chat-delivery directory, and any channel
// membership (§5: cleanup happens before the handler's goroutine exits, no
// separate reaper needed).
func (s *Server) onDisconnect(client *Client) {
	player := client.Player()
	if player == nil {
		return
	}
	s.clients.Unbind(player.GUID())
	s.registry.Unregister(player.GUID())
	s.engine.Forget(player.GUID())

	s.chat.mu.RLock()
	var joined []string
	for name, ch := range s.chat.channels {
		ch.mu.RLock()
		_, member := ch.members[player.GUID()]
		ch.mu.RUnlock()
		if member {
			joined = append(joined, name)
		}
	}
	s.chat.mu.RUnlock()
	for _, name := range joined {
		s.chat.LeaveChannel(name, player)
	}
}
