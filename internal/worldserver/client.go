package worldserver

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/aethermoor/internal/crypto"
	"github.com/udisondev/aethermoor/internal/model"
)

const (
	defaultSendQueueSize = 256
	defaultWriteTimeout  = 5 * time.Second
	defaultReadTimeout   = 120 * time.Second
)

// HandlerState is the closed set of transient per-handler fields a world
// connection accumulates as it moves through the auth challenge and char
// selection states (§9: "the set of keys is closed and known").
type HandlerState struct {
	ServerSeed          uint32
	ClientSeed          uint32
	WorldportAckPending bool
	SelectedCharacter   model.GUID
}

// Client is a single authenticated gameplay session (§3: WorldConnection).
type Client struct {
	conn   net.Conn
	ip     string
	cipher *crypto.HeaderCipher

	// state is read on every packet dispatch; atomic keeps that hot path
	// lock-free, mirroring the teacher's GameClient.
	state atomic.Int32

	markedForDisconnection atomic.Bool

	mu          sync.Mutex
	accountName string
	sessionKey  []byte
	player      *model.Player
	handlerData HandlerState

	sendCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once

	writePool    *BytePool
	writeTimeout time.Duration
}

// NewClient creates world session state for the given socket.
func NewClient(conn net.Conn, writePool *BytePool, sendQueueSize int, writeTimeout time.Duration) (*Client, error) {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return nil, fmt.Errorf("splitting host port: %w", err)
	}
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	c := &Client{
		conn:         conn,
		ip:           host,
		cipher:       crypto.NewHeaderCipher(),
		sendCh:       make(chan []byte, sendQueueSize),
		closeCh:      make(chan struct{}),
		writePool:    writePool,
		writeTimeout: writeTimeout,
	}
	c.state.Store(int32(StateInit))
	return c, nil
}

// Conn returns the underlying network connection.
func (c *Client) Conn() net.Conn { return c.conn }

// IP returns the client's remote IP address.
func (c *Client) IP() string { return c.ip }

// Cipher returns the header obfuscation cipher for this connection. It is
// not installed (a no-op) until SetSessionKey is called.
func (c *Client) Cipher() *crypto.HeaderCipher { return c.cipher }

// State returns the current connection state. Lock-free.
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// SetState sets the connection state. Lock-free.
func (c *Client) SetState(s ConnectionState) {
	c.state.Store(int32(s))
}

// AccountName returns the authenticated account name, empty until
// CMSG_AUTH_SESSION succeeds.
func (c *Client) AccountName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accountName
}

// SetAccountName records the authenticated account name.
func (c *Client) SetAccountName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accountName = name
}

// SessionKey returns the session key copied from the login connection.
func (c *Client) SessionKey() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionKey
}

// SetSessionKey records the session key and installs it into the framing
// cipher, obfuscating all subsequent headers (§4.3).
func (c *Client) SetSessionKey(k []byte) {
	c.mu.Lock()
	c.sessionKey = k
	c.mu.Unlock()
	c.cipher.Install(k)
}

// Player returns the logged-in player object, nil before CMSG_PLAYER_LOGIN
// completes.
func (c *Client) Player() *model.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

// SetPlayer attaches the logged-in player to this connection. A WorldConnection
// owns at most one Player for its lifetime (§9: cyclic references).
func (c *Client) SetPlayer(p *model.Player) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.player = p
}

// HandlerData returns a copy of the connection's transient per-handler
// state bag.
func (c *Client) HandlerData() HandlerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlerData
}

// UpdateHandlerData applies fn to the connection's handler state bag under
// the connection lock.
func (c *Client) UpdateHandlerData(fn func(*HandlerState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.handlerData)
}

// writePump is this connection's dedicated writer goroutine: it drains
// sendCh and writes each already-framed packet to the socket.
func (c *Client) writePump() {
	defer func() {
		for {
			select {
			case pkt := <-c.sendCh:
				if c.writePool != nil {
					c.writePool.Put(pkt)
				}
			default:
				return
			}
		}
	}()

	for {
		select {
		case pkt, ok := <-c.sendCh:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				slog.Warn("set write deadline failed", "client", c.ip, "err", err)
				if c.writePool != nil {
					c.writePool.Put(pkt)
				}
				return
			}
			_, err := c.conn.Write(pkt)
			if c.writePool != nil {
				c.writePool.Put(pkt)
			}
			if err != nil {
				slog.Warn("write failed", "client", c.ip, "err", err)
				return
			}
		case <-c.closeCh:
			return
		}
	}
}

// Send queues an already-framed packet for async delivery. Non-blocking:
// a full queue disconnects the slow client rather than blocking the
// connection's dispatch loop.
func (c *Client) Send(pkt []byte) error {
	select {
	case c.sendCh <- pkt:
		return nil
	default:
		if c.writePool != nil {
			c.writePool.Put(pkt)
		}
		slog.Warn("send queue full, disconnecting slow client", "client", c.ip)
		c.CloseAsync()
		return fmt.Errorf("send queue full")
	}
}

// SendSync queues a packet and blocks until accepted or timeout, used for
// handler responses that must be delivered before dispatch continues
// (§5: "handlers complete, including any outbound writes, before the next
// inbound packet is read").
func (c *Client) SendSync(pkt []byte, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case c.sendCh <- pkt:
		return nil
	case <-timer.C:
		if c.writePool != nil {
			c.writePool.Put(pkt)
		}
		return fmt.Errorf("send timeout after %v", timeout)
	case <-c.closeCh:
		if c.writePool != nil {
			c.writePool.Put(pkt)
		}
		return fmt.Errorf("client closed")
	}
}

// CloseAsync signals the writePump to stop without blocking. Safe to call
// more than once.
func (c *Client) CloseAsync() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.closeCh)
	})
}

// Close closes the connection and stops the writePump.
func (c *Client) Close() error {
	c.CloseAsync()
	return c.conn.Close()
}

// MarkForDisconnection marks the connection to be closed after the
// in-flight response is sent.
func (c *Client) MarkForDisconnection() {
	c.markedForDisconnection.Store(true)
}

// IsMarkedForDisconnection reports whether the connection should be closed
// once the current response is flushed.
func (c *Client) IsMarkedForDisconnection() bool {
	return c.markedForDisconnection.Load()
}
