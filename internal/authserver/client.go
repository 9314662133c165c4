package authserver

import (
	"fmt"
	"net"
	"sync"

	"github.com/udisondev/aethermoor/internal/model"
)

// Client is a single client connection to the auth server: the SRP
// handshake state for one LoginConnection (§3).
type Client struct {
	conn net.Conn
	ip   string

	mu      sync.Mutex
	state   ConnectionState
	account *model.Account // nil until the challenge handler looks it up

	// SRP context, populated incrementally as the handshake proceeds.
	b []byte // server private ephemeral
	B []byte // server public ephemeral
	K []byte // 40-byte session key, set once the proof handler validates M1
}

// NewClient creates login connection state for the given socket.
func NewClient(conn net.Conn) (*Client, error) {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return nil, fmt.Errorf("splitting host port: %w", err)
	}
	return &Client{conn: conn, ip: host, state: StateInit}, nil
}

// IP returns the client's remote IP address.
func (c *Client) IP() string { return c.ip }

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState sets the connection state.
func (c *Client) SetState(s ConnectionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// Account returns the account linked to this connection, nil until the
// challenge handler looks it up.
func (c *Client) Account() *model.Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account
}

// SetAccount links the connection to an account.
func (c *Client) SetAccount(acc *model.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = acc
}

// SetChallenge stores the server-side SRP ephemeral pair computed by the
// challenge handler.
func (c *Client) SetChallenge(b, B []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.b, c.B = b, B
}

// Challenge returns the server-side SRP ephemeral pair.
func (c *Client) Challenge() (b, B []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.b, c.B
}

// SetSessionKey stores the derived 40-byte session key once the proof
// handler validates the client's M1.
func (c *Client) SetSessionKey(k []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.K = k
}

// SessionKey returns the derived session key, nil until the proof handler
// succeeds.
func (c *Client) SessionKey() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.K
}
