package worldserver

import (
	"sync"

	"github.com/udisondev/aethermoor/internal/model"
)

// ClientDirectory maps a logged-in player's GUID back to the connection
// serving it, the lookup the chat and update fan-out need to turn "player
// P should receive body B" into an actual socket write. It is a leaf lock,
// separate from Registry's object map (§5: "no handler holds two
// per-object locks simultaneously" — this is a plain index, not an object
// lock).
type ClientDirectory struct {
	mu      sync.RWMutex
	byGUID  map[model.GUID]*Client
}

// NewClientDirectory creates an empty directory.
func NewClientDirectory() *ClientDirectory {
	return &ClientDirectory{byGUID: make(map[model.GUID]*Client)}
}

// Bind associates a player's GUID with its serving connection.
func (d *ClientDirectory) Bind(guid model.GUID, c *Client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byGUID[guid] = c
}

// Unbind removes a player's GUID from the directory, called on disconnect.
func (d *ClientDirectory) Unbind(guid model.GUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.byGUID, guid)
}

// Get returns the connection serving guid, or nil if it isn't IN_WORLD.
func (d *ClientDirectory) Get(guid model.GUID) *Client {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.byGUID[guid]
}
