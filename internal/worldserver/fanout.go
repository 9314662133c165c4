package worldserver

import (
	"log/slog"
	"sync"

	"github.com/udisondev/aethermoor/internal/model"
	"github.com/udisondev/aethermoor/internal/protocol"
)

// UpdateEngine tracks each object's last-replicated field snapshot and
// turns registry state into per-player SMSG_UPDATE_OBJECT packets (§4.6).
// One engine serves the whole registry; it is safe for concurrent Tick
// calls from the shared background-worker pool (§5).
type UpdateEngine struct {
	registry *Registry

	mu    sync.Mutex
	prior map[model.GUID][]uint32
}

// NewUpdateEngine creates an update engine bound to registry.
func NewUpdateEngine(registry *Registry) *UpdateEngine {
	return &UpdateEngine{registry: registry, prior: make(map[model.GUID][]uint32)}
}

// Forget drops an object's tracked snapshot, called on Unregister so a
// reused GUID doesn't diff against a stale prior state.
func (e *UpdateEngine) Forget(guid model.GUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.prior, guid)
}

// Seed records an object's initial snapshot without sending anything,
// called right after a create block has been sent so the next tick diffs
// from the state the client was just told about.
func (e *UpdateEngine) Seed(guid model.GUID, fields []uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prior[guid] = fields
}

// TickMapZone diffs every object registered in (mapID, zoneID) against its
// last known snapshot and sends the resulting values-update to every
// player subscribed to that object, one packet per subscriber (§4.6:
// "fan-out enumerates subscribed players via the object manager"). players
// is the map/zone's current population, as returned by
// Registry.PlayersInMap; send delivers one already-framed update body to
// one player and is expected to wrap it as SMSG_UPDATE_OBJECT.
func (e *UpdateEngine) TickMapZone(mapID, zoneID uint32, players []*model.Player, send func(p *model.Player, body []byte) error) {
	objects := e.registry.ObjectsInMap(mapID, zoneID)

	for _, obj := range objects {
		current := obj.Snapshot()

		e.mu.Lock()
		prior, seen := e.prior[obj.GUID()]
		e.prior[obj.GUID()] = current
		e.mu.Unlock()

		if !seen {
			continue // first sighting is replicated via a create block, not a diff
		}

		block := BuildValuesUpdate(nil, obj, prior)
		if len(block) == 0 {
			continue
		}
		body := FrameUpdatePacket([][]byte{block})

		for _, p := range players {
			// The owning player always receives its own dirty updates
			// alongside any other subscriber (§4.6).
			if !p.IsTracking(obj.GUID()) && p.GUID() != obj.GUID() {
				continue
			}
			if err := send(p, body); err != nil {
				slog.Warn("update fan-out send failed", "guid", obj.GUID(), "player", p.Name(), "err", err)
			}
		}
	}
}

// FrameUpdatePacket wraps one or more object blocks (built by
// BuildValuesUpdate/BuildCreateBlock) as a complete SMSG_UPDATE_OBJECT
// packet body: a 4-byte little-endian block count followed by the
// concatenated blocks.
func FrameUpdatePacket(blocks [][]byte) []byte {
	body := protocol.PutUint32LE(nil, uint32(len(blocks)))
	for _, b := range blocks {
		body = append(body, b...)
	}
	return body
}

// DestroyObjectBody builds the SMSG_DESTROY_OBJECT body for guid.
func DestroyObjectBody(guid model.GUID) []byte {
	return appendGUID(nil, guid)
}
