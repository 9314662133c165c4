package worldserver

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/udisondev/aethermoor/internal/model"
)

// guidRandomBits is the width of the random portion of a generated GUID's
// low word. §4.5 describes GUID assignment as "random, retry until unused";
// the wire GUID itself (model.GUID) is a 64-bit low/high split with the
// object type tag in the high word, so the random retry loop only needs to
// fill a low-word range wide enough to make collisions rare in a single
// world's population. 24 bits (16M values) matches that description while
// leaving the low word's top byte free for future use.
const guidRandomBits = 24
const guidRandomMax = 1 << guidRandomBits

// Registry is the process-wide object manager (§4.5): every live
// BaseObject/Unit/Player is registered here under its GUID, and handlers
// look objects up through it rather than holding direct references across
// connections.
type Registry struct {
	mu      sync.RWMutex
	objects map[model.GUID]*entry
}

type entry struct {
	kind     model.ObjectType
	base     *model.BaseObject
	player   *model.Player // non-nil only for ObjectTypePlayer entries
	position model.Position
}

// NewRegistry creates an empty object registry.
func NewRegistry() *Registry {
	return &Registry{objects: make(map[model.GUID]*entry)}
}

// NewGUID generates an unused GUID of the given type. The registry lock is
// held across the generate-and-check loop so two concurrent callers can
// never be handed the same value (§5: "the object-registry lock is always
// acquired before any per-object lock").
func (r *Registry) NewGUID(kind model.ObjectType) (model.GUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	const maxAttempts = 64
	for i := 0; i < maxAttempts; i++ {
		low, err := randUint32(guidRandomMax)
		if err != nil {
			return 0, fmt.Errorf("generating random guid: %w", err)
		}
		candidate := model.NewGUID(low, kind)
		if _, exists := r.objects[candidate]; !exists {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("no unused guid found after %d attempts", maxAttempts)
}

func randUint32(max uint32) (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]) % max, nil
}

// RegisterObject adds a non-player object to the registry.
func (r *Registry) RegisterObject(base *model.BaseObject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[base.GUID()] = &entry{kind: base.Type(), base: base, position: base.Position()}
}

// RegisterPlayer adds a player to the registry.
func (r *Registry) RegisterPlayer(p *model.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[p.GUID()] = &entry{kind: model.ObjectTypePlayer, base: p.BaseObject, player: p, position: p.Position()}
}

// Unregister removes an object (player or otherwise) from the registry.
func (r *Registry) Unregister(guid model.GUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objects, guid)
}

// Get returns the BaseObject for guid, or nil if it is not registered.
func (r *Registry) Get(guid model.GUID) *model.BaseObject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.objects[guid]
	if !ok {
		return nil
	}
	return e.base
}

// GetPlayer returns the Player for guid, or nil if guid is unregistered or
// not a player.
func (r *Registry) GetPlayer(guid model.GUID) *model.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.objects[guid]
	if !ok {
		return nil
	}
	return e.player
}

// UpdatePosition refreshes the registry's cached position for guid, used by
// PlayersInMap to group objects without re-reading every object's lock on
// every tick. Callers update this after any SetPosition/SetMovement call.
func (r *Registry) UpdatePosition(guid model.GUID, pos model.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.objects[guid]; ok {
		e.position = pos
	}
}

// PlayersInMap returns every registered player sharing the given map and
// zone (§4.5: "players_in_map(map_id, zone_id)"), the fan-out set the
// update engine replicates to.
func (r *Registry) PlayersInMap(mapID, zoneID uint32) []*model.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Player
	for _, e := range r.objects {
		if e.player == nil {
			continue
		}
		if e.position.Map == mapID && e.position.Zone == zoneID {
			out = append(out, e.player)
		}
	}
	return out
}

// ObjectsInMap returns every registered object (of any type) sharing the
// given map and zone, used by the update engine to replicate non-player
// objects (game objects, other units) to nearby players.
func (r *Registry) ObjectsInMap(mapID, zoneID uint32) []*model.BaseObject {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.BaseObject
	for _, e := range r.objects {
		if e.position.Map == mapID && e.position.Zone == zoneID {
			out = append(out, e.base)
		}
	}
	return out
}

// MapZone is a map/zone pair, the granularity PlayersInMap and the update
// engine group subscribers by.
type MapZone struct {
	Map  uint32
	Zone uint32
}

// ActiveMapZones returns every distinct map/zone pair with at least one
// registered object, the tick worker's iteration set.
func (r *Registry) ActiveMapZones() []MapZone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[MapZone]struct{})
	for _, e := range r.objects {
		seen[MapZone{Map: e.position.Map, Zone: e.position.Zone}] = struct{}{}
	}
	out := make([]MapZone, 0, len(seen))
	for mz := range seen {
		out = append(out, mz)
	}
	return out
}

// Count returns the number of registered objects.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}
