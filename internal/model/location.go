package model

// Position is a world-object's placement: the map/zone pair the object
// manager groups subscribers by, plus the continuous coordinates and facing
// replicated to clients.
type Position struct {
	Map         uint32
	Zone        uint32
	X           float32
	Y           float32
	Z           float32
	Orientation float32
}

// NewPosition builds a Position from its components.
func NewPosition(mapID, zone uint32, x, y, z, orientation float32) Position {
	return Position{Map: mapID, Zone: zone, X: x, Y: y, Z: z, Orientation: orientation}
}

// SameMapZone reports whether two positions share a map and zone, the
// granularity the update engine uses to decide subscription.
func (p Position) SameMapZone(other Position) bool {
	return p.Map == other.Map && p.Zone == other.Zone
}
