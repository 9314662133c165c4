package model

import (
	"math"
	"sync"
)

// ObjectType tags a BaseObject's kind. Values are part of the wire contract
// (packed into a GUID's high bits and into FieldType) and must not be
// renumbered.
type ObjectType uint8

const (
	ObjectTypeObject ObjectType = iota
	ObjectTypeItem
	ObjectTypeContainer
	ObjectTypeUnit
	ObjectTypePlayer
	ObjectTypeGameObject
	ObjectTypeDynamicObject
	ObjectTypeCorpse
)

func (t ObjectType) String() string {
	switch t {
	case ObjectTypeObject:
		return "OBJECT"
	case ObjectTypeItem:
		return "ITEM"
	case ObjectTypeContainer:
		return "CONTAINER"
	case ObjectTypeUnit:
		return "UNIT"
	case ObjectTypePlayer:
		return "PLAYER"
	case ObjectTypeGameObject:
		return "GAMEOBJECT"
	case ObjectTypeDynamicObject:
		return "DYNAMICOBJECT"
	case ObjectTypeCorpse:
		return "CORPSE"
	default:
		return "UNKNOWN"
	}
}

// GUID is the 64-bit identifier for a world object. The low 32 bits are a
// generator-assigned counter/random value, the high 32 bits carry the
// object's type, mirroring the real wire format's GUID high/low split.
type GUID uint64

// NewGUID packs a low word and a type tag into a GUID.
func NewGUID(low uint32, kind ObjectType) GUID {
	return GUID(uint64(kind)<<32 | uint64(low))
}

// Low returns the low 32 bits of the GUID.
func (g GUID) Low() uint32 { return uint32(g) }

// High returns the high 32 bits of the GUID.
func (g GUID) High() uint32 { return uint32(g >> 32) }

// Type extracts the object type tag packed into the GUID's high bits.
func (g GUID) Type() ObjectType { return ObjectType(g.High()) }

// BaseObject is the root of the world-object hierarchy: a GUID, a type tag,
// a dense field table, and a position. Field reads and writes are
// serialised through mu, satisfying §5's "one writer at a time per object."
type BaseObject struct {
	mu       sync.RWMutex
	guid     GUID
	kind     ObjectType
	fields   []uint32
	position Position
}

// NewBaseObject allocates a BaseObject with a field table sized for
// fieldCount entries, all zero-initialized, and sets the GUID/TYPE fields.
func NewBaseObject(guid GUID, kind ObjectType, fieldCount int) *BaseObject {
	o := &BaseObject{
		guid:   guid,
		kind:   kind,
		fields: make([]uint32, fieldCount),
	}
	o.fields[FieldGUID] = guid.Low()
	o.fields[fieldGUIDHigh] = guid.High()
	o.fields[FieldType] = uint32(kind)
	return o
}

// GUID returns the object's identifier. Immutable after construction.
func (o *BaseObject) GUID() GUID { return o.guid }

// Type returns the object's type tag. Immutable after construction.
func (o *BaseObject) Type() ObjectType { return o.kind }

// Position returns a copy of the object's current position.
func (o *BaseObject) Position() Position {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.position
}

// SetPosition updates the object's position. Position is not part of the
// dense field table — it is replicated out-of-band by movement opcodes.
func (o *BaseObject) SetPosition(p Position) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.position = p
}

// UInt32 reads a field as a raw 32-bit word.
func (o *BaseObject) UInt32(idx FieldIndex) uint32 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.fields[idx]
}

// SetUInt32 writes a field's raw 32-bit word.
func (o *BaseObject) SetUInt32(idx FieldIndex, v uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fields[idx] = v
}

// Float32 reads a field interpreted as an IEEE-754 float.
func (o *BaseObject) Float32(idx FieldIndex) float32 {
	return math.Float32frombits(o.UInt32(idx))
}

// SetFloat32 writes a field as the bit pattern of an IEEE-754 float.
// Comparisons against the previous value are bit-exact (§4.6): assigning the
// same bit pattern twice does not dirty the field.
func (o *BaseObject) SetFloat32(idx FieldIndex, v float32) {
	o.SetUInt32(idx, math.Float32bits(v))
}

// GUIDField reads a two-word (low, high) field pair as a GUID.
func (o *BaseObject) GUIDField(idx FieldIndex) GUID {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return GUID(uint64(o.fields[idx+1])<<32 | uint64(o.fields[idx]))
}

// SetGUIDField writes a GUID into a two-word (low, high) field pair.
func (o *BaseObject) SetGUIDField(idx FieldIndex, g GUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fields[idx] = g.Low()
	o.fields[idx+1] = g.High()
}

// FieldCount returns the size of the dense field table.
func (o *BaseObject) FieldCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.fields)
}

// Snapshot returns a copy of the current field table, used by the update
// engine to diff against a previously taken snapshot (§4.6).
func (o *BaseObject) Snapshot() []uint32 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	cp := make([]uint32, len(o.fields))
	copy(cp, o.fields)
	return cp
}
