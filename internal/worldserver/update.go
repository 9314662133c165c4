package worldserver

import (
	"math"
	"sort"

	"github.com/udisondev/aethermoor/internal/model"
	"github.com/udisondev/aethermoor/internal/protocol"
)

// UpdateType distinguishes a full object creation from an incremental
// values-only update within SMSG_UPDATE_OBJECT (§4.6).
type UpdateType byte

const (
	UpdateTypeValues UpdateType = iota
	UpdateTypeCreate
)

// guidFieldPairs lists the dense-field-table indices whose low/high halves
// are always dirtied together, even when one half's value is unchanged
// (§8 scenario 2: a fresh GUID dirties both its low and high word).
var guidFieldPairs = [][2]model.FieldIndex{
	{model.FieldGUID, model.FieldGUID + 1},
	{model.FieldTargetGUID, model.FieldTargetGUID + 1},
}

// diffFields compares two field-table snapshots of equal length and
// returns the ascending list of dirty field indices. Comparison is
// bit-exact (§4.6): float fields are compared as their raw uint32 bit
// patterns, so writing back an identical value never dirties a field.
func diffFields(oldFields, newFields []uint32) []int {
	var dirty []int
	for i := range newFields {
		if i >= len(oldFields) || oldFields[i] != newFields[i] {
			dirty = append(dirty, i)
		}
	}
	return expandGUIDPairs(dirty)
}

// expandGUIDPairs adds the partner half of any dirty GUID-pair field that
// isn't already present, then returns the result sorted ascending.
func expandGUIDPairs(dirty []int) []int {
	set := make(map[int]struct{}, len(dirty))
	for _, idx := range dirty {
		set[idx] = struct{}{}
	}
	for _, pair := range guidFieldPairs {
		lo, hi := int(pair[0]), int(pair[1])
		if _, ok := set[lo]; ok {
			set[hi] = struct{}{}
		}
		if _, ok := set[hi]; ok {
			set[lo] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for idx := range set {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// nonZeroFields returns every field index whose current value is non-zero,
// expanded for GUID pairs. Used when building a create block, which
// replicates every meaningfully-set field rather than a diff against a
// prior snapshot (§4.6: "all non-default fields").
func nonZeroFields(fields []uint32) []int {
	var dirty []int
	for i, v := range fields {
		if v != 0 {
			dirty = append(dirty, i)
		}
	}
	return expandGUIDPairs(dirty)
}

// encodeFieldUpdate appends the update-mask encoding of dirty fields
// against fields to buf: a one-byte mask-block count, that many 32-bit
// little-endian mask words (bit k of block b marks field 32*b+k dirty),
// then the dirty fields' raw 32-bit values in ascending index order
// (§8 scenario 2).
func encodeFieldUpdate(buf []byte, fields []uint32, dirty []int) []byte {
	if len(dirty) == 0 {
		return append(buf, 0)
	}

	maxIdx := dirty[len(dirty)-1]
	blockCount := maxIdx/32 + 1
	buf = append(buf, byte(blockCount))

	maskBlocks := make([]uint32, blockCount)
	for _, idx := range dirty {
		maskBlocks[idx/32] |= 1 << uint(idx%32)
	}
	for _, w := range maskBlocks {
		buf = protocol.PutUint32LE(buf, w)
	}
	for _, idx := range dirty {
		buf = protocol.PutUint32LE(buf, fields[idx])
	}
	return buf
}

// BuildValuesUpdate appends a values-only update block for obj to buf,
// diffing its current fields against prior. Returns buf unchanged (no
// block appended) if nothing is dirty, so callers can skip objects with no
// replication work.
func BuildValuesUpdate(buf []byte, obj *model.BaseObject, prior []uint32) []byte {
	current := obj.Snapshot()
	dirty := diffFields(prior, current)
	if len(dirty) == 0 {
		return buf
	}

	buf = append(buf, byte(UpdateTypeValues))
	buf = appendGUID(buf, obj.GUID())
	buf = encodeFieldUpdate(buf, current, dirty)
	return buf
}

// BuildCreateBlock appends a full object-creation block for obj to buf:
// update-type, GUID, object type, movement block (Units only), and every
// non-default field (§4.6).
func BuildCreateBlock(buf []byte, obj *model.BaseObject, movement *model.MovementRecord) []byte {
	current := obj.Snapshot()
	dirty := nonZeroFields(current)

	buf = append(buf, byte(UpdateTypeCreate))
	buf = appendGUID(buf, obj.GUID())
	buf = append(buf, byte(obj.Type()))
	buf = appendMovementBlock(buf, movement)
	buf = encodeFieldUpdate(buf, current, dirty)
	return buf
}

// appendGUID appends a GUID as its 8-byte little-endian wire form.
func appendGUID(buf []byte, g model.GUID) []byte {
	buf = protocol.PutUint32LE(buf, g.Low())
	buf = protocol.PutUint32LE(buf, g.High())
	return buf
}

// appendMovementBlock appends a unit's movement state: flags, timestamp,
// position, orientation, pitch, fall time. A nil movement (non-Unit
// objects) writes an all-zero record of the same width so block sizes stay
// predictable.
func appendMovementBlock(buf []byte, m *model.MovementRecord) []byte {
	var flags uint32
	var timestamp uint32
	var pos model.Position
	var pitch float32
	var fallTime uint32
	if m != nil {
		flags = uint32(m.Flags)
		timestamp = m.Timestamp
		pos = m.Position
		pitch = m.Pitch
		fallTime = m.FallTime
	}

	buf = protocol.PutUint32LE(buf, flags)
	buf = protocol.PutUint32LE(buf, timestamp)
	buf = appendFloat32(buf, pos.X)
	buf = appendFloat32(buf, pos.Y)
	buf = appendFloat32(buf, pos.Z)
	buf = appendFloat32(buf, pos.Orientation)
	buf = appendFloat32(buf, pitch)
	buf = protocol.PutUint32LE(buf, fallTime)
	return buf
}

func appendFloat32(buf []byte, f float32) []byte {
	return protocol.PutUint32LE(buf, math.Float32bits(f))
}
