package serverpackets

import (
	"encoding/binary"

	"github.com/udisondev/aethermoor/internal/config"
	"github.com/udisondev/aethermoor/internal/protocol"
)

// Realmlist writes the REALMLIST response: opcode, a little-endian realm
// count, then one record per realm: population (1 byte), category (uint32
// LE), NUL-terminated name, NUL-terminated host, port (uint32 LE). The
// records themselves carry no length prefix.
func Realmlist(buf []byte, realms []config.RealmEntry) int {
	off := 0
	buf[off] = protocol.OpRealmList
	off++

	binary.LittleEndian.PutUint32(buf[off:], uint32(len(realms)))
	off += 4

	for _, r := range realms {
		buf[off] = r.Population
		off++
		binary.LittleEndian.PutUint32(buf[off:], r.Category)
		off += 4

		off += copy(buf[off:], r.Name)
		buf[off] = 0
		off++

		off += copy(buf[off:], r.Host)
		buf[off] = 0
		off++

		binary.LittleEndian.PutUint32(buf[off:], uint32(r.Port))
		off += 4
	}

	return off
}

// RealmlistSize returns an upper bound on the encoded size of realms, for
// sizing the response buffer.
func RealmlistSize(realms []config.RealmEntry) int {
	size := 5
	for _, r := range realms {
		size += 1 + 4 + len(r.Name) + 1 + len(r.Host) + 1 + 4
	}
	return size
}
