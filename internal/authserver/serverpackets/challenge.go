// Package serverpackets builds the three auth-server response packets
// (§4.2): LOGIN_CHALLENGE, LOGIN_PROOF, and REALMLIST.
package serverpackets

import (
	"github.com/udisondev/aethermoor/internal/crypto"
	"github.com/udisondev/aethermoor/internal/protocol"
)

const gGenerator byte = 7

// Challenge writes a successful LOGIN_CHALLENGE response: opcode, two
// reserved zero bytes, B, g, N, salt, 16 unused random bytes, one trailing
// zero byte.
func Challenge(buf []byte, B []byte, salt [32]byte) int {
	off := 0
	buf[off] = protocol.OpLoginChallenge
	off++
	buf[off] = 0 // LoginResult SUCCESS
	off++
	buf[off] = 0 // reserved
	off++

	copy(buf[off:], B)
	off += crypto.KeyLength

	buf[off] = 1 // g-len
	off++
	buf[off] = gGenerator
	off++

	buf[off] = crypto.KeyLength // N-len
	off++
	off += copy(buf[off:], crypto.NBytes())

	off += copy(buf[off:], salt[:])

	off += 16 // unused random padding, left zero

	buf[off] = 0 // trailing zero byte
	off++

	return off
}

// ChallengeFail writes a terminal LOGIN_CHALLENGE failure: opcode + result
// code. The connection is closed after this response.
func ChallengeFail(buf []byte, result protocol.LoginResult) int {
	buf[0] = protocol.OpLoginChallenge
	buf[1] = byte(result)
	return 2
}
