package serverpackets

import "github.com/udisondev/aethermoor/internal/protocol"

// Proof writes a successful LOGIN_PROOF response: opcode, SUCCESS, server
// proof M2 (20 bytes), 4 zero bytes (unused account flags).
func Proof(buf []byte, M2 []byte) int {
	off := 0
	buf[off] = protocol.OpLoginProof
	off++
	buf[off] = byte(protocol.LoginSuccess)
	off++
	off += copy(buf[off:], M2)
	off += 4 // unused account flags
	return off
}

// ProofFail writes a terminal LOGIN_PROOF failure: opcode + result code.
// The connection is closed after this response.
func ProofFail(buf []byte, result protocol.LoginResult) int {
	buf[0] = protocol.OpLoginProof
	buf[1] = byte(result)
	return 2
}
