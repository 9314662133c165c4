// Package protocol implements the wire framing for both the auth port
// (SRP-6 login handshake) and the world port (length-prefixed, optionally
// header-obfuscated game packets).
package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Auth opcodes, identified by the first byte of every packet (§4.2).
const (
	OpLoginChallenge byte = 0x00
	OpLoginProof     byte = 0x01
	OpRealmList      byte = 0x10
)

const (
	// challengeVersionLocaleLen is the fixed-width version/locale prefix
	// that precedes the account name in a LOGIN_CHALLENGE body.
	challengeVersionLocaleLen = 6

	// ProofBodyLen is the fixed size of a LOGIN_PROOF body: A (32) + M1
	// (20) + checksum (20) + key-count (1).
	ProofBodyLen = 32 + 20 + 20 + 1

	// RealmlistBodyLen is the fixed size of a REALMLIST body: 4 reserved
	// bytes.
	RealmlistBodyLen = 4
)

// ReadAuthPacket reads one client auth packet from r: an opcode byte
// followed by an opcode-specific body (§4.2). Unlike the world protocol,
// auth packets carry no outer length prefix, so each opcode's body is
// read according to its own fixed or self-delimited shape. The returned
// body aliases buf and is only valid until the next call.
//
// For LOGIN_CHALLENGE, the version/locale prefix is read and discarded;
// the returned body is just the NUL-terminated account name, matching
// the other two opcodes' flat fixed-size bodies.
func ReadAuthPacket(r *bufio.Reader, buf []byte) (opcode byte, body []byte, err error) {
	opcode, err = r.ReadByte()
	if err != nil {
		return 0, nil, fmt.Errorf("reading opcode: %w", err)
	}

	switch opcode {
	case OpLoginChallenge:
		var prefix [challengeVersionLocaleLen]byte
		if _, err := io.ReadFull(r, prefix[:]); err != nil {
			return 0, nil, fmt.Errorf("reading challenge prefix: %w", err)
		}
		name, err := ReadCString(r)
		if err != nil {
			return 0, nil, fmt.Errorf("reading account name: %w", err)
		}
		n := copy(buf, name)
		buf[n] = 0
		return opcode, buf[:n+1], nil
	case OpLoginProof:
		if _, err := io.ReadFull(r, buf[:ProofBodyLen]); err != nil {
			return 0, nil, fmt.Errorf("reading proof body: %w", err)
		}
		return opcode, buf[:ProofBodyLen], nil
	case OpRealmList:
		if _, err := io.ReadFull(r, buf[:RealmlistBodyLen]); err != nil {
			return 0, nil, fmt.Errorf("reading realmlist body: %w", err)
		}
		return opcode, buf[:RealmlistBodyLen], nil
	default:
		return opcode, nil, fmt.Errorf("unknown auth opcode 0x%02X", opcode)
	}
}

// LoginResult is the one-byte status code that follows the echoed opcode in
// every auth response.
type LoginResult byte

const (
	LoginSuccess             LoginResult = 0x00
	LoginFailUnknownAccount  LoginResult = 0x04
	LoginFailIncorrectPass   LoginResult = 0x05
	LoginFailAlreadyOnline   LoginResult = 0x06
	LoginFailBanned          LoginResult = 0x09
	LoginFailSuspended       LoginResult = 0x0C
	LoginFailVersionInvalid  LoginResult = 0x0A
)

// ReadCString reads a NUL-terminated string from r.
func ReadCString(r io.ByteReader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("reading cstring: %w", err)
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

// WriteCString appends s plus a terminating NUL to buf.
func WriteCString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

// PutUint32LE appends a little-endian uint32 to buf.
func PutUint32LE(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// PutUint16LE appends a little-endian uint16 to buf.
func PutUint16LE(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}
