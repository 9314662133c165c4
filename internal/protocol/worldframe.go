package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/udisondev/aethermoor/internal/crypto"
)

// World-protocol opcode widths: client→server opcodes are 4 bytes,
// server→client opcodes are 2 bytes (§4.3).
const (
	ClientOpcodeSize = 4
	ServerOpcodeSize = 2
)

// ClientPacket is one opcode-tagged message read from a world connection.
type ClientPacket struct {
	Opcode uint32
	Body   []byte
}

// ReadClientPacket reads one framed packet from r: a 2-byte big-endian
// length (covering the opcode and body, not the length field itself),
// followed by a 4-byte opcode and the body. If cipher is installed, the
// first 6 bytes of the header (length + opcode) are deobfuscated before
// the length and opcode are interpreted.
func ReadClientPacket(r io.Reader, cipher *crypto.HeaderCipher) (*ClientPacket, error) {
	header := make([]byte, 2+ClientOpcodeSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading world packet header: %w", err)
	}
	cipher.DecryptHeader(header)

	length := int(binary.BigEndian.Uint16(header[:2]))
	if length < ClientOpcodeSize {
		return nil, fmt.Errorf("invalid world packet length %d", length)
	}
	opcode := binary.LittleEndian.Uint32(header[2:])

	bodyLen := length - ClientOpcodeSize
	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("reading world packet body: %w", err)
		}
	}

	return &ClientPacket{Opcode: opcode, Body: body}, nil
}

// AppendServerPacket frames opcode+body and appends the result to buf,
// returning the extended slice. Used where a packet is queued for async
// delivery rather than written synchronously (the world server's per-
// connection write pump), so framing and socket I/O stay decoupled.
func AppendServerPacket(buf []byte, cipher *crypto.HeaderCipher, opcode uint16, body []byte) ([]byte, error) {
	length := ServerOpcodeSize + len(body)
	if length > 0xFFFF {
		return nil, fmt.Errorf("world packet too large: %d bytes", length)
	}

	start := len(buf)
	buf = append(buf, make([]byte, 2+ServerOpcodeSize)...)
	header := buf[start:]
	binary.BigEndian.PutUint16(header[:2], uint16(length))
	binary.LittleEndian.PutUint16(header[2:], opcode)
	cipher.EncryptHeader(header)

	buf = append(buf, body...)
	return buf, nil
}

// WriteServerPacket frames and writes opcode+body to w: a 2-byte
// big-endian length, a 2-byte little-endian opcode, then body. If cipher
// is installed, the 4-byte header (length + opcode) is obfuscated first.
func WriteServerPacket(w io.Writer, cipher *crypto.HeaderCipher, opcode uint16, body []byte) error {
	length := ServerOpcodeSize + len(body)
	if length > 0xFFFF {
		return fmt.Errorf("world packet too large: %d bytes", length)
	}

	header := make([]byte, 2+ServerOpcodeSize)
	binary.BigEndian.PutUint16(header[:2], uint16(length))
	binary.LittleEndian.PutUint16(header[2:], opcode)
	cipher.EncryptHeader(header)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing world packet header: %w", err)
	}
	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("writing world packet body: %w", err)
		}
	}
	return nil
}
