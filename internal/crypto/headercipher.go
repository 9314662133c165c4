package crypto

// HeaderCipher obfuscates world-packet headers using the 40-byte session
// key negotiated by SRP (§4.3). Unlike the body, which travels in clear,
// the header bytes are run through a byte-stream transform keyed by K with
// two independent rolling counters per direction.
//
// Encrypt and Decrypt are inverses of each other byte-for-byte:
//
//	decrypt: x = (b XOR K[i]) + j  (mod 256)
//	encrypt: x = (b - j) XOR K[i]  (mod 256)
//	i = (i + 1) mod 40
//
// j tracks the ciphertext byte on both sides of the wire: after encrypting,
// j becomes the emitted byte; after decrypting, j becomes the received byte
// that was just consumed (not the recovered plaintext). Tracking the same
// quantity on both ends is what makes the two transforms actual inverses;
// mixing plaintext on one side with ciphertext on the other does not
// round-trip.
//
// i/j advance only while the cipher is installed; before SRP completes,
// headers travel in clear and Encrypt/Decrypt are no-ops.
type HeaderCipher struct {
	key [40]byte

	sendI, sendJ byte
	recvI, recvJ byte

	installed bool
}

// NewHeaderCipher returns a disabled cipher; call Install once the session
// key is known.
func NewHeaderCipher() *HeaderCipher {
	return &HeaderCipher{}
}

// Install keys the cipher with the 40-byte SRP session key and resets both
// directions' counters to zero.
func (c *HeaderCipher) Install(sessionKey []byte) {
	copy(c.key[:], sessionKey[:40])
	c.sendI, c.sendJ = 0, 0
	c.recvI, c.recvJ = 0, 0
	c.installed = true
}

// Installed reports whether Install has been called.
func (c *HeaderCipher) Installed() bool {
	return c.installed
}

// EncryptHeader obfuscates an outgoing header in place.
func (c *HeaderCipher) EncryptHeader(b []byte) {
	if !c.installed {
		return
	}
	for idx, raw := range b {
		x := (raw - c.sendJ) ^ c.key[c.sendI]
		b[idx] = x
		c.sendI = (c.sendI + 1) % 40
		c.sendJ = x
	}
}

// DecryptHeader deobfuscates an incoming header in place.
func (c *HeaderCipher) DecryptHeader(b []byte) {
	if !c.installed {
		return
	}
	for idx, raw := range b {
		x := (raw ^ c.key[c.recvI]) + c.recvJ
		b[idx] = x
		c.recvI = (c.recvI + 1) % 40
		c.recvJ = raw
	}
}
