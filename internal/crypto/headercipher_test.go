package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderCipherRoundTrip(t *testing.T) {
	key := make([]byte, 40)
	for i := range key {
		key[i] = byte(i * 7)
	}

	send := NewHeaderCipher()
	send.Install(key)
	recv := NewHeaderCipher()
	recv.Install(key)

	for packet := 0; packet < 5; packet++ {
		header := []byte{0x00, byte(packet), 0xAA, 0xBB, 0xCC, 0xDD}
		want := append([]byte(nil), header...)

		send.EncryptHeader(header)
		assert.NotEqual(t, want, header, "header should be transformed")

		recv.DecryptHeader(header)
		assert.Equal(t, want, header, "round trip must recover original bytes")
	}
}

// TestHeaderCipherScenario5FixedVector follows spec scenario 5's literal
// vector: key = 40 bytes of 0x01..0x28, two consecutive zero headers. After
// H1, send_i must be 4 and send_j the last byte H1 encrypted to; H2's first
// byte must be encrypted with K[4] against that carried-over send_j.
func TestHeaderCipherScenario5FixedVector(t *testing.T) {
	key := make([]byte, 40)
	for i := range key {
		key[i] = byte(i + 1)
	}

	c := NewHeaderCipher()
	c.Install(key)

	h1 := []byte{0x00, 0x00, 0x00, 0x00}
	c.EncryptHeader(h1)
	assert.Equal(t, []byte{0x01, 0xFD, 0x00, 0x04}, h1)
	assert.Equal(t, byte(4), c.sendI)
	assert.Equal(t, byte(4), c.sendJ)
	assert.Equal(t, h1[3], c.sendJ)

	h2 := []byte{0x00, 0x00, 0x00, 0x00}
	c.EncryptHeader(h2)
	assert.Equal(t, byte(0xF9), h2[0], "H2's first byte encrypted with K[4]=5 against H1's carried-over send_j=4")
}

func TestHeaderCipherNoOpBeforeInstall(t *testing.T) {
	c := NewHeaderCipher()
	require.False(t, c.Installed())

	header := []byte{0x01, 0x02, 0x03}
	want := append([]byte(nil), header...)
	c.EncryptHeader(header)
	assert.Equal(t, want, header)
}
