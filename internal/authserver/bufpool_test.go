package authserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytePoolGetReturnsZeroedBuffer(t *testing.T) {
	p := NewBytePool(64)
	b := p.Get(32)
	require := assert.New(t)
	require.Len(b, 32)
	for _, v := range b {
		require.Equal(byte(0), v)
	}
}

func TestBytePoolReuse(t *testing.T) {
	p := NewBytePool(64)
	b := p.Get(32)
	b[0] = 0xFF
	p.Put(b)

	b2 := p.Get(32)
	assert.Equal(t, byte(0), b2[0], "reused buffer must be cleared")
}

func TestBytePoolGrowsBeyondDefaultCap(t *testing.T) {
	p := NewBytePool(8)
	b := p.Get(128)
	assert.Len(t, b, 128)
}
