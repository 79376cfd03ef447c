package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferOverflowKeepsPrefix(t *testing.T) {
	b := NewBuffer()

	for i := 0; i < FrameSize+8; i++ {
		b.Write(byte(i))
	}

	assert.Equal(t, FrameSize, b.Len())
	assert.Equal(t, 8, b.Dropped())

	for i := 0; i < FrameSize; i++ {
		assert.Equal(t, byte(i), b.Read())
	}
	assert.Equal(t, 0, b.BytesAvailable())
}

func TestBufferBytesAvailable(t *testing.T) {
	b := NewBuffer()

	assert.Equal(t, 0, b.BytesAvailable())

	b.Write('a')
	b.Write('b')
	assert.Equal(t, 2, b.BytesAvailable())

	b.Read()
	assert.Equal(t, 1, b.BytesAvailable())

	b.Read()
	assert.Equal(t, 0, b.BytesAvailable())
}

func TestBufferReadStopsAtCapacity(t *testing.T) {
	b := NewBuffer()
	b.Load(make([]byte, FrameSize))

	for i := 0; i < FrameSize+5; i++ {
		b.Read()
	}
	// The cursor must not run past the array; extra reads yield the last
	// byte again.
	assert.Equal(t, byte(0), b.Read())
	assert.Equal(t, 0, b.BytesAvailable())
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer()
	b.Write('x')
	b.Read()

	b.Reset()

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.BytesAvailable())
	assert.Equal(t, 0, b.Dropped())
}

func TestBufferLoadTruncates(t *testing.T) {
	b := NewBuffer()
	b.Load(make([]byte, FrameSize*2))
	assert.Equal(t, FrameSize, b.Len())
}
