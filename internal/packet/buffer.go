package packet

// FrameSize is the fixed on-air payload length of the radio. Every frame
// occupies exactly this many bytes regardless of how much was written.
const FrameSize = 32

// Buffer is a fixed-capacity byte buffer with independent write and read
// cursors, shared by the transmit and receive paths. Writing beyond capacity
// silently drops the byte: overflowing frames lose trailing fields instead
// of failing, matching the constrained-memory radio hardware. Callers on the
// read side must consult BytesAvailable before reading, otherwise Read
// returns stale bytes from previous use.
type Buffer struct {
	data    [FrameSize]byte
	putter  int
	getter  int
	dropped int
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Reset rewinds both cursors. Contents are not zeroed.
func (b *Buffer) Reset() {
	b.putter = 0
	b.getter = 0
	b.dropped = 0
}

// Write appends a byte at the write cursor. Beyond capacity it is a no-op
// apart from the dropped counter.
func (b *Buffer) Write(c byte) {
	if b.putter >= FrameSize {
		b.dropped++
		return
	}
	b.data[b.putter] = c
	b.putter++
}

// Read returns the byte at the read cursor and advances it, stopping at the
// capacity boundary.
func (b *Buffer) Read() byte {
	if b.getter >= FrameSize {
		return b.data[FrameSize-1]
	}
	c := b.data[b.getter]
	b.getter++
	return c
}

// BytesAvailable reports how many written bytes remain unread.
func (b *Buffer) BytesAvailable() int {
	if b.getter >= b.putter {
		return 0
	}
	return b.putter - b.getter
}

// Dropped reports how many writes were discarded since the last Reset.
func (b *Buffer) Dropped() int {
	return b.dropped
}

func (b *Buffer) Len() int {
	return b.putter
}

// Bytes returns the written prefix of the buffer. The slice aliases the
// buffer's storage and is invalidated by the next Reset.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.putter]
}

// Load replaces the buffer contents with a received frame and rewinds the
// read cursor. Input longer than the capacity is truncated.
func (b *Buffer) Load(frame []byte) {
	n := copy(b.data[:], frame)
	b.putter = n
	b.getter = 0
	b.dropped = 0
}
