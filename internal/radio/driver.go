package radio

// Driver wraps the physical packet radio in the idiom of an nRF24-style
// transceiver: addressed pipes, half-duplex listen discipline, single
// fixed-size frame reads and writes. Implementations are not safe for
// concurrent use; the device loop is the only caller.
type Driver interface {
	Begin(channel uint8) error

	// OpenReadingPipe attaches a receive slot to an address. Slot 0 is
	// also used as the acknowledgement pipe by real hardware, so callers
	// keep their unit address on slot 1 and broadcast on slot 2.
	OpenReadingPipe(slot uint8, address uint64) error
	CloseReadingPipe(slot uint8)

	OpenWritingPipe(address uint64)

	StartListening()
	StopListening()

	// Available is a non-blocking poll for a pending received frame.
	Available() bool

	// Read copies exactly one fixed-size frame into buf and reports the
	// number of bytes copied.
	Read(buf []byte) (int, error)

	// Write transmits one frame to the writing pipe. Delivery is
	// at-most-once, unordered and unacknowledged.
	Write(frame []byte) error
}
