package radio

import (
	"errors"

	"github.com/fenrir/lurker/internal/packet"
)

var ErrFrameTooLong = errors.New("radio: frame exceeds fixed frame size")

// Reading pipe slots. Slot 0 stays free for the hardware ack pipe.
const (
	SlotUnit      uint8 = 1
	SlotBroadcast uint8 = 2
)

// PipeConfig fixes the addressing convention: every unit listens on
// base+identity, non-coordinator units additionally on the broadcast pipe.
type PipeConfig struct {
	BasePipe      uint64
	BroadcastPipe uint64
	Channel       uint8
}

// UnitPipe derives the unit-specific address of a node. The coordinator's
// unit pipe is the bare base address, which doubles as the generic join
// target during enumeration.
func (c PipeConfig) UnitPipe(id packet.NodeID) uint64 {
	return c.BasePipe + uint64(id)
}

// Transport drives a Driver with the half-duplex stop/start-listening
// discipline and the Lurker pipe layout.
type Transport struct {
	driver Driver
	pipes  PipeConfig
}

func NewTransport(driver Driver, pipes PipeConfig) *Transport {
	return &Transport{
		driver: driver,
		pipes:  pipes,
	}
}

func (t *Transport) Pipes() PipeConfig {
	return t.pipes
}

// Listen opens the unit pipe of id, the broadcast pipe for non-coordinator
// units, and starts the receiver.
func (t *Transport) Listen(id packet.NodeID) error {
	if err := t.driver.Begin(t.pipes.Channel); err != nil {
		return err
	}
	if err := t.driver.OpenReadingPipe(SlotUnit, t.pipes.UnitPipe(id)); err != nil {
		return err
	}
	if id != packet.CoordinatorID {
		if err := t.driver.OpenReadingPipe(SlotBroadcast, t.pipes.BroadcastPipe); err != nil {
			return err
		}
	}
	t.driver.StartListening()
	return nil
}

// Send transmits one frame to an explicit pipe address, observing the
// half-duplex discipline: the receiver is stopped for the duration of the
// write and resumed afterwards.
func (t *Transport) Send(address uint64, frame []byte) error {
	if len(frame) > packet.FrameSize {
		return ErrFrameTooLong
	}
	t.driver.StopListening()
	defer t.driver.StartListening()
	t.driver.OpenWritingPipe(address)
	return t.driver.Write(frame)
}

// SendToNode transmits to the unit pipe of id.
func (t *Transport) SendToNode(id packet.NodeID, frame []byte) error {
	return t.Send(t.pipes.UnitPipe(id), frame)
}

// Broadcast transmits to the broadcast pipe.
func (t *Transport) Broadcast(frame []byte) error {
	return t.Send(t.pipes.BroadcastPipe, frame)
}

// Available polls for a pending frame without blocking.
func (t *Transport) Available() bool {
	return t.driver.Available()
}

// Receive copies one pending frame into buf.
func (t *Transport) Receive(buf *packet.Buffer) bool {
	var raw [packet.FrameSize]byte
	n, err := t.driver.Read(raw[:])
	if err != nil || n == 0 {
		return false
	}
	buf.Load(raw[:n])
	return true
}
