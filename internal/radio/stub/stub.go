// Package stub provides an in-memory radio driver and a hub wiring several
// drivers into one simulated network. Tests and the -sim mode of the node
// daemon run on it instead of real hardware.
package stub

import (
	"sync"

	"github.com/fenrir/lurker/internal/packet"
	"github.com/fenrir/lurker/internal/radio"
)

const queueCapacity = 64

// Network routes frames between attached drivers by their open reading
// pipes. Delivery is immediate, at-most-once and silent on no listener,
// like the real link.
type Network struct {
	mu      sync.Mutex
	drivers []*Driver
}

func NewNetwork() *Network {
	return &Network{}
}

// Attach creates a driver connected to this network.
func (n *Network) Attach() *Driver {
	n.mu.Lock()
	defer n.mu.Unlock()
	d := &Driver{
		network: n,
		pipes:   make(map[uint8]uint64),
	}
	n.drivers = append(n.drivers, d)
	return d
}

func (n *Network) deliver(from *Driver, address uint64, frame []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, d := range n.drivers {
		if d == from {
			continue
		}
		d.receive(address, frame)
	}
}

// Driver is an in-memory radio.Driver. A frame written to an address is
// delivered to every other attached driver currently listening on it.
type Driver struct {
	network *Network

	mu        sync.Mutex
	pipes     map[uint8]uint64
	writePipe uint64
	listening bool
	queue     [][]byte

	// Drops counts frames discarded because the receive queue was full.
	Drops int
}

func (d *Driver) Begin(channel uint8) error {
	return nil
}

func (d *Driver) OpenReadingPipe(slot uint8, address uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pipes[slot] = address
	return nil
}

func (d *Driver) CloseReadingPipe(slot uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pipes, slot)
}

func (d *Driver) OpenWritingPipe(address uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writePipe = address
}

func (d *Driver) StartListening() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listening = true
}

func (d *Driver) StopListening() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listening = false
}

func (d *Driver) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue) > 0
}

func (d *Driver) Read(buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return 0, nil
	}
	frame := d.queue[0]
	d.queue = d.queue[1:]
	return copy(buf, frame), nil
}

func (d *Driver) Write(frame []byte) error {
	d.mu.Lock()
	address := d.writePipe
	d.mu.Unlock()
	// Real hardware always delivers full fixed-size frames; pad so stale
	// tail bytes are deterministic zeroes in the simulation.
	padded := make([]byte, packet.FrameSize)
	copy(padded, frame)
	d.network.deliver(d, address, padded)
	return nil
}

func (d *Driver) receive(address uint64, frame []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.listening {
		return
	}
	match := false
	for _, open := range d.pipes {
		if open == address {
			match = true
			break
		}
	}
	if !match {
		return
	}
	if len(d.queue) >= queueCapacity {
		d.Drops++
		return
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	d.queue = append(d.queue, cp)
}

var _ radio.Driver = (*Driver)(nil)
