package radio

import (
	"sync"

	"github.com/fenrir/lurker/internal/logger"
	"github.com/fenrir/lurker/internal/packet"
	"go.bug.st/serial.v1"
)

// serialDriver talks to a radio adapter attached over a serial port. The
// adapter firmware exposes the transceiver one opcode per operation:
//
//	'B' channel                  begin
//	'R' slot addr[5]             open reading pipe
//	'C' slot                     close reading pipe
//	'W' addr[5]                  open writing pipe
//	'L' / 'l'                    start / stop listening
//	'T' len payload              transmit one frame
//
// and pushes received frames back as 'F' len payload.
type serialDriver struct {
	port   serial.Port
	logger logger.Logger

	mu    sync.Mutex
	queue [][]byte
}

// NewSerialDriver opens the adapter on the named port.
func NewSerialDriver(portName string, baudRate int, logLevel int) (Driver, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, err
	}

	d := &serialDriver{
		port:   port,
		logger: logger.GetLogger("[Radio Adapter]", logLevel),
	}

	go d.readLoop()

	return d, nil
}

func (d *serialDriver) Begin(channel uint8) error {
	return d.send([]byte{'B', channel})
}

func (d *serialDriver) OpenReadingPipe(slot uint8, address uint64) error {
	cmd := append([]byte{'R', slot}, pipeBytes(address)...)
	return d.send(cmd)
}

func (d *serialDriver) CloseReadingPipe(slot uint8) {
	d.send([]byte{'C', slot})
}

func (d *serialDriver) OpenWritingPipe(address uint64) {
	d.send(append([]byte{'W'}, pipeBytes(address)...))
}

func (d *serialDriver) StartListening() {
	d.send([]byte{'L'})
}

func (d *serialDriver) StopListening() {
	d.send([]byte{'l'})
}

func (d *serialDriver) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue) > 0
}

func (d *serialDriver) Read(buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return 0, nil
	}
	frame := d.queue[0]
	d.queue = d.queue[1:]
	return copy(buf, frame), nil
}

func (d *serialDriver) Write(frame []byte) error {
	cmd := make([]byte, 0, len(frame)+2)
	cmd = append(cmd, 'T', byte(len(frame)))
	cmd = append(cmd, frame...)
	return d.send(cmd)
}

func (d *serialDriver) send(cmd []byte) error {
	_, err := d.port.Write(cmd)
	if err != nil {
		d.logger.Error("adapter write failed: %v", err)
	}
	return err
}

func (d *serialDriver) readLoop() {
	one := make([]byte, 1)

	readByte := func() (byte, bool) {
		for {
			n, err := d.port.Read(one)
			if err != nil {
				d.logger.Error("adapter read failed: %v", err)
				return 0, false
			}
			if n == 1 {
				return one[0], true
			}
		}
	}

	for {
		c, ok := readByte()
		if !ok {
			return
		}
		if c != 'F' {
			// Resync on anything that is not a frame marker.
			continue
		}
		length, ok := readByte()
		if !ok {
			return
		}
		if int(length) > packet.FrameSize {
			d.logger.Warn("oversized frame from adapter (%d bytes), discarded", length)
			for i := 0; i < int(length); i++ {
				if _, ok := readByte(); !ok {
					return
				}
			}
			continue
		}
		frame := make([]byte, length)
		for i := range frame {
			b, ok := readByte()
			if !ok {
				return
			}
			frame[i] = b
		}
		d.mu.Lock()
		d.queue = append(d.queue, frame)
		d.mu.Unlock()
	}
}

func pipeBytes(address uint64) []byte {
	// nRF24 pipe addresses are five bytes, low byte first.
	return []byte{
		byte(address),
		byte(address >> 8),
		byte(address >> 16),
		byte(address >> 24),
		byte(address >> 32),
	}
}
