// Package hostbridge frames JSON records over the serial link to the host
// computer. The host treats everything between the start and end markers
// as one logical record; bytes flowing the other way are raw command bytes
// handed to the coordinator's dispatcher.
package hostbridge

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/fenrir/lurker/internal/configuration"
	"github.com/fenrir/lurker/internal/logger"
	"go.bug.st/serial.v1"
)

const (
	RecordStart byte = 0x02 // STX
	RecordEnd   byte = 0x03 // ETX
)

type Bridge struct {
	w      io.Writer
	port   serial.Port
	onByte func(b byte)
	logger logger.Logger
}

// New opens the bridge on the configured port. An empty port name writes
// framed records to stdout, which is how the simulator runs.
func New(cfg configuration.HostBridgeConfiguration, logLevel int) (*Bridge, error) {
	b := &Bridge{
		logger: logger.GetLogger("[Host Bridge]", logLevel),
	}

	if cfg.PortName == "" {
		b.w = os.Stdout
		return b, nil
	}

	port, err := serial.Open(cfg.PortName, &serial.Mode{BaudRate: int(cfg.BaudRate)})
	if err != nil {
		return nil, err
	}
	b.port = port
	b.w = port

	return b, nil
}

// NewWithWriter builds a bridge over an arbitrary writer.
func NewWithWriter(w io.Writer, logLevel int) *Bridge {
	return &Bridge{
		w:      w,
		logger: logger.GetLogger("[Host Bridge]", logLevel),
	}
}

// WriteRecord sends one framed JSON record.
func (b *Bridge) WriteRecord(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	record := make([]byte, 0, len(payload)+3)
	record = append(record, RecordStart)
	record = append(record, payload...)
	record = append(record, RecordEnd, '\n')

	_, err = b.w.Write(record)
	return err
}

// SubscribeOnByte registers the consumer of inbound host bytes.
func (b *Bridge) SubscribeOnByte(callback func(c byte)) {
	b.onByte = callback
}

// StartAsync reads the serial port byte by byte and forwards to the
// subscriber. No-op without a real port.
func (b *Bridge) StartAsync(ctx context.Context) {
	if b.port == nil {
		return
	}

	go func() {
		buf := make([]byte, 64)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			n, err := b.port.Read(buf)
			if err != nil {
				b.logger.Error("host serial read failed: %v", err)
				return
			}
			for i := 0; i < n; i++ {
				if b.onByte != nil {
					b.onByte(buf[i])
				}
			}
		}
	}()
}

func (b *Bridge) Close() {
	if b.port != nil {
		b.port.Close()
	}
}
