// Package dispatch routes single-byte command tags to handlers. The table
// is transport-agnostic: bytes may arrive one at a time from the serial
// link, or as an already-unpacked radio frame.
package dispatch

import (
	"github.com/fenrir/lurker/internal/logger"
	"github.com/fenrir/lurker/internal/packet"
)

// Handler receives the identity latched for the current frame and the
// argument bytes between the command tag and the terminator.
type Handler func(sender packet.NodeID, args []byte)

const maxArgs = packet.FrameSize

type Table struct {
	handlers map[byte]Handler
	argLen   map[byte]int
	fallback Handler

	// stream state for Feed
	sender  packet.NodeID
	tag     byte
	started bool
	want    int
	args    []byte

	logger logger.Logger
}

func NewTable() *Table {
	return &Table{
		handlers: make(map[byte]Handler),
		argLen:   make(map[byte]int),
		args:     make([]byte, 0, maxArgs),
		logger:   logger.GetLogger("[Dispatch]", logger.LogLevelError),
	}
}

// Register binds a handler to a command tag, replacing any previous binding.
func (t *Table) Register(tag byte, h Handler) {
	t.handlers[tag] = h
}

// RegisterFixed binds a handler to a command tag taking exactly n argument
// bytes. Feed collects the arguments by count, so an argument byte equal to
// the terminator cannot end the command early.
func (t *Table) RegisterFixed(tag byte, n int, h Handler) {
	t.handlers[tag] = h
	t.argLen[tag] = n
}

// RegisterDefault binds the handler invoked for unrecognized tags.
func (t *Table) RegisterDefault(h Handler) {
	t.fallback = h
}

// SetSender latches the identity reported to handlers for subsequent bytes.
// The serial path leaves it at the coordinator identity.
func (t *Table) SetSender(sender packet.NodeID) {
	t.sender = sender
}

// Feed consumes one received byte. The first byte of a frame is the command
// tag; further bytes are buffered until the terminator, then the resolved
// handler runs. Tags registered with a fixed argument count collect that
// many bytes first and then require the terminator, dropping the frame on a
// mismatch. Reports whether a command was dispatched on this byte.
func (t *Table) Feed(c byte) bool {
	if !t.started {
		t.tag = c
		t.started = true
		t.want = -1
		if n, ok := t.argLen[c]; ok {
			t.want = n
		}
		return false
	}
	if t.want >= 0 && len(t.args) < t.want {
		t.args = append(t.args, c)
		return false
	}
	if c != packet.Terminator {
		if t.want >= 0 {
			t.Drop()
			return false
		}
		if len(t.args) < maxArgs {
			t.args = append(t.args, c)
		}
		return false
	}
	t.Dispatch(t.tag, t.args)
	t.Drop()
	return true
}

// Dispatch invokes the handler bound to tag directly, for callers that have
// already framed the input.
func (t *Table) Dispatch(tag byte, args []byte) {
	h, ok := t.handlers[tag]
	if !ok {
		if t.fallback != nil {
			t.fallback(t.sender, args)
			return
		}
		t.logger.Warn("unrecognized command tag %q from %v", tag, t.sender)
		return
	}
	h(t.sender, args)
}

// Drop discards any partially buffered frame, recovering from desync.
func (t *Table) Drop() {
	t.started = false
	t.tag = 0
	t.args = t.args[:0]
}
