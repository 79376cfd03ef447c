package packet

import "errors"

// Wire layout of a frame:
//
//	[sender-identity][command-tag]{[field-tag][value bytes]}*[terminator]
//
// bounded by FrameSize. The sender identity is a raw byte, not ASCII.

var (
	ErrTruncated    = errors.New("packet: frame has no terminator")
	ErrUnknownField = errors.New("packet: unknown field tag")
	ErrBadSender    = errors.New("packet: sender identity out of range")
)

// NewFrame starts an outbound frame with the sender identity and command
// tag already written.
func NewFrame(sender NodeID, tag byte) *Buffer {
	b := NewBuffer()
	b.Write(byte(sender))
	b.WriteTag(tag)
	return b
}

// Finish terminates the frame and returns the wire bytes.
func (b *Buffer) Finish() []byte {
	b.Write(Terminator)
	return b.Bytes()
}

// Split breaks a received frame into sender identity, command tag and the
// argument bytes up to the terminator. Data replies carry binary values
// that may collide with the terminator byte, so their arguments are walked
// field by field and the terminator is honored only on a field boundary.
// A frame whose terminator was lost to write overflow on the sending side
// is reported as truncated.
func Split(raw []byte) (NodeID, byte, []byte, error) {
	if len(raw) < 3 {
		return 0, 0, nil, ErrTruncated
	}
	if raw[0] > byte(MaxNodeID) {
		return 0, 0, nil, ErrBadSender
	}
	sender := NodeID(raw[0])
	tag := raw[1]

	if tag == TagDataReply {
		i := 2
		for i < len(raw) {
			if raw[i] == Terminator {
				return sender, tag, raw[2:i], nil
			}
			w, ok := FieldWidth(raw[i])
			if !ok {
				return 0, 0, nil, ErrUnknownField
			}
			i += 1 + w
		}
		return 0, 0, nil, ErrTruncated
	}

	for i := 2; i < len(raw); i++ {
		if raw[i] == Terminator {
			return sender, tag, raw[2:i], nil
		}
	}
	return 0, 0, nil, ErrTruncated
}
