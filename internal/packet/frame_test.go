package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameBuildAndSplit(t *testing.T) {
	b := NewFrame(3, TagJoinRequest)
	raw := b.Finish()

	assert.Equal(t, []byte{3, 'j', '\n'}, raw)

	sender, tag, args, err := Split(raw)
	assert.NoError(t, err)
	assert.Equal(t, NodeID(3), sender)
	assert.Equal(t, TagJoinRequest, tag)
	assert.Empty(t, args)
}

func TestSplitWithArgs(t *testing.T) {
	b := NewFrame(CoordinatorID, TagBuzzer)
	b.Write(1)
	raw := b.Finish()

	sender, tag, args, err := Split(raw)
	assert.NoError(t, err)
	assert.Equal(t, CoordinatorID, sender)
	assert.Equal(t, TagBuzzer, tag)
	assert.Equal(t, []byte{1}, args)
}

func TestSplitDataReplyValuesMayEqualTerminator(t *testing.T) {
	// 266 = 0x010A and 0.10 = 10 both carry a 0x0A value byte; the field
	// walk must not mistake it for the end of the frame.
	b := NewFrame(3, TagDataReply)
	b.WriteTag(FieldTemperature)
	b.WriteDecimal(0.10)
	b.WriteTag(FieldLight)
	b.WriteInt16(266)
	b.WriteTag(FieldNoise)
	b.WriteInt16(10)
	raw := b.Finish()

	sender, tag, args, err := Split(raw)
	assert.NoError(t, err)
	assert.Equal(t, NodeID(3), sender)
	assert.Equal(t, TagDataReply, tag)
	assert.Len(t, args, 9)

	fields := NewBuffer()
	fields.Load(args)
	assert.Equal(t, FieldTemperature, fields.ReadTag())
	assert.Equal(t, 0.10, fields.ReadDecimal())
	assert.Equal(t, FieldLight, fields.ReadTag())
	assert.Equal(t, int16(266), fields.ReadInt16())
	assert.Equal(t, FieldNoise, fields.ReadTag())
	assert.Equal(t, int16(10), fields.ReadInt16())
}

func TestSplitDataReplyUnknownField(t *testing.T) {
	_, _, _, err := Split([]byte{3, 'd', 'x', 0, 7, '\n'})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestSplitDataReplyLostTerminator(t *testing.T) {
	_, _, _, err := Split([]byte{3, 'd', 't', 0x08, 0x59})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestSplitTruncated(t *testing.T) {
	_, _, _, err := Split([]byte{3, 'd', 't', 0x08})
	assert.ErrorIs(t, err, ErrTruncated)

	_, _, _, err = Split([]byte{3})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestSplitBadSender(t *testing.T) {
	_, _, _, err := Split([]byte{99, 'j', '\n'})
	assert.ErrorIs(t, err, ErrBadSender)
}

func TestUnitID(t *testing.T) {
	assert.Equal(t, "lurker0", CoordinatorID.UnitID())
	assert.Equal(t, "lurker7", NodeID(7).UnitID())
}
