package packet

import "strconv"

// NodeID identifies a device on the network, 0-20. Identity 0 is reserved
// for the coordinator and is fixed per device at deploy time.
type NodeID uint8

const (
	CoordinatorID NodeID = 0
	MaxNodeID     NodeID = 20
)

// UnitClass prefixes the human-readable unit identifier: "lurker3".
const UnitClass = "lurker"

func (id NodeID) UnitID() string {
	return UnitClass + strconv.Itoa(int(id))
}

// Terminator closes every frame. It is shared with the serial command path
// so the same dispatch table can consume either transport.
const Terminator byte = '\n'

// Command tags. By convention uppercase tags travel coordinator to node and
// lowercase tags node to coordinator; the convention is not enforced.
const (
	TagEnumerate   byte = 'E' // broadcast, invites all nodes to (re)join
	TagJoinConfirm byte = 'J' // acknowledges a join request
	TagDataRequest byte = 'D' // asks a node for a sensor snapshot
	TagBuzzer      byte = 'B' // one argument byte, 0 off / 1 on
	TagLight       byte = 'L' // one argument byte, 0 off / 1 on

	TagJoinRequest byte = 'j' // carries the sender identity only
	TagDataReply   byte = 'd' // sub-tagged sensor fields
	TagMotion      byte = 'm' // motion trigger notification
	TagSound       byte = 's' // sound trigger notification
)

// Sub-tags of fields inside a data reply.
const (
	FieldTemperature byte = 't' // decimal, degrees C
	FieldHumidity    byte = 'h' // decimal, percent RH
	FieldLight       byte = 'l' // int16, lux
	FieldNoise       byte = 'n' // int16, raw ADC average
	FieldMotion      byte = 'm' // one byte, 0/1
	FieldSound       byte = 's' // one byte, 0/1
)

// FieldWidth returns the value width of a data reply sub-tag. The framing
// layer walks fields by width, so a binary value byte that happens to equal
// the terminator cannot end a frame early.
func FieldWidth(tag byte) (int, bool) {
	switch tag {
	case FieldTemperature, FieldHumidity, FieldLight, FieldNoise:
		return 2, true
	case FieldMotion, FieldSound:
		return 1, true
	}
	return 0, false
}
