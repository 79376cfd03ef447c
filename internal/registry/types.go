package registry

import (
	"time"

	"github.com/fenrir/lurker/internal/sensors"
)

// Node is the persisted record of a network member. Entries survive
// restarts and routing table resets; LastSeen tells an operator when a
// silent unit was last alive.
type Node struct {
	ID          uint8
	UnitID      string
	LastJoined  time.Time
	LastSeen    time.Time
	LastReading sensors.Reading
}
