package mqtt

// NodeReadingMessage is one decoded sensor snapshot, published as JSON
// under lurker/<id>.
type NodeReadingMessage struct {
	UnitID      string
	NodeID      uint8
	Temperature float64
	Humidity    float64
	Illuminance int
	NoiseLevel  int
	Motion      bool
	Sound       bool
}

// NodeEventMessage reports membership changes and presence triggers:
// "join", "lost", "motion", "sound".
type NodeEventMessage struct {
	UnitID string
	NodeID uint8
	Event  string
}

// NetworkStatusMessage is the answer to a get_nodes query.
type NetworkStatusMessage struct {
	Nodes []uint8
}
