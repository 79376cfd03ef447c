package types

// ActuatorCommandMessage asks a node to switch one of its actuators.
type ActuatorCommandMessage struct {
	NodeID   uint8
	Actuator string // "buzzer" or "light"
	On       bool
}

// NetworkCommandMessage is a host-issued network-level command, e.g.
// "enumerate" to force a routing table reset and re-join cycle.
type NetworkCommandMessage struct {
	Command string
}
