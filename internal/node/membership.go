package node

import (
	"time"

	"github.com/fenrir/lurker/internal/configuration"
	"github.com/fenrir/lurker/internal/packet"
)

type MembershipState int

const (
	StateUnjoined MembershipState = iota
	StateAwaitingConfirmation
	StateJoined
)

func (s MembershipState) String() string {
	switch s {
	case StateUnjoined:
		return "unjoined"
	case StateAwaitingConfirmation:
		return "awaiting confirmation"
	case StateJoined:
		return "joined"
	}
	return "unknown"
}

// Membership tracks a node's standing on the network. Join requests are
// re-sent on the retry interval, bounded below by the cooldown, until a
// confirmation arrives from the coordinator specifically. Once joined, any
// coordinator traffic re-arms the inactivity window; silence beyond it
// drops the node back to unjoined, since the coordinator may have reset
// its routing table without the node's knowledge.
type Membership struct {
	state MembershipState

	retryInterval    time.Duration
	cooldown         time.Duration
	inactivityWindow time.Duration

	lastRequest time.Time
	lastHeard   time.Time

	now func() time.Time
}

func NewMembership(cfg configuration.NetworkConfiguration) *Membership {
	return &Membership{
		state:            StateUnjoined,
		retryInterval:    time.Duration(cfg.JoinIntervalSec) * time.Second,
		cooldown:         time.Duration(cfg.JoinCooldownSec) * time.Second,
		inactivityWindow: time.Duration(cfg.InactivitySec) * time.Second,
		now:              time.Now,
	}
}

func (m *Membership) State() MembershipState {
	return m.state
}

// ShouldRequestJoin reports whether a join request is due.
func (m *Membership) ShouldRequestJoin() bool {
	if m.state == StateJoined {
		return false
	}
	if m.lastRequest.IsZero() {
		return true
	}
	elapsed := m.now().Sub(m.lastRequest)
	if elapsed < m.cooldown {
		return false
	}
	return elapsed >= m.retryInterval
}

// JoinRequested records that a request went out.
func (m *Membership) JoinRequested() {
	m.lastRequest = m.now()
	if m.state == StateUnjoined {
		m.state = StateAwaitingConfirmation
	}
}

// Confirm handles a join confirmation. Only a confirmation from the
// coordinator answering an outstanding request counts; anything else is
// ignored and leaves the state untouched. Reports whether the node
// transitioned to joined.
func (m *Membership) Confirm(sender packet.NodeID) bool {
	if sender != packet.CoordinatorID {
		return false
	}
	if m.state != StateAwaitingConfirmation {
		return false
	}
	m.state = StateJoined
	m.lastHeard = m.now()
	return true
}

// CoordinatorHeard re-arms the inactivity window on any coordinator
// traffic.
func (m *Membership) CoordinatorHeard() {
	m.lastHeard = m.now()
}

// Check expires the membership after prolonged coordinator silence.
// Reports whether the node just lost the network. A non-positive window
// disables expiry, so a zero-value configuration cannot mean "expire
// instantly".
func (m *Membership) Check() bool {
	if m.state != StateJoined || m.inactivityWindow <= 0 {
		return false
	}
	if m.now().Sub(m.lastHeard) <= m.inactivityWindow {
		return false
	}
	m.state = StateUnjoined
	m.lastRequest = time.Time{} // rejoin without waiting out the retry interval
	return true
}

// Reset drops the node to unjoined, clearing the retry gate. Used when an
// enumeration notice announces a fresh network.
func (m *Membership) Reset() {
	m.state = StateUnjoined
	m.lastRequest = time.Time{}
}
