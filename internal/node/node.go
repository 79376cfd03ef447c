// Package node implements a non-coordinator Lurker device: it samples its
// sensor suite, joins the network kept by the coordinator, answers data
// requests and pushes motion/sound notifications.
package node

import (
	"context"
	"time"

	"github.com/fenrir/lurker/internal/configuration"
	"github.com/fenrir/lurker/internal/dispatch"
	"github.com/fenrir/lurker/internal/logger"
	"github.com/fenrir/lurker/internal/packet"
	"github.com/fenrir/lurker/internal/radio"
	"github.com/fenrir/lurker/internal/sensors"
)

// Actuators is the seam to the node's outputs. Hardware wrappers live
// outside this package.
type Actuators interface {
	Buzzer(on bool)
	Light(on bool)
}

// NullActuators ignores every command. Used in simulation.
type NullActuators struct{}

func (NullActuators) Buzzer(on bool) {}
func (NullActuators) Light(on bool)  {}

const pollInterval = 10 * time.Millisecond

type Node struct {
	id         packet.NodeID
	transport  *radio.Transport
	table      *dispatch.Table
	membership *Membership
	monitor    *sensors.Monitor
	actuators  Actuators

	rxBuf  *packet.Buffer
	logger logger.Logger
}

func New(
	cfg configuration.Configuration,
	transport *radio.Transport,
	monitor *sensors.Monitor,
	actuators Actuators) *Node {

	n := &Node{
		id:         packet.NodeID(cfg.NetworkConfiguration.UnitNumber),
		transport:  transport,
		table:      dispatch.NewTable(),
		membership: NewMembership(cfg.NetworkConfiguration),
		monitor:    monitor,
		actuators:  actuators,
		rxBuf:      packet.NewBuffer(),
		logger:     logger.GetLogger("[Node]", cfg.LogLevel),
	}

	n.table.Register(packet.TagEnumerate, n.handleEnumerate)
	n.table.Register(packet.TagJoinConfirm, n.handleJoinConfirm)
	n.table.Register(packet.TagDataRequest, n.handleDataRequest)
	n.table.Register(packet.TagBuzzer, n.handleBuzzer)
	n.table.Register(packet.TagLight, n.handleLight)
	n.table.RegisterDefault(n.handleUnrecognized)

	monitor.SubscribeOnMotion(func() { n.notify(packet.TagMotion) })
	monitor.SubscribeOnSound(func() { n.notify(packet.TagSound) })

	return n
}

func (n *Node) Membership() *Membership {
	return n.membership
}

// Listen brings up the radio on the node's unit and broadcast pipes.
func (n *Node) Listen() error {
	if err := n.transport.Listen(n.id); err != nil {
		return err
	}
	n.logger.Info("node %v up, listening on pipe 0x%x", n.id, n.transport.Pipes().UnitPipe(n.id))
	return nil
}

// StartAsync brings up the radio and launches the device loop.
func (n *Node) StartAsync(ctx context.Context) error {
	if err := n.Listen(); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			n.Tick()
			time.Sleep(pollInterval)
		}
	}()

	return nil
}

// Tick runs one cooperative cycle of the device loop: drain the radio,
// expire membership, retry the join, poll the sensors. All state lives on
// this single logical thread.
func (n *Node) Tick() {
	for n.transport.Available() {
		if !n.transport.Receive(n.rxBuf) {
			break
		}
		n.processFrame(n.rxBuf.Bytes())
	}

	if n.membership.Check() {
		n.logger.Warn("network timed out, rejoining")
	}

	if n.membership.ShouldRequestJoin() {
		n.transmitJoinRequest()
	}

	n.monitor.Check()
}

func (n *Node) processFrame(raw []byte) {
	sender, tag, args, err := packet.Split(raw)
	if err != nil {
		n.logger.Debug("dropping frame: %v", err)
		return
	}
	n.table.SetSender(sender)
	n.table.Dispatch(tag, args)
}

func (n *Node) handleEnumerate(sender packet.NodeID, args []byte) {
	if sender != packet.CoordinatorID {
		return
	}
	// A fresh enumeration means the routing table was cleared; whatever
	// membership we had is gone.
	n.membership.Reset()
	n.logger.Info("enumeration notice received")
}

func (n *Node) handleJoinConfirm(sender packet.NodeID, args []byte) {
	if sender == packet.CoordinatorID {
		n.membership.CoordinatorHeard()
	}
	if n.membership.Confirm(sender) {
		n.logger.Info("joined network")
		return
	}
	n.logger.Debug("ignoring stray join confirmation from %v", sender)
}

func (n *Node) handleDataRequest(sender packet.NodeID, args []byte) {
	if sender != packet.CoordinatorID {
		return
	}
	n.membership.CoordinatorHeard()
	if n.membership.State() != StateJoined {
		return
	}
	n.transmitDataPacket()
}

func (n *Node) handleBuzzer(sender packet.NodeID, args []byte) {
	if sender != packet.CoordinatorID || len(args) < 1 {
		return
	}
	n.membership.CoordinatorHeard()
	n.actuators.Buzzer(args[0] != 0)
}

func (n *Node) handleLight(sender packet.NodeID, args []byte) {
	if sender != packet.CoordinatorID || len(args) < 1 {
		return
	}
	n.membership.CoordinatorHeard()
	n.actuators.Light(args[0] != 0)
}

func (n *Node) handleUnrecognized(sender packet.NodeID, args []byte) {
	n.logger.Warn("unrecognized command from %v", sender)
}

func (n *Node) transmitJoinRequest() {
	frame := packet.NewFrame(n.id, packet.TagJoinRequest).Finish()
	if err := n.transport.SendToNode(packet.CoordinatorID, frame); err != nil {
		n.logger.Error("join request failed: %v", err)
		return
	}
	n.membership.JoinRequested()
	n.logger.Debug("join request sent")
}

// transmitDataPacket snapshots the sensors and answers with a sub-tagged
// field sequence. Fields are written most significant first so an overflow
// truncates the least important trailing ones.
func (n *Node) transmitDataPacket() {
	reading := n.monitor.Snapshot()

	b := packet.NewFrame(n.id, packet.TagDataReply)
	b.WriteTag(packet.FieldTemperature)
	b.WriteDecimal(reading.Temperature)
	b.WriteTag(packet.FieldHumidity)
	b.WriteDecimal(reading.Humidity)
	b.WriteTag(packet.FieldLight)
	b.WriteInt16(int16(reading.Illuminance))
	b.WriteTag(packet.FieldNoise)
	b.WriteInt16(int16(reading.NoiseLevel))
	b.WriteTag(packet.FieldMotion)
	b.Write(boolByte(reading.Motion))
	b.WriteTag(packet.FieldSound)
	b.Write(boolByte(reading.Sound))

	if err := n.transport.SendToNode(packet.CoordinatorID, b.Finish()); err != nil {
		n.logger.Error("data reply failed: %v", err)
	}
	if b.Dropped() > 0 {
		n.logger.Warn("data reply overflowed, %d bytes dropped", b.Dropped())
	}
}

func (n *Node) notify(tag byte) {
	if n.membership.State() != StateJoined {
		return
	}
	frame := packet.NewFrame(n.id, tag).Finish()
	if err := n.transport.SendToNode(packet.CoordinatorID, frame); err != nil {
		n.logger.Error("notification %q failed: %v", tag, err)
	}
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
