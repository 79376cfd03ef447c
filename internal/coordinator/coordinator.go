// Package coordinator implements the distinguished identity-0 device: it
// owns the routing table, invites nodes to join, drives the data request
// cycle and fans decoded readings out to the host bridges.
package coordinator

import (
	"context"
	"time"

	"github.com/fenrir/lurker/internal/configuration"
	"github.com/fenrir/lurker/internal/dispatch"
	"github.com/fenrir/lurker/internal/logger"
	"github.com/fenrir/lurker/internal/mqtt"
	"github.com/fenrir/lurker/internal/packet"
	"github.com/fenrir/lurker/internal/radio"
	"github.com/fenrir/lurker/internal/registry"
	"github.com/fenrir/lurker/internal/routing"
	"github.com/fenrir/lurker/internal/types"
)

const (
	pollInterval   = 10 * time.Millisecond
	enumSends      = 3
	enumSpacing    = 500 * time.Millisecond
	commandBacklog = 32
)

type Coordinator struct {
	cfg       configuration.Configuration
	transport *radio.Transport
	table     *routing.Table
	commands  *dispatch.Table // radio frames
	hostCmds  *dispatch.Table // serial byte stream from the host
	database  registry.NodeRegistry

	rxBuf    *packet.Buffer
	fieldBuf *packet.Buffer

	onReading   func(msg mqtt.NodeReadingMessage)
	onNodeJoin  func(id packet.NodeID)
	onNodeLost  func(id packet.NodeID)
	onNodeEvent func(msg mqtt.NodeEventMessage)

	actuatorCmds chan types.ActuatorCommandMessage
	networkCmds  chan types.NetworkCommandMessage
	hostBytes    chan byte

	lastEnumeration time.Time
	lastScan        time.Time
	replyFrom       packet.NodeID
	gotReply        bool

	logger logger.Logger
	now    func() time.Time
	sleep  func(time.Duration)
}

func New(
	cfg configuration.Configuration,
	transport *radio.Transport,
	database registry.NodeRegistry) *Coordinator {

	net := cfg.NetworkConfiguration

	c := &Coordinator{
		cfg:       cfg,
		transport: transport,
		table: routing.NewTable(
			net.MaxNetworkSize,
			time.Duration(net.LivenessWindowSec)*time.Second),
		commands: dispatch.NewTable(),
		hostCmds: dispatch.NewTable(),
		database: database,

		rxBuf:    packet.NewBuffer(),
		fieldBuf: packet.NewBuffer(),

		actuatorCmds: make(chan types.ActuatorCommandMessage, commandBacklog),
		networkCmds:  make(chan types.NetworkCommandMessage, commandBacklog),
		hostBytes:    make(chan byte, 256),

		logger: logger.GetLogger("[Coordinator]", cfg.LogLevel),
		now:    time.Now,
		sleep:  time.Sleep,
	}

	c.commands.Register(packet.TagJoinRequest, c.handleJoinRequest)
	c.commands.Register(packet.TagDataReply, c.handleDataReply)
	c.commands.Register(packet.TagMotion, func(sender packet.NodeID, args []byte) {
		c.handleNotification(sender, "motion")
	})
	c.commands.Register(packet.TagSound, func(sender packet.NodeID, args []byte) {
		c.handleNotification(sender, "sound")
	})
	c.commands.RegisterDefault(func(sender packet.NodeID, args []byte) {
		c.logger.Warn("unrecognized command from node %v", sender)
	})

	// The host speaks the same tag set over its serial link:
	// [tag][node-id][value]\n for actuators, [tag]\n for enumeration.
	// Argument counts are fixed so a node identity of 10 cannot pass for
	// the terminator.
	c.hostCmds.RegisterFixed(packet.TagBuzzer, 2, c.handleHostActuator("buzzer"))
	c.hostCmds.RegisterFixed(packet.TagLight, 2, c.handleHostActuator("light"))
	c.hostCmds.RegisterFixed(packet.TagEnumerate, 0, func(sender packet.NodeID, args []byte) {
		c.RequestEnumeration()
	})
	c.hostCmds.RegisterDefault(func(sender packet.NodeID, args []byte) {
		c.logger.Warn("unrecognized host command")
	})

	return c
}

// Subscriptions, wired up by main before StartAsync.

func (c *Coordinator) SubscribeOnReading(cb func(msg mqtt.NodeReadingMessage)) {
	c.onReading = cb
}

func (c *Coordinator) SubscribeOnNodeJoin(cb func(id packet.NodeID)) {
	c.onNodeJoin = cb
}

func (c *Coordinator) SubscribeOnNodeLost(cb func(id packet.NodeID)) {
	c.onNodeLost = cb
}

func (c *Coordinator) SubscribeOnNodeEvent(cb func(msg mqtt.NodeEventMessage)) {
	c.onNodeEvent = cb
}

// ProcessActuatorCommand queues an actuator switch for delivery. Safe to
// call from other goroutines; the loop drains the queue.
func (c *Coordinator) ProcessActuatorCommand(cmd types.ActuatorCommandMessage) {
	select {
	case c.actuatorCmds <- cmd:
	default:
		c.logger.Warn("actuator command backlog full, dropping command for node %v", cmd.NodeID)
	}
}

// RequestEnumeration schedules an out-of-cycle enumeration.
func (c *Coordinator) RequestEnumeration() {
	select {
	case c.networkCmds <- types.NetworkCommandMessage{Command: "enumerate"}:
	default:
	}
}

// HandleHostByte feeds one byte from the host serial link into the command
// dispatcher. Safe to call from the bridge's reader goroutine.
func (c *Coordinator) HandleHostByte(b byte) {
	select {
	case c.hostBytes <- b:
	default:
		c.logger.Warn("host byte backlog full, dropping")
	}
}

// Nodes returns the currently joined identities.
func (c *Coordinator) Nodes() []packet.NodeID {
	return c.table.Active()
}

// StartAsync brings up the radio and launches the coordinator loop.
func (c *Coordinator) StartAsync(ctx context.Context) error {
	if err := c.transport.Listen(packet.CoordinatorID); err != nil {
		return err
	}
	c.logger.Info("coordinator up on pipe 0x%x", c.transport.Pipes().BasePipe)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			c.Tick()
			c.sleep(pollInterval)
		}
	}()

	return nil
}

// Tick runs one cooperative cycle: enumeration when due, inbound frames,
// host commands, the liveness sweep and the scan pass. Every piece of
// shared state is touched only from here.
func (c *Coordinator) Tick() {
	now := c.now()

	if c.lastEnumeration.IsZero() ||
		now.Sub(c.lastEnumeration) >= time.Duration(c.cfg.NetworkConfiguration.ResetIntervalSec)*time.Second {
		c.startEnumeration()
	}

	c.drainHost()
	c.drainRadio()
	c.sweep()

	if now.Sub(c.lastScan) >= time.Duration(c.cfg.NetworkConfiguration.ScanIntervalSec)*time.Second {
		c.lastScan = now
		c.scanPass()
	}
}

// startEnumeration clears the routing table and broadcasts the invitation
// a few times over; the link is unacknowledged, so redundancy stands in
// for delivery guarantees. The loop intentionally stalls for the duration,
// this is a phase boundary with nothing else to do.
func (c *Coordinator) startEnumeration() {
	c.logger.Info("starting enumeration, dropping %d nodes", c.table.Len())
	c.table.Reset()

	frame := packet.NewFrame(packet.CoordinatorID, packet.TagEnumerate).Finish()
	for i := 0; i < enumSends; i++ {
		if i > 0 {
			c.sleep(enumSpacing)
		}
		if err := c.transport.Broadcast(frame); err != nil {
			c.logger.Error("enumeration broadcast failed: %v", err)
		}
	}

	c.lastEnumeration = c.now()
}

func (c *Coordinator) drainRadio() {
	for c.transport.Available() {
		if !c.transport.Receive(c.rxBuf) {
			break
		}
		sender, tag, args, err := packet.Split(c.rxBuf.Bytes())
		if err != nil {
			c.logger.Debug("dropping frame: %v", err)
			continue
		}
		c.commands.SetSender(sender)
		c.commands.Dispatch(tag, args)
	}
}

func (c *Coordinator) drainHost() {
	for {
		select {
		case b := <-c.hostBytes:
			c.hostCmds.Feed(b)
		case cmd := <-c.actuatorCmds:
			c.sendActuator(cmd)
		case <-c.networkCmds:
			c.startEnumeration()
		default:
			return
		}
	}
}

func (c *Coordinator) sweep() {
	for _, id := range c.table.Sweep() {
		c.logger.Info("node %v liveness lapsed, removed", id)
		if c.onNodeLost != nil {
			c.onNodeLost(id)
		}
		if c.onNodeEvent != nil {
			c.onNodeEvent(mqtt.NodeEventMessage{UnitID: id.UnitID(), NodeID: uint8(id), Event: "lost"})
		}
	}
}

// scanPass walks the routing table round-robin, requesting one data packet
// per entry and waiting a bounded time for the reply. A silent node is
// skipped; only the liveness sweep removes entries.
func (c *Coordinator) scanPass() {
	for _, id := range c.table.Active() {
		frame := packet.NewFrame(packet.CoordinatorID, packet.TagDataRequest).Finish()
		if err := c.transport.SendToNode(id, frame); err != nil {
			c.logger.Error("data request to node %v failed: %v", id, err)
			continue
		}
		if !c.awaitReply(id) {
			c.logger.Debug("node %v did not answer the data request", id)
		}
	}
}

func (c *Coordinator) awaitReply(id packet.NodeID) bool {
	c.gotReply = false
	c.replyFrom = 0

	wait := time.Duration(c.cfg.NetworkConfiguration.ResponseWaitMs) * time.Millisecond
	deadline := c.now().Add(wait)
	for {
		c.drainRadio()
		if c.gotReply && c.replyFrom == id {
			return true
		}
		if !c.now().Before(deadline) {
			return false
		}
		c.sleep(time.Millisecond)
	}
}

func (c *Coordinator) handleJoinRequest(sender packet.NodeID, args []byte) {
	ok, created := c.table.Touch(sender)
	if !ok {
		c.logger.Warn("routing table full, join request from node %v dropped", sender)
		return
	}
	if !created {
		// Duplicate request, the timer is re-armed but the join was
		// already confirmed once.
		return
	}

	frame := packet.NewFrame(packet.CoordinatorID, packet.TagJoinConfirm).Finish()
	if err := c.transport.SendToNode(sender, frame); err != nil {
		c.logger.Error("join confirmation to node %v failed: %v", sender, err)
		return
	}
	c.logger.Info("node %v joined (%d/%d)", sender, c.table.Len(), c.cfg.NetworkConfiguration.MaxNetworkSize)

	c.saveNode(sender, nil)

	if c.onNodeJoin != nil {
		c.onNodeJoin(sender)
	}
	if c.onNodeEvent != nil {
		c.onNodeEvent(mqtt.NodeEventMessage{UnitID: sender.UnitID(), NodeID: uint8(sender), Event: "join"})
	}
}

// handleDataReply decodes the sub-tagged fields of a sensor snapshot. An
// unrecognized sub-tag mid-frame means the decoder lost the field
// boundaries; the rest of the frame is discarded rather than
// misinterpreted.
func (c *Coordinator) handleDataReply(sender packet.NodeID, args []byte) {
	c.table.Touch(sender)
	c.gotReply = true
	c.replyFrom = sender

	msg := mqtt.NodeReadingMessage{
		UnitID: sender.UnitID(),
		NodeID: uint8(sender),
	}

	c.fieldBuf.Load(args)
	for c.fieldBuf.BytesAvailable() > 0 {
		tag := c.fieldBuf.ReadTag()
		if tag == packet.Terminator {
			break
		}
		if !c.decodeField(tag, &msg) {
			c.logger.Warn("unknown field tag %q from node %v, frame abandoned", tag, sender)
			return
		}
	}

	c.saveNode(sender, &msg)

	if c.onReading != nil {
		c.onReading(msg)
	}
}

func (c *Coordinator) decodeField(tag byte, msg *mqtt.NodeReadingMessage) bool {
	need, ok := packet.FieldWidth(tag)
	if !ok || c.fieldBuf.BytesAvailable() < need {
		return false
	}

	switch tag {
	case packet.FieldTemperature:
		msg.Temperature = c.fieldBuf.ReadDecimal()
	case packet.FieldHumidity:
		msg.Humidity = c.fieldBuf.ReadDecimal()
	case packet.FieldLight:
		msg.Illuminance = int(c.fieldBuf.ReadInt16())
	case packet.FieldNoise:
		msg.NoiseLevel = int(c.fieldBuf.ReadInt16())
	case packet.FieldMotion:
		msg.Motion = c.fieldBuf.Read() != 0
	case packet.FieldSound:
		msg.Sound = c.fieldBuf.Read() != 0
	default:
		return false
	}
	return true
}

func (c *Coordinator) handleNotification(sender packet.NodeID, event string) {
	if !c.table.Contains(sender) {
		c.logger.Debug("%s notification from unjoined node %v ignored", event, sender)
		return
	}
	c.table.Touch(sender)
	c.logger.Info("%s at node %v", event, sender)
	if c.onNodeEvent != nil {
		c.onNodeEvent(mqtt.NodeEventMessage{UnitID: sender.UnitID(), NodeID: uint8(sender), Event: event})
	}
}

func (c *Coordinator) handleHostActuator(name string) dispatch.Handler {
	return func(sender packet.NodeID, args []byte) {
		if len(args) < 2 {
			c.logger.Warn("malformed host %s command", name)
			return
		}
		c.sendActuator(types.ActuatorCommandMessage{
			NodeID:   args[0],
			Actuator: name,
			On:       args[1] != 0,
		})
	}
}

func (c *Coordinator) sendActuator(cmd types.ActuatorCommandMessage) {
	var tag byte
	switch cmd.Actuator {
	case "buzzer":
		tag = packet.TagBuzzer
	case "light":
		tag = packet.TagLight
	default:
		c.logger.Warn("unknown actuator %q", cmd.Actuator)
		return
	}

	id := packet.NodeID(cmd.NodeID)
	if !c.table.Contains(id) {
		c.logger.Warn("actuator command for unjoined node %v dropped", id)
		return
	}

	b := packet.NewFrame(packet.CoordinatorID, tag)
	b.Write(boolByte(cmd.On))
	if err := c.transport.SendToNode(id, b.Finish()); err != nil {
		c.logger.Error("actuator command to node %v failed: %v", id, err)
	}
}

func (c *Coordinator) saveNode(id packet.NodeID, msg *mqtt.NodeReadingMessage) {
	if c.database == nil {
		return
	}

	ctx := context.Background()
	record, err := c.database.GetNode(ctx, uint8(id))
	if err != nil {
		record = registry.Node{
			ID:         uint8(id),
			UnitID:     id.UnitID(),
			LastJoined: time.Now(),
		}
	}
	record.LastSeen = time.Now()
	if msg == nil {
		record.LastJoined = time.Now()
	} else {
		record.LastReading.Temperature = msg.Temperature
		record.LastReading.Humidity = msg.Humidity
		record.LastReading.Illuminance = msg.Illuminance
		record.LastReading.NoiseLevel = msg.NoiseLevel
		record.LastReading.Motion = msg.Motion
		record.LastReading.Sound = msg.Sound
	}

	if err := c.database.SaveNode(ctx, record); err != nil {
		c.logger.Error("saving node %v failed: %v", id, err)
	}
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
