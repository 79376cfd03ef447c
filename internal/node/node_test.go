package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenrir/lurker/internal/configuration"
	"github.com/fenrir/lurker/internal/logger"
	"github.com/fenrir/lurker/internal/packet"
	"github.com/fenrir/lurker/internal/radio"
	"github.com/fenrir/lurker/internal/radio/stub"
	"github.com/fenrir/lurker/internal/sensors"
)

// fixedSuite reports constant sensor values.
type fixedSuite struct {
	temperature float64
	humidity    float64
	illuminance int
	noise       int
	motion      bool
	sound       bool
}

func (s *fixedSuite) Temperature() (float64, error) { return s.temperature, nil }
func (s *fixedSuite) Humidity() (float64, error)    { return s.humidity, nil }
func (s *fixedSuite) Illuminance() (int, error)     { return s.illuminance, nil }
func (s *fixedSuite) NoiseLevel() (int, error)      { return s.noise, nil }
func (s *fixedSuite) MotionDetected() bool          { return s.motion }
func (s *fixedSuite) SoundTriggered() bool          { return s.sound }

type recordingActuators struct {
	buzzer bool
	light  bool
}

func (a *recordingActuators) Buzzer(on bool) { a.buzzer = on }
func (a *recordingActuators) Light(on bool)  { a.light = on }

func testConfiguration(unit uint8) configuration.Configuration {
	cfg := configuration.Configuration{}
	cfg.RadioConfiguration = configuration.RadioConfiguration{
		Channel:       90,
		BasePipe:      0x9090909000,
		BroadcastPipe: 0x90909090FF,
	}
	cfg.NetworkConfiguration = configuration.NetworkConfiguration{
		UnitNumber:      unit,
		JoinIntervalSec: 60,
		JoinCooldownSec: 5,
		InactivitySec:   300,
	}
	cfg.SensorConfiguration = configuration.SensorConfiguration{
		SampleIntervalSec: 60,
		MotionCooloffSec:  60,
	}
	cfg.LogLevel = logger.LogLevelInfo
	return cfg
}

// testBench wires a node and a bare coordinator-side transport onto one
// in-memory network.
type testBench struct {
	node      *Node
	suite     *fixedSuite
	actuators *recordingActuators
	coord     *radio.Transport
	rx        *packet.Buffer
}

func newTestBench(t *testing.T) *testBench {
	cfg := testConfiguration(3)
	pipes := radio.PipeConfig{
		BasePipe:      cfg.RadioConfiguration.BasePipe,
		BroadcastPipe: cfg.RadioConfiguration.BroadcastPipe,
		Channel:       cfg.RadioConfiguration.Channel,
	}

	network := stub.NewNetwork()

	suite := &fixedSuite{temperature: 21.37, humidity: 55.20, illuminance: 412, noise: 123}
	actuators := &recordingActuators{}
	monitor := sensors.NewMonitor(suite, cfg.SensorConfiguration, cfg.LogLevel)

	n := New(cfg, radio.NewTransport(network.Attach(), pipes), monitor, actuators)
	require.NoError(t, n.Listen())

	coord := radio.NewTransport(network.Attach(), pipes)
	require.NoError(t, coord.Listen(packet.CoordinatorID))

	return &testBench{node: n, suite: suite, actuators: actuators, coord: coord, rx: packet.NewBuffer()}
}

// receive drains one frame from the coordinator side.
func (b *testBench) receive(t *testing.T) (packet.NodeID, byte, []byte) {
	require.True(t, b.coord.Available(), "expected a frame at the coordinator")
	require.True(t, b.coord.Receive(b.rx))
	sender, tag, args, err := packet.Split(b.rx.Bytes())
	require.NoError(t, err)
	return sender, tag, args
}

func (b *testBench) sendToNode(t *testing.T, sender packet.NodeID, tag byte, args ...byte) {
	f := packet.NewFrame(sender, tag)
	for _, a := range args {
		f.Write(a)
	}
	require.NoError(t, b.coord.SendToNode(3, f.Finish()))
}

func TestNodeJoinHandshake(t *testing.T) {
	b := newTestBench(t)

	b.node.Tick()

	sender, tag, args := b.receive(t)
	assert.Equal(t, packet.NodeID(3), sender)
	assert.Equal(t, packet.TagJoinRequest, tag)
	assert.Empty(t, args)
	assert.Equal(t, StateAwaitingConfirmation, b.node.Membership().State())

	b.sendToNode(t, packet.CoordinatorID, packet.TagJoinConfirm)
	b.node.Tick()

	assert.Equal(t, StateJoined, b.node.Membership().State())
}

func TestNodeIgnoresUnsolicitedConfirmation(t *testing.T) {
	b := newTestBench(t)

	// A stray confirmation arrives before the node ever asked to join.
	b.sendToNode(t, packet.CoordinatorID, packet.TagJoinConfirm)
	b.node.Tick()

	// The frame is drained before the retry check, so the tick still sends
	// the first join request instead of jumping straight to joined.
	_, tag, _ := b.receive(t)
	assert.Equal(t, packet.TagJoinRequest, tag)
	assert.Equal(t, StateAwaitingConfirmation, b.node.Membership().State())
}

func TestNodeIgnoresConfirmationFromNonCoordinator(t *testing.T) {
	b := newTestBench(t)

	b.node.Tick()
	b.receive(t)

	b.sendToNode(t, packet.NodeID(5), packet.TagJoinConfirm)
	b.node.Tick()

	assert.Equal(t, StateAwaitingConfirmation, b.node.Membership().State())
}

func TestNodeDataReply(t *testing.T) {
	b := newTestBench(t)

	b.node.Tick()
	b.receive(t)
	b.sendToNode(t, packet.CoordinatorID, packet.TagJoinConfirm)
	b.node.Tick()

	b.sendToNode(t, packet.CoordinatorID, packet.TagDataRequest)
	b.node.Tick()

	sender, tag, args := b.receive(t)
	assert.Equal(t, packet.NodeID(3), sender)
	assert.Equal(t, packet.TagDataReply, tag)

	fields := packet.NewBuffer()
	fields.Load(args)

	assert.Equal(t, packet.FieldTemperature, fields.ReadTag())
	assert.Equal(t, 21.37, fields.ReadDecimal())
	assert.Equal(t, packet.FieldHumidity, fields.ReadTag())
	assert.Equal(t, 55.20, fields.ReadDecimal())
	assert.Equal(t, packet.FieldLight, fields.ReadTag())
	assert.Equal(t, int16(412), fields.ReadInt16())
	assert.Equal(t, packet.FieldNoise, fields.ReadTag())
	assert.Equal(t, int16(123), fields.ReadInt16())
	assert.Equal(t, packet.FieldMotion, fields.ReadTag())
	assert.Equal(t, byte(0), fields.Read())
	assert.Equal(t, packet.FieldSound, fields.ReadTag())
	assert.Equal(t, byte(0), fields.Read())
	assert.Equal(t, 0, fields.BytesAvailable())
}

func TestNodeIgnoresDataRequestBeforeJoin(t *testing.T) {
	b := newTestBench(t)

	b.node.Tick()
	b.receive(t) // join request

	b.sendToNode(t, packet.CoordinatorID, packet.TagDataRequest)
	b.node.Tick()

	assert.False(t, b.coord.Available())
}

func TestNodeActuatorCommands(t *testing.T) {
	b := newTestBench(t)

	b.sendToNode(t, packet.CoordinatorID, packet.TagBuzzer, 1)
	b.sendToNode(t, packet.CoordinatorID, packet.TagLight, 1)
	b.node.Tick()

	assert.True(t, b.actuators.buzzer)
	assert.True(t, b.actuators.light)

	b.sendToNode(t, packet.CoordinatorID, packet.TagBuzzer, 0)
	b.node.Tick()
	assert.False(t, b.actuators.buzzer)
}

func TestNodeIgnoresActuatorCommandFromNonCoordinator(t *testing.T) {
	b := newTestBench(t)

	b.sendToNode(t, packet.NodeID(5), packet.TagBuzzer, 1)
	b.node.Tick()

	assert.False(t, b.actuators.buzzer)
}

func TestNodeEnumerationResetsMembership(t *testing.T) {
	b := newTestBench(t)

	b.node.Tick()
	b.receive(t)
	b.sendToNode(t, packet.CoordinatorID, packet.TagJoinConfirm)
	b.node.Tick()
	require.Equal(t, StateJoined, b.node.Membership().State())

	// Enumeration notices arrive on the broadcast pipe.
	require.NoError(t, b.coord.Broadcast(packet.NewFrame(packet.CoordinatorID, packet.TagEnumerate).Finish()))
	b.node.Tick()

	// The reset cleared the retry gate, so the same tick re-requests.
	sender, tag, _ := b.receive(t)
	assert.Equal(t, packet.NodeID(3), sender)
	assert.Equal(t, packet.TagJoinRequest, tag)
	assert.Equal(t, StateAwaitingConfirmation, b.node.Membership().State())
}

func TestNodeNotifiesMotionOnlyWhenJoined(t *testing.T) {
	b := newTestBench(t)

	b.suite.motion = true
	b.node.Tick()
	b.receive(t) // join request only
	assert.False(t, b.coord.Available())

	b.sendToNode(t, packet.CoordinatorID, packet.TagJoinConfirm)
	b.suite.motion = false
	b.node.Tick()
	require.Equal(t, StateJoined, b.node.Membership().State())

	b.suite.motion = true
	b.suite.sound = true
	// Force the monitor past the motion cool-off.
	b.node.monitor.Check()

	tags := map[byte]bool{}
	for b.coord.Available() {
		_, tag, _ := b.receive(t)
		tags[tag] = true
	}
	assert.True(t, tags[packet.TagSound])
}
