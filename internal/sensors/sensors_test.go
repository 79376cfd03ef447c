package sensors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fenrir/lurker/internal/configuration"
	"github.com/fenrir/lurker/internal/logger"
)

type scriptedSuite struct {
	temperature float64
	humidity    float64
	illuminance int
	noise       int
	motion      bool
	sound       bool

	climateErr error
}

func (s *scriptedSuite) Temperature() (float64, error) { return s.temperature, s.climateErr }
func (s *scriptedSuite) Humidity() (float64, error)    { return s.humidity, s.climateErr }
func (s *scriptedSuite) Illuminance() (int, error)     { return s.illuminance, s.climateErr }
func (s *scriptedSuite) NoiseLevel() (int, error)      { return s.noise, s.climateErr }
func (s *scriptedSuite) MotionDetected() bool          { return s.motion }
func (s *scriptedSuite) SoundTriggered() bool          { return s.sound }

func newTestMonitor(suite Suite) (*Monitor, *time.Time) {
	m := NewMonitor(suite, configuration.SensorConfiguration{
		SampleIntervalSec: 60,
		MotionCooloffSec:  60,
	}, logger.LogLevelInfo)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	return m, &clock
}

func TestMonitorSampleCadence(t *testing.T) {
	suite := &scriptedSuite{temperature: 20.0}
	m, clock := newTestMonitor(suite)

	m.Check()
	assert.Equal(t, 20.0, m.Snapshot().Temperature)

	// Inside the sample interval the stale value is kept.
	suite.temperature = 25.0
	*clock = clock.Add(30 * time.Second)
	m.Check()
	assert.Equal(t, 20.0, m.Snapshot().Temperature)

	*clock = clock.Add(30 * time.Second)
	m.Check()
	assert.Equal(t, 25.0, m.Snapshot().Temperature)
}

func TestMonitorKeepsLastGoodValueOnError(t *testing.T) {
	suite := &scriptedSuite{temperature: 21.5, humidity: 40}
	m, clock := newTestMonitor(suite)

	m.Check()

	suite.climateErr = errors.New("bus timeout")
	suite.temperature = 99
	*clock = clock.Add(60 * time.Second)
	m.Check()

	r := m.Snapshot()
	assert.Equal(t, 21.5, r.Temperature)
	assert.Equal(t, 40.0, r.Humidity)
}

func TestMonitorLatchesTriggersUntilSnapshot(t *testing.T) {
	suite := &scriptedSuite{motion: true, sound: true}
	m, _ := newTestMonitor(suite)

	m.Check()
	suite.motion = false
	suite.sound = false
	m.Check()

	r := m.Snapshot()
	assert.True(t, r.Motion)
	assert.True(t, r.Sound)

	// Snapshot cleared the latches.
	r = m.Snapshot()
	assert.False(t, r.Motion)
	assert.False(t, r.Sound)
}

func TestMonitorMotionCooloff(t *testing.T) {
	suite := &scriptedSuite{motion: true}
	m, clock := newTestMonitor(suite)

	fired := 0
	m.SubscribeOnMotion(func() { fired++ })

	m.Check()
	assert.Equal(t, 1, fired)

	// Continuous motion inside the cool-off stays quiet.
	*clock = clock.Add(30 * time.Second)
	m.Check()
	assert.Equal(t, 1, fired)

	*clock = clock.Add(30 * time.Second)
	m.Check()
	assert.Equal(t, 2, fired)
}

func TestMonitorSoundCallback(t *testing.T) {
	suite := &scriptedSuite{}
	m, _ := newTestMonitor(suite)

	fired := 0
	m.SubscribeOnSound(func() { fired++ })

	m.Check()
	assert.Equal(t, 0, fired)

	suite.sound = true
	m.Check()
	assert.Equal(t, 1, fired)
}

func TestSimulatedSuiteStaysInRange(t *testing.T) {
	s := NewSimulatedSuite()

	for i := 0; i < 200; i++ {
		v, err := s.Temperature()
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, v, 10.0)
		assert.LessOrEqual(t, v, 35.0)

		h, err := s.Humidity()
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, h, 20.0)
		assert.LessOrEqual(t, h, 90.0)

		l, err := s.Illuminance()
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, l, 0)
		assert.LessOrEqual(t, l, 1200)

		n, err := s.NoiseLevel()
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, n, 50)
		assert.LessOrEqual(t, n, 900)
	}
}
