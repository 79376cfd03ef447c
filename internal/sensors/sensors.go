// Package sensors owns the node's view of its environment. The hardware
// itself sits behind the Suite interface; this package only schedules the
// reads and keeps the latest snapshot.
package sensors

import (
	"time"

	"github.com/fenrir/lurker/internal/configuration"
	"github.com/fenrir/lurker/internal/logger"
)

// Reading is one snapshot of every sensor on a node. It is owned by the
// node that produced it and transmitted by value, never shared.
type Reading struct {
	Temperature float64 // degrees C
	Humidity    float64 // percent RH
	Illuminance int     // lux
	NoiseLevel  int     // raw ADC average
	Motion      bool
	Sound       bool
}

// Suite is the seam to the physical sensors. Climate reads may be slow or
// fail; presence reads are cheap polls.
type Suite interface {
	Temperature() (float64, error)
	Humidity() (float64, error)
	Illuminance() (int, error)
	NoiseLevel() (int, error)
	MotionDetected() bool
	SoundTriggered() bool
}

// Monitor refreshes climate values on their sample cadence and polls the
// presence triggers every cycle, latching them into the snapshot until it
// is taken. Motion callbacks respect the cool-off window so one person in
// a room does not flood the coordinator.
type Monitor struct {
	suite          Suite
	sampleInterval time.Duration
	motionCooloff  time.Duration

	reading    Reading
	lastSample time.Time
	lastMotion time.Time

	onMotion func()
	onSound  func()

	now    func() time.Time
	logger logger.Logger
}

func NewMonitor(suite Suite, cfg configuration.SensorConfiguration, logLevel int) *Monitor {
	return &Monitor{
		suite:          suite,
		sampleInterval: time.Duration(cfg.SampleIntervalSec) * time.Second,
		motionCooloff:  time.Duration(cfg.MotionCooloffSec) * time.Second,
		now:            time.Now,
		logger:         logger.GetLogger("[Sensors]", logLevel),
	}
}

func (m *Monitor) SubscribeOnMotion(cb func()) {
	m.onMotion = cb
}

func (m *Monitor) SubscribeOnSound(cb func()) {
	m.onSound = cb
}

// Check runs one scheduling cycle. Called from the device loop.
func (m *Monitor) Check() {
	now := m.now()

	if m.lastSample.IsZero() || now.Sub(m.lastSample) >= m.sampleInterval {
		m.lastSample = now
		m.sampleClimate()
	}

	if m.suite.MotionDetected() {
		m.reading.Motion = true
		if m.onMotion != nil && now.Sub(m.lastMotion) >= m.motionCooloff {
			m.lastMotion = now
			m.onMotion()
		}
	}

	if m.suite.SoundTriggered() {
		m.reading.Sound = true
		if m.onSound != nil {
			m.onSound()
		}
	}
}

func (m *Monitor) sampleClimate() {
	if v, err := m.suite.Temperature(); err == nil {
		m.reading.Temperature = v
	} else {
		m.logger.Warn("temperature read failed: %v", err)
	}
	if v, err := m.suite.Humidity(); err == nil {
		m.reading.Humidity = v
	} else {
		m.logger.Warn("humidity read failed: %v", err)
	}
	if v, err := m.suite.Illuminance(); err == nil {
		m.reading.Illuminance = v
	} else {
		m.logger.Warn("illuminance read failed: %v", err)
	}
	if v, err := m.suite.NoiseLevel(); err == nil {
		m.reading.NoiseLevel = v
	} else {
		m.logger.Warn("noise read failed: %v", err)
	}
}

// Snapshot returns the current reading and clears the latched presence
// triggers for the next interval.
func (m *Monitor) Snapshot() Reading {
	r := m.reading
	m.reading.Motion = false
	m.reading.Sound = false
	return r
}
