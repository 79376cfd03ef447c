package sensors

import (
	"math/rand"
	"time"
)

// SimulatedSuite produces a plausible indoor climate for running devices
// without hardware. Values random-walk inside fixed bounds; motion and
// sound fire occasionally.
type SimulatedSuite struct {
	rng *rand.Rand

	temperature float64
	humidity    float64
	illuminance int
	noise       int
}

func NewSimulatedSuite() *SimulatedSuite {
	return &SimulatedSuite{
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		temperature: 21.0,
		humidity:    50.0,
		illuminance: 400,
		noise:       120,
	}
}

func (s *SimulatedSuite) Temperature() (float64, error) {
	s.temperature = clampF(s.temperature+s.rng.Float64()*0.4-0.2, 10, 35)
	return s.temperature, nil
}

func (s *SimulatedSuite) Humidity() (float64, error) {
	s.humidity = clampF(s.humidity+s.rng.Float64()*2-1, 20, 90)
	return s.humidity, nil
}

func (s *SimulatedSuite) Illuminance() (int, error) {
	s.illuminance = clampI(s.illuminance+s.rng.Intn(41)-20, 0, 1200)
	return s.illuminance, nil
}

func (s *SimulatedSuite) NoiseLevel() (int, error) {
	s.noise = clampI(s.noise+s.rng.Intn(21)-10, 50, 900)
	return s.noise, nil
}

func (s *SimulatedSuite) MotionDetected() bool {
	return s.rng.Intn(600) == 0
}

func (s *SimulatedSuite) SoundTriggered() bool {
	return s.rng.Intn(900) == 0
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
