package configuration

// RadioConfiguration fixes the channel and pipe addressing. The unit pipe
// of node N is BasePipe+N; every non-coordinator unit also listens on the
// broadcast pipe.
type RadioConfiguration struct {
	Channel       uint8  `yaml:"channel"`
	BasePipe      uint64 `yaml:"basePipe"`
	BroadcastPipe uint64 `yaml:"broadcastPipe"`
	// Serial port of the attached radio adapter. Empty selects the
	// in-memory stub network (simulation).
	PortName string `yaml:"portName"`
	BaudRate uint32 `yaml:"baudRate"`
}

// NetworkConfiguration carries the membership protocol windows. All values
// are per-deployment constants, never negotiated at runtime.
type NetworkConfiguration struct {
	UnitNumber        uint8 `yaml:"unitNumber"`
	MaxNetworkSize    int   `yaml:"maxNetworkSize"`
	ResetIntervalSec  int   `yaml:"resetIntervalSec"`  // enumeration / routing table reset period
	LivenessWindowSec int   `yaml:"livenessWindowSec"` // per-entry liveness deadline
	JoinIntervalSec   int   `yaml:"joinIntervalSec"`   // node join retry period
	JoinCooldownSec   int   `yaml:"joinCooldownSec"`   // minimum gap between join requests
	InactivitySec     int   `yaml:"inactivitySec"`     // node-side silence before rejoin
	ScanIntervalSec   int   `yaml:"scanIntervalSec"`   // gap between coordinator scan passes
	ResponseWaitMs    int   `yaml:"responseWaitMs"`    // per-node data reply wait
}

type SensorConfiguration struct {
	SampleIntervalSec int `yaml:"sampleIntervalSec"`
	MotionCooloffSec  int `yaml:"motionCooloffSec"`
	SoundThreshold    int `yaml:"soundThreshold"`
}

type MqttConfiguration struct {
	Address   string `yaml:"address"`
	Port      uint16 `yaml:"port"`
	RootTopic string `yaml:"rootTopic"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

// HostBridgeConfiguration is the serial link towards the host computer.
// Empty PortName sends framed records to stdout instead.
type HostBridgeConfiguration struct {
	PortName string `yaml:"portName"`
	BaudRate uint32 `yaml:"baudRate"`
}

type Configuration struct {
	RadioConfiguration      RadioConfiguration      `yaml:"radio"`
	NetworkConfiguration    NetworkConfiguration    `yaml:"network"`
	SensorConfiguration     SensorConfiguration     `yaml:"sensors"`
	MqttConfiguration       MqttConfiguration       `yaml:"mqtt"`
	HostBridgeConfiguration HostBridgeConfiguration `yaml:"hostBridge"`
	DataDirectory           string                  `yaml:"dataDirectory"`
	LogLevel                int                     `yaml:"logLevel"` // info=0, warn=1, error=2, debug=3
}
