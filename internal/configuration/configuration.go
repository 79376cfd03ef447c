package configuration

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Defaults match the original Lurker deployment: coordinator identity 0,
// ten-node network, five-minute routing table reset, pipes derived from
// 0x9090909000 with 0x90909090FF as broadcast.
func defaultConfiguration() Configuration {
	return Configuration{
		RadioConfiguration: RadioConfiguration{
			Channel:       90,
			BasePipe:      0x9090909000,
			BroadcastPipe: 0x90909090FF,
			BaudRate:      57600,
		},
		NetworkConfiguration: NetworkConfiguration{
			UnitNumber:        0,
			MaxNetworkSize:    10,
			ResetIntervalSec:  300,
			LivenessWindowSec: 300,
			JoinIntervalSec:   60,
			JoinCooldownSec:   5,
			InactivitySec:     300,
			ScanIntervalSec:   10,
			ResponseWaitMs:    500,
		},
		SensorConfiguration: SensorConfiguration{
			SampleIntervalSec: 30,
			MotionCooloffSec:  60,
			SoundThreshold:    500,
		},
		MqttConfiguration: MqttConfiguration{
			Address:   "127.0.0.1",
			Port:      1883,
			RootTopic: "lurker",
		},
		HostBridgeConfiguration: HostBridgeConfiguration{
			BaudRate: 57600,
		},
		DataDirectory: "./data",
		LogLevel:      2,
	}
}

func Init(filename string) (ConfigurationService, error) {
	cfg := defaultConfiguration()

	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return &configurationService{
		filename:      filename,
		configuration: cfg,
	}, nil
}

type configurationService struct {
	filename      string
	configuration Configuration
}

func (s *configurationService) GetConfiguration() Configuration {
	return s.configuration
}

func (s *configurationService) Update(updatedConfig Configuration) error {
	data, err := yaml.Marshal(updatedConfig)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.filename, data, 0644); err != nil {
		return err
	}
	s.configuration = updatedConfig
	return nil
}
