// Command lurker-sim runs a whole Lurker network in one process over the
// in-memory stub radio: one coordinator and a handful of simulated nodes.
// Decoded readings come out as framed JSON records on stdout.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/fenrir/lurker/internal/configuration"
	"github.com/fenrir/lurker/internal/coordinator"
	"github.com/fenrir/lurker/internal/hostbridge"
	"github.com/fenrir/lurker/internal/logger"
	"github.com/fenrir/lurker/internal/mqtt"
	"github.com/fenrir/lurker/internal/node"
	"github.com/fenrir/lurker/internal/radio"
	"github.com/fenrir/lurker/internal/radio/stub"
	"github.com/fenrir/lurker/internal/sensors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.GetLogger("[main]", logger.LogLevelError)

	var nodeCount = flag.Int("n", 3, "number of simulated nodes")
	flag.Parse()

	cfg := simConfiguration()

	network := stub.NewNetwork()

	pipes := radio.PipeConfig{
		BasePipe:      cfg.RadioConfiguration.BasePipe,
		BroadcastPipe: cfg.RadioConfiguration.BroadcastPipe,
		Channel:       cfg.RadioConfiguration.Channel,
	}

	bridge := hostbridge.NewWithWriter(os.Stdout, cfg.LogLevel)

	coord := coordinator.New(cfg, radio.NewTransport(network.Attach(), pipes), nil)
	coord.SubscribeOnReading(func(msg mqtt.NodeReadingMessage) {
		bridge.WriteRecord(msg)
	})
	coord.SubscribeOnNodeEvent(func(msg mqtt.NodeEventMessage) {
		bridge.WriteRecord(msg)
	})

	if err := coord.StartAsync(ctx); err != nil {
		log.Error("coordinator start error: %v", err)
		os.Exit(1)
	}

	for i := 1; i <= *nodeCount; i++ {
		nodeCfg := cfg
		nodeCfg.NetworkConfiguration.UnitNumber = uint8(i)

		monitor := sensors.NewMonitor(sensors.NewSimulatedSuite(), nodeCfg.SensorConfiguration, nodeCfg.LogLevel)
		n := node.New(nodeCfg, radio.NewTransport(network.Attach(), pipes), monitor, node.NullActuators{})

		if err := n.StartAsync(ctx); err != nil {
			log.Error("node %d start error: %v", i, err)
			os.Exit(1)
		}
	}

	waitForInterruptSignal()

	log.Info("exiting app...")
}

// simConfiguration shortens the deployment windows so the simulation shows
// a full enumeration/join/scan cycle within seconds.
func simConfiguration() configuration.Configuration {
	cfg := configuration.Configuration{}

	cfg.RadioConfiguration = configuration.RadioConfiguration{
		Channel:       90,
		BasePipe:      0x9090909000,
		BroadcastPipe: 0x90909090FF,
	}
	cfg.NetworkConfiguration = configuration.NetworkConfiguration{
		MaxNetworkSize:    10,
		ResetIntervalSec:  120,
		LivenessWindowSec: 60,
		JoinIntervalSec:   10,
		JoinCooldownSec:   2,
		InactivitySec:     60,
		ScanIntervalSec:   5,
		ResponseWaitMs:    200,
	}
	cfg.SensorConfiguration = configuration.SensorConfiguration{
		SampleIntervalSec: 5,
		MotionCooloffSec:  10,
		SoundThreshold:    500,
	}
	cfg.LogLevel = logger.LogLevelDebug

	return cfg
}

func waitForInterruptSignal() {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt)
	defer func() {
		signal.Stop(sigchan)
	}()
	<-sigchan
}
