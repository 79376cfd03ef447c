package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/fenrir/lurker/internal/configuration"
	"github.com/fenrir/lurker/internal/logger"
	"github.com/fenrir/lurker/internal/node"
	"github.com/fenrir/lurker/internal/radio"
	"github.com/fenrir/lurker/internal/sensors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.GetLogger("[main]", logger.LogLevelError)

	var configFile = flag.String("c", "./node.yaml", "path to config file name")
	flag.Parse()

	configService, err := configuration.Init(*configFile)
	if err != nil {
		log.Error("Configuration initialization error: %v", err)
		os.Exit(1)
	}

	cfg := configService.GetConfiguration()
	if cfg.NetworkConfiguration.UnitNumber == 0 {
		log.Error("unit number 0 is reserved for the coordinator, set network.unitNumber")
		os.Exit(1)
	}

	if cfg.RadioConfiguration.PortName == "" {
		log.Error("no radio adapter port configured")
		os.Exit(1)
	}

	driver, err := radio.NewSerialDriver(
		cfg.RadioConfiguration.PortName,
		int(cfg.RadioConfiguration.BaudRate),
		cfg.LogLevel)
	if err != nil {
		log.Error("radio adapter error: %v", err)
		os.Exit(1)
	}

	transport := radio.NewTransport(driver, radio.PipeConfig{
		BasePipe:      cfg.RadioConfiguration.BasePipe,
		BroadcastPipe: cfg.RadioConfiguration.BroadcastPipe,
		Channel:       cfg.RadioConfiguration.Channel,
	})

	// Hardware sensor/actuator wrappers are deployment-specific; the stock
	// binary runs the simulated suite.
	monitor := sensors.NewMonitor(sensors.NewSimulatedSuite(), cfg.SensorConfiguration, cfg.LogLevel)

	n := node.New(cfg, transport, monitor, node.NullActuators{})
	if err := n.StartAsync(ctx); err != nil {
		log.Error("node start error: %v", err)
		os.Exit(1)
	}

	waitForInterruptSignal()

	log.Info("exiting app...")
}

func waitForInterruptSignal() {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt)
	defer func() {
		signal.Stop(sigchan)
	}()
	<-sigchan
}
