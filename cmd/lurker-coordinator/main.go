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
	"github.com/fenrir/lurker/internal/packet"
	"github.com/fenrir/lurker/internal/radio"
	"github.com/fenrir/lurker/internal/registry"
	"github.com/fenrir/lurker/internal/router"
	"github.com/fenrir/lurker/internal/types"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.GetLogger("[main]", logger.LogLevelError)

	var configFile = flag.String("c", "./coordinator.yaml", "path to config file name")
	flag.Parse()

	configService, err := configuration.Init(*configFile)
	if err != nil {
		log.Error("Configuration initialization error: %v", err)
		os.Exit(1)
	}

	cfg := configService.GetConfiguration()
	cfg.NetworkConfiguration.UnitNumber = uint8(packet.CoordinatorID)

	database, err := registry.NewNodeRegistry(cfg.DataDirectory)
	if err != nil {
		log.Error("registry initialization error: %v", err)
		os.Exit(1)
	}
	defer database.Close(ctx)

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

	coord := coordinator.New(cfg, transport, database)

	bridge, err := hostbridge.New(cfg.HostBridgeConfiguration, cfg.LogLevel)
	if err != nil {
		log.Error("host bridge error: %v", err)
		os.Exit(1)
	}
	defer bridge.Close()
	bridge.SubscribeOnByte(coord.HandleHostByte)
	bridge.StartAsync(ctx)

	mqttClient, mqttDisconnect := mqtt.NewClient(&cfg)
	defer mqttDisconnect()

	mqttRouter := router.NewMQTTRouter(configService, mqttClient, database)

	setupSubscriptions(mqttRouter, coord, bridge)

	if err := coord.StartAsync(ctx); err != nil {
		log.Error("coordinator start error: %v", err)
		os.Exit(1)
	}

	waitForInterruptSignal()

	log.Info("exiting app...")
}

func setupSubscriptions(mqttRouter router.MQTTRouter, coord *coordinator.Coordinator, bridge *hostbridge.Bridge) {
	mqttRouter.SubscribeOnActuatorMessage(func(cmd types.ActuatorCommandMessage) {
		coord.ProcessActuatorCommand(cmd)
	})
	mqttRouter.SubscribeOnNetworkCommand(func(cmd types.NetworkCommandMessage) {
		coord.RequestEnumeration()
	})
	coord.SubscribeOnReading(func(msg mqtt.NodeReadingMessage) {
		mqttRouter.PublishNodeMessage(msg.NodeID, msg, "")
		bridge.WriteRecord(msg)
	})
	coord.SubscribeOnNodeEvent(func(msg mqtt.NodeEventMessage) {
		mqttRouter.PublishNodeMessage(msg.NodeID, msg, "event")
		bridge.WriteRecord(msg)
	})
	coord.SubscribeOnNodeJoin(func(id packet.NodeID) {
		publishNetworkStatus(mqttRouter, coord)
	})
	coord.SubscribeOnNodeLost(func(id packet.NodeID) {
		publishNetworkStatus(mqttRouter, coord)
	})
}

func publishNetworkStatus(mqttRouter router.MQTTRouter, coord *coordinator.Coordinator) {
	ids := coord.Nodes()
	msg := mqtt.NetworkStatusMessage{Nodes: make([]uint8, len(ids))}
	for i, id := range ids {
		msg.Nodes[i] = uint8(id)
	}
	mqttRouter.PublishNetworkMessage(msg, "status")
}

func waitForInterruptSignal() {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt)
	defer func() {
		signal.Stop(sigchan)
	}()
	<-sigchan
}
