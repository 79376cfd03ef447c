package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fenrir/lurker/internal/configuration"
	"github.com/fenrir/lurker/internal/logger"
	"github.com/fenrir/lurker/internal/mqtt"
	"github.com/fenrir/lurker/internal/registry"
	"github.com/fenrir/lurker/internal/types"
	"github.com/fenrir/lurker/internal/utils"
)

const (
	MQTT_NODE_SET  = "set"
	MQTT_NETWORK   = "network"
	MQTT_GET_NODES = "get_nodes"
	MQTT_NODES     = "nodes"
	MQTT_ENUMERATE = "enumerate"
)

type mqttRouter struct {
	mqttClient           mqtt.MqttClient
	configurationService configuration.ConfigurationService
	database             registry.NodeRegistry
	onActuatorMessage    func(cmd types.ActuatorCommandMessage)
	onNetworkCommand     func(cmd types.NetworkCommandMessage)
	logger               logger.Logger
}

func NewMQTTRouter(
	configurationService configuration.ConfigurationService,
	mqttClient mqtt.MqttClient,
	database registry.NodeRegistry) MQTTRouter {

	ret := mqttRouter{
		mqttClient:           mqttClient,
		configurationService: configurationService,
		database:             database,
		logger:               logger.GetLogger("[MQTT Router]", configurationService.GetConfiguration().LogLevel),
	}

	mqttClient.Subscribe(ret.mqttMessage)

	return &ret
}

func (h *mqttRouter) PublishNodeMessage(nodeID uint8, msg interface{}, subtopic string) {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error Marshal node message: %v", err)
		return
	}

	topic := fmt.Sprintf("%d", nodeID)
	if subtopic != "" {
		topic = fmt.Sprintf("%d/%v", nodeID, subtopic)
	}

	h.mqttClient.Publish(topic, jsonData)
}

func (h *mqttRouter) PublishNetworkMessage(msg interface{}, subtopic string) {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error Marshal network message: %v", err)
		return
	}

	h.mqttClient.Publish(fmt.Sprintf("%v/%v", MQTT_NETWORK, subtopic), jsonData)
}

func (h *mqttRouter) SubscribeOnActuatorMessage(callback func(cmd types.ActuatorCommandMessage)) {
	h.onActuatorMessage = callback
}

func (h *mqttRouter) SubscribeOnNetworkCommand(callback func(cmd types.NetworkCommandMessage)) {
	h.onNetworkCommand = callback
}

func (h *mqttRouter) mqttMessage(topic string, message []byte) {
	topicParts := strings.Split(topic, "/")
	if len(topicParts) < 3 {
		return
	}

	if topicParts[1] == MQTT_NETWORK {
		h.handleNetworkMessage(topicParts[2], message)
		return
	}

	h.handleNodeMessage(topicParts[1], topicParts[2], message)
}

func (h *mqttRouter) handleNetworkMessage(command string, message []byte) {
	switch command {
	case MQTT_GET_NODES:
		h.publishNodesList()
	case MQTT_ENUMERATE:
		if h.onNetworkCommand != nil {
			h.onNetworkCommand(types.NetworkCommandMessage{Command: "enumerate"})
		}
	}
}

func (h *mqttRouter) publishNodesList() {
	nodes, err := h.database.GetNodes(context.Background())
	if err != nil {
		h.logger.Error("Error reading node registry: %v", err)
		return
	}

	jsonData, err := json.Marshal(nodes)
	if err != nil {
		h.logger.Error("Error Marshal nodes list: %v", err)
		return
	}

	h.mqttClient.Publish(fmt.Sprintf("%v/%v", MQTT_NETWORK, MQTT_NODES), jsonData)
}

func (h *mqttRouter) handleNodeMessage(nodeIDStr string, command string, message []byte) {
	nodeID, err := strconv.ParseUint(nodeIDStr, 10, 8)
	if err != nil {
		// Not a node topic, likely our own published reading echoing back.
		return
	}

	if command == MQTT_NODE_SET {
		h.handleNodeSetCommand(uint8(nodeID), message)
	}
}

// handleNodeSetCommand accepts loosely-typed JSON like
// {"Actuator":"buzzer","On":true} and maps it onto the command struct.
func (h *mqttRouter) handleNodeSetCommand(nodeID uint8, message []byte) {
	var payload map[string]interface{}
	if err := json.Unmarshal(message, &payload); err != nil {
		h.logger.Error("Error unmarshal SET message: %v", err)
		return
	}

	cmd := types.ActuatorCommandMessage{NodeID: nodeID}
	utils.SetStructProperties(payload, &cmd)

	h.logger.Info("SET message received. Node:%v, Actuator:%v, On:%v", nodeID, cmd.Actuator, cmd.On)

	if h.onActuatorMessage != nil {
		h.onActuatorMessage(cmd)
	}
}
