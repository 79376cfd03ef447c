package router

import (
	"github.com/fenrir/lurker/internal/types"
)

type MQTTRouter interface {
	PublishNodeMessage(nodeID uint8, msg interface{}, subtopic string)
	PublishNetworkMessage(msg interface{}, subtopic string)

	SubscribeOnActuatorMessage(callback func(cmd types.ActuatorCommandMessage))
	SubscribeOnNetworkCommand(callback func(cmd types.NetworkCommandMessage))
}
