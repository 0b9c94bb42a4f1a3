package relay

import (
	"encoding/json"

	"github.com/rollkit/lightbridge/types"
)

// Notifier receives every relayed message. topic and payload are JSON texts
// owned by the callee only for the duration of the call.
type Notifier interface {
	Notify(topic, payload []byte)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(topic, payload []byte)

// Notify calls f.
func (f NotifierFunc) Notify(topic, payload []byte) {
	f(topic, payload)
}

// Encode returns the topic and payload texts handed to a Notifier.
func Encode(msg types.PublishMessage) (topic []byte, payload []byte, err error) {
	topic, err = json.Marshal(msg.Topic)
	if err != nil {
		return nil, nil, err
	}
	payload, err = json.Marshal(msg.Message)
	if err != nil {
		return nil, nil, err
	}
	return topic, payload, nil
}
