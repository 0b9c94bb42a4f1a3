package types

import (
	"encoding/json"
	"fmt"
)

// PublishMessage is the transport encoding of a verification message. It is
// the only message shape that leaves the process.
type PublishMessage struct {
	Topic   Topic       `json:"topic"`
	Message interface{} `json:"message"`
}

// HeaderMessage is the payload of a header-verified message.
type HeaderMessage struct {
	Hash           string `json:"hash"`
	ParentHash     string `json:"parent_hash"`
	Number         uint32 `json:"number"`
	StateRoot      string `json:"state_root"`
	ExtrinsicsRoot string `json:"extrinsics_root"`
	ReceivedAt     int64  `json:"received_at"`
}

// ConfidenceMessage is the payload of a confidence-achieved message.
type ConfidenceMessage struct {
	BlockNumber uint32  `json:"block_number"`
	Confidence  float64 `json:"confidence"`
}

// DataTransaction is one application transaction of a verified block.
type DataTransaction struct {
	Data []byte `json:"data"`
}

// DataMessage is the payload of a data-verified message.
type DataMessage struct {
	BlockNumber      uint32            `json:"block_number"`
	DataTransactions []DataTransaction `json:"data_transactions"`
}

// Publishable is implemented by internal events that can be relayed.
// ToPublishMessage may fail; callers drop the event in that case.
type Publishable interface {
	Topic() Topic
	ToPublishMessage() (PublishMessage, error)
}

// ToPublishMessage converts any relayed value into its transport encoding.
func ToPublishMessage(v interface{}) (PublishMessage, error) {
	switch m := v.(type) {
	case PublishMessage:
		return m, nil
	case *PublishMessage:
		if m == nil {
			return PublishMessage{}, fmt.Errorf("%w: nil message", ErrSerialization)
		}
		return *m, nil
	case Publishable:
		msg, err := m.ToPublishMessage()
		if err != nil {
			return PublishMessage{}, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		return msg, nil
	default:
		return PublishMessage{}, fmt.Errorf("%w: unsupported message type %T", ErrSerialization, v)
	}
}

// MessageList is an ordered snapshot of stored messages for one topic.
type MessageList struct {
	Messages []json.RawMessage `json:"message_list"`
}

// EmptyMessageList returns the list reported when nothing was recorded yet.
func EmptyMessageList() *MessageList {
	return &MessageList{Messages: []json.RawMessage{}}
}

// MarshalJSON never encodes the list as null.
func (l MessageList) MarshalJSON() ([]byte, error) {
	messages := l.Messages
	if messages == nil {
		messages = []json.RawMessage{}
	}
	return json.Marshal(struct {
		Messages []json.RawMessage `json:"message_list"`
	}{messages})
}

// ErrorResponse is the JSON error envelope returned across the boundary.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ErrorJSON encodes message as an error envelope.
func ErrorJSON(message string) string {
	if message == "" {
		message = "unknown error"
	}
	out, err := json.Marshal(ErrorResponse{Message: message})
	if err != nil {
		return `{"message":"unknown error"}`
	}
	return string(out)
}

// ToJSON encodes v, falling back to an error envelope, so the result is
// always valid JSON.
func ToJSON(v interface{}) string {
	out, err := json.Marshal(v)
	if err != nil {
		return ErrorJSON(err.Error())
	}
	return string(out)
}
