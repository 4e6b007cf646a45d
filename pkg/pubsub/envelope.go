// Package pubsub carries detection records from the pipeline to
// subscribers. Sinks are the publishing side; Subscriber is the consuming
// side of the websocket broker in pkg/web.
package pubsub

import (
	"encoding/json"
	"fmt"

	"github.com/teslashibe/go-nedvision/pkg/detection"
)

// DefaultTopic is the topic detection records are published on.
const DefaultTopic = "VisionData"

// Envelope is the wire frame sent to websocket subscribers.
type Envelope struct {
	Topic   string          `json:"topic"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// Message is a decoded envelope.
type Message struct {
	Topic  string
	Seq    uint64
	Record detection.Record
}

// EncodeEnvelope wraps a record for the wire.
func EncodeEnvelope(topic string, seq uint64, rec detection.Record) ([]byte, error) {
	payload, err := rec.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return json.Marshal(Envelope{Topic: topic, Seq: seq, Payload: payload})
}

// DecodeEnvelope parses a wire frame.
func DecodeEnvelope(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}
	rec, err := detection.ParseRecord(env.Payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Topic: env.Topic, Seq: env.Seq, Record: rec}, nil
}
