// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
//
// Clients subscribe to topic prefixes. A message published on a topic is
// delivered to every client holding a prefix of that topic; the empty
// prefix receives everything.
package hub

import "strings"

// MessageType indicates the websocket message format
type MessageType int

const (
	// JSONMessage is a JSON-encoded message
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data (e.g., JPEG frames)
	BinaryMessage
)

// Message represents a message to be broadcast to clients
type Message struct {
	Type  MessageType
	Topic string
	Data  []byte
}

// NewJSONMessage creates a JSON message from pre-encoded bytes
func NewJSONMessage(topic string, data []byte) Message {
	return Message{Type: JSONMessage, Topic: topic, Data: data}
}

// NewBinaryMessage creates a binary message
func NewBinaryMessage(topic string, data []byte) Message {
	return Message{Type: BinaryMessage, Topic: topic, Data: data}
}

// MatchTopic reports whether a subscription prefix accepts topic.
func MatchTopic(prefix, topic string) bool {
	return strings.HasPrefix(topic, prefix)
}
