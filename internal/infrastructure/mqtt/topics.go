package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every topic the bridge publishes or consumes.
//
// Bridge topics use the flat scheme graylogic/{category}/{protocol}/{address}.
const TopicPrefix = "graylogic"

// Bridge topic categories.
const (
	CategoryField       = "field"
	CategoryCalibration = "calibration"
	CategoryCommand     = "command"
	CategoryEncoded     = "encoded"
	CategoryAck         = "ack"
	CategoryState       = "state"
	CategoryHealth      = "health"
)

// Topics provides builders for bridge MQTT topics.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.BridgeState("plugwise", "000D6F0000B1B64B")
//	// Returns: "graylogic/state/plugwise/000D6F0000B1B64B"
type Topics struct{}

// BridgeTopic returns graylogic/{category}/{protocol}/{address}.
func (Topics) BridgeTopic(category, protocol, address string) string {
	return fmt.Sprintf("%s/%s/%s/%s", TopicPrefix, category, protocol, address)
}

// BridgeField returns the topic on which the transport delivers raw hex fields.
//
// Example: graylogic/field/plugwise/000D6F0000B1B64B
func (t Topics) BridgeField(protocol, address string) string {
	return t.BridgeTopic(CategoryField, protocol, address)
}

// BridgeCalibration returns the topic carrying a node's calibration response.
func (t Topics) BridgeCalibration(protocol, address string) string {
	return t.BridgeTopic(CategoryCalibration, protocol, address)
}

// BridgeCommand returns the topic for commands to a bridge.
//
// Example: graylogic/command/plugwise/000D6F0000B1B64B
func (t Topics) BridgeCommand(protocol, address string) string {
	return t.BridgeTopic(CategoryCommand, protocol, address)
}

// BridgeEncoded returns the topic on which encoded command fields are handed
// to the transport.
func (t Topics) BridgeEncoded(protocol, address string) string {
	return t.BridgeTopic(CategoryEncoded, protocol, address)
}

// BridgeAck returns the topic for command acknowledgements from a bridge.
func (t Topics) BridgeAck(protocol, address string) string {
	return t.BridgeTopic(CategoryAck, protocol, address)
}

// BridgeState returns the topic for decoded node state.
func (t Topics) BridgeState(protocol, address string) string {
	return t.BridgeTopic(CategoryState, protocol, address)
}

// BridgeHealth returns the topic for bridge health status.
//
// Example: graylogic/health/plugwise
func (Topics) BridgeHealth(protocol string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, CategoryHealth, protocol)
}

// BridgeWildcard returns a subscription pattern matching every address in
// one category of a protocol.
//
// Pattern: graylogic/{category}/{protocol}/+
func (t Topics) BridgeWildcard(category, protocol string) string {
	return t.BridgeTopic(category, protocol, "+")
}

// ClientStatus returns the retained online/offline topic for an MQTT client.
//
// Example: graylogic/system/status/plugwise-bridge
func (Topics) ClientStatus(clientID string) string {
	return fmt.Sprintf("%s/system/status/%s", TopicPrefix, clientID)
}

// ParseBridgeTopic splits a bridge topic into its category, protocol and
// address. ok is false for anything outside the flat bridge scheme,
// including wildcard patterns.
func ParseBridgeTopic(topic string) (category, protocol, address string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix {
		return "", "", "", false
	}
	for _, p := range parts[1:] {
		if p == "" || p == "+" || p == "#" {
			return "", "", "", false
		}
	}
	return parts[1], parts[2], parts[3], true
}
