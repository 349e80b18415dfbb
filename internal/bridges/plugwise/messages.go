package plugwise

import (
	"time"

	"github.com/nerrad567/gray-logic-plugwise/internal/infrastructure/mqtt"
)

// Protocol is the protocol segment of every bridge topic.
const Protocol = "plugwise"

// FieldMessage carries the raw hex fields of one received packet, already
// extracted from the frame by the stick transport.
// Topic: graylogic/field/plugwise/{mac}
type FieldMessage struct {
	// MessageCode is the 4-hex-digit packet code (e.g. "0013").
	MessageCode string `json:"message_code"`

	// Timestamp is when the transport received the packet.
	Timestamp time.Time `json:"timestamp"`

	// Temperature and Humidity are 4-hex-digit Sense fields.
	Temperature string `json:"temperature,omitempty"`
	Humidity    string `json:"humidity,omitempty"`

	// Pulses is a 4- or 8-hex-digit pulse counter accumulated over
	// IntervalSeconds.
	Pulses          string  `json:"pulses,omitempty"`
	IntervalSeconds float64 `json:"interval_seconds,omitempty"`

	// LogDateTime is the 8-hex-digit end of a power buffer slot. When set it
	// replaces Timestamp as the end of the pulse interval.
	LogDateTime string `json:"log_datetime,omitempty"`

	// DeviceTypeCode is the hardware type byte of a device information response.
	DeviceTypeCode *int `json:"device_type_code,omitempty"`
}

// CalibrationMessage carries the four coefficients of a calibration
// response as 8-hex-digit IEEE-754 single-precision bit patterns.
// Topic: graylogic/calibration/plugwise/{mac}
type CalibrationMessage struct {
	GainA       string `json:"gain_a"`
	GainB       string `json:"gain_b"`
	OffsetTotal string `json:"offset_total"`
	OffsetNoise string `json:"offset_noise"`
}

// CommandMessage is sent from Core to configure a node.
// Topic: graylogic/command/plugwise/{mac}
type CommandMessage struct {
	// ID correlates the command with its acknowledgment. The bridge
	// assigns one when empty.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`

	// Command is the command name (e.g. "set_sensitivity", "set_boundaries").
	Command string `json:"command"`

	// Parameters contains command-specific values.
	// Examples:
	//   {"sensitivity": "medium", "reset_timer": 5} for set_sensitivity
	//   {"boundary": "temperature", "lower": 18.5, "upper": 21, "action": "on_below_off_above"}
	Parameters map[string]any `json:"parameters,omitempty"`

	// Source indicates where the command originated.
	Source string `json:"source,omitempty"`
}

// EncodedMessage hands an encoded request to the stick transport.
// Topic: graylogic/encoded/plugwise/{mac}
type EncodedMessage struct {
	CommandID   string            `json:"command_id"`
	Timestamp   time.Time         `json:"timestamp"`
	MAC         string            `json:"mac"`
	MessageType string            `json:"message_type"`
	MessageCode string            `json:"message_code"`
	Fields      map[string]string `json:"fields"`
}

// AckStatus represents the acknowledgment status of a command.
type AckStatus string

const (
	// AckAccepted indicates the command was encoded and handed to the transport.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command could not be encoded.
	AckFailed AckStatus = "failed"
)

// AckMessage is sent from the bridge to Core to acknowledge a command.
// Topic: graylogic/ack/plugwise/{mac}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	Status    AckStatus `json:"status"`
	Protocol  string    `json:"protocol"`
	Address   string    `json:"address"`
	Error     *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for command failures.
const (
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodeInvalidAddress    = "INVALID_ADDRESS"
	ErrCodeBridgeError       = "BRIDGE_ERROR"
)

// StateMessage is the decoded state of one received packet.
// Topic: graylogic/state/plugwise/{mac}
// QoS: 1, Retained: Yes
type StateMessage struct {
	MAC         string    `json:"mac"`
	Name        string    `json:"name,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	MessageType string    `json:"message_type"`

	// State holds the decoded quantities. An undefined sensor reading is
	// present with a null value.
	//   Sense:  {"temperature": 21.5, "humidity": null}
	//   Circle: {"power_watts": 59.2, "energy_kwh": 0.0164, "interval_start": ..., "interval_end": ...}
	State map[string]any `json:"state"`

	Protocol string `json:"protocol"`
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthOffline  HealthStatus = "offline"
	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports the bridge's operational status.
// Topic: graylogic/health/plugwise
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Bridge        string            `json:"bridge"`
	Timestamp     time.Time         `json:"timestamp"`
	Status        HealthStatus      `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	NodesKnown    int               `json:"nodes_known"`
	Statistics    *BridgeStatistics `json:"statistics,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}

// BridgeStatistics contains operational counters.
type BridgeStatistics struct {
	FieldsReceived     uint64 `json:"fields_received"`
	FieldsMalformed    uint64 `json:"fields_malformed"`
	StatesPublished    uint64 `json:"states_published"`
	EnergySkipped      uint64 `json:"energy_skipped"`
	CalibrationsStored uint64 `json:"calibrations_stored"`
	CommandsEncoded    uint64 `json:"commands_encoded"`
	CommandsFailed     uint64 `json:"commands_failed"`
}

// NewAckMessage creates a successful acknowledgment.
func NewAckMessage(cmd CommandMessage, address string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Status:    AckAccepted,
		Protocol:  Protocol,
		Address:   address,
	}
}

// NewAckError creates a failed acknowledgment with error details.
func NewAckError(cmd CommandMessage, address, code, message string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Status:    AckFailed,
		Protocol:  Protocol,
		Address:   address,
		Error: &AckError{
			Code:    code,
			Message: message,
		},
	}
}

// NewLWTMessage creates the health message the broker publishes if the
// bridge disconnects unexpectedly.
func NewLWTMessage(bridgeID string) HealthMessage {
	return HealthMessage{
		Bridge:    bridgeID,
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Reason:    "unexpected_disconnect",
	}
}

var topics = mqtt.Topics{}

// FieldSubscribeTopic returns the pattern for all incoming field messages.
func FieldSubscribeTopic() string {
	return topics.BridgeWildcard(mqtt.CategoryField, Protocol)
}

// CalibrationSubscribeTopic returns the pattern for all calibration responses.
func CalibrationSubscribeTopic() string {
	return topics.BridgeWildcard(mqtt.CategoryCalibration, Protocol)
}

// CommandSubscribeTopic returns the pattern for all commands from Core.
func CommandSubscribeTopic() string {
	return topics.BridgeWildcard(mqtt.CategoryCommand, Protocol)
}

// StateTopic returns the state topic for a node.
func StateTopic(mac string) string {
	return topics.BridgeState(Protocol, mac)
}

// EncodedTopic returns the topic on which encoded requests for a node are published.
func EncodedTopic(mac string) string {
	return topics.BridgeEncoded(Protocol, mac)
}

// AckTopic returns the acknowledgment topic for a node.
func AckTopic(mac string) string {
	return topics.BridgeAck(Protocol, mac)
}

// HealthTopic returns the bridge health topic.
func HealthTopic() string {
	return topics.BridgeHealth(Protocol)
}
