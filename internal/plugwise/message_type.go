package plugwise

import "fmt"

// MessageType identifies a stick protocol operation.
//
// Each type has exactly one integer code on the wire. The zero value is
// MessageTypeUnknown, which has no code.
type MessageType int

// Stick protocol message types.
const (
	MessageTypeUnknown MessageType = iota
	MessageTypeAcknowledgementV1
	MessageTypeAcknowledgementV2
	MessageTypeAnnounceAwakeRequest
	MessageTypeBroadcastGroupSwitchResponse
	MessageTypeClockGetRequest
	MessageTypeClockGetResponse
	MessageTypeClockSetRequest
	MessageTypeDeviceCalibrationRequest
	MessageTypeDeviceCalibrationResponse
	MessageTypeDeviceInformationRequest
	MessageTypeDeviceInformationResponse
	MessageTypeDeviceRoleCallRequest
	MessageTypeDeviceRoleCallResponse
	MessageTypeLightCalibrationRequest
	MessageTypeModuleJoinedNetworkRequest
	MessageTypeNetworkResetRequest
	MessageTypeNetworkStatusRequest
	MessageTypeNetworkStatusResponse
	MessageTypeNodeAvailable
	MessageTypeNodeAvailableResponse
	MessageTypeNodeRemoveRequest
	MessageTypeNodeRemoveResponse
	MessageTypePingRequest
	MessageTypePingResponse
	MessageTypePowerBufferRequest
	MessageTypePowerBufferResponse
	MessageTypePowerChangeRequest
	MessageTypePowerInformationRequest
	MessageTypePowerInformationResponse
	MessageTypePowerLogIntervalSetRequest
	MessageTypeRealTimeClockGetRequest
	MessageTypeRealTimeClockGetResponse
	MessageTypeRealTimeClockSetRequest
	MessageTypeScanParametersSetRequest
	MessageTypeSenseBoundariesSetRequest
	MessageTypeSenseReportIntervalSetRequest
	MessageTypeSenseReportRequest
	MessageTypeSleepSetRequest
)

// messageTypeEntry binds a message type to its wire code and name.
type messageTypeEntry struct {
	typ  MessageType
	code int
	name string
}

// messageTypeTable is the single source for both lookup directions.
var messageTypeTable = []messageTypeEntry{
	{MessageTypeAcknowledgementV1, 0x0000, "acknowledgement_v1"},
	{MessageTypeNodeAvailable, 0x0006, "node_available"},
	{MessageTypeNodeAvailableResponse, 0x0007, "node_available_response"},
	{MessageTypeNetworkResetRequest, 0x0008, "network_reset_request"},
	{MessageTypeNetworkStatusRequest, 0x000A, "network_status_request"},
	{MessageTypePingRequest, 0x000D, "ping_request"},
	{MessageTypePingResponse, 0x000E, "ping_response"},
	{MessageTypeNetworkStatusResponse, 0x0011, "network_status_response"},
	{MessageTypePowerInformationRequest, 0x0012, "power_information_request"},
	{MessageTypePowerInformationResponse, 0x0013, "power_information_response"},
	{MessageTypeClockSetRequest, 0x0016, "clock_set_request"},
	{MessageTypePowerChangeRequest, 0x0017, "power_change_request"},
	{MessageTypeDeviceRoleCallRequest, 0x0018, "device_role_call_request"},
	{MessageTypeDeviceRoleCallResponse, 0x0019, "device_role_call_response"},
	{MessageTypeNodeRemoveRequest, 0x001C, "node_remove_request"},
	{MessageTypeNodeRemoveResponse, 0x001D, "node_remove_response"},
	{MessageTypeDeviceInformationRequest, 0x0023, "device_information_request"},
	{MessageTypeDeviceInformationResponse, 0x0024, "device_information_response"},
	{MessageTypeDeviceCalibrationRequest, 0x0026, "device_calibration_request"},
	{MessageTypeDeviceCalibrationResponse, 0x0027, "device_calibration_response"},
	{MessageTypeRealTimeClockSetRequest, 0x0028, "real_time_clock_set_request"},
	{MessageTypeRealTimeClockGetRequest, 0x0029, "real_time_clock_get_request"},
	{MessageTypeRealTimeClockGetResponse, 0x003A, "real_time_clock_get_response"},
	{MessageTypeClockGetRequest, 0x003E, "clock_get_request"},
	{MessageTypeClockGetResponse, 0x003F, "clock_get_response"},
	{MessageTypePowerBufferRequest, 0x0048, "power_buffer_request"},
	{MessageTypePowerBufferResponse, 0x0049, "power_buffer_response"},
	{MessageTypeAnnounceAwakeRequest, 0x004F, "announce_awake_request"},
	{MessageTypeSleepSetRequest, 0x0050, "sleep_set_request"},
	{MessageTypeBroadcastGroupSwitchResponse, 0x0056, "broadcast_group_switch_response"},
	{MessageTypePowerLogIntervalSetRequest, 0x0057, "power_log_interval_set_request"},
	{MessageTypeModuleJoinedNetworkRequest, 0x0061, "module_joined_network_request"},
	{MessageTypeAcknowledgementV2, 0x0100, "acknowledgement_v2"},
	{MessageTypeScanParametersSetRequest, 0x0101, "scan_parameters_set_request"},
	{MessageTypeLightCalibrationRequest, 0x0102, "light_calibration_request"},
	{MessageTypeSenseReportIntervalSetRequest, 0x0103, "sense_report_interval_set_request"},
	{MessageTypeSenseBoundariesSetRequest, 0x0104, "sense_boundaries_set_request"},
	{MessageTypeSenseReportRequest, 0x0105, "sense_report_request"},
}

// Lookup tables built once in init and read-only afterwards.
var (
	messageTypeByCode = make(map[int]MessageType, len(messageTypeTable))
	messageTypeCodes  = make(map[MessageType]messageTypeEntry, len(messageTypeTable))
)

func init() {
	for _, e := range messageTypeTable {
		if _, dup := messageTypeByCode[e.code]; dup {
			panic(fmt.Sprintf("plugwise: duplicate message code 0x%04X", e.code))
		}
		if _, dup := messageTypeCodes[e.typ]; dup {
			panic(fmt.Sprintf("plugwise: duplicate message type %q", e.name))
		}
		messageTypeByCode[e.code] = e.typ
		messageTypeCodes[e.typ] = e
	}
}

// MessageTypeFromCode returns the message type for a wire code.
//
// Unrecognised codes are not errors: the protocol grows over time and an
// unknown code must not abort decoding of the surrounding packet.
//
// Returns:
//   - MessageType: Matching type, or MessageTypeUnknown
//   - bool: false if the code is not in the table
func MessageTypeFromCode(code int) (MessageType, bool) {
	t, ok := messageTypeByCode[code]
	if !ok {
		return MessageTypeUnknown, false
	}
	return t, true
}

// Code returns the wire code of t. MessageTypeUnknown returns -1.
func (t MessageType) Code() int {
	e, ok := messageTypeCodes[t]
	if !ok {
		return -1
	}
	return e.code
}

// String returns the snake_case name, or "unknown".
func (t MessageType) String() string {
	e, ok := messageTypeCodes[t]
	if !ok {
		return "unknown"
	}
	return e.name
}

// MessageTypes returns every known message type in wire-code order.
func MessageTypes() []MessageType {
	types := make([]MessageType, 0, len(messageTypeTable))
	for _, e := range messageTypeTable {
		types = append(types, e.typ)
	}
	return types
}

// messageCodeHexDigits is the width of the code field in a packet header.
const messageCodeHexDigits = 4

// ParseMessageCode decodes the 4-hex-digit code field of a packet.
//
// Returns:
//   - MessageType: Matching type, or MessageTypeUnknown
//   - bool: false if the code is well-formed but not in the table
//   - error: ErrMalformedField if field is not 4 hex digits
func ParseMessageCode(field string) (MessageType, bool, error) {
	raw, err := parseFixedHex(field, messageCodeHexDigits)
	if err != nil {
		return MessageTypeUnknown, false, fmt.Errorf("%w: message code %q: %w", ErrMalformedField, field, err)
	}
	t, ok := MessageTypeFromCode(int(raw)) //nolint:gosec // 4 hex digits fit in int
	return t, ok, nil
}

// CodeHex returns the wire code as 4 upper-case hex digits, or "" for
// MessageTypeUnknown.
func (t MessageType) CodeHex() string {
	code := t.Code()
	if code < 0 {
		return ""
	}
	return fmt.Sprintf("%04X", code)
}
