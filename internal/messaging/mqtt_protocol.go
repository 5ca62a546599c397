package messaging

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/someyob/MiniHamClock/internal/credentials"
)

// Message Types
const (
	MSG_GENERIC       = 0x00
	MSG_DEVICE_CONFIG = 0x03
	MSG_TIMEZONE      = 0x04
	MSG_LOCATION      = 0x05
)

// Protocol constraints for ESP32 compatibility
const (
	MAX_PAYLOAD_SIZE = 255 // Maximum payload size (1-byte length field: 0-255)
)

// Location payload: two big-endian int32 microdegree values
const (
	locationPayloadLen = 8
	microdegrees       = 1e6
)

// EncodeDeviceConfig creates a config message with variable number of strings
// Format: [type][length][numStrings][len1][str1][len2][str2]...[lenN][strN]
func EncodeDeviceConfig(strings ...string) ([]byte, error) {
	payload, err := encodeStrings(strings)
	if err != nil {
		return nil, err
	}
	return frame(MSG_DEVICE_CONFIG, payload)
}

// DecodeDeviceConfig parses a device config message and returns all strings
func DecodeDeviceConfig(payload []byte) ([]string, error) {
	return decodeStrings(payload)
}

// EncodeTimezone creates message: [type][len][offset int8][2][len][dst][len][std]
func EncodeTimezone(t credentials.TimeSettings) ([]byte, error) {
	if t.UTCOffset < math.MinInt8 || t.UTCOffset > math.MaxInt8 {
		return nil, fmt.Errorf("utc offset %d does not fit in one byte", t.UTCOffset)
	}
	labels, err := encodeStrings([]string{t.DaylightSavings, t.StandardTime})
	if err != nil {
		return nil, err
	}
	payload := append([]byte{byte(int8(t.UTCOffset))}, labels...)
	return frame(MSG_TIMEZONE, payload)
}

// DecodeTimezone parses the payload of a MSG_TIMEZONE message
func DecodeTimezone(payload []byte) (credentials.TimeSettings, error) {
	if len(payload) < 1 {
		return credentials.TimeSettings{}, fmt.Errorf("payload too short: need at least 1 byte for utc offset")
	}
	labels, err := decodeStrings(payload[1:])
	if err != nil {
		return credentials.TimeSettings{}, err
	}
	if len(labels) != 2 {
		return credentials.TimeSettings{}, fmt.Errorf("timezone payload carries %d labels, want 2", len(labels))
	}
	return credentials.TimeSettings{
		UTCOffset:       int(int8(payload[0])),
		DaylightSavings: labels[0],
		StandardTime:    labels[1],
	}, nil
}

// EncodeLocation creates message: [type][8][lat int32][lon int32], microdegrees big-endian
func EncodeLocation(l credentials.LocationSettings) ([]byte, error) {
	payload := make([]byte, locationPayloadLen)
	binary.BigEndian.PutUint32(payload[0:4], uint32(toMicrodegrees(l.Latitude)))
	binary.BigEndian.PutUint32(payload[4:8], uint32(toMicrodegrees(l.Longitude)))
	return frame(MSG_LOCATION, payload)
}

// DecodeLocation parses the payload of a MSG_LOCATION message
func DecodeLocation(payload []byte) (credentials.LocationSettings, error) {
	if len(payload) != locationPayloadLen {
		return credentials.LocationSettings{}, fmt.Errorf("location payload is %d bytes, want %d", len(payload), locationPayloadLen)
	}
	return credentials.LocationSettings{
		Latitude:  float64(int32(binary.BigEndian.Uint32(payload[0:4]))) / microdegrees,
		Longitude: float64(int32(binary.BigEndian.Uint32(payload[4:8]))) / microdegrees,
	}, nil
}

// EncodeSettings returns the config, timezone and location frames for s
func EncodeSettings(s *credentials.Settings) ([][]byte, error) {
	config, err := EncodeDeviceConfig(s.WiFi.SSID, s.WiFi.Password, s.MQTT.Server)
	if err != nil {
		return nil, fmt.Errorf("device config: %w", err)
	}
	tz, err := EncodeTimezone(s.Time)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	loc, err := EncodeLocation(s.Location)
	if err != nil {
		return nil, fmt.Errorf("location: %w", err)
	}
	return [][]byte{config, tz, loc}, nil
}

// EncodeGeneric creates a generic message for topic-specific data
func EncodeGeneric(payload []byte) ([]byte, error) {
	return frame(MSG_GENERIC, payload)
}

// DecodeMessage parses header and returns type, payload with bounds checking
func DecodeMessage(data []byte) (msgType uint8, payload []byte, err error) {
	if len(data) < 2 {
		return 0, nil, fmt.Errorf("message too short: got %d bytes, need at least 2", len(data))
	}

	msgType = data[0]
	length := int(data[1])

	// Validate length against actual data size
	if length > len(data)-2 {
		return 0, nil, fmt.Errorf("invalid length field: claims %d bytes but only %d available", length, len(data)-2)
	}

	payload = data[2 : 2+length]
	return
}

// PRIVATE

func frame(msgType uint8, payload []byte) ([]byte, error) {
	if len(payload) > MAX_PAYLOAD_SIZE {
		return nil, fmt.Errorf("payload too large: %d bytes exceeds maximum of %d", len(payload), MAX_PAYLOAD_SIZE)
	}
	msg := make([]byte, 2+len(payload))
	msg[0] = msgType
	msg[1] = uint8(len(payload))
	copy(msg[2:], payload)
	return msg, nil
}

// [numStrings][len1][str1]...[lenN][strN]
func encodeStrings(strings []string) ([]byte, error) {
	if len(strings) > 255 {
		return nil, fmt.Errorf("too many strings: %d exceeds maximum of 255", len(strings))
	}

	payloadLen := 1 + len(strings) // 1 for count, 1 per length field
	for i, s := range strings {
		if len(s) > 255 {
			return nil, fmt.Errorf("string %d length %d exceeds maximum of 255", i, len(s))
		}
		payloadLen += len(s)
	}
	if payloadLen > MAX_PAYLOAD_SIZE {
		return nil, fmt.Errorf("payload too large: %d bytes exceeds maximum of %d", payloadLen, MAX_PAYLOAD_SIZE)
	}

	out := make([]byte, 0, payloadLen)
	out = append(out, uint8(len(strings)))
	for _, s := range strings {
		out = append(out, uint8(len(s)))
		out = append(out, s...)
	}
	return out, nil
}

func decodeStrings(payload []byte) ([]string, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("payload too short: need at least 1 byte for string count")
	}

	numStrings := int(payload[0])
	result := make([]string, 0, numStrings)
	offset := 1

	for i := 0; i < numStrings; i++ {
		if offset >= len(payload) {
			return nil, fmt.Errorf("payload truncated: cannot read length field for string %d at offset %d", i+1, offset)
		}

		stringLen := int(payload[offset])
		offset++

		if offset+stringLen > len(payload) {
			return nil, fmt.Errorf("payload truncated: string %d at offset %d claims %d bytes but only %d available", i+1, offset-1, stringLen, len(payload)-offset)
		}

		result = append(result, string(payload[offset:offset+stringLen]))
		offset += stringLen
	}

	return result, nil
}

func toMicrodegrees(deg float64) int32 {
	return int32(math.Round(deg * microdegrees))
}
