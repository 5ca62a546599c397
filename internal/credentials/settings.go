package credentials

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Broker ports used when MQTTSettings.Port is left at 0
const (
	DefaultMQTTPort    = 1883
	DefaultMQTTTLSPort = 8883
)

const redactedPassword = "********"

// Settings is the resolved configuration, grouped by the routine that
// consumes each value.
type Settings struct {
	WiFi     WiFiSettings     `yaml:"wifi" json:"wifi"`
	MQTT     MQTTSettings     `yaml:"mqtt" json:"mqtt"`
	Time     TimeSettings     `yaml:"time" json:"time"`
	Location LocationSettings `yaml:"location" json:"location"`
}

type WiFiSettings struct {
	SSID     string `yaml:"ssid" json:"ssid"`
	Password string `yaml:"password" json:"password"`
}

type MQTTSettings struct {
	Server     string `yaml:"server" json:"server"`
	Port       int    `yaml:"port" json:"port"`
	CACert     string `yaml:"ca_cert,omitempty" json:"ca_cert,omitempty"`
	ClientCert string `yaml:"client_cert,omitempty" json:"client_cert,omitempty"`
	ClientKey  string `yaml:"client_key,omitempty" json:"client_key,omitempty"`
}

type TimeSettings struct {
	UTCOffset       int    `yaml:"utc_offset" json:"utc_offset"`
	DaylightSavings string `yaml:"daylight_savings" json:"daylight_savings"`
	StandardTime    string `yaml:"standard_time" json:"standard_time"`
}

type LocationSettings struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
}

// Defaults returns the settings compiled into the binary.
func Defaults() Settings {
	return Settings{
		WiFi: WiFiSettings{
			SSID:     SSID,
			Password: Password,
		},
		MQTT: MQTTSettings{
			Server: MQTTServer,
		},
		Time: TimeSettings{
			UTCOffset:       Timezone,
			DaylightSavings: DaylightSavings,
			StandardTime:    StandardTime,
		},
		Location: LocationSettings{
			Latitude:  Latitude,
			Longitude: Longitude,
		},
	}
}

// Redacted returns a copy safe to print or persist.
func (s Settings) Redacted() Settings {
	if s.WiFi.Password != "" {
		s.WiFi.Password = redactedPassword
	}
	return s
}

// TLS reports whether client certificates are configured
func (m MQTTSettings) TLS() bool {
	return m.CACert != "" && m.ClientCert != "" && m.ClientKey != ""
}

// ResolvedPort returns Port, or the scheme default when Port is 0.
func (m MQTTSettings) ResolvedPort() int {
	if m.Port != 0 {
		return m.Port
	}
	if m.TLS() {
		return DefaultMQTTTLSPort
	}
	return DefaultMQTTPort
}

// BrokerURL returns the broker address in the form paho expects.
func (m MQTTSettings) BrokerURL() string {
	scheme := "tcp"
	if m.TLS() {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(m.Server, strconv.Itoa(m.ResolvedPort())))
}

// Zone returns a fixed location for standard or daylight saving time.
// Daylight saving time is one hour ahead of the standard offset.
func (t TimeSettings) Zone(dst bool) *time.Location {
	offset := t.UTCOffset * 3600
	name := t.StandardTime
	if dst {
		offset += 3600
		name = t.DaylightSavings
	}
	return time.FixedZone(name, offset)
}
