package credentials

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstants(t *testing.T) {
	var (
		ssid     string  = SSID
		password string  = Password
		server   string  = MQTTServer
		tz       int     = Timezone
		dst      string  = DaylightSavings
		std      string  = StandardTime
		lat      float64 = Latitude
		lon      float64 = Longitude
	)

	assert.Equal(t, "yourssid", ssid)
	assert.Equal(t, "yourpassword", password)
	assert.Equal(t, "192.168.1.230", server)
	assert.Equal(t, -5, tz)
	assert.Equal(t, "EDT", dst)
	assert.Equal(t, "EST", std)
	assert.InDelta(t, 40.1234, lat, 1e-9)
	assert.InDelta(t, -75.1234, lon, 1e-9)
}

func TestDefaultsAreValid(t *testing.T) {
	s := Defaults()
	require.NoError(t, s.Validate())
	assert.Zero(t, s.MQTT.Port)
	assert.Equal(t, "tcp://192.168.1.230:1883", s.MQTT.BrokerURL())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"empty ssid", func(s *Settings) { s.WiFi.SSID = "" }, "wifi.ssid"},
		{"long ssid", func(s *Settings) { s.WiFi.SSID = "abcdefghijklmnopqrstuvwxyz0123456" }, "wifi.ssid"},
		{"short password", func(s *Settings) { s.WiFi.Password = "secret" }, "wifi.password"},
		{"hostname broker", func(s *Settings) { s.MQTT.Server = "broker.local" }, "mqtt.server"},
		{"ipv6 broker", func(s *Settings) { s.MQTT.Server = "fe80::1" }, "mqtt.server"},
		{"port range", func(s *Settings) { s.MQTT.Port = 70000 }, "mqtt.port"},
		{"partial tls", func(s *Settings) { s.MQTT.CACert = "ca.crt" }, "mqtt"},
		{"offset range", func(s *Settings) { s.Time.UTCOffset = -13 }, "time.utc_offset"},
		{"dst label", func(s *Settings) { s.Time.DaylightSavings = "E1" }, "time.daylight_savings"},
		{"std label", func(s *Settings) { s.Time.StandardTime = "" }, "time.standard_time"},
		{"latitude", func(s *Settings) { s.Location.Latitude = 90.5 }, "location.latitude"},
		{"longitude", func(s *Settings) { s.Location.Longitude = -180.01 }, "location.longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.field+":")
		})
	}
}

func TestValidateBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		ok     bool
	}{
		{"ssid 32 bytes", func(s *Settings) { s.WiFi.SSID = strings.Repeat("s", 32) }, true},
		{"ssid 33 bytes", func(s *Settings) { s.WiFi.SSID = strings.Repeat("s", 33) }, false},
		{"password 8 bytes", func(s *Settings) { s.WiFi.Password = strings.Repeat("p", 8) }, true},
		{"password 7 bytes", func(s *Settings) { s.WiFi.Password = strings.Repeat("p", 7) }, false},
		{"password 63 bytes", func(s *Settings) { s.WiFi.Password = strings.Repeat("p", 63) }, true},
		{"password 64 bytes", func(s *Settings) { s.WiFi.Password = strings.Repeat("p", 64) }, false},
		{"port 65535", func(s *Settings) { s.MQTT.Port = 65535 }, true},
		{"negative port", func(s *Settings) { s.MQTT.Port = -1 }, false},
		{"offset -12", func(s *Settings) { s.Time.UTCOffset = -12 }, true},
		{"offset +14", func(s *Settings) { s.Time.UTCOffset = 14 }, true},
		{"offset +15", func(s *Settings) { s.Time.UTCOffset = 15 }, false},
		{"zone label 5 letters", func(s *Settings) { s.Time.DaylightSavings = "AKDTX" }, true},
		{"zone label 6 letters", func(s *Settings) { s.Time.StandardTime = "ABCDEF" }, false},
		{"latitude -90", func(s *Settings) { s.Location.Latitude = -90 }, true},
		{"longitude 180", func(s *Settings) { s.Location.Longitude = 180 }, true},
		{"latitude NaN", func(s *Settings) { s.Location.Latitude = math.NaN() }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(&s)
			err := s.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestValidateOpenNetworkAndMultipleErrors(t *testing.T) {
	s := Defaults()
	s.WiFi.Password = ""
	require.NoError(t, s.Validate())

	s.WiFi.SSID = ""
	s.Location.Latitude = 100
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wifi.ssid")
	assert.Contains(t, err.Error(), "location.latitude")
}

func TestZone(t *testing.T) {
	ts := Defaults().Time
	utc := time.Date(2024, 7, 4, 16, 30, 0, 0, time.UTC)

	std := utc.In(ts.Zone(false))
	name, offset := std.Zone()
	assert.Equal(t, "EST", name)
	assert.Equal(t, -5*3600, offset)
	assert.Equal(t, 11, std.Hour())

	dst := utc.In(ts.Zone(true))
	name, offset = dst.Zone()
	assert.Equal(t, "EDT", name)
	assert.Equal(t, -4*3600, offset)
	assert.Equal(t, 12, dst.Hour())
}

func TestBrokerURL(t *testing.T) {
	m := MQTTSettings{Server: "10.0.0.2"}
	assert.Equal(t, "tcp://10.0.0.2:1883", m.BrokerURL())

	m.CACert, m.ClientCert, m.ClientKey = "ca.crt", "c.crt", "c.key"
	assert.True(t, m.TLS())
	assert.Equal(t, "ssl://10.0.0.2:8883", m.BrokerURL())

	m.Port = 9999
	assert.Equal(t, "ssl://10.0.0.2:9999", m.BrokerURL())
}

func TestRedacted(t *testing.T) {
	s := Defaults()
	r := s.Redacted()
	assert.Equal(t, "********", r.WiFi.Password)
	assert.Equal(t, Password, s.WiFi.Password)

	s.WiFi.Password = ""
	assert.Empty(t, s.Redacted().WiFi.Password)
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load(Sources{})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *s)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()

	yamlFile := filepath.Join(dir, "clock.yaml")
	require.NoError(t, os.WriteFile(yamlFile, []byte(`
wifi:
  ssid: shack
mqtt:
  server: 10.0.0.5
time:
  utc_offset: -8
  daylight_savings: PDT
  standard_time: PST
`), 0644))

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MQTT_SERVER=10.0.0.6\nLATITUDE=47.6062\n"), 0644))

	t.Setenv("LATITUDE", "47.5")

	s, err := Load(Sources{YAMLFile: yamlFile, EnvFile: envFile, ProcessEnv: true})
	require.NoError(t, err)

	assert.Equal(t, "shack", s.WiFi.SSID)
	assert.Equal(t, Password, s.WiFi.Password)
	assert.Equal(t, "10.0.0.6", s.MQTT.Server)
	assert.Equal(t, -8, s.Time.UTCOffset)
	assert.Equal(t, "PST", s.Time.StandardTime)
	assert.InDelta(t, 47.5, s.Location.Latitude, 1e-9)
	assert.InDelta(t, Longitude, s.Location.Longitude, 1e-9)
}

func TestLoadTLSWithoutPortUsesTLSPort(t *testing.T) {
	t.Setenv("MQTT_CA_CERT", "ca.crt")
	t.Setenv("MQTT_CLIENT_CERT", "client.crt")
	t.Setenv("MQTT_CLIENT_KEY", "client.key")

	s, err := Load(Sources{ProcessEnv: true})
	require.NoError(t, err)
	assert.Equal(t, "ssl://192.168.1.230:8883", s.MQTT.BrokerURL())

	t.Setenv("MQTT_PORT", "8884")
	s, err = Load(Sources{ProcessEnv: true})
	require.NoError(t, err)
	assert.Equal(t, "ssl://192.168.1.230:8884", s.MQTT.BrokerURL())
}

func TestLoadTLSFromYAML(t *testing.T) {
	yamlFile := filepath.Join(t.TempDir(), "clock.yaml")
	require.NoError(t, os.WriteFile(yamlFile, []byte(`
mqtt:
  ca_cert: /etc/clock/ca.crt
  client_cert: /etc/clock/client.crt
  client_key: /etc/clock/client.key
`), 0644))

	s, err := Load(Sources{YAMLFile: yamlFile})
	require.NoError(t, err)
	assert.Equal(t, "ssl://192.168.1.230:8883", s.MQTT.BrokerURL())
}

func TestLoadProcessEnvIgnoredUnlessEnabled(t *testing.T) {
	t.Setenv("WIFI_SSID", "fromenv")

	s, err := Load(Sources{})
	require.NoError(t, err)
	assert.Equal(t, SSID, s.WiFi.SSID)
}

func TestLoadEnvFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), ".env")

	_, err := Load(Sources{EnvFile: missing, EnvFileOptional: true})
	require.NoError(t, err)

	_, err = Load(Sources{EnvFile: missing})
	require.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(Sources{YAMLFile: filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("wifi: [\n"), 0644))
	_, err = Load(Sources{YAMLFile: bad})
	require.Error(t, err)

	t.Setenv("TIMEZONE", "minus five")
	_, err = Load(Sources{ProcessEnv: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIMEZONE")

	t.Setenv("TIMEZONE", "-20")
	_, err = Load(Sources{ProcessEnv: true})
	require.ErrorIs(t, err, ErrInvalid)
}
