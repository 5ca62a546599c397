package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Sources lists where overrides of the compiled-in settings come from.
// Later sources win: YAML file, then dotenv file, then process environment.
type Sources struct {
	YAMLFile        string
	EnvFile         string
	EnvFileOptional bool // skip EnvFile silently when it does not exist
	ProcessEnv      bool
}

// Load resolves the settings from the defaults and the given sources,
// then validates them.
func Load(src Sources) (*Settings, error) {
	s := Defaults()

	if src.YAMLFile != "" {
		data, err := os.ReadFile(src.YAMLFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", src.YAMLFile, err)
		}
	}

	env := map[string]string{}
	if src.EnvFile != "" {
		values, err := godotenv.Read(src.EnvFile)
		switch {
		case err == nil:
			env = values
		case src.EnvFileOptional && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	lookup := func(key string) (string, bool) {
		if src.ProcessEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		v, ok := env[key]
		return v, ok
	}
	if err := applyEnv(&s, lookup); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func applyEnv(s *Settings, lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"WIFI_SSID", &s.WiFi.SSID},
		{"WIFI_PASSWORD", &s.WiFi.Password},
		{"MQTT_SERVER", &s.MQTT.Server},
		{"MQTT_CA_CERT", &s.MQTT.CACert},
		{"MQTT_CLIENT_CERT", &s.MQTT.ClientCert},
		{"MQTT_CLIENT_KEY", &s.MQTT.ClientKey},
		{"DAYLIGHT_SAVINGS", &s.Time.DaylightSavings},
		{"STANDARD_TIME", &s.Time.StandardTime},
	}
	for _, e := range strs {
		if v, ok := lookup(e.key); ok {
			*e.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MQTT_PORT", &s.MQTT.Port},
		{"TIMEZONE", &s.Time.UTCOffset},
	}
	for _, e := range ints {
		if v, ok := lookup(e.key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"LATITUDE", &s.Location.Latitude},
		{"LONGITUDE", &s.Location.Longitude},
	}
	for _, e := range floats {
		if v, ok := lookup(e.key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = f
		}
	}

	return nil
}
