package credentials

import (
	"errors"
	"fmt"
	"net/netip"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid setting")

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", field, ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks every field and returns all violations joined together.
func (s Settings) Validate() error {
	var errs []error

	// 802.11 SSIDs are at most 32 octets
	if n := len(s.WiFi.SSID); n < 1 || n > 32 {
		errs = append(errs, invalid("wifi.ssid", "length %d outside 1..32", n))
	}
	// Empty means an open network, otherwise a WPA2 passphrase
	if n := len(s.WiFi.Password); n != 0 && (n < 8 || n > 63) {
		errs = append(errs, invalid("wifi.password", "length %d outside 8..63", n))
	}

	if addr, err := netip.ParseAddr(s.MQTT.Server); err != nil || !addr.Is4() {
		errs = append(errs, invalid("mqtt.server", "%q is not an IPv4 address", s.MQTT.Server))
	}
	if s.MQTT.Port < 0 || s.MQTT.Port > 65535 {
		errs = append(errs, invalid("mqtt.port", "%d outside 0..65535", s.MQTT.Port))
	}
	set := 0
	for _, f := range []string{s.MQTT.CACert, s.MQTT.ClientCert, s.MQTT.ClientKey} {
		if f != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		errs = append(errs, invalid("mqtt", "ca_cert, client_cert and client_key must be set together"))
	}

	if s.Time.UTCOffset < -12 || s.Time.UTCOffset > 14 {
		errs = append(errs, invalid("time.utc_offset", "%d outside -12..14", s.Time.UTCOffset))
	}
	if !isZoneLabel(s.Time.DaylightSavings) {
		errs = append(errs, invalid("time.daylight_savings", "%q is not a zone abbreviation", s.Time.DaylightSavings))
	}
	if !isZoneLabel(s.Time.StandardTime) {
		errs = append(errs, invalid("time.standard_time", "%q is not a zone abbreviation", s.Time.StandardTime))
	}

	if !(s.Location.Latitude >= -90 && s.Location.Latitude <= 90) {
		errs = append(errs, invalid("location.latitude", "%g outside [-90, 90]", s.Location.Latitude))
	}
	if !(s.Location.Longitude >= -180 && s.Location.Longitude <= 180) {
		errs = append(errs, invalid("location.longitude", "%g outside [-180, 180]", s.Location.Longitude))
	}

	return errors.Join(errs...)
}

func isZoneLabel(s string) bool {
	if len(s) < 3 || len(s) > 5 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
