// Package credentials holds the clock's build-time settings: Wi-Fi
// credentials, the MQTT broker address, the local timezone and the
// station's coordinates.
package credentials

// Wi-Fi network
const (
	SSID     = "yourssid"
	Password = "yourpassword"
)

// MQTTServer is the IPv4 address of the message broker.
const MQTTServer = "192.168.1.230"

// Timezone is the standard-time UTC offset in hours (EST vs GMT).
const Timezone = -5

// Zone abbreviations shown with the time
const (
	DaylightSavings = "EDT"
	StandardTime    = "EST"
)

// Station position in decimal degrees
const (
	Latitude  = 40.1234
	Longitude = -75.1234
)
