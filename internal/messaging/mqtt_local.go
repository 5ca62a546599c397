package messaging

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/someyob/MiniHamClock/internal/credentials"
)

var client MQTT.Client

// newClient is replaced in tests
var newClient = MQTT.NewClient

// SettingsTopics names where each published settings frame goes
type SettingsTopics struct {
	Timezone string
	Location string
}

// ClientID builds a client ID from prefix, hostname and a random suffix.
// The broker drops the older of two connections sharing an ID.
func ClientID(prefix string) string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return prefix + hostname + "-" + suffix
}

// NewClientOptions builds paho options for the broker named in s.
// handler may be nil.
func NewClientOptions(s *credentials.Settings, clientID string, handler MQTT.MessageHandler) (*MQTT.ClientOptions, error) {
	opts := MQTT.NewClientOptions()
	opts.AddBroker(s.MQTT.BrokerURL())
	opts.SetClientID(clientID)
	// Use CleanSession=true to avoid queued message backlog on restart
	opts.SetCleanSession(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)
	if handler != nil {
		opts.SetDefaultPublishHandler(handler)
	}

	if s.MQTT.TLS() {
		tlsConfig, err := loadTLSConfig(s.MQTT)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts, nil
}

// Connect creates the package client and waits up to timeout for the
// broker to accept it.
func Connect(opts *MQTT.ClientOptions, timeout time.Duration, log *zap.Logger) error {
	log.Info("Connecting to MQTT broker",
		zap.Strings("brokers", brokerStrings(opts)),
		zap.String("client_id", opts.ClientID))

	c := newClient(opts)
	token := c.Connect()
	// Disconnect stops paho's background connect/reconnect goroutine
	if !token.WaitTimeout(timeout) {
		c.Disconnect(0)
		return fmt.Errorf("mqtt connect timed out after %s", timeout)
	}
	if token.Error() != nil {
		c.Disconnect(0)
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}

	client = c
	log.Info("Connected to MQTT broker")
	return nil
}

// PublishRetained publishes a message with the retained flag set and QoS 1
// so a clock that connects later receives it immediately.
func PublishRetained(topic string, data []byte, log *zap.Logger) error {
	msgType, payload, err := DecodeMessage(data)
	if err == nil {
		log.Debug("Publishing retained",
			zap.String("topic", topic),
			zap.String("type", fmt.Sprintf("0x%02X", msgType)),
			zap.Int("payload_len", len(payload)))
	} else {
		log.Warn("Publishing undecodable message", zap.String("topic", topic), zap.Error(err))
	}

	if client == nil || !client.IsConnected() {
		log.Warn("MQTT client not connected; skipping publish", zap.String("topic", topic))
		return fmt.Errorf("mqtt client not connected")
	}
	token := client.Publish(topic, 1, true, data)
	if !token.WaitTimeout(15 * time.Second) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}
	return nil
}

// PublishSettings publishes the timezone and location frames of s as
// retained messages. The device config frame carries the Wi-Fi password
// and is never published.
func PublishSettings(s *credentials.Settings, topics SettingsTopics, log *zap.Logger) error {
	tz, err := EncodeTimezone(s.Time)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	loc, err := EncodeLocation(s.Location)
	if err != nil {
		return fmt.Errorf("location: %w", err)
	}

	if err := PublishRetained(topics.Timezone, tz, log); err != nil {
		return err
	}
	if err := PublishRetained(topics.Location, loc, log); err != nil {
		return err
	}
	log.Info("Published settings",
		zap.Strings("topics", []string{topics.Timezone, topics.Location}))
	return nil
}

// Disconnect closes the package client, if any.
func Disconnect(log *zap.Logger) {
	if client == nil {
		return
	}
	client.Disconnect(250)
	client = nil
	log.Info("Disconnected from MQTT broker")
}

// Probe connects to the broker named in s and disconnects again.
func Probe(s *credentials.Settings, clientID string, timeout time.Duration, log *zap.Logger) error {
	opts, err := NewClientOptions(s, clientID, nil)
	if err != nil {
		return err
	}
	// A probe should fail fast instead of retrying in the background
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	if err := Connect(opts, timeout, log); err != nil {
		return err
	}
	Disconnect(log)
	return nil
}

func loadTLSConfig(m credentials.MQTTSettings) (*tls.Config, error) {
	caCert, err := os.ReadFile(m.CACert)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to append CA cert from %s", m.CACert)
	}

	cert, err := tls.LoadX509KeyPair(m.ClientCert, m.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate/key: %w", err)
	}

	return &tls.Config{
		RootCAs:      caPool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func brokerStrings(opts *MQTT.ClientOptions) []string {
	out := make([]string, 0, len(opts.Servers))
	for _, u := range opts.Servers {
		out = append(out, u.String())
	}
	return out
}
