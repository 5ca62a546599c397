package messaging

import (
	"errors"
	"testing"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records what the package client is asked to do.
// Methods it does not override panic through the nil embedded Client.
type fakeClient struct {
	MQTT.Client

	connectErr  error
	connectHang bool
	publishErr  error

	connected   bool
	disconnects int
	published   []published
}

func (f *fakeClient) Connect() MQTT.Token {
	if f.connectHang {
		return &fakeToken{pending: true}
	}
	if f.connectErr == nil {
		f.connected = true
	}
	return &fakeToken{err: f.connectErr}
}

func (f *fakeClient) IsConnected() bool { return f.connected }

func (f *fakeClient) Disconnect(quiesce uint) {
	f.disconnects++
	f.connected = false
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token {
	data, _ := payload.([]byte)
	f.published = append(f.published, published{topic: topic, qos: qos, retained: retained, payload: data})
	return &fakeToken{err: f.publishErr}
}

type fakeToken struct {
	pending bool
	err     error
}

func (t *fakeToken) Wait() bool { return !t.pending }

func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.pending }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.pending {
		close(ch)
	}
	return ch
}

func (t *fakeToken) Error() error { return t.err }

// useFakeClient makes Connect build f instead of a real paho client.
func useFakeClient(t *testing.T, f *fakeClient) {
	t.Helper()
	orig := newClient
	newClient = func(*MQTT.ClientOptions) MQTT.Client { return f }
	t.Cleanup(func() {
		newClient = orig
		client = nil
	})
}

var errRefused = errors.New("connection refused")
