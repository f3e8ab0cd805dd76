package homeassistant

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassbridge/sonarrbridge/coordinator"
	"github.com/hassbridge/sonarrbridge/sensor"
	"github.com/hassbridge/sonarrbridge/sonarr"
)

// fakeToken completes immediately.
type fakeToken struct{}

func (fakeToken) Wait() bool                     { return true }
func (fakeToken) WaitTimeout(time.Duration) bool { return true }
func (fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (fakeToken) Error() error { return nil }

type publishedMessage struct {
	topic    string
	payload  string
	retained bool
}

// fakeConn records published messages.
type fakeConn struct {
	mu        sync.Mutex
	published []publishedMessage
	subs      []string
}

func (f *fakeConn) Connect() mqtt.Token { return fakeToken{} }

func (f *fakeConn) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body string
	switch p := payload.(type) {
	case string:
		body = p
	case []byte:
		body = string(p)
	}

	f.published = append(f.published, publishedMessage{topic: topic, payload: body, retained: retained})

	return fakeToken{}
}

func (f *fakeConn) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.subs = append(f.subs, topic)

	return fakeToken{}
}

func (f *fakeConn) Disconnect(quiesce uint) {}
func (f *fakeConn) IsConnected() bool       { return true }

func (f *fakeConn) messages() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]publishedMessage, len(f.published))
	copy(out, f.published)

	return out
}

func (f *fakeConn) find(topic string) (publishedMessage, bool) {
	for _, msg := range f.messages() {
		if msg.topic == topic {
			return msg, true
		}
	}

	return publishedMessage{}, false
}

func testConfig() Config {
	return Config{
		Broker:          "tcp://localhost:1883",
		ClientID:        "sonarrbridge",
		TopicPrefix:     "sonarrbridge",
		DiscoveryPrefix: "homeassistant",
		QoS:             1,
		DeviceName:      "Sonarr",
		Version:         "1.0.0",
	}
}

func testPublisher(t *testing.T) (*Publisher, *fakeConn) {
	t.Helper()

	registry, err := sensor.NewRegistry(sensor.Builtins()...)
	require.NoError(t, err)

	conn := &fakeConn{}
	p := &Publisher{
		cfg:      testConfig(),
		registry: registry,
		logger:   zerolog.Nop(),
		client:   conn,
	}

	return p, conn
}

func snapshot() *coordinator.Data {
	return &coordinator.Data{
		App: &sonarr.App{
			Disks: []sonarr.DiskSpace{{Path: "/tv", FreeSpace: 1 << 30, TotalSpace: 2 << 30}},
		},
		Upcoming: []*sonarr.Episode{
			{SeasonNumber: 1, EpisodeNumber: 2, Series: &sonarr.SeriesRef{Title: "Test Show"}},
		},
		Updated: time.Now(),
	}
}

func TestTopicLayout(t *testing.T) {
	p, _ := testPublisher(t)

	assert.Equal(t, "sonarrbridge/availability", p.availabilityTopic())
	assert.Equal(t, "sonarrbridge/sensor/queue/state", p.stateTopic("queue"))
	assert.Equal(t, "sonarrbridge/sensor/queue/attributes", p.attributesTopic("queue"))
	assert.Equal(t, "homeassistant/sensor/sonarrbridge/queue/config", p.discoveryTopic("queue"))
}

func TestPublishDiscovery(t *testing.T) {
	p, conn := testPublisher(t)

	p.publishDiscovery()

	msg, ok := conn.find("homeassistant/sensor/sonarrbridge/upcoming/config")
	require.True(t, ok, "discovery config for upcoming should be published")
	assert.True(t, msg.retained)

	var config DiscoveryConfig
	require.NoError(t, json.Unmarshal([]byte(msg.payload), &config))

	assert.Equal(t, "Sonarr Upcoming", config.Name)
	assert.Equal(t, "sonarrbridge_upcoming", config.UniqueID)
	assert.Equal(t, "sonarrbridge/sensor/upcoming/state", config.StateTopic)
	assert.Equal(t, "sonarrbridge/sensor/upcoming/attributes", config.JSONAttributesTopic)
	assert.Equal(t, "sonarrbridge/availability", config.AvailabilityTopic)
	assert.Equal(t, "Episodes", config.UnitOfMeasurement)
	require.NotNil(t, config.Device)
	assert.Equal(t, "Sonarr", config.Device.Name)
	assert.Equal(t, "1.0.0", config.Device.SWVersion)

	// One config per registered sensor.
	count := 0
	for _, msg := range conn.messages() {
		var matched bool
		for _, def := range p.registry.All() {
			if msg.topic == p.discoveryTopic(def.Key) {
				matched = true
			}
		}
		if matched {
			count++
		}
	}
	assert.Equal(t, p.registry.Len(), count)
}

func TestHandleUpdateSuccess(t *testing.T) {
	p, conn := testPublisher(t)

	p.HandleUpdate(snapshot(), nil)

	avail, ok := conn.find("sonarrbridge/availability")
	require.True(t, ok)
	assert.Equal(t, payloadOnline, avail.payload)

	state, ok := conn.find("sonarrbridge/sensor/upcoming/state")
	require.True(t, ok)
	assert.Equal(t, "1", state.payload)

	attrsMsg, ok := conn.find("sonarrbridge/sensor/upcoming/attributes")
	require.True(t, ok)

	var attrs map[string]string
	require.NoError(t, json.Unmarshal([]byte(attrsMsg.payload), &attrs))
	assert.Equal(t, "S01E02", attrs["Test Show"])

	// Sensors whose datapoints carry no data publish nothing.
	_, ok = conn.find("sonarrbridge/sensor/queue/state")
	assert.False(t, ok)
}

func TestHandleUpdateFailure(t *testing.T) {
	p, conn := testPublisher(t)

	p.HandleUpdate(nil, coordinator.ErrUpdateFailed)

	messages := conn.messages()
	require.Len(t, messages, 1, "a failed cycle only touches availability")
	assert.Equal(t, "sonarrbridge/availability", messages[0].topic)
	assert.Equal(t, payloadOffline, messages[0].payload)
}

func TestOnConnectRepublishesStates(t *testing.T) {
	p, conn := testPublisher(t)

	p.HandleUpdate(snapshot(), nil)
	before := len(conn.messages())

	p.onConnect(nil)

	after := conn.messages()
	assert.Greater(t, len(after), before, "reconnect should republish discovery and states")

	assert.Contains(t, conn.subs, "homeassistant/status")
}
