// Package homeassistant publishes sensor values to Home Assistant over
// MQTT using its discovery protocol.
package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/hassbridge/sonarrbridge/coordinator"
	"github.com/hassbridge/sonarrbridge/sensor"
)

const (
	payloadOnline  = "online"
	payloadOffline = "offline"

	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// conn is the narrow slice of the paho client the publisher uses, so
// tests can substitute a fake.
type conn interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// Config holds broker connection details and topic layout.
type Config struct {
	Broker          string
	Username        string
	Password        string
	ClientID        string
	TopicPrefix     string
	DiscoveryPrefix string
	QoS             byte

	// Device metadata for the discovery payloads.
	DeviceName string
	Version    string
}

// Publisher bridges coordinator updates onto MQTT: retained discovery
// configs, per-sensor state and attribute topics, and an availability
// topic that follows update success.
type Publisher struct {
	cfg      Config
	registry *sensor.Registry
	logger   zerolog.Logger
	client   conn

	mu       sync.Mutex
	lastData *coordinator.Data
}

// NewPublisher creates a publisher. Connect must be called before updates
// are handled.
func NewPublisher(cfg Config, registry *sensor.Registry, logger zerolog.Logger) *Publisher {
	p := &Publisher{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(false).
		SetWill(p.availabilityTopic(), payloadOffline, cfg.QoS, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn().Err(err).Msg("MQTT connection lost")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	p.client = mqtt.NewClient(opts)

	return p
}

// Connect establishes the broker connection and waits for it.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(connectTimeout):
		return fmt.Errorf("timed out connecting to MQTT broker %s", p.cfg.Broker)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return nil
}

// Close marks the bridge unavailable and disconnects.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.publish(p.availabilityTopic(), payloadOffline, true)
		p.client.Disconnect(250)
	}
}

// HandleUpdate is a coordinator.Listener. A failed cycle marks every
// entity unavailable; a successful one publishes fresh states.
func (p *Publisher) HandleUpdate(data *coordinator.Data, err error) {
	if err != nil {
		p.publish(p.availabilityTopic(), payloadOffline, true)
		return
	}

	p.mu.Lock()
	p.lastData = data
	p.mu.Unlock()

	p.publish(p.availabilityTopic(), payloadOnline, true)
	p.publishStates(data)
}

// onConnect publishes the retained discovery configs and re-announces the
// latest states after every (re)connect. It also watches Home Assistant's
// birth topic so a restarted Home Assistant relearns the entities.
func (p *Publisher) onConnect(_ mqtt.Client) {
	p.logger.Info().Str("broker", p.cfg.Broker).Msg("Connected to MQTT broker")

	p.publishDiscovery()
	p.publish(p.availabilityTopic(), payloadOnline, true)

	p.mu.Lock()
	data := p.lastData
	p.mu.Unlock()

	if data != nil {
		p.publishStates(data)
	}

	birthTopic := fmt.Sprintf("%s/status", p.cfg.DiscoveryPrefix)
	p.client.Subscribe(birthTopic, p.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		if string(msg.Payload()) != payloadOnline {
			return
		}

		p.logger.Info().Msg("Home Assistant came online, republishing discovery")
		p.publishDiscovery()

		p.mu.Lock()
		data := p.lastData
		p.mu.Unlock()

		if data != nil {
			p.publish(p.availabilityTopic(), payloadOnline, true)
			p.publishStates(data)
		}
	})
}

// publishDiscovery announces every registered sensor.
func (p *Publisher) publishDiscovery() {
	device := &Device{
		Identifiers:  []string{p.cfg.ClientID},
		Name:         p.cfg.DeviceName,
		Manufacturer: "sonarrbridge",
		Model:        "Sonarr",
		SWVersion:    p.cfg.Version,
	}

	for _, def := range p.registry.All() {
		config := DiscoveryConfig{
			Name:                fmt.Sprintf("%s %s", p.cfg.DeviceName, def.Name),
			UniqueID:            fmt.Sprintf("%s_%s", p.cfg.ClientID, def.Key),
			StateTopic:          p.stateTopic(def.Key),
			JSONAttributesTopic: p.attributesTopic(def.Key),
			AvailabilityTopic:   p.availabilityTopic(),
			UnitOfMeasurement:   def.Unit,
			Icon:                def.Icon,
			StateClass:          def.StateClass,
			Device:              device,
		}

		payload, err := json.Marshal(config)
		if err != nil {
			p.logger.Error().Err(err).Str("sensor", def.Key).Msg("Failed to marshal discovery config")
			continue
		}

		p.publish(p.discoveryTopic(def.Key), payload, true)
	}
}

// publishStates projects the snapshot through every sensor and publishes
// state and attribute topics.
func (p *Publisher) publishStates(data *coordinator.Data) {
	for _, def := range p.registry.All() {
		value, ok := def.State(data)
		if !ok {
			continue
		}

		p.publish(p.stateTopic(def.Key), fmt.Sprint(value), true)

		attrs := def.Attributes(data)
		payload, err := json.Marshal(attrs)
		if err != nil {
			p.logger.Error().Err(err).Str("sensor", def.Key).Msg("Failed to marshal attributes")
			continue
		}

		p.publish(p.attributesTopic(def.Key), payload, true)
	}
}

func (p *Publisher) publish(topic string, payload interface{}, retained bool) {
	token := p.client.Publish(topic, p.cfg.QoS, retained, payload)

	go func() {
		if !token.WaitTimeout(publishTimeout) {
			p.logger.Warn().Str("topic", topic).Msg("MQTT publish timed out")
			return
		}

		if err := token.Error(); err != nil {
			p.logger.Warn().Err(err).Str("topic", topic).Msg("MQTT publish failed")
		}
	}()
}

func (p *Publisher) availabilityTopic() string {
	return fmt.Sprintf("%s/availability", p.cfg.TopicPrefix)
}

func (p *Publisher) stateTopic(key string) string {
	return fmt.Sprintf("%s/sensor/%s/state", p.cfg.TopicPrefix, key)
}

func (p *Publisher) attributesTopic(key string) string {
	return fmt.Sprintf("%s/sensor/%s/attributes", p.cfg.TopicPrefix, key)
}

func (p *Publisher) discoveryTopic(key string) string {
	return fmt.Sprintf("%s/sensor/%s/%s/config", p.cfg.DiscoveryPrefix, p.cfg.ClientID, key)
}
