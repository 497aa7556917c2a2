package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/JHOFER-Cloud/givenergy-hass/internal/sensor"
)

const (
	publishTimeout = 5 * time.Second
	connectWait    = 30 * time.Second
	payloadOnline  = "online"
	payloadOffline = "offline"
)

// publisher is the subset of mqtt.Client used for Home Assistant publishing
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// HassDevice is the device block of a discovery payload
type HassDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

// HassDiscovery is the retained config payload announcing one sensor
type HassDiscovery struct {
	Name                string     `json:"name"`
	UniqueID            string     `json:"unique_id"`
	ObjectID            string     `json:"object_id,omitempty"`
	StateTopic          string     `json:"state_topic"`
	JSONAttributesTopic string     `json:"json_attributes_topic,omitempty"`
	AvailabilityTopic   string     `json:"availability_topic"`
	DeviceClass         string     `json:"device_class,omitempty"`
	StateClass          string     `json:"state_class,omitempty"`
	UnitOfMeasurement   string     `json:"unit_of_measurement,omitempty"`
	Icon                string     `json:"icon,omitempty"`
	Device              HassDevice `json:"device"`
}

// HassPublisher mirrors sensor entities to Home Assistant over MQTT
type HassPublisher struct {
	client publisher
	cfg    MQTTConfig

	mu        sync.Mutex
	announced map[string]bool
}

// NewHassPublisher creates a publisher on top of an MQTT client
func NewHassPublisher(client publisher, cfg MQTTConfig) *HassPublisher {
	return &HassPublisher{
		client:    client,
		cfg:       cfg,
		announced: make(map[string]bool),
	}
}

func (p *HassPublisher) availabilityTopic() string {
	return p.cfg.TopicPrefix + "/status"
}

func (p *HassPublisher) entityTopic(e *sensor.Entity, leaf string) string {
	return fmt.Sprintf("%s/%s/%s/%s", p.cfg.TopicPrefix, topicSegment(e.DeviceID()), e.Descriptor().Key, leaf)
}

func (p *HassPublisher) configTopic(e *sensor.Entity) string {
	return fmt.Sprintf("%s/sensor/%s/%s/config", p.cfg.DiscoveryPrefix, topicSegment(e.DeviceID()), e.Descriptor().Key)
}

// Reset forgets announced entities so discovery is sent again
func (p *HassPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.announced = make(map[string]bool)
}

// SetAvailability publishes the retained online/offline status
func (p *HassPublisher) SetAvailability(online bool) error {
	payload := payloadOffline
	if online {
		payload = payloadOnline
	}
	return p.publish(p.availabilityTopic(), true, payload)
}

// PublishSite announces new entities of an installation and publishes their
// current states. Unavailable entities are skipped.
func (p *HassPublisher) PublishSite(s *site) error {
	entities, err := s.entities()
	if err != nil {
		return err
	}

	data := s.coordinator.Data()
	inverterSerial := data.Inverter.SerialNumber()
	modelName := data.Model().String()

	var errs []error
	for _, e := range entities {
		if err := p.announce(s, e, inverterSerial, modelName); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.publishState(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *HassPublisher) announce(s *site, e *sensor.Entity, inverterSerial, modelName string) error {
	p.mu.Lock()
	done := p.announced[e.UniqueID()]
	p.mu.Unlock()
	if done {
		return nil
	}

	payload, err := json.Marshal(p.discovery(s, e, inverterSerial, modelName))
	if err != nil {
		return fmt.Errorf("marshal discovery for %s: %w", e.UniqueID(), err)
	}
	if err := p.publish(p.configTopic(e), true, payload); err != nil {
		return err
	}

	p.mu.Lock()
	p.announced[e.UniqueID()] = true
	p.mu.Unlock()
	return nil
}

func (p *HassPublisher) discovery(s *site, e *sensor.Entity, inverterSerial, modelName string) HassDiscovery {
	d := e.Descriptor()
	device := HassDevice{
		Identifiers:  []string{e.DeviceID()},
		Name:         s.installation.Name,
		Manufacturer: "GivEnergy",
		Model:        modelName,
		SerialNumber: e.SerialNumber(),
	}
	if e.BatteryIndex() >= 0 {
		device.Name = fmt.Sprintf("%s Battery %d", s.installation.Name, e.BatteryIndex()+1)
		device.Model = "Battery"
		device.ViaDevice = inverterSerial
	}

	config := HassDiscovery{
		Name:              d.Name,
		UniqueID:          e.UniqueID(),
		ObjectID:          strings.ToLower(e.UniqueID()),
		StateTopic:        p.entityTopic(e, "state"),
		AvailabilityTopic: p.availabilityTopic(),
		DeviceClass:       string(d.DeviceClass),
		StateClass:        string(d.StateClass),
		UnitOfMeasurement: string(d.Unit),
		Icon:              string(d.Icon),
		Device:            device,
	}
	if d.Compute == sensor.ComputeBatteryCellsVoltage {
		config.JSONAttributesTopic = p.entityTopic(e, "attributes")
	}
	return config
}

func (p *HassPublisher) publishState(e *sensor.Entity) error {
	if attrs := e.Attributes(); attrs != nil {
		payload, err := json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("marshal attributes for %s: %w", e.UniqueID(), err)
		}
		if err := p.publish(p.entityTopic(e, "attributes"), true, payload); err != nil {
			return err
		}
	}

	value, ok := e.Value()
	if !ok {
		return nil
	}
	return p.publish(p.entityTopic(e, "state"), true, formatState(value))
}

func (p *HassPublisher) publish(topic string, retained bool, payload interface{}) error {
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Run refreshes every installation and publishes its sensors until ctx is done
func (p *HassPublisher) Run(ctx context.Context, sites []*site) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		p.publishAll(ctx, sites)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *HassPublisher) publishAll(ctx context.Context, sites []*site) {
	for _, s := range sites {
		refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
		err := s.coordinator.Refresh(refreshCtx)
		cancel()
		if err != nil {
			log.Printf("Error refreshing snapshot for %s: %v", s.installation.Name, err)
			if s.coordinator.Data() == nil {
				continue
			}
		}

		if err := p.PublishSite(s); err != nil {
			log.Printf("Error publishing sensors for %s: %v", s.installation.Name, err)
		}
	}
}

// connectMQTT connects to the broker with an offline Last Will
func connectMQTT(cfg MQTTConfig, onConnect func()) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Server)
	opts.SetClientID("givenergy-hass-" + uuid.NewString()[:8])
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetWill(cfg.TopicPrefix+"/status", payloadOffline, 0, true)
	opts.OnConnect = func(client mqtt.Client) {
		log.Println("MQTT connected")
		onConnect()
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Println("MQTT connection lost:", err)
	}

	client := mqtt.NewClient(opts)
	connected, err := awaitConnect(client.Connect(), connectWait)
	if err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect to %s: %w", cfg.Server, err)
	}
	if !connected {
		log.Printf("MQTT broker %s not reachable after %s, retrying in the background", cfg.Server, connectWait)
	}
	return client, nil
}

// awaitConnect reports whether the connect token completed within timeout.
// With connect-retry enabled a pending token is not an error.
func awaitConnect(token mqtt.Token, timeout time.Duration) (bool, error) {
	if !token.WaitTimeout(timeout) {
		return false, nil
	}
	if err := token.Error(); err != nil {
		return false, err
	}
	return true, nil
}

// formatState renders a sensor value as an MQTT state payload
func formatState(value sensor.State) string {
	switch typed := value.(type) {
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case string:
		return typed
	case bool:
		if typed {
			return "1"
		}
		return "0"
	}
	return fmt.Sprint(value)
}

// topicSegment makes a value safe to use as a single MQTT topic level
func topicSegment(value string) string {
	if value == "" {
		return "unknown"
	}
	return strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_").Replace(value)
}
