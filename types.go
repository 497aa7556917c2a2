package main

import "time"

// Installation represents a single GivEnergy inverter and its batteries
type Installation struct {
	Name string
	URL  string // snapshot endpoint serving decoded registers as JSON
}

// MQTTConfig holds the Home Assistant publishing settings
type MQTTConfig struct {
	Server          string
	Username        string
	Password        string
	TopicPrefix     string
	DiscoveryPrefix string
	Interval        time.Duration
}

// SensorState is one entry of the /api/sensors response
type SensorState struct {
	UniqueID   string         `json:"unique_id"`
	Name       string         `json:"name"`
	State      any            `json:"state"`
	Unit       string         `json:"unit,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}
