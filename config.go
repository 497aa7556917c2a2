package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort            = "9090"
	defaultTopicPrefix     = "givenergy"
	defaultDiscoveryPrefix = "homeassistant"
	defaultPublishInterval = 30 * time.Second
)

// parseInstallations parses inverter configuration from environment variables
func parseInstallations() ([]Installation, error) {
	urls := os.Getenv("GIVENERGY_URLS")
	if urls == "" {
		urls = os.Getenv("GIVENERGY_URL") // Fallback to single URL
		if urls == "" {
			return nil, fmt.Errorf("GIVENERGY_URLS or GIVENERGY_URL must be set")
		}
	}

	urlList := strings.Split(urls, ",")
	names := strings.Split(os.Getenv("GIVENERGY_NAMES"), ",")

	installations := make([]Installation, 0, len(urlList))
	seen := make(map[string]bool, len(urlList))
	for i := range urlList {
		url := strings.TrimSpace(urlList[i])
		if url == "" {
			continue
		}

		name := "inverter" + strconv.Itoa(i)
		if i < len(names) && strings.TrimSpace(names[i]) != "" {
			name = strings.TrimSpace(names[i])
		}
		// The name is the inverter label on every series
		if seen[name] {
			return nil, fmt.Errorf("duplicate inverter name %q in GIVENERGY_NAMES", name)
		}
		seen[name] = true

		installations = append(installations, Installation{
			Name: name,
			URL:  url,
		})
	}

	if len(installations) == 0 {
		return nil, fmt.Errorf("no valid inverter URLs configured")
	}

	return installations, nil
}

// parseMQTT returns the MQTT settings, or nil when publishing is disabled
func parseMQTT() (*MQTTConfig, error) {
	server := strings.TrimSpace(os.Getenv("MQTT_SERVER"))
	if server == "" {
		return nil, nil
	}

	cfg := &MQTTConfig{
		Server:          server,
		Username:        os.Getenv("MQTT_USERNAME"),
		Password:        os.Getenv("MQTT_PASSWORD"),
		TopicPrefix:     envOrDefault("MQTT_TOPIC_PREFIX", defaultTopicPrefix),
		DiscoveryPrefix: envOrDefault("HASS_DISCOVERY_PREFIX", defaultDiscoveryPrefix),
		Interval:        defaultPublishInterval,
	}

	if raw := strings.TrimSpace(os.Getenv("PUBLISH_INTERVAL")); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PUBLISH_INTERVAL %q: %w", raw, err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("PUBLISH_INTERVAL must be positive, got %s", interval)
		}
		cfg.Interval = interval
	}

	return cfg, nil
}

// getPort returns the configured port or the default
func getPort() string {
	return envOrDefault("EXPORTER_PORT", defaultPort)
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return strings.Trim(value, "/")
}
