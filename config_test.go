package main

import (
	"os"
	"testing"
	"time"
)

func TestParseInstallations(t *testing.T) {
	tests := []struct {
		name          string
		envURLs       string
		envURL        string
		envNames      string
		wantCount     int
		wantFirstName string
		wantFirstURL  string
		wantErr       bool
	}{
		{
			name:          "single inverter with name",
			envURLs:       "http://10.0.0.5:6345/snapshot",
			envNames:      "home",
			wantCount:     1,
			wantFirstName: "home",
			wantFirstURL:  "http://10.0.0.5:6345/snapshot",
		},
		{
			name:          "single url fallback",
			envURL:        "http://10.0.0.5:6345/snapshot",
			wantCount:     1,
			wantFirstName: "inverter0",
			wantFirstURL:  "http://10.0.0.5:6345/snapshot",
		},
		{
			name:      "multiple inverters",
			envURLs:   "http://a/snapshot,http://b/snapshot",
			envNames:  "house,garage",
			wantCount: 2,
		},
		{
			name:          "multiple inverters with spaces",
			envURLs:       " http://a/snapshot , http://b/snapshot ",
			envNames:      " house , garage ",
			wantCount:     2,
			wantFirstName: "house",
			wantFirstURL:  "http://a/snapshot",
		},
		{
			name:    "missing urls",
			wantErr: true,
		},
		{
			name:    "only separators",
			envURLs: " , ,",
			wantErr: true,
		},
		{
			name:     "duplicate names",
			envURLs:  "http://a/snapshot,http://b/snapshot",
			envNames: "a,a",
			wantErr:  true,
		},
		{
			name:     "explicit name clashes with default",
			envURLs:  "http://a/snapshot,http://b/snapshot",
			envNames: ",inverter0",
			wantErr:  true,
		},
		{
			name:      "empty values skipped",
			envURLs:   "http://a/snapshot,,http://b/snapshot",
			envNames:  "house,,garage",
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = os.Setenv("GIVENERGY_URLS", tt.envURLs)
			_ = os.Setenv("GIVENERGY_URL", tt.envURL)
			_ = os.Setenv("GIVENERGY_NAMES", tt.envNames)
			defer func() {
				_ = os.Unsetenv("GIVENERGY_URLS")
				_ = os.Unsetenv("GIVENERGY_URL")
				_ = os.Unsetenv("GIVENERGY_NAMES")
			}()

			installations, err := parseInstallations()

			if tt.wantErr {
				if err == nil {
					t.Errorf("parseInstallations() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("parseInstallations() unexpected error: %v", err)
				return
			}

			if len(installations) != tt.wantCount {
				t.Errorf("parseInstallations() got %d installations, want %d", len(installations), tt.wantCount)
				return
			}

			if tt.wantFirstName != "" && installations[0].Name != tt.wantFirstName {
				t.Errorf("first installation name = %s, want %s", installations[0].Name, tt.wantFirstName)
			}
			if tt.wantFirstURL != "" && installations[0].URL != tt.wantFirstURL {
				t.Errorf("first installation URL = %s, want %s", installations[0].URL, tt.wantFirstURL)
			}
		})
	}
}

func TestParseMQTT(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		wantNil      bool
		wantPrefix   string
		wantDiscover string
		wantInterval time.Duration
		wantErr      bool
	}{
		{
			name:    "disabled without server",
			env:     map[string]string{},
			wantNil: true,
		},
		{
			name:         "defaults",
			env:          map[string]string{"MQTT_SERVER": "tcp://broker:1883"},
			wantPrefix:   "givenergy",
			wantDiscover: "homeassistant",
			wantInterval: 30 * time.Second,
		},
		{
			name: "custom prefixes and interval",
			env: map[string]string{
				"MQTT_SERVER":           "tcp://broker:1883",
				"MQTT_TOPIC_PREFIX":     "solar/",
				"HASS_DISCOVERY_PREFIX": "ha",
				"PUBLISH_INTERVAL":      "1m",
			},
			wantPrefix:   "solar",
			wantDiscover: "ha",
			wantInterval: time.Minute,
		},
		{
			name:    "invalid interval",
			env:     map[string]string{"MQTT_SERVER": "tcp://broker:1883", "PUBLISH_INTERVAL": "soon"},
			wantErr: true,
		},
		{
			name:    "negative interval",
			env:     map[string]string{"MQTT_SERVER": "tcp://broker:1883", "PUBLISH_INTERVAL": "-5s"},
			wantErr: true,
		},
	}

	keys := []string{"MQTT_SERVER", "MQTT_USERNAME", "MQTT_PASSWORD", "MQTT_TOPIC_PREFIX", "HASS_DISCOVERY_PREFIX", "PUBLISH_INTERVAL"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range keys {
				_ = os.Unsetenv(key)
			}
			for key, value := range tt.env {
				_ = os.Setenv(key, value)
			}
			defer func() {
				for _, key := range keys {
					_ = os.Unsetenv(key)
				}
			}()

			cfg, err := parseMQTT()
			if tt.wantErr {
				if err == nil {
					t.Error("parseMQTT() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMQTT() unexpected error: %v", err)
			}
			if tt.wantNil {
				if cfg != nil {
					t.Errorf("parseMQTT() = %+v, want nil", cfg)
				}
				return
			}
			if cfg == nil {
				t.Fatal("parseMQTT() returned nil config")
			}
			if cfg.TopicPrefix != tt.wantPrefix {
				t.Errorf("TopicPrefix = %s, want %s", cfg.TopicPrefix, tt.wantPrefix)
			}
			if cfg.DiscoveryPrefix != tt.wantDiscover {
				t.Errorf("DiscoveryPrefix = %s, want %s", cfg.DiscoveryPrefix, tt.wantDiscover)
			}
			if cfg.Interval != tt.wantInterval {
				t.Errorf("Interval = %s, want %s", cfg.Interval, tt.wantInterval)
			}
		})
	}
}

func TestGetPort(t *testing.T) {
	tests := []struct {
		name    string
		envPort string
		want    string
	}{
		{
			name:    "default port",
			envPort: "",
			want:    "9090",
		},
		{
			name:    "custom port",
			envPort: "8080",
			want:    "8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envPort != "" {
				_ = os.Setenv("EXPORTER_PORT", tt.envPort)
				defer func() { _ = os.Unsetenv("EXPORTER_PORT") }()
			}

			got := getPort()
			if got != tt.want {
				t.Errorf("getPort() = %s, want %s", got, tt.want)
			}
		})
	}
}
