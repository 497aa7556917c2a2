package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	port := getPort()

	// Parse inverter configurations
	installations, err := parseInstallations()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	mqttConfig, err := parseMQTT()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	log.Printf("Starting GivEnergy exporter on port %s", port)
	log.Printf("Monitoring %d inverter(s):", len(installations))
	for _, inst := range installations {
		log.Printf("  - %s: %s", inst.Name, inst.URL)
	}

	sites := newSites(installations)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mqttConfig != nil {
		hass, err := startHass(ctx, *mqttConfig, sites)
		if err != nil {
			log.Fatalf("MQTT error: %v", err)
		}
		defer func() { _ = hass.SetAvailability(false) }()
	}

	// Create and register collector
	collector := NewCollector(sites)
	prometheus.MustRegister(collector)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: newMux(sites, promhttp.Handler()),
	}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	log.Println("Exiting")
}

// startHass connects to MQTT and starts publishing sensors to Home Assistant
func startHass(ctx context.Context, cfg MQTTConfig, sites []*site) (*HassPublisher, error) {
	log.Printf("Publishing to Home Assistant via %s every %s", cfg.Server, cfg.Interval)

	var hass *HassPublisher
	ready := make(chan struct{})
	client, err := connectMQTT(cfg, func() {
		<-ready
		if hass == nil {
			return
		}
		// Re-announce after every (re)connect in case the broker lost retained messages
		hass.Reset()
		if err := hass.SetAvailability(true); err != nil {
			log.Printf("Error publishing availability: %v", err)
		}
	})
	if err != nil {
		close(ready)
		return nil, err
	}

	hass = NewHassPublisher(client, cfg)
	close(ready)

	go hass.Run(ctx, sites)
	return hass, nil
}

func newMux(sites []*site, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	// Expose metrics endpoint
	mux.Handle("/metrics", metrics)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Current state of every available sensor
	mux.HandleFunc("/api/sensors", func(w http.ResponseWriter, r *http.Request) {
		states := make([]SensorState, 0)
		for _, s := range sites {
			if err := s.coordinator.Refresh(r.Context()); err != nil {
				log.Printf("Error refreshing snapshot for %s: %v", s.installation.Name, err)
			}
			if s.coordinator.Data() == nil {
				continue
			}
			states = append(states, sensorStates(s)...)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(states); err != nil {
			log.Printf("Error encoding sensors: %v", err)
		}
	})

	// Root endpoint with info
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		page := `<!DOCTYPE html>
<html>
<head><title>GivEnergy Exporter</title></head>
<body>
<h1>GivEnergy Exporter</h1>
<p>Monitoring %d inverter(s)</p>
<ul>
%s
</ul>
<p><a href="/metrics">Metrics</a> | <a href="/api/sensors">Sensors</a></p>
</body>
</html>`
		var list strings.Builder
		for _, s := range sites {
			list.WriteString(fmt.Sprintf("<li>%s: %s</li>\n",
				html.EscapeString(s.installation.Name), html.EscapeString(s.installation.URL)))
		}
		fmt.Fprintf(w, page, len(sites), list.String())
	})

	return mux
}

func sensorStates(s *site) []SensorState {
	entities, err := s.entities()
	if err != nil {
		log.Printf("Error building sensors for %s: %v", s.installation.Name, err)
		return nil
	}

	states := make([]SensorState, 0, len(entities))
	for _, e := range entities {
		value, ok := e.Value()
		if !ok {
			continue
		}
		d := e.Descriptor()
		states = append(states, SensorState{
			UniqueID:   e.UniqueID(),
			Name:       d.Name,
			State:      value,
			Unit:       string(d.Unit),
			Attributes: e.Attributes(),
		})
	}
	return states
}
