package main

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JHOFER-Cloud/givenergy-hass/internal/sensor"
)

const refreshTimeout = 15 * time.Second

// site pairs an installation with the coordinator holding its snapshot
type site struct {
	installation Installation
	coordinator  *Coordinator
}

func newSites(installations []Installation) []*site {
	sites := make([]*site, 0, len(installations))
	for _, inst := range installations {
		sites = append(sites, &site{installation: inst, coordinator: NewCoordinator(inst)})
	}
	return sites
}

// entities builds the sensor entities for the current snapshot
func (s *site) entities() ([]*sensor.Entity, error) {
	return sensor.Setup(s.coordinator, sensor.ConfigEntry{
		EntryID: s.installation.URL,
		Title:   s.installation.Name,
	})
}

// Collector implements prometheus.Collector for GivEnergy sensors
type Collector struct {
	sites []*site

	// Metrics
	inverterSensor  *prometheus.Desc
	batterySensor   *prometheus.Desc
	batteryMode     *prometheus.Desc
	cellVoltage     *prometheus.Desc
	lastSuccess     *prometheus.Desc
	scrapeSuccess   *prometheus.Desc
	refreshDuration *prometheus.Desc
}

// NewCollector creates a new GivEnergy collector
func NewCollector(sites []*site) *Collector {
	return &Collector{
		sites: sites,
		inverterSensor: prometheus.NewDesc(
			"givenergy_inverter_sensor",
			"Inverter sensor value in its native unit",
			[]string{"inverter", "serial", "key", "name", "unit"},
			nil,
		),
		batterySensor: prometheus.NewDesc(
			"givenergy_battery_sensor",
			"Battery sensor value in its native unit",
			[]string{"inverter", "battery", "serial", "key", "name", "unit"},
			nil,
		),
		batteryMode: prometheus.NewDesc(
			"givenergy_battery_mode_info",
			"Battery mode derived from the power mode and discharge settings",
			[]string{"inverter", "serial", "mode"},
			nil,
		),
		cellVoltage: prometheus.NewDesc(
			"givenergy_battery_cell_voltage",
			"Battery cell voltage in volts",
			[]string{"inverter", "battery", "serial", "cell"},
			nil,
		),
		lastSuccess: prometheus.NewDesc(
			"givenergy_last_success_timestamp_seconds",
			"Last successful snapshot refresh (epoch seconds)",
			[]string{"inverter"},
			nil,
		),
		scrapeSuccess: prometheus.NewDesc(
			"givenergy_scrape_success",
			"Whether fetching the inverter snapshot was successful",
			[]string{"inverter"},
			nil,
		),
		refreshDuration: prometheus.NewDesc(
			"givenergy_refresh_duration_seconds",
			"Time taken to fetch the inverter snapshot",
			[]string{"inverter"},
			nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inverterSensor
	ch <- c.batterySensor
	ch <- c.batteryMode
	ch <- c.cellVoltage
	ch <- c.lastSuccess
	ch <- c.scrapeSuccess
	ch <- c.refreshDuration
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	var wg sync.WaitGroup

	for _, s := range c.sites {
		wg.Add(1)
		go func(s *site) {
			defer wg.Done()
			c.collectSite(s, ch)
		}(s)
	}

	wg.Wait()
}

func (c *Collector) collectSite(s *site, ch chan<- prometheus.Metric) {
	name := s.installation.Name

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	start := time.Now()
	err := s.coordinator.Refresh(ctx)
	ch <- prometheus.MustNewConstMetric(c.refreshDuration, prometheus.GaugeValue, time.Since(start).Seconds(), name)

	if last := s.coordinator.LastSuccess(); !last.IsZero() {
		ch <- prometheus.MustNewConstMetric(c.lastSuccess, prometheus.GaugeValue, float64(last.Unix()), name)
	}

	if err != nil {
		log.Printf("Error refreshing snapshot for %s: %v", name, err)
		ch <- prometheus.MustNewConstMetric(c.scrapeSuccess, prometheus.GaugeValue, 0, name)
		return
	}

	entities, err := s.entities()
	if err != nil {
		log.Printf("Error building sensors for %s: %v", name, err)
		ch <- prometheus.MustNewConstMetric(c.scrapeSuccess, prometheus.GaugeValue, 0, name)
		return
	}

	// Mark as successful
	ch <- prometheus.MustNewConstMetric(c.scrapeSuccess, prometheus.GaugeValue, 1, name)

	for _, e := range entities {
		c.collectEntity(name, e, ch)
	}
}

func (c *Collector) collectEntity(name string, e *sensor.Entity, ch chan<- prometheus.Metric) {
	d := e.Descriptor()
	serial := e.SerialNumber()

	if e.BatteryIndex() >= 0 {
		battery := strconv.Itoa(e.BatteryIndex())
		for cell, raw := range e.Attributes() {
			if voltage, ok := numericValue(raw); ok {
				ch <- prometheus.MustNewConstMetric(c.cellVoltage, prometheus.GaugeValue, voltage,
					name, battery, serial, cell)
			}
		}
	}

	value, ok := e.Value()
	if !ok {
		return
	}

	if d.Compute == sensor.ComputeBatteryMode {
		if mode, ok := value.(string); ok {
			ch <- prometheus.MustNewConstMetric(c.batteryMode, prometheus.GaugeValue, 1, name, serial, mode)
		}
		return
	}

	v, ok := numericValue(value)
	if !ok {
		return
	}

	if e.BatteryIndex() < 0 {
		ch <- prometheus.MustNewConstMetric(c.inverterSensor, prometheus.GaugeValue, v,
			name, serial, d.Key, d.Name, string(d.Unit))
		return
	}

	ch <- prometheus.MustNewConstMetric(c.batterySensor, prometheus.GaugeValue, v,
		name, strconv.Itoa(e.BatteryIndex()), serial, d.Key, d.Name, string(d.Unit))
}

// numericValue converts a sensor state into a gauge value
func numericValue(value sensor.State) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case bool:
		if typed {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
