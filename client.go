package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/JHOFER-Cloud/givenergy-hass/internal/model"
)

// Coordinator keeps the most recent snapshot fetched from an installation
type Coordinator struct {
	installation Installation

	mu          sync.RWMutex
	data        *model.Snapshot
	lastSuccess time.Time
}

// NewCoordinator creates a coordinator for one installation
func NewCoordinator(installation Installation) *Coordinator {
	return &Coordinator{installation: installation}
}

// Data implements model.Coordinator
func (c *Coordinator) Data() *model.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// LastSuccess returns the time of the last successful refresh
func (c *Coordinator) LastSuccess() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSuccess
}

// Refresh fetches a new snapshot. On failure the previous snapshot is kept.
func (c *Coordinator) Refresh(ctx context.Context) error {
	snapshot, err := fetchSnapshot(ctx, c.installation)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.data = snapshot
	c.lastSuccess = time.Now()
	c.mu.Unlock()
	return nil
}

// fetchSnapshot retrieves the decoded register snapshot of an installation
func fetchSnapshot(ctx context.Context, installation Installation) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	if err := fetchJSON(ctx, installation.URL, &snapshot); err != nil {
		return nil, err
	}
	if len(snapshot.Inverter) == 0 {
		return nil, errors.New("snapshot from " + installation.URL + " has no inverter data")
	}
	return &snapshot, nil
}

// fetchJSON performs an HTTP GET request and decodes the JSON response
func fetchJSON(ctx context.Context, url string, target interface{}) error {
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", url, err)
	}

	return nil
}
