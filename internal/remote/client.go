// Package remote pushes locally pending appointments to the remote
// clinical-record store. Resource shape mapping stays on the remote side;
// this package only owns the pendingSync/syncError contract.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clinicdesk/scheduling-engine/internal/appointment"
)

// Client is the remote clinical-record API surface the sync job depends on.
type Client interface {
	CreateResource(ctx context.Context, appt appointment.Appointment) error
	UpdateResource(ctx context.Context, appt appointment.Appointment) error
	// Search reports whether the remote store already knows this id.
	Search(ctx context.Context, id string) (bool, error)
}

// HTTPClient talks JSON over REST to the remote API.
type HTTPClient struct {
	base  string
	token string
	hc    *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		base:  baseURL,
		token: token,
		hc:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) CreateResource(ctx context.Context, appt appointment.Appointment) error {
	return c.send(ctx, http.MethodPost, c.base+"/appointments", appt)
}

func (c *HTTPClient) UpdateResource(ctx context.Context, appt appointment.Appointment) error {
	return c.send(ctx, http.MethodPut, c.base+"/appointments/"+appt.ID, appt)
}

func (c *HTTPClient) Search(ctx context.Context, id string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/appointments/"+id, nil)
	if err != nil {
		return false, err
	}
	c.authorize(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return false, fmt.Errorf("search %s: %w", id, err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, fmt.Errorf("search %s: remote returned %d", id, resp.StatusCode)
	}
}

func (c *HTTPClient) send(ctx context.Context, method, url string, appt appointment.Appointment) error {
	body, err := json.Marshal(appt)
	if err != nil {
		return fmt.Errorf("encode appointment %s: %w", appt.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("push appointment %s: %w", appt.ID, err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push appointment %s: remote returned %d", appt.ID, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

var _ Client = (*HTTPClient)(nil)
