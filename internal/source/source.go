// Package source provides the three asynchronous data-source adapters
// the topology view merges: the device inventory, the per-device
// traffic-rate samples, and the router link status. Each adapter is a
// plain JSON fetch against the backend; Snapshot joins all three.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Device is one entry of the device inventory.
type Device struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Hostname     string     `json:"hostname"`
	MAC          string     `json:"mac"`
	IPs          []string   `json:"ips"`
	Online       bool       `json:"isOnline"`
	Known        bool       `json:"isKnown"`
	MDNSServices []string   `json:"mdnsServices,omitempty"`
	Agent        *AgentInfo `json:"agent,omitempty"`
}

// AgentInfo describes the monitoring agent installed on a device, if any.
type AgentInfo struct {
	ID       string `json:"id"`
	Version  string `json:"version"`
	Online   bool   `json:"isOnline"`
	LastSeen int64  `json:"lastSeen"`
}

// TrafficSample is one device's current traffic rate (top-N by volume).
type TrafficSample struct {
	ID    string `json:"id"`
	RxBps uint64 `json:"rxBps"`
	TxBps uint64 `json:"txBps"`
}

// RouterInterface is the link and address state of one router interface.
type RouterInterface struct {
	Name        string `json:"name"`
	IPAddress   string `json:"ipAddress"`
	Description string `json:"description"`
	AdminState  string `json:"adminState"`
	LinkState   string `json:"linkState"`
}

// Snapshot is the joined result of one fetch cycle.
type Snapshot struct {
	Devices    []Device
	Traffic    []TrafficSample
	Interfaces []RouterInterface
}

// Client fetches snapshots from the backend API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL (e.g. http://host:port).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Devices fetches the device inventory.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var out []Device
	if err := c.getJSON(ctx, "/api/devices", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Traffic fetches the current top-N traffic samples.
func (c *Client) Traffic(ctx context.Context) ([]TrafficSample, error) {
	var out []TrafficSample
	if err := c.getJSON(ctx, "/api/traffic/top", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Interfaces fetches the router's interface status list.
func (c *Client) Interfaces(ctx context.Context) ([]RouterInterface, error) {
	var out []RouterInterface
	if err := c.getJSON(ctx, "/api/router/interfaces", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchAll issues the three fetches concurrently and joins them. Any
// failure fails the whole snapshot: the caller must not merge partial
// data into a rendered graph.
func (c *Client) FetchAll(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		devices, err := c.Devices(ctx)
		if err != nil {
			return fmt.Errorf("devices: %w", err)
		}
		snap.Devices = devices
		return nil
	})
	g.Go(func() error {
		traffic, err := c.Traffic(ctx)
		if err != nil {
			return fmt.Errorf("traffic: %w", err)
		}
		snap.Traffic = traffic
		return nil
	})
	g.Go(func() error {
		ifaces, err := c.Interfaces(ctx)
		if err != nil {
			return fmt.Errorf("interfaces: %w", err)
		}
		snap.Interfaces = ifaces
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		msg := strings.TrimSpace(string(body))
		if msg != "" {
			return fmt.Errorf("request failed: %s: %s", res.Status, msg)
		}
		return fmt.Errorf("request failed: %s", res.Status)
	}

	return json.NewDecoder(res.Body).Decode(out)
}
