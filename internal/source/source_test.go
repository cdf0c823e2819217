package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testBackend(t *testing.T, failTraffic bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/devices", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"d1","name":"nas","isOnline":true,"ips":["192.168.1.10"]}]`))
	})
	mux.HandleFunc("/api/traffic/top", func(w http.ResponseWriter, r *http.Request) {
		if failTraffic {
			http.Error(w, "upstream timeout", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"d1","rxBps":300000,"txBps":200000}]`))
	})
	mux.HandleFunc("/api/router/interfaces", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"eth0","ipAddress":"203.0.113.5","linkState":"up"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAll(t *testing.T) {
	t.Run("joins all three sources", func(t *testing.T) {
		srv := testBackend(t, false)
		c := NewClient(srv.URL)

		snap, err := c.FetchAll(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snap.Devices) != 1 || snap.Devices[0].ID != "d1" {
			t.Errorf("unexpected devices: %+v", snap.Devices)
		}
		if len(snap.Traffic) != 1 || snap.Traffic[0].RxBps != 300000 {
			t.Errorf("unexpected traffic: %+v", snap.Traffic)
		}
		if len(snap.Interfaces) != 1 || snap.Interfaces[0].Name != "eth0" {
			t.Errorf("unexpected interfaces: %+v", snap.Interfaces)
		}
	})

	t.Run("any failing source fails the snapshot", func(t *testing.T) {
		srv := testBackend(t, true)
		c := NewClient(srv.URL)

		if _, err := c.FetchAll(context.Background()); err == nil {
			t.Fatal("expected error when one source fails")
		}
	})
}

func TestDevicesDecodesAgent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/devices", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"d2","agent":{"id":"a1","isOnline":true}}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	devices, err := NewClient(srv.URL).Devices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if devices[0].Agent == nil || !devices[0].Agent.Online {
		t.Errorf("expected online agent, got %+v", devices[0].Agent)
	}
}
