package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/krist-network/krist-miner/internal/config"
	"github.com/krist-network/krist-miner/internal/miner"
)

func testServer() *Server {
	cfg := &config.Config{
		Address: "k5ztameslf",
		API:     config.APIConfig{Enabled: true, Bind: "127.0.0.1:0"},
	}
	return NewServer(cfg)
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := testServer()
	s.SetStatsFunc(func() miner.Stats {
		return miner.Stats{
			Address:     "k5ztameslf",
			Hashrate:    1234.5,
			HashrateStr: "1.23 kh/s",
			CPUWorkers:  4,
			Kernel:      "sha",
			Submitted:   2,
			BlocksMined: 1,
			MinedValue:  25,
		}
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var stats miner.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stats.Address != "k5ztameslf" || stats.CPUWorkers != 4 || stats.BlocksMined != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestStatsEndpointWithoutEngine(t *testing.T) {
	s := testServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
