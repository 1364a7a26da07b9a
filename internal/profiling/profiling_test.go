package profiling

import (
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/krist-network/krist-miner/internal/config"
)

func TestStartDisabled(t *testing.T) {
	s := NewServer(&config.ProfilingConfig{Enabled: false})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.server != nil {
		t.Error("disabled server should not listen")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestServesPprofIndex(t *testing.T) {
	// Grab a free port first.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	s := NewServer(&config.ProfilingConfig{Enabled: true, Bind: addr})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	url := fmt.Sprintf("http://%s/debug/pprof/", addr)
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
