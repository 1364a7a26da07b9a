package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/krist-network/krist-miner/internal/config"
	"github.com/krist-network/krist-miner/internal/krist"
)

func testTarget(t *testing.T) krist.Target {
	t.Helper()
	h, err := krist.ParseShortHash("abce8f03b1d2")
	if err != nil {
		t.Fatalf("ParseShortHash: %v", err)
	}
	return krist.Target{Block: h, Work: 100, IsSelf: true, Value: 25}
}

func TestNotifyBlockMined(t *testing.T) {
	received := make(chan blockPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p blockPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		received <- p
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(&config.NotifyConfig{Enabled: true, WebhookURL: srv.URL})

	addr, _ := krist.ParseAddress("k5ztameslf")
	n.NotifyBlockMined(addr, testTarget(t))

	select {
	case p := <-received:
		if p.Event != "block_mined" {
			t.Errorf("event = %q", p.Event)
		}
		if p.Address != "k5ztameslf" {
			t.Errorf("address = %q", p.Address)
		}
		if p.Block != "abce8f03b1d2" {
			t.Errorf("block = %q", p.Block)
		}
		if p.Value != 25 {
			t.Errorf("value = %d", p.Value)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("webhook never delivered")
	}
}

func TestNotifyDisabled(t *testing.T) {
	called := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called <- struct{}{}
	}))
	defer srv.Close()

	n := NewNotifier(&config.NotifyConfig{Enabled: false, WebhookURL: srv.URL})

	addr, _ := krist.ParseAddress("k5ztameslf")
	n.NotifyBlockMined(addr, testTarget(t))

	select {
	case <-called:
		t.Error("disabled notifier delivered a webhook")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotifyRetriesOnServerError(t *testing.T) {
	var hits int
	received := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		received <- struct{}{}
	}))
	defer srv.Close()

	n := NewNotifier(&config.NotifyConfig{Enabled: true, WebhookURL: srv.URL})

	addr, _ := krist.ParseAddress("k5ztameslf")
	n.NotifyBlockMined(addr, testTarget(t))

	select {
	case <-received:
	case <-time.After(10 * time.Second):
		t.Fatal("webhook never retried to success")
	}
}
