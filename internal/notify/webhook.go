// Package notify sends webhook notifications for miner events.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/krist-network/krist-miner/internal/config"
	"github.com/krist-network/krist-miner/internal/krist"
	"github.com/krist-network/krist-miner/internal/util"
)

// Retry configuration for webhook delivery.
const (
	maxRetries     = 3
	retryBaseDelay = 2 * time.Second
)

// Notifier posts webhook notifications.
type Notifier struct {
	cfg    *config.NotifyConfig
	client *http.Client
}

// NewNotifier creates a new notifier.
func NewNotifier(cfg *config.NotifyConfig) *Notifier {
	return &Notifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// blockPayload is the webhook body for a mined block.
type blockPayload struct {
	Event   string `json:"event"`
	Address string `json:"address"`
	Block   string `json:"block"`
	Value   uint64 `json:"value"`
	Time    string `json:"time"`
}

// NotifyBlockMined fires a webhook for a block attributed to our address.
// Delivery is asynchronous and best-effort.
func (n *Notifier) NotifyBlockMined(address krist.Address, target krist.Target) {
	if !n.cfg.Enabled || n.cfg.WebhookURL == "" {
		return
	}

	payload := blockPayload{
		Event:   "block_mined",
		Address: address.String(),
		Block:   target.Block.Hex(),
		Value:   target.Value,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	go n.deliver(payload)
}

func (n *Notifier) deliver(payload blockPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		util.Errorf("Marshaling webhook payload: %v", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryBaseDelay * time.Duration(attempt))
		}

		if lastErr = n.post(body); lastErr == nil {
			return
		}
	}

	util.Warnf("Webhook delivery failed after %d attempts: %v", maxRetries, lastErr)
}

func (n *Notifier) post(body []byte) error {
	resp, err := n.client.Post(n.cfg.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
