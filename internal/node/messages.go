// Package node implements the WebSocket adapter to a Krist node: target
// stream in, block submissions out.
package node

// serverMessage is the superset of fields the gateway sends. Unknown types
// are logged at debug and dropped.
type serverMessage struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`

	OK    *bool  `json:"ok,omitempty"`
	ID    uint64 `json:"id,omitempty"`
	Error string `json:"error,omitempty"`

	// Initial work on hello, updated work on block events.
	Work    uint64 `json:"work,omitempty"`
	NewWork uint64 `json:"new_work,omitempty"`

	Block     *blockMessage `json:"block,omitempty"`
	LastBlock *blockMessage `json:"last_block,omitempty"`
}

// blockMessage is a block as carried on the wire.
type blockMessage struct {
	Height    uint64 `json:"height"`
	Value     uint64 `json:"value"`
	Hash      string `json:"hash"`
	ShortHash string `json:"short_hash"`
	Address   string `json:"address"`
}

// submitMessage is a block submission.
type submitMessage struct {
	Type    string `json:"type"`
	ID      uint64 `json:"id"`
	Address string `json:"address"`
	Nonce   string `json:"nonce"`
}

// subscribeMessage subscribes the connection to an event level.
type subscribeMessage struct {
	Type  string `json:"type"`
	ID    uint64 `json:"id"`
	Event string `json:"event"`
}
