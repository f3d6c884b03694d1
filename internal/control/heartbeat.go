package control

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// Status is the liveness payload the engine emits every tick, for external
// monitoring.
type Status struct {
	Ts            time.Time `json:"ts"`
	State         string    `json:"state"`
	MarketOpen    bool      `json:"market_open"`
	OpenPositions int       `json:"open_positions"`
	Cycle         uint64    `json:"cycle"`
}

// Heartbeat writes the latest Status to a file and keeps a copy in memory
// for the HTTP status endpoint.
type Heartbeat struct {
	path string

	mu   sync.RWMutex
	last Status
}

func NewHeartbeat(path string) *Heartbeat {
	return &Heartbeat{path: path}
}

func (h *Heartbeat) Beat(s Status) error {
	h.mu.Lock()
	h.last = s
	h.mu.Unlock()

	raw, err := sonic.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: can't marshal heartbeat", err)
	}
	if err := os.WriteFile(h.path, raw, 0o644); err != nil {
		return fmt.Errorf("%w: can't write heartbeat file", err)
	}
	return nil
}

func (h *Heartbeat) Last() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}
