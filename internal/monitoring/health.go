package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker serves a liveness summary of the trading loop.
type HealthChecker struct {
	mu        sync.RWMutex
	lastTick  time.Time
	openCount int
	connected bool
	lastError string
}

type HealthStatus struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	LastTick      time.Time `json:"last_tick"`
	OpenPositions int       `json:"open_positions"`
	IsConnected   bool      `json:"is_connected"`
	Uptime        string    `json:"uptime"`
	LastError     string    `json:"last_error,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// TickSeen marks a completed scheduler tick.
func (h *HealthChecker) TickSeen(openPositions int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastTick = time.Now()
	h.openCount = openPositions
	h.lastError = ""
}

func (h *HealthChecker) SetConnected(ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected = ok
}

func (h *HealthChecker) ReportError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastError = msg
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	// The loop ticks every minute; five silent minutes means it is stuck.
	if !h.connected || time.Since(h.lastTick) > 5*time.Minute {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if h.lastError != "" {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:        status,
		Timestamp:     time.Now(),
		LastTick:      h.lastTick,
		OpenPositions: h.openCount,
		IsConnected:   h.connected,
		Uptime:        time.Since(startTime).String(),
		LastError:     h.lastError,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
