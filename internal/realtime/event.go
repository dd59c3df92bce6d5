package realtime

import (
	"time"

	"github.com/wonny/heatmap/internal/contracts"
)

// Event types sent on /ws
const (
	EventConnected       = "connection"
	EventDatasetReloaded = "dataset_reloaded"
)

// Event is one message pushed to every client
// ⭐ SSOT: WebSocket 메시지 형식
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent stamps an event with the current time
func NewEvent(eventType string, data interface{}) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
}

// ReloadPayload describes a freshly loaded dataset
type ReloadPayload struct {
	Source   string    `json:"source"`
	Indices  []string  `json:"indices"`
	LoadedAt time.Time `json:"loaded_at"`
}

// DatasetReloaded broadcasts a dataset_reloaded event; it matches heatmap.ReloadListener
func (h *Hub) DatasetReloaded(ds *contracts.Dataset) {
	payload := ReloadPayload{
		Source:   ds.Source,
		Indices:  append([]string(nil), ds.Names...),
		LoadedAt: ds.LoadedAt,
	}
	if err := h.Broadcast(NewEvent(EventDatasetReloaded, payload)); err != nil {
		h.logger.WithError(err).Warn("Failed to broadcast reload event")
	}
}
