package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/heatmap/internal/contracts"
	"github.com/wonny/heatmap/internal/scheduler"
	"github.com/wonny/heatmap/pkg/logger"
)

// Reloader reloads the dataset and drops every cached result
type Reloader interface {
	Reload(ctx context.Context) (*contracts.Dataset, error)
	Version() uint64
}

// JobStatsProvider reports scheduler job statistics
type JobStatsProvider interface {
	GetJobStats() map[string]scheduler.JobStats
}

// ReloadResponse is returned by POST /api/reload
type ReloadResponse struct {
	Status  string   `json:"status"`
	Source  string   `json:"source"`
	Indices []string `json:"indices"`
	Version uint64   `json:"version"`
}

// AdminHandler handles dataset and scheduler endpoints
type AdminHandler struct {
	reloader Reloader
	jobs     JobStatsProvider // nil when no scheduler runs
	logger   *logger.Logger
}

// NewAdminHandler creates a new admin handler; jobs may be nil
func NewAdminHandler(reloader Reloader, jobs JobStatsProvider, log *logger.Logger) *AdminHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AdminHandler{
		reloader: reloader,
		jobs:     jobs,
		logger:   log.WithComponent("api"),
	}
}

// Reload invalidates and reloads the dataset; listeners broadcast the event
// POST /api/reload
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ds, err := h.reloader.Reload(r.Context())
	if err != nil {
		logger.FromContext(r.Context(), h.logger).WithError(err).Error("Dataset reload failed")
		respondDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ReloadResponse{
		Status:  "reloaded",
		Source:  ds.Source,
		Indices: ds.Names,
		Version: h.reloader.Version(),
	})
}

// GetJobs returns scheduler job statistics
// GET /api/jobs
func (h *AdminHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	stats := map[string]scheduler.JobStats{}
	if h.jobs != nil {
		stats = h.jobs.GetJobStats()
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"enabled": h.jobs != nil,
		"jobs":    stats,
	})
}
