package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/wonny/heatmap/internal/analytics"
	"github.com/wonny/heatmap/internal/contracts"
	"github.com/wonny/heatmap/internal/export"
	"github.com/wonny/heatmap/pkg/logger"
)

// HeatmapService is what the heatmap endpoints need from heatmap.Service
type HeatmapService interface {
	Indices(ctx context.Context) ([]string, error)
	Options(mode, horizon string) (analytics.Options, error)
	Heatmap(ctx context.Context, index string, opts analytics.Options) (*contracts.HeatmapResult, error)
	Dataset(ctx context.Context) (*contracts.Dataset, error)
}

// HeatmapQuery is the validated request of GET /heatmap/{index}
type HeatmapQuery struct {
	Index   string `validate:"required,max=256"`
	Mode    string `validate:"omitempty,oneof=mom month-over-month forward"`
	Horizon string `validate:"omitempty,oneof=1M 3M 6M 1Y 2Y 3Y 4Y"`
	Format  string `validate:"omitempty,oneof=xlsx csv"`
}

// HeatmapHandler serves indices and heatmaps
// ⭐ SSOT: 히트맵 API 핸들러는 이 구조체에서만
type HeatmapHandler struct {
	service  HeatmapService
	validate *validator.Validate
	logger   *logger.Logger
}

// NewHeatmapHandler creates a new heatmap handler
func NewHeatmapHandler(service HeatmapService, log *logger.Logger) *HeatmapHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &HeatmapHandler{
		service:  service,
		validate: validator.New(),
		logger:   log.WithComponent("api"),
	}
}

// GetIndices returns the index names
// GET /indices
func (h *HeatmapHandler) GetIndices(w http.ResponseWriter, r *http.Request) {
	indices, err := h.service.Indices(r.Context())
	if err != nil {
		logger.FromContext(r.Context(), h.logger).WithError(err).Error("Failed to list indices")
		respondDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, contracts.IndicesResponse{Indices: indices})
}

// GetHeatmap returns the heatmap of one index
// GET /heatmap/{index}?mode=mom|forward&horizon=1Y
func (h *HeatmapHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	q, opts, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	result, err := h.service.Heatmap(r.Context(), q.Index, opts)
	if err != nil {
		h.logFailure(r.Context(), err, q)
		respondDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// ExportHeatmap returns the heatmap as a spreadsheet download
// GET /heatmap/{index}/export?format=xlsx|csv&mode=&horizon=
func (h *HeatmapHandler) ExportHeatmap(w http.ResponseWriter, r *http.Request) {
	q, opts, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	result, err := h.service.Heatmap(r.Context(), q.Index, opts)
	if err != nil {
		h.logFailure(r.Context(), err, q)
		respondDomainError(w, err)
		return
	}

	source := ""
	if ds, err := h.service.Dataset(r.Context()); err == nil {
		source = ds.Source
	}

	// 에러 시 JSON 응답을 위해 버퍼에 먼저 씀
	var buf bytes.Buffer
	contentType := "text/csv"
	format := q.Format
	if format == "" {
		format = "xlsx"
	}
	switch format {
	case "csv":
		err = export.WriteCSV(&buf, result)
	default:
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteXLSX(&buf, result, export.Meta{
			Options:     opts,
			Source:      source,
			GeneratedAt: time.Now(),
		})
	}
	if err != nil {
		logger.FromContext(r.Context(), h.logger).WithError(err).WithField("index", q.Index).Error("Failed to export heatmap")
		WriteError(w, http.StatusInternalServerError, "Internal server error", "")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(q.Index, format)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// parseQuery validates path and query and resolves engine options; it writes the 400 itself
func (h *HeatmapHandler) parseQuery(w http.ResponseWriter, r *http.Request) (HeatmapQuery, analytics.Options, bool) {
	query := r.URL.Query()
	q := HeatmapQuery{
		Index:   mux.Vars(r)["index"],
		Mode:    strings.ToLower(strings.TrimSpace(query.Get("mode"))),
		Horizon: strings.ToUpper(strings.TrimSpace(query.Get("horizon"))),
		Format:  strings.ToLower(strings.TrimSpace(query.Get("format"))),
	}

	if err := h.validate.Struct(q); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request", validationDetail(err))
		return q, analytics.Options{}, false
	}

	opts, err := h.service.Options(q.Mode, q.Horizon)
	if err != nil {
		respondDomainError(w, err)
		return q, analytics.Options{}, false
	}
	return q, opts, true
}

func (h *HeatmapHandler) logFailure(ctx context.Context, err error, q HeatmapQuery) {
	entry := logger.FromContext(ctx, h.logger).WithError(err).WithFields(map[string]interface{}{
		"index":   q.Index,
		"mode":    q.Mode,
		"horizon": q.Horizon,
	})
	if StatusFor(err) == http.StatusInternalServerError {
		entry.Error("Failed to compute heatmap")
		return
	}
	entry.Debug("Heatmap request rejected")
}

// validationDetail turns validator errors into "horizon must be one of [...]"
func validationDetail(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
