package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wonny/heatmap/internal/analytics"
	"github.com/wonny/heatmap/internal/contracts"
	"github.com/wonny/heatmap/internal/scheduler"
)

// stubService returns canned results; err overrides everything
type stubService struct {
	results map[string]*contracts.HeatmapResult
	err     error
	gotOpts analytics.Options
	reloads int
}

func (s *stubService) Indices(ctx context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	names := make([]string, 0, len(s.results))
	for name := range s.results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *stubService) Options(mode, horizon string) (analytics.Options, error) {
	opts := analytics.DefaultOptions()
	if mode != "" {
		opts.Mode = analytics.Mode(mode)
	}
	if horizon != "" {
		opts.Horizon = analytics.Horizon(horizon)
	}
	return opts, opts.Validate()
}

func (s *stubService) Heatmap(ctx context.Context, index string, opts analytics.Options) (*contracts.HeatmapResult, error) {
	s.gotOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	r, ok := s.results[index]
	if !ok {
		return nil, &contracts.MissingIndexError{Index: index}
	}
	return r, nil
}

func (s *stubService) Dataset(ctx context.Context) (*contracts.Dataset, error) {
	return &contracts.Dataset{Source: "stub", Names: []string{"NIFTY 50"}, LoadedAt: time.Now()}, nil
}

func (s *stubService) Reload(ctx context.Context) (*contracts.Dataset, error) {
	s.reloads++
	if s.err != nil {
		return nil, s.err
	}
	return s.Dataset(ctx)
}

func (s *stubService) Version() uint64 { return uint64(s.reloads + 1) }

func sampleResult() *contracts.HeatmapResult {
	heatmap := contracts.YearMonthValues{}
	heatmap.Set(2024, 1, contracts.Float(0.05))
	heatmap.Set(2024, 2, nil)
	prices := contracts.YearMonthValues{}
	prices.Set(2024, 1, contracts.Float(21000))
	ranks := contracts.YearMonthRanks{}
	ranks.Set(2024, 1, contracts.Int(3))

	return &contracts.HeatmapResult{
		Index:                 "NIFTY 50",
		Heatmap:               heatmap,
		MonthlyPrice:          prices,
		MonthlyProfits:        heatmap,
		MonthlyRankPercentile: ranks,
	}
}

func newRouter(svc *stubService) *mux.Router {
	h := NewHeatmapHandler(svc, nil)
	r := mux.NewRouter()
	r.HandleFunc("/indices", h.GetIndices).Methods("GET")
	r.HandleFunc("/heatmap/{index}", h.GetHeatmap).Methods("GET")
	r.HandleFunc("/heatmap/{index}/export", h.ExportHeatmap).Methods("GET")
	return r
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetIndices(t *testing.T) {
	svc := &stubService{results: map[string]*contracts.HeatmapResult{
		"NIFTY BANK": {}, "NIFTY 50": {},
	}}

	rec := do(t, newRouter(svc), "GET", "/indices")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"indices":["NIFTY 50","NIFTY BANK"]}`, rec.Body.String())
}

func TestGetHeatmap(t *testing.T) {
	svc := &stubService{results: map[string]*contracts.HeatmapResult{"NIFTY 50": sampleResult()}}

	rec := do(t, newRouter(svc), "GET", "/heatmap/NIFTY%2050")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NIFTY 50", body["index"])
	assert.Contains(t, rec.Body.String(), `"2":null`)
	assert.Nil(t, body["rank_percentile_4y"])
	assert.Equal(t, analytics.ModeMoM, svc.gotOpts.Mode)
}

func TestGetHeatmap_Query(t *testing.T) {
	svc := &stubService{results: map[string]*contracts.HeatmapResult{"NIFTY 50": sampleResult()}}

	rec := do(t, newRouter(svc), "GET", "/heatmap/NIFTY%2050?mode=Forward&horizon=3y")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, analytics.ModeForward, svc.gotOpts.Mode)
	assert.Equal(t, analytics.Horizon3Y, svc.gotOpts.Horizon)
}

func TestGetHeatmap_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"unknown index", "/heatmap/UNKNOWN", nil, http.StatusNotFound, `index "UNKNOWN" not found`},
		{"bad mode", "/heatmap/NIFTY%2050?mode=weekly", nil, http.StatusBadRequest, "mode must be one of"},
		{"bad horizon", "/heatmap/NIFTY%2050?horizon=5Y", nil, http.StatusBadRequest, "horizon must be one of"},
		{
			"malformed series", "/heatmap/NIFTY%2050",
			&contracts.MalformedSeriesError{Index: "NIFTY 50", Reason: "duplicate date"},
			http.StatusUnprocessableEntity, "duplicate date",
		},
		{
			"invalid configuration", "/heatmap/NIFTY%2050",
			&contracts.InvalidConfigurationError{Field: "windows", Message: "must be > 0"},
			http.StatusBadRequest, "windows",
		},
		{"internal", "/heatmap/NIFTY%2050", errors.New("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				results: map[string]*contracts.HeatmapResult{"NIFTY 50": sampleResult()},
				err:     tt.err,
			}

			rec := do(t, newRouter(svc), "GET", tt.target)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.NotEmpty(t, body.Error)
			assert.Contains(t, body.Detail, tt.wantDetail)
			assert.NotContains(t, body.Detail, "disk on fire")
		})
	}
}

func TestExportHeatmap(t *testing.T) {
	svc := &stubService{results: map[string]*contracts.HeatmapResult{"NIFTY 50": sampleResult()}}
	router := newRouter(svc)

	t.Run("csv", func(t *testing.T) {
		rec := do(t, router, "GET", "/heatmap/NIFTY%2050/export?format=csv")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "nifty_50_heatmap.csv")
		assert.True(t, strings.HasPrefix(rec.Body.String(), "year,month,price,return,rank\n2024,1,21000,0.05,3\n"))
	})

	t.Run("xlsx default", func(t *testing.T) {
		rec := do(t, router, "GET", "/heatmap/NIFTY%2050/export")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "nifty_50_heatmap.xlsx")

		f, err := excelize.OpenReader(rec.Body)
		require.NoError(t, err)
		defer f.Close()
		assert.Contains(t, f.GetSheetList(), "Summary")
	})

	t.Run("bad format", func(t *testing.T) {
		rec := do(t, router, "GET", "/heatmap/NIFTY%2050/export?format=pdf")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Detail, "format must be one of [xlsx csv]")
	})
}

type stubJobs map[string]scheduler.JobStats

func (s stubJobs) GetJobStats() map[string]scheduler.JobStats { return s }

func TestAdminHandler(t *testing.T) {
	t.Run("reload", func(t *testing.T) {
		svc := &stubService{}
		h := NewAdminHandler(svc, nil, nil)

		rec := do(t, http.HandlerFunc(h.Reload), "POST", "/api/reload")
		require.Equal(t, http.StatusOK, rec.Code)

		var body ReloadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "reloaded", body.Status)
		assert.Equal(t, "stub", body.Source)
		assert.Equal(t, uint64(2), body.Version)
	})

	t.Run("reload failure", func(t *testing.T) {
		h := NewAdminHandler(&stubService{err: &contracts.MalformedSeriesError{Index: "X", Reason: "bad"}}, nil, nil)
		rec := do(t, http.HandlerFunc(h.Reload), "POST", "/api/reload")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("jobs without scheduler", func(t *testing.T) {
		h := NewAdminHandler(&stubService{}, nil, nil)
		rec := do(t, http.HandlerFunc(h.GetJobs), "GET", "/api/jobs")
		assert.JSONEq(t, `{"enabled":false,"jobs":{}}`, rec.Body.String())
	})

	t.Run("jobs", func(t *testing.T) {
		jobs := stubJobs{"dataset_reload": {JobName: "dataset_reload", Schedule: "@hourly", TotalRuns: 2}}
		h := NewAdminHandler(&stubService{}, jobs, nil)
		rec := do(t, http.HandlerFunc(h.GetJobs), "GET", "/api/jobs")
		assert.Contains(t, rec.Body.String(), `"total_runs":2`)
		assert.Contains(t, rec.Body.String(), `"enabled":true`)
	})
}

func TestHealthHandler(t *testing.T) {
	rec := do(t, http.HandlerFunc(NewHealthHandler(nil).Health), "GET", "/health")
	assert.JSONEq(t, `{"status":"ok","service":"heatmap-api"}`, rec.Body.String())

	ok := NewHealthHandler(map[string]Check{
		"database": func(context.Context) error { return nil },
	})
	rec = do(t, http.HandlerFunc(ok.Ready), "GET", "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"database":"ok"}}`, rec.Body.String())

	down := NewHealthHandler(map[string]Check{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	rec = do(t, http.HandlerFunc(down.Ready), "GET", "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"connection refused"`)
}

func TestStatusFor(t *testing.T) {
	wrapped := func(err error) error { return errors.Join(errors.New("context"), err) }

	assert.Equal(t, http.StatusNotFound, StatusFor(wrapped(&contracts.MissingIndexError{Index: "X"})))
	assert.Equal(t, http.StatusBadRequest, StatusFor(&contracts.InvalidConfigurationError{}))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(&contracts.MalformedSeriesError{}))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(context.DeadlineExceeded))
}
