package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-reconcile/internal/api/models"
	"fuel-reconcile/internal/config"
	"fuel-reconcile/internal/data"
	"fuel-reconcile/internal/model"
)

// Two vessels over 2024-01-01..02 UTC. A1 runs 18:00 to 06:00 at 24 m³/day and
// reported 7.5 on the first day; A2 runs the second morning at 12 m³/day.
const inlineDataset = `{
  "assets": [{"id": "A1", "name": "Ocean One"}, {"id": "A2", "name": "Sea Two"}],
  "operations": [
    ["OP1", "A1", 1704132000, 1704175200, 24],
    ["OP2", "A2", 1704153600, 1704196800, 12]
  ],
  "rdo": [["A1", 1704067200, 7.5]],
  "sounding": [
    ["A1", 1704067200, 100],
    ["A1", 1704110400, 97],
    ["A1", 1704153600, 94],
    ["A1", 1704196800, 90]
  ]
}`

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, source data.Source) (*gin.Engine, *ReconcileHandler) {
	t.Helper()
	h := NewReconcileHandler(source, config.Default(), NewResultStore(time.Hour), nil)
	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/reconcile", h.Run)
	v1.GET("/reconcile/:id/records", h.GetRecords)
	v1.GET("/reconcile/:id/distribution", h.Distribution)
	v1.GET("/reconcile/:id/export", h.Export)
	v1.GET("/reconcile/:id/rank", h.Rank)
	v1.POST("/periods", h.Periods)
	return r, h
}

func inlineRequest(extra map[string]interface{}) []byte {
	body := map[string]interface{}{
		"data_source": map[string]interface{}{
			"type":       "inline",
			"start_date": "2024-01-01",
			"end_date":   "2024-01-02",
			"inline":     json.RawMessage(inlineDataset),
		},
	}
	for k, v := range extra {
		body[k] = v
	}
	raw, _ := json.Marshal(body)
	return raw
}

func do(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func runInline(t *testing.T, r http.Handler, extra map[string]interface{}) models.ReconcileResponse {
	t.Helper()
	w := do(r, http.MethodPost, "/api/v1/reconcile", inlineRequest(extra))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.ReconcileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRun_Inline(t *testing.T) {
	r, h := newTestRouter(t, nil)

	resp := runInline(t, r, map[string]interface{}{
		"options": map[string]interface{}{"include_records": true},
	})

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 2, resp.Days)
	assert.Equal(t, 2, resp.Assets)
	assert.Equal(t, 1, h.store.Len())

	require.Len(t, resp.Records, 4)
	first := resp.Records[0]
	assert.Equal(t, "A1", first.AssetID)
	assert.Equal(t, "2024-01-01", first.Date)
	require.NotNil(t, first.ConsumptionEstimated)
	assert.Equal(t, 7.5, *first.ConsumptionEstimated)
	assert.InDelta(t, 6.0, first.ConsumptionMaxDay, 1e-6)
	assert.Equal(t, string(model.StatusExceeded), first.Status)

	require.Len(t, resp.Summaries, 2)
	assert.Equal(t, "A1", resp.Summaries[0].AssetID)
	assert.Equal(t, string(model.StatusWithin), resp.Summaries[0].Status)
	assert.Equal(t, string(model.StatusNoEstimate), resp.Summaries[1].Status)
}

func TestRun_RecordsOmittedByDefault(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	resp := runInline(t, r, nil)
	assert.Empty(t, resp.Records)
	assert.Len(t, resp.Summaries, 2)
}

func TestRun_BadRequests(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed", `{`, "INVALID_REQUEST"},
		{"missing dates", `{"data_source": {"type": "inline"}}`, "INVALID_REQUEST"},
		{"bad date", `{"data_source": {"type": "inline", "start_date": "01/01/2024", "end_date": "2024-01-02"}}`, "INVALID_DATE"},
		{"inverted window", `{"data_source": {"type": "inline", "start_date": "2024-01-03", "end_date": "2024-01-02"}}`, "INVALID_DATE"},
		{"bad source", `{"data_source": {"type": "inline", "start_date": "2024-01-01", "end_date": "2024-01-02"}, "options": {"source": "guess"}}`, "INVALID_OPTIONS"},
		{"threshold too large", `{"data_source": {"type": "inline", "start_date": "2024-01-01", "end_date": "2024-01-02"}, "options": {"threshold_hours": 24}}`, "INVALID_OPTIONS"},
		{"bad timezone", `{"data_source": {"type": "inline", "start_date": "2024-01-01", "end_date": "2024-01-02"}, "options": {"timezone": "Mars/Olympus"}}`, "INVALID_TIMEZONE"},
		{"bad dataset", `{"data_source": {"type": "inline", "start_date": "2024-01-01", "end_date": "2024-01-02", "inline": {"operations": [["OP1"]]}}}`, "INVALID_DATASET"},
		{"unknown type", `{"data_source": {"type": "ftp", "start_date": "2024-01-01", "end_date": "2024-01-02"}}`, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/reconcile", []byte(tt.body))
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestRun_NoSourceConfigured(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	body := `{"data_source": {"type": "fleet", "start_date": "2024-01-01", "end_date": "2024-01-02"}}`
	w := do(r, http.MethodPost, "/api/v1/reconcile", []byte(body))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type stubSource struct {
	ds  *model.Dataset
	err error
	got data.Query
}

func (s *stubSource) FetchDataset(_ context.Context, q data.Query) (*model.Dataset, error) {
	s.got = q
	return s.ds, s.err
}

func TestRun_FleetSource(t *testing.T) {
	ds, err := data.DecodeEnvelope([]byte(inlineDataset))
	require.NoError(t, err)
	src := &stubSource{ds: ds}
	r, _ := newTestRouter(t, src)

	body := `{"data_source": {"enterprise_id": "E1", "asset_ids": ["A1"], "start_date": "2024-01-01", "end_date": "2024-01-02"},
	          "options": {"show_inoperabilities": true}}`
	w := do(r, http.MethodPost, "/api/v1/reconcile", []byte(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "E1", src.got.EnterpriseID)
	assert.Equal(t, []string{"A1"}, src.got.AssetIDs)
	assert.True(t, src.got.ShowInoperabilities)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), src.got.Start)
	assert.Equal(t, time.Date(2024, 1, 2, 23, 59, 59, int(999*time.Millisecond), time.UTC), src.got.End)
}

func TestRun_FleetErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthorized", &data.FleetAPIError{StatusCode: http.StatusForbidden, Code: "FORBIDDEN"}, http.StatusUnauthorized},
		{"rate limited", &data.FleetAPIError{StatusCode: http.StatusTooManyRequests, Code: "RATE_LIMITED"}, http.StatusTooManyRequests},
		{"unreachable", &data.FleetAPIError{Code: "NETWORK_ERROR"}, http.StatusServiceUnavailable},
		{"upstream failure", &data.FleetAPIError{StatusCode: http.StatusInternalServerError, Code: "API_ERROR"}, http.StatusBadGateway},
		{"bad query", data.Error.New("missing token"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, &stubSource{err: tt.err})
			body := `{"data_source": {"start_date": "2024-01-01", "end_date": "2024-01-02"}}`
			w := do(r, http.MethodPost, "/api/v1/reconcile", []byte(body))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestStoredResultRoutes(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	id := runInline(t, r, nil).ID

	t.Run("records", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/reconcile/"+id+"/records?asset_id=A2&limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp models.RecordsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Total)
		require.Len(t, resp.Records, 1)
		assert.Equal(t, "A2", resp.Records[0].AssetID)
		assert.Equal(t, string(model.StatusNoContract), resp.Records[0].Status)
	})

	t.Run("records offset past end", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/reconcile/"+id+"/records?offset=10", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp models.RecordsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 4, resp.Total)
		assert.Empty(t, resp.Records)
	})

	t.Run("distribution", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/reconcile/"+id+"/distribution", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp models.DistributionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Codes, 2)
		hours := map[string]float64{}
		for _, c := range resp.Codes {
			hours[c.Code] = c.Hours
		}
		assert.InDelta(t, 12.0, hours["OP1"], 1e-6)
		assert.InDelta(t, 12.0, hours["OP2"], 1e-6)
	})

	t.Run("rank", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/reconcile/"+id+"/rank?limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp models.RankResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Rankings, 1)
		assert.Equal(t, 1, resp.Rankings[0].Rank)
		assert.Equal(t, "A1", resp.Rankings[0].AssetID)

		w = do(r, http.MethodGet, "/api/v1/reconcile/"+id+"/rank?limit=zero", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("export csv", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/reconcile/"+id+"/export", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "rve_rdo_")
		assert.True(t, strings.HasPrefix(w.Body.String(), "vessel,date,"))
	})

	t.Run("export pdf", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/reconcile/"+id+"/export?format=pdf", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	})

	t.Run("export unknown format", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/reconcile/"+id+"/export?format=doc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/reconcile/not-a-uuid/records", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPeriods(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	body, _ := json.Marshal(map[string]interface{}{
		"asset_id": "A1",
		"data_source": map[string]interface{}{
			"type":       "inline",
			"start_date": "2024-01-01",
			"end_date":   "2024-01-02",
			"inline":     json.RawMessage(inlineDataset),
		},
	})

	w := do(r, http.MethodPost, "/api/v1/periods", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.PeriodsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// four readings: one full window and the open trailing one
	require.Len(t, resp.Periods, 2)
	p := resp.Periods[0]
	assert.Equal(t, 4, p.Readings)
	assert.InDelta(t, 10.0, p.Consumed, 1e-9)
	assert.InDelta(t, 12.0, p.MaxAllowed, 1e-9)
	assert.Equal(t, string(model.PeriodBelowContract), p.Status)
	assert.Equal(t, string(model.PeriodOpen), resp.Periods[1].Status)
}

func TestResultStore_Expiry(t *testing.T) {
	s := NewResultStore(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	r := s.Put(StoredResult{})
	got, ok := s.Get(r.ID)
	require.True(t, ok)
	assert.Equal(t, now, got.CreatedAt)

	now = now.Add(2 * time.Minute)
	_, ok = s.Get(r.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())

	_, ok = s.Get("not-a-uuid")
	assert.False(t, ok)
}

type stubLister struct {
	assets []model.Asset
	err    error
}

func (s stubLister) ListAssets(context.Context, string) ([]model.Asset, error) {
	return s.assets, s.err
}

func TestListAssets(t *testing.T) {
	h := NewAssetsHandler(stubLister{assets: []model.Asset{{ID: "A1", Name: "Ocean One"}}}, nil)
	r := gin.New()
	r.GET("/api/v1/assets", h.ListAssets)

	w := do(r, http.MethodGet, "/api/v1/assets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.AssetsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []models.AssetInfo{{ID: "A1", Name: "Ocean One"}}, resp.Assets)

	h = NewAssetsHandler(stubLister{err: &data.FleetAPIError{StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED"}}, nil)
	r = gin.New()
	r.GET("/api/v1/assets", h.ListAssets)
	w = do(r, http.MethodGet, "/api/v1/assets", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
