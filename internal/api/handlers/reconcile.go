package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fuel-reconcile/internal/analysis"
	"fuel-reconcile/internal/api/models"
	"fuel-reconcile/internal/config"
	"fuel-reconcile/internal/data"
	"fuel-reconcile/internal/export"
	"fuel-reconcile/internal/metrics"
	"fuel-reconcile/internal/model"
	"fuel-reconcile/internal/reconcile"
)

const (
	sourceFleet  = "fleet"
	sourceInline = "inline"
)

// ReconcileHandler handles reconciliation requests
type ReconcileHandler struct {
	source   data.Source
	defaults config.ReconcileConfig
	timezone string
	store    *ResultStore
	log      *zap.Logger
}

// NewReconcileHandler creates a new reconcile handler. source may be nil, in
// which case only inline datasets are accepted.
func NewReconcileHandler(source data.Source, cfg *config.Config, store *ResultStore, log *zap.Logger) *ReconcileHandler {
	if cfg == nil {
		cfg = config.Default()
	}
	if store == nil {
		store = NewResultStore(cfg.Server.ResultTTL)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReconcileHandler{
		source:   source,
		defaults: cfg.Reconcile,
		timezone: cfg.Timezone,
		store:    store,
		log:      log.Named("reconcile"),
	}
}

// Run handles POST /api/v1/reconcile
func (h *ReconcileHandler) Run(c *gin.Context) {
	var req models.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	in, ok := h.prepare(c, req.DataSource, req.Options)
	if !ok {
		return
	}

	started := time.Now()
	res := reconcile.New(in.opts).RunDataset(in.dataset, in.kind)
	metrics.ObserveReconcile(string(in.kind), metrics.ResultSuccess, len(res.Records), time.Since(started))
	for _, v := range res.Violations {
		metrics.AddViolations(string(v.Kind), 1)
		h.log.Warn("input violation", zap.Stringer("violation", v))
	}

	stored := h.store.Put(StoredResult{
		Start:  in.query.Start,
		End:    in.query.End,
		Assets: in.dataset.Assets,
		Result: res,
		Policy: in.opts.Policy,
	})
	h.log.Info("reconciled",
		zap.String("id", stored.ID),
		zap.Int("days", res.Days),
		zap.Int("assets", res.Assets),
		zap.Int("records", len(res.Records)),
		zap.Int("violations", len(res.Violations)))

	resp := models.ReconcileResponse{
		ID:         stored.ID,
		Status:     "completed",
		Window:     models.TimeWindow{Start: in.query.Start, End: in.query.End},
		Days:       res.Days,
		Assets:     res.Assets,
		Summaries:  toSummaries(analysis.SummarizeFleet(in.dataset.Assets, res, in.opts.Policy)),
		Violations: toViolations(res.Violations),
	}
	if req.Options.IncludeRecords {
		resp.Records = toRecords(res.Records)
	}
	c.JSON(http.StatusOK, resp)
}

// GetRecords handles GET /api/v1/reconcile/:id/records
func (h *ReconcileHandler) GetRecords(c *gin.Context) {
	stored, ok := h.lookup(c)
	if !ok {
		return
	}
	var q models.RecordsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	records := stored.Result.Records
	if q.AssetID != "" {
		records = stored.Result.ForAsset(q.AssetID)
	}
	total := len(records)
	if q.Offset > 0 {
		if q.Offset > len(records) {
			q.Offset = len(records)
		}
		records = records[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(records) {
		records = records[:q.Limit]
	}

	c.JSON(http.StatusOK, models.RecordsResponse{
		ID:      stored.ID,
		Total:   total,
		Records: toRecords(records),
	})
}

// Distribution handles GET /api/v1/reconcile/:id/distribution
func (h *ReconcileHandler) Distribution(c *gin.Context) {
	stored, ok := h.lookup(c)
	if !ok {
		return
	}
	records := stored.Result.Records
	if assetID := c.Query("asset_id"); assetID != "" {
		records = stored.Result.ForAsset(assetID)
	}

	shares := analysis.Distribution(records)
	codes := make([]models.CodeShare, 0, len(shares))
	for _, s := range shares {
		codes = append(codes, models.CodeShare{
			Code:           s.Code,
			Hours:          s.Hours,
			MaxConsumption: s.MaxConsumption,
			Operations:     s.Operations,
		})
	}
	c.JSON(http.StatusOK, models.DistributionResponse{ID: stored.ID, Codes: codes})
}

// Export handles GET /api/v1/reconcile/:id/export?format=csv|xlsx|pdf
func (h *ReconcileHandler) Export(c *gin.Context) {
	stored, ok := h.lookup(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_FORMAT", err.Error())
		return
	}

	var buf bytes.Buffer
	err = export.Write(&buf, format, export.Report{
		Assets:      stored.Assets,
		Result:      stored.Result,
		Policy:      stored.Policy,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		metrics.IncExport(string(format), metrics.ResultError)
		h.log.Error("export failed", zap.String("id", stored.ID), zap.String("format", string(format)), zap.Error(err))
		writeError(c, http.StatusInternalServerError, "EXPORT_ERROR", err.Error())
		return
	}
	metrics.IncExport(string(format), metrics.ResultSuccess)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(stored.CreatedAt)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// Periods handles POST /api/v1/periods
func (h *ReconcileHandler) Periods(c *gin.Context) {
	var req models.PeriodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	in, ok := h.prepare(c, req.DataSource, req.Options)
	if !ok {
		return
	}

	ds := in.dataset
	periods := analysis.SoundingPeriods(req.AssetID, ds.Measurements, ds.Estimates, ds.Operations, in.opts.Policy)
	out := make([]models.SoundingPeriod, 0, len(periods))
	for _, p := range periods {
		out = append(out, models.SoundingPeriod{
			Start:      p.Start,
			End:        p.End,
			Readings:   len(p.Readings),
			Received:   p.Received,
			Supplied:   p.Supplied,
			Consumed:   p.Consumed,
			MaxAllowed: p.MaxAllowed,
			Status:     string(p.Status),
		})
	}
	c.JSON(http.StatusOK, models.PeriodsResponse{AssetID: req.AssetID, Periods: out})
}

type runInput struct {
	query   data.Query
	dataset *model.Dataset
	opts    reconcile.Options
	kind    reconcile.SourceKind
}

// prepare resolves options and loads the dataset. On failure it writes the
// error response and returns false.
func (h *ReconcileHandler) prepare(c *gin.Context, src models.DataSourceConfig, o models.ReconcileOptions) (*runInput, bool) {
	rc := config.MergeReconcile(h.defaults, config.ReconcileOverride{
		Source:              o.Source,
		ShowInoperabilities: o.ShowInoperabilities,
		ReservedPrefix:      o.ReservedPrefix,
		ThresholdHours:      o.ThresholdHours,
	})
	kind, err := reconcile.ParseSourceKind(rc.Source)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_OPTIONS", err.Error())
		return nil, false
	}
	if rc.ThresholdHours >= reconcile.HoursPerDay {
		writeError(c, http.StatusBadRequest, "INVALID_OPTIONS", "threshold_hours must be below 24")
		return nil, false
	}

	tz := h.timezone
	if o.Timezone != "" {
		tz = o.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_TIMEZONE", err.Error())
		return nil, false
	}

	start, err := parseDate(src.StartDate, loc, false)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_DATE", "start_date must be YYYY-MM-DD or RFC 3339")
		return nil, false
	}
	end, err := parseDate(src.EndDate, loc, true)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_DATE", "end_date must be YYYY-MM-DD or RFC 3339")
		return nil, false
	}

	q := data.Query{
		EnterpriseID:        src.EnterpriseID,
		AssetIDs:            src.AssetIDs,
		Start:               start,
		End:                 end,
		ShowInoperabilities: rc.ShowInoperabilities,
	}
	if err := q.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return nil, false
	}

	var ds *model.Dataset
	switch strings.ToLower(src.Type) {
	case "", sourceFleet:
		if h.source == nil {
			writeError(c, http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE", "no fleet data source is configured")
			return nil, false
		}
		ds, err = h.source.FetchDataset(c.Request.Context(), q)
		if err != nil {
			metrics.ObserveReconcile(string(kind), metrics.ResultError, 0, 0)
			h.log.Warn("fetch failed", zap.Error(err))
			writeFetchError(c, err)
			return nil, false
		}
	case sourceInline:
		full, err := data.DecodeEnvelope(src.Inline)
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_DATASET", err.Error())
			return nil, false
		}
		ds = data.FilterDataset(full, q)
	default:
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Sprintf("unsupported data source type %q", src.Type))
		return nil, false
	}

	return &runInput{
		query:   q,
		dataset: ds,
		opts: reconcile.Options{
			Location: loc,
			Policy: reconcile.Policy{
				ShowInoperabilities: rc.ShowInoperabilities,
				ReservedPrefix:      rc.ReservedPrefix,
			},
			ThresholdHours: rc.ThresholdHours,
		},
		kind: kind,
	}, true
}

func (h *ReconcileHandler) lookup(c *gin.Context) (*StoredResult, bool) {
	stored, ok := h.store.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "reconciliation result not found or expired")
		return nil, false
	}
	return stored, true
}

// parseDate accepts a calendar date (start or end of that day in loc) or an RFC 3339 instant.
func parseDate(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		day := reconcile.DayOfDate(t.Year(), t.Month(), t.Day(), loc)
		if endOfDay {
			return day.End, nil
		}
		return day.Start, nil
	}
	return time.Parse(time.RFC3339, s)
}
