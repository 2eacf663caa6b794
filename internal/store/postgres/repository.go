package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"fuel-reconcile/internal/data"
	"fuel-reconcile/internal/model"
)

// Error is the class of Postgres source errors.
var Error = errs.Class("postgres")

// Schema creates the tables read by Repository.
const Schema = `
CREATE TABLE IF NOT EXISTS assets (
	id            TEXT PRIMARY KEY,
	enterprise_id TEXT NOT NULL DEFAULT '',
	name          TEXT NOT NULL,
	image_url     TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS operations (
	id                         BIGSERIAL PRIMARY KEY,
	asset_id                   TEXT NOT NULL REFERENCES assets(id),
	code                       TEXT NOT NULL DEFAULT '',
	date_start                 TIMESTAMPTZ,
	date_end                   TIMESTAMPTZ,
	consumption_daily_contract DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS operations_asset_start_idx ON operations (asset_id, date_start);
CREATE TABLE IF NOT EXISTS rdo_readings (
	id       BIGSERIAL PRIMARY KEY,
	asset_id TEXT NOT NULL REFERENCES assets(id),
	date     TIMESTAMPTZ NOT NULL,
	value    DOUBLE PRECISION NOT NULL,
	received DOUBLE PRECISION NOT NULL DEFAULT 0,
	supplied DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS rdo_readings_asset_date_idx ON rdo_readings (asset_id, date);
CREATE TABLE IF NOT EXISTS sounding_readings (
	id       BIGSERIAL PRIMARY KEY,
	asset_id TEXT NOT NULL REFERENCES assets(id),
	date     TIMESTAMPTZ NOT NULL,
	volume   DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS sounding_readings_asset_date_idx ON sounding_readings (asset_id, date);
`

// Repository reads reconciliation inputs from Postgres.
type Repository struct {
	db  *sql.DB
	log *zap.Logger
}

// Option configures the repository.
type Option func(*Repository)

// WithLogger sets the repository logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Repository) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRepository wraps an open database handle.
func NewRepository(db *sql.DB, opts ...Option) *Repository {
	r := &Repository{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open connects through the pgx database/sql driver and pings the server.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, Error.New("ping: %v", err)
	}
	return db, nil
}

// EnsureSchema creates the tables if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return Error.New("nil db")
	}
	_, err := r.db.ExecContext(ctx, Schema)
	return Error.Wrap(err)
}

// ListAssets returns the assets of an enterprise; an empty id lists every asset.
func (r *Repository) ListAssets(ctx context.Context, enterpriseID string) ([]model.Asset, error) {
	return r.assets(ctx, enterpriseID, nil)
}

// FetchDataset loads the assets selected by q and their operations and
// readings within the query window. Operations are selected by overlap.
func (r *Repository) FetchDataset(ctx context.Context, q data.Query) (*model.Dataset, error) {
	if r == nil || r.db == nil {
		return nil, Error.New("nil db")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	assets, err := r.assets(ctx, q.EnterpriseID, q.AssetIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.ID)
	}

	ds := &model.Dataset{Assets: assets}
	if len(ids) == 0 {
		return ds, nil
	}
	if ds.Operations, err = r.operations(ctx, ids, q.Start, q.End); err != nil {
		return nil, err
	}
	if ds.Estimates, err = r.estimates(ctx, ids, q.Start, q.End); err != nil {
		return nil, err
	}
	if ds.Measurements, err = r.measurements(ctx, ids, q.Start, q.End); err != nil {
		return nil, err
	}

	r.log.Debug("dataset loaded",
		zap.Int("assets", len(ds.Assets)),
		zap.Int("operations", len(ds.Operations)),
		zap.Int("rdo", len(ds.Estimates)),
		zap.Int("sounding", len(ds.Measurements)),
		zap.Duration("duration", time.Since(start)))
	return ds, nil
}

func (r *Repository) assets(ctx context.Context, enterpriseID string, ids []string) ([]model.Asset, error) {
	if len(ids) == 0 {
		ids = nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, image_url
FROM assets
WHERE ($1 = '' OR enterprise_id = $1)
	AND ($2::text[] IS NULL OR id = ANY($2))
ORDER BY name ASC, id ASC`, enterpriseID, ids)
	if err != nil {
		return nil, Error.New("query assets: %v", err)
	}
	defer rows.Close()

	var out []model.Asset
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.Name, &a.ImageURL); err != nil {
			return nil, Error.Wrap(err)
		}
		out = append(out, a)
	}
	return out, Error.Wrap(rows.Err())
}

func (r *Repository) operations(ctx context.Context, ids []string, start, end time.Time) ([]model.Operation, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT code, asset_id, date_start, date_end, consumption_daily_contract
FROM operations
WHERE asset_id = ANY($1)
	AND (date_start IS NULL OR date_end IS NULL OR (date_start <= $3 AND date_end >= $2))
ORDER BY date_start DESC NULLS LAST`, ids, start, end)
	if err != nil {
		return nil, Error.New("query operations: %v", err)
	}
	defer rows.Close()

	var out []model.Operation
	for rows.Next() {
		var op model.Operation
		var from, to sql.NullTime
		if err := rows.Scan(&op.Code, &op.AssetID, &from, &to, &op.ConsumptionDailyContract); err != nil {
			return nil, Error.Wrap(err)
		}
		op.DateStart = nullTime(from)
		op.DateEnd = nullTime(to)
		out = append(out, op)
	}
	return out, Error.Wrap(rows.Err())
}

func (r *Repository) estimates(ctx context.Context, ids []string, start, end time.Time) ([]model.EstimateReading, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT asset_id, date, value, received, supplied
FROM rdo_readings
WHERE asset_id = ANY($1)
	AND date >= $2
	AND date <= $3
ORDER BY date ASC`, ids, start, end)
	if err != nil {
		return nil, Error.New("query rdo: %v", err)
	}
	defer rows.Close()

	var out []model.EstimateReading
	for rows.Next() {
		var e model.EstimateReading
		if err := rows.Scan(&e.AssetID, &e.Date, &e.Value, &e.Received, &e.Supplied); err != nil {
			return nil, Error.Wrap(err)
		}
		e.Date = e.Date.UTC()
		out = append(out, e)
	}
	return out, Error.Wrap(rows.Err())
}

func (r *Repository) measurements(ctx context.Context, ids []string, start, end time.Time) ([]model.MeasurementReading, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT asset_id, date, volume
FROM sounding_readings
WHERE asset_id = ANY($1)
	AND date >= $2
	AND date <= $3
ORDER BY date ASC`, ids, start, end)
	if err != nil {
		return nil, Error.New("query sounding: %v", err)
	}
	defer rows.Close()

	var out []model.MeasurementReading
	for rows.Next() {
		var m model.MeasurementReading
		if err := rows.Scan(&m.AssetID, &m.Date, &m.Volume); err != nil {
			return nil, Error.Wrap(err)
		}
		m.Date = m.Date.UTC()
		out = append(out, m)
	}
	return out, Error.Wrap(rows.Err())
}

func nullTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}
