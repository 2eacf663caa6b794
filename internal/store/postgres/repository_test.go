package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"fuel-reconcile/internal/data"
	"fuel-reconcile/internal/reconcile"
	"fuel-reconcile/internal/store/postgres"
)

func TestRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := postgres.NewRepository(db, postgres.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, repo.EnsureSchema(ctx))

	const enterprise = "enterprise-it"
	_, _ = db.ExecContext(ctx, `DELETE FROM operations WHERE asset_id LIKE 'it-%'`)
	_, _ = db.ExecContext(ctx, `DELETE FROM rdo_readings WHERE asset_id LIKE 'it-%'`)
	_, _ = db.ExecContext(ctx, `DELETE FROM sounding_readings WHERE asset_id LIKE 'it-%'`)
	_, _ = db.ExecContext(ctx, `DELETE FROM assets WHERE id LIKE 'it-%'`)

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = db.ExecContext(ctx, `INSERT INTO assets (id, enterprise_id, name) VALUES ('it-1', $1, 'Ocean One'), ('it-2', $1, 'Sea Two')`, enterprise)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO operations (asset_id, code, date_start, date_end, consumption_daily_contract) VALUES
		('it-1', 'OP1', $1, $2, 24),
		('it-1', 'OP2', $3, $4, 24),
		('it-2', 'OP3', NULL, $2, 10)`,
		day.Add(18*time.Hour), day.Add(30*time.Hour), day.AddDate(0, 1, 0), day.AddDate(0, 1, 1))
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO rdo_readings (asset_id, date, value) VALUES ('it-1', $1, 12)`, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO sounding_readings (asset_id, date, volume) VALUES ('it-1', $1, 100)`, day.Add(12*time.Hour))
	require.NoError(t, err)

	assets, err := repo.ListAssets(ctx, enterprise)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "Ocean One", assets[0].Name)

	ds, err := repo.FetchDataset(ctx, data.Query{
		EnterpriseID: enterprise,
		Start:        day,
		End:          day.AddDate(0, 0, 2),
	})
	require.NoError(t, err)
	assert.Len(t, ds.Assets, 2)
	require.Len(t, ds.Operations, 2, "OP2 is outside the window")
	assert.Len(t, ds.Estimates, 1)
	assert.Len(t, ds.Measurements, 1)

	res := reconcile.New(reconcile.DefaultOptions()).RunDataset(ds, reconcile.SourceEstimate)
	assert.Len(t, res.Records, 2*2)

	only, err := repo.FetchDataset(ctx, data.Query{AssetIDs: []string{"it-2"}, Start: day, End: day.AddDate(0, 0, 2)})
	require.NoError(t, err)
	require.Len(t, only.Assets, 1)
	require.Len(t, only.Operations, 1)
	assert.True(t, only.Operations[0].DateStart.IsZero())
}

func TestRepository_NilDB(t *testing.T) {
	repo := postgres.NewRepository(nil)
	_, err := repo.FetchDataset(context.Background(), data.Query{})
	require.Error(t, err)
	assert.True(t, postgres.Error.Has(err))
}
