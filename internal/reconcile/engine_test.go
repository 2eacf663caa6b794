package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-reconcile/internal/model"
)

func TestRun_OvernightOperationSplitsAcrossDays(t *testing.T) {
	e := New(DefaultOptions())
	ops := []model.Operation{op("A1", "OP1", "2024-01-01T18:00:00Z", "2024-01-02T06:00:00Z", 24)}

	res := e.Run(assets("A1"), ops, nil)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.Days)

	first, second := res.Records[0], res.Records[1]
	assert.Equal(t, "2024-01-01", first.Key())
	require.Len(t, first.Operations, 1)
	assert.InDelta(t, 6.0, first.Operations[0].DiffInHours, 1e-6)
	assert.InDelta(t, 6.0, first.Operations[0].Consumption, 1e-6)
	assert.Equal(t, at("2024-01-01T18:00:00Z"), first.Operations[0].DateStart)
	assert.Equal(t, at("2024-01-01T23:59:59.999Z"), first.Operations[0].DateEnd)

	assert.Equal(t, "2024-01-02", second.Key())
	require.Len(t, second.Operations, 1)
	assert.InDelta(t, 6.0, second.Operations[0].DiffInHours, 1e-9)
	assert.InDelta(t, 6.0, second.Operations[0].Consumption, 1e-9)
	assert.Equal(t, at("2024-01-02T00:00:00Z"), second.Operations[0].DateStart)
}

func TestRun_BoundaryNoiseIsDropped(t *testing.T) {
	e := New(DefaultOptions())
	ops := []model.Operation{op("A1", "OP1", "2024-01-01T23:59:59.980Z", "2024-01-02T00:00:00.050Z", 24)}

	res := e.Run(assets("A1"), ops, nil)
	require.Len(t, res.Records, 2)
	for _, rec := range res.Records {
		assert.Empty(t, rec.Operations, rec.Key())
		assert.NotNil(t, rec.Operations)
		assert.Zero(t, rec.MaxConsumption())
	}
}

func TestRun_DenseGrid(t *testing.T) {
	e := New(DefaultOptions())
	ops := []model.Operation{
		op("A2", "OP1", "2024-01-01T10:00:00Z", "2024-01-05T02:00:00Z", 24),
	}

	res := e.Run(assets("A1", "A2", "A3"), ops, nil)
	require.Len(t, res.Records, 5*3)
	assert.Equal(t, 5, res.Days)
	assert.Equal(t, 3, res.Assets)

	// days outer, assets inner
	wantAssets := []string{"A1", "A2", "A3"}
	for i, rec := range res.Records {
		assert.Equal(t, wantAssets[i%3], rec.AssetID)
		assert.Equal(t, res.Records[(i/3)*3].Date, rec.Date)
	}

	// assets without operations still get a record each day
	for _, rec := range res.ForAsset("A1") {
		assert.Empty(t, rec.Operations)
	}
	assert.Len(t, res.ForAsset("A3"), 5)
}

func TestRun_EmptyInput(t *testing.T) {
	e := New(DefaultOptions())

	res := e.Run(assets("A1"), nil, nil)
	assert.Empty(t, res.Records)
	assert.NotNil(t, res.Records)
	assert.Zero(t, res.Days)

	invalid := op("A1", "OP1", "2024-01-01T00:00:00Z", "2024-01-02T00:00:00Z", 24)
	invalid.DateStart = time.Time{}
	res = e.Run(assets("A1"), []model.Operation{invalid}, nil)
	assert.Empty(t, res.Records)
}

func TestRun_InvalidOperationsDoNotWidenRange(t *testing.T) {
	e := New(DefaultOptions())
	bad := model.Operation{Code: "OP1", AssetID: "A1", DateEnd: at("2024-03-01T00:00:00Z")}
	ops := []model.Operation{
		op("A1", "OP1", "2024-01-01T08:00:00Z", "2024-01-01T12:00:00Z", 24),
		bad,
	}

	res := e.Run(assets("A1"), ops, nil)
	require.Len(t, res.Records, 1)
	require.Len(t, res.Records[0].Operations, 1)
	assert.Equal(t, "OP1", res.Records[0].Operations[0].Code)
}

func TestRun_ClipSoundnessAndLinearity(t *testing.T) {
	e := New(DefaultOptions())
	ops := []model.Operation{
		op("A1", "OP1", "2024-01-01T03:00:00Z", "2024-01-03T20:30:00Z", 30),
		op("A1", "OP2", "2024-01-02T05:00:00Z", "2024-01-02T07:15:00Z", 12),
		op("A2", "OP3", "2024-01-02T22:00:00Z", "2024-01-04T01:00:00Z", 18.5),
	}

	res := e.Run(assets("A1", "A2"), ops, nil)
	for _, rec := range res.Records {
		day := DayOf(rec.Date, time.UTC)
		for _, c := range rec.Operations {
			assert.Greater(t, c.DiffInHours, DefaultThresholdHours)
			assert.LessOrEqual(t, c.DiffInHours, HoursPerDay)
			assert.False(t, c.DateStart.Before(day.Start))
			assert.False(t, c.DateEnd.After(day.End))
			assert.InDelta(t, c.ConsumptionDailyContract/24*c.DiffInHours, c.Consumption, 1e-9)
		}
	}
}

func TestRun_ConservesConsumption(t *testing.T) {
	e := New(DefaultOptions())
	ops := []model.Operation{op("A1", "OP1", "2024-01-01T00:00:00Z", "2024-01-04T00:00:00Z", 30)}

	res := e.Run(assets("A1"), ops, nil)
	total := 0.0
	for _, rec := range res.Records {
		total += rec.MaxConsumption()
	}
	assert.InDelta(t, 90.0, total, 1e-4)
}

func TestRun_InoperabilityPolicy(t *testing.T) {
	ops := []model.Operation{
		op("A1", "IN01", "2024-01-01T00:00:00Z", "2024-01-01T12:00:00Z", 48),
		op("A1", "OP1", "2024-01-01T12:00:00Z", "2024-01-01T18:00:00Z", 24),
	}

	hidden := New(DefaultOptions()).Run(assets("A1"), ops, nil)
	require.Len(t, hidden.Records, 1)
	rec := hidden.Records[0]
	require.Len(t, rec.Operations, 2, "reserved operations stay visible")
	for _, c := range rec.Operations {
		if c.Code == "IN01" {
			assert.Zero(t, c.ConsumptionDailyContract)
			assert.Zero(t, c.Consumption)
			assert.InDelta(t, 12.0, c.DiffInHours, 1e-9)
		}
	}
	assert.InDelta(t, 6.0, rec.MaxConsumption(), 1e-9)

	opts := DefaultOptions()
	opts.Policy.ShowInoperabilities = true
	shown := New(opts).Run(assets("A1"), ops, nil)
	assert.InDelta(t, 24.0+6.0, shown.Records[0].MaxConsumption(), 1e-9)

	// caller's operations keep their contractual rate either way
	assert.Equal(t, 48.0, ops[0].ConsumptionDailyContract)
}

func TestRun_OperationsMostRecentFirst(t *testing.T) {
	ops := []model.Operation{
		op("A1", "EARLY", "2024-01-01T01:00:00Z", "2024-01-01T03:00:00Z", 24),
		op("A1", "LATE", "2024-01-01T15:00:00Z", "2024-01-01T18:00:00Z", 24),
		op("A1", "MID", "2024-01-01T08:00:00Z", "2024-01-01T09:00:00Z", 24),
	}
	snapshot := append([]model.Operation(nil), ops...)

	res := New(DefaultOptions()).Run(assets("A1"), ops, nil)
	require.Len(t, res.Records, 1)

	var codes []string
	for _, c := range res.Records[0].Operations {
		codes = append(codes, c.Code)
	}
	assert.Equal(t, []string{"LATE", "MID", "EARLY"}, codes)
	assert.Equal(t, snapshot, ops, "input must not be reordered")
}

func TestRun_InjectedTimezone(t *testing.T) {
	ops := []model.Operation{op("A1", "OP1", "2024-01-02T01:00:00Z", "2024-01-02T05:00:00Z", 24)}

	utc := New(DefaultOptions()).Run(assets("A1"), ops, nil)
	require.Len(t, utc.Records, 1)
	assert.InDelta(t, 4.0, utc.Records[0].Hours(), 1e-9)

	opts := DefaultOptions()
	opts.Location = time.FixedZone("BRT", -3*3600)
	local := New(opts).Run(assets("A1"), ops, nil)
	require.Len(t, local.Records, 2)
	assert.Equal(t, "2024-01-01", local.Records[0].Key())
	assert.InDelta(t, 2.0, local.Records[0].Hours(), 1e-6)
	assert.InDelta(t, 2.0, local.Records[1].Hours(), 1e-9)
}

func TestRun_MidnightSkippedByDST(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Location = loc

	ds := &model.Dataset{
		Assets:     assets("A1"),
		Operations: []model.Operation{op("A1", "OP1", "2018-11-03T00:00:00-03:00", "2018-11-05T23:00:00-02:00", 24)},
		Estimates:  []model.EstimateReading{{AssetID: "A1", Date: at("2018-11-04T12:00:00-02:00"), Value: 20}},
	}

	res := New(opts).RunDataset(ds, SourceEstimate)
	require.Len(t, res.Records, 3)
	assert.Empty(t, res.Violations)

	var got []string
	total := 0.0
	for _, rec := range res.Records {
		got = append(got, rec.Key())
		total += rec.Hours()
	}
	assert.Equal(t, []string{"2018-11-03", "2018-11-04", "2018-11-05"}, got)

	short := res.Records[1]
	assert.True(t, short.Date.Equal(at("2018-11-04T01:00:00-02:00")), short.Date)
	assert.InDelta(t, 23.0, short.Hours(), 1e-6)
	require.NotNil(t, short.ConsumptionEstimated)
	assert.Equal(t, 20.0, *short.ConsumptionEstimated)

	// nothing counted twice: clipped hours add up to the operation's real length
	assert.InDelta(t, ds.Operations[0].DurationHours(), total, 1e-5)
	assert.InDelta(t, 70.0, total, 1e-5)
}

func TestRun_FallBackDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Location = loc

	t.Run("operations within the day keep all 25 hours", func(t *testing.T) {
		ops := []model.Operation{
			op("A1", "OP1", "2024-11-03T00:00:00-04:00", "2024-11-03T12:00:00-05:00", 24),
			op("A1", "OP2", "2024-11-03T12:00:00-05:00", "2024-11-04T00:00:00-05:00", 24),
		}
		res := New(opts).Run(assets("A1"), ops, nil)

		var day DayRecord
		for _, rec := range res.Records {
			if rec.Key() == "2024-11-03" {
				day = rec
			}
		}
		require.Len(t, day.Operations, 2)
		assert.InDelta(t, 25.0, day.Hours(), 1e-5)
		assert.InDelta(t, 25.0, day.MaxConsumption(), 1e-5)
	})

	t.Run("a single clip is capped at 24 hours", func(t *testing.T) {
		ops := []model.Operation{op("A1", "OP1", "2024-11-02T12:00:00-04:00", "2024-11-04T12:00:00-05:00", 24)}
		res := New(opts).Run(assets("A1"), ops, nil)
		require.Len(t, res.Records, 3)

		total := 0.0
		for _, rec := range res.Records {
			for _, c := range rec.Operations {
				assert.LessOrEqual(t, c.DiffInHours, HoursPerDay)
			}
			total += rec.Hours()
		}
		assert.Equal(t, HoursPerDay, res.Records[1].Operations[0].DiffInHours)
		// 49 real hours, one of them lost to the per-clip cap
		assert.InDelta(t, 49.0, ops[0].DurationHours(), 1e-9)
		assert.InDelta(t, 48.0, total, 1e-5)
	})
}

func TestRun_EstimateJoin(t *testing.T) {
	ds := &model.Dataset{
		Assets:     assets("A1", "A2"),
		Operations: []model.Operation{op("A1", "OP1", "2024-01-01T06:00:00Z", "2024-01-02T06:00:00Z", 24)},
		Estimates: []model.EstimateReading{
			{AssetID: "A1", Date: at("2024-01-02T00:00:00Z"), Value: 10},
			{AssetID: "A2", Date: at("2024-01-01T00:00:00Z"), Value: 3},
			{AssetID: "A2", Date: at("2024-01-01T12:00:00Z"), Value: 4},
		},
	}

	res := New(DefaultOptions()).RunDataset(ds, SourceEstimate)
	require.Len(t, res.Records, 4)

	byKey := map[string]DayRecord{}
	for _, rec := range res.Records {
		byKey[rec.AssetID+"/"+rec.Key()] = rec
	}
	assert.Nil(t, byKey["A1/2024-01-01"].ConsumptionEstimated)
	require.NotNil(t, byKey["A1/2024-01-02"].ConsumptionEstimated)
	assert.Equal(t, 10.0, *byKey["A1/2024-01-02"].ConsumptionEstimated)

	// two estimates on one day: ambiguous, flagged and left empty
	assert.Nil(t, byKey["A2/2024-01-01"].ConsumptionEstimated)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, ViolationDuplicateEstimate, res.Violations[0].Kind)
	assert.Equal(t, "A2", res.Violations[0].AssetID)
	assert.Equal(t, 2, res.Violations[0].Count)
}

func TestRun_MeasurementJoin(t *testing.T) {
	readings := []model.MeasurementReading{
		{AssetID: "A1", Date: at("2024-01-01T18:00:00Z"), Volume: 80},
		{AssetID: "A1", Date: at("2024-01-01T06:00:00Z"), Volume: 100},
		{AssetID: "A1", Date: at("2024-01-03T06:00:00Z"), Volume: 50},
	}
	ds := &model.Dataset{
		Assets:       assets("A1"),
		Operations:   []model.Operation{op("A1", "OP1", "2024-01-01T00:00:00Z", "2024-01-02T12:00:00Z", 24)},
		Measurements: readings,
	}

	res := New(DefaultOptions()).RunDataset(ds, SourceMeasurement)
	require.Len(t, res.Records, 2)

	got := res.Records[0].Measurements
	require.Len(t, got, 2)
	assert.Equal(t, 100.0, got[0].Volume)
	assert.Equal(t, 80.0, got[1].Volume)
	// the 3rd is outside the operation range
	assert.Empty(t, res.Records[1].Measurements)

	assert.Equal(t, 80.0, readings[0].Volume, "input order untouched")
}

func TestNew_FillsDefaults(t *testing.T) {
	e := New(Options{})
	got := e.Options()
	assert.Equal(t, time.UTC, got.Location)
	assert.Equal(t, DefaultThresholdHours, got.ThresholdHours)
	assert.Equal(t, DefaultReservedPrefix, got.Policy.ReservedPrefix)
	assert.False(t, got.Policy.ShowInoperabilities)
}

func TestParseSourceKind(t *testing.T) {
	for in, want := range map[string]SourceKind{
		"":            SourceEstimate,
		"estimate":    SourceEstimate,
		"Measurement": SourceMeasurement,
		"none":        SourceNone,
	} {
		got, err := ParseSourceKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseSourceKind("rdo-ish")
	assert.Error(t, err)
}
