package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-reconcile/internal/reconcile"
)

func TestSynthesize(t *testing.T) {
	p := fleetParams{Vessels: 2, Days: 3, Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Seed: 7}

	ds := synthesize(p)
	require.Len(t, ds.Assets, 2)
	assert.Equal(t, synthesize(p), ds, "same seed, same dataset")

	// 3 soundings a day
	assert.Len(t, ds.Measurements, 2*3*3)
	for _, op := range ds.Operations {
		assert.True(t, op.Valid())
		assert.True(t, op.DateEnd.After(op.DateStart))
	}

	res := reconcile.New(reconcile.DefaultOptions()).RunDataset(ds, reconcile.SourceEstimate)
	assert.Empty(t, res.Violations)
	assert.Equal(t, 2, res.Assets)
	assert.Len(t, res.Records, res.Days*res.Assets)
}
