package reconcile

import (
	"sort"
	"time"

	"fuel-reconcile/internal/model"
)

// OperationIndex groups operations by asset for per-day lookups.
// Within an asset, operations are ordered by start, most recent first.
type OperationIndex struct {
	byAsset  map[string][]model.Operation
	count    int
	minStart time.Time
	maxEnd   time.Time
}

// NewOperationIndex indexes the valid operations of ops. The input slice is not modified.
func NewOperationIndex(ops []model.Operation) *OperationIndex {
	sorted := make([]model.Operation, 0, len(ops))
	for _, op := range ops {
		if op.Valid() {
			sorted = append(sorted, op)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DateStart.After(sorted[j].DateStart)
	})

	idx := &OperationIndex{byAsset: make(map[string][]model.Operation)}
	for _, op := range sorted {
		idx.byAsset[op.AssetID] = append(idx.byAsset[op.AssetID], op)
		if idx.count == 0 || op.DateStart.Before(idx.minStart) {
			idx.minStart = op.DateStart
		}
		if idx.count == 0 || op.DateEnd.After(idx.maxEnd) {
			idx.maxEnd = op.DateEnd
		}
		idx.count++
	}
	return idx
}

// Len is the number of indexed operations.
func (x *OperationIndex) Len() int {
	return x.count
}

// Bounds returns the earliest start and the latest end over all indexed operations.
// ok is false when nothing was indexed: min/max of an empty set is undefined.
func (x *OperationIndex) Bounds() (start, end time.Time, ok bool) {
	if x.count == 0 {
		return time.Time{}, time.Time{}, false
	}
	return x.minStart, x.maxEnd, true
}

// Intersecting returns the operations of assetID that overlap day.
func (x *OperationIndex) Intersecting(assetID string, day Day) []model.Operation {
	var out []model.Operation
	for _, op := range x.byAsset[assetID] {
		if Overlaps(op, day) {
			out = append(out, op)
		}
	}
	return out
}

// Overlaps reports whether op intersects the day window.
func Overlaps(op model.Operation, day Day) bool {
	if !op.Valid() {
		return false
	}
	return !op.DateStart.After(day.End) && !op.DateEnd.Before(day.Start)
}
