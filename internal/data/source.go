package data

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/errs"

	"fuel-reconcile/internal/model"
)

// Error is the class of data access errors.
var Error = errs.Class("data")

// Query selects the dataset for one reconciliation window.
type Query struct {
	EnterpriseID string
	// AssetIDs restricts the fleet; empty means every asset.
	AssetIDs []string
	Start    time.Time
	End      time.Time

	ShowInoperabilities bool
}

func (q Query) Validate() error {
	if q.Start.IsZero() || q.End.IsZero() {
		return Error.New("start and end are required")
	}
	if q.Start.After(q.End) {
		return Error.New("start must be before end")
	}
	return nil
}

// CacheKey is a deterministic key over every query parameter.
func (q Query) CacheKey() string {
	ids := append([]string(nil), q.AssetIDs...)
	sort.Strings(ids)
	keyStr := fmt.Sprintf("%s:%s:%s:%s:%v",
		q.EnterpriseID,
		strings.Join(ids, ","),
		q.Start.UTC().Format(time.RFC3339),
		q.End.UTC().Format(time.RFC3339),
		q.ShowInoperabilities,
	)
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}

func (q Query) wantsAsset(id string) bool {
	if len(q.AssetIDs) == 0 {
		return true
	}
	for _, want := range q.AssetIDs {
		if want == id {
			return true
		}
	}
	return false
}

// Source loads the raw inputs of a reconciliation.
type Source interface {
	FetchDataset(ctx context.Context, q Query) (*model.Dataset, error)
}

// AssetLister lists the fleet of an enterprise.
type AssetLister interface {
	ListAssets(ctx context.Context, enterpriseID string) ([]model.Asset, error)
}

// FilterDataset returns the part of ds selected by q. Operations are kept when
// they overlap the window; operations with a missing timestamp are kept too
// and left for the engine to ignore. ds is not modified.
func FilterDataset(ds *model.Dataset, q Query) *model.Dataset {
	out := &model.Dataset{}
	if ds == nil {
		return out
	}
	for _, a := range ds.Assets {
		if q.wantsAsset(a.ID) {
			out.Assets = append(out.Assets, a)
		}
	}
	for _, op := range ds.Operations {
		if !q.wantsAsset(op.AssetID) {
			continue
		}
		if op.Valid() && !q.Start.IsZero() && !q.End.IsZero() {
			if op.DateStart.After(q.End) || op.DateEnd.Before(q.Start) {
				continue
			}
		}
		out.Operations = append(out.Operations, op)
	}
	for _, r := range ds.Estimates {
		if q.wantsAsset(r.AssetID) && q.inWindow(r.Date) {
			out.Estimates = append(out.Estimates, r)
		}
	}
	for _, r := range ds.Measurements {
		if q.wantsAsset(r.AssetID) && q.inWindow(r.Date) {
			out.Measurements = append(out.Measurements, r)
		}
	}
	return out
}

func (q Query) inWindow(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	if !q.Start.IsZero() && t.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && t.After(q.End) {
		return false
	}
	return true
}
