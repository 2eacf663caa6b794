package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fuel-reconcile/internal/model"
)

// SourceKind selects the secondary reading stream joined onto day records.
type SourceKind string

const (
	SourceNone        SourceKind = "none"
	SourceEstimate    SourceKind = "estimate"
	SourceMeasurement SourceKind = "measurement"
)

func ParseSourceKind(s string) (SourceKind, error) {
	switch SourceKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", SourceEstimate:
		return SourceEstimate, nil
	case SourceMeasurement:
		return SourceMeasurement, nil
	case SourceNone:
		return SourceNone, nil
	default:
		return "", fmt.Errorf("unsupported reading source: %q", s)
	}
}

// ReadingSource is a secondary reading stream.
type ReadingSource interface {
	Kind() SourceKind
	// Index buckets the readings by asset and calendar day in loc.
	Index(loc *time.Location) ReadingIndex
}

// ReadingIndex joins the readings of a record's (asset, day) onto it.
type ReadingIndex interface {
	Attach(rec *DayRecord) *Violation
}

type readingKey struct {
	assetID string
	day     string
}

// SourceFor builds the reading source of the given kind over ds.
// It returns nil for SourceNone.
func SourceFor(kind SourceKind, ds *model.Dataset) ReadingSource {
	if ds == nil {
		return nil
	}
	switch kind {
	case SourceEstimate:
		return NewEstimateSource(ds.Estimates)
	case SourceMeasurement:
		return NewMeasurementSource(ds.Measurements)
	default:
		return nil
	}
}

// EstimateSource joins daily estimate (RDO) readings by exact calendar day.
type EstimateSource struct {
	readings []model.EstimateReading
}

func NewEstimateSource(readings []model.EstimateReading) *EstimateSource {
	return &EstimateSource{readings: readings}
}

func (s *EstimateSource) Kind() SourceKind { return SourceEstimate }

func (s *EstimateSource) Index(loc *time.Location) ReadingIndex {
	idx := estimateIndex{}
	for _, r := range s.readings {
		if r.Date.IsZero() {
			continue
		}
		k := readingKey{assetID: r.AssetID, day: DayKey(r.Date, loc)}
		idx[k] = append(idx[k], r)
	}
	return idx
}

type estimateIndex map[readingKey][]model.EstimateReading

func (idx estimateIndex) Attach(rec *DayRecord) *Violation {
	matches := idx[readingKey{assetID: rec.AssetID, day: rec.Key()}]
	switch len(matches) {
	case 0:
		return nil
	case 1:
		v := matches[0].Value
		rec.ConsumptionEstimated = &v
		return nil
	default:
		return &Violation{
			Kind:    ViolationDuplicateEstimate,
			AssetID: rec.AssetID,
			Date:    rec.Date,
			Count:   len(matches),
		}
	}
}

// MeasurementSource attaches every sounding taken on the record's day.
type MeasurementSource struct {
	readings []model.MeasurementReading
}

func NewMeasurementSource(readings []model.MeasurementReading) *MeasurementSource {
	return &MeasurementSource{readings: readings}
}

func (s *MeasurementSource) Kind() SourceKind { return SourceMeasurement }

func (s *MeasurementSource) Index(loc *time.Location) ReadingIndex {
	idx := measurementIndex{}
	for _, r := range s.readings {
		if r.Date.IsZero() {
			continue
		}
		k := readingKey{assetID: r.AssetID, day: DayKey(r.Date, loc)}
		idx[k] = append(idx[k], r)
	}
	for _, bucket := range idx {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Date.Before(bucket[j].Date)
		})
	}
	return idx
}

type measurementIndex map[readingKey][]model.MeasurementReading

func (idx measurementIndex) Attach(rec *DayRecord) *Violation {
	bucket := idx[readingKey{assetID: rec.AssetID, day: rec.Key()}]
	if len(bucket) == 0 {
		return nil
	}
	rec.Measurements = append([]model.MeasurementReading(nil), bucket...)
	return nil
}
