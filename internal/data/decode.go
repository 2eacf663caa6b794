package data

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"fuel-reconcile/internal/model"
)

// The fleet backend ships readings as positional tuples to keep payloads small:
//
//	operations  [code, idAsset, startEpochSeconds, endEpochSeconds, dailyRate]
//	rdo         [idAsset, dateEpochSeconds, value, received?, supplied?]
//	sounding    [idAsset, dateEpochSeconds, volume]
//
// Timestamps are (fractional) epoch seconds; null decodes to the zero time.

// Envelope is the on-disk and on-wire shape of a full dataset.
type Envelope struct {
	Assets     []model.Asset   `json:"assets"`
	Operations json.RawMessage `json:"operations"`
	RDO        json.RawMessage `json:"rdo"`
	Sounding   json.RawMessage `json:"sounding"`
}

// DecodeEnvelope decodes a full dataset envelope.
func DecodeEnvelope(raw []byte) (*model.Dataset, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, Error.New("decode envelope: %v", err)
	}
	return env.Dataset()
}

// Dataset decodes the tuple sections of env.
func (env Envelope) Dataset() (*model.Dataset, error) {
	ds := &model.Dataset{Assets: env.Assets}
	var err error
	if ds.Operations, err = DecodeOperations(env.Operations); err != nil {
		return nil, err
	}
	if ds.Estimates, err = DecodeEstimates(env.RDO); err != nil {
		return nil, err
	}
	if ds.Measurements, err = DecodeMeasurements(env.Sounding); err != nil {
		return nil, err
	}
	return ds, nil
}

// EncodeEnvelope is the inverse of DecodeEnvelope.
func EncodeEnvelope(ds *model.Dataset) ([]byte, error) {
	if ds == nil {
		ds = &model.Dataset{}
	}
	ops := make([][]interface{}, 0, len(ds.Operations))
	for _, op := range ds.Operations {
		ops = append(ops, []interface{}{op.Code, op.AssetID, epoch(op.DateStart), epoch(op.DateEnd), op.ConsumptionDailyContract})
	}
	rdo := make([][]interface{}, 0, len(ds.Estimates))
	for _, r := range ds.Estimates {
		rdo = append(rdo, []interface{}{r.AssetID, epoch(r.Date), r.Value, r.Received, r.Supplied})
	}
	sounding := make([][]interface{}, 0, len(ds.Measurements))
	for _, r := range ds.Measurements {
		sounding = append(sounding, []interface{}{r.AssetID, epoch(r.Date), r.Volume})
	}

	assets := ds.Assets
	if assets == nil {
		assets = []model.Asset{}
	}
	out := struct {
		Assets     []model.Asset   `json:"assets"`
		Operations [][]interface{} `json:"operations"`
		RDO        [][]interface{} `json:"rdo"`
		Sounding   [][]interface{} `json:"sounding"`
	}{assets, ops, rdo, sounding}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return raw, nil
}

// DecodeAssets decodes the asset list.
func DecodeAssets(raw []byte) ([]model.Asset, error) {
	var assets []model.Asset
	if isEmpty(raw) {
		return assets, nil
	}
	if err := json.Unmarshal(raw, &assets); err != nil {
		return nil, Error.New("decode assets: %v", err)
	}
	return assets, nil
}

func DecodeOperations(raw []byte) ([]model.Operation, error) {
	rows, err := tuples(raw, "operations", 5)
	if err != nil {
		return nil, err
	}
	out := make([]model.Operation, 0, len(rows))
	for i, row := range rows {
		var op model.Operation
		if err := decodeFields(row,
			stringField(&op.Code),
			stringField(&op.AssetID),
			timeField(&op.DateStart),
			timeField(&op.DateEnd),
			floatField(&op.ConsumptionDailyContract),
		); err != nil {
			return nil, Error.New("operations[%d]: %v", i, err)
		}
		out = append(out, op)
	}
	return out, nil
}

func DecodeEstimates(raw []byte) ([]model.EstimateReading, error) {
	rows, err := tuples(raw, "rdo", 3)
	if err != nil {
		return nil, err
	}
	out := make([]model.EstimateReading, 0, len(rows))
	for i, row := range rows {
		var r model.EstimateReading
		if err := decodeFields(row,
			stringField(&r.AssetID),
			timeField(&r.Date),
			floatField(&r.Value),
			floatField(&r.Received),
			floatField(&r.Supplied),
		); err != nil {
			return nil, Error.New("rdo[%d]: %v", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func DecodeMeasurements(raw []byte) ([]model.MeasurementReading, error) {
	rows, err := tuples(raw, "sounding", 3)
	if err != nil {
		return nil, err
	}
	out := make([]model.MeasurementReading, 0, len(rows))
	for i, row := range rows {
		var r model.MeasurementReading
		if err := decodeFields(row,
			stringField(&r.AssetID),
			timeField(&r.Date),
			floatField(&r.Volume),
		); err != nil {
			return nil, Error.New("sounding[%d]: %v", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func tuples(raw []byte, name string, minLen int) ([][]json.RawMessage, error) {
	if isEmpty(raw) {
		return nil, nil
	}
	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, Error.New("decode %s: %v", name, err)
	}
	for i, row := range rows {
		if len(row) < minLen {
			return nil, Error.New("%s[%d]: expected at least %d fields, got %d", name, i, minLen, len(row))
		}
	}
	return rows, nil
}

type fieldDecoder func(json.RawMessage) error

// decodeFields applies decoders positionally; missing trailing fields keep their zero value.
func decodeFields(row []json.RawMessage, decoders ...fieldDecoder) error {
	for i, dec := range decoders {
		if i >= len(row) {
			return nil
		}
		if err := dec(row[i]); err != nil {
			return err
		}
	}
	return nil
}

func stringField(dst *string) fieldDecoder {
	return func(raw json.RawMessage) error {
		if isNull(raw) {
			return nil
		}
		return json.Unmarshal(raw, dst)
	}
}

func floatField(dst *float64) fieldDecoder {
	return func(raw json.RawMessage) error {
		if isNull(raw) {
			return nil
		}
		return json.Unmarshal(raw, dst)
	}
}

func timeField(dst *time.Time) fieldDecoder {
	return func(raw json.RawMessage) error {
		if isNull(raw) {
			*dst = time.Time{}
			return nil
		}
		var secs float64
		if err := json.Unmarshal(raw, &secs); err != nil {
			return err
		}
		*dst = time.UnixMilli(int64(math.Round(secs * 1000))).UTC()
		return nil
	}
}

func epoch(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return float64(t.UnixMilli()) / 1000
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isEmpty(raw []byte) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
