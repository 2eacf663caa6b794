package data

import (
	"context"
	"os"
	"path/filepath"

	"fuel-reconcile/internal/model"
)

// LoadDatasetFile reads a dataset envelope from disk.
func LoadDatasetFile(path string) (*model.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, Error.New("failed to read dataset file: %v", err)
	}
	return DecodeEnvelope(raw)
}

// SaveDatasetFile writes ds as a dataset envelope, creating parent directories.
func SaveDatasetFile(path string, ds *model.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Error.New("failed to create directory: %v", err)
	}
	raw, err := EncodeEnvelope(ds)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return Error.New("failed to write dataset file: %v", err)
	}
	return nil
}

// FileSource serves datasets from a local envelope file, filtered per query.
type FileSource struct {
	Path string
}

func (s FileSource) FetchDataset(ctx context.Context, q Query) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds, err := LoadDatasetFile(s.Path)
	if err != nil {
		return nil, err
	}
	return FilterDataset(ds, q), nil
}

func (s FileSource) ListAssets(ctx context.Context, _ string) ([]model.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds, err := LoadDatasetFile(s.Path)
	if err != nil {
		return nil, err
	}
	return ds.Assets, nil
}
