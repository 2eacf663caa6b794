package data

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"fuel-reconcile/internal/model"
)

// AssetCatalog is the locally saved fleet list.
type AssetCatalog struct {
	EnterpriseID string        `json:"enterprise_id,omitempty"`
	UpdatedAt    string        `json:"updated_at"` // ISO 8601 timestamp
	Assets       []model.Asset `json:"assets"`
}

func NewAssetCatalog(enterpriseID string, assets []model.Asset, now time.Time) *AssetCatalog {
	return &AssetCatalog{
		EnterpriseID: enterpriseID,
		UpdatedAt:    now.UTC().Format(time.RFC3339),
		Assets:       assets,
	}
}

// MergeAssets overlays fresh assets onto a seed list. Seed entries missing from
// fresh are kept, and a fresh entry without a name or image keeps the seed's.
// The result is sorted by id.
func MergeAssets(seed, fresh []model.Asset) []model.Asset {
	byID := make(map[string]model.Asset, len(seed)+len(fresh))
	for _, a := range seed {
		byID[a.ID] = a
	}
	for _, a := range fresh {
		if old, ok := byID[a.ID]; ok {
			if a.Name == "" {
				a.Name = old.Name
			}
			if a.ImageURL == "" {
				a.ImageURL = old.ImageURL
			}
		}
		byID[a.ID] = a
	}

	out := make([]model.Asset, 0, len(byID))
	for _, a := range byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadAssetCatalog loads the catalog from a JSON file.
func LoadAssetCatalog(path string) (*AssetCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, Error.New("failed to read assets file: %v", err)
	}

	var cat AssetCatalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		return nil, Error.New("failed to parse assets file: %v", err)
	}
	return &cat, nil
}

// SaveAssetCatalog saves the catalog to a JSON file.
func SaveAssetCatalog(cat *AssetCatalog, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Error.New("failed to create directory: %v", err)
	}

	raw, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return Error.New("failed to marshal assets: %v", err)
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return Error.New("failed to write assets file: %v", err)
	}
	return nil
}

// DefaultAssetsPath returns the default path of the asset catalog.
func DefaultAssetsPath() string {
	if path := os.Getenv("ASSETS_FILE"); path != "" {
		return path
	}
	return "./data/assets.json"
}

// CatalogLister serves ListAssets from a catalog file.
type CatalogLister struct {
	Path string
}

func (l CatalogLister) ListAssets(_ context.Context, _ string) ([]model.Asset, error) {
	cat, err := LoadAssetCatalog(l.Path)
	if err != nil {
		return nil, err
	}
	return cat.Assets, nil
}
