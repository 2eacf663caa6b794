package model

// Asset is a vessel (or any other fleet unit) as exposed by the fleet backend.
// Reference data: loaded upstream and never modified by the reconciler.
type Asset struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// AssetNames indexes asset display names by id.
func AssetNames(assets []Asset) map[string]string {
	out := make(map[string]string, len(assets))
	for _, a := range assets {
		out[a.ID] = a.Name
	}
	return out
}
