package analysis

import "sort"

type RankedAsset struct {
	Rank int
	AssetSummary
}

// RankByExcess sorts summaries descending by reported consumption above the
// contractual maximum. Ties keep their input order.
func RankByExcess(summaries []AssetSummary) []RankedAsset {
	out := make([]RankedAsset, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, RankedAsset{AssetSummary: s})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Excess() > out[j].Excess()
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
