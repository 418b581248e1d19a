package store

import (
	"math"

	getsafe "github.com/w-h-a/mosaic/util/get_safe"
)

// Matches reports whether a point's metadata satisfies every clause of the
// filter. Unknown filter keys match nothing, which keeps a typo'd filter from
// silently widening a query.
func Matches(metadata map[string]any, filter map[string]any) bool {
	for key, want := range filter {
		switch key {
		case FilterParentId, FilterOwnerId, FilterAccess, FilterSourceType:
			s, ok := want.(string)
			if !ok || getsafe.String(metadata, key) != s {
				return false
			}
		case FilterVisibleTo:
			s, ok := want.(string)
			if !ok {
				return false
			}
			if getsafe.String(metadata, FilterOwnerId) != s && getsafe.String(metadata, FilterAccess) != "public" {
				return false
			}
		case FilterCategories:
			wanted, ok := want.([]string)
			if !ok {
				return false
			}
			if len(wanted) == 0 {
				continue
			}
			have := map[string]struct{}{}
			for _, c := range getsafe.Strings(metadata, FilterCategories) {
				have[c] = struct{}{}
			}
			any := false
			for _, c := range wanted {
				if _, exists := have[c]; exists {
					any = true
					break
				}
			}
			if !any {
				return false
			}
		default:
			return false
		}
	}

	return true
}

func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
