package scanner

import (
	"sort"

	"github.com/fenilsonani/devcache/pkg/utils"
)

// GlobalCategory is the category assigned to package-manager caches found
// outside the scanned tree
const GlobalCategory = "global"

// Match is one filesystem entry identified as a reclaimable cache artifact
type Match struct {
	Path      string `json:"path" yaml:"path"`
	Category  string `json:"category" yaml:"category"`
	CacheType string `json:"cache_type" yaml:"cache_type"`
	Size      int64  `json:"size" yaml:"size"`
}

// CategoryTotal is the summed size of all matches in one category
type CategoryTotal struct {
	Category string `json:"category" yaml:"category"`
	Size     int64  `json:"size" yaml:"size"`
	Count    int    `json:"count" yaml:"count"`
}

// SortBySize orders matches by size, largest first. Ties keep discovery order.
func SortBySize(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Size > matches[j].Size
	})
}

// Merge concatenates tree and global matches and re-sorts the result
func Merge(tree, global []Match) []Match {
	merged := make([]Match, 0, len(tree)+len(global))
	merged = append(merged, tree...)
	merged = append(merged, global...)
	SortBySize(merged)
	return merged
}

// TotalSize sums the sizes of all matches
func TotalSize(matches []Match) int64 {
	sizes := make([]int64, len(matches))
	for i, m := range matches {
		sizes[i] = m.Size
	}
	return utils.SumSizes(sizes)
}

// CategoryTotals groups matches by category, largest total first
func CategoryTotals(matches []Match) []CategoryTotal {
	index := make(map[string]int)
	var totals []CategoryTotal

	for _, m := range matches {
		i, ok := index[m.Category]
		if !ok {
			i = len(totals)
			index[m.Category] = i
			totals = append(totals, CategoryTotal{Category: m.Category})
		}
		totals[i].Size += m.Size
		totals[i].Count++
	}

	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Size != totals[j].Size {
			return totals[i].Size > totals[j].Size
		}
		return totals[i].Category < totals[j].Category
	})

	return totals
}
