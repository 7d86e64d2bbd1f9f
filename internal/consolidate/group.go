// Package consolidate groups near-duplicate leads and merges each group
// into a single record.
package consolidate

import (
	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/similarity"
)

// Group partitions leads into duplicate groups in one pass. Each lead not
// yet assigned seeds a group; later unassigned leads join it when they are
// duplicates of the seed. Candidates are compared with the seed only, so
// groups are not cliques. Input order is preserved within and across groups.
func Group(leads []model.Lead) [][]model.Lead {
	assigned := make([]bool, len(leads))
	var groups [][]model.Lead
	for i, seed := range leads {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		g := []model.Lead{seed}
		for j := i + 1; j < len(leads); j++ {
			if !assigned[j] && similarity.IsDuplicate(seed, leads[j]) {
				assigned[j] = true
				g = append(g, leads[j])
			}
		}
		groups = append(groups, g)
	}
	return groups
}
