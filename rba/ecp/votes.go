package ecp

import (
	"sort"

	"github.com/MRPT/srba/rba"
)

// sortedByVoteDesc returns votes' keys ordered by descending vote count,
// breaking ties by ascending KeyframeID. spec.md §4.3.1 and §4.3.2 both
// require candidates to be processed "ordered by descending number of
// shared observations" / "sorted by descending vote"; Go map iteration
// order is randomized, so both ECPs route through this helper rather than
// ranging over the vote map directly.
func sortedByVoteDesc(votes map[rba.KeyframeID]int) []rba.KeyframeID {
	keys := make([]rba.KeyframeID, 0, len(votes))
	for k := range votes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if votes[keys[i]] != votes[keys[j]] {
			return votes[keys[i]] > votes[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
