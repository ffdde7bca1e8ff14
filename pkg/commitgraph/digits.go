package commitgraph

import (
	"maps"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// MinDigits is the shortest prefix length MinimalDigits will return.
const MinDigits = 7

// MinimalDigits returns the shortest prefix length, starting at [MinDigits],
// under which all ids stay distinct. If no shorter length works, the length of
// the longest id is returned. An empty id set yields MinDigits.
func MinimalDigits(ids []string) int {
	unique := mapset.NewThreadUnsafeSet(ids...)
	full := 0
	unique.Each(func(id string) bool {
		full = max(full, len(id))
		return false
	})
	if full == 0 {
		return MinDigits
	}

	want := unique.Cardinality()
	for n := MinDigits; n < full; n++ {
		prefixes := mapset.NewThreadUnsafeSetWithSize[string](want)
		unique.Each(func(id string) bool {
			prefixes.Add(Abbrev(id, n))
			return false
		})
		if prefixes.Cardinality() == want {
			return n
		}
	}
	return full
}

// MinimalDigits returns [MinimalDigits] over the graph's commits.
func (g *Graph) MinimalDigits() int {
	return MinimalDigits(slices.Collect(maps.Keys(g.parents)))
}

// Abbrev truncates id to n characters. Ids shorter than n and non-positive n
// return id unchanged.
func Abbrev(id string, n int) string {
	if n <= 0 || len(id) <= n {
		return id
	}
	return id[:n]
}
