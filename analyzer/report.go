package analyzer

import (
	"cmp"

	"github.com/relab/fbas"
	"github.com/relab/fbas/grouping"
	"github.com/relab/fbas/setfamily"
)

// View is one projection of an analysis result, with participants or groups
// given as display strings. Sets and families are in canonical order.
type View struct {
	MinimalBlockingSets  [][]string `json:"minimalBlockingSets"`
	MinimalSplittingSets [][]string `json:"minimalSplittingSets"`
	TopTier              []string   `json:"topTier"`
	// MinBlockingSetSize is the size of the smallest blocking set, or -1 if there is none.
	MinBlockingSetSize int `json:"minBlockingSetSize"`
	// MinSplittingSetSize is the size of the smallest splitting set, or -1 if there is none.
	MinSplittingSetSize int `json:"minSplittingSetSize"`
}

// Report is the outcome of one analysis request.
type Report struct {
	// CacheHit is true if the analysis result was found in the cache.
	CacheHit bool `json:"cacheHit"`
	// Digest identifies the canonical topology.
	Digest string `json:"digest"`
	// HasQuorumIntersection is true if every two quorums intersect.
	HasQuorumIntersection bool `json:"hasQuorumIntersection"`
	// QuorumIntersectionAfterExclusion is true if quorums still intersect when the
	// excluded participants may behave arbitrarily. It equals HasQuorumIntersection
	// when nothing is excluded.
	QuorumIntersectionAfterExclusion bool `json:"quorumIntersectionAfterExclusion"`
	// Excluded are the excluded participants that the topology defines.
	Excluded []string `json:"excluded,omitempty"`

	Base            *View                        `json:"base"`
	Grouped         map[grouping.Dimension]*View `json:"grouped,omitempty"`
	Filtered        *View                        `json:"filtered,omitempty"`
	FilteredGrouped map[grouping.Dimension]*View `json:"filteredGrouped,omitempty"`
}

// projection is a result in terms of some element type, before translation to display strings.
type projection[T cmp.Ordered] struct {
	blocking  setfamily.Family[T]
	splitting setfamily.Family[T]
	topTier   []T
}

func project[T, U cmp.Ordered](p projection[T], fn func(T) U) projection[U] {
	return projection[U]{
		blocking:  setfamily.MapElements(p.blocking, fn),
		splitting: setfamily.MapElements(p.splitting, fn),
		topTier:   setfamily.MapSet(p.topTier, fn),
	}
}

func exclude(p projection[fbas.ID], excluded []fbas.ID) projection[fbas.ID] {
	return projection[fbas.ID]{
		blocking:  setfamily.FilterExclude(p.blocking, excluded),
		splitting: setfamily.FilterExclude(p.splitting, excluded),
		topTier:   setfamily.ExcludeSet(p.topTier, excluded),
	}
}

func group(p projection[fbas.ID], g *grouping.Grouping) projection[grouping.GroupID] {
	return project(p, g.Group)
}

// view translates a projection to display strings. It only relabels: groups that
// share a display string stay distinct members, so the families keep their shape.
func view[T cmp.Ordered](p projection[T], display func(T) string) *View {
	return &View{
		MinimalBlockingSets:  setfamily.Translate(p.blocking, display),
		MinimalSplittingSets: setfamily.Translate(p.splitting, display),
		TopTier:              setfamily.TranslateSet(p.topTier, display),
		MinBlockingSetSize:   p.blocking.MinSize(),
		MinSplittingSetSize:  p.splitting.MinSize(),
	}
}
