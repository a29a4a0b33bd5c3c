// Package engine defines the interface to quorum-intersection analysis engines,
// and the result they produce.
package engine

import (
	"context"
	"fmt"

	"github.com/relab/fbas"
	"github.com/relab/fbas/setfamily"
	"github.com/relab/fbas/topology"
)

// Result is the outcome of analyzing one canonical topology.
// Results are immutable once returned; callers must not modify them.
type Result struct {
	// MinimalBlockingSets are the minimal sets of participants whose failure
	// leaves no quorum among the remaining participants.
	MinimalBlockingSets setfamily.Family[fbas.ID]
	// MinimalSplittingSets are the minimal sets of participants whose misbehavior
	// allows two disjoint quorums. It is {∅} when quorum intersection does not hold.
	MinimalSplittingSets setfamily.Family[fbas.ID]
	// TopTier is the set of participants that appear in some minimal quorum.
	TopTier []fbas.ID
	// HasQuorumIntersection is true if every two quorums intersect.
	HasQuorumIntersection bool
}

// Normalize returns a copy of the result with both families minimized and the top
// tier sorted and deduplicated. It is applied to the output of every engine before
// it is stored, so that the minimality of the families does not depend on the engine.
func (r *Result) Normalize() *Result {
	return &Result{
		MinimalBlockingSets:   setfamily.Minimize(r.MinimalBlockingSets),
		MinimalSplittingSets:  setfamily.Minimize(r.MinimalSplittingSets),
		TopTier:               setfamily.NewSet(r.TopTier...),
		HasQuorumIntersection: r.HasQuorumIntersection,
	}
}

func (r *Result) String() string {
	return fmt.Sprintf("Result{intersection: %t, blocking: %v, splitting: %v, top tier: %v}",
		r.HasQuorumIntersection, r.MinimalBlockingSets, r.MinimalSplittingSets, r.TopTier)
}

// Engine analyzes canonical topologies. Implementations must be pure and
// deterministic: the same topology always yields the same result.
// The running time may be exponential in the size of the topology;
// implementations should return early when ctx is done.
type Engine interface {
	Analyze(ctx context.Context, t *topology.Canonical) (*Result, error)
}

// Func adapts an ordinary function to the Engine interface.
type Func func(ctx context.Context, t *topology.Canonical) (*Result, error)

// Analyze calls f(ctx, t).
func (f Func) Analyze(ctx context.Context, t *topology.Canonical) (*Result, error) {
	return f(ctx, t)
}
