// Package bruteforce implements an exhaustive quorum-intersection analysis engine.
//
// The engine enumerates node sets as bit masks, so its running time is exponential
// in the number of participants. It is intended for small networks, for testing,
// and as a reference for faster engines. Topologies with more than MaxNodes
// participants are refused.
package bruteforce

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/relab/fbas"
	"github.com/relab/fbas/engine"
	"github.com/relab/fbas/logging"
	"github.com/relab/fbas/setfamily"
	"github.com/relab/fbas/topology"
)

// DefaultMaxNodes is the largest topology analyzed by default.
// Finding the minimal splitting sets visits about 3^n node sets.
const DefaultMaxNodes = 14

// maxNodes is the hard limit imposed by the 64-bit node masks.
const maxNodes = 63

// ErrTooLarge is returned for topologies with more participants than the engine accepts.
var ErrTooLarge = errors.New("topology too large for exhaustive analysis")

// Engine is an exhaustive analysis engine.
type Engine struct {
	maxNodes int
	logger   logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxNodes sets the largest number of participants the engine accepts.
// Values above 63 are reduced to 63.
func WithMaxNodes(n int) Option {
	return func(e *Engine) {
		e.maxNodes = min(n, maxNodes)
	}
}

// WithLogger sets the logger of the engine.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New returns a new exhaustive engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxNodes: DefaultMaxNodes,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze computes the minimal quorums of t and derives the result from them.
func (e *Engine) Analyze(ctx context.Context, t *topology.Canonical) (*engine.Result, error) {
	if t.Len() > e.maxNodes {
		return nil, fmt.Errorf("%w: %d participants, limit is %d", ErrTooLarge, t.Len(), e.maxNodes)
	}
	a := newAnalysis(ctx, t)

	minimalQuorums, err := a.minimalQuorums()
	if err != nil {
		return nil, err
	}
	var topTier uint64
	for _, q := range minimalQuorums {
		topTier |= q
	}
	blocking, err := a.minimalBlockingSets(minimalQuorums, topTier)
	if err != nil {
		return nil, err
	}
	splitting, err := a.minimalSplittingSets()
	if err != nil {
		return nil, err
	}

	res := &engine.Result{
		MinimalBlockingSets:   toFamily(blocking),
		MinimalSplittingSets:  toFamily(splitting),
		TopTier:               toIDs(topTier),
		HasQuorumIntersection: intersecting(minimalQuorums),
	}
	e.logger.Debugw("analysis done",
		"nodes", t.Len(),
		"minimalQuorums", len(minimalQuorums),
		"steps", a.steps,
		"intersection", res.HasQuorumIntersection,
	)
	return res, nil
}

// qset is a canonical quorum set with validators as a node mask.
type qset struct {
	threshold  int
	validators uint64
	inner      []qset
}

func compile(q *topology.QSet) *qset {
	if q == nil {
		return nil
	}
	c := &qset{threshold: q.Threshold}
	for _, v := range q.Validators {
		c.validators |= 1 << v
	}
	for i := range q.Inner {
		c.inner = append(c.inner, *compile(&q.Inner[i]))
	}
	return c
}

func (q *qset) satisfied(present uint64) bool {
	n := bits.OnesCount64(q.validators & present)
	for i := 0; i < len(q.inner) && n < q.threshold; i++ {
		if q.inner[i].satisfied(present) {
			n++
		}
	}
	return n >= q.threshold
}

type analysis struct {
	ctx   context.Context
	all   uint64
	qsets []*qset
	steps uint64
}

func newAnalysis(ctx context.Context, t *topology.Canonical) *analysis {
	a := &analysis{
		ctx:   ctx,
		all:   uint64(1)<<t.Len() - 1,
		qsets: make([]*qset, t.Len()),
	}
	for _, id := range t.IDs() {
		a.qsets[id] = compile(t.QuorumSet(id))
	}
	return a
}

// tick counts a step and checks the context every 4096 steps.
func (a *analysis) tick() error {
	a.steps++
	if a.steps&0xfff == 0 {
		return a.ctx.Err()
	}
	return nil
}

// quorumWithin returns the largest set Q ⊆ x such that every member of Q has its
// quorum set satisfied by Q ∪ free. The members of free count as present without
// having to be satisfied themselves; they model participants that may say anything.
func (a *analysis) quorumWithin(x, free uint64) uint64 {
	for {
		next := x
		for rest := x; rest != 0; rest &= rest - 1 {
			v := bits.TrailingZeros64(rest)
			if q := a.qsets[v]; q == nil || !q.satisfied(x|free) {
				next &^= 1 << v
			}
		}
		if next == x {
			return x
		}
		x = next
	}
}

func (a *analysis) minimalQuorums() ([]uint64, error) {
	universe := a.quorumWithin(a.all, 0)
	var quorums []uint64
	for x := universe; x != 0; x = (x - 1) & universe {
		if err := a.tick(); err != nil {
			return nil, err
		}
		if a.quorumWithin(x, 0) != x {
			continue
		}
		minimal := true
		for rest := x; rest != 0 && minimal; rest &= rest - 1 {
			v := rest & -rest
			minimal = a.quorumWithin(x&^v, 0) == 0
		}
		if minimal {
			quorums = append(quorums, x)
		}
	}
	return quorums, nil
}

// minimalBlockingSets returns the minimal sets that intersect every minimal quorum.
// Such sets only contain top tier participants.
func (a *analysis) minimalBlockingSets(minimalQuorums []uint64, topTier uint64) ([]uint64, error) {
	var found []uint64
	err := subsetsBySize(topTier, func(x uint64) error {
		if err := a.tick(); err != nil {
			return err
		}
		if hasSubset(found, x) {
			return nil
		}
		for _, q := range minimalQuorums {
			if q&x == 0 {
				return nil
			}
		}
		found = append(found, x)
		return nil
	})
	return found, err
}

// minimalSplittingSets returns the minimal sets S for which there are two disjoint,
// nonempty quorums outside S when the members of S may claim anything.
func (a *analysis) minimalSplittingSets() ([]uint64, error) {
	var found []uint64
	err := subsetsBySize(a.all, func(s uint64) error {
		if hasSubset(found, s) {
			return nil
		}
		splits, err := a.splits(s)
		if err != nil {
			return err
		}
		if splits {
			found = append(found, s)
		}
		return nil
	})
	return found, err
}

func (a *analysis) splits(s uint64) (bool, error) {
	universe := a.quorumWithin(a.all&^s, s)
	for x := universe; x != 0; x = (x - 1) & universe {
		if err := a.tick(); err != nil {
			return false, err
		}
		if a.quorumWithin(x, s) != x {
			continue
		}
		if a.quorumWithin(universe&^x, s) != 0 {
			return true, nil
		}
	}
	return false, nil
}

// subsetsBySize calls fn for every subset of universe, in order of increasing size.
func subsetsBySize(universe uint64, fn func(uint64) error) error {
	var positions []int
	for rest := universe; rest != 0; rest &= rest - 1 {
		positions = append(positions, bits.TrailingZeros64(rest))
	}
	k := len(positions)
	if err := fn(0); err != nil {
		return err
	}
	for size := 1; size <= k; size++ {
		// Gosper's hack enumerates the k-bit combinations with size bits set.
		for c := uint64(1)<<size - 1; c < uint64(1)<<k; {
			var x uint64
			for rest := c; rest != 0; rest &= rest - 1 {
				x |= 1 << positions[bits.TrailingZeros64(rest)]
			}
			if err := fn(x); err != nil {
				return err
			}
			u := c & -c
			v := c + u
			c = v + (((v ^ c) / u) >> 2)
		}
	}
	return nil
}

func hasSubset(sets []uint64, x uint64) bool {
	for _, s := range sets {
		if s&x == s {
			return true
		}
	}
	return false
}

func intersecting(quorums []uint64) bool {
	for i := range quorums {
		for j := i + 1; j < len(quorums); j++ {
			if quorums[i]&quorums[j] == 0 {
				return false
			}
		}
	}
	return true
}

func toIDs(mask uint64) []fbas.ID {
	ids := make([]fbas.ID, 0, bits.OnesCount64(mask))
	for rest := mask; rest != 0; rest &= rest - 1 {
		ids = append(ids, fbas.ID(bits.TrailingZeros64(rest)))
	}
	return ids
}

func toFamily(masks []uint64) setfamily.Family[fbas.ID] {
	f := make(setfamily.Family[fbas.ID], len(masks))
	for i, m := range masks {
		f[i] = toIDs(m)
	}
	return setfamily.Minimize(f)
}
