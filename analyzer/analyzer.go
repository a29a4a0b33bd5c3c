// Package analyzer answers quorum-intersection questions about FBAS topologies.
//
// An Analyzer canonicalizes the topology of each request, looks up or computes its
// analysis result in a cache, and projects the result: grouped by organization,
// ISP or country, filtered by a set of excluded participants, and translated to
// display strings. Only the engine invocation may be slow; every projection is a
// pure function of the cached result and the request.
package analyzer

import (
	"context"
	"fmt"
	"sync"

	"github.com/relab/fbas"
	"github.com/relab/fbas/cache"
	"github.com/relab/fbas/engine"
	"github.com/relab/fbas/grouping"
	"github.com/relab/fbas/logging"
	"github.com/relab/fbas/setfamily"
	"github.com/relab/fbas/topology"
)

// Request describes one analysis.
type Request struct {
	// Topology is a JSON topology description. It is ignored if Raw is set.
	Topology []byte
	// Raw is an already parsed topology description.
	Raw *topology.Raw
	// Exclude lists the public identifiers of participants assumed to be faulty.
	Exclude []string
	// Metadata assigns participants to groups. Grouped views are only
	// produced if it is set.
	Metadata *grouping.Metadata
	// Dimensions overrides the analyzer's grouping dimensions if non-nil.
	Dimensions []grouping.Dimension
}

// Analyzer serves analysis requests from a cache of results.
// It is safe for concurrent use; requests are served one at a time.
type Analyzer struct {
	mut        sync.Mutex
	cache      *cache.Cache
	policy     fbas.UnknownIDPolicy
	dimensions []grouping.Dimension
	logger     logging.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithUnknownIDPolicy sets the policy for identifiers in exclusion lists and
// metadata that the topology does not define. The default is fbas.Ignore.
func WithUnknownIDPolicy(policy fbas.UnknownIDPolicy) Option {
	return func(a *Analyzer) {
		a.policy = policy
	}
}

// WithDimensions sets the default grouping dimensions. The default is all dimensions.
func WithDimensions(dims ...grouping.Dimension) Option {
	return func(a *Analyzer) {
		a.dimensions = dims
	}
}

// WithLogger sets the logger of the analyzer.
func WithLogger(logger logging.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// New returns an analyzer that obtains results through the given cache.
func New(c *cache.Cache, opts ...Option) *Analyzer {
	a := &Analyzer{
		cache:      c,
		policy:     fbas.Ignore,
		dimensions: grouping.Dimensions(),
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewWithEngine returns an analyzer with its own cache in front of the given engine.
func NewWithEngine(e engine.Engine, cacheOpts []cache.Option, opts ...Option) (*Analyzer, error) {
	c, err := cache.New(e, cacheOpts...)
	if err != nil {
		return nil, err
	}
	return New(c, opts...), nil
}

// Cache returns the analyzer's cache.
func (a *Analyzer) Cache() *cache.Cache {
	return a.cache
}

// Analyze serves an analysis request. It fails with *fbas.MalformedInputError for
// invalid topologies, *fbas.UnknownIdentifierError for unknown identifiers when the
// policy is fbas.Reject, and *fbas.EngineFailure when the result cannot be computed.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	a.mut.Lock()
	defer a.mut.Unlock()

	raw := req.Raw
	if raw == nil {
		if len(req.Topology) == 0 {
			return nil, &fbas.MalformedInputError{Source: "topology", Err: fmt.Errorf("no topology given")}
		}
		var err error
		if raw, err = topology.Parse(req.Topology); err != nil {
			return nil, err
		}
	}
	t, err := topology.Canonicalize(raw)
	if err != nil {
		return nil, err
	}

	excluded, unknown := t.Resolve(req.Exclude)
	if err := a.policy.Check("exclusion list", unknown); err != nil {
		return nil, err
	}

	dims := a.dimensions
	if req.Dimensions != nil {
		dims = req.Dimensions
	}
	var groupings []*grouping.Grouping
	if req.Metadata != nil {
		for _, d := range dims {
			g, err := grouping.Resolve(t, req.Metadata, d, a.policy)
			if err != nil {
				return nil, err
			}
			groupings = append(groupings, g)
		}
	}

	res, hit, err := a.cache.GetOrCompute(ctx, t)
	if err != nil {
		return nil, err
	}
	a.logger.Debugw("analyzed topology",
		"digest", t.Digest().String(),
		"cacheHit", hit,
		"excluded", len(excluded),
		"groupings", len(groupings),
	)
	return buildReport(t, res, hit, excluded, len(req.Exclude) > 0, groupings), nil
}

// buildReport derives all views of a result. It is deterministic and performs no I/O.
func buildReport(t *topology.Canonical, res *engine.Result, hit bool, excluded []fbas.ID, filter bool, groupings []*grouping.Grouping) *Report {
	base := projection[fbas.ID]{
		blocking:  res.MinimalBlockingSets,
		splitting: res.MinimalSplittingSets,
		topTier:   res.TopTier,
	}
	filtered := exclude(base, excluded)

	r := &Report{
		CacheHit:                         hit,
		Digest:                           t.Digest().String(),
		HasQuorumIntersection:            res.HasQuorumIntersection,
		QuorumIntersectionAfterExclusion: afterExclusion(filtered),
		Base:                             view(base, t.PublicKey),
	}
	if filter {
		r.Excluded = setfamily.MapSet(excluded, t.PublicKey)
		r.Filtered = view(filtered, t.PublicKey)
	}
	for _, g := range groupings {
		if r.Grouped == nil {
			r.Grouped = make(map[grouping.Dimension]*View)
		}
		r.Grouped[g.Dimension()] = view(group(base, g), g.Display)
		if filter {
			if r.FilteredGrouped == nil {
				r.FilteredGrouped = make(map[grouping.Dimension]*View)
			}
			r.FilteredGrouped[g.Dimension()] = view(group(filtered, g), g.Display)
		}
	}
	return r
}

// afterExclusion decides quorum intersection once the excluded participants may
// behave arbitrarily: it holds unless some splitting set lies entirely within the
// exclusion, which shows as the empty set in the filtered splitting sets.
func afterExclusion(filtered projection[fbas.ID]) bool {
	return !setfamily.ContainsEmptySet(filtered.splitting)
}
