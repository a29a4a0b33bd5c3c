package bruteforce_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/relab/fbas"
	"github.com/relab/fbas/engine"
	"github.com/relab/fbas/engine/bruteforce"
	"github.com/relab/fbas/setfamily"
	"github.com/relab/fbas/topology"
)

func analyze(t *testing.T, raw *topology.Raw) *engine.Result {
	t.Helper()
	c, err := topology.Canonicalize(raw)
	if err != nil {
		t.Fatalf("Canonicalize() failed: %v", err)
	}
	res, err := bruteforce.New().Analyze(context.Background(), c)
	if err != nil {
		t.Fatalf("Analyze() failed: %v", err)
	}
	return res
}

func allPairs(n int) setfamily.Family[fbas.ID] {
	var f setfamily.Family[fbas.ID]
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			f = append(f, []fbas.ID{fbas.ID(i), fbas.ID(j)})
		}
	}
	return f
}

func TestAnalyze(t *testing.T) {
	outsider := topology.Symmetric(3, "A", "B", "C", "D")
	outsider.Nodes = append(outsider.Nodes, topology.Node{
		PublicKey: "E",
		QuorumSet: topology.NewQuorumSet(3, topology.Refs("A", "B", "C", "D")...),
	})

	split := &topology.Raw{Nodes: []topology.Node{
		{PublicKey: "A", QuorumSet: topology.NewQuorumSet(2, topology.Refs("A", "B")...)},
		{PublicKey: "B", QuorumSet: topology.NewQuorumSet(2, topology.Refs("A", "B")...)},
		{PublicKey: "C", QuorumSet: topology.NewQuorumSet(2, topology.Refs("C", "D")...)},
		{PublicKey: "D", QuorumSet: topology.NewQuorumSet(2, topology.Refs("C", "D")...)},
	}}

	// Three organizations of two nodes each; a quorum needs two complete organizations.
	orgs := &topology.Raw{}
	for _, k := range []string{"A", "B", "C", "D", "E", "F"} {
		orgs.Nodes = append(orgs.Nodes, topology.Node{PublicKey: k, QuorumSet: topology.NewQuorumSet(2,
			topology.NewQuorumSet(2, topology.Refs("A", "B")...),
			topology.NewQuorumSet(2, topology.Refs("C", "D")...),
			topology.NewQuorumSet(2, topology.Refs("E", "F")...),
		)})
	}
	// A quorum needs one of A and B, and one of C and D, so {A,C} and {B,D} are disjoint quorums.
	oneOfEach := &topology.Raw{}
	for _, k := range []string{"A", "B", "C", "D"} {
		oneOfEach.Nodes = append(oneOfEach.Nodes, topology.Node{PublicKey: k, QuorumSet: topology.NewQuorumSet(2,
			topology.NewQuorumSet(1, topology.Refs("A", "B")...),
			topology.NewQuorumSet(1, topology.Refs("C", "D")...),
		)})
	}

	tests := []struct {
		name string
		raw  *topology.Raw
		want *engine.Result
	}{
		{
			name: "ThreeOfFour",
			raw:  topology.Symmetric(3, "A", "B", "C", "D"),
			want: &engine.Result{
				MinimalBlockingSets:   allPairs(4),
				MinimalSplittingSets:  allPairs(4),
				TopTier:               []fbas.ID{0, 1, 2, 3},
				HasQuorumIntersection: true,
			},
		},
		{
			name: "Outsider",
			raw:  outsider,
			want: &engine.Result{
				MinimalBlockingSets:   allPairs(4),
				MinimalSplittingSets:  allPairs(4),
				TopTier:               []fbas.ID{0, 1, 2, 3},
				HasQuorumIntersection: true,
			},
		},
		{
			name: "DisjointQuorums",
			raw:  split,
			want: &engine.Result{
				MinimalBlockingSets:   setfamily.Family[fbas.ID]{{0, 2}, {0, 3}, {1, 2}, {1, 3}},
				MinimalSplittingSets:  setfamily.Family[fbas.ID]{{}},
				TopTier:               []fbas.ID{0, 1, 2, 3},
				HasQuorumIntersection: false,
			},
		},
		{
			name: "NestedOrganizations",
			raw:  orgs,
			want: &engine.Result{
				// one node from each of two organizations
				MinimalBlockingSets: setfamily.Family[fbas.ID]{
					{0, 2}, {0, 3}, {0, 4}, {0, 5}, {1, 2}, {1, 3},
					{1, 4}, {1, 5}, {2, 4}, {2, 5}, {3, 4}, {3, 5},
				},
				// any complete organization
				MinimalSplittingSets:  setfamily.Family[fbas.ID]{{0, 1}, {2, 3}, {4, 5}},
				TopTier:               []fbas.ID{0, 1, 2, 3, 4, 5},
				HasQuorumIntersection: true,
			},
		},
		{
			name: "NestedDisjointQuorums",
			raw:  oneOfEach,
			want: &engine.Result{
				MinimalBlockingSets:   setfamily.Family[fbas.ID]{{0, 1}, {2, 3}},
				MinimalSplittingSets:  setfamily.Family[fbas.ID]{{}},
				TopTier:               []fbas.ID{0, 1, 2, 3},
				HasQuorumIntersection: false,
			},
		},
		{
			name: "SingleNode",
			raw:  topology.Symmetric(1, "A"),
			want: &engine.Result{
				MinimalBlockingSets:   setfamily.Family[fbas.ID]{{0}},
				TopTier:               []fbas.ID{0},
				HasQuorumIntersection: true,
			},
		},
		{
			name: "NoQuorums",
			raw:  &topology.Raw{Nodes: []topology.Node{{PublicKey: "A"}, {PublicKey: "B"}}},
			want: &engine.Result{
				MinimalBlockingSets:   setfamily.Family[fbas.ID]{{}},
				TopTier:               []fbas.ID{},
				HasQuorumIntersection: true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyze(t, tt.raw)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// randomTopology returns a topology where every node has a flat quorum set over a random
// subset of the nodes, possibly with one nested set.
func randomTopology(rnd *rand.Rand, n int) *topology.Raw {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("N%d", i)
	}
	raw := &topology.Raw{}
	for _, k := range keys {
		var members []topology.Member
		for _, other := range keys {
			if rnd.Intn(3) > 0 {
				members = append(members, topology.NodeRef(other))
			}
		}
		if rnd.Intn(2) == 0 {
			inner := topology.NewQuorumSet(1, topology.Refs(keys[rnd.Intn(n)], keys[rnd.Intn(n)])...)
			members = append(members, inner)
		}
		threshold := 1
		if len(members) > 0 {
			threshold = 1 + rnd.Intn(len(members))
		}
		raw.Nodes = append(raw.Nodes, topology.Node{PublicKey: k, QuorumSet: topology.NewQuorumSet(threshold, members...)})
	}
	return raw
}

func TestAnalyzeRandomInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		raw := randomTopology(rnd, 2+rnd.Intn(5))
		res := analyze(t, raw)
		if !setfamily.IsAntichain(res.MinimalBlockingSets) {
			t.Errorf("topology %d: blocking sets %v are not an antichain", i, res.MinimalBlockingSets)
		}
		if !setfamily.IsAntichain(res.MinimalSplittingSets) {
			t.Errorf("topology %d: splitting sets %v are not an antichain", i, res.MinimalSplittingSets)
		}
		if got := setfamily.ContainsEmptySet(res.MinimalSplittingSets); got == res.HasQuorumIntersection {
			t.Errorf("topology %d: ContainsEmptySet(splitting) = %t, HasQuorumIntersection = %t",
				i, got, res.HasQuorumIntersection)
		}
		for _, b := range res.MinimalBlockingSets {
			if !setfamily.IsSubset(b, res.TopTier) {
				t.Errorf("topology %d: blocking set %v is not within the top tier %v", i, b, res.TopTier)
			}
		}
	}
}

func TestAnalyzeTooLarge(t *testing.T) {
	c, err := topology.Canonicalize(topology.Symmetric(3, "A", "B", "C", "D", "E"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = bruteforce.New(bruteforce.WithMaxNodes(4)).Analyze(context.Background(), c)
	if !errors.Is(err, bruteforce.ErrTooLarge) {
		t.Errorf("Analyze() error = %v, want %v", err, bruteforce.ErrTooLarge)
	}
}

func TestAnalyzeCanceled(t *testing.T) {
	keys := make([]string, 13)
	for i := range keys {
		keys[i] = fmt.Sprintf("N%02d", i)
	}
	c, err := topology.Canonicalize(topology.Symmetric(9, keys...))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = bruteforce.New().Analyze(ctx, c)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Analyze() error = %v, want %v", err, context.Canceled)
	}
}

func BenchmarkAnalyzeSymmetric(b *testing.B) {
	for _, n := range []int{4, 7, 10} {
		keys := make([]string, n)
		for i := range keys {
			keys[i] = fmt.Sprintf("N%02d", i)
		}
		c, err := topology.Canonicalize(topology.Symmetric(2*n/3+1, keys...))
		if err != nil {
			b.Fatal(err)
		}
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			e := bruteforce.New()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := e.Analyze(context.Background(), c); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
