package topology_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/relab/fbas"
	"github.com/relab/fbas/topology"
)

func mustCanonicalize(t *testing.T, raw *topology.Raw) *topology.Canonical {
	t.Helper()
	c, err := topology.Canonicalize(raw)
	if err != nil {
		t.Fatalf("Canonicalize() failed: %v", err)
	}
	return c
}

func mustParse(t *testing.T, data string) *topology.Canonical {
	t.Helper()
	raw, err := topology.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	return mustCanonicalize(t, raw)
}

func TestCanonicalizeInvariance(t *testing.T) {
	base := `{
		"A": {"threshold": 2, "members": ["A", "B", {"threshold": 1, "members": ["C", "D"]}]},
		"B": {"threshold": 2, "members": ["A", "B", "C"]},
		"C": {"threshold": 1, "members": ["D"]},
		"D": {"threshold": 1, "members": ["C"]}
	}`
	tests := []struct {
		name string
		data string
	}{
		{name: "NodeOrder", data: `{
			"D": {"threshold": 1, "members": ["C"]},
			"C": {"threshold": 1, "members": ["D"]},
			"B": {"threshold": 2, "members": ["A", "B", "C"]},
			"A": {"threshold": 2, "members": ["A", "B", {"threshold": 1, "members": ["C", "D"]}]}
		}`},
		{name: "MemberOrder", data: `{
			"A": {"threshold": 2, "members": [{"threshold": 1, "members": ["D", "C"]}, "B", "A"]},
			"B": {"threshold": 2, "members": ["C", "B", "A"]},
			"C": {"threshold": 1, "members": ["D"]},
			"D": {"threshold": 1, "members": ["C"]}
		}`},
		{name: "RepeatedClauses", data: `{
			"A": {"threshold": 2, "members": ["A", "A", "B", {"threshold": 1, "members": ["C", "D", "C"]}, {"threshold": 1, "members": ["D", "C"]}]},
			"B": {"threshold": 2, "members": ["A", "B", "C", "B"]},
			"C": {"threshold": 1, "members": ["D"]},
			"D": {"threshold": 1, "members": ["C"]}
		}`},
		{name: "RepeatedNode", data: `{
			"A": {"threshold": 2, "members": ["A", "B", {"threshold": 1, "members": ["C", "D"]}]},
			"B": {"threshold": 2, "members": ["A", "B", "C"]},
			"C": {"threshold": 1, "members": ["D"]},
			"C": {"threshold": 1, "members": ["D", "D"]},
			"D": {"threshold": 1, "members": ["C"]}
		}`},
		{name: "NodeArray", data: `[
			{"publicKey": "B", "quorumSet": {"threshold": 2, "validators": ["A", "B", "C"], "innerQuorumSets": []}},
			{"publicKey": "A", "quorumSet": {"threshold": 2, "validators": ["A", "B"], "innerQuorumSets": [{"threshold": 1, "validators": ["C", "D"]}]}},
			{"publicKey": "C", "quorumSet": {"threshold": 1, "validators": ["D"]}},
			{"publicKey": "D", "quorumSet": {"threshold": 1, "validators": ["C"]}}
		]`},
	}
	want := mustParse(t, base)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustParse(t, tt.data)
			if !want.Equal(got) {
				t.Errorf("Equal() = false, want true")
			}
			if want.Digest() != got.Digest() {
				t.Errorf("Digest() = %v, want %v", got.Digest(), want.Digest())
			}
		})
	}
}

func TestCanonicalizeDistinguishes(t *testing.T) {
	base := mustCanonicalize(t, topology.Symmetric(3, "A", "B", "C", "D"))
	tests := []struct {
		name string
		raw  *topology.Raw
	}{
		{name: "Threshold", raw: topology.Symmetric(2, "A", "B", "C", "D")},
		{name: "Names", raw: topology.Symmetric(3, "A", "B", "C", "E")},
		{name: "Size", raw: topology.Symmetric(3, "A", "B", "C", "D", "E")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustCanonicalize(t, tt.raw)
			if base.Equal(got) || base.Digest() == got.Digest() {
				t.Errorf("topologies with different quorum logic compare equal")
			}
		})
	}
}

func TestCanonicalizeIDs(t *testing.T) {
	c := mustParse(t, `{"C": {"threshold": 1, "members": ["A"]}, "A": {"threshold": 1, "members": ["B"]}, "B": null}`)
	for i, pk := range []string{"A", "B", "C"} {
		id, ok := c.Lookup(pk)
		if !ok || id != fbas.ID(i) {
			t.Errorf("Lookup(%q) = %d, %t; want %d, true", pk, id, ok, i)
		}
		if got := c.PublicKey(fbas.ID(i)); got != pk {
			t.Errorf("PublicKey(%d) = %q, want %q", i, got, pk)
		}
	}
	if c.QuorumSet(1) != nil {
		t.Errorf("QuorumSet(B) = %v, want nil", c.QuorumSet(1))
	}
	ids, unknown := c.Resolve([]string{"C", "X", "A", "C"})
	if diff := cmp.Diff([]fbas.ID{0, 2}, ids); diff != "" {
		t.Errorf("Resolve() ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"X"}, unknown); diff != "" {
		t.Errorf("Resolve() unknown mismatch (-want +got):\n%s", diff)
	}
}

func TestCanonicalizeUndefinedReferences(t *testing.T) {
	// An undefined participant is never available, so which name it has does not matter.
	a := mustParse(t, `{"A": {"threshold": 2, "members": ["A", "X"]}}`)
	b := mustParse(t, `{"A": {"threshold": 2, "members": ["A", "Y"]}}`)
	if !a.Equal(b) {
		t.Errorf("Equal() = false, want true")
	}
	qs := a.QuorumSet(0)
	if qs.Threshold != 2 || len(qs.Validators) != 1 {
		t.Errorf("QuorumSet(A) = %+v, want threshold 2 with one validator", qs)
	}
}

func TestCanonicalizeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "Empty", data: ``},
		{name: "NotJSON", data: `threshold`},
		{name: "ZeroThreshold", data: `{"A": {"threshold": 0, "members": ["A"]}}`},
		{name: "NegativeThreshold", data: `{"A": {"threshold": -1, "members": ["A"]}}`},
		{name: "MissingThreshold", data: `{"A": {"members": ["A"]}}`},
		{name: "NestedThreshold", data: `{"A": {"threshold": 1, "members": [{"threshold": 0, "members": ["A"]}]}}`},
		{name: "BadMember", data: `{"A": {"threshold": 1, "members": [42]}}`},
		{name: "EmptyMember", data: `{"A": {"threshold": 1, "members": [""]}}`},
		{name: "EmptyKey", data: `{"": {"threshold": 1, "members": ["A"]}}`},
		{name: "ConflictingNode", data: `{"A": {"threshold": 1, "members": ["A"]}, "A": {"threshold": 1, "members": ["B"]}, "B": null}`},
		{name: "MissingPublicKey", data: `[{"quorumSet": {"threshold": 1, "validators": ["A"]}}]`},
		{name: "ConflictingArrayNode", data: `[
			{"publicKey": "A", "quorumSet": {"threshold": 1, "validators": ["A"]}},
			{"publicKey": "A", "quorumSet": {"threshold": 2, "validators": ["A"]}}
		]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := topology.Parse([]byte(tt.data))
			if err == nil {
				_, err = topology.Canonicalize(raw)
			}
			if !fbas.IsMalformed(err) {
				t.Errorf("got error %v, want MalformedInputError", err)
			}
		})
	}
}

func TestCanonicalizeMalformedRaw(t *testing.T) {
	tests := []struct {
		name string
		raw  *topology.Raw
	}{
		{name: "Nil", raw: nil},
		{name: "NilMember", raw: &topology.Raw{Nodes: []topology.Node{{PublicKey: "A", QuorumSet: topology.NewQuorumSet(1, nil)}}}},
		{name: "NilNested", raw: &topology.Raw{Nodes: []topology.Node{{PublicKey: "A", QuorumSet: topology.NewQuorumSet(1, (*topology.QuorumSet)(nil))}}}},
		{name: "Threshold", raw: topology.Symmetric(0, "A", "B")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := topology.Canonicalize(tt.raw); !fbas.IsMalformed(err) {
				t.Errorf("got error %v, want MalformedInputError", err)
			}
		})
	}
}

func TestParseNodeArrayMetadata(t *testing.T) {
	raw, err := topology.Parse([]byte(`[
		{"publicKey": "A", "name": "alpha", "organizationId": "org1", "isp": "isp1",
		 "geoData": {"countryCode": "NO", "countryName": "Norway"},
		 "quorumSet": {"threshold": 1, "validators": ["A"]}},
		{"publicKey": "W", "quorumSet": {"threshold": 0, "validators": [], "innerQuorumSets": []}}
	]`))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	want := []topology.Node{
		{
			PublicKey: "A", Name: "alpha", QuorumSet: topology.NewQuorumSet(1, topology.NodeRef("A")),
			Organization: "org1", ISP: "isp1", CountryCode: "NO", CountryName: "Norway",
		},
		{PublicKey: "W"},
	}
	if diff := cmp.Diff(want, raw.Nodes); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
	c := mustCanonicalize(t, raw)
	if c.Name(0) != "alpha" {
		t.Errorf("Name(0) = %q, want %q", c.Name(0), "alpha")
	}
}

func TestMarshalJSONRoundTrip(t *testing.T) {
	want := mustParse(t, `{
		"A": {"threshold": 2, "members": ["A", "B", {"threshold": 1, "members": ["C", "D", {"threshold": 2, "members": ["A", "D"]}]}]},
		"B": {"threshold": 2, "members": ["A", "B", "C"]},
		"C": {"threshold": 1, "members": ["D"]},
		"D": null
	}`)
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	got := mustParse(t, string(data))
	if !want.Equal(got) {
		t.Errorf("round trip through %s changed the topology", data)
	}
}
