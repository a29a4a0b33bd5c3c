// Package topology parses FBAS descriptions and normalizes them into canonical form.
//
// A Raw topology is the description as given by the caller. Canonicalize turns it
// into a Canonical topology in which participants are numbered densely in the order
// of their public identifiers, and every quorum set has sorted, deduplicated
// validators and inner sets. Two descriptions that differ only in ordering or in
// repeated clauses yield equal Canonical values with equal digests.
package topology

// Raw is an FBAS description as parsed from its input format.
// Node definitions may be repeated and appear in any order.
type Raw struct {
	Nodes []Node
}

// Node is the definition of one participant.
type Node struct {
	// PublicKey is the public identifier of the participant.
	PublicKey string
	// Name is an optional human readable name.
	Name string
	// QuorumSet is the participant's quorum set. A nil quorum set can never be satisfied.
	QuorumSet *QuorumSet

	// The following fields are only present in node-array inputs,
	// and are used to derive grouping metadata.
	Organization string
	ISP          string
	CountryCode  string
	CountryName  string
}

// QuorumSet is a threshold structure: it is satisfied when at least Threshold of its
// members are satisfied. A NodeRef member is satisfied when the referenced participant
// is present, and a nested QuorumSet member when it is satisfied itself.
type QuorumSet struct {
	Threshold int
	Members   []Member
}

// Member is a member of a quorum set; either a NodeRef or a *QuorumSet.
type Member interface {
	isMember()
}

// NodeRef refers to a participant by its public identifier.
type NodeRef string

func (NodeRef) isMember() {}

func (*QuorumSet) isMember() {}

// NewQuorumSet returns a quorum set with the given threshold and members.
func NewQuorumSet(threshold int, members ...Member) *QuorumSet {
	return &QuorumSet{Threshold: threshold, Members: members}
}

// Refs returns NodeRef members for the given public identifiers.
func Refs(publicKeys ...string) []Member {
	members := make([]Member, len(publicKeys))
	for i, pk := range publicKeys {
		members[i] = NodeRef(pk)
	}
	return members
}

// Symmetric returns a topology in which every participant uses the same flat
// threshold-of-all quorum set.
func Symmetric(threshold int, publicKeys ...string) *Raw {
	raw := &Raw{}
	for _, pk := range publicKeys {
		raw.Nodes = append(raw.Nodes, Node{
			PublicKey: pk,
			QuorumSet: NewQuorumSet(threshold, Refs(publicKeys...)...),
		})
	}
	return raw
}
