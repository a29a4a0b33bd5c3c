// Package grouping resolves participants of a topology into groups, such as the
// organizations that operate them.
//
// A Grouping is derived per request from a canonical topology and Metadata for one
// Dimension. Participants that share a label share a group. A participant without
// metadata forms a group of its own, displayed as its public identifier, so that it
// never merges with another participant.
package grouping

import (
	"github.com/relab/fbas"
	"github.com/relab/fbas/topology"
)

// GroupID identifies a group within one Grouping.
type GroupID uint32

// Grouping maps the participants of one topology to groups in one dimension.
type Grouping struct {
	dimension Dimension
	groups    []GroupID // indexed by fbas.ID
	display   []string  // indexed by GroupID
	labels    []string  // indexed by GroupID; empty for singleton groups
}

// Resolve groups the participants of t by the metadata of dimension d.
// Entries of dimension d with an empty identifier or label, and names shared by
// different labels, are reported as a *fbas.MalformedInputError.
// Metadata entries for participants that t does not define are checked against
// policy; with fbas.Ignore they have no effect. m may be nil.
func Resolve(t *topology.Canonical, m *Metadata, d Dimension, policy fbas.UnknownIDPolicy) (*Grouping, error) {
	if err := m.validateDimension(d); err != nil {
		return nil, malformed(err)
	}
	var unknown []string
	for _, k := range m.Keys(d) {
		if _, ok := t.Lookup(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if err := policy.Check("metadata", unknown); err != nil {
		return nil, err
	}

	g := &Grouping{
		dimension: d,
		groups:    make([]GroupID, t.Len()),
	}
	byLabel := make(map[string]GroupID)
	for _, id := range t.IDs() {
		pk := t.PublicKey(id)
		group, ok := m.Lookup(d, pk)
		if !ok {
			g.groups[id] = g.add("", pk)
			continue
		}
		gid, ok := byLabel[group.Label]
		if !ok {
			gid = g.add(group.Label, group.Display())
			byLabel[group.Label] = gid
		}
		g.groups[id] = gid
	}
	return g, nil
}

func (g *Grouping) add(label, display string) GroupID {
	id := GroupID(len(g.display))
	g.display = append(g.display, display)
	g.labels = append(g.labels, label)
	return id
}

// Dimension returns the dimension of the grouping.
func (g *Grouping) Dimension() Dimension {
	return g.dimension
}

// Group returns the group of the participant.
func (g *Grouping) Group(id fbas.ID) GroupID {
	return g.groups[id]
}

// Display returns the display string of the group.
func (g *Grouping) Display(gid GroupID) string {
	return g.display[gid]
}

// Label returns the label of the group, and false for a participant without metadata.
func (g *Grouping) Label(gid GroupID) (string, bool) {
	l := g.labels[gid]
	return l, l != ""
}

// Len returns the number of groups.
func (g *Grouping) Len() int {
	return len(g.display)
}
