package topology

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/relab/fbas"
	"github.com/relab/fbas/setfamily"
	"go.uber.org/multierr"
	"golang.org/x/crypto/sha3"
)

// Digest is the SHA3-256 hash of a canonical topology's encoding.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// QSet is a quorum set in canonical form. Validators are sorted and unique,
// and inner sets are sorted by their canonical encoding and unique.
type QSet struct {
	Threshold  int
	Validators []fbas.ID
	Inner      []QSet
}

// Canonical is an immutable, normalized FBAS. Participants are numbered 0..Len()-1
// in ascending order of their public identifiers.
//
// Two Canonical values are Equal, and have the same Digest, exactly when they were
// built from descriptions with the same participants and the same quorum logic,
// regardless of the order of nodes and members, and of repeated members.
type Canonical struct {
	keys     []string
	names    []string
	index    map[string]fbas.ID
	qsets    []*QSet
	encoding []byte
	digest   Digest
}

// Canonicalize normalizes a raw topology:
//
//   - nodes are ordered by public identifier and numbered densely in that order;
//   - validators are sorted and deduplicated, inner sets are canonicalized
//     recursively, sorted and deduplicated (a repeated clause counts once);
//   - references to identifiers that define no node are dropped, while thresholds
//     are kept, since an undefined participant is never available.
//
// A node defined more than once must have identical definitions after normalization;
// conflicting definitions, non-positive thresholds, empty identifiers and invalid
// members are reported together in a *fbas.MalformedInputError.
func Canonicalize(raw *Raw) (*Canonical, error) {
	if raw == nil {
		return nil, malformed(errors.New("nil topology"))
	}
	var errs error
	var keys []string
	for i, n := range raw.Nodes {
		if n.PublicKey == "" {
			errs = multierr.Append(errs, fmt.Errorf("node[%d]: empty identifier", i))
			continue
		}
		keys = append(keys, n.PublicKey)
	}
	keys = setfamily.NewSet(keys...)

	c := &Canonical{
		keys:  keys,
		names: make([]string, len(keys)),
		index: make(map[string]fbas.ID, len(keys)),
		qsets: make([]*QSet, len(keys)),
	}
	for i, k := range keys {
		c.index[k] = fbas.ID(i)
	}

	encodings := make([]string, len(keys))
	defined := make([]bool, len(keys))
	for _, n := range raw.Nodes {
		id, ok := c.index[n.PublicKey]
		if !ok {
			continue
		}
		var (
			qs  *QSet
			enc = "-"
		)
		if n.QuorumSet != nil {
			var err error
			qs, enc, err = c.canonicalizeQSet(n.QuorumSet, fmt.Sprintf("node %q", n.PublicKey))
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
		}
		if defined[id] && encodings[id] != enc {
			errs = multierr.Append(errs, fmt.Errorf("node %q: conflicting definitions", n.PublicKey))
			continue
		}
		defined[id] = true
		encodings[id] = enc
		c.qsets[id] = qs
		if c.names[id] == "" {
			c.names[id] = n.Name
		}
	}
	if errs != nil {
		return nil, malformed(errs)
	}

	var buf bytes.Buffer
	for i, k := range keys {
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		buf.WriteString(encodings[i])
		buf.WriteByte('\n')
	}
	c.encoding = buf.Bytes()
	c.digest = sha3.Sum256(c.encoding)
	return c, nil
}

func (c *Canonical) canonicalizeQSet(q *QuorumSet, path string) (qs *QSet, enc string, err error) {
	if q.Threshold <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s: non-positive threshold %d", path, q.Threshold))
	}
	type inner struct {
		qs  QSet
		enc string
	}
	var (
		validators []fbas.ID
		inners     []inner
	)
	for i, m := range q.Members {
		p := fmt.Sprintf("%s.members[%d]", path, i)
		switch m := m.(type) {
		case NodeRef:
			if m == "" {
				err = multierr.Append(err, fmt.Errorf("%s: empty identifier", p))
				continue
			}
			if id, ok := c.index[string(m)]; ok {
				validators = append(validators, id)
			}
		case *QuorumSet:
			if m == nil {
				err = multierr.Append(err, fmt.Errorf("%s: nil quorum set", p))
				continue
			}
			sub, subEnc, subErr := c.canonicalizeQSet(m, p)
			if subErr != nil {
				err = multierr.Append(err, subErr)
				continue
			}
			inners = append(inners, inner{qs: *sub, enc: subEnc})
		default:
			err = multierr.Append(err, fmt.Errorf("%s: unsupported member %T", p, m))
		}
	}
	if err != nil {
		return nil, "", err
	}

	slices.SortFunc(inners, func(a, b inner) int { return strings.Compare(a.enc, b.enc) })
	inners = slices.CompactFunc(inners, func(a, b inner) bool { return a.enc == b.enc })

	qs = &QSet{Threshold: q.Threshold, Validators: setfamily.NewSet(validators...)}
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(q.Threshold))
	sb.WriteByte('(')
	for i, v := range qs.Validators {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(v.String())
	}
	sb.WriteByte('|')
	for i, in := range inners {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(in.enc)
		qs.Inner = append(qs.Inner, in.qs)
	}
	sb.WriteByte(')')
	return qs, sb.String(), nil
}

// Len returns the number of participants.
func (c *Canonical) Len() int {
	return len(c.keys)
}

// IDs returns the identifiers of all participants in ascending order.
func (c *Canonical) IDs() []fbas.ID {
	ids := make([]fbas.ID, len(c.keys))
	for i := range ids {
		ids[i] = fbas.ID(i)
	}
	return ids
}

// PublicKey returns the public identifier of the participant.
func (c *Canonical) PublicKey(id fbas.ID) string {
	if int(id) >= len(c.keys) {
		return ""
	}
	return c.keys[id]
}

// Name returns the name of the participant, if its description had one.
func (c *Canonical) Name(id fbas.ID) string {
	if int(id) >= len(c.names) {
		return ""
	}
	return c.names[id]
}

// Lookup returns the identifier of the participant with the given public identifier.
func (c *Canonical) Lookup(publicKey string) (fbas.ID, bool) {
	id, ok := c.index[publicKey]
	return id, ok
}

// Resolve looks up the given public identifiers. It returns the identifiers found,
// sorted and without duplicates, and the public identifiers that are not part of the topology.
func (c *Canonical) Resolve(publicKeys []string) (ids []fbas.ID, unknown []string) {
	for _, pk := range publicKeys {
		if id, ok := c.index[pk]; ok {
			ids = append(ids, id)
		} else {
			unknown = append(unknown, pk)
		}
	}
	return setfamily.NewSet(ids...), unknown
}

// QuorumSet returns the canonical quorum set of the participant,
// or nil if the participant has none.
func (c *Canonical) QuorumSet(id fbas.ID) *QSet {
	if int(id) >= len(c.qsets) {
		return nil
	}
	return c.qsets[id]
}

// Digest returns the SHA3-256 hash of the canonical encoding.
func (c *Canonical) Digest() Digest {
	return c.digest
}

// Equal returns true if both topologies have the same canonical encoding.
func (c *Canonical) Equal(other *Canonical) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.digest == other.digest && bytes.Equal(c.encoding, other.encoding)
}

func (c *Canonical) String() string {
	return fmt.Sprintf("Canonical{nodes: %d, digest: %s}", len(c.keys), c.digest.String()[:16])
}

type jsonCanonicalSet struct {
	Threshold int   `json:"threshold"`
	Members   []any `json:"members"`
}

func (c *Canonical) toJSON(q *QSet) *jsonCanonicalSet {
	js := &jsonCanonicalSet{Threshold: q.Threshold, Members: []any{}}
	for _, v := range q.Validators {
		js.Members = append(js.Members, c.keys[v])
	}
	for i := range q.Inner {
		js.Members = append(js.Members, c.toJSON(&q.Inner[i]))
	}
	return js
}

// MarshalJSON encodes the topology in the map encoding accepted by Parse.
// Parsing and canonicalizing the output yields an Equal topology.
func (c *Canonical) MarshalJSON() ([]byte, error) {
	m := make(map[string]*jsonCanonicalSet, len(c.keys))
	for i, k := range c.keys {
		if q := c.qsets[i]; q != nil {
			m[k] = c.toJSON(q)
		} else {
			m[k] = nil
		}
	}
	return json.Marshal(m)
}
