package topology

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/relab/fbas"
	"go.uber.org/multierr"
)

// jsonQuorumSet accepts both quorum-set encodings:
// {"threshold": n, "members": ["id", {...}]} and
// {"threshold": n, "validators": ["id"], "innerQuorumSets": [{...}]}.
type jsonQuorumSet struct {
	Threshold       *int              `json:"threshold"`
	Members         []json.RawMessage `json:"members"`
	Validators      []string          `json:"validators"`
	InnerQuorumSets []*jsonQuorumSet  `json:"innerQuorumSets"`
}

type jsonGeoData struct {
	CountryCode string `json:"countryCode"`
	CountryName string `json:"countryName"`
}

type jsonNode struct {
	PublicKey      string         `json:"publicKey"`
	Name           string         `json:"name"`
	QuorumSet      *jsonQuorumSet `json:"quorumSet"`
	OrganizationID string         `json:"organizationId"`
	ISP            string         `json:"isp"`
	GeoData        *jsonGeoData   `json:"geoData"`
}

// empty returns true for the quorum set that node-array inputs use for
// participants without a configuration: threshold 0 and no members.
func (q *jsonQuorumSet) empty() bool {
	return q.Threshold != nil && *q.Threshold == 0 &&
		len(q.Members) == 0 && len(q.Validators) == 0 && len(q.InnerQuorumSets) == 0
}

func (q *jsonQuorumSet) convert(path string) (qs *QuorumSet, err error) {
	qs = &QuorumSet{}
	switch {
	case q.Threshold == nil:
		err = multierr.Append(err, fmt.Errorf("%s: missing threshold", path))
	case *q.Threshold <= 0:
		err = multierr.Append(err, fmt.Errorf("%s: non-positive threshold %d", path, *q.Threshold))
	default:
		qs.Threshold = *q.Threshold
	}
	for i, v := range q.Validators {
		if v == "" {
			err = multierr.Append(err, fmt.Errorf("%s.validators[%d]: empty identifier", path, i))
			continue
		}
		qs.Members = append(qs.Members, NodeRef(v))
	}
	for i, inner := range q.InnerQuorumSets {
		p := fmt.Sprintf("%s.innerQuorumSets[%d]", path, i)
		if inner == nil {
			err = multierr.Append(err, fmt.Errorf("%s: null quorum set", p))
			continue
		}
		m, innerErr := inner.convert(p)
		err = multierr.Append(err, innerErr)
		qs.Members = append(qs.Members, m)
	}
	for i, raw := range q.Members {
		p := fmt.Sprintf("%s.members[%d]", path, i)
		m, memberErr := convertMember(p, raw)
		if memberErr != nil {
			err = multierr.Append(err, memberErr)
			continue
		}
		qs.Members = append(qs.Members, m)
	}
	return qs, err
}

func convertMember(path string, raw json.RawMessage) (Member, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: empty member", path)
	}
	switch raw[0] {
	case '"':
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if id == "" {
			return nil, fmt.Errorf("%s: empty identifier", path)
		}
		return NodeRef(id), nil
	case '{':
		var inner jsonQuorumSet
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return inner.convert(path)
	default:
		return nil, fmt.Errorf("%s: member must be an identifier or a quorum set, got %s", path, raw)
	}
}

// Parse parses a JSON topology. Two encodings are accepted:
//
// A map from public identifier to quorum set:
//
//	{"A": {"threshold": 2, "members": ["A", "B", {"threshold": 1, "members": ["C", "D"]}]}}
//
// An array of node records:
//
//	[{"publicKey": "A", "quorumSet": {"threshold": 2, "validators": ["A", "B"], "innerQuorumSets": []},
//	  "organizationId": "org", "isp": "isp", "geoData": {"countryCode": "NO"}}]
//
// A node may be defined more than once; Canonicalize decides whether the definitions conflict.
// Schema violations are returned as a *fbas.MalformedInputError listing every problem found.
func Parse(data []byte) (*Raw, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, malformed(errors.New("empty input"))
	}
	var (
		raw *Raw
		err error
	)
	switch data[0] {
	case '{':
		raw, err = parseMap(data)
	case '[':
		raw, err = parseNodes(data)
	default:
		err = errors.New("expected a JSON object or array")
	}
	if err != nil {
		return nil, malformed(err)
	}
	return raw, nil
}

// ParseFile reads and parses a JSON topology file.
func ParseFile(path string) (*Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

func malformed(err error) error {
	return &fbas.MalformedInputError{Source: "topology", Err: err}
}

// parseMap decodes the map encoding token by token, so that repeated keys
// are kept as separate definitions instead of being overwritten.
func parseMap(data []byte) (*Raw, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	raw := &Raw{}
	var errs error
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var q *jsonQuorumSet
		if err := dec.Decode(&q); err != nil {
			return nil, fmt.Errorf("node %q: %w", key, err)
		}
		if key == "" {
			errs = multierr.Append(errs, errors.New("node with empty identifier"))
			continue
		}
		node := Node{PublicKey: key}
		if q != nil {
			node.QuorumSet, err = q.convert(fmt.Sprintf("node %q", key))
			errs = multierr.Append(errs, err)
		}
		raw.Nodes = append(raw.Nodes, node)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if errs != nil {
		return nil, errs
	}
	return raw, nil
}

func parseNodes(data []byte) (*Raw, error) {
	var nodes []*jsonNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, err
	}
	raw := &Raw{}
	var errs error
	for i, n := range nodes {
		if n == nil || n.PublicKey == "" {
			errs = multierr.Append(errs, fmt.Errorf("node[%d]: missing publicKey", i))
			continue
		}
		node := Node{
			PublicKey:    n.PublicKey,
			Name:         n.Name,
			Organization: n.OrganizationID,
			ISP:          n.ISP,
		}
		if n.GeoData != nil {
			node.CountryCode = n.GeoData.CountryCode
			node.CountryName = n.GeoData.CountryName
		}
		if n.QuorumSet != nil && !n.QuorumSet.empty() {
			var err error
			node.QuorumSet, err = n.QuorumSet.convert(fmt.Sprintf("node %q: quorumSet", n.PublicKey))
			errs = multierr.Append(errs, err)
		}
		raw.Nodes = append(raw.Nodes, node)
	}
	if errs != nil {
		return nil, errs
	}
	return raw, nil
}
