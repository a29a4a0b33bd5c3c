package grouping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/relab/fbas"
	"github.com/relab/fbas/topology"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Group is the group a participant belongs to in one dimension.
// Participants with equal labels belong to the same group.
type Group struct {
	Label string `json:"label" yaml:"label"`
	// Name is an optional display name. The label is displayed if it is empty.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Display returns the name of the group, or its label if it has no name.
func (g Group) Display() string {
	if g.Name != "" {
		return g.Name
	}
	return g.Label
}

// groupAlias has the fields of Group without its methods.
type groupAlias Group

// UnmarshalJSON accepts either a group object or a bare label string.
func (g *Group) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*g = Group{Label: label}
		return nil
	}
	var a groupAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*g = Group(a)
	return nil
}

// UnmarshalYAML accepts either a group mapping or a bare label scalar.
func (g *Group) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*g = Group{Label: value.Value}
		return nil
	}
	var a groupAlias
	if err := value.Decode(&a); err != nil {
		return err
	}
	*g = Group(a)
	return nil
}

// Metadata maps public identifiers to groups, per dimension.
// The zero value is empty metadata, ready to use.
type Metadata struct {
	groups [numDimensions]map[string]Group
}

// NewMetadata returns empty metadata.
func NewMetadata() *Metadata {
	m := &Metadata{}
	for d := range m.groups {
		m.groups[d] = make(map[string]Group)
	}
	return m
}

// Set assigns the participant to a group in the given dimension.
func (m *Metadata) Set(d Dimension, publicKey string, g Group) {
	if m.groups[d] == nil {
		m.groups[d] = make(map[string]Group)
	}
	m.groups[d][publicKey] = g
}

// Lookup returns the group of the participant in the given dimension.
func (m *Metadata) Lookup(d Dimension, publicKey string) (Group, bool) {
	if m == nil {
		return Group{}, false
	}
	g, ok := m.groups[d][publicKey]
	return g, ok
}

// Keys returns the sorted public identifiers that have a group in the given dimension.
func (m *Metadata) Keys(d Dimension) []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.groups[d]))
	for k := range m.groups[d] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of participants that have a group in the given dimension.
func (m *Metadata) Len(d Dimension) int {
	if m == nil {
		return 0
	}
	return len(m.groups[d])
}

// Merge returns new metadata with the entries of m, overridden by those of other.
// Either may be nil.
func (m *Metadata) Merge(other *Metadata) *Metadata {
	merged := NewMetadata()
	for _, src := range []*Metadata{m, other} {
		if src == nil {
			continue
		}
		for d := range src.groups {
			for k, g := range src.groups[d] {
				merged.groups[d][k] = g
			}
		}
	}
	return merged
}

// validate reports every entry without a public identifier or label, labels that
// are given different names, and names that are given to different labels.
func (m *Metadata) validate() (err error) {
	for _, d := range Dimensions() {
		err = multierr.Append(err, m.validateDimension(d))
	}
	return err
}

func (m *Metadata) validateDimension(d Dimension) (err error) {
	names := make(map[string]string)  // label -> name
	labels := make(map[string]string) // name -> label
	for _, k := range m.Keys(d) {
		g := m.groups[d][k]
		switch {
		case k == "":
			err = multierr.Append(err, fmt.Errorf("%s: empty identifier", d))
		case g.Label == "":
			err = multierr.Append(err, fmt.Errorf("%s[%q]: empty label", d, k))
		}
		if g.Name == "" {
			continue
		}
		if name, ok := names[g.Label]; ok && name != g.Name {
			err = multierr.Append(err, fmt.Errorf("%s[%q]: label %q named both %q and %q", d, k, g.Label, name, g.Name))
			continue
		}
		if label, ok := labels[g.Name]; ok && label != g.Label {
			err = multierr.Append(err, fmt.Errorf("%s[%q]: name %q given to both %q and %q", d, k, g.Name, label, g.Label))
			continue
		}
		names[g.Label] = g.Name
		labels[g.Name] = g.Label
	}
	return err
}

// fileFormat is the layout of metadata files.
type fileFormat struct {
	Organization map[string]Group `json:"organization" yaml:"organization"`
	ISP          map[string]Group `json:"isp" yaml:"isp"`
	Country      map[string]Group `json:"country" yaml:"country"`
}

func fromFile(f *fileFormat) (*Metadata, error) {
	m := NewMetadata()
	for d, groups := range map[Dimension]map[string]Group{
		Organization: f.Organization,
		ISP:          f.ISP,
		Country:      f.Country,
	} {
		for k, g := range groups {
			m.Set(d, k, g)
		}
	}
	if err := m.validate(); err != nil {
		return nil, malformed(err)
	}
	return m, nil
}

// ParseJSON parses metadata of the form
//
//	{"organization": {"<id>": {"label": "...", "name": "..."}}, "isp": {...}, "country": {...}}
//
// A group may also be given as a bare label string.
func ParseJSON(data []byte) (*Metadata, error) {
	var f fileFormat
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, malformed(err)
	}
	return fromFile(&f)
}

// ParseYAML parses metadata in the layout accepted by ParseJSON.
func ParseYAML(data []byte) (*Metadata, error) {
	var f fileFormat
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, malformed(err)
	}
	return fromFile(&f)
}

// LoadFile reads metadata from a JSON or YAML file, chosen by the file extension.
func LoadFile(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, malformed(fmt.Errorf("unsupported file extension '%s'", ext))
	}
}

// FromNodes derives metadata from the organization, ISP and location fields of
// node-array topologies. Empty fields are skipped.
func FromNodes(raw *topology.Raw) *Metadata {
	m := NewMetadata()
	for _, n := range raw.Nodes {
		if n.PublicKey == "" {
			continue
		}
		if n.Organization != "" {
			m.Set(Organization, n.PublicKey, Group{Label: n.Organization})
		}
		if n.ISP != "" {
			m.Set(ISP, n.PublicKey, Group{Label: n.ISP})
		}
		if n.CountryCode != "" {
			m.Set(Country, n.PublicKey, Group{Label: n.CountryCode, Name: n.CountryName})
		}
	}
	return m
}

func malformed(err error) error {
	return &fbas.MalformedInputError{Source: "metadata", Err: err}
}
