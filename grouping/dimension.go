package grouping

import (
	"fmt"
	"strings"
)

// Dimension is an attribute by which participants are grouped.
type Dimension int

const (
	// Organization groups participants by the organization that operates them.
	Organization Dimension = iota
	// ISP groups participants by their hosting provider.
	ISP
	// Country groups participants by the country they are located in.
	Country

	numDimensions
)

// Dimensions returns all dimensions in their canonical order.
func Dimensions() []Dimension {
	return []Dimension{Organization, ISP, Country}
}

func (d Dimension) String() string {
	switch d {
	case Organization:
		return "organization"
	case ISP:
		return "isp"
	case Country:
		return "country"
	default:
		return fmt.Sprintf("Dimension(%d)", int(d))
	}
}

// ParseDimension parses a dimension name. Plural forms are accepted.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "organization", "organizations", "org", "orgs":
		return Organization, nil
	case "isp", "isps":
		return ISP, nil
	case "country", "countries":
		return Country, nil
	default:
		return 0, fmt.Errorf("invalid grouping dimension '%s'", s)
	}
}

// ParseDimensions parses a list of dimension names, dropping repetitions.
func ParseDimensions(names []string) ([]Dimension, error) {
	var (
		dims []Dimension
		seen [numDimensions]bool
	)
	for _, name := range names {
		d, err := ParseDimension(name)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			dims = append(dims, d)
		}
	}
	return dims, nil
}

// MarshalText implements encoding.TextMarshaler, so that dimensions can be used as JSON map keys.
func (d Dimension) MarshalText() ([]byte, error) {
	if d < 0 || d >= numDimensions {
		return nil, fmt.Errorf("invalid grouping dimension %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dimension) UnmarshalText(text []byte) error {
	v, err := ParseDimension(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
