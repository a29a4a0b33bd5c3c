package fbas

import "fmt"

// UnknownIDPolicy decides how identifiers that are absent from a topology are treated
// when they appear in an exclusion list or in grouping metadata.
// The same policy is applied to both inputs.
type UnknownIDPolicy int

const (
	// Ignore drops unknown identifiers. They cannot affect any result.
	Ignore UnknownIDPolicy = iota
	// Reject fails the request with an UnknownIdentifierError.
	Reject
)

func (p UnknownIDPolicy) String() string {
	switch p {
	case Ignore:
		return "ignore"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("UnknownIDPolicy(%d)", int(p))
	}
}

// ParseUnknownIDPolicy parses the names returned by UnknownIDPolicy.String.
func ParseUnknownIDPolicy(s string) (UnknownIDPolicy, error) {
	switch s {
	case "ignore", "":
		return Ignore, nil
	case "reject":
		return Reject, nil
	default:
		return Ignore, fmt.Errorf("invalid unknown identifier policy '%s'", s)
	}
}

// Check applies the policy to the unknown identifiers found in source.
// It returns nil if there are none or if they may be ignored.
func (p UnknownIDPolicy) Check(source string, unknown []string) error {
	if len(unknown) == 0 || p == Ignore {
		return nil
	}
	return &UnknownIdentifierError{Source: source, IDs: unknown}
}
