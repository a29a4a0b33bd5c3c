package fbas_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/relab/fbas"
)

func TestParseUnknownIDPolicy(t *testing.T) {
	for _, p := range []fbas.UnknownIDPolicy{fbas.Ignore, fbas.Reject} {
		got, err := fbas.ParseUnknownIDPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseUnknownIDPolicy(%q) = %v, %v; want %v", p.String(), got, err, p)
		}
	}
	if got, err := fbas.ParseUnknownIDPolicy(""); err != nil || got != fbas.Ignore {
		t.Errorf("ParseUnknownIDPolicy(\"\") = %v, %v; want %v", got, err, fbas.Ignore)
	}
	if _, err := fbas.ParseUnknownIDPolicy("warn"); err == nil {
		t.Error("ParseUnknownIDPolicy(\"warn\") succeeded")
	}
}

func TestCheck(t *testing.T) {
	if err := fbas.Ignore.Check("exclusion list", []string{"Z"}); err != nil {
		t.Errorf("Ignore.Check() = %v, want nil", err)
	}
	if err := fbas.Reject.Check("exclusion list", nil); err != nil {
		t.Errorf("Reject.Check(nil) = %v, want nil", err)
	}
	err := fbas.Reject.Check("exclusion list", []string{"Y", "Z"})
	if !fbas.IsUnknownIdentifier(err) {
		t.Fatalf("Reject.Check() = %v, want unknown identifier", err)
	}
	if want := "exclusion list references unknown identifiers: Y, Z"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestEngineFailure(t *testing.T) {
	timeout := fmt.Errorf("%w: %w", fbas.ErrEngineTimeout, errors.New("deadline"))
	var err error = &fbas.EngineFailure{Err: timeout}
	var failure *fbas.EngineFailure
	if !errors.As(err, &failure) || !failure.Timeout() {
		t.Errorf("EngineFailure{%v}.Timeout() = false", timeout)
	}
	if (&fbas.EngineFailure{Err: errors.New("crash")}).Timeout() {
		t.Error("EngineFailure{crash}.Timeout() = true")
	}
	wrapped := fmt.Errorf("request: %w", &fbas.MalformedInputError{Source: "topology", Err: errors.New("bad")})
	if !fbas.IsMalformed(wrapped) || fbas.IsEngineFailure(wrapped) {
		t.Errorf("classification of %v is wrong", wrapped)
	}
}
