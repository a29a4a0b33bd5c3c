// Package testutil provides helper methods that are useful for implementing tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/relab/fbas/engine"
	"github.com/relab/fbas/internal/mocks"
	"github.com/relab/fbas/topology"
)

// Canonicalize canonicalizes the raw topology and fails the test on error.
func Canonicalize(t testing.TB, raw *topology.Raw) *topology.Canonical {
	t.Helper()
	c, err := topology.Canonicalize(raw)
	if err != nil {
		t.Fatalf("failed to canonicalize topology: %v", err)
	}
	return c
}

// Keys returns n public identifiers with the given prefix, e.g. N00, N01, ...
func Keys(prefix string, n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s%02d", prefix, i)
	}
	return keys
}

// Symmetric returns a canonical topology where every node requires threshold of the given nodes.
func Symmetric(t testing.TB, threshold int, keys ...string) *topology.Canonical {
	t.Helper()
	return Canonicalize(t, topology.Symmetric(threshold, keys...))
}

// CreateMockEngine returns a mock engine that expects to be called the given number
// of times and returns res each time.
func CreateMockEngine(t *testing.T, ctrl *gomock.Controller, res *engine.Result, times int) *mocks.MockEngine {
	t.Helper()

	e := mocks.NewMockEngine(ctrl)
	e.
		EXPECT().
		Analyze(gomock.Any(), gomock.Any()).
		Times(times).
		Return(res, nil)

	return e
}
