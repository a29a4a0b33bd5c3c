package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/relab/fbas"
	"github.com/relab/fbas/grouping"
)

// Config holds the configuration of an analysis session.
type Config struct {
	// EngineTimeout bounds each engine invocation. Zero means no bound.
	EngineTimeout time.Duration
	// MaxNodes is the largest topology the exhaustive engine accepts.
	MaxNodes int
	// CacheSize bounds the number of cached results. Zero means unbounded.
	CacheSize int
	// UnknownIDs is the policy for identifiers the topology does not define.
	UnknownIDs fbas.UnknownIDPolicy
	// Dimensions are the grouping dimensions to report.
	Dimensions []grouping.Dimension

	LogLevel    string
	LogPackages []string

	// Output is the directory to write profiles to. Profiling is disabled if it is empty.
	Output        string
	CPUProfile    bool
	MemProfile    bool
	Trace         bool
	FgprofProfile bool
}

// ProfilePaths returns the paths of the enabled profiles in the output directory.
// The path of a disabled profile is empty.
func (c *Config) ProfilePaths() (cpu, mem, trace, fgprof string) {
	if c.Output == "" {
		return "", "", "", ""
	}
	path := func(enabled bool, name string) string {
		if !enabled {
			return ""
		}
		return filepath.Join(c.Output, name)
	}
	return path(c.CPUProfile, "cpuprofile"),
		path(c.MemProfile, "memprofile"),
		path(c.Trace, "trace"),
		path(c.FgprofProfile, "fgprofprofile")
}

func (c *Config) String() string {
	dims := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		dims[i] = d.String()
	}
	s := strings.Builder{}
	s.WriteString("EngineTimeout: ")
	s.WriteString(c.EngineTimeout.String())
	s.WriteString(", MaxNodes: ")
	s.WriteString(strconv.Itoa(c.MaxNodes))
	s.WriteString(", CacheSize: ")
	s.WriteString(strconv.Itoa(c.CacheSize))
	s.WriteString(", UnknownIDs: ")
	s.WriteString(c.UnknownIDs.String())
	s.WriteString(", Dimensions: ")
	s.WriteString(strings.Join(dims, ", "))
	if c.Output != "" {
		fmt.Fprintf(&s, ", Output: %s", c.Output)
	}
	return s.String()
}
