// Package profiling starts and stops the runtime profilers of the command line tool.
package profiling

import (
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/felixge/fgprof"
	"go.uber.org/multierr"
)

// Paths are the files that profiles are written to. Empty paths disable the profile.
type Paths struct {
	CPU    string
	Mem    string
	Trace  string
	Fgprof string
}

// Start starts the enabled profilers. The returned function stops them and writes
// the memory profile. If Start fails, the profilers it started are stopped.
func Start(paths Paths) (stop func() error, err error) {
	var stops []func() error
	stopAll := func() (err error) {
		// stop in reverse order of starting
		for i := len(stops) - 1; i >= 0; i-- {
			err = multierr.Append(err, stops[i]())
		}
		return err
	}

	if paths.CPU != "" {
		f, err := os.Create(paths.CPU)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return nil, multierr.Combine(err, f.Close(), stopAll())
		}
		stops = append(stops, func() error {
			pprof.StopCPUProfile()
			return f.Close()
		})
	}

	if paths.Fgprof != "" {
		f, err := os.Create(paths.Fgprof)
		if err != nil {
			return nil, multierr.Append(err, stopAll())
		}
		fgprofStop := fgprof.Start(f, fgprof.FormatPprof)
		stops = append(stops, func() error {
			return multierr.Append(fgprofStop(), f.Close())
		})
	}

	if paths.Trace != "" {
		f, err := os.Create(paths.Trace)
		if err != nil {
			return nil, multierr.Append(err, stopAll())
		}
		if err := trace.Start(f); err != nil {
			return nil, multierr.Combine(err, f.Close(), stopAll())
		}
		stops = append(stops, func() error {
			trace.Stop()
			return f.Close()
		})
	}

	return func() error {
		err := writeHeapProfile(paths.Mem)
		return multierr.Append(err, stopAll())
	}, nil
}

func writeHeapProfile(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	runtime.GC() // get up-to-date statistics
	return multierr.Append(pprof.WriteHeapProfile(f), f.Close())
}
