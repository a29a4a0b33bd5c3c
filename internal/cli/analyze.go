package cli

import (
	"encoding/json"
	"fmt"

	"github.com/relab/fbas/analyzer"
	"github.com/relab/fbas/cache"
	"github.com/relab/fbas/engine/bruteforce"
	"github.com/relab/fbas/grouping"
	"github.com/relab/fbas/internal/config"
	"github.com/relab/fbas/internal/profiling"
	"github.com/relab/fbas/logging"
	"github.com/relab/fbas/topology"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <topology>",
		Short: "Analyze a topology.",
		Long: `The analyze command decides quorum intersection for a topology and writes a JSON
report to standard output.

The topology file holds either a JSON object mapping each public identifier to its
quorum set, {"<id>": {"threshold": n, "members": ["<id>", {nested}]}}, or a JSON
array of node records with "publicKey" and "quorumSet" fields. Organization, ISP and
country metadata are taken from node records and from the file given by '--metadata'.

Use '--exclude' to list participants that are assumed to be faulty. The report then
includes the views that remain after removing them, and whether quorum intersection
still holds when they behave arbitrarily.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().Duration("engine-timeout", 0, "upper limit on the duration of one analysis (0 means no limit)")
	cmd.Flags().Int("max-nodes", bruteforce.DefaultMaxNodes, "largest number of participants to analyze")
	cmd.Flags().Int("cache-size", 0, "number of analysis results to keep (0 means unbounded)")
	cmd.Flags().String("unknown-ids", "ignore", "how to treat unknown identifiers in exclusions and metadata (ignore, reject)")
	cmd.Flags().StringSlice("dimensions", []string{}, "grouping dimensions to report (organization, isp, country); default is all")

	cmd.Flags().StringSlice("exclude", nil, "public identifiers of participants to exclude")
	cmd.Flags().String("metadata", "", "JSON or YAML file with grouping metadata")
	cmd.Flags().Int("repeat", 1, "number of times to run the analysis")
	cmd.Flags().Bool("compact", false, "write the report without indentation")

	cmd.Flags().String("output", "", "the directory to save profiles to (disabled by default)")
	cmd.Flags().Bool("cpu-profile", false, "enable cpu profiling")
	cmd.Flags().Bool("mem-profile", false, "enable memory profiling")
	cmd.Flags().Bool("trace", false, "enable trace")
	cmd.Flags().Bool("fgprof-profile", false, "enable fgprof")

	cobra.CheckErr(viper.BindPFlags(cmd.Flags()))
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) (err error) {
	cfg, err := config.NewViper()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	metadataFile, _ := cmd.Flags().GetString("metadata")
	repeat, _ := cmd.Flags().GetInt("repeat")
	compact, _ := cmd.Flags().GetBool("compact")

	cpu, mem, trace, fgprof := cfg.ProfilePaths()
	stopProfilers, err := profiling.Start(profiling.Paths{CPU: cpu, Mem: mem, Trace: trace, Fgprof: fgprof})
	if err != nil {
		return fmt.Errorf("failed to start profilers: %w", err)
	}
	defer func() {
		err = multierr.Append(err, stopProfilers())
	}()

	logger := logging.New("cli")
	logger.Debugf("configuration: %v", cfg)

	raw, err := topology.ParseFile(args[0])
	if err != nil {
		return err
	}
	metadata := grouping.FromNodes(raw)
	if metadataFile != "" {
		m, err := grouping.LoadFile(metadataFile)
		if err != nil {
			return err
		}
		metadata = metadata.Merge(m)
	}

	a, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}
	var report *analyzer.Report
	for n := max(repeat, 1); n > 0; n-- {
		report, err = a.Analyze(cmd.Context(), analyzer.Request{
			Raw:      raw,
			Exclude:  exclude,
			Metadata: metadata,
		})
		if err != nil {
			return err
		}
	}
	stats := a.Cache().Stats()
	logger.Infow("analysis complete",
		"digest", report.Digest,
		"hits", stats.Hits,
		"misses", stats.Misses,
		"intersection", report.HasQuorumIntersection,
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}

func newAnalyzer(cfg *config.Config) (*analyzer.Analyzer, error) {
	e := bruteforce.New(
		bruteforce.WithMaxNodes(cfg.MaxNodes),
		bruteforce.WithLogger(logging.New("bruteforce")),
	)
	return analyzer.NewWithEngine(e,
		[]cache.Option{
			cache.WithCapacity(cfg.CacheSize),
			cache.WithTimeout(cfg.EngineTimeout),
			cache.WithLogger(logging.New("cache")),
		},
		analyzer.WithUnknownIDPolicy(cfg.UnknownIDs),
		analyzer.WithDimensions(cfg.Dimensions...),
		analyzer.WithLogger(logging.New("analyzer")),
	)
}
