package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/relab/fbas"
	"github.com/relab/fbas/grouping"
	"github.com/spf13/viper"
)

// NewViper returns the configuration bound in viper by the command line flags,
// environment variables and the config file.
func NewViper() (*Config, error) {
	policy, err := fbas.ParseUnknownIDPolicy(viper.GetString("unknown-ids"))
	if err != nil {
		return nil, err
	}
	dims, err := grouping.ParseDimensions(viper.GetStringSlice("dimensions"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		EngineTimeout: viper.GetDuration("engine-timeout"),
		MaxNodes:      viper.GetInt("max-nodes"),
		CacheSize:     viper.GetInt("cache-size"),
		UnknownIDs:    policy,
		Dimensions:    dims,
		LogLevel:      viper.GetString("log-level"),
		LogPackages:   viper.GetStringSlice("log-pkgs"),
		Output:        viper.GetString("output"),
		CPUProfile:    viper.GetBool("cpu-profile"),
		MemProfile:    viper.GetBool("mem-profile"),
		Trace:         viper.GetBool("trace"),
		FgprofProfile: viper.GetBool("fgprof-profile"),
	}

	if cfg.EngineTimeout < 0 {
		return nil, fmt.Errorf("negative engine timeout %v", cfg.EngineTimeout)
	}
	if cfg.MaxNodes <= 0 {
		return nil, fmt.Errorf("max-nodes must be positive, got %d", cfg.MaxNodes)
	}
	if len(cfg.Dimensions) == 0 {
		cfg.Dimensions = grouping.Dimensions()
	}

	if cfg.Output != "" {
		cfg.Output, err = filepath.Abs(cfg.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %v", err)
		}

		err = os.MkdirAll(cfg.Output, 0o755)
		if err != nil {
			return nil, fmt.Errorf("failed to create output directory: %v", err)
		}
	}

	return cfg, nil
}
