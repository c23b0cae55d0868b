package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/doceo/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths
	processFile  = flag.String("process", "", "Process a single transcript file")
	processDir   = flag.String("dir", "", "Process every transcript in a directory")
	buildCourse  = flag.Bool("build", false, "Reconcile and export a course after processing (-dir)")
	watchMode    = flag.Bool("watch", false, "Keep rebuilding the directory on the configured schedule")
	showStatus   = flag.Bool("status", false, "Show ledger status and exit")
	offline      = flag.Bool("offline", false, "Run without a generative provider (canned replies)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Doceo version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup sequence:
	// 1. Load config (defaults -> files -> env)
	// 2. Apply CLI overrides
	// 3. Initialize logger
	// 4. Print banner

	if len(configFiles) == 0 {
		if _, err := os.Stat("doceo.toml"); err == nil {
			configFiles = append(configFiles, "doceo.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	if *offline {
		config.LLM.DefaultProvider = "mock"
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Str("provider", config.LLM.DefaultProvider).
		Str("sqlite_path", config.Storage.SQLite.Path).
		Str("log_level", config.Logging.Level).
		Int("max_workers", config.Pipeline.MaxWorkers).
		Msg("Configuration loaded")

	if err := run(); err != nil {
		logger.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}
