package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fenilsonani/devcache/internal/catalog"
	"github.com/fenilsonani/devcache/internal/cleaner"
	"github.com/fenilsonani/devcache/internal/config"
	"github.com/fenilsonani/devcache/internal/history"
	"github.com/fenilsonani/devcache/internal/logging"
	"github.com/fenilsonani/devcache/internal/platform"
	"github.com/fenilsonani/devcache/internal/reporter"
	"github.com/fenilsonani/devcache/internal/scanner"
	"github.com/fenilsonani/devcache/internal/security"
	"github.com/fenilsonani/devcache/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// options holds the flag values of one command tree
type options struct {
	configDir string
	verbose   bool
	outputFmt string

	execute    bool
	global     bool
	categories []string
	maxDepth   int
	minSize    string
	yes        bool

	limit int

	initConfig  bool
	showExample bool
}

// app is the wiring shared by all subcommands
type app struct {
	cfg       *config.Config
	configDir string
	logger    *logging.Logger
	store     *history.Store
	reporter  *reporter.Reporter
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	scanCmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan for development caches (dry run unless -x)",
		Long: `Scans a directory tree for dependency folders, bytecode, build output and
other caches left behind by development tools. Nothing is deleted unless
--execute is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runScan(cmd, opts, root)
		},
	}

	rootCmd := &cobra.Command{
		Use:   "cacheclean",
		Short: "Dev Cache Cleaner - reclaim disk space from dev caches",
		Long: `cacheclean finds node_modules, __pycache__, target, build output and
package-manager caches, reports their size and optionally deletes them.
Every run is recorded in ~/.cacheclean/history.json.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, ".")
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent clean sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.logger.Close()
			return a.reporter.ReportHistory(a.store.Recent(opts.limit))
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show total space reclaimed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.logger.Close()
			return a.reporter.ReportStats(a.store.Stats())
		},
	}

	typesCmd := &cobra.Command{
		Use:   "types",
		Short: "List the cache types that are detected",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := reporter.ParseFormat(opts.outputFmt)
			if err != nil {
				return err
			}
			return reporter.New(cmd.OutOrStdout(), format).ReportTypes(catalog.Default())
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Display the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd, opts)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&opts.configDir, "config", "", "config directory (default ~/.cacheclean)")
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "log debug details")
	rootCmd.PersistentFlags().StringVar(&opts.outputFmt, "output", "summary", "output format (summary, json, yaml)")

	// Scan command flags
	scanCmd.Flags().BoolVarP(&opts.execute, "execute", "x", false, "actually delete (default is dry-run)")
	scanCmd.Flags().BoolVarP(&opts.global, "global", "g", false, "include global package-manager caches")
	scanCmd.Flags().StringArrayVarP(&opts.categories, "category", "c", nil, "filter by category (repeatable)")
	scanCmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "max scan depth (0 = unlimited)")
	scanCmd.Flags().StringVar(&opts.minSize, "min-size", "", "min size to show, e.g. 1MB (default from config)")
	scanCmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "skip confirmation")

	historyCmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "number of sessions to show")

	configCmd.Flags().BoolVar(&opts.initConfig, "init", false, "write the default config file if missing")
	configCmd.Flags().BoolVar(&opts.showExample, "example", false, "print an annotated example config")

	rootCmd.AddCommand(scanCmd, historyCmd, statsCmd, typesCmd, configCmd)
	return rootCmd
}

// newApp loads config and opens the logger and history store
func newApp(cmd *cobra.Command, opts *options) (*app, error) {
	configDir, err := resolveConfigDir(opts)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.GetConfigPath(configDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.LogOptions(configDir))
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	format, err := reporter.ParseFormat(opts.outputFmt)
	if err != nil {
		logger.Close()
		return nil, err
	}
	rptr := reporter.New(cmd.OutOrStdout(), format)
	rptr.SetTopN(cfg.TopN)

	store := history.NewStore(configDir, logger)
	logger.Debug("config %s, history %s", configDir, store.Path())

	return &app{
		cfg:       cfg,
		configDir: configDir,
		logger:    logger,
		store:     store,
		reporter:  rptr,
	}, nil
}

func resolveConfigDir(opts *options) (string, error) {
	if opts.configDir != "" {
		return filepath.Abs(opts.configDir)
	}
	dir, err := config.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return dir, nil
}

func runScan(cmd *cobra.Command, opts *options, path string) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.logger.Close()

	scanOpts, includeGlobal, err := scanOptions(cmd, opts, a.cfg)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	a.reporter.Header(root)
	a.logger.Info("scan %s (execute=%v, global=%v)", root, opts.execute, includeGlobal)

	scnr := scanner.New(catalog.Default(), a.logger)
	start := time.Now()

	matches, err := scnr.Scan(root, scanOpts)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if includeGlobal {
		info, err := platform.GetInfo()
		if err != nil {
			return fmt.Errorf("failed to get platform info: %w", err)
		}
		matches = scanner.Merge(matches, scnr.LocateGlobal(info, scanOpts.MinSize))
	}

	rep := &reporter.ScanReport{
		Root:    root,
		Matches: matches,
		Elapsed: time.Since(start),
	}
	if usage, err := platform.GetDiskUsage(root); err == nil {
		rep.Disk = usage
	} else {
		a.logger.Debug("%v", err)
	}

	if !a.reporter.Machine() {
		if err := a.reporter.Report(rep); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
	}

	clnr := cleaner.New(a.store, a.logger)
	clnr.SetConfirmer(ui.NewPrompt())
	clnr.SetPathValidator(pathValidator(a.cfg, a.configDir))

	result, cleanErr := clnr.Clean(matches, cleaner.Mode{DryRun: !opts.execute, SkipConfirm: opts.yes}, root)

	if a.reporter.Machine() {
		rep.Clean = result
		if err := a.reporter.Report(rep); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
	} else if err := a.reporter.ReportClean(result); err != nil {
		return err
	}

	return cleanErr
}

// scanOptions merges flags over config values
func scanOptions(cmd *cobra.Command, opts *options, cfg *config.Config) (scanner.Options, bool, error) {
	scanOpts := scanner.DefaultOptions()
	scanOpts.Categories = cfg.Categories
	scanOpts.MaxDepth = cfg.MaxDepth
	scanOpts.MinSize = cfg.MinSizeBytes()
	scanOpts.Exclude = cfg.ExcludePatterns

	flags := cmd.Flags()
	if flags.Lookup("category") != nil && flags.Changed("category") {
		cat := catalog.Default()
		for _, name := range opts.categories {
			if !cat.Known(name) {
				return scanOpts, false, fmt.Errorf("unknown category %q (valid: %s)", name, strings.Join(cat.Names(), ", "))
			}
		}
		scanOpts.Categories = opts.categories
	}
	if flags.Lookup("max-depth") != nil && flags.Changed("max-depth") {
		if opts.maxDepth < 0 {
			return scanOpts, false, fmt.Errorf("--max-depth must be >= 0")
		}
		scanOpts.MaxDepth = opts.maxDepth
	}
	if opts.minSize != "" {
		size, err := parseMinSize(opts.minSize)
		if err != nil {
			return scanOpts, false, err
		}
		scanOpts.MinSize = size
	}

	return scanOpts, opts.global || cfg.IncludeGlobal, nil
}

// pathValidator protects system paths, configured paths and the config dir
func pathValidator(cfg *config.Config, configDir string) *security.PathValidator {
	pv := security.NewPathValidator()
	for _, p := range cfg.ProtectedPaths {
		pv.AddProtectedPath(p)
	}
	pv.AddProtectedPath(configDir)
	return pv
}

func runConfig(cmd *cobra.Command, opts *options) error {
	out := cmd.OutOrStdout()

	if opts.showExample {
		fmt.Fprint(out, config.GetExampleConfig())
		return nil
	}

	configDir, err := resolveConfigDir(opts)
	if err != nil {
		return err
	}
	cfgPath := config.GetConfigPath(configDir)

	if opts.initConfig {
		if cfgPath, err = config.EnsureConfigExists(configDir); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	fmt.Fprintf(out, "Config file: %s\n", cfgPath)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "Config file does not exist. Using default configuration.")
		fmt.Fprintln(out, "Run \"cacheclean config --init\" to create it.")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintf(out, "\n%s", data)

	fmt.Fprintln(out, "\nProtected paths:")
	for _, p := range pathValidator(cfg, configDir).ProtectedPaths() {
		fmt.Fprintf(out, "  %s\n", p)
	}
	return nil
}
