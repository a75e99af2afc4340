package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"talesim/internal/config"
	"talesim/internal/diag"
	"talesim/internal/scenario"
	"talesim/internal/sim"
	"talesim/internal/worldfile"
)

// app carries the state shared by every subcommand: global flags and
// what setup derives from them.
type app struct {
	configPath string
	worldPath  string
	logLevel   string

	cfg    *config.ProjectConfig
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "talesim",
		Short:             "Rule-driven narrative world simulator",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Project config file (default "+config.DefaultFile+" when present)")
	pf.StringVarP(&a.worldPath, "world", "w", "", "World file to read, - for stdin (overrides the config)")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides the config)")

	root.AddCommand(a.catCmd())
	root.AddCommand(a.roundCmd())
	root.AddCommand(a.tryEventCmd())
	root.AddCommand(a.tryEventsCmd())
	root.AddCommand(a.validateCmd())
	root.AddCommand(a.queryCmd())
	root.AddCommand(a.historyCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger, err := newLogger(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// loadConfig reads --config, else talesim.yaml when it exists, else the
// defaults.
func (a *app) loadConfig() (*config.ProjectConfig, error) {
	path := a.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		path = config.DefaultFile
	}
	return config.LoadProjectConfig(path)
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// loadScenario parses the world named by --world or the config, or stdin
// when neither names one. Diagnostics are logged as they are collected.
func (a *app) loadScenario(cmd *cobra.Command) (*scenario.Scenario, *diag.Collector, error) {
	d := diag.New(a.logger)
	sc, err := a.parseWorld(cmd, d)
	return sc, d, err
}

func (a *app) parseWorld(cmd *cobra.Command, d *diag.Collector) (*scenario.Scenario, error) {
	path := a.worldPath
	if path == "" {
		path = a.cfg.Resolve(a.cfg.World)
	}
	if path == "" || path == "-" {
		return worldfile.Parse(cmd.InOrStdin(), d)
	}
	a.logger.Debug("loading world", "path", path)
	return worldfile.ParseFile(path, d)
}

// seed picks the --seed flag, then the config, then a random seed, which
// is logged so the run can be repeated.
func (a *app) seed(cmd *cobra.Command, flag uint64) uint64 {
	if cmd.Flags().Changed("seed") {
		return flag
	}
	if a.cfg.Seed != nil {
		return *a.cfg.Seed
	}
	s := sim.RandomSeed()
	a.logger.Info("using random seed", "seed", s)
	return s
}

func (a *app) vocabulary(path string) (*config.Vocabulary, error) {
	if path == "" {
		path = a.cfg.Resolve(a.cfg.Vocabulary)
	}
	if path == "" {
		return nil, nil
	}
	return config.LoadVocabulary(path)
}
