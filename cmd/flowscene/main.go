// Command flowscene plays rendered diagrams with animated message flow.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/phanxgames/flowscene"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	debug       bool
	tierFlag    string
	colorFlag   string
	speedFlag   float64
	compilerCmd string
	useBrowser  bool
	browserURL  string

	settings flowscene.Settings
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "flowscene",
	Short:         "Animate message flow over rendered diagrams",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		var err error
		settings, err = resolveSettings(cmd)
		return err
	},
}

// resolveSettings layers defaults, the config file, FLOWSCENE_* variables
// and explicit flags, in that order.
func resolveSettings(cmd *cobra.Command) (flowscene.Settings, error) {
	s := flowscene.DefaultSettings()
	if configPath != "" {
		var err error
		if s, err = flowscene.LoadSettingsFile(configPath); err != nil {
			return s, err
		}
	}
	s, err := flowscene.ApplyEnv(s)
	if err != nil {
		warnf("%v", err)
	}
	flags := cmd.Flags()
	if flags.Changed("tier") {
		t, ok := flowscene.ParseStyleTier(tierFlag)
		if !ok {
			return s, fmt.Errorf("invalid --tier %q", tierFlag)
		}
		s.Tier = t
	}
	if flags.Changed("color") {
		c, ok := flowscene.ParseColor(colorFlag)
		if !ok {
			return s, fmt.Errorf("invalid --color %q", colorFlag)
		}
		s.ParticleColor = c
	}
	if flags.Changed("speed") {
		s.SpeedMultiplier = speedFlag
	}
	if debug {
		s.Debug = true
	}
	return s.Normalize(), nil
}

// newExtractor wires a scene store to the configured compiler and geometry
// backend. The returned cleanup closes the browser, if one was started.
func newExtractor(ctx context.Context, store *flowscene.SceneStore) (*flowscene.Extractor, func(), error) {
	x := &flowscene.Extractor{
		Store:    store,
		Compiler: flowscene.CommandCompiler{Command: compilerCmd},
		Logger:   logger,
	}
	if !useBrowser && browserURL == "" {
		return x, func() {}, nil
	}
	m, err := flowscene.NewBrowserMeasurer(ctx, flowscene.BrowserConfig{RemoteURL: browserURL, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	x.Geometry = m
	return x, func() {
		if err := m.Close(); err != nil {
			logger.Warn("close browser", "error", err)
		}
	}, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "settings file (.toml, .yaml)")
	pf.BoolVar(&debug, "debug", false, "debug logging and per-frame stats")
	pf.StringVar(&tierFlag, "tier", "premium", "style tier: draft or premium")
	pf.StringVar(&colorFlag, "color", "#3b82f6", "particle color")
	pf.Float64Var(&speedFlag, "speed", 1, "particle speed multiplier (0.1-5)")
	pf.StringVar(&compilerCmd, "compiler", "", "diagram compiler command for non-SVG sources (default mmdc)")
	pf.BoolVar(&useBrowser, "browser", false, "measure paths with headless Chrome")
	pf.StringVar(&browserURL, "browser-url", "", "DevTools URL of a running Chrome (implies --browser)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(recordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		errorf("%v", err)
		os.Exit(1)
	}
}
