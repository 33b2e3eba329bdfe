package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/phanxgames/flowscene"
	"github.com/spf13/cobra"
)

var (
	watchSource   bool
	scriptPath    string
	screenshotDir string
	recordDir     string
	exitWhenDone  bool
)

var playCmd = &cobra.Command{
	Use:   "play <source>",
	Short: "Open a window animating a diagram",
	Long: `Play extracts the diagram (an .svg file, or source text run through the
compiler) and animates it. With --watch the source is re-extracted after
every change; a failed compile keeps the last good scene on screen.

Keys: T toggles the tier, +/- change speed, R records, S takes a screenshot.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		p, cleanup, err := newPlayer(ctx, args[0])
		if err != nil {
			return err
		}
		defer cleanup()

		if scriptPath != "" {
			data, err := os.ReadFile(scriptPath)
			if err != nil {
				return err
			}
			runner, err := flowscene.LoadTestScript(data)
			if err != nil {
				return err
			}
			p.SetTestRunner(runner)
			p.ExitWhenDone = exitWhenDone
			defer func() {
				for _, f := range runner.Failures() {
					warnf("%s", f)
				}
			}()
		}

		return flowscene.Run(p, flowscene.RunConfig{
			Title:     "flowscene - " + filepath.Base(args[0]),
			Resizable: true,
		})
	},
}

// newPlayer extracts source once (and keeps watching it with --watch),
// then builds a player over the resulting store.
func newPlayer(ctx context.Context, source string) (*flowscene.Player, func(), error) {
	store := flowscene.NewSceneStore()
	x, closeBrowser, err := newExtractor(ctx, store)
	if err != nil {
		return nil, nil, err
	}
	cleanup := closeBrowser

	if watchSource {
		wctx, cancel := context.WithCancel(ctx)
		w := &flowscene.SourceWatcher{Path: source, Extractor: x, Logger: logger}
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := w.Run(wctx); err != nil {
				errorf("%v", err)
			}
		}()
		cleanup = func() {
			cancel()
			<-done
			closeBrowser()
		}
	} else if err := x.ExtractFile(ctx, source); err != nil {
		closeBrowser()
		return nil, nil, err
	}

	p, err := flowscene.NewPlayer(store, flowscene.NewSettingsStore(settings), nil)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	p.SetLogger(logger)
	p.ScreenshotDir = screenshotDir
	p.Recorder = flowscene.NewRecorder(flowscene.PNGSequenceEncoder{Dir: recordDir})
	p.Recorder.Logger = logger
	return p, cleanup, nil
}

func init() {
	playCmd.Flags().BoolVarP(&watchSource, "watch", "w", false, "re-extract when the source changes")
	playCmd.Flags().StringVar(&scriptPath, "script", "", "JSON test script to run")
	playCmd.Flags().BoolVar(&exitWhenDone, "exit", false, "exit once the test script finishes")
	playCmd.Flags().StringVar(&screenshotDir, "screenshots", flowscene.DefaultScreenshotDir, "screenshot directory")
	playCmd.Flags().StringVar(&recordDir, "record-dir", "recording", "directory for recorded frames")
}
