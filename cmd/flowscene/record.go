package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/phanxgames/flowscene"
	"github.com/spf13/cobra"
)

var recordDuration time.Duration

var recordCmd = &cobra.Command{
	Use:   "record <source>",
	Short: "Record a diagram's animation to a PNG frame sequence",
	Long: `Record opens the player, captures frames for --duration and writes them
as frame_00001.png... into --record-dir, then exits. Encode them with e.g.
ffmpeg -framerate 60 -i frame_%05d.png out.mp4.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		p, cleanup, err := newPlayer(ctx, args[0])
		if err != nil {
			return err
		}
		defer cleanup()

		d := recordDuration
		if d <= 0 {
			d = settings.RecordDuration
		}
		script := fmt.Sprintf(`{"steps":[{"action":"wait","frames":2},{"action":"record","seconds":%g}]}`, d.Seconds())
		runner, err := flowscene.LoadTestScript([]byte(script))
		if err != nil {
			return err
		}
		p.SetTestRunner(runner)
		p.ExitWhenDone = true

		if err := flowscene.Run(p, flowscene.RunConfig{Title: "flowscene - recording " + filepath.Base(args[0])}); err != nil {
			return err
		}
		successf("frames written to %s", recordDir)
		return nil
	},
}

func init() {
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 0, "recording length (default from settings)")
	recordCmd.Flags().StringVar(&recordDir, "record-dir", "recording", "directory for recorded frames")
	recordCmd.Flags().StringVar(&screenshotDir, "screenshots", flowscene.DefaultScreenshotDir, "screenshot directory")
}
