package flowscene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/radovskyb/watcher"
)

// DefaultPollInterval is how often SourceWatcher polls the source file.
const DefaultPollInterval = 100 * time.Millisecond

// SourceWatcher re-extracts a diagram source whenever it changes on disk.
// Bursts of writes collapse into one extraction DebounceDelay after the
// last change.
type SourceWatcher struct {
	Path      string
	Extractor *Extractor
	// Delay is the debounce window. Default DebounceDelay.
	Delay time.Duration
	// PollInterval is the file polling period. Default DefaultPollInterval.
	PollInterval time.Duration
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (sw *SourceWatcher) logger() *slog.Logger {
	if sw.Logger != nil {
		return sw.Logger
	}
	return slog.Default()
}

// Run extracts the source once, then watches it until ctx is done. The
// initial extraction's error is returned only when the file cannot be
// watched at all; compile errors are recorded on the scene store.
func (sw *SourceWatcher) Run(ctx context.Context) error {
	if sw.Extractor == nil {
		return errors.New("flowscene: watch: no extractor")
	}
	path, err := filepath.Abs(sw.Path)
	if err != nil {
		return fmt.Errorf("flowscene: watch: %w", err)
	}

	sched := NewScheduler(sw.Delay, func() {
		if err := sw.Extractor.ExtractFile(ctx, path); err != nil {
			sw.logger().Debug("flowscene: re-extraction failed", "path", path, "error", err)
		}
	})
	defer sched.Stop()
	sched.Flush()

	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write, watcher.Create, watcher.Rename, watcher.Move)
	if err := w.Add(path); err != nil {
		return fmt.Errorf("flowscene: watch %s: %w", path, err)
	}

	interval := sw.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	started := make(chan error, 1)
	go func() { started <- w.Start(interval) }()
	defer w.Close()

	sw.logger().Info("flowscene: watching source", "path", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-w.Event:
			sw.logger().Debug("flowscene: source changed", "op", ev.Op.String(), "path", ev.Path)
			sched.Schedule()
		case err := <-w.Error:
			if errors.Is(err, watcher.ErrWatchedFileDeleted) {
				sw.logger().Warn("flowscene: source deleted", "path", path)
				continue
			}
			sw.logger().Error("flowscene: watcher", "error", err)
		case err := <-started:
			if err != nil {
				return fmt.Errorf("flowscene: watch %s: %w", path, err)
			}
			return nil
		case <-w.Closed:
			return nil
		}
	}
}
