package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lyrasnap/internal/bootstrap"
	"lyrasnap/internal/metrics"
	snapshotsvc "lyrasnap/internal/services/snapshot"
	"lyrasnap/pkg/logger"
)

func main() {
	c := bootstrap.NewContainer()
	c.MustInit()

	// SIGINT/SIGTERM cancel an in-flight run
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if c.Config.Snapshot.Interval > 0 {
		err = runPeriodic(ctx, c)
	} else {
		err = runOnce(ctx, c)
	}

	stop()
	c.Shutdown()

	if err != nil {
		os.Exit(1)
	}
}

// runOnce takes a single snapshot, prints the preview and pushes metrics
func runOnce(ctx context.Context, c *bootstrap.Container) error {
	result, err := c.Snapshot.Run(ctx)

	m := c.Config.Metrics
	if pushErr := metrics.Push(ctx, m.PushgatewayURL, m.Job, c.Config.Snapshot.Currency); pushErr != nil {
		c.Log.Warnw("Metrics push failed", "error", pushErr)
	}
	if err != nil {
		c.Log.Warnw("Snapshot failed", "error", err)
		return err
	}

	printPreview(result, c.Log)
	return nil
}

// runPeriodic takes a snapshot on every interval until a shutdown signal
func runPeriodic(ctx context.Context, c *bootstrap.Container) error {
	c.MustInitBackground(func(result *snapshotsvc.Result) {
		printPreview(result, c.Log)
	})

	if err := c.Scheduler.Start(ctx); err != nil {
		c.Log.Errorf("Failed to start workers: %v", err)
		return err
	}
	c.Log.Infow("Periodic mode started", "interval", c.Config.Snapshot.Interval)

	<-ctx.Done()
	c.Log.Info("Shutdown signal received")
	return nil
}

func printPreview(result *snapshotsvc.Result, log *logger.Logger) {
	if len(result.Preview) == 0 {
		log.Warnw("No tradable rows to preview", "path", result.Report.OutputPath)
		return
	}
	if err := snapshotsvc.WritePreview(os.Stdout, result.Preview); err != nil {
		log.Warnw("Preview failed", "error", err)
	}
}
