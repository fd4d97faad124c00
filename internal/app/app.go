// Package app wires configuration, data source and pipeline into the batch and server
// entry points.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/stickplot/internal/controllers/management"
	"github.com/chrissnell/stickplot/internal/controllers/restserver"
	"github.com/chrissnell/stickplot/internal/erddap"
	"github.com/chrissnell/stickplot/internal/pipeline"
	"github.com/chrissnell/stickplot/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	source         pipeline.DataSource
	logger         *zap.SugaredLogger
}

// New creates an application that fetches from ERDDAP over HTTP.
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return NewWithSource(configProvider, erddap.NewClient(nil, logger), logger)
}

// NewWithSource creates an application reading from source.
func NewWithSource(configProvider config.ConfigProvider, source pipeline.DataSource, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		source:         source,
		logger:         logger,
	}
}

// RunSummary reports the outcome of a batch run.
type RunSummary struct {
	RunID   string
	Written []*pipeline.Result
	Skipped []string
	Failed  []string
}

// RunPlots renders every configured plot, or only the named one when only is set.
// A plot with no data in range is skipped and does not fail the run; every other
// failure is collected into the returned error.
func (a *App) RunPlots(ctx context.Context, only string) (*RunSummary, error) {
	summary := &RunSummary{RunID: uuid.NewString()}
	logger := a.logger.With("run_id", summary.RunID)

	plots, err := a.configProvider.GetPlots()
	if err != nil {
		return summary, fmt.Errorf("error loading plots: %w", err)
	}
	if only != "" {
		p, err := (&config.ConfigData{Plots: plots}).Plot(only)
		if err != nil {
			return summary, err
		}
		plots = []config.PlotData{*p}
	}

	pl := pipeline.New(a.source, logger)
	var errs error
	for _, p := range plots {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}

		job, err := pipeline.JobFromConfig(p)
		if err != nil {
			logger.Errorf("[%s] invalid configuration: %v", p.Name, err)
			summary.Failed = append(summary.Failed, p.Name)
			errs = multierr.Append(errs, err)
			continue
		}

		res, err := pl.Run(ctx, job)
		switch {
		case pipeline.IsNoData(err):
			logger.Infof("[%s] No data available for depths %s", job.Name, job.DepthLabel())
			summary.Skipped = append(summary.Skipped, job.Name)
		case err != nil:
			logger.Errorf("[%s] %v", job.Name, err)
			summary.Failed = append(summary.Failed, job.Name)
			errs = multierr.Append(errs, fmt.Errorf("plot %s: %w", job.Name, err))
		default:
			logger.Infow("plot written",
				"plot", res.Name,
				"output", res.Output,
				"vectors", res.Vectors,
				"depths", res.Depths,
				"max_speed", res.Summary.MaxSpeed,
				"duration", res.Duration,
			)
			summary.Written = append(summary.Written, res)
		}
	}

	logger.Infof("run complete: %d written, %d skipped, %d failed",
		len(summary.Written), len(summary.Skipped), len(summary.Failed))
	return summary, errs
}

// Serve runs the HTTP server and blocks until a shutdown signal or ctx is cancelled.
func (a *App) Serve(ctx context.Context, env *config.ServerEnv) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctrl, err := restserver.NewController(ctx, &wg, a.configProvider, env, a.source, a.logger)
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	if env.ManagementPort != 0 {
		store, ok := a.configProvider.(config.PlotStore)
		if !ok || store.IsReadOnly() {
			a.logger.Warnf("management API disabled: the %s config backend is read-only", env.ConfigBackend)
		} else if err := management.NewController(ctx, &wg, store, env, ctrl, a.logger).StartController(); err != nil {
			return err
		}
	}

	a.logger.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	cancel()

	a.logger.Info("waiting for the server to stop...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
