// Package restserver serves configured stick plots and their vector data over HTTP.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/chrissnell/stickplot/internal/log"
	"github.com/chrissnell/stickplot/internal/pipeline"
	"github.com/chrissnell/stickplot/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	env            *config.ServerEnv
	configProvider config.ConfigProvider
	Server         http.Server
	mu             sync.RWMutex
	jobs           map[string]*pipeline.Job
	names          []string
	pipeline       *pipeline.Pipeline
	logger         *zap.SugaredLogger
	handlers       *Handlers
}

// NewController loads every configured plot and prepares the router. A plot with
// invalid settings fails startup.
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, env *config.ServerEnv, source pipeline.DataSource, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		env:            env,
		configProvider: configProvider,
		pipeline:       pipeline.New(source, logger),
		logger:         logger,
	}

	if err := ctrl.Reload(); err != nil {
		return nil, err
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = env.Addr()
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.env.Cert != "" && c.env.Key != "" {
			err = c.Server.ListenAndServeTLS(c.env.Cert, c.env.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(c.logger))

	router.HandleFunc("/healthz", c.handlers.Health).Methods(http.MethodGet)
	router.HandleFunc("/plots", c.handlers.ListPlots).Methods(http.MethodGet)
	router.HandleFunc("/plots/{name}/vectors", c.handlers.GetVectors).Methods(http.MethodGet)
	router.HandleFunc("/plots/{name}/render", c.handlers.RenderPlot).Methods(http.MethodGet)

	return router
}

// Reload rebuilds the plot table from the config provider. The running table is kept
// when any plot fails to validate.
func (c *Controller) Reload() error {
	plots, err := c.configProvider.GetPlots()
	if err != nil {
		return fmt.Errorf("error loading plots: %w", err)
	}
	if len(plots) == 0 {
		return fmt.Errorf("no plots configured - at least one plot must be configured for the REST server")
	}

	jobs := make(map[string]*pipeline.Job, len(plots))
	names := make([]string, 0, len(plots))
	for _, p := range plots {
		job, err := pipeline.JobFromConfig(p)
		if err != nil {
			return err
		}
		if job.Query.Timeout == 0 {
			job.Query.Timeout = c.env.FetchTimeout
		}
		jobs[job.Name] = job
		names = append(names, job.Name)
	}
	sort.Strings(names)

	c.mu.Lock()
	c.jobs, c.names = jobs, names
	c.mu.Unlock()

	c.logger.Infof("REST server loaded %d plots", len(names))
	return nil
}

func (c *Controller) job(name string) (*pipeline.Job, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	job, ok := c.jobs[name]
	return job, ok
}

// sortedJobs returns the loaded jobs ordered by name.
func (c *Controller) sortedJobs() []*pipeline.Job {
	c.mu.RLock()
	defer c.mu.RUnlock()
	jobs := make([]*pipeline.Job, 0, len(c.names))
	for _, name := range c.names {
		jobs = append(jobs, c.jobs[name])
	}
	return jobs
}
