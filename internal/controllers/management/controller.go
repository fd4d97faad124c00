// Package management serves an authenticated API for editing plots in a writable
// configuration store.
package management

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/stickplot/internal/log"
	"github.com/chrissnell/stickplot/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Reloader is told to pick up configuration changes.
type Reloader interface {
	Reload() error
}

// Controller represents the management API controller
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	store     config.PlotStore
	env       *config.ServerEnv
	authToken string
	started   time.Time
	Server    http.Server
	logger    *zap.SugaredLogger
	handlers  *Handlers
	reloader  Reloader
}

// NewController creates a new management API controller. reloader may be nil.
func NewController(ctx context.Context, wg *sync.WaitGroup, store config.PlotStore, env *config.ServerEnv, reloader Reloader, logger *zap.SugaredLogger) *Controller {
	ctrl := &Controller{
		ctx:       ctx,
		wg:        wg,
		store:     store,
		env:       env,
		authToken: env.ManagementToken,
		started:   time.Now(),
		logger:    logger,
		reloader:  reloader,
	}

	if ctrl.authToken == "" {
		ctrl.authToken = generateAuthToken()
		logger.Info("═══════════════════════════════════════════════════════════════")
		logger.Info("        NEW MANAGEMENT API ACCESS TOKEN GENERATED             ")
		logger.Info("═══════════════════════════════════════════════════════════════")
		logger.Infof("   Token: %s", ctrl.authToken)
		logger.Infof("   Set %sMANAGEMENT_TOKEN to keep it across restarts", config.EnvPrefix)
		logger.Info("═══════════════════════════════════════════════════════════════")
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = env.ManagementAddr()
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl
}

// StartController starts the management API server
func (c *Controller) StartController() error {
	c.logger.Infof("Management API server starting on %s", c.Server.Addr)
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
			c.logger.Errorf("Management API server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the management API server...")
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

	api := router.PathPrefix("/api").Subrouter()
	api.Use(c.authMiddleware)

	api.HandleFunc("/status", c.handlers.GetStatus).Methods(http.MethodGet)
	api.HandleFunc("/plots", c.handlers.GetPlots).Methods(http.MethodGet)
	api.HandleFunc("/plots", c.handlers.CreatePlot).Methods(http.MethodPost)
	api.HandleFunc("/plots/validate", c.handlers.ValidatePlot).Methods(http.MethodPost)
	api.HandleFunc("/plots/{name}", c.handlers.GetPlot).Methods(http.MethodGet)
	api.HandleFunc("/plots/{name}", c.handlers.UpdatePlot).Methods(http.MethodPut)
	api.HandleFunc("/plots/{name}", c.handlers.DeletePlot).Methods(http.MethodDelete)
	api.HandleFunc("/reload", c.handlers.Reload).Methods(http.MethodPost)

	return router
}

// authMiddleware validates the bearer token
func (c *Controller) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if validToken(r.Header.Get("Authorization"), c.authToken) {
			next.ServeHTTP(w, r)
			return
		}
		c.logger.Debugf("Auth failed for %s", r.URL.Path)
		c.handlers.sendError(w, r, http.StatusUnauthorized, "Authentication required", nil)
	})
}
