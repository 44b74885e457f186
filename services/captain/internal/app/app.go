package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/appetiteclub/captain/pkg"
	"github.com/appetiteclub/captain/pkg/event"
	"github.com/appetiteclub/captain/pkg/lib/core"
	"github.com/appetiteclub/captain/services/captain/internal/gateway"
	"github.com/appetiteclub/captain/services/captain/internal/ordering"
	"github.com/appetiteclub/captain/services/captain/internal/screen"
	"github.com/appetiteclub/captain/services/captain/internal/session"
)

const (
	Namespace  = "CAPTAIN"
	AppName    = "captain"
	AppVersion = "0.1.0"

	shutdownTimeout = 10 * time.Second
)

// Defaults are the lowest precedence configuration values.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"web.port":                     ":8090",
		"log.level":                    "info",
		"api.timeout":                  "15s",
		"api.device_header":            gateway.DefaultDeviceHeader,
		"ordering.reservation_enabled": true,
		"session.store":                "memory",
		"db.mongo.url":                 "mongodb://localhost:27017",
		"db.mongo.name":                "captain",
		"screen.session_ttl":           "30m",
	}
}

// Lifecycle is implemented by components that hold connections.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// LifecycleHooks adapts plain functions to Lifecycle.
type LifecycleHooks struct {
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

func (h LifecycleHooks) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart(ctx)
}

func (h LifecycleHooks) Stop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}
	return h.OnStop(ctx)
}

// App wires the captain service together.
type App struct {
	config     *core.Config
	logger     core.Logger
	server     *http.Server
	registry   *screen.Registry
	sessionTTL time.Duration
	lifecycles []Lifecycle
}

func New(config *core.Config, logger core.Logger) (*App, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	return &App{
		config: config,
		logger: logger,
	}, nil
}

// Initialize builds every component. Nothing connects until Run.
func (a *App) Initialize(ctx context.Context) error {
	store, err := a.sessionStore()
	if err != nil {
		return err
	}

	var publisher event.Publisher = event.NoopPublisher{}
	var subscriber event.Subscriber
	if natsURL, _ := a.config.GetString("nats.url"); natsURL != "" {
		natsPublisher, err := pkg.NewNATSPublisher(natsURL)
		if err != nil {
			return err
		}
		natsSubscriber, err := pkg.NewNATSSubscriber(natsURL, a.logger)
		if err != nil {
			natsPublisher.Close()
			return err
		}
		publisher, subscriber = natsPublisher, natsSubscriber
		a.lifecycles = append(a.lifecycles, LifecycleHooks{
			OnStop: func(context.Context) error {
				natsSubscriber.Close()
				return natsPublisher.Close()
			},
		})
		a.logger.Info("NATS events enabled", "url", natsURL)
	} else {
		a.logger.Info("nats.url not set, captain events are not published")
	}

	a.sessionTTL, _ = a.config.GetDuration("screen.session_ttl")
	a.registry = screen.NewRegistry(a.sessionTTL, a.logger)

	// A redirect to login ends every open order screen.
	gate := gateway.NewLoginGate(gateway.NavigatorFunc(func(context.Context) {
		closed := a.registry.CloseAll()
		a.logger.Info("login required", "closed_order_sessions", closed)
	}))

	gw, err := gateway.NewFromConfig(a.config, store, gate, a.logger, gateway.WithPublisher(publisher))
	if err != nil {
		return fmt.Errorf("cannot setup api gateway: %w", err)
	}

	backend := ordering.NewAPI(gw)
	submitter := ordering.NewAPISubmitter(gw)
	reservationEnabled, _ := a.config.GetBool("ordering.reservation_enabled")

	factory := func(params ordering.Params) *ordering.Workflow {
		return ordering.NewWorkflow(backend, params,
			ordering.WithSubmitter(submitter),
			ordering.WithPublisher(publisher),
			ordering.WithLogger(a.logger),
			ordering.WithReservation(reservationEnabled),
		)
	}

	handler := screen.NewHandler(store, gate, a.registry, factory, a.logger)
	listener := screen.NewTableEventListener(subscriber, a.registry, a.logger)
	a.lifecycles = append(a.lifecycles, listener)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(a.logger))
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"` + AppName + `"}`))
	})
	handler.RegisterRoutes(r)

	port, _ := a.config.GetString("web.port")
	a.server = &http.Server{
		Addr:              listenAddr(port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

func (a *App) sessionStore() (session.Store, error) {
	kind, _ := a.config.GetString("session.store")
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "memory":
		return session.NewMemoryStore(), nil
	case "mongo":
		store := session.NewMongoStore(a.config, a.logger)
		a.lifecycles = append(a.lifecycles, store)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session.store %q", kind)
	}
}

// Run starts the components and serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.server == nil {
		return errors.New("app not initialized")
	}

	started := 0
	for _, lc := range a.lifecycles {
		if err := lc.Start(ctx); err != nil {
			a.stop(a.lifecycles[:started])
			return err
		}
		started++
	}
	defer a.stop(a.lifecycles)

	interval := a.sessionTTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	a.registry.StartCleanup(ctx, interval)

	a.logger.Infof("Starting %s(%s) on %s", AppName, AppVersion, a.server.Addr)
	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}

func (a *App) stop(lifecycles []Lifecycle) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(lifecycles) - 1; i >= 0; i-- {
		if err := lifecycles[i].Stop(ctx); err != nil {
			a.logger.Error("component stop failed", "error", err)
		}
	}
}

func listenAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8090"
	}
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func requestLogger(logger core.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).String(),
			)
		})
	}
}
