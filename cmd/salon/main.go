package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/salon-scheduler/internal/adapters"
	"github.com/example/salon-scheduler/internal/application"
	"github.com/example/salon-scheduler/internal/config"
	httptransport "github.com/example/salon-scheduler/internal/http"
	"github.com/example/salon-scheduler/internal/logging"
	"github.com/example/salon-scheduler/internal/notify"
	"github.com/example/salon-scheduler/internal/persistence"
	"github.com/example/salon-scheduler/internal/persistence/memory"
	"github.com/example/salon-scheduler/internal/persistence/mongo"
	"github.com/example/salon-scheduler/internal/persistence/sqlite"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to build logger", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("salon scheduler stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := store.Close(closeCtx); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	broker := notify.NewBroker(logger)
	var publisher application.EventPublisher = broker
	var bridge *notify.RedisBridge
	if cfg.RedisAddr != "" {
		bridge, err = notify.NewRedisBridge(ctx, notify.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Channel:  cfg.RedisChannel,
		}, broker, logger)
		if err != nil {
			return err
		}
		defer bridge.Close()
		publisher = bridge
	}

	app := newApp(cfg, store, broker, publisher, time.Now, logger)
	if cfg.SeedDefaultStaff {
		if _, err := app.staff.EnsureDefaultStaff(ctx, application.DefaultStaff()); err != nil {
			return fmt.Errorf("seed default staff: %w", err)
		}
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.handler,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("salon scheduler listening", "addr", server.Addr, "storage", cfg.StorageBackend, "timezone", cfg.Location.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})
	if bridge != nil {
		g.Go(func() error {
			return bridge.Run(gctx)
		})
	}
	return g.Wait()
}

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory storage; data is lost on exit")
		return memory.New(), nil
	case config.BackendMongo:
		storage, err := mongo.Connect(ctx, mongo.Config{URI: cfg.MongoURI, Database: cfg.MongoDatabase}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return storage, nil
	case config.BackendSQLite, "":
		storage, err := sqlite.Open(ctx, sqlite.Config{DSN: cfg.SQLiteDSN}, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := storage.Migrate(ctx); err != nil {
			_ = storage.Close(ctx)
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

type app struct {
	appointments *application.AppointmentService
	staff        *application.StaffService
	calendar     *application.CalendarService
	handler      http.Handler
}

// newApp wires services and handlers over store. Events are published
// through publisher and streamed to websocket clients from broker.
func newApp(cfg config.Config, store persistence.Store, broker *notify.Broker, publisher application.EventPublisher, now func() time.Time, logger *slog.Logger) *app {
	appointmentRepo := adapters.NewAppointmentRepository(store, cfg.Location)
	staffRepo := adapters.NewStaffRepository(store, cfg.Location)

	appointmentService := application.NewAppointmentServiceWithLogger(appointmentRepo, staffRepo, publisher, now, logger)
	staffService := application.NewStaffServiceWithLogger(staffRepo, appointmentRepo, publisher, now, logger)
	calendarService := application.NewCalendarServiceWithLogger(appointmentRepo, broker, application.CalendarOptions{
		Location: cfg.Location,
		Hours:    cfg.BusinessHours,
		Layout:   cfg.Layout,
	}, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Appointments: httptransport.NewAppointmentHandler(appointmentService, cfg.Location, logger),
		Staff:        httptransport.NewStaffHandler(staffService, logger),
		Calendar:     httptransport.NewCalendarHandler(calendarService, cfg.Location, now, logger),
		Events:       httptransport.NewEventsHandler(broker, cfg.CORSOrigins, logger),
		Health:       httptransport.NewHealthHandler(store, logger),
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       logger,
	})

	return &app{
		appointments: appointmentService,
		staff:        staffService,
		calendar:     calendarService,
		handler:      router,
	}
}
