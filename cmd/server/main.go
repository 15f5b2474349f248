package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/po-workflow/internal/application/dispatcher"
	"github.com/garyjia/po-workflow/internal/application/workflow"
	"github.com/garyjia/po-workflow/internal/config"
	"github.com/garyjia/po-workflow/internal/domain/authz"
	"github.com/garyjia/po-workflow/internal/domain/event"
	domainwf "github.com/garyjia/po-workflow/internal/domain/workflow"
	"github.com/garyjia/po-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/po-workflow/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/garyjia/po-workflow/internal/interfaces/http"
	"github.com/garyjia/po-workflow/migrations"
	"github.com/garyjia/po-workflow/pkg/database"
	"github.com/garyjia/po-workflow/pkg/logger"
)

func main() {
	configPath := "configs/config.yaml"
	if p := os.Getenv("POWF_CONFIG"); p != "" {
		configPath = p
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting purchase-order workflow service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		BusyTimeout:     cfg.Database.BusyTimeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	var migrationFS fs.FS = migrations.FS
	if cfg.Database.MigrationsDir != "" {
		migrationFS = os.DirFS(cfg.Database.MigrationsDir)
	}
	if err := database.NewMigrator(db, log).Run(ctx, migrationFS); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize persistence
	txDB := sqlite.NewDB(db.DB, log)
	store := repository.NewMachineStore(
		repository.NewStateRepository(txDB, log),
		repository.NewHistoryRepository(txDB, log),
		txDB,
		log,
	)

	// Initialize event dispatcher
	disp := dispatcher.New(dispatcher.WithLogger(log.Sugar()))
	auditLog := log.Named("audit")
	disp.Subscribe(event.TypeStateChanged, "audit-log", func(ctx context.Context, evt *event.Event) error {
		auditLog.Info("State changed",
			zap.String("id", evt.MachineID),
			zap.String("actor", evt.Actor),
			zap.String("from", evt.Transition.From),
			zap.String("to", evt.Transition.To),
			zap.String("trigger", evt.Transition.Trigger),
			zap.Int64("sequence", evt.Transition.Sequence))
		return nil
	})
	disp.Subscribe(event.TypeTransitionRejected, "audit-log", func(ctx context.Context, evt *event.Event) error {
		auditLog.Warn("Transition rejected",
			zap.String("id", evt.MachineID),
			zap.String("actor", evt.Actor),
			zap.String("reason", evt.Reason))
		return nil
	})

	// Initialize workflow manager
	authorizer := authz.New(cfg.Authorization.ToAuthz())
	manager := workflow.NewManager(store, authorizer, log, workflow.WithDispatcher(disp))

	action := workflow.NewLoggingAction(log)
	for _, def := range []*domainwf.Definition{
		workflow.PurchaseOrderDefinition(),
		workflow.ExecutionDefinition(),
	} {
		if err := manager.Register(def, workflow.ActionsFor(def, action)); err != nil {
			log.Fatal("Failed to register workflow", zap.String("workflow", def.Name), zap.Error(err))
		}
	}

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, manager, log.Sugar())

	if err := server.Start(ctx); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
	}

	// Let in-flight event handlers finish before the database closes
	if err := disp.Close(); err != nil {
		log.Warn("Dispatcher close", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
