package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/config"
	"github.com/mamadbah2/herdbook/internal/repository/mongodb"
	"github.com/mamadbah2/herdbook/internal/repository/sheets"
	"github.com/mamadbah2/herdbook/internal/scheduler"
	"github.com/mamadbah2/herdbook/internal/server/handlers"
	"github.com/mamadbah2/herdbook/internal/server/router"
	"github.com/mamadbah2/herdbook/internal/service/inbox"
	"github.com/mamadbah2/herdbook/internal/service/reconcile"
	"github.com/mamadbah2/herdbook/internal/service/schedule"
	sweepsvc "github.com/mamadbah2/herdbook/internal/service/sweep"
	"github.com/mamadbah2/herdbook/pkg/clients/push"
	"github.com/mamadbah2/herdbook/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := mongodb.NewStore(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	db := store.Database()
	reminderRepo := mongodb.NewReminderRepository(db)
	notificationRepo := mongodb.NewNotificationRepository(db)
	snapshotRepo := mongodb.NewSnapshotRepository(db)
	animalRepo := mongodb.NewAnimalRepository(db)
	ledgerRepo := mongodb.NewLedgerRepository(db)
	husbandryRepo := mongodb.NewHusbandryRepository(db)
	userRepo := mongodb.NewUserRepository(db)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIndexes()
	if err := reminderRepo.EnsureIndexes(indexCtx); err != nil {
		baseLogger.Fatal("failed to ensure reminder indexes", zap.Error(err))
	}
	if err := snapshotRepo.EnsureIndexes(indexCtx); err != nil {
		baseLogger.Fatal("failed to ensure snapshot indexes", zap.Error(err))
	}

	var mirror sheets.Mirror
	if cfg.SheetsEnabled() {
		mirror, err = sheets.NewGoogleSheetMirror(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets mirror", zap.Error(err))
		}
		baseLogger.Info("snapshot sheet mirror enabled")
	}

	var pusher sweepsvc.Pusher
	if cfg.PushEnabled() {
		pusher = push.NewClient(cfg.Push)
		baseLogger.Info("urgent-notification push enabled")
	}

	inboxSvc := inbox.NewService(notificationRepo, userRepo, logger.Named(baseLogger, "svc.inbox"))
	generator := schedule.NewGenerator(schedule.DefaultRuleTable(), reminderRepo, husbandryRepo, inboxSvc, logger.Named(baseLogger, "svc.schedule"))
	dispatcher := sweepsvc.NewDispatcher(reminderRepo, ledgerRepo, inboxSvc, pusher, logger.Named(baseLogger, "svc.sweep"))
	reconcileSvc := reconcile.NewService(snapshotRepo, animalRepo, ledgerRepo, mirror, logger.Named(baseLogger, "svc.reconcile"))

	hookHandler := handlers.NewHookHandler(generator, logger.Named(baseLogger, "handlers.hooks"))
	reminderHandler := handlers.NewReminderHandler(reminderRepo, dispatcher, logger.Named(baseLogger, "handlers.reminders"))
	notificationHandler := handlers.NewNotificationHandler(inboxSvc, logger.Named(baseLogger, "handlers.notifications"))
	snapshotHandler := handlers.NewSnapshotHandler(reconcileSvc, logger.Named(baseLogger, "handlers.snapshots"))

	engine := router.New(hookHandler, reminderHandler, notificationHandler, snapshotHandler, logger.Named(baseLogger, "router"))

	sched, err := scheduler.NewScheduler(cfg.Sweep, dispatcher, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
