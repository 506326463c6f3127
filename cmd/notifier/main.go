// Command notifier runs the email delivery engine and notification store
// behind the operations HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/daoboard/notifier/pkg/autouser"
	"github.com/daoboard/notifier/pkg/config"
	"github.com/daoboard/notifier/pkg/delivery"
	"github.com/daoboard/notifier/pkg/directory"
	"github.com/daoboard/notifier/pkg/environment"
	"github.com/daoboard/notifier/pkg/httpserver"
	"github.com/daoboard/notifier/pkg/logger"
	mongodb "github.com/daoboard/notifier/pkg/mongo"
	"github.com/daoboard/notifier/pkg/notifications"
	"github.com/daoboard/notifier/pkg/opsapi"
	"github.com/daoboard/notifier/pkg/redis"
)

type appConfig struct {
	Env             string        `env:"APP_ENV" envDefault:"development"`
	Service         string        `env:"SERVICE_NAME" envDefault:"notifier"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	Delivery      delivery.Config
	Notifications notifications.Config
	Mongo         mongodb.Config
	Redis         redis.Config
	HTTP          httpserver.Config
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load[appConfig](config.WithOptionalEnvFiles(".env"))
	if err != nil {
		return err
	}

	env := environment.Parse(cfg.Env)
	log := logger.New(
		logger.WithEnvironment(env, cfg.Service),
		logger.WithContextValue("request_id", opsapi.RequestIDKey),
	)
	logger.SetAsDefault(log)

	if env.IsTest() {
		cfg.Delivery.DryRun = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		checks   []opsapi.Check
		snapshot delivery.SnapshotStore = delivery.NewFileSnapshot(cfg.Delivery.QueueFile)
		storage  notifications.Storage
		users    directory.Users   = directory.NewMemoryUsers()
		records  directory.Records = directory.NewMemoryRecords()
		db       *mongo.Database
		rdb      *goredis.Client
	)

	if cfg.Redis.Enabled() {
		rdb, err = redis.Connect(ctx, cfg.Redis, log)
		if err != nil {
			return err
		}
		defer rdb.Close()
		snapshot = delivery.NewRedisSnapshot(rdb, cfg.Redis.SnapshotKey, log)
		checks = append(checks, opsapi.Check{Name: "redis", Fn: redis.Healthcheck(rdb)})
	}

	if cfg.Mongo.Enabled() {
		db, err = mongodb.Open(ctx, cfg.Mongo, log)
		if err != nil {
			return err
		}
		defer func() { _ = mongodb.Close(context.Background(), db) }()
		mongoStorage := notifications.NewMongoStorage(db, "")
		if err := mongoStorage.EnsureIndexes(ctx); err != nil {
			log.WarnContext(ctx, "notification indexes not created", logger.Error(err))
		}
		storage = mongoStorage
		users = directory.NewMongoUsers(db)
		records = directory.NewMongoRecords(db)
		checks = append(checks, opsapi.Check{Name: "mongo", Fn: mongodb.Healthcheck(db)})
	} else {
		log.WarnContext(ctx, "MONGODB_URL not set: notifications are kept in memory only")
	}

	engine := delivery.NewEngine(cfg.Delivery, delivery.WithLogger(log), delivery.WithSnapshot(snapshot))
	if err := engine.Start(ctx); err != nil {
		return err
	}

	store := notifications.NewStore(cfg.Notifications,
		notifications.WithLogger(log),
		notifications.WithStorage(storage),
		notifications.WithMailer(engine),
		notifications.WithDirectory(users, records),
	)
	if err := store.Start(ctx); err != nil {
		return err
	}

	auditLog := autouser.NewLog()
	syncer := autouser.NewSyncer(users, auditLog,
		autouser.WithLogger(log),
		autouser.WithNotifier(store),
	)

	router := opsapi.Router(opsapi.Options{
		Delivery:  engine,
		Inbox:     store,
		AutoUsers: auditLog,
		Teams:     syncer,
		Records:   records,
		Checks:    checks,
		Logger:    log,
	})

	log.InfoContext(ctx, "notifier starting",
		slog.String("env", env.String()),
		slog.Bool("dry_run", cfg.Delivery.DryRun),
		slog.Bool("mongo", db != nil),
		slog.Bool("redis", rdb != nil),
	)
	serveErr := httpserver.New(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, router)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := store.Shutdown(shutdownCtx); err != nil {
		log.WarnContext(shutdownCtx, "notification store shutdown incomplete", logger.Error(err))
	}
	if err := engine.Shutdown(shutdownCtx); err != nil {
		log.WarnContext(shutdownCtx, "delivery engine shutdown incomplete", logger.Error(err))
	}
	log.InfoContext(shutdownCtx, "notifier stopped")
	return serveErr
}
