package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"rncflow/internal/bootstrap/config"
	"rncflow/internal/bootstrap/database"
	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/auth"
	cacheinfra "rncflow/internal/infrastructure/cache"
	"rncflow/internal/infrastructure/document"
	"rncflow/internal/infrastructure/filestore"
	"rncflow/internal/infrastructure/lock"
	"rncflow/internal/infrastructure/messaging"
	"rncflow/internal/infrastructure/persistence/sqlstore/repository"
	sqluow "rncflow/internal/infrastructure/persistence/sqlstore/uow"
	"rncflow/internal/ports"
	"rncflow/internal/transport/httpapi"
	"rncflow/internal/usecase/conserto"
	"rncflow/internal/usecase/devolucao"
	"rncflow/internal/usecase/evidence"
	"rncflow/internal/usecase/inc"
	"rncflow/internal/usecase/notification"
	"rncflow/internal/usecase/rnc"
)

const fxComponent = "bootstrap.fx"

// renderTimeout bounds document rendering inside the RNC creation
// transaction.
const renderTimeout = 20 * time.Second

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideLocation),
	fx.Provide(
		fx.Annotate(repository.NewINCRepository, fx.As(new(ports.INCRepository))),
		fx.Annotate(repository.NewRNCRepository, fx.As(new(ports.RNCRepository))),
		fx.Annotate(repository.NewDevolucaoRepository, fx.As(new(ports.DevolucaoRepository))),
		fx.Annotate(repository.NewConsertoRepository, fx.As(new(ports.ConsertoRepository))),
		fx.Annotate(repository.NewNotificationRepository, fx.As(new(ports.NotificationRepository))),
		fx.Annotate(repository.NewDirectoryRepository, fx.As(new(ports.Directory))),
	),
	fx.Provide(
		fx.Annotate(
			sqluow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideRedis),
	fx.Provide(provideCache),
	fx.Provide(provideLocker),
	fx.Provide(providePublisher),
	fx.Provide(provideFileStore),
	fx.Provide(provideRenderer),
	fx.Provide(provideEvidence),
	fx.Provide(provideTokens),
	fx.Provide(inc.NewService),
	fx.Provide(provideRNCService),
	fx.Provide(devolucao.NewService),
	fx.Provide(conserto.NewService),
	fx.Provide(provideEngine),
	fx.Provide(notification.NewService),
	fx.Provide(provideScheduler),
	fx.Provide(provideHTTPServer),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithComponent(p.Ctx, fxComponent)
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithComponent(ctx, fxComponent)

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideLocation(cfg config.Config) (*time.Location, error) {
	return cfg.App.Location()
}

// provideRedis returns nil when redis is disabled; consumers fall back to
// the database-backed cache and an in-process lock.
func provideRedis(lc fx.Lifecycle, ctx context.Context, cfg config.Config) redis.UniversalClient {
	if !cfg.Redis.Enabled {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			if err := rdb.Ping(startCtx).Err(); err != nil {
				return errs.Wrapf(err, "ping redis %q", cfg.Redis.Addr)
			}
			logging.Info(logging.WithComponent(ctx, fxComponent), "redis connected", slog.String("addr", cfg.Redis.Addr))
			return nil
		},
		OnStop: func(_ context.Context) error {
			return rdb.Close()
		},
	})
	return rdb
}

func provideCache(db *gorm.DB, rdb redis.UniversalClient, cfg config.Config) ports.Cache {
	if rdb != nil {
		return cacheinfra.NewRedisCache(rdb, cfg.App.Name+":")
	}
	return cacheinfra.NewKVCache(db)
}

func provideLocker(rdb redis.UniversalClient, cfg config.Config) ports.Locker {
	if rdb != nil {
		return lock.NewRedisLocker(rdb, cfg.App.Name+":lock:")
	}
	return lock.NewLocalLocker()
}

func providePublisher(lc fx.Lifecycle, cfg config.Config) (ports.NotificationPublisher, error) {
	if !cfg.NATS.Enabled {
		return messaging.NoopPublisher{}, nil
	}
	conn, err := messaging.Connect(cfg.NATS.URL, cfg.App.Name)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return drain(conn)
		},
	})
	return messaging.NewNATSPublisher(conn, cfg.NATS.SubjectPrefix), nil
}

func drain(conn *nats.Conn) error {
	if err := conn.Drain(); err != nil {
		conn.Close()
		return errs.Wrap(err, "drain nats connection")
	}
	return nil
}

func provideFileStore(cfg config.Config) (ports.FileStore, error) {
	store, err := filestore.NewLocalStore(cfg.Storage.Root)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func provideRenderer(files ports.FileStore, loc *time.Location) ports.DocumentRenderer {
	return document.NewNoticeRenderer(files, loc)
}

func provideEvidence(files ports.FileStore, cfg config.Config) *evidence.Store {
	return evidence.NewStore(files, cfg.Storage.MaxFileBytes, cfg.Storage.IOTimeout)
}

func provideTokens(cfg config.Config) (*auth.Tokens, error) {
	return auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
}

type rncServiceParams struct {
	fx.In

	UOW       ports.UnitOfWork
	RNCs      ports.RNCRepository
	INCs      ports.INCRepository
	Directory ports.Directory
	Renderer  ports.DocumentRenderer
	Evidence  *evidence.Store
	Location  *time.Location
}

func provideRNCService(p rncServiceParams) *rnc.Service {
	return rnc.NewService(p.UOW, p.RNCs, p.INCs, p.Directory, p.Renderer, p.Evidence, rnc.Options{
		Location:      p.Location,
		RenderTimeout: renderTimeout,
	})
}

type engineParams struct {
	fx.In

	Config        config.Config
	RNCs          ports.RNCRepository
	Consertos     ports.ConsertoRepository
	Directory     ports.Directory
	Notifications ports.NotificationRepository
	Publisher     ports.NotificationPublisher
	Cache         ports.Cache
	Location      *time.Location
}

func provideEngine(p engineParams) *notification.Engine {
	rules := notification.DefaultRules(p.RNCs, p.Consertos, p.Location, p.Config.Notifications.ConsertoDeadlineRules)
	return notification.NewEngine(rules, p.Directory, p.Notifications, p.Publisher, p.Cache, p.Location)
}

func provideScheduler(engine *notification.Engine, locker ports.Locker, cfg config.Config) *notification.Scheduler {
	return notification.NewScheduler(engine, locker, notification.SchedulerOptions{
		Interval: cfg.Notifications.SweepInterval,
		Timeout:  cfg.Notifications.SweepTimeout,
		LockTTL:  cfg.Notifications.LockTTL,
	})
}

type httpParams struct {
	fx.In

	App          *App
	Config       config.Config
	Tokens       *auth.Tokens
	Directory    ports.Directory
	INC          *inc.Service
	RNC          *rnc.Service
	Devolucao    *devolucao.Service
	Conserto     *conserto.Service
	Notification *notification.Service
}

func provideHTTPServer(p httpParams) (*httpapi.Server, error) {
	return httpapi.NewServer(
		httpapi.Services{
			INC:          p.INC,
			RNC:          p.RNC,
			Devolucao:    p.Devolucao,
			Conserto:     p.Conserto,
			Notification: p.Notification,
		},
		p.Tokens,
		p.Directory,
		httpapi.Options{
			Addr:            p.Config.Server.Addr,
			RequestTimeout:  p.Config.Server.RequestTimeout,
			ShutdownTimeout: p.Config.Server.ShutdownTimeout,
			MaxFileBytes:    p.Config.Storage.MaxFileBytes,
			Health:          p.App.Ping,
		},
	)
}
