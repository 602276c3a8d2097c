package daemon

import (
	"context"
	"time"

	"github.com/matheus3301/imsg/internal/api"
	"github.com/matheus3301/imsg/internal/bus"
	"github.com/matheus3301/imsg/internal/chatdb"
	"github.com/matheus3301/imsg/internal/config"
	"github.com/matheus3301/imsg/internal/lock"
	"github.com/matheus3301/imsg/internal/logging"
	"github.com/matheus3301/imsg/internal/poller"
	"github.com/matheus3301/imsg/internal/session"
	"github.com/matheus3301/imsg/internal/status"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
	StorePath   string // optional override of config store.path
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			providePoller,
			provideQueryService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		return nil, err
	}
	if p.StorePath != "" {
		cfg.Store.Path = p.StorePath
	}
	return cfg, nil
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName, cfg.LogLevel)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.LockPath(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideStore(cfg *config.Config, logger *zap.Logger) (*chatdb.DB, error) {
	path, err := session.StorePath(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	order, err := chatdb.ParseLastMessageOrder(cfg.Store.LastMessageOrder)
	if err != nil {
		return nil, err
	}
	db, err := chatdb.Open(path, chatdb.Options{
		KnownServices:    cfg.Store.KnownServices,
		LastMessageOrder: order,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("store opened", zap.String("path", path), zap.Time("cursor_since", time.UnixMilli(chatdb.StoreToUnixMilli(db.Cursor()))))
	return db, nil
}

func providePoller(db *chatdb.DB, b *bus.Bus, machine *status.Machine, cfg *config.Config, logger *zap.Logger) *poller.Poller {
	return poller.New(db, b, machine, cfg.Store.PollInterval.Duration, logger.Named("poller"))
}

func provideQueryService(p Params, db *chatdb.DB, machine *status.Machine, b *bus.Bus) *api.QueryService {
	return api.NewQueryService(p.SessionName, db, machine, b)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *chatdb.DB, pl *poller.Poller, machine *status.Machine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Start gRPC server in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			// The first poll settles READY or DEGRADED before the loop starts.
			if _, err := pl.PollOnce(ctx); err != nil {
				logger.Warn("initial poll failed", zap.Error(err))
			}
			pl.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			_ = machine.Transition(status.Stopping)
			pl.Stop()
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
