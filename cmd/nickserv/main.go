package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	natsclient "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/0xsj/overwatch-pkg/log"

	nickservgrpc "github.com/0xsj/overwatch-nickserv/internal/adapter/inbound/grpc"
	"github.com/0xsj/overwatch-nickserv/internal/adapter/inbound/httpserver"
	"github.com/0xsj/overwatch-nickserv/internal/adapter/inbound/irc"
	"github.com/0xsj/overwatch-nickserv/internal/adapter/outbound/logging"
	"github.com/0xsj/overwatch-nickserv/internal/adapter/outbound/mail"
	"github.com/0xsj/overwatch-nickserv/internal/adapter/outbound/memory"
	natsadapter "github.com/0xsj/overwatch-nickserv/internal/adapter/outbound/nats"
	"github.com/0xsj/overwatch-nickserv/internal/adapter/outbound/postgres"
	redislock "github.com/0xsj/overwatch-nickserv/internal/adapter/outbound/redis"
	"github.com/0xsj/overwatch-nickserv/internal/adapter/outbound/sqlite"
	"github.com/0xsj/overwatch-nickserv/internal/app/command"
	"github.com/0xsj/overwatch-nickserv/internal/app/service"
	"github.com/0xsj/overwatch-nickserv/internal/config"
	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
	"github.com/0xsj/overwatch-nickserv/internal/metrics"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/lock"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/messaging"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/notification"
	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := log.NewPretty(log.DefaultConfig())

	logger.Info("starting nickserv",
		log.String("irc", cfg.IRC.Server),
		log.String("nick", cfg.NickServ.BotNick),
		log.String("registry", cfg.Registry.Driver),
		log.String("lock", cfg.Lock.Backend),
		log.String("mail", cfg.Mail.Transport),
	)

	// Connect to PostgreSQL
	var pool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		pool, err = connectPostgres(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pool.Close()
	}

	// Connect to Redis
	var redisClient *redis.Client
	if cfg.Lock.Backend == config.LockRedis {
		redisClient, err = connectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
	}

	// Connect to NATS
	var natsConn *natsclient.Conn
	if cfg.NATSEnabled() {
		natsConn, err = connectNATS(cfg.NATS, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer natsConn.Close()
	}

	// Initialize registry
	nickRepo, closeRegistry, err := openRegistry(ctx, cfg, pool, logger)
	if err != nil {
		return fmt.Errorf("failed to open registry: %w", err)
	}
	defer closeRegistry()

	locker := newLocker(cfg, pool, redisClient, logger)

	m := metrics.New()

	// Initialize outbound messaging
	mailer := m.InstrumentMailer(newMailer(cfg, natsConn, logger))

	var eventPublisher messaging.EventPublisher
	if natsConn != nil {
		eventPublisher = natsadapter.NewEventPublisher(natsConn, cfg.NATS.SubjectPrefix)
	} else {
		eventPublisher = logging.NewEventPublisher(logger)
	}

	confirmation := service.NewConfirmationService(mailer, service.ConfirmationConfig{
		From:    cfg.NickServ.MailFrom,
		Subject: cfg.NickServ.MailSubject,
		BotNick: cfg.NickServ.BotNick,
		Timeout: cfg.NickServ.MailTimeout,
	})

	policy := model.NewExpiryPolicy(cfg.NickServ.AuthTimeoutHours, cfg.NickServ.NickTimeoutDays)

	// Initialize command handlers
	registerNickHandler := command.NewRegisterNickHandler(
		nickRepo,
		locker,
		confirmation,
		eventPublisher,
		policy,
		time.Now,
		logger,
	)
	authenticateNickHandler := command.NewAuthenticateNickHandler(
		nickRepo,
		locker,
		eventPublisher,
		policy,
		time.Now,
		logger,
	)
	identifyNickHandler := command.NewIdentifyNickHandler(nickRepo)

	// Initialize IRC bot
	handler := irc.NewHandler(irc.HandlerConfig{
		RegisterNickHandler:     registerNickHandler,
		AuthenticateNickHandler: authenticateNickHandler,
		IdentifyNickHandler:     identifyNickHandler,
		Metrics:                 m,
		Logger:                  logger,
	})

	bot := irc.NewBot(irc.BotConfig{
		Server:         cfg.IRC.Server,
		Port:           cfg.IRC.Port,
		UseTLS:         cfg.IRC.UseTLS,
		Nick:           cfg.NickServ.BotNick,
		User:           cfg.IRC.User,
		RealName:       cfg.IRC.RealName,
		Password:       cfg.IRC.Password,
		Channels:       cfg.IRC.ChannelList(),
		Workers:        cfg.IRC.Workers,
		QueueDepth:     cfg.IRC.QueueDepth,
		CommandTimeout: cfg.IRC.CommandTimeout,
	}, handler, logger)
	bot.OnConnectionChange(m.SetIRCConnected)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := bot.Run(gctx)
		if err == nil && gctx.Err() == nil {
			err = errors.New("irc connection closed")
		}
		return err
	})

	// Initialize gRPC health server
	if cfg.Server.Enabled {
		server, err := nickservgrpc.NewServer(nickservgrpc.ServerConfig{
			Host:              cfg.Server.Host,
			Port:              cfg.Server.Port,
			EnableReflection:  cfg.Server.EnableReflection,
			EnableHealthCheck: cfg.Server.EnableHealthCheck,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create grpc server: %w", err)
		}
		bot.OnConnectionChange(server.SetServing)

		g.Go(server.Start)
		g.Go(func() error {
			<-gctx.Done()
			return shutdown(cfg.Server.ShutdownTimeout, server.Stop)
		})
	}

	// Initialize metrics endpoint
	if cfg.Metrics.Enabled {
		httpServer := httpserver.New(cfg.Metrics.Address, m, logger)
		bot.OnConnectionChange(httpServer.SetReady)

		g.Go(httpServer.Start)
		g.Go(func() error {
			<-gctx.Done()
			return shutdown(cfg.Server.ShutdownTimeout, httpServer.Stop)
		})
	}

	logger.Info("nickserv started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("nickserv stopped gracefully")
	return nil
}

func shutdown(timeout time.Duration, stop func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return stop(ctx)
}

func openRegistry(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger log.Logger) (repository.NickRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Registry.Driver {
	case config.RegistryPostgres:
		if err := postgres.Migrate(ctx, pool); err != nil {
			return nil, nil, err
		}
		return postgres.NewNickRepository(pool), noop, nil
	case config.RegistryMemory:
		logger.Warn("using in-memory registry, nicks will not survive a restart")
		return memory.NewNickRepository(), noop, nil
	default:
		db, err := sqlite.Open(ctx, cfg.Registry.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("opened sqlite registry", log.String("path", cfg.Registry.SQLitePath))
		return sqlite.NewNickRepository(db), db.Close, nil
	}
}

func newLocker(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger log.Logger) lock.NickLocker {
	switch cfg.Lock.Backend {
	case config.LockRedis:
		return redislock.NewNickLocker(redisClient, redislock.NickLockerConfig{
			TTL:       cfg.Lock.TTL,
			RetryWait: cfg.Lock.RetryWait,
			Logger:    logger,
		})
	case config.LockPostgres:
		return postgres.NewNickLocker(pool)
	default:
		return memory.NewNickLocker()
	}
}

func newMailer(cfg *config.Config, natsConn *natsclient.Conn, logger log.Logger) notification.Mailer {
	switch cfg.Mail.Transport {
	case config.MailSMTP:
		return mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.SMTPUsername,
			Password: cfg.Mail.SMTPPassword,
			StartTLS: cfg.Mail.SMTPStartTLS,
		})
	case config.MailNATS:
		return natsadapter.NewMailRelay(natsConn, cfg.NATS.SubjectPrefix)
	default:
		return logging.NewMailer(logger)
	}
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig, logger log.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to postgres",
		log.String("host", cfg.Host),
		log.String("database", cfg.Database),
	)

	return pool, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, logger log.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("connected to redis",
		log.String("address", cfg.Address()),
	)

	return client, nil
}

func connectNATS(cfg config.NATSConfig, logger log.Logger) (*natsclient.Conn, error) {
	opts := []natsclient.Option{
		natsclient.Name("nickserv"),
		natsclient.MaxReconnects(cfg.MaxReconnects),
		natsclient.ReconnectWait(cfg.ReconnectWait),
		natsclient.DisconnectErrHandler(func(nc *natsclient.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", log.String("error", err.Error()))
			}
		}),
		natsclient.ReconnectHandler(func(nc *natsclient.Conn) {
			logger.Info("nats reconnected", log.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := natsclient.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	logger.Info("connected to nats",
		log.String("url", conn.ConnectedUrl()),
	)

	return conn, nil
}
