package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/go-playground/validator/v10"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/stacklog/stacklog/internal/config"
	"github.com/stacklog/stacklog/internal/pkg/clickhouse"
	loggerpkg "github.com/stacklog/stacklog/internal/pkg/logger"
	"github.com/stacklog/stacklog/internal/pkg/postgres"
	redispkg "github.com/stacklog/stacklog/internal/pkg/redis"
	svcpkg "github.com/stacklog/stacklog/internal/pkg/svc"
	logsrepo "github.com/stacklog/stacklog/internal/repository/logs"
	"github.com/stacklog/stacklog/internal/server"
	logssvc "github.com/stacklog/stacklog/internal/service/logs"
)

const (
	// ExitOk and ExitError are the exit codes.
	ExitOk = iota
	// ExitError is the exit code for errors.
	ExitError
)

func main() {
	os.Exit(run())
}

func run() int {
	// Initialize the service with, all necessary components
	ctx, cancel := svcpkg.Init()
	defer cancel()

	// Load the logs service configuration
	cfg, err := config.InitLogsServiceConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitError
	}

	// Initialize the unit registry database
	pg, err := postgres.New(ctx, &postgres.Config{
		Host:        cfg.Postgres.Host,
		Port:        cfg.Postgres.Port,
		User:        cfg.Postgres.User,
		Password:    cfg.Postgres.Password,
		Database:    cfg.Postgres.Database,
		MaxConns:    cfg.Postgres.MaxConns,
		MinConns:    cfg.Postgres.MinConns,
		MaxConnLife: cfg.Postgres.MaxConnLife,
		MaxConnIdle: cfg.Postgres.MaxConnIdle,
		DialTimeout: cfg.Postgres.DialTimeout,
		SSLMode:     cfg.Postgres.SSLMode,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitError
	}
	defer pg.Close()

	// Initialize the log store database
	ch, err := clickhouse.New(ctx, &clickhouse.Config{
		Hosts:           cfg.ClickHouse.Hosts,
		Database:        cfg.ClickHouse.Database,
		Username:        cfg.ClickHouse.Username,
		Password:        cfg.ClickHouse.Password,
		MaxOpenConns:    cfg.ClickHouse.MaxOpenConns,
		MaxIdleConns:    cfg.ClickHouse.MaxIdleConns,
		ConnMaxLifetime: cfg.ClickHouse.ConnMaxLifetime,
		DialTimeout:     cfg.ClickHouse.DialTimeout,
		Debug:           cfg.ClickHouse.Debug,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitError
	}
	defer ch.Close()

	// Initialize the query engine over the historical backend
	repo := logsrepo.New(pg, ch)
	svc := logssvc.New(validator.New(), repo, repo)

	// Layer the result cache in front of the engine when enabled
	var engine server.Engine = svc
	if cfg.Cache.Enabled {
		rdb, rdbErr := redispkg.New(ctx, &redispkg.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if rdbErr != nil {
			fmt.Fprintln(os.Stderr, rdbErr)
			return ExitError
		}
		defer rdb.Close()

		engine = logssvc.NewCachedEngine(svc, rdb, cfg.Cache.TTL)
	}

	srv := server.New(ctx, &server.Config{
		Host:              cfg.HTTPServer.Host,
		Port:              cfg.HTTPServer.Port,
		ReadTimeout:       cfg.HTTPServer.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTPServer.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTPServer.IdleTimeout,
		RequestBodyLimit:  cfg.HTTPServer.RequestBodyLimit,
		CORSAllowedOrigin: cfg.HTTPServer.CORSAllowedOrigin,
		PollInterval:      cfg.Stream.PollInterval,
	}, engine)

	// Log the service information
	loggerpkg.FromContext(ctx).Info(
		"starting service",
		zap.Any("ctx", ctx),
		zap.String("name", svcpkg.Info().GetName()),
		zap.String("version", svcpkg.Info().GetVersion()),
		zap.String("environment", cfg.Environment.Env),
		zap.Int("gomaxprocs", runtime.GOMAXPROCS(0)),
		zap.Int64("gomemlimit", debug.SetMemoryLimit(0)),
	)

	// Start the HTTP server
	if err := srv.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitError
	}

	return ExitOk
}
