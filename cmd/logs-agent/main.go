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
	containerpkg "github.com/stacklog/stacklog/internal/pkg/container"
	loggerpkg "github.com/stacklog/stacklog/internal/pkg/logger"
	redispkg "github.com/stacklog/stacklog/internal/pkg/redis"
	svcpkg "github.com/stacklog/stacklog/internal/pkg/svc"
	containersrepo "github.com/stacklog/stacklog/internal/repository/containers"
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

	// Load the logs agent configuration
	cfg, err := config.InitLogsAgentConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitError
	}

	// Initialize the container runtime client
	cli, err := containerpkg.New(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitError
	}
	defer cli.Close()

	// Initialize the query engine over the live backend. The live backend
	// has no unit registry; registry operations report Unimplemented.
	repo := containersrepo.New(cli)
	svc := logssvc.New(validator.New(), repo, nil)

	// The live backend serves uncached by default so reads always reflect
	// the container's current output.
	var engine server.Engine = svc
	if cfg.AgentCache.Enabled {
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

		engine = logssvc.NewCachedEngine(svc, rdb, cfg.AgentCache.TTL)
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
