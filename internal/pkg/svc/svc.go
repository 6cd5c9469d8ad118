package svc

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	loggerpkg "github.com/stacklog/stacklog/internal/pkg/logger"
	otelpkg "github.com/stacklog/stacklog/internal/pkg/otel"
)

const shutdownTimeout = 10 * time.Second

var (
	// version is the service version, injected at build time.
	version string

	// name is the name of the service, injected at build time.
	name string
)

// Svc contains the service information.
type Svc struct {
	// Version is the service version.
	Version string

	// Name is the name of the service.
	Name string
}

// Svc represents the service.
var svc Svc

// GetVersion returns the service version.
func (s Svc) GetVersion() string {
	return s.Version
}

// GetName returns the service name.
func (s Svc) GetName() string {
	return s.Name
}

// SetVersion sets the service version.
func SetVersion(version string) {
	if svc.Version != "" {
		return
	}
	svc.Version = version
}

// SetName sets the service name.
func SetName(name string) {
	if svc.Name != "" {
		return
	}
	svc.Name = name
}

// Info returns the service information.
func Info() Svc {
	return svc
}

// Init initializes the service information, the OTLP providers, and the
// context logger. The returned context is canceled on SIGINT/SIGTERM, and
// the returned cancel function flushes the providers.
func Init() (context.Context, context.CancelFunc) {
	if name == "" {
		name = filepath.Base(os.Args[0])
	}
	if version == "" {
		version = "dev"
	}
	SetName(name)
	SetVersion(version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	res, err := otelpkg.InitResource(ctx, svc.Name, svc.Version)
	if err != nil {
		fatal(err)
	}

	tp, err := otelpkg.InitTracerProvider(ctx, res)
	if err != nil {
		fatal(err)
	}

	mp, err := otelpkg.InitMeterProvider(ctx, res)
	if err != nil {
		fatal(err)
	}

	lp, err := otelpkg.InitLogProvider(ctx, res)
	if err != nil {
		fatal(err)
	}

	ctx, _ = loggerpkg.Init(ctx, svc.Name, lp)

	cancel := func() {
		stop()

		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()

		otelpkg.Shutdown(shutdownCtx, tp, mp, lp)
	}

	return ctx, cancel
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
