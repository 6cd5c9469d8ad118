package container

import (
	"context"
	"time"

	"github.com/docker/docker/client"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// MaxHealthCheckRetries is the maximum number of retries for the health check.
	MaxHealthCheckRetries = 3
)

// Client wraps the Docker engine client.
type Client struct {
	*client.Client
}

// New creates a new Docker client from the environment and verifies the
// daemon is reachable.
func New(ctx context.Context) (*Client, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to initialize docker client: %v", err)
	}

	c := &Client{
		Client: cli,
	}

	if err := c.HealthCheck(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// HealthCheck pings the Docker daemon.
func (c *Client) HealthCheck(ctx context.Context) error {
	var err error

	backoff := 100 * time.Millisecond
	for i := 1; i <= MaxHealthCheckRetries; i++ {
		if _, err = c.Client.Ping(ctx); err == nil {
			return nil
		}
		if i < MaxHealthCheckRetries {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	return status.Errorf(codes.Unavailable, "failed to ping docker daemon: %v", err)
}
