// Package health reports account store availability over grpc.health.v1.
package health

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/accounts-server/internal/logger"
)

// Service is the name reported alongside the overall ("") status.
const Service = "accounts.v1.Accounts"

const pingTimeout = 3 * time.Second

// Pinger is a dependency whose availability decides the serving status.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker keeps a health server in sync with a Pinger.
type Checker struct {
	server   *health.Server
	pinger   Pinger
	interval time.Duration
	logger   *logger.Logger
}

// NewChecker creates a Checker. Status is NOT_SERVING until the first check.
func NewChecker(pinger Pinger, interval time.Duration, logger *logger.Logger) *Checker {
	c := &Checker{
		server:   health.NewServer(),
		pinger:   pinger,
		interval: interval,
		logger:   logger,
	}
	c.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return c
}

// Server returns the health service implementation to register.
func (c *Checker) Server() healthpb.HealthServer {
	return c.server
}

// Check pings once and updates the status.
func (c *Checker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := c.pinger.Ping(pingCtx); err != nil {
		c.logger.Warn("Health checker: account store unavailable",
			"error", err.Error())
		c.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return healthpb.HealthCheckResponse_NOT_SERVING
	}

	c.set(healthpb.HealthCheckResponse_SERVING)
	return healthpb.HealthCheckResponse_SERVING
}

// Run checks immediately and then every interval until ctx is done,
// after which every watcher is told the service is going away.
func (c *Checker) Run(ctx context.Context) {
	c.Check(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

func (c *Checker) set(status healthpb.HealthCheckResponse_ServingStatus) {
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(Service, status)
}
