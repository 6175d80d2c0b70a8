package api

import (
	"context"
	"time"

	"github.com/vytor/chesstactics/internal/services"
)

// HealthCheck reports whether a dependency can serve traffic.
type HealthCheck func(ctx context.Context) error

type Server struct {
	PuzzleService  services.PuzzleService
	SessionService services.SessionService
	ReadyChecks    map[string]HealthCheck
	AllowedOrigins []string
	RequestTimeout time.Duration
}
