// Package health contiene el service para readiness checks.
package health

import (
	"context"
	"fmt"
	"time"

	dto "github.com/dropDatabas3/usercopy/internal/http/dto/health"
	"github.com/dropDatabas3/usercopy/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	DBCheck      func(ctx context.Context) error // crítico
	CacheCheck   func(ctx context.Context) error // no crítico: sin cache se recalcula
	ProviderName string
	Version      string
	Timeout      time.Duration // por componente; default 2s
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps}
}

const (
	StatusReady       = "ready"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
)

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("health"),
		logger.Op("Check"),
	)

	response := dto.HealthResponse{
		Components: make(map[string]dto.HealthStatus),
		Version:    s.deps.Version,
		Timestamp:  time.Now().UTC(),
	}

	hasErrors := false
	hasCriticalErrors := false

	// 1) DB (crítico)
	if s.deps.DBCheck == nil {
		response.Components["db"] = dto.HealthStatus{Status: "error", Message: "not configured"}
		hasCriticalErrors = true
	} else if err := s.probe(ctx, s.deps.DBCheck); err != nil {
		response.Components["db"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		hasCriticalErrors = true
		log.Error("db unavailable", logger.Err(err))
	} else {
		response.Components["db"] = dto.HealthStatus{Status: "ok"}
	}

	// 2) Cache (opcional)
	if s.deps.CacheCheck != nil {
		if err := s.probe(ctx, s.deps.CacheCheck); err != nil {
			response.Components["cache"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
			hasErrors = true
			log.Warn("cache unavailable", logger.Err(err))
		} else {
			response.Components["cache"] = dto.HealthStatus{Status: "ok"}
		}
	}

	// 3) Identity provider: solo informativo
	if s.deps.ProviderName != "" {
		response.Components["identity"] = dto.HealthStatus{Status: "ok", Message: s.deps.ProviderName}
	}

	switch {
	case hasCriticalErrors:
		response.Status = StatusUnavailable
	case hasErrors:
		response.Status = StatusDegraded
	default:
		response.Status = StatusReady
	}
	return response
}

func (s *healthService) probe(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()
	return fn(ctx)
}
