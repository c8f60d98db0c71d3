// Package health contiene DTOs para readiness.
package health

import "time"

// HealthStatus estado de un componente.
type HealthStatus struct {
	Status  string `json:"status"` // "ok" | "error"
	Message string `json:"message,omitempty"`
}

// HealthResponse respuesta de GET /readyz.
type HealthResponse struct {
	Status     string                  `json:"status"` // "ready" | "degraded" | "unavailable"
	Components map[string]HealthStatus `json:"components"`
	Version    string                  `json:"version,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
}
