package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// Check is one dependency probed by the health endpoint.
type Check struct {
	Name    string
	Ping    func(ctx context.Context) error
	Details func() interface{}
}

// PoolCheck probes the database and reports the pool statistics.
func PoolCheck(pool *pgxpool.Pool) Check {
	return Check{
		Name:    "database",
		Ping:    pool.Ping,
		Details: func() interface{} { return GetPoolStats(pool) },
	}
}

type componentStatus struct {
	Status  string      `json:"status"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthHandler returns a handler probing every check. Any failing check
// turns the response into 503.
func HealthHandler(checks ...Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		code := http.StatusOK
		overall := "healthy"
		components := make(map[string]componentStatus, len(checks))
		for _, chk := range checks {
			st := componentStatus{Status: "healthy"}
			if err := chk.Ping(ctx); err != nil {
				st.Status = "unhealthy"
				st.Error = err.Error()
				code = http.StatusServiceUnavailable
				overall = "unhealthy"
			}
			if chk.Details != nil {
				st.Details = chk.Details()
			}
			components[chk.Name] = st
		}

		return c.JSON(code, map[string]interface{}{
			"status":     overall,
			"components": components,
		})
	}
}
