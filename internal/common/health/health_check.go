package health

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"gorm.io/gorm"
)

const (
	maxGoroutines     = 10000
	maxMemoryMB       = 500
	slowDatabasePing  = 100 * time.Millisecond
	databasePingLimit = 2 * time.Second
)

// HealthStatus represents the overall health of the application
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy" or "degraded"
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Checks    map[string]interface{} `json:"checks"`
	Duration  int64                  `json:"duration_ms"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Healthy bool        `json:"healthy"`
	Details interface{} `json:"details,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SystemMetrics captures current system metrics
type SystemMetrics struct {
	MemoryUsageMB  uint64 `json:"memory_usage_mb"`
	SysMemoryMB    uint64 `json:"sys_memory_mb"`
	NumGC          uint32 `json:"num_gc"`
	GoroutineCount int    `json:"goroutine_count"`
	CPUNumCores    int    `json:"cpu_num_cores"`
	Uptime         int64  `json:"uptime_seconds"`
}

// HealthChecker provides health check functionality
type HealthChecker struct {
	db            *gorm.DB
	version       string
	llmConfigured bool
	startTime     time.Time

	mu              sync.RWMutex
	lastCheckStatus string
}

// NewHealthChecker creates a new health checker. llmConfigured is reported
// but never degrades the status.
func NewHealthChecker(db *gorm.DB, version string, llmConfigured bool) *HealthChecker {
	return &HealthChecker{
		db:            db,
		version:       version,
		llmConfigured: llmConfigured,
		startTime:     time.Now(),
	}
}

// Check performs a complete health check
func (hc *HealthChecker) Check(ctx context.Context) HealthStatus {
	start := time.Now()
	status := HealthStatus{
		Timestamp: start,
		Version:   hc.version,
		Checks:    make(map[string]interface{}),
	}

	db := hc.checkDatabase(ctx)
	status.Checks["database"] = db

	mem := hc.checkMemory()
	status.Checks["memory"] = mem

	goroutines := runtime.NumGoroutine()
	goroutinesOK := goroutines < maxGoroutines
	status.Checks["goroutines"] = ComponentHealth{
		Healthy: goroutinesOK,
		Details: map[string]interface{}{"count": goroutines},
	}

	status.Checks["llm"] = ComponentHealth{
		Healthy: true,
		Details: map[string]interface{}{"configured": hc.llmConfigured},
	}
	status.Checks["uptime_seconds"] = int64(time.Since(hc.startTime).Seconds())

	if db.Healthy && mem.Healthy && goroutinesOK {
		status.Status = "healthy"
	} else {
		status.Status = "degraded"
	}
	status.Duration = time.Since(start).Milliseconds()

	hc.mu.Lock()
	hc.lastCheckStatus = status.Status
	hc.mu.Unlock()

	return status
}

// checkDatabase verifies database connectivity and latency
func (hc *HealthChecker) checkDatabase(ctx context.Context) ComponentHealth {
	if hc.db == nil {
		return ComponentHealth{Error: "database not initialized"}
	}

	start := time.Now()
	if err := hc.ping(ctx); err != nil {
		return ComponentHealth{Error: err.Error()}
	}
	latency := time.Since(start)

	return ComponentHealth{
		Healthy: true,
		Details: map[string]interface{}{
			"latency_ms": latency.Milliseconds(),
			"latency_ok": latency < slowDatabasePing,
		},
	}
}

func (hc *HealthChecker) ping(ctx context.Context) error {
	sqlDB, err := hc.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, databasePingLimit)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// checkMemory checks memory usage
func (hc *HealthChecker) checkMemory() ComponentHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	allocMB := m.Alloc / 1024 / 1024
	return ComponentHealth{
		Healthy: allocMB < maxMemoryMB,
		Details: map[string]interface{}{
			"allocated_mb":   allocMB,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
	}
}

// IsHealthy reports the outcome of the last full check
func (hc *HealthChecker) IsHealthy() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.lastCheckStatus == "healthy"
}

// IsReady returns true if the database answers
func (hc *HealthChecker) IsReady(ctx context.Context) bool {
	return hc.db != nil && hc.ping(ctx) == nil
}

// IsAlive returns true if system is running
func (hc *HealthChecker) IsAlive() bool {
	return true
}

// GetMetrics returns current system metrics
func (hc *HealthChecker) GetMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemMetrics{
		MemoryUsageMB:  m.Alloc / 1024 / 1024,
		SysMemoryMB:    m.Sys / 1024 / 1024,
		NumGC:          m.NumGC,
		GoroutineCount: runtime.NumGoroutine(),
		CPUNumCores:    runtime.NumCPU(),
		Uptime:         int64(time.Since(hc.startTime).Seconds()),
	}
}
