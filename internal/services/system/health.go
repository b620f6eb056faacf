// Package system provides system-level services for monitoring.
package system

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"norelock.dev/mediagate/backend/internal/utils"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	// StatusUp indicates the component is healthy.
	StatusUp HealthStatus = "up"
	// StatusDown indicates the component is unhealthy.
	StatusDown HealthStatus = "down"
	// StatusDegraded indicates the component is functioning but with issues.
	StatusDegraded HealthStatus = "degraded"
)

// ComponentHealth represents the health of a system component.
type ComponentHealth struct {
	Name        string       `json:"name"`
	Status      HealthStatus `json:"status"`
	Description string       `json:"description,omitempty"`
	Latency     int64        `json:"latency_ms"` // Response time in milliseconds
	LastChecked time.Time    `json:"last_checked"`
}

// SystemHealth represents the overall health of the system.
type SystemHealth struct {
	Status      HealthStatus      `json:"status"`
	Components  []ComponentHealth `json:"components"`
	Version     string            `json:"version"`
	Environment string            `json:"environment"`
	Uptime      int64             `json:"uptime_seconds"`
	StartTime   time.Time         `json:"start_time"`
	GoVersion   string            `json:"go_version"`
	GoRoutines  int               `json:"go_routines"`
	MemStats    MemoryStats       `json:"memory_stats"`
}

// MemoryStats represents memory usage statistics.
type MemoryStats struct {
	Alloc      uint64 `json:"alloc_bytes"`       // Bytes allocated and still in use
	TotalAlloc uint64 `json:"total_alloc_bytes"` // Bytes allocated (even if freed)
	Sys        uint64 `json:"sys_bytes"`         // Bytes obtained from system
	NumGC      uint32 `json:"num_gc"`            // Number of completed GC cycles
	HeapAlloc  uint64 `json:"heap_alloc_bytes"`  // Bytes allocated and still in use
	HeapSys    uint64 `json:"heap_sys_bytes"`    // Bytes obtained from system for heap
}

// Checker probes one dependency.
type Checker struct {
	// Name identifies the component in the health report.
	Name string
	// Check returns nil when the component is healthy.
	Check func(ctx context.Context) error
	// FailureStatus is reported when Check fails. Optional components report degraded.
	FailureStatus HealthStatus
}

// HealthService provides health checking functionality.
type HealthService struct {
	checkers       []Checker
	logger         *utils.Logger
	startTime      time.Time
	version        string
	environment    string
	componentCache map[string]ComponentHealth
	cacheMutex     sync.RWMutex
	checkInterval  time.Duration
}

// HealthServiceConfig contains configuration for the health service.
type HealthServiceConfig struct {
	Version       string
	Environment   string
	CheckInterval time.Duration
}

// NewHealthService creates a new health service.
func NewHealthService(logger *utils.Logger, config HealthServiceConfig, checkers ...Checker) *HealthService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	interval := config.CheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HealthService{
		checkers:       checkers,
		logger:         logger.Named("health_service"),
		startTime:      time.Now(),
		version:        config.Version,
		environment:    config.Environment,
		componentCache: make(map[string]ComponentHealth),
		checkInterval:  interval,
	}
}

// Start begins periodic health checks. It returns immediately; checks stop when ctx is done.
func (s *HealthService) Start(ctx context.Context) {
	s.logger.Info("Starting health service", "components", len(s.checkers))

	// Perform initial health check
	s.CheckHealth(ctx)

	go func() {
		ticker := time.NewTicker(s.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Stopping health service")
				return
			case <-ticker.C:
				s.CheckHealth(ctx)
			}
		}
	}()
}

// CheckHealth performs a health check on all registered components.
func (s *HealthService) CheckHealth(ctx context.Context) {
	s.logger.Debug("Performing health check")

	for _, checker := range s.checkers {
		s.check(ctx, checker)
	}
}

func (s *HealthService) check(ctx context.Context, checker Checker) {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := checker.Check(checkCtx)
	latency := time.Since(start).Milliseconds()

	status := StatusUp
	description := checker.Name + " is healthy"

	if err != nil {
		status = checker.FailureStatus
		if status == "" {
			status = StatusDown
		}
		description = checker.Name + " check failed: " + err.Error()
		s.logger.Warn("Health check failed", "component", checker.Name, "error", err)
	}

	s.updateComponentHealth(checker.Name, status, description, latency)
}

// GetHealth returns the current health status of the system.
func (s *HealthService) GetHealth() SystemHealth {
	s.cacheMutex.RLock()
	components := make([]ComponentHealth, 0, len(s.componentCache))
	for _, component := range s.componentCache {
		components = append(components, component)
	}
	s.cacheMutex.RUnlock()

	sort.Slice(components, func(i, j int) bool {
		return components[i].Name < components[j].Name
	})

	// Down beats degraded beats up
	status := StatusUp
	for _, component := range components {
		if component.Status == StatusDown {
			status = StatusDown
			break
		} else if component.Status == StatusDegraded {
			status = StatusDegraded
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemHealth{
		Status:      status,
		Components:  components,
		Version:     s.version,
		Environment: s.environment,
		Uptime:      int64(time.Since(s.startTime).Seconds()),
		StartTime:   s.startTime,
		GoVersion:   runtime.Version(),
		GoRoutines:  runtime.NumGoroutine(),
		MemStats: MemoryStats{
			Alloc:      memStats.Alloc,
			TotalAlloc: memStats.TotalAlloc,
			Sys:        memStats.Sys,
			NumGC:      memStats.NumGC,
			HeapAlloc:  memStats.HeapAlloc,
			HeapSys:    memStats.HeapSys,
		},
	}
}

// updateComponentHealth updates the health status of a component in the cache.
func (s *HealthService) updateComponentHealth(name string, status HealthStatus, description string, latency int64) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.componentCache[name] = ComponentHealth{
		Name:        name,
		Status:      status,
		Description: description,
		Latency:     latency,
		LastChecked: time.Now(),
	}
}
