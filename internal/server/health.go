package server

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// ReadinessCheck reports why the server cannot take traffic, or nil.
type ReadinessCheck func() error

type namedCheck struct {
	name  string
	check ReadinessCheck
}

// HealthChecker serves the liveness and readiness probes.
type HealthChecker struct {
	shutdown atomic.Bool

	mu     sync.RWMutex
	checks []namedCheck

	startTime time.Time
	version   string
	providers func() []string
	aiEnabled bool
}

// NewHealthChecker creates a HealthChecker whose readiness requires at least
// one registered calendar provider.
func NewHealthChecker(version string, providers func() []string, aiEnabled bool) *HealthChecker {
	h := &HealthChecker{
		startTime: time.Now(),
		version:   version,
		providers: providers,
		aiEnabled: aiEnabled,
	}
	h.AddCheck("providers", func() error {
		if len(h.providerNames()) == 0 {
			return errors.New("no calendar provider registered")
		}
		return nil
	})
	return h
}

// AddCheck adds a named readiness check. Checks run on every probe.
func (h *HealthChecker) AddCheck(name string, check ReadinessCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, namedCheck{name: name, check: check})
}

// MarkShuttingDown makes readiness fail for the rest of the process life.
func (h *HealthChecker) MarkShuttingDown() {
	h.shutdown.Store(true)
}

// IsReady runs the checks and reports whether all of them pass.
func (h *HealthChecker) IsReady() bool {
	_, ok := h.evaluate()
	return ok
}

func (h *HealthChecker) providerNames() []string {
	if h.providers == nil {
		return []string{}
	}
	if names := h.providers(); names != nil {
		return names
	}
	return []string{}
}

// evaluate returns the per-check results.
func (h *HealthChecker) evaluate() (map[string]string, bool) {
	h.mu.RLock()
	checks := h.checks
	h.mu.RUnlock()

	results := make(map[string]string, len(checks)+1)
	ok := true
	for _, c := range checks {
		if err := c.check(); err != nil {
			results[c.name] = err.Error()
			ok = false
			continue
		}
		results[c.name] = healthStatusOK
	}

	if h.shutdown.Load() {
		results["shutdown"] = healthStatusShuttingDown
		ok = false
	} else {
		results["shutdown"] = healthStatusOK
	}
	return results, ok
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime"`
	Providers []string          `json:"providers"`
	AIEnabled bool              `json:"aiEnabled"`
	Checks    map[string]string `json:"checks"`
}

// LivenessHandler only reports that the process is serving.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler answers 503 while any check fails.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, ok := h.evaluate()
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: healthStatusNotReady, Checks: checks})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK, Checks: checks})
	})
}

// DetailedHealthHandler adds version, uptime and the enabled features.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, ok := h.evaluate()
		resp := DetailedHealthResponse{
			Status:    healthStatusOK,
			Version:   h.version,
			Uptime:    time.Since(h.startTime).Truncate(time.Second).String(),
			Providers: h.providerNames(),
			AIEnabled: h.aiEnabled,
			Checks:    checks,
		}

		status := http.StatusOK
		switch {
		case h.shutdown.Load():
			resp.Status = healthStatusShuttingDown
			status = http.StatusServiceUnavailable
		case !ok:
			resp.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	})
}

// RegisterHealthEndpoints mounts the probes on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("GET /healthz", h.LivenessHandler())
	mux.Handle("GET /readyz", h.ReadinessHandler())
	mux.Handle("GET /healthz/detailed", h.DetailedHealthHandler())
}
