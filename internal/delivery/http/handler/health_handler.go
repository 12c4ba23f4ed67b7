package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"careguide/internal/delivery/dto"
	"careguide/pkg/response"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
	log    *logrus.Logger
}

func NewHealthHandler(log *logrus.Logger, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, log: log}
}

type checkResult struct {
	name string
	err  error
}

// Health runs every check concurrently and reports 503 when any fails.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	p := pool.NewWithResults[checkResult]()
	for _, name := range names {
		check := h.checks[name]
		p.Go(func() checkResult {
			return checkResult{name: name, err: check(ctx)}
		})
	}

	resp := dto.HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, result := range p.Wait() {
		if result.err != nil {
			h.log.Warnf("Health check %s failed: %+v", result.name, result.err)
			resp.Status = "degraded"
			resp.Checks[result.name] = "down"
			continue
		}
		resp.Checks[result.name] = "up"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, resp)
}
