package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
)

const healthProbeTimeout = 2 * time.Second

type probeResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// HealthCheck handles GET /health. Stores and the remote ledger are probed
// in parallel; any failing probe turns the answer into a 503.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		results := probeAll(c.Request.Context(), checkers)

		status, code := "healthy", http.StatusOK
		for _, r := range results {
			if r.Status != "healthy" {
				status, code = "degraded", http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(code, gin.H{
			"status":       status,
			"dependencies": results,
		})
	}
}

func probeAll(ctx context.Context, checkers []ports.HealthChecker) map[string]probeResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]probeResult, len(checkers))
	)
	for _, checker := range checkers {
		wg.Add(1)
		go func(hc ports.HealthChecker) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
			defer cancel()

			start := time.Now()
			err := hc.Ping(pctx)
			r := probeResult{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				r.Status = "unhealthy"
				r.Error = err.Error()
			}

			mu.Lock()
			results[hc.Name()] = r
			mu.Unlock()
		}(checker)
	}
	wg.Wait()
	return results
}
