package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// DepCheck probes one dependency. Optional dependencies (the trust-score
// cache, for example) degrade the service instead of failing it: reads fall
// back to the database, so the process should keep serving traffic.
type DepCheck struct {
	Probe    func() error
	Optional bool
}

// HealthCheck returns a health check handler
func HealthCheck(serviceName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Service: serviceName,
			Version: version,
		})
	}
}

// HealthCheckWithDeps returns a health check handler with dependency checks.
// A failing required dependency reports unhealthy with 503; a failing
// optional dependency reports degraded with 200.
func HealthCheckWithDeps(serviceName, version string, checks map[string]DepCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		checkResults := make(map[string]string)

		for name, check := range checks {
			err := check.Probe()
			if err == nil {
				checkResults[name] = "healthy"
				continue
			}
			if check.Optional {
				checkResults[name] = "degraded: " + err.Error()
				if status == "healthy" {
					status = "degraded"
				}
			} else {
				checkResults[name] = "unhealthy: " + err.Error()
				status = "unhealthy"
			}
		}

		statusCode := http.StatusOK
		if status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, HealthResponse{
			Status:  status,
			Service: serviceName,
			Version: version,
			Checks:  checkResults,
		})
	}
}
