package routes

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"animvid/logger"
	"animvid/models"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                `json:"status"`
	Timestamp time.Time             `json:"timestamp"`
	Version   string                `json:"version"`
	GoVersion string                `json:"go_version"`
	Uptime    string                `json:"uptime"`
	StartTime string                `json:"start_time"`
	Runner    string                `json:"runner"`
	Formats   []models.OutputFormat `json:"formats"`
	Error     string                `json:"error,omitempty"`
}

// Global start time for uptime calculation
var startTime = time.Now()

// formatUptime formats a duration into days, hours, minutes, seconds
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}

// HealthHandler reports liveness for load balancers. It answers 503 when
// the history database is unreachable.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	logger.Debugf("Health check request: method=%s, remoteAddr=%s", r.Method, r.RemoteAddr)

	if r.Method != http.MethodGet {
		logger.Warnf("Invalid method for health endpoint: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   version,
		GoVersion: runtime.Version(),
		Uptime:    formatUptime(time.Since(startTime)),
		StartTime: startTime.Format("2006-01-02 15:04:05 MST"),
		Runner:    s.Runner.Status().State.String(),
	}
	if s.Formats != nil {
		response.Formats = s.Formats()
	}

	status := http.StatusOK
	if err := s.History.CheckHealth(); err != nil {
		logger.Errorf("Health check failed: %v", err)
		response.Status = "unhealthy"
		response.Error = err.Error()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}
