// Package routes is the HTTP surface of `animvid serve`.
package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"animvid/credentials"
	"animvid/history"
	"animvid/job"
	"animvid/logger"
	"animvid/models"
	"animvid/utils"
)

// Server holds what the handlers share.
type Server struct {
	Runner      *job.Runner
	History     *history.Store
	Credentials *credentials.Store
	Defaults    models.Settings
	JWTSecret   []byte
	ServeDir    string
	Formats     func() []models.OutputFormat
}

// Register mounts every handler on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/convert", s.ConvertHandler)
	mux.HandleFunc("/status", s.StatusHandler)
	mux.HandleFunc("/history/success", s.HistoryHandler(history.KindSuccess))
	mux.HandleFunc("/history/failures", s.HistoryHandler(history.KindFailure))
	mux.HandleFunc("/credentials", s.RegisterCredentialsHandler)
	mux.HandleFunc("/health", s.HealthHandler)
	mux.HandleFunc("/version", VersionHandler)
	if s.ServeDir != "" {
		mux.Handle("/files/", http.StripPrefix("/files/", http.FileServer(http.Dir(s.ServeDir))))
	}
}

// verifyJWT verifies the bearer token of the request and returns its claims
func (s *Server) verifyJWT(r *http.Request) (*models.ConvertClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header required")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return nil, fmt.Errorf("invalid authorization header format")
	}
	if len(s.JWTSecret) == 0 {
		return nil, fmt.Errorf("server has no JWT secret configured")
	}

	return utils.VerifyConvertJWT(token, utils.VerifyConfig{
		SecretKey: s.JWTSecret,
		ClockSkew: 30 * time.Second,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
