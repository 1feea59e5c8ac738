package routes

import (
	"encoding/json"
	"net/http"

	"animvid/logger"
)

// RegisterCredentialsHandler stores a destination credentials map and
// returns the key jobs reference it by.
func (s *Server) RegisterCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, err := s.verifyJWT(r); err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
		return
	}

	credsBody := make(map[string]string)
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&credsBody); err != nil || len(credsBody) == 0 {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	key, err := s.Credentials.Add(credsBody)
	if err != nil {
		logger.Errorf("Failed to store credentials: %v", err)
		http.Error(w, "Failed to store credentials", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"access_key": key})
}
