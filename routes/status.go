package routes

import (
	"net/http"

	"animvid/logger"
)

// StatusHandler returns the runner state, progress and the last result.
// With ?job= it answers 404 unless that job is the current or last one.
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := s.Runner.Status()
	if id := r.URL.Query().Get("job"); id != "" && id != st.JobID {
		logger.Warnf("Job not found: %s", id)
		writeError(w, http.StatusNotFound, "job "+id+" is not the current job; see /history")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
