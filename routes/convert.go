package routes

import (
	"context"
	"errors"
	"net/http"

	"animvid/job"
	"animvid/logger"
	"animvid/models"

	"github.com/google/uuid"
)

// ConvertResponse acknowledges an accepted job.
type ConvertResponse struct {
	JobID  string          `json:"job_id"`
	State  models.JobState `json:"state"`
	Inputs int             `json:"inputs"`
}

// ConvertHandler starts the job carried in the bearer token. The job runs
// in the background; poll /status for progress.
func (s *Server) ConvertHandler(w http.ResponseWriter, r *http.Request) {
	logger.Debugf("Convert request: method=%s, remoteAddr=%s", r.Method, r.RemoteAddr)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, err := s.verifyJWT(r)
	if err != nil {
		logger.Warnf("Rejected convert request from %s: %v", r.RemoteAddr, err)
		writeError(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
		return
	}

	j, err := job.FromRequest(claims.Job, s.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	j.ID = uuid.NewString()

	// The job outlives the request.
	events, err := s.Runner.Start(context.Background(), j)
	switch {
	case errors.Is(err, job.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, models.ErrConfig):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logger.Errorf("Failed to start job: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to start job")
		return
	}

	go drain(j.ID, events)

	logger.Infof("Accepted job %s from %s (%s): %d input(s)", j.ID, r.RemoteAddr, claims.Subject, len(j.Inputs))
	writeJSON(w, http.StatusAccepted, ConvertResponse{JobID: j.ID, State: models.JobStateRunning, Inputs: len(j.Inputs)})
}

func drain(jobID string, events <-chan models.Event) {
	for e := range events {
		switch e.Kind {
		case models.EventAdvisory:
			logger.Warnf("Job %s: %s", jobID, e.Message)
		case models.EventDone:
			logger.Infof("Job %s finished: %s", jobID, e.Message)
		default:
			logger.Debugf("Job %s: %.0f%% %s %s", jobID, e.Fraction*100, e.Stage, e.Message)
		}
	}
}
