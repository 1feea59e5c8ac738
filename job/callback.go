package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"animvid/logger"
	"animvid/models"
)

var callbackClient = &http.Client{Timeout: 30 * time.Second}

// CallbackPayload is the JSON body posted to a job's callback URL.
type CallbackPayload struct {
	JobID      string                  `json:"jobId"`
	Status     models.Outcome          `json:"status"`
	Summary    string                  `json:"summary"`
	Outputs    []models.OutputArtifact `json:"outputs"`
	Errors     []models.SourceError    `json:"errors,omitempty"`
	Advisories []string                `json:"advisories,omitempty"`
	Timestamp  int64                   `json:"timestamp"`
}

// sendCallback posts the final result of a job to cb.URL
func sendCallback(ctx context.Context, cb *models.Callback, res models.Result) error {
	payload := CallbackPayload{
		JobID:      res.JobID,
		Status:     res.Outcome(),
		Summary:    res.Summary(),
		Outputs:    res.Outputs,
		Errors:     res.Errors,
		Advisories: res.Advisories,
		Timestamp:  time.Now().Unix(),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal callback payload: %w", err)
	}

	// The job context may already be done; the callback still goes out.
	ctx = context.WithoutCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cb.URL, bytes.NewReader(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "animvid/1.0")
	for key, value := range cb.Headers {
		req.Header.Set(key, value)
	}

	resp, err := callbackClient.Do(req)
	if err != nil {
		return fmt.Errorf("callback request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned non-2xx status: %d", resp.StatusCode)
	}
	logger.Infof("Sent callback for %s to %s", res.JobID, cb.URL)
	return nil
}
