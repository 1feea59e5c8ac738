// Package history keeps the outcome of every conversion job in a Pebble
// database, split into success and failure records.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"animvid/models"

	pebble "github.com/cockroachdb/pebble"
)

// Kind selects the success or failure records.
type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// Record is one finished job.
type Record struct {
	JobID      string                  `json:"job_id"`
	Kind       Kind                    `json:"kind"`
	Timestamp  time.Time               `json:"timestamp"`
	Outcome    models.Outcome          `json:"outcome"`
	Summary    string                  `json:"summary"`
	LastStage  string                  `json:"last_stage,omitempty"`
	Outputs    []models.OutputArtifact `json:"outputs,omitempty"`
	Errors     []models.SourceError    `json:"errors,omitempty"`
	Advisories []string                `json:"advisories,omitempty"`
	Error      string                  `json:"error,omitempty"`
	JobData    string                  `json:"job_data"` // JSON of the job as submitted
}

// Store wraps the history database.
type Store struct {
	db       *pebble.DB
	DataFile string

	mu  sync.Mutex
	now func() time.Time
}

// Open opens (or creates) the history database at dataFile.
func Open(dataFile string) (*Store, error) {
	db, err := pebble.Open(dataFile, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return &Store{db: db, DataFile: dataFile, now: time.Now}, nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func key(kind Kind, jobID string) []byte {
	return []byte(string(kind) + "/" + jobID)
}

// KindOf files a result: jobs that produced nothing usable are failures.
func KindOf(res models.Result) Kind {
	if res.Outcome() == models.OutcomeFailure {
		return KindFailure
	}
	return KindSuccess
}

// Record stores the final result of j.
func (s *Store) Record(j models.ConversionJob, res models.Result) error {
	jobJSON, jsonErr := json.Marshal(j)
	if jsonErr != nil {
		jobJSON = []byte(fmt.Sprintf("failed to marshal job data: %v", jsonErr))
	}

	s.mu.Lock()
	ts := s.now()
	s.mu.Unlock()

	rec := Record{
		JobID:      res.JobID,
		Kind:       KindOf(res),
		Timestamp:  ts,
		Outcome:    res.Outcome(),
		Summary:    res.Summary(),
		LastStage:  res.LastStage,
		Outputs:    res.Outputs,
		Errors:     res.Errors,
		Advisories: res.Advisories,
		JobData:    string(jobJSON),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if rec.JobID == "" {
		rec.JobID = j.ID
	}
	return s.put(rec)
}

func (s *Store) put(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", rec.Kind, err)
	}
	return s.db.Set(key(rec.Kind, rec.JobID), data, pebble.Sync)
}

// Get returns the record of jobID, or nil when there is none.
func (s *Store) Get(kind Kind, jobID string) (*Record, error) {
	data, closer, err := s.db.Get(key(kind, jobID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil // Not found is not an error
		}
		return nil, err
	}
	defer closer.Close()

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s record: %w", kind, err)
	}
	return &rec, nil
}

// Delete removes a record.
func (s *Store) Delete(kind Kind, jobID string) error {
	return s.db.Delete(key(kind, jobID), pebble.Sync)
}

// List returns the records of one kind, newest first. A non-empty filter
// keeps only job ids starting with it.
func (s *Store) List(kind Kind, filter string) ([]Record, error) {
	prefix := []byte(string(kind) + "/" + filter)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var records []Record
	for iter.First(); iter.Valid(); iter.Next() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue // Skip invalid records
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, iter.Error()
}

// CleanupOldRecords removes records of both kinds older than maxAge and
// reports how many were deleted.
func (s *Store) CleanupOldRecords(maxAge time.Duration) (int, error) {
	s.mu.Lock()
	cutoff := s.now().Add(-maxAge)
	s.mu.Unlock()

	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	var keysToDelete [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue
		}
		if rec.Timestamp.Before(cutoff) {
			keysToDelete = append(keysToDelete, bytes.Clone(iter.Key()))
		}
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	for _, k := range keysToDelete {
		if err := batch.Delete(k, nil); err != nil {
			return 0, fmt.Errorf("failed to delete old record %s: %w", k, err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("failed to delete old records: %w", err)
	}
	return len(keysToDelete), nil
}

// CheckHealth performs a basic read on the database.
func (s *Store) CheckHealth() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("history database not initialized")
	}
	_, closer, err := s.db.Get([]byte("__health_check__"))
	if err != nil && !errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("database health check failed: %w", err)
	}
	if closer != nil {
		closer.Close()
	}
	return nil
}

// ParseKind accepts "success", "successes", "failure" and "failures".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "success", "successes":
		return KindSuccess, nil
	case "failure", "failures":
		return KindFailure, nil
	}
	return "", fmt.Errorf("unknown history kind %q", s)
}

func upperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
