package routes

import (
	"net/http"

	"animvid/history"
	"animvid/logger"
)

// HistoryHandler serves the records of one kind. ?job= returns a single
// record, ?prefix= narrows the list.
func (s *Server) HistoryHandler(kind history.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if id := r.URL.Query().Get("job"); id != "" {
			record, err := s.History.Get(kind, id)
			if err != nil {
				logger.Errorf("Failed to query %s record for %s: %v", kind, id, err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if record == nil {
				writeError(w, http.StatusNotFound, "no "+string(kind)+" record for job "+id)
				return
			}
			writeJSON(w, http.StatusOK, record)
			return
		}

		records, err := s.History.List(kind, r.URL.Query().Get("prefix"))
		if err != nil {
			logger.Errorf("Failed to list %s records: %v", kind, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []history.Record{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"records": records,
			"count":   len(records),
		})
	}
}
