package engine

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/testmorph/internal/knowledge"
	"github.com/ziadkadry99/testmorph/internal/memory"
	"github.com/ziadkadry99/testmorph/internal/reflection"
)

// RegisterRoutes mounts the conversion API on the given router. The
// hub is optional; without it conversions run without progress
// streaming and the WebSocket endpoint is not registered.
func RegisterRoutes(r chi.Router, eng *Engine, hub *Hub) {
	r.Post("/api/convert", convertHandler(eng, hub))
	r.Post("/api/feedback", feedbackHandler(eng))
	r.Get("/api/status", statusHandler(eng))
	r.Get("/api/cases/recent", recentCasesHandler(eng))
	r.Get("/api/reflections", reflectionsHandler(eng))
	r.Get("/api/similar", similarHandler(eng))
	if hub != nil {
		r.Get("/ws/convert", wsHandler(hub))
	}
}

type convertRequest struct {
	InputCode string `json:"input_code"`
	SessionID string `json:"session_id,omitempty"`
}

func convertHandler(eng *Engine, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req convertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
			return
		}
		if req.InputCode == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "input_code is required"})
			return
		}

		var progress ProgressFunc
		if hub != nil && req.SessionID != "" {
			progress = hub.Progress(req.SessionID)
		}

		result := eng.ConvertWithProgress(r.Context(), req.InputCode, progress)
		writeJSON(w, http.StatusOK, result)
	}
}

type feedbackRequest struct {
	InputHash string  `json:"input_hash"`
	Score     float64 `json:"score"`
}

func feedbackHandler(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req feedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
			return
		}
		if req.InputHash == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "input_hash is required"})
			return
		}
		if req.Score < 1 || req.Score > 5 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "score must be between 1 and 5"})
			return
		}

		if err := eng.Feedback(r.Context(), req.InputHash, req.Score); err != nil {
			if errors.Is(err, memory.ErrCaseNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no conversion with that input_hash"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func statusHandler(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := eng.Status(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func recentCasesHandler(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryLimit(r, 10)
		cases, err := eng.Memory().Recent(r.Context(), limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if cases == nil {
			cases = []memory.Case{}
		}
		writeJSON(w, http.StatusOK, cases)
	}
}

func reflectionsHandler(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryLimit(r, 10)
		records, err := eng.Reflections().ListRecords(r.Context(), limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if records == nil {
			records = []reflection.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func similarHandler(eng *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
			return
		}
		limit := queryLimit(r, 5)

		exemplars, err := eng.Similar(r.Context(), query, limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if exemplars == nil {
			exemplars = []knowledge.Exemplar{}
		}
		writeJSON(w, http.StatusOK, exemplars)
	}
}

func queryLimit(r *http.Request, fallback int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
