package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	authmw "github.com/mind-engage/examgrade/internal/auth/middleware"
	"github.com/mind-engage/examgrade/internal/exam"
	"github.com/mind-engage/examgrade/internal/rbac"
)

// GET /attempts?exam_id=...&user_id=...&limit=50&offset=0
// RBAC:
// - role with attempt:view-all can list any filters
// - otherwise user_id is forced to the caller
func ListAttemptsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := authmw.SessionFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		examID := strings.TrimSpace(r.URL.Query().Get("exam_id"))
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

		if !rbac.Allowed(r.Context(), rbac.PermAttemptViewAll) {
			userID = sess.UserID
		}

		list, err := store.ListAttempts(r.Context(), exam.AttemptListOpts{
			ExamID: examID,
			UserID: userID,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			http.Error(w, "failed to list attempts", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
