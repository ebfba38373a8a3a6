package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/examgrade/internal/auth/middleware"
	"github.com/mind-engage/examgrade/internal/exam"
)

// PUT /admin/exams/{examID}
// Creates or replaces an exam with its questions.
func PutExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e exam.Exam
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		e.ID = chi.URLParam(r, "examID")
		if sess, ok := authmw.SessionFromContext(r.Context()); ok && e.CreatedBy == "" {
			e.CreatedBy = sess.UserID
		}
		if err := e.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutExam(r.Context(), e); err != nil {
			if errors.Is(err, exam.ErrExamInUse) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, "failed to save exam", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "id": e.ID})
	}
}

// GET /admin/exams/{examID}
// The authored exam, answer keys included.
func GetExamAdminHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := store.GetExam(r.Context(), chi.URLParam(r, "examID"))
		if errors.Is(err, exam.ErrExamNotFound) {
			http.Error(w, "exam not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "failed to load exam", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, e)
	}
}

// GET /admin/events?after=0&limit=100
func ListEventsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var after int64
		if s := r.URL.Query().Get("after"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil || v < 0 {
				http.Error(w, "bad after", http.StatusBadRequest)
				return
			}
			after = v
		}
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
		if limit > 1000 {
			limit = 1000
		}
		evs, err := store.Events(r.Context(), after, limit)
		if err != nil {
			http.Error(w, "failed to read events", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, evs)
	}
}
