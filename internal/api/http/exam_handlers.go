package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authmw "github.com/mind-engage/examgrade/internal/auth/middleware"
	"github.com/mind-engage/examgrade/internal/exam"
)

// GET /exams/{examID}
// The exam as served for taking: ordered questions, no answer keys.
func GetExamHandler(store exam.Store, p *exam.Presenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := publishedExam(w, r, store)
		if !ok {
			return
		}
		respondJSON(w, http.StatusOK, p.PresentExam(e))
	}
}

// GET /exams/{examID}/attempt
func CheckAttemptHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := authmw.SessionFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		a, found, err := store.CompletedAttempt(r.Context(), sess.UserID, chi.URLParam(r, "examID"))
		if err != nil {
			http.Error(w, "failed to check attempt", http.StatusInternalServerError)
			return
		}
		var attemptID *string
		if found {
			attemptID = &a.ID
		}
		respondJSON(w, http.StatusOK, map[string]any{"completed": found, "attempt_id": attemptID})
	}
}

type submitRequest struct {
	Answers []exam.SubmittedAnswer `json:"answers"`
}

// POST /exams/{examID}/submit  { "answers": [ { "question_id": "...", "user_answer": ... } ] }
func SubmitHandler(store exam.Store, coord *exam.Coordinator, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := authmw.SessionFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req submitRequest
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Answers == nil {
			http.Error(w, "answers required", http.StatusBadRequest)
			return
		}

		e, ok := publishedExam(w, r, store)
		if !ok {
			return
		}

		// single-attempt guard; the store's uniqueness check backs it up
		if _, done, err := store.CompletedAttempt(r.Context(), sess.UserID, e.ID); err != nil {
			http.Error(w, "failed to check attempt", http.StatusInternalServerError)
			return
		} else if done {
			http.Error(w, "exam already submitted", http.StatusConflict)
			return
		}

		res, err := coord.Submit(r.Context(), sess.UserID, e.ID, req.Answers)
		switch {
		case err == nil:
			respondJSON(w, http.StatusOK, res)
		case errors.Is(err, exam.ErrAlreadySubmitted):
			http.Error(w, "exam already submitted", http.StatusConflict)
		case errors.Is(err, exam.ErrExamNotFound):
			http.Error(w, "exam not found", http.StatusNotFound)
		default:
			log.Error("submit", zap.String("exam_id", e.ID), zap.Error(err))
			http.Error(w, "failed to submit exam, please retry", http.StatusInternalServerError)
		}
	}
}

func publishedExam(w http.ResponseWriter, r *http.Request, store exam.Store) (exam.Exam, bool) {
	e, err := store.GetExam(r.Context(), chi.URLParam(r, "examID"))
	switch {
	case errors.Is(err, exam.ErrExamNotFound):
		http.Error(w, "exam not found", http.StatusNotFound)
		return exam.Exam{}, false
	case err != nil:
		http.Error(w, "failed to load exam", http.StatusInternalServerError)
		return exam.Exam{}, false
	case !e.IsPublished:
		http.Error(w, "this exam is not available", http.StatusForbidden)
		return exam.Exam{}, false
	}
	return e, true
}
