package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/examgrade/internal/auth/middleware"
	"github.com/mind-engage/examgrade/internal/exam"
	"github.com/mind-engage/examgrade/internal/rbac"
)

// GET /attempts/{attemptID}
// Owners see their own attempts; attempt:view-all sees any.
func GetAttemptReviewHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := authmw.SessionFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		rv, err := exam.LoadReview(r.Context(), store, chi.URLParam(r, "attemptID"))
		switch {
		case errors.Is(err, exam.ErrAttemptNotFound), errors.Is(err, exam.ErrExamNotFound):
			http.Error(w, "attempt not found", http.StatusNotFound)
			return
		case err != nil:
			http.Error(w, "failed to load attempt", http.StatusInternalServerError)
			return
		}
		if rv.Attempt.UserID != sess.UserID && !rbac.Allowed(r.Context(), rbac.PermAttemptViewAll) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		respondJSON(w, http.StatusOK, rv)
	}
}
