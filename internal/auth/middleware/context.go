package auth

import (
	"context"

	"github.com/mind-engage/examgrade/internal/rbac"
)

type ctxKey string

const ctxKeySub ctxKey = "sub"

// Session is the authenticated caller of a request.
type Session struct {
	UserID string
	Role   string
}

// WithSession stores the caller's subject and hands the role to rbac.
func WithSession(ctx context.Context, s Session) context.Context {
	ctx = context.WithValue(ctx, ctxKeySub, s.UserID)
	return rbac.WithRole(ctx, s.Role)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SessionFromContext returns the session set by JWTMiddleware. ok is false for
// anonymous requests.
func SessionFromContext(ctx context.Context) (Session, bool) {
	sub := SubjectFromContext(ctx)
	if sub == "" {
		return Session{}, false
	}
	return Session{UserID: sub, Role: rbac.RoleFromContext(ctx)}, true
}
