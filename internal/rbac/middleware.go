package rbac

import (
	"context"
	"net/http"
)

var defaultChecker = NewChecker(nil)

// Allowed reports whether the role in ctx holds every perm under the default policy.
func Allowed(ctx context.Context, perms ...string) bool {
	role := RoleFromContext(ctx)
	return role != "" && defaultChecker.All(role, perms...)
}

// Require lets the request through only when the caller's role holds all perms.
func Require(perms ...string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return defaultChecker.All(role, perms...) })
}

// RequireAny lets the request through when the role holds at least one perm.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return defaultChecker.Any(role, perms...) })
}

// guard answers 403 when the request carries no role or allow rejects it.
func guard(allow func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !allow(role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
