package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/examgrade/internal/rbac"
)

func login(t *testing.T, h http.Handler, user, pass string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"username":"` + user + `","password":"` + pass + `"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	return rec
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAuthService("test-secret")
	h := LoginHandler(a, LoginConfig{AdminUser: "admin", AdminPassHash: string(hash), AllowDevUsers: true})

	rec := login(t, h, "admin", "s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login: %d %s", rec.Code, rec.Body)
	}
	var out map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	c, err := a.Parse(out["access_token"])
	if err != nil || c.Sub != "admin" || c.Role != rbac.RoleAdmin {
		t.Fatalf("claims = %+v, err = %v", c, err)
	}

	if rec := login(t, h, "admin", "admin"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("admin with dev password: %d", rec.Code)
	}
	if rec := login(t, h, "alice", "alice"); rec.Code != http.StatusOK {
		t.Fatalf("dev user: %d", rec.Code)
	}
	if rec := login(t, h, "alice", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: %d", rec.Code)
	}

	strict := LoginHandler(a, LoginConfig{AdminUser: "admin", AdminPassHash: string(hash)})
	if rec := login(t, strict, "alice", "alice"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("dev users disabled: %d", rec.Code)
	}
}

func TestJWTMiddlewareSetsSession(t *testing.T) {
	a := NewAuthService("test-secret")
	tok, err := a.IssueJWT("alice", rbac.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	var got Session
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.UserID != "alice" || got.Role != rbac.RoleUser {
		t.Fatalf("session = %+v", got)
	}
}

func TestJWTMiddlewareRejects(t *testing.T) {
	a := NewAuthService("test-secret")
	other := NewAuthService("other-secret")
	forged, _ := other.IssueJWT("mallory", rbac.RoleAdmin)

	expired := NewAuthService("test-secret")
	expired.now = func() time.Time { return time.Now().Add(-24 * time.Hour) }
	old, _ := expired.IssueJWT("alice", rbac.RoleUser)

	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for name, header := range map[string]string{
		"missing": "",
		"forged":  "Bearer " + forged,
		"expired": "Bearer " + old,
		"garbage": "Bearer abc",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status %d, want 401", name, rec.Code)
		}
	}
}
