package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-cms/meridian-cms/internal/auth"
	"github.com/meridian-cms/meridian-cms/internal/authz"
	_ "github.com/meridian-cms/meridian-cms/testing"
)

const testCookieName = "meridian_session"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthRouter(t *testing.T, repo auth.Repository, resolver auth.RecordResolver) chi.Router {
	t.Helper()
	service := newService(t, repo, resolver, nil)
	handler := auth.NewHandler(testLogger(), service, nil, testCookieName, false, nil)
	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r
}

func editorRecord() *authz.Record {
	return &authz.Record{
		UserID:      42,
		Username:    "editor",
		RoleID:      7,
		RoleName:    "editor",
		Permissions: authz.NewSet(authz.PermReadNews),
	}
}

func TestLoginSuccessReturnsTokenAndMarker(t *testing.T) {
	router := newAuthRouter(t, &stubRepo{user: testUser(t, "correcthorse")}, &stubResolver{record: editorRecord()})

	body := `{"username":"editor","password":"correcthorse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}

	var marker *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == testCookieName {
			marker = c
		}
	}
	if marker == nil {
		t.Fatal("edge session marker not set")
	}
	if marker.MaxAge != int(time.Hour.Seconds()) {
		t.Fatalf("marker lifetime should match token TTL, got %d", marker.MaxAge)
	}
	if !marker.HttpOnly {
		t.Fatal("marker must be http-only")
	}
}

func TestLoginFailureIs401WithUniformMessage(t *testing.T) {
	router := newAuthRouter(t, &stubRepo{user: testUser(t, "correcthorse")}, &stubResolver{})

	for _, body := range []string{
		`{"username":"editor","password":"wrongpass"}`,
		`{"username":"ghost","password":"correcthorse"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "invalid username or password") {
			t.Fatalf("expected uniform failure message, got %s", rr.Body.String())
		}
	}
}

func TestMeRequiresValidBearer(t *testing.T) {
	router := newAuthRouter(t, &stubRepo{user: testUser(t, "correcthorse")}, &stubResolver{record: editorRecord()})

	// No token.
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	// Garbage token.
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rr.Code)
	}
}

func TestMeReturnsResolvedRecord(t *testing.T) {
	repo := &stubRepo{user: testUser(t, "correcthorse")}
	resolver := &stubResolver{record: editorRecord()}
	router := newAuthRouter(t, repo, resolver)

	login := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"editor","password":"correcthorse"}`))
	loginRR := httptest.NewRecorder()
	router.ServeHTTP(loginRR, login)
	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(loginRR.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var me struct {
		Username    string   `json:"username"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Username != "editor" || me.Role != "editor" {
		t.Fatalf("unexpected identity: %+v", me)
	}
	if len(me.Permissions) != 1 || me.Permissions[0] != "read:news" {
		t.Fatalf("unexpected permissions: %v", me.Permissions)
	}
}

func TestLogoutClearsMarkerAndIsIdempotent(t *testing.T) {
	router := newAuthRouter(t, &stubRepo{}, &stubResolver{})

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("logout should always succeed, got %d", rr.Code)
		}
		var cleared bool
		for _, c := range rr.Result().Cookies() {
			if c.Name == testCookieName && c.MaxAge < 0 {
				cleared = true
			}
		}
		if !cleared {
			t.Fatal("marker cookie not cleared")
		}
	}
}

func TestChangePasswordEndpoint(t *testing.T) {
	repo := &stubRepo{user: testUser(t, "correcthorse")}
	router := newAuthRouter(t, repo, &stubResolver{})

	req := httptest.NewRequest(http.MethodPost, "/auth/change-password",
		strings.NewReader(`{"username":"editor","oldPassword":"wrongpass","newPassword":"newpassword"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong old password, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/change-password",
		strings.NewReader(`{"username":"editor","oldPassword":"correcthorse","newPassword":"newpassword"}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestResetPasswordIsGatedAtTheRoute(t *testing.T) {
	repo := &stubRepo{user: testUser(t, "correcthorse")}
	resolver := &stubResolver{record: editorRecord()}
	service := newService(t, repo, resolver, nil)

	denyAll := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
	handler := auth.NewHandler(testLogger(), service, nil, testCookieName, false, denyAll)
	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)

	token, err := service.Authenticate(context.Background(), "editor", "correcthorse", "", "")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/reset-password",
		strings.NewReader(`{"username":"editor","newPassword":"newpassword"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("route gate should deny, got %d", rr.Code)
	}
}
