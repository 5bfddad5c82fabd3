package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/unitech/internal/middleware"
	"anoa.com/unitech/internal/modules/profile/reactor"
	profileRepo "anoa.com/unitech/internal/modules/profile/repository"
	handler "anoa.com/unitech/internal/modules/user/delivery/http"
	"anoa.com/unitech/internal/modules/user/repository"
	"anoa.com/unitech/internal/modules/user/service"
	"anoa.com/unitech/internal/testutil"
	"anoa.com/unitech/pkg/cache"
	"anoa.com/unitech/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const secret = "handler-secret"

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	students := profileRepo.NewStudentRepository(db)
	r := reactor.New(students, profileRepo.NewInstructorRepository(db), testutil.Logger())
	users := repository.NewUserRepository(db, r.Options()...)

	svc := service.NewAuthService(service.Deps{
		Users:    users,
		Students: students,
		Cache:    cache.New(nil, 0),
		Limiter:  ratelimit.New(nil),
		Mailer:   &testutil.Mailer{},
		Logger:   testutil.Logger(),
	}, service.Config{Secret: secret, TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost})

	h := handler.NewAuthHandler(svc)
	auth := middleware.NewAuthMiddleware(users, secret)

	router := gin.New()
	router.POST("/api/users", h.Register)
	router.POST("/api/auth/login", h.Login)
	router.GET("/api/users/current-user", auth.RequireAuth(), h.CurrentUser)
	return router
}

func send(t *testing.T, router *gin.Engine, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestRegisterLoginCurrentUser(t *testing.T) {
	router := newRouter(t)

	rec, body := send(t, router, http.MethodPost, "/api/users", map[string]any{
		"email":      "jean@x.io",
		"password":   "s3cretpass",
		"first_name": "Jean",
		"last_name":  "Valjean",
		"city":       "Paris",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	if body["role"] != "STUDENT" {
		t.Fatalf("expected STUDENT, got %v", body["role"])
	}

	rec, body = send(t, router, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "jean@x.io",
		"password": "s3cretpass",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	token, _ := body["access_token"].(string)

	rec, body = send(t, router, http.MethodGet, "/api/users/current-user", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("current user: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	profile, ok := body["profile"].(map[string]any)
	if !ok || profile["city"] != "Paris" {
		t.Fatalf("expected Paris profile, got %v", body["profile"])
	}
}

func TestRegisterErrors(t *testing.T) {
	router := newRouter(t)

	payload := map[string]any{"email": "dup@x.io", "password": "s3cretpass"}
	if rec, _ := send(t, router, http.MethodPost, "/api/users", payload, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first register: %d", rec.Code)
	}

	rec, body := send(t, router, http.MethodPost, "/api/users", map[string]any{"email": "DUP@x.io", "password": "s3cretpass"}, "")
	if rec.Code != http.StatusConflict || body["code"] != "duplicate_key" {
		t.Fatalf("expected 409 duplicate_key, got %d %v", rec.Code, body)
	}

	rec, body = send(t, router, http.MethodPost, "/api/users", map[string]any{"email": "bad", "password": "x", "sex": "Q"}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	fields, _ := body["fields"].(map[string]any)
	for _, key := range []string{"email", "password", "sex"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected field %s in %v", key, body)
		}
	}

	rec, _ = send(t, router, http.MethodGet, "/api/users/current-user", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}
