package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/unitech/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestResponseError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantKey    string
	}{
		{"not found", fmt.Errorf("%w: user", apperror.ErrNotFound), http.StatusNotFound, "not_found", ""},
		{"duplicate", apperror.ErrDuplicateKey, http.StatusConflict, "duplicate_key", ""},
		{"invalid", apperror.Invalid("email", "bad"), http.StatusBadRequest, "invalid", "fields"},
		{"partial", &apperror.PartialFailureError{UserID: userID, Step: "profile", Err: errors.New("boom")}, http.StatusInternalServerError, "partial_failure", "user_id"},
		{"internal", errors.New("db down"), http.StatusInternalServerError, "internal", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			ResponseError(c, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}

			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["code"] != tc.wantCode {
				t.Fatalf("expected code %q, got %v", tc.wantCode, body["code"])
			}
			if tc.wantKey != "" {
				if _, ok := body[tc.wantKey]; !ok {
					t.Fatalf("expected %q in body %v", tc.wantKey, body)
				}
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if _, err := GetUserID(c); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("expected unauthorized without user, got %v", err)
	}

	id := uuid.New()
	c.Set("user_id", id.String())
	got, err := GetUserID(c)
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}
}
