package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/ircctl/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
)

func TestStaticTokenValidate(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "abc", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticToken{Token: tc.stored}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	testlog.Start(t)
	if tok, ok := BearerToken("Bearer abc"); !ok || tok != "abc" {
		t.Fatalf("unexpected token %q ok=%v", tok, ok)
	}
	if tok, ok := BearerToken("bearer   xyz "); !ok || tok != "xyz" {
		t.Fatalf("unexpected token %q ok=%v", tok, ok)
	}
	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer  "} {
		if _, ok := BearerToken(header); ok {
			t.Fatalf("header %q must be rejected", header)
		}
	}
}

func TestRequireBearer(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", RequireBearer(FuncValidator(func(token string) error {
		if token != "ok" {
			return ErrUnauthorized
		}
		return nil
	})), func(c *gin.Context) {
		c.String(http.StatusOK, "metrics")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status=%d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer ok")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "metrics" {
		t.Fatalf("valid token status=%d body=%q", rec.Code, rec.Body.String())
	}
}
