package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/fieldops/tracker/internal/core/domain"
	"github.com/fieldops/tracker/internal/core/ports"
)

type stubAuthService struct {
	verifyFn   func(token string) (*ports.TokenClaims, error)
	validateFn func(ctx context.Context, id int64) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, email, username, password string) (*ports.AuthResult, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) ValidateUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.validateFn(ctx, id)
}

func (s *stubAuthService) VerifyToken(token string) (*ports.TokenClaims, error) {
	return s.verifyFn(token)
}

func invoke(t *testing.T, auth ports.AuthService, header string) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/missions", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
	err := Auth(auth)(next)(c)
	return rec, c, err
}

func TestAuthAcceptsValidToken(t *testing.T) {
	auth := &stubAuthService{
		verifyFn: func(token string) (*ports.TokenClaims, error) {
			if token != "good-token" {
				t.Fatalf("unexpected token: %s", token)
			}
			return &ports.TokenClaims{ID: 12, Email: "a@unit.test", Username: "alice"}, nil
		},
		validateFn: func(ctx context.Context, id int64) (*domain.User, error) {
			if id != 12 {
				t.Fatalf("unexpected id: %d", id)
			}
			return &domain.User{ID: 12, Email: "a@unit.test", Username: "alice"}, nil
		},
	}

	rec, c, err := invoke(t, auth, "Bearer good-token")
	if err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	user, ok := c.Get("user").(*domain.User)
	if !ok || user.ID != 12 {
		t.Fatalf("expected hydrated user in context, got %#v", c.Get("user"))
	}
	if id, _ := c.Get("agent_id").(int64); id != 12 {
		t.Fatalf("expected agent_id 12, got %v", c.Get("agent_id"))
	}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	auth := &stubAuthService{
		verifyFn: func(string) (*ports.TokenClaims, error) {
			t.Fatal("verify should not be called")
			return nil, nil
		},
	}

	_, _, err := invoke(t, auth, "")
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	auth := &stubAuthService{
		verifyFn: func(string) (*ports.TokenClaims, error) {
			t.Fatal("verify should not be called")
			return nil, nil
		},
	}

	_, _, err := invoke(t, auth, "Token abc")
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestAuthRejectsBadToken(t *testing.T) {
	auth := &stubAuthService{
		verifyFn: func(string) (*ports.TokenClaims, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}

	_, _, err := invoke(t, auth, "Bearer expired")
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestAuthRejectsVanishedUser(t *testing.T) {
	auth := &stubAuthService{
		verifyFn: func(string) (*ports.TokenClaims, error) {
			return &ports.TokenClaims{ID: 99}, nil
		},
		validateFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}

	_, _, err := invoke(t, auth, "Bearer orphaned")
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func assertHTTPStatus(t *testing.T, err error, want int) {
	t.Helper()

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != want {
		t.Fatalf("expected status %d, got %d", want, he.Code)
	}
}
