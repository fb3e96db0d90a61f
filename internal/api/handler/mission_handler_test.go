package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fieldops/tracker/internal/core/domain"
	"github.com/fieldops/tracker/internal/core/ports"
)

type stubMissionService struct {
	ports.MissionService
	createFn  func(ctx context.Context, input ports.CreateMissionInput) (*domain.Mission, error)
	updateFn  func(ctx context.Context, id int64, input ports.UpdateMissionInput) (*domain.Mission, error)
	findAllFn func(ctx context.Context) ([]*domain.Mission, error)
	deleteFn  func(ctx context.Context, id int64) error
}

func (s *stubMissionService) Create(ctx context.Context, input ports.CreateMissionInput) (*domain.Mission, error) {
	return s.createFn(ctx, input)
}

func (s *stubMissionService) UpdateByID(ctx context.Context, id int64, input ports.UpdateMissionInput) (*domain.Mission, error) {
	return s.updateFn(ctx, id, input)
}

func (s *stubMissionService) FindAll(ctx context.Context) ([]*domain.Mission, error) {
	return s.findAllFn(ctx)
}

func (s *stubMissionService) DeleteByID(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestMissionHandler_Create_Success(t *testing.T) {
	stub := &stubMissionService{
		createFn: func(ctx context.Context, input ports.CreateMissionInput) (*domain.Mission, error) {
			if input.Title != "Opération Delta" || input.ReferentAgent != "Durand" {
				t.Fatalf("unexpected input: %+v", input)
			}
			if input.StartDate == nil || input.StartDate.Day() != 10 {
				t.Fatalf("unexpected start date: %v", input.StartDate)
			}
			now := time.Now().UTC()
			return &domain.Mission{
				ID:            1,
				Title:         input.Title,
				Status:        domain.StatusEnCours,
				ReferentAgent: input.ReferentAgent,
				StartDate:     input.StartDate,
				CreatedAt:     now,
				UpdatedAt:     now,
			}, nil
		},
	}
	handler := NewMissionHandler(stub)

	body := `{"titre":"Opération Delta","agentReferent":"Durand","dateDebut":"2026-04-10"}`
	c, rec := newJSONContext(t, http.MethodPost, "/api/missions", body)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["titre"] != "Opération Delta" || resp["statut"] != "EN_COURS" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestMissionHandler_Create_BadDate(t *testing.T) {
	stub := &stubMissionService{
		createFn: func(ctx context.Context, input ports.CreateMissionInput) (*domain.Mission, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	handler := NewMissionHandler(stub)

	c, _ := newJSONContext(t, http.MethodPost, "/api/missions", `{"titre":"x","dateDebut":"10/04/2026"}`)

	err := handler.Create(c)
	var he *echo.HTTPError
	if err == nil || !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestMissionHandler_Update_ForwardsPartialInput(t *testing.T) {
	stub := &stubMissionService{
		updateFn: func(ctx context.Context, id int64, input ports.UpdateMissionInput) (*domain.Mission, error) {
			if id != 42 {
				t.Fatalf("unexpected id: %d", id)
			}
			if input.Title != nil {
				t.Fatalf("title must stay nil when absent, got %q", *input.Title)
			}
			if input.Status == nil || *input.Status != "terminee" {
				t.Fatalf("unexpected status: %v", input.Status)
			}
			return &domain.Mission{ID: id, Status: domain.StatusTermine}, nil
		},
	}
	handler := NewMissionHandler(stub)

	c, rec := newJSONContext(t, http.MethodPut, "/api/missions/42", `{"statut":"terminee"}`)
	c.SetParamNames("id")
	c.SetParamValues("42")

	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMissionHandler_Update_NotFoundBubbles(t *testing.T) {
	stub := &stubMissionService{
		updateFn: func(ctx context.Context, id int64, input ports.UpdateMissionInput) (*domain.Mission, error) {
			return nil, domain.NotFound("mission", id)
		},
	}
	handler := NewMissionHandler(stub)

	c, _ := newJSONContext(t, http.MethodPut, "/api/missions/77", `{"titre":"x"}`)
	c.SetParamNames("id")
	c.SetParamValues("77")

	err := handler.Update(c)
	var nf *domain.NotFoundError
	if err == nil || !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError to bubble to the error handler, got %v", err)
	}
}

func TestMissionHandler_Delete_BadID(t *testing.T) {
	stub := &stubMissionService{
		deleteFn: func(ctx context.Context, id int64) error {
			t.Fatal("service should not be called")
			return nil
		},
	}
	handler := NewMissionHandler(stub)

	c, _ := newJSONContext(t, http.MethodDelete, "/api/missions/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	err := handler.Delete(c)
	var he *echo.HTTPError
	if err == nil || !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestMissionHandler_List(t *testing.T) {
	stub := &stubMissionService{
		findAllFn: func(ctx context.Context) ([]*domain.Mission, error) {
			return []*domain.Mission{
				{ID: 1, Title: "alpha"},
				{ID: 2, Title: "bravo"},
			}, nil
		},
	}
	handler := NewMissionHandler(stub)

	c, rec := newJSONContext(t, http.MethodGet, "/api/missions", "")

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 || resp[0]["titre"] != "alpha" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
