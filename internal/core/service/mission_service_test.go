package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldops/tracker/internal/core/domain"
	"github.com/fieldops/tracker/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubMissionRepo struct {
	mu       sync.Mutex
	missions map[int64]*domain.Mission
	nextID   int64

	// cleanupErr makes DeleteTerminalEndedBefore fail after reporting
	// cleanupPartial deletions, mimicking a cascade that broke part-way.
	cleanupErr     error
	cleanupPartial int64
}

func newStubMissionRepo() *stubMissionRepo {
	return &stubMissionRepo{missions: make(map[int64]*domain.Mission), nextID: 1}
}

func cloneMission(m *domain.Mission) *domain.Mission {
	clone := *m
	return &clone
}

func (r *stubMissionRepo) Create(_ context.Context, m *domain.Mission) (*domain.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := cloneMission(m)
	clone.ID = r.nextID
	r.nextID++
	r.missions[clone.ID] = cloneMission(clone)
	return clone, nil
}

func (r *stubMissionRepo) FindAll(_ context.Context) ([]*domain.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Mission, 0, len(r.missions))
	for _, m := range r.missions {
		out = append(out, cloneMission(m))
	}
	return out, nil
}

func (r *stubMissionRepo) FindByID(_ context.Context, id int64) (*domain.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[id]
	if !ok {
		return nil, domain.NotFound("Mission", id)
	}
	return cloneMission(m), nil
}

func (r *stubMissionRepo) Update(_ context.Context, m *domain.Mission) (*domain.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.missions[m.ID]; !ok {
		return nil, domain.NotFound("Mission", m.ID)
	}
	r.missions[m.ID] = cloneMission(m)
	return cloneMission(m), nil
}

func (r *stubMissionRepo) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.missions[id]; !ok {
		return domain.NotFound("Mission", id)
	}
	delete(r.missions, id)
	return nil
}

func (r *stubMissionRepo) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missions = make(map[int64]*domain.Mission)
	return nil
}

func (r *stubMissionRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.missions)), nil
}

func (r *stubMissionRepo) DeleteTerminalEndedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cleanupErr != nil {
		return r.cleanupPartial, r.cleanupErr
	}
	var deleted int64
	for id, m := range r.missions {
		if m.Status.IsTerminal() && m.EndDate != nil && m.EndDate.Before(cutoff) {
			delete(r.missions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *stubMissionRepo) FindOverdue(_ context.Context, now time.Time) ([]*domain.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Mission
	for _, m := range r.missions {
		if !m.Status.IsTerminal() && m.EndDate != nil && m.EndDate.Before(now) {
			out = append(out, cloneMission(m))
		}
	}
	return out, nil
}

type stubNotifier struct {
	mu     sync.Mutex
	agents []string
	events []any
}

func (n *stubNotifier) NotifyAgent(_ context.Context, agentID string, event any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.agents = append(n.agents, agentID)
	n.events = append(n.events, event)
	return nil
}

func (n *stubNotifier) NotifyAll(_ context.Context, event any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func strPtr(s string) *string { return &s }

func validMissionInput() ports.CreateMissionInput {
	return ports.CreateMissionInput{
		Title:         "Surveillance entrepôt",
		Status:        "EN_COURS",
		ReferentAgent: "agent.dupont",
		StartDate:     datePtr(2025, 1, 10),
		EndDate:       datePtr(2025, 1, 20),
	}
}

func isValidation(t *testing.T, err error) {
	t.Helper()
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestMissionService_Create_Success(t *testing.T) {
	repo := newStubMissionRepo()
	notifier := &stubNotifier{}
	svc := NewMissionService(repo, notifier, discardLogger)

	mission, err := svc.Create(context.Background(), validMissionInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if mission.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if mission.Status != domain.StatusEnCours {
		t.Fatalf("unexpected status: %s", mission.Status)
	}
	if mission.CreatedAt.IsZero() || mission.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected one lifecycle event, got %d", len(notifier.events))
	}
}

func TestMissionService_Create_NormalizesStatus(t *testing.T) {
	svc := NewMissionService(newStubMissionRepo(), nil, discardLogger)

	for raw, want := range map[string]domain.Status{
		"terminée": domain.StatusTermine,
		"TERMINEE": domain.StatusTermine,
		" annulé ": domain.StatusAnnule,
		"Annulee":  domain.StatusAnnule,
		"en_cours": domain.StatusEnCours,
	} {
		input := validMissionInput()
		input.Status = raw
		mission, err := svc.Create(context.Background(), input)
		if err != nil {
			t.Fatalf("Create(%q) returned error: %v", raw, err)
		}
		if mission.Status != want {
			t.Fatalf("Create(%q): got status %s, want %s", raw, mission.Status, want)
		}
	}
}

func TestMissionService_Create_Validation(t *testing.T) {
	svc := NewMissionService(newStubMissionRepo(), nil, discardLogger)
	ctx := context.Background()

	cases := map[string]func(*ports.CreateMissionInput){
		"empty title":      func(in *ports.CreateMissionInput) { in.Title = "  " },
		"empty agent":      func(in *ports.CreateMissionInput) { in.ReferentAgent = "" },
		"missing status":   func(in *ports.CreateMissionInput) { in.Status = "" },
		"unknown status":   func(in *ports.CreateMissionInput) { in.Status = "PAUSED" },
		"end before start": func(in *ports.CreateMissionInput) { in.StartDate = datePtr(2025, 2, 1); in.EndDate = datePtr(2025, 1, 1) },
	}
	for name, mutate := range cases {
		input := validMissionInput()
		mutate(&input)
		_, err := svc.Create(ctx, input)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		isValidation(t, err)
	}
}

func TestMissionService_Create_AbsentDatesAllowed(t *testing.T) {
	svc := NewMissionService(newStubMissionRepo(), nil, discardLogger)

	input := validMissionInput()
	input.StartDate = nil
	input.EndDate = nil
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("Create without dates: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Update / patch
// ---------------------------------------------------------------------------

func TestMissionService_Update_MergesFields(t *testing.T) {
	repo := newStubMissionRepo()
	svc := NewMissionService(repo, nil, discardLogger)
	ctx := context.Background()

	mission, _ := svc.Create(ctx, validMissionInput())

	updated, err := svc.UpdateByID(ctx, mission.ID, ports.UpdateMissionInput{
		Title:  strPtr("Surveillance renforcée"),
		Status: strPtr("terminée"),
	})
	if err != nil {
		t.Fatalf("UpdateByID: %v", err)
	}
	if updated.Title != "Surveillance renforcée" {
		t.Fatalf("title not updated: %q", updated.Title)
	}
	if updated.Status != domain.StatusTermine {
		t.Fatalf("status not normalized: %s", updated.Status)
	}
	if updated.ReferentAgent != mission.ReferentAgent {
		t.Fatalf("untouched field changed: %q", updated.ReferentAgent)
	}
	if !updated.UpdatedAt.After(mission.UpdatedAt) && updated.UpdatedAt.Equal(mission.UpdatedAt) {
		t.Fatalf("modification timestamp not refreshed")
	}
}

func TestMissionService_Update_ValidatesMergedDates(t *testing.T) {
	svc := NewMissionService(newStubMissionRepo(), nil, discardLogger)
	ctx := context.Background()

	mission, _ := svc.Create(ctx, validMissionInput()) // starts 2025-01-10

	// Only dateFin in the payload, but it lands before the stored dateDebut.
	_, err := svc.UpdateByID(ctx, mission.ID, ports.UpdateMissionInput{
		EndDate: datePtr(2025, 1, 5),
	})
	if err == nil {
		t.Fatalf("expected merged date validation to fail")
	}
	isValidation(t, err)
}

func TestMissionService_Update_RejectsEmptyStrings(t *testing.T) {
	svc := NewMissionService(newStubMissionRepo(), nil, discardLogger)
	ctx := context.Background()

	mission, _ := svc.Create(ctx, validMissionInput())

	if _, err := svc.UpdateByID(ctx, mission.ID, ports.UpdateMissionInput{Title: strPtr(" ")}); err == nil {
		t.Fatalf("expected empty title to be rejected")
	}
	if _, err := svc.UpdateByID(ctx, mission.ID, ports.UpdateMissionInput{ReferentAgent: strPtr("")}); err == nil {
		t.Fatalf("expected empty agent to be rejected")
	}
	// Omission stays legal.
	if _, err := svc.UpdateByID(ctx, mission.ID, ports.UpdateMissionInput{}); err != nil {
		t.Fatalf("empty payload should be a no-op update: %v", err)
	}
}

func TestMissionService_Update_NotFound(t *testing.T) {
	svc := NewMissionService(newStubMissionRepo(), nil, discardLogger)

	_, err := svc.UpdateByID(context.Background(), 404, ports.UpdateMissionInput{Title: strPtr("x")})
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Entity != "Mission" || nf.ID != 404 {
		t.Fatalf("unexpected not-found detail: %+v", nf)
	}
}

func TestMissionService_Patch_SameSemanticsAsUpdate(t *testing.T) {
	svc := NewMissionService(newStubMissionRepo(), nil, discardLogger)
	ctx := context.Background()

	mission, _ := svc.Create(ctx, validMissionInput())
	patched, err := svc.PatchByID(ctx, mission.ID, ports.UpdateMissionInput{Status: strPtr("ANNULÉE")})
	if err != nil {
		t.Fatalf("PatchByID: %v", err)
	}
	if patched.Status != domain.StatusAnnule {
		t.Fatalf("unexpected status: %s", patched.Status)
	}
}

// ---------------------------------------------------------------------------
// Delete / count
// ---------------------------------------------------------------------------

func TestMissionService_DeleteByID_NotFound(t *testing.T) {
	svc := NewMissionService(newStubMissionRepo(), nil, discardLogger)

	err := svc.DeleteByID(context.Background(), 99)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMissionService_Count_TracksDeleteAll(t *testing.T) {
	svc := NewMissionService(newStubMissionRepo(), nil, discardLogger)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, validMissionInput()); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if n, _ := svc.Count(ctx); n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
	if err := svc.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if n, _ := svc.Count(ctx); n != 0 {
		t.Fatalf("count after DeleteAll = %d, want 0", n)
	}
}

// ---------------------------------------------------------------------------
// Cleanup / overdue
// ---------------------------------------------------------------------------

func TestMissionService_DeleteOldCompleted(t *testing.T) {
	repo := newStubMissionRepo()
	svc := NewMissionService(repo, nil, discardLogger)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -400)
	recent := time.Now().UTC().AddDate(0, 0, -10)

	seed := func(status domain.Status, end *time.Time) *domain.Mission {
		m, err := repo.Create(ctx, &domain.Mission{Title: "m", Status: status, ReferentAgent: "a", EndDate: end})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		return m
	}

	oldTerminal := seed(domain.StatusTermine, &old)
	oldCancelled := seed(domain.StatusAnnule, &old)
	recentTerminal := seed(domain.StatusTermine, &recent)
	oldRunning := seed(domain.StatusEnCours, &old)
	noEndDate := seed(domain.StatusTermine, nil)

	deleted, err := svc.DeleteOldCompleted(ctx, 365)
	if err != nil {
		t.Fatalf("DeleteOldCompleted: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
	for _, gone := range []*domain.Mission{oldTerminal, oldCancelled} {
		if _, err := repo.FindByID(ctx, gone.ID); err == nil {
			t.Fatalf("mission %d should have been deleted", gone.ID)
		}
	}
	for _, kept := range []*domain.Mission{recentTerminal, oldRunning, noEndDate} {
		if _, err := repo.FindByID(ctx, kept.ID); err != nil {
			t.Fatalf("mission %d should have survived: %v", kept.ID, err)
		}
	}
}

func TestMissionService_DeleteOldCompleted_RejectsNonPositiveWindow(t *testing.T) {
	repo := newStubMissionRepo()
	svc := NewMissionService(repo, nil, discardLogger)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(-2, 0, 0)
	if _, err := repo.Create(ctx, &domain.Mission{Title: "m", Status: domain.StatusTermine, ReferentAgent: "a", EndDate: &old}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, days := range []int{0, -1} {
		_, err := svc.DeleteOldCompleted(ctx, days)
		if err == nil {
			t.Fatalf("DeleteOldCompleted(%d): expected validation error", days)
		}
		isValidation(t, err)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("rejected cleanup must not delete anything, count = %d", n)
	}
}

func TestMissionService_DeleteOldCompleted_ReportsPartialCountOnError(t *testing.T) {
	repo := newStubMissionRepo()
	repo.cleanupErr = errors.New("cascade reports: connection reset")
	repo.cleanupPartial = 2
	svc := NewMissionService(repo, nil, discardLogger)

	deleted, err := svc.DeleteOldCompleted(context.Background(), 30)
	if err == nil {
		t.Fatal("expected the repository error to surface")
	}
	if deleted != 2 {
		t.Fatalf("missions removed before the failure must be reported, got %d", deleted)
	}
}

func TestMissionService_FindOverdue(t *testing.T) {
	repo := newStubMissionRepo()
	svc := NewMissionService(repo, nil, discardLogger)
	ctx := context.Background()

	past := time.Now().UTC().Add(-48 * time.Hour)
	future := time.Now().UTC().Add(48 * time.Hour)

	overdueMission, _ := repo.Create(ctx, &domain.Mission{Title: "late", Status: domain.StatusEnCours, ReferentAgent: "a", EndDate: &past})
	repo.Create(ctx, &domain.Mission{Title: "done", Status: domain.StatusTermine, ReferentAgent: "a", EndDate: &past})
	repo.Create(ctx, &domain.Mission{Title: "future", Status: domain.StatusEnCours, ReferentAgent: "a", EndDate: &future})
	repo.Create(ctx, &domain.Mission{Title: "open-ended", Status: domain.StatusEnCours, ReferentAgent: "a"})

	overdue, err := svc.FindOverdue(ctx)
	if err != nil {
		t.Fatalf("FindOverdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != overdueMission.ID {
		t.Fatalf("unexpected overdue set: %+v", overdue)
	}
}
