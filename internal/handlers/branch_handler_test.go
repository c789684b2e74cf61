package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"i9campaigns/internal/interfaces"
	"i9campaigns/internal/models"
	"i9campaigns/internal/repository"
)

type mockBranchRepo struct {
	created       *models.Branch
	byID          *models.Branch
	deactivateErr error
}

var _ repository.BranchRepository = (*mockBranchRepo)(nil)

func (m *mockBranchRepo) Create(ctx context.Context, branch *models.Branch) error {
	branch.ID = "b-new"
	m.created = branch
	return nil
}

func (m *mockBranchRepo) GetByID(ctx context.Context, id string) (*models.Branch, error) {
	if m.byID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byID, nil
}

func (m *mockBranchRepo) GetByCode(ctx context.Context, code string) (*models.Branch, error) {
	return nil, sql.ErrNoRows
}

func (m *mockBranchRepo) GetByIDWithStations(ctx context.Context, id string) (*models.BranchWithStations, error) {
	if m.byID == nil {
		return nil, sql.ErrNoRows
	}
	return &models.BranchWithStations{Branch: *m.byID, Stations: []models.Station{}}, nil
}

func (m *mockBranchRepo) List(ctx context.Context, filter repository.BranchFilter) ([]*models.Branch, error) {
	return nil, nil
}

func (m *mockBranchRepo) Count(ctx context.Context, filter repository.BranchFilter) (int, error) {
	return 0, nil
}

func (m *mockBranchRepo) Update(ctx context.Context, branch *models.Branch) error { return nil }

func (m *mockBranchRepo) Deactivate(ctx context.Context, id string) error { return m.deactivateErr }

func TestCreateBranchDerivesRegion(t *testing.T) {
	repo := &mockBranchRepo{}
	h := NewBranchHandler(repo)
	r := chi.NewRouter()
	r.Post("/branches", h.CreateBranch)

	w := postJSON(t, r, "/branches", map[string]any{
		"code":  "br01",
		"name":  "Posto Centro",
		"city":  "Campinas",
		"state": "sp",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", w.Code, w.Body.String())
	}
	if repo.created == nil {
		t.Fatal("branch was not persisted")
	}
	if repo.created.State != "SP" || repo.created.Region != "Sudeste" {
		t.Fatalf("expected SP/Sudeste, got %s/%s", repo.created.State, repo.created.Region)
	}
	if repo.created.Code != "BR01" {
		t.Fatalf("expected upper-cased code, got %s", repo.created.Code)
	}
}

func TestCreateBranchRejectsUnknownState(t *testing.T) {
	repo := &mockBranchRepo{}
	h := NewBranchHandler(repo)
	r := chi.NewRouter()
	r.Post("/branches", h.CreateBranch)

	w := postJSON(t, r, "/branches", map[string]any{
		"code":  "BR02",
		"name":  "Posto Fantasma",
		"state": "XX",
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d (%s)", w.Code, w.Body.String())
	}
	if repo.created != nil {
		t.Fatal("branch should not have been persisted")
	}
}

func TestDeactivateBranchBlockedByStations(t *testing.T) {
	repo := &mockBranchRepo{
		deactivateErr: &interfaces.DeletionBlockedError{
			Resource:   "branch",
			References: map[string]int64{"stations": 3},
		},
	}
	h := NewBranchHandler(repo)
	r := chi.NewRouter()
	r.Post("/branches/{id}/deactivate", h.DeactivateBranch)

	req := httptest.NewRequest(http.MethodPost, "/branches/b1/deactivate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d (%s)", w.Code, w.Body.String())
	}

	var resp struct {
		Error      string           `json:"error"`
		References map[string]int64 `json:"references"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Error != "deletion_blocked" || resp.References["stations"] != 3 {
		t.Fatalf("unexpected conflict payload: %+v", resp)
	}
}

func TestListRegionsReturnsFixedTable(t *testing.T) {
	h := NewBranchHandler(&mockBranchRepo{})
	r := chi.NewRouter()
	r.Get("/branches/regions", h.ListRegions)

	req := httptest.NewRequest(http.MethodGet, "/branches/regions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}

	var resp struct {
		Regions []struct {
			Name   string   `json:"name"`
			States []string `json:"states"`
		} `json:"regions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Regions) != 5 {
		t.Fatalf("expected 5 regions, got %d", len(resp.Regions))
	}
	var stateCount int
	for _, region := range resp.Regions {
		stateCount += len(region.States)
	}
	if stateCount != 27 {
		t.Fatalf("expected 27 states in total, got %d", stateCount)
	}
}
