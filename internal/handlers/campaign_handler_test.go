package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"i9campaigns/internal/interfaces"
	"i9campaigns/internal/models"
	"i9campaigns/internal/targeting"
)

type mockCampaignRepo struct {
	active  []*models.Campaign
	created *models.Campaign
	byID    *models.Campaign
}

var _ interfaces.CampaignRepository = (*mockCampaignRepo)(nil)

func (m *mockCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	campaign.ID = "c-new"
	m.created = campaign
	return nil
}

func (m *mockCampaignRepo) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	if m.byID == nil {
		return nil, sql.ErrNoRows
	}
	return m.byID, nil
}

func (m *mockCampaignRepo) List(ctx context.Context, filter interfaces.CampaignFilter) ([]*models.Campaign, error) {
	return m.active, nil
}

func (m *mockCampaignRepo) ActiveCampaigns(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	return m.active, nil
}

func (m *mockCampaignRepo) Update(ctx context.Context, id string, campaign *models.Campaign) error {
	return nil
}

func (m *mockCampaignRepo) SoftDelete(ctx context.Context, id string) error { return nil }

type staticDirectory struct {
	loc *models.StationLocation
}

func (d *staticDirectory) ResolveStation(ctx context.Context, code string) (*models.StationLocation, error) {
	if d.loc == nil || d.loc.Code != code {
		return nil, targeting.ErrStationNotFound
	}
	return d.loc, nil
}

func newCampaignTestHandler(repo *mockCampaignRepo, loc *models.StationLocation) *CampaignHandler {
	resolver := targeting.NewResolver(&staticDirectory{loc: loc}, repo)
	return NewCampaignHandler(repo, resolver, nil)
}

func postJSON(t *testing.T, r http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateCampaignRejectsStationsWithoutBranches(t *testing.T) {
	repo := &mockCampaignRepo{}
	h := newCampaignTestHandler(repo, nil)
	r := chi.NewRouter()
	r.Post("/campaigns", h.CreateCampaign)

	w := postJSON(t, r, "/campaigns", map[string]any{
		"name":       "orphan stations",
		"start_date": "2026-01-01T00:00:00Z",
		"end_date":   "2026-02-01T00:00:00Z",
		"stations":   []string{"ST01"},
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d (%s)", w.Code, w.Body.String())
	}
	if repo.created != nil {
		t.Fatal("campaign should not have been persisted")
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["error"] != "invalid_targeting" {
		t.Fatalf("expected invalid_targeting, got %v", resp["error"])
	}
}

func TestCreateCampaignRejectsUnknownRegion(t *testing.T) {
	h := newCampaignTestHandler(&mockCampaignRepo{}, nil)
	r := chi.NewRouter()
	r.Post("/campaigns", h.CreateCampaign)

	w := postJSON(t, r, "/campaigns", map[string]any{
		"name":       "bad region",
		"start_date": "2026-01-01T00:00:00Z",
		"end_date":   "2026-02-01T00:00:00Z",
		"regions":    []string{"Atlantis"},
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d (%s)", w.Code, w.Body.String())
	}
}

func TestCreateCampaignDefaultsDisplayTime(t *testing.T) {
	repo := &mockCampaignRepo{}
	h := newCampaignTestHandler(repo, nil)
	r := chi.NewRouter()
	r.Post("/campaigns", h.CreateCampaign)

	w := postJSON(t, r, "/campaigns", map[string]any{
		"name":       "global promo",
		"start_date": "2026-01-01T00:00:00Z",
		"end_date":   "2026-02-01T00:00:00Z",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", w.Code, w.Body.String())
	}
	if repo.created == nil {
		t.Fatal("campaign was not persisted")
	}
	if repo.created.DefaultDisplayTime != models.DefaultDisplayTimeMS {
		t.Fatalf("expected default display time %d, got %d", models.DefaultDisplayTimeMS, repo.created.DefaultDisplayTime)
	}
	if repo.created.Status != models.CampaignStatusScheduled {
		t.Fatalf("expected scheduled status, got %s", repo.created.Status)
	}
}

func TestGetCampaignNotFoundJSON(t *testing.T) {
	h := newCampaignTestHandler(&mockCampaignRepo{}, nil)
	r := chi.NewRouter()
	r.Get("/campaigns/{id}", h.GetCampaign)

	req := httptest.NewRequest(http.MethodGet, "/campaigns/c1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d (%s)", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content-type got %q", ct)
	}
}

func TestActiveByStationReportsTargetingLevels(t *testing.T) {
	now := time.Now().UTC()
	window := func(c *models.Campaign) *models.Campaign {
		c.Status = models.CampaignStatusActive
		c.StartDate = now.Add(-time.Hour)
		c.EndDate = now.Add(time.Hour)
		c.CreatedAt = now.Add(-24 * time.Hour)
		return c
	}

	repo := &mockCampaignRepo{
		active: []*models.Campaign{
			window(&models.Campaign{ID: "global", Name: "global", Priority: 1}),
			window(&models.Campaign{ID: "branch", Name: "branch", Priority: 5, Branches: []string{"BR01"}}),
			window(&models.Campaign{ID: "elsewhere", Name: "elsewhere", Priority: 9, Branches: []string{"BR99"}}),
		},
	}
	loc := &models.StationLocation{StationID: "s1", Code: "ST01", BranchCode: "BR01", Region: "Sudeste"}
	h := newCampaignTestHandler(repo, loc)

	r := chi.NewRouter()
	r.Get("/campaigns/active/{code}", h.ActiveByStation)

	req := httptest.NewRequest(http.MethodGet, "/campaigns/active/ST01", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}

	var resp struct {
		StationCode string  `json:"station_code"`
		BranchCode  *string `json:"branch_code"`
		Region      *string `json:"region"`
		Total       int     `json:"total"`
		Campaigns   []struct {
			ID             string `json:"id"`
			TargetingLevel string `json:"targeting_level"`
		} `json:"campaigns"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if resp.StationCode != "ST01" || resp.BranchCode == nil || *resp.BranchCode != "BR01" {
		t.Fatalf("unexpected location echo: %+v", resp)
	}
	if resp.Total != 2 || len(resp.Campaigns) != 2 {
		t.Fatalf("expected 2 campaigns, got %+v", resp)
	}
	if resp.Campaigns[0].ID != "branch" || resp.Campaigns[0].TargetingLevel != "branch" {
		t.Fatalf("expected branch campaign first, got %+v", resp.Campaigns)
	}
	if resp.Campaigns[1].ID != "global" || resp.Campaigns[1].TargetingLevel != "global" {
		t.Fatalf("expected global campaign second, got %+v", resp.Campaigns)
	}
}
