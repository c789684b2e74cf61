package targeting

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"i9campaigns/internal/models"
)

type fakeDirectory map[string]*models.StationLocation

func (d fakeDirectory) ResolveStation(_ context.Context, code string) (*models.StationLocation, error) {
	if loc, ok := d[code]; ok {
		return loc, nil
	}
	return nil, ErrStationNotFound
}

type fakeCatalog struct {
	campaigns []*models.Campaign
	err       error
}

func (c *fakeCatalog) ActiveCampaigns(context.Context, time.Time) ([]*models.Campaign, error) {
	return c.campaigns, c.err
}

type fakeImages map[string][]*models.CampaignImage

func (f fakeImages) ActiveImages(_ context.Context, campaignID string) ([]*models.CampaignImage, error) {
	return f[campaignID], nil
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func campaign(id string, priority int, createdAt time.Time, branches, regions, stations []string) *models.Campaign {
	return &models.Campaign{
		ID:        id,
		Name:      "campaign " + id,
		Status:    models.CampaignStatusActive,
		StartDate: testNow.Add(-24 * time.Hour),
		EndDate:   testNow.Add(24 * time.Hour),
		Branches:  branches,
		Regions:   regions,
		Stations:  stations,
		Priority:  priority,
		CreatedAt: createdAt,
	}
}

func sp01Directory() fakeDirectory {
	return fakeDirectory{
		"001": {StationID: "st-1", Code: "001", BranchCode: "SP01", Region: "Sudeste"},
	}
}

func resultIDs(res *Resolution) []string {
	ids := make([]string, 0, len(res.Campaigns))
	for _, rc := range res.Campaigns {
		ids = append(ids, rc.Campaign.ID)
	}
	return ids
}

// Branch SP01 (state SP, Sudeste) owns station 001. A is global, B targets
// the Sudeste region, C targets the whole branch, D targets station 002
// only. Expected order: B, C, A by priority; D excluded.
func TestResolveConcreteScenario(t *testing.T) {
	created := testNow.Add(-time.Hour)
	catalog := &fakeCatalog{campaigns: []*models.Campaign{
		campaign("A", 0, created, nil, nil, nil),
		campaign("B", 5, created, nil, []string{"Sudeste"}, nil),
		campaign("C", 3, created, []string{"SP01"}, nil, nil),
		campaign("D", 10, created, []string{"SP01"}, nil, []string{"002"}),
	}}

	res, err := NewResolver(sp01Directory(), catalog).Resolve(context.Background(), "001", testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got, want := resultIDs(res), []string{"B", "C", "A"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("campaigns = %v, want %v", got, want)
	}
	wantLevels := []Level{LevelRegional, LevelBranch, LevelGlobal}
	for i, rc := range res.Campaigns {
		if rc.Level != wantLevels[i] {
			t.Errorf("campaign %s level = %q, want %q", rc.Campaign.ID, rc.Level, wantLevels[i])
		}
	}
	if res.BranchCode == nil || *res.BranchCode != "SP01" {
		t.Errorf("branch code = %v, want SP01", res.BranchCode)
	}
	if res.Region == nil || *res.Region != "Sudeste" {
		t.Errorf("region = %v, want Sudeste", res.Region)
	}
}

func TestResolveUnknownStationDegradesToGlobal(t *testing.T) {
	created := testNow.Add(-time.Hour)
	catalog := &fakeCatalog{campaigns: []*models.Campaign{
		campaign("global", 0, created, nil, nil, nil),
		campaign("regional", 5, created, nil, []string{"Sudeste"}, nil),
		campaign("branch", 3, created, []string{"SP01"}, nil, nil),
		campaign("station", 9, created, []string{"SP01"}, nil, []string{"does-not-exist"}),
	}}

	res, err := NewResolver(sp01Directory(), catalog).Resolve(context.Background(), "does-not-exist", testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got, want := resultIDs(res), []string{"global"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("campaigns = %v, want %v", got, want)
	}
	if res.BranchCode != nil || res.Region != nil {
		t.Errorf("expected nil branch/region, got %v/%v", res.BranchCode, res.Region)
	}
}

func TestResolveIdempotent(t *testing.T) {
	created := testNow.Add(-time.Hour)
	catalog := &fakeCatalog{campaigns: []*models.Campaign{
		campaign("A", 2, created, nil, nil, nil),
		campaign("B", 2, created.Add(time.Minute), nil, []string{"Sudeste"}, nil),
		campaign("C", 7, created, []string{"SP01"}, nil, nil),
	}}
	resolver := NewResolver(sp01Directory(), catalog)

	first, err := resolver.Resolve(context.Background(), "001", testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), "001", testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(resultIDs(first), resultIDs(second)) {
		t.Errorf("orders differ: %v vs %v", resultIDs(first), resultIDs(second))
	}
}

func TestResolveRegionalTierExclusivity(t *testing.T) {
	created := testNow.Add(-time.Hour)
	catalog := &fakeCatalog{campaigns: []*models.Campaign{
		campaign("south-only", 1, created, nil, []string{"Sul"}, nil),
	}}
	directory := fakeDirectory{
		"001": {Code: "001", BranchCode: "SP01", Region: "Sudeste"},
		"900": {Code: "900", BranchCode: "RS01", Region: "Sul"},
	}
	resolver := NewResolver(directory, catalog)

	res, err := resolver.Resolve(context.Background(), "001", testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Campaigns) != 0 {
		t.Errorf("Sudeste station got Sul campaign: %v", resultIDs(res))
	}

	res, err = resolver.Resolve(context.Background(), "900", testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got, want := resultIDs(res), []string{"south-only"}; !reflect.DeepEqual(got, want) {
		t.Errorf("campaigns = %v, want %v", got, want)
	}
}

func TestResolveDeduplicates(t *testing.T) {
	created := testNow.Add(-time.Hour)
	dup := campaign("dup", 4, created, nil, nil, nil)
	// A pathological catalog snapshot can surface the same campaign twice;
	// it must appear exactly once, at its highest-ranked position.
	catalog := &fakeCatalog{campaigns: []*models.Campaign{
		dup,
		campaign("other", 2, created, nil, nil, nil),
		dup,
	}}

	res, err := NewResolver(sp01Directory(), catalog).Resolve(context.Background(), "001", testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got, want := resultIDs(res), []string{"dup", "other"}; !reflect.DeepEqual(got, want) {
		t.Errorf("campaigns = %v, want %v", got, want)
	}
}

func TestResolvePriorityTiesBrokenByNewerCreation(t *testing.T) {
	older := campaign("older", 5, testNow.Add(-2*time.Hour), nil, nil, nil)
	newer := campaign("newer", 5, testNow.Add(-time.Hour), nil, nil, nil)
	catalog := &fakeCatalog{campaigns: []*models.Campaign{older, newer}}

	res, err := NewResolver(sp01Directory(), catalog).Resolve(context.Background(), "001", testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got, want := resultIDs(res), []string{"newer", "older"}; !reflect.DeepEqual(got, want) {
		t.Errorf("campaigns = %v, want %v", got, want)
	}
}

func TestResolveCatalogErrorAborts(t *testing.T) {
	catalogErr := errors.New("catalog unavailable")
	resolver := NewResolver(sp01Directory(), &fakeCatalog{err: catalogErr})

	_, err := resolver.Resolve(context.Background(), "001", testNow)
	if !errors.Is(err, catalogErr) {
		t.Fatalf("expected catalog error, got %v", err)
	}
}

func TestResolveExcludesInvalidTargetingWithoutAborting(t *testing.T) {
	created := testNow.Add(-time.Hour)
	catalog := &fakeCatalog{campaigns: []*models.Campaign{
		campaign("malformed", 9, created, nil, []string{"Sudeste"}, []string{"001"}),
		campaign("ok", 1, created, nil, nil, nil),
	}}

	res, err := NewResolver(sp01Directory(), catalog).Resolve(context.Background(), "001", testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got, want := resultIDs(res), []string{"ok"}; !reflect.DeepEqual(got, want) {
		t.Errorf("campaigns = %v, want %v", got, want)
	}
}

func TestAssemblerAttach(t *testing.T) {
	created := testNow.Add(-time.Hour)
	c := campaign("A", 0, created, nil, nil, nil)
	c.DefaultDisplayTime = 5000

	override := 9000
	images := fakeImages{
		"A": {
			{ID: "img-1", Order: 1, URL: "https://cdn.example.com/img-1.jpg", Width: 1920, Height: 1080, MimeType: "image/jpeg"},
			{ID: "img-2", Order: 2, URL: "https://cdn.example.com/img-2.jpg", DisplayTime: &override},
		},
	}

	res := &Resolution{
		StationCode: "001",
		Campaigns:   []ResolvedCampaign{{Campaign: c, Level: LevelGlobal}},
		Timestamp:   testNow,
	}

	content := NewAssembler(images).Attach(context.Background(), res)
	if len(content) != 1 {
		t.Fatalf("expected 1 campaign, got %d", len(content))
	}
	imgs := content[0].Images
	if len(imgs) != 2 {
		t.Fatalf("expected 2 images, got %d", len(imgs))
	}
	if imgs[0].DisplayTime != 5000 {
		t.Errorf("img-1 display time = %d, want campaign default 5000", imgs[0].DisplayTime)
	}
	if imgs[1].DisplayTime != 9000 {
		t.Errorf("img-2 display time = %d, want override 9000", imgs[1].DisplayTime)
	}
	if imgs[0].Checksum == "" || imgs[0].Checksum != ImageChecksum("img-1") {
		t.Errorf("unstable checksum for img-1: %q", imgs[0].Checksum)
	}
}

type failingImages struct{}

func (failingImages) ActiveImages(context.Context, string) ([]*models.CampaignImage, error) {
	return nil, errors.New("image store down")
}

func TestAssemblerImageFailureKeepsCampaign(t *testing.T) {
	c := campaign("A", 0, testNow, nil, nil, nil)
	res := &Resolution{
		StationCode: "001",
		Campaigns:   []ResolvedCampaign{{Campaign: c, Level: LevelGlobal}},
	}

	content := NewAssembler(failingImages{}).Attach(context.Background(), res)
	if len(content) != 1 {
		t.Fatalf("campaign dropped on image failure")
	}
	if len(content[0].Images) != 0 {
		t.Fatalf("expected empty image list, got %d", len(content[0].Images))
	}
}
