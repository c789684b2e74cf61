package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

var campaignRows = []string{
	"id", "name", "description", "status", "start_date", "end_date",
	"default_display_time", "branches", "regions", "stations", "priority",
	"is_deleted", "created_by", "created_at", "updated_at",
}

func TestActiveCampaignsFiltersOnStatusAndWindow(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	created := now.Add(-time.Hour)

	rows := sqlmock.NewRows(campaignRows).
		AddRow("c1", "Promo", "", "active", now.Add(-24*time.Hour), now.Add(24*time.Hour),
			5000, "{SP01}", "{}", "{}", 3, false, nil, created, created)

	mock.ExpectQuery(`SELECT(?s:.+)FROM campaigns\s+WHERE is_deleted = FALSE\s+AND status = 'active'\s+AND start_date <= \$1\s+AND end_date >= \$1`).
		WithArgs(now).
		WillReturnRows(rows)

	repo := NewCampaignRepository(db)
	campaigns, err := repo.ActiveCampaigns(context.Background(), now)
	if err != nil {
		t.Fatalf("ActiveCampaigns: %v", err)
	}
	if len(campaigns) != 1 {
		t.Fatalf("expected 1 campaign, got %d", len(campaigns))
	}

	c := campaigns[0]
	if c.ID != "c1" || c.Priority != 3 {
		t.Errorf("unexpected campaign: %+v", c)
	}
	if len(c.Branches) != 1 || c.Branches[0] != "SP01" {
		t.Errorf("branches = %v, want [SP01]", c.Branches)
	}
	if c.Regions == nil || c.Stations == nil {
		t.Error("empty targeting arrays must scan as empty, not nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSoftDeleteMissingCampaign(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE campaigns\s+SET is_deleted = TRUE`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewCampaignRepository(db)
	if err := repo.SoftDelete(context.Background(), "missing"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByIDExcludesSoftDeleted(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT(?s:.+)FROM campaigns WHERE id = \$1 AND is_deleted = FALSE`).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	repo := NewCampaignRepository(db)
	if _, err := repo.GetByID(context.Background(), "gone"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
