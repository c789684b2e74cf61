package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"i9campaigns/internal/interfaces"
	"i9campaigns/internal/targeting"
)

func testTime(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func TestResolveActiveByCodeDerivesRegion(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "code", "code", "state"}).
		AddRow("st-1", "001", "SP01", "SP")

	mock.ExpectQuery(`SELECT s\.id, s\.code, b\.code, b\.state\s+FROM stations s\s+JOIN branches b`).
		WithArgs("001").
		WillReturnRows(rows)

	repo := NewStationRepository(db)
	loc, err := repo.ResolveActiveByCode(context.Background(), "001")
	if err != nil {
		t.Fatalf("ResolveActiveByCode: %v", err)
	}
	if loc.BranchCode != "SP01" {
		t.Errorf("branch code = %q, want SP01", loc.BranchCode)
	}
	if loc.Region != "Sudeste" {
		t.Errorf("region = %q, want Sudeste", loc.Region)
	}
}

func TestResolveActiveByCodeNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT s\.id, s\.code, b\.code, b\.state`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "code", "state"}))

	repo := NewStationRepository(db)
	_, err = repo.ResolveActiveByCode(context.Background(), "nope")
	if !errors.Is(err, targeting.ErrStationNotFound) {
		t.Fatalf("expected ErrStationNotFound, got %v", err)
	}
}

func TestResolveActiveByCodeUnknownState(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "code", "code", "state"}).
		AddRow("st-1", "001", "XX01", "XX")

	mock.ExpectQuery(`SELECT s\.id, s\.code, b\.code, b\.state`).
		WithArgs("001").
		WillReturnRows(rows)

	repo := NewStationRepository(db)
	_, err = repo.ResolveActiveByCode(context.Background(), "001")
	if err == nil {
		t.Fatal("expected error for unmapped state")
	}
	if errors.Is(err, targeting.ErrStationNotFound) {
		t.Fatal("unmapped state must not masquerade as station-not-found")
	}
}

func TestStationDeactivateBlockedByActiveCampaigns(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	stationRows := sqlmock.NewRows([]string{
		"id", "code", "name", "branch_id", "address", "is_active", "created_at", "updated_at",
	}).AddRow("st-1", "001", "Posto Centro", "b-1", "", true, testTime(t), testTime(t))

	mock.ExpectQuery(`SELECT id, code, name, branch_id, address, is_active, created_at, updated_at\s+FROM stations WHERE id = \$1`).
		WithArgs("st-1").
		WillReturnRows(stationRows)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM campaigns`).
		WithArgs("001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	repo := NewStationRepository(db)
	err = repo.Deactivate(context.Background(), "st-1")

	var blocked *interfaces.DeletionBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected DeletionBlockedError, got %v", err)
	}
	if blocked.References["active_campaigns"] != 2 {
		t.Errorf("references = %v, want active_campaigns=2", blocked.References)
	}
}
