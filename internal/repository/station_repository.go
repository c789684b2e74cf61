package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"i9campaigns/internal/interfaces"
	"i9campaigns/internal/models"
	"i9campaigns/internal/regions"
	"i9campaigns/internal/targeting"
)

// StationFilter defines the filter criteria for listing stations.
type StationFilter struct {
	BranchID string
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}

type StationRepository interface {
	Create(ctx context.Context, station *models.Station) error
	GetByID(ctx context.Context, id string) (*models.Station, error)
	List(ctx context.Context, filter StationFilter) ([]*models.Station, error)
	Count(ctx context.Context, filter StationFilter) (int, error)
	Update(ctx context.Context, station *models.Station) error
	// Deactivate flips is_active off. It is blocked with a
	// DeletionBlockedError while active campaigns still target the station.
	Deactivate(ctx context.Context, id string) error
	// ResolveActiveByCode is the location directory feed of the targeting
	// resolver: it maps an active station code to its branch code and
	// derived region, or targeting.ErrStationNotFound.
	ResolveActiveByCode(ctx context.Context, code string) (*models.StationLocation, error)
}

type stationRepository struct {
	db *sql.DB
}

func NewStationRepository(db *sql.DB) StationRepository {
	return &stationRepository{db: db}
}

var _ targeting.LocationDirectory = (*stationLocationDirectory)(nil)

// stationLocationDirectory adapts a StationRepository to the resolver's
// LocationDirectory port.
type stationLocationDirectory struct {
	stations StationRepository
}

func NewLocationDirectory(stations StationRepository) targeting.LocationDirectory {
	return &stationLocationDirectory{stations: stations}
}

func (d *stationLocationDirectory) ResolveStation(ctx context.Context, code string) (*models.StationLocation, error) {
	return d.stations.ResolveActiveByCode(ctx, code)
}

const stationColumns = `id, code, name, branch_id, address, is_active, created_at, updated_at`

func scanStation(row interface{ Scan(...any) error }) (*models.Station, error) {
	var s models.Station
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.BranchID, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *stationRepository) Create(ctx context.Context, station *models.Station) error {
	query := `
		INSERT INTO stations (code, name, branch_id, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, station.Code, station.Name, station.BranchID, station.Address).
		Scan(&station.ID, &station.IsActive, &station.CreatedAt, &station.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create station: %w", err)
	}
	return nil
}

func (r *stationRepository) GetByID(ctx context.Context, id string) (*models.Station, error) {
	s, err := scanStation(r.db.QueryRowContext(ctx,
		`SELECT `+stationColumns+` FROM stations WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get station %s: %w", id, err)
	}
	return s, nil
}

func (r *stationRepository) buildWhere(filter StationFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	argPos := 1

	if filter.BranchID != "" {
		clauses = append(clauses, fmt.Sprintf("branch_id = $%d", argPos))
		args = append(args, filter.BranchID)
		argPos++
	}
	if filter.Search != "" {
		clauses = append(clauses, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}
	if filter.IsActive != nil {
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filter.IsActive)
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	return where, args
}

func (r *stationRepository) List(ctx context.Context, filter StationFilter) ([]*models.Station, error) {
	where, args := r.buildWhere(filter)
	query := `SELECT ` + stationColumns + ` FROM stations` + where + ` ORDER BY code`

	argPos := len(args) + 1
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
		argPos++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	var stations []*models.Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

func (r *stationRepository) Count(ctx context.Context, filter StationFilter) (int, error) {
	where, args := r.buildWhere(filter)
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stations`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count stations: %w", err)
	}
	return count, nil
}

func (r *stationRepository) Update(ctx context.Context, station *models.Station) error {
	query := `
		UPDATE stations
		SET name = $1, address = $2, updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $3
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query, station.Name, station.Address, station.ID).
		Scan(&station.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update station %s: %w", station.ID, err)
	}
	return nil
}

func (r *stationRepository) Deactivate(ctx context.Context, id string) error {
	station, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	var activeCampaigns int64
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM campaigns
		WHERE is_deleted = FALSE
		  AND status = 'active'
		  AND $1 = ANY(stations)
	`, station.Code).Scan(&activeCampaigns)
	if err != nil {
		return fmt.Errorf("count campaigns for station %s: %w", id, err)
	}
	if activeCampaigns > 0 {
		return &interfaces.DeletionBlockedError{
			Resource:   "station",
			References: map[string]int64{"active_campaigns": activeCampaigns},
		}
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE stations
		SET is_active = FALSE, updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1 AND is_active = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate station %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *stationRepository) ResolveActiveByCode(ctx context.Context, code string) (*models.StationLocation, error) {
	query := `
		SELECT s.id, s.code, b.code, b.state
		FROM stations s
		JOIN branches b ON b.id = s.branch_id
		WHERE s.code = $1 AND s.is_active = TRUE
		LIMIT 1
	`

	var loc models.StationLocation
	var state string
	err := r.db.QueryRowContext(ctx, query, code).
		Scan(&loc.StationID, &loc.Code, &loc.BranchCode, &state)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, targeting.ErrStationNotFound
		}
		return nil, fmt.Errorf("resolve station %s: %w", code, err)
	}

	region, err := regions.ByState(state)
	if err != nil {
		// An unmapped state on the owning branch is bad reference data;
		// surfacing it makes the resolver degrade to global-only for this
		// station instead of guessing a region.
		return nil, fmt.Errorf("resolve station %s: %w", code, err)
	}
	loc.Region = region
	return &loc, nil
}
