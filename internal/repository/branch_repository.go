package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"i9campaigns/internal/interfaces"
	"i9campaigns/internal/models"
	"i9campaigns/internal/regions"
)

// BranchFilter defines the filter criteria for listing branches.
type BranchFilter struct {
	Search   string
	State    string
	Region   string
	IsActive *bool
	Sort     string
	Order    string
	Limit    int
	Offset   int
}

type BranchRepository interface {
	Create(ctx context.Context, branch *models.Branch) error
	GetByID(ctx context.Context, id string) (*models.Branch, error)
	GetByCode(ctx context.Context, code string) (*models.Branch, error)
	GetByIDWithStations(ctx context.Context, id string) (*models.BranchWithStations, error)
	List(ctx context.Context, filter BranchFilter) ([]*models.Branch, error)
	Count(ctx context.Context, filter BranchFilter) (int, error)
	Update(ctx context.Context, branch *models.Branch) error
	// Deactivate flips is_active off. It is blocked with a
	// DeletionBlockedError while the branch still owns active stations.
	Deactivate(ctx context.Context, id string) error
}

type branchRepository struct {
	db *sql.DB
}

func NewBranchRepository(db *sql.DB) BranchRepository {
	return &branchRepository{db: db}
}

const branchColumns = `id, code, name, city, state, is_active, created_at, updated_at`

func scanBranch(row interface{ Scan(...any) error }) (*models.Branch, error) {
	var b models.Branch
	err := row.Scan(&b.ID, &b.Code, &b.Name, &b.City, &b.State, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	// Region is derived, never stored. An unmapped state is rejected at
	// create/update time, so this only fails on legacy rows.
	if region, err := regions.ByState(b.State); err == nil {
		b.Region = region
	}
	return &b, nil
}

func (r *branchRepository) Create(ctx context.Context, branch *models.Branch) error {
	query := `
		INSERT INTO branches (code, name, city, state)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, branch.Code, branch.Name, branch.City, branch.State).
		Scan(&branch.ID, &branch.IsActive, &branch.CreatedAt, &branch.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	branch.Region, _ = regions.ByState(branch.State)
	return nil
}

func (r *branchRepository) GetByID(ctx context.Context, id string) (*models.Branch, error) {
	b, err := scanBranch(r.db.QueryRowContext(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get branch %s: %w", id, err)
	}
	return b, nil
}

func (r *branchRepository) GetByCode(ctx context.Context, code string) (*models.Branch, error) {
	b, err := scanBranch(r.db.QueryRowContext(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE code = $1`, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get branch by code %s: %w", code, err)
	}
	return b, nil
}

func (r *branchRepository) GetByIDWithStations(ctx context.Context, id string) (*models.BranchWithStations, error) {
	branch, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, name, branch_id, address, is_active, created_at, updated_at
		FROM stations
		WHERE branch_id = $1
		ORDER BY code
	`, id)
	if err != nil {
		return nil, fmt.Errorf("stations for branch %s: %w", id, err)
	}
	defer rows.Close()

	result := &models.BranchWithStations{Branch: *branch, Stations: []models.Station{}}
	for rows.Next() {
		var s models.Station
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.BranchID, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		result.Stations = append(result.Stations, s)
	}
	return result, rows.Err()
}

func (r *branchRepository) buildWhere(filter BranchFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	argPos := 1

	if filter.Search != "" {
		clauses = append(clauses, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}
	if filter.State != "" {
		clauses = append(clauses, fmt.Sprintf("state = $%d", argPos))
		args = append(args, strings.ToUpper(filter.State))
		argPos++
	}
	if filter.Region != "" {
		clauses = append(clauses, fmt.Sprintf("state = ANY($%d)", argPos))
		args = append(args, pq.Array(regions.StatesByRegion(filter.Region)))
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

var branchSortColumns = map[string]string{
	"name":       "name",
	"code":       "code",
	"state":      "state",
	"created_at": "created_at",
}

func (r *branchRepository) List(ctx context.Context, filter BranchFilter) ([]*models.Branch, error) {
	where, args := r.buildWhere(filter)
	query := `SELECT ` + branchColumns + ` FROM branches` + where

	sortColumn, ok := branchSortColumns[filter.Sort]
	if !ok {
		sortColumn = "name"
	}
	query += " ORDER BY " + sortColumn
	if strings.EqualFold(filter.Order, "desc") {
		query += " DESC"
	}

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
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var branches []*models.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (r *branchRepository) Count(ctx context.Context, filter BranchFilter) (int, error) {
	where, args := r.buildWhere(filter)
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM branches`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count branches: %w", err)
	}
	return count, nil
}

func (r *branchRepository) Update(ctx context.Context, branch *models.Branch) error {
	query := `
		UPDATE branches
		SET name = $1, city = $2, state = $3, updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $4
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query, branch.Name, branch.City, branch.State, branch.ID).
		Scan(&branch.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update branch %s: %w", branch.ID, err)
	}
	branch.Region, _ = regions.ByState(branch.State)
	return nil
}

func (r *branchRepository) Deactivate(ctx context.Context, id string) error {
	var activeStations int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stations WHERE branch_id = $1 AND is_active = TRUE`, id).
		Scan(&activeStations)
	if err != nil {
		return fmt.Errorf("count active stations for branch %s: %w", id, err)
	}
	if activeStations > 0 {
		return &interfaces.DeletionBlockedError{
			Resource:   "branch",
			References: map[string]int64{"active_stations": activeStations},
		}
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE branches
		SET is_active = FALSE, updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1 AND is_active = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate branch %s: %w", id, err)
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
