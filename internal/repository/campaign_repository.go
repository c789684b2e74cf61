package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"i9campaigns/internal/interfaces"
	"i9campaigns/internal/models"
)

const campaignColumns = `
	id, name, description, status, start_date, end_date,
	default_display_time, branches, regions, stations, priority,
	is_deleted, created_by, created_at, updated_at
`

type campaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) interfaces.CampaignRepository {
	return &campaignRepository{db: db}
}

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Status,
		&c.StartDate,
		&c.EndDate,
		&c.DefaultDisplayTime,
		pq.Array(&c.Branches),
		pq.Array(&c.Regions),
		pq.Array(&c.Stations),
		&c.Priority,
		&c.IsDeleted,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Branches == nil {
		c.Branches = []string{}
	}
	if c.Regions == nil {
		c.Regions = []string{}
	}
	if c.Stations == nil {
		c.Stations = []string{}
	}
	return &c, nil
}

func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (
			name, description, status, start_date, end_date,
			default_display_time, branches, regions, stations, priority,
			created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		campaign.Name,
		campaign.Description,
		campaign.Status,
		campaign.StartDate,
		campaign.EndDate,
		campaign.DefaultDisplayTime,
		pq.Array(orEmpty(campaign.Branches)),
		pq.Array(orEmpty(campaign.Regions)),
		pq.Array(orEmpty(campaign.Stations)),
		campaign.Priority,
		campaign.CreatedBy,
	).Scan(&campaign.ID, &campaign.CreatedAt, &campaign.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1 AND is_deleted = FALSE`

	c, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get campaign %s: %w", id, err)
	}
	return c, nil
}

func (r *campaignRepository) List(ctx context.Context, filter interfaces.CampaignFilter) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`

	var args []interface{}
	var whereClauses []string
	argPos := 1

	if !filter.IncludeDeleted {
		whereClauses = append(whereClauses, "is_deleted = FALSE")
	}

	if filter.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}

	if filter.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("name ILIKE $%d", argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	if len(whereClauses) > 0 {
		query += " AND " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY created_at DESC"

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
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// ActiveCampaigns returns the targeting resolver's candidate set: campaigns
// whose stored status is active AND whose date window contains now. No
// ordering is imposed here; the resolver ranks the result itself.
func (r *campaignRepository) ActiveCampaigns(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE is_deleted = FALSE
		  AND status = 'active'
		  AND start_date <= $1
		  AND end_date >= $1
	`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("active campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *campaignRepository) Update(ctx context.Context, id string, campaign *models.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $1,
			description = $2,
			status = $3,
			start_date = $4,
			end_date = $5,
			default_display_time = $6,
			branches = $7,
			regions = $8,
			stations = $9,
			priority = $10,
			updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $11 AND is_deleted = FALSE
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		campaign.Name,
		campaign.Description,
		campaign.Status,
		campaign.StartDate,
		campaign.EndDate,
		campaign.DefaultDisplayTime,
		pq.Array(orEmpty(campaign.Branches)),
		pq.Array(orEmpty(campaign.Regions)),
		pq.Array(orEmpty(campaign.Stations)),
		campaign.Priority,
		id,
	).Scan(&campaign.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update campaign %s: %w", id, err)
	}
	return nil
}

// SoftDelete flags the campaign deleted; rows are never removed.
func (r *campaignRepository) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET is_deleted = TRUE, updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1 AND is_deleted = FALSE
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete campaign %s: %w", id, err)
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

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
