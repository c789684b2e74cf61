package repository

import (
	"context"
	"database/sql"
	"fmt"

	"i9campaigns/internal/models"
)

type ImageRepository interface {
	Create(ctx context.Context, image *models.CampaignImage) error
	GetByID(ctx context.Context, id string) (*models.CampaignImage, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]*models.CampaignImage, error)
	// ActiveImages is the content feed of the targeting assembler: active
	// images of a campaign in display order.
	ActiveImages(ctx context.Context, campaignID string) ([]*models.CampaignImage, error)
	Update(ctx context.Context, image *models.CampaignImage) error
	Reorder(ctx context.Context, campaignID string, orderedIDs []string) error
	// SoftDelete deactivates the image and renumbers the surviving
	// siblings' display order from 1.
	SoftDelete(ctx context.Context, id string) error
	NextOrder(ctx context.Context, campaignID string) (int, error)
}

type imageRepository struct {
	db *sql.DB
}

func NewImageRepository(db *sql.DB) ImageRepository {
	return &imageRepository{db: db}
}

const imageColumns = `
	id, campaign_id, filename, original_filename, url, display_order,
	display_time, title, description, active, size_bytes, mime_type,
	width, height, created_at, updated_at
`

func scanImage(row interface{ Scan(...any) error }) (*models.CampaignImage, error) {
	var img models.CampaignImage
	err := row.Scan(
		&img.ID,
		&img.CampaignID,
		&img.Filename,
		&img.OriginalFilename,
		&img.URL,
		&img.Order,
		&img.DisplayTime,
		&img.Title,
		&img.Description,
		&img.Active,
		&img.SizeBytes,
		&img.MimeType,
		&img.Width,
		&img.Height,
		&img.CreatedAt,
		&img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *imageRepository) Create(ctx context.Context, image *models.CampaignImage) error {
	query := `
		INSERT INTO campaign_images (
			campaign_id, filename, original_filename, url, display_order,
			display_time, title, description, size_bytes, mime_type, width, height
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, active, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		image.CampaignID,
		image.Filename,
		image.OriginalFilename,
		image.URL,
		image.Order,
		image.DisplayTime,
		image.Title,
		image.Description,
		image.SizeBytes,
		image.MimeType,
		image.Width,
		image.Height,
	).Scan(&image.ID, &image.Active, &image.CreatedAt, &image.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	return nil
}

func (r *imageRepository) GetByID(ctx context.Context, id string) (*models.CampaignImage, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM campaign_images WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get image %s: %w", id, err)
	}
	return img, nil
}

func (r *imageRepository) listByCampaign(ctx context.Context, campaignID string, activeOnly bool) ([]*models.CampaignImage, error) {
	query := `SELECT ` + imageColumns + ` FROM campaign_images WHERE campaign_id = $1`
	if activeOnly {
		query += ` AND active = TRUE`
	}
	query += ` ORDER BY display_order`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list images for campaign %s: %w", campaignID, err)
	}
	defer rows.Close()

	var images []*models.CampaignImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *imageRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*models.CampaignImage, error) {
	return r.listByCampaign(ctx, campaignID, false)
}

func (r *imageRepository) ActiveImages(ctx context.Context, campaignID string) ([]*models.CampaignImage, error) {
	return r.listByCampaign(ctx, campaignID, true)
}

func (r *imageRepository) Update(ctx context.Context, image *models.CampaignImage) error {
	query := `
		UPDATE campaign_images
		SET title = $1,
			description = $2,
			display_time = $3,
			active = $4,
			updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		image.Title, image.Description, image.DisplayTime, image.Active, image.ID).
		Scan(&image.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update image %s: %w", image.ID, err)
	}
	return nil
}

func (r *imageRepository) Reorder(ctx context.Context, campaignID string, orderedIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reorder images: %w", err)
	}
	defer tx.Rollback()

	for idx, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx, `
			UPDATE campaign_images
			SET display_order = $1, updated_at = NOW() AT TIME ZONE 'UTC'
			WHERE id = $2 AND campaign_id = $3
		`, idx+1, id, campaignID); err != nil {
			return fmt.Errorf("reorder image %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (r *imageRepository) SoftDelete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	defer tx.Rollback()

	var campaignID string
	err = tx.QueryRowContext(ctx, `
		UPDATE campaign_images
		SET active = FALSE, updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1 AND active = TRUE
		RETURNING campaign_id
	`, id).Scan(&campaignID)
	if err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("delete image %s: %w", id, err)
	}

	// Close the gap left by the deleted image.
	if _, err := tx.ExecContext(ctx, `
		WITH renumbered AS (
			SELECT id, ROW_NUMBER() OVER (ORDER BY display_order) AS rn
			FROM campaign_images
			WHERE campaign_id = $1 AND active = TRUE
		)
		UPDATE campaign_images ci
		SET display_order = r.rn, updated_at = NOW() AT TIME ZONE 'UTC'
		FROM renumbered r
		WHERE ci.id = r.id
	`, campaignID); err != nil {
		return fmt.Errorf("renumber images for campaign %s: %w", campaignID, err)
	}
	return tx.Commit()
}

func (r *imageRepository) NextOrder(ctx context.Context, campaignID string) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(display_order), 0) + 1
		FROM campaign_images
		WHERE campaign_id = $1 AND active = TRUE
	`, campaignID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next image order for campaign %s: %w", campaignID, err)
	}
	return next, nil
}
