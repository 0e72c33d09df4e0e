package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/stayloop/stays-service/internal/models"
)

type PropertyImageRepository interface {
	Create(ctx context.Context, img *models.PropertyImage) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PropertyImage, error)
	ListByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.PropertyImage, error)
	// ClearPrimary unsets is_primary on every image of the property, so a
	// new primary can be set without two flags racing.
	ClearPrimary(ctx context.Context, propertyID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type propertyImageRepo struct {
	db DB
}

func NewPropertyImageRepository(db DB) PropertyImageRepository {
	return &propertyImageRepo{db: db}
}

func scanPropertyImage(row pgx.Row) (*models.PropertyImage, error) {
	var img models.PropertyImage
	err := row.Scan(
		&img.ID,
		&img.PropertyID,
		&img.URL,
		&img.Caption,
		&img.IsPrimary,
		&img.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *propertyImageRepo) Create(ctx context.Context, img *models.PropertyImage) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO property_images (id, property_id, url, caption, is_primary, created_at)
        VALUES ($1,$2,$3,$4,$5,NOW())
    `,
		img.ID,
		img.PropertyID,
		img.URL,
		img.Caption,
		img.IsPrimary,
	)
	return err
}

func (r *propertyImageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PropertyImage, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, property_id, url, caption, is_primary, created_at
        FROM property_images
        WHERE id=$1
    `, id)
	return scanPropertyImage(row)
}

func (r *propertyImageRepo) ListByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.PropertyImage, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, property_id, url, caption, is_primary, created_at
        FROM property_images
        WHERE property_id=$1
        ORDER BY is_primary DESC, created_at
    `, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PropertyImage
	for rows.Next() {
		img, err := scanPropertyImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (r *propertyImageRepo) ClearPrimary(ctx context.Context, propertyID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE property_images SET is_primary=FALSE WHERE property_id=$1 AND is_primary`,
		propertyID,
	)
	return err
}

func (r *propertyImageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM property_images WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
