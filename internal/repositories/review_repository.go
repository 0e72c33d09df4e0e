package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/utils"
)

type ReviewRepository interface {
	// Create enforces one review per (property, author); a second attempt
	// returns ErrReviewExists.
	Create(ctx context.Context, rv *models.Review) error
	ListByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.Review, error)
	AverageRating(ctx context.Context, propertyID uuid.UUID) (float64, int, error)
}

type reviewRepo struct {
	db DB
}

func NewReviewRepository(db DB) ReviewRepository {
	return &reviewRepo{db: db}
}

func baseSelectReview() string {
	return `
        SELECT id, property_id, author_id, rating, comment, created_at, updated_at
        FROM reviews
    `
}

func scanReview(row pgx.Row) (*models.Review, error) {
	var rv models.Review
	err := row.Scan(
		&rv.ID,
		&rv.PropertyID,
		&rv.AuthorID,
		&rv.Rating,
		&rv.Comment,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) Create(ctx context.Context, rv *models.Review) error {
	tag, err := r.db.Exec(ctx, `
        INSERT INTO reviews (id, property_id, author_id, rating, comment, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
        ON CONFLICT (property_id, author_id) DO NOTHING
    `,
		rv.ID,
		rv.PropertyID,
		rv.AuthorID,
		rv.Rating,
		rv.Comment,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrReviewExists
	}
	return nil
}

func (r *reviewRepo) ListByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.Review, error) {
	rows, err := r.db.Query(ctx, baseSelectReview()+" WHERE property_id=$1 ORDER BY created_at DESC", propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *reviewRepo) AverageRating(ctx context.Context, propertyID uuid.UUID) (float64, int, error) {
	var (
		avg   *float64
		count int
	)
	err := r.db.QueryRow(ctx,
		`SELECT AVG(rating), COUNT(*) FROM reviews WHERE property_id=$1`, propertyID,
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	if avg == nil {
		return 0, 0, nil
	}
	return *avg, count, nil
}
