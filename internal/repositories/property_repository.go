package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/utils"
)

// PropertyFilter narrows List results. Zero values mean "no constraint".
type PropertyFilter struct {
	Location     string
	PropertyType models.PropertyType
	MaxPrice     float64
	MinGuests    int
	HostID       uuid.UUID
}

type PropertyRepository interface {
	Create(ctx context.Context, p *models.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	List(ctx context.Context, filter PropertyFilter) ([]*models.Property, error)
	UpdateIfVersion(ctx context.Context, p *models.Property, expectedVersion int64) error
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

type propertyRepo struct {
	db   DB
	base *BaseVersionedRepo[*models.Property]
}

func NewPropertyRepository(db DB) PropertyRepository {
	return &propertyRepo{
		db:   db,
		base: NewBaseRepo(db, baseSelectProperty()+" WHERE id=$1", scanProperty),
	}
}

func baseSelectProperty() string {
	return `
        SELECT
            id, host_id, name, description, location,
            nightly_price, available_from, available_to, is_available,
            property_type, max_guests, bedrooms, bathrooms,
            row_version, created_at, updated_at
        FROM properties
    `
}

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID,
		&p.HostID,
		&p.Name,
		&p.Description,
		&p.Location,
		&p.NightlyPrice,
		&p.AvailableFrom,
		&p.AvailableTo,
		&p.IsAvailable,
		&p.PropertyType,
		&p.MaxGuests,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.RowVersion,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepo) Create(ctx context.Context, p *models.Property) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO properties (
            id, host_id, name, description, location,
            nightly_price, available_from, available_to, is_available,
            property_type, max_guests, bedrooms, bathrooms,
            created_at, updated_at, row_version
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW(),NOW(),1
        )
    `,
		p.ID,
		p.HostID,
		p.Name,
		p.Description,
		p.Location,
		p.NightlyPrice,
		p.AvailableFrom.Format("2006-01-02"),
		p.AvailableTo.Format("2006-01-02"),
		p.IsAvailable,
		p.PropertyType,
		p.MaxGuests,
		p.Bedrooms,
		p.Bathrooms,
	)
	return err
}

func (r *propertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return r.base.GetByID(ctx, id.String())
}

func (r *propertyRepo) List(ctx context.Context, filter PropertyFilter) ([]*models.Property, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Location != "" {
		conds = append(conds, "location ILIKE "+arg("%"+filter.Location+"%"))
	}
	if filter.PropertyType != "" {
		conds = append(conds, "property_type = "+arg(filter.PropertyType))
	}
	if filter.MaxPrice > 0 {
		conds = append(conds, "nightly_price <= "+arg(filter.MaxPrice))
	}
	if filter.MinGuests > 0 {
		conds = append(conds, "max_guests >= "+arg(filter.MinGuests))
	}
	if filter.HostID != uuid.Nil {
		conds = append(conds, "host_id = "+arg(filter.HostID))
	}

	q := baseSelectProperty()
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *propertyRepo) UpdateIfVersion(ctx context.Context, p *models.Property, expectedVersion int64) error {
	tag, err := r.updateIfVersion(ctx, p, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	return nil
}

// updateIfVersion is the UpdateIfVersionFunc used by the retry loop.
func (r *propertyRepo) updateIfVersion(
	ctx context.Context,
	p *models.Property,
	expectedVersion int64,
) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE properties
        SET name=$1, description=$2, location=$3, nightly_price=$4,
            available_from=$5, available_to=$6, is_available=$7,
            property_type=$8, max_guests=$9, bedrooms=$10, bathrooms=$11,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$12 AND row_version=$13
    `,
		p.Name,
		p.Description,
		p.Location,
		p.NightlyPrice,
		p.AvailableFrom.Format("2006-01-02"),
		p.AvailableTo.Format("2006-01-02"),
		p.IsAvailable,
		p.PropertyType,
		p.MaxGuests,
		p.Bedrooms,
		p.Bathrooms,
		p.ID,
		expectedVersion,
	)
}

func (r *propertyRepo) UpdateWithRetry(
	ctx context.Context,
	id uuid.UUID,
	mutate func(*models.Property) error,
) error {
	return r.base.UpdateWithRetry(ctx, id.String(), mutate, r.updateIfVersion)
}

func (r *propertyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *propertyRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	_, err := r.db.Exec(ctx, `
        UPDATE properties
        SET is_available=$1, row_version=row_version+1, updated_at=NOW()
        WHERE id=$2
    `, available, id)
	return err
}
