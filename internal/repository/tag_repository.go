package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"medication-sku-service/internal/model"
)

type TagRepository interface {
	List(ctx context.Context) ([]model.Tag, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tag, error)
	Create(ctx context.Context, tag *model.Tag) (*model.Tag, error)
	Update(ctx context.Context, tag *model.Tag) (*model.Tag, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetOrCreate(ctx context.Context, userID uuid.UUID, name string) (*model.Tag, error)
}

type postgresTagRepository struct {
	db *sqlx.DB
}

func NewPostgresTagRepository(db *sqlx.DB) TagRepository {
	return &postgresTagRepository{db: db}
}

func (r *postgresTagRepository) List(ctx context.Context) ([]model.Tag, error) {
	tags := []model.Tag{}
	query := `SELECT id, user_id, name, created_at FROM tags ORDER BY name DESC`
	err := r.db.SelectContext(ctx, &tags, query)
	return tags, err
}

func (r *postgresTagRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tag, error) {
	var tag model.Tag
	query := `SELECT id, user_id, name, created_at FROM tags WHERE id = $1`
	err := r.db.GetContext(ctx, &tag, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &tag, nil
}

func (r *postgresTagRepository) Create(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	query := `
		INSERT INTO tags (user_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query, tag.UserID, tag.Name).Scan(&tag.ID, &tag.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}

	return tag, nil
}

func (r *postgresTagRepository) Update(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	query := `UPDATE tags SET name = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, tag.Name, tag.ID)
	if err != nil {
		return nil, translateError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return tag, nil
}

func (r *postgresTagRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tags WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresTagRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, name string) (*model.Tag, error) {
	return getOrCreateTag(ctx, r.db, userID, name)
}

// getOrCreateTag relies on the (user_id, name) constraint: the no-op update
// makes RETURNING yield the existing row, so concurrent callers converge.
func getOrCreateTag(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID, name string) (*model.Tag, error) {
	var tag model.Tag
	query := `
		INSERT INTO tags (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, user_id, name, created_at
	`
	if err := sqlx.GetContext(ctx, q, &tag, query, userID, name); err != nil {
		return nil, translateError(err)
	}
	return &tag, nil
}
