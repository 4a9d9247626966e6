package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"medication-sku-service/internal/model"
)

// TagUpdate describes what an update does to the tag set of a SKU.
// Replace=false leaves the current tags untouched; Replace=true with no
// names clears them.
type TagUpdate struct {
	Replace bool
	Names   []string
}

type NewMedicationSKU struct {
	SKU      *model.MedicationSKU
	TagNames []string
}

type MedicationSKURepository interface {
	List(ctx context.Context) ([]model.MedicationSKU, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.MedicationSKU, error)
	Create(ctx context.Context, sku *model.MedicationSKU, tagNames []string) (*model.MedicationSKU, error)
	BulkCreate(ctx context.Context, items []NewMedicationSKU) ([]model.MedicationSKU, error)
	Update(ctx context.Context, sku *model.MedicationSKU, tags TagUpdate) (*model.MedicationSKU, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresMedicationSKURepository struct {
	db *sqlx.DB
}

func NewPostgresMedicationSKURepository(db *sqlx.DB) MedicationSKURepository {
	return &postgresMedicationSKURepository{db: db}
}

type skuTagRow struct {
	MedicationSKUID uuid.UUID `db:"medication_sku_id"`
	model.Tag
}

func (r *postgresMedicationSKURepository) List(ctx context.Context) ([]model.MedicationSKU, error) {
	skus := []model.MedicationSKU{}
	query := `
		SELECT id, user_id, medication_name, presentation, dose, unit, created_at, updated_at
		FROM medication_skus
		ORDER BY created_at DESC, id
	`
	if err := r.db.SelectContext(ctx, &skus, query); err != nil {
		return nil, err
	}

	if len(skus) == 0 {
		return skus, nil
	}

	ids := make([]uuid.UUID, len(skus))
	for i, sku := range skus {
		ids[i] = sku.ID
	}

	tagQuery, args, err := sqlx.In(`
		SELECT mst.medication_sku_id, t.id, t.user_id, t.name, t.created_at
		FROM medication_sku_tags mst
		JOIN tags t ON t.id = mst.tag_id
		WHERE mst.medication_sku_id IN (?)
		ORDER BY t.name
	`, ids)
	if err != nil {
		return nil, err
	}

	var rows []skuTagRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(tagQuery), args...); err != nil {
		return nil, err
	}

	bySKU := make(map[uuid.UUID][]model.Tag, len(skus))
	for _, row := range rows {
		bySKU[row.MedicationSKUID] = append(bySKU[row.MedicationSKUID], row.Tag)
	}
	for i := range skus {
		skus[i].Tags = bySKU[skus[i].ID]
	}

	return skus, nil
}

func (r *postgresMedicationSKURepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MedicationSKU, error) {
	var sku model.MedicationSKU
	query := `
		SELECT id, user_id, medication_name, presentation, dose, unit, created_at, updated_at
		FROM medication_skus
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &sku, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sku.Tags, err = tagsForSKU(ctx, r.db, id)
	if err != nil {
		return nil, err
	}

	return &sku, nil
}

func (r *postgresMedicationSKURepository) Create(ctx context.Context, sku *model.MedicationSKU, tagNames []string) (*model.MedicationSKU, error) {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertSKU(ctx, tx, sku); err != nil {
			return err
		}
		return attachTags(ctx, tx, sku, tagNames)
	})
	if err != nil {
		return nil, err
	}

	return sku, nil
}

func (r *postgresMedicationSKURepository) BulkCreate(ctx context.Context, items []NewMedicationSKU) ([]model.MedicationSKU, error) {
	created := make([]model.MedicationSKU, 0, len(items))

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i, item := range items {
			if err := insertSKU(ctx, tx, item.SKU); err != nil {
				return &BatchError{Index: i, Err: err}
			}
		}
		for i, item := range items {
			if err := attachTags(ctx, tx, item.SKU, item.TagNames); err != nil {
				return &BatchError{Index: i, Err: err}
			}
			created = append(created, *item.SKU)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *postgresMedicationSKURepository) Update(ctx context.Context, sku *model.MedicationSKU, tags TagUpdate) (*model.MedicationSKU, error) {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE medication_skus
			SET medication_name = $1, presentation = $2, dose = $3, unit = $4, updated_at = now()
			WHERE id = $5
			RETURNING updated_at
		`
		err := tx.QueryRowxContext(ctx, query,
			sku.MedicationName, sku.Presentation, sku.Dose, sku.Unit, sku.ID,
		).Scan(&sku.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return translateError(err)
		}

		if !tags.Replace {
			sku.Tags, err = tagsForSKU(ctx, tx, sku.ID)
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM medication_sku_tags WHERE medication_sku_id = $1`, sku.ID); err != nil {
			return err
		}
		return attachTags(ctx, tx, sku, tags.Names)
	})
	if err != nil {
		return nil, err
	}

	return sku, nil
}

func (r *postgresMedicationSKURepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM medication_skus WHERE id = $1`
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

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func insertSKU(ctx context.Context, tx *sqlx.Tx, sku *model.MedicationSKU) error {
	query := `
		INSERT INTO medication_skus (user_id, medication_name, presentation, dose, unit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := tx.QueryRowxContext(ctx, query,
		sku.UserID, sku.MedicationName, sku.Presentation, sku.Dose, sku.Unit,
	).Scan(&sku.ID, &sku.CreatedAt, &sku.UpdatedAt)

	return translateError(err)
}

// attachTags resolves every name to a tag owned by the SKU owner and links it.
func attachTags(ctx context.Context, tx *sqlx.Tx, sku *model.MedicationSKU, names []string) error {
	sku.Tags = []model.Tag{}

	for _, name := range UniqueNames(names) {
		tag, err := getOrCreateTag(ctx, tx, sku.UserID, name)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO medication_sku_tags (medication_sku_id, tag_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, query, sku.ID, tag.ID); err != nil {
			return err
		}
		sku.Tags = append(sku.Tags, *tag)
	}

	sort.Slice(sku.Tags, func(i, j int) bool { return sku.Tags[i].Name < sku.Tags[j].Name })
	return nil
}

func tagsForSKU(ctx context.Context, q sqlx.QueryerContext, skuID uuid.UUID) ([]model.Tag, error) {
	tags := []model.Tag{}
	query := `
		SELECT t.id, t.user_id, t.name, t.created_at
		FROM tags t
		JOIN medication_sku_tags mst ON mst.tag_id = t.id
		WHERE mst.medication_sku_id = $1
		ORDER BY t.name
	`
	err := sqlx.SelectContext(ctx, q, &tags, query, skuID)
	return tags, err
}

// UniqueNames drops repeated tag names, keeping first-seen order.
func UniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
