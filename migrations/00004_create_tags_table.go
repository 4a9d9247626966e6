package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateTagsTable, downCreateTagsTable)
}

func upCreateTagsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE tags (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
			CONSTRAINT tags_user_id_name_key UNIQUE (user_id, name)
		);

		CREATE TABLE medication_sku_tags (
			medication_sku_id UUID NOT NULL REFERENCES medication_skus(id) ON DELETE CASCADE,
			tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (medication_sku_id, tag_id)
		);

		CREATE INDEX idx_medication_sku_tags_tag_id ON medication_sku_tags(tag_id);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateTagsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		DROP TABLE IF EXISTS medication_sku_tags;
		DROP TABLE IF EXISTS tags;
	`
	_, err := tx.ExecContext(ctx, query)
	return err
}
