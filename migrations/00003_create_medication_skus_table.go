package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateMedicationSKUsTable, downCreateMedicationSKUsTable)
}

func upCreateMedicationSKUsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
		CREATE TABLE medication_skus (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			medication_name VARCHAR(255) NOT NULL,
			presentation VARCHAR(255) NOT NULL,
			dose INTEGER NOT NULL CHECK (dose > 0),
			unit VARCHAR(50) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
			CONSTRAINT medication_skus_medication_name_key UNIQUE (medication_name),
			CONSTRAINT medication_skus_sku_key UNIQUE (medication_name, presentation, dose, unit)
		);

		CREATE INDEX idx_medication_skus_user_id ON medication_skus(user_id);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateMedicationSKUsTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS medication_skus;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
