package migrations

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateUniqueIndexes, downCreateUniqueIndexes)
}

// Partial unique indexes AutoMigrate cannot express: one live audit row per
// payment reference, and one active loyalty card per (customer, centro).
func upCreateUniqueIndexes(tx *sql.Tx) error {
	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_credit_tx_payment_reference
			ON credit_transactions (payment_reference)
			WHERE payment_reference <> ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_loyalty_one_active_per_pair
			ON loyalty_cards (customer_id, centro_id)
			WHERE status = 'active' AND deleted_at IS NULL`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create unique index: %w", err)
		}
	}
	return nil
}

func downCreateUniqueIndexes(tx *sql.Tx) error {
	statements := []string{
		`DROP INDEX IF EXISTS idx_credit_tx_payment_reference`,
		`DROP INDEX IF EXISTS idx_loyalty_one_active_per_pair`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to drop unique index: %w", err)
		}
	}
	return nil
}
