package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Replace swaps the live snapshot for one (business, provider) pair:
// delete-then-insert inside one transaction so a reader never sees two live
// snapshots for the same provider.
func (db *DB) Replace(ctx context.Context, businessID, provider string, raw json.RawMessage) error {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
        DELETE FROM source_snapshots WHERE business_id = $1 AND provider = $2
    `, businessID, provider); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO source_snapshots (id, business_id, provider, raw_data)
        VALUES ($1, $2, $3, $4)
    `, uuid.NewString(), businessID, provider, raw)
	return err
}
