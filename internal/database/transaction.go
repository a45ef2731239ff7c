package database

import "database/sql"

// WithTransaction runs fn inside a transaction, committing on success and
// rolling back if fn returns an error or panics.
func WithTransaction(conn *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := conn.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return rbErr
		}
		return err
	}

	return tx.Commit()
}
