package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// SQLStore keeps a ledger as a single row in a sqlite table, one row per
// logical ledger. The transaction gives the same all-or-nothing update
// the file store gets from its lock and rename.
type SQLStore struct {
	db   *sql.DB
	name string
}

func NewSQLStore(db *sql.DB, name string) *SQLStore {
	return &SQLStore{db: db, name: name}
}

func (s *SQLStore) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT payload FROM ledger WHERE name = ?`,
		s.name,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *SQLStore) Update(ctx context.Context, mutate func(old []byte) ([]byte, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var old []byte
	err = tx.QueryRowContext(
		ctx,
		`SELECT payload FROM ledger WHERE name = ?`,
		s.name,
	).Scan(&old)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	next, err := mutate(old)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO ledger (name, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.name, next, time.Now().Unix(),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}
