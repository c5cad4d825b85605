package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migrate creates the migrations table and applies every pending migration
// of the dialect, each in its own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	create := `CREATE TABLE IF NOT EXISTS ` + tableMigrations + ` (
    version    VARCHAR(32) PRIMARY KEY,
    name       VARCHAR(128) NOT NULL,
    applied_at VARCHAR(40) NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return s.wrap("create migrations table", err)
	}

	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return s.wrap("read migrations", err)
	}

	for _, m := range s.dialect.Migrations() {
		if applied[m.Version] {
			continue
		}
		err := s.inTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := s.exec(ctx, tx,
				`INSERT INTO `+tableMigrations+` (version, name, applied_at) VALUES (?, ?, ?)`,
				m.Version, m.Name, time.Now().UTC().Format(time.RFC3339))
			return err
		})
		if err != nil {
			return s.wrap(fmt.Sprintf("migration %s (%s)", m.Version, m.Name), err)
		}
	}
	return nil
}

func (s *Store) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM `+tableMigrations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}
