package genomestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/genome"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS genomes (
	owner_id   TEXT PRIMARY KEY,
	genome_id  TEXT NOT NULL,
	version    INTEGER NOT NULL,
	primary_id TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_genomes_updated ON genomes(updated_at);
`

// SQLite stores each genome as a serialized row keyed by owner.
type SQLite struct {
	conn *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("genomestore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("genomestore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("genomestore: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) Get(ctx context.Context, ownerID string) (genome.Genome, error) {
	var body string
	err := s.conn.QueryRowContext(ctx, `SELECT body FROM genomes WHERE owner_id = ?`, ownerID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return genome.Genome{}, apperr.ErrNotFound
	}
	if err != nil {
		return genome.Genome{}, fmt.Errorf("genomestore: get: %w", err)
	}
	return genome.Deserialize([]byte(body))
}

func (s *SQLite) Create(ctx context.Context, g genome.Genome) error {
	body, err := genome.Serialize(g)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO genomes (owner_id, genome_id, version, primary_id, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, g.OwnerID, g.ID, g.Version, string(g.Archetype.Primary.ID), string(body), g.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return apperr.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("genomestore: create: %w", err)
	}
	return nil
}

// Update replaces the row only while its version still equals
// expectedVersion.
func (s *SQLite) Update(ctx context.Context, g genome.Genome, expectedVersion int) error {
	body, err := genome.Serialize(g)
	if err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("genomestore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.ExecContext(ctx, `
		UPDATE genomes
		SET genome_id = ?, version = ?, primary_id = ?, body = ?, updated_at = ?
		WHERE owner_id = ? AND version = ?
	`, g.ID, g.Version, string(g.Archetype.Primary.ID), string(body), g.UpdatedAt.UTC(), g.OwnerID, expectedVersion)
	if err != nil {
		return fmt.Errorf("genomestore: update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("genomestore: rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT count(*) FROM genomes WHERE owner_id = ?`, g.OwnerID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("genomestore: update lookup: %w", err)
		}
		if exists == 0 {
			return apperr.ErrNotFound
		}
		return apperr.ErrConflict
	}
	return tx.Commit()
}

func (s *SQLite) Delete(ctx context.Context, ownerID string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM genomes WHERE owner_id = ?`, ownerID)
	if err != nil {
		return fmt.Errorf("genomestore: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, limit, offset int) ([]Summary, int, error) {
	limit, offset = normalizePage(limit, offset)

	var total int
	if err := s.conn.QueryRowContext(ctx, `SELECT count(*) FROM genomes`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("genomestore: count: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT owner_id, genome_id, version, primary_id, updated_at
		FROM genomes
		ORDER BY updated_at DESC, owner_id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("genomestore: list: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		var primary string
		if err := rows.Scan(&sm.OwnerID, &sm.GenomeID, &sm.Version, &primary, &sm.UpdatedAt); err != nil {
			return nil, 0, err
		}
		sm.Primary = archetype.ID(primary)
		out = append(out, sm)
	}
	return out, total, rows.Err()
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
}
