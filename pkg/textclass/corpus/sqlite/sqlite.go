package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/cognicore/textclass/pkg/textclass/corpus"
	"github.com/cognicore/textclass/pkg/textclass/internalerr"
)

// Store is an append-only training corpus backed by SQLite.
type Store struct {
	db *sql.DB
}

// Record is a stored document with its corpus id.
type Record struct {
	ID       string
	Document corpus.Document
}

// Open opens (or creates) a corpus database with WAL mode enabled.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single writer; keeps the WAL on one connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS documents (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT UNIQUE NOT NULL,
	label TEXT,
	path TEXT
);

CREATE TABLE IF NOT EXISTS fields (
	doc_seq INTEGER NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	tokens TEXT NOT NULL,
	PRIMARY KEY(doc_seq, name),
	FOREIGN KEY(doc_seq) REFERENCES documents(seq) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_documents_label ON documents(label);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// Append stores a document under id in a single transaction.
// An unlabeled document is stored with a NULL label.
func (s *Store) Append(ctx context.Context, id string, doc corpus.Document) error {
	if id == "" {
		return fmt.Errorf("append document: empty id: %w", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var label sql.NullString
	if !doc.Unlabeled() {
		label = sql.NullString{String: doc.Label, Valid: true}
	}

	var seq int64
	err = tx.QueryRowContext(
		ctx,
		`INSERT INTO documents (id, label, path) VALUES (?, ?, ?) RETURNING seq`,
		id,
		label,
		doc.Path,
	).Scan(&seq)
	if err != nil {
		return err
	}

	if err := insertFields(ctx, tx, seq, doc.Fields); err != nil {
		return err
	}

	return tx.Commit()
}

func insertFields(ctx context.Context, tx *sql.Tx, seq int64, fields []corpus.Field) error {
	if len(fields) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO fields (doc_seq, position, name, tokens) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range fields {
		tokens := f.Tokens
		if tokens == nil {
			tokens = []string{}
		}
		tokensJSON, err := json.Marshal(tokens)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, seq, i, f.Name, string(tokensJSON)); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// CountByLabel returns document counts keyed by label; unlabeled documents
// are counted under the empty string.
func (s *Store) CountByLabel(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT label, COUNT(*) FROM documents GROUP BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			label sql.NullString
			n     int
		)
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label.String] += n
	}
	return counts, rows.Err()
}

// Documents returns every stored document in append order.
func (s *Store) Documents(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT d.seq, d.id, d.label, d.path, f.name, f.tokens
FROM documents d
LEFT JOIN fields f ON f.doc_seq = d.seq
ORDER BY d.seq, f.position
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		records []Record
		lastSeq int64 = -1
	)
	for rows.Next() {
		var (
			seq        int64
			id         string
			label      sql.NullString
			path       sql.NullString
			name       sql.NullString
			tokensJSON sql.NullString
		)
		if err := rows.Scan(&seq, &id, &label, &path, &name, &tokensJSON); err != nil {
			return nil, err
		}
		if seq != lastSeq {
			records = append(records, Record{
				ID: id,
				Document: corpus.Document{
					Label:  label.String,
					Path:   path.String,
					Fields: []corpus.Field{},
				},
			})
			lastSeq = seq
		}
		if !name.Valid {
			continue
		}
		tokens := []string{}
		if err := json.Unmarshal([]byte(tokensJSON.String), &tokens); err != nil {
			return nil, fmt.Errorf("decode tokens of %s/%s: %w", id, name.String, err)
		}
		rec := &records[len(records)-1]
		rec.Document.Fields = append(rec.Document.Fields, corpus.Field{Name: name.String, Tokens: tokens})
	}
	return records, rows.Err()
}
