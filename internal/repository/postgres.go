package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentsSchema = `
	CREATE TABLE IF NOT EXISTS documents (
		path       TEXT PRIMARY KEY,
		collection TEXT NOT NULL,
		parent     TEXT NOT NULL DEFAULT '',
		data       JSONB NOT NULL DEFAULT '{}'::jsonb
	);
	CREATE INDEX IF NOT EXISTS documents_collection_parent_idx ON documents (collection, parent);
	CREATE INDEX IF NOT EXISTS documents_data_idx ON documents USING GIN (data jsonb_path_ops);
`

// PostgresStore keeps documents as jsonb rows in a single table
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a store on top of an open pool
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the documents table if it does not exist
func (r *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, documentsSchema); err != nil {
		return fmt.Errorf("failed to create documents schema: %w", err)
	}
	return nil
}

// Find runs q against the documents table
func (r *PostgresStore) Find(ctx context.Context, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	query, args, err := buildSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var path string
		var raw []byte
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc, err := decodeRow(path, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// buildSelect translates a Query into SQL; keys and values are always bound parameters
func buildSelect(q Query) (string, []any, error) {
	var sb strings.Builder
	args := []any{q.Collection}
	sb.WriteString(`SELECT path, data FROM documents WHERE collection = $1`)

	if !q.Group {
		args = append(args, strings.Trim(q.Parent, "/"))
		fmt.Fprintf(&sb, ` AND parent = $%d`, len(args))
	}

	for _, f := range q.Filters {
		switch f.Op {
		case OpEq:
			probe, err := json.Marshal(map[string]any{f.Field: jsonValue(f.Value)})
			if err != nil {
				return "", nil, fmt.Errorf("failed to encode filter: %w", err)
			}
			args = append(args, string(probe))
			fmt.Fprintf(&sb, ` AND data @> $%d::jsonb`, len(args))
		case OpArrayContains:
			probe, err := json.Marshal(map[string]any{f.Field: []any{jsonValue(f.Value)}})
			if err != nil {
				return "", nil, fmt.Errorf("failed to encode filter: %w", err)
			}
			args = append(args, string(probe))
			fmt.Fprintf(&sb, ` AND data @> $%d::jsonb`, len(args))
		case OpLte:
			args = append(args, f.Field)
			key := len(args)
			switch v := f.Value.(type) {
			case time.Time:
				args = append(args, v.UTC())
				fmt.Fprintf(&sb, ` AND (data->>$%d)::timestamptz <= $%d`, key, len(args))
			case string:
				args = append(args, v)
				fmt.Fprintf(&sb, ` AND data->>$%d <= $%d`, key, len(args))
			default:
				n, ok := toFloat(v)
				if !ok {
					return "", nil, fmt.Errorf("unsupported range value %T", f.Value)
				}
				args = append(args, n)
				fmt.Fprintf(&sb, ` AND (data->>$%d)::double precision <= $%d`, key, len(args))
			}
		}
	}

	sb.WriteString(` ORDER BY path`)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	return sb.String(), args, nil
}

// Get retrieves a document by path
func (r *PostgresStore) Get(ctx context.Context, path string) (*Document, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM documents WHERE path = $1`, path).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc, err := decodeRow(path, raw)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Set creates or replaces a document
func (r *PostgresStore) Set(ctx context.Context, path string, data map[string]any) error {
	parent, collection, _, err := splitPath(path)
	if err != nil {
		return err
	}
	raw, err := encodeData(data)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO documents (path, collection, parent, data)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data
	`
	if _, err := r.db.Exec(ctx, query, path, collection, parent, raw); err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

// Update merges fields into an existing document
func (r *PostgresStore) Update(ctx context.Context, path string, fields map[string]any) error {
	raw, err := encodeData(fields)
	if err != nil {
		return err
	}
	result, err := r.db.Exec(ctx, `UPDATE documents SET data = data || $2::jsonb WHERE path = $1`, path, raw)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document if present
func (r *PostgresStore) Delete(ctx context.Context, path string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM documents WHERE path = $1`, path); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// DeleteBatch removes all paths in one transaction
func (r *PostgresStore) DeleteBatch(ctx context.Context, paths []string) error {
	if err := validateBatch(paths); err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE path = ANY($1)`, paths); err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Add stores data under a generated id
func (r *PostgresStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	path := DocPath(collection, uuid.New().String())
	if err := r.Set(ctx, path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Close releases the pool
func (r *PostgresStore) Close() error {
	r.db.Close()
	return nil
}

func encodeData(data map[string]any) (string, error) {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = jsonValue(v)
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(raw), nil
}

// jsonValue stores times in a form that casts cleanly to timestamptz
func jsonValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func decodeRow(path string, raw []byte) (Document, error) {
	_, _, id, err := splitPath(path)
	if err != nil {
		return Document{}, err
	}
	data := make(map[string]any)
	if err := json.Unmarshal(raw, &data); err != nil {
		return Document{}, fmt.Errorf("failed to decode document %s: %w", path, err)
	}
	return Document{Path: path, ID: id, Data: data}, nil
}

var _ Store = (*PostgresStore)(nil)
