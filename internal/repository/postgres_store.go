package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stwalsh4118/hoadues/internal/database"
)

// querier is the subset of pgxpool.Pool used by the store.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// postgresStore keeps each collection in its own table of JSONB documents.
type postgresStore struct {
	db querier
}

// NewPostgresStore creates a DocumentStore backed by the database pool.
func NewPostgresStore(db *database.Database) DocumentStore {
	return &postgresStore{
		db: db.Pool,
	}
}

// Get fetches a single document by id within its partition.
func (s *postgresStore) Get(ctx context.Context, collection, id, partitionKey string) (json.RawMessage, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT doc::text FROM %s WHERE partition_key = $1 AND id = $2", table)

	var body string
	if err := s.db.QueryRow(ctx, query, partitionKey, id).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s from %s: %w", partitionKey, id, collection, classify(err))
	}

	return json.RawMessage(body), nil
}

// Query streams matching documents row by row. The rows cursor is closed
// when iteration ends or the consumer stops early.
func (s *postgresStore) Query(ctx context.Context, collection string, q Query) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		sql, args, err := buildSelect(collection, q)
		if err != nil {
			yield(nil, err)
			return
		}

		rows, err := s.db.Query(ctx, sql, args...)
		if err != nil {
			yield(nil, fmt.Errorf("failed to query %s: %w", collection, classify(err)))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var body string
			if err := rows.Scan(&body); err != nil {
				yield(nil, fmt.Errorf("failed to scan %s document: %w", collection, err))
				return
			}
			if !yield(json.RawMessage(body), nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("error iterating %s rows: %w", collection, classify(err)))
		}
	}
}

// Patch applies every operation in a single UPDATE statement.
func (s *postgresStore) Patch(ctx context.Context, collection, id, partitionKey string, ops []PatchOp) (json.RawMessage, error) {
	sql, args, err := buildPatch(collection, id, partitionKey, ops)
	if err != nil {
		return nil, err
	}

	var body string
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to patch %s/%s in %s: %w", partitionKey, id, collection, classify(err))
	}

	return json.RawMessage(body), nil
}

// Create inserts a new document.
func (s *postgresStore) Create(ctx context.Context, collection string, doc Document) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}

	body, err := json.Marshal(doc.Body)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := fmt.Sprintf("INSERT INTO %s (partition_key, id, doc) VALUES ($1, $2, $3::text::jsonb)", table)
	if _, err := s.db.Exec(ctx, query, doc.PartitionKey, doc.ID, string(body)); err != nil {
		return fmt.Errorf("failed to create %s/%s in %s: %w", doc.PartitionKey, doc.ID, collection, classify(err))
	}

	return nil
}

// Replace overwrites the whole body of an existing document.
func (s *postgresStore) Replace(ctx context.Context, collection string, doc Document) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}

	body, err := json.Marshal(doc.Body)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := fmt.Sprintf(
		"UPDATE %s SET doc = $3::text::jsonb, updated_at = NOW() WHERE partition_key = $1 AND id = $2",
		table,
	)
	tag, err := s.db.Exec(ctx, query, doc.PartitionKey, doc.ID, string(body))
	if err != nil {
		return fmt.Errorf("failed to replace %s/%s in %s: %w", doc.PartitionKey, doc.ID, collection, classify(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgreSQL error codes mapped to store errors.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
	codeTooManyConnections   = "53300"
)

// classify tags driver errors with ErrConflict or ErrThrottled, keeping the
// original error in the chain.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable,
			codeQueryCanceled, codeTooManyConnections:
			return fmt.Errorf("%w: %w", ErrThrottled, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %w", ErrThrottled, err)
	}

	return err
}
