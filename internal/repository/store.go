package repository

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
)

// Store-level errors.
var (
	// ErrNotFound is returned when no document exists for the given id and partition key.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a create collides with an existing document or unique index.
	ErrConflict = errors.New("document conflict")
	// ErrThrottled marks transient store failures the caller may retry with backoff.
	ErrThrottled = errors.New("document store temporarily unavailable")
)

// PatchOpType is the kind of a single field operation.
type PatchOpType string

// Supported field operations. Replace overwrites a field, creating it when absent;
// Add creates or overwrites; Remove deletes the field.
const (
	PatchReplace PatchOpType = "replace"
	PatchAdd     PatchOpType = "add"
	PatchRemove  PatchOpType = "remove"
)

// PatchOp is one field operation of a patch.
type PatchOp struct {
	Type  PatchOpType
	Field string
	Value interface{}
}

// Replace builds a replace-field operation.
func Replace(field string, value interface{}) PatchOp {
	return PatchOp{Type: PatchReplace, Field: field, Value: value}
}

// Add builds an add-field operation.
func Add(field string, value interface{}) PatchOp {
	return PatchOp{Type: PatchAdd, Field: field, Value: value}
}

// Remove builds a remove-field operation.
func Remove(field string) PatchOp {
	return PatchOp{Type: PatchRemove, Field: field}
}

// Document is a JSON document addressed by id within a partition.
type Document struct {
	ID           string
	PartitionKey string
	Body         interface{}
}

// DocumentStore is typed-agnostic access to the partitioned document collections.
// All writes address a single partition, so every Patch is atomic.
type DocumentStore interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id, partitionKey string) (json.RawMessage, error)

	// Query lazily streams matching documents. Iteration stops at the first error.
	Query(ctx context.Context, collection string, q Query) iter.Seq2[json.RawMessage, error]

	// Patch applies all ops in one atomic update and returns the updated document.
	// Returns ErrNotFound when the document does not exist.
	Patch(ctx context.Context, collection, id, partitionKey string, ops []PatchOp) (json.RawMessage, error)

	// Create inserts a new document. Returns ErrConflict if it already exists.
	Create(ctx context.Context, collection string, doc Document) error

	// Replace overwrites an existing document. Returns ErrNotFound if absent.
	Replace(ctx context.Context, collection string, doc Document) error
}
