package repository

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/stwalsh4118/hoadues/internal/models"
)

// Operator is a comparison operator for a query filter.
type Operator string

// Supported filter operators. Comparisons use jsonb ordering, so numbers
// compare numerically. A time.Time value casts the stored text to
// timestamptz, so values with different offsets compare chronologically.
const (
	OpEq  Operator = "="
	OpNe  Operator = "<>"
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
)

// Filter compares one top-level document field with a value.
// OpNe also matches documents where the field is missing.
type Filter struct {
	Field string
	Op    Operator
	Value interface{}
}

// OrderBy sorts by one top-level document field.
type OrderBy struct {
	Field string
	Desc  bool
}

// Query selects documents from one collection.
// An empty PartitionKey queries across partitions.
type Query struct {
	PartitionKey string
	Filters      []Filter
	OrderBy      []OrderBy
	Limit        int
}

// Where is shorthand for a single filter.
func Where(field string, op Operator, value interface{}) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// idField is matched against the id column rather than the document body.
const idField = "id"

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var collectionTables = map[string]struct{}{
	models.CollectionProperties:     {},
	models.CollectionOwners:         {},
	models.CollectionAssessments:    {},
	models.CollectionCommunications: {},
	models.CollectionPayments:       {},
	models.CollectionSales:          {},
	models.CollectionConfig:         {},
}

var validOperators = map[Operator]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {},
}

// tableFor maps a collection name to its table, rejecting unknown names.
func tableFor(collection string) (string, error) {
	if _, ok := collectionTables[collection]; !ok {
		return "", fmt.Errorf("unknown collection %q", collection)
	}
	return collection, nil
}

// fieldRef returns the SQL reference to a document field. Field names are
// validated before being inlined, so they can never carry SQL.
func fieldRef(field string) (string, error) {
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	if field == idField {
		return "id", nil
	}
	return fmt.Sprintf("doc->'%s'", field), nil
}

// jsonArg encodes a filter or patch value as JSON text for a $n::text::jsonb parameter.
func jsonArg(value interface{}) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode value: %w", err)
	}
	return string(raw), nil
}

// buildSelect renders q as a parameterized SELECT returning doc as text.
func buildSelect(collection string, q Query) (string, []interface{}, error) {
	table, err := tableFor(collection)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	var args []interface{}
	sb.WriteString("SELECT doc::text FROM ")
	sb.WriteString(table)

	var conds []string
	if q.PartitionKey != "" {
		args = append(args, q.PartitionKey)
		conds = append(conds, fmt.Sprintf("partition_key = $%d", len(args)))
	}

	for _, f := range q.Filters {
		if _, ok := validOperators[f.Op]; !ok {
			return "", nil, fmt.Errorf("invalid operator %q", f.Op)
		}
		ref, err := fieldRef(f.Field)
		if err != nil {
			return "", nil, err
		}

		if f.Field == idField {
			args = append(args, fmt.Sprint(f.Value))
			conds = append(conds, fmt.Sprintf("id %s $%d", f.Op, len(args)))
			continue
		}

		if t, ok := f.Value.(time.Time); ok {
			args = append(args, t)
			conds = append(conds, fmt.Sprintf("(doc->>'%s')::timestamptz %s $%d", f.Field, f.Op, len(args)))
			continue
		}

		value, err := jsonArg(f.Value)
		if err != nil {
			return "", nil, err
		}
		args = append(args, value)
		if f.Op == OpNe {
			conds = append(conds, fmt.Sprintf("(%s IS NULL OR %s <> $%d::text::jsonb)", ref, ref, len(args)))
		} else {
			conds = append(conds, fmt.Sprintf("%s %s $%d::text::jsonb", ref, f.Op, len(args)))
		}
	}

	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(q.OrderBy) > 0 {
		orders := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			ref, err := fieldRef(o.Field)
			if err != nil {
				return "", nil, err
			}
			if o.Desc {
				orders = append(orders, ref+" DESC")
			} else {
				orders = append(orders, ref+" ASC")
			}
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orders, ", "))
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	return sb.String(), args, nil
}

// buildPatch renders ops as a single UPDATE of one document that returns the new body.
func buildPatch(collection, id, partitionKey string, ops []PatchOp) (string, []interface{}, error) {
	table, err := tableFor(collection)
	if err != nil {
		return "", nil, err
	}
	if len(ops) == 0 {
		return "", nil, fmt.Errorf("patch requires at least one operation")
	}

	args := []interface{}{partitionKey, id}
	expr := "doc"
	for _, op := range ops {
		if !fieldPattern.MatchString(op.Field) || op.Field == idField {
			return "", nil, fmt.Errorf("invalid patch field %q", op.Field)
		}

		switch op.Type {
		case PatchReplace, PatchAdd:
			value, err := jsonArg(op.Value)
			if err != nil {
				return "", nil, err
			}
			args = append(args, value)
			expr = fmt.Sprintf("jsonb_set(%s, '{%s}', $%d::text::jsonb, true)", expr, op.Field, len(args))
		case PatchRemove:
			expr = fmt.Sprintf("(%s - '%s')", expr, op.Field)
		default:
			return "", nil, fmt.Errorf("invalid patch operation %q", op.Type)
		}
	}

	query := fmt.Sprintf(
		"UPDATE %s SET doc = %s, updated_at = NOW() WHERE partition_key = $1 AND id = $2 RETURNING doc::text",
		table, expr,
	)
	return query, args, nil
}
