package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/stwalsh4118/hoadues/internal/models"
)

// AccountRepository gives typed access to the hoa collections.
// Point lookups return nil, nil when the document does not exist.
type AccountRepository interface {
	GetProperty(ctx context.Context, parcelID string) (*models.Property, error)
	ListProperties(ctx context.Context) ([]models.Property, error)
	PatchProperty(ctx context.Context, parcelID string, ops []PatchOp) (*models.Property, error)

	// GetOwner finds the owner with the given OwnerID within the property.
	GetOwner(ctx context.Context, parcelID string, ownerID int) (*models.Owner, error)
	// ListOwners returns every owner of the property, newest OwnerID first.
	ListOwners(ctx context.Context, parcelID string) ([]models.Owner, error)
	// ListCurrentOwners returns the current owner of every property.
	ListCurrentOwners(ctx context.Context) ([]models.Owner, error)
	PatchOwner(ctx context.Context, parcelID, id string, ops []PatchOp) (*models.Owner, error)

	// ListAssessments returns assessments ordered by FY descending.
	ListAssessments(ctx context.Context, filter AssessmentFilter) ([]models.Assessment, error)
	// MaxFiscalYear returns the highest FY on record, or 0 when there are none.
	// An empty parcelID searches every property.
	MaxFiscalYear(ctx context.Context, parcelID string) (int, error)
	GetAssessment(ctx context.Context, parcelID, id string) (*models.Assessment, error)
	ReplaceAssessment(ctx context.Context, assessment *models.Assessment) error

	// RecentPayments lazily yields the owner's payments made at or after since.
	RecentPayments(ctx context.Context, parcelID string, ownerID int, since time.Time) iter.Seq2[models.Payment, error]
	GetPayment(ctx context.Context, parcelID, id string) (*models.Payment, error)
	PatchPayment(ctx context.Context, parcelID, id string, ops []PatchOp) error

	// ListSales returns sales newest first, or only the sale on saleDate when given.
	ListSales(ctx context.Context, parcelID, saleDate string) ([]models.Sale, error)

	// GetConfigValue returns the value of a named config entry and whether it exists.
	GetConfigValue(ctx context.Context, name string) (string, bool, error)
	ListConfig(ctx context.Context) ([]models.ConfigEntry, error)

	CreateCommunication(ctx context.Context, comm *models.Communication) error
	GetCommunication(ctx context.Context, parcelID, id string) (*models.Communication, error)
	// ListCommunications returns the property's communications, newest first.
	ListCommunications(ctx context.Context, parcelID string) ([]models.Communication, error)
	PatchCommunication(ctx context.Context, parcelID, id string, ops []PatchOp) error
}

// AssessmentFilter narrows ListAssessments. Zero values match everything.
type AssessmentFilter struct {
	ParcelID string
	FY       int
}

// accountRepository is the concrete implementation of AccountRepository.
type accountRepository struct {
	store DocumentStore
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(store DocumentStore) AccountRepository {
	return &accountRepository{
		store: store,
	}
}

// getDoc decodes a single document, mapping ErrNotFound to nil, nil.
func getDoc[T any](ctx context.Context, store DocumentStore, collection, id, partitionKey string) (*T, error) {
	raw, err := store.Get(ctx, collection, id, partitionKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s document %s: %w", collection, id, err)
	}
	return &doc, nil
}

// decodeSeq adapts a raw document sequence into typed values.
func decodeSeq[T any](collection string, seq iter.Seq2[json.RawMessage, error]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for raw, err := range seq {
			var doc T
			if err != nil {
				yield(doc, err)
				return
			}
			if err := json.Unmarshal(raw, &doc); err != nil {
				yield(doc, fmt.Errorf("failed to decode %s document: %w", collection, err))
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// collect drains a typed sequence into a slice. The result is never nil.
func collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	out := make([]T, 0)
	for doc, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func queryAll[T any](ctx context.Context, store DocumentStore, collection string, q Query) ([]T, error) {
	return collect(decodeSeq[T](collection, store.Query(ctx, collection, q)))
}

func patchDoc[T any](ctx context.Context, store DocumentStore, collection, id, partitionKey string, ops []PatchOp) (*T, error) {
	raw, err := store.Patch(ctx, collection, id, partitionKey, ops)
	if err != nil {
		return nil, err
	}

	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode patched %s document %s: %w", collection, id, err)
	}
	return &doc, nil
}

// GetProperty fetches a property by Parcel_ID, which is both its id and partition key.
func (r *accountRepository) GetProperty(ctx context.Context, parcelID string) (*models.Property, error) {
	property, err := getDoc[models.Property](ctx, r.store, models.CollectionProperties, parcelID, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property %s: %w", parcelID, err)
	}
	return property, nil
}

// ListProperties returns every property ordered by Parcel_ID.
func (r *accountRepository) ListProperties(ctx context.Context) ([]models.Property, error) {
	properties, err := queryAll[models.Property](ctx, r.store, models.CollectionProperties, Query{
		OrderBy: []OrderBy{{Field: "Parcel_ID"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

// PatchProperty applies ops to the property document.
func (r *accountRepository) PatchProperty(ctx context.Context, parcelID string, ops []PatchOp) (*models.Property, error) {
	property, err := patchDoc[models.Property](ctx, r.store, models.CollectionProperties, parcelID, parcelID, ops)
	if err != nil {
		return nil, fmt.Errorf("failed to patch property %s: %w", parcelID, err)
	}
	return property, nil
}

// GetOwner finds one owner by OwnerID within the property partition.
func (r *accountRepository) GetOwner(ctx context.Context, parcelID string, ownerID int) (*models.Owner, error) {
	owners, err := queryAll[models.Owner](ctx, r.store, models.CollectionOwners, Query{
		PartitionKey: parcelID,
		Filters:      []Filter{Where("OwnerID", OpEq, ownerID)},
		Limit:        1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get owner %d of property %s: %w", ownerID, parcelID, err)
	}
	if len(owners) == 0 {
		return nil, nil
	}
	return &owners[0], nil
}

// ListOwners returns the owner history of a property, newest OwnerID first.
func (r *accountRepository) ListOwners(ctx context.Context, parcelID string) ([]models.Owner, error) {
	owners, err := queryAll[models.Owner](ctx, r.store, models.CollectionOwners, Query{
		PartitionKey: parcelID,
		OrderBy:      []OrderBy{{Field: "OwnerID", Desc: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list owners of property %s: %w", parcelID, err)
	}
	return owners, nil
}

// ListCurrentOwners returns the current owner records across all properties.
func (r *accountRepository) ListCurrentOwners(ctx context.Context) ([]models.Owner, error) {
	owners, err := queryAll[models.Owner](ctx, r.store, models.CollectionOwners, Query{
		Filters: []Filter{Where("CurrentOwner", OpEq, 1)},
		OrderBy: []OrderBy{{Field: "Parcel_ID"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list current owners: %w", err)
	}
	return owners, nil
}

// PatchOwner applies ops to the owner document with the given id.
func (r *accountRepository) PatchOwner(ctx context.Context, parcelID, id string, ops []PatchOp) (*models.Owner, error) {
	owner, err := patchDoc[models.Owner](ctx, r.store, models.CollectionOwners, id, parcelID, ops)
	if err != nil {
		return nil, fmt.Errorf("failed to patch owner %s of property %s: %w", id, parcelID, err)
	}
	return owner, nil
}

// ListAssessments returns matching assessments, highest FY first.
func (r *accountRepository) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]models.Assessment, error) {
	q := Query{
		PartitionKey: filter.ParcelID,
		OrderBy:      []OrderBy{{Field: "FY", Desc: true}},
	}
	if filter.FY > 0 {
		q.Filters = append(q.Filters, Where("FY", OpEq, filter.FY))
	}

	assessments, err := queryAll[models.Assessment](ctx, r.store, models.CollectionAssessments, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, nil
}

// MaxFiscalYear reads only the top row of the FY-descending ordering.
func (r *accountRepository) MaxFiscalYear(ctx context.Context, parcelID string) (int, error) {
	assessments, err := queryAll[models.Assessment](ctx, r.store, models.CollectionAssessments, Query{
		PartitionKey: parcelID,
		OrderBy:      []OrderBy{{Field: "FY", Desc: true}},
		Limit:        1,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get max fiscal year: %w", err)
	}
	if len(assessments) == 0 {
		return 0, nil
	}
	return assessments[0].FY, nil
}

// GetAssessment fetches one assessment by document id.
func (r *accountRepository) GetAssessment(ctx context.Context, parcelID, id string) (*models.Assessment, error) {
	assessment, err := getDoc[models.Assessment](ctx, r.store, models.CollectionAssessments, id, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment %s of property %s: %w", id, parcelID, err)
	}
	return assessment, nil
}

// ReplaceAssessment overwrites the stored assessment.
func (r *accountRepository) ReplaceAssessment(ctx context.Context, assessment *models.Assessment) error {
	err := r.store.Replace(ctx, models.CollectionAssessments, Document{
		ID:           assessment.ID,
		PartitionKey: assessment.ParcelID,
		Body:         assessment,
	})
	if err != nil {
		return fmt.Errorf("failed to replace assessment %s of property %s: %w", assessment.ID, assessment.ParcelID, err)
	}
	return nil
}

// RecentPayments streams the owner's payments since the cutoff. payment_date
// is stored as RFC3339 text and compared as an instant, whatever its offset.
func (r *accountRepository) RecentPayments(ctx context.Context, parcelID string, ownerID int, since time.Time) iter.Seq2[models.Payment, error] {
	return decodeSeq[models.Payment](models.CollectionPayments, r.store.Query(ctx, models.CollectionPayments, Query{
		PartitionKey: parcelID,
		Filters: []Filter{
			Where("OwnerID", OpEq, ownerID),
			Where("payment_date", OpGte, since.UTC()),
		},
		OrderBy: []OrderBy{{Field: "payment_date", Desc: true}},
	}))
}

// GetPayment fetches one payment by document id.
func (r *accountRepository) GetPayment(ctx context.Context, parcelID, id string) (*models.Payment, error) {
	payment, err := getDoc[models.Payment](ctx, r.store, models.CollectionPayments, id, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment %s of property %s: %w", id, parcelID, err)
	}
	return payment, nil
}

// PatchPayment applies ops to the payment document.
func (r *accountRepository) PatchPayment(ctx context.Context, parcelID, id string, ops []PatchOp) error {
	if _, err := r.store.Patch(ctx, models.CollectionPayments, id, parcelID, ops); err != nil {
		return fmt.Errorf("failed to patch payment %s of property %s: %w", id, parcelID, err)
	}
	return nil
}

// ListSales returns the property's sales history.
func (r *accountRepository) ListSales(ctx context.Context, parcelID, saleDate string) ([]models.Sale, error) {
	q := Query{
		PartitionKey: parcelID,
		OrderBy:      []OrderBy{{Field: "CreateTimestamp", Desc: true}},
	}
	if saleDate != "" {
		q.Filters = append(q.Filters, Where("SALEDT", OpEq, saleDate))
	}

	sales, err := queryAll[models.Sale](ctx, r.store, models.CollectionSales, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales of property %s: %w", parcelID, err)
	}
	return sales, nil
}

// GetConfigValue looks up a config entry by ConfigName.
func (r *accountRepository) GetConfigValue(ctx context.Context, name string) (string, bool, error) {
	entries, err := queryAll[models.ConfigEntry](ctx, r.store, models.CollectionConfig, Query{
		PartitionKey: models.ConfigPartition,
		Filters:      []Filter{Where("ConfigName", OpEq, name)},
		Limit:        1,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to get config %s: %w", name, err)
	}
	if len(entries) == 0 {
		return "", false, nil
	}
	return entries[0].ConfigValue, true, nil
}

// ListConfig returns every config entry ordered by name.
func (r *accountRepository) ListConfig(ctx context.Context) ([]models.ConfigEntry, error) {
	entries, err := queryAll[models.ConfigEntry](ctx, r.store, models.CollectionConfig, Query{
		PartitionKey: models.ConfigPartition,
		OrderBy:      []OrderBy{{Field: "ConfigName"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list config: %w", err)
	}
	return entries, nil
}

// CreateCommunication stores a new communication in the property partition.
func (r *accountRepository) CreateCommunication(ctx context.Context, comm *models.Communication) error {
	err := r.store.Create(ctx, models.CollectionCommunications, Document{
		ID:           comm.ID,
		PartitionKey: comm.ParcelID,
		Body:         comm,
	})
	if err != nil {
		return fmt.Errorf("failed to create communication %s for property %s: %w", comm.ID, comm.ParcelID, err)
	}
	return nil
}

// GetCommunication fetches one communication by document id.
func (r *accountRepository) GetCommunication(ctx context.Context, parcelID, id string) (*models.Communication, error) {
	comm, err := getDoc[models.Communication](ctx, r.store, models.CollectionCommunications, id, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get communication %s of property %s: %w", id, parcelID, err)
	}
	return comm, nil
}

// ListCommunications returns the property's communications, newest first.
func (r *accountRepository) ListCommunications(ctx context.Context, parcelID string) ([]models.Communication, error) {
	comms, err := queryAll[models.Communication](ctx, r.store, models.CollectionCommunications, Query{
		PartitionKey: parcelID,
		OrderBy:      []OrderBy{{Field: "CreateTs", Desc: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list communications of property %s: %w", parcelID, err)
	}
	return comms, nil
}

// PatchCommunication applies ops to the communication document.
func (r *accountRepository) PatchCommunication(ctx context.Context, parcelID, id string, ops []PatchOp) error {
	if _, err := r.store.Patch(ctx, models.CollectionCommunications, id, parcelID, ops); err != nil {
		return fmt.Errorf("failed to patch communication %s of property %s: %w", id, parcelID, err)
	}
	return nil
}
