package services

import (
	"context"
	"iter"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/stwalsh4118/hoadues/internal/email"
	"github.com/stwalsh4118/hoadues/internal/models"
	"github.com/stwalsh4118/hoadues/internal/repository"
)

// MockAccountRepository is a mock implementation of AccountRepository for testing
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetProperty(ctx context.Context, parcelID string) (*models.Property, error) {
	args := m.Called(ctx, parcelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockAccountRepository) ListProperties(ctx context.Context) ([]models.Property, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockAccountRepository) PatchProperty(ctx context.Context, parcelID string, ops []repository.PatchOp) (*models.Property, error) {
	args := m.Called(ctx, parcelID, ops)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockAccountRepository) GetOwner(ctx context.Context, parcelID string, ownerID int) (*models.Owner, error) {
	args := m.Called(ctx, parcelID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Owner), args.Error(1)
}

func (m *MockAccountRepository) ListOwners(ctx context.Context, parcelID string) ([]models.Owner, error) {
	args := m.Called(ctx, parcelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Owner), args.Error(1)
}

func (m *MockAccountRepository) ListCurrentOwners(ctx context.Context) ([]models.Owner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Owner), args.Error(1)
}

func (m *MockAccountRepository) PatchOwner(ctx context.Context, parcelID, id string, ops []repository.PatchOp) (*models.Owner, error) {
	args := m.Called(ctx, parcelID, id, ops)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Owner), args.Error(1)
}

func (m *MockAccountRepository) ListAssessments(ctx context.Context, filter repository.AssessmentFilter) ([]models.Assessment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Assessment), args.Error(1)
}

func (m *MockAccountRepository) MaxFiscalYear(ctx context.Context, parcelID string) (int, error) {
	args := m.Called(ctx, parcelID)
	return args.Int(0), args.Error(1)
}

func (m *MockAccountRepository) GetAssessment(ctx context.Context, parcelID, id string) (*models.Assessment, error) {
	args := m.Called(ctx, parcelID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assessment), args.Error(1)
}

func (m *MockAccountRepository) ReplaceAssessment(ctx context.Context, assessment *models.Assessment) error {
	args := m.Called(ctx, assessment)
	return args.Error(0)
}

func (m *MockAccountRepository) RecentPayments(ctx context.Context, parcelID string, ownerID int, since time.Time) iter.Seq2[models.Payment, error] {
	args := m.Called(ctx, parcelID, ownerID, since)
	return args.Get(0).(iter.Seq2[models.Payment, error])
}

func (m *MockAccountRepository) GetPayment(ctx context.Context, parcelID, id string) (*models.Payment, error) {
	args := m.Called(ctx, parcelID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockAccountRepository) PatchPayment(ctx context.Context, parcelID, id string, ops []repository.PatchOp) error {
	args := m.Called(ctx, parcelID, id, ops)
	return args.Error(0)
}

func (m *MockAccountRepository) ListSales(ctx context.Context, parcelID, saleDate string) ([]models.Sale, error) {
	args := m.Called(ctx, parcelID, saleDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Sale), args.Error(1)
}

func (m *MockAccountRepository) GetConfigValue(ctx context.Context, name string) (string, bool, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepository) ListConfig(ctx context.Context) ([]models.ConfigEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConfigEntry), args.Error(1)
}

func (m *MockAccountRepository) CreateCommunication(ctx context.Context, comm *models.Communication) error {
	args := m.Called(ctx, comm)
	return args.Error(0)
}

func (m *MockAccountRepository) GetCommunication(ctx context.Context, parcelID, id string) (*models.Communication, error) {
	args := m.Called(ctx, parcelID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Communication), args.Error(1)
}

func (m *MockAccountRepository) ListCommunications(ctx context.Context, parcelID string) ([]models.Communication, error) {
	args := m.Called(ctx, parcelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Communication), args.Error(1)
}

func (m *MockAccountRepository) PatchCommunication(ctx context.Context, parcelID, id string, ops []repository.PatchOp) error {
	args := m.Called(ctx, parcelID, id, ops)
	return args.Error(0)
}

// MockAccountService is a mock implementation of AccountService for testing
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccount(ctx context.Context, q AccountQuery) (*models.AccountSnapshot, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountSnapshot), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, filters AccountFilters) ([]models.AccountSnapshot, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccountSnapshot), args.Error(1)
}

func (m *MockAccountService) ListCommunications(ctx context.Context, parcelID string) ([]models.Communication, error) {
	args := m.Called(ctx, parcelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Communication), args.Error(1)
}

func (m *MockAccountService) ListConfig(ctx context.Context) ([]models.ConfigEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConfigEntry), args.Error(1)
}

// MockPublisher is a mock implementation of EventPublisher for testing
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject, eventType string, payload interface{}) error {
	args := m.Called(ctx, subject, eventType, payload)
	return args.Error(0)
}

// MockSender is a mock implementation of email.Sender for testing
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg email.Message) (email.Result, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(email.Result), args.Error(1)
}

// payments yields the given payments as a repository sequence.
func payments(items ...models.Payment) iter.Seq2[models.Payment, error] {
	return func(yield func(models.Payment, error) bool) {
		for _, p := range items {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// fixedClock returns a clock stuck at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func money(cents int64) models.Money {
	return models.MoneyFromCents(cents)
}
