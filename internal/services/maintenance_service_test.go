package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/hoadues/internal/logger"
	"github.com/stwalsh4118/hoadues/internal/models"
	"github.com/stwalsh4118/hoadues/internal/repository"
)

func newTestMaintenanceService(repo *MockAccountRepository) *maintenanceService {
	svc := NewMaintenanceService(repo, logger.Nop()).(*maintenanceService)
	svc.now = fixedClock(testNow)
	return svc
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestUpdateProperty_Success(t *testing.T) {
	// Arrange
	mockRepo := new(MockAccountRepository)
	service := newTestMaintenanceService(mockRepo)
	ctx := context.Background()

	updated := testProperty("P-100")
	updated.UseEmail = 1
	mockRepo.On("PatchProperty", ctx, "P-100", []repository.PatchOp{
		repository.Replace("UseEmail", 1),
		repository.Replace("Comments", "Prefers email"),
		repository.Replace("LastChangedBy", "treasurer"),
		repository.Replace("LastChangedTs", testNow),
	}).Return(updated, nil)

	// Act
	property, err := service.UpdateProperty(ctx, "P-100", models.PropertyPatch{
		UseEmail: boolPtr(true),
		Comments: strPtr("  Prefers email "),
	}, "treasurer")

	// Assert
	require.NoError(t, err)
	assert.True(t, property.UsesEmail())
	mockRepo.AssertExpectations(t)
}

func TestUpdateProperty_EmptyPatch(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	service := newTestMaintenanceService(mockRepo)

	property, err := service.UpdateProperty(context.Background(), "P-100", models.PropertyPatch{}, "treasurer")

	assert.Nil(t, property)
	assert.ErrorIs(t, err, ErrValidation)
	mockRepo.AssertNotCalled(t, "PatchProperty", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProperty_NotFound(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	service := newTestMaintenanceService(mockRepo)
	ctx := context.Background()

	mockRepo.On("PatchProperty", ctx, "missing", mock.Anything).Return(nil, repository.ErrNotFound)

	property, err := service.UpdateProperty(ctx, "missing", models.PropertyPatch{UseEmail: boolPtr(false)}, "treasurer")

	assert.Nil(t, property)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateOwner_CurrentOwnerPropagatesToProperty(t *testing.T) {
	// Arrange
	mockRepo := new(MockAccountRepository)
	service := newTestMaintenanceService(mockRepo)
	ctx := context.Background()

	owner := testOwner("P-100")
	updated := owner
	updated.OwnerName1 = "Jane Smith"
	updated.EmailAddr = "jane.smith@example.com"

	mockRepo.On("GetOwner", ctx, "P-100", 7).Return(&owner, nil)
	mockRepo.On("PatchOwner", ctx, "P-100", owner.ID, []repository.PatchOp{
		repository.Replace("Owner_Name1", "Jane Smith"),
		repository.Replace("EmailAddr", "jane.smith@example.com"),
		repository.Replace("LastChangedBy", "treasurer"),
		repository.Replace("LastChangedTs", testNow),
	}).Return(&updated, nil)
	mockRepo.On("PatchProperty", ctx, "P-100", []repository.PatchOp{
		repository.Replace("Owner_Name1", "Jane Smith"),
		repository.Replace("LastChangedBy", "treasurer"),
		repository.Replace("LastChangedTs", testNow),
	}).Return(testProperty("P-100"), nil)

	// Act
	result, err := service.UpdateOwner(ctx, "P-100", 7, models.OwnerPatch{
		OwnerName1: strPtr("Jane Smith"),
		EmailAddr:  strPtr("jane.smith@example.com"),
	}, "treasurer")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", result.OwnerName1)
	mockRepo.AssertExpectations(t)
}

func TestUpdateOwner_PriorOwnerLeavesPropertyAlone(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	service := newTestMaintenanceService(mockRepo)
	ctx := context.Background()

	owner := testOwner("P-100")
	owner.CurrentOwner = 0
	mockRepo.On("GetOwner", ctx, "P-100", 7).Return(&owner, nil)
	mockRepo.On("PatchOwner", ctx, "P-100", owner.ID, mock.Anything).Return(&owner, nil)

	_, err := service.UpdateOwner(ctx, "P-100", 7, models.OwnerPatch{MailingName: strPtr("J. Owner")}, "treasurer")

	require.NoError(t, err)
	mockRepo.AssertNotCalled(t, "PatchProperty", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOwner_PropertyPatchFailureReportsStale(t *testing.T) {
	// Arrange
	mockRepo := new(MockAccountRepository)
	service := newTestMaintenanceService(mockRepo)
	ctx := context.Background()

	owner := testOwner("P-100")
	mockRepo.On("GetOwner", ctx, "P-100", 7).Return(&owner, nil)
	mockRepo.On("PatchOwner", ctx, "P-100", owner.ID, mock.Anything).Return(&owner, nil)
	mockRepo.On("PatchProperty", ctx, "P-100", mock.Anything).Return(nil, repository.ErrThrottled)

	// Act
	result, err := service.UpdateOwner(ctx, "P-100", 7, models.OwnerPatch{OwnerPhone: strPtr("555-0100")}, "treasurer")

	// Assert
	assert.ErrorIs(t, err, ErrPropertyStale)
	assert.ErrorIs(t, err, repository.ErrThrottled)
	require.NotNil(t, result, "the owner update itself succeeded")
	assert.Equal(t, owner.ID, result.ID)
}

func TestUpdateOwner_InvalidEmail(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	service := newTestMaintenanceService(mockRepo)

	result, err := service.UpdateOwner(context.Background(), "P-100", 7, models.OwnerPatch{
		EmailAddr2: strPtr("not-an-email"),
	}, "treasurer")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrValidation)
	mockRepo.AssertNotCalled(t, "GetOwner", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOwner_ClearingEmailIsAllowed(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	service := newTestMaintenanceService(mockRepo)
	ctx := context.Background()

	owner := testOwner("P-100")
	owner.CurrentOwner = 0
	mockRepo.On("GetOwner", ctx, "P-100", 7).Return(&owner, nil)
	mockRepo.On("PatchOwner", ctx, "P-100", owner.ID, mock.MatchedBy(func(ops []repository.PatchOp) bool {
		return len(ops) == 3 && ops[0] == repository.Replace("EmailAddr2", "")
	})).Return(&owner, nil)

	_, err := service.UpdateOwner(ctx, "P-100", 7, models.OwnerPatch{EmailAddr2: strPtr("")}, "treasurer")

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUpdateOwner_NotFound(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	service := newTestMaintenanceService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetOwner", ctx, "P-100", 99).Return(nil, nil)

	result, err := service.UpdateOwner(ctx, "P-100", 99, models.OwnerPatch{OwnerName1: strPtr("X")}, "treasurer")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateAssessment_Success(t *testing.T) {
	// Arrange
	mockRepo := new(MockAccountRepository)
	service := newTestMaintenanceService(mockRepo)
	ctx := context.Background()

	existing := &models.Assessment{
		ID:       "A-2024",
		ParcelID: "P-100",
		OwnerID:  7,
		FY:       2024,
		DateDue:  "2023-10-01",
		DuesAmt:  money(10000),
	}
	mockRepo.On("GetAssessment", ctx, "P-100", "A-2024").Return(existing, nil)
	mockRepo.On("ReplaceAssessment", ctx, mock.AnythingOfType("*models.Assessment")).Return(nil)

	// Act
	result, err := service.UpdateAssessment(ctx, "P-100", "A-2024", models.AssessmentUpdate{
		DuesAmt:       "$1,000.00",
		Paid:          true,
		DatePaid:      "2023-11-02",
		PaymentMethod: "Check",
		BankFee:       "",
	}, "treasurer")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2024, result.FY)
	assert.Equal(t, "2023-10-01", result.DateDue)
	assert.Equal(t, 7, result.OwnerID)
	assert.True(t, result.DuesAmt.Equal(money(100000)))
	assert.True(t, result.BankFee.IsZero())
	assert.Equal(t, 1, result.Paid)
	assert.Equal(t, "treasurer", result.LastChangedBy)
	assert.Equal(t, testNow, result.LastChangedTs)
	mockRepo.AssertExpectations(t)
}

func TestUpdateAssessment_InvalidMoney(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	service := newTestMaintenanceService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetAssessment", ctx, "P-100", "A-2024").Return(&models.Assessment{ID: "A-2024", ParcelID: "P-100", FY: 2024}, nil)

	result, err := service.UpdateAssessment(ctx, "P-100", "A-2024", models.AssessmentUpdate{
		DuesAmt:   "100",
		FilingFee: "12.345",
	}, "treasurer")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, models.ErrInvalidMoney)
	assert.Contains(t, err.Error(), "filingFee")
	mockRepo.AssertNotCalled(t, "ReplaceAssessment", mock.Anything, mock.Anything)
}

func TestUpdateAssessment_NotFound(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	service := newTestMaintenanceService(mockRepo)
	ctx := context.Background()

	mockRepo.On("GetAssessment", ctx, "P-100", "A-1999").Return(nil, nil)

	result, err := service.UpdateAssessment(ctx, "P-100", "A-1999", models.AssessmentUpdate{}, "treasurer")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
