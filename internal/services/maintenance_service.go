package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stwalsh4118/hoadues/internal/logger"
	"github.com/stwalsh4118/hoadues/internal/models"
	"github.com/stwalsh4118/hoadues/internal/repository"
)

// MaintenanceService applies operator edits to properties, owners and assessments.
type MaintenanceService interface {
	// UpdateProperty applies the set fields of patch in one atomic store patch.
	UpdateProperty(ctx context.Context, parcelID string, patch models.PropertyPatch, actor string) (*models.Property, error)

	// UpdateOwner patches an owner. When the owner is current, the name,
	// phone and mailing fields are copied onto the property in a second,
	// separate patch; if that one fails the updated owner is returned with
	// ErrPropertyStale.
	UpdateOwner(ctx context.Context, parcelID string, ownerID int, patch models.OwnerPatch, actor string) (*models.Owner, error)

	// UpdateAssessment replaces the editable fields of an assessment.
	// FY and the stored DateDue are kept.
	UpdateAssessment(ctx context.Context, parcelID, assessmentID string, update models.AssessmentUpdate, actor string) (*models.Assessment, error)
}

// maintenanceService is the concrete implementation of MaintenanceService.
type maintenanceService struct {
	repo     repository.AccountRepository
	validate *validator.Validate
	log      *logger.Logger
	now      func() time.Time
}

// NewMaintenanceService creates a new instance of MaintenanceService.
func NewMaintenanceService(repo repository.AccountRepository, log *logger.Logger) MaintenanceService {
	return &maintenanceService{
		repo:     repo,
		validate: validator.New(),
		log:      log.WithComponent("maintenance"),
		now:      time.Now,
	}
}

// patchBuilder collects replace operations for the fields that were set.
type patchBuilder struct {
	ops []repository.PatchOp
}

func (b *patchBuilder) str(field string, value *string) {
	if value != nil {
		b.ops = append(b.ops, repository.Replace(field, strings.TrimSpace(*value)))
	}
}

func (b *patchBuilder) flag(field string, value *bool) {
	if value != nil {
		b.ops = append(b.ops, repository.Replace(field, models.Flag(*value)))
	}
}

func (b *patchBuilder) audit(actor string, now time.Time) []repository.PatchOp {
	return append(b.ops,
		repository.Replace("LastChangedBy", actor),
		repository.Replace("LastChangedTs", now),
	)
}

// UpdateProperty applies a property patch.
func (s *maintenanceService) UpdateProperty(ctx context.Context, parcelID string, patch models.PropertyPatch, actor string) (*models.Property, error) {
	var b patchBuilder
	b.flag("UseEmail", patch.UseEmail)
	b.str("Comments", patch.Comments)
	if len(b.ops) == 0 {
		return nil, fmt.Errorf("%w: no property fields to update", ErrValidation)
	}

	property, err := s.repo.PatchProperty(ctx, parcelID, b.audit(actor, s.now()))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: property %s", ErrAccountNotFound, parcelID)
		}
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	s.log.Info("Property updated", map[string]interface{}{
		"parcel_id": parcelID,
		"actor":     actor,
	})
	return property, nil
}

// UpdateOwner applies an owner patch and propagates it to the property.
func (s *maintenanceService) UpdateOwner(ctx context.Context, parcelID string, ownerID int, patch models.OwnerPatch, actor string) (*models.Owner, error) {
	for _, addr := range []*string{patch.EmailAddr, patch.EmailAddr2} {
		if addr == nil || strings.TrimSpace(*addr) == "" {
			continue
		}
		if err := s.validate.Var(strings.TrimSpace(*addr), "email"); err != nil {
			return nil, fmt.Errorf("%w: invalid email address %q", ErrValidation, *addr)
		}
	}

	owner, err := s.repo.GetOwner(ctx, parcelID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owner: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: owner %d of property %s", ErrAccountNotFound, ownerID, parcelID)
	}

	var b patchBuilder
	b.str("Owner_Name1", patch.OwnerName1)
	b.str("Owner_Name2", patch.OwnerName2)
	b.str("DatePurchased", patch.DatePurchased)
	b.str("Mailing_Name", patch.MailingName)
	b.str("Owner_Phone", patch.OwnerPhone)
	b.str("EmailAddr", patch.EmailAddr)
	b.str("EmailAddr2", patch.EmailAddr2)
	b.str("Comments", patch.Comments)
	b.flag("AlternateMailing", patch.AlternateMailing)
	b.str("Alt_Address_Line1", patch.AltAddressLine1)
	b.str("Alt_Address_Line2", patch.AltAddressLine2)
	b.str("Alt_City", patch.AltCity)
	b.str("Alt_State", patch.AltState)
	b.str("Alt_Zip", patch.AltZip)
	if len(b.ops) == 0 {
		return nil, fmt.Errorf("%w: no owner fields to update", ErrValidation)
	}

	now := s.now()
	updated, err := s.repo.PatchOwner(ctx, parcelID, owner.ID, b.audit(actor, now))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: owner %d of property %s", ErrAccountNotFound, ownerID, parcelID)
		}
		return nil, fmt.Errorf("failed to update owner: %w", err)
	}

	if !updated.IsCurrent() {
		return updated, nil
	}

	var pb patchBuilder
	pb.str("Owner_Name1", patch.OwnerName1)
	pb.str("Owner_Name2", patch.OwnerName2)
	pb.str("Mailing_Name", patch.MailingName)
	pb.str("Owner_Phone", patch.OwnerPhone)
	pb.str("Alt_Address_Line1", patch.AltAddressLine1)
	if len(pb.ops) == 0 {
		return updated, nil
	}

	// Not transactional with the owner patch above.
	if _, err := s.repo.PatchProperty(ctx, parcelID, pb.audit(actor, now)); err != nil {
		s.log.Error("Owner updated but property not refreshed", err, map[string]interface{}{
			"parcel_id": parcelID,
			"owner_id":  ownerID,
		})
		return updated, fmt.Errorf("%w: %s: %w", ErrPropertyStale, parcelID, err)
	}

	s.log.Info("Owner updated", map[string]interface{}{
		"parcel_id": parcelID,
		"owner_id":  ownerID,
		"actor":     actor,
	})
	return updated, nil
}

// UpdateAssessment replaces an assessment with the edited values.
func (s *maintenanceService) UpdateAssessment(ctx context.Context, parcelID, assessmentID string, update models.AssessmentUpdate, actor string) (*models.Assessment, error) {
	existing, err := s.repo.GetAssessment(ctx, parcelID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: assessment %s of property %s", ErrAccountNotFound, assessmentID, parcelID)
	}

	money := moneyFields{}
	assessment := models.Assessment{
		ID:                 existing.ID,
		ParcelID:           existing.ParcelID,
		OwnerID:            existing.OwnerID,
		FY:                 existing.FY,
		DateDue:            existing.DateDue,
		DuesAmt:            money.parse("duesAmt", update.DuesAmt),
		Paid:               models.Flag(update.Paid),
		NonCollectible:     models.Flag(update.NonCollectible),
		DatePaid:           strings.TrimSpace(update.DatePaid),
		PaymentMethod:      strings.TrimSpace(update.PaymentMethod),
		Lien:               models.Flag(update.Lien),
		LienRefNo:          strings.TrimSpace(update.LienRefNo),
		DateFiled:          strings.TrimSpace(update.DateFiled),
		Disposition:        strings.TrimSpace(update.Disposition),
		FilingFee:          money.parse("filingFee", update.FilingFee),
		ReleaseFee:         money.parse("releaseFee", update.ReleaseFee),
		DateReleased:       strings.TrimSpace(update.DateReleased),
		LienDatePaid:       strings.TrimSpace(update.LienDatePaid),
		AmountPaid:         money.parse("amountPaid", update.AmountPaid),
		StopInterestCalc:   models.Flag(update.StopInterestCalc),
		FilingFeeInterest:  money.parse("filingFeeInterest", update.FilingFeeInterest),
		AssessmentInterest: money.parse("assessmentInterest", update.AssessmentInterest),
		InterestNotPaid:    models.Flag(update.InterestNotPaid),
		BankFee:            money.parse("bankFee", update.BankFee),
		LienComment:        strings.TrimSpace(update.LienComment),
		Comments:           strings.TrimSpace(update.Comments),
		LastChangedBy:      actor,
		LastChangedTs:      s.now(),
	}
	if update.OwnerID != nil {
		assessment.OwnerID = *update.OwnerID
	}
	if err := money.err(); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceAssessment(ctx, &assessment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: assessment %s of property %s", ErrAccountNotFound, assessmentID, parcelID)
		}
		return nil, fmt.Errorf("failed to update assessment: %w", err)
	}

	s.log.Info("Assessment updated", map[string]interface{}{
		"parcel_id": parcelID,
		"fy":        assessment.FY,
		"actor":     actor,
	})
	return &assessment, nil
}

// moneyFields parses several money inputs, keeping the first failure.
type moneyFields struct {
	firstErr error
}

// parse reads one amount. Blank means zero.
func (m *moneyFields) parse(field, value string) models.Money {
	if strings.TrimSpace(value) == "" {
		return models.Zero
	}
	amount, err := models.ParseMoney(value)
	if err != nil && m.firstErr == nil {
		m.firstErr = fmt.Errorf("%w: %s: %w", ErrValidation, field, err)
	}
	return amount
}

func (m *moneyFields) err() error {
	return m.firstErr
}
