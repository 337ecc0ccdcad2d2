package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/stwalsh4118/hoadues/internal/logger"
	"github.com/stwalsh4118/hoadues/internal/models"
	"github.com/stwalsh4118/hoadues/internal/repository"
)

// noticeDescription is the CommDesc of generated dues notices.
const noticeDescription = "Sent to Owner email"

// EventPublisher publishes dispatch events to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, subject, eventType string, payload interface{}) error
}

// NoticeBatchRequest starts a dues notice campaign.
type NoticeBatchRequest struct {
	// Actor is recorded as LastChangedBy on every created communication.
	Actor string
	// TestMode restricts the batch to the configured test property.
	TestMode bool
}

// NoticeService generates dues notices for delinquent accounts.
type NoticeService interface {
	// CreateDuesNoticeBatch creates one pending communication and publishes
	// one dispatch event per valid owner address of every account that owes
	// dues. It returns the number of notices created and published.
	// Accounts whose owner has no valid address are skipped.
	CreateDuesNoticeBatch(ctx context.Context, req NoticeBatchRequest) (int, error)
}

// noticeService is the concrete implementation of NoticeService.
type noticeService struct {
	accounts  AccountService
	repo      repository.AccountRepository
	publisher EventPublisher
	validate  *validator.Validate
	log       *logger.Logger
	now       func() time.Time
	newID     func() string
}

// NewNoticeService creates a new instance of NoticeService.
func NewNoticeService(accounts AccountService, repo repository.AccountRepository, publisher EventPublisher, log *logger.Logger) NoticeService {
	return &noticeService{
		accounts:  accounts,
		repo:      repo,
		publisher: publisher,
		validate:  validator.New(),
		log:       log.WithComponent("notices"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// CreateDuesNoticeBatch fans out dues notices. The batch stops at the first
// store or publish error; notices already published stay published.
func (s *noticeService) CreateDuesNoticeBatch(ctx context.Context, req NoticeBatchRequest) (int, error) {
	accounts, err := s.accounts.ListAccounts(ctx, AccountFilters{
		DuesOwed: true,
		TestMode: req.TestMode,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list delinquent accounts: %w", err)
	}

	s.log.Info("Creating dues notices", map[string]interface{}{
		"accounts":  len(accounts),
		"actor":     req.Actor,
		"test_mode": req.TestMode,
	})

	created := 0
	skipped := 0
	for i := range accounts {
		account := &accounts[i]
		addrs := s.recipientAddrs(account)
		if len(addrs) == 0 {
			skipped++
			continue
		}

		for _, addr := range addrs {
			if err := s.createNotice(ctx, account, addr, req.Actor); err != nil {
				return created, err
			}
			created++
		}
	}

	s.log.Info("Dues notices created", map[string]interface{}{
		"created":          created,
		"skipped_no_email": skipped,
	})

	return created, nil
}

// recipientAddrs returns the current owner's valid addresses, de-duplicated
// ignoring case. Malformed addresses are dropped.
func (s *noticeService) recipientAddrs(account *models.AccountSnapshot) []string {
	owner := account.CurrentOwner()
	if owner == nil {
		return nil
	}

	var addrs []string
	for _, candidate := range []string{owner.EmailAddr, owner.EmailAddr2} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if err := s.validate.Var(candidate, "email"); err != nil {
			s.log.Debug("Dropping invalid email address", map[string]interface{}{
				"parcel_id": owner.ParcelID,
				"owner_id":  owner.OwnerID,
			})
			continue
		}
		addrs = appendUniqueEmail(addrs, candidate)
	}
	return addrs
}

func (s *noticeService) createNotice(ctx context.Context, account *models.AccountSnapshot, addr, actor string) error {
	property := account.Property
	now := s.now()

	comm := &models.Communication{
		ID:            s.newID(),
		ParcelID:      property.ParcelID,
		CreateTs:      now,
		OwnerID:       property.OwnerID,
		CommType:      models.CommTypeDuesNotice,
		CommDesc:      noticeDescription,
		MailingName:   property.MailingName,
		Email:         1,
		EmailAddr:     addr,
		SentStatus:    models.SentStatusPending,
		LastChangedBy: actor,
		LastChangedTs: now,
	}

	if err := s.repo.CreateCommunication(ctx, comm); err != nil {
		s.log.Error("Failed to create communication", err, map[string]interface{}{
			"parcel_id": property.ParcelID,
		})
		return fmt.Errorf("failed to create dues notice: %w", err)
	}

	event := models.DispatchEvent{
		ID:        comm.ID,
		ParcelID:  comm.ParcelID,
		TotalDue:  account.TotalDue,
		EmailAddr: addr,
		MailType:  models.MailTypeDuesNotice,
	}
	if err := s.publisher.Publish(ctx, models.DispatchSubject, models.DispatchEventType, event); err != nil {
		// The communication stays pending with no event to drive it.
		s.log.Error("Failed to publish dispatch event, communication left pending", err, map[string]interface{}{
			"parcel_id": comm.ParcelID,
			"comm_id":   comm.ID,
		})
		return fmt.Errorf("%w: communication %s: %w", ErrPublishFailed, comm.ID, err)
	}

	return nil
}
