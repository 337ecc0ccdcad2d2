package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stwalsh4118/hoadues/internal/email"
	"github.com/stwalsh4118/hoadues/internal/events"
	"github.com/stwalsh4118/hoadues/internal/logger"
	"github.com/stwalsh4118/hoadues/internal/models"
	"github.com/stwalsh4118/hoadues/internal/repository"
)

// dispatchActor is recorded as LastChangedBy when a record is marked sent.
const dispatchActor = "SendMail"

// DispatchService sends the email a dispatch event asks for and marks its
// record sent.
type DispatchService interface {
	// Dispatch moves one record from pending to sent. A record that is
	// already sent is a no-op success, so redelivery is safe.
	Dispatch(ctx context.Context, event models.DispatchEvent) error

	// HandleEnvelope decodes an event bus envelope and dispatches it, marking
	// failures that retrying cannot fix as permanent.
	HandleEnvelope(ctx context.Context, env events.Envelope) error
}

// dispatchService is the concrete implementation of DispatchService.
type dispatchService struct {
	repo     repository.AccountRepository
	sender   email.Sender
	validate *validator.Validate
	log      *logger.Logger
	now      func() time.Time
}

// NewDispatchService creates a new instance of DispatchService.
func NewDispatchService(repo repository.AccountRepository, sender email.Sender, log *logger.Logger) DispatchService {
	return &dispatchService{
		repo:     repo,
		sender:   sender,
		validate: validator.New(),
		log:      log.WithComponent("dispatcher"),
		now:      time.Now,
	}
}

// HandleEnvelope is the event bus entry point.
func (s *dispatchService) HandleEnvelope(ctx context.Context, env events.Envelope) error {
	if env.EventType != models.DispatchEventType {
		return events.Permanent(fmt.Errorf("%w: unexpected event type %q", ErrInvalidEvent, env.EventType))
	}

	var event models.DispatchEvent
	if err := env.Decode(&event); err != nil {
		return events.Permanent(fmt.Errorf("%w: %w", ErrInvalidEvent, err))
	}

	err := s.Dispatch(ctx, event)
	if errors.Is(err, ErrInvalidEvent) || errors.Is(err, ErrRecordNotFound) {
		return events.Permanent(err)
	}
	return err
}

// Dispatch sends the email and records the send.
func (s *dispatchService) Dispatch(ctx context.Context, event models.DispatchEvent) error {
	if err := s.validateEvent(event); err != nil {
		s.log.Error("Rejected dispatch event", err, eventFields(event))
		return err
	}

	switch event.ResolvedMailType() {
	case models.MailTypePaymentConfirmation:
		return s.dispatchPaymentConfirmation(ctx, event)
	default:
		return s.dispatchDuesNotice(ctx, event)
	}
}

func (s *dispatchService) validateEvent(event models.DispatchEvent) error {
	if strings.TrimSpace(event.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidEvent)
	}
	if strings.TrimSpace(event.ParcelID) == "" {
		return fmt.Errorf("%w: parcelId is required", ErrInvalidEvent)
	}
	if err := s.validate.Var(event.EmailAddr, "required,email"); err != nil {
		return fmt.Errorf("%w: invalid emailAddr", ErrInvalidEvent)
	}
	switch event.ResolvedMailType() {
	case models.MailTypeDuesNotice, models.MailTypePaymentConfirmation:
		return nil
	default:
		return fmt.Errorf("%w: unknown mailType %q", ErrInvalidEvent, event.MailType)
	}
}

func (s *dispatchService) dispatchDuesNotice(ctx context.Context, event models.DispatchEvent) error {
	comm, err := s.repo.GetCommunication(ctx, event.ParcelID, event.ID)
	if err != nil {
		return fmt.Errorf("failed to load communication: %w", err)
	}
	if comm == nil {
		s.log.Error("Communication not found", ErrRecordNotFound, eventFields(event))
		return fmt.Errorf("%w: communication %s", ErrRecordNotFound, event.ID)
	}
	if comm.IsSent() {
		s.log.Info("Dues notice already sent, skipping", eventFields(event))
		return nil
	}

	notice, err := s.buildDuesNotice(ctx, event)
	if err != nil {
		return err
	}
	subject, body, err := email.RenderDuesNotice(notice)
	if err != nil {
		return fmt.Errorf("failed to render dues notice: %w", err)
	}

	if err := s.send(ctx, event, subject, body); err != nil {
		return err
	}

	err = s.repo.PatchCommunication(ctx, event.ParcelID, event.ID, []repository.PatchOp{
		repository.Replace("SentStatus", models.SentStatusSent),
		repository.Replace("LastChangedBy", dispatchActor),
		repository.Replace("LastChangedTs", s.now()),
	})
	if err != nil {
		return s.statusNotRecorded(event, err)
	}

	s.log.Info("Dues notice sent", eventFields(event))
	return nil
}

func (s *dispatchService) dispatchPaymentConfirmation(ctx context.Context, event models.DispatchEvent) error {
	payment, err := s.repo.GetPayment(ctx, event.ParcelID, event.ID)
	if err != nil {
		return fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		s.log.Error("Payment not found", ErrRecordNotFound, eventFields(event))
		return fmt.Errorf("%w: payment %s", ErrRecordNotFound, event.ID)
	}
	if payment.IsConfirmationSent() {
		s.log.Info("Payment confirmation already sent, skipping", eventFields(event))
		return nil
	}

	property, err := s.repo.GetProperty(ctx, event.ParcelID)
	if err != nil {
		return fmt.Errorf("failed to load property: %w", err)
	}
	settings, err := s.loadNoticeSettings(ctx)
	if err != nil {
		return err
	}

	confirmation := email.PaymentConfirmation{
		HOAName:      settings[ConfigHOAName],
		HOANameShort: settings[ConfigHOANameShort],
		HOAAddress1:  settings[ConfigHOAAddress1],
		HOAAddress2:  settings[ConfigHOAAddress2],
		DuesURL:      settings[ConfigDuesURL],
		ParcelID:     payment.ParcelID,
		PayerName:    payment.PayerName,
		TransID:      payment.TransID,
		PaymentAmt:   payment.PaymentAmt,
	}
	if !payment.PaymentDate.IsZero() {
		confirmation.PaymentDate = payment.PaymentDate.Format(models.DateLayout)
	}
	if property != nil {
		confirmation.Location = property.ParcelLocation
	}

	subject, body, err := email.RenderPaymentConfirmation(confirmation)
	if err != nil {
		return fmt.Errorf("failed to render payment confirmation: %w", err)
	}

	if err := s.send(ctx, event, subject, body); err != nil {
		return err
	}

	err = s.repo.PatchPayment(ctx, event.ParcelID, event.ID, []repository.PatchOp{
		repository.Replace("paidEmailSent", models.SentStatusSent),
		repository.Replace("LastChangedBy", dispatchActor),
		repository.Replace("LastChangedTs", s.now()),
	})
	if err != nil {
		return s.statusNotRecorded(event, err)
	}

	s.log.Info("Payment confirmation sent", eventFields(event))
	return nil
}

// buildDuesNotice gathers the account and HOA details shown in a dues notice.
// The total is the one computed when the notice was generated, so only the
// property, its owners and the latest assessment are read.
func (s *dispatchService) buildDuesNotice(ctx context.Context, event models.DispatchEvent) (email.DuesNotice, error) {
	property, err := s.repo.GetProperty(ctx, event.ParcelID)
	if err != nil {
		return email.DuesNotice{}, fmt.Errorf("failed to load property: %w", err)
	}
	if property == nil {
		return email.DuesNotice{}, fmt.Errorf("%w: property %s", ErrRecordNotFound, event.ParcelID)
	}

	owners, err := s.repo.ListOwners(ctx, event.ParcelID)
	if err != nil {
		return email.DuesNotice{}, fmt.Errorf("failed to load owners: %w", err)
	}

	// Ordered FY descending, so the first is the latest
	assessments, err := s.repo.ListAssessments(ctx, repository.AssessmentFilter{ParcelID: event.ParcelID})
	if err != nil {
		return email.DuesNotice{}, fmt.Errorf("failed to load assessments: %w", err)
	}
	if len(assessments) == 0 {
		return email.DuesNotice{}, fmt.Errorf("%w: no assessments for property %s", ErrRecordNotFound, event.ParcelID)
	}
	latest := assessments[0]

	settings, err := s.loadNoticeSettings(ctx)
	if err != nil {
		return email.DuesNotice{}, err
	}

	notice := email.DuesNotice{
		HOAName:         settings[ConfigHOAName],
		HOANameShort:    settings[ConfigHOANameShort],
		HOAAddress1:     settings[ConfigHOAAddress1],
		HOAAddress2:     settings[ConfigHOAAddress2],
		DuesURL:         settings[ConfigDuesURL],
		Notes:           settings[ConfigDuesNotes],
		FiscalYear:      latest.FY,
		CurrentDuesOwed: !latest.IsPaid(),
		CurrentDues:     latest.DuesAmt,
		TotalDue:        event.TotalDue,
		ParcelID:        event.ParcelID,
		OwnerName:       property.MailingName,
		Location:        property.ParcelLocation,
	}

	if owner := noticeOwner(owners); owner != nil {
		notice.Phone = owner.OwnerPhone
		notice.Email = owner.EmailAddr
		notice.Email2 = owner.EmailAddr2
	}

	return notice, nil
}

// noticeOwner picks the current owner, or the most recent one when none is flagged.
func noticeOwner(owners []models.Owner) *models.Owner {
	for i := range owners {
		if owners[i].IsCurrent() {
			return &owners[i]
		}
	}
	if len(owners) > 0 {
		return &owners[0]
	}
	return nil
}

// loadNoticeSettings reads the HOA display strings. Missing entries render blank.
func (s *dispatchService) loadNoticeSettings(ctx context.Context) (map[string]string, error) {
	names := []string{ConfigHOAName, ConfigHOANameShort, ConfigHOAAddress1, ConfigHOAAddress2, ConfigDuesURL, ConfigDuesNotes}

	settings := make(map[string]string, len(names))
	for _, name := range names {
		value, _, err := s.repo.GetConfigValue(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		settings[name] = value
	}
	return settings, nil
}

// send delivers one message synchronously. Anything short of a confirmed
// success is a delivery failure and leaves the record pending.
func (s *dispatchService) send(ctx context.Context, event models.DispatchEvent, subject, body string) error {
	result, err := s.sender.Send(ctx, email.Message{
		Subject:    subject,
		HTMLBody:   body,
		Recipients: []string{event.EmailAddr},
	})
	if err == nil && !result.Succeeded() {
		err = fmt.Errorf("provider returned status %q", result.Status)
	}
	if err != nil {
		s.log.Error("Email delivery failed", err, eventFields(event))
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	fields := eventFields(event)
	fields["message_id"] = result.MessageID
	s.log.Debug("Email accepted by provider", fields)
	return nil
}

// statusNotRecorded reports a send that could not be marked. A retry of the
// event will email the recipient again.
func (s *dispatchService) statusNotRecorded(event models.DispatchEvent, err error) error {
	s.log.Error("EMAIL SENT BUT RECORD NOT MARKED SENT; a retry will send a duplicate", err, eventFields(event))
	return fmt.Errorf("%w: %s/%s: %w", ErrStatusNotRecorded, event.ParcelID, event.ID, err)
}

func eventFields(event models.DispatchEvent) map[string]interface{} {
	return map[string]interface{}{
		"id":         event.ID,
		"parcel_id":  event.ParcelID,
		"total_due":  event.TotalDue.String(),
		"email_addr": event.EmailAddr,
		"mail_type":  event.ResolvedMailType(),
	}
}
