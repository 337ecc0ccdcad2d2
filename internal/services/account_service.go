package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stwalsh4118/hoadues/internal/logger"
	"github.com/stwalsh4118/hoadues/internal/models"
	"github.com/stwalsh4118/hoadues/internal/repository"
)

// Config entry names read by the services.
const (
	ConfigOfflinePaymentInstructions = "OfflinePaymentInstructions"
	ConfigOnlinePaymentInstructions  = "OnlinePaymentInstructions"
	ConfigPaymentFee                 = "paymentFee"
	ConfigDuesEmailTestParcel        = "duesEmailTestParcel"
	ConfigHOAName                    = "hoaName"
	ConfigHOANameShort               = "hoaNameShort"
	ConfigHOAAddress1                = "hoaAddress1"
	ConfigHOAAddress2                = "hoaAddress2"
	ConfigDuesURL                    = "duesUrl"
	ConfigDuesNotes                  = "duesNotes"
)

// Fiscal year selectors accepted by AccountQuery.
const (
	FiscalYearLatest = "LATEST"
	FiscalYearAll    = "ALL"
)

// AccountQuery selects what GetAccount returns.
type AccountQuery struct {
	ParcelID string
	// OwnerID restricts owners to one record; 0 returns the full history.
	OwnerID int
	// FiscalYear is "" or LATEST for the latest year only, ALL for the whole
	// ledger, or a specific year.
	FiscalYear string
	// SaleDate restricts sales to one SALEDT; empty returns all, newest first.
	SaleDate string
}

// AccountFilters selects accounts for ListAccounts. Filters combine.
type AccountFilters struct {
	DuesOwed          bool
	SkipEmail         bool
	CurrentYearPaid   bool
	CurrentYearUnpaid bool
	TestMode          bool
}

// AccountService defines read operations over HOA accounts.
type AccountService interface {
	// GetAccount assembles the snapshot of one property. A missing property is
	// not an error: the snapshot's Property is nil and the caller decides.
	GetAccount(ctx context.Context, q AccountQuery) (*models.AccountSnapshot, error)

	// ListAccounts builds snapshots for every property from three bulk reads
	// joined in memory. Each snapshot's DuesSummary equals the one GetAccount
	// returns with FiscalYear ALL. Owners holds only the current owner,
	// EmailAddrs only the owner-record addresses, and Sales is empty.
	ListAccounts(ctx context.Context, filters AccountFilters) ([]models.AccountSnapshot, error)

	// ListCommunications returns a property's notices, newest first.
	ListCommunications(ctx context.Context, parcelID string) ([]models.Communication, error)

	// ListConfig returns every config entry.
	ListConfig(ctx context.Context) ([]models.ConfigEntry, error)
}

// accountService is the concrete implementation of AccountService.
type accountService struct {
	repo repository.AccountRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewAccountService creates a new instance of AccountService.
func NewAccountService(repo repository.AccountRepository, log *logger.Logger) AccountService {
	return newAccountService(repo, log, time.Now)
}

func newAccountService(repo repository.AccountRepository, log *logger.Logger, now func() time.Time) *accountService {
	return &accountService{
		repo: repo,
		log:  log.WithComponent("accounts"),
		now:  now,
	}
}

// fiscalYearSelector is the parsed form of AccountQuery.FiscalYear.
type fiscalYearSelector struct {
	latest bool
	all    bool
	year   int
}

func parseFiscalYear(s string) (fiscalYearSelector, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", FiscalYearLatest:
		return fiscalYearSelector{latest: true}, nil
	case FiscalYearAll:
		return fiscalYearSelector{all: true}, nil
	}

	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || year <= 0 {
		return fiscalYearSelector{}, fmt.Errorf("%w: fiscal year must be a year, LATEST or ALL, got %q", ErrValidation, s)
	}
	return fiscalYearSelector{year: year}, nil
}

// GetAccount assembles the consolidated snapshot of one property.
func (s *accountService) GetAccount(ctx context.Context, q AccountQuery) (*models.AccountSnapshot, error) {
	fy, err := parseFiscalYear(q.FiscalYear)
	if err != nil {
		return nil, err
	}
	now := s.now()

	property, err := s.repo.GetProperty(ctx, q.ParcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	owners, err := s.loadOwners(ctx, q.ParcelID, q.OwnerID)
	if err != nil {
		return nil, err
	}

	assessments, err := s.loadAssessments(ctx, q.ParcelID, fy)
	if err != nil {
		return nil, err
	}

	snapshot := buildSnapshot(property, owners, assessments, now)

	if property != nil {
		if err := s.addPaymentEmails(ctx, &snapshot, property, now); err != nil {
			return nil, err
		}
	}

	if snapshot.TotalDue.IsPositive() {
		terms, err := s.loadPaymentTerms(ctx)
		if err != nil {
			return nil, err
		}
		terms.apply(&snapshot)
	}

	sales, err := s.repo.ListSales(ctx, q.ParcelID, q.SaleDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	snapshot.Sales = sales

	s.log.Debug("Account assembled", map[string]interface{}{
		"parcel_id":   q.ParcelID,
		"found":       property != nil,
		"assessments": len(snapshot.Assessments),
		"total_due":   snapshot.TotalDue.String(),
	})

	return &snapshot, nil
}

func (s *accountService) loadOwners(ctx context.Context, parcelID string, ownerID int) ([]models.Owner, error) {
	if ownerID > 0 {
		owner, err := s.repo.GetOwner(ctx, parcelID, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load owner: %w", err)
		}
		if owner == nil {
			return []models.Owner{}, nil
		}
		return []models.Owner{*owner}, nil
	}

	owners, err := s.repo.ListOwners(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owners: %w", err)
	}
	return owners, nil
}

func (s *accountService) loadAssessments(ctx context.Context, parcelID string, fy fiscalYearSelector) ([]models.Assessment, error) {
	filter := repository.AssessmentFilter{ParcelID: parcelID, FY: fy.year}

	assessments, err := s.repo.ListAssessments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load assessments: %w", err)
	}

	// Ordered FY descending, so the first is the latest
	if fy.latest && len(assessments) > 1 {
		assessments = assessments[:1]
	}
	return assessments, nil
}

// addPaymentEmails appends payer emails from the current owner's payments in
// the last year. They only ever add to the owner-record addresses.
func (s *accountService) addPaymentEmails(ctx context.Context, snapshot *models.AccountSnapshot, property *models.Property, now time.Time) error {
	since := now.AddDate(-1, 0, 0)
	for payment, err := range s.repo.RecentPayments(ctx, property.ParcelID, property.OwnerID, since) {
		if err != nil {
			return fmt.Errorf("failed to load recent payments: %w", err)
		}
		snapshot.EmailAddrs = appendUniqueEmail(snapshot.EmailAddrs, strings.ToLower(strings.TrimSpace(payment.PayerEmail)))
	}
	return nil
}

// ListAccounts builds snapshots for every property in one pass. Owner history,
// payer emails and sales are per-property reads and are left out.
func (s *accountService) ListAccounts(ctx context.Context, filters AccountFilters) ([]models.AccountSnapshot, error) {
	now := s.now()
	currentYearOnly := filters.CurrentYearPaid || filters.CurrentYearUnpaid

	var (
		properties  []models.Property
		owners      []models.Owner
		assessments []models.Assessment
		testParcel  string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		properties, err = s.repo.ListProperties(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		owners, err = s.repo.ListCurrentOwners(gctx)
		return err
	})
	g.Go(func() error {
		filter := repository.AssessmentFilter{}
		if currentYearOnly {
			maxFY, err := s.repo.MaxFiscalYear(gctx, "")
			if err != nil {
				return err
			}
			if maxFY == 0 {
				return nil
			}
			filter.FY = maxFY
		}
		var err error
		assessments, err = s.repo.ListAssessments(gctx, filter)
		return err
	})
	if filters.TestMode {
		g.Go(func() error {
			value, ok, err := s.repo.GetConfigValue(gctx, ConfigDuesEmailTestParcel)
			if err != nil {
				return err
			}
			if !ok || strings.TrimSpace(value) == "" {
				return fmt.Errorf("%w: %s is not set", ErrInvalidConfig, ConfigDuesEmailTestParcel)
			}
			testParcel = strings.TrimSpace(value)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("Failed to load accounts", err, nil)
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	ownersByParcel := make(map[string][]models.Owner, len(properties))
	for _, o := range owners {
		ownersByParcel[o.ParcelID] = append(ownersByParcel[o.ParcelID], o)
	}
	assessmentsByParcel := make(map[string][]models.Assessment, len(properties))
	for _, a := range assessments {
		switch {
		case filters.CurrentYearPaid && !a.IsPaid():
			continue
		case filters.CurrentYearUnpaid && (a.IsPaid() || a.IsNonCollectible()):
			continue
		}
		assessmentsByParcel[a.ParcelID] = append(assessmentsByParcel[a.ParcelID], a)
	}

	var terms *paymentTerms
	result := make([]models.AccountSnapshot, 0, len(properties))
	for i := range properties {
		property := &properties[i]

		if filters.TestMode && property.ParcelID != testParcel {
			continue
		}
		if filters.SkipEmail && property.UsesEmail() {
			continue
		}

		parcelAssessments := assessmentsByParcel[property.ParcelID]
		if filters.CurrentYearPaid && len(parcelAssessments) == 0 {
			continue
		}

		snapshot := buildSnapshot(property, ownersByParcel[property.ParcelID], parcelAssessments, now)
		snapshot.Sales = []models.Sale{}

		if (filters.DuesOwed || filters.CurrentYearUnpaid) && snapshot.TotalDue.LessThan(minimumDue) {
			continue
		}

		if snapshot.TotalDue.IsPositive() {
			if terms == nil {
				loaded, err := s.loadPaymentTerms(ctx)
				if err != nil {
					return nil, err
				}
				terms = &loaded
			}
			terms.apply(&snapshot)
		}

		result = append(result, snapshot)
	}

	s.log.Info("Accounts listed", map[string]interface{}{
		"properties":  len(properties),
		"accounts":    len(result),
		"dues_owed":   filters.DuesOwed,
		"skip_email":  filters.SkipEmail,
		"curr_paid":   filters.CurrentYearPaid,
		"curr_unpaid": filters.CurrentYearUnpaid,
		"test_mode":   filters.TestMode,
	})

	return result, nil
}

// minimumDue is the smallest total that counts as owing dues.
var minimumDue = models.MoneyFromCents(1)

// ListCommunications returns a property's notices, newest first.
func (s *accountService) ListCommunications(ctx context.Context, parcelID string) ([]models.Communication, error) {
	comms, err := s.repo.ListCommunications(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list communications: %w", err)
	}
	return comms, nil
}

// ListConfig returns every config entry.
func (s *accountService) ListConfig(ctx context.Context) ([]models.ConfigEntry, error) {
	entries, err := s.repo.ListConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list config: %w", err)
	}
	return entries, nil
}

// buildSnapshot is the join step shared by GetAccount and ListAccounts.
func buildSnapshot(property *models.Property, owners []models.Owner, assessments []models.Assessment, now time.Time) models.AccountSnapshot {
	if owners == nil {
		owners = []models.Owner{}
	}

	views := DeriveAssessments(assessments, now)
	totals := CalcTotalDues(views)

	snapshot := models.AccountSnapshot{
		Property:          property,
		Owners:            owners,
		Assessments:       views,
		EmailAddrs:        []string{},
		Totals:            totals,
		TotalDue:          totals.TotalDue,
		OnlinePayEligible: totals.OnlyCurrentYearOwed,
		PaymentFee:        models.Zero,
	}

	if owner := snapshot.CurrentOwner(); owner != nil {
		snapshot.DuesEmailAddr = owner.EmailAddr
		snapshot.EmailAddrs = appendUniqueEmail(snapshot.EmailAddrs, owner.EmailAddr)
		snapshot.EmailAddrs = appendUniqueEmail(snapshot.EmailAddrs, owner.EmailAddr2)
	}

	return snapshot
}

// appendUniqueEmail adds addr unless it is blank or already present, ignoring case.
func appendUniqueEmail(addrs []string, addr string) []string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return addrs
	}
	for _, existing := range addrs {
		if strings.EqualFold(existing, addr) {
			return addrs
		}
	}
	return append(addrs, addr)
}

// paymentTerms are the config-driven payment details shown when dues are owed.
type paymentTerms struct {
	fee     models.Money
	online  string
	offline string
}

func (t paymentTerms) apply(snapshot *models.AccountSnapshot) {
	snapshot.PaymentFee = t.fee
	if snapshot.OnlinePayEligible {
		snapshot.PaymentInstructions = t.online
	} else {
		snapshot.PaymentInstructions = t.offline
	}
}

// loadPaymentTerms reads the payment config. A missing or malformed fee is
// an error rather than a silent zero.
func (s *accountService) loadPaymentTerms(ctx context.Context) (paymentTerms, error) {
	feeValue, ok, err := s.repo.GetConfigValue(ctx, ConfigPaymentFee)
	if err != nil {
		return paymentTerms{}, fmt.Errorf("failed to load payment fee: %w", err)
	}
	if !ok {
		return paymentTerms{}, fmt.Errorf("%w: %s is not set", ErrInvalidConfig, ConfigPaymentFee)
	}
	fee, err := models.ParseMoney(feeValue)
	if err != nil {
		return paymentTerms{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, ConfigPaymentFee, err)
	}

	online, _, err := s.repo.GetConfigValue(ctx, ConfigOnlinePaymentInstructions)
	if err != nil {
		return paymentTerms{}, fmt.Errorf("failed to load payment instructions: %w", err)
	}
	offline, _, err := s.repo.GetConfigValue(ctx, ConfigOfflinePaymentInstructions)
	if err != nil {
		return paymentTerms{}, fmt.Errorf("failed to load payment instructions: %w", err)
	}

	return paymentTerms{fee: fee, online: online, offline: offline}, nil
}
