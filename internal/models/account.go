package models

// DuesLine is one component of the total due, e.g. a year's assessment or a lien fee.
type DuesLine struct {
	FY          int    `json:"fy"`
	Description string `json:"description"`
	Amount      Money  `json:"amount"`
}

// DuesTotals is the result of the dues calculation over an assessment ledger.
type DuesTotals struct {
	Lines               []DuesLine `json:"lines"`
	OnlyCurrentYearOwed bool       `json:"onlyCurrentYearOwed"`
	TotalDue            Money      `json:"totalDue"`
}

// AccountSnapshot is the consolidated, read-only view of one property's dues
// state. It is built fresh on every call and never persisted.
type AccountSnapshot struct {
	Property            *Property        `json:"property"`
	Owners              []Owner          `json:"owners"`
	Assessments         []AssessmentView `json:"assessments"`
	DuesEmailAddr       string           `json:"duesEmailAddr"`
	EmailAddrs          []string         `json:"emailAddrs"`
	Sales               []Sale           `json:"sales"`
	Totals              DuesTotals       `json:"totals"`
	TotalDue            Money            `json:"totalDue"`
	OnlinePayEligible   bool             `json:"onlinePayEligible"`
	PaymentInstructions string           `json:"paymentInstructions"`
	PaymentFee          Money            `json:"paymentFee"`
}

// DuesSummary is the part of a snapshot that depends only on the property,
// its current owner and its assessments. Snapshots built one at a time and in
// bulk agree on it for the same data.
type DuesSummary struct {
	ParcelID            string
	CurrentOwner        *Owner
	DuesEmailAddr       string
	Assessments         []AssessmentView
	Totals              DuesTotals
	TotalDue            Money
	OnlinePayEligible   bool
	PaymentInstructions string
	PaymentFee          Money
}

// DuesSummary extracts the dues fields of the snapshot.
func (s *AccountSnapshot) DuesSummary() DuesSummary {
	summary := DuesSummary{
		CurrentOwner:        s.CurrentOwner(),
		DuesEmailAddr:       s.DuesEmailAddr,
		Assessments:         s.Assessments,
		Totals:              s.Totals,
		TotalDue:            s.TotalDue,
		OnlinePayEligible:   s.OnlinePayEligible,
		PaymentInstructions: s.PaymentInstructions,
		PaymentFee:          s.PaymentFee,
	}
	if s.Property != nil {
		summary.ParcelID = s.Property.ParcelID
	}
	return summary
}

// CurrentOwner returns the current owner record, or nil.
func (s *AccountSnapshot) CurrentOwner() *Owner {
	for i := range s.Owners {
		if s.Owners[i].IsCurrent() {
			return &s.Owners[i]
		}
	}
	return nil
}

// LatestAssessment returns the assessment with the highest fiscal year, or nil.
func (s *AccountSnapshot) LatestAssessment() *AssessmentView {
	var latest *AssessmentView
	for i := range s.Assessments {
		if latest == nil || s.Assessments[i].FY > latest.FY {
			latest = &s.Assessments[i]
		}
	}
	return latest
}
