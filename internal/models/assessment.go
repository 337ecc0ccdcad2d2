package models

import "time"

// DateLayout is the calendar date format used by assessment date fields.
const DateLayout = "2006-01-02"

// Assessment is the stored hoa_assessments document: one per property per
// fiscal year. The stored DateDue is never trusted; see AssessmentView.
type Assessment struct {
	ID                 string    `json:"id"`
	ParcelID           string    `json:"Parcel_ID"`
	OwnerID            int       `json:"OwnerID"`
	FY                 int       `json:"FY"`
	DuesAmt            Money     `json:"DuesAmt"`
	DateDue            string    `json:"DateDue,omitempty"`
	Paid               int       `json:"Paid"`
	NonCollectible     int       `json:"NonCollectible"`
	DatePaid           string    `json:"DatePaid,omitempty"`
	PaymentMethod      string    `json:"PaymentMethod,omitempty"`
	Lien               int       `json:"Lien"`
	LienRefNo          string    `json:"LienRefNo,omitempty"`
	DateFiled          string    `json:"DateFiled,omitempty"`
	Disposition        string    `json:"Disposition,omitempty"`
	FilingFee          Money     `json:"FilingFee"`
	ReleaseFee         Money     `json:"ReleaseFee"`
	DateReleased       string    `json:"DateReleased,omitempty"`
	LienDatePaid       string    `json:"LienDatePaid,omitempty"`
	AmountPaid         Money     `json:"AmountPaid"`
	StopInterestCalc   int       `json:"StopInterestCalc"`
	FilingFeeInterest  Money     `json:"FilingFeeInterest"`
	AssessmentInterest Money     `json:"AssessmentInterest"`
	InterestNotPaid    int       `json:"InterestNotPaid"`
	BankFee            Money     `json:"BankFee"`
	LienComment        string    `json:"LienComment,omitempty"`
	Comments           string    `json:"Comments,omitempty"`
	LastChangedBy      string    `json:"LastChangedBy,omitempty"`
	LastChangedTs      time.Time `json:"LastChangedTs"`
}

// IsPaid reports whether the assessment has been paid.
func (a *Assessment) IsPaid() bool { return a.Paid == 1 }

// IsNonCollectible reports whether the assessment has been written off.
func (a *Assessment) IsNonCollectible() bool { return a.NonCollectible == 1 }

// HasLien reports whether a lien has been filed for the assessment.
func (a *Assessment) HasLien() bool { return a.Lien == 1 }

// InterestStopped reports whether interest accrual is switched off.
func (a *Assessment) InterestStopped() bool { return a.StopInterestCalc == 1 }

// AssessmentView is the derived, read-only view of an assessment.
// DateDue and DuesDue are always recomputed; DatePaid is defaulted to
// DateDue for paid records with no payment date.
type AssessmentView struct {
	Assessment
	DateDue  string `json:"DateDue"`
	DatePaid string `json:"DatePaid,omitempty"`
	DuesDue  bool   `json:"DuesDue"`
}

// DueDate returns October 1 of the year before the fiscal year.
func DueDate(fy int) time.Time {
	return time.Date(fy-1, time.October, 1, 0, 0, 0, 0, time.UTC)
}
