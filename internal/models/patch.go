package models

// PropertyPatch lists the property fields an operator may change.
// Nil fields are left untouched.
type PropertyPatch struct {
	UseEmail *bool   `json:"useEmail"`
	Comments *string `json:"comments"`
}

// OwnerPatch lists the owner fields an operator may change.
// Nil fields are left untouched.
type OwnerPatch struct {
	OwnerName1       *string `json:"ownerName1" binding:"omitempty,max=200"`
	OwnerName2       *string `json:"ownerName2" binding:"omitempty,max=200"`
	DatePurchased    *string `json:"datePurchased" binding:"omitempty,datetime=2006-01-02"`
	MailingName      *string `json:"mailingName" binding:"omitempty,max=200"`
	OwnerPhone       *string `json:"ownerPhone" binding:"omitempty,max=50"`
	EmailAddr        *string `json:"emailAddr" binding:"omitempty,max=254"`
	EmailAddr2       *string `json:"emailAddr2" binding:"omitempty,max=254"`
	Comments         *string `json:"comments"`
	AlternateMailing *bool   `json:"alternateMailing"`
	AltAddressLine1  *string `json:"altAddressLine1" binding:"omitempty,max=200"`
	AltAddressLine2  *string `json:"altAddressLine2" binding:"omitempty,max=200"`
	AltCity          *string `json:"altCity" binding:"omitempty,max=100"`
	AltState         *string `json:"altState" binding:"omitempty,max=50"`
	AltZip           *string `json:"altZip" binding:"omitempty,max=20"`
}

// AssessmentUpdate replaces the editable fields of one assessment.
// Money fields arrive as text and are parsed once with ParseMoney; blank means zero.
// FY and DateDue are not editable.
type AssessmentUpdate struct {
	OwnerID            *int   `json:"ownerId"`
	DuesAmt            string `json:"duesAmt"`
	Paid               bool   `json:"paid"`
	NonCollectible     bool   `json:"nonCollectible"`
	DatePaid           string `json:"datePaid" binding:"omitempty,datetime=2006-01-02"`
	PaymentMethod      string `json:"paymentMethod" binding:"max=100"`
	Lien               bool   `json:"lien"`
	LienRefNo          string `json:"lienRefNo" binding:"max=100"`
	DateFiled          string `json:"dateFiled" binding:"omitempty,datetime=2006-01-02"`
	Disposition        string `json:"disposition" binding:"max=200"`
	FilingFee          string `json:"filingFee"`
	ReleaseFee         string `json:"releaseFee"`
	DateReleased       string `json:"dateReleased" binding:"omitempty,datetime=2006-01-02"`
	LienDatePaid       string `json:"lienDatePaid" binding:"omitempty,datetime=2006-01-02"`
	AmountPaid         string `json:"amountPaid"`
	StopInterestCalc   bool   `json:"stopInterestCalc"`
	FilingFeeInterest  string `json:"filingFeeInterest"`
	AssessmentInterest string `json:"assessmentInterest"`
	InterestNotPaid    bool   `json:"interestNotPaid"`
	BankFee            string `json:"bankFee"`
	LienComment        string `json:"lienComment"`
	Comments           string `json:"comments"`
}

// Flag converts a boolean to the stored 0/1 convention.
func Flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
