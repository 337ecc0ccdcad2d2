package models

// Mail types carried by a DispatchEvent.
const (
	MailTypeDuesNotice          = "DuesNotice"
	MailTypePaymentConfirmation = "PaymentConfirmation"
)

// Event bus subject and type of dispatch events.
const (
	DispatchSubject   = "DuesEmailRequest"
	DispatchEventType = "SendMail"
)

// DispatchEvent asks the dispatcher to send one email and mark the record
// identified by ID (in the ParcelID partition) as sent.
type DispatchEvent struct {
	ID        string `json:"id"`
	ParcelID  string `json:"parcelId"`
	TotalDue  Money  `json:"totalDue"`
	EmailAddr string `json:"emailAddr"`
	MailType  string `json:"mailType,omitempty"`
}

// ResolvedMailType returns the mail type, defaulting to a dues notice.
func (e DispatchEvent) ResolvedMailType() string {
	if e.MailType == "" {
		return MailTypeDuesNotice
	}
	return e.MailType
}
