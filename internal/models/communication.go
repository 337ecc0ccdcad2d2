package models

import "time"

// Sent status values shared by communications and payments.
const (
	SentStatusPending = "N"
	SentStatusSent    = "Y"
)

// Communication types.
const (
	CommTypeDuesNotice = "Dues Notice"
)

// Communication is one hoa_communications document: a single notice send
// attempt to one recipient. SentStatus moves N -> Y once and is never reverted.
type Communication struct {
	ID            string    `json:"id"`
	ParcelID      string    `json:"Parcel_ID"`
	CommID        int       `json:"CommID,omitempty"`
	CreateTs      time.Time `json:"CreateTs"`
	OwnerID       int       `json:"OwnerID"`
	CommType      string    `json:"CommType"`
	CommDesc      string    `json:"CommDesc"`
	MailingName   string    `json:"Mailing_Name,omitempty"`
	Email         int       `json:"Email"`
	EmailAddr     string    `json:"EmailAddr"`
	SentStatus    string    `json:"SentStatus"`
	LastChangedBy string    `json:"LastChangedBy"`
	LastChangedTs time.Time `json:"LastChangedTs"`
}

// IsSent reports whether the notice has been delivered.
func (c *Communication) IsSent() bool {
	return c.SentStatus == SentStatusSent
}

// Payment is an electronic payment record in hoa_payments.
// PaidEmailSent follows the same N -> Y pattern as Communication.
type Payment struct {
	ID            string    `json:"id"`
	ParcelID      string    `json:"Parcel_ID"`
	OwnerID       int       `json:"OwnerID"`
	TransID       string    `json:"TransId,omitempty"`
	PayerName     string    `json:"payer_name,omitempty"`
	PayerEmail    string    `json:"payer_email,omitempty"`
	PaymentAmt    Money     `json:"payment_amt"`
	PaymentFee    Money     `json:"payment_fee"`
	PaymentDate   time.Time `json:"payment_date"`
	PaidEmailSent string    `json:"paidEmailSent"`
	LastChangedBy string    `json:"LastChangedBy,omitempty"`
	LastChangedTs time.Time `json:"LastChangedTs"`
}

// IsConfirmationSent reports whether the payment confirmation has been delivered.
func (p *Payment) IsConfirmationSent() bool {
	return p.PaidEmailSent == SentStatusSent
}
