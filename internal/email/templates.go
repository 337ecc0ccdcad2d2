package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/stwalsh4118/hoadues/internal/models"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

// DuesNotice is the content of a dues reminder.
type DuesNotice struct {
	HOAName      string
	HOANameShort string
	HOAAddress1  string
	HOAAddress2  string
	DuesURL      string
	Notes        string

	FiscalYear      int
	CurrentDuesOwed bool
	CurrentDues     models.Money
	TotalDue        models.Money

	ParcelID  string
	OwnerName string
	Location  string
	Phone     string
	Email     string
	Email2    string
}

// NoticeYear is the calendar year in which the fiscal year starts.
func (n DuesNotice) NoticeYear() int {
	return n.FiscalYear - 1
}

// PaymentConfirmation is the content of a payment receipt.
type PaymentConfirmation struct {
	HOAName      string
	HOANameShort string
	HOAAddress1  string
	HOAAddress2  string
	DuesURL      string

	ParcelID    string
	Location    string
	PayerName   string
	TransID     string
	PaymentAmt  models.Money
	PaymentDate string
}

// RenderDuesNotice returns the subject and HTML body of a dues notice.
func RenderDuesNotice(n DuesNotice) (string, string, error) {
	body, err := render("dues_notice.html", n)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%s Dues Notice", n.HOANameShort), body, nil
}

// RenderPaymentConfirmation returns the subject and HTML body of a payment receipt.
func RenderPaymentConfirmation(p PaymentConfirmation) (string, string, error) {
	body, err := render("payment_confirmation.html", p)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%s Dues Payment Confirmation", p.HOANameShort), body, nil
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
