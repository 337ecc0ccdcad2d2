package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/hoadues/internal/models"
)

func sampleNotice() DuesNotice {
	return DuesNotice{
		HOAName:      "Gray Ridge Homeowners Association",
		HOANameShort: "GRHA",
		HOAAddress1:  "PO Box 1234",
		HOAAddress2:  "Springfield, OH 45501",
		DuesURL:      "https://example.org/dues",
		FiscalYear:   2026,
		TotalDue:     models.MoneyFromCents(32550),
		ParcelID:     "R72617307001794",
		OwnerName:    "Pat Smith",
		Location:     "4400 Ridge Rd",
		Email:        "pat@example.com",
	}
}

func TestRenderDuesNotice(t *testing.T) {
	n := sampleNotice()
	n.CurrentDuesOwed = true
	n.CurrentDues = models.MoneyFromCents(15000)

	subject, body, err := RenderDuesNotice(n)

	require.NoError(t, err)
	assert.Equal(t, "GRHA Dues Notice", subject)
	assert.Contains(t, body, "Member Dues Notice for Fiscal Year <b>2026</b>")
	assert.Contains(t, body, "Oct 1, 2025 thru Sept 30, 2026")
	assert.Contains(t, body, "<b>Current Dues Amount: </b>$150.00")
	assert.Contains(t, body, "$325.50")
	assert.Contains(t, body, "October 1, 2025")
	assert.Contains(t, body, `href="https://example.org/dues"`)
	assert.Contains(t, body, "R72617307001794")
}

func TestRenderDuesNotice_PaidCurrentYearOmitsCurrentDues(t *testing.T) {
	_, body, err := RenderDuesNotice(sampleNotice())

	require.NoError(t, err)
	assert.NotContains(t, body, "Current Dues Amount")
}

func TestRenderDuesNotice_EscapesStoredText(t *testing.T) {
	n := sampleNotice()
	n.OwnerName = `<script>alert("x")</script>`
	n.Notes = "Questions? Call <treasurer>"

	_, body, err := RenderDuesNotice(n)

	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;treasurer&gt;")
}

func TestRenderPaymentConfirmation(t *testing.T) {
	subject, body, err := RenderPaymentConfirmation(PaymentConfirmation{
		HOAName:      "Gray Ridge Homeowners Association",
		HOANameShort: "GRHA",
		ParcelID:     "R1",
		PayerName:    "Pat",
		TransID:      "TX-9",
		PaymentAmt:   models.MoneyFromCents(15400),
		PaymentDate:  "2025-11-02",
	})

	require.NoError(t, err)
	assert.Equal(t, "GRHA Dues Payment Confirmation", subject)
	assert.Contains(t, body, "Thank you, Pat.")
	assert.Contains(t, body, "$154.00")
	assert.Contains(t, body, "TX-9")
}
