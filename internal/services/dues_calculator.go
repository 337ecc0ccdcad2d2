package services

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/stwalsh4118/hoadues/internal/models"
)

// datePaidLayouts are the formats DatePaid has been stored in.
var datePaidLayouts = []string{
	models.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"1/2/2006",
}

// DeriveAssessments builds the derived views of stored assessments, keeping order.
// DateDue is always recomputed as October 1 of FY-1. A paid assessment with no
// DatePaid gets DateDue. DuesDue is set when the assessment is unpaid,
// collectible and now is strictly after the due date.
func DeriveAssessments(assessments []models.Assessment, now time.Time) []models.AssessmentView {
	views := make([]models.AssessmentView, 0, len(assessments))
	for _, a := range assessments {
		due := models.DueDate(a.FY)
		view := models.AssessmentView{
			Assessment: a,
			DateDue:    due.Format(models.DateLayout),
			DatePaid:   normalizeDate(a.DatePaid),
		}

		if a.IsPaid() && view.DatePaid == "" {
			view.DatePaid = view.DateDue
		}
		view.DuesDue = !a.IsPaid() && !a.IsNonCollectible() && now.After(due)

		views = append(views, view)
	}
	return views
}

func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range datePaidLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(models.DateLayout)
		}
	}
	return s
}

type duesComponent struct {
	desc   string
	amount models.Money
}

// outstanding returns the lines an assessment contributes to the total due.
// Paid and non-collectible assessments contribute nothing.
func outstanding(a models.Assessment) []models.DuesLine {
	if a.IsPaid() || a.IsNonCollectible() {
		return nil
	}

	components := []duesComponent{
		{"Assessment", a.DuesAmt},
		{"Bank fee", a.BankFee},
	}
	if a.HasLien() {
		components = append(components,
			duesComponent{"Lien filing fee", a.FilingFee},
			duesComponent{"Lien release fee", a.ReleaseFee},
		)
	}
	if !a.InterestStopped() {
		components = append(components,
			duesComponent{"Assessment interest", a.AssessmentInterest},
			duesComponent{"Filing fee interest", a.FilingFeeInterest},
		)
	}

	var lines []models.DuesLine
	for _, c := range components {
		if c.amount.IsZero() {
			continue
		}
		lines = append(lines, models.DuesLine{
			FY:          a.FY,
			Description: fmt.Sprintf("FY %d %s", a.FY, c.desc),
			Amount:      c.amount,
		})
	}
	return lines
}

// CalcTotalDues sums what is owed across an assessment ledger.
//
// OnlyCurrentYearOwed is true when nothing is owed, or when exactly one fiscal
// year has a positive balance, that year is the latest FY in the ledger, and
// it carries no lien. It gates online payment. The result does not depend on
// the order of the input.
func CalcTotalDues(assessments []models.AssessmentView) models.DuesTotals {
	totals := models.DuesTotals{
		Lines:    []models.DuesLine{},
		TotalDue: models.Zero,
	}

	maxFY := 0
	for _, a := range assessments {
		if a.FY > maxFY {
			maxFY = a.FY
		}
	}

	contributing := make(map[int]bool)
	lienOwed := false
	for _, a := range sortedByFY(assessments) {
		yearTotal := models.Zero
		for _, line := range outstanding(a.Assessment) {
			totals.Lines = append(totals.Lines, line)
			yearTotal = yearTotal.Add(line.Amount)
		}
		if yearTotal.IsPositive() {
			contributing[a.FY] = true
			if a.HasLien() {
				lienOwed = true
			}
		}
		totals.TotalDue = totals.TotalDue.Add(yearTotal)
	}

	switch len(contributing) {
	case 0:
		totals.OnlyCurrentYearOwed = true
	case 1:
		totals.OnlyCurrentYearOwed = contributing[maxFY] && !lienOwed
	}

	return totals
}

// sortedByFY returns a copy ordered by FY descending so the breakdown lines
// come out the same regardless of input order.
func sortedByFY(assessments []models.AssessmentView) []models.AssessmentView {
	sorted := slices.Clone(assessments)
	slices.SortStableFunc(sorted, func(a, b models.AssessmentView) int {
		return cmp.Compare(b.FY, a.FY)
	})
	return sorted
}
