package display

import (
	"sort"
	"strconv"
	"time"

	"github.com/landgrants/agreement-backend/pkg/types"
)

// ParcelSummaryRow is one land parcel with its total applied-for quantity.
type ParcelSummaryRow struct {
	SheetID  string
	ParcelID string
	Quantity float64
}

// ActionSummaryRow totals applied-for quantity per action code.
type ActionSummaryRow struct {
	Code     string
	Quantity float64
}

// PaymentSummaryRow is one priced line of the payment summary. Quantity,
// Unit, and Rate stay empty for agreement-level items.
type PaymentSummaryRow struct {
	Code          string
	Description   string
	Unit          string
	Quantity      string
	Rate          string
	AnnualPayment string
}

// ParcelSummary groups the raw action applications by parcel, preserving
// first-seen parcel order.
func ParcelSummary(actions []types.ActionApplication) []ParcelSummaryRow {
	type key struct{ sheet, parcel string }
	order := make([]key, 0)
	totals := make(map[key]float64)

	for _, action := range actions {
		if action.SheetID == "" || action.ParcelID == "" {
			continue
		}
		k := key{action.SheetID, action.ParcelID}
		if _, seen := totals[k]; !seen {
			order = append(order, k)
		}
		if qty, err := action.AppliedFor.Quantity.Float(); err == nil && qty > 0 {
			totals[k] += qty
		}
	}

	rows := make([]ParcelSummaryRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, ParcelSummaryRow{SheetID: k.sheet, ParcelID: k.parcel, Quantity: totals[k]})
	}
	return rows
}

// ActionSummary totals quantities per action code, codes sorted
// alphabetically.
func ActionSummary(actions []types.ActionApplication) []ActionSummaryRow {
	totals := make(map[string]float64)
	for _, action := range actions {
		if action.Code == "" {
			continue
		}
		if qty, err := action.AppliedFor.Quantity.Float(); err == nil && qty > 0 {
			totals[action.Code] += qty
		}
	}

	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	rows := make([]ActionSummaryRow, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, ActionSummaryRow{Code: code, Quantity: totals[code]})
	}
	return rows
}

// PaymentSummary merges parcel items and agreement-level items into one
// table sorted alphabetically by code, so agreement-level lines interleave
// with parcel lines rather than trailing them.
func PaymentSummary(schedule *types.PaymentSchedule) []PaymentSummaryRow {
	if schedule == nil {
		return nil
	}

	rows := make([]PaymentSummaryRow, 0, len(schedule.ParcelItems)+len(schedule.AgreementLevelItems))
	for _, item := range schedule.ParcelItems {
		rows = append(rows, PaymentSummaryRow{
			Code:          item.Code,
			Description:   item.Description,
			Unit:          item.Unit,
			Quantity:      strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			Rate:          FormatPence(item.RateInPence),
			AnnualPayment: FormatPence(item.AnnualPaymentPence),
		})
	}
	for _, item := range schedule.AgreementLevelItems {
		rows = append(rows, PaymentSummaryRow{
			Code:          item.Code,
			Description:   item.Description,
			AnnualPayment: FormatPence(item.AnnualPaymentPence),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows
}

// AnnualScheduleRow is one payment code's row across the calendar years.
// Cells align with AnnualSchedule.Years; a year with no payment for the code
// renders empty, not zero.
type AnnualScheduleRow struct {
	Code  string
	Cells []string
	Total string
}

// AnnualSchedule is the payment matrix: code rows by calendar-year columns,
// with per-code totals, per-year totals, and a grand total.
type AnnualSchedule struct {
	Years      []int
	Rows       []AnnualScheduleRow
	YearTotals []string
	GrandTotal string
}

// BuildAnnualSchedule pivots the instalments into the per-code, per-year
// matrix. Line items resolve their code through the schedule's item maps.
func BuildAnnualSchedule(schedule *types.PaymentSchedule) AnnualSchedule {
	if schedule == nil {
		return AnnualSchedule{}
	}

	codeFor := func(item types.LineItem) string {
		if item.ParcelItemID != "" {
			if pi, ok := schedule.ParcelItems[item.ParcelItemID]; ok {
				return pi.Code
			}
		}
		if item.AgreementLevelItemID != "" {
			if ai, ok := schedule.AgreementLevelItems[item.AgreementLevelItemID]; ok {
				return ai.Code
			}
		}
		return ""
	}

	type cellKey struct {
		code string
		year int
	}
	cells := make(map[cellKey]int64)
	yearSet := make(map[int]struct{})
	codeSet := make(map[string]struct{})

	for _, instalment := range schedule.Payments {
		paid, err := time.Parse(time.DateOnly, instalment.PaymentDate)
		if err != nil {
			continue
		}
		year := paid.Year()
		yearSet[year] = struct{}{}
		for _, line := range instalment.LineItems {
			code := codeFor(line)
			if code == "" {
				continue
			}
			codeSet[code] = struct{}{}
			cells[cellKey{code, year}] += line.PaymentPence
		}
	}

	years := make([]int, 0, len(yearSet))
	for year := range yearSet {
		years = append(years, year)
	}
	sort.Ints(years)

	codes := make([]string, 0, len(codeSet))
	for code := range codeSet {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	rows := make([]AnnualScheduleRow, 0, len(codes))
	yearTotals := make([]int64, len(years))
	var grandTotal int64

	for _, code := range codes {
		row := AnnualScheduleRow{Code: code, Cells: make([]string, len(years))}
		var codeTotal int64
		for i, year := range years {
			amount, ok := cells[cellKey{code, year}]
			if !ok {
				continue
			}
			row.Cells[i] = FormatPence(amount)
			codeTotal += amount
			yearTotals[i] += amount
			grandTotal += amount
		}
		row.Total = FormatPence(codeTotal)
		rows = append(rows, row)
	}

	formattedYearTotals := make([]string, len(years))
	for i, total := range yearTotals {
		formattedYearTotals[i] = FormatPence(total)
	}

	return AnnualSchedule{
		Years:      years,
		Rows:       rows,
		YearTotals: formattedYearTotals,
		GrandTotal: FormatPence(grandTotal),
	}
}
