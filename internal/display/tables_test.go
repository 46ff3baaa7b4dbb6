package display

import (
	"testing"

	"github.com/landgrants/agreement-backend/pkg/types"
)

func matrixSchedule() *types.PaymentSchedule {
	return &types.PaymentSchedule{
		AgreementStartDate: "2026-01-01",
		AgreementEndDate:   "2029-01-01",
		ParcelItems: map[string]types.ParcelItem{
			"1": {Code: "CMOR1", Description: "Assess moorland", Unit: "ha", Quantity: 10.5, RateInPence: 1060, AnnualPaymentPence: 11130, SheetID: "SX0679", ParcelID: "9238"},
		},
		AgreementLevelItems: map[string]types.AgreementLevelItem{
			"2": {Code: "MAN1", Description: "Management payment", AnnualPaymentPence: 27200},
		},
		Payments: []types.PaymentInstalment{
			{
				PaymentDate:       "2026-03-05",
				TotalPaymentPence: 9582,
				LineItems: []types.LineItem{
					{ParcelItemID: "1", PaymentPence: 2782},
					{AgreementLevelItemID: "2", PaymentPence: 6800},
				},
			},
			{
				PaymentDate:       "2027-03-05",
				TotalPaymentPence: 2782,
				LineItems: []types.LineItem{
					{ParcelItemID: "1", PaymentPence: 2782},
				},
			},
		},
	}
}

func TestBuildAnnualScheduleMatrix(t *testing.T) {
	got := BuildAnnualSchedule(matrixSchedule())

	if len(got.Years) != 2 || got.Years[0] != 2026 || got.Years[1] != 2027 {
		t.Fatalf("unexpected years %v", got.Years)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 code rows, got %d", len(got.Rows))
	}

	// Codes sort alphabetically: CMOR1 before MAN1.
	cmor := got.Rows[0]
	if cmor.Code != "CMOR1" {
		t.Fatalf("expected CMOR1 first, got %s", cmor.Code)
	}
	if cmor.Cells[0] != FormatPence(2782) || cmor.Cells[1] != FormatPence(2782) {
		t.Fatalf("unexpected CMOR1 cells %v", cmor.Cells)
	}
	if cmor.Total != FormatPence(5564) {
		t.Fatalf("unexpected CMOR1 total %s", cmor.Total)
	}

	man := got.Rows[1]
	if man.Code != "MAN1" {
		t.Fatalf("expected MAN1 second, got %s", man.Code)
	}
	if man.Cells[0] != FormatPence(6800) {
		t.Fatalf("unexpected MAN1 2026 cell %s", man.Cells[0])
	}
	if man.Cells[1] != "" {
		t.Fatalf("year without payment must render empty, got %q", man.Cells[1])
	}

	if got.YearTotals[0] != FormatPence(9582) || got.YearTotals[1] != FormatPence(2782) {
		t.Fatalf("unexpected year totals %v", got.YearTotals)
	}
	if got.GrandTotal != FormatPence(12364) {
		t.Fatalf("unexpected grand total %s", got.GrandTotal)
	}
}

func TestBuildAnnualScheduleNil(t *testing.T) {
	got := BuildAnnualSchedule(nil)
	if len(got.Years) != 0 || len(got.Rows) != 0 {
		t.Fatalf("nil schedule should yield empty matrix, got %+v", got)
	}
}

func TestPaymentSummaryInterleavesAgreementLevel(t *testing.T) {
	rows := PaymentSummary(matrixSchedule())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Code != "CMOR1" || rows[1].Code != "MAN1" {
		t.Fatalf("rows not sorted by code: %+v", rows)
	}
	if rows[0].Quantity != "10.5" || rows[0].Unit != "ha" {
		t.Fatalf("unexpected parcel row %+v", rows[0])
	}
	if rows[1].Quantity != "" || rows[1].Unit != "" || rows[1].Rate != "" {
		t.Fatalf("agreement-level row must leave quantity columns empty: %+v", rows[1])
	}
	if rows[1].AnnualPayment != FormatPence(27200) {
		t.Fatalf("unexpected agreement-level payment %s", rows[1].AnnualPayment)
	}
}

func TestParcelSummaryPreservesFirstSeenOrder(t *testing.T) {
	actions := []types.ActionApplication{
		{Code: "CMOR1", SheetID: "SX0679", ParcelID: "9238", AppliedFor: types.AppliedFor{Quantity: types.Quantity("10.5"), Unit: "ha"}},
		{Code: "UPL1", SheetID: "SX0680", ParcelID: "0001", AppliedFor: types.AppliedFor{Quantity: types.Quantity("3"), Unit: "ha"}},
		{Code: "UPL2", SheetID: "SX0679", ParcelID: "9238", AppliedFor: types.AppliedFor{Quantity: types.Quantity("2"), Unit: "ha"}},
	}

	rows := ParcelSummary(actions)
	if len(rows) != 2 {
		t.Fatalf("expected 2 parcels, got %d", len(rows))
	}
	if rows[0].ParcelID != "9238" || rows[1].ParcelID != "0001" {
		t.Fatalf("first-seen order not preserved: %+v", rows)
	}
	if rows[0].Quantity != 12.5 {
		t.Fatalf("expected quantity 12.5, got %v", rows[0].Quantity)
	}
}

func TestActionSummarySortsCodes(t *testing.T) {
	actions := []types.ActionApplication{
		{Code: "UPL1", SheetID: "SX0680", ParcelID: "0001", AppliedFor: types.AppliedFor{Quantity: types.Quantity("3")}},
		{Code: "CMOR1", SheetID: "SX0679", ParcelID: "9238", AppliedFor: types.AppliedFor{Quantity: types.Quantity("10.5")}},
		{Code: "CMOR1", SheetID: "SX0680", ParcelID: "0001", AppliedFor: types.AppliedFor{Quantity: types.Quantity("1.5")}},
	}

	rows := ActionSummary(actions)
	if len(rows) != 2 {
		t.Fatalf("expected 2 codes, got %d", len(rows))
	}
	if rows[0].Code != "CMOR1" || rows[0].Quantity != 12 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Code != "UPL1" || rows[1].Quantity != 3 {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
}
