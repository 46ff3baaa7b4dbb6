package payments

import (
	"testing"

	pkgerrors "github.com/landgrants/agreement-backend/pkg/errors"
	"github.com/landgrants/agreement-backend/pkg/types"
)

func action(sheet, parcel, code, quantity string) types.ActionApplication {
	return types.ActionApplication{
		SheetID:    sheet,
		ParcelID:   parcel,
		Code:       code,
		AppliedFor: types.AppliedFor{Quantity: types.Quantity(quantity)},
	}
}

func TestToLandGrantsPayloadDropsNonPositiveQuantities(t *testing.T) {
	payload, err := ToLandGrantsPayload([]types.ActionApplication{
		action("S1", "P1", "A1", "10.5"),
		action("S1", "P1", "A2", "0"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(payload.LandActions) != 1 {
		t.Fatalf("expected 1 group, got %d", len(payload.LandActions))
	}
	group := payload.LandActions[0]
	if group.SheetID != "S1" || group.ParcelID != "P1" {
		t.Fatalf("unexpected group key: %s/%s", group.SheetID, group.ParcelID)
	}
	if len(group.Actions) != 1 {
		t.Fatalf("expected 1 retained action, got %d", len(group.Actions))
	}
	if group.Actions[0].Code != "A1" || group.Actions[0].Quantity != 10.5 {
		t.Fatalf("unexpected action: %+v", group.Actions[0])
	}
}

func TestToLandGrantsPayloadNilActions(t *testing.T) {
	_, err := ToLandGrantsPayload(nil)
	if err == nil {
		t.Fatal("expected error for nil actions")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestToLandGrantsPayloadGroupOrderAndEmptyGroups(t *testing.T) {
	payload, err := ToLandGrantsPayload([]types.ActionApplication{
		action("S2", "P9", "B1", "1"),
		action("S1", "P1", "", "4"),
		action("S2", "P9", "B2", "2"),
		action("S1", "P1", "C1", "not-a-number"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(payload.LandActions) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(payload.LandActions))
	}
	if payload.LandActions[0].SheetID != "S2" {
		t.Fatalf("expected first-seen group first, got %s", payload.LandActions[0].SheetID)
	}
	if len(payload.LandActions[0].Actions) != 2 {
		t.Fatalf("expected 2 actions in first group, got %d", len(payload.LandActions[0].Actions))
	}
	// both S1/P1 actions were dropped but the group survives, empty
	if len(payload.LandActions[1].Actions) != 0 {
		t.Fatalf("expected empty second group, got %d actions", len(payload.LandActions[1].Actions))
	}
}

func TestToLandGrantsPayloadDropsMissingKeys(t *testing.T) {
	payload, err := ToLandGrantsPayload([]types.ActionApplication{
		action("", "P1", "A1", "5"),
		action("S1", "", "A1", "5"),
		action("S1", "P1", "A1", "-3"),
		action("S1", "P1", "A1", "2"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := 0
	for _, group := range payload.LandActions {
		total += len(group.Actions)
	}
	if total != 1 {
		t.Fatalf("expected exactly 1 retained action, got %d", total)
	}
}
