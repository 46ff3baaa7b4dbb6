package payments

import (
	"math"

	pkgerrors "github.com/landgrants/agreement-backend/pkg/errors"
	"github.com/landgrants/agreement-backend/pkg/types"
)

// LandAction is one retained action within a grouped parcel.
type LandAction struct {
	Code     string  `json:"code"`
	Quantity float64 `json:"quantity"`
}

// LandActionGroup is the per-(sheet, parcel) grouping sent to the calculation
// service. A group is kept even when every one of its actions was dropped.
type LandActionGroup struct {
	SheetID  string       `json:"sheetId"`
	ParcelID string       `json:"parcelId"`
	Actions  []LandAction `json:"actions"`
}

// LandGrantsPayload is the request body for the payment calculation service.
type LandGrantsPayload struct {
	LandActions []LandActionGroup `json:"landActions"`
}

// ToLandGrantsPayload groups raw parcel actions by (sheetId, parcelId),
// preserving first-seen group order. An individual action is dropped when its
// sheet, parcel, or code is missing, or when its quantity does not parse to a
// finite positive number; the group it belongs to survives with whatever
// actions remain.
func ToLandGrantsPayload(actions []types.ActionApplication) (LandGrantsPayload, error) {
	if actions == nil {
		return LandGrantsPayload{}, pkgerrors.New(pkgerrors.CodeValidation, "actions must be a list")
	}

	type groupKey struct {
		sheetID  string
		parcelID string
	}

	order := []groupKey{}
	groups := map[groupKey]*LandActionGroup{}

	for _, action := range actions {
		key := groupKey{sheetID: action.SheetID, parcelID: action.ParcelID}
		group, seen := groups[key]
		if !seen {
			group = &LandActionGroup{
				SheetID:  action.SheetID,
				ParcelID: action.ParcelID,
				Actions:  []LandAction{},
			}
			groups[key] = group
			order = append(order, key)
		}

		if action.SheetID == "" || action.ParcelID == "" || action.Code == "" {
			continue
		}
		quantity, err := action.AppliedFor.Quantity.Float()
		if err != nil || math.IsInf(quantity, 0) || math.IsNaN(quantity) || quantity <= 0 {
			continue
		}

		group.Actions = append(group.Actions, LandAction{
			Code:     action.Code,
			Quantity: quantity,
		})
	}

	payload := LandGrantsPayload{LandActions: make([]LandActionGroup, 0, len(order))}
	for _, key := range order {
		payload.LandActions = append(payload.LandActions, *groups[key])
	}
	return payload, nil
}
