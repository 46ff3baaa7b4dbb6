package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/landgrants/agreement-backend/api/responses"
	"github.com/landgrants/agreement-backend/api/validators"
	"github.com/landgrants/agreement-backend/internal/agreements"
	"github.com/landgrants/agreement-backend/internal/display"
	"github.com/landgrants/agreement-backend/internal/invoices"
	"github.com/landgrants/agreement-backend/pkg/db/models"
	pkgerrors "github.com/landgrants/agreement-backend/pkg/errors"
	"github.com/landgrants/agreement-backend/pkg/logger"
	"github.com/landgrants/agreement-backend/pkg/types"
)

type agreementView struct {
	ID              string                 `json:"id"`
	AgreementNumber string                 `json:"agreementNumber"`
	AgreementName   string                 `json:"agreementName"`
	FRN             string                 `json:"frn"`
	SBI             string                 `json:"sbi"`
	ClientRef       string                 `json:"clientRef"`
	Versions        []agreementVersionView `json:"versions"`
}

type agreementVersionView struct {
	ID            string                 `json:"id"`
	CorrelationID string                 `json:"correlationId"`
	ClientRef     string                 `json:"clientRef"`
	Code          string                 `json:"code"`
	Status        string                 `json:"status"`
	SignatureDate *time.Time             `json:"signatureDate,omitempty"`
	Identifiers   types.Identifiers      `json:"identifiers"`
	Payment       *types.PaymentSchedule `json:"payment,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

func toAgreementView(agreement *models.Agreement) agreementView {
	view := agreementView{
		ID:              agreement.ID.String(),
		AgreementNumber: agreement.AgreementNumber,
		AgreementName:   agreement.AgreementName,
		FRN:             agreement.FRN,
		SBI:             agreement.SBI,
		ClientRef:       agreement.ClientRef,
		Versions:        make([]agreementVersionView, 0, len(agreement.Versions)),
	}
	for _, v := range agreement.Versions {
		view.Versions = append(view.Versions, agreementVersionView{
			ID:            v.ID.String(),
			CorrelationID: v.CorrelationID,
			ClientRef:     v.ClientRef,
			Code:          v.Code,
			Status:        string(v.Status),
			SignatureDate: v.SignatureDate,
			Identifiers:   v.Identifiers(),
			Payment:       v.Payment,
			CreatedAt:     v.CreatedAt,
		})
	}
	return view
}

// AgreementDetail returns an agreement with its version history.
func AgreementDetail(svc agreements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agreementNumber := chi.URLParam(r, "agreementNumber")
		agreement, err := svc.GetByAgreementNumber(r.Context(), agreementNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAgreementView(agreement))
	}
}

// AgreementBySBI returns the most recent agreement for a business.
func AgreementBySBI(svc agreements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sbi := chi.URLParam(r, "sbi")
		agreement, err := svc.GetBySBI(r.Context(), sbi)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAgreementView(agreement))
	}
}

// AgreementDocument streams the stored PDF for the latest version.
func AgreementDocument(svc agreements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agreementNumber := chi.URLParam(r, "agreementNumber")
		doc, err := svc.GetDocument(r.Context(), agreementNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc)
	}
}

type scheduleView struct {
	PaymentSummary []display.PaymentSummaryRow `json:"paymentSummary"`
	ParcelSummary  []display.ParcelSummaryRow  `json:"parcelSummary"`
	ActionSummary  []display.ActionSummaryRow  `json:"actionSummary"`
	AnnualSchedule display.AnnualSchedule      `json:"annualSchedule"`
}

// AgreementSchedule renders the display tables for the latest version.
func AgreementSchedule(svc agreements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agreementNumber := chi.URLParam(r, "agreementNumber")
		agreement, err := svc.GetByAgreementNumber(r.Context(), agreementNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(agreement.Versions) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "agreement has no versions"))
			return
		}

		latest := agreement.Versions[len(agreement.Versions)-1]
		responses.WriteSuccess(w, scheduleView{
			PaymentSummary: display.PaymentSummary(latest.Payment),
			ParcelSummary:  display.ParcelSummary(latest.ActionApplications),
			ActionSummary:  display.ActionSummary(latest.ActionApplications),
			AnnualSchedule: display.BuildAnnualSchedule(latest.Payment),
		})
	}
}

// AcceptAgreement signs the offered version and registers the schedule for
// disbursement.
func AcceptAgreement(svc agreements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agreementNumber := chi.URLParam(r, "agreementNumber")
		result, err := svc.AcceptOffer(r.Context(), agreements.AcceptOfferInput{AgreementNumber: agreementNumber})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"agreement": toAgreementView(result.Agreement),
			"claimId":   result.ClaimID,
		})
	}
}

// UnacceptAgreement reverts an accepted version back to offered.
func UnacceptAgreement(svc agreements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agreementNumber := chi.URLParam(r, "agreementNumber")
		if err := svc.UnacceptOffer(r.Context(), agreementNumber); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "offered"})
	}
}

type withdrawRequest struct {
	ClientRef string `json:"clientRef" validate:"required"`
}

// WithdrawAgreement withdraws every offered version under a client reference.
func WithdrawAgreement(svc agreements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req withdrawRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawn, err := svc.WithdrawOffer(r.Context(), req.ClientRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"withdrawn": withdrawn})
	}
}

type invoiceView struct {
	InvoiceNumber   string    `json:"invoiceNumber"`
	AgreementNumber string    `json:"agreementNumber"`
	CorrelationID   string    `json:"correlationId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// AgreementInvoices lists invoices raised against an agreement.
func AgreementInvoices(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agreementNumber := chi.URLParam(r, "agreementNumber")
		list, err := svc.ListByAgreementNumber(r.Context(), agreementNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]invoiceView, 0, len(list))
		for _, inv := range list {
			views = append(views, invoiceView{
				InvoiceNumber:   inv.InvoiceNumber,
				AgreementNumber: inv.AgreementNumber,
				CorrelationID:   inv.CorrelationID,
				CreatedAt:       inv.CreatedAt,
			})
		}
		responses.WriteSuccess(w, views)
	}
}
