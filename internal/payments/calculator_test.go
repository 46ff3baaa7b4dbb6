package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/landgrants/agreement-backend/pkg/config"
	pkgerrors "github.com/landgrants/agreement-backend/pkg/errors"
	"github.com/landgrants/agreement-backend/pkg/logger"
	"github.com/landgrants/agreement-backend/pkg/types"
)

func newTestCalculator(t *testing.T, handler http.HandlerFunc) (*Calculator, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	calc, err := NewCalculator(config.PaymentsAPIConfig{
		BaseURL: server.URL,
		Token:   "test-token",
		Timeout: 5 * time.Second,
	}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("creating calculator: %v", err)
	}
	return calc, server
}

func TestCalculatePaymentsSuccess(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	calc, _ := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"payment": map[string]any{
				"agreementStartDate":  "2026-01-01",
				"agreementEndDate":    "2029-01-01",
				"frequency":           "Quarterly",
				"agreementTotalPence": 300000,
				"annualTotalPence":    100000,
			},
			"ignoredExtra": "dropped",
		})
	})

	schedule, err := calc.CalculatePaymentsBasedOnActions(context.Background(), []types.ActionApplication{
		action("S1", "P1", "A1", "10.5"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if _, ok := gotBody["landActions"]; !ok {
		t.Fatalf("expected landActions in request body, got %v", gotBody)
	}
	if schedule.AgreementTotalPence != 300000 {
		t.Fatalf("expected total 300000, got %d", schedule.AgreementTotalPence)
	}
	if schedule.AgreementStartDate != "2026-01-01" {
		t.Fatalf("unexpected start date %q", schedule.AgreementStartDate)
	}
}

func TestCalculatePaymentsHTTPFailure(t *testing.T) {
	calc, _ := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := calc.CalculatePaymentsBasedOnActions(context.Background(), []types.ActionApplication{
		action("S1", "P1", "A1", "1"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !strings.Contains(err.Error(), "502") && !strings.Contains(err.Error(), "Bad Gateway") {
		t.Fatalf("expected status context in error, got %q", err.Error())
	}
}

func TestCalculatePaymentsMissingPayment(t *testing.T) {
	calc, _ := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"somethingElse": true})
	})

	_, err := calc.CalculatePaymentsBasedOnActions(context.Background(), []types.ActionApplication{
		action("S1", "P1", "A1", "1"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "payment missing") {
		t.Fatalf("expected the missing-payment error, got %q", err.Error())
	}
	// distinct from the HTTP-failure surface
	if strings.Contains(err.Error(), "Bad Gateway") {
		t.Fatalf("missing-payment error should not look like an HTTP failure: %q", err.Error())
	}
}
