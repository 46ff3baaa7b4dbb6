package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/landgrants/agreement-backend/api/controllers"
	"github.com/landgrants/agreement-backend/internal/agreements"
	"github.com/landgrants/agreement-backend/pkg/config"
	"github.com/landgrants/agreement-backend/pkg/db/models"
	pkgerrors "github.com/landgrants/agreement-backend/pkg/errors"
	"github.com/landgrants/agreement-backend/pkg/logger"
)

type stubAgreements struct{}

func (stubAgreements) CreateOffer(ctx context.Context, input agreements.CreateOfferInput) (*agreements.CreateOfferResult, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (stubAgreements) AcceptOffer(ctx context.Context, input agreements.AcceptOfferInput) (*agreements.AcceptOfferResult, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (stubAgreements) UnacceptOffer(ctx context.Context, agreementNumber string) error {
	return nil
}

func (stubAgreements) WithdrawOffer(ctx context.Context, clientRef string) (bool, error) {
	return false, nil
}

func (stubAgreements) GetByAgreementNumber(ctx context.Context, agreementNumber string) (*models.Agreement, error) {
	return &models.Agreement{AgreementNumber: agreementNumber}, nil
}

func (stubAgreements) GetBySBI(ctx context.Context, sbi string) (*models.Agreement, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agreement not found")
}

func (stubAgreements) GetDocument(ctx context.Context, agreementNumber string) ([]byte, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
}

type stubInvoices struct{}

func (stubInvoices) Issue(ctx context.Context, agreementNumber, correlationID string) (*models.Invoice, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (stubInvoices) ListByAgreementNumber(ctx context.Context, agreementNumber string) ([]models.Invoice, error) {
	return nil, nil
}

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(Dependencies{
		Config: &config.Config{
			App: config.AppConfig{Env: "test"},
			JWT: config.JWTConfig{Secret: "test-secret", Issuer: "agreements-test"},
		},
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Agreements: stubAgreements{},
		Invoices:   stubInvoices{},
		Pingers:    map[string]controllers.Pinger{"database": stubPinger{}},
	})
}

func bearerToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "agreements-test",
		Subject:   "svc-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return "Bearer " + signed
}

func TestHealthEndpointsAreOpen(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestAgreementRoutesRequireAuth(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agreements/SFI123456789", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestAgreementDetailWithToken(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agreements/SFI123456789", nil)
	req.Header.Set("Authorization", bearerToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "SFI123456789") {
		t.Fatalf("response should carry the agreement number: %s", rec.Body.String())
	}
}

func TestRejectsForgedToken(t *testing.T) {
	router := testRouter(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "agreements-test",
		Subject:   "svc-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agreements/SFI123456789", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", rec.Code)
	}
}
