package paymenthub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/landgrants/agreement-backend/pkg/config"
	pkgerrors "github.com/landgrants/agreement-backend/pkg/errors"
	"github.com/landgrants/agreement-backend/pkg/logger"
	"github.com/landgrants/agreement-backend/pkg/types"
)

const registerPath = "/claims"

// RegisterInput is the payment schedule registration sent when an offer is
// accepted.
type RegisterInput struct {
	AgreementNumber string                 `json:"agreementNumber"`
	CorrelationID   string                 `json:"correlationId"`
	SBI             string                 `json:"sbi"`
	FRN             string                 `json:"frn"`
	Payment         *types.PaymentSchedule `json:"payment"`
}

// Registration is the hub's acknowledgement of a registered schedule.
type Registration struct {
	ClaimID string `json:"claimId"`
}

// Client registers accepted agreements with the payment hub for disbursement.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logg       *logger.Logger
}

func NewClient(cfg config.PaymentHubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("payment hub base url is required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("payment hub token is required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		logg:       logg,
	}, nil
}

// Register submits the schedule and returns the hub-assigned claim id.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*Registration, error) {
	if input.AgreementNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agreement number is required")
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encoding payment hub request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+registerPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling payment hub")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := fmt.Sprintf("payment hub registration failed: %s", resp.Status)
		if len(detail) > 0 {
			msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(string(detail)))
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, msg).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	var registration Registration
	if err := json.NewDecoder(resp.Body).Decode(&registration); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding payment hub response")
	}
	if registration.ClaimID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "claim id missing from payment hub response")
	}

	return &registration, nil
}
