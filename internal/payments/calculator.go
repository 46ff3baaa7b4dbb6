package payments

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

const calculatePath = "/payments/calculate"

// Calculator computes payment schedules against the downstream calculation
// service.
type Calculator struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logg       *logger.Logger
}

// NewCalculator builds a calculation-service client with the caller-supplied
// timeout baked into the HTTP client, so a hung upstream fails closed.
func NewCalculator(cfg config.PaymentsAPIConfig, logg *logger.Logger) (*Calculator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("payments api base url is required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("payments api token is required")
	}
	return &Calculator{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		logg:       logg,
	}, nil
}

type calculateResponse struct {
	Payment *types.PaymentSchedule `json:"payment"`
}

// CalculatePaymentsBasedOnActions groups the raw actions and posts them to
// the calculation endpoint. The response is narrowed to the stored schedule
// fields; anything extra the service returns is discarded.
func (c *Calculator) CalculatePaymentsBasedOnActions(ctx context.Context, actions []types.ActionApplication) (*types.PaymentSchedule, error) {
	payload, err := ToLandGrantsPayload(actions)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding land actions payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+calculatePath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling payment calculation service")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := fmt.Sprintf("payment calculation failed: %s", resp.Status)
		if len(detail) > 0 {
			msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(string(detail)))
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, msg).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	var decoded calculateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding payment calculation response")
	}
	if decoded.Payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment missing from calculation response")
	}

	return decoded.Payment, nil
}
