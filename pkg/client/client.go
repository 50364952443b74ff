package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/budget"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/transportSigner"
	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

// ClientConfig holds the configuration for the relay client
type ClientConfig struct {
	BaseURL string
	Signer  transportSigner.ITransportSigner
	Logger  *zap.Logger
	// Timeout bounds each HTTP call. Batches wait on every sub-call, so allow headroom.
	Timeout time.Duration
}

// Client signs requests with its transport signer and submits them to a relay
type Client struct {
	baseURL    string
	signer     transportSigner.ITransportSigner
	httpClient *http.Client
	logger     *zap.Logger
}

// StatusError is returned for any non-200 relay response
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay returned status %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a new relay client
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		signer:     config.Signer,
		httpClient: &http.Client{Timeout: timeout},
		logger:     config.Logger,
	}, nil
}

// Address returns the identity this client signs as
func (c *Client) Address() common.Address {
	return c.signer.Address()
}

// RequestSignatures submits a batch and blocks until the relay has reconciled it
func (c *Client) RequestSignatures(ctx context.Context, prepaid budget.Gas, requests []types.SignRequest) (*types.RequestSignaturesResponse, error) {
	c.logger.Sugar().Infow("Requesting signatures",
		"requests", len(requests),
		"prepaid_gas", prepaid.String(),
		"required_gas", budget.Calculate(uint64(len(requests))).Total.String(),
	)

	var resp types.RequestSignaturesResponse
	err := c.postSigned(ctx, "/signatures", &types.RequestSignaturesPayload{
		Requests:   requests,
		PrepaidGas: uint64(prepaid),
		Nonce:      uuid.NewString(),
		IssuedAt:   time.Now().Unix(),
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.logger.Sugar().Infow("Signature batch resolved",
		"request_id", resp.RequestID,
		"total", resp.Total,
		"successful", resp.Successful,
		"failed", resp.Failed,
	)
	return &resp, nil
}

// UpdateAuthorizedCaller asks the relay to replace its authorized caller
func (c *Client) UpdateAuthorizedCaller(ctx context.Context, newCaller common.Address) (*types.ConfigResponse, error) {
	var resp types.ConfigResponse
	if err := c.postSigned(ctx, "/admin/authorized-caller", &types.UpdateIdentityPayload{
		NewIdentity: newCaller,
		Nonce:       uuid.NewString(),
		IssuedAt:    time.Now().Unix(),
	}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateOwner asks the relay to transfer ownership
func (c *Client) UpdateOwner(ctx context.Context, newOwner common.Address) (*types.ConfigResponse, error) {
	var resp types.ConfigResponse
	if err := c.postSigned(ctx, "/admin/owner", &types.UpdateIdentityPayload{
		NewIdentity: newOwner,
		Nonce:       uuid.NewString(),
		IssuedAt:    time.Now().Unix(),
	}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetConfig fetches the relay's current identities
func (c *Client) GetConfig(ctx context.Context) (*types.ConfigResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/config", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	var resp types.ConfigResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) postSigned(ctx context.Context, path string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	authMsg, err := c.signer.CreateAuthenticatedMessage(data)
	if err != nil {
		return fmt.Errorf("failed to create authenticated message: %w", err)
	}

	body, err := json.Marshal(authMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal authenticated message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp types.ErrorResponse
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
