package mpcSigner

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
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Layr-Labs/eigenx-sigrelay-go/pkg/types"
)

const (
	// HeaderRelayAccount names the relay's own account on every sub-call
	HeaderRelayAccount = "X-Relay-Account"
	// HeaderSignerAccount names the signing-service account the call targets
	HeaderSignerAccount = "X-Signer-Account"

	defaultTimeout     = 30 * time.Second
	maxResponseBodyLen = 1 << 20
)

// Config configures the HTTP signing-service client
type Config struct {
	BaseURL string
	// RelayAccount is sent with every call so the service can attribute it
	RelayAccount common.Address
	// RequestsPerSecond throttles outgoing calls. 0 disables throttling.
	RequestsPerSecond float64
	Timeout           time.Duration
}

// DefaultConfig returns a config pointing at a local signing service
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:7070",
		Timeout: defaultTimeout,
	}
}

// SignCallBody is the JSON body posted to {baseURL}/sign
type SignCallBody struct {
	Request   types.SignRequest `json:"request"`
	StaticGas uint64            `json:"static_gas"`
	Deposit   uint64            `json:"deposit"`
}

// Client calls the signing service over HTTP. It never retries.
type Client struct {
	baseURL      string
	relayAccount common.Address
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *zap.Logger
}

// NewClient creates a signing-service client
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("requests per second cannot be negative")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		relayAccount: cfg.RelayAccount,
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      limiter,
		logger:       logger,
	}, nil
}

// SetHttpClient replaces the underlying HTTP client
func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

// Sign posts one sub-call. Any non-2xx status is an error.
func (c *Client) Sign(ctx context.Context, call *types.SignCall) ([]byte, error) {
	if call == nil {
		return nil, fmt.Errorf("sign call cannot be nil")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrapf(err, "rate limiter wait failed for call %d", call.Index)
		}
	}

	body, err := json.Marshal(&SignCallBody{
		Request:   call.Request,
		StaticGas: uint64(call.StaticGas),
		Deposit:   call.Deposit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal sign call")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sign", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build sign request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRelayAccount, c.relayAccount.Hex())
	req.Header.Set(HeaderSignerAccount, call.Target.Hex())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "sign call %d to %s failed", call.Index, call.Target.Hex())
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyLen))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response for call %d", call.Index)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Sugar().Debugw("Signing service rejected call",
			"index", call.Index,
			"status_code", resp.StatusCode,
			"body", string(data),
		)
		return nil, errors.Errorf("signing service returned status %d for call %d", resp.StatusCode, call.Index)
	}

	return data, nil
}
