// Package apiclient is the thin HTTP client to the notifications API. It is
// the sole coupling between the admin core and the API: auth header
// injection, bounded retries on idempotent calls, and response parsing into
// the admin model types.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"

	apperrors "github.com/GSA/notifications-admin-sub001/pkg/errors"
	"github.com/GSA/notifications-admin-sub001/pkg/logger"
	"github.com/GSA/notifications-admin-sub001/pkg/metrics"
)

const (
	defaultTimeout = 30 * time.Second

	memoTTL     = 5 * time.Minute
	memoSweep   = 10 * time.Minute
	tokenExpiry = 30 * time.Second
)

type Config struct {
	HostName       string
	ClientUserName string
	ClientSecret   string
	Timeout        time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	issuer     string
	secret     []byte
	memo       *gocache.Cache
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewClient(cfg Config, log *logger.Logger, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.HostName, "/"),
		httpClient: &http.Client{Timeout: timeout},
		issuer:     cfg.ClientUserName,
		secret:     []byte(cfg.ClientSecret),
		memo:       gocache.New(memoTTL, memoSweep),
		logger:     log,
		metrics:    m,
	}
}

// token signs a short-lived bearer token for one request.
func (c *Client) token() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": c.issuer,
		"iat": now.Unix(),
		"exp": now.Add(tokenExpiry).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

type apiErrorBody struct {
	Message string `json:"message"`
	Result  string `json:"result,omitempty"`
}

// do performs one API call. GETs and calls marked idempotent are retried
// once on a 5xx or transport failure.
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out interface{}, idempotent bool) error {
	retryable := method == http.MethodGet || idempotent

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return apperrors.NewInternal(fmt.Errorf("failed to marshal request body: %w", err))
		}
	}

	attempts := 1
	if retryable {
		attempts = 2
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			c.metrics.APIRetries.WithLabelValues(operation).Inc()
			c.logger.Warn("retrying api call", "operation", operation, "path", path)
		}

		err := c.doOnce(ctx, operation, method, path, query, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err

		// Only server-side failures are worth a second attempt.
		if !apperrors.IsCode(err, apperrors.ErrAPIServer) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, operation, method, path string, query url.Values, payload []byte, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return apperrors.NewInternal(err)
	}

	token, err := c.token()
	if err != nil {
		return apperrors.NewInternal(fmt.Errorf("failed to sign api token: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.APILatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.APIRequests.WithLabelValues(operation, "transport_error").Inc()
		return apperrors.NewAPIServer(http.StatusServiceUnavailable)
	}
	defer resp.Body.Close()

	c.metrics.APIRequests.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.NewInternal(fmt.Errorf("failed to decode %s response: %w", operation, err))
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NewNotFound(operation, nil)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var apiErr apiErrorBody
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apperrors.NewAPIClient(resp.StatusCode, apiErr.Message)
	default:
		return apperrors.NewAPIServer(resp.StatusCode)
	}
}
