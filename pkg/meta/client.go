// Package meta wraps the Meta Graph API with centralized auth, logging,
// throttling, and error mapping.
package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/adsync/pkg/config"
	pkgerrors "github.com/angelmondragon/adsync/pkg/errors"
	"github.com/angelmondragon/adsync/pkg/logger"
)

// Graph API versions pinned per endpoint. The account-level listings moved to
// newer versions at different times, so each fetch keeps the version it was
// verified against.
const (
	VersionCampaigns  = "v22.0"
	VersionActivities = "v22.0"
	VersionInsights   = "v22.0"
	VersionCreatives  = "v18.0"
	VersionAdsets     = "v20.0"
	VersionAds        = "v18.0"
)

// codeRateLimited is the Graph error code for account-level request throttling.
const codeRateLimited = 80004

const maxAttempts = 5

var (
	errAccessTokenRequired = errors.New("meta access token is required")
	errAccountIDRequired   = errors.New("meta ad account id is required")
	errLoggerRequired      = errors.New("meta logger is required")

	// ErrRateLimited is returned once backoff attempts are exhausted. Callers
	// treat it as "no result": they keep whatever pages were already
	// accumulated and skip the remaining work for this step.
	ErrRateLimited = errors.New("meta: rate limited after retries")
)

// APIError is a decoded Graph API error payload.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Subcode int    `json:"error_subcode"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api error: status=%d code=%d subcode=%d type=%s message=%s",
		e.Status, e.Code, e.Subcode, e.Type, e.Message)
}

// IsRateLimited reports whether the error payload is the throttling code.
func (e *APIError) IsRateLimited() bool {
	return e.Code == codeRateLimited
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// Page is one page of a Graph API listing response.
type Page struct {
	Data   []map[string]any `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// Client exposes Graph API listings with mandatory inter-request pacing and
// exponential backoff on throttling.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	accountID   string
	minInterval time.Duration
	logger      *logger.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewClient initializes the Graph API wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MetaConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}
	accountID := strings.TrimSpace(cfg.AccountID)
	if accountID == "" {
		return nil, errAccountIDRequired
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://graph.facebook.com"
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL:     baseURL,
		accessToken: accessToken,
		accountID:   accountID,
		minInterval: cfg.RateLimitInterval,
		logger:      logg,
		sleep:       time.Sleep,
	}

	logg.Info(ctx, "meta client initialized")
	return c, nil
}

// AccountID returns the configured ad account id (without the act_ prefix).
func (c *Client) AccountID() string {
	if c == nil {
		return ""
	}
	return c.accountID
}

// AccountPath builds a versioned act_<id> endpoint path, e.g.
// AccountPath("v22.0", "campaigns") -> "/v22.0/act_123/campaigns".
func (c *Client) AccountPath(version, resource string) string {
	return fmt.Sprintf("/%s/act_%s/%s", version, c.accountID, resource)
}

// ObjectPath builds a versioned object endpoint path, e.g.
// ObjectPath("v18.0", adID, "insights") -> "/v18.0/<adID>/insights".
func (c *Client) ObjectPath(version, objectID, resource string) string {
	if resource == "" {
		return fmt.Sprintf("/%s/%s", version, objectID)
	}
	return fmt.Sprintf("/%s/%s/%s", version, objectID, resource)
}

// Get performs a single GET against the given path (or absolute URL) and
// decodes the listing page. Every successful call is followed by the
// mandatory pacing pause.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (*Page, error) {
	return c.get(ctx, rawURL, params, "")
}

// GetNested fetches an object endpoint whose listing lives under a named
// field of the response, e.g. act_<id>?fields=ads{...} returns the page
// under "ads".
func (c *Client) GetNested(ctx context.Context, rawURL string, params url.Values, field string) (*Page, error) {
	return c.get(ctx, rawURL, params, field)
}

func (c *Client) get(ctx context.Context, rawURL string, params url.Values, field string) (*Page, error) {
	full, err := c.buildURL(rawURL, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, fmt.Errorf("building graph request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling graph api")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading graph response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	page, err := decodePage(body, field)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding graph response")
	}

	// Mandatory pause after every successful request, independent of backoff.
	c.pause()
	return page, nil
}

// GetWithBackoff retries Get with exponential backoff while the API reports
// throttling. Attempts are capped; exhaustion returns ErrRateLimited. Any
// non-throttling error is returned immediately.
func (c *Client) GetWithBackoff(ctx context.Context, rawURL string, params url.Values) (*Page, error) {
	return c.getWithBackoff(ctx, rawURL, params, "")
}

// GetNestedWithBackoff is GetNested wrapped in the same backoff policy.
func (c *Client) GetNestedWithBackoff(ctx context.Context, rawURL string, params url.Values, field string) (*Page, error) {
	return c.getWithBackoff(ctx, rawURL, params, field)
}

func (c *Client) getWithBackoff(ctx context.Context, rawURL string, params url.Values, field string) (*Page, error) {
	delay := c.minInterval

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		page, err := c.get(ctx, rawURL, params, field)
		if err == nil {
			return page, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRateLimited() {
			return nil, err
		}

		c.log(ctx, "warn", "rate limit hit", map[string]any{
			"attempt":     attempt,
			"max_retries": maxAttempts,
			"retry_in":    delay.String(),
		})
		c.sleep(delay)
		delay *= 2
	}

	c.log(ctx, "error", "rate limit retries exhausted", map[string]any{"max_retries": maxAttempts})
	return nil, ErrRateLimited
}

// GetAllPages follows paging.next until the listing is exhausted, returning
// every item seen so far. The query params apply to the first request only;
// next links already carry the full query. On ErrRateLimited the accumulated
// items are returned alongside the error so callers can keep partial results.
func (c *Client) GetAllPages(ctx context.Context, rawURL string, params url.Values) ([]map[string]any, error) {
	var items []map[string]any
	next := rawURL

	for next != "" {
		page, err := c.GetWithBackoff(ctx, next, params)
		if err != nil {
			return items, err
		}
		items = append(items, page.Data...)

		next = page.Paging.Next
		params = nil
	}

	return items, nil
}

func (c *Client) buildURL(rawURL string, params url.Values) (string, error) {
	full := rawURL
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		full = c.baseURL + rawURL
	}

	u, err := url.Parse(full)
	if err != nil {
		return "", fmt.Errorf("parsing graph url %q: %w", rawURL, err)
	}

	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Set(key, v)
		}
	}
	if q.Get("access_token") == "" {
		q.Set("access_token", c.accessToken)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (c *Client) pause() {
	if c.minInterval > 0 {
		c.sleep(c.minInterval)
	}
}

func decodePage(body []byte, field string) (*Page, error) {
	if field == "" {
		var page Page
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		return &page, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	page := &Page{}
	raw, ok := envelope[field]
	if !ok {
		// The object exists but carries no listing under the field; treat as
		// an empty page rather than an error.
		return page, nil
	}
	if err := json.Unmarshal(raw, page); err != nil {
		return nil, err
	}
	return page, nil
}

func decodeAPIError(status int, body []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Code == 0 && envelope.Error.Message == "" {
		return &APIError{Status: status, Message: strings.TrimSpace(string(body))}
	}
	apiErr := envelope.Error
	apiErr.Status = status
	return &apiErr
}

func (c *Client) log(ctx context.Context, level, msg string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	ctx = c.logger.WithFields(ctx, fields)
	switch level {
	case "error":
		c.logger.Error(ctx, msg, nil)
	default:
		c.logger.Warn(ctx, msg)
	}
}
