package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hyperleaf/domain/result"
	"hyperleaf/internal"
	"hyperleaf/internal/errors"
	"hyperleaf/models"
	"hyperleaf/ports"

	"github.com/patrickmn/go-cache"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

const serviceName = "prediction"

// Client talks to the prediction service over HTTP
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	identities singleflight.Group
	known      *cache.Cache
	drift      *SchemaDriftMonitor
	logger     *internal.Logger
}

var _ ports.PredictionAPI = (*Client)(nil)

// NewClient creates a client for the configured base URL
func NewClient(config ClientConfig, logger *internal.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeConfigInvalid, err), "invalid prediction client config")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		known:      cache.New(config.IdentityTTL, 2*config.IdentityTTL),
		drift:      NewSchemaDriftMonitor(logger),
		logger:     logger,
	}, nil
}

// Predict uploads the image with the field parameters as a multipart form
func (c *Client) Predict(ctx context.Context, token string, req ports.PredictRequest) (result.RawResult, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build upload")
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return nil, errors.Wrap(err, "failed to read upload")
	}
	if err := form.WriteField("field_area", req.FieldArea); err != nil {
		return nil, errors.Wrap(err, "failed to build upload")
	}
	if err := form.WriteField("fertilizer_rate", req.FertilizerRate); err != nil {
		return nil, errors.Wrap(err, "failed to build upload")
	}
	if err := form.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to build upload")
	}

	raw, err := c.do(ctx, http.MethodPost, "/api/predict", nil, token, &body, form.FormDataContentType())
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, errors.ExternalServiceError(serviceName, fmt.Errorf("prediction response is not a JSON object"))
	}
	c.drift.Observe("/api/predict", raw)
	return result.RawResult(raw), nil
}

// History lists past predictions. Entries keep the service order.
func (c *Client) History(ctx context.Context, token string, scope models.HistoryScope) ([]result.RawResult, error) {
	query := url.Values{}
	if scope.IsSet() {
		query.Set("user_id", strconv.FormatInt(int64(scope), 10))
	}

	raw, err := c.do(ctx, http.MethodGet, "/api/dashboard", query, token, nil, "")
	if err != nil {
		return nil, err
	}

	doc := gjson.ParseBytes(raw)
	if !gjson.ValidBytes(raw) || !doc.IsArray() {
		return nil, errors.ExternalServiceError(serviceName, fmt.Errorf("history response is not a JSON array"))
	}

	records := make([]result.RawResult, 0, len(doc.Array()))
	doc.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			entry := result.RawResult(item.Raw)
			c.drift.Observe("/api/dashboard", entry)
			records = append(records, entry)
		}
		return true
	})
	return records, nil
}

// Owners lists farmer accounts for an admin
func (c *Client) Owners(ctx context.Context, token string) ([]models.Owner, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, token, nil, "")
	if err != nil {
		return nil, err
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return nil, errors.ExternalServiceError(serviceName, fmt.Errorf("owners response is not a JSON array"))
	}

	owners := []models.Owner{}
	doc.ForEach(func(_, item gjson.Result) bool {
		id := item.Get("id").Int()
		if id == 0 {
			return true
		}
		owners = append(owners, models.Owner{
			ID:       id,
			Username: item.Get("username").String(),
			Email:    item.Get("email").String(),
		})
		return true
	})
	return owners, nil
}

// Identify resolves a token. Concurrent lookups of one token share a
// request and answers are cached for IdentityTTL.
func (c *Client) Identify(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, errors.Unauthorized("missing token")
	}
	if v, ok := c.known.Get(token); ok {
		u := *v.(*models.User)
		return &u, nil
	}
	v, err, _ := c.identities.Do(token, func() (interface{}, error) {
		raw, err := c.do(ctx, http.MethodGet, "/auth/me", nil, token, nil, "")
		if err != nil {
			return nil, err
		}
		doc := gjson.ParseBytes(raw)
		user := &models.User{
			ID:                doc.Get("id").Int(),
			Username:          doc.Get("username").String(),
			Email:             doc.Get("email").String(),
			Role:              models.Role(doc.Get("role").String()),
			PreferredLanguage: doc.Get("preferred_language").String(),
			Token:             token,
		}
		if user.ID == 0 {
			return nil, errors.Unauthorized("token did not resolve to an account")
		}
		c.known.Set(token, user, cache.DefaultExpiration)
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	u := *v.(*models.User)
	return &u, nil
}

// do performs one request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body io.Reader, contentType string) ([]byte, error) {
	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("[api] %s %s failed: %v", method, path, err)
		return nil, errors.ExternalServiceError(serviceName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes))
	if err != nil {
		return nil, errors.ExternalServiceError(serviceName, fmt.Errorf("read response: %w", err))
	}
	c.logger.Debug("[api] %s %s -> %d in %s (%d bytes)", method, path, resp.StatusCode, time.Since(start), len(data))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, statusError(resp.StatusCode, data)
}

// statusError maps a non-2xx response to an application error. FastAPI
// style {"detail": "..."} bodies are surfaced in the message.
func statusError(status int, body []byte) error {
	detail := gjson.GetBytes(body, "detail").String()
	if detail == "" {
		detail = http.StatusText(status)
	}
	cause := fmt.Errorf("status %d: %s", status, detail)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrap(errors.Unauthorized(detail), "prediction service rejected credentials")
	case http.StatusNotFound:
		return errors.Wrap(errors.NotFound(detail), "prediction service resource missing")
	default:
		return errors.ExternalServiceError(serviceName, cause)
	}
}
