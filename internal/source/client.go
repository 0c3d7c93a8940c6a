package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"esg-monitor/internal/models"
)

// Config describes one HTTP news source.
type Config struct {
	Name              string `yaml:"name" validate:"required"`
	BaseURL           string `yaml:"base_url" validate:"required,url"`
	APIKey            string `yaml:"api_key"`
	TimeoutSeconds    int    `yaml:"timeout_seconds" validate:"gte=0"`
	MaxRetries        int    `yaml:"max_retries" validate:"gte=0"`
	RetryDelayMillis  int    `yaml:"retry_delay_ms" validate:"gte=0"`
	RequestsPerMinute int    `yaml:"requests_per_minute" validate:"gte=0"`
	PageSize          int    `yaml:"page_size" validate:"gte=0,lte=100"`
}

// Client queries a news search endpoint shaped like NewsAPI's /v2/everything.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	retryDelay time.Duration
	logger     *zap.Logger
}

type searchResponse struct {
	Status   string    `json:"status"`
	Message  string    `json:"message,omitempty"`
	Articles []article `json:"articles"`
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

// NewClient applies defaults to cfg and returns a client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayMillis == 0 {
		cfg.RetryDelayMillis = 500
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 30
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 20
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		retryDelay: time.Duration(cfg.RetryDelayMillis) * time.Millisecond,
		logger:     logger.With(zap.String("source", cfg.Name)),
	}
}

// Name returns the configured source name.
func (c *Client) Name() string { return c.cfg.Name }

// Fetch searches for query between from and to, retrying transport and 5xx failures.
func (c *Client) Fetch(ctx context.Context, query string, from, to time.Time) ([]models.Record, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingCredentials
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		attempts++
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}

		records, err := c.search(ctx, query, from, to)
		if err == nil {
			if len(records) == 0 {
				return nil, ErrEmptyResult
			}
			return records, nil
		}

		lastErr = err
		if !retryable(err) {
			break
		}
		c.logger.Warn("Fetch attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.cfg.MaxRetries),
			zap.Error(err))
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) search(ctx context.Context, query string, from, to time.Time) ([]models.Record, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("from", from.Format(time.DateOnly))
	params.Set("to", to.Format(time.DateOnly))
	params.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	params.Set("sortBy", "publishedAt")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &permanentError{fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &permanentError{fmt.Errorf("%w: status %d", ErrMissingCredentials, resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, err
		}
		return nil, &permanentError{err}
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &permanentError{fmt.Errorf("failed to decode response: %w", err)}
	}
	if result.Status != "" && result.Status != "ok" {
		return nil, &permanentError{fmt.Errorf("API returned status %q: %s", result.Status, result.Message)}
	}

	records := make([]models.Record, 0, len(result.Articles))
	for _, a := range result.Articles {
		records = append(records, toRecord(a))
	}
	return records, nil
}

func toRecord(a article) models.Record {
	content := a.Content
	if content == "" {
		content = a.Description
	}
	id := a.URL
	if id == "" {
		id = a.Title + "|" + a.PublishedAt.String()
	}
	return models.Record{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(id)).String(),
		Title:       a.Title,
		Content:     content,
		URL:         a.URL,
		Source:      a.Source.Name,
		PublishedAt: a.PublishedAt,
	}
}

// permanentError marks failures a retry cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var perm *permanentError
	return !errors.As(err, &perm)
}
