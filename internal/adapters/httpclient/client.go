// Package httpclient talks to the timecode server's /api/v1 endpoints.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/emiliopalmerini/timecode/internal/domain"
)

const (
	SendTimeout = 10 * time.Second
	ReadTimeout = 5 * time.Second
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	if body == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, body)
}

// HTTPStatus exposes the response code to callers classifying failures.
func (e *StatusError) HTTPStatus() int {
	return e.Code
}

type Client struct {
	mu      sync.RWMutex
	baseURL string
	client  *resty.Client
}

func New(baseURL string) *Client {
	c := &Client{
		client: resty.New().
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
	}
	c.SetBaseURL(baseURL)
	return c
}

// SetBaseURL switches the target server; in-flight requests keep the old one.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
}

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) url(path string) (string, error) {
	base := c.BaseURL()
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return "", fmt.Errorf("invalid api base url %q", base)
	}
	return base + "/api/v1" + path, nil
}

type sendRequest struct {
	Events []domain.Event `json:"events"`
}

// SendEvents posts one batch to /events.
func (c *Client) SendEvents(ctx context.Context, events []domain.Event) (domain.IngestResult, error) {
	target, err := c.url("/events")
	if err != nil {
		return domain.IngestResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, SendTimeout)
	defer cancel()

	var result domain.IngestResult
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(sendRequest{Events: events}).
		SetResult(&result).
		Post(target)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("send events: %w", err)
	}
	if !resp.IsSuccess() {
		return domain.IngestResult{}, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}
	return result, nil
}

type dailyTotalsResponse struct {
	Items []domain.DailyTotalItem `json:"items"`
}

// DailyTotal reads the server's total seconds for one day.
func (c *Client) DailyTotal(ctx context.Context, day string) (int64, error) {
	target, err := c.url("/stats/daily-totals")
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, ReadTimeout)
	defer cancel()

	var body dailyTotalsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"from": day, "to": day}).
		SetResult(&body).
		Get(target)
	if err != nil {
		return 0, fmt.Errorf("read daily total: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	var total int64
	for _, item := range body.Items {
		if item.Day == day {
			total += item.Seconds
		}
	}
	return total, nil
}
