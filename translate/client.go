package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/minios-linux/langsurface/glossary"
)

var (
	// ErrMissingCredential is returned when a provider needs an API key and
	// none is configured.
	ErrMissingCredential = errors.New("missing API key")

	// ErrTransport covers network failures, unexpected HTTP statuses and
	// responses without usable text.
	ErrTransport = errors.New("translation request failed")
)

// RateLimitedError is returned when the provider keeps answering 429.
type RateLimitedError struct {
	// RetryAfter is the delay the provider asked for, or 0 if it gave none.
	RetryAfter time.Duration
	// Body is the (truncated) response body.
	Body string
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s)", e.RetryAfter)
	}
	return "rate limited"
}

// Request is one text to translate.
type Request struct {
	SourceText   string
	SourceLang   string
	TargetLang   string
	MaxChars     int
	Rules        []glossary.Rule
	ExtraContext string
}

// Translator translates a single text.
type Translator interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// Client implements Translator over a provider's HTTP API.
type Client struct {
	// Provider is the AI provider configuration.
	Provider Provider
	// MaxRetries is the maximum number of retries on rate limit (429). Default: 3.
	MaxRetries int
	// Temperature is passed to the model. Default: 0.2.
	Temperature float64
	// SystemPrompt overrides DefaultSystemPrompt.
	SystemPrompt string
	// Verbose enables request tracing through the standard logger.
	Verbose bool
	// HTTPClient overrides the client built from the provider settings.
	HTTPClient *http.Client
	// NewBackOff builds the retry schedule. Default: exponential.
	NewBackOff func() backoff.BackOff
	// OnRetry is called before each wait caused by a rate limit.
	OnRetry func(err error, wait time.Duration)
}

// NewClient returns a client for prov.
func NewClient(prov Provider) *Client {
	return &Client{Provider: prov}
}

func (c *Client) maxRetries() int {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return 3
}

func (c *Client) temperature() float64 {
	if c.Temperature > 0 {
		return c.Temperature
	}
	return 0.2
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Provider.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return makeHTTPClient(c.Provider.Proxy, timeout)
}

// Translate sends req to the provider. Rate limits are retried with
// backoff; every other failure is returned at once.
func (c *Client) Translate(ctx context.Context, req Request) (string, error) {
	prov := c.Provider
	if prov.NeedsKey && prov.APIKey == "" {
		return "", fmt.Errorf("%w for %s", ErrMissingCredential, prov.Name)
	}
	if prov.model() == "" {
		return "", fmt.Errorf("no model configured for %s", prov.Name)
	}

	systemPrompt, userPrompt := BuildPrompt(c.SystemPrompt, req)
	endpoint, headers, body, err := buildHTTPRequest(prov, systemPrompt, userPrompt, c.temperature())
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	client := c.httpClient()
	attempt := 0
	op := func() (string, error) {
		attempt++
		return c.do(ctx, client, endpoint, headers, body, attempt)
	}

	bo := backoff.BackOff(backoff.NewExponentialBackOff())
	if c.NewBackOff != nil {
		bo = c.NewBackOff()
	}
	text, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(c.maxRetries()+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			if c.Verbose {
				log.Printf("[WARN] %s: %v, waiting %v before retry", prov.Name, err, wait)
			}
			if c.OnRetry != nil {
				c.OnRetry(err, wait)
			}
		}),
	)
	if err != nil {
		var rl *RateLimitedError
		if errors.As(err, &rl) {
			return "", rl
		}
		return "", err
	}
	return text, nil
}

// do performs one HTTP attempt. Errors other than rate limits are wrapped
// as permanent so the retry loop stops.
func (c *Client) do(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, body []byte, attempt int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if c.Verbose {
		log.Printf("[DEBUG] %s attempt %d: POST %s", c.Provider.Name, attempt, endpoint)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return "", backoff.Permanent(fmt.Errorf("%w: %w", ErrTransport, err))
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("%w: reading response: %w", ErrTransport, err))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		rl := &RateLimitedError{
			RetryAfter: parseRetryAfter(resp.Header, respBody, time.Now()),
			Body:       truncate(string(respBody), 500),
		}
		if rl.RetryAfter > 0 {
			return "", errors.Join(rl, &backoff.RetryAfterError{Duration: rl.RetryAfter})
		}
		return "", rl
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", backoff.Permanent(fmt.Errorf("%w: %s returned status %d: %s",
			ErrTransport, c.Provider.Name, resp.StatusCode, truncate(string(respBody), 500)))
	}

	text, err := extractResponseText(respBody)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("%w: %w", ErrTransport, err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", backoff.Permanent(fmt.Errorf("%w: %s returned empty output", ErrTransport, c.Provider.Name))
	}
	return text, nil
}

// ---------------------------------------------------------------------------
// Rate limit: retry delay
// ---------------------------------------------------------------------------

// parseRetryAfter reads the Retry-After header (seconds or HTTP date) and
// falls back to Google's RetryInfo detail in the response body. It returns
// 0 when neither is present.
func parseRetryAfter(h http.Header, body []byte, now time.Time) time.Duration {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
		if t, err := http.ParseTime(v); err == nil {
			if d := t.Sub(now); d > 0 {
				return d
			}
			return 0
		}
	}

	var errResp struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return 0
	}
	for _, detail := range errResp.Error.Details {
		if strings.Contains(detail.Type, "RetryInfo") && detail.RetryDelay != "" {
			// Durations like "30s" or "45.123s".
			d := strings.TrimSuffix(detail.RetryDelay, "s")
			if secs, err := strconv.ParseFloat(d, 64); err == nil {
				return time.Duration(secs * float64(time.Second))
			}
		}
	}
	return 0
}
