package opinion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultHost = "https://proxy.opinion.trade:8443"

	// Rate limits conservadores; el proxy de Opinion corta a ~15 req/s por key.
	readRatePerSec  = 8
	bookRatePerSec  = 10
	tradeRatePerSec = 4

	marketPageLimit  = 20
	accountPageLimit = 100

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// APIError is a response the exchange answered with errno != 0.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("opinion api errno %d: %s", e.Code, e.Message)
}

// Options configura el Client. Las credenciales de firma son opcionales:
// sin PrivateKey el cliente es de solo lectura.
type Options struct {
	Host         string
	APIKey       string
	ChainID      int64
	PrivateKey   string
	MultiSigAddr string

	HTTPClient *http.Client
	RetryWait  time.Duration
}

// Client es el HTTP client de Opinion con rate limiting, retries y circuit breakers.
// Implementa ports.Exchange.
type Client struct {
	http      *http.Client
	host      string
	apiKey    string
	retryWait time.Duration

	readLimiter  *rate.Limiter
	bookLimiter  *rate.Limiter
	tradeLimiter *rate.Limiter

	readBreaker  *gobreaker.CircuitBreaker
	tradeBreaker *gobreaker.CircuitBreaker

	signer *Signer
}

// NewClient crea un Client. Si Host está vacío usa el proxy de producción.
func NewClient(opts Options) (*Client, error) {
	if opts.Host == "" {
		opts.Host = defaultHost
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = baseRetryWait
	}

	c := &Client{
		http:         opts.HTTPClient,
		host:         strings.TrimRight(opts.Host, "/"),
		apiKey:       opts.APIKey,
		retryWait:    opts.RetryWait,
		readLimiter:  rate.NewLimiter(readRatePerSec, 4),
		bookLimiter:  rate.NewLimiter(bookRatePerSec, 5),
		tradeLimiter: rate.NewLimiter(tradeRatePerSec, 2),
		readBreaker:  newBreaker("opinion-read"),
		tradeBreaker: newBreaker("opinion-trade"),
	}

	if opts.PrivateKey != "" {
		signer, err := NewSigner(opts.PrivateKey, opts.MultiSigAddr, opts.ChainID)
		if err != nil {
			return nil, fmt.Errorf("opinion.NewClient: %w", err)
		}
		c.signer = signer
	}
	return c, nil
}

// CanTrade reports whether the client was configured with signing credentials.
func (c *Client) CanTrade() bool { return c.signer != nil }

// newBreaker abre tras 5 fallos consecutivos de transporte y prueba de nuevo a los 30s.
// Los APIError no cuentan: el exchange respondió.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			return err == nil || errors.As(err, &apiErr) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// envelope es el wrapper común de todas las respuestas.
type envelope struct {
	Errno  int             `json:"errno"`
	Errmsg string          `json:"errmsg"`
	Result json.RawMessage `json:"result"`
}

// get hace un GET con rate limiting, breaker y retries; out recibe result.
func (c *Client) get(ctx context.Context, cb *gobreaker.CircuitBreaker, limiter *rate.Limiter, path string, query url.Values, out any) error {
	u := c.host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.call(ctx, cb, limiter, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}, out)
}

// post hace un POST JSON con rate limiting, breaker y retries.
func (c *Client) post(ctx context.Context, cb *gobreaker.CircuitBreaker, limiter *rate.Limiter, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.call(ctx, cb, limiter, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, out)
}

func (c *Client) call(ctx context.Context, cb *gobreaker.CircuitBreaker, limiter *rate.Limiter, newReq func() (*http.Request, error), out any) error {
	_, err := cb.Execute(func() (any, error) {
		return nil, c.doWithRetry(ctx, limiter, newReq, out)
	})
	return err
}

// doWithRetry ejecuta la request con backoff exponencial. Reintenta errores de
// transporte, 429 y 5xx; un 4xx o un errno != 0 se devuelven directamente.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, newReq func() (*http.Request, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := newReq()
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("apikey", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries || ctx.Err() != nil {
				return fmt.Errorf("request failed after %d retries: %w", attempt, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries: %s", resp.StatusCode, maxRetries, truncateBody(body))
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				slog.Warn("rate limited by API", "attempt", attempt+1)
			}
			c.sleep(ctx, attempt)
			continue
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("client error %d: %s", resp.StatusCode, truncateBody(body))
		}
		if readErr != nil {
			return fmt.Errorf("read response: %w", readErr)
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("decode envelope: %w", err)
		}
		if env.Errno != 0 {
			return &APIError{Code: env.Errno, Message: env.Errmsg}
		}
		if out != nil && len(env.Result) > 0 && string(env.Result) != "null" {
			if err := json.Unmarshal(env.Result, out); err != nil {
				return fmt.Errorf("decode result: %w", err)
			}
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

func truncateBody(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
