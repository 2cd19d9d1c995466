package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DynastyTech/fusion-aura-sub001/internal/domain"
	"github.com/DynastyTech/fusion-aura-sub001/internal/session"
	"github.com/DynastyTech/fusion-aura-sub001/internal/signal"
)

// Error codes carried on failed results.
const (
	CodeNetwork       = "network_error"
	CodeUnavailable   = "service_unavailable"
	CodeUnauth        = "unauthenticated"
	CodeForbidden     = "permission_denied"
	CodeRateLimited   = "rate_limit_exceeded"
	CodeNotFound      = "not_found"
	CodeBadRequest    = "invalid_request"
	CodeAPIError      = "api_error"
	CodeInternalError = "internal_error"
)

// APIError describes a failed API call. Status 0 means the request never
// reached the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result is the outcome of an API call. Every failure path resolves to a
// tagged result; callers never see a panic or an untyped error.
type Result[T any] struct {
	Success bool
	Data    T
	Err     *APIError
}

func failure[T any](status int, code, message string) Result[T] {
	return Result[T]{Err: &APIError{Status: status, Code: code, Message: message}}
}

// apiEnvelope is the server's response envelope.
type apiEnvelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

type response struct {
	status int
	body   []byte
}

// errServerFault marks a 5xx so the breaker counts it against the upstream.
var errServerFault = errors.New("server fault")

// Client is the authenticated gateway to the remote cart API. It attaches
// the bearer credential when one is present, classifies HTTP failures, and
// sits behind a circuit breaker so a struggling upstream fails fast.
type Client struct {
	baseURL string
	http    *http.Client
	sess    *session.Store
	bus     *signal.Bus
	breaker *gobreaker.CircuitBreaker[*response]
}

func NewClient(baseURL string, sess *session.Store, bus *signal.Bus) *Client {
	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "cart-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		sess:    sess,
		bus:     bus,
		breaker: breaker,
	}
}

// GetCart fetches the authenticated user's cart.
func (c *Client) GetCart(ctx context.Context) Result[domain.CartPayload] {
	return request[domain.CartPayload](c, ctx, http.MethodGet, "/api/cart", nil)
}

// AddItem adds a product to the authenticated user's cart.
func (c *Client) AddItem(ctx context.Context, productID string, quantity int) Result[domain.CartPayload] {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	return request[domain.CartPayload](c, ctx, http.MethodPost, "/api/cart", body)
}

// Me fetches the identity behind the current credential.
func (c *Client) Me(ctx context.Context) Result[session.Identity] {
	return request[session.Identity](c, ctx, http.MethodGet, "/api/auth/me", nil)
}

// request is the generic call primitive. All failures, transport-level
// included, resolve to a failed Result.
func request[T any](c *Client, ctx context.Context, method, path string, body any) Result[T] {
	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.do(ctx, method, path, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return failure[T](0, CodeUnavailable, "cart api circuit open")
		}
		if resp != nil {
			return failure[T](resp.status, CodeInternalError, serverMessage(resp.body))
		}
		return failure[T](0, CodeNetwork, err.Error())
	}

	switch {
	case resp.status == http.StatusUnauthorized:
		// An expired or revoked credential invalidates the whole session.
		// Dependent state re-derives off the storage-changed signal.
		if strings.HasPrefix(path, "/api/auth") {
			c.sess.Clear()
			c.bus.Publish(signal.StorageChanged)
		}
		return failure[T](resp.status, CodeUnauth, serverMessage(resp.body))

	case resp.status == http.StatusForbidden:
		msg := serverMessage(resp.body)
		log.Printf("cart api forbidden on %s (role %q): %s", path, c.sess.Identity().Role, msg)
		return failure[T](resp.status, CodeForbidden, msg)

	case resp.status == http.StatusTooManyRequests:
		return failure[T](resp.status, CodeRateLimited, serverMessage(resp.body))

	case resp.status == http.StatusNotFound:
		return failure[T](resp.status, CodeNotFound, serverMessage(resp.body))

	case resp.status >= 400:
		return failure[T](resp.status, CodeBadRequest, serverMessage(resp.body))
	}

	var envelope apiEnvelope[T]
	if err := json.Unmarshal(resp.body, &envelope); err != nil {
		return failure[T](resp.status, CodeAPIError, "malformed response body")
	}
	if !envelope.Success {
		return failure[T](resp.status, CodeAPIError, envelope.Error)
	}
	return Result[T]{Success: true, Data: envelope.Data}
}

// do performs one HTTP exchange. It returns an error only for transport
// failures and 5xx responses, which is what the breaker trips on.
func (c *Client) do(ctx context.Context, method, path string, body any) (*response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.sess.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cart api request failed: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	resp := &response{status: httpResp.StatusCode, body: data}
	if httpResp.StatusCode >= 500 {
		return resp, errServerFault
	}
	return resp, nil
}

func serverMessage(body []byte) string {
	var envelope apiEnvelope[json.RawMessage]
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return "request failed"
}
