// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package apiclient talks to the remote catalog service over HTTP/JSON.
//
// # Endpoints
//
//	GET    /api/items              list items
//	POST   /api/items              create item
//	PUT    /api/items/{id}         update item
//	DELETE /api/items/{id}         delete item
//	GET    /api/categories         list categories
//	POST   /api/categories         create category
//	PUT    /api/categories/{id}    rename category
//	DELETE /api/categories/{id}    delete category
//	POST   /api/auth/login         exchange credentials for a token
//
// Every request carries an X-Request-ID. Requests carry a bearer token when
// the configured TokenSource has one. Failures are returned as *APIError.
//
// The client does no retries.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ilneora/storefront/pkg/catalog"
	"github.com/ilneora/storefront/pkg/telemetry"
)

const tracerName = "storefront.apiclient"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 8 << 20

// HeaderRequestID is the request correlation header.
const HeaderRequestID = "X-Request-ID"

// TokenSource supplies the bearer token for each request. An empty token
// means the request is sent unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed TokenSource.
type StaticToken string

// Token returns the fixed token.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// Credentials are the login inputs. The password is held in a locked
// buffer; the caller destroys it after Login returns.
//
// Login builds the request body from the locked bytes and wipes it once the
// request is done. Copies made inside net/http while writing the body are
// outside its reach.
type Credentials struct {
	Username string
	Password *memguard.LockedBuffer
}

// Client is the HTTP implementation of catalog.Remote plus login.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithRateLimit paces outbound requests. rps <= 0 disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the service at baseURL.
//
// # Inputs
//
//   - baseURL: Service root, e.g. "http://localhost:5000". A trailing slash
//     is removed.
//   - opts: Optional transport, token source, pacing and logger.
//
// # Examples
//
//	client := apiclient.New(cfg.API.BaseURL,
//	    apiclient.WithTokenSource(store),
//	    apiclient.WithTimeout(10*time.Second),
//	)
//	items, err := client.ListItems(ctx)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     StaticToken(""),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens == nil {
		c.tokens = StaticToken("")
	}
	return c
}

// BaseURL returns the normalised service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

var _ catalog.Remote = (*Client)(nil)

// -----------------------------------------------------------------------------
// Items
// -----------------------------------------------------------------------------

// ListItems fetches every item.
//
// A 2xx body that is not a JSON array (an object, a string, nothing) is
// read as an empty catalog. An array that fails to decode is still
// KindInvalidResponse.
func (c *Client) ListItems(ctx context.Context) ([]catalog.Item, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list_items", http.MethodGet, "/api/items", nil, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		c.logger.Warn("item list is not an array, showing no items", "bytes", len(raw))
		return []catalog.Item{}, nil
	}
	var items []catalog.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &APIError{
			Kind:      KindInvalidResponse,
			Operation: "list_items",
			Message:   "unexpected response from catalog service",
			Detail:    err.Error(),
			cause:     err,
		}
	}
	return items, nil
}

// CreateItem submits a new item and returns the server's record.
func (c *Client) CreateItem(ctx context.Context, draft catalog.ItemDraft) (catalog.Item, error) {
	var item catalog.Item
	err := c.do(ctx, "create_item", http.MethodPost, "/api/items", draft, &item)
	return item, err
}

// UpdateItem replaces an item's fields.
func (c *Client) UpdateItem(ctx context.Context, id string, draft catalog.ItemDraft) (catalog.Item, error) {
	var item catalog.Item
	err := c.do(ctx, "update_item", http.MethodPut, "/api/items/"+url.PathEscape(id), draft, &item)
	return item, err
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, "delete_item", http.MethodDelete, "/api/items/"+url.PathEscape(id), nil, nil)
}

// -----------------------------------------------------------------------------
// Categories
// -----------------------------------------------------------------------------

// ListCategories fetches every category.
func (c *Client) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var cats []catalog.Category
	if err := c.do(ctx, "list_categories", http.MethodGet, "/api/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// CreateCategory submits a new category.
func (c *Client) CreateCategory(ctx context.Context, draft catalog.CategoryDraft) (catalog.Category, error) {
	var cat catalog.Category
	err := c.do(ctx, "create_category", http.MethodPost, "/api/categories", draft, &cat)
	return cat, err
}

// UpdateCategory renames a category.
func (c *Client) UpdateCategory(ctx context.Context, id string, draft catalog.CategoryDraft) (catalog.Category, error) {
	var cat catalog.Category
	err := c.do(ctx, "update_category", http.MethodPut, "/api/categories/"+url.PathEscape(id), draft, &cat)
	return cat, err
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, "delete_category", http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil)
}

// -----------------------------------------------------------------------------
// Auth
// -----------------------------------------------------------------------------

// Login exchanges credentials for a token.
//
// # Outputs
//
//   - string: The token from the response's "token" field.
//   - error: *APIError. A rejected login without a service message gets
//     "login failed, please verify your credentials". A 2xx response with
//     no token is KindInvalidResponse.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	body, err := loginBody(creds)
	if err != nil {
		return "", fmt.Errorf("login: encode request: %w", err)
	}
	defer memguard.WipeBytes(body)

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", rawJSON(body), &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &APIError{
			Kind:      KindInvalidResponse,
			Operation: "login",
			Message:   msgLoginFailed,
			Detail:    "response carried no token",
		}
	}
	return resp.Token, nil
}

// -----------------------------------------------------------------------------
// Transport
// -----------------------------------------------------------------------------

// do runs one request with tracing and metrics around it.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "apiclient."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
	defer span.End()

	start := time.Now()
	err := c.roundTrip(ctx, op, method, path, in, out)
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if kind, ok := KindOf(err); ok {
			outcome = kind.String()
		}
		telemetry.RecordError(span, err)
		c.logger.Debug("catalog call failed", "operation", op, "outcome", outcome, "error", err)
	}
	requestsTotal.WithLabelValues(op, outcome).Inc()
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &APIError{Kind: KindCancelled, Operation: op, Message: msgCancelled, Detail: err.Error(), cause: err}
		}
	}

	var body io.Reader
	switch v := in.(type) {
	case nil:
	case rawJSON:
		body = bytes.NewReader(v)
	default:
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &APIError{Kind: KindConnection, Operation: op, Message: msgConnection, Detail: err.Error(), cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(HeaderRequestID, requestID(ctx))

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%s: read token: %w", op, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &APIError{Kind: KindCancelled, Operation: op, Message: msgCancelled, Detail: ctxErr.Error(), cause: ctxErr}
		}
		return &APIError{Kind: KindConnection, Operation: op, Message: msgConnection, Detail: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &APIError{Kind: KindConnection, Operation: op, Message: msgConnection, Detail: err.Error(), cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serviceMessage(data)
		if msg == "" {
			msg = rejectedFallback(op, resp.StatusCode)
		}
		return &APIError{
			Kind:      KindRejected,
			Operation: op,
			Status:    resp.StatusCode,
			Message:   msg,
			Detail:    strings.TrimSpace(string(data)),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{
			Kind:      KindInvalidResponse,
			Operation: op,
			Message:   "unexpected response from catalog service",
			Detail:    err.Error(),
			cause:     err,
		}
	}
	return nil
}

// rawJSON is a request body that is already encoded.
type rawJSON []byte

// loginBody encodes {"username","password"} without turning the password
// into a string. The slice is sized for the worst-case escaping so it is
// never reallocated, which would leave an unwiped copy behind.
func loginBody(creds Credentials) ([]byte, error) {
	user, err := json.Marshal(creds.Username)
	if err != nil {
		return nil, err
	}
	var pw []byte
	if creds.Password != nil {
		pw = creds.Password.Bytes()
	}
	buf := make([]byte, 0, len(`{"username":,"password":""}`)+len(user)+6*len(pw))
	buf = append(buf, `{"username":`...)
	buf = append(buf, user...)
	buf = append(buf, `,"password":`...)
	buf = appendJSONString(buf, pw)
	return append(buf, '}'), nil
}

// appendJSONString appends s as a quoted JSON string.
func appendJSONString(dst, s []byte) []byte {
	const hex = "0123456789abcdef"
	dst = append(dst, '"')
	for _, b := range s {
		switch {
		case b == '"' || b == '\\':
			dst = append(dst, '\\', b)
		case b < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hex[b>>4], hex[b&0xf])
		default:
			dst = append(dst, b)
		}
	}
	return append(dst, '"')
}

func rejectedFallback(op string, status int) string {
	if op == "login" {
		return msgLoginFailed
	}
	return fmt.Sprintf("request failed: %s", strings.ToLower(http.StatusText(status)))
}

type requestIDKey struct{}

// ContextWithRequestID makes outbound calls made with ctx reuse id instead
// of generating their own. The gateway uses it to propagate its inbound ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// IsCancelled reports whether err is a cancellation, including one that
// surfaced outside an APIError.
func IsCancelled(err error) bool {
	if kind, ok := KindOf(err); ok {
		return kind == KindCancelled
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
