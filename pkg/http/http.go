// Package http provides a fluent, retry-aware HTTP client for the storefront
// backend.
//
// Usage:
//
//	c := http.NewClient("http://localhost:5000/api/")
//	c.Token = session.Token
//
//	resp, err := c.Get("records/7").Name("records.get").Send(ctx)
//	if err == nil {
//	    err = resp.Throw()
//	}
//
//	var rec Record
//	err = resp.JSON(&rec)
//
//	// multipart form
//	resp, err := c.Post("records").
//	    Form("titleRecord", "Kind of Blue").
//	    File("photo", "cover.jpg", f).
//	    Send(ctx)
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	gohttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shashiranjanraj/recordshop/pkg/logger"
	"github.com/shashiranjanraj/recordshop/pkg/metrics"
	"github.com/shashiranjanraj/recordshop/pkg/reqid"
	"github.com/shashiranjanraj/recordshop/pkg/telemetry"
)

// defaultTransport is the connection-pooled transport used in production.
// Tests can replace DefaultClient.Transport to inject mocks.
var defaultTransport gohttp.RoundTripper = telemetry.Transport(&gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        50,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
})

// DefaultClient is the shared HTTP client used by every outgoing request.
// Tests can swap DefaultClient.Transport to intercept calls:
//
//	http.DefaultClient.Transport = myMockTransport
//	defer http.ResetTransport()
var DefaultClient = &gohttp.Client{
	Transport: defaultTransport,
}

// ResetTransport restores the production transport on DefaultClient.
func ResetTransport() {
	DefaultClient.Transport = defaultTransport
}

// ------------------- Client -------------------

// Client binds requests to a base URL and a bearer token source.
type Client struct {
	BaseURL string
	// Token is consulted on every request; an empty token sends no
	// Authorization header.
	Token     func() string
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
	// HTTP overrides DefaultClient when set.
	HTTP *gohttp.Client
}

// NewClient returns a Client with the package defaults.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:   baseURL,
		Timeout:   30 * time.Second,
		Retries:   1,
		RetryWait: 500 * time.Millisecond,
	}
}

func (c *Client) Get(path string) *Request    { return c.request(gohttp.MethodGet, path) }
func (c *Client) Post(path string) *Request   { return c.request(gohttp.MethodPost, path) }
func (c *Client) Put(path string) *Request    { return c.request(gohttp.MethodPut, path) }
func (c *Client) Delete(path string) *Request { return c.request(gohttp.MethodDelete, path) }

func (c *Client) request(method, path string) *Request {
	r := newRequest(method, c.resolve(path))
	r.name = path
	r.client = c.HTTP
	if c.Timeout > 0 {
		r.timeout = c.Timeout
	}
	if c.Retries > 0 {
		r.retries = c.Retries
	}
	if c.RetryWait > 0 {
		r.retryWait = c.RetryWait
	}
	if c.Token != nil {
		if tok := c.Token(); tok != "" {
			r.Bearer(tok)
		}
	}
	return r
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base := c.BaseURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(path, "/")
}

// ------------------- Request -------------------

// Request is a fluent HTTP request builder.
type Request struct {
	method    string
	url       string
	name      string
	headers   map[string]string
	query     url.Values
	body      interface{}
	form      []formField
	files     []formFile
	timeout   time.Duration
	retries   int
	retryWait time.Duration
	client    *gohttp.Client
}

type formField struct{ key, value string }

type formFile struct {
	field, filename string
	r               io.Reader
}

// Get starts a GET request against an absolute URL.
func Get(rawURL string) *Request { return newRequest(gohttp.MethodGet, rawURL) }

// Post starts a POST request against an absolute URL.
func Post(rawURL string) *Request { return newRequest(gohttp.MethodPost, rawURL) }

func newRequest(method, rawURL string) *Request {
	return &Request{
		method:    method,
		url:       rawURL,
		name:      rawURL,
		headers:   map[string]string{"Accept": "application/json"},
		query:     url.Values{},
		timeout:   30 * time.Second,
		retries:   1,
		retryWait: 500 * time.Millisecond,
	}
}


// Header adds a single header to the request.
func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Bearer sets the Authorization: Bearer <token> header.
func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// Name overrides the endpoint label used for metrics and logs. Paths that
// embed ids or emails should be named so the label set stays bounded.
func (r *Request) Name(name string) *Request {
	r.name = name
	return r
}

// Query appends a query-string parameter.
func (r *Request) Query(key, value string) *Request {
	r.query.Add(key, value)
	return r
}

// Body sets a JSON body. Pass a string or []byte to send raw bodies.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

// JSONText sends s JSON-encoded, i.e. as a quoted string literal with an
// application/json content type.
func (r *Request) JSONText(s string) *Request {
	b, _ := json.Marshal(s)
	r.body = json.RawMessage(b)
	return r
}

// Form adds a multipart form field. Any form field or file switches the
// body to multipart/form-data.
func (r *Request) Form(key, value string) *Request {
	r.form = append(r.form, formField{key, value})
	return r
}

// File attaches a multipart file part. The reader is consumed on the first
// attempt, so file uploads are never retried.
func (r *Request) File(field, filename string, content io.Reader) *Request {
	r.files = append(r.files, formFile{field, filename, content})
	return r
}

// Timeout sets the per-attempt timeout.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry configures automatic retries on transport failure.
// n is total attempts (1 = no retry), wait is the initial backoff (doubles each attempt).
func (r *Request) Retry(n int, wait time.Duration) *Request {
	r.retries = n
	r.retryWait = wait
	return r
}

// ------------------- Send -------------------

// Send executes the request. A non-2xx status is not an error here; call
// Response.Throw to turn it into one.
func (r *Request) Send(ctx context.Context) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, id := reqid.Ensure(ctx)
	r.headers[reqid.Header] = id

	attempts := r.retries
	if len(r.files) > 0 || attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := r.do(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			backoff := time.Duration(float64(r.retryWait) * math.Pow(2, float64(attempt-1)))
			logger.WithCtx(ctx).Warn("http: request failed, retrying",
				"endpoint", r.name, "attempt", attempt, "backoff", backoff, "error", err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("http: %s %s: %w", r.method, r.name, ctx.Err())
			}
		}
	}

	return nil, fmt.Errorf("http: %s %s: %w", r.method, r.name, lastErr)
}

func (r *Request) do(ctx context.Context) (*Response, error) {
	start := time.Now()

	body, ct, err := r.buildBody()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	target := r.url
	if len(r.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.query.Encode()
	}

	req, err := gohttp.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	client := r.client
	if client == nil {
		client = DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		metrics.ObserveAPI(r.method, r.name, 0, start)
		return nil, fmt.Errorf("send: %w", err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	metrics.ObserveAPI(r.method, r.name, resp.StatusCode, start)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	logger.WithCtx(ctx).Debug("http: call",
		"method", r.method, "endpoint", r.name, "status", resp.StatusCode,
		"duration", time.Since(start))

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Raw:        raw,
		Method:     r.method,
		Endpoint:   r.name,
	}, nil
}

func (r *Request) buildBody() (io.Reader, string, error) {
	if len(r.form) > 0 || len(r.files) > 0 {
		return r.buildMultipart()
	}
	if r.body == nil {
		return nil, "", nil
	}
	switch v := r.body.(type) {
	case string:
		return strings.NewReader(v), "text/plain", nil
	case json.RawMessage:
		return bytes.NewReader(v), "application/json", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("marshal body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

func (r *Request) buildMultipart() (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range r.form {
		if err := mw.WriteField(f.key, f.value); err != nil {
			return nil, "", fmt.Errorf("multipart field %s: %w", f.key, err)
		}
	}
	for _, f := range r.files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		if err != nil {
			return nil, "", fmt.Errorf("multipart file %s: %w", f.field, err)
		}
		if _, err := io.Copy(part, f.r); err != nil {
			return nil, "", fmt.Errorf("multipart file %s: %w", f.field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// ------------------- Response -------------------

// Response wraps the HTTP response with convenience methods.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
	Method     string
	Endpoint   string
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON unmarshals the response body into dest.
func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON from %s: %w", r.Endpoint, err)
	}
	return nil
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Raw)
}

// Header returns a single response header value.
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

// StatusError is returned by Throw for non-2xx responses.
type StatusError struct {
	StatusCode int
	Method     string
	Endpoint   string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http: %s %s failed with status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

// Throw returns a *StatusError if the response status is not 2xx.
func (r *Response) Throw() error {
	if !r.OK() {
		return &StatusError{
			StatusCode: r.StatusCode,
			Method:     r.Method,
			Endpoint:   r.Endpoint,
			Body:       strings.TrimSpace(string(r.Raw)),
		}
	}
	return nil
}
