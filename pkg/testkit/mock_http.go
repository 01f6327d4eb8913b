// Package testkit fakes the storefront backend for package tests.
//
// A MockTransport is an http.RoundTripper holding a route table. Each route
// matches a method and a path suffix relative to the API base and answers
// with a canned status and body:
//
//	mt := testkit.NewMockTransport()
//	mt.On("GET", "records/7").JSON(200, map[string]any{"idRecord": 7, "stock": 2})
//	mt.On("POST", "CartDetails/addToCartDetailAndCart/a@b.c").Status(200)
//	defer mt.Install()()
//
// Routes can also be loaded from a JSON fixture file, see LoadRoutes.
package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
)

// Call records one intercepted request.
type Call struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Stub is the reply side of a route.
type Stub struct {
	method  string
	pattern string
	status  int
	body    []byte
	err     error
	calls   int
}

// Status answers with code and an empty body.
func (s *Stub) Status(code int) *Stub {
	s.status = code
	return s
}

// Body answers with code and a raw body.
func (s *Stub) Body(code int, body string) *Stub {
	s.status = code
	s.body = []byte(body)
	return s
}

// JSON answers with code and v encoded as JSON.
func (s *Stub) JSON(code int, v interface{}) *Stub {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testkit: marshal stub body: %v", err))
	}
	s.status = code
	s.body = b
	return s
}

// Fail makes the route return a transport error instead of a response.
func (s *Stub) Fail(err error) *Stub {
	s.err = err
	return s
}

// MockTransport implements http.RoundTripper over a route table.
type MockTransport struct {
	mu    sync.Mutex
	stubs []*Stub
	calls []Call
	// Strict turns unmatched requests into transport errors instead of 404s.
	Strict bool
}

// NewMockTransport returns an empty route table.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// On registers a route. pattern is matched against the end of the request
// path; a pattern containing '?' must also match the encoded query. Routes
// registered later win, so a test can override a shared fixture.
func (mt *MockTransport) On(method, pattern string) *Stub {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	s := &Stub{method: strings.ToUpper(method), pattern: strings.TrimPrefix(pattern, "/"), status: http.StatusOK}
	mt.stubs = append(mt.stubs, s)
	return s
}

// Install swaps the shared client's transport and returns the restore func.
func (mt *MockTransport) Install() func() {
	pkghttp.DefaultClient.Transport = mt
	return pkghttp.ResetTransport
}

// RoundTrip intercepts the outgoing request and returns a synthetic response.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.calls = append(mt.calls, Call{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.RawQuery,
		Header: req.Header.Clone(),
		Body:   body,
	})

	for i := len(mt.stubs) - 1; i >= 0; i-- {
		s := mt.stubs[i]
		if s.method != req.Method || !urlMatches(req, s.pattern) {
			continue
		}
		s.calls++
		if s.err != nil {
			return nil, s.err
		}
		return buildHTTPResponse(req, s.status, s.body), nil
	}

	if mt.Strict {
		return nil, fmt.Errorf("testkit: unexpected outgoing HTTP call %s %s", req.Method, req.URL)
	}
	return buildHTTPResponse(req, http.StatusNotFound, []byte(`{"error":"no mock configured"}`)), nil
}

// Calls returns a copy of every intercepted request in order.
func (mt *MockTransport) Calls() []Call {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	out := make([]Call, len(mt.calls))
	copy(out, mt.calls)
	return out
}

// CallCount returns how many requests hit method + pattern.
func (mt *MockTransport) CallCount(method, pattern string) int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	n := 0
	for _, s := range mt.stubs {
		if s.method == strings.ToUpper(method) && s.pattern == strings.TrimPrefix(pattern, "/") {
			n += s.calls
		}
	}
	return n
}

// AssertAllCalled returns one error per route that was never hit.
func (mt *MockTransport) AssertAllCalled() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var errs []error
	for _, s := range mt.stubs {
		if s.calls == 0 {
			errs = append(errs, fmt.Errorf("testkit: route %s %s was never called", s.method, s.pattern))
		}
	}
	return errs
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func urlMatches(req *http.Request, pattern string) bool {
	if pattern == "" {
		return true
	}
	path, query, hasQuery := strings.Cut(pattern, "?")
	if req.URL.Path != "/"+path && !strings.HasSuffix(req.URL.Path, "/"+path) {
		return false
	}
	if !hasQuery {
		return true
	}
	return req.URL.RawQuery == query
}

func buildHTTPResponse(req *http.Request, code int, body []byte) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}
}
