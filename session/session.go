package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Session is an authenticated transport bound to one server profile.
// The cookie jar lives in memory only.
type Session struct {
	id        string
	baseURL   *url.URL
	client    *http.Client
	userAgent string
	createdAt time.Time

	// logins deduplicates concurrent re-authentication of this session only
	logins singleflight.Group
}

// ID returns the profile id the session belongs to
func (s *Session) ID() string {
	return s.id
}

// BaseURL returns the API root the session talks to
func (s *Session) BaseURL() string {
	return s.baseURL.String()
}

// Cookies returns the cookies currently held for the server.
func (s *Session) Cookies() []*http.Cookie {
	if s.client.Jar == nil {
		return nil
	}
	return s.client.Jar.Cookies(s.baseURL)
}

// endpoint resolves an API v2 path against the base URL
func (s *Session) endpoint(path string, params url.Values) string {
	u := *s.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v2/" + strings.TrimLeft(path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

// Get issues a GET request against an API v2 endpoint
func (s *Session) Get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(path, params), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return s.do(req)
}

// PostForm issues a form-encoded POST request against an API v2 endpoint
func (s *Session) PostForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(path, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *Session) do(req *http.Request) (*http.Response, error) {
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	return s.client.Do(req)
}

// Response is the raw outcome of an operation.
// Body is nil when the daemon sent nothing usable.
type Response[T any] struct {
	StatusCode int
	Status     string
	Body       *T
}

// Successful reports a 2xx status
func (r *Response[T]) Successful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Forbidden reports whether the daemon rejected the session.
func (r *Response[T]) Forbidden() bool {
	return r.StatusCode == http.StatusForbidden
}

// Operation is a unit of work run against a live session.
// It may run twice when a login happens in between.
type Operation[T any] func(ctx context.Context, s *Session) (*Response[T], error)

// ReadJSON decodes a 2xx JSON body and closes it. Other statuses yield a nil Body.
func ReadJSON[T any](resp *http.Response) (*Response[T], error) {
	defer resp.Body.Close()

	out := &Response[T]{StatusCode: resp.StatusCode, Status: resp.Status}
	if !out.Successful() {
		_, _ = io.Copy(io.Discard, resp.Body)
		return out, nil
	}

	var body T
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &DecodeError{Endpoint: requestPath(resp), Err: err}
	}
	out.Body = &body

	return out, nil
}

// ReadText reads a 2xx plain-text body and closes it. Other statuses yield a nil Body.
func ReadText(resp *http.Response) (*Response[string], error) {
	defer resp.Body.Close()

	out := &Response[string]{StatusCode: resp.StatusCode, Status: resp.Status}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DecodeError{Endpoint: requestPath(resp), Err: err}
	}
	if out.Successful() {
		text := string(data)
		out.Body = &text
	}

	return out, nil
}

func requestPath(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return "unknown"
	}
	return resp.Request.URL.Path
}

// GetJSON builds an operation that GETs an endpoint and decodes JSON
func GetJSON[T any](path string, params url.Values) Operation[T] {
	return func(ctx context.Context, s *Session) (*Response[T], error) {
		resp, err := s.Get(ctx, path, params)
		if err != nil {
			return nil, err
		}
		return ReadJSON[T](resp)
	}
}

// GetText builds an operation that GETs an endpoint returning plain text
func GetText(path string, params url.Values) Operation[string] {
	return func(ctx context.Context, s *Session) (*Response[string], error) {
		resp, err := s.Get(ctx, path, params)
		if err != nil {
			return nil, err
		}
		return ReadText(resp)
	}
}

// PostText builds an operation that POSTs a form and reads a plain-text reply
func PostText(path string, form url.Values) Operation[string] {
	return func(ctx context.Context, s *Session) (*Response[string], error) {
		resp, err := s.PostForm(ctx, path, form)
		if err != nil {
			return nil, err
		}
		return ReadText(resp)
	}
}
