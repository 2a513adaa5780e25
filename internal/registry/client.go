// Package registry is the typed HTTP client for the schema-registry admin
// backend. Every method is a single fire-and-forget request: no retry, no
// backoff, no transport-level caching. Retrying is the user's job.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"regatta/internal/log"
)

// Client talks to the admin backend. The authorization token is attached to
// every request; 401 handling is centralized here and surfaced as
// ErrAuthRejected for the session gate.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// New creates a client for the given base URL (scheme://host[:port]) using
// the prebuilt authorization token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{},
	}
}

// call performs one JSON request. body is marshaled when non-nil; out is
// decoded into when non-nil. Error taxonomy per the client contract:
// 401 → *AuthError, other non-2xx → *RequestError (with the backend's
// {error} message when present), transport failure → *RequestError with
// Status 0 and no structured message.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	log.Debug(log.CatAPI, "Request", "method", method, "path", path)
	resp, err := c.httpc.Do(req)
	if err != nil {
		log.ErrorErr(log.CatAPI, "Request failed", err, "method", method, "path", path)
		return &RequestError{Endpoint: path, Message: "backend unreachable"}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		log.Warn(log.CatAuth, "Authentication rejected", "path", path)
		return &AuthError{Endpoint: path}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.requestError(path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Endpoint: path, Status: resp.StatusCode, Message: "malformed response"}
	}
	return nil
}

// requestError unwraps the backend's {error: string} envelope, falling back
// to a generic message when the body is absent or not structured.
func (c *Client) requestError(path string, resp *http.Response) error {
	reqErr := &RequestError{
		Endpoint: path,
		Status:   resp.StatusCode,
		Message:  fmt.Sprintf("unexpected status %d", resp.StatusCode),
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
		reqErr.Message = envelope.Error
		reqErr.Structured = true
	}
	log.Warn(log.CatAPI, "Backend error", "path", path, "status", resp.StatusCode, "message", reqErr.Message)
	return reqErr
}

// Environments lists the configured backend targets.
func (c *Client) Environments(ctx context.Context) ([]Environment, error) {
	var out environmentsResponse
	if err := c.call(ctx, http.MethodGet, "/api/environments", nil, &out); err != nil {
		return nil, err
	}
	return out.Environments, nil
}

// HealthCheck runs the full health-check suite against an environment.
func (c *Client) HealthCheck(ctx context.Context, env string) (*HealthReport, error) {
	var out HealthReport
	path := "/api/check/" + url.PathEscape(env)
	if err := c.call(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Schemas lists subjects for an environment, optionally filtered.
func (c *Client) Schemas(ctx context.Context, env string, filter SchemaFilter) ([]SubjectSummary, error) {
	q := url.Values{}
	if filter.Pattern != "" {
		q.Set("pattern", filter.Pattern)
	}
	if filter.MinVersions > 0 {
		q.Set("min_versions", strconv.Itoa(filter.MinVersions))
	}
	if filter.IncludeDeleted {
		q.Set("include_deleted", "true")
	}
	path := "/api/schemas/" + url.PathEscape(env)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out schemasResponse
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Subjects, nil
}

// SoftDelete marks a subject deleted but recoverable. No confirm assertion is
// required in the body; the UI-level confirmation is the only gate.
func (c *Client) SoftDelete(ctx context.Context, env, subject string) (*DeleteResult, error) {
	var out DeleteResult
	path := "/api/schemas/" + url.PathEscape(env) + "/" + url.PathEscape(subject) + "/soft-delete"
	if err := c.call(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HardDelete irreversibly removes a subject. The request body asserts
// confirm:true; the backend is trusted to refuse hard deletes without it.
func (c *Client) HardDelete(ctx context.Context, env, subject string) (*DeleteResult, error) {
	var out DeleteResult
	path := "/api/schemas/" + url.PathEscape(env) + "/" + url.PathEscape(subject) + "/hard-delete"
	if err := c.call(ctx, http.MethodPost, path, confirmBody{Confirm: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkDelete deletes the given subjects with soft or hard semantics. Subjects
// fail independently; the result reports counts, not a transaction.
func (c *Client) BulkDelete(ctx context.Context, env string, subjects []string, typ BulkType) (*BulkResult, error) {
	var out BulkResult
	path := "/api/bulk-delete/" + url.PathEscape(env)
	req := bulkDeleteRequest{Subjects: subjects, Type: typ, Confirm: true}
	if err := c.call(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PurgeSoftDeleted permanently removes every soft-deleted subject in an
// environment. Returns the number purged. The backend has shipped the count
// as both success_count and count; success_count is canonical and count is
// accepted as a deprecated fallback, normalized here so callers never see
// the ambiguity.
func (c *Client) PurgeSoftDeleted(ctx context.Context, env string) (int, error) {
	var out purgeResponse
	path := "/api/purge-soft-deleted/" + url.PathEscape(env)
	if err := c.call(ctx, http.MethodPost, path, confirmBody{Confirm: true}, &out); err != nil {
		return 0, err
	}
	switch {
	case out.SuccessCount != nil:
		return *out.SuccessCount, nil
	case out.Count != nil:
		return *out.Count, nil
	default:
		return 0, nil
	}
}

// Topics lists broker topics with their schema associations.
func (c *Client) Topics(ctx context.Context, env string) ([]TopicSummary, error) {
	var out topicsResponse
	path := "/api/asyncapi/topics/" + url.PathEscape(env)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Topics, nil
}

// GenerateSpec asks the backend to generate an AsyncAPI spec for a topic.
func (c *Client) GenerateSpec(ctx context.Context, env, topic string) (*GenerateResult, error) {
	var out GenerateResult
	path := "/api/asyncapi/generate/" + url.PathEscape(env) + "/" + url.PathEscape(topic)
	if err := c.call(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSpecs lists previously generated specs stored on the backend.
func (c *Client) ListSpecs(ctx context.Context) ([]SpecSummary, error) {
	var out specsResponse
	if err := c.call(ctx, http.MethodGet, "/api/asyncapi/specs", nil, &out); err != nil {
		return nil, err
	}
	return out.Specs, nil
}

// GetSpec fetches the raw YAML body of a stored spec.
func (c *Client) GetSpec(ctx context.Context, filename string) (string, error) {
	path := "/api/asyncapi/specs/" + url.PathEscape(filename) + "?format=yaml"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", &RequestError{Endpoint: path, Message: "backend unreachable"}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", &AuthError{Endpoint: path}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.requestError(path, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RequestError{Endpoint: path, Status: resp.StatusCode, Message: "reading response"}
	}
	return string(body), nil
}

// DownloadSpec streams a stored spec to destPath. This is the terminal
// equivalent of the browser navigating to the download endpoint.
func (c *Client) DownloadSpec(ctx context.Context, filename, destPath string) error {
	path := "/api/asyncapi/download/" + url.PathEscape(filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &RequestError{Endpoint: path, Message: "backend unreachable"}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{Endpoint: path}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.requestError(path, resp)
	}

	f, err := os.Create(destPath) //nolint:gosec // G304: destination chosen by the user
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	log.Info(log.CatSpec, "Spec downloaded", "filename", filename, "dest", destPath)
	return nil
}

// History fetches the server-side operation history, newest first. limit <= 0
// means the backend default; env filters to one environment when non-empty.
func (c *Client) History(ctx context.Context, env string, limit int) ([]HistoryEntry, error) {
	q := url.Values{}
	if env != "" {
		q.Set("env", env)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/history"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out historyResponse
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

// ChatStart opens a new assistant session and returns its id.
func (c *Client) ChatStart(ctx context.Context) (string, error) {
	var out chatStartResponse
	if err := c.call(ctx, http.MethodPost, "/api/chat/start", nil, &out); err != nil {
		return "", err
	}
	return out.SessionID, nil
}

// ChatMessage sends a message within an assistant session.
func (c *Client) ChatMessage(ctx context.Context, sessionID, message, env string) (string, error) {
	var out chatMessageResponse
	req := chatMessageRequest{SessionID: sessionID, Message: message, Environment: env}
	if err := c.call(ctx, http.MethodPost, "/api/chat/message", req, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}
