// Package transporthttp is a concrete transport.DocumentTransport backed
// by an HTTP storage server, reached with a retrying client and a
// client-side rate limiter.
package transporthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/vaultline/lockbox/document"
	"github.com/vaultline/lockbox/errs"
	"github.com/vaultline/lockbox/masterkey"
	"github.com/vaultline/lockbox/transport"
)

const defaultBaseURL = "/private-storage"

var _ transport.DocumentTransport = (*Transport)(nil)

// Transport implements transport.DocumentTransport against an HTTP
// storage server rooted at {baseURL}/{urlencode(accountID)}.
type Transport struct {
	root    string
	client  *retryablehttp.Client
	limiter *rate.Limiter
}

// Option configures a Transport at construction time.
type Option func(*Transport)

// WithBaseURL overrides the default "/private-storage" root. serverURL
// should be an absolute URL (e.g. "https://storage.example.com").
func WithBaseURL(serverURL string) Option {
	return func(t *Transport) {
		t.root = serverURL
	}
}

// WithRateLimit bounds outbound requests to rps requests per second with
// the given burst capacity. With no WithRateLimit option, requests are
// unbounded.
func WithRateLimit(rps float64, burst int) Option {
	return func(t *Transport) {
		t.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger routes the retrying client's diagnostics through logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.client.Logger = retryableHTTPLogger{logger}
	}
}

// WithHTTPClient replaces the underlying *http.Client used to actually
// perform requests (e.g. to inject a custom transport/timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(t *Transport) {
		t.client.HTTPClient = hc
	}
}

// New builds a Transport scoped to accountID. baseURL defaults to
// "/private-storage" resolved against the server root provided via
// WithBaseURL.
func New(accountID string, opts ...Option) *Transport {
	client := retryablehttp.NewClient()
	client.Logger = nil

	t := &Transport{root: defaultBaseURL, client: client}
	for _, opt := range opts {
		opt(t)
	}
	t.root = fmt.Sprintf("%s/%s", t.root, url.PathEscape(accountID))
	return t
}

func (t *Transport) wait(ctx context.Context) error {
	if t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

func (t *Transport) do(ctx context.Context, method, path string, body any, ifAbsent bool) (*http.Response, error) {
	if err := t.wait(ctx); err != nil {
		return nil, errs.Wrap(errs.ErrCancelled, err.Error())
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errs.Wrap(errs.ErrInvalidArgument, err.Error())
		}
		reader = bytes.NewReader(payload)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, t.root+path, reader)
	if err != nil {
		return nil, errs.NewTransportError(method+" "+path, 0, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ifAbsent {
		req.Header.Set("If-None-Match", "*")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.ErrCancelled, err.Error())
		}
		return nil, errs.NewTransportError(method+" "+path, 0, err)
	}
	return resp, nil
}

func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.ErrFormat, err.Error())
	}
	return nil
}

// PutMasterKeyIfAbsent implements transport.DocumentTransport.
func (t *Transport) PutMasterKeyIfAbsent(ctx context.Context, w *masterkey.WrappedMasterKey) error {
	resp, err := t.do(ctx, http.MethodPut, "/master-key", w, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified || resp.StatusCode == http.StatusConflict:
		return errs.ErrDuplicate
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return errs.NewTransportError("PUT /master-key", resp.StatusCode, nil)
	}
}

// PostMasterKey implements transport.DocumentTransport.
func (t *Transport) PostMasterKey(ctx context.Context, w *masterkey.WrappedMasterKey) error {
	resp, err := t.do(ctx, http.MethodPost, "/master-key", w, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.NewTransportError("POST /master-key", resp.StatusCode, nil)
	}
	return nil
}

// GetMasterKey implements transport.DocumentTransport.
func (t *Transport) GetMasterKey(ctx context.Context) (*masterkey.WrappedMasterKey, error) {
	resp, err := t.do(ctx, http.MethodGet, "/master-key", nil, false)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, errs.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, errs.NewTransportError("GET /master-key", resp.StatusCode, nil)
	}

	var w masterkey.WrappedMasterKey
	if err := decodeJSON(resp, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// PostDocument implements transport.DocumentTransport.
func (t *Transport) PostDocument(ctx context.Context, doc *document.EncryptedDocument) error {
	resp, err := t.do(ctx, http.MethodPost, "/documents", doc, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return errs.ErrDuplicate
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return errs.NewTransportError("POST /documents", resp.StatusCode, nil)
	}
}

// PutDocument implements transport.DocumentTransport.
func (t *Transport) PutDocument(ctx context.Context, blindedID string, doc *document.EncryptedDocument) (*document.EncryptedDocument, error) {
	resp, err := t.do(ctx, http.MethodPut, "/documents/"+url.PathEscape(blindedID), doc, false)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, errs.NewTransportError("PUT /documents/{id}", resp.StatusCode, nil)
	}

	if resp.ContentLength == 0 {
		resp.Body.Close()
		return doc, nil
	}

	var stored document.EncryptedDocument
	if err := decodeJSON(resp, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetDocument implements transport.DocumentTransport.
func (t *Transport) GetDocument(ctx context.Context, blindedID string) (*document.EncryptedDocument, error) {
	resp, err := t.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(blindedID), nil, false)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, errs.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, errs.NewTransportError("GET /documents/{id}", resp.StatusCode, nil)
	}

	var doc document.EncryptedDocument
	if err := decodeJSON(resp, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument implements transport.DocumentTransport.
func (t *Transport) DeleteDocument(ctx context.Context, blindedID string) (bool, error) {
	resp, err := t.do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(blindedID), nil, false)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, errs.NewTransportError("DELETE /documents/{id}", resp.StatusCode, nil)
	}
}

// Query implements transport.DocumentTransport.
func (t *Transport) Query(ctx context.Context, q *transport.BlindedQueryPayload) ([]*document.EncryptedDocument, error) {
	resp, err := t.do(ctx, http.MethodPost, "/query", q, false)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, errs.NewTransportError("POST /query", resp.StatusCode, nil)
	}

	var docs []*document.EncryptedDocument
	if err := decodeJSON(resp, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// retryableHTTPLogger adapts *slog.Logger to retryablehttp.LeveledLogger.
type retryableHTTPLogger struct {
	logger *slog.Logger
}

func (l retryableHTTPLogger) Error(msg string, kv ...any) { l.logger.Error(msg, kv...) }
func (l retryableHTTPLogger) Info(msg string, kv ...any)  { l.logger.Info(msg, kv...) }
func (l retryableHTTPLogger) Debug(msg string, kv ...any) { l.logger.Debug(msg, kv...) }
func (l retryableHTTPLogger) Warn(msg string, kv ...any)  { l.logger.Warn(msg, kv...) }
