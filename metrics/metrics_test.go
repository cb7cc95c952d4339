package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultline/lockbox/document"
	"github.com/vaultline/lockbox/errs"
	"github.com/vaultline/lockbox/masterkey"
	"github.com/vaultline/lockbox/storage"
	"github.com/vaultline/lockbox/transport"
)

// fakeTransport is a minimal in-memory transport.DocumentTransport, just
// enough to drive a storage.Facade through CreateMasterKey/Insert/Get for
// these tests.
type fakeTransport struct {
	mu        sync.Mutex
	masterKey *masterkey.WrappedMasterKey
	docs      map[string]*document.EncryptedDocument
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{docs: make(map[string]*document.EncryptedDocument)}
}

func (f *fakeTransport) PutMasterKeyIfAbsent(ctx context.Context, w *masterkey.WrappedMasterKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.masterKey != nil {
		return errs.ErrDuplicate
	}
	f.masterKey = w
	return nil
}

func (f *fakeTransport) PostMasterKey(ctx context.Context, w *masterkey.WrappedMasterKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.masterKey = w
	return nil
}

func (f *fakeTransport) GetMasterKey(ctx context.Context) (*masterkey.WrappedMasterKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.masterKey == nil {
		return nil, errs.ErrNotFound
	}
	return f.masterKey, nil
}

func (f *fakeTransport) PostDocument(ctx context.Context, doc *document.EncryptedDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[doc.ID]; ok {
		return errs.ErrDuplicate
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeTransport) PutDocument(ctx context.Context, blindedID string, doc *document.EncryptedDocument) (*document.EncryptedDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[blindedID] = doc
	return doc, nil
}

func (f *fakeTransport) GetDocument(ctx context.Context, blindedID string) (*document.EncryptedDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[blindedID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return doc, nil
}

func (f *fakeTransport) DeleteDocument(ctx context.Context, blindedID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[blindedID]; !ok {
		return false, nil
	}
	delete(f.docs, blindedID)
	return true, nil
}

func (f *fakeTransport) Query(ctx context.Context, q *transport.BlindedQueryPayload) ([]*document.EncryptedDocument, error) {
	return nil, nil
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider()
	require.NoError(t, err)
	assert.NotNil(t, provider)
	assert.NotNil(t, provider.Handler())

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestProviderNewMetricsRecordsAgainstHandler(t *testing.T) {
	provider, err := NewProvider()
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	m, err := provider.NewMetrics()
	require.NoError(t, err)

	m.RecordOperation(context.Background(), "insert", "success")
	m.RecordDuration(context.Background(), "insert", 5*time.Millisecond, "success")

	body := scrape(t, provider)
	assertMetricLine(t, body, "lockbox_operations_total", `operation="insert".*status="success"`, "1")
	assert.Contains(t, body, "lockbox_operation_duration_seconds")
}

// TestFacadeWithMetricsRecordsRealOperations wraps a real storage.Facade
// (backed by an in-memory transport) with NewFacadeWithMetrics and checks
// that driving actual Insert/Get calls through it produces counter and
// histogram samples scraped back out of the Provider's Prometheus handler.
func TestFacadeWithMetricsRecordsRealOperations(t *testing.T) {
	provider, err := NewProvider()
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	m, err := provider.NewMetrics()
	require.NoError(t, err)

	ft := newFakeTransport()
	f, err := storage.NewFacade("acct-1", ft)
	require.NoError(t, err)

	facade := storage.NewFacadeWithMetrics(f, m)

	ctx := context.Background()
	require.NoError(t, facade.CreateMasterKey(ctx, []byte("hunter2")))
	require.NoError(t, facade.Insert(ctx, map[string]any{"id": "doc-1", "a": 1.0}))

	_, err = facade.Get(ctx, "missing-id")
	assert.Error(t, err)

	body := scrape(t, provider)
	assertMetricLine(t, body, "lockbox_operations_total", `operation="create_master_key".*status="success"`, "1")
	assertMetricLine(t, body, "lockbox_operations_total", `operation="insert".*status="success"`, "1")
	assertMetricLine(t, body, "lockbox_operations_total", `operation="get".*status="error"`, "1")
	assert.Contains(t, body, `lockbox_operation_duration_seconds_count{operation="insert"`)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	provider.Handler().ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return string(body)
}

// assertMetricLine checks that the scraped output contains a sample line
// for name whose label set matches labelPattern and whose value is value.
// Matching on a label-set regex rather than an exact line tolerates the
// extra otel_scope_* labels the Prometheus exporter injects.
func assertMetricLine(t *testing.T, output, name, labelPattern, value string) {
	t.Helper()
	pattern := regexp.QuoteMeta(name) + `\{[^}]*` + labelPattern + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}
