package storage

import (
	"context"
	"time"

	"github.com/vaultline/lockbox/metrics"
	"github.com/vaultline/lockbox/query"
	"github.com/vaultline/lockbox/transport"
)

var _ Interface = (*facadeWithMetrics)(nil)

// facadeWithMetrics decorates Interface with operation/duration recording.
type facadeWithMetrics struct {
	next    Interface
	metrics metrics.Metrics
}

// NewFacadeWithMetrics wraps next so every operation records its outcome
// and duration through m.
func NewFacadeWithMetrics(next Interface, m metrics.Metrics) Interface {
	return &facadeWithMetrics{next: next, metrics: m}
}

func (f *facadeWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	f.metrics.RecordOperation(ctx, operation, status)
	f.metrics.RecordDuration(ctx, operation, time.Since(start), status)
}

func (f *facadeWithMetrics) EnsureIndex(name string) {
	f.next.EnsureIndex(name)
}

func (f *facadeWithMetrics) OnMasterKeyRequest(listener transport.Listener) error {
	return f.next.OnMasterKeyRequest(listener)
}

func (f *facadeWithMetrics) CreateMasterKey(ctx context.Context, password []byte) error {
	start := time.Now()
	err := f.next.CreateMasterKey(ctx, password)
	f.record(ctx, "create_master_key", start, err)
	return err
}

func (f *facadeWithMetrics) ChangeMasterKeyPassword(ctx context.Context, newPassword []byte) error {
	start := time.Now()
	err := f.next.ChangeMasterKeyPassword(ctx, newPassword)
	f.record(ctx, "change_master_key_password", start, err)
	return err
}

func (f *facadeWithMetrics) UnlockMasterKey(ctx context.Context, password []byte) error {
	start := time.Now()
	err := f.next.UnlockMasterKey(ctx, password)
	f.record(ctx, "unlock_master_key", start, err)
	return err
}

func (f *facadeWithMetrics) Insert(ctx context.Context, doc map[string]any) error {
	start := time.Now()
	err := f.next.Insert(ctx, doc)
	f.record(ctx, "insert", start, err)
	return err
}

func (f *facadeWithMetrics) Update(ctx context.Context, doc map[string]any) (map[string]any, error) {
	start := time.Now()
	got, err := f.next.Update(ctx, doc)
	f.record(ctx, "update", start, err)
	return got, err
}

func (f *facadeWithMetrics) Delete(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	ok, err := f.next.Delete(ctx, id)
	f.record(ctx, "delete", start, err)
	return ok, err
}

func (f *facadeWithMetrics) Get(ctx context.Context, id string) (map[string]any, error) {
	start := time.Now()
	doc, err := f.next.Get(ctx, id)
	f.record(ctx, "get", start, err)
	return doc, err
}

func (f *facadeWithMetrics) Find(ctx context.Context, filter query.Filter) ([]map[string]any, error) {
	start := time.Now()
	docs, err := f.next.Find(ctx, filter)
	f.record(ctx, "find", start, err)
	return docs, err
}
