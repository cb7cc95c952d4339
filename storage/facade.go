// Package storage orchestrates create/read/update/delete/find operations
// over a DocumentTransport, mediating master-key acquisition through a
// KeyCache and an event-driven callback, and applying the local IndexSet
// policy on every write.
package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vaultline/lockbox/document"
	"github.com/vaultline/lockbox/errs"
	"github.com/vaultline/lockbox/internal/cache"
	"github.com/vaultline/lockbox/masterkey"
	"github.com/vaultline/lockbox/query"
	"github.com/vaultline/lockbox/transport"
)

// Interface is the operation set a Facade exposes; it exists so callers
// can depend on an interface rather than the concrete type, and so the
// metrics decorator in facade_metrics.go can wrap it transparently.
type Interface interface {
	EnsureIndex(name string)
	OnMasterKeyRequest(listener transport.Listener) error
	CreateMasterKey(ctx context.Context, password []byte) error
	ChangeMasterKeyPassword(ctx context.Context, newPassword []byte) error
	UnlockMasterKey(ctx context.Context, password []byte) error
	Insert(ctx context.Context, doc map[string]any) error
	Update(ctx context.Context, doc map[string]any) (map[string]any, error)
	Delete(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (map[string]any, error)
	Find(ctx context.Context, filter query.Filter) ([]map[string]any, error)
}

var _ Interface = (*Facade)(nil)

// Facade is the concrete Interface implementation.
type Facade struct {
	accountID string
	transport transport.DocumentTransport
	index     *document.IndexSet
	cache     *cache.KeyCache
	logger    *slog.Logger

	listenerMu sync.Mutex
	listener   transport.Listener
}

// NewFacade constructs a Facade scoped to accountID, talking to t.
func NewFacade(accountID string, t transport.DocumentTransport, opts ...Option) (*Facade, error) {
	if accountID == "" {
		return nil, errs.Wrap(errs.ErrInvalidArgument, "account id must not be empty")
	}

	cfg := &facadeConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	f := &Facade{
		accountID: accountID,
		transport: t,
		index:     document.NewIndexSet(),
		logger:    cfg.logger,
		cache:     cache.NewKeyCache(cfg.cacheTimeout, cfg.logger),
	}
	return f, nil
}

// EnsureIndex adds name to this facade's IndexSet. It affects future
// writes only.
func (f *Facade) EnsureIndex(name string) {
	f.index.Ensure(name)
}

// OnMasterKeyRequest registers listener as the sole handler for
// master-key-acquisition events. Calling it again while a listener is
// already registered returns errs.ErrInvalidArgument.
func (f *Facade) OnMasterKeyRequest(listener transport.Listener) error {
	f.listenerMu.Lock()
	defer f.listenerMu.Unlock()

	if f.listener != nil {
		return errs.Wrap(errs.ErrInvalidArgument, "a master key listener is already registered")
	}
	f.listener = listener
	return nil
}

// CreateMasterKey generates a new master key, wraps it under password, and
// stores it only if the server has none for this account yet. On success
// the new key is cached.
func (f *Facade) CreateMasterKey(ctx context.Context, password []byte) error {
	mk, err := masterkey.Generate()
	if err != nil {
		return err
	}

	wrapped, err := mk.WrapWithPassword(password)
	if err != nil {
		mk.Close()
		return err
	}

	if err := f.transport.PutMasterKeyIfAbsent(ctx, wrapped); err != nil {
		mk.Close()
		return err
	}

	f.cache.Update(mk, 0)
	return nil
}

// ChangeMasterKeyPassword re-wraps the currently available master key (
// unlocking it via the cache/listener protocol if necessary) under
// newPassword and pushes the new wrapped form to the server.
func (f *Facade) ChangeMasterKeyPassword(ctx context.Context, newPassword []byte) error {
	mk, err := f.resolveMasterKey(ctx)
	if err != nil {
		return err
	}

	wrapped, err := mk.WrapWithPassword(newPassword)
	if err != nil {
		return err
	}

	return f.transport.PostMasterKey(ctx, wrapped)
}

// UnlockMasterKey fetches the wrapped master key from the server and
// unwraps it under password, caching the result. This is the direct
// analogue of the spec's get_master_key operation.
func (f *Facade) UnlockMasterKey(ctx context.Context, password []byte) error {
	wrapped, err := f.transport.GetMasterKey(ctx)
	if err != nil {
		return err
	}

	mk, err := masterkey.UnwrapWithPassword(password, wrapped)
	if err != nil {
		return err
	}

	f.cache.Update(mk, 0)
	return nil
}

// Insert encodes doc and creates it on the server. Returns errs.ErrDuplicate
// if a document with the same id already exists.
func (f *Facade) Insert(ctx context.Context, doc map[string]any) error {
	mk, err := f.resolveMasterKey(ctx)
	if err != nil {
		return err
	}

	enc, err := document.Encode(ctx, doc, mk, f.index)
	if err != nil {
		return err
	}

	return f.transport.PostDocument(ctx, enc)
}

// Update encodes doc and replaces (or creates) it at its blinded id,
// returning the stored document decoded back to cleartext.
func (f *Facade) Update(ctx context.Context, doc map[string]any) (map[string]any, error) {
	mk, err := f.resolveMasterKey(ctx)
	if err != nil {
		return nil, err
	}

	enc, err := document.Encode(ctx, doc, mk, f.index)
	if err != nil {
		return nil, err
	}

	stored, err := f.transport.PutDocument(ctx, enc.ID, enc)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = enc
	}

	return document.Decode(stored, mk)
}

// Delete blinds id and removes the matching document, reporting whether
// anything was actually deleted.
func (f *Facade) Delete(ctx context.Context, id string) (bool, error) {
	mk, err := f.resolveMasterKey(ctx)
	if err != nil {
		return false, err
	}

	return f.transport.DeleteDocument(ctx, mk.BlindString(id))
}

// Get blinds id, fetches the matching document, and decodes it. Returns
// errs.ErrNotFound if no document exists at that id.
func (f *Facade) Get(ctx context.Context, id string) (map[string]any, error) {
	mk, err := f.resolveMasterKey(ctx)
	if err != nil {
		return nil, err
	}

	enc, err := f.transport.GetDocument(ctx, mk.BlindString(id))
	if err != nil {
		return nil, err
	}

	return document.Decode(enc, mk)
}

// Find plans filter into a blinded query, runs it against the server, and
// decodes every result concurrently. A single decode failure fails the
// whole call; no partial results are returned.
func (f *Facade) Find(ctx context.Context, filter query.Filter) ([]map[string]any, error) {
	mk, err := f.resolveMasterKey(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := query.Plan(filter, mk)
	if err != nil {
		return nil, err
	}

	results, err := f.transport.Query(ctx, &transport.BlindedQueryPayload{Equals: plan.Equals, Has: plan.Has})
	if err != nil {
		return nil, err
	}

	docs := make([]map[string]any, len(results))
	g, gctx := errgroup.WithContext(ctx)
	for i, enc := range results {
		i, enc := i, enc
		g.Go(func() error {
			doc, err := document.Decode(enc, mk)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if gctx.Err() != nil {
		return nil, gctx.Err()
	}

	return docs, nil
}

// resolveMasterKey implements the master-key acquisition protocol: a cache
// hit resets the sliding TTL and returns the key; a cache miss asks the
// registered listener, caches its answer, and returns it; with no listener
// registered the operation fails with errs.ErrNotFound.
func (f *Facade) resolveMasterKey(ctx context.Context) (*masterkey.MasterKey, error) {
	if mk, ok := f.cache.Get(); ok {
		return mk, nil
	}

	f.listenerMu.Lock()
	listener := f.listener
	f.listenerMu.Unlock()

	if listener == nil {
		return nil, errs.Wrap(errs.ErrNotFound, "Master key not found.")
	}

	resp, err := listener(ctx, &transport.MasterKeyRequest{
		Name:      "MasterKeyRequest",
		AccountID: f.accountID,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	if resp.MasterKey == nil {
		return nil, errs.Wrap(errs.ErrType, "master key listener did not resolve with a master key")
	}

	timeout := time.Duration(resp.Timeout) * time.Millisecond
	f.cache.Update(resp.MasterKey, timeout)
	return resp.MasterKey, nil
}
