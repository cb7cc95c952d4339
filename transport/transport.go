// Package transport defines the external collaborator that StorageFacade
// depends on to actually reach a remote storage server. This package
// contains no networking code itself; see transporthttp for a concrete
// HTTP implementation.
package transport

import (
	"context"

	"github.com/vaultline/lockbox/document"
	"github.com/vaultline/lockbox/masterkey"
)

// DocumentTransport is everything StorageFacade needs from a remote
// storage server. Every method is scoped to a single account_id, chosen by
// however the concrete implementation is constructed.
//
// Errors returned by implementations should be constructed with the errs
// package sentinels (errs.ErrDuplicate, errs.ErrNotFound,
// errs.ErrTransport, …) so StorageFacade can react to them without
// depending on any transport-specific error type.
type DocumentTransport interface {
	// PutMasterKeyIfAbsent stores w only if no master key is currently
	// stored for this account. Returns errs.ErrDuplicate if one already
	// exists.
	PutMasterKeyIfAbsent(ctx context.Context, w *masterkey.WrappedMasterKey) error

	// PostMasterKey stores w unconditionally, replacing any prior value.
	PostMasterKey(ctx context.Context, w *masterkey.WrappedMasterKey) error

	// GetMasterKey fetches the currently stored wrapped master key.
	// Returns errs.ErrNotFound if none is stored.
	GetMasterKey(ctx context.Context) (*masterkey.WrappedMasterKey, error)

	// PostDocument creates a new document. Returns errs.ErrDuplicate on
	// conflict.
	PostDocument(ctx context.Context, doc *document.EncryptedDocument) error

	// PutDocument creates or replaces the document at blindedID.
	PutDocument(ctx context.Context, blindedID string, doc *document.EncryptedDocument) (*document.EncryptedDocument, error)

	// GetDocument fetches the document at blindedID. Returns
	// errs.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, blindedID string) (*document.EncryptedDocument, error)

	// DeleteDocument removes the document at blindedID, returning whether
	// anything was deleted.
	DeleteDocument(ctx context.Context, blindedID string) (bool, error)

	// Query runs a blinded query and returns every matching document.
	Query(ctx context.Context, q *BlindedQueryPayload) ([]*document.EncryptedDocument, error)
}

// BlindedQueryPayload is the wire shape of a query request; it mirrors
// query.BlindedQuery so this package need not import query directly.
type BlindedQueryPayload struct {
	Equals []map[string]string `json:"equals,omitempty"`
	Has    []string            `json:"has,omitempty"`
}

// MasterKeyRequest is the event StorageFacade emits when an operation
// needs the master key and none is cached. RequestID distinguishes
// concurrent requests in logs and in a listener that queues prompts for a
// human to answer out of order.
type MasterKeyRequest struct {
	Name      string
	AccountID string
	RequestID string
}

// MasterKeyResponse is what a Listener must resolve with: the unwrapped
// master key, and an optional cache timeout (zero means "use the cache's
// default").
type MasterKeyResponse struct {
	MasterKey *masterkey.MasterKey
	Timeout   int64 // milliseconds; 0 means use the cache default
}

// Listener answers a MasterKeyRequest, typically by prompting a user for
// their password and calling masterkey.UnwrapWithPassword. At most one
// Listener may be registered on a given StorageFacade at a time.
type Listener func(ctx context.Context, req *MasterKeyRequest) (MasterKeyResponse, error)
