package storage

import (
	"context"
	"sync"

	"github.com/vaultline/lockbox/document"
	"github.com/vaultline/lockbox/errs"
	"github.com/vaultline/lockbox/masterkey"
	"github.com/vaultline/lockbox/transport"
)

// fakeTransport is an in-memory transport.DocumentTransport standing in
// for a real storage server, exercising the same precondition semantics
// the HTTP implementation must honor.
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
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*document.EncryptedDocument
	for _, doc := range f.docs {
		if matches(doc, q) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func matches(doc *document.EncryptedDocument, q *transport.BlindedQueryPayload) bool {
	if len(q.Has) > 0 {
		for _, name := range q.Has {
			if !hasAttribute(doc, name, "") {
				return false
			}
		}
		return true
	}

	for _, want := range q.Equals {
		if matchesAll(doc, want) {
			return true
		}
	}
	return false
}

func hasAttribute(doc *document.EncryptedDocument, name, value string) bool {
	for _, a := range doc.Attributes {
		if a.Name == name && (value == "" || a.Value == value) {
			return true
		}
	}
	return false
}

func matchesAll(doc *document.EncryptedDocument, want map[string]string) bool {
	for name, value := range want {
		if !hasAttribute(doc, name, value) {
			return false
		}
	}
	return true
}
