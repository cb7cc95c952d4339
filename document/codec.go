package document

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"github.com/vaultline/lockbox/masterkey"
)

// Encode validates doc, then blinds its id, blinds every attribute named in
// idx that doc also has, and encrypts the whole document body as a JWE. The
// three operations share only an immutable *masterkey.MasterKey and run
// concurrently.
func Encode(ctx context.Context, doc map[string]any, mk *masterkey.MasterKey, idx *IndexSet) (*EncryptedDocument, error) {
	id, ok := doc["id"].(string)
	if !ok || id == "" {
		return nil, ErrMissingID
	}

	var blindedID string
	var attributes []BlindedAttribute
	var jwe *masterkey.JWE

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		blindedID = mk.BlindString(id)
		return nil
	})

	g.Go(func() error {
		attrs, err := blindAttributes(mk, doc, idx)
		if err != nil {
			return err
		}
		attributes = attrs
		return nil
	})

	g.Go(func() error {
		e, err := mk.EncryptObject(doc)
		if err != nil {
			return err
		}
		jwe = e
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if attributes == nil {
		attributes = []BlindedAttribute{}
	}

	return &EncryptedDocument{ID: blindedID, Attributes: attributes, JWE: jwe}, nil
}

func blindAttributes(mk *masterkey.MasterKey, doc map[string]any, idx *IndexSet) ([]BlindedAttribute, error) {
	var out []BlindedAttribute
	for _, name := range idx.Names() {
		value, present := doc[name]
		if !present {
			continue
		}
		valueJSON, err := json.Marshal(map[string]any{name: value})
		if err != nil {
			return nil, err
		}
		out = append(out, BlindedAttribute{
			Name:  mk.BlindString(name),
			Value: mk.Blind(valueJSON),
		})
	}
	return out, nil
}

// Decode decrypts enc's JWE body under mk and returns the cleartext
// document. The blinded outer id on enc is never returned to the caller;
// the document's own plaintext id field, recovered from the decrypted
// body, is what the caller sees.
func Decode(enc *EncryptedDocument, mk *masterkey.MasterKey) (map[string]any, error) {
	if enc == nil || enc.ID == "" || enc.JWE == nil {
		return nil, ErrMalformedEnvelope
	}

	doc, err := mk.DecryptObject(enc.JWE)
	if err != nil {
		return nil, err
	}

	if id, ok := doc["id"].(string); !ok || id == "" {
		return nil, ErrDecryptedMissingID
	}

	return doc, nil
}
