package query

import (
	"encoding/json"

	"github.com/vaultline/lockbox/masterkey"
)

// BlindedQuery is the wire payload sent to the storage server's query
// endpoint: every attribute name and value has already been blinded, so
// the server can match it against its own blinded index without ever
// learning the plaintext filter.
type BlindedQuery struct {
	Equals []map[string]string `json:"equals,omitempty"`
	Has    []string            `json:"has,omitempty"`
}

// Plan validates f and translates it into a BlindedQuery under mk. Each
// equals map becomes {blind(name): blind(json({name: value}))} entries;
// each has entry becomes blind(name).
func Plan(f Filter, mk *masterkey.MasterKey) (*BlindedQuery, error) {
	if err := Validate(f); err != nil {
		return nil, err
	}

	q := &BlindedQuery{}

	for _, m := range f.Equals {
		blinded := make(map[string]string, len(m))
		for name, value := range m {
			valueJSON, err := json.Marshal(map[string]any{name: value})
			if err != nil {
				return nil, err
			}
			blinded[mk.BlindString(name)] = mk.Blind(valueJSON)
		}
		q.Equals = append(q.Equals, blinded)
	}

	for _, name := range f.Has {
		q.Has = append(q.Has, mk.BlindString(name))
	}

	return q, nil
}
