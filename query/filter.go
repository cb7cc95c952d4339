// Package query validates and translates equals/has filters into the
// blinded payload the storage server actually understands.
package query

import (
	validation "github.com/jellydator/validation"

	"github.com/vaultline/lockbox/errs"
)

// Filter selects documents by exactly one of two criteria:
//
//   - Equals: one or more attribute-name/value maps. A document matches a
//     single map if all its (name, value) pairs match (AND); multiple maps
//     in the slice are OR-ed against each other.
//   - Has: one or more attribute names that must all be present on a
//     document (AND).
//
// Exactly one of Equals or Has must be set; setting both, or neither, is
// an InvalidArgument error at Validate/Plan time.
type Filter struct {
	Equals []map[string]any
	Has    []string
}

// EqualsFilter builds a Filter matching any document satisfying at least
// one of the given attribute maps.
func EqualsFilter(maps ...map[string]any) Filter {
	return Filter{Equals: maps}
}

// HasFilter builds a Filter matching any document that carries every named
// attribute.
func HasFilter(names ...string) Filter {
	return Filter{Has: names}
}

// xorRule enforces that exactly one of Equals/Has is populated.
type xorRule struct{}

func (xorRule) Validate(value any) error {
	f, ok := value.(Filter)
	if !ok {
		return validation.NewError("validation_filter_type", "value must be a Filter")
	}
	hasEquals := len(f.Equals) > 0
	hasHas := len(f.Has) > 0
	if hasEquals == hasHas {
		return validation.NewError("validation_filter_exclusive", "exactly one of equals or has must be set")
	}
	return nil
}

// Validate checks that f has exactly one of Equals/Has set, and that
// every element is well-shaped (non-empty map, non-empty attribute name).
func Validate(f Filter) error {
	if err := xorRule{}.Validate(f); err != nil {
		return errs.Wrap(errs.ErrInvalidArgument, err.Error())
	}

	for _, m := range f.Equals {
		if len(m) == 0 {
			return errs.Wrap(errs.ErrInvalidArgument, "equals filter entries must not be empty")
		}
	}
	for _, name := range f.Has {
		if name == "" {
			return errs.Wrap(errs.ErrInvalidArgument, "has filter entries must not be empty")
		}
	}

	return nil
}
