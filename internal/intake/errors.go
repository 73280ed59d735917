package intake

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrItemNotFound        = errors.New("item not found")
	ErrInvalidItemType     = errors.New("item type requires an id and a name")
	ErrUnknownField        = errors.New("unknown item field")
	ErrInvalidValue        = errors.New("invalid field value")
	ErrFixedCondition      = errors.New("item condition is fixed by the catalog")
	ErrDerivedQuantity     = errors.New("quantity of an estimated item is derived from its containers")
	ErrNotEstimated        = errors.New("item has no container fields")
	ErrInvalidMethod       = errors.New("donation method must be Individual or Bulk")
	ErrInvalidTransition   = errors.New("step transition not allowed")
	ErrDraftClosed         = errors.New("donation draft is closed")
	ErrSubmitInProgress    = errors.New("donation submission already in progress")
	ErrSubmissionFailed    = errors.New("donation submission failed")
	ErrNoDonationService   = errors.New("donation service not configured")
	ErrDuplicateItemType   = errors.New("item type already in container")
	ErrAssortedItemMissing = errors.New("item type not in container")
)

// ValidationError blocks a forward step. Fields maps a field name to a
// message, the same shape handlers return to the client.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
