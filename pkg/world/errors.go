package world

import (
	"errors"
	"fmt"

	"github.com/aretw0/canon/pkg/core"
)

var errWatchUnsupported = errors.New("storage does not support watching")

// NotFoundError reports a missing domain or question together with the ids
// that do exist.
type NotFoundError struct {
	Kind      string
	ID        string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Unwrap makes errors.Is(err, core.ErrNotFound) hold.
func (e *NotFoundError) Unwrap() error {
	return core.ErrNotFound
}

func notFound(kind, id string, available []string) error {
	if available == nil {
		available = []string{}
	}
	return &NotFoundError{Kind: kind, ID: id, Available: available}
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrValidation, fmt.Sprintf(format, args...))
}
