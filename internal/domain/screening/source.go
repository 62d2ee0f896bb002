package screening

import (
	"context"
	"errors"
)

// DefaultLimit is the number of most-recent screenings the admin screen loads.
const DefaultLimit = 100

// ErrNotFound is returned when a screening id is not in the loaded list.
var ErrNotFound = errors.New("screening not found")

// Source supplies the most recent screenings, newest first. Implementations
// own transport and authentication; a failure should carry a message that
// can be shown to staff as-is.
type Source interface {
	GetScreenings(ctx context.Context, limit int) ([]*Screening, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, limit int) ([]*Screening, error)

func (f SourceFunc) GetScreenings(ctx context.Context, limit int) ([]*Screening, error) {
	return f(ctx, limit)
}
