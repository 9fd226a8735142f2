package sequence

import "context"

// SequenceRepository allocates values from named sequences.
// Next must be atomic: concurrent callers never receive the same value for a code.
type SequenceRepository interface {
	Next(ctx context.Context, code string) (string, error)
	Ensure(ctx context.Context, seq Sequence) error
}
