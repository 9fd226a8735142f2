package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/sequence"
	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type sequenceRepository struct {
	db *database.DB
}

func NewSequenceRepository(db *database.DB) sequence.SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next increments the counter in place; the row lock taken by UPDATE serializes
// concurrent allocations for the same code.
func (r *sequenceRepository) Next(ctx context.Context, code string) (string, error) {
	q := GetQuerier(ctx, r.db)

	var seq sequence.Sequence
	var allocated int64
	err := q.QueryRow(ctx, `
		UPDATE ir_sequences
		SET number_next = number_next + 1
		WHERE code = $1
		RETURNING code, prefix, padding, number_next, number_next - 1
	`, code).Scan(&seq.Code, &seq.Prefix, &seq.Padding, &seq.NumberNext, &allocated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", sequence.ErrSequenceNotFound
		}
		return "", fmt.Errorf("failed to allocate sequence %s: %w", code, err)
	}

	return seq.Format(allocated), nil
}

// Ensure creates seq when its code is unknown; existing counters are left alone.
func (r *sequenceRepository) Ensure(ctx context.Context, seq sequence.Sequence) error {
	q := GetQuerier(ctx, r.db)

	numberNext := seq.NumberNext
	if numberNext < 1 {
		numberNext = 1
	}
	_, err := q.Exec(ctx, `
		INSERT INTO ir_sequences (code, prefix, padding, number_next)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING
	`, seq.Code, seq.Prefix, seq.Padding, numberNext)
	if err != nil {
		return fmt.Errorf("failed to ensure sequence %s: %w", seq.Code, err)
	}
	return nil
}
