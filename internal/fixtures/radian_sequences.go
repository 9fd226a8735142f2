package fixtures

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/edi-backend-go/internal/domain/radian"
	"github.com/cmlabs-hris/edi-backend-go/internal/domain/sequence"
)

// RadianSequencePadding is the zero padding of allocated event numbers.
const RadianSequencePadding = 6

// RadianSequences returns one sequence per Radian event code, numbered from 1.
func RadianSequences() []sequence.Sequence {
	codes := radian.AllowedEventCodes()
	seqs := make([]sequence.Sequence, 0, len(codes))
	for _, code := range codes {
		seqs = append(seqs, sequence.Sequence{
			Code:       radian.SequenceCode(code),
			Prefix:     radian.SequencePrefix(code),
			Padding:    RadianSequencePadding,
			NumberNext: 1,
		})
	}
	return seqs
}

// SeedRadianSequences creates the missing Radian sequences; existing counters are kept.
func SeedRadianSequences(ctx context.Context, repo sequence.SequenceRepository) error {
	for _, seq := range RadianSequences() {
		if err := repo.Ensure(ctx, seq); err != nil {
			return fmt.Errorf("seed %s: %w", seq.Code, err)
		}
	}
	return nil
}
