package notifications

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ProcessPending performs one batch pass over eligible pending jobs, up to
// max, without the queue/socket fast path. It reuses the same conditional
// claim and backoff logic as the workers, so it is safe to run concurrently
// with a live dispatcher or with other flush invocations.
func (s *Service) ProcessPending(ctx context.Context, max int) int {
	processed := 0
	for processed < max {
		job, err := s.ClaimOnePending(ctx)
		if err != nil {
			log.Error().Err(err).Msg("flush claim failed")
			break
		}
		if job == nil {
			break
		}
		s.SendJob(ctx, job)
		processed++
	}
	return processed
}
