package service

import (
	"context"
	"time"
)

// RetentionSweep deletes conversations idle longer than maxIdle, local and
// remote alike. Returns how many were removed. Meant to run from the daily
// scheduler; a zero maxIdle disables the sweep.
func (s *ConversationService) RetentionSweep(ctx context.Context, maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	var stale []string
	for _, c := range s.conversations {
		if c.UpdatedAt.Before(cutoff) {
			stale = append(stale, c.ID)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		s.DeleteConversation(ctx, id)
	}
	if len(stale) > 0 {
		logger.Infof("[retention] removed %d conversations idle since %s", len(stale), cutoff.Format(time.RFC3339))
	}
	return len(stale)
}
