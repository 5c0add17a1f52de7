package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/student3964/MindVault/internal/util"
	"github.com/student3964/MindVault/pkg/domain"
)

// RunDeadlineChecker periodically scans for expired events and stores one
// alert per event. Blocks until ctx is canceled.
func (a *App) RunDeadlineChecker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.CheckDeadlines(time.Now().UTC()); err != nil {
				slog.Error("deadline check failed", "err", err)
			}
		}
	}
}

// CheckDeadlines creates stored alerts for events whose deadline has
// passed, skipping events already alerted on.
func (a *App) CheckDeadlines(now time.Time) error {
	expired, err := a.store.ListExpiredEvents(now)
	if err != nil {
		return fmt.Errorf("list expired events: %w", err)
	}
	for _, ev := range expired {
		exists, err := a.store.HasAlertForEvent(ev.ID)
		if err != nil {
			return fmt.Errorf("check alert for event %s: %w", ev.ID, err)
		}
		if exists {
			continue
		}
		alert := domain.Alert{
			ID:        util.NewID(),
			OwnerID:   ev.OwnerID,
			Message:   fmt.Sprintf("%q has passed its deadline", ev.Title),
			EventID:   ev.ID,
			CreatedAt: now,
		}
		if err := a.store.SaveAlert(alert); err != nil {
			return fmt.Errorf("save alert for event %s: %w", ev.ID, err)
		}
		slog.Info("deadline alert created", "event_id", ev.ID, "owner_id", ev.OwnerID)
	}
	return nil
}
