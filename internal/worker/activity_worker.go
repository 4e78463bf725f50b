package worker

import (
	"context"
	"encoding/json"

	"distriflow/internal/model"
	"distriflow/internal/repository"

	"github.com/rs/zerolog/log"
)

// ActivityWorker persists audit entries dequeued from QueueActivity. The
// trail is append-only: this is the only writer and nothing ever updates or
// deletes a row.
type ActivityWorker struct {
	repo repository.ActivityRepository
}

func NewActivityWorker(repo repository.ActivityRepository) *ActivityWorker {
	return &ActivityWorker{repo: repo}
}

func (w *ActivityWorker) Process(ctx context.Context, raw json.RawMessage) {
	var entry model.ActivityLog
	if err := json.Unmarshal(raw, &entry); err != nil {
		log.Error().Err(err).Msg("activity_worker: invalid payload")
		return
	}
	if entry.Details == "" {
		entry.Details = "{}"
	}
	if err := w.repo.Create(ctx, &entry); err != nil {
		log.Error().Err(err).Str("module", entry.Module).Str("action", entry.Action).
			Msg("activity_worker: failed to persist entry")
	}
}
