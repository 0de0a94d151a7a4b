package worker

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/chauffer-be/internal/changefeed"
	"github.com/cuongbtq/chauffer-be/internal/domain"
)

// publishEvent re-encodes one change event and publishes it
func (w *Worker) publishEvent(workerName string, ev domain.ChangeEvent) {
	row := ev.Row()
	body, err := changefeed.Encode(ev)
	if err != nil {
		w.dropped.Add(1)
		w.logger.Error("Failed to encode change event",
			slog.String("worker_name", workerName),
			slog.String("job_id", row.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	// Publishing outlives the relay's context so a shutdown still drains the queue
	ctx, cancel := context.WithTimeout(context.Background(), w.jobTimeout)
	defer cancel()

	if err := w.publisher.PublishWithRetry(ctx, body, changefeed.ContentType); err != nil {
		w.failed.Add(1)
		w.logger.Error("Failed to publish change event",
			slog.String("worker_name", workerName),
			slog.String("job_id", row.ID),
			slog.String("kind", string(ev.Kind)),
			slog.String("error", err.Error()),
		)
		return
	}

	w.published.Add(1)
	w.logger.Debug("Change event published",
		slog.String("worker_name", workerName),
		slog.String("job_id", row.ID),
		slog.String("kind", string(ev.Kind)),
	)
}
