package worker

import (
	"hash/fnv"
	"log/slog"

	"github.com/cuongbtq/chauffer-be/internal/changefeed"
)

// dispatch validates a notification payload and hands it to the worker owning its job.
// Malformed payloads are dropped, never retried. It blocks while that worker's queue is full.
func (w *Worker) dispatch(payload []byte) {
	select {
	case <-w.stopChan:
		w.dropped.Add(1)
		w.logger.Warn("Worker stopping, change payload dropped")
		return
	default:
	}

	ev, err := changefeed.Decode(payload)
	if err != nil {
		w.dropped.Add(1)
		w.logger.Warn("Dropping invalid change payload",
			slog.Int("bytes", len(payload)),
			slog.String("error", err.Error()),
		)
		return
	}

	jobID := ev.Row().ID
	select {
	case w.shards[w.shardFor(jobID)] <- ev:
		w.logger.Debug("Change event dispatched to worker pool", slog.String("job_id", jobID))
	case <-w.stopChan:
		w.dropped.Add(1)
		w.logger.Warn("Worker stopping, change payload dropped", slog.String("job_id", jobID))
	}
}

func (w *Worker) shardFor(jobID string) int {
	h := fnv.New32a()
	h.Write([]byte(jobID))
	return int(h.Sum32() % uint32(len(w.shards)))
}
