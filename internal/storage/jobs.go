package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

var jobColumns = []string{
	"id",
	"pickup",
	"dropoff",
	"scheduled_at",
	"payout",
	"vehicle_type",
	"notes",
	"poster_id",
	"claimant_id",
	"status",
	"created_at",
	"updated_at",
}

// JobRepository is the Postgres JobStore
type JobRepository struct {
	db      *sqlx.DB
	builder squirrel.StatementBuilderType
	logger  *slog.Logger
}

func NewJobRepository(db *sqlx.DB, logger *slog.Logger) *JobRepository {
	return &JobRepository{
		db:      db,
		builder: newBuilder(),
		logger:  logger.With(slog.String("repository", "jobs")),
	}
}

// ListAvailable returns open jobs newest first, hiding the caller's own postings
func (r *JobRepository) ListAvailable(ctx context.Context, excludePoster string) ([]domain.Job, error) {
	q := r.builder.
		Select(jobColumns...).
		From("jobs").
		Where(squirrel.Eq{"status": domain.JobStatusAvailable})

	if excludePoster != "" {
		q = q.Where(squirrel.NotEq{"poster_id": excludePoster})
	}

	return r.list(ctx, "list available jobs", q.OrderBy("created_at DESC"))
}

// ListPostedBy returns every job userID posted, newest first
func (r *JobRepository) ListPostedBy(ctx context.Context, userID string) ([]domain.Job, error) {
	q := r.builder.
		Select(jobColumns...).
		From("jobs").
		Where(squirrel.Eq{"poster_id": userID}).
		OrderBy("created_at DESC")

	return r.list(ctx, "list posted jobs", q)
}

// ListClaimedBy returns every job userID claimed, newest first
func (r *JobRepository) ListClaimedBy(ctx context.Context, userID string) ([]domain.Job, error) {
	q := r.builder.
		Select(jobColumns...).
		From("jobs").
		Where(squirrel.Eq{"claimant_id": userID}).
		OrderBy("created_at DESC")

	return r.list(ctx, "list claimed jobs", q)
}

func (r *JobRepository) list(ctx context.Context, op string, q squirrel.SelectBuilder) ([]domain.Job, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	r.logger.Debug("build query", slog.String("op", op), slog.String("sql", query))

	jobs := make([]domain.Job, 0)
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		r.logger.Warn("failed query execute", slog.String("op", op), slog.Any("error", err))
		return nil, domain.NewRepositoryError(op, err)
	}

	return jobs, nil
}

// Get returns one job by id
func (r *JobRepository) Get(ctx context.Context, id string) (*domain.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrJobNotFound
	}

	query, args, err := r.builder.
		Select(jobColumns...).
		From("jobs").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var job domain.Job
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&job); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrJobNotFound
		}
		r.logger.Warn("failed query execute", slog.String("op", "get job"), slog.Any("error", err))
		return nil, domain.NewRepositoryError("get job", err)
	}

	return &job, nil
}

// Create inserts a new available job owned by posterID
func (r *JobRepository) Create(ctx context.Context, posterID string, in domain.NewJob) (*domain.Job, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var vehicleType *string
	if in.VehicleType != nil {
		v := string(*in.VehicleType)
		vehicleType = &v
	}

	query, args, err := r.builder.
		Insert("jobs").
		Columns("id", "pickup", "dropoff", "scheduled_at", "payout", "vehicle_type", "notes", "poster_id", "status").
		Values(
			uuid.NewString(),
			strings.TrimSpace(in.Pickup),
			strings.TrimSpace(in.Dropoff),
			in.ScheduledAt.UTC(),
			*in.Payout,
			vehicleType,
			in.Notes,
			posterID,
			domain.JobStatusAvailable,
		).
		Suffix("RETURNING " + strings.Join(jobColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var job domain.Job
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&job); err != nil {
		r.logger.Warn("failed query execute", slog.String("op", "create job"), slog.Any("error", err))
		if isConstraintViolation(err) {
			return nil, domain.NewValidationError("Job details were rejected: "+err.Error())
		}
		return nil, domain.NewRepositoryError("create job", err)
	}

	r.logger.Info("Job created",
		slog.String("job_id", job.ID),
		slog.String("poster_id", posterID),
	)

	return &job, nil
}

// UpdateStatus applies a conditional status write. It succeeds only while the row is
// still in one of update.From; otherwise ErrConflict, or ErrJobNotFound if the row is absent.
func (r *JobRepository) UpdateStatus(ctx context.Context, update domain.StatusUpdate) (*domain.Job, error) {
	if _, err := uuid.Parse(update.JobID); err != nil {
		return nil, domain.ErrJobNotFound
	}

	from := make([]string, 0, len(update.From))
	for _, s := range update.From {
		from = append(from, string(s))
	}

	q := r.builder.
		Update("jobs").
		Set("status", update.To).
		Set("updated_at", squirrel.Expr("NOW()"))

	if update.ClaimantID != nil {
		q = q.Set("claimant_id", *update.ClaimantID)
	}
	if update.Notes != nil {
		q = q.Set("notes", *update.Notes)
	}

	query, args, err := q.
		Where(squirrel.Eq{"id": update.JobID}).
		Where(squirrel.Eq{"status": from}).
		Suffix("RETURNING " + strings.Join(jobColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var job domain.Job
	err = r.db.QueryRowxContext(ctx, query, args...).StructScan(&job)
	if err == nil {
		r.logger.Info("Job status updated",
			slog.String("job_id", job.ID),
			slog.String("status", string(job.Status)),
		)
		return &job, nil
	}

	if !isNoRows(err) {
		r.logger.Warn("failed query execute", slog.String("op", "update job status"), slog.Any("error", err))
		return nil, domain.NewRepositoryError("update job status", err)
	}

	var current domain.JobStatus
	err = r.db.GetContext(ctx, &current, "SELECT status FROM jobs WHERE id = $1", update.JobID)
	switch {
	case isNoRows(err):
		return nil, domain.ErrJobNotFound
	case err != nil:
		return nil, domain.NewRepositoryError("update job status", err)
	}

	r.logger.Info("Job status update lost race",
		slog.String("job_id", update.JobID),
		slog.String("current_status", string(current)),
		slog.String("target_status", string(update.To)),
	)

	return nil, fmt.Errorf("%w: job is %s", domain.ErrConflict, current)
}
