package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

var profileColumns = []string{
	"id",
	"first_name",
	"last_name",
	"phone",
	"license_number",
	"vehicle_details",
	"experience",
	"created_at",
	"updated_at",
}

// ProfileRepository is the Postgres ProfileStore
type ProfileRepository struct {
	db      *sqlx.DB
	builder squirrel.StatementBuilderType
	logger  *slog.Logger
}

func NewProfileRepository(db *sqlx.DB, logger *slog.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:      db,
		builder: newBuilder(),
		logger:  logger.With(slog.String("repository", "profiles")),
	}
}

// GetProfile returns the user's profile or domain.ErrProfileNotFound
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	query, args, err := r.builder.
		Select(profileColumns...).
		From("profiles").
		Where(squirrel.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var profile domain.Profile
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&profile); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProfileNotFound
		}
		r.logger.Warn("failed query execute", slog.String("op", "get profile"), slog.Any("error", err))
		return nil, domain.NewRepositoryError("get profile", err)
	}

	return &profile, nil
}

// UpsertProfile writes the set fields, creating the row on first save
func (r *ProfileRepository) UpsertProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	columns, values := update.Fields()
	if len(columns) == 0 {
		return nil, domain.NewValidationError("Nothing to update")
	}

	assignments := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		assignments = append(assignments, c+" = EXCLUDED."+c)
	}
	assignments = append(assignments, "updated_at = NOW()")

	query, args, err := r.builder.
		Insert("profiles").
		Columns(append([]string{"id"}, columns...)...).
		Values(append([]any{userID}, values...)...).
		Suffix("ON CONFLICT (id) DO UPDATE SET " + strings.Join(assignments, ", ")).
		Suffix("RETURNING " + strings.Join(profileColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var profile domain.Profile
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&profile); err != nil {
		r.logger.Warn("failed query execute", slog.String("op", "upsert profile"), slog.Any("error", err))
		return nil, domain.NewRepositoryError("upsert profile", err)
	}

	r.logger.Info("Profile saved",
		slog.String("user_id", userID),
		slog.Any("fields", columns),
	)

	return &profile, nil
}
