package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/shared/logger"
)

func str(s string) *string { return &s }

func TestProfileRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db, logger.NewNop())
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, first_name, last_name, phone, license_number, vehicle_details, experience, created_at, updated_at FROM profiles WHERE id = \$1 LIMIT 1`).
		WithArgs(driverID).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow(driverID, "Ana", "Lind", nil, "B-1234", "2020 Volvo XC90", nil, now, now))

	profile, err := repo.GetProfile(context.Background(), driverID)
	require.NoError(t, err)
	require.NotNil(t, profile.FirstName)
	assert.Equal(t, "Ana", *profile.FirstName)
	assert.Nil(t, profile.Phone)
	assert.Equal(t, "2020 Volvo XC90", *profile.VehicleDetails)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_GetErrors(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{name: "missing", dbErr: sql.ErrNoRows, wantErr: domain.ErrProfileNotFound},
		{name: "backend failure", dbErr: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewProfileRepository(db, logger.NewNop())
			mock.ExpectQuery(`SELECT (.+) FROM profiles`).WillReturnError(tt.dbErr)

			_, err := repo.GetProfile(context.Background(), driverID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			var repoErr *domain.RepositoryError
			require.ErrorAs(t, err, &repoErr)
			assert.Equal(t, "connection reset", repoErr.Error())
		})
	}
}

func TestProfileRepository_UpsertSetsOnlyGivenFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db, logger.NewNop())
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO profiles \(id,license_number,vehicle_details\) VALUES \(\$1,\$2,\$3\) ` +
		`ON CONFLICT \(id\) DO UPDATE SET license_number = EXCLUDED.license_number, vehicle_details = EXCLUDED.vehicle_details, updated_at = NOW\(\) ` +
		`RETURNING id, first_name, last_name, phone, license_number, vehicle_details, experience, created_at, updated_at`).
		WithArgs(driverID, "B-1234", "2020 Volvo XC90").
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow(driverID, "Ana", nil, nil, "B-1234", "2020 Volvo XC90", nil, now, now))

	profile, err := repo.UpsertProfile(context.Background(), driverID, domain.ProfileUpdate{
		LicenseNumber:  str(" B-1234 "),
		VehicleDetails: str("2020 Volvo XC90"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", *profile.FirstName, "untouched fields keep their value")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_UpsertRejectsEmptyUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db, logger.NewNop())

	_, err := repo.UpsertProfile(context.Background(), driverID, domain.ProfileUpdate{})
	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}
