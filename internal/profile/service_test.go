package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/lifecycle"
	"github.com/cuongbtq/chauffer-be/internal/session"
	"github.com/cuongbtq/chauffer-be/internal/storage/storagetest"
	"github.com/cuongbtq/chauffer-be/shared/logger"
)

const driverID = "22222222-2222-4222-8222-222222222222"

func str(s string) *string { return &s }

func signedIn() *session.Session {
	return &session.Session{ID: "s1", Identity: session.Identity{UserID: driverID}}
}

func TestService_Get(t *testing.T) {
	store := storagetest.NewProfileStore(domain.Profile{ID: driverID, FirstName: str("Ana")})
	svc := NewService(store, logger.NewNop())

	profile, err := svc.Get(context.Background(), signedIn())
	require.NoError(t, err)
	assert.Equal(t, "Ana", *profile.FirstName)

	_, err = svc.Get(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = NewService(storagetest.NewProfileStore(), logger.NewNop()).Get(context.Background(), signedIn())
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestService_Update(t *testing.T) {
	store := storagetest.NewProfileStore()
	svc := NewService(store, logger.NewNop())
	ctx := context.Background()

	result, err := svc.Update(ctx, signedIn(), domain.ProfileUpdate{FirstName: str("Ana"), Phone: str(" +46 70 123 45 67 ")})
	require.NoError(t, err)
	assert.Equal(t, "Profile updated successfully", result.Notice.Title)
	assert.Equal(t, "+46 70 123 45 67", *result.Profile.Phone)

	result, err = svc.Update(ctx, signedIn(), domain.ProfileUpdate{LastName: str("Lind")})
	require.NoError(t, err)
	assert.Equal(t, "Ana", *result.Profile.FirstName, "earlier fields are kept")
	assert.Equal(t, "Lind", *result.Profile.LastName)
}

func TestService_UpdateVehicle(t *testing.T) {
	store := storagetest.NewProfileStore(domain.Profile{ID: driverID, FirstName: str("Ana"), LicenseNumber: str("OLD")})
	svc := NewService(store, logger.NewNop())

	result, err := svc.UpdateVehicle(context.Background(), signedIn(), "B-1234", "")
	require.NoError(t, err)
	assert.Equal(t, "Vehicle settings updated", result.Notice.Title)
	assert.Equal(t, "B-1234", *result.Profile.LicenseNumber)
	assert.Equal(t, "", *result.Profile.VehicleDetails)
	assert.Equal(t, "Ana", *result.Profile.FirstName)
}

func TestService_SaveFailures(t *testing.T) {
	tests := []struct {
		name      string
		sess      *session.Session
		storeErr  error
		save      func(*Service, *session.Session) (*Result, error)
		wantErr   error
		wantTitle string
	}{
		{
			name:    "signed out",
			save:    func(s *Service, sess *session.Session) (*Result, error) { return s.Update(context.Background(), sess, domain.ProfileUpdate{FirstName: str("A")}) },
			wantErr: domain.ErrAuthRequired,
		},
		{
			name:      "nothing to update",
			sess:      signedIn(),
			save:      func(s *Service, sess *session.Session) (*Result, error) { return s.Update(context.Background(), sess, domain.ProfileUpdate{}) },
			wantTitle: "Nothing to Update",
		},
		{
			name:      "profile backend failure",
			sess:      signedIn(),
			storeErr:  domain.NewRepositoryError("upsert profile", errors.New("connection reset")),
			save:      func(s *Service, sess *session.Session) (*Result, error) { return s.Update(context.Background(), sess, domain.ProfileUpdate{FirstName: str("A")}) },
			wantTitle: "Error updating profile",
		},
		{
			name:      "vehicle backend failure",
			sess:      signedIn(),
			storeErr:  domain.NewRepositoryError("upsert profile", errors.New("connection reset")),
			save:      func(s *Service, sess *session.Session) (*Result, error) { return s.UpdateVehicle(context.Background(), sess, "B-1", "") },
			wantTitle: "Error updating vehicle settings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storagetest.NewProfileStore()
			store.Err = tt.storeErr
			svc := NewService(store, logger.NewNop())

			result, err := tt.save(svc, tt.sess)
			require.Error(t, err)
			assert.Nil(t, result)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantTitle != "" {
				notice, ok := lifecycle.NoticeFor(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantTitle, notice.Title)
			}
		})
	}
}
