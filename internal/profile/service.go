// Package profile reads and saves the chauffeur's profile and vehicle details.
package profile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/internal/lifecycle"
	"github.com/cuongbtq/chauffer-be/internal/session"
	"github.com/cuongbtq/chauffer-be/internal/storage"
)

var (
	noticeSaved = lifecycle.Notice{
		Title:       "Profile updated successfully",
		Description: "Your profile information has been saved.",
		Variant:     lifecycle.VariantDefault,
	}
	noticeSaveFailed = lifecycle.Notice{
		Title:       "Error updating profile",
		Description: "There was a problem updating your profile. Please try again.",
		Variant:     lifecycle.VariantDestructive,
	}
	noticeVehicleSaved = lifecycle.Notice{
		Title:       "Vehicle settings updated",
		Description: "Your vehicle information has been successfully updated.",
		Variant:     lifecycle.VariantDefault,
	}
	noticeVehicleFailed = lifecycle.Notice{
		Title:       "Error updating vehicle settings",
		Description: "There was a problem updating your vehicle information. Please try again.",
		Variant:     lifecycle.VariantDestructive,
	}
	noticeNothingToSave = lifecycle.Notice{
		Title:       "Nothing to Update",
		Description: "Change at least one field before saving.",
		Variant:     lifecycle.VariantDestructive,
	}
)

// Result is a saved profile with the toast to show
type Result struct {
	Profile *domain.Profile  `json:"profile"`
	Notice  lifecycle.Notice `json:"notice"`
}

type Service struct {
	store  storage.ProfileStore
	logger *slog.Logger
}

func NewService(store storage.ProfileStore, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With(slog.String("component", "profile")),
	}
}

// Get returns the signed-in user's profile
func (s *Service) Get(ctx context.Context, sess *session.Session) (*domain.Profile, error) {
	if sess == nil {
		return nil, domain.ErrAuthRequired
	}
	return s.store.GetProfile(ctx, sess.UserID())
}

// Update saves the fields set in update
func (s *Service) Update(ctx context.Context, sess *session.Session, update domain.ProfileUpdate) (*Result, error) {
	return s.save(ctx, sess, update, noticeSaved, noticeSaveFailed)
}

// UpdateVehicle saves the license number and vehicle description together
func (s *Service) UpdateVehicle(ctx context.Context, sess *session.Session, licenseNumber, vehicleDetails string) (*Result, error) {
	update := domain.ProfileUpdate{
		LicenseNumber:  &licenseNumber,
		VehicleDetails: &vehicleDetails,
	}
	return s.save(ctx, sess, update, noticeVehicleSaved, noticeVehicleFailed)
}

func (s *Service) save(ctx context.Context, sess *session.Session, update domain.ProfileUpdate, ok, failed lifecycle.Notice) (*Result, error) {
	if sess == nil {
		return nil, domain.ErrAuthRequired
	}
	if update.Empty() {
		return nil, &lifecycle.Error{Err: domain.NewValidationError("Nothing to update"), Notice: noticeNothingToSave}
	}

	profile, err := s.store.UpsertProfile(ctx, sess.UserID(), update)
	if err != nil {
		s.logger.Error("Failed to save profile",
			slog.String("user_id", sess.UserID()),
			slog.Any("error", err),
		)
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return nil, &lifecycle.Error{Err: err, Notice: noticeNothingToSave}
		}
		return nil, &lifecycle.Error{Err: err, Notice: failed}
	}

	return &Result{Profile: profile, Notice: ok}, nil
}
