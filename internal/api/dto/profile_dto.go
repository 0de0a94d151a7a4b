package dto

import (
	"github.com/cuongbtq/chauffer-be/internal/domain"
)

// UpdateProfileRequest leaves absent fields untouched
type UpdateProfileRequest struct {
	FirstName      *string `json:"first_name" binding:"omitempty,max=100"`
	LastName       *string `json:"last_name" binding:"omitempty,max=100"`
	Phone          *string `json:"phone" binding:"omitempty,max=32"`
	LicenseNumber  *string `json:"license_number" binding:"omitempty,max=64"`
	VehicleDetails *string `json:"vehicle_details" binding:"omitempty,max=1000"`
	Experience     *string `json:"experience" binding:"omitempty,max=1000"`
}

func (r *UpdateProfileRequest) ToUpdate() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Phone:          r.Phone,
		LicenseNumber:  r.LicenseNumber,
		VehicleDetails: r.VehicleDetails,
		Experience:     r.Experience,
	}
}

// UpdateVehicleRequest always writes both fields, blank included
type UpdateVehicleRequest struct {
	LicenseNumber  string `json:"license_number" binding:"max=64"`
	VehicleDetails string `json:"vehicle_details" binding:"max=1000"`
}

type ProfileResponse struct {
	Profile *domain.Profile `json:"profile"`
}
