package domain

import (
	"strings"
	"time"
)

// Profile is the chauffeur's public details, keyed by user id
type Profile struct {
	ID             string    `db:"id" json:"id"`
	FirstName      *string   `db:"first_name" json:"first_name"`
	LastName       *string   `db:"last_name" json:"last_name"`
	Phone          *string   `db:"phone" json:"phone"`
	LicenseNumber  *string   `db:"license_number" json:"license_number"`
	VehicleDetails *string   `db:"vehicle_details" json:"vehicle_details"`
	Experience     *string   `db:"experience" json:"experience"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileUpdate sets only the non-nil fields
type ProfileUpdate struct {
	FirstName      *string
	LastName       *string
	Phone          *string
	LicenseNumber  *string
	VehicleDetails *string
	Experience     *string
}

// Fields returns the columns to set and their trimmed values, in table order
func (u ProfileUpdate) Fields() ([]string, []any) {
	var (
		columns []string
		values  []any
	)
	add := func(column string, v *string) {
		if v == nil {
			return
		}
		columns = append(columns, column)
		values = append(values, strings.TrimSpace(*v))
	}

	add("first_name", u.FirstName)
	add("last_name", u.LastName)
	add("phone", u.Phone)
	add("license_number", u.LicenseNumber)
	add("vehicle_details", u.VehicleDetails)
	add("experience", u.Experience)

	return columns, values
}

func (u ProfileUpdate) Empty() bool {
	columns, _ := u.Fields()
	return len(columns) == 0
}

// Apply copies the set fields onto p
func (u ProfileUpdate) Apply(p *Profile) {
	set := func(dst **string, v *string) {
		if v != nil {
			t := strings.TrimSpace(*v)
			*dst = &t
		}
	}
	set(&p.FirstName, u.FirstName)
	set(&p.LastName, u.LastName)
	set(&p.Phone, u.Phone)
	set(&p.LicenseNumber, u.LicenseNumber)
	set(&p.VehicleDetails, u.VehicleDetails)
	set(&p.Experience, u.Experience)
}
