package lifecycle

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

var melbourne = time.FixedZone("AEST", 10*60*60)

type demoFixture struct {
	pickup, dropoff string
	at              string
	payout          int64
	vehicle         domain.VehicleType
}

var demoFixtures = []demoFixture{
	{"Crown Casino, Melbourne VIC 3006", "Melbourne Airport Terminal 1, Tullamarine VIC 3045", "2024-06-15T14:30:00", 95, domain.VehicleLuxury},
	{"Collins Street, Melbourne CBD", "Brighton Beach Hotel, Brighton VIC", "2024-06-15T16:45:00", 45, domain.VehicleStandard},
	{"Flinders Street Station, Melbourne VIC", "St Kilda Football Club, Moorabbin VIC", "2024-06-15T10:15:00", 35, domain.VehicleStandard},
	{"Melbourne Central Station, Melbourne VIC", "RMIT University, Brunswick VIC", "2024-06-15T08:30:00", 25, domain.VehicleStandard},
	{"The Ritz-Carlton Melbourne", "Royal Botanic Gardens Melbourne", "2024-06-15T12:00:00", 65, domain.VehicleLuxury},
	{"Southern Cross Station, Melbourne VIC", "Docklands Stadium, Melbourne VIC", "2024-06-15T19:30:00", 30, domain.VehicleStandard},
	{"Queen Victoria Market, Melbourne VIC", "Melbourne Zoo, Parkville VIC", "2024-06-16T09:00:00", 40, domain.VehicleStandard},
	{"Park Hyatt Melbourne", "Melbourne Cricket Ground (MCG)", "2024-06-16T15:20:00", 75, domain.VehicleLuxury},
	{"Chapel Street, Prahran VIC", "Chadstone Shopping Centre, Malvern East VIC", "2024-06-16T11:15:00", 28, domain.VehicleStandard},
	{"Melbourne Airport Terminal 3", "Crown Towers Melbourne", "2024-06-16T18:45:00", 85, domain.VehicleLuxury},
	{"Federation Square, Melbourne VIC", "University of Melbourne, Parkville VIC", "2024-06-17T07:45:00", 32, domain.VehicleStandard},
	{"Eureka Tower, Southbank VIC", "St Kilda Beach, St Kilda VIC", "2024-06-17T13:30:00", 38, domain.VehicleStandard},
	{"Grand Hyatt Melbourne", "Flemington Racecourse, Flemington VIC", "2024-06-17T14:00:00", 55, domain.VehicleLuxury},
	{"Richmond Station, Richmond VIC", "Yarra Valley, Healesville VIC", "2024-06-17T10:30:00", 120, domain.VehicleLuxury},
	{"Melbourne Convention Centre, South Wharf VIC", "Tullamarine Airport, Terminal 2", "2024-06-17T16:15:00", 78, domain.VehicleStandard},
}

// DemoJobs returns the read-only sample listings shown next to real jobs
func DemoJobs() []domain.Job {
	jobs := make([]domain.Job, 0, len(demoFixtures))
	for i, f := range demoFixtures {
		at, err := time.ParseInLocation("2006-01-02T15:04:05", f.at, melbourne)
		if err != nil {
			panic(err)
		}
		vehicle := f.vehicle
		n := i + 1
		jobs = append(jobs, domain.Job{
			ID:          domain.DemoJobPrefix + strconv.Itoa(n),
			Pickup:      f.pickup,
			Dropoff:     f.dropoff,
			ScheduledAt: at,
			Payout:      decimal.NewFromInt(f.payout),
			VehicleType: &vehicle,
			PosterID:    "dummy-user-" + strconv.Itoa(n),
			Status:      domain.JobStatusAvailable,
			CreatedAt:   at,
			UpdatedAt:   at,
		})
	}
	return jobs
}

// DemoJob looks up one fixture by id
func DemoJob(id string) (*domain.Job, bool) {
	for _, j := range DemoJobs() {
		if j.ID == id {
			return &j, true
		}
	}
	return nil, false
}
