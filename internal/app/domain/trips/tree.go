package trips

import (
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/trip-planner/internal/app/models"
)

// newTrip materialises a trip payload into an aggregate with fresh
// identifiers. Nesting and ordering follow the input exactly.
func newTrip(ownerID uuid.UUID, p models.CreateTripParams, now time.Time) *models.Trip {
	tripID := uuid.New()
	return &models.Trip{
		ID:        tripID,
		UserID:    ownerID,
		Name:      p.Name,
		Members:   p.Members,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Currency:  stringOr(p.Currency, models.DefaultCurrency),
		CreatedAt: now,
		UpdatedAt: now,
		Days:      newDays(tripID, p.Days),
	}
}

func newDays(tripID uuid.UUID, specs []models.CreateDayParams) []models.Day {
	days := make([]models.Day, 0, len(specs))
	for _, ds := range specs {
		dayID := uuid.New()
		day := models.Day{
			ID:           dayID,
			TripID:       tripID,
			DayNumber:    intOr(ds.DayNumber, 0),
			Destinations: make([]models.Destination, 0, len(ds.Destinations)),
		}
		for _, dst := range ds.Destinations {
			destID := uuid.New()
			dest := models.Destination{
				ID:        destID,
				DayID:     dayID,
				Name:      dst.Name,
				Address:   dst.Address,
				Latitude:  dst.Latitude,
				Longitude: dst.Longitude,
				Order:     intOr(dst.Order, 0),
				Costs:     make([]models.Cost, 0, len(dst.Costs)),
			}
			for _, cs := range dst.Costs {
				dest.Costs = append(dest.Costs, models.Cost{
					ID:               uuid.New(),
					DestinationID:    destID,
					Amount:           floatOr(cs.Amount, 0),
					Detail:           cs.Detail,
					OriginalAmount:   floatOr(cs.OriginalAmount, 0),
					OriginalCurrency: stringOr(cs.OriginalCurrency, models.DefaultCurrency),
				})
			}
			day.Destinations = append(day.Destinations, dest)
		}
		days = append(days, day)
	}
	return days
}

// assembleDays nests destinations and costs under their parents. Inputs are
// expected in display order; the relative order of each slice is kept.
func assembleDays(days []models.Day, dests []models.Destination, costs []models.Cost) []models.Day {
	costsByDest := make(map[uuid.UUID][]models.Cost, len(dests))
	for _, c := range costs {
		costsByDest[c.DestinationID] = append(costsByDest[c.DestinationID], c)
	}

	destsByDay := make(map[uuid.UUID][]models.Destination, len(days))
	for _, d := range dests {
		d.Costs = costsByDest[d.ID]
		if d.Costs == nil {
			d.Costs = []models.Cost{}
		}
		destsByDay[d.DayID] = append(destsByDay[d.DayID], d)
	}

	out := make([]models.Day, 0, len(days))
	for _, day := range days {
		day.Destinations = destsByDay[day.ID]
		if day.Destinations == nil {
			day.Destinations = []models.Destination{}
		}
		out = append(out, day)
	}
	return out
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
