package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCurrency is applied to trips and cost provenance when the caller omits one.
const DefaultCurrency = "USD"

// Trip is the aggregate root of an itinerary. Days, destinations and costs
// are owned by it and never outlive it.
type Trip struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Members   *int      `json:"members"`
	StartDate *string   `json:"start_date"`
	EndDate   *string   `json:"end_date"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Days      []Day     `json:"days"`
}

type Day struct {
	ID           uuid.UUID     `json:"id"`
	TripID       uuid.UUID     `json:"-"`
	DayNumber    int           `json:"day_number"`
	Destinations []Destination `json:"destinations"`
}

type Destination struct {
	ID        uuid.UUID `json:"id"`
	DayID     uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Order     int       `json:"order"`
	Costs     []Cost    `json:"costs"`
}

// Cost holds an amount already converted into the trip currency. The
// original amount and currency are provenance and are stored as given.
type Cost struct {
	ID               uuid.UUID `json:"id"`
	DestinationID    uuid.UUID `json:"-"`
	Amount           float64   `json:"amount"`
	Detail           *string   `json:"detail"`
	OriginalAmount   float64   `json:"originalAmount"`
	OriginalCurrency string    `json:"originalCurrency"`
}

// CreateTripParams is the full trip payload accepted on creation.
type CreateTripParams struct {
	Name      string            `json:"name"`
	Members   *int              `json:"members,omitempty"`
	StartDate *string           `json:"start_date,omitempty"`
	EndDate   *string           `json:"end_date,omitempty"`
	Currency  *string           `json:"currency,omitempty"`
	Days      []CreateDayParams `json:"days,omitempty"`
}

type CreateDayParams struct {
	DayNumber    *int                      `json:"day_number"`
	Destinations []CreateDestinationParams `json:"destinations,omitempty"`
}

type CreateDestinationParams struct {
	Name      string             `json:"name"`
	Address   *string            `json:"address,omitempty"`
	Latitude  *float64           `json:"latitude,omitempty"`
	Longitude *float64           `json:"longitude,omitempty"`
	Order     *int               `json:"order,omitempty"`
	Costs     []CreateCostParams `json:"costs,omitempty"`
}

type CreateCostParams struct {
	Amount           *float64 `json:"amount,omitempty"`
	Detail           *string  `json:"detail,omitempty"`
	OriginalAmount   *float64 `json:"originalAmount,omitempty"`
	OriginalCurrency *string  `json:"originalCurrency,omitempty"`
}

// UpdateTripParams carries a partial update. Nil scalars are left untouched.
// A non-nil Days replaces the whole day list, an empty list included.
type UpdateTripParams struct {
	Name      *string            `json:"name,omitempty"`
	Members   *int               `json:"members,omitempty"`
	StartDate *string            `json:"start_date,omitempty"`
	EndDate   *string            `json:"end_date,omitempty"`
	Currency  *string            `json:"currency,omitempty"`
	Days      *[]CreateDayParams `json:"days,omitempty"`
}

// HasScalarChanges reports whether any trip column is being overwritten.
func (p UpdateTripParams) HasScalarChanges() bool {
	return p.Name != nil || p.Members != nil || p.StartDate != nil || p.EndDate != nil || p.Currency != nil
}

// Counts returns the number of days, destinations and costs in the trip.
func (t *Trip) Counts() (days, destinations, costs int) {
	days = len(t.Days)
	for _, d := range t.Days {
		destinations += len(d.Destinations)
		for _, dest := range d.Destinations {
			costs += len(dest.Costs)
		}
	}
	return days, destinations, costs
}

// TripSummary is a trip header without its day tree, used for listings.
type TripSummary struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Members   *int      `json:"members"`
	StartDate *string   `json:"start_date"`
	EndDate   *string   `json:"end_date"`
	Currency  string    `json:"currency"`
	DayCount  int       `json:"day_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
