package trips

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/currency"

	"github.com/FACorreiaa/trip-planner/internal/app/models"
)

// validator checks trip payloads before anything reaches storage.
// With strict set, day numbers must run 1..n and destination orders 0..n-1
// within each day, with no duplicates.
type validator struct {
	strict bool
}

func (v validator) create(p models.CreateTripParams) error {
	if strings.TrimSpace(p.Name) == "" {
		return models.Validationf("trip name is required")
	}
	if err := v.scalars(p.Members, p.Currency); err != nil {
		return err
	}
	return v.days(p.Days)
}

func (v validator) update(p models.UpdateTripParams) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return models.Validationf("trip name cannot be blank")
	}
	if err := v.scalars(p.Members, p.Currency); err != nil {
		return err
	}
	if p.Days != nil {
		return v.days(*p.Days)
	}
	return nil
}

func (v validator) scalars(members *int, code *string) error {
	if members != nil && *members < 0 {
		return models.Validationf("members must not be negative, got %d", *members)
	}
	if code != nil {
		if err := checkCurrency("currency", *code); err != nil {
			return err
		}
	}
	return nil
}

func (v validator) days(days []models.CreateDayParams) error {
	numbers := make([]int, 0, len(days))
	for i, d := range days {
		if d.DayNumber == nil {
			return models.Validationf("days[%d]: day_number is required", i)
		}
		numbers = append(numbers, *d.DayNumber)

		orders := make([]int, 0, len(d.Destinations))
		for j, dest := range d.Destinations {
			if strings.TrimSpace(dest.Name) == "" {
				return models.Validationf("days[%d].destinations[%d]: name is required", i, j)
			}
			if dest.Latitude != nil && (*dest.Latitude < -90 || *dest.Latitude > 90) {
				return models.Validationf("days[%d].destinations[%d]: latitude %v out of range", i, j, *dest.Latitude)
			}
			if dest.Longitude != nil && (*dest.Longitude < -180 || *dest.Longitude > 180) {
				return models.Validationf("days[%d].destinations[%d]: longitude %v out of range", i, j, *dest.Longitude)
			}
			for k, c := range dest.Costs {
				if c.OriginalCurrency != nil {
					field := fmt.Sprintf("days[%d].destinations[%d].costs[%d].originalCurrency", i, j, k)
					if err := checkCurrency(field, *c.OriginalCurrency); err != nil {
						return err
					}
				}
			}
			orders = append(orders, intOr(dest.Order, 0))
		}

		if v.strict && !contiguous(orders, 0) {
			return models.Validationf("days[%d]: destination order must be unique and contiguous from 0", i)
		}
	}

	if v.strict && !contiguous(numbers, 1) {
		return models.Validationf("day_number must be unique and contiguous from 1")
	}
	return nil
}

// checkCurrency accepts only the canonical upper-case ISO 4217 form, since
// the code is stored exactly as sent.
func checkCurrency(field, code string) error {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return models.Validationf("%s: %q is not an ISO 4217 currency code", field, code)
	}
	if unit.String() != code {
		return models.Validationf("%s: %q must be written as %q", field, code, unit.String())
	}
	return nil
}

// contiguous reports whether vals is a permutation of from..from+len(vals)-1.
func contiguous(vals []int, from int) bool {
	sorted := append([]int(nil), vals...)
	sort.Ints(sorted)
	for i, v := range sorted {
		if v != from+i {
			return false
		}
	}
	return true
}
