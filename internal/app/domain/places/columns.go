package places

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/FACorreiaa/trip-planner/internal/app/models"
)

type kind int

const (
	kindText kind = iota
	kindInt
	kindFloat
	kindJSON
)

// column is one allow-listed catalog field. target returns the scan
// destination inside a Place.
type column struct {
	name   string
	kind   kind
	target func(p *models.Place) any
}

// columns lists every field a place record may carry, in table order.
// Keys outside this list are dropped on ingestion.
var columns = []column{
	{"position", kindInt, func(p *models.Place) any { return &p.Position }},
	{"title", kindText, func(p *models.Place) any { return &p.Title }},
	{"place_id", kindText, func(p *models.Place) any { return &p.PlaceID }},
	{"data_id", kindText, func(p *models.Place) any { return &p.DataID }},
	{"data_cid", kindText, func(p *models.Place) any { return &p.DataCID }},
	{"reviews_link", kindText, func(p *models.Place) any { return &p.ReviewsLink }},
	{"photos_link", kindText, func(p *models.Place) any { return &p.PhotosLink }},
	{"gps_coordinates", kindJSON, func(p *models.Place) any { return &p.GPSCoordinates }},
	{"place_id_search", kindText, func(p *models.Place) any { return &p.PlaceIDSearch }},
	{"provider_id", kindText, func(p *models.Place) any { return &p.ProviderID }},
	{"rating", kindFloat, func(p *models.Place) any { return &p.Rating }},
	{"reviews", kindInt, func(p *models.Place) any { return &p.Reviews }},
	{"price", kindText, func(p *models.Place) any { return &p.Price }},
	{"type", kindText, func(p *models.Place) any { return &p.Type }},
	{"types", kindJSON, func(p *models.Place) any { return &p.Types }},
	{"type_id", kindText, func(p *models.Place) any { return &p.TypeID }},
	{"type_ids", kindJSON, func(p *models.Place) any { return &p.TypeIDs }},
	{"address", kindText, func(p *models.Place) any { return &p.Address }},
	{"open_state", kindText, func(p *models.Place) any { return &p.OpenState }},
	{"hours", kindText, func(p *models.Place) any { return &p.Hours }},
	{"operating_hours", kindJSON, func(p *models.Place) any { return &p.OperatingHours }},
	{"phone", kindText, func(p *models.Place) any { return &p.Phone }},
	{"website", kindText, func(p *models.Place) any { return &p.Website }},
	{"amenities", kindJSON, func(p *models.Place) any { return &p.Amenities }},
	{"description", kindText, func(p *models.Place) any { return &p.Description }},
	{"service_options", kindJSON, func(p *models.Place) any { return &p.ServiceOptions }},
	{"thumbnail", kindText, func(p *models.Place) any { return &p.Thumbnail }},
	{"extensions", kindJSON, func(p *models.Place) any { return &p.Extensions }},
	{"unsupported_extensions", kindJSON, func(p *models.Place) any { return &p.UnsupportedExtensions }},
	{"serpapi_thumbnail", kindText, func(p *models.Place) any { return &p.SerpapiThumbnail }},
	{"user_review", kindText, func(p *models.Place) any { return &p.UserReview }},
	{"place_detail", kindJSON, func(p *models.Place) any { return &p.PlaceDetail }},
}

var selectColumns = func() string {
	names := make([]string, 0, len(columns)+1)
	names = append(names, "id")
	for _, c := range columns {
		names = append(names, c.name)
	}
	return strings.Join(names, ", ")
}()

func scanTargets(p *models.Place) []any {
	out := make([]any, 0, len(columns)+1)
	out = append(out, &p.ID)
	for _, c := range columns {
		out = append(out, c.target(p))
	}
	return out
}

// coerceRecord keeps the allow-listed keys of rec, converted to the column
// types, in table order. A JSON null becomes SQL NULL.
func coerceRecord(rec models.PlaceRecord) (names []string, values []any, err error) {
	for _, c := range columns {
		raw, present := rec[c.name]
		if !present {
			continue
		}
		v, err := coerce(c, raw)
		if err != nil {
			return nil, nil, err
		}
		names = append(names, c.name)
		values = append(values, v)
	}
	return names, values, nil
}

func coerce(c column, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch c.kind {
	case kindText:
		switch v := raw.(type) {
		case string:
			return v, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case json.Number:
			return v.String(), nil
		case bool:
			return strconv.FormatBool(v), nil
		}
	case kindInt:
		f, ok := toFloat(raw)
		if ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int(f), nil
		}
	case kindFloat:
		if f, ok := toFloat(raw); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, nil
		}
	case kindJSON:
		if c.name == "gps_coordinates" {
			if err := checkCoordinates(raw); err != nil {
				return nil, err
			}
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.name, err)
		}
		return json.RawMessage(b), nil
	}
	return nil, fmt.Errorf("column %s: cannot store %T value %v", c.name, raw, raw)
}

// checkCoordinates rejects coordinates whose latitude cannot be bucketed.
func checkCoordinates(raw any) error {
	obj, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("column gps_coordinates: expected an object, got %T", raw)
	}
	lat, present := obj["latitude"]
	if !present || lat == nil {
		return nil
	}
	if f, ok := toFloat(lat); !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("column gps_coordinates: latitude %v is not numeric", lat)
	}
	return nil
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// bucketOf is the search key for a latitude: its integer part, truncated
// toward zero. It must agree with the lat_bucket column expression.
func bucketOf(latitude float64) int {
	return int(math.Trunc(latitude))
}
