package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Place is a catalog row ingested from an external listing source.
// PlaceID is the natural key; ID is assigned by the store.
type Place struct {
	ID                    uuid.UUID       `json:"id"`
	Position              *int            `json:"position"`
	Title                 *string         `json:"title"`
	PlaceID               string          `json:"place_id"`
	DataID                *string         `json:"data_id"`
	DataCID               *string         `json:"data_cid"`
	ReviewsLink           *string         `json:"reviews_link"`
	PhotosLink            *string         `json:"photos_link"`
	GPSCoordinates        json.RawMessage `json:"gps_coordinates"`
	PlaceIDSearch         *string         `json:"place_id_search"`
	ProviderID            *string         `json:"provider_id"`
	Rating                *float64        `json:"rating"`
	Reviews               *int            `json:"reviews"`
	Price                 *string         `json:"price"`
	Type                  *string         `json:"type"`
	Types                 json.RawMessage `json:"types"`
	TypeID                *string         `json:"type_id"`
	TypeIDs               json.RawMessage `json:"type_ids"`
	Address               *string         `json:"address"`
	OpenState             *string         `json:"open_state"`
	Hours                 *string         `json:"hours"`
	OperatingHours        json.RawMessage `json:"operating_hours"`
	Phone                 *string         `json:"phone"`
	Website               *string         `json:"website"`
	Amenities             json.RawMessage `json:"amenities"`
	Description           *string         `json:"description"`
	ServiceOptions        json.RawMessage `json:"service_options"`
	Thumbnail             *string         `json:"thumbnail"`
	Extensions            json.RawMessage `json:"extensions"`
	UnsupportedExtensions json.RawMessage `json:"unsupported_extensions"`
	SerpapiThumbnail      *string         `json:"serpapi_thumbnail"`
	UserReview            *string         `json:"user_review"`
	PlaceDetail           json.RawMessage `json:"place_detail"`
}

// PlaceRecord is one raw listing as received from the collection pipeline.
// Only keys in the catalog's column allow-list are persisted.
type PlaceRecord map[string]any

// PlaceID returns the record's natural key and whether it is a usable one.
func (r PlaceRecord) PlaceID() (string, bool) {
	v, ok := r["place_id"].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// IngestPlacesRequest is the batch ingestion payload.
type IngestPlacesRequest struct {
	Places []PlaceRecord `json:"places"`
}

// PlaceSearchFilter selects catalog rows by category and latitude bucket.
// Longitude is carried for callers but never filters.
type PlaceSearchFilter struct {
	Category  string
	Latitude  float64
	Longitude float64
}
