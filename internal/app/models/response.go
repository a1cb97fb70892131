package models

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse is the uniform failure envelope returned for every kind of error.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type IngestPlacesResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type SearchPlacesResponse struct {
	Status string  `json:"status"`
	Count  int     `json:"count"`
	Places []Place `json:"places"`
}

func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{Status: StatusError, Message: err.Error()}
}
