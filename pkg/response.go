package pkg

// APIResponse represents the structure of a standard success response.
type APIResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// MessageResponse is returned by endpoints that have nothing but a message to report.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse defines the standardized error response format.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// RouteNotFoundResponse is returned for unmatched routes.
type RouteNotFoundResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TraceID string `json:"traceId"`
}

func NewAPIResponse(data any) APIResponse {
	return APIResponse{Success: true, Data: data}
}
