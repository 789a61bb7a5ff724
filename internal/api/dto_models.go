package api

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// streamError is the payload of an "error" server-sent event.
type streamError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
