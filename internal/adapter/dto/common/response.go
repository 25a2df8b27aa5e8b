package common

import "time"

// HealthResponse reports the state of the service and its dependencies
type HealthResponse struct {
	Status      string            `json:"status"`
	Environment string            `json:"environment"`
	Checks      map[string]string `json:"checks"`
	Time        time.Time         `json:"time"`
}

// MessageResponse carries a short confirmation
type MessageResponse struct {
	Message string `json:"message"`
}
