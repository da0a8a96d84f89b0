// Package narrative integrates an optional external narrative-generation
// service. The deterministic trend engine remains the fallback for every
// request: callers must treat any error from a Generator as "use the
// deterministic text" and never surface it.
package narrative

import (
	"context"
)

// Request carries the formatted domain and lab text the service turns into
// free-text narrative.
type Request struct {
	PatientID string `json:"patient_id"`
	Domain    string `json:"domain"`
	LabText   string `json:"lab_text"`
}

// Generator produces free-text narrative for a domain's lab results.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ServiceError is returned when the external service call fails for any
// reason (transport, non-2xx, malformed payload).
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return "narrative " + e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }
