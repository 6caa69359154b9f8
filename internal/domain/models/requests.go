package models

// Requests for the prediction HTTP endpoints. Defined in domain for consistency and reuse.

type PredictRequest struct {
	Hours int `param:"hours" json:"hours" validate:"required,oneof=1 6 24"`
}
