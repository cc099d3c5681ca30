package models

// Requests for the HTTP endpoints. Defined in domain for consistency and reuse.

type ScanRequest struct {
	Symbol  string `query:"symbol" json:"symbol" validate:"required"`
	From    string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To      string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Refresh bool   `query:"refresh" json:"refresh"`

	// Source overrides the origin recorded on a detected change.
	// Internal callers only, never bound from the request.
	Source string `query:"-" json:"-"`
}

type ChangesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
