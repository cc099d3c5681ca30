package models

import "time"

// RegimeChange is a detected break in the up/down probability regime.
type RegimeChange struct {
	Symbol     string    `json:"symbol"`
	DetectedAt time.Time `json:"detected_at"`
	ChangeDate time.Time `json:"change_date"`
	SplitIndex int       `json:"split_index"`
	PBefore    float64   `json:"p_before"`
	PAfter     float64   `json:"p_after"`
	MDL        float64   `json:"mdl"`
	Source     string    `json:"source"` // "scan", "live", "watch"
}

// MDLPoint pairs one candidate split with its smoothed description length.
type MDLPoint struct {
	Date time.Time `json:"date"`
	MDL  float64   `json:"mdl"`
}

// ScanReport is the full outcome of a breakpoint scan over a date range.
type ScanReport struct {
	Symbol       string        `json:"symbol"`
	From         time.Time     `json:"from"`
	To           time.Time     `json:"to"`
	Observations int           `json:"observations"`
	Series       []MDLPoint    `json:"series"`
	BestSplit    int           `json:"best_split"`
	SplitDate    time.Time     `json:"split_date"`
	PBefore      float64       `json:"p_before"`
	PAfter       float64       `json:"p_after"`
	Change       *RegimeChange `json:"change,omitempty"`
}
