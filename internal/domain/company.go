package domain

import (
	"errors"
	"time"
)

// UnknownSector groups records that were loaded without a sector.
const UnknownSector = "Unknown"

var (
	// ErrMissingField reports a stage precondition that was not met.
	ErrMissingField = errors.New("missing required field")
	// ErrScorerTimeout reports that the moat collaborator did not answer in time.
	ErrScorerTimeout = errors.New("moat scorer timed out")
	// ErrNoInput signals an empty batch.
	ErrNoInput = errors.New("no input records")
)

// Company is a raw input row handed over by a loader.
type Company struct {
	Name            string   `json:"company_name"`
	Sector          string   `json:"sector"`
	OperatingMargin *float64 `json:"operating_margin,omitempty"`
	GrowthForecast  *float64 `json:"growth_forecast,omitempty"`
}

// Record is threaded through the scoring stages. Pointer fields stay nil
// until the stage owning them has run.
type Record struct {
	CompanyName     string    `json:"company_name"`
	Sector          string    `json:"sector,omitempty"`
	OperatingMargin *float64  `json:"operating_margin,omitempty"`
	GrowthForecast  *float64  `json:"growth_forecast,omitempty"`
	MarginScore     *int      `json:"margin_score,omitempty"`
	MoatScore       *int      `json:"moat_score,omitempty"`
	ReportSummary   *string   `json:"report_summary,omitempty"`
	FinalScore      *float64  `json:"final_score,omitempty"`
	Report          *string   `json:"report,omitempty"`
	Error           string    `json:"error,omitempty"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

// Update is the partial output of a single stage. It has no identity or
// input fields, so a stage cannot overwrite them.
type Update struct {
	MarginScore   *int
	MoatScore     *int
	ReportSummary *string
	FinalScore    *float64
	Report        *string
}

// NewRecord creates the initial record for a company.
func NewRecord(c Company) Record {
	return Record{
		CompanyName:     c.Name,
		Sector:          c.Sector,
		OperatingMargin: c.OperatingMargin,
		GrowthForecast:  c.GrowthForecast,
	}
}

// FailedRecord converts a pipeline failure into a result that is excluded from ranking.
func FailedRecord(c Company, err error) Record {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Record{
		CompanyName: c.Name,
		Sector:      c.Sector,
		FinalScore:  Ptr(0.0),
		Error:       msg,
	}
}

// Merge applies the non-nil fields of u.
func (r *Record) Merge(u Update) {
	if u.MarginScore != nil {
		r.MarginScore = u.MarginScore
	}
	if u.MoatScore != nil {
		r.MoatScore = u.MoatScore
	}
	if u.ReportSummary != nil {
		r.ReportSummary = u.ReportSummary
	}
	if u.FinalScore != nil {
		r.FinalScore = u.FinalScore
	}
	if u.Report != nil {
		r.Report = u.Report
	}
}

// Failed reports whether the batch engine marked the record as failed.
func (r Record) Failed() bool {
	return r.Error != ""
}

// Score returns the final score or zero when it was never computed.
func (r Record) Score() float64 {
	if r.FinalScore == nil {
		return 0
	}
	return *r.FinalScore
}

// SectorKey returns the grouping key used by sector aggregation.
func (r Record) SectorKey() string {
	if r.Sector == "" {
		return UnknownSector
	}
	return r.Sector
}

// Summary returns the narrative or an empty string.
func (r Record) Summary() string {
	if r.ReportSummary == nil {
		return ""
	}
	return *r.ReportSummary
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
