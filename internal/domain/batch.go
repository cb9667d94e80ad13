package domain

import "time"

// ResultStatus enumerates how a record left the pipeline.
type ResultStatus string

const (
	StatusScored ResultStatus = "scored"
	StatusFailed ResultStatus = "failed"
)

// SectorStats aggregates ranked records of one sector.
type SectorStats struct {
	Sector    string   `json:"sector"`
	Count     int      `json:"count"`
	AvgScore  float64  `json:"avg_score"`
	TopScore  float64  `json:"top_score"`
	Companies []string `json:"companies"`
}

// BatchResult is everything a consumer needs to render a run.
type BatchResult struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	NoInput    bool      `json:"no_input"`

	// Results holds every record in input order, failed ones included.
	Results        []Record               `json:"results"`
	Ranked         []Record               `json:"ranked"`
	Failures       []Record               `json:"failures"`
	Sectors        map[string]SectorStats `json:"sectors"`
	FailedBySector map[string]int         `json:"failed_by_sector"`
}

// ScoreSnapshot is a persisted score of one company in one run.
type ScoreSnapshot struct {
	RunID       string
	CompanyName string
	Sector      string
	FinalScore  float64
	MoatScore   int
	MarginScore int
	Status      ResultStatus
	Error       string
	AnalyzedAt  time.Time
}
