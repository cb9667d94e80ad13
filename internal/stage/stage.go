// Package stage holds the scoring stages and the runner that chains them.
//
// Every stage reads fields written by earlier stages and returns a
// domain.Update with only the fields it owns:
//
//	margin    -> margin_score
//	moat      -> moat_score, report_summary
//	composite -> final_score
//	report    -> report
package stage

import (
	"context"
	"fmt"

	"GrowthRanker/internal/domain"
)

const (
	NameMargin    = "margin"
	NameMoat      = "moat"
	NameComposite = "composite"
	NameReport    = "report"
)

// Stage contributes one or more fields to a record.
type Stage interface {
	Name() string
	Apply(ctx context.Context, rec domain.Record) (domain.Update, error)
}

// MissingFieldError is returned when a stage precondition is not met.
type MissingFieldError struct {
	Stage string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s stage: %s: %s", e.Stage, domain.ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return domain.ErrMissingField
}

func missing(stage, field string) error {
	return &MissingFieldError{Stage: stage, Field: field}
}
