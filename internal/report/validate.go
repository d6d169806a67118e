package report

import (
	"errors"
	"fmt"

	"library-assessment/internal/model"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// ValidateRecords checks a report load response against the row shape of its
// report. Every violation is reported, not only the first.
func ValidateRecords(desc model.ReportDescriptor, records []model.ReportRecord) error {
	var errs []error
	for i, rec := range records {
		where := fmt.Sprintf("record %d", i)
		switch desc.Shape {
		case model.ShapeClassification:
			errs = append(errs, validateClass(where, rec, false)...)
			for j, sub := range rec.Subclasses {
				errs = append(errs, validateClass(fmt.Sprintf("%s subclass %d", where, j), sub, true)...)
			}
		case model.ShapeNamed:
			if rec.Name == "" {
				errs = append(errs, fmt.Errorf("%s: name is required", where))
			}
			if len(rec.Subclasses) > 0 {
				errs = append(errs, fmt.Errorf("%s: %s rows cannot have subclasses", where, desc.Type))
			}
		}
		errs = append(errs, validateCounts(where, rec.Counts)...)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidSnapshot, desc.Type, err)
	}
	return nil
}

func validateClass(where string, rec model.ReportRecord, subclass bool) []error {
	var errs []error
	code := classCode(rec)
	if !isClassCode(code) {
		errs = append(errs, fmt.Errorf("%s: classification code %q must be 1-3 letters", where, code))
	}
	if subclass {
		if len(rec.Subclasses) > 0 {
			errs = append(errs, fmt.Errorf("%s: subclasses cannot be nested", where))
		}
		errs = append(errs, validateCounts(where, rec.Counts)...)
	}
	return errs
}

func validateCounts(where string, counts model.CountTable) []error {
	var errs []error
	for lib, rec := range counts {
		for kind, n := range rec {
			if n < 0 {
				errs = append(errs, fmt.Errorf("%s: negative %s count %d for library %s", where, kind, n, lib))
			}
		}
	}
	return errs
}

func isClassCode(code string) bool {
	if len(code) < 1 || len(code) > 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
