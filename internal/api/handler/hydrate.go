package handler

import (
	"bytes"
	"context"
	"errors"

	"library-assessment/internal/model"
	"library-assessment/internal/report"
	"library-assessment/internal/session"
	"library-assessment/internal/store"
)

// Hydrator loads the latest stored org units and undated reports into new
// sessions. Missing snapshots are skipped.
func Hydrator(db *store.DB) session.Hydrator {
	return func(ctx context.Context, s *session.Session) error {
		snap, err := db.LatestSnapshot(ctx, store.KindOrgUnits, "", model.DateRange{})
		switch {
		case err == nil:
			_, tree, err := report.DecodeOrgUnits(bytes.NewReader(snap.Payload))
			if err != nil {
				return err
			}
			s.LoadOrgUnits(tree, snap.LoadedAt)
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		for _, desc := range model.ReportTypes() {
			if desc.Dated {
				continue
			}
			if err := restoreReport(ctx, db, s, desc.Type, model.DateRange{}); err != nil {
				return err
			}
		}
		return nil
	}
}

// restoreDated loads the stored datasets of every dated report for r
func restoreDated(ctx context.Context, db *store.DB, s *session.Session, r model.DateRange) error {
	if r.IsZero() {
		return nil
	}
	for _, desc := range model.ReportTypes() {
		if !desc.Dated {
			continue
		}
		if err := restoreReport(ctx, db, s, desc.Type, r); err != nil {
			return err
		}
	}
	return nil
}

func restoreReport(ctx context.Context, db *store.DB, s *session.Session, t model.ReportType, r model.DateRange) error {
	snap, err := db.LatestSnapshot(ctx, store.KindReport, t, r)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	ds, err := report.DecodeReport(bytes.NewReader(snap.Payload), t)
	if err != nil {
		return err
	}
	ds.LoadedAt = snap.LoadedAt
	ds.Range = r
	_, err = s.LoadReport(ds)
	return err
}
