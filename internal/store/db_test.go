package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-assessment/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLatestSnapshot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	january := model.DateRange{From: "2024-01-01", To: "2024-01-31"}
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := db.SaveSnapshot(ctx, Snapshot{Kind: KindReport, ReportType: model.CirculationByLCCNumber, LoadedAt: base, Range: january, Payload: []byte(`[1]`)})
	require.NoError(t, err)
	newest, err := db.SaveSnapshot(ctx, Snapshot{Kind: KindReport, ReportType: model.CirculationByLCCNumber, LoadedAt: base.Add(time.Hour), Range: january, Payload: []byte(`[2]`)})
	require.NoError(t, err)
	_, err = db.SaveSnapshot(ctx, Snapshot{Kind: KindReport, ReportType: model.CirculationByLCCNumber, LoadedAt: base.Add(2 * time.Hour), Payload: []byte(`[3]`)})
	require.NoError(t, err)

	got, err := db.LatestSnapshot(ctx, KindReport, model.CirculationByLCCNumber, january)
	require.NoError(t, err)
	assert.Equal(t, newest, got.ID)
	assert.Equal(t, []byte(`[2]`), got.Payload)
	assert.True(t, got.LoadedAt.Equal(base.Add(time.Hour)))

	_, err = db.LatestSnapshot(ctx, KindOrgUnits, "", model.DateRange{})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestExports(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := db.SaveExport(ctx, Export{SessionID: "a", ReportType: model.CollectionsByLCCNumber, DrillLevel: "top", RowCount: 2, Path: "out/a/x.csv", CreatedAt: base})
	require.NoError(t, err)
	_, err = db.SaveExport(ctx, Export{SessionID: "b", ReportType: model.CirculationByPatronGroup, DrillLevel: "top", RowCount: 5, Path: "out/b/y.csv", CreatedAt: base.Add(time.Minute)})
	require.NoError(t, err)

	all, err := db.ListExports(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].SessionID)
	assert.Equal(t, model.CirculationByPatronGroup, all[0].ReportType)

	mine, err := db.ListExports(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 2, mine[0].RowCount)

	none, err := db.ListExports(ctx, "c", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
