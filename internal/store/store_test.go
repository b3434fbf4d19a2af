package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheApexWu/suzerain/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "suzerain.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testReport(at time.Time, archetype models.Archetype, trust float64) *models.Report {
	return &models.Report{
		Version:     "test",
		GeneratedAt: at,
		Summary:     models.ReportSummary{SessionsAnalyzed: 3, TotalEvents: 42, DistinctContexts: 2},
		Features: models.FeatureVector{
			TrustLevel: trust, TrustDefined: true, Sophistication: 0.2,
			Sessions: 3, Events: 42, TrustEvents: 12,
		},
		Classification: models.Classification{
			Status:     models.StatusClassified,
			Archetype:  archetype,
			Rule:       "delegator",
			Confidence: models.ConfidenceHigh,
		},
	}
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		dbPath  string
		wantErr bool
	}{
		{
			name:   "creates database successfully",
			dbPath: filepath.Join(t.TempDir(), "test.db"),
		},
		{
			name:   "handles in-memory database",
			dbPath: ":memory:",
		},
		{
			name:   "creates parent directories if needed",
			dbPath: filepath.Join(t.TempDir(), "nested", "dir", "test.db"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStore(tt.dbPath)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()

			version, err := s.GetLatestVersion()
			require.NoError(t, err)
			assert.Equal(t, len(migrations), version)
			assert.Equal(t, tt.dbPath, s.Path())
		})
	}
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ApplyMigrations(ctx))
	require.NoError(t, s.ApplyMigrations(ctx))

	versions, err := s.GetAppliedVersions()
	require.NoError(t, err)
	require.Len(t, versions, len(migrations))
	for i, v := range versions {
		assert.Equal(t, migrations[i].Version, v.Version)
	}
}

func TestSaveAndLatest(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Latest(ctx, "alex")
	assert.ErrorIs(t, err, ErrNotFound)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	report := testReport(at, models.ArchetypeDelegator, 0.9)
	changed, err := s.Save(ctx, "alex", report)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEmpty(t, report.RunID, "Save assigns a run id")

	rec, err := s.Latest(ctx, "alex")
	require.NoError(t, err)
	assert.Equal(t, "alex", rec.UserID)
	assert.Equal(t, report.RunID, rec.RunID)
	assert.True(t, at.Equal(rec.ComputedAt))
	assert.Equal(t, models.ArchetypeDelegator, rec.Report.Classification.Archetype)
	assert.Equal(t, 42, rec.Report.Summary.TotalEvents)
	assert.InDelta(t, 0.9, rec.Report.Features.TrustLevel, 1e-12)
}

func TestSaveKeepsMostRecentRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	newer := testReport(base.Add(time.Hour), models.ArchetypeGuardian, 0.3)
	older := testReport(base, models.ArchetypeDelegator, 0.9)

	changed, err := s.Save(ctx, "alex", newer)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Save(ctx, "alex", older)
	require.NoError(t, err)
	assert.False(t, changed, "an older run must not replace the cached one")

	rec, err := s.Latest(ctx, "alex")
	require.NoError(t, err)
	assert.Equal(t, newer.RunID, rec.RunID)
	assert.Equal(t, models.ArchetypeGuardian, rec.Report.Classification.Archetype)

	history, err := s.History(ctx, "alex", 0)
	require.NoError(t, err)
	require.Len(t, history, 2, "both runs are kept in history")
	assert.Equal(t, newer.RunID, history[0].RunID)
	assert.Equal(t, older.RunID, history[1].RunID)
}

func TestSaveIsolatesUsers(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.Save(ctx, "alex", testReport(at, models.ArchetypeDelegator, 0.9))
	require.NoError(t, err)
	_, err = s.Save(ctx, "sam", testReport(at, models.ArchetypeGuardian, 0.2))
	require.NoError(t, err)

	rec, err := s.Latest(ctx, "sam")
	require.NoError(t, err)
	assert.Equal(t, models.ArchetypeGuardian, rec.Report.Classification.Archetype)

	history, err := s.History(ctx, "alex", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSaveRejectsEmptyUser(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Save(context.Background(), "", testReport(time.Now(), models.ArchetypeCouncil, 0.8))
	assert.Error(t, err)
}

func TestSaveInsufficientData(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	report := &models.Report{
		GeneratedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Classification: models.Classification{
			Status:             models.StatusInsufficientData,
			InsufficientReason: models.ReasonNoTrustEvents,
			Confidence:         models.ConfidenceLow,
		},
	}
	_, err := s.Save(ctx, "alex", report)
	require.NoError(t, err)

	history, err := s.History(ctx, "alex", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusInsufficientData, history[0].Status)
	assert.Equal(t, models.Archetype(""), history[0].Archetype)
}

func TestHistoryLimitAndPrune(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := s.Save(ctx, "alex", testReport(base.Add(time.Duration(i)*time.Hour), models.ArchetypeStrategist, 0.6))
		require.NoError(t, err)
	}

	recent, err := s.History(ctx, "alex", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].ComputedAt.After(recent[1].ComputedAt))
	assert.Equal(t, "delegator", recent[0].Rule)
	assert.Equal(t, models.ConfidenceHigh, recent[0].Confidence)

	deleted, err := s.Prune(ctx, "alex", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	all, err := s.History(ctx, "alex", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestConcurrentSaves(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Save(ctx, "alex", testReport(base.Add(time.Duration(i)*time.Minute), models.ArchetypeCouncil, 0.75))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rec, err := s.Latest(ctx, "alex")
	require.NoError(t, err)
	assert.True(t, base.Add(9*time.Minute).Equal(rec.ComputedAt), "latest run wins regardless of write order")

	history, err := s.History(ctx, "alex", 0)
	require.NoError(t, err)
	assert.Len(t, history, 10)
}
