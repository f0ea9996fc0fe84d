package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/benchdoc/internal/models"
)

var (
	nano  = models.Target{Name: "nano", Title: "Arduino Nano"}
	esp32 = models.Target{Name: "esp32", Title: "ESP32"}
)

func result(started time.Time, tables map[string]string) *models.GenerationResult {
	doc := "# AutoBenchmark\n"
	var formatted []models.FormattedTable
	for _, target := range []models.Target{nano, esp32} {
		text, ok := tables[target.Name]
		if !ok {
			continue
		}
		formatted = append(formatted, models.FormattedTable{Target: target, Text: text, Duration: 5 * time.Millisecond})
		doc += text
	}
	return &models.GenerationResult{
		RunID:     uuid.New().String(),
		StartedAt: started,
		Duration:  20 * time.Millisecond,
		Tables:    formatted,
		Document:  []byte(doc),
		Digest:    digest([]byte(doc)),
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		dbPath  string
		wantErr bool
	}{
		{name: "creates database successfully", dbPath: filepath.Join(t.TempDir(), "history.db")},
		{name: "handles in-memory database", dbPath: ":memory:"},
		{name: "creates parent directories if needed", dbPath: filepath.Join(t.TempDir(), ".benchdoc", "nested", "history.db")},
		{name: "returns error for unwritable path", dbPath: "/proc/benchdoc/history.db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.dbPath)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()

			assert.Equal(t, tt.dbPath, store.Path())

			var version int
			require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
			assert.Equal(t, schemaVersion, version)
		})
	}
}

func TestNewStoreReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, result(time.Now(), map[string]string{"nano": "| a |\n"})))
	require.NoError(t, store.Close())

	store, err = NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordAndRecent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := result(base, map[string]string{"nano": "| a |\n", "esp32": "| b |\n"})
	second := result(base.Add(time.Hour), map[string]string{"nano": "| a |\n", "esp32": "| b |\n"})
	third := result(base.Add(2*time.Hour), map[string]string{"nano": "| a |\n", "esp32": "| c |\n"})
	for _, r := range []*models.GenerationResult{first, second, third} {
		require.NoError(t, store.Record(ctx, r))
	}

	runs, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// Newest first
	assert.Equal(t, third.RunID, runs[0].ID)
	assert.Equal(t, second.RunID, runs[1].ID)
	assert.Equal(t, first.RunID, runs[2].ID)

	assert.True(t, runs[0].Changed())
	assert.Equal(t, []string{"esp32"}, runs[0].ChangedTargets)

	assert.False(t, runs[1].Changed(), "identical regeneration")
	assert.Empty(t, runs[1].ChangedTargets)

	assert.False(t, runs[2].Changed(), "first run has no baseline")
	assert.Empty(t, runs[2].Previous)

	got := runs[0]
	assert.True(t, got.StartedAt.Equal(third.StartedAt))
	assert.Equal(t, third.Duration, got.Duration)
	assert.Equal(t, third.Digest, got.Digest)
	assert.Equal(t, len(third.Document), got.Size)
	require.Len(t, got.Targets, 2)
	assert.Equal(t, "nano", got.Targets[0].Name)
	assert.Equal(t, "esp32", got.Targets[1].Name)
	assert.Equal(t, 6, got.Targets[1].Size)
	assert.Equal(t, 5*time.Millisecond, got.Targets[1].Duration)
}

func TestRecentLimitKeepsBaseline(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, result(time.Now(), map[string]string{"nano": "| a |\n"})))
	require.NoError(t, store.Record(ctx, result(time.Now(), map[string]string{"nano": "| b |\n"})))

	runs, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Changed(), "the run outside the limit is still the baseline")
	assert.Equal(t, []string{"nano"}, runs[0].ChangedTargets)
}

func TestChangedTargetsIncludesAdded(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, result(time.Now(), map[string]string{"nano": "| a |\n"})))
	require.NoError(t, store.Record(ctx, result(time.Now(), map[string]string{"nano": "| a |\n", "esp32": "| b |\n"})))

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, []string{"esp32"}, latest.ChangedTargets)
}

func TestLatestEmpty(t *testing.T) {
	latest, err := newStore(t).Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestRecordRejectsInvalid(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	assert.Error(t, store.Record(ctx, nil))

	r := result(time.Now(), map[string]string{"nano": "x"})
	r.RunID = "not-a-uuid"
	assert.ErrorContains(t, store.Record(ctx, r), "invalid run id")

	dup := result(time.Now(), map[string]string{"nano": "x"})
	require.NoError(t, store.Record(ctx, dup))
	assert.Error(t, store.Record(ctx, dup), "run ids are unique")
}

func TestPrune(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		r := result(time.Now(), map[string]string{"nano": "| a |\n"})
		ids = append(ids, r.RunID)
		require.NoError(t, store.Record(ctx, r))
	}

	removed, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	runs, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[4], runs[0].ID)
	assert.Equal(t, ids[3], runs[1].ID)

	var orphans int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM run_targets WHERE run_seq NOT IN (SELECT seq FROM runs)`).Scan(&orphans))
	assert.Zero(t, orphans)

	removed, err = store.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
