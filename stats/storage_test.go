package stats

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir)
	require.NoError(t, err)

	t.Run("Record", func(t *testing.T) {
		storage.Record(Outcome{Score: 90, Status: "excellent", AIBlocked: true})
		storage.Record(Outcome{Score: 40, Status: "critical", SPAEmpty: true, RobotsBlocked: true})
		storage.Record(Outcome{Status: "error", Failed: true})

		stats := storage.GetCurrentStats()
		assert.Equal(t, 3, stats.Analyses)
		assert.Equal(t, 1, stats.Errors)
		assert.Equal(t, 1, stats.AIBlocked)
		assert.Equal(t, 1, stats.SPAEmpty)
		assert.Equal(t, 1, stats.RobotsBlocked)
		assert.Equal(t, 130, stats.ScoreSum)
		assert.InDelta(t, 65.0, stats.AverageScore(), 0.001)
		assert.Equal(t, map[string]int{"excellent": 1, "critical": 1, "error": 1}, stats.StatusCounts)
	})

	t.Run("Copies are detached", func(t *testing.T) {
		stats := storage.GetCurrentStats()
		stats.StatusCounts["excellent"] = 99
		assert.Equal(t, 1, storage.GetCurrentStats().StatusCounts["excellent"])
	})

	t.Run("Persistence", func(t *testing.T) {
		require.NoError(t, storage.save())

		storage2, err := NewStorage(tempDir)
		require.NoError(t, err)
		defer storage2.Shutdown()

		assert.Equal(t, 3, storage2.GetCurrentStats().Analyses)
	})

	t.Run("Cleanup", func(t *testing.T) {
		oldMonth := startOfMonth(time.Now()).AddDate(0, -2, 0).Format("2006-01")
		previousMonth := startOfMonth(time.Now()).AddDate(0, -1, 0).Format("2006-01")
		storage.mutex.Lock()
		storage.stats[oldMonth] = &MonthlyStats{Analyses: 100}
		storage.stats[previousMonth] = &MonthlyStats{Analyses: 7}
		storage.mutex.Unlock()

		storage.Cleanup()

		_, exists := storage.GetMonthlyStats(oldMonth)
		assert.False(t, exists)
		_, exists = storage.GetMonthlyStats(previousMonth)
		assert.True(t, exists)
		assert.Equal(t, []string{time.Now().Format("2006-01"), previousMonth}, storage.GetAllMonths())
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		before := storage.GetCurrentStats().Analyses

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					storage.Record(Outcome{Score: 50, Status: "improvable"})
					storage.GetCurrentStats()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, before+1000, storage.GetCurrentStats().Analyses)
	})

	t.Run("Shutdown flushes", func(t *testing.T) {
		require.NoError(t, storage.Shutdown())
		require.NoError(t, storage.Shutdown())

		info, err := os.Stat(filepath.Join(tempDir, "stats.json"))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	})
}

func TestStorageMonthRollover(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	defer storage.Shutdown()

	current := time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)
	storage.now = func() time.Time { return current }
	storage.Record(Outcome{Score: 80, Status: "good"})

	current = current.Add(2 * time.Hour)
	storage.Record(Outcome{Score: 20, Status: "critical"})

	jan, ok := storage.GetMonthlyStats("2026-01")
	require.True(t, ok)
	feb, ok := storage.GetMonthlyStats("2026-02")
	require.True(t, ok)
	assert.Equal(t, 1, jan.Analyses)
	assert.Equal(t, 1, feb.Analyses)
	assert.Equal(t, []string{"2026-02", "2026-01"}, storage.GetAllMonths())
}

func TestAverageScoreWithoutAnalyses(t *testing.T) {
	assert.Zero(t, MonthlyStats{}.AverageScore())
	assert.Zero(t, MonthlyStats{Analyses: 2, Errors: 2}.AverageScore())
}

func TestStorageLoadsNullFile(t *testing.T) {
	for _, content := range []string{`null`, `{"2026-01":null}`} {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "stats.json"), []byte(content), 0o644))

		storage, err := NewStorage(dir)
		require.NoError(t, err, content)

		assert.NotPanics(t, func() { storage.Record(Outcome{Score: 70, Status: "good"}) }, content)
		assert.Equal(t, 1, storage.GetCurrentStats().Analyses, content)
		require.NoError(t, storage.Shutdown())
	}
}
