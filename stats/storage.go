package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MonthlyStats aggregates the analyses of one month. Only counters are kept,
// never the analyses themselves.
type MonthlyStats struct {
	Analyses      int            `json:"analyses"`
	Errors        int            `json:"errors"`
	AIBlocked     int            `json:"ai_blocked"`
	SPAEmpty      int            `json:"spa_empty"`
	RobotsBlocked int            `json:"robots_blocked"`
	ScoreSum      int            `json:"score_sum"`
	StatusCounts  map[string]int `json:"status_counts"`
	LastUpdated   time.Time      `json:"last_updated"`
}

// AverageScore is the mean total score of successful analyses.
func (m MonthlyStats) AverageScore() float64 {
	scored := m.Analyses - m.Errors
	if scored <= 0 {
		return 0
	}
	return float64(m.ScoreSum) / float64(scored)
}

// Outcome is what the store records about one analysis.
type Outcome struct {
	Score         int
	Status        string
	Failed        bool
	AIBlocked     bool
	SPAEmpty      bool
	RobotsBlocked bool
}

// Storage handles persistent storage of statistics
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	stop        chan struct{}
	done        chan struct{}
	now         func() time.Time
}

// NewStorage creates a new statistics storage instance
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		now:         time.Now,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.Unmarshal(data, &s.stats); err != nil {
		return err
	}
	if s.stats == nil {
		s.stats = make(map[string]*MonthlyStats)
	}
	for month, stats := range s.stats {
		if stats == nil {
			delete(s.stats, month)
		}
	}
	return nil
}

// save writes to a temporary file and renames it over the real one.
func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	// unique per save; the writer goroutine and Shutdown may overlap
	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), "stats-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

func (s *Storage) backgroundWriter() {
	defer close(s.done)

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
			_ = s.save()
		case <-ticker.C:
			_ = s.save()
		case <-s.stop:
			return
		}
	}
}

func (s *Storage) monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// startOfMonth avoids AddDate normalisation on the 29th to 31st.
func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// requestWrite signals that a write to disk is needed
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// write already pending
	}
}

// Record adds one analysis outcome to the current month.
func (s *Storage) Record(o Outcome) {
	now := s.now()
	month := s.monthKey(now)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{}
		s.stats[month] = stats
	}
	if stats.StatusCounts == nil {
		stats.StatusCounts = make(map[string]int)
	}

	stats.Analyses++
	stats.StatusCounts[o.Status]++
	if o.Failed {
		stats.Errors++
	} else {
		stats.ScoreSum += o.Score
	}
	if o.AIBlocked {
		stats.AIBlocked++
	}
	if o.SPAEmpty {
		stats.SPAEmpty++
	}
	if o.RobotsBlocked {
		stats.RobotsBlocked++
	}
	stats.LastUpdated = now

	if now.Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = now
	}
}

// GetCurrentStats returns statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	stats, _ := s.GetMonthlyStats(s.monthKey(s.now()))
	return stats
}

// GetMonthlyStats returns a copy of the statistics for a YYYY-MM month.
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats, exists := s.stats[yearMonth]
	if !exists {
		return MonthlyStats{StatusCounts: map[string]int{}}, false
	}
	out := *stats
	out.StatusCounts = make(map[string]int, len(stats.StatusCounts))
	for k, v := range stats.StatusCounts {
		out.StatusCounts[k] = v
	}
	return out, true
}

// Cleanup keeps only the current and previous month.
func (s *Storage) Cleanup() {
	now := s.now()
	currentMonth := s.monthKey(now)
	previousMonth := s.monthKey(startOfMonth(now).AddDate(0, -1, 0))

	s.mutex.Lock()
	for key := range s.stats {
		if key != currentMonth && key != previousMonth {
			delete(s.stats, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
}

// GetAllMonths returns every month with statistics, newest first.
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}

// Shutdown stops the background writer and flushes to disk.
func (s *Storage) Shutdown() error {
	select {
	case <-s.stop:
		return nil
	default:
		close(s.stop)
	}
	<-s.done
	return s.save()
}
