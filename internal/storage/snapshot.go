// Package storage persists the universe snapshot and portfolio documents as
// JSON files under a single data directory. Writes are atomic: a temp file in
// the same directory followed by a rename, so a crash mid-write can never
// leave a truncated document behind.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/guttosm/etfpulse/internal/domain/models"
	"github.com/guttosm/etfpulse/internal/logger"
)

const (
	snapshotFile = "dividend_universe.json"
	manualFile   = "manual_dividend_history.json"
)

// ErrEmptySnapshot means no prior snapshot exists to reconstruct prices from.
var ErrEmptySnapshot = errors.New("no usable snapshot on disk")

// SnapshotStore owns the universe snapshot file. It is the only writer; the
// mutex serializes the read-modify-write cycle of Merge.
type SnapshotStore struct {
	mu  sync.Mutex
	dir string
}

// NewSnapshotStore ensures the data directory exists and returns the store.
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &SnapshotStore{dir: dir}, nil
}

func (s *SnapshotStore) path() string { return filepath.Join(s.dir, snapshotFile) }

// Load reads the current snapshot. Missing or corrupt files yield an empty
// snapshot; a refresh run rebuilds from scratch in that case.
func (s *SnapshotStore) Load() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *SnapshotStore) loadLocked() models.Snapshot {
	raw, err := os.ReadFile(s.path())
	if err != nil {
		return models.Snapshot{}
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		logger.L().Warn().Err(err).Msg("snapshot file corrupt, starting empty")
		return models.Snapshot{}
	}
	return snap
}

// Merge folds the updated records into the existing snapshot and writes the
// result atomically. Tickers absent from updates keep their previous record,
// so a partial run never erases data it did not touch.
func (s *SnapshotStore) Merge(updates map[string]models.TickerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.loadLocked()
	for ticker, rec := range updates {
		snap[ticker] = rec
	}
	return s.writeLocked(snap)
}

func (s *SnapshotStore) writeLocked(snap models.Snapshot) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// ManualHistory reads the hand-maintained distribution override file:
// ticker -> rows. Missing or corrupt files are simply no overrides.
func (s *SnapshotStore) ManualHistory() map[string][]models.DistributionRow {
	raw, err := os.ReadFile(filepath.Join(s.dir, manualFile))
	if err != nil {
		return map[string][]models.DistributionRow{}
	}
	var manual map[string][]models.DistributionRow
	if err := json.Unmarshal(raw, &manual); err != nil {
		logger.L().Warn().Err(err).Msg("manual history file corrupt, ignoring")
		return map[string][]models.DistributionRow{}
	}
	return manual
}

// FallbackTable reconstructs an approximate price table from the last good
// snapshot, for runs where the exchange is unreachable. Each horizon's past
// price is derived from the stored return: past = now / (1 + ret/100). A zero
// return or price yields a zero entry, which downstream reads as unknown.
func (s *SnapshotStore) FallbackTable() (models.PriceTable, error) {
	snap := s.Load()
	if len(snap) == 0 {
		return nil, ErrEmptySnapshot
	}

	table := make(models.PriceTable, len(models.Horizons))
	for _, h := range models.Horizons {
		table[h] = make(map[string]int64, len(snap))
	}

	for ticker, rec := range snap {
		if rec.Price <= 0 {
			continue
		}
		table["now"][ticker] = rec.Price
		for horizon, ret := range map[string]float64{
			"1m": rec.Return1M, "3m": rec.Return3M, "6m": rec.Return6M,
			"1y": rec.Return1Y, "3y": rec.Return3Y, "5y": rec.Return5Y,
		} {
			if past := reconstructPast(rec.Price, ret); past > 0 {
				table[horizon][ticker] = past
			}
		}
	}
	if len(table["now"]) == 0 {
		return nil, ErrEmptySnapshot
	}
	return table, nil
}

func reconstructPast(now int64, retPct float64) int64 {
	if now <= 0 || retPct == 0 {
		return 0
	}
	denom := 1 + retPct/100
	if denom <= 0 {
		return 0
	}
	return int64(float64(now) / denom)
}
