package tanks

import (
	"context"
	"sort"
	"sync"
	"time"

	errorz "github.com/tedtop/fuelrelay/internal/errors"
	"github.com/tedtop/fuelrelay/internal/models"
)

// Ledger is the append-only store of tank level readings. The current
// level of a tank is its most recent reading; history is never mutated.
type Ledger interface {
	// Record validates against the catalog and appends a reading.
	Record(ctx context.Context, tankID string, level float64) (models.TankReading, error)
	// LatestPerTank returns the newest reading for each tank that has any.
	LatestPerTank(ctx context.Context) ([]models.TankReading, error)
	// Available reports whether the backing store can accept writes.
	Available(ctx context.Context) bool
}

// MemoryLedger keeps readings in process memory. It backs the tank
// endpoints when no database is configured, and the tests.
type MemoryLedger struct {
	mu       sync.RWMutex
	readings map[string][]models.TankReading
	seq      uint
	now      func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{readings: make(map[string][]models.TankReading), now: time.Now}
}

func (l *MemoryLedger) Record(_ context.Context, tankID string, level float64) (models.TankReading, error) {
	if err := ValidateLevel(tankID, level); err != nil {
		return models.TankReading{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	reading := models.TankReading{
		ID:         l.seq,
		TankID:     tankID,
		Level:      level,
		RecordedAt: l.now(),
	}
	l.readings[tankID] = append(l.readings[tankID], reading)
	return reading, nil
}

func (l *MemoryLedger) LatestPerTank(_ context.Context) ([]models.TankReading, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.TankReading, 0, len(l.readings))
	for _, history := range l.readings {
		latest := history[0]
		for _, r := range history[1:] {
			if r.RecordedAt.After(latest.RecordedAt) || (r.RecordedAt.Equal(latest.RecordedAt) && r.ID > latest.ID) {
				latest = r
			}
		}
		out = append(out, latest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TankID < out[j].TankID })
	return out, nil
}

func (l *MemoryLedger) Available(context.Context) bool { return true }

// UnavailableLedger degrades the tank endpoints when no backing store is
// configured: reads fall back to zero levels, writes are rejected.
type UnavailableLedger struct{}

func (UnavailableLedger) Record(_ context.Context, tankID string, level float64) (models.TankReading, error) {
	if err := ValidateLevel(tankID, level); err != nil {
		return models.TankReading{}, err
	}
	return models.TankReading{}, errorz.ErrLedgerUnavailable
}

func (UnavailableLedger) LatestPerTank(context.Context) ([]models.TankReading, error) {
	return nil, nil
}

func (UnavailableLedger) Available(context.Context) bool { return false }
