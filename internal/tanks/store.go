package tanks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tedtop/fuelrelay/internal/models"
)

// GormLedger persists readings in the tank_level_readings table.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Record(ctx context.Context, tankID string, level float64) (models.TankReading, error) {
	// Validation precedes the store call, never after.
	if err := ValidateLevel(tankID, level); err != nil {
		return models.TankReading{}, err
	}

	reading := models.TankReading{
		TankID:     tankID,
		Level:      level,
		RecordedAt: time.Now().UTC(),
	}
	if err := l.db.WithContext(ctx).Create(&reading).Error; err != nil {
		return models.TankReading{}, err
	}
	return reading, nil
}

func (l *GormLedger) LatestPerTank(ctx context.Context) ([]models.TankReading, error) {
	var readings []models.TankReading
	err := l.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (tank_id) id, tank_id, level, recorded_at
		     FROM tank_level_readings
		     ORDER BY tank_id, recorded_at DESC, id DESC`).
		Scan(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}

func (l *GormLedger) Available(ctx context.Context) bool {
	sqlDB, err := l.db.DB()
	if err != nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx) == nil
}
